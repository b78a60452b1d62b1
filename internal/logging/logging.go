// Package logging configures the diagnostic logger. This is developer
// tooling only; user-visible events go to the in-app activity log instead.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
)

// Logger is the process-wide diagnostic logger. It discards everything
// unless debug logging is enabled.
var Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// Initialize enables debug logging to a JSON log file when debug is true
// (or POMOTICK_DEBUG=1 is set).
func Initialize(debug bool) error {
	if os.Getenv("POMOTICK_DEBUG") == "1" {
		debug = true
	}
	if !debug {
		return nil
	}

	logDir, err := stateDir()
	if err != nil {
		return fmt.Errorf("resolve log directory: %w", err)
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(logDir, "pomotick.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	Logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	Logger.Info("debug logging initialized", "log_file", path)
	return nil
}

// stateDir returns the OS-specific directory for log files.
func stateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Logs", "pomotick"), nil
	case "linux":
		stateHome := os.Getenv("XDG_STATE_HOME")
		if stateHome == "" {
			stateHome = filepath.Join(home, ".local", "state")
		}
		return filepath.Join(stateHome, "pomotick"), nil
	default:
		return filepath.Join(home, ".pomotick", "logs"), nil
	}
}
