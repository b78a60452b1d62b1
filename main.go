package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ymgch/pomotick/internal/core"
	"github.com/ymgch/pomotick/internal/logging"
	"github.com/ymgch/pomotick/internal/redmine"
	"github.com/ymgch/pomotick/internal/store"
	"github.com/ymgch/pomotick/internal/tui"
)

func main() {
	if err := logging.Initialize(false); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	dbPath, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	s, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	app := core.NewApp(s.Durations())
	app.Restore(s.LoadSnapshot(time.Now()))

	cfg := s.TrackerConfig()
	app.Reconciler.ActivityID = cfg.ActivityID

	var source core.TicketSource
	if cfg.Configured() {
		source = redmine.New(cfg.BaseURL, cfg.APIKey)
	}

	model := tui.NewApp(app, s, source)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := s.SaveSnapshot(app.Snapshot(time.Now())); err != nil {
		fmt.Fprintf(os.Stderr, "error saving state: %v\n", err)
		os.Exit(1)
	}
}
