package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Store is the persistence gateway: the only reader and writer of durable
// state. Everything else holds its state in memory and goes through a
// snapshot to survive a restart.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS tasks (
		id              TEXT PRIMARY KEY,
		position        INTEGER NOT NULL,
		text            TEXT NOT NULL,
		completed       INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL,
		completed_at    TEXT,
		pomodoros_spent INTEGER NOT NULL DEFAULT 0,
		external_ref    INTEGER NOT NULL DEFAULT 0,
		priority        TEXT NOT NULL DEFAULT '',
		project         TEXT NOT NULL DEFAULT '',
		estimated_hours REAL NOT NULL DEFAULT 0,
		spent_minutes   INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS stock_tasks (
		id         TEXT PRIMARY KEY,
		position   INTEGER NOT NULL,
		text       TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS activity_log (
		position  INTEGER PRIMARY KEY,
		timestamp TEXT NOT NULL,
		message   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS app_state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS drafts (
		field TEXT PRIMARY KEY,
		text  TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('work_duration',        '1500'),
		('short_break_duration', '300'),
		('long_break_duration',  '900'),
		('long_break_cadence',   '4'),
		('tracker_activity_id',  '9');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/pomotick/pomotick.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "pomotick", "pomotick.db"), nil
}
