package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ymgch/pomotick/internal/core"
)

func (s *Store) getSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) setSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) settingInt(key string, fallback int) int {
	v, err := s.getSetting(key)
	if err != nil || v == "" {
		return fallback
	}
	return atoiOr(v, fallback)
}

// Durations reads the configured phase lengths, falling back to the defaults
// for anything missing or unparsable.
func (s *Store) Durations() core.Durations {
	def := core.DefaultDurations()
	return core.Durations{
		Work:       time.Duration(s.settingInt("work_duration", int(def.Work.Seconds()))) * time.Second,
		ShortBreak: time.Duration(s.settingInt("short_break_duration", int(def.ShortBreak.Seconds()))) * time.Second,
		LongBreak:  time.Duration(s.settingInt("long_break_duration", int(def.LongBreak.Seconds()))) * time.Second,
		Cadence:    s.settingInt("long_break_cadence", def.Cadence),
	}
}

// SaveDurations persists the phase lengths as whole seconds.
func (s *Store) SaveDurations(d core.Durations) error {
	pairs := map[string]int{
		"work_duration":        int(d.Work.Seconds()),
		"short_break_duration": int(d.ShortBreak.Seconds()),
		"long_break_duration":  int(d.LongBreak.Seconds()),
		"long_break_cadence":   d.Cadence,
	}
	for k, v := range pairs {
		if err := s.setSetting(k, strconv.Itoa(v)); err != nil {
			return err
		}
	}
	return nil
}

// TrackerConfig is the issue-tracker connection configuration. An empty
// BaseURL means the tracker integration is off.
type TrackerConfig struct {
	BaseURL    string
	APIKey     string
	Project    string
	ActivityID int
}

// Configured reports whether enough is set to talk to the tracker.
func (c TrackerConfig) Configured() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

func (s *Store) TrackerConfig() TrackerConfig {
	cfg := TrackerConfig{ActivityID: core.DefaultActivityID}
	cfg.BaseURL, _ = s.getSetting("tracker_url")
	cfg.APIKey, _ = s.getSetting("tracker_api_key")
	cfg.Project, _ = s.getSetting("tracker_project")
	cfg.ActivityID = s.settingInt("tracker_activity_id", core.DefaultActivityID)
	return cfg
}

func (s *Store) SaveTrackerConfig(cfg TrackerConfig) error {
	pairs := map[string]string{
		"tracker_url":         cfg.BaseURL,
		"tracker_api_key":     cfg.APIKey,
		"tracker_project":     cfg.Project,
		"tracker_activity_id": strconv.Itoa(cfg.ActivityID),
	}
	for k, v := range pairs {
		if err := s.setSetting(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Draft fields: unsent input box contents survive a restart.

func (s *Store) Draft(field string) string {
	var text string
	err := s.db.QueryRow("SELECT text FROM drafts WHERE field = ?", field).Scan(&text)
	if err != nil {
		return ""
	}
	return text
}

func (s *Store) SaveDraft(field, text string) error {
	if text == "" {
		return s.ClearDraft(field)
	}
	_, err := s.db.Exec(
		`INSERT INTO drafts (field, text) VALUES (?, ?)
		 ON CONFLICT(field) DO UPDATE SET text = excluded.text`,
		field, text,
	)
	if err != nil {
		return fmt.Errorf("save draft %s: %w", field, err)
	}
	return nil
}

func (s *Store) ClearDraft(field string) error {
	if _, err := s.db.Exec("DELETE FROM drafts WHERE field = ?", field); err != nil {
		return fmt.Errorf("clear draft %s: %w", field, err)
	}
	return nil
}
