package store

import (
	"testing"
	"time"

	"github.com/ymgch/pomotick/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s := newTestStore(t)

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/pomotick.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen — should succeed and not re-migrate
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

// ============================================================
// Snapshot round trip
// ============================================================

func sampleSnapshot(now time.Time) core.Snapshot {
	completedAt := now.Add(-10 * time.Minute)
	dayStart := now.Add(-2 * time.Hour)
	return core.Snapshot{
		Tasks: []core.Task{
			{ID: "t1", Text: "write tests", CreatedAt: now.Add(-time.Hour), PomodorosSpent: 2},
			{ID: "t2", Text: "done thing", Completed: true, CreatedAt: now.Add(-time.Hour), CompletedAt: &completedAt},
			{ID: "t3", Text: "#7 ticket", CreatedAt: now, ExternalRef: 7, Priority: "High", Project: "web", EstimatedHours: 3.5, SpentMinutes: 40},
		},
		Stock: []core.StockTask{
			{ID: "s1", Text: "later", CreatedAt: now},
		},
		Log: []core.LogEntry{
			{Timestamp: now, Message: "newest"},
			{Timestamp: now.Add(-time.Minute), Message: "older"},
		},
		Stats: core.DailyStats{
			CompletedPomodoros: 3,
			TotalFocusMinutes:  75,
			CompletedTasks:     1,
			DayStart:           &dayStart,
		},
		Phase:            core.PhaseShortBreak,
		RemainingSeconds: 120,
		FocusCount:       3,
		LastSaved:        now,
	}
}

func TestSnapshotRoundTripSameDay(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	if err := s.SaveSnapshot(sampleSnapshot(now)); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := s.LoadSnapshot(now)

	if len(got.Tasks) != 3 {
		t.Fatalf("tasks = %d, want 3", len(got.Tasks))
	}
	if got.Tasks[0].ID != "t1" || got.Tasks[0].Text != "write tests" || got.Tasks[0].PomodorosSpent != 2 {
		t.Fatalf("task order or fields lost: %+v", got.Tasks[0])
	}
	if !got.Tasks[1].Completed || got.Tasks[1].CompletedAt == nil {
		t.Fatal("completion state lost")
	}
	ext := got.Tasks[2]
	if ext.ExternalRef != 7 || ext.Priority != "High" || ext.Project != "web" || ext.EstimatedHours != 3.5 || ext.SpentMinutes != 40 {
		t.Fatalf("ticket fields lost: %+v", ext)
	}

	if len(got.Stock) != 1 || got.Stock[0].Text != "later" {
		t.Fatalf("stock lost: %+v", got.Stock)
	}

	if len(got.Log) != 2 || got.Log[0].Message != "newest" {
		t.Fatalf("log order lost: %+v", got.Log)
	}

	if got.Phase != core.PhaseShortBreak || got.RemainingSeconds != 120 || got.FocusCount != 3 {
		t.Fatalf("session state lost: phase=%v remaining=%d focus=%d", got.Phase, got.RemainingSeconds, got.FocusCount)
	}
	if got.Stats.CompletedPomodoros != 3 || got.Stats.TotalFocusMinutes != 75 || got.Stats.CompletedTasks != 1 {
		t.Fatalf("stats lost: %+v", got.Stats)
	}
	if got.Stats.DayStart == nil {
		t.Fatal("day start lost")
	}
}

func TestSaveSnapshotReplacesPrevious(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	s.SaveSnapshot(sampleSnapshot(now))
	s.SaveSnapshot(core.Snapshot{
		Tasks:     []core.Task{{ID: "only", Text: "fresh", CreatedAt: now}},
		LastSaved: now,
	})

	got := s.LoadSnapshot(now)
	if len(got.Tasks) != 1 || got.Tasks[0].ID != "only" {
		t.Fatalf("old rows survived: %+v", got.Tasks)
	}
	if len(got.Stock) != 0 || len(got.Log) != 0 {
		t.Fatal("old stock/log rows survived")
	}
}

// ============================================================
// Day rollover
// ============================================================

func TestLoadSnapshotDayRolloverResetsStatsOnly(t *testing.T) {
	s := newTestStore(t)
	yesterday := time.Now().Add(-26 * time.Hour)

	s.SaveSnapshot(sampleSnapshot(yesterday))

	got := s.LoadSnapshot(time.Now())

	if got.Stats.CompletedPomodoros != 0 || got.Stats.TotalFocusMinutes != 0 || got.Stats.CompletedTasks != 0 {
		t.Fatalf("daily stats should reset: %+v", got.Stats)
	}
	if got.Stats.DayStart != nil {
		t.Fatal("day start should reset")
	}

	// Everything else carries over.
	if len(got.Tasks) != 3 {
		t.Fatalf("tasks = %d, want 3", len(got.Tasks))
	}
	if len(got.Stock) != 1 {
		t.Fatal("stock must survive the rollover")
	}
	if len(got.Log) != 2 {
		t.Fatal("activity log must survive the rollover")
	}
	if got.RemainingSeconds != 120 || got.FocusCount != 3 {
		t.Fatal("session state must survive the rollover")
	}
}

// ============================================================
// Corruption degrades to empty
// ============================================================

func TestLoadSnapshotEmptyStore(t *testing.T) {
	s := newTestStore(t)

	got := s.LoadSnapshot(time.Now())

	if len(got.Tasks) != 0 || len(got.Stock) != 0 || len(got.Log) != 0 {
		t.Fatal("fresh store should load empty")
	}
	if got.Phase != core.PhaseWork || got.RemainingSeconds != 0 {
		t.Fatalf("fresh store state = %v/%d", got.Phase, got.RemainingSeconds)
	}
}

func TestLoadSnapshotCorruptStateDegrades(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	s.SaveSnapshot(sampleSnapshot(now))

	// Garbage in app_state must not fail the load.
	s.db.Exec(`UPDATE app_state SET value = 'garbage' WHERE key = 'remaining_seconds'`)
	s.db.Exec(`UPDATE app_state SET value = 'not-a-phase' WHERE key = 'current_phase'`)
	s.db.Exec(`UPDATE app_state SET value = 'not-a-date' WHERE key = 'day_start'`)

	got := s.LoadSnapshot(now)

	if got.RemainingSeconds != 0 {
		t.Fatalf("remaining = %d, want fallback 0", got.RemainingSeconds)
	}
	if got.Phase != core.PhaseWork {
		t.Fatalf("phase = %v, want fallback work", got.Phase)
	}
	if got.Stats.DayStart != nil {
		t.Fatal("unparsable day start should be dropped")
	}
	if len(got.Tasks) != 3 {
		t.Fatal("intact rows should still load")
	}
}

// ============================================================
// Settings
// ============================================================

func TestDurationsDefaultsSeeded(t *testing.T) {
	s := newTestStore(t)

	d := s.Durations()
	if d != core.DefaultDurations() {
		t.Fatalf("durations = %+v, want defaults", d)
	}
}

func TestSaveDurationsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	want := core.Durations{
		Work:       50 * time.Minute,
		ShortBreak: 10 * time.Minute,
		LongBreak:  30 * time.Minute,
		Cadence:    3,
	}
	if err := s.SaveDurations(want); err != nil {
		t.Fatal(err)
	}
	if got := s.Durations(); got != want {
		t.Fatalf("durations = %+v, want %+v", got, want)
	}
}

func TestTrackerConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)

	cfg := s.TrackerConfig()
	if cfg.Configured() {
		t.Fatal("fresh store should be unconfigured")
	}
	if cfg.ActivityID != core.DefaultActivityID {
		t.Fatalf("activity = %d, want default", cfg.ActivityID)
	}

	want := TrackerConfig{
		BaseURL:    "https://redmine.example.com",
		APIKey:     "secret-key",
		Project:    "web",
		ActivityID: 11,
	}
	if err := s.SaveTrackerConfig(want); err != nil {
		t.Fatal(err)
	}

	got := s.TrackerConfig()
	if got != want {
		t.Fatalf("config = %+v, want %+v", got, want)
	}
	if !got.Configured() {
		t.Fatal("saved config should report configured")
	}
}

// ============================================================
// Drafts
// ============================================================

func TestDraftRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if got := s.Draft("tasks"); got != "" {
		t.Fatalf("fresh draft = %q, want empty", got)
	}

	s.SaveDraft("tasks", "half-typed\nsecond line")
	if got := s.Draft("tasks"); got != "half-typed\nsecond line" {
		t.Fatalf("draft = %q", got)
	}

	// Overwrite
	s.SaveDraft("tasks", "rewritten")
	if got := s.Draft("tasks"); got != "rewritten" {
		t.Fatalf("draft = %q", got)
	}

	// Fields are independent
	s.SaveDraft("stock", "other box")
	if got := s.Draft("tasks"); got != "rewritten" {
		t.Fatal("fields must not bleed into each other")
	}

	s.ClearDraft("tasks")
	if got := s.Draft("tasks"); got != "" {
		t.Fatalf("cleared draft = %q, want empty", got)
	}
	if got := s.Draft("stock"); got != "other box" {
		t.Fatal("clearing one field must not clear another")
	}
}

func TestSaveDraftEmptyClears(t *testing.T) {
	s := newTestStore(t)

	s.SaveDraft("tasks", "something")
	s.SaveDraft("tasks", "")
	if got := s.Draft("tasks"); got != "" {
		t.Fatalf("draft = %q, want cleared", got)
	}
}
