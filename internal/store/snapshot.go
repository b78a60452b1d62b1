package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/ymgch/pomotick/internal/core"
	"github.com/ymgch/pomotick/internal/logging"
)

// app_state keys
const (
	stateKeyPhase      = "current_phase"
	stateKeyRemaining  = "remaining_seconds"
	stateKeyFocusCount = "focus_count"
	stateKeyPomodoros  = "completed_pomodoros"
	stateKeyFocusMin   = "total_focus_minutes"
	stateKeyTasksDone  = "completed_tasks"
	stateKeyDayStart   = "day_start"
	stateKeyLastSaved  = "last_saved"
)

// SaveSnapshot replaces the stored snapshot with snap in one transaction,
// so readers never observe a partial write.
func (s *Store) SaveSnapshot(snap core.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"tasks", "stock_tasks", "activity_log", "app_state"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, t := range snap.Tasks {
		var completedAt sql.NullString
		if t.CompletedAt != nil {
			completedAt = sql.NullString{String: t.CompletedAt.UTC().Format(time.RFC3339), Valid: true}
		}
		_, err := tx.Exec(
			`INSERT INTO tasks (id, position, text, completed, created_at, completed_at,
			                    pomodoros_spent, external_ref, priority, project, estimated_hours, spent_minutes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, i, t.Text, boolToInt(t.Completed), t.CreatedAt.UTC().Format(time.RFC3339), completedAt,
			t.PomodorosSpent, t.ExternalRef, t.Priority, t.Project, t.EstimatedHours, t.SpentMinutes,
		)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
	}

	for i, st := range snap.Stock {
		_, err := tx.Exec(
			`INSERT INTO stock_tasks (id, position, text, created_at) VALUES (?, ?, ?, ?)`,
			st.ID, i, st.Text, st.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert stock task: %w", err)
		}
	}

	// Log entries persist newest-first, matching their in-memory order.
	for i, e := range snap.Log {
		_, err := tx.Exec(
			`INSERT INTO activity_log (position, timestamp, message) VALUES (?, ?, ?)`,
			i, e.Timestamp.UTC().Format(time.RFC3339), e.Message,
		)
		if err != nil {
			return fmt.Errorf("insert log entry: %w", err)
		}
	}

	state := map[string]string{
		stateKeyPhase:      snap.Phase.String(),
		stateKeyRemaining:  strconv.Itoa(snap.RemainingSeconds),
		stateKeyFocusCount: strconv.Itoa(snap.FocusCount),
		stateKeyPomodoros:  strconv.Itoa(snap.Stats.CompletedPomodoros),
		stateKeyFocusMin:   strconv.Itoa(snap.Stats.TotalFocusMinutes),
		stateKeyTasksDone:  strconv.Itoa(snap.Stats.CompletedTasks),
		stateKeyLastSaved:  snap.LastSaved.UTC().Format(time.RFC3339),
	}
	if snap.Stats.DayStart != nil {
		state[stateKeyDayStart] = snap.Stats.DayStart.UTC().Format(time.RFC3339)
	}
	for k, v := range state {
		if _, err := tx.Exec(`INSERT INTO app_state (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert state %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// LoadSnapshot reads the stored snapshot. A missing or unreadable snapshot
// degrades to an empty valid one rather than failing startup; bad rows are
// skipped. When the stored day-start falls on an earlier calendar day than
// now, the daily counters reset while tasks, stock and log carry over.
func (s *Store) LoadSnapshot(now time.Time) core.Snapshot {
	var snap core.Snapshot

	snap.Tasks = s.loadTasks()
	snap.Stock = s.loadStock()
	snap.Log = s.loadLog()

	state := s.loadState()
	if phase, ok := core.ParsePhase(state[stateKeyPhase]); ok {
		snap.Phase = phase
	}
	snap.RemainingSeconds = atoiOr(state[stateKeyRemaining], 0)
	snap.FocusCount = atoiOr(state[stateKeyFocusCount], 0)
	snap.Stats.CompletedPomodoros = atoiOr(state[stateKeyPomodoros], 0)
	snap.Stats.TotalFocusMinutes = atoiOr(state[stateKeyFocusMin], 0)
	snap.Stats.CompletedTasks = atoiOr(state[stateKeyTasksDone], 0)
	if t, err := time.Parse(time.RFC3339, state[stateKeyLastSaved]); err == nil {
		snap.LastSaved = t
	}
	if t, err := time.Parse(time.RFC3339, state[stateKeyDayStart]); err == nil {
		snap.Stats.DayStart = &t
	}

	// Day rollover: daily counters belong to the day they started.
	if snap.Stats.DayStart != nil && !core.SameDay(*snap.Stats.DayStart, now) {
		snap.Stats = core.DailyStats{}
		logging.Logger.Info("daily stats rolled over")
	}

	return snap
}

func (s *Store) loadTasks() []core.Task {
	rows, err := s.db.Query(
		`SELECT id, text, completed, created_at, completed_at,
		        pomodoros_spent, external_ref, priority, project, estimated_hours, spent_minutes
		 FROM tasks ORDER BY position`)
	if err != nil {
		logging.Logger.Warn("load tasks failed", "err", err)
		return nil
	}
	defer rows.Close()

	var tasks []core.Task
	for rows.Next() {
		var t core.Task
		var completed int
		var createdAt string
		var completedAt sql.NullString
		err := rows.Scan(&t.ID, &t.Text, &completed, &createdAt, &completedAt,
			&t.PomodorosSpent, &t.ExternalRef, &t.Priority, &t.Project, &t.EstimatedHours, &t.SpentMinutes)
		if err != nil {
			logging.Logger.Warn("skipping unreadable task row", "err", err)
			continue
		}
		t.Completed = completed == 1
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if completedAt.Valid {
			if at, err := time.Parse(time.RFC3339, completedAt.String); err == nil {
				t.CompletedAt = &at
			}
		}
		tasks = append(tasks, t)
	}
	return tasks
}

func (s *Store) loadStock() []core.StockTask {
	rows, err := s.db.Query(`SELECT id, text, created_at FROM stock_tasks ORDER BY position`)
	if err != nil {
		logging.Logger.Warn("load stock failed", "err", err)
		return nil
	}
	defer rows.Close()

	var stock []core.StockTask
	for rows.Next() {
		var st core.StockTask
		var createdAt string
		if err := rows.Scan(&st.ID, &st.Text, &createdAt); err != nil {
			logging.Logger.Warn("skipping unreadable stock row", "err", err)
			continue
		}
		st.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		stock = append(stock, st)
	}
	return stock
}

func (s *Store) loadLog() []core.LogEntry {
	rows, err := s.db.Query(`SELECT timestamp, message FROM activity_log ORDER BY position`)
	if err != nil {
		logging.Logger.Warn("load activity log failed", "err", err)
		return nil
	}
	defer rows.Close()

	var entries []core.LogEntry
	for rows.Next() {
		var e core.LogEntry
		var ts string
		if err := rows.Scan(&ts, &e.Message); err != nil {
			continue
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, ts)
		entries = append(entries, e)
	}
	return entries
}

func (s *Store) loadState() map[string]string {
	state := make(map[string]string)
	rows, err := s.db.Query(`SELECT key, value FROM app_state`)
	if err != nil {
		logging.Logger.Warn("load app state failed", "err", err)
		return state
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			continue
		}
		state[k] = v
	}
	return state
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func atoiOr(s string, fallback int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return fallback
}
