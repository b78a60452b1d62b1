package core

import "time"

// App is the application context: it owns the session state machine, the
// task store, the activity log, the daily counters and the reconciler, and
// is constructed once and handed to the UI adapter. Mutating task
// operations go through App so logging and counters stay in one place.
type App struct {
	Session    *Session
	Tasks      *TaskStore
	Log        *ActivityLog
	Stats      *DailyStats
	Reconciler *Reconciler

	pendingTimeEntries []TimeEntryRequest
}

func NewApp(d Durations) *App {
	log := NewActivityLog()
	stats := &DailyStats{}
	tasks := NewTaskStore()

	a := &App{
		Session:    NewSession(d, log, stats),
		Tasks:      tasks,
		Log:        log,
		Stats:      stats,
		Reconciler: NewReconciler(tasks, log),
	}

	// Completed work sessions accrue time against an imported task; the
	// remote post is queued for the UI to run asynchronously.
	a.Session.OnWorkComplete(func() {
		if req := a.Reconciler.LogWorkSession(a.Session.Durations().Work); req != nil {
			a.pendingTimeEntries = append(a.pendingTimeEntries, *req)
		}
	})

	return a
}

// TakePendingTimeEntries drains the time entries queued by completed work
// sessions. The local minutes are already accrued; the caller posts these
// remotely and reports the outcome via Reconciler.ReportTimeEntry.
func (a *App) TakePendingTimeEntries() []TimeEntryRequest {
	out := a.pendingTimeEntries
	a.pendingTimeEntries = nil
	return out
}

// AddTasks splits the raw input into tasks. Fully-blank input changes
// nothing and leaves no log entry.
func (a *App) AddTasks(raw string) int {
	n := a.Tasks.AddTasks(raw)
	if n == 0 {
		return 0
	}
	if a.Session.Running() {
		a.Log.Logf("Added %d task(s) mid-session", n)
	} else {
		a.Log.Logf("Added %d task(s)", n)
	}
	return n
}

// CompleteTask marks a task done and bumps the daily counter. An unknown id
// is logged as a no-match and changes nothing.
func (a *App) CompleteTask(id string) bool {
	t := a.Tasks.Complete(id)
	if t == nil {
		a.Log.Logf("Complete: no matching task")
		return false
	}
	a.Stats.CompletedTasks++
	a.Log.Logf("Completed task %q", t.Text)
	return true
}

func (a *App) DeleteTask(id string) bool {
	if !a.Tasks.Delete(id) {
		return false
	}
	a.Log.Logf("Deleted a task")
	return true
}

// SaveTaskEdit commits an edit; only an actual text change is logged.
func (a *App) SaveTaskEdit(id, newText string) bool {
	if !a.Tasks.SaveEdit(id, newText) {
		return false
	}
	t := a.Tasks.Find(id)
	if a.Session.Running() {
		a.Log.Logf("Edited task %q mid-session", t.Text)
	} else {
		a.Log.Logf("Edited task %q", t.Text)
	}
	return true
}

func (a *App) AddStockTasks(raw string) int {
	n := a.Tasks.AddStockTasks(raw)
	if n == 0 {
		return 0
	}
	a.Log.Logf("Stocked %d task(s)", n)
	return n
}

func (a *App) DeleteStockTask(id string) bool {
	if !a.Tasks.DeleteStock(id) {
		return false
	}
	a.Log.Logf("Deleted a stocked task")
	return true
}

// MoveSelectedToActive promotes the selected backlog entries onto today's
// list.
func (a *App) MoveSelectedToActive() int {
	n := a.Tasks.MoveSelectedToActive()
	if n > 0 {
		a.Log.Logf("Moved %d task(s) to today", n)
	}
	return n
}

// Snapshot captures the complete persistable state.
func (a *App) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		Stats:            *a.Stats,
		Phase:            a.Session.Phase(),
		RemainingSeconds: a.Session.Remaining(),
		FocusCount:       a.Session.FocusCount(),
		LastSaved:        now,
	}
	for _, t := range a.Tasks.Tasks() {
		snap.Tasks = append(snap.Tasks, *t)
	}
	for _, st := range a.Tasks.Stock() {
		snap.Stock = append(snap.Stock, *st)
	}
	snap.Log = append(snap.Log, a.Log.Entries()...)
	return snap
}

// Restore rehydrates the whole application from a snapshot. Transient flags
// (edit mode, stock selection) reset; the timer comes back paused.
func (a *App) Restore(snap Snapshot) {
	a.Tasks.restore(snap.Tasks, snap.Stock)
	a.Log.restore(snap.Log)
	*a.Stats = snap.Stats
	a.Session.restore(snap.Phase, snap.RemainingSeconds, snap.FocusCount)
}

// Snapshot is the serialized union of application state written by the
// persistence gateway.
type Snapshot struct {
	Tasks            []Task
	Stock            []StockTask
	Log              []LogEntry
	Stats            DailyStats
	Phase            Phase
	RemainingSeconds int
	FocusCount       int
	LastSaved        time.Time
}
