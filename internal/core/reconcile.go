package core

import (
	"context"
	"fmt"
	"time"
)

// Ticket is a work item fetched from the issue tracker, reduced to the
// fields the task list consumes.
type Ticket struct {
	ID             int
	Subject        string
	Priority       string
	Project        string
	EstimatedHours float64
}

// TicketSource is the capability interface to the remote tracker. The core
// never talks to the network itself: the UI layer runs these calls
// asynchronously and feeds the results back on the single update thread.
type TicketSource interface {
	ListAssigned(ctx context.Context, status string) ([]Ticket, error)
	ListByProject(ctx context.Context, project, status string) ([]Ticket, error)
	Get(ctx context.Context, id int) (*Ticket, error)
	CreateTimeEntry(ctx context.Context, issueID int, hours float64, activityID int, comment string) error
	UpdateIssue(ctx context.Context, id int, fields map[string]any) error
	TestConnection(ctx context.Context) error
}

// SyncScope selects which tickets a sync fetches: everything assigned to the
// current user (empty Project) or everything in one project.
type SyncScope struct {
	Project string
	Status  string
}

// TimeEntryRequest is a pending remote time-entry post, produced when a work
// session completes against an imported task. The local minutes are already
// accrued by then; posting is best-effort.
type TimeEntryRequest struct {
	IssueID    int
	Hours      float64
	ActivityID int
	Comment    string
}

// TaskSelector picks which imported task a completed work session is logged
// against. The default takes the first imported task in list order.
type TaskSelector func(*TaskStore) *Task

func SelectFirstExternal(ts *TaskStore) *Task { return ts.FirstExternal() }

// Reconciler folds fetched tickets into the task store and produces time
// entries for completed work sessions.
type Reconciler struct {
	tasks *TaskStore
	log   *ActivityLog

	// Select is the time-logging task policy; nil falls back to
	// SelectFirstExternal.
	Select TaskSelector

	// ActivityID is the tracker activity recorded on time entries.
	ActivityID int

	autoSync  bool
	lastSync  time.Time
	lastCount int
}

// DefaultActivityID matches the tracker's "development" activity.
const DefaultActivityID = 9

func NewReconciler(tasks *TaskStore, log *ActivityLog) *Reconciler {
	return &Reconciler{
		tasks:      tasks,
		log:        log,
		ActivityID: DefaultActivityID,
	}
}

// MergeTickets replaces every previously imported task with the fetched set,
// carrying forward minutes accrued on tickets that reappear. Minutes on a
// ticket absent from the new set are discarded with it. The replace and
// append happen in one step, so no reader ever sees the imports missing.
func (r *Reconciler) MergeTickets(tickets []Ticket, at time.Time) int {
	carried := r.tasks.spentByRef()

	imported := make([]*Task, 0, len(tickets))
	for _, tk := range tickets {
		priority := tk.Priority
		if priority == "" {
			priority = "Normal"
		}
		imported = append(imported, &Task{
			ID:             newTaskID(),
			Text:           fmt.Sprintf("#%d %s", tk.ID, tk.Subject),
			CreatedAt:      at,
			ExternalRef:    tk.ID,
			Priority:       priority,
			Project:        tk.Project,
			EstimatedHours: tk.EstimatedHours,
			SpentMinutes:   carried[tk.ID],
		})
	}
	r.tasks.replaceExternal(imported)

	r.lastSync = at
	r.lastCount = len(tickets)
	r.log.Logf("Synced %d tickets from the tracker", len(tickets))
	return len(tickets)
}

// SyncFailed records a fetch failure. The task list is untouched: the fetch
// happens before any merge, so there is no partial state to roll back.
func (r *Reconciler) SyncFailed(err error) {
	r.log.Logf("Ticket sync failed: %v", err)
}

// LastSync reports when the last successful sync ran and how many tickets
// it brought in. The zero time means no sync has succeeded yet.
func (r *Reconciler) LastSync() (time.Time, int) {
	return r.lastSync, r.lastCount
}

// LogWorkSession accrues a completed work session against an imported task
// and returns the remote time entry to post, or nil when no imported task
// exists. The local increment happens here, unconditionally: remote posting
// is best-effort and its failure never rolls this back.
func (r *Reconciler) LogWorkSession(workDuration time.Duration) *TimeEntryRequest {
	sel := r.Select
	if sel == nil {
		sel = SelectFirstExternal
	}
	task := sel(r.tasks)
	if task == nil {
		return nil
	}

	minutes := int(workDuration.Minutes())
	task.SpentMinutes += minutes
	r.log.Logf("Logged %d min against ticket #%d", minutes, task.ExternalRef)

	return &TimeEntryRequest{
		IssueID:    task.ExternalRef,
		Hours:      workDuration.Hours(),
		ActivityID: r.ActivityID,
		Comment:    fmt.Sprintf("Pomodoro: %d min of focused work", minutes),
	}
}

// ReportTimeEntry records the outcome of a remote time-entry post.
func (r *Reconciler) ReportTimeEntry(req TimeEntryRequest, err error) {
	if err != nil {
		r.log.Logf("Failed to post time entry for ticket #%d: %v", req.IssueID, err)
		return
	}
	r.log.Logf("Posted time entry for ticket #%d", req.IssueID)
}

// SetAutoSync toggles the recurring sync trigger flag. Returns whether the
// state changed, so callers never double-schedule the trigger.
func (r *Reconciler) SetAutoSync(on bool) bool {
	if r.autoSync == on {
		return false
	}
	r.autoSync = on
	if on {
		r.log.Logf("Auto-sync enabled")
	} else {
		r.log.Logf("Auto-sync disabled")
	}
	return true
}

func (r *Reconciler) AutoSync() bool { return r.autoSync }

// AutoSyncInterval is the fixed cadence of the recurring sync trigger.
const AutoSyncInterval = 5 * time.Minute
