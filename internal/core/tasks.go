package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// newTaskID mints an opaque id. UUIDs are unique for the process lifetime,
// stable across snapshots, and never reused after deletion.
func newTaskID() string { return uuid.NewString() }

// Task is one unit of work on today's list. A task imported from the issue
// tracker carries a non-zero ExternalRef and is read-only to local edits,
// though SpentMinutes still accrues locally.
type Task struct {
	ID             string
	Text           string
	Completed      bool
	CreatedAt      time.Time
	CompletedAt    *time.Time
	PomodorosSpent int
	Editable       bool // transient edit-mode flag, never persisted

	ExternalRef    int // tracker issue id, 0 for local tasks
	Priority       string
	Project        string
	EstimatedHours float64
	SpentMinutes   int
}

// External reports whether the task was imported from the issue tracker.
func (t *Task) External() bool { return t.ExternalRef != 0 }

// StockTask is a backlog item awaiting promotion to the active list.
type StockTask struct {
	ID        string
	Text      string
	CreatedAt time.Time
	Selected  bool // transient bulk-move selection, never persisted
}

// TaskStore owns the active and stocked task collections. It is a plain
// in-memory collection: logging, stats and persistence are coordinated by
// App, which wraps every mutating operation.
type TaskStore struct {
	tasks []*Task
	stock []*StockTask

	// pre-edit text per task id, captured at edit start
	editOriginals map[string]string

	now func() time.Time
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		editOriginals: make(map[string]string),
		now:           time.Now,
	}
}

func (ts *TaskStore) Tasks() []*Task      { return ts.tasks }
func (ts *TaskStore) Stock() []*StockTask { return ts.stock }

func (ts *TaskStore) Find(id string) *Task {
	for _, t := range ts.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (ts *TaskStore) findStock(id string) *StockTask {
	for _, t := range ts.stock {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// splitTaskLines turns raw multi-line input into trimmed non-blank lines.
func splitTaskLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// AddTasks creates one task per non-blank line, appended in input order.
// Returns the number of tasks created; zero means nothing changed.
func (ts *TaskStore) AddTasks(raw string) int {
	lines := splitTaskLines(raw)
	for _, text := range lines {
		ts.tasks = append(ts.tasks, &Task{
			ID:        newTaskID(),
			Text:      text,
			CreatedAt: ts.now(),
		})
	}
	return len(lines)
}

// Complete marks the task done and stamps the completion time. It returns
// nil when the id is unknown or the task is already completed.
func (ts *TaskStore) Complete(id string) *Task {
	t := ts.Find(id)
	if t == nil || t.Completed {
		return nil
	}
	t.Completed = true
	at := ts.now()
	t.CompletedAt = &at
	return t
}

// Delete removes the task by id. Deleting an absent id is a no-op; returns
// whether anything was removed. IDs are never reused.
func (ts *TaskStore) Delete(id string) bool {
	for i, t := range ts.tasks {
		if t.ID == id {
			ts.tasks = append(ts.tasks[:i], ts.tasks[i+1:]...)
			delete(ts.editOriginals, id)
			return true
		}
	}
	return false
}

// StartEdit puts a task into edit mode, capturing the pre-edit text so a
// cancel can restore it exactly. Completed and externally-sourced tasks are
// rejected. Any other in-progress edit is committed first.
func (ts *TaskStore) StartEdit(id string) bool {
	for _, t := range ts.tasks {
		if t.Editable && t.ID != id {
			ts.SaveEdit(t.ID, t.Text)
		}
	}
	t := ts.Find(id)
	if t == nil || t.Completed || t.External() {
		return false
	}
	t.Editable = true
	ts.editOriginals[id] = t.Text
	return true
}

// SaveEdit commits an in-progress edit. Blank input keeps the prior text.
// Returns whether the text actually changed.
func (ts *TaskStore) SaveEdit(id, newText string) bool {
	t := ts.Find(id)
	if t == nil || !t.Editable {
		return false
	}
	changed := false
	newText = strings.TrimSpace(newText)
	if newText != "" && newText != ts.editOriginals[id] {
		t.Text = newText
		changed = true
	}
	t.Editable = false
	delete(ts.editOriginals, id)
	return changed
}

// CancelEdit abandons an in-progress edit, restoring the pre-edit text.
func (ts *TaskStore) CancelEdit(id string) {
	t := ts.Find(id)
	if t == nil || !t.Editable {
		return
	}
	if orig, ok := ts.editOriginals[id]; ok {
		t.Text = orig
	}
	t.Editable = false
	delete(ts.editOriginals, id)
}

// AddStockTasks creates one backlog entry per non-blank line.
func (ts *TaskStore) AddStockTasks(raw string) int {
	lines := splitTaskLines(raw)
	for _, text := range lines {
		ts.stock = append(ts.stock, &StockTask{
			ID:        newTaskID(),
			Text:      text,
			CreatedAt: ts.now(),
		})
	}
	return len(lines)
}

// DeleteStock removes a backlog entry by id; absent ids are a no-op.
func (ts *TaskStore) DeleteStock(id string) bool {
	for i, t := range ts.stock {
		if t.ID == id {
			ts.stock = append(ts.stock[:i], ts.stock[i+1:]...)
			return true
		}
	}
	return false
}

// ToggleStockSelection flips the transient selection flag used for bulk
// promotion.
func (ts *TaskStore) ToggleStockSelection(id string) {
	if t := ts.findStock(id); t != nil {
		t.Selected = !t.Selected
	}
}

// MoveSelectedToActive promotes every selected backlog entry into a fresh
// active task (new id, same text and creation time), preserving stock order
// among the selected. Returns the number promoted.
func (ts *TaskStore) MoveSelectedToActive() int {
	moved := 0
	var remaining []*StockTask
	for _, st := range ts.stock {
		if !st.Selected {
			remaining = append(remaining, st)
			continue
		}
		ts.tasks = append(ts.tasks, &Task{
			ID:        newTaskID(),
			Text:      st.Text,
			CreatedAt: st.CreatedAt,
		})
		moved++
	}
	ts.stock = remaining
	return moved
}

// replaceExternal removes every imported task and appends the given ones,
// in one step so a render never observes the list with the imports missing.
func (ts *TaskStore) replaceExternal(imported []*Task) {
	var local []*Task
	for _, t := range ts.tasks {
		if !t.External() {
			local = append(local, t)
		}
	}
	ts.tasks = append(local, imported...)
}

// spentByRef collects locally accrued minutes per external ref, so a resync
// can carry them forward.
func (ts *TaskStore) spentByRef() map[int]int {
	out := make(map[int]int)
	for _, t := range ts.tasks {
		if t.External() {
			out[t.ExternalRef] = t.SpentMinutes
		}
	}
	return out
}

// FirstExternal returns the first imported task in list order, or nil.
func (ts *TaskStore) FirstExternal() *Task {
	for _, t := range ts.tasks {
		if t.External() {
			return t
		}
	}
	return nil
}

func (ts *TaskStore) restore(tasks []Task, stock []StockTask) {
	ts.tasks = nil
	for i := range tasks {
		t := tasks[i]
		t.Editable = false
		ts.tasks = append(ts.tasks, &t)
	}
	ts.stock = nil
	for i := range stock {
		st := stock[i]
		st.Selected = false
		ts.stock = append(ts.stock, &st)
	}
	ts.editOriginals = make(map[string]string)
}
