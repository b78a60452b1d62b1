package tui

import (
	"fmt"
	"time"

	"github.com/ymgch/pomotick/internal/core"
	"github.com/ymgch/pomotick/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewTasks
	viewStats
	viewSync
	viewSettings
)

var viewNames = []string{"Timer", "Tasks", "Stats", "Sync", "Settings"}

// --- Messages ---

type tickMsg time.Time

type saveTickMsg time.Time

type statusMsg struct {
	text    string
	isError bool
}

type clearStatusMsg struct{}

// syncDoneMsg carries the result of an asynchronous ticket fetch. The merge
// itself happens on the update thread.
type syncDoneMsg struct {
	tickets []core.Ticket
	err     error
}

// autoSyncMsg fires on the recurring sync cadence. The generation counter
// invalidates triggers scheduled before auto-sync was last toggled.
type autoSyncMsg struct {
	gen int
}

type timeEntryDoneMsg struct {
	req core.TimeEntryRequest
	err error
}

type connTestDoneMsg struct {
	err error
}

type exportDoneMsg struct {
	path string
}

// Requests from child views, performed by the root model.

type syncNowMsg struct{}

type connTestRequestMsg struct{}

type autoSyncToggleMsg struct{}

type trackerSavedMsg struct {
	cfg store.TrackerConfig
}

type durationsSavedMsg struct {
	d core.Durations
}

// --- Helpers ---

// formatClock renders a second count as MM:SS. Minutes are not capped at 59,
// so a 90-minute phase shows as 90:00.
func formatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
