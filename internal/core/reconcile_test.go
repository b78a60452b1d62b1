package core

import (
	"errors"
	"testing"
	"time"
)

func newTestReconciler(t *testing.T) (*Reconciler, *TaskStore, *ActivityLog) {
	t.Helper()
	log := NewActivityLog()
	tasks := NewTaskStore()
	return NewReconciler(tasks, log), tasks, log
}

// ============================================================
// Merging
// ============================================================

func TestMergeTicketsImports(t *testing.T) {
	r, tasks, _ := newTestReconciler(t)
	tasks.AddTasks("local work")

	at := time.Now()
	n := r.MergeTickets([]Ticket{
		{ID: 101, Subject: "Fix login", Priority: "High", Project: "web", EstimatedHours: 2},
		{ID: 102, Subject: "Update docs"},
	}, at)

	if n != 2 {
		t.Fatalf("merged %d, want 2", n)
	}

	list := tasks.Tasks()
	if len(list) != 3 {
		t.Fatalf("len = %d, want local + 2 imports", len(list))
	}
	if list[0].Text != "local work" {
		t.Fatal("local tasks must come before imports")
	}

	imp := list[1]
	if imp.Text != "#101 Fix login" {
		t.Fatalf("text = %q", imp.Text)
	}
	if imp.ExternalRef != 101 || imp.Priority != "High" || imp.Project != "web" || imp.EstimatedHours != 2 {
		t.Fatalf("ticket fields not carried: %+v", imp)
	}

	// Missing priority defaults.
	if list[2].Priority != "Normal" {
		t.Fatalf("priority = %q, want Normal", list[2].Priority)
	}
}

func TestMergeTicketsReplacesWithoutDuplicates(t *testing.T) {
	r, tasks, _ := newTestReconciler(t)

	tickets := []Ticket{{ID: 1, Subject: "one"}, {ID: 2, Subject: "two"}}
	r.MergeTickets(tickets, time.Now())
	r.MergeTickets(tickets, time.Now())

	count := 0
	for _, task := range tasks.Tasks() {
		if task.External() {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("external tasks = %d, want 2 (no duplicates)", count)
	}
}

func TestMergeTicketsCarriesSpentMinutes(t *testing.T) {
	r, tasks, _ := newTestReconciler(t)

	r.MergeTickets([]Ticket{{ID: 7, Subject: "keep"}, {ID: 8, Subject: "drop"}}, time.Now())
	tasks.FirstExternal().SpentMinutes = 40

	// Ticket 8 disappears from the tracker; ticket 7 reappears.
	r.MergeTickets([]Ticket{{ID: 7, Subject: "keep"}}, time.Now())

	ext := tasks.FirstExternal()
	if ext.ExternalRef != 7 {
		t.Fatalf("ref = %d, want 7", ext.ExternalRef)
	}
	if ext.SpentMinutes != 40 {
		t.Fatalf("spent = %d, want carried-forward 40", ext.SpentMinutes)
	}
}

func TestMergeTicketsDropsMinutesOfVanishedTickets(t *testing.T) {
	r, tasks, _ := newTestReconciler(t)

	r.MergeTickets([]Ticket{{ID: 9, Subject: "gone"}}, time.Now())
	tasks.FirstExternal().SpentMinutes = 25

	r.MergeTickets(nil, time.Now())
	if tasks.FirstExternal() != nil {
		t.Fatal("vanished tickets should be removed")
	}

	// Even when it comes back, the minutes are gone with the old task.
	r.MergeTickets([]Ticket{{ID: 9, Subject: "back"}}, time.Now())
	if got := tasks.FirstExternal().SpentMinutes; got != 0 {
		t.Fatalf("spent = %d, want 0 after the ticket vanished", got)
	}
}

func TestMergeRecordsLastSync(t *testing.T) {
	r, _, _ := newTestReconciler(t)

	at := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	r.MergeTickets([]Ticket{{ID: 1, Subject: "x"}}, at)

	last, count := r.LastSync()
	if !last.Equal(at) || count != 1 {
		t.Fatalf("last sync = %v/%d, want %v/1", last, count, at)
	}
}

func TestSyncFailedLeavesTasksUntouched(t *testing.T) {
	r, tasks, log := newTestReconciler(t)
	r.MergeTickets([]Ticket{{ID: 1, Subject: "x"}}, time.Now())

	before := len(tasks.Tasks())
	r.SyncFailed(errors.New("connection refused"))

	if len(tasks.Tasks()) != before {
		t.Fatal("a failed sync must not change the task list")
	}
	if log.Entries()[0].Message != "Ticket sync failed: connection refused" {
		t.Fatalf("log = %q", log.Entries()[0].Message)
	}
}

// ============================================================
// Time logging
// ============================================================

func TestLogWorkSessionAgainstFirstImport(t *testing.T) {
	r, tasks, _ := newTestReconciler(t)
	tasks.AddTasks("local")
	r.MergeTickets([]Ticket{{ID: 55, Subject: "target"}, {ID: 56, Subject: "other"}}, time.Now())

	req := r.LogWorkSession(25 * time.Minute)
	if req == nil {
		t.Fatal("expected a time entry request")
	}
	if req.IssueID != 55 {
		t.Fatalf("issue = %d, want first import 55", req.IssueID)
	}
	if req.Hours != 25.0/60.0 {
		t.Fatalf("hours = %v", req.Hours)
	}
	if req.ActivityID != DefaultActivityID {
		t.Fatalf("activity = %d, want default", req.ActivityID)
	}
	if req.Comment != "Pomodoro: 25 min of focused work" {
		t.Fatalf("comment = %q", req.Comment)
	}

	if got := tasks.FirstExternal().SpentMinutes; got != 25 {
		t.Fatalf("local spent = %d, want 25", got)
	}
}

func TestLogWorkSessionWithoutImports(t *testing.T) {
	r, tasks, _ := newTestReconciler(t)
	tasks.AddTasks("local only")

	if req := r.LogWorkSession(25 * time.Minute); req != nil {
		t.Fatal("no imports means no time entry")
	}
}

func TestLogWorkSessionLocalIncrementSurvivesPostFailure(t *testing.T) {
	r, tasks, log := newTestReconciler(t)
	r.MergeTickets([]Ticket{{ID: 3, Subject: "x"}}, time.Now())

	req := r.LogWorkSession(25 * time.Minute)
	r.ReportTimeEntry(*req, errors.New("502 bad gateway"))

	// The post failed, the local accrual stays.
	if got := tasks.FirstExternal().SpentMinutes; got != 25 {
		t.Fatalf("spent = %d, want 25", got)
	}
	if log.Entries()[0].Message != "Failed to post time entry for ticket #3: 502 bad gateway" {
		t.Fatalf("log = %q", log.Entries()[0].Message)
	}
}

func TestLogWorkSessionCustomSelector(t *testing.T) {
	r, _, _ := newTestReconciler(t)
	r.MergeTickets([]Ticket{{ID: 1, Subject: "a"}, {ID: 2, Subject: "b"}}, time.Now())

	r.Select = func(ts *TaskStore) *Task {
		for _, task := range ts.Tasks() {
			if task.ExternalRef == 2 {
				return task
			}
		}
		return nil
	}

	req := r.LogWorkSession(25 * time.Minute)
	if req == nil || req.IssueID != 2 {
		t.Fatalf("req = %+v, want issue 2", req)
	}
}

// ============================================================
// Auto-sync flag
// ============================================================

func TestSetAutoSyncReportsChanges(t *testing.T) {
	r, _, log := newTestReconciler(t)

	if !r.SetAutoSync(true) {
		t.Fatal("first enable should report a change")
	}
	if r.SetAutoSync(true) {
		t.Fatal("redundant enable should not report a change")
	}
	if !r.AutoSync() {
		t.Fatal("flag should be on")
	}
	if log.Entries()[0].Message != "Auto-sync enabled" {
		t.Fatalf("log = %q", log.Entries()[0].Message)
	}

	if !r.SetAutoSync(false) {
		t.Fatal("disable should report a change")
	}
	if log.Entries()[0].Message != "Auto-sync disabled" {
		t.Fatalf("log = %q", log.Entries()[0].Message)
	}
}
