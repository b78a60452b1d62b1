package core

import (
	"fmt"
	"time"
)

// logCapacity bounds the activity log; the oldest entry is dropped first.
const logCapacity = 100

type LogEntry struct {
	Timestamp time.Time
	Message   string
}

// ActivityLog is a bounded, newest-first list of human-readable events.
// It is model state consumed by the UI, not a diagnostics log.
type ActivityLog struct {
	entries []LogEntry
	now     func() time.Time
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{now: time.Now}
}

func (l *ActivityLog) Logf(format string, args ...any) {
	entry := LogEntry{Timestamp: l.now(), Message: fmt.Sprintf(format, args...)}
	l.entries = append([]LogEntry{entry}, l.entries...)
	if len(l.entries) > logCapacity {
		l.entries = l.entries[:logCapacity]
	}
}

// Entries returns the log newest-first.
func (l *ActivityLog) Entries() []LogEntry { return l.entries }

func (l *ActivityLog) Len() int { return len(l.entries) }

func (l *ActivityLog) restore(entries []LogEntry) {
	if len(entries) > logCapacity {
		entries = entries[:logCapacity]
	}
	l.entries = entries
}
