package core

import "time"

// DailyStats are the counters that roll over at the day boundary. DayStart
// identifies the calendar day the counters belong to; it is stamped on the
// first timer start of the day.
type DailyStats struct {
	CompletedPomodoros int
	TotalFocusMinutes  int
	CompletedTasks     int
	DayStart           *time.Time
}

// SameDay reports whether two instants fall on the same calendar day in
// local time.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
