package core

import "time"

// Phase is one of the pomodoro cycle states.
type Phase int

const (
	PhaseWork Phase = iota
	PhaseShortBreak
	PhaseLongBreak
)

func (p Phase) String() string {
	switch p {
	case PhaseShortBreak:
		return "short_break"
	case PhaseLongBreak:
		return "long_break"
	default:
		return "work"
	}
}

// Label returns the human-readable phase name used in views and log entries.
func (p Phase) Label() string {
	switch p {
	case PhaseShortBreak:
		return "short break"
	case PhaseLongBreak:
		return "long break"
	default:
		return "focus session"
	}
}

// ParsePhase maps a persisted phase string back to a Phase.
func ParsePhase(s string) (Phase, bool) {
	switch s {
	case "work":
		return PhaseWork, true
	case "short_break":
		return PhaseShortBreak, true
	case "long_break":
		return PhaseLongBreak, true
	}
	return PhaseWork, false
}

// Durations holds the nominal phase lengths and the long-break cadence.
type Durations struct {
	Work       time.Duration
	ShortBreak time.Duration
	LongBreak  time.Duration
	Cadence    int // focus sessions per long break
}

func DefaultDurations() Durations {
	return Durations{
		Work:       25 * time.Minute,
		ShortBreak: 5 * time.Minute,
		LongBreak:  15 * time.Minute,
		Cadence:    4,
	}
}

// PhaseChange reports a completed phase transition from Tick.
type PhaseChange struct {
	From Phase
	To   Phase
}

// Session is the pomodoro state machine. It has no clock of its own: the
// caller delivers one Tick per elapsed second while the session is running,
// so the transition logic is testable without real time passing.
type Session struct {
	phase      Phase
	remaining  int // seconds
	running    bool
	focusCount int

	durations Durations
	log       *ActivityLog
	stats     *DailyStats
	now       func() time.Time

	workHooks []func()
}

func NewSession(d Durations, log *ActivityLog, stats *DailyStats) *Session {
	if d.Work <= 0 || d.ShortBreak <= 0 || d.LongBreak <= 0 {
		d = DefaultDurations()
	}
	if d.Cadence <= 0 {
		d.Cadence = 4
	}
	return &Session{
		phase:     PhaseWork,
		remaining: int(d.Work.Seconds()),
		durations: d,
		log:       log,
		stats:     stats,
		now:       time.Now,
	}
}

// OnWorkComplete registers a hook fired every time a work phase completes.
// Hooks never fire when a break completes.
func (s *Session) OnWorkComplete(fn func()) {
	s.workHooks = append(s.workHooks, fn)
}

func (s *Session) Phase() Phase         { return s.phase }
func (s *Session) Remaining() int       { return s.remaining }
func (s *Session) Running() bool        { return s.running }
func (s *Session) FocusCount() int      { return s.focusCount }
func (s *Session) Durations() Durations { return s.durations }

// SetDurations swaps the nominal durations. The current phase keeps its
// remaining time; the new values apply from the next transition on.
func (s *Session) SetDurations(d Durations) {
	if d.Work <= 0 || d.ShortBreak <= 0 || d.LongBreak <= 0 || d.Cadence <= 0 {
		return
	}
	s.durations = d
}

// Start begins (or resumes) the countdown. No-op while already running.
// The first start of the day stamps the daily start time.
func (s *Session) Start() {
	if s.running {
		return
	}
	s.running = true
	if s.stats.DayStart == nil {
		t := s.now()
		s.stats.DayStart = &t
	}
	s.log.Logf("Started %s", s.phase.Label())
}

// Pause stops the countdown without losing progress. No-op while paused.
func (s *Session) Pause() {
	if !s.running {
		return
	}
	s.running = false
	s.log.Logf("Paused %s", s.phase.Label())
}

// Reset stops the timer and returns to a fresh work phase, whatever the
// prior phase was.
func (s *Session) Reset() {
	s.running = false
	s.phase = PhaseWork
	s.remaining = int(s.durations.Work.Seconds())
	s.log.Logf("Timer reset")
}

// Tick consumes one elapsed second. It is a no-op while paused. When the
// countdown reaches zero the session completes and the resulting transition
// is returned; otherwise Tick returns nil.
func (s *Session) Tick() *PhaseChange {
	if !s.running {
		return nil
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		return nil
	}
	return s.complete()
}

func (s *Session) complete() *PhaseChange {
	s.running = false
	from := s.phase

	if from == PhaseWork {
		s.focusCount++
		s.stats.CompletedPomodoros++
		s.stats.TotalFocusMinutes += int(s.durations.Work.Minutes())

		if s.focusCount%s.durations.Cadence == 0 {
			s.phase = PhaseLongBreak
			s.remaining = int(s.durations.LongBreak.Seconds())
		} else {
			s.phase = PhaseShortBreak
			s.remaining = int(s.durations.ShortBreak.Seconds())
		}
		s.log.Logf("Focus session complete")
		for _, fn := range s.workHooks {
			fn()
		}
	} else {
		s.phase = PhaseWork
		s.remaining = int(s.durations.Work.Seconds())
		s.log.Logf("Break finished")
	}

	return &PhaseChange{From: from, To: s.phase}
}

// restore rehydrates the machine from a snapshot. The session always comes
// back paused.
func (s *Session) restore(phase Phase, remaining, focusCount int) {
	s.running = false
	s.phase = phase
	s.focusCount = focusCount
	if remaining < 0 {
		remaining = 0
	}
	if remaining == 0 {
		remaining = s.nominal(phase)
	}
	s.remaining = remaining
}

func (s *Session) nominal(p Phase) int {
	switch p {
	case PhaseShortBreak:
		return int(s.durations.ShortBreak.Seconds())
	case PhaseLongBreak:
		return int(s.durations.LongBreak.Seconds())
	default:
		return int(s.durations.Work.Seconds())
	}
}
