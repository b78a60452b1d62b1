package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ymgch/pomotick/internal/core"
)

// timerModel renders the countdown. The session itself lives in core and is
// ticked by the root model, so this view only reads state and maps keys.
type timerModel struct {
	app    *core.App
	width  int
	height int
}

func newTimerModel(app *core.App) timerModel {
	return timerModel{app: app}
}

func (t *timerModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t timerModel) update(msg tea.Msg) (timerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		s := t.app.Session
		switch {
		case key.Matches(msg, keys.Start):
			if s.Running() {
				s.Pause()
			} else {
				s.Start()
			}
			return t, nil
		case key.Matches(msg, keys.Reset):
			s.Reset()
			return t, nil
		}
	}
	return t, nil
}

func (t timerModel) view() string {
	w := t.width - 4
	s := t.app.Session

	clock := formatClock(s.Remaining())
	var timeDisplay, phaseLabel string
	switch s.Phase() {
	case core.PhaseWork:
		if s.Running() {
			timeDisplay = clockRunningStyle.Width(w - 6).Render(clock)
		} else {
			timeDisplay = clockStyle.Width(w - 6).Render(clock)
		}
		phaseLabel = clockStyle.Render("FOCUS")
	case core.PhaseShortBreak:
		timeDisplay = clockBreakStyle.Width(w - 6).Render(clock)
		phaseLabel = highlightStyle.Bold(true).Render("SHORT BREAK")
	case core.PhaseLongBreak:
		timeDisplay = clockBreakStyle.Width(w - 6).Render(clock)
		phaseLabel = highlightStyle.Bold(true).Render("LONG BREAK")
	}

	var indicator string
	if s.Running() {
		indicator = successStyle.Render("●  RUNNING")
	} else {
		indicator = mutedStyle.Render("⏸  PAUSED")
	}

	today := mutedStyle.Render(fmt.Sprintf(
		"today: %d pomodoros · %d focus min · %d tasks done",
		t.app.Stats.CompletedPomodoros,
		t.app.Stats.TotalFocusMinutes,
		t.app.Stats.CompletedTasks,
	))

	controls := mutedStyle.Render("s: start/pause  r: reset")

	content := lipgloss.JoinVertical(lipgloss.Center,
		timeDisplay,
		phaseLabel,
		"",
		t.renderCycle(),
		today,
		"",
		indicator,
		controls,
	)

	if s.Running() {
		return activePanelStyle.Width(w).Render(content)
	}
	return panelStyle.Width(w).Render(content)
}

// renderCycle draws one dot per focus session in the current long-break
// cycle.
func (t timerModel) renderCycle() string {
	s := t.app.Session
	cadence := s.Durations().Cadence
	done := s.FocusCount() % cadence
	if done == 0 && s.FocusCount() > 0 && s.Phase() == core.PhaseLongBreak {
		done = cadence
	}

	var parts []string
	for i := 0; i < cadence; i++ {
		switch {
		case i < done:
			parts = append(parts, successStyle.Render("●"))
		case i == done && s.Phase() == core.PhaseWork && s.Running():
			parts = append(parts, clockStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	return strings.Join(parts, " ")
}
