package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/ymgch/pomotick/internal/core"
	"github.com/ymgch/pomotick/internal/store"
)

type settingsModel struct {
	app    *core.App
	st     *store.Store
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	workVal    *string
	shortVal   *string
	longVal    *string
	cadenceVal *string
}

func newSettingsModel(app *core.App, st *store.Store) settingsModel {
	w, s, l, c := "", "", "", ""
	return settingsModel{
		app:        app,
		st:         st,
		workVal:    &w,
		shortVal:   &s,
		longVal:    &l,
		cadenceVal: &c,
	}
}

func (m *settingsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return m.showForm()
		}
	}
	return m, nil
}

func (m settingsModel) showForm() (settingsModel, tea.Cmd) {
	d := m.app.Session.Durations()
	*m.workVal = strconv.Itoa(int(d.Work.Minutes()))
	*m.shortVal = strconv.Itoa(int(d.ShortBreak.Minutes()))
	*m.longVal = strconv.Itoa(int(d.LongBreak.Minutes()))
	*m.cadenceVal = strconv.Itoa(d.Cadence)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Focus session (min)").Value(m.workVal),
			huh.NewInput().Title("Short break (min)").Value(m.shortVal),
			huh.NewInput().Title("Long break (min)").Value(m.longVal),
			huh.NewInput().Title("Sessions per long break").Value(m.cadenceVal),
		).Title("Durations"),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false

		prev := m.app.Session.Durations()
		d := core.Durations{
			Work:       time.Duration(atoiOr(*m.workVal, int(prev.Work.Minutes()))) * time.Minute,
			ShortBreak: time.Duration(atoiOr(*m.shortVal, int(prev.ShortBreak.Minutes()))) * time.Minute,
			LongBreak:  time.Duration(atoiOr(*m.longVal, int(prev.LongBreak.Minutes()))) * time.Minute,
			Cadence:    atoiOr(*m.cadenceVal, prev.Cadence),
		}
		if d.Work <= 0 || d.ShortBreak <= 0 || d.LongBreak <= 0 || d.Cadence <= 0 {
			return m, errorCmd("Durations must be positive")
		}
		if err := m.st.SaveDurations(d); err != nil {
			return m, errorCmd(fmt.Sprintf("Save failed: %v", err))
		}
		return m, func() tea.Msg { return durationsSavedMsg{d: d} }
	}

	return m, cmd
}

func (m settingsModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	d := m.app.Session.Durations()

	var rows []string
	rows = append(rows, titleStyle.Render("Settings"))
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  %s %s", label("Focus"), highlightStyle.Render(fmt.Sprintf("%d min", int(d.Work.Minutes())))))
	rows = append(rows, fmt.Sprintf("  %s %s", label("Short break"), highlightStyle.Render(fmt.Sprintf("%d min", int(d.ShortBreak.Minutes())))))
	rows = append(rows, fmt.Sprintf("  %s %s", label("Long break"), highlightStyle.Render(fmt.Sprintf("%d min", int(d.LongBreak.Minutes())))))
	rows = append(rows, fmt.Sprintf("  %s %s", label("Cadence"), highlightStyle.Render(fmt.Sprintf("every %d sessions", d.Cadence))))
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  New durations apply from the next phase"))
	rows = append(rows, mutedStyle.Render("  enter: edit"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
