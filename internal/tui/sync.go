package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/ymgch/pomotick/internal/core"
	"github.com/ymgch/pomotick/internal/store"
)

// syncModel owns the tracker connection settings and the sync controls. The
// network calls themselves run from the root model; this view only issues
// request messages.
type syncModel struct {
	app    *core.App
	st     *store.Store
	width  int
	height int

	connected  bool
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	urlVal      *string
	keyVal      *string
	projectVal  *string
	activityVal *string
}

func newSyncModel(app *core.App, st *store.Store, connected bool) syncModel {
	u, k, p, a := "", "", "", ""
	return syncModel{
		app:         app,
		st:          st,
		connected:   connected,
		urlVal:      &u,
		keyVal:      &k,
		projectVal:  &p,
		activityVal: &a,
	}
}

func (m *syncModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m syncModel) update(msg tea.Msg) (syncModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case trackerSavedMsg:
		m.connected = msg.cfg.Configured()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter):
			return m.showForm()
		case key.Matches(msg, keys.Start):
			if !m.connected {
				return m, errorCmd("Configure the tracker first (enter)")
			}
			return m, func() tea.Msg { return syncNowMsg{} }
		case key.Matches(msg, keys.Test):
			if !m.connected {
				return m, errorCmd("Configure the tracker first (enter)")
			}
			return m, func() tea.Msg { return connTestRequestMsg{} }
		case key.Matches(msg, keys.Auto):
			if !m.connected {
				return m, errorCmd("Configure the tracker first (enter)")
			}
			return m, func() tea.Msg { return autoSyncToggleMsg{} }
		}
	}
	return m, nil
}

func (m syncModel) showForm() (syncModel, tea.Cmd) {
	cfg := m.st.TrackerConfig()
	*m.urlVal = cfg.BaseURL
	*m.keyVal = cfg.APIKey
	*m.projectVal = cfg.Project
	*m.activityVal = strconv.Itoa(cfg.ActivityID)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Tracker URL").Placeholder("https://redmine.example.com").Value(m.urlVal),
			huh.NewInput().Title("API key").EchoMode(huh.EchoModePassword).Value(m.keyVal),
			huh.NewInput().Title("Project (blank = assigned to me)").Value(m.projectVal),
			huh.NewInput().Title("Time entry activity id").Value(m.activityVal),
		).Title("Tracker"),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m syncModel) updateForm(msg tea.Msg) (syncModel, tea.Cmd) {
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
		cfg := store.TrackerConfig{
			BaseURL:    strings.TrimSpace(*m.urlVal),
			APIKey:     strings.TrimSpace(*m.keyVal),
			Project:    strings.TrimSpace(*m.projectVal),
			ActivityID: atoiOr(*m.activityVal, core.DefaultActivityID),
		}
		if err := m.st.SaveTrackerConfig(cfg); err != nil {
			return m, errorCmd(fmt.Sprintf("Save failed: %v", err))
		}
		return m, func() tea.Msg { return trackerSavedMsg{cfg: cfg} }
	}

	return m, cmd
}

func (m syncModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("Tracker settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	title := titleStyle.Render("Ticket Sync")
	cfg := m.st.TrackerConfig()

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	if !m.connected {
		rows = append(rows, mutedStyle.Render("  Not configured. Press enter to set up the tracker."))
	} else {
		rows = append(rows, fmt.Sprintf("  %s %s", label("URL"), highlightStyle.Render(cfg.BaseURL)))
		rows = append(rows, fmt.Sprintf("  %s %s", label("API key"), mutedStyle.Render(maskKey(cfg.APIKey))))
		scope := "assigned to me"
		if cfg.Project != "" {
			scope = "project " + cfg.Project
		}
		rows = append(rows, fmt.Sprintf("  %s %s", label("Scope"), normalItemStyle.Render(scope)))
		rows = append(rows, fmt.Sprintf("  %s %s", label("Activity id"), normalItemStyle.Render(strconv.Itoa(cfg.ActivityID))))
		rows = append(rows, "")

		last, count := m.app.Reconciler.LastSync()
		if last.IsZero() {
			rows = append(rows, mutedStyle.Render("  No sync yet"))
		} else {
			rows = append(rows, fmt.Sprintf("  %s %s",
				label("Last sync"),
				successStyle.Render(fmt.Sprintf("%s (%d tickets)", last.Local().Format("15:04:05"), count)),
			))
		}

		auto := errorStyle.Render("off")
		if m.app.Reconciler.AutoSync() {
			auto = successStyle.Render(fmt.Sprintf("every %s", core.AutoSyncInterval))
		}
		rows = append(rows, fmt.Sprintf("  %s %s", label("Auto-sync"), auto))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: configure  s: sync now  t: test connection  a: auto-sync"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func label(s string) string {
	return mutedStyle.Render(fmt.Sprintf("%-12s", s))
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

func atoiOr(s string, fallback int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return fallback
}
