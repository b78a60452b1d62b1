package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ymgch/pomotick/internal/core"
)

type statsModel struct {
	app    *core.App
	width  int
	height int

	chart     barchart.Model
	logOffset int
}

func newStatsModel(app *core.App) statsModel {
	return statsModel{
		app:   app,
		chart: barchart.New(60, 10),
	}
}

func (m *statsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.logOffset > 0 {
				m.logOffset--
			}
		case key.Matches(msg, keys.Down):
			if m.logOffset < m.app.Log.Len()-1 {
				m.logOffset++
			}
		}
	}
	return m, nil
}

// rebuild redraws the per-ticket time chart from the current task list. The
// root model calls it when this view becomes active and after each sync.
func (m *statsModel) rebuild() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	m.chart = barchart.New(chartWidth, 10)

	var bars []barchart.BarData
	for _, t := range m.app.Tasks.Tasks() {
		if !t.External() || t.SpentMinutes == 0 {
			continue
		}
		bars = append(bars, barchart.BarData{
			Label: fmt.Sprintf("#%d", t.ExternalRef),
			Values: []barchart.BarValue{{
				Name:  t.Project,
				Value: float64(t.SpentMinutes),
				Style: lipgloss.NewStyle().Foreground(colorHighlight),
			}},
		})
	}
	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m statsModel) view() string {
	w := m.width - 4

	title := titleStyle.Render("Today")
	counters := fmt.Sprintf("  %s %s   %s %s   %s %s",
		highlightStyle.Render(fmt.Sprintf("%d", m.app.Stats.CompletedPomodoros)),
		mutedStyle.Render("pomodoros"),
		highlightStyle.Render(fmt.Sprintf("%d", m.app.Stats.TotalFocusMinutes)),
		mutedStyle.Render("focus min"),
		highlightStyle.Render(fmt.Sprintf("%d", m.app.Stats.CompletedTasks)),
		mutedStyle.Render("tasks done"),
	)

	var chartSection string
	if m.hasTicketTime() {
		chartSection = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Minutes by ticket"),
			m.chart.View(),
		)
	} else {
		chartSection = mutedStyle.Render("No ticket time logged yet")
	}

	logSection := m.renderLog()

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title, counters, "", chartSection, "", logSection,
		),
	)
}

func (m statsModel) hasTicketTime() bool {
	for _, t := range m.app.Tasks.Tasks() {
		if t.External() && t.SpentMinutes > 0 {
			return true
		}
	}
	return false
}

func (m statsModel) renderLog() string {
	entries := m.app.Log.Entries()
	title := titleStyle.Render("Activity")
	if len(entries) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("  Nothing yet"))
	}

	visible := m.height - 20
	if visible < 5 {
		visible = 5
	}

	var rows []string
	rows = append(rows, title)
	for i := m.logOffset; i < len(entries) && i < m.logOffset+visible; i++ {
		e := entries[i]
		ts := mutedStyle.Render(e.Timestamp.Local().Format("15:04:05"))
		rows = append(rows, fmt.Sprintf("  %s %s", ts, e.Message))
	}
	if len(entries) > visible {
		rows = append(rows, mutedStyle.Render("  ↑/↓: scroll"))
	}
	return strings.Join(rows, "\n")
}
