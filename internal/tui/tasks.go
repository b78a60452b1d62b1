package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ymgch/pomotick/internal/core"
	"github.com/ymgch/pomotick/internal/store"
)

type taskTab int

const (
	tabToday taskTab = iota
	tabStock
)

type inputMode int

const (
	modeList inputMode = iota
	modeAdd
	modeEdit
)

type tasksModel struct {
	app    *core.App
	st     *store.Store
	width  int
	height int

	tab         taskTab
	cursor      int
	stockCursor int

	mode      inputMode
	input     textarea.Model
	edit      textinput.Model
	editingID string
}

func newTasksModel(app *core.App, st *store.Store) tasksModel {
	ta := textarea.New()
	ta.Placeholder = "One task per line..."
	ta.SetHeight(5)

	ti := textinput.New()
	ti.CharLimit = 200

	return tasksModel{
		app:   app,
		st:    st,
		input: ta,
		edit:  ti,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.input.SetWidth(w - 10)
	m.edit.Width = w - 10
}

// inputActive reports whether a text input is capturing keys, so the root
// model withholds global shortcuts.
func (m tasksModel) inputActive() bool { return m.mode != modeList }

func (m tasksModel) draftField() string {
	if m.tab == tabStock {
		return "stock"
	}
	return "tasks"
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	switch m.mode {
	case modeAdd:
		return m.updateAdd(msg)
	case modeEdit:
		return m.updateEdit(msg)
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.tab == tabStock {
			return m.updateStockList(msg)
		}
		return m.updateTodayList(msg)
	}
	return m, nil
}

func (m tasksModel) updateTodayList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	tasks := m.app.Tasks.Tasks()
	switch {
	case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
		m.tab = tabStock
		return m, nil
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.New):
		return m.openAdd()
	case key.Matches(msg, keys.Complete):
		if m.cursor < len(tasks) {
			if m.app.CompleteTask(tasks[m.cursor].ID) {
				return m, statusCmd("Task completed")
			}
		}
	case key.Matches(msg, keys.Delete):
		if m.cursor < len(tasks) {
			m.app.DeleteTask(tasks[m.cursor].ID)
			m.cursor = clamp(m.cursor, len(m.app.Tasks.Tasks()))
		}
	case key.Matches(msg, keys.Edit):
		if m.cursor < len(tasks) {
			return m.openEdit(tasks[m.cursor])
		}
	}
	return m, nil
}

func (m tasksModel) updateStockList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	stock := m.app.Tasks.Stock()
	switch {
	case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
		m.tab = tabToday
		return m, nil
	case key.Matches(msg, keys.Up):
		if m.stockCursor > 0 {
			m.stockCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.stockCursor < len(stock)-1 {
			m.stockCursor++
		}
	case key.Matches(msg, keys.New):
		return m.openAdd()
	case key.Matches(msg, keys.Delete):
		if m.stockCursor < len(stock) {
			m.app.DeleteStockTask(stock[m.stockCursor].ID)
			m.stockCursor = clamp(m.stockCursor, len(m.app.Tasks.Stock()))
		}
	case key.Matches(msg, keys.Select):
		if m.stockCursor < len(stock) {
			m.app.Tasks.ToggleStockSelection(stock[m.stockCursor].ID)
		}
	case key.Matches(msg, keys.Move):
		if n := m.app.MoveSelectedToActive(); n > 0 {
			m.stockCursor = clamp(m.stockCursor, len(m.app.Tasks.Stock()))
			return m, statusCmd(fmt.Sprintf("Moved %d task(s) to today", n))
		}
	}
	return m, nil
}

func (m tasksModel) openAdd() (tasksModel, tea.Cmd) {
	m.mode = modeAdd
	m.input.SetValue(m.st.Draft(m.draftField()))
	return m, m.input.Focus()
}

func (m tasksModel) updateAdd(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			// Unsent input survives as a draft.
			m.st.SaveDraft(m.draftField(), m.input.Value())
			m.mode = modeList
			m.input.Blur()
			return m, nil
		case "ctrl+s":
			raw := m.input.Value()
			var n int
			if m.tab == tabStock {
				n = m.app.AddStockTasks(raw)
			} else {
				n = m.app.AddTasks(raw)
			}
			m.st.ClearDraft(m.draftField())
			m.mode = modeList
			m.input.Blur()
			m.input.SetValue("")
			if n > 0 {
				return m, statusCmd(fmt.Sprintf("Added %d task(s)", n))
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tasksModel) openEdit(t *core.Task) (tasksModel, tea.Cmd) {
	if !m.app.Tasks.StartEdit(t.ID) {
		if t.External() {
			return m, errorCmd("Imported tickets are read-only")
		}
		return m, nil
	}
	m.mode = modeEdit
	m.editingID = t.ID
	m.edit.SetValue(t.Text)
	m.edit.CursorEnd()
	return m, m.edit.Focus()
}

func (m tasksModel) updateEdit(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			m.app.Tasks.CancelEdit(m.editingID)
			m.mode = modeList
			m.edit.Blur()
			return m, nil
		case "enter":
			m.app.SaveTaskEdit(m.editingID, m.edit.Value())
			m.mode = modeList
			m.edit.Blur()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.edit, cmd = m.edit.Update(msg)
	return m, cmd
}

func (m tasksModel) view() string {
	w := m.width - 4

	todayTab := inactiveTabStyle.Render("Today")
	stockTab := inactiveTabStyle.Render("Stock")
	if m.tab == tabToday {
		todayTab = activeTabStyle.Render("Today")
	} else {
		stockTab = activeTabStyle.Render("Stock")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, todayTab, stockTab)

	if m.mode == modeAdd {
		title := titleStyle.Render("Add tasks")
		if m.tab == tabStock {
			title = titleStyle.Render("Stock tasks")
		}
		hint := mutedStyle.Render("  ctrl+s: add  esc: keep as draft")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.input.View(), "", hint),
		)
	}

	var body string
	if m.tab == tabToday {
		body = m.renderToday()
	} else {
		body = m.renderStock()
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", body),
	)
}

func (m tasksModel) renderToday() string {
	tasks := m.app.Tasks.Tasks()
	if len(tasks) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			mutedStyle.Render("No tasks yet. Press n to add some."),
		)
	}

	var rows []string
	for i, t := range tasks {
		if m.mode == modeEdit && t.ID == m.editingID {
			rows = append(rows, "> "+m.edit.View())
			continue
		}

		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		check := "○"
		if t.Completed {
			check = successStyle.Render("✓")
			style = doneItemStyle
		}

		row := style.Render(fmt.Sprintf("%s%s %s", cursor, check, t.Text))
		if t.External() {
			meta := fmt.Sprintf(" [%s · %s", t.Priority, t.Project)
			if t.SpentMinutes > 0 {
				meta += fmt.Sprintf(" · %dm", t.SpentMinutes)
			}
			meta += "]"
			row += mutedStyle.Render(meta)
		} else if t.PomodorosSpent > 0 {
			row += mutedStyle.Render(fmt.Sprintf(" (%d🍅)", t.PomodorosSpent))
		}
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: add  c: complete  e: edit  d: delete  ←/→: stock"))
	return strings.Join(rows, "\n")
}

func (m tasksModel) renderStock() string {
	stock := m.app.Tasks.Stock()
	if len(stock) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			mutedStyle.Render("Stock is empty. Press n to put tasks aside for later."),
		)
	}

	var rows []string
	for i, st := range stock {
		cursor := "  "
		style := normalItemStyle
		if i == m.stockCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		box := "[ ]"
		if st.Selected {
			box = successStyle.Render("[x]")
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, box, st.Text)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: add  space: select  m: move to today  d: delete  ←/→: today"))
	return strings.Join(rows, "\n")
}

func clamp(cursor, length int) int {
	if cursor >= length {
		cursor = length - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: true} }
}
