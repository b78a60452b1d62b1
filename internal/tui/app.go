package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ymgch/pomotick/internal/core"
	"github.com/ymgch/pomotick/internal/export"
	"github.com/ymgch/pomotick/internal/logging"
	"github.com/ymgch/pomotick/internal/redmine"
	"github.com/ymgch/pomotick/internal/store"
)

const (
	saveInterval   = 30 * time.Second
	statusClearIn  = 3 * time.Second
	requestTimeout = 20 * time.Second
)

// App is the root Bubble Tea model. It owns the clock: one tickMsg per second
// drives the session state machine, and all state mutation happens here on
// the update thread while network calls run as commands.
type App struct {
	app    *core.App
	store  *store.Store
	source core.TicketSource

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	// syncGen invalidates auto-sync triggers scheduled before the last
	// toggle.
	syncGen int

	timer    timerModel
	tasks    tasksModel
	stats    statsModel
	sync     syncModel
	settings settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(app *core.App, st *store.Store, source core.TicketSource) App {
	h := help.New()
	h.ShowAll = false

	return App{
		app:        app,
		store:      st,
		source:     source,
		activeView: viewTimer,
		timer:      newTimerModel(app),
		tasks:      newTasksModel(app, st),
		stats:      newStatsModel(app),
		sync:       newSyncModel(app, st, source != nil),
		settings:   newSettingsModel(app, st),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), saveCmd()}
	if a.source != nil {
		cmds = append(cmds, a.syncCmd())
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func saveCmd() tea.Cmd {
	return tea.Tick(saveInterval, func(t time.Time) tea.Msg {
		return saveTickMsg(t)
	})
}

func clearStatusCmd() tea.Cmd {
	return tea.Tick(statusClearIn, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func autoSyncCmd(gen int) tea.Cmd {
	return tea.Tick(core.AutoSyncInterval, func(time.Time) tea.Msg {
		return autoSyncMsg{gen: gen}
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timer.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		a.sync.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.stats.rebuild()
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (form or text box), delegate.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			a.saveNow()
			return a, tea.Quit
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimer
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTasks
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewStats
			a.stats.rebuild()
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSync
			return a, nil
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			if a.activeView == viewStats {
				a.stats.rebuild()
			}
			return a, nil
		}

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if change := a.app.Session.Tick(); change != nil {
			cmds = append(cmds, a.onPhaseChange(*change)...)
		}
		return a, tea.Batch(cmds...)

	case saveTickMsg:
		a.saveNow()
		return a, saveCmd()

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		if !msg.isError {
			return a, clearStatusCmd()
		}
		return a, nil

	case clearStatusMsg:
		if !a.statusErr {
			a.status = ""
		}
		return a, nil

	case syncDoneMsg:
		if msg.err != nil {
			a.app.Reconciler.SyncFailed(msg.err)
			a.status = fmt.Sprintf("Sync failed: %v", msg.err)
			a.statusErr = true
			return a, nil
		}
		n := a.app.Reconciler.MergeTickets(msg.tickets, time.Now())
		a.saveNow()
		a.stats.rebuild()
		a.status = fmt.Sprintf("Synced %d tickets", n)
		a.statusErr = false
		return a, clearStatusCmd()

	case syncNowMsg:
		return a, a.syncCmd()

	case autoSyncMsg:
		if msg.gen != a.syncGen || !a.app.Reconciler.AutoSync() || a.source == nil {
			return a, nil
		}
		return a, tea.Batch(a.syncCmd(), autoSyncCmd(msg.gen))

	case autoSyncToggleMsg:
		on := !a.app.Reconciler.AutoSync()
		a.app.Reconciler.SetAutoSync(on)
		a.syncGen++
		if on {
			return a, tea.Batch(a.syncCmd(), autoSyncCmd(a.syncGen))
		}
		return a, nil

	case timeEntryDoneMsg:
		a.app.Reconciler.ReportTimeEntry(msg.req, msg.err)
		a.saveNow()
		if msg.err != nil {
			a.status = fmt.Sprintf("Time entry failed: %v", msg.err)
			a.statusErr = true
		}
		return a, nil

	case connTestRequestMsg:
		return a, a.connTestCmd()

	case connTestDoneMsg:
		if msg.err != nil {
			a.status = fmt.Sprintf("Connection failed: %v", msg.err)
			a.statusErr = true
			return a, nil
		}
		a.status = "Connection OK"
		a.statusErr = false
		return a, clearStatusCmd()

	case trackerSavedMsg:
		if msg.cfg.Configured() {
			a.source = redmine.New(msg.cfg.BaseURL, msg.cfg.APIKey)
		} else {
			a.source = nil
		}
		a.app.Reconciler.ActivityID = msg.cfg.ActivityID
		var cmd tea.Cmd
		a.sync, cmd = a.sync.update(msg)
		a.status = "Tracker settings saved"
		a.statusErr = false
		return a, tea.Batch(cmd, clearStatusCmd())

	case durationsSavedMsg:
		a.app.Session.SetDurations(msg.d)
		a.status = "Durations saved"
		a.statusErr = false
		return a, clearStatusCmd()

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, clearStatusCmd()
	}

	return a.updateActiveView(msg)
}

// onPhaseChange reports the transition and drains any time entries queued by
// a completed work session.
func (a *App) onPhaseChange(change core.PhaseChange) []tea.Cmd {
	var cmds []tea.Cmd

	if change.From == core.PhaseWork {
		a.status = fmt.Sprintf("Focus session complete — %s next \a", change.To.Label())
	} else {
		a.status = "Break over — back to focus \a"
	}
	a.statusErr = false
	cmds = append(cmds, clearStatusCmd())

	for _, req := range a.app.TakePendingTimeEntries() {
		if a.source == nil {
			logging.Logger.Debug("dropping time entry, no tracker configured", "issue", req.IssueID)
			continue
		}
		cmds = append(cmds, a.postTimeEntryCmd(req))
	}

	a.saveNow()
	a.stats.rebuild()
	return cmds
}

func (a App) syncCmd() tea.Cmd {
	src := a.source
	if src == nil {
		return nil
	}
	project := a.store.TrackerConfig().Project
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var tickets []core.Ticket
		var err error
		if project != "" {
			tickets, err = src.ListByProject(ctx, project, "")
		} else {
			tickets, err = src.ListAssigned(ctx, "")
		}
		return syncDoneMsg{tickets: tickets, err: err}
	}
}

func (a App) postTimeEntryCmd(req core.TimeEntryRequest) tea.Cmd {
	src := a.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := src.CreateTimeEntry(ctx, req.IssueID, req.Hours, req.ActivityID, req.Comment)
		return timeEntryDoneMsg{req: req, err: err}
	}
}

func (a App) connTestCmd() tea.Cmd {
	src := a.source
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return connTestDoneMsg{err: src.TestConnection(ctx)}
	}
}

func (a *App) saveNow() {
	if err := a.store.SaveSnapshot(a.app.Snapshot(time.Now())); err != nil {
		logging.Logger.Error("snapshot save failed", "err", err)
		a.status = fmt.Sprintf("Save failed: %v", err)
		a.statusErr = true
	}
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.timer, cmd = a.timer.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	case viewSync:
		a.sync, cmd = a.sync.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	// Mutations arrive as key presses; persist them right away so a crash
	// never loses more than in-progress typing. The 30s tick is only a
	// safety net. While a text box or form is capturing input nothing has
	// been committed yet, so those keystrokes skip the save.
	if _, ok := msg.(tea.KeyMsg); ok && !a.isFormActive() {
		a.saveNow()
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.inputActive()
	case viewSync:
		return a.sync.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.timer.view()
	case viewTasks:
		content = a.tasks.view()
	case viewStats:
		content = a.stats.view()
	case viewSync:
		content = a.sync.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("pomotick")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	// Running timer indicator, visible from every view.
	timerInfo := ""
	if a.app.Session.Running() {
		timerInfo = successStyle.Render(" ● " + formatClock(a.app.Session.Remaining()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	snap := a.app.Snapshot(time.Now())
	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("pomotick-export-%s.csv", dateStr))
			if err := export.ToCSV(snap.Tasks, snap.Log, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("pomotick-export-%s.json", dateStr))
			if err := export.ToJSON(snap.Tasks, snap.Log, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
