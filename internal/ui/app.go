// Package ui provides the Bubble Tea TUI for bundlectl.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bundlectl/internal/bundlegen"
	"github.com/five82/bundlectl/internal/config"
	"github.com/five82/bundlectl/internal/console"
	"github.com/five82/bundlectl/internal/prefs"
	"github.com/five82/bundlectl/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewBundles View = iota
	ViewGenerate
	ViewClientLog
)

// Downloader saves a bundle to a local directory.
type Downloader interface {
	Download(ctx context.Context, name, dir string) (string, error)
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Console    *console.Console
	Downloader Downloader
	Config     config.Config
	Prefs      prefs.Prefs
	PrefsPath  string
	ServerURL  string
	UITick     time.Duration
}

// Model is the root application state for Bubble Tea. Business state lives in
// the Console; the model only keeps what it needs to render.
type Model struct {
	// Configuration
	ctx        context.Context
	console    *console.Console
	downloader Downloader
	config     config.Config
	prefs      prefs.Prefs
	prefsPath  string
	serverURL  string
	uiTick     time.Duration

	// UI state
	keys        keyMap
	help        help.Model
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool

	// Bundle list
	table       table.Model
	bundles     []bundlegen.Bundle
	snapshot    state.Snapshot
	lastRefresh time.Time

	// Generation form
	form formState

	// Generation log panel
	logViewport viewport.Model
	logFollow   bool
	logVersion  uint64

	// Client log view
	clientViewport viewport.Model
	clientLines    []string
	clientErr      error

	spinner  spinner.Model
	modal    Modal
	showHelp bool
	status   string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	uiTick := opts.UITick
	if uiTick <= 0 {
		uiTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	theme := GetTheme(opts.Prefs.Theme)
	m := Model{
		ctx:         ctx,
		console:     opts.Console,
		downloader:  opts.Downloader,
		config:      opts.Config,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		serverURL:   opts.ServerURL,
		uiTick:      uiTick,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		theme:       theme,
		currentView: ViewBundles,
		table:       newBundleTable(theme),
		form:        newFormState(),
		logFollow:   true,
		lastRefresh: time.Now(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.clientViewport = viewport.New(0, 0)
	m.logViewport = viewport.New(0, 0)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.console.Init(),
		tickCmd(m.uiTick),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Results of network commands land in the console first.
	if cmd := m.console.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()

	case tickMsg:
		cmds = append(cmds, m.handleTick(time.Time(msg)))

	case spinner.TickMsg:
		if !m.console.CanSubmit() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case downloadResultMsg:
		if msg.err != nil {
			m.status = "Download failed: " + bundlegen.Message(msg.err)
		} else {
			m.status = "Saved " + msg.path
		}

	case clientLogMsg:
		m.clientLines = msg.lines
		m.clientErr = msg.err
		m.updateClientViewport()

	default:
		if m.form.browsing {
			cmds = append(cmds, m.updatePicker(msg))
		}
	}

	m.sync()
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return nil
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}

	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	// The form owns the keyboard while a text field or the file picker is
	// focused.
	if m.currentView == ViewGenerate {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return nil
	case key.Matches(msg, m.keys.Tab):
		return m.switchView((m.currentView + 1) % 3)
	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView((m.currentView + 2) % 3)
	case key.Matches(msg, m.keys.ViewBundles), key.Matches(msg, m.keys.Escape):
		return m.switchView(ViewBundles)
	case key.Matches(msg, m.keys.ViewGenerate):
		return m.switchView(ViewGenerate)
	case key.Matches(msg, m.keys.ViewClientLog):
		return m.switchView(ViewClientLog)
	}

	switch m.currentView {
	case ViewBundles:
		return m.handleBundlesKey(msg)
	case ViewClientLog:
		return m.handleClientLogKey(msg)
	}
	return nil
}

func (m *Model) updateModal(msg tea.Msg) tea.Cmd {
	next, cmd, closed := m.modal.Update(msg, m.keys)
	if !closed {
		m.modal = next
		return cmd
	}
	if _, ok := m.modal.(noticeModal); ok {
		m.console.DismissNotice()
	}
	m.modal = nil
	return cmd
}

// switchView changes the active view and kicks off whatever it needs.
func (m *Model) switchView(v View) tea.Cmd {
	if m.currentView == ViewGenerate && v != ViewGenerate {
		m.form.blurAll()
		m.form.browsing = false
	}
	m.currentView = v
	m.status = ""
	switch v {
	case ViewGenerate:
		return m.form.focusCurrent(m.console.Form())
	case ViewClientLog:
		return readClientLogCmd(m.config.LogFile)
	}
	return nil
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.table.SetStyles(tableStyles(m.theme))
	m.prefs.Theme = m.theme.Name
	_ = prefs.Save(m.prefsPath, m.prefs)
	m.logVersion = 0
}

// handleTick processes the UI tick: periodic refresh and client log reload.
func (m *Model) handleTick(now time.Time) tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.uiTick)}

	if every := m.config.RefreshEvery; every > 0 && now.Sub(m.lastRefresh) >= every {
		m.lastRefresh = now
		cmds = append(cmds, m.console.Refresh())
	}

	if m.currentView == ViewClientLog {
		cmds = append(cmds, readClientLogCmd(m.config.LogFile))
	}

	return tea.Batch(cmds...)
}

// sync pulls console state into the render-side models after every message.
func (m *Model) sync() {
	snap := m.console.Snapshot()
	if snap.AppliedSeq != m.snapshot.AppliedSeq || len(snap.Bundles) != len(m.bundles) || !snap.LastAttempt.Equal(m.snapshot.LastAttempt) {
		m.setBundles(snap)
	}
	m.snapshot = snap

	m.refreshLogViewport()
	m.form.sync(m.console.Form())

	if m.modal == nil {
		if n, ok := m.console.Notice(); ok {
			m.modal = noticeModal{notice: n}
		}
	}
}

// layout sizes every component after a resize.
func (m *Model) layout() {
	contentHeight := m.contentHeight()
	logHeight := m.logPanelHeight()
	topHeight := contentHeight - logHeight

	m.table.SetWidth(m.width - 2)
	m.table.SetHeight(maxInt(topHeight-2, 3))
	m.table.SetColumns(bundleColumns(m.width - 4))

	m.logViewport.Width = maxInt(m.width-4, 10)
	m.logViewport.Height = maxInt(logHeight-2, 1)
	m.logVersion = 0

	m.clientViewport.Width = maxInt(m.width-4, 10)
	m.clientViewport.Height = maxInt(contentHeight-2, 1)
	m.updateClientViewport()

	m.form.resize(m.width-4, topHeight-2)
	m.help.Width = m.width
}

// contentHeight is the space below the header and command bar.
func (m Model) contentHeight() int {
	return maxInt(m.height-2, 4)
}

// logPanelHeight is the height of the generation log box, borders included.
func (m Model) logPanelHeight() int {
	return maxInt(m.contentHeight()/3, LogPanelMinHeight)
}

// Messages

type tickMsg time.Time

type downloadResultMsg struct {
	name string
	path string
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func downloadCmd(ctx context.Context, d Downloader, name, dir string) tea.Cmd {
	if d == nil {
		return nil
	}
	return func() tea.Msg {
		path, err := d.Download(ctx, name, dir)
		return downloadResultMsg{name: name, path: path, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
