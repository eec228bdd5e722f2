package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/backoffice/internal/api"
	"github.com/five82/backoffice/internal/appointments"
	"github.com/five82/backoffice/internal/prefs"
	"github.com/five82/backoffice/internal/state"
)

// screen is the active top-level screen.
type screen int

const (
	screenLogin screen = iota
	screenBoard
	screenCreate
	screenLogs
)

const expiredNotice = "Sessão expirada. Faça login novamente."

// Options configures the UI.
type Options struct {
	Context     context.Context
	Client      *api.Client
	Service     *appointments.Service
	OnError     func(error) bool // true when the error ended the session
	StartPoller func(ctx context.Context)
	LogPath     string
	PollTick    time.Duration // shown in the header only; polling runs elsewhere
	Prefs       prefs.Prefs
	PrefsPath   string // empty disables saving
	Now         func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	client      *api.Client
	svc         *appointments.Service
	onError     func(error) bool
	startPoller func(ctx context.Context)
	stopPoller  context.CancelFunc
	logPath     string
	prefsPath   string
	prefs       prefs.Prefs
	pollTick    time.Duration
	now         func() time.Time

	// UI state
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	theme    Theme
	screen   screen
	width    int
	height   int
	ready    bool
	showHelp bool

	// Board state
	filter      appointments.Filter
	snapshot    state.Snapshot[appointments.View]
	selectedRow int
	notice      string
	noticeIsErr bool

	// Forms
	login  loginForm
	create createForm

	// Log pane
	logViewport viewport.Model
	logLines    []string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	onError := opts.OnError
	if onError == nil {
		onError = api.SessionExpired
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:         ctx,
		client:      opts.Client,
		svc:         opts.Service,
		onError:     onError,
		startPoller: opts.StartPoller,
		logPath:     opts.LogPath,
		prefsPath:   opts.PrefsPath,
		prefs:       opts.Prefs,
		pollTick:    opts.PollTick,
		now:         now,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     sp,
		theme:       GetTheme(opts.Prefs.Theme),
		screen:      screenLogin,
		filter:      appointments.Day(now(), appointments.Status(opts.Prefs.LastStatus)),
		login:       newLoginForm(opts.Prefs.LastEmail),
	}
	if m.client != nil && m.client.Store().Get().Valid() {
		m.screen = screenBoard
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(DefaultUIInterval),
		m.spinner.Tick,
	}
	if m.screen == screenBoard {
		cmds = append(cmds, m.listCmd(m.filter))
	} else {
		cmds = append(cmds, m.login.focus())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if !m.ready {
			m.logViewport = viewport.New(msg.Width, maxInt(m.height-4, 1))
		} else {
			m.logViewport.Width = msg.Width
			m.logViewport.Height = maxInt(m.height-4, 1)
		}
		m.ready = true
		return m, nil

	case tickMsg:
		return m.handleTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginResultMsg:
		return m.handleLoginResult(msg)

	case listResultMsg:
		return m.handleListResult(msg)

	case createResultMsg:
		return m.handleCreateResult(msg)

	case logsMsg:
		m.logLines = msg.lines
		m.logViewport.SetContent(strings.Join(m.logLines, "\n"))
		m.logViewport.GotoBottom()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Carregando..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	switch m.screen {
	case screenLogin:
		return m.renderLogin()
	case screenCreate:
		return m.renderCreate()
	case screenLogs:
		return m.renderLogs()
	default:
		return m.renderBoard()
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.cancelPoller()
		return m, tea.Quit
	}
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	// Forms own every other key.
	switch m.screen {
	case screenLogin:
		return m.handleLoginKey(msg)
	case screenCreate:
		return m.handleCreateKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelPoller()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		if m.client != nil {
			m.client.Logout()
		}
		m.toLogin("")
		return m, m.login.focus()

	case key.Matches(msg, m.keys.ViewLogs):
		m.screen = screenLogs
		return m, m.logsCmd()

	case key.Matches(msg, m.keys.ViewBoard), key.Matches(msg, m.keys.Escape):
		m.screen = screenBoard
		return m, nil
	}

	switch m.screen {
	case screenBoard:
		return m.handleBoardKey(msg)
	case screenLogs:
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleTick refreshes the board from the service and notices a session
// ended by the poller.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(DefaultUIInterval)}

	if m.screen != screenLogin && m.client != nil && !m.client.Store().Get().Valid() {
		m.toLogin(expiredNotice)
		cmds = append(cmds, m.login.focus())
		return m, tea.Batch(cmds...)
	}
	if m.svc != nil && m.screen != screenLogin {
		m.snapshot = m.svc.Snapshot()
		m.clampSelection()
	}
	if m.screen == screenLogs {
		cmds = append(cmds, m.logsCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	m.login.submitting = false
	if msg.err != nil {
		m.login.err = api.UserMessage(msg.err)
		return m, nil
	}
	m.login.err = ""
	m.login.password.SetValue("")
	m.prefs.LastEmail = m.login.email.Value()
	m.savePrefs()

	m.screen = screenBoard
	m.setNotice("", false)
	m.beginPolling()
	return m, m.listCmd(m.filter)
}

func (m Model) handleListResult(msg listResultMsg) (tea.Model, tea.Cmd) {
	if m.svc != nil {
		m.snapshot = m.svc.Snapshot()
	} else {
		m.snapshot = msg.snapshot
	}
	m.clampSelection()

	switch {
	case msg.err == nil:
		m.setNotice("", false)
	case errors.Is(msg.err, appointments.ErrSuperseded):
		// Silent: a newer list owns the board.
	default:
		return m.handleError(msg.err)
	}
	return m, nil
}

func (m Model) handleCreateResult(msg createResultMsg) (tea.Model, tea.Cmd) {
	m.create.submitting = false
	if msg.err != nil {
		if m.onError(msg.err) {
			m.toLogin(expiredNotice)
			return m, m.login.focus()
		}
		m.create.err = api.UserMessage(msg.err)
		return m, nil
	}
	if m.svc != nil {
		m.snapshot = m.svc.Snapshot()
	}
	m.screen = screenBoard
	m.selectedRow = 0
	m.setNotice("Agendamento #"+formatID(msg.appointment.ID)+" criado.", false)
	return m, nil
}

// handleError surfaces err, or returns to login when it ended the session.
func (m Model) handleError(err error) (tea.Model, tea.Cmd) {
	if m.onError(err) {
		m.toLogin(expiredNotice)
		return m, m.login.focus()
	}
	m.setNotice(api.UserMessage(err), true)
	return m, nil
}

func (m *Model) toLogin(notice string) {
	m.cancelPoller()
	m.screen = screenLogin
	m.showHelp = false
	m.login.password.SetValue("")
	m.login.submitting = false
	m.login.err = notice
}

func (m *Model) beginPolling() {
	m.cancelPoller()
	if m.startPoller == nil {
		return
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.stopPoller = cancel
	m.startPoller(ctx)
}

func (m *Model) cancelPoller() {
	if m.stopPoller != nil {
		m.stopPoller()
		m.stopPoller = nil
	}
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeIsErr = isErr
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, m.prefs)
}

// Messages

type tickMsg time.Time

type loginResultMsg struct {
	err error
}

type listResultMsg struct {
	snapshot state.Snapshot[appointments.View]
	err      error
}

type createResultMsg struct {
	appointment appointments.Appointment
	err         error
}

type logsMsg struct {
	lines []string
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// listCmd claims the list generation for f now, while Update runs, so the
// order of filter changes decides which result is shown. Only the request
// itself runs in the command.
func (m Model) listCmd(f appointments.Filter) tea.Cmd {
	if m.svc == nil {
		return nil
	}
	load := m.svc.Start(m.ctx, f)
	return func() tea.Msg {
		snap, err := load()
		return listResultMsg{snapshot: snap, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.cancelPoller()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
