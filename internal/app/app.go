package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smartstocks/pvp-tui/internal/client"
	"github.com/smartstocks/pvp-tui/internal/session"
	"github.com/smartstocks/pvp-tui/internal/theme"
	"github.com/smartstocks/pvp-tui/internal/views/achievements"
	"github.com/smartstocks/pvp-tui/internal/views/arena"
	"github.com/smartstocks/pvp-tui/internal/views/dashboard"
	"github.com/smartstocks/pvp-tui/internal/views/debug"
	"github.com/smartstocks/pvp-tui/internal/views/detail"
	"github.com/smartstocks/pvp-tui/internal/views/ladder"
	"github.com/smartstocks/pvp-tui/internal/views/queue"
	"github.com/smartstocks/pvp-tui/internal/views/status"
	"github.com/smartstocks/pvp-tui/internal/views/track"
)

const toastTTL = 4 * time.Second

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayAchievements
	OverlayLadder
	OverlayDebug
)

// Controller is the session surface the UI drives.
type Controller interface {
	Updates() <-chan session.Update
	JoinQueue()
	Submit(choice client.Decision)
	Leave()
	Reset()
}

// Profile supplies the logged-in user and their stats.
type Profile interface {
	User() client.User
	Stats() client.UserStats
}

type updateMsg session.Update

type updatesClosedMsg struct{}

type toastExpiredMsg struct{ seq int }

// Model is the root Bubble Tea model.
type Model struct {
	ctx          context.Context
	ctrl         Controller
	profile      Profile
	history      dashboard.HistorySource
	historyLimit int
	now          func() time.Time

	keys   KeyMap
	width  int
	height int

	session session.Session
	overlay Overlay

	// Sub-views.
	statusBar    status.Model
	dashboard    dashboard.Model
	queue        queue.Model
	track        track.Model
	arena        arena.Model
	detail       detail.Model
	debug        debug.Model
	achievements achievements.Model
	ladder       ladder.Model
}

// New creates the root model. history may be nil, which hides the match
// history table.
func New(ctx context.Context, ctrl Controller, profile Profile, history dashboard.HistorySource, historyLimit int) Model {
	m := Model{
		ctx:          ctx,
		ctrl:         ctrl,
		profile:      profile,
		history:      history,
		historyLimit: historyLimit,
		now:          time.Now,
		keys:         DefaultKeyMap(),
		session:      session.Session{Status: session.StatusIdle},
		statusBar:    status.New(),
		dashboard:    dashboard.New(),
		queue:        queue.New(),
		track:        track.New(),
		arena:        arena.New(),
		detail:       detail.New(),
		debug:        debug.New(),
		achievements: achievements.New(),
		ladder:       ladder.New(),
	}
	m.syncProfile()
	return m
}

// Init subscribes to session updates and loads the match history.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.ctrl.Updates()), m.fetchHistory())
}

func waitForUpdate(ch <-chan session.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return updateMsg(u)
	}
}

func (m *Model) fetchHistory() tea.Cmd {
	if m.history == nil {
		return nil
	}
	m.dashboard.SetLoading()
	return dashboard.FetchCmd(m.ctx, m.history, m.historyLimit)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.dashboard.Width = msg.Width
		m.queue.Width = msg.Width
		m.track.Width = msg.Width
		m.arena.Width = msg.Width
		m.ladder.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case updateMsg:
		cmd := m.applyUpdate(session.Update(msg))
		return m, tea.Batch(cmd, waitForUpdate(m.ctrl.Updates()))

	case updatesClosedMsg:
		return m, tea.Quit

	case toastExpiredMsg:
		m.statusBar.ClearToast(msg.seq)
		return m, nil

	case dashboard.HistoryLoadedMsg:
		m.dashboard.ApplyHistory(msg)
		if msg.Err != nil {
			m.debug.Note(m.session, session.Notice{Level: session.LevelError, Text: "history: " + msg.Err.Error()}, m.now())
		} else if msg.History != nil {
			m.ladder.SetHistory(msg.History.Matches)
		}
		return m, nil

	case arena.FrameMsg:
		var cmd tea.Cmd
		m.arena, cmd = m.arena.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if m.session.Status != session.StatusQueuing {
			return m, nil
		}
		var cmd tea.Cmd
		m.queue, cmd = m.queue.Update(msg)
		return m, cmd
	}

	return m, nil
}

// applyUpdate installs a controller snapshot and returns the commands the
// transition calls for.
func (m *Model) applyUpdate(u session.Update) tea.Cmd {
	prev := m.session
	next := u.Session
	m.session = next
	m.statusBar.SetSession(next)
	m.syncProfile()

	m.debug.Observe(prev, next, m.now())

	var cmds []tea.Cmd
	if prev.Status != next.Status {
		switch next.Status {
		case session.StatusQueuing:
			cmds = append(cmds, m.queue.Start(m.now()))
		case session.StatusMatchEnd:
			cmds = append(cmds, m.fetchHistory())
		}
	}
	if next.CurrentRound != prev.CurrentRound || next.TimeRemaining != prev.TimeRemaining {
		cmds = append(cmds, m.arena.SetRemaining(next.TimeRemaining, next.TimeLimitSeconds))
	}

	for _, n := range u.Notices {
		m.debug.Note(next, n, m.now())
		seq := m.statusBar.SetToast(n)
		cmds = append(cmds, tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} }))
	}
	return tea.Batch(cmds...)
}

func (m *Model) syncProfile() {
	if m.profile == nil {
		return
	}
	st := m.profile.Stats()
	m.statusBar.User = m.profile.User()
	m.statusBar.Stats = st
	m.dashboard.Stats = st
	m.achievements.SetStats(st)
	m.ladder.Stats = st
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.ctrl.Leave()
		return m, tea.Quit
	}

	if m.overlay != OverlayNone {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.overlay = OverlayNone
		case m.overlay == OverlayAchievements:
			m.achievements = m.achievements.Update(msg)
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Up):
			m.debug.Scroll(1)
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Down):
			m.debug.Scroll(-1)
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Errors):
			m.debug.ToggleErrors()
		case m.overlay == OverlayLadder && key.Matches(msg, m.keys.Ladder):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Debug):
			m.overlay = OverlayNone
		}
		return m, nil
	}

	st := m.session.Status
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Leave()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Enter):
		switch st {
		case session.StatusIdle:
			m.ctrl.JoinQueue()
		case session.StatusMatchEnd:
			m.ctrl.Reset()
			m.ctrl.JoinQueue()
		}
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		switch {
		case st == session.StatusQueuing || st.InMatch():
			m.ctrl.Leave()
		case st == session.StatusMatchEnd:
			m.ctrl.Reset()
		}
		return m, nil

	case key.Matches(msg, m.keys.Buy):
		return m.submit(client.DecisionBuy)
	case key.Matches(msg, m.keys.Sell):
		return m.submit(client.DecisionSell)
	case key.Matches(msg, m.keys.Hold):
		return m.submit(client.DecisionHold)

	case key.Matches(msg, m.keys.Refresh):
		if st == session.StatusIdle {
			return m, m.fetchHistory()
		}
		return m, nil

	case key.Matches(msg, m.keys.Achievements):
		m.overlay = OverlayAchievements
		return m, nil

	case key.Matches(msg, m.keys.Ladder):
		m.overlay = OverlayLadder
		return m, nil

	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
		return m, nil
	}

	return m, nil
}

func (m Model) submit(d client.Decision) (tea.Model, tea.Cmd) {
	if m.session.Status == session.StatusPlaying && !m.session.Decision.Set() {
		m.ctrl.Submit(d)
	}
	return m, nil
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var body string
	switch m.overlay {
	case OverlayAchievements:
		body = m.achievements.ViewOverlay(m.width, m.height-4)
	case OverlayLadder:
		body = m.ladder.View()
	case OverlayDebug:
		body = m.debug.View(m.width, m.height-4)
	default:
		body = m.body()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusBar.View(),
		body,
		theme.StyleDimmed.Render("  "+m.help()),
	)
}

func (m Model) body() string {
	s := m.session
	switch s.Status {
	case session.StatusQueuing:
		return m.queue.View(s, m.now())
	case session.StatusMatched:
		opp := "your opponent"
		if s.Opponent != nil && s.Opponent.Username != "" {
			opp = s.Opponent.Username
		}
		ready := theme.StyleHeader.Render(fmt.Sprintf("Match found against %s. %d rounds, get ready!", opp, s.TotalRounds))
		return lipgloss.JoinVertical(lipgloss.Left, m.track.View(s), "", ready)
	case session.StatusPlaying, session.StatusWaitingOpponent:
		return lipgloss.JoinVertical(lipgloss.Left, m.track.View(s), m.arena.View(s))
	case session.StatusRoundResult:
		return lipgloss.JoinVertical(lipgloss.Left, m.track.View(s), m.detail.RoundView(s))
	case session.StatusMatchEnd:
		return m.detail.MatchView(s)
	default:
		return lipgloss.JoinVertical(lipgloss.Left, m.dashboard.View(), m.ladder.CollapsedBar())
	}
}

func (m Model) help() string {
	switch m.overlay {
	case OverlayLadder:
		return "esc:close"
	case OverlayAchievements:
		return "esc:close  j/k:scroll"
	case OverlayDebug:
		return "esc:close  j/k:scroll  e:errors only"
	}
	switch st := m.session.Status; {
	case st == session.StatusPlaying && !m.session.Decision.Set():
		return "b:buy  s:sell  h:hold  esc:leave  d:debug"
	case st == session.StatusQueuing || st.InMatch():
		return "esc:leave  d:debug  q:quit"
	case st == session.StatusMatchEnd:
		return "enter:play again  esc:lobby  a:achievements  q:quit"
	default:
		return "enter:find match  r:refresh  a:achievements  l:ladder  d:debug  q:quit"
	}
}
