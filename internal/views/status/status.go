// Package status renders the top bar: connection, player and rank, plus the
// most recent notice as a toast.
package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/smartstocks/pvp-tui/internal/client"
	"github.com/smartstocks/pvp-tui/internal/session"
	"github.com/smartstocks/pvp-tui/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Width int
	User  client.User
	Stats client.UserStats

	status     session.Status
	connecting bool

	toast    *session.Notice
	toastSeq int
}

// New creates a status bar model.
func New() Model {
	return Model{status: session.StatusIdle}
}

// SetSession records the connection-relevant parts of a snapshot.
func (m *Model) SetSession(s session.Session) {
	m.status = s.Status
	m.connecting = s.Connecting
}

// SetToast shows n until ClearToast is called with the returned sequence.
func (m *Model) SetToast(n session.Notice) int {
	m.toastSeq++
	m.toast = &n
	return m.toastSeq
}

// ClearToast hides the toast if it is still the one identified by seq.
func (m *Model) ClearToast(seq int) {
	if seq == m.toastSeq {
		m.toast = nil
	}
}

// Toast returns the visible notice, if any.
func (m Model) Toast() (session.Notice, bool) {
	if m.toast == nil {
		return session.Notice{}, false
	}
	return *m.toast, true
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	switch {
	case m.connecting:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("◌ Connecting...")
	case m.status == session.StatusIdle:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDimmed).Render("○ Offline")
	default:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	}

	name := m.User.Username
	if name == "" {
		name = "guest"
	}
	player := lipgloss.NewStyle().Foreground(theme.ColorYou).Bold(true).Render(name)

	tier := m.Stats.RankTier
	if tier == "" {
		tier = "unranked"
	}
	rank := lipgloss.NewStyle().Foreground(theme.TierColor(tier)).Render(tier) +
		theme.StyleDimmed.Render(fmt.Sprintf(" %d pts", m.Stats.SmartPoints))

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + player + sep + rank
	if n, ok := m.Toast(); ok {
		content += sep + lipgloss.NewStyle().Foreground(LevelColor(n.Level)).Render(n.Text)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

// LevelColor returns the toast color for a notice level.
func LevelColor(l session.Level) lipgloss.Color {
	switch l {
	case session.LevelSuccess:
		return theme.ColorHealthy
	case session.LevelError:
		return theme.ColorDanger
	default:
		return theme.ColorInfo
	}
}
