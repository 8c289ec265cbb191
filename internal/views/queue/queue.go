// Package queue renders the matchmaking wait screen.
package queue

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smartstocks/pvp-tui/internal/session"
	"github.com/smartstocks/pvp-tui/internal/theme"
)

// Model holds the queue screen state.
type Model struct {
	Width int

	spinner spinner.Model
	since   time.Time
}

// New creates a queue model.
func New() Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorAccent)
	return Model{spinner: sp}
}

// Start resets the wait clock and starts the spinner.
func (m *Model) Start(now time.Time) tea.Cmd {
	m.since = now
	return m.spinner.Tick
}

// Update forwards spinner ticks.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View renders the wait screen.
func (m Model) View(s session.Session, now time.Time) string {
	width := max(m.Width, 40)

	headline := "Searching for an opponent"
	if s.Connecting {
		headline = "Connecting to the arena"
	}
	lines := []string{
		m.spinner.View() + " " + theme.StyleHeader.Render(headline),
		"",
	}
	if s.QueuePosition > 0 {
		lines = append(lines, fmt.Sprintf("Position in queue: %d", s.QueuePosition))
	}
	if !m.since.IsZero() {
		lines = append(lines, theme.StyleDimmed.Render("Waiting "+formatElapsed(now.Sub(m.since))))
	}
	lines = append(lines, "", theme.StyleDimmed.Render("esc: leave queue"))

	box := lipgloss.NewStyle().
		Padding(1, 4).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorAccent).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
}

// formatElapsed renders a duration as a compact string (e.g. "42s", "3m05s").
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
