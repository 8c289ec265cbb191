// Package track renders the match as a two-lane race: each player's racer
// advances toward the finish line as their score grows.
package track

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/smartstocks/pvp-tui/internal/session"
	"github.com/smartstocks/pvp-tui/internal/theme"
)

const (
	nameWidth = 16
	// Best case per round: base points plus the full speed bonus.
	maxRoundPoints = 150
)

// Model holds the track view state.
type Model struct {
	Width int
}

// New creates a track model.
func New() Model {
	return Model{}
}

// View renders the header and both lanes for s.
func (m Model) View(s session.Session) string {
	width := m.Width
	if width < 60 {
		width = 60
	}

	headerText := fmt.Sprintf("═══ ROUND %d/%d ", s.CurrentRound, s.TotalRounds)
	finishText := " FINISH"
	fillLen := max(width-len(headerText)-len(finishText)-2, 4)
	header := theme.StyleHeader.Render(headerText + strings.Repeat("═", fillLen) + finishText)

	opponent := "opponent"
	if s.Opponent != nil && s.Opponent.Username != "" {
		opponent = s.Opponent.Username
	}

	goal := max(s.TotalRounds, 1) * maxRoundPoints
	laneWidth := max(width-nameWidth-12, 10)

	you := renderLane("you", s.YourScore, goal, laneWidth, theme.ColorYou, s.Decision.Set())
	opp := renderLane(opponent, s.OpponentScore, goal, laneWidth, theme.ColorOpponent, s.OpponentDecided)

	return lipgloss.JoinVertical(lipgloss.Left, header, you, opp)
}

// Progress returns how far along the lane a score is, in [0, 1].
func Progress(score, goal int) float64 {
	if goal <= 0 || score <= 0 {
		return 0
	}
	return min(float64(score)/float64(goal), 1)
}

func renderLane(name string, score, goal, laneWidth int, color lipgloss.Color, decided bool) string {
	var b strings.Builder

	if len(name) > nameWidth {
		name = name[:nameWidth-1] + "…"
	}
	b.WriteString("  ")
	b.WriteString(lipgloss.NewStyle().Foreground(color).Bold(true).Width(nameWidth).Render(name))

	pos := int(Progress(score, goal) * float64(laneWidth-2))
	b.WriteString(theme.StyleDimmed.Render(strings.Repeat("·", pos)))
	b.WriteString(lipgloss.NewStyle().Foreground(color).Render("●>"))
	b.WriteString(theme.StyleDimmed.Render(strings.Repeat(" ", laneWidth-2-pos)))
	b.WriteString(theme.StyleDimmed.Render("│"))
	b.WriteString(fmt.Sprintf(" %4d", score))

	if decided {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render(" ✓"))
	}
	return b.String()
}
