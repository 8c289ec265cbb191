// Package detail renders the breakdown panels shown between rounds and at
// the end of a match.
package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/smartstocks/pvp-tui/internal/client"
	"github.com/smartstocks/pvp-tui/internal/session"
	"github.com/smartstocks/pvp-tui/internal/theme"
)

const (
	panelWidth = 64
	labelWidth = 14
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)
)

// Model renders explanations as markdown. The renderer is built once.
type Model struct {
	md *glamour.TermRenderer
}

// New creates a detail model. If the markdown renderer cannot be built,
// explanations are shown as plain text.
func New() Model {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(panelWidth-6),
	)
	if err != nil {
		return Model{}
	}
	return Model{md: r}
}

// RoundView renders the result of the round held in s.
func (m Model) RoundView(s session.Session) string {
	r := s.RoundResult
	if r == nil {
		return ""
	}
	var b strings.Builder

	b.WriteString(styleTitle.Render(fmt.Sprintf("Round %d of %d", r.RoundNumber, s.TotalRounds)) + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	writeRow(&b, "Correct", decisionLabel(r.CorrectDecision))
	writeRow(&b, "You", decisionLabel(r.YourDecision)+pointsLabel(r.YourPoints, r.YourDecision == r.CorrectDecision))
	writeRow(&b, "Opponent", decisionLabel(r.OpponentDecision)+pointsLabel(r.OpponentPoints, r.OpponentDecision == r.CorrectDecision))
	writeRow(&b, "Score", fmt.Sprintf("%d - %d", s.YourScore, s.OpponentScore))

	if r.Explanation != "" {
		b.WriteString("\n" + m.markdown(r.Explanation))
	}
	b.WriteString("\n" + styleFooter.Render("next round starting soon..."))

	return stylePanel.Width(panelWidth).Render(b.String())
}

// MatchView renders the final result.
func (m Model) MatchView(s session.Session) string {
	res := s.MatchResult
	if res == nil {
		return ""
	}
	var b strings.Builder

	var headline string
	var color lipgloss.Color
	switch res.Outcome {
	case session.OutcomeWin:
		headline, color = "VICTORY", theme.ColorHealthy
	case session.OutcomeLoss:
		headline, color = "DEFEAT", theme.ColorDanger
	default:
		headline, color = "DRAW", theme.ColorWarning
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(color).Render(headline) + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	opp := "Opponent"
	if s.Opponent != nil && s.Opponent.Username != "" {
		opp = s.Opponent.Username
	}
	writeRow(&b, "Final score", fmt.Sprintf("%d - %d", res.YourFinalScore, res.OpponentFinalScore))
	writeRow(&b, "Against", opp)
	writeRow(&b, "Points", signed(res.PointsGained))
	writeRow(&b, "Total", fmt.Sprintf("%d", res.NewTotalPoints))
	if res.NewRankTier != "" {
		writeRow(&b, "Rank", lipgloss.NewStyle().Foreground(theme.TierColor(res.NewRankTier)).Render(res.NewRankTier))
	}
	if res.WinStreak > 1 {
		writeRow(&b, "Win streak", fmt.Sprintf("%d", res.WinStreak))
	}

	b.WriteString("\n" + styleFooter.Render("enter: play again  esc: back to lobby"))
	return stylePanel.Width(panelWidth).Render(b.String())
}

func (m Model) markdown(src string) string {
	if m.md == nil {
		return styleValue.Render(src)
	}
	out, err := m.md.Render(src)
	if err != nil {
		return styleValue.Render(src)
	}
	return strings.TrimRight(out, "\n")
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label) + styleValue.Render(value) + "\n")
}

func decisionLabel(d client.Decision) string {
	if d == "" {
		return theme.StyleDimmed.Render("none")
	}
	s := string(d)
	return lipgloss.NewStyle().Foreground(theme.DecisionColor(s)).Render(theme.DecisionGlyph(s) + " " + strings.ToUpper(s))
}

func pointsLabel(points int, correct bool) string {
	mark := lipgloss.NewStyle().Foreground(theme.ColorDanger).Render(" ✗")
	if correct {
		mark = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render(" ✓")
	}
	return mark + fmt.Sprintf(" +%d", points)
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}
