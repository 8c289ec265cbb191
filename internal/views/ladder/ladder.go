// Package ladder provides the rank ladder overlay and the collapsed rank bar
// shown in the lobby. It renders the tier track, progress toward the next
// tier, and the point swings of recent matches.
package ladder

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/smartstocks/pvp-tui/internal/client"
	"github.com/smartstocks/pvp-tui/internal/theme"
)

const (
	barWidthCollapsed = 15
	barWidthExpanded  = 30
	maxRecent         = 8
)

// Model holds the ladder view state.
type Model struct {
	Width  int
	Stats  client.UserStats
	Recent []client.HistoryEntry
}

// New returns a zero-state Model.
func New() Model {
	return Model{}
}

// SetHistory keeps the newest entries for the recent results log.
func (m *Model) SetHistory(entries []client.HistoryEntry) {
	if len(entries) > maxRecent {
		entries = entries[:maxRecent]
	}
	m.Recent = entries
}

// TierProgress returns how far points is between its tier and the next one,
// in [0, 1]. The top tier is always full.
func TierProgress(points int) float64 {
	cur := client.TierFor(points)
	next, ok := client.NextTier(points)
	if !ok {
		return 1
	}
	span := next.MinPoints - cur.MinPoints
	if span <= 0 {
		return 0
	}
	return clampFrac(float64(points-cur.MinPoints) / float64(span))
}

// CollapsedBar renders the single-line rank summary under the lobby.
func (m Model) CollapsedBar() string {
	width := m.Width
	if width < 40 {
		width = 80
	}

	points := m.Stats.SmartPoints
	cur := client.TierFor(points)
	tierStr := lipgloss.NewStyle().Foreground(theme.TierColor(cur.Name)).Bold(true).
		Render(titleCase(cur.Name))

	frac := TierProgress(points)
	bar := renderBar(int(frac*barWidthCollapsed), barWidthCollapsed, theme.TierColor(cur.Name))

	var goal string
	if next, ok := client.NextTier(points); ok {
		goal = fmt.Sprintf("(%d / %d pts)", points, next.MinPoints)
	} else {
		goal = fmt.Sprintf("(%d pts)", points)
	}
	goalStr := theme.StyleDimmed.Render(goal)

	hint := theme.StyleDimmed.Render("  [l] ladder")
	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" │ ")

	content := "  Rank" + sep + tierStr + "  " + bar + fmt.Sprintf("  %.0f%%  ", frac*100) + goalStr + hint

	return lipgloss.NewStyle().
		Width(width).
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

// View renders the expanded overlay panel.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 80
	}
	inner := width - 6

	var sb strings.Builder

	sb.WriteString(theme.StyleHeader.Render("RANK LADDER"))
	sb.WriteString("\n\n")

	points := m.Stats.SmartPoints
	sb.WriteString(renderTierTrack(client.TierFor(points).Name))
	sb.WriteString("\n\n")

	sb.WriteString(renderPointsSection(points, inner))
	sb.WriteString("\n")
	sb.WriteString(theme.StyleDimmed.Render(fmt.Sprintf("Win streak %d  ·  %d won, %d lost",
		m.Stats.WinStreak, m.Stats.TotalWins, m.Stats.TotalLosses)))
	sb.WriteString("\n\n")

	sb.WriteString(theme.StyleHeader.Render("Recent Results"))
	sb.WriteString("\n")
	if len(m.Recent) == 0 {
		sb.WriteString(theme.StyleDimmed.Render("  No matches played yet"))
		sb.WriteString("\n")
	}
	for _, e := range m.Recent {
		sb.WriteString(renderResult(e))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(theme.StyleDimmed.Render("[esc] close"))

	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(sb.String())
}

// renderTierTrack draws every tier as a node, highlighting the current one.
func renderTierTrack(current string) string {
	idx := client.TierIndex(current)
	var parts []string
	for i, r := range client.RankLadder {
		label := fmt.Sprintf("%s %d", titleCase(r.Name), r.MinPoints)
		var node string
		switch {
		case i == idx:
			node = lipgloss.NewStyle().
				Foreground(theme.TierColor(r.Name)).
				Bold(true).
				Render("❙" + label + "❙")
		case i < idx:
			node = lipgloss.NewStyle().
				Foreground(theme.TierColor(r.Name)).
				Render("[" + label + "]")
		default:
			node = theme.StyleDimmed.Render("[" + label + "]")
		}
		parts = append(parts, node)
	}
	return strings.Join(parts, theme.StyleDimmed.Render("──"))
}

func renderPointsSection(points, width int) string {
	barWidth := min(barWidthExpanded, max(width/2, 10))
	cur := client.TierFor(points)
	frac := TierProgress(points)
	bar := renderBar(int(frac*float64(barWidth)), barWidth, theme.TierColor(cur.Name))

	total := lipgloss.NewStyle().Foreground(theme.ColorBright).Render(fmt.Sprintf("%d pts", points))
	next, ok := client.NextTier(points)
	if !ok {
		return bar + "  top tier    " + total
	}
	return bar + fmt.Sprintf("  %d to %s    ", next.MinPoints-points, next.Name) + total
}

func renderResult(e client.HistoryEntry) string {
	color := theme.ColorDimmed
	switch e.Result {
	case "win":
		color = theme.ColorHealthy
	case "loss":
		color = theme.ColorDanger
	}
	amount := lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf("%+-5d", e.PointsEarned))
	return "  " + amount + "  " + fmt.Sprintf("%-4s vs %s", e.Result, e.OpponentUsername)
}

// renderBar renders a filled/empty progress bar using block characters.
func renderBar(fill, total int, color lipgloss.Color) string {
	if total <= 0 {
		return "[]"
	}
	fill = max(0, min(fill, total))
	filled := strings.Repeat("█", fill)
	empty := strings.Repeat("░", total-fill)
	return "[" + lipgloss.NewStyle().Foreground(color).Render(filled) +
		lipgloss.NewStyle().Foreground(theme.ColorDimmed).Render(empty) + "]"
}

func clampFrac(f float64) float64 {
	return max(0, min(f, 1))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
