// Package dashboard renders the lobby: the player's stats row and the table
// of recent matches.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smartstocks/pvp-tui/internal/client"
	"github.com/smartstocks/pvp-tui/internal/theme"
)

// HistorySource fetches past matches.
type HistorySource interface {
	History(ctx context.Context, limit int) (*client.HistoryResponse, error)
}

// HistoryLoadedMsg is returned when the history fetch completes.
type HistoryLoadedMsg struct {
	History *client.HistoryResponse
	Err     error
}

// FetchCmd returns a Bubble Tea command that fetches match history.
func FetchCmd(ctx context.Context, src HistorySource, limit int) tea.Cmd {
	return func() tea.Msg {
		h, err := src.History(ctx, limit)
		return HistoryLoadedMsg{History: h, Err: err}
	}
}

// Model holds the lobby state.
type Model struct {
	Width int
	Stats client.UserStats

	history  *client.HistoryResponse
	loading  bool
	fetchErr string
}

// New creates a dashboard model.
func New() Model {
	return Model{}
}

// SetLoading marks a history fetch as in flight.
func (m *Model) SetLoading() {
	m.loading = true
}

// ApplyHistory stores a completed fetch.
func (m *Model) ApplyHistory(msg HistoryLoadedMsg) {
	m.loading = false
	if msg.Err != nil {
		m.fetchErr = msg.Err.Error()
		return
	}
	m.fetchErr = ""
	m.history = msg.History
}

// View renders the stats row, the history table and the lobby help.
func (m Model) View() string {
	width := max(m.Width, 40)

	sections := []string{
		m.renderStatsRow(width),
		m.renderHistory(width),
		"",
		theme.StyleDimmed.Render("  enter: find a match  r: refresh history  a: achievements  l: ladder"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderStatsRow shows the ranking numbers in a single row.
func (m Model) renderStatsRow(width int) string {
	statStyle := lipgloss.NewStyle().Padding(0, 1)
	st := m.Stats

	tier := st.RankTier
	if tier == "" {
		tier = "unranked"
	}

	stats := []string{
		statStyle.Foreground(theme.ColorBright).Render(
			fmt.Sprintf("Points: %s", formatCount(st.SmartPoints))),
		statStyle.Foreground(theme.TierColor(tier)).Render(
			fmt.Sprintf("Rank: %s", tier)),
		statStyle.Foreground(theme.ColorHealthy).Render(
			fmt.Sprintf("Wins: %d", st.TotalWins)),
		statStyle.Foreground(theme.ColorDanger).Render(
			fmt.Sprintf("Losses: %d", st.TotalLosses)),
		statStyle.Foreground(theme.ColorWarning).Render(
			fmt.Sprintf("Streak: %d", st.WinStreak)),
		statStyle.Foreground(theme.ColorInfo).Render(
			fmt.Sprintf("Win rate: %s", winRate(st.TotalWins, st.TotalLosses))),
	}

	content := strings.Join(stats, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | "))

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

// renderHistory renders the recent matches, newest first.
func (m Model) renderHistory(width int) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright).
		Render("  Recent matches")

	switch {
	case m.loading && m.history == nil:
		return lipgloss.JoinVertical(lipgloss.Left, header, theme.StyleDimmed.Render("  Loading..."))
	case m.fetchErr != "":
		return lipgloss.JoinVertical(lipgloss.Left, header,
			lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("  Error: "+m.fetchErr))
	case m.history == nil || len(m.history.Matches) == 0:
		return lipgloss.JoinVertical(lipgloss.Left, header, theme.StyleDimmed.Render("  No matches played yet"))
	}

	colRank := 4
	colOpp := 20
	colScore := 12
	colResult := 8
	colPoints := 8
	colWhen := 12

	dimStyle := lipgloss.NewStyle().Foreground(theme.ColorDimmed)

	tableHeader := fmt.Sprintf("  %-*s %-*s %-*s %-*s %*s  %-*s",
		colRank, "#",
		colOpp, "Opponent",
		colScore, "Score",
		colResult, "Result",
		colPoints, "Points",
		colWhen, "Played",
	)
	lines := []string{
		header,
		dimStyle.Render(tableHeader),
		dimStyle.Render("  " + strings.Repeat("─", min(width-4, colRank+colOpp+colScore+colResult+colPoints+colWhen+6))),
	}

	for i, e := range m.history.Matches {
		opp := e.OpponentUsername
		if len(opp) > colOpp-1 {
			opp = opp[:colOpp-2] + "…"
		}
		line := fmt.Sprintf("  %-*d %s %-*s %s %s  %s",
			colRank, i+1,
			lipgloss.NewStyle().Foreground(theme.ColorOpponent).Width(colOpp).Render(opp),
			colScore, fmt.Sprintf("%d - %d", e.YourScore, e.OpponentScore),
			lipgloss.NewStyle().Foreground(resultColor(e.Result)).Width(colResult).Render(e.Result),
			lipgloss.NewStyle().Width(colPoints).Align(lipgloss.Right).Render(signed(e.PointsEarned)),
			dimStyle.Render(e.PlayedAt.Format("Jan 02 15:04")),
		)
		lines = append(lines, line)
	}

	h := m.history
	lines = append(lines, dimStyle.Render(fmt.Sprintf("  %d matches: %d won, %d lost, %d drawn",
		h.TotalMatches, h.Wins, h.Losses, h.Draws)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func resultColor(result string) lipgloss.Color {
	switch result {
	case "win":
		return theme.ColorHealthy
	case "loss":
		return theme.ColorDanger
	default:
		return theme.ColorWarning
	}
}

func winRate(wins, losses int) string {
	total := wins + losses
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", float64(wins)/float64(total)*100)
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

// formatCount formats large numbers with K/M suffixes.
func formatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 10_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
