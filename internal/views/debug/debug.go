// Package debug keeps a journal of what the session went through: status
// changes, decisions, round and match results, and notices. Each line carries
// the match and round it happened in.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/smartstocks/pvp-tui/internal/session"
	"github.com/smartstocks/pvp-tui/internal/theme"
)

const maxEntries = 200

// Entry is one journal line.
type Entry struct {
	At          time.Time
	Level       session.Level
	Status      session.Status
	MatchID     string
	Round       int
	TotalRounds int
	Text        string
}

// Where returns the match context of the entry, e.g. "3f2a91c0 R2/5".
func (e Entry) Where() string {
	if e.MatchID == "" {
		return ""
	}
	id := e.MatchID
	if len(id) > 8 {
		id = id[:8]
	}
	if e.Round == 0 {
		return id
	}
	return fmt.Sprintf("%s R%d/%d", id, e.Round, e.TotalRounds)
}

// Model is the journal plus its overlay scroll state.
type Model struct {
	Entries    []Entry
	Offset     int // lines scrolled up from the newest
	ErrorsOnly bool
}

func New() Model {
	return Model{}
}

// Observe records what changed between two session snapshots.
func (m *Model) Observe(prev, next session.Session, at time.Time) {
	if prev.Status != next.Status {
		// Teardown clears the match, so log it where it happened.
		where := next
		if next.MatchID == "" {
			where = prev
		}
		m.add(where, next.Status, session.LevelInfo, at, fmt.Sprintf("%s → %s", prev.Status, next.Status))
	}
	if next.Status == session.StatusMatched && prev.Status != session.StatusMatched {
		opp := "unknown opponent"
		if next.Opponent != nil && next.Opponent.Username != "" {
			opp = next.Opponent.Username
		}
		m.add(next, next.Status, session.LevelInfo, at, fmt.Sprintf("matched against %s, %d rounds", opp, next.TotalRounds))
	}
	if next.Decision.Phase == session.PhaseProposed &&
		(prev.Decision.Phase == session.PhaseNone || prev.CurrentRound != next.CurrentRound) {
		m.add(next, next.Status, session.LevelInfo, at,
			fmt.Sprintf("you chose %s after %.0fs", next.Decision.Choice, next.Decision.Elapsed))
	}
	if r := next.RoundResult; r != nil && (prev.RoundResult == nil || prev.RoundResult.RoundNumber != r.RoundNumber) {
		m.add(next, next.Status, session.LevelInfo, at, fmt.Sprintf("round %d: %s +%d vs %s +%d, correct %s",
			r.RoundNumber, r.YourDecision, r.YourPoints, r.OpponentDecision, r.OpponentPoints, r.CorrectDecision))
	}
	if res := next.MatchResult; res != nil && prev.MatchResult == nil {
		level := session.LevelInfo
		if res.Outcome == session.OutcomeWin {
			level = session.LevelSuccess
		}
		m.add(next, next.Status, level, at, fmt.Sprintf("match %s %d-%d, %+d pts",
			res.Outcome, res.YourFinalScore, res.OpponentFinalScore, res.PointsGained))
	}
}

// Note records a notice against the session it was raised in.
func (m *Model) Note(s session.Session, n session.Notice, at time.Time) {
	m.add(s, s.Status, n.Level, at, n.Text)
}

func (m *Model) add(where session.Session, status session.Status, level session.Level, at time.Time, text string) {
	m.Entries = append(m.Entries, Entry{
		At:          at,
		Level:       level,
		Status:      status,
		MatchID:     where.MatchID,
		Round:       where.CurrentRound,
		TotalRounds: where.TotalRounds,
		Text:        text,
	})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	m.Offset = 0
}

// Visible returns the entries the current filter lets through.
func (m Model) Visible() []Entry {
	if !m.ErrorsOnly {
		return m.Entries
	}
	var out []Entry
	for _, e := range m.Entries {
		if e.Level == session.LevelError {
			out = append(out, e)
		}
	}
	return out
}

// ToggleErrors switches between the full journal and errors only.
func (m *Model) ToggleErrors() {
	m.ErrorsOnly = !m.ErrorsOnly
	m.Offset = 0
}

// Scroll moves the view by delta lines, positive towards older entries.
func (m *Model) Scroll(delta int) {
	m.Offset = min(max(m.Offset+delta, 0), max(len(m.Visible())-1, 0))
}

func (m Model) errorCount() int {
	n := 0
	for _, e := range m.Entries {
		if e.Level == session.LevelError {
			n++
		}
	}
	return n
}

// View renders the journal as an overlay panel.
func (m Model) View(width, height int) string {
	innerW := max(width-4, 40)
	rows := max(height-7, 3)

	filter := "all"
	if m.ErrorsOnly {
		filter = "errors"
	}
	title := theme.StyleHeader.Render(" SESSION LOG ")
	summary := theme.StyleDimmed.Render(fmt.Sprintf("%d entries · %d errors · showing %s", len(m.Entries), m.errorCount(), filter))
	help := theme.StyleDimmed.Render("j/k:scroll  e:errors only  esc:close")

	entries := m.Visible()
	if len(entries) == 0 {
		empty := "  Nothing has happened yet."
		if m.ErrorsOnly {
			empty = "  No errors."
		}
		return panel(innerW).Render(lipgloss.JoinVertical(lipgloss.Left, title, summary, "", theme.StyleDimmed.Render(empty), "", help))
	}

	end := len(entries) - m.Offset
	start := max(end-rows, 0)
	lines := make([]string, 0, end-start)
	for _, e := range entries[start:end] {
		lines = append(lines, renderEntry(e, innerW))
	}

	more := ""
	if m.Offset > 0 {
		more = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d newer", m.Offset))
	}
	return panel(innerW).Render(lipgloss.JoinVertical(lipgloss.Left, title, summary, strings.Join(lines, "\n"), more, help))
}

func renderEntry(e Entry, width int) string {
	glyph, color := "·", theme.ColorInfo
	switch e.Level {
	case session.LevelSuccess:
		glyph, color = "✓", theme.ColorHealthy
	case session.LevelError:
		glyph, color = "✗", theme.ColorDanger
	}
	ts := theme.StyleDimmed.Render(e.At.Format("15:04:05"))
	mark := lipgloss.NewStyle().Foreground(color).Render(glyph)
	status := theme.StyleDimmed.Width(16).Render(string(e.Status))
	where := lipgloss.NewStyle().Foreground(theme.ColorAccent).Width(14).Render(e.Where())

	text := []rune(e.Text)
	if room := width - 42; room > 3 && len(text) > room {
		text = append(text[:room-3], []rune("...")...)
	}
	return fmt.Sprintf("%s %s %s %s %s", ts, mark, status, where, string(text))
}

func panel(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)
}
