// Package achievements provides the achievements modal overlay. Progress is
// derived from the player's ranking stats, so it needs no extra requests.
package achievements

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smartstocks/pvp-tui/internal/client"
	"github.com/smartstocks/pvp-tui/internal/theme"
)

// categories defines the tab order for the panel.
var categories = []string{
	"Victories",
	"Streaks",
	"Rank",
	"Points",
}

// Achievement is one milestone and the player's progress toward it.
type Achievement struct {
	ID          string
	Category    string
	Name        string
	Description string
	Tier        string
	Required    int
	Current     int
}

// Unlocked reports whether the milestone has been reached.
func (a Achievement) Unlocked() bool { return a.Current >= a.Required }

// Progress returns completion in [0, 1].
func (a Achievement) Progress() float64 {
	if a.Required <= 0 {
		return 1
	}
	return min(float64(a.Current)/float64(a.Required), 1)
}

func tierAtLeast(have, want string) int {
	if client.TierIndex(have) >= client.TierIndex(want) {
		return 1
	}
	return 0
}

// FromStats evaluates every milestone against st.
func FromStats(st client.UserStats) []Achievement {
	return []Achievement{
		{"first_win", "Victories", "First Victory", "Win your first PvP match", "bronze", 1, st.TotalWins},
		{"wins_25", "Victories", "Seasoned Trader", "Win 25 PvP matches", "silver", 25, st.TotalWins},
		{"pvp_legend", "Victories", "PvP Legend", "Win 100 PvP matches", "gold", 100, st.TotalWins},
		{"win_streak_3", "Streaks", "On a Roll", "Win 3 matches in a row", "bronze", 3, st.WinStreak},
		{"win_streak_5", "Streaks", "Unstoppable", "Win 5 matches in a row", "silver", 5, st.WinStreak},
		{"win_streak_10", "Streaks", "Legend", "Win 10 matches in a row", "gold", 10, st.WinStreak},
		{"rank_silver", "Rank", "Silver League", "Reach the silver tier", "silver", 1, tierAtLeast(st.RankTier, "silver")},
		{"rank_gold", "Rank", "Gold League", "Reach the gold tier", "gold", 1, tierAtLeast(st.RankTier, "gold")},
		{"rank_platinum", "Rank", "Platinum League", "Reach the platinum tier", "platinum", 1, tierAtLeast(st.RankTier, "platinum")},
		{"rank_master", "Rank", "Master of Markets", "Reach the master tier", "platinum", 1, tierAtLeast(st.RankTier, "master")},
		{"points_1000", "Points", "A Thousand", "Hold 1,000 SmartPoints", "bronze", 1000, st.SmartPoints},
		{"points_5000", "Points", "Five Thousand", "Hold 5,000 SmartPoints", "silver", 5000, st.SmartPoints},
		{"points_10000", "Points", "Ten Thousand", "Hold 10,000 SmartPoints", "gold", 10000, st.SmartPoints},
	}
}

// Model holds the achievements panel state.
type Model struct {
	items     []Achievement
	activeTab int
	scroll    int
}

// New returns an empty model.
func New() Model {
	return Model{}
}

// SetStats recomputes progress.
func (m *Model) SetStats(st client.UserStats) {
	m.items = FromStats(st)
}

// Update processes key messages forwarded from the parent when this overlay is active.
func (m Model) Update(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "left", "h":
		if m.activeTab > 0 {
			m.activeTab--
			m.scroll = 0
		}
	case "right", "l":
		if m.activeTab < len(categories)-1 {
			m.activeTab++
			m.scroll = 0
		}
	case "tab":
		m.activeTab = (m.activeTab + 1) % len(categories)
		m.scroll = 0
	case "j", "down":
		m.scroll++
	case "k", "up":
		if m.scroll > 0 {
			m.scroll--
		}
	}
	return m
}

// ViewOverlay renders the achievements panel centered in a terminal of size w×h.
func (m Model) ViewOverlay(w, h int) string {
	mw := clamp(w-8, 60, 100)
	mh := max(h-4, 16)

	inner := m.renderInner(mw-4, mh-2)

	box := lipgloss.NewStyle().
		Width(mw).
		Height(mh).
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(inner)

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderInner(w, h int) string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright).Render("ACHIEVEMENTS")
	b.WriteString(title + "\n\n")

	var tabs []string
	for i, cat := range categories {
		if i == m.activeTab {
			tabs = append(tabs, lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.ColorBright).
				Underline(true).
				Render(cat))
		} else {
			tabs = append(tabs, theme.StyleDimmed.Render(cat))
		}
	}
	b.WriteString(strings.Join(tabs, "  ") + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Repeat("─", w)) + "\n")

	filtered := filterByCategory(m.items, categories[m.activeTab])

	unlocked := countUnlocked(filtered)
	b.WriteString(theme.StyleDimmed.Render(fmt.Sprintf("%d / %d unlocked", unlocked, len(filtered))) + "\n\n")

	// Each row takes two lines: name and description with progress.
	linesAvail := h - 7
	maxItems := max(linesAvail/2, 1)

	start := clamp(m.scroll, 0, max(len(filtered)-1, 0))

	shown := 0
	for i := start; i < len(filtered) && shown < maxItems; i++ {
		a := filtered[i]

		var lockGlyph string
		var nameStyle lipgloss.Style
		if a.Unlocked() {
			lockGlyph = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("✓")
			nameStyle = lipgloss.NewStyle().Foreground(theme.ColorBright)
		} else {
			lockGlyph = theme.StyleDimmed.Render("○")
			nameStyle = theme.StyleDimmed
		}

		nameLine := lockGlyph + " " + tierBadge(a.Tier) + " " + nameStyle.Render(a.Name)
		desc := fmt.Sprintf("%s (%d/%d)", a.Description, min(a.Current, a.Required), a.Required)
		descLine := theme.StyleDimmed.Render("    " + truncate(desc, w-5))

		b.WriteString(nameLine + "\n")
		b.WriteString(descLine + "\n")
		shown++
	}

	if len(filtered) == 0 {
		b.WriteString(theme.StyleDimmed.Render("No achievements in this category."))
	}

	remaining := len(filtered) - start - shown
	if remaining > 0 {
		b.WriteString("\n" + theme.StyleDimmed.Render(fmt.Sprintf("↓ %d more (j/k to scroll)", remaining)))
	}

	b.WriteString("\n\n" + theme.StyleDimmed.Render("←/→ tab  j/k scroll  esc close"))

	return b.String()
}

// tierBadge returns a compact colored badge for a tier name.
func tierBadge(tier string) string {
	var label string
	switch tier {
	case "bronze":
		label = "[B]"
	case "silver":
		label = "[S]"
	case "gold":
		label = "[G]"
	case "platinum":
		label = "[P]"
	default:
		label = "[?]"
	}
	return lipgloss.NewStyle().Foreground(theme.TierColor(tier)).Bold(true).Render(label)
}

func filterByCategory(items []Achievement, cat string) []Achievement {
	var out []Achievement
	for _, a := range items {
		if a.Category == cat {
			out = append(out, a)
		}
	}
	return out
}

func countUnlocked(items []Achievement) int {
	n := 0
	for _, a := range items {
		if a.Unlocked() {
			n++
		}
	}
	return n
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
