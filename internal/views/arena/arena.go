// Package arena renders a live round: the news item, the price chart, the
// countdown bar and the decision buttons.
package arena

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/smartstocks/pvp-tui/internal/client"
	"github.com/smartstocks/pvp-tui/internal/session"
	"github.com/smartstocks/pvp-tui/internal/theme"
)

const fps = 30

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// FrameMsg advances the countdown bar animation.
type FrameMsg struct{}

func frame() tea.Cmd {
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg { return FrameMsg{} })
}

// Model holds the arena state. The countdown bar eases toward the fraction
// of time left with a spring instead of jumping once per second.
type Model struct {
	Width int

	spring    harmonica.Spring
	pos, vel  float64
	target    float64
	animating bool
}

// New creates an arena with a full countdown bar.
func New() Model {
	return Model{
		spring: harmonica.NewSpring(harmonica.FPS(fps), 8.0, 1.0),
		pos:    1,
		target: 1,
	}
}

// SetRemaining retargets the countdown bar. The returned command starts the
// animation when it is not already running.
func (m *Model) SetRemaining(remaining, limit int) tea.Cmd {
	target := 0.0
	if limit > 0 {
		target = max(0, min(float64(remaining)/float64(limit), 1))
	}
	m.target = target
	if m.animating || m.settled() {
		return nil
	}
	m.animating = true
	return frame()
}

// Update steps the spring on FrameMsg.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(FrameMsg); !ok {
		return m, nil
	}
	m.pos, m.vel = m.spring.Update(m.pos, m.vel, m.target)
	if m.settled() {
		m.pos, m.vel = m.target, 0
		m.animating = false
		return m, nil
	}
	return m, frame()
}

// Bar returns the displayed fill fraction.
func (m Model) Bar() float64 { return m.pos }

func (m Model) settled() bool {
	d := m.pos - m.target
	return d < 0.001 && d > -0.001 && m.vel < 0.001 && m.vel > -0.001
}

// View renders the round for s.
func (m Model) View(s session.Session) string {
	width := max(m.Width, 60)
	inner := width - 6

	var sections []string
	if sc := s.Scenario; sc != nil {
		title := fmt.Sprintf("%s  %s", sc.ChartData.Ticker, sc.ChartData.AssetName)
		sections = append(sections,
			theme.StyleHeader.Render(title),
			lipgloss.NewStyle().Width(inner).Foreground(theme.ColorBright).Render(sc.NewsContent),
			"",
			Sparkline(sc.ChartData.Prices, inner-12)+"  "+priceChange(sc.ChartData.Prices),
		)
	} else {
		sections = append(sections, theme.StyleDimmed.Render("Waiting for the round to start..."))
	}

	sections = append(sections, "", m.countdown(s, inner), "", decisionRow(s))

	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) countdown(s session.Session, width int) string {
	label := fmt.Sprintf(" %2ds", s.TimeRemaining)
	barWidth := max(width-len(label), 10)
	filled := max(0, min(int(m.pos*float64(barWidth)+0.5), barWidth))

	color := theme.TimeColor(m.pos)
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	bar += lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Repeat("░", barWidth-filled))
	return bar + lipgloss.NewStyle().Foreground(color).Render(label)
}

func decisionRow(s session.Session) string {
	if s.Decision.Set() {
		d := string(s.Decision.Choice)
		locked := lipgloss.NewStyle().Foreground(theme.DecisionColor(d)).Bold(true).
			Render(fmt.Sprintf("%s %s", theme.DecisionGlyph(d), strings.ToUpper(d)))
		line := fmt.Sprintf("Locked in: %s at %.1fs", locked, s.Decision.Elapsed)
		if !s.OpponentDecided {
			line += theme.StyleDimmed.Render("  waiting for opponent...")
		}
		return line
	}

	var buttons []string
	for _, d := range []client.Decision{client.DecisionBuy, client.DecisionSell, client.DecisionHold} {
		key := strings.ToUpper(string(d)[:1])
		btn := lipgloss.NewStyle().
			Foreground(theme.DecisionColor(string(d))).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(theme.DecisionColor(string(d))).
			Render(fmt.Sprintf("[%s] %s %s", key, theme.DecisionGlyph(string(d)), strings.ToUpper(string(d))))
		buttons = append(buttons, btn)
	}
	row := lipgloss.JoinHorizontal(lipgloss.Center, buttons...)
	if s.OpponentDecided {
		row = lipgloss.JoinVertical(lipgloss.Left, row,
			lipgloss.NewStyle().Foreground(theme.ColorOpponent).Render("Opponent has decided!"))
	}
	return row
}

// Sparkline draws prices as a single line of block characters, resampled to
// at most width columns.
func Sparkline(prices []float64, width int) string {
	if len(prices) == 0 || width <= 0 {
		return ""
	}
	cols := min(len(prices), width)
	lo, hi := prices[0], prices[0]
	for _, p := range prices {
		lo, hi = min(lo, p), max(hi, p)
	}

	out := make([]rune, cols)
	for i := range out {
		p := prices[i*len(prices)/cols]
		idx := 0
		if hi > lo {
			idx = int((p - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		out[i] = sparkBlocks[idx]
	}

	color := theme.ColorBuy
	if prices[len(prices)-1] < prices[0] {
		color = theme.ColorSell
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(out))
}

func priceChange(prices []float64) string {
	if len(prices) < 2 || prices[0] == 0 {
		return ""
	}
	first, last := prices[0], prices[len(prices)-1]
	pct := (last - first) / first * 100
	color := theme.ColorBuy
	if pct < 0 {
		color = theme.ColorSell
	}
	return lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%.2f %+.1f%%", last, pct))
}
