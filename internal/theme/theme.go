// Package theme provides the Lip Gloss color palette and reusable styles
// for the PvP TUI. It is a leaf package with no internal imports to avoid
// import cycles.
package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Decision colors.
var (
	ColorBuy  = lipgloss.Color("#22c55e")
	ColorSell = lipgloss.Color("#dc2626")
	ColorHold = lipgloss.Color("#d97706")
)

// Player colors.
var (
	ColorYou      = lipgloss.Color("#3b82f6")
	ColorOpponent = lipgloss.Color("#a855f7")
)

// Countdown thresholds.
var (
	ColorTimeLow  = lipgloss.Color("#dc2626") // <25%
	ColorTimeMid  = lipgloss.Color("#d97706") // 25-50%
	ColorTimeHigh = lipgloss.Color("#22c55e") // >50%
)

// Tier colors.
var (
	ColorBronze   = lipgloss.Color("#d97706")
	ColorSilver   = lipgloss.Color("#9ca3af")
	ColorGold     = lipgloss.Color("#f59e0b")
	ColorPlatinum = lipgloss.Color("#67e8f9")
	ColorMaster   = lipgloss.Color("#e879f9")
	ColorDefault  = lipgloss.Color("#9ca3af")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorInfo    = lipgloss.Color("#2563eb")
	ColorAccent  = lipgloss.Color("#7c3aed")
)

// DecisionColor returns the color for "buy", "sell" or "hold".
func DecisionColor(decision string) lipgloss.Color {
	switch decision {
	case "buy":
		return ColorBuy
	case "sell":
		return ColorSell
	case "hold":
		return ColorHold
	default:
		return ColorDefault
	}
}

// DecisionGlyph returns an arrow for a decision.
func DecisionGlyph(decision string) string {
	switch decision {
	case "buy":
		return "▲"
	case "sell":
		return "▼"
	case "hold":
		return "■"
	default:
		return "·"
	}
}

// TierColor returns the color for a rank tier. Matching ignores case so
// server tier names like "Gold" work.
func TierColor(tier string) lipgloss.Color {
	switch strings.ToLower(tier) {
	case "bronze":
		return ColorBronze
	case "silver":
		return ColorSilver
	case "gold":
		return ColorGold
	case "platinum":
		return ColorPlatinum
	case "master", "maestro":
		return ColorMaster
	default:
		return ColorDefault
	}
}

// TimeColor returns the countdown color for the fraction of time left.
func TimeColor(frac float64) lipgloss.Color {
	switch {
	case frac < 0.25:
		return ColorTimeLow
	case frac < 0.5:
		return ColorTimeMid
	default:
		return ColorTimeHigh
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)
)
