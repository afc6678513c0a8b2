// Package theme provides theming for the lifeline reviewer console.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/lifeline/internal/core"
)

// Theme defines a color scheme for the console.
type Theme struct {
	Mauve  lipgloss.Color // Titles, accents
	Blue   lipgloss.Color // Section headers
	Green  lipgloss.Color // Low tier, success
	Yellow lipgloss.Color // Medium tier
	Peach  lipgloss.Color // High tier
	Red    lipgloss.Color // Critical tier, errors
	Pink   lipgloss.Color // Highlights

	Text    lipgloss.Color
	Subtext lipgloss.Color

	Surface lipgloss.Color
	Base    lipgloss.Color
	Mantle  lipgloss.Color

	Overlay0 lipgloss.Color

	Name   string
	IsDark bool
}

// FlavorName represents a Catppuccin flavor.
type FlavorName string

const (
	FlavorMocha FlavorName = "mocha"
	FlavorLatte FlavorName = "latte"
)

// Current holds the active theme.
var Current = Mocha()

// SetTheme sets the current theme by flavor name. Unknown names use Mocha.
func SetTheme(flavor FlavorName) {
	switch flavor {
	case FlavorLatte:
		Current = Latte()
	default:
		Current = Mocha()
	}
}

// TierColor returns the color for a severity tier.
func (t *Theme) TierColor(tier core.SeverityTier) lipgloss.Color {
	switch tier {
	case core.TierCritical:
		return t.Red
	case core.TierHigh:
		return t.Peach
	case core.TierMedium:
		return t.Yellow
	case core.TierLow:
		return t.Green
	default:
		return t.Text
	}
}

// TierEmoji returns the marker for a severity tier.
func TierEmoji(tier core.SeverityTier) string {
	switch tier {
	case core.TierCritical:
		return "🔴"
	case core.TierHigh:
		return "🟠"
	case core.TierMedium:
		return "🟡"
	case core.TierLow:
		return "🟢"
	default:
		return "⚪"
	}
}
