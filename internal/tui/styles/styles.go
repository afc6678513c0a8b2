// Package styles provides reusable lipgloss styles for the lifeline console.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/tui/theme"
)

// Styles contains all the styled lipgloss renderers.
type Styles struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	SectionHead lipgloss.Style

	Normal    lipgloss.Style
	Dimmed    lipgloss.Style
	Bold      lipgloss.Style
	Highlight lipgloss.Style
	Error     lipgloss.Style

	TierCritical lipgloss.Style
	TierHigh     lipgloss.Style
	TierMedium   lipgloss.Style
	TierLow      lipgloss.Style

	Panel    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style
}

// New creates a new Styles instance from the current theme.
func New() *Styles {
	return FromTheme(theme.Current)
}

// FromTheme creates styles from a specific theme.
func FromTheme(t *theme.Theme) *Styles {
	s := &Styles{}

	s.Title = lipgloss.NewStyle().
		Foreground(t.Mauve).
		Bold(true)

	s.Subtitle = lipgloss.NewStyle().
		Foreground(t.Subtext).
		Italic(true)

	s.SectionHead = lipgloss.NewStyle().
		Foreground(t.Blue).
		Bold(true).
		MarginTop(1)

	s.Normal = lipgloss.NewStyle().Foreground(t.Text)
	s.Dimmed = lipgloss.NewStyle().Foreground(t.Subtext)
	s.Bold = lipgloss.NewStyle().Foreground(t.Text).Bold(true)
	s.Highlight = lipgloss.NewStyle().Foreground(t.Pink).Bold(true)
	s.Error = lipgloss.NewStyle().Foreground(t.Red).Bold(true)

	badgeBase := lipgloss.NewStyle().
		Padding(0, 1).
		Bold(true).
		Foreground(t.Base)

	s.TierCritical = badgeBase.Background(t.TierColor(core.TierCritical))
	s.TierHigh = badgeBase.Background(t.TierColor(core.TierHigh))
	s.TierMedium = badgeBase.Background(t.TierColor(core.TierMedium))
	s.TierLow = badgeBase.Background(t.TierColor(core.TierLow))

	s.Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Overlay0).
		Padding(0, 1)

	s.Selected = lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Surface).
		Bold(true)

	s.Help = lipgloss.NewStyle().
		Foreground(t.Overlay0)

	return s
}

// TierBadge renders a fixed-width badge for tier.
func (s *Styles) TierBadge(tier core.SeverityTier) string {
	label := strings.ToUpper(string(tier))
	if label == "" {
		label = "NONE"
	}
	label = padRight(label, len("CRITICAL"))
	switch tier {
	case core.TierCritical:
		return s.TierCritical.Render(label)
	case core.TierHigh:
		return s.TierHigh.Render(label)
	case core.TierMedium:
		return s.TierMedium.Render(label)
	case core.TierLow:
		return s.TierLow.Render(label)
	default:
		return s.Dimmed.Render(label)
	}
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
