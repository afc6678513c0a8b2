package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/lifeline/internal/tui/theme"
)

// Gradient represents a color gradient for text.
type Gradient struct {
	Colors []lipgloss.Color
}

// NewGradient creates a gradient from the given colors.
func NewGradient(colors ...lipgloss.Color) *Gradient {
	return &Gradient{Colors: colors}
}

// TierGradient runs from the low tier color to the critical one.
func TierGradient() *Gradient {
	t := theme.Current
	return NewGradient(t.Green, t.Yellow, t.Peach, t.Red)
}

// Render colors each rune by its position in the string.
func (g *Gradient) Render(s string) string {
	if len(g.Colors) == 0 || len(s) == 0 {
		return s
	}

	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		idx := (i * (len(g.Colors) - 1)) / max(len(runes)-1, 1)
		b.WriteString(lipgloss.NewStyle().Foreground(g.Colors[idx]).Render(string(r)))
	}
	return b.String()
}

// GradientTitle renders a title with the mauve-to-blue accent.
func GradientTitle(text string) string {
	t := theme.Current
	return NewGradient(t.Mauve, t.Pink, t.Blue).Render(text)
}

// ScoreBar renders score in [0,1] as a bar of width cells. Filled cells take
// their color from the tier gradient across the full width.
func ScoreBar(score float64, width int) string {
	if width <= 0 {
		return ""
	}
	score = min(max(score, 0), 1)
	filled := int(score*float64(width) + 0.5)

	g := TierGradient()
	empty := lipgloss.NewStyle().Foreground(theme.Current.Overlay0)
	var b strings.Builder
	for i := 0; i < width; i++ {
		if i >= filled {
			b.WriteString(empty.Render("░"))
			continue
		}
		idx := (i * (len(g.Colors) - 1)) / max(width-1, 1)
		b.WriteString(lipgloss.NewStyle().Foreground(g.Colors[idx]).Render("█"))
	}
	return b.String()
}
