package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/tui/theme"
	"github.com/Dicklesworthstone/lifeline/internal/utils"
)

// ReplyBox shows the canned reply a tier routes to, framed in the tier color.
type ReplyBox struct {
	Tier     core.SeverityTier
	Reply    string
	MaxWidth int
}

// NewReplyBox creates a reply box.
func NewReplyBox(tier core.SeverityTier, reply string) *ReplyBox {
	return &ReplyBox{Tier: tier, Reply: reply, MaxWidth: 72}
}

// WithMaxWidth sets the wrap width.
func (r *ReplyBox) WithMaxWidth(width int) *ReplyBox {
	r.MaxWidth = width
	return r
}

// Render renders the box.
func (r *ReplyBox) Render() string {
	t := theme.Current
	text := strings.TrimSpace(utils.SanitizeInput(r.Reply))

	body := lipgloss.NewStyle().Foreground(t.Text)
	if r.MaxWidth > 4 {
		body = body.Width(r.MaxWidth - 4)
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.TierColor(r.Tier)).
		Padding(0, 1)

	return box.Render(body.Render(text))
}
