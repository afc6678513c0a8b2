// Package components provides reusable console components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/tui/theme"
)

// TimelineEvent is one detection in a session's history.
type TimelineEvent struct {
	Tier      core.SeverityTier
	Timestamp time.Time
	Score     float64
	Details   string
}

// Timeline renders a session's detections oldest first.
type Timeline struct {
	Events   []TimelineEvent
	Compact  bool
	Expanded bool
	// Current is the index of the highlighted event, or -1.
	Current int
}

// NewTimeline creates a new timeline component.
func NewTimeline() *Timeline {
	return &Timeline{Current: -1}
}

// AddEvent appends an event.
func (t *Timeline) AddEvent(tier core.SeverityTier, ts time.Time, score float64, details string) *Timeline {
	t.Events = append(t.Events, TimelineEvent{
		Tier:      tier,
		Timestamp: ts,
		Score:     score,
		Details:   details,
	})
	return t
}

// WithCurrent highlights the event at index i.
func (t *Timeline) WithCurrent(i int) *Timeline {
	t.Current = i
	return t
}

// AsCompact sets the timeline to compact mode.
func (t *Timeline) AsCompact() *Timeline {
	t.Compact = true
	return t
}

// AsExpanded sets the timeline to expanded mode.
func (t *Timeline) AsExpanded() *Timeline {
	t.Expanded = true
	return t
}

// Render renders the timeline.
func (t *Timeline) Render() string {
	if len(t.Events) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Current.Subtext).Render("no detections")
	}
	if t.Compact {
		return t.renderCompact()
	}
	return t.renderList()
}

// renderCompact renders one colored dot per detection.
func (t *Timeline) renderCompact() string {
	th := theme.Current
	arrow := lipgloss.NewStyle().Foreground(th.Overlay0).Render(" → ")

	parts := make([]string, 0, len(t.Events))
	for i, e := range t.Events {
		dot := "●"
		if i == t.Current {
			dot = "◉"
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(th.TierColor(e.Tier)).Render(dot))
	}
	return strings.Join(parts, arrow)
}

func (t *Timeline) renderList() string {
	th := theme.Current
	connector := lipgloss.NewStyle().Foreground(th.Overlay0)
	dim := lipgloss.NewStyle().Foreground(th.Subtext)

	var lines []string
	for i, e := range t.Events {
		isLast := i == len(t.Events)-1
		isCurrent := i == t.Current

		node := "●"
		if isCurrent {
			node = "◉"
		}
		color := th.TierColor(e.Tier)
		label := lipgloss.NewStyle().Foreground(color).Bold(isCurrent).Render(strings.ToUpper(string(e.Tier)))

		line := fmt.Sprintf("%s %s %s",
			lipgloss.NewStyle().Foreground(color).Bold(isCurrent).Render(node),
			label,
			dim.Render(fmt.Sprintf("score=%.2f", e.Score)),
		)
		if !e.Timestamp.IsZero() {
			layout := "15:04:05"
			if t.Expanded {
				layout = "2006-01-02 15:04:05"
			}
			line += dim.Render("  " + e.Timestamp.Local().Format(layout))
		}
		lines = append(lines, line)

		if t.Expanded && e.Details != "" {
			lines = append(lines, connector.Render("│  ")+lipgloss.NewStyle().Foreground(th.Text).Render(e.Details))
		}
		if !isLast {
			lines = append(lines, connector.Render("│"))
		}
	}
	return strings.Join(lines, "\n")
}

// EscalationCount returns how many times the tier rose from one detection to
// the next.
func (t *Timeline) EscalationCount() int {
	n := 0
	for i := 1; i < len(t.Events); i++ {
		if t.Events[i].Tier.Rank() > t.Events[i-1].Tier.Rank() {
			n++
		}
	}
	return n
}
