// Package tui implements the Bubble Tea reviewer console for lifeline.
//
// The console lists audited detections, lets a reviewer filter by tier and
// inspect one session's history. It only reads the audit store.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/db"
	"github.com/Dicklesworthstone/lifeline/internal/respond"
	"github.com/Dicklesworthstone/lifeline/internal/tui/components"
	"github.com/Dicklesworthstone/lifeline/internal/tui/styles"
	"github.com/Dicklesworthstone/lifeline/internal/tui/theme"
)

// Store is the read side of the audit database the console needs.
type Store interface {
	ListDetections(ctx context.Context, f db.DetectionFilter) ([]*db.Detection, error)
}

// View selects what the console shows.
type View int

const (
	ViewList View = iota
	ViewDetail
)

// Options configure the console.
type Options struct {
	Store    Store
	Selector *respond.Selector
	// Theme is a Catppuccin flavor name; empty keeps the current theme.
	Theme string
	// Limit caps how many detections are loaded; 0 uses 200.
	Limit int
	// RefreshInterval reloads the list periodically; 0 disables polling.
	RefreshInterval time.Duration
	DisableMouse    bool
}

type detectionsMsg struct {
	detections []*db.Detection
	err        error
}

type sessionMsg struct {
	sessionID  string
	detections []*db.Detection
	err        error
}

type tickMsg time.Time

// Model is the console state.
type Model struct {
	options Options
	styles  *styles.Styles

	view    View
	minTier core.SeverityTier

	detections []*db.Detection
	cursor     int
	history    []*db.Detection
	err        error
	loading    bool
	lastLoad   time.Time

	ready  bool
	width  int
	height int
}

// New creates a console model.
func New(opts Options) Model {
	if opts.Theme != "" {
		theme.SetTheme(theme.FlavorName(opts.Theme))
	}
	if opts.Limit <= 0 {
		opts.Limit = 200
	}
	if opts.Selector == nil {
		opts.Selector = respond.MustSelector(respond.DefaultLocale)
	}
	return Model{
		options: opts,
		styles:  styles.New(),
		view:    ViewList,
		loading: true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.load()}
	if m.options.RefreshInterval > 0 {
		cmds = append(cmds, m.tick())
	}
	return tea.Batch(cmds...)
}

func (m Model) load() tea.Cmd {
	store, filter := m.options.Store, db.DetectionFilter{MinTier: m.minTier, Limit: m.options.Limit}
	return func() tea.Msg {
		if store == nil {
			return detectionsMsg{err: fmt.Errorf("no audit store configured")}
		}
		ds, err := store.ListDetections(context.Background(), filter)
		return detectionsMsg{detections: ds, err: err}
	}
}

func (m Model) loadSession(sessionID string) tea.Cmd {
	store := m.options.Store
	return func() tea.Msg {
		ds, err := store.ListDetections(context.Background(), db.DetectionFilter{SessionID: sessionID})
		return sessionMsg{sessionID: sessionID, detections: ds, err: err}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.options.RefreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case detectionsMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.detections = msg.detections
			m.lastLoad = time.Now()
			if m.cursor >= len(m.detections) {
				m.cursor = max(len(m.detections)-1, 0)
			}
		}
		return m, nil

	case sessionMsg:
		m.err = msg.err
		if msg.err == nil {
			m.history = msg.detections
			m.view = ViewDetail
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.load(), m.tick())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	if m.view == ViewDetail {
		switch msg.String() {
		case "esc", "backspace", "h", "left":
			m.view = ViewList
			m.history = nil
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.detections)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(m.detections)-1, 0)
	case "enter", "l", "right":
		if d := m.Selected(); d != nil && m.options.Store != nil {
			return m, m.loadSession(d.SessionID)
		}
	case "r":
		m.loading = true
		return m, m.load()
	case "0":
		return m.filter("")
	case "1":
		return m.filter(core.TierLow)
	case "2":
		return m.filter(core.TierMedium)
	case "3":
		return m.filter(core.TierHigh)
	case "4":
		return m.filter(core.TierCritical)
	}
	return m, nil
}

func (m Model) filter(tier core.SeverityTier) (tea.Model, tea.Cmd) {
	m.minTier = tier
	m.cursor = 0
	m.loading = true
	return m, m.load()
}

// Selected returns the detection under the cursor, or nil.
func (m Model) Selected() *db.Detection {
	if m.cursor < 0 || m.cursor >= len(m.detections) {
		return nil
	}
	return m.detections[m.cursor]
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.header())
	if m.err != nil {
		sections = append(sections, m.styles.Error.Render("error: "+m.err.Error()))
	}
	switch m.view {
	case ViewDetail:
		sections = append(sections, m.detailView())
	default:
		sections = append(sections, m.listView())
	}
	sections = append(sections, m.footer())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) header() string {
	title := styles.GradientTitle(" lifeline reviewer console ")
	filter := "all tiers"
	if m.minTier != "" {
		filter = string(m.minTier) + " and above"
	}
	sub := m.styles.Subtitle.Render(fmt.Sprintf("%d detections · %s", len(m.detections), filter))
	if m.loading {
		sub += m.styles.Dimmed.Render(" · loading")
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.styles.Title.Render(title), sub)
}

func (m Model) listView() string {
	if len(m.detections) == 0 && !m.loading {
		return m.styles.Dimmed.Render("\nNo detections recorded.")
	}

	visible := max(m.height-6, 5)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(m.detections))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		d := m.detections[i]
		row := fmt.Sprintf("%s %s  %s  %-20s %s",
			m.styles.TierBadge(d.Tier),
			styles.ScoreBar(d.Score, 10),
			d.DetectedAt.Local().Format("2006-01-02 15:04"),
			truncate(d.SessionID, 20),
			m.styles.Dimmed.Render(truncate(strings.Join(d.PatternDescriptions, "; "), 40)),
		)
		if i == m.cursor {
			row = m.styles.Selected.Render("›") + " " + row
		} else {
			row = "  " + row
		}
		lines = append(lines, row)
	}
	return "\n" + strings.Join(lines, "\n")
}

func (m Model) detailView() string {
	d := m.Selected()
	if d == nil {
		return ""
	}

	info := []string{
		m.styles.SectionHead.Render("Session " + d.SessionID),
		fmt.Sprintf("%s  score %.2f  confidence %.2f", m.styles.TierBadge(d.Tier), d.Score, d.Confidence),
	}
	if len(d.PatternDescriptions) > 0 {
		info = append(info, m.styles.Normal.Render("Patterns: "+strings.Join(d.PatternDescriptions, "; ")))
	}
	if len(d.RiskFactorCategories) > 0 {
		info = append(info, m.styles.Normal.Render("Risk factors: "+strings.Join(d.RiskFactorCategories, ", ")))
	}
	if d.SentimentFault {
		info = append(info, m.styles.Highlight.Render("Sentiment unavailable when scored"))
	}
	info = append(info, m.styles.Dimmed.Render(fmt.Sprintf("library %s (%s)", d.LibraryVersion, shortHash(d.LibraryHash))))

	tl := components.NewTimeline().AsExpanded()
	// history is newest first; the timeline reads oldest first.
	for i := len(m.history) - 1; i >= 0; i-- {
		h := m.history[i]
		tl.AddEvent(h.Tier, h.DetectedAt, h.Score, strings.Join(h.PatternDescriptions, "; "))
		if h.ID == d.ID {
			tl.WithCurrent(len(tl.Events) - 1)
		}
	}
	info = append(info,
		m.styles.SectionHead.Render(fmt.Sprintf("History (%d escalations)", tl.EscalationCount())),
		tl.Render(),
		m.styles.SectionHead.Render("Routed reply"),
		components.NewReplyBox(d.Tier, m.options.Selector.Select(d.Tier)).WithMaxWidth(min(max(m.width-2, 40), 80)).Render(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, info...)
}

func (m Model) footer() string {
	help := "↑/↓ move · enter session · 0-4 min tier · r reload · q quit"
	if m.view == ViewDetail {
		help = "esc back · q quit"
	}
	return m.styles.Help.Render("\n" + help)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	if h == "" {
		return "unknown"
	}
	return h
}

// Run starts the console and blocks until the user quits.
func Run(opts Options) error {
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if !opts.DisableMouse {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(New(opts), programOpts...)
	_, err := p.Run()
	return err
}
