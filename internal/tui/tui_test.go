package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/db"
	"github.com/Dicklesworthstone/lifeline/internal/respond"
)

type fakeStore struct {
	detections []*db.Detection
	err        error
	filters    []db.DetectionFilter
}

func (f *fakeStore) ListDetections(_ context.Context, filter db.DetectionFilter) ([]*db.Detection, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	var out []*db.Detection
	for _, d := range f.detections {
		if filter.SessionID != "" && d.SessionID != filter.SessionID {
			continue
		}
		if filter.MinTier != "" && d.Tier.Rank() < filter.MinTier.Rank() {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func sampleStore() *fakeStore {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &fakeStore{detections: []*db.Detection{
		{ID: "d3", SessionID: "chat-a", Tier: core.TierCritical, Score: 0.92, Confidence: 0.9, PatternDescriptions: []string{"explicit plan"}, DetectedAt: base.Add(2 * time.Minute)},
		{ID: "d2", SessionID: "chat-b", Tier: core.TierMedium, Score: 0.41, Confidence: 0.5, DetectedAt: base.Add(time.Minute)},
		{ID: "d1", SessionID: "chat-a", Tier: core.TierHigh, Score: 0.7, Confidence: 0.7, RiskFactorCategories: []string{"isolation"}, DetectedAt: base},
	}}
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// drive runs cmd and feeds its message back into the model.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	updated, _ := m.Update(cmd())
	return updated.(Model)
}

func loaded(t *testing.T, store *fakeStore) Model {
	t.Helper()
	m := New(Options{Store: store})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(Model)
	return drive(t, m, m.load())
}

func TestNewDefaults(t *testing.T) {
	m := New(Options{})
	if m.options.Limit != 200 {
		t.Errorf("Limit = %d, want 200", m.options.Limit)
	}
	if m.options.Selector == nil {
		t.Fatal("selector should default")
	}
	if m.options.Selector.Locale() != respond.DefaultLocale {
		t.Errorf("locale = %s", m.options.Selector.Locale())
	}
	if m.view != ViewList {
		t.Error("initial view should be ViewList")
	}
}

func TestViewBeforeResize(t *testing.T) {
	m := New(Options{})
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q", got)
	}
}

func TestLoadPopulatesList(t *testing.T) {
	store := sampleStore()
	m := loaded(t, store)

	if len(m.detections) != 3 {
		t.Fatalf("loaded %d detections, want 3", len(m.detections))
	}
	if m.loading {
		t.Error("loading should clear after load")
	}
	if store.filters[0].Limit != 200 {
		t.Errorf("limit = %d", store.filters[0].Limit)
	}
	view := m.View()
	for _, want := range []string{"lifeline", "chat-a", "chat-b", "CRITICAL"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestLoadWithoutStore(t *testing.T) {
	m := New(Options{})
	m = drive(t, m, m.load())
	if m.err == nil {
		t.Fatal("expected error without a store")
	}
}

func TestLoadErrorShown(t *testing.T) {
	store := &fakeStore{err: errors.New("database locked")}
	m := loaded(t, store)
	if !strings.Contains(m.View(), "database locked") {
		t.Error("view should show load error")
	}
}

func TestEmptyList(t *testing.T) {
	m := loaded(t, &fakeStore{})
	if !strings.Contains(m.View(), "No detections recorded") {
		t.Error("expected empty-state message")
	}
	if m.Selected() != nil {
		t.Error("Selected should be nil on an empty list")
	}
}

func TestCursorMovement(t *testing.T) {
	m := loaded(t, sampleStore())

	updated, _ := m.Update(key('j'))
	m = updated.(Model)
	if m.cursor != 1 {
		t.Fatalf("cursor = %d after j", m.cursor)
	}
	updated, _ = m.Update(key('G'))
	m = updated.(Model)
	if m.cursor != 2 {
		t.Fatalf("cursor = %d after G", m.cursor)
	}
	updated, _ = m.Update(key('j'))
	m = updated.(Model)
	if m.cursor != 2 {
		t.Error("cursor should stop at the last row")
	}
	updated, _ = m.Update(key('k'))
	m = updated.(Model)
	if m.cursor != 1 {
		t.Errorf("cursor = %d after k", m.cursor)
	}
	updated, _ = m.Update(key('g'))
	m = updated.(Model)
	if m.cursor != 0 {
		t.Errorf("cursor = %d after g", m.cursor)
	}
	if m.Selected().ID != "d3" {
		t.Errorf("Selected = %s", m.Selected().ID)
	}
}

func TestTierFilter(t *testing.T) {
	store := sampleStore()
	m := loaded(t, store)

	updated, cmd := m.Update(key('3'))
	m = updated.(Model)
	if m.minTier != core.TierHigh {
		t.Fatalf("minTier = %s", m.minTier)
	}
	m = drive(t, m, cmd)
	if len(m.detections) != 2 {
		t.Fatalf("high filter kept %d, want 2", len(m.detections))
	}
	if !strings.Contains(m.View(), "high and above") {
		t.Error("header should describe the filter")
	}

	updated, cmd = m.Update(key('0'))
	m = drive(t, updated.(Model), cmd)
	if len(m.detections) != 3 {
		t.Errorf("clearing filter kept %d, want 3", len(m.detections))
	}
}

func TestDetailView(t *testing.T) {
	store := sampleStore()
	m := loaded(t, store)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = drive(t, updated.(Model), cmd)
	if m.view != ViewDetail {
		t.Fatal("enter should open the detail view")
	}
	if len(m.history) != 2 {
		t.Fatalf("history = %d, want 2", len(m.history))
	}

	view := m.View()
	for _, want := range []string{"Session chat-a", "History (1 escalations)", "Routed reply", "988"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail view missing %q", want)
		}
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if m.view != ViewList || m.history != nil {
		t.Error("esc should return to the list")
	}
}

func TestReloadKey(t *testing.T) {
	store := sampleStore()
	m := loaded(t, store)
	updated, cmd := m.Update(key('r'))
	if cmd == nil {
		t.Fatal("r should issue a reload")
	}
	drive(t, updated.(Model), cmd)
	if len(store.filters) != 2 {
		t.Errorf("store queried %d times, want 2", len(store.filters))
	}
}

func TestQuit(t *testing.T) {
	m := loaded(t, sampleStore())
	_, cmd := m.Update(key('q'))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestTickReloads(t *testing.T) {
	store := sampleStore()
	m := New(Options{Store: store, RefreshInterval: time.Second})
	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick should schedule work")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"much longer text", 5, "much…"},
		{"ab", 1, "a"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestShortHash(t *testing.T) {
	if got := shortHash(""); got != "unknown" {
		t.Errorf("shortHash(\"\") = %q", got)
	}
	if got := shortHash("abcdef0123456789"); got != "abcdef012345" {
		t.Errorf("shortHash = %q", got)
	}
}
