package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dicklesworthstone/lifeline/internal/audit"
	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/respond"
	"github.com/Dicklesworthstone/lifeline/internal/testutil"
)

func newGuard(t *testing.T, sink audit.Sink) (*Guard, *audit.Logger) {
	t.Helper()
	logger := audit.NewLogger(sink, audit.Config{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, audit.WithLogger(testutil.TestLogger(t)))
	t.Cleanup(func() { _ = logger.Close(context.Background()) })

	g, err := New(core.NewScorer(nil, nil), respond.MustSelector(respond.LocaleUS), logger, testutil.TestLogger(t))
	testutil.RequireNoError(t, err, "new guard")
	return g, logger
}

func TestScreen_CrisisRoutesAndRecords(t *testing.T) {
	database := testutil.NewTestDB(t)
	g, _ := newGuard(t, audit.NewDBSink(database))
	ctx := context.Background()

	d, err := g.Screen(ctx, "sess-1", "I want to kill myself tonight")
	testutil.RequireNoError(t, err, "screen")
	testutil.RequireEqual(t, RouteCrisis, d.Route, "route")
	testutil.RequireContains(t, d.Reply, "988", "critical reply carries helplines")
	testutil.RequireNoError(t, d.Confirm(ctx), "confirm")

	stored, err := database.GetDetection(ctx, d.Receipt().EventID)
	testutil.RequireNoError(t, err, "stored detection")
	testutil.RequireEqual(t, "sess-1", stored.SessionID, "session")
}

func TestScreen_NormalSkipsAudit(t *testing.T) {
	calls := 0
	g, _ := newGuard(t, audit.SinkFunc(func(context.Context, audit.Event) error {
		calls++
		return nil
	}))

	d, err := g.Screen(context.Background(), "sess-1", "I had a great day today, feeling good!")
	testutil.RequireNoError(t, err, "screen")
	testutil.RequireEqual(t, RouteNormal, d.Route, "route")
	testutil.RequireEqual(t, "", d.Reply, "no canned reply")
	if d.Receipt() != nil {
		t.Fatalf("normal decisions are not audited")
	}
	testutil.RequireNoError(t, d.Confirm(context.Background()), "confirm normal")
	testutil.RequireEqual(t, 0, calls, "sink calls")
}

func TestScreen_AuditFailureSurfacesOnConfirm(t *testing.T) {
	g, _ := newGuard(t, audit.SinkFunc(func(context.Context, audit.Event) error {
		return errors.New("audit store offline")
	}))

	d, err := g.Screen(context.Background(), "sess-9", "I can't go on, I feel hopeless")
	testutil.RequireNoError(t, err, "screen")
	testutil.RequireEqual(t, RouteCrisis, d.Route, "route")
	if d.Reply == "" {
		t.Fatalf("reply must still be returned when audit fails")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	testutil.RequireErrorIs(t, d.Confirm(ctx), audit.ErrCrisisLoggedUnreliably, "confirm")
}

func TestScreen_MediumTierUsesMediumTemplate(t *testing.T) {
	g, _ := newGuard(t, audit.SinkFunc(func(context.Context, audit.Event) error { return nil }))
	d, err := g.Screen(context.Background(), "s", "I feel hopeless and don't know how to go on")
	testutil.RequireNoError(t, err, "screen")
	testutil.RequireEqual(t, core.TierMedium, d.Result.Tier, "tier")
	testutil.RequireEqual(t, respond.MustSelector(respond.LocaleUS).Select(core.TierMedium), d.Reply, "reply")
	testutil.RequireNoError(t, d.Confirm(context.Background()), "confirm")
}

func TestScreen_CancelledContext(t *testing.T) {
	g, _ := newGuard(t, audit.SinkFunc(func(context.Context, audit.Event) error { return nil }))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Screen(ctx, "s", "anything"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}

func TestNew_RequiresComponents(t *testing.T) {
	scorer := core.NewScorer(nil, nil)
	selector := respond.MustSelector(respond.LocaleUS)
	if _, err := New(nil, selector, nil, nil); err == nil {
		t.Fatalf("expected error for missing scorer")
	}
	if _, err := New(scorer, nil, nil, nil); err == nil {
		t.Fatalf("expected error for missing selector")
	}
	if _, err := New(scorer, selector, nil, nil); err == nil {
		t.Fatalf("expected error for missing recorder")
	}
}
