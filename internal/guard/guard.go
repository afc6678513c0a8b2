// Package guard screens inbound messages before the normal reply path runs.
//
// A crisis result diverts the conversation to a canned reply and records the
// detection; anything else passes through untouched.
package guard

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/Dicklesworthstone/lifeline/internal/audit"
	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/respond"
)

// Route tells the caller which reply path to take.
type Route string

const (
	// RouteNormal continues with the caller's usual reply generation.
	RouteNormal Route = "normal"
	// RouteCrisis replaces the usual reply with Decision.Reply.
	RouteCrisis Route = "crisis"
)

// Recorder is the part of audit.Logger the guard needs.
type Recorder interface {
	Record(ctx context.Context, sessionID string, r core.Result) *audit.Receipt
}

// Decision is the outcome of screening one message.
type Decision struct {
	Route  Route       `json:"route"`
	Reply  string      `json:"reply,omitempty"`
	Result core.Result `json:"result"`

	receipt *audit.Receipt
}

// Receipt returns the audit receipt for crisis decisions, or nil.
func (d *Decision) Receipt() *audit.Receipt {
	return d.receipt
}

// Confirm waits for the audit write behind a crisis decision. It returns nil
// for normal decisions, and an error wrapping audit.ErrCrisisLoggedUnreliably
// when the detection could not be recorded; callers must escalate that.
func (d *Decision) Confirm(ctx context.Context) error {
	if d.receipt == nil {
		return nil
	}
	return d.receipt.Wait(ctx)
}

// Guard wires a scorer, a reply selector and an audit recorder together.
type Guard struct {
	scorer   *core.Scorer
	selector *respond.Selector
	recorder Recorder
	logger   *log.Logger
}

// New builds a Guard. All three components are required.
func New(scorer *core.Scorer, selector *respond.Selector, recorder Recorder, logger *log.Logger) (*Guard, error) {
	if scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if selector == nil {
		return nil, fmt.Errorf("selector is required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Guard{scorer: scorer, selector: selector, recorder: recorder, logger: logger}, nil
}

// Screen scores text and decides the route. The audit write for a crisis is
// queued before Screen returns, so the reply can go out without waiting on it.
// The only error is ctx being done before scoring starts.
func (g *Guard) Screen(ctx context.Context, sessionID, text string) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := g.scorer.AnalyzeCrisis(text)
	if !res.IsCrisis {
		return &Decision{Route: RouteNormal, Result: res}, nil
	}

	d := &Decision{
		Route:  RouteCrisis,
		Reply:  g.selector.Select(res.Tier),
		Result: res,
	}
	d.receipt = g.recorder.Record(ctx, sessionID, res)
	g.logger.Debug("crisis route", "session", sessionID, "tier", res.Tier, "confidence", fmt.Sprintf("%.2f", res.Confidence))
	return d, nil
}
