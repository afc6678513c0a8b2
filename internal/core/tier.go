package core

import (
	"fmt"
	"strings"
)

// SeverityTier is the discrete crisis-risk level derived from the severity score.
type SeverityTier string

const (
	TierLow      SeverityTier = "low"
	TierMedium   SeverityTier = "medium"
	TierHigh     SeverityTier = "high"
	TierCritical SeverityTier = "critical"
)

// AllTiers lists tiers from least to most severe.
func AllTiers() []SeverityTier {
	return []SeverityTier{TierLow, TierMedium, TierHigh, TierCritical}
}

// Rank orders tiers: low=0 < medium=1 < high=2 < critical=3.
// Unknown tiers rank as -1.
func (t SeverityTier) Rank() int {
	switch t {
	case TierLow:
		return 0
	case TierMedium:
		return 1
	case TierHigh:
		return 2
	case TierCritical:
		return 3
	default:
		return -1
	}
}

// Valid reports whether t is one of the four known tiers.
func (t SeverityTier) Valid() bool {
	return t.Rank() >= 0
}

// IsCrisisTier reports whether t is high or critical. Audit events for these
// tiers are delivered at least once.
func (t SeverityTier) IsCrisisTier() bool {
	return t == TierHigh || t == TierCritical
}

func (t SeverityTier) String() string {
	return string(t)
}

// ParseTier converts user input (case-insensitive) to a SeverityTier.
func ParseTier(s string) (SeverityTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return TierLow, nil
	case "medium", "med":
		return TierMedium, nil
	case "high":
		return TierHigh, nil
	case "critical", "crit":
		return TierCritical, nil
	default:
		return "", fmt.Errorf("invalid tier %q (must be low, medium, high, or critical)", s)
	}
}

// Thresholds are the lower bounds of the medium, high and critical tiers.
type Thresholds struct {
	Medium   float64 `json:"medium" mapstructure:"medium"`
	High     float64 `json:"high" mapstructure:"high"`
	Critical float64 `json:"critical" mapstructure:"critical"`
}

// TierFor maps a severity score onto a tier. Boundaries are inclusive on the
// lower edge: a score equal to a threshold lands in the higher tier.
func (th Thresholds) TierFor(score float64) SeverityTier {
	switch {
	case score >= th.Critical:
		return TierCritical
	case score >= th.High:
		return TierHigh
	case score >= th.Medium:
		return TierMedium
	default:
		return TierLow
	}
}

// Validate checks that thresholds lie in (0,1] and are strictly ordered.
func (th Thresholds) Validate() error {
	if th.Medium <= 0 || th.Critical > 1 {
		return fmt.Errorf("thresholds must lie in (0,1]: medium=%v critical=%v", th.Medium, th.Critical)
	}
	if !(th.Medium < th.High && th.High < th.Critical) {
		return fmt.Errorf("thresholds must be ordered medium < high < critical: %v < %v < %v", th.Medium, th.High, th.Critical)
	}
	return nil
}
