package core

import (
	"errors"
	"fmt"
)

// TierWeights holds the base multiplier applied to a matched pattern's own
// weight, per tier.
type TierWeights struct {
	Low      float64 `json:"low" mapstructure:"low"`
	Medium   float64 `json:"medium" mapstructure:"medium"`
	High     float64 `json:"high" mapstructure:"high"`
	Critical float64 `json:"critical" mapstructure:"critical"`
}

// For returns the base weight for tier t (0 for unknown tiers).
func (w TierWeights) For(t SeverityTier) float64 {
	switch t {
	case TierLow:
		return w.Low
	case TierMedium:
		return w.Medium
	case TierHigh:
		return w.High
	case TierCritical:
		return w.Critical
	default:
		return 0
	}
}

// ScoringConfig carries every constant the fusion scorer uses.
//
// The defaults are placeholders carried over from the first deployment and have
// not been clinically validated. Deployments are expected to override them
// from a reviewed, versioned config file (see internal/config).
type ScoringConfig struct {
	Thresholds  Thresholds  `json:"thresholds" mapstructure:"thresholds"`
	TierWeights TierWeights `json:"tier_weights" mapstructure:"tier_weights"`

	// Sentiment contribution to the severity score. The strong boost applies
	// below StrongNegative; otherwise the mild boost applies below MildNegative.
	StrongNegative      float64 `json:"strong_negative" mapstructure:"strong_negative"`
	StrongNegativeBoost float64 `json:"strong_negative_boost" mapstructure:"strong_negative_boost"`
	MildNegative        float64 `json:"mild_negative" mapstructure:"mild_negative"`
	MildNegativeBoost   float64 `json:"mild_negative_boost" mapstructure:"mild_negative_boost"`

	// Each matched risk-factor category adds RiskFactorStep, capped at RiskFactorCap.
	RiskFactorStep float64 `json:"risk_factor_step" mapstructure:"risk_factor_step"`
	RiskFactorCap  float64 `json:"risk_factor_cap" mapstructure:"risk_factor_cap"`

	// Confidence components.
	PatternConfidenceFactor  float64 `json:"pattern_confidence_factor" mapstructure:"pattern_confidence_factor"`
	SentimentMagnitude       float64 `json:"sentiment_magnitude" mapstructure:"sentiment_magnitude"`
	SentimentConfidenceBonus float64 `json:"sentiment_confidence_bonus" mapstructure:"sentiment_confidence_bonus"`
	RiskFactorMinCount       int     `json:"risk_factor_min_count" mapstructure:"risk_factor_min_count"`
	RiskFactorConfidence     float64 `json:"risk_factor_confidence" mapstructure:"risk_factor_confidence"`

	// CrisisConfidence flags a crisis on confidence alone, whatever the tier.
	CrisisConfidence float64 `json:"crisis_confidence" mapstructure:"crisis_confidence"`
}

// DefaultScoringConfig returns the stock constants.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Thresholds: Thresholds{
			Medium:   0.4,
			High:     0.6,
			Critical: 0.8,
		},
		TierWeights: TierWeights{
			Low:      0.3,
			Medium:   0.5,
			High:     0.7,
			Critical: 1.0,
		},
		StrongNegative:           -0.5,
		StrongNegativeBoost:      0.3,
		MildNegative:             -0.2,
		MildNegativeBoost:        0.2,
		RiskFactorStep:           0.1,
		RiskFactorCap:            0.3,
		PatternConfidenceFactor:  0.6,
		SentimentMagnitude:       0.3,
		SentimentConfidenceBonus: 0.2,
		RiskFactorMinCount:       2,
		RiskFactorConfidence:     0.2,
		CrisisConfidence:         0.7,
	}
}

// Validate reports every problem found, joined.
func (c ScoringConfig) Validate() error {
	var errs []error
	if err := c.Thresholds.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, t := range AllTiers() {
		if w := c.TierWeights.For(t); w <= 0 || w > 1 {
			errs = append(errs, fmt.Errorf("tier_weights.%s must be in (0,1], got %v", t, w))
		}
	}
	if c.StrongNegative >= c.MildNegative {
		errs = append(errs, fmt.Errorf("strong_negative (%v) must be below mild_negative (%v)", c.StrongNegative, c.MildNegative))
	}
	fractions := []struct {
		name string
		v    float64
	}{
		{"strong_negative_boost", c.StrongNegativeBoost},
		{"mild_negative_boost", c.MildNegativeBoost},
		{"risk_factor_step", c.RiskFactorStep},
		{"risk_factor_cap", c.RiskFactorCap},
		{"pattern_confidence_factor", c.PatternConfidenceFactor},
		{"sentiment_magnitude", c.SentimentMagnitude},
		{"sentiment_confidence_bonus", c.SentimentConfidenceBonus},
		{"risk_factor_confidence", c.RiskFactorConfidence},
		{"crisis_confidence", c.CrisisConfidence},
	}
	for _, f := range fractions {
		if f.v < 0 || f.v > 1 {
			errs = append(errs, fmt.Errorf("%s must be in [0,1], got %v", f.name, f.v))
		}
	}
	if c.RiskFactorMinCount < 0 {
		errs = append(errs, fmt.Errorf("risk_factor_min_count must be >= 0, got %d", c.RiskFactorMinCount))
	}
	return errors.Join(errs...)
}

func (c ScoringConfig) sentimentContribution(comparative float64) float64 {
	switch {
	case comparative < c.StrongNegative:
		return c.StrongNegativeBoost
	case comparative < c.MildNegative:
		return c.MildNegativeBoost
	default:
		return 0
	}
}

func (c ScoringConfig) riskFactorContribution(count int) float64 {
	return min(c.RiskFactorCap, float64(count)*c.RiskFactorStep)
}
