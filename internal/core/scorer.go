package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Scorer fuses pattern matches, sentiment and risk factors into a Result.
// A Scorer holds only immutable configuration and is safe for concurrent use.
type Scorer struct {
	lib              *PatternLibrary
	analyzer         SentimentAnalyzer
	cfg              ScoringConfig
	sentimentTimeout time.Duration
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithScoringConfig replaces the default scoring constants.
func WithScoringConfig(cfg ScoringConfig) ScorerOption {
	return func(s *Scorer) {
		s.cfg = cfg
	}
}

// WithSentimentTimeout bounds each analyzer call. A call that overruns is
// treated as a neutral signal. Zero (the default) calls the analyzer inline.
func WithSentimentTimeout(d time.Duration) ScorerOption {
	return func(s *Scorer) {
		s.sentimentTimeout = d
	}
}

// NewScorer builds a scorer. A nil library or analyzer selects the built-in one.
func NewScorer(lib *PatternLibrary, analyzer SentimentAnalyzer, opts ...ScorerOption) *Scorer {
	if lib == nil {
		lib = DefaultLibrary()
	}
	if analyzer == nil {
		analyzer = NewLexiconAnalyzer()
	}
	s := &Scorer{
		lib:      lib,
		analyzer: analyzer,
		cfg:      DefaultScoringConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Library returns the pattern library the scorer consults.
func (s *Scorer) Library() *PatternLibrary {
	return s.lib
}

// Config returns the scoring constants in effect.
func (s *Scorer) Config() ScoringConfig {
	return s.cfg
}

// AnalyzeCrisis scores a single message. It accepts any string, including
// empty input, and never panics; it does not truncate long input.
func (s *Scorer) AnalyzeCrisis(text string) Result {
	if strings.TrimSpace(text) == "" {
		return emptyResult()
	}

	res := emptyResult()

	// Crisis patterns.
	patterns, patternFaults := s.lib.MatchCrisis(text)
	keywords := make(stringSet)
	tierCounts := make(map[SeverityTier]int)
	var patternScore, weightSum float64
	for _, m := range patterns {
		p := m.Pattern
		keywords.add(m.Match)
		res.MatchedPatternDescriptions = append(res.MatchedPatternDescriptions, p.Description)
		tierCounts[p.Tier]++
		patternScore += p.Weight * s.cfg.TierWeights.For(p.Tier)
		weightSum += p.Weight
		if p.Tier.Rank() > res.HighestPatternTier.Rank() {
			res.HighestPatternTier = p.Tier
		}
	}
	res.MatchedKeywords = keywords.sorted()

	// Risk factors.
	factors, factorFaults := s.lib.MatchRiskFactors(text)
	phrases := make(stringSet)
	categories := make(stringSet)
	for _, m := range factors {
		phrases.add(m.Match)
		categories.add(m.Factor.Category)
	}
	res.RiskFactors = phrases.sorted()
	res.RiskFactorCategories = categories.sorted()
	res.MatcherFaults = patternFaults + factorFaults

	// Sentiment.
	sig, err := s.analyzeSentiment(text)
	if err != nil {
		sig = NeutralSentiment()
		res.SentimentFault = true
	}
	res.Sentiment = sig

	// Fusion.
	riskCount := res.RiskFactorCount()
	score := patternScore +
		s.cfg.sentimentContribution(sig.Comparative) +
		s.cfg.riskFactorContribution(riskCount)
	res.Score = clamp01(score)
	res.Tier = s.cfg.Thresholds.TierFor(res.Score)

	var avgWeight float64
	if len(patterns) > 0 {
		avgWeight = weightSum / float64(len(patterns))
	}
	confidence := avgWeight * s.cfg.PatternConfidenceFactor
	if math.Abs(sig.Comparative) > s.cfg.SentimentMagnitude {
		confidence += s.cfg.SentimentConfidenceBonus
	}
	if riskCount > s.cfg.RiskFactorMinCount {
		confidence += s.cfg.RiskFactorConfidence
	}
	res.Confidence = clamp01(confidence)

	// Either signal alone is enough to flag a crisis. A critical pattern always
	// flags one, even when a low custom weight keeps the score under threshold.
	res.IsCrisis = res.Tier != TierLow ||
		res.Confidence > s.cfg.CrisisConfidence ||
		res.HighestPatternTier == TierCritical

	res.ContextSummary = summarize(res, tierCounts)
	return res
}

// analyzeSentiment calls the analyzer, converting panics and timeouts into errors.
func (s *Scorer) analyzeSentiment(text string) (SentimentSignal, error) {
	if s.sentimentTimeout <= 0 {
		return callAnalyzer(s.analyzer, text)
	}

	type outcome struct {
		sig SentimentSignal
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		sig, err := callAnalyzer(s.analyzer, text)
		ch <- outcome{sig, err}
	}()

	timer := time.NewTimer(s.sentimentTimeout)
	defer timer.Stop()
	select {
	case o := <-ch:
		return o.sig, o.err
	case <-timer.C:
		return SentimentSignal{}, fmt.Errorf("sentiment analyzer timed out after %s", s.sentimentTimeout)
	}
}

func callAnalyzer(a SentimentAnalyzer, text string) (sig SentimentSignal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sentiment analyzer panic: %v", r)
		}
	}()
	sig, err = a.Analyze(text)
	if err != nil {
		return SentimentSignal{}, err
	}
	if math.IsNaN(sig.Comparative) || math.IsInf(sig.Comparative, 0) {
		return SentimentSignal{}, fmt.Errorf("sentiment analyzer returned non-finite comparative %v", sig.Comparative)
	}
	if sig.PositiveTokens == nil {
		sig.PositiveTokens = []string{}
	}
	if sig.NegativeTokens == nil {
		sig.NegativeTokens = []string{}
	}
	return sig, nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
