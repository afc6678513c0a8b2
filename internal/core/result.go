package core

import (
	"fmt"
	"sort"
	"strings"
)

// Result is the outcome of scoring one message. It is built fresh on every
// call and carries no identity; the slices it holds belong to the caller.
type Result struct {
	IsCrisis bool         `json:"is_crisis"`
	Tier     SeverityTier `json:"severity_tier"`
	// Score is the clamped severity score the tier was derived from.
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`

	// MatchedKeywords is the sorted set of matched crisis phrases.
	MatchedKeywords            []string `json:"matched_keywords"`
	MatchedPatternDescriptions []string `json:"matched_pattern_descriptions"`
	// HighestPatternTier is the most severe tier among matched patterns, or
	// empty when nothing matched.
	HighestPatternTier SeverityTier `json:"highest_pattern_tier,omitempty"`

	// RiskFactors is the sorted set of matched risk-factor phrases.
	RiskFactors          []string `json:"risk_factors"`
	RiskFactorCategories []string `json:"risk_factor_categories"`

	Sentiment SentimentSignal `json:"sentiment"`
	// SentimentFault is set when the analyzer failed and a neutral signal was used.
	SentimentFault bool `json:"sentiment_fault,omitempty"`
	// MatcherFaults counts patterns whose matcher failed and were skipped.
	MatcherFaults int `json:"matcher_faults,omitempty"`

	ContextSummary string `json:"context_summary"`
}

// RiskFactorCount is the number of distinct risk-factor categories found.
// Several phrases from one category count once.
func (r Result) RiskFactorCount() int {
	return len(r.RiskFactorCategories)
}

func emptyResult() Result {
	return Result{
		Tier:                       TierLow,
		MatchedKeywords:            []string{},
		MatchedPatternDescriptions: []string{},
		RiskFactors:                []string{},
		RiskFactorCategories:       []string{},
		Sentiment:                  NeutralSentiment(),
		ContextSummary:             "empty message",
	}
}

// stringSet collects unique strings and returns them sorted.
type stringSet map[string]struct{}

func (s stringSet) add(v string) {
	s[v] = struct{}{}
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// summarize renders a one-line, text-free description of the signals behind r.
func summarize(r Result, tierCounts map[SeverityTier]int) string {
	var parts []string

	if len(r.MatchedPatternDescriptions) == 0 {
		parts = append(parts, "patterns=0")
	} else {
		var counts []string
		for i := len(AllTiers()) - 1; i >= 0; i-- {
			t := AllTiers()[i]
			if n := tierCounts[t]; n > 0 {
				counts = append(counts, fmt.Sprintf("%s=%d", t, n))
			}
		}
		parts = append(parts, fmt.Sprintf("patterns=%d (%s)", len(r.MatchedPatternDescriptions), strings.Join(counts, " ")))
	}

	if len(r.RiskFactors) > 0 {
		parts = append(parts, fmt.Sprintf("risk_factors=%d [%s]", r.RiskFactorCount(), strings.Join(r.RiskFactorCategories, ",")))
	} else {
		parts = append(parts, "risk_factors=0")
	}

	sentiment := fmt.Sprintf("sentiment=%.2f", r.Sentiment.Comparative)
	if r.SentimentFault {
		sentiment += " (unavailable)"
	}
	parts = append(parts, sentiment)
	if r.MatcherFaults > 0 {
		parts = append(parts, fmt.Sprintf("matcher_faults=%d", r.MatcherFaults))
	}
	parts = append(parts, fmt.Sprintf("score=%.2f tier=%s confidence=%.2f", r.Score, r.Tier, r.Confidence))

	return strings.Join(parts, "; ")
}
