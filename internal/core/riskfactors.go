package core

import (
	"fmt"
	"regexp"
	"strings"
)

// RiskFactorPattern is an unweighted contextual signal. Matches are counted,
// not scored individually.
type RiskFactorPattern struct {
	// Category groups related patterns (isolation, substance_use, ...).
	Category string
	Pattern  string
	Compiled *regexp.Regexp
	Source   string
}

// RiskFactorSpec is the uncompiled form of a RiskFactorPattern.
type RiskFactorSpec struct {
	Category string `json:"category" mapstructure:"category" toml:"category"`
	Pattern  string `json:"pattern" mapstructure:"pattern" toml:"pattern"`
}

// RiskFactorMatch is a single risk-factor hit.
type RiskFactorMatch struct {
	Factor *RiskFactorPattern
	// Match is the lowercased matched text.
	Match string
}

// MatchRiskFactors returns every risk-factor occurrence in text. A faulty
// matcher contributes no matches and is counted in faults.
func (l *PatternLibrary) MatchRiskFactors(text string) (matches []RiskFactorMatch, faults int) {
	normalized := NormalizeText(text)
	for _, rf := range l.riskFactors {
		found, err := safeFindAll(rf.Compiled, normalized)
		if err != nil {
			faults++
			continue
		}
		for _, m := range found {
			matches = append(matches, RiskFactorMatch{Factor: rf, Match: strings.ToLower(m)})
		}
	}
	return matches, faults
}

// Categories lists distinct risk-factor categories in catalogue order.
func (l *PatternLibrary) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rf := range l.riskFactors {
		if !seen[rf.Category] {
			seen[rf.Category] = true
			out = append(out, rf.Category)
		}
	}
	return out
}

func compileBuiltinRiskFactors(specs []RiskFactorSpec) []*RiskFactorPattern {
	out := make([]*RiskFactorPattern, 0, len(specs))
	for _, spec := range specs {
		rf, err := compileRiskFactor(spec, SourceBuiltin)
		if err != nil {
			panic(fmt.Sprintf("invalid builtin risk factor %q: %v", spec.Pattern, err))
		}
		out = append(out, rf)
	}
	return out
}

func compileCustomRiskFactor(spec RiskFactorSpec) (*RiskFactorPattern, error) {
	return compileRiskFactor(spec, SourceCustom)
}

func compileRiskFactor(spec RiskFactorSpec, source string) (*RiskFactorPattern, error) {
	category := strings.TrimSpace(strings.ToLower(spec.Category))
	if category == "" {
		return nil, fmt.Errorf("risk factor category is empty")
	}
	if strings.TrimSpace(spec.Pattern) == "" {
		return nil, fmt.Errorf("pattern is empty")
	}
	compiled, err := regexp.Compile("(?i)" + spec.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return &RiskFactorPattern{
		Category: category,
		Pattern:  spec.Pattern,
		Compiled: compiled,
		Source:   source,
	}, nil
}
