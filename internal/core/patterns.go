// Package core implements crisis-risk scoring: the pattern libraries, the
// sentiment adapter and the fusion scorer that combines them.
package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LibraryVersion identifies the built-in pattern catalogue. Bump it whenever a
// built-in pattern, weight or description changes so audit records can be tied
// to the catalogue that produced them.
const LibraryVersion = "2025.2"

const (
	SourceBuiltin = "builtin"
	SourceCustom  = "custom"
)

// CrisisPattern is a weighted lexical trigger.
type CrisisPattern struct {
	// Tier is the severity tier this pattern signals.
	Tier SeverityTier
	// Pattern is the regex source (matched case-insensitively).
	Pattern string
	// Compiled is the compiled regex.
	Compiled *regexp.Regexp
	// Weight is the pattern's own weight in (0,1].
	Weight float64
	// Description is the reviewer-facing explanation of what the pattern catches.
	Description string
	// Source is "builtin" or "custom".
	Source string
}

// PatternSpec is the uncompiled form of a CrisisPattern, as read from config.
type PatternSpec struct {
	Tier        string  `json:"tier" mapstructure:"tier" toml:"tier"`
	Pattern     string  `json:"pattern" mapstructure:"pattern" toml:"pattern"`
	Weight      float64 `json:"weight" mapstructure:"weight" toml:"weight"`
	Description string  `json:"description" mapstructure:"description" toml:"description"`
}

// RejectedPattern records a custom pattern that could not be loaded.
type RejectedPattern struct {
	Pattern string `json:"pattern"`
	Reason  string `json:"reason"`
}

// PatternMatch is a single crisis pattern hit.
type PatternMatch struct {
	Pattern *CrisisPattern
	// Match is the lowercased matched text.
	Match string
}

// PatternLibrary holds the crisis and risk-factor catalogues. It is built once
// and never mutated afterwards, so it can be shared across goroutines freely.
type PatternLibrary struct {
	version     string
	crisis      []*CrisisPattern
	riskFactors []*RiskFactorPattern
	rejected    []RejectedPattern
}

type libraryOptions struct {
	builtins          bool
	customPatterns    []PatternSpec
	customRiskFactors []RiskFactorSpec
}

// LibraryOption configures NewPatternLibrary.
type LibraryOption func(*libraryOptions)

// WithCustomPatterns appends deployment-specific crisis patterns.
func WithCustomPatterns(specs ...PatternSpec) LibraryOption {
	return func(o *libraryOptions) {
		o.customPatterns = append(o.customPatterns, specs...)
	}
}

// WithCustomRiskFactors appends deployment-specific risk-factor patterns.
func WithCustomRiskFactors(specs ...RiskFactorSpec) LibraryOption {
	return func(o *libraryOptions) {
		o.customRiskFactors = append(o.customRiskFactors, specs...)
	}
}

// WithoutBuiltins starts from an empty catalogue.
func WithoutBuiltins() LibraryOption {
	return func(o *libraryOptions) {
		o.builtins = false
	}
}

// NewPatternLibrary compiles the built-in catalogue plus any custom entries.
// Invalid custom entries are skipped and reported via Rejected.
func NewPatternLibrary(opts ...LibraryOption) *PatternLibrary {
	o := libraryOptions{builtins: true}
	for _, opt := range opts {
		opt(&o)
	}

	lib := &PatternLibrary{version: LibraryVersion}
	if o.builtins {
		lib.crisis = compileBuiltinPatterns(builtinCrisisPatterns)
		lib.riskFactors = compileBuiltinRiskFactors(builtinRiskFactors)
	}
	for _, spec := range o.customPatterns {
		p, err := compileCustomPattern(spec)
		if err != nil {
			lib.rejected = append(lib.rejected, RejectedPattern{Pattern: spec.Pattern, Reason: err.Error()})
			continue
		}
		lib.crisis = append(lib.crisis, p)
	}
	for _, spec := range o.customRiskFactors {
		rf, err := compileCustomRiskFactor(spec)
		if err != nil {
			lib.rejected = append(lib.rejected, RejectedPattern{Pattern: spec.Pattern, Reason: err.Error()})
			continue
		}
		lib.riskFactors = append(lib.riskFactors, rf)
	}
	if len(o.customPatterns) > 0 || len(o.customRiskFactors) > 0 {
		lib.version = LibraryVersion + "+custom." + lib.ComputeHash()[:8]
	}
	return lib
}

// DefaultLibrary returns a freshly built catalogue with only built-in entries.
func DefaultLibrary() *PatternLibrary {
	return NewPatternLibrary()
}

// Version identifies the catalogue, including a hash suffix when custom entries are present.
func (l *PatternLibrary) Version() string {
	return l.version
}

// Patterns returns all crisis patterns in evaluation order.
func (l *PatternLibrary) Patterns() []*CrisisPattern {
	return append([]*CrisisPattern(nil), l.crisis...)
}

// PatternsByTier returns the crisis patterns of a single tier.
func (l *PatternLibrary) PatternsByTier(t SeverityTier) []*CrisisPattern {
	var out []*CrisisPattern
	for _, p := range l.crisis {
		if p.Tier == t {
			out = append(out, p)
		}
	}
	return out
}

// RiskFactors returns all risk-factor patterns.
func (l *PatternLibrary) RiskFactors() []*RiskFactorPattern {
	return append([]*RiskFactorPattern(nil), l.riskFactors...)
}

// Rejected lists custom entries that failed validation or compilation.
func (l *PatternLibrary) Rejected() []RejectedPattern {
	return append([]RejectedPattern(nil), l.rejected...)
}

// MatchCrisis checks every crisis pattern independently against text.
// The returned fault count is the number of patterns whose matcher failed;
// those are treated as non-matches.
func (l *PatternLibrary) MatchCrisis(text string) (matches []PatternMatch, faults int) {
	normalized := NormalizeText(text)
	for _, p := range l.crisis {
		m, ok, err := safeFind(p.Compiled, normalized)
		if err != nil {
			faults++
			continue
		}
		if ok {
			matches = append(matches, PatternMatch{Pattern: p, Match: strings.ToLower(m)})
		}
	}
	return matches, faults
}

// NormalizeText folds typographic apostrophes and quotes to ASCII so patterns
// like `can'?t` also catch "can’t".
func NormalizeText(text string) string {
	return textNormalizer.Replace(text)
}

var textNormalizer = strings.NewReplacer(
	"’", "'", // right single quote
	"‘", "'", // left single quote
	"ʼ", "'", // modifier letter apostrophe
	"“", `"`,
	"”", `"`,
)

// safeFind runs a single regex under recover so a faulty matcher cannot abort
// the whole detection.
func safeFind(re *regexp.Regexp, text string) (match string, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			match, ok, err = "", false, fmt.Errorf("matcher panic: %v", r)
		}
	}()
	if re == nil {
		return "", false, fmt.Errorf("pattern not compiled")
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return "", false, nil
	}
	return text[loc[0]:loc[1]], true, nil
}

func safeFindAll(re *regexp.Regexp, text string) (matches []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			matches, err = nil, fmt.Errorf("matcher panic: %v", r)
		}
	}()
	if re == nil {
		return nil, fmt.Errorf("pattern not compiled")
	}
	return re.FindAllString(text, -1), nil
}

func compileBuiltinPatterns(specs []PatternSpec) []*CrisisPattern {
	out := make([]*CrisisPattern, 0, len(specs))
	for _, spec := range specs {
		p, err := compilePattern(spec, SourceBuiltin)
		if err != nil {
			// Built-in patterns must always be valid.
			panic(fmt.Sprintf("invalid builtin pattern %q: %v", spec.Pattern, err))
		}
		out = append(out, p)
	}
	return out
}

func compileCustomPattern(spec PatternSpec) (*CrisisPattern, error) {
	return compilePattern(spec, SourceCustom)
}

func compilePattern(spec PatternSpec, source string) (*CrisisPattern, error) {
	tier, err := ParseTier(spec.Tier)
	if err != nil {
		return nil, err
	}
	if spec.Weight <= 0 || spec.Weight > 1 {
		return nil, fmt.Errorf("weight must be in (0,1], got %v", spec.Weight)
	}
	if strings.TrimSpace(spec.Pattern) == "" {
		return nil, fmt.Errorf("pattern is empty")
	}
	compiled, err := regexp.Compile("(?i)" + spec.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	desc := strings.TrimSpace(spec.Description)
	if desc == "" {
		desc = spec.Pattern
	}
	return &CrisisPattern{
		Tier:        tier,
		Pattern:     spec.Pattern,
		Compiled:    compiled,
		Weight:      spec.Weight,
		Description: desc,
		Source:      source,
	}, nil
}

// LibraryExport is the reviewer-facing catalogue.
type LibraryExport struct {
	Version     string                `json:"version"`
	GeneratedAt time.Time             `json:"generated_at"`
	SHA256      string                `json:"sha256"`
	Tiers       map[string]TierExport `json:"tiers"`
	RiskFactors map[string][]string   `json:"risk_factors"`
	Rejected    []RejectedPattern     `json:"rejected,omitempty"`
	Metadata    LibraryExportMetadata `json:"metadata"`
}

// TierExport represents a single tier's patterns for export.
type TierExport struct {
	BaseWeight float64          `json:"base_weight"`
	Patterns   []PatternDetails `json:"patterns"`
}

// PatternDetails represents a single pattern for export.
type PatternDetails struct {
	Pattern     string  `json:"pattern"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
	Source      string  `json:"source"`
}

// LibraryExportMetadata contains summary information about the export.
type LibraryExportMetadata struct {
	PatternCount    int            `json:"pattern_count"`
	RiskFactorCount int            `json:"risk_factor_count"`
	TierCounts      map[string]int `json:"tier_counts"`
}

// Export builds a deterministic, reviewable view of the catalogue. Tier base
// weights come from cfg so reviewers see the multipliers in effect.
func (l *PatternLibrary) Export(cfg ScoringConfig) *LibraryExport {
	export := &LibraryExport{
		Version:     l.version,
		GeneratedAt: time.Now().UTC(),
		Tiers:       make(map[string]TierExport),
		RiskFactors: make(map[string][]string),
		Rejected:    l.Rejected(),
		Metadata: LibraryExportMetadata{
			TierCounts: make(map[string]int),
		},
	}

	for _, tier := range AllTiers() {
		patterns := l.PatternsByTier(tier)
		details := make([]PatternDetails, 0, len(patterns))
		for _, p := range patterns {
			details = append(details, PatternDetails{
				Pattern:     p.Pattern,
				Weight:      p.Weight,
				Description: p.Description,
				Source:      p.Source,
			})
		}
		sort.Slice(details, func(i, j int) bool {
			return details[i].Pattern < details[j].Pattern
		})
		export.Tiers[string(tier)] = TierExport{
			BaseWeight: cfg.TierWeights.For(tier),
			Patterns:   details,
		}
		export.Metadata.TierCounts[string(tier)] = len(details)
		export.Metadata.PatternCount += len(details)
	}

	for _, rf := range l.riskFactors {
		export.RiskFactors[rf.Category] = append(export.RiskFactors[rf.Category], rf.Pattern)
	}
	for cat := range export.RiskFactors {
		sort.Strings(export.RiskFactors[cat])
	}
	export.Metadata.RiskFactorCount = len(l.riskFactors)

	export.SHA256 = l.ComputeHash()
	return export
}

// ExportJSON returns the catalogue as indented JSON.
func (l *PatternLibrary) ExportJSON(cfg ScoringConfig) (string, error) {
	data, err := json.MarshalIndent(l.Export(cfg), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ComputeHash returns a deterministic hash of the catalogue for version tracking.
func (l *PatternLibrary) ComputeHash() string {
	lines := make([]string, 0, len(l.crisis)+len(l.riskFactors))
	for _, p := range l.crisis {
		lines = append(lines, fmt.Sprintf("crisis:%s:%s:%s", p.Tier, strconv.FormatFloat(p.Weight, 'f', -1, 64), p.Pattern))
	}
	for _, rf := range l.riskFactors {
		lines = append(lines, fmt.Sprintf("risk:%s:%s", rf.Category, rf.Pattern))
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
