package core

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefaultLibrary_LoadingIsIdempotent(t *testing.T) {
	a := DefaultLibrary()
	b := DefaultLibrary()

	if a.ComputeHash() != b.ComputeHash() {
		t.Fatalf("hash differs between loads: %s vs %s", a.ComputeHash(), b.ComputeHash())
	}
	if a.Version() != b.Version() || a.Version() != LibraryVersion {
		t.Fatalf("unexpected versions %q / %q", a.Version(), b.Version())
	}

	ea := a.Export(DefaultScoringConfig())
	eb := b.Export(DefaultScoringConfig())
	ea.GeneratedAt, eb.GeneratedAt = time.Time{}, time.Time{}
	ja, err := json.Marshal(ea)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	jb, err := json.Marshal(eb)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(ja) != string(jb) {
		t.Fatalf("exports differ between loads")
	}

	pa, pb := a.Patterns(), b.Patterns()
	if len(pa) != len(pb) {
		t.Fatalf("pattern counts differ: %d vs %d", len(pa), len(pb))
	}
	for i := range pa {
		if pa[i].Pattern != pb[i].Pattern || pa[i].Weight != pb[i].Weight || pa[i].Tier != pb[i].Tier {
			t.Fatalf("pattern %d differs: %+v vs %+v", i, pa[i], pb[i])
		}
	}
}

func TestBuiltinPatterns_WeightBandsAndDescriptions(t *testing.T) {
	bands := map[SeverityTier][2]float64{
		TierCritical: {0.9, 1.0},
		TierHigh:     {0.7, 0.8},
		TierMedium:   {0.5, 0.6},
		TierLow:      {0.3, 0.4},
	}
	lib := DefaultLibrary()
	for _, tier := range AllTiers() {
		if len(lib.PatternsByTier(tier)) == 0 {
			t.Errorf("tier %s has no builtin patterns", tier)
		}
	}
	for _, p := range lib.Patterns() {
		band := bands[p.Tier]
		if p.Weight < band[0] || p.Weight > band[1] {
			t.Errorf("pattern %q weight %v outside %s band %v", p.Pattern, p.Weight, p.Tier, band)
		}
		if strings.TrimSpace(p.Description) == "" || p.Description == p.Pattern {
			t.Errorf("pattern %q needs a reviewer-facing description", p.Pattern)
		}
		if p.Source != SourceBuiltin {
			t.Errorf("pattern %q source=%q", p.Pattern, p.Source)
		}
	}
	if len(lib.RiskFactors()) == 0 {
		t.Fatalf("expected builtin risk factors")
	}
}

func TestMatchCrisis_Samples(t *testing.T) {
	lib := DefaultLibrary()
	cases := []struct {
		text string
		want SeverityTier
	}{
		{"I want to die", TierCritical},
		{"I keep thinking about suicide", TierCritical},
		{"I've been cutting my arms again", TierCritical},
		{"I WANT TO KILL MYSELF", TierCritical},
		{"there's no way out of this", TierHigh},
		{"I can’t take it anymore", TierHigh},
		{"everyone would be better off without me", TierMedium},
		{"I am a burden to everyone", TierMedium},
		{"what's the point anymore", TierMedium},
		{"I feel numb", TierLow},
		{"I'm so tired of everything", TierLow},
	}
	for _, tc := range cases {
		matches, faults := lib.MatchCrisis(tc.text)
		if faults != 0 {
			t.Errorf("%q: unexpected faults %d", tc.text, faults)
		}
		var highest SeverityTier
		for _, m := range matches {
			if m.Pattern.Tier.Rank() > highest.Rank() {
				highest = m.Pattern.Tier
			}
		}
		if highest != tc.want {
			t.Errorf("%q: highest tier %q want %q (matches=%d)", tc.text, highest, tc.want, len(matches))
		}
	}
}

func TestMatchCrisis_NoMatchOnBenignText(t *testing.T) {
	lib := DefaultLibrary()
	for _, text := range []string{
		"I had a great day today, feeling good!",
		"I'm a bit tired of studying",
		"Can we reschedule my appointment to Thursday?",
		"",
		"😀🎉 こんにちは",
	} {
		if matches, _ := lib.MatchCrisis(text); len(matches) != 0 {
			t.Errorf("%q: unexpected matches %+v", text, matches)
		}
	}
}

func TestMatchCrisis_KeywordsAreLowercased(t *testing.T) {
	matches, _ := DefaultLibrary().MatchCrisis("I Want To KILL MYSELF")
	if len(matches) == 0 {
		t.Fatalf("expected a match")
	}
	for _, m := range matches {
		if m.Match != strings.ToLower(m.Match) {
			t.Errorf("match %q not lowercased", m.Match)
		}
	}
}

func TestMatchRiskFactors(t *testing.T) {
	lib := DefaultLibrary()
	matches, faults := lib.MatchRiskFactors("I'm so lonely, drinking again, and I failed my exams")
	if faults != 0 {
		t.Fatalf("unexpected faults: %d", faults)
	}
	cats := map[string]bool{}
	for _, m := range matches {
		cats[m.Factor.Category] = true
	}
	for _, want := range []string{"isolation", "substance_use", "academic_crisis"} {
		if !cats[want] {
			t.Errorf("missing category %s (got %v)", want, cats)
		}
	}
}

func TestNewPatternLibrary_CustomEntries(t *testing.T) {
	lib := NewPatternLibrary(
		WithCustomPatterns(
			PatternSpec{Tier: "high", Pattern: `\bgive\s+up\s+on\s+everything\b`, Weight: 0.75, Description: "Giving up"},
			PatternSpec{Tier: "high", Pattern: `([unclosed`, Weight: 0.7, Description: "bad regex"},
			PatternSpec{Tier: "severe", Pattern: `\bfoo\b`, Weight: 0.7},
			PatternSpec{Tier: "low", Pattern: `\bbar\b`, Weight: 0},
		),
		WithCustomRiskFactors(
			RiskFactorSpec{Category: "Housing", Pattern: `\bhomeless\b`},
			RiskFactorSpec{Category: "", Pattern: `\bx\b`},
		),
	)

	if got := len(lib.Rejected()); got != 4 {
		t.Fatalf("rejected=%d want 4: %+v", got, lib.Rejected())
	}
	if !strings.HasPrefix(lib.Version(), LibraryVersion+"+custom.") {
		t.Fatalf("version %q should carry a custom suffix", lib.Version())
	}
	if lib.ComputeHash() == DefaultLibrary().ComputeHash() {
		t.Fatalf("custom entries must change the hash")
	}

	var custom *CrisisPattern
	for _, p := range lib.PatternsByTier(TierHigh) {
		if p.Source == SourceCustom {
			custom = p
		}
	}
	if custom == nil {
		t.Fatalf("custom high pattern not loaded")
	}

	matches, _ := lib.MatchCrisis("Honestly I just want to give up on everything")
	found := false
	for _, m := range matches {
		if m.Pattern == custom {
			found = true
		}
	}
	if !found {
		t.Fatalf("custom pattern did not match")
	}

	rf, _ := lib.MatchRiskFactors("we might be homeless next month")
	if len(rf) != 1 || rf[0].Factor.Category != "housing" {
		t.Fatalf("custom risk factor not matched: %+v", rf)
	}
}

func TestMatchCrisis_FaultIsolatedToSinglePattern(t *testing.T) {
	good, err := compilePattern(PatternSpec{Tier: "critical", Pattern: `kill\s+myself`, Weight: 1, Description: "intent"}, SourceBuiltin)
	if err != nil {
		t.Fatalf("compilePattern: %v", err)
	}
	lib := &PatternLibrary{
		version: "test",
		crisis: []*CrisisPattern{
			{Tier: TierCritical, Pattern: "broken", Weight: 1, Description: "broken matcher"},
			good,
		},
		riskFactors: []*RiskFactorPattern{
			{Category: "broken", Pattern: "broken"},
		},
	}

	matches, faults := lib.MatchCrisis("i want to kill myself")
	if faults != 1 {
		t.Fatalf("faults=%d want 1", faults)
	}
	if len(matches) != 1 || matches[0].Pattern != good {
		t.Fatalf("expected only the healthy pattern to match, got %+v", matches)
	}

	if _, rfFaults := lib.MatchRiskFactors("alone"); rfFaults != 1 {
		t.Fatalf("risk factor faults=%d want 1", rfFaults)
	}
}

func TestExportJSON(t *testing.T) {
	lib := DefaultLibrary()
	out, err := lib.ExportJSON(DefaultScoringConfig())
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var export LibraryExport
	if err := json.Unmarshal([]byte(out), &export); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if export.SHA256 != lib.ComputeHash() {
		t.Fatalf("export hash mismatch")
	}
	if export.Metadata.PatternCount != len(lib.Patterns()) {
		t.Fatalf("pattern_count=%d want %d", export.Metadata.PatternCount, len(lib.Patterns()))
	}
	if export.Tiers["critical"].BaseWeight != 1.0 {
		t.Fatalf("critical base weight=%v", export.Tiers["critical"].BaseWeight)
	}
	gotCats := make([]string, 0, len(export.RiskFactors))
	for cat := range export.RiskFactors {
		gotCats = append(gotCats, cat)
	}
	if len(gotCats) != len(lib.Categories()) {
		t.Fatalf("risk factor categories=%v want %v", gotCats, lib.Categories())
	}
}

func TestNormalizeText(t *testing.T) {
	got := NormalizeText("I can’t ‘stop’")
	if want := "I can't 'stop'"; got != want {
		t.Fatalf("NormalizeText=%q want %q", got, want)
	}
	if !reflect.DeepEqual(Tokenize("Can’t"), []string{"can't"}) {
		t.Fatalf("Tokenize should fold curly apostrophes: %v", Tokenize("Can’t"))
	}
}
