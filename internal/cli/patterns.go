package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/output"
	"github.com/Dicklesworthstone/lifeline/internal/tui/styles"
)

var (
	flagPatternTier       string
	flagPatternFormat     string
	flagPatternOutputFile string
)

func init() {
	patternsCmd.PersistentFlags().StringVarP(&flagPatternTier, "tier", "T", "", "severity tier (critical, high, medium, low)")

	patternsExportCmd.Flags().StringVarP(&flagPatternFormat, "format", "f", "json", "export format: json, yaml")
	patternsExportCmd.Flags().StringVar(&flagPatternOutputFile, "out", "", "output file (default: stdout)")

	patternsCmd.AddCommand(patternsListCmd)
	patternsCmd.AddCommand(patternsTestCmd)
	patternsCmd.AddCommand(patternsExportCmd)
	patternsCmd.AddCommand(patternsVersionCmd)

	_ = patternsCmd.RegisterFlagCompletionFunc("tier", completeTiers)

	rootCmd.AddCommand(patternsCmd)
}

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect the crisis pattern and risk-factor catalogues",
	Long: `Inspect the pattern library used for scoring.

Crisis patterns are weighted regexes grouped by severity tier. Risk-factor
patterns are unweighted contextual signals grouped by category; they are
counted, not scored individually.

Custom patterns come from the [[patterns.custom]] and [[patterns.risk_factors]]
config tables. Invalid custom patterns are rejected at load time and listed
here; they never break scoring.`,
}

// patternJSON is one crisis pattern in list output.
type patternJSON struct {
	Pattern     string  `json:"pattern" yaml:"pattern"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Description string  `json:"description" yaml:"description"`
	Source      string  `json:"source" yaml:"source"`
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List crisis patterns grouped by tier",
	Long: `List the crisis patterns in effect, including configured custom patterns.

Use --tier to show a single tier. Without --tier, every tier and the
risk-factor catalogue are shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var only core.SeverityTier
		if flagPatternTier != "" {
			t, err := core.ParseTier(flagPatternTier)
			if err != nil {
				return fmt.Errorf("invalid tier: %s (must be critical, high, medium, or low)", flagPatternTier)
			}
			only = t
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		lib := buildLibrary(cfg, newLogger(cfg))

		patterns := make(map[string][]patternJSON)
		for _, tier := range core.AllTiers() {
			if only != "" && tier != only {
				continue
			}
			list := make([]patternJSON, 0)
			for _, p := range lib.PatternsByTier(tier) {
				list = append(list, patternJSON{
					Pattern:     p.Pattern,
					Weight:      p.Weight,
					Description: p.Description,
					Source:      p.Source,
				})
			}
			patterns[string(tier)] = list
		}

		if GetOutput() != "text" {
			payload := map[string]any{"tiers": patterns}
			if only == "" {
				payload["risk_factors"] = lib.Export(cfg.Scoring.Core()).RiskFactors
			}
			if rejected := lib.Rejected(); len(rejected) > 0 {
				payload["rejected"] = rejected
			}
			return output.New(output.Format(GetOutput())).Write(payload)
		}

		st := styles.New()
		for i := len(core.AllTiers()) - 1; i >= 0; i-- {
			tier := core.AllTiers()[i]
			list, ok := patterns[string(tier)]
			if !ok {
				continue
			}
			fmt.Printf("\n%s (%d patterns):\n", st.TierBadge(tier), len(list))
			for _, p := range list {
				fmt.Printf("  %s  [%.2f]", p.Pattern, p.Weight)
				if p.Source == core.SourceCustom {
					fmt.Printf(" (custom)")
				}
				fmt.Println()
				if p.Description != "" {
					fmt.Printf("    # %s\n", p.Description)
				}
			}
		}
		if only == "" {
			fmt.Printf("\nRISK FACTORS (%d patterns):\n", len(lib.RiskFactors()))
			for _, cat := range lib.Categories() {
				var pats []string
				for _, rf := range lib.RiskFactors() {
					if rf.Category == cat {
						pats = append(pats, rf.Pattern)
					}
				}
				fmt.Printf("  %s: %s\n", cat, strings.Join(pats, ", "))
			}
		}
		for _, r := range lib.Rejected() {
			fmt.Printf("\nREJECTED %s: %s\n", r.Pattern, r.Reason)
		}
		fmt.Println()
		return nil
	},
}

// patternHit is one matched pattern in test output.
type patternHit struct {
	Tier        core.SeverityTier `json:"tier" yaml:"tier"`
	Pattern     string            `json:"pattern" yaml:"pattern"`
	Weight      float64           `json:"weight" yaml:"weight"`
	Description string            `json:"description" yaml:"description"`
	Match       string            `json:"match" yaml:"match"`
}

// riskHit is one matched risk factor in test output.
type riskHit struct {
	Category string `json:"category" yaml:"category"`
	Pattern  string `json:"pattern" yaml:"pattern"`
	Match    string `json:"match" yaml:"match"`
}

var patternsTestCmd = &cobra.Command{
	Use:   "test <text>",
	Short: "Show which patterns match a message",
	Long: `Run a message against the pattern catalogues and show every crisis pattern
and risk factor it matches, with the matched text.

This is a catalogue debugging aid; use 'lifeline analyze' for the full score.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		lib := buildLibrary(cfg, newLogger(cfg))

		matches, faults := lib.MatchCrisis(text)
		riskMatches, riskFaults := lib.MatchRiskFactors(text)

		hits := make([]patternHit, 0, len(matches))
		for _, m := range matches {
			hits = append(hits, patternHit{
				Tier:        m.Pattern.Tier,
				Pattern:     m.Pattern.Pattern,
				Weight:      m.Pattern.Weight,
				Description: m.Pattern.Description,
				Match:       m.Match,
			})
		}
		risks := make([]riskHit, 0, len(riskMatches))
		for _, m := range riskMatches {
			risks = append(risks, riskHit{Category: m.Factor.Category, Pattern: m.Factor.Pattern, Match: m.Match})
		}

		var highest core.SeverityTier
		for _, h := range hits {
			if highest == "" || h.Tier.Rank() > highest.Rank() {
				highest = h.Tier
			}
		}

		if GetOutput() != "text" {
			resp := map[string]any{
				"text":           text,
				"crisis_matches": hits,
				"risk_factors":   risks,
				"matcher_faults": faults + riskFaults,
			}
			if highest != "" {
				resp["highest_tier"] = string(highest)
			} else {
				resp["highest_tier"] = nil
			}
			return output.New(output.Format(GetOutput())).Write(resp)
		}

		st := styles.New()
		fmt.Printf("Text:       %s\n", text)
		if highest != "" {
			fmt.Printf("Highest:    %s\n", st.TierBadge(highest))
		} else {
			fmt.Printf("Highest:    (none)\n")
		}
		if len(hits) > 0 {
			fmt.Printf("Patterns:\n")
			for _, h := range hits {
				fmt.Printf("  - %-8s %q  %s\n", strings.ToUpper(string(h.Tier)), h.Match, h.Description)
			}
		}
		if len(risks) > 0 {
			fmt.Printf("Risk factors:\n")
			for _, r := range risks {
				fmt.Printf("  - %-14s %q\n", r.Category, r.Match)
			}
		}
		if faults+riskFaults > 0 {
			fmt.Printf("Faults:     %d matcher(s) failed and were skipped\n", faults+riskFaults)
		}
		return nil
	},
}

var patternsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the pattern catalogue for review",
	Long: `Export the full catalogue with tier base weights, risk factors, rejected
custom patterns and a SHA256 hash of the catalogue.

Available formats:
  json  - Full JSON export with metadata (default)
  yaml  - YAML export

Examples:
  lifeline patterns export                   # JSON to stdout
  lifeline patterns export -f yaml           # YAML to stdout
  lifeline patterns export --out review.json # JSON to file`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		lib := buildLibrary(cfg, newLogger(cfg))
		export := lib.Export(cfg.Scoring.Core())

		format, err := output.ParseFormat(strings.ToLower(flagPatternFormat))
		if err != nil || format == output.FormatText {
			return fmt.Errorf("unknown format: %s (use json or yaml)", flagPatternFormat)
		}

		target := os.Stdout
		if flagPatternOutputFile != "" {
			f, err := os.Create(flagPatternOutputFile)
			if err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			defer f.Close()
			target = f
		}
		if err := output.New(format, output.WithOutput(target)).Write(export); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}

		if flagPatternOutputFile != "" {
			out := output.New(output.Format(GetOutput()))
			return out.Write(map[string]any{
				"status": "exported",
				"format": string(format),
				"file":   flagPatternOutputFile,
				"sha256": export.SHA256,
				"count":  export.Metadata.PatternCount,
			})
		}
		return nil
	},
}

var patternsVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show pattern library version and hash",
	Long: `Show the pattern library version and the SHA256 hash of the catalogue.

The hash changes whenever a pattern, weight or description changes, including
custom patterns, so audit records can be tied to the catalogue that scored them.

Examples:
  lifeline patterns version        # Show version info
  lifeline patterns version -j     # JSON output`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		lib := buildLibrary(cfg, newLogger(cfg))
		export := lib.Export(cfg.Scoring.Core())

		payload := map[string]any{
			"version":           export.Version,
			"sha256":            export.SHA256,
			"pattern_count":     export.Metadata.PatternCount,
			"risk_factor_count": export.Metadata.RiskFactorCount,
			"tier_counts":       export.Metadata.TierCounts,
			"rejected":          len(export.Rejected),
		}
		if GetOutput() == "text" {
			fmt.Printf("version:      %s\n", export.Version)
			fmt.Printf("sha256:       %s\n", export.SHA256)
			fmt.Printf("patterns:     %d\n", export.Metadata.PatternCount)
			fmt.Printf("risk factors: %d\n", export.Metadata.RiskFactorCount)
			if len(export.Rejected) > 0 {
				fmt.Printf("rejected:     %d\n", len(export.Rejected))
			}
			return nil
		}
		return output.New(output.Format(GetOutput())).Write(payload)
	},
}
