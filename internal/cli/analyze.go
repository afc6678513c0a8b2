package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/lifeline/internal/audit"
	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/guard"
	"github.com/Dicklesworthstone/lifeline/internal/output"
	"github.com/Dicklesworthstone/lifeline/internal/tui/styles"
)

var (
	flagAnalyzeSession  string
	flagAnalyzeRecord   bool
	flagAnalyzeExitCode bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&flagAnalyzeSession, "session", "s", "cli", "opaque session identifier recorded with the detection")
	analyzeCmd.Flags().BoolVar(&flagAnalyzeRecord, "record", false, "route through the guard and record crisis detections in the audit store")
	analyzeCmd.Flags().BoolVar(&flagAnalyzeExitCode, "exit-code", false, "exit 1 when the message is classified as a crisis")

	rootCmd.AddCommand(analyzeCmd)
}

// analysisView is the structured output of analyze.
type analysisView struct {
	SessionID string          `json:"session_id" yaml:"session_id"`
	Route     guard.Route     `json:"route" yaml:"route"`
	Reply     string          `json:"reply,omitempty" yaml:"reply,omitempty"`
	Recorded  bool            `json:"recorded" yaml:"recorded"`
	Delivery  *audit.Delivery `json:"delivery,omitempty" yaml:"delivery,omitempty"`
	Result    core.Result     `json:"result" yaml:"result"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text...]",
	Short: "Score one message for crisis risk",
	Long: `Score a single message and show its severity tier, score, confidence and
the signals behind them. With no arguments (or "-") the message is read from stdin.

Crisis results (high or critical) include the routed reply for the configured
locale. With --record the message is screened exactly as an integration would:
crisis detections are written to the audit store, and a failed audit write for
a crisis is reported as an error.

The message text itself is never stored.`,
	Example: `  lifeline analyze "I can't take this anymore"
  echo "rough week" | lifeline analyze -j
  lifeline analyze --record --session chat-42 "..."`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readMessage(cmd, args)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		lib := buildLibrary(cfg, logger)
		scorer := buildScorer(cfg, lib)
		selector, err := newSelector(cfg)
		if err != nil {
			return err
		}

		view := analysisView{SessionID: flagAnalyzeSession}
		var confirmErr error

		if flagAnalyzeRecord {
			rt, err := openAudit(cfg, lib, logger)
			if err != nil {
				return err
			}
			g, err := guard.New(scorer, selector, rt.Logger, logger)
			if err != nil {
				_ = rt.Close()
				return err
			}
			decision, err := g.Screen(contextOrBackground(cmd), flagAnalyzeSession, text)
			if err != nil {
				_ = rt.Close()
				return err
			}
			view.Route = decision.Route
			view.Reply = decision.Reply
			view.Result = decision.Result

			ctx, cancel := context.WithTimeout(contextOrBackground(cmd), auditCloseTimeout)
			confirmErr = decision.Confirm(ctx)
			cancel()
			view.Recorded = confirmErr == nil && decision.Receipt() != nil && decision.Receipt().Written()
			if err := rt.Close(); err != nil && confirmErr == nil {
				logger.Warn("closing audit logger", "error", err)
			}
			view.Delivery = rt.Delivery(logger)
		} else {
			view.Result = scorer.AnalyzeCrisis(text)
			view.Route = guard.RouteNormal
			if view.Result.IsCrisis {
				view.Route = guard.RouteCrisis
				view.Reply = selector.Select(view.Result.Tier)
			}
		}

		if err := writeAnalysis(view); err != nil {
			return err
		}

		if confirmErr != nil {
			if errors.Is(confirmErr, audit.ErrCrisisLoggedUnreliably) {
				logger.Error("crisis detection was not recorded; escalate to a human reviewer", "session", flagAnalyzeSession, "tier", view.Result.Tier)
			}
			return confirmErr
		}

		if flagAnalyzeExitCode && view.Result.IsCrisis {
			os.Stdout.Sync()
			os.Exit(1)
		}
		return nil
	},
}

func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// readMessage joins args, or reads stdin when there are none or the only
// argument is "-".
func readMessage(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading message from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func writeAnalysis(view analysisView) error {
	format := GetOutput()
	if format != "text" {
		return output.New(output.Format(format)).Write(view)
	}

	st := styles.New()
	r := view.Result
	fmt.Printf("Tier:        %s\n", st.TierBadge(r.Tier))
	fmt.Printf("Crisis:      %v\n", r.IsCrisis)
	fmt.Printf("Score:       %.2f %s\n", r.Score, styles.ScoreBar(r.Score, 20))
	fmt.Printf("Confidence:  %.2f\n", r.Confidence)
	if len(r.MatchedPatternDescriptions) > 0 {
		fmt.Printf("Patterns:\n")
		for _, d := range r.MatchedPatternDescriptions {
			fmt.Printf("  - %s\n", d)
		}
	}
	if len(r.RiskFactorCategories) > 0 {
		fmt.Printf("Risk:        %s\n", strings.Join(r.RiskFactorCategories, ", "))
	}
	sentiment := fmt.Sprintf("%.2f", r.Sentiment.Comparative)
	if r.SentimentFault {
		sentiment += " (unavailable)"
	}
	fmt.Printf("Sentiment:   %s\n", sentiment)
	fmt.Printf("Summary:     %s\n", r.ContextSummary)
	if view.Recorded {
		fmt.Printf("Audit:       recorded (session %s)\n", view.SessionID)
	} else if view.Route == guard.RouteCrisis && view.Delivery != nil {
		fmt.Printf("Audit:       not recorded (session %s)\n", view.SessionID)
	}
	if d := view.Delivery; d != nil && d.Submitted > 0 {
		fmt.Printf("Delivery:    %d written, %d retried, %d dropped, %d failed\n", d.Written, d.Retried, d.Dropped, d.Failed)
	}
	if view.Reply != "" {
		fmt.Printf("\nReply:\n%s\n", view.Reply)
	}
	return nil
}
