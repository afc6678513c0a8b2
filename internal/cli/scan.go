package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/lifeline/internal/audit"
	"github.com/Dicklesworthstone/lifeline/internal/config"
	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/output"
	"github.com/Dicklesworthstone/lifeline/internal/tui/styles"
)

// maxScanLine caps a single message read by scan.
const maxScanLine = 1 << 20

var (
	flagScanWorkers int
	flagScanMinTier string
	flagScanFailOn  string
	flagScanRecord  bool
	flagScanSession string
	flagScanNDJSON  bool
)

func init() {
	scanCmd.Flags().IntVarP(&flagScanWorkers, "workers", "w", 0, "concurrent scorers (default: batch.workers, then GOMAXPROCS)")
	scanCmd.Flags().StringVar(&flagScanMinTier, "min-tier", "", "only report messages at or above this tier")
	scanCmd.Flags().StringVar(&flagScanFailOn, "fail-on", "", "exit 1 if any message reaches this tier")
	scanCmd.Flags().BoolVar(&flagScanRecord, "record", false, "record crisis detections in the audit store")
	scanCmd.Flags().StringVarP(&flagScanSession, "session", "s", "", "session identifier for recorded detections (default: scan:<file>)")
	scanCmd.Flags().BoolVar(&flagScanNDJSON, "ndjson", false, "emit one JSON object per scored message")

	_ = scanCmd.RegisterFlagCompletionFunc("session", completeSessionIDs)
	_ = scanCmd.RegisterFlagCompletionFunc("min-tier", completeTiers)
	_ = scanCmd.RegisterFlagCompletionFunc("fail-on", completeTiers)

	rootCmd.AddCommand(scanCmd)
}

// scanRow is one scored message. The text is not echoed back.
type scanRow struct {
	Line       int               `json:"line" yaml:"line"`
	Tier       core.SeverityTier `json:"tier" yaml:"tier"`
	IsCrisis   bool              `json:"is_crisis" yaml:"is_crisis"`
	Score      float64           `json:"score" yaml:"score"`
	Confidence float64           `json:"confidence" yaml:"confidence"`
	Summary    string            `json:"summary" yaml:"summary"`
}

// scanReport is the structured output of scan.
type scanReport struct {
	Source   string          `json:"source" yaml:"source"`
	Messages int             `json:"messages" yaml:"messages"`
	Tiers    map[string]int  `json:"tiers" yaml:"tiers"`
	Crisis   int             `json:"crisis" yaml:"crisis"`
	Recorded int             `json:"recorded" yaml:"recorded"`
	Delivery *audit.Delivery `json:"delivery,omitempty" yaml:"delivery,omitempty"`
	Results  []scanRow       `json:"results" yaml:"results"`
}

var scanCmd = &cobra.Command{
	Use:   "scan <file|->",
	Short: "Score every line of a file as a separate message",
	Long: `Score a file of messages, one per line, concurrently. Blank lines are skipped.
Use "-" to read from stdin.

The report lists tier, score and a text-free summary per line. Use --min-tier to
hide lower tiers and --fail-on to turn a scan into a CI gate.`,
	Example: `  lifeline scan transcript.txt --min-tier medium
  lifeline scan - --fail-on high < export.txt
  lifeline scan transcript.txt --record --session review-2026-03`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var minTier, failOn core.SeverityTier
		var err error
		if flagScanMinTier != "" {
			if minTier, err = core.ParseTier(flagScanMinTier); err != nil {
				return err
			}
		}
		if flagScanFailOn != "" {
			if failOn, err = core.ParseTier(flagScanFailOn); err != nil {
				return err
			}
		}

		lines, texts, err := readScanInput(cmd, args[0])
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

		workers := flagScanWorkers
		if workers <= 0 {
			workers = cfg.Batch.Workers
		}
		ctx := contextOrBackground(cmd)
		results, err := scorer.AnalyzeBatch(ctx, texts, workers)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", args[0], err)
		}

		report := scanReport{
			Source:   args[0],
			Messages: len(results),
			Tiers:    map[string]int{},
			Results:  []scanRow{},
		}
		for _, t := range core.AllTiers() {
			report.Tiers[string(t)] = 0
		}

		failed := false
		for i, r := range results {
			report.Tiers[string(r.Tier)]++
			if r.IsCrisis {
				report.Crisis++
			}
			if failOn != "" && r.Tier.Rank() >= failOn.Rank() {
				failed = true
			}
			if minTier != "" && r.Tier.Rank() < minTier.Rank() {
				continue
			}
			report.Results = append(report.Results, scanRow{
				Line:       lines[i],
				Tier:       r.Tier,
				IsCrisis:   r.IsCrisis,
				Score:      r.Score,
				Confidence: r.Confidence,
				Summary:    r.ContextSummary,
			})
		}

		var recordErr error
		if flagScanRecord && report.Crisis > 0 {
			report.Recorded, report.Delivery, recordErr = recordScan(ctx, cfg, lib, logger, scanSession(args[0]), lines, results)
		}

		if err := writeScanReport(report); err != nil {
			return err
		}
		if recordErr != nil {
			return recordErr
		}
		if failed {
			os.Stdout.Sync()
			os.Exit(1)
		}
		return nil
	},
}

func scanSession(source string) string {
	if flagScanSession != "" {
		return flagScanSession
	}
	if source == "-" {
		return "scan:stdin"
	}
	return "scan:" + filepath.Base(source)
}

// readScanInput returns the non-blank lines of source with their 1-based
// line numbers.
func readScanInput(cmd *cobra.Command, source string) ([]int, []string, error) {
	var r io.Reader
	if source == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", source, err)
		}
		defer f.Close()
		r = f
	}

	var lines []int
	var texts []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxScanLine)
	n := 0
	for sc.Scan() {
		n++
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, n)
		texts = append(texts, text)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return lines, texts, nil
}

// recordScan audits every crisis result and waits for delivery. It returns
// the number written, the delivery counters and the first crisis delivery
// failure.
func recordScan(ctx context.Context, cfg config.Config, lib *core.PatternLibrary, logger *log.Logger, session string, lines []int, results []core.Result) (int, *audit.Delivery, error) {
	rt, err := openAudit(cfg, lib, logger)
	if err != nil {
		return 0, nil, err
	}

	type pending struct {
		line    int
		receipt *audit.Receipt
	}
	var receipts []pending
	for i, r := range results {
		if !r.IsCrisis {
			continue
		}
		receipts = append(receipts, pending{line: lines[i], receipt: rt.Logger.Record(ctx, session, r)})
	}

	waitCtx, cancel := context.WithTimeout(ctx, auditCloseTimeout)
	defer cancel()

	recorded := 0
	var firstErr error
	for _, p := range receipts {
		if err := p.receipt.Wait(waitCtx); err != nil {
			if errors.Is(err, audit.ErrCrisisLoggedUnreliably) {
				logger.Error("crisis detection was not recorded; escalate to a human reviewer", "session", session, "line", p.line)
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("line %d: %w", p.line, err)
			}
			continue
		}
		if p.receipt.Written() {
			recorded++
		}
	}
	if err := rt.Close(); err != nil && firstErr == nil {
		logger.Warn("closing audit logger", "error", err)
	}
	return recorded, rt.Delivery(logger), firstErr
}

func writeScanReport(report scanReport) error {
	format := GetOutput()
	if flagScanNDJSON {
		out := output.New(output.FormatJSON)
		for _, row := range report.Results {
			if err := out.WriteNDJSON(row); err != nil {
				return err
			}
		}
		return nil
	}
	if format != "text" {
		return output.New(output.Format(format)).Write(report)
	}

	st := styles.New()
	fmt.Printf("Scanned %d messages from %s: %d crisis", report.Messages, report.Source, report.Crisis)
	if report.Recorded > 0 {
		fmt.Printf(", %d recorded", report.Recorded)
	}
	fmt.Println()
	if d := report.Delivery; d != nil {
		fmt.Printf("Audit delivery: %d written, %d retried, %d dropped, %d failed\n", d.Written, d.Retried, d.Dropped, d.Failed)
	}
	for i := len(core.AllTiers()) - 1; i >= 0; i-- {
		t := core.AllTiers()[i]
		fmt.Printf("  %s %d\n", st.TierBadge(t), report.Tiers[string(t)])
	}
	if len(report.Results) == 0 {
		return nil
	}
	fmt.Println()
	for _, row := range report.Results {
		fmt.Printf("%6s  %s  %.2f  %s\n", "L"+strconv.Itoa(row.Line), st.TierBadge(row.Tier), row.Score, row.Summary)
	}
	return nil
}
