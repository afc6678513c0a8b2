package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/db"
	"github.com/Dicklesworthstone/lifeline/internal/output"
)

var (
	flagAuditSession   string
	flagAuditMinTier   string
	flagAuditSince     time.Duration
	flagAuditLimit     int
	flagAuditPrefix    string
	flagAuditOlderThan int
	flagAuditDryRun    bool
)

func init() {
	auditListCmd.Flags().StringVarP(&flagAuditSession, "session", "s", "", "only detections for this session")
	auditListCmd.Flags().StringVar(&flagAuditMinTier, "min-tier", "", "only detections at or above this tier")
	auditListCmd.Flags().DurationVar(&flagAuditSince, "since", 0, "only detections newer than this (e.g. 24h)")
	auditListCmd.Flags().IntVarP(&flagAuditLimit, "limit", "n", 50, "maximum detections to show (0 = all)")

	auditStatsCmd.Flags().DurationVar(&flagAuditSince, "since", 0, "only count detections newer than this (e.g. 168h)")

	auditSessionsCmd.Flags().StringVar(&flagAuditPrefix, "prefix", "", "only sessions whose ID starts with this")
	auditSessionsCmd.Flags().IntVarP(&flagAuditLimit, "limit", "n", 50, "maximum sessions to show (0 = all)")

	auditPruneCmd.Flags().IntVar(&flagAuditOlderThan, "older-than", 0, "delete detections older than this many days (default: audit.retention_days)")
	auditPruneCmd.Flags().BoolVar(&flagAuditDryRun, "dry-run", false, "report what would be deleted without deleting")

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditStatsCmd)
	auditCmd.AddCommand(auditSessionsCmd)
	auditCmd.AddCommand(auditPruneCmd)

	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Review recorded crisis detections",
	Long: `Query the audit store of recorded detections.

Records carry the tier, score, confidence, pattern descriptions and risk-factor
categories of each detection, and the pattern library version that produced it.
Message text and matched substrings are never stored.`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded detections, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := db.DetectionFilter{
			SessionID: flagAuditSession,
			Limit:     flagAuditLimit,
		}
		if flagAuditMinTier != "" {
			t, err := core.ParseTier(flagAuditMinTier)
			if err != nil {
				return err
			}
			filter.MinTier = t
		}
		if flagAuditSince > 0 {
			filter.Since = time.Now().Add(-flagAuditSince)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openStoreReadOnly(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		detections, err := database.ListDetections(contextOrBackground(cmd), filter)
		if err != nil {
			return err
		}
		if detections == nil {
			detections = []*db.Detection{}
		}

		if GetOutput() != "text" {
			return output.New(output.Format(GetOutput())).Write(detections)
		}
		if len(detections) == 0 {
			fmt.Println("No detections recorded.")
			return nil
		}
		rows := make([][]string, 0, len(detections))
		for _, d := range detections {
			rows = append(rows, []string{
				d.DetectedAt.Local().Format("2006-01-02 15:04:05"),
				d.SessionID,
				strings.ToUpper(string(d.Tier)),
				fmt.Sprintf("%.2f", d.Score),
				fmt.Sprintf("%.2f", d.Confidence),
				strings.Join(d.PatternDescriptions, "; "),
			})
		}
		output.OutputTable([]string{"DETECTED", "SESSION", "TIER", "SCORE", "CONF", "PATTERNS"}, rows)
		return nil
	},
}

// auditStats is the structured output of audit stats.
type auditStats struct {
	Since    *time.Time     `json:"since,omitempty" yaml:"since,omitempty"`
	Total    int            `json:"total" yaml:"total"`
	Crisis   int            `json:"crisis" yaml:"crisis"`
	Tiers    map[string]int `json:"tiers" yaml:"tiers"`
	Sessions int            `json:"sessions" yaml:"sessions"`
}

var auditStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded detections by tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openStoreReadOnly(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx := contextOrBackground(cmd)
		var since time.Time
		stats := auditStats{Tiers: map[string]int{}}
		if flagAuditSince > 0 {
			since = time.Now().Add(-flagAuditSince).UTC()
			stats.Since = &since
		}

		counts, err := database.CountDetectionsByTier(ctx, since)
		if err != nil {
			return err
		}
		for _, t := range core.AllTiers() {
			n := counts[t]
			stats.Tiers[string(t)] = n
			stats.Total += n
			if t.IsCrisisTier() {
				stats.Crisis += n
			}
		}
		sessions, err := database.ListSessions(ctx, "", 0)
		if err != nil {
			return err
		}
		stats.Sessions = len(sessions)

		if GetOutput() != "text" {
			return output.New(output.Format(GetOutput())).Write(stats)
		}
		fmt.Printf("Detections: %d (%d crisis) across %d sessions\n", stats.Total, stats.Crisis, stats.Sessions)
		for i := len(core.AllTiers()) - 1; i >= 0; i-- {
			t := core.AllTiers()[i]
			fmt.Printf("  %-9s %d\n", strings.ToUpper(string(t)), stats.Tiers[string(t)])
		}
		return nil
	},
}

var auditSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions with recorded detections",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openStoreReadOnly(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		sessions, err := database.ListSessions(contextOrBackground(cmd), flagAuditPrefix, flagAuditLimit)
		if err != nil {
			return err
		}
		if sessions == nil {
			sessions = []db.SessionSummary{}
		}

		if GetOutput() != "text" {
			return output.New(output.Format(GetOutput())).Write(sessions)
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions recorded.")
			return nil
		}
		rows := make([][]string, 0, len(sessions))
		for _, s := range sessions {
			rows = append(rows, []string{
				s.SessionID,
				strconv.Itoa(s.Detections),
				strings.ToUpper(string(s.HighestTier)),
				s.FirstSeen.Local().Format("2006-01-02 15:04"),
				s.LastSeen.Local().Format("2006-01-02 15:04"),
			})
		}
		output.OutputTable([]string{"SESSION", "DETECTIONS", "HIGHEST", "FIRST", "LAST"}, rows)
		return nil
	},
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete detections older than the retention window",
	Long: `Delete detections older than --older-than days, or audit.retention_days when
the flag is not given. A retention of 0 keeps records forever, so prune does
nothing unless --older-than is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		days := flagAuditOlderThan
		if days <= 0 {
			days = cfg.Audit.RetentionDays
		}
		if days <= 0 {
			return output.New(output.Format(GetOutput())).Write(map[string]any{
				"status":  "skipped",
				"reason":  "retention disabled",
				"deleted": 0,
			})
		}
		cutoff := time.Now().UTC().AddDate(0, 0, -days)

		ctx := contextOrBackground(cmd)
		var deleted int64
		if flagAuditDryRun {
			database, err := openStoreReadOnly(cfg)
			if err != nil {
				return err
			}
			defer database.Close()
			old, err := database.ListDetections(ctx, db.DetectionFilter{Until: cutoff})
			if err != nil {
				return err
			}
			deleted = int64(len(old))
		} else {
			database, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer database.Close()
			if deleted, err = database.DeleteDetectionsBefore(ctx, cutoff); err != nil {
				return err
			}
			newLogger(cfg).Info("pruned audit store", "deleted", deleted, "older_than_days", days)
		}

		status := "pruned"
		if flagAuditDryRun {
			status = "dry_run"
		}
		if GetOutput() == "text" {
			verb := "Deleted"
			if flagAuditDryRun {
				verb = "Would delete"
			}
			fmt.Printf("%s %d detections older than %s\n", verb, deleted, cutoff.Format(time.DateOnly))
			return nil
		}
		return output.New(output.Format(GetOutput())).Write(map[string]any{
			"status":  status,
			"cutoff":  cutoff,
			"days":    days,
			"deleted": deleted,
		})
	},
}
