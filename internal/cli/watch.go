package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/db"
	"github.com/Dicklesworthstone/lifeline/internal/notify"
	"github.com/Dicklesworthstone/lifeline/internal/output"
)

var (
	flagWatchMinTier   string
	flagWatchInterval  time.Duration
	flagWatchNoDesktop bool
	flagWatchOnce      bool
)

func init() {
	watchCmd.Flags().StringVar(&flagWatchMinTier, "min-tier", "", "lowest tier that alerts (default: notifications.min_tier)")
	watchCmd.Flags().DurationVar(&flagWatchInterval, "interval", 0, "poll interval (default: notifications.poll_interval_secs)")
	watchCmd.Flags().BoolVar(&flagWatchNoDesktop, "no-desktop", false, "print alerts only; never send desktop notifications")
	watchCmd.Flags().BoolVar(&flagWatchOnce, "once", false, "check once and exit")

	_ = watchCmd.RegisterFlagCompletionFunc("min-tier", completeTiers)

	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Alert reviewers as crisis detections are recorded",
	Long: `Poll the audit store and alert on every new detection at or above the
minimum tier (high by default). Each detection alerts once: a line on stdout
and, when notifications.desktop_enabled is set, a desktop notification.

Only detections recorded after watch starts alert. Use 'lifeline audit list'
for history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		minTier := flagWatchMinTier
		if minTier == "" {
			minTier = cfg.Notifications.MinTier
		}
		tier, err := core.ParseTier(minTier)
		if err != nil {
			return err
		}
		interval := flagWatchInterval
		if interval <= 0 {
			interval = cfg.Notifications.PollInterval()
		}

		database, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		logger := newLogger(cfg)
		out := output.New(output.Format(GetOutput()))
		w := notify.NewWatcher(database, notify.Options{
			MinTier: tier,
			Desktop: cfg.Notifications.DesktopEnabled && !flagWatchNoDesktop,
			OnAlert: func(d *db.Detection) {
				if err := writeAlert(out, d); err != nil {
					logger.Warn("writing alert", "error", err)
				}
			},
			Logger: logger.WithPrefix("watch"),
		})

		if flagWatchOnce {
			_, err := w.Check(contextOrBackground(cmd))
			return err
		}

		ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()
		logger.Info("watching audit store", "db", database.Path(), "min_tier", tier, "interval", interval)
		w.Run(ctx, interval)
		return nil
	},
}

func writeAlert(out *output.Writer, d *db.Detection) error {
	if out.IsStructured() {
		return out.WriteNDJSON(d)
	}
	fmt.Printf("%s  %-8s  %s  score=%.2f conf=%.2f  %s\n",
		d.DetectedAt.Local().Format("15:04:05"),
		strings.ToUpper(string(d.Tier)),
		d.SessionID,
		d.Score,
		d.Confidence,
		strings.Join(d.PatternDescriptions, "; "),
	)
	return nil
}
