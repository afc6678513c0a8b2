package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/lifeline/internal/tui"
)

var (
	flagConsoleTheme   string
	flagConsoleNoMouse bool
	flagConsoleRefresh time.Duration
	flagConsoleLimit   int
)

func init() {
	consoleCmd.Flags().StringVar(&flagConsoleTheme, "theme", "", "color theme: mocha (dark) or latte (light)")
	consoleCmd.Flags().BoolVar(&flagConsoleNoMouse, "no-mouse", false, "disable mouse support")
	consoleCmd.Flags().DurationVar(&flagConsoleRefresh, "refresh", 5*time.Second, "reload interval (0 disables)")
	consoleCmd.Flags().IntVarP(&flagConsoleLimit, "limit", "n", 200, "maximum detections to load")

	rootCmd.AddCommand(consoleCmd)
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the interactive reviewer console",
	Long: `Open a full-screen console over the audit store.

Keys: ↑/↓ or j/k move, enter opens the session history and routed reply,
0-4 set the minimum tier, r reloads, q quits. The console never writes.`,
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

		selector, err := newSelector(cfg)
		if err != nil {
			return err
		}

		return tui.Run(tui.Options{
			Store:           database,
			Selector:        selector,
			Theme:           flagConsoleTheme,
			Limit:           flagConsoleLimit,
			RefreshInterval: flagConsoleRefresh,
			DisableMouse:    flagConsoleNoMouse,
		})
	},
}
