package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/output"
	"github.com/Dicklesworthstone/lifeline/internal/respond"
)

var flagHelplinesAll bool

func init() {
	helplinesCmd.Flags().BoolVarP(&flagHelplinesAll, "all", "a", false, "show every supported locale")

	rootCmd.AddCommand(respondCmd)
	rootCmd.AddCommand(helplinesCmd)
}

var respondCmd = &cobra.Command{
	Use:   "respond <tier>",
	Short: "Print the routed reply for a severity tier",
	Long: `Print the safety-reviewed reply lifeline routes for a tier, rendered for the
configured locale (--locale, LIFELINE_LOCALE, or general.locale).

High and critical replies always carry the locale's helplines.`,
	Example: `  lifeline respond critical
  lifeline respond high --locale uk -j`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"critical", "high", "medium", "low"},
	RunE: func(cmd *cobra.Command, args []string) error {
		tier, err := core.ParseTier(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		selector, err := newSelector(cfg)
		if err != nil {
			return err
		}

		reply := selector.Select(tier)
		if GetOutput() == "text" {
			fmt.Println(reply)
			return nil
		}
		return output.New(output.Format(GetOutput())).Write(map[string]any{
			"tier":               string(tier),
			"locale":             string(selector.Locale()),
			"reply":              reply,
			"includes_helplines": selector.IncludesHelplines(tier),
			"template_version":   respond.TemplateVersion,
		})
	},
}

// helplineView is one locale's directory in helplines output.
type helplineView struct {
	Locale    respond.Locale     `json:"locale" yaml:"locale"`
	Emergency string             `json:"emergency" yaml:"emergency"`
	Helplines []respond.Helpline `json:"helplines" yaml:"helplines"`
}

var helplinesCmd = &cobra.Command{
	Use:   "helplines",
	Short: "List crisis helplines for the configured locale",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		locales := respond.Locales()
		if !flagHelplinesAll {
			l, err := respond.ParseLocale(cfg.General.Locale)
			if err != nil {
				return err
			}
			locales = []respond.Locale{l}
		}

		views := make([]helplineView, 0, len(locales))
		for _, l := range locales {
			dir, ok := respond.DirectoryFor(l)
			if !ok {
				continue
			}
			views = append(views, helplineView{Locale: l, Emergency: dir.Emergency, Helplines: dir.Helplines})
		}

		if GetOutput() != "text" {
			return output.New(output.Format(GetOutput())).Write(views)
		}
		for _, v := range views {
			fmt.Printf("%s (emergency: %s)\n", v.Locale, v.Emergency)
			for _, h := range v.Helplines {
				fmt.Printf("  - %s\n", h)
			}
		}
		return nil
	},
}
