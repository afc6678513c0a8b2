package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/lifeline/internal/config"
	"github.com/Dicklesworthstone/lifeline/internal/output"
)

var (
	flagConfigGlobal bool
	flagConfigForce  bool
)

func init() {
	configCmd.PersistentFlags().BoolVar(&flagConfigGlobal, "global", false, "operate on user config (~/.lifeline/config.toml)")
	configInitCmd.Flags().BoolVar(&flagConfigForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or modify lifeline configuration",
	Long: `Show or modify configuration.

Values are layered, later layers winning:
  defaults < ~/.lifeline/config.toml < .lifeline/config.toml (or --config)
  < LIFELINE_* environment < command-line flags`,
	RunE: showConfig,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  showConfig,
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if GetOutput() == "text" {
		for _, key := range config.SettableKeys() {
			val, _ := config.GetValue(cfg, key)
			fmt.Printf("%-36s %v\n", key, val)
		}
		fmt.Printf("%-36s %d\n", "patterns.custom", len(cfg.Patterns.Custom))
		fmt.Printf("%-36s %d\n", "patterns.risk_factors", len(cfg.Patterns.RiskFactors))
		return nil
	}
	out := output.New(output.Format(GetOutput()))
	return out.Write(cfg)
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		val, ok := config.GetValue(cfg, args[0])
		if !ok {
			return fmt.Errorf("unknown key %q", args[0])
		}
		if GetOutput() == "text" {
			fmt.Println(val)
			return nil
		}
		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{
			"key":   args[0],
			"value": val,
		})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the project (or --global) config file",
	Long: `Set a scalar configuration value. The value is type-checked against the key
and the resulting configuration is validated before anything is written.

Settable keys:
  ` + strings.Join(config.SettableKeys(), "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := configTarget()
		if err != nil {
			return err
		}

		value, err := config.ParseValue(args[0], args[1])
		if err != nil {
			return err
		}

		// Reject values that would leave the config unloadable.
		project, err := projectPath()
		if err != nil {
			return err
		}
		overrides := flagOverrides()
		overrides[args[0]] = value
		if _, err := config.Load(config.LoadOptions{ProjectDir: project, ConfigPath: flagConfig, FlagOverrides: overrides}); err != nil {
			return err
		}

		if err := config.WriteValue(target, args[0], value); err != nil {
			return err
		}

		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{
			"path":  target,
			"key":   args[0],
			"value": value,
		})
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file populated with the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := configTarget()
		if err != nil {
			return err
		}
		if err := config.WriteDefault(target, flagConfigForce); err != nil {
			return err
		}
		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{
			"status": "written",
			"path":   target,
		})
	},
}

// configTarget is the file set and init write to.
func configTarget() (string, error) {
	project, err := projectPath()
	if err != nil {
		return "", err
	}
	userPath, projectPath := config.ConfigPaths(project, flagConfig)
	if flagConfigGlobal {
		return userPath, nil
	}
	return projectPath, nil
}
