// Package cli implements the Cobra command-line interface for lifeline.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/lifeline/internal/config"
	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/output"
)

// Version information set by goreleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flag values
var (
	flagConfig  string
	flagOutput  string
	flagJSON    bool
	flagVerbose bool
	flagDB      string
	flagProject string
	flagLocale  string
)

var rootCmd = &cobra.Command{
	Use:   "lifeline",
	Short: "Crisis-risk scoring for conversational messages",
	Long: `Lifeline scores a single message for crisis risk and routes crisis
conversations to safety-reviewed replies with helpline information.

Each message is classified into a severity tier:
  CRITICAL  - explicit intent or plan; emergency reply with helplines
  HIGH      - strong hopelessness or self-harm signals; helplines included
  MEDIUM    - distress worth a supportive check-in
  LOW       - no meaningful risk signal

High and critical detections are recorded in the audit store for review.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		output.SetOutputMode(GetOutput() == "json")
		if flagProject == "" {
			return nil
		}
		if err := os.Chdir(flagProject); err != nil {
			return fmt.Errorf("changing directory to %s: %w", flagProject, err)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		showQuickReference()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		goVersion := runtime.Version()
		configPath := flagConfig
		if configPath == "" {
			home, _ := os.UserHomeDir()
			configPath = filepath.Join(home, config.DirName, "config.toml")
		}
		dbPath := GetDB()
		projectPath, _ := os.Getwd()

		payload := map[string]any{
			"version":         version,
			"commit":          commit,
			"build_date":      date,
			"go_version":      goVersion,
			"library_version": core.LibraryVersion,
			"config_path":     configPath,
			"db_path":         dbPath,
			"project_path":    projectPath,
		}

		switch GetOutput() {
		case "json", "yaml":
			out := output.New(output.Format(GetOutput()))
			return out.Write(payload)
		case "text":
			fmt.Printf("lifeline %s\n", version)
			fmt.Printf("  commit:   %s\n", commit)
			fmt.Printf("  built:    %s\n", date)
			fmt.Printf("  go:       %s\n", goVersion)
			fmt.Printf("  patterns: %s\n", core.LibraryVersion)
			fmt.Printf("  config:   %s\n", configPath)
			fmt.Printf("  db:       %s\n", dbPath)
			fmt.Printf("  project:  %s\n", projectPath)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s", GetOutput())
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetOutput returns the configured output format.
// Precedence: CLI flags > LIFELINE_OUTPUT_FORMAT env > default
func GetOutput() string {
	if flagJSON {
		return "json"
	}
	if flagOutput != "text" && flagOutput != "" {
		return flagOutput
	}
	if envFormat := os.Getenv("LIFELINE_OUTPUT_FORMAT"); envFormat != "" {
		switch envFormat {
		case "json", "yaml", "text":
			return envFormat
		}
	}
	return "text"
}

// GetDB returns the audit database path.
// Precedence: --db flag > LIFELINE_AUDIT_DB env > <project>/.lifeline/audit.db
func GetDB() string {
	if flagDB != "" {
		return flagDB
	}
	if env := os.Getenv("LIFELINE_AUDIT_DB"); env != "" {
		return env
	}
	project, err := projectPath()
	if err == nil && project != "" {
		return filepath.Join(project, config.DirName, "audit.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, config.DirName, "audit.db")
}

func projectPath() (string, error) {
	if flagProject != "" {
		return flagProject, nil
	}
	pwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return pwd, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path (replaces the project config file)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "output format: text, json, yaml (env: LIFELINE_OUTPUT_FORMAT)")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "shorthand for --output=json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "audit database path")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "C", "", "project directory")
	rootCmd.PersistentFlags().StringVarP(&flagLocale, "locale", "L", "", "helpline locale (us, uk, ca, au, in)")

	rootCmd.AddCommand(versionCmd)
}
