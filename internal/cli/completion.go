package cli

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/lifeline/internal/db"
)

// maxSessionCompletions bounds the sessions offered to the shell.
const maxSessionCompletions = 100

var completionCmd = &cobra.Command{
	Use:       "completion [bash|zsh|fish|powershell]",
	Short:     "Generate shell completion scripts",
	Args:      cobra.ExactValidArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)

	// Best-effort dynamic completion for session IDs.
	_ = analyzeCmd.RegisterFlagCompletionFunc("session", completeSessionIDs)
	_ = auditListCmd.RegisterFlagCompletionFunc("session", completeSessionIDs)
	_ = auditSessionsCmd.RegisterFlagCompletionFunc("prefix", completeSessionIDs)
	_ = auditListCmd.RegisterFlagCompletionFunc("min-tier", completeTiers)
}

func completeTiers(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"critical", "high", "medium", "low"}, cobra.ShellCompDirectiveNoFileComp
}

func completeSessionIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	opts := db.OpenOptions{
		CreateIfNotExists: false,
		InitSchema:        false,
		ReadOnly:          true,
	}

	database, err := db.OpenWithOptions(GetDB(), opts)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer database.Close()

	sessions, err := database.ListSessions(context.Background(), toComplete, maxSessionCompletions)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	out := make([]string, 0, len(sessions))
	for _, s := range sessions {
		if s.SessionID == "" {
			continue
		}
		if toComplete != "" && !strings.HasPrefix(s.SessionID, toComplete) {
			continue
		}
		desc := strings.ToUpper(string(s.HighestTier)) + " · " + strconv.Itoa(s.Detections) + " detections"
		out = append(out, s.SessionID+"\t"+desc)
	}

	return out, cobra.ShellCompDirectiveNoFileComp
}
