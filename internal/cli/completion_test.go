package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/testutil"
)

func TestCompleteSessionIDs_EmptyDatabase(t *testing.T) {
	h := setupCLITest(t)
	newTestRoot(h)

	completions, directive := completeSessionIDs(nil, nil, "")

	if len(completions) != 0 {
		t.Errorf("expected 0 completions with empty database, got %d", len(completions))
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("expected ShellCompDirectiveNoFileComp, got %d", directive)
	}
}

func TestCompleteSessionIDs_WithSessions(t *testing.T) {
	h := setupCLITest(t)
	newTestRoot(h)

	testutil.MakeDetection(t, h.DB, testutil.WithSession("chat-alpha"), testutil.WithTier(core.TierHigh))
	testutil.MakeDetection(t, h.DB, testutil.WithSession("chat-alpha"), testutil.WithTier(core.TierCritical))
	testutil.MakeDetection(t, h.DB, testutil.WithSession("chat-beta"), testutil.WithTier(core.TierHigh))

	completions, directive := completeSessionIDs(nil, nil, "")

	if len(completions) != 2 {
		t.Fatalf("expected 2 completions, got %d: %v", len(completions), completions)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("expected ShellCompDirectiveNoFileComp, got %d", directive)
	}

	var alpha string
	for _, c := range completions {
		if strings.HasPrefix(c, "chat-alpha\t") {
			alpha = c
		}
	}
	if alpha == "" {
		t.Fatalf("expected chat-alpha in completions: %v", completions)
	}
	if !strings.Contains(alpha, "CRITICAL") || !strings.Contains(alpha, "2 detections") {
		t.Errorf("expected description with highest tier and count, got %q", alpha)
	}
}

func TestCompleteSessionIDs_WithPrefix(t *testing.T) {
	h := setupCLITest(t)
	newTestRoot(h)

	testutil.MakeDetection(t, h.DB, testutil.WithSession("chat-alpha"))
	testutil.MakeDetection(t, h.DB, testutil.WithSession("chat-beta"))
	testutil.MakeDetection(t, h.DB, testutil.WithSession("scan:export.txt"))

	completions, _ := completeSessionIDs(nil, nil, "chat-")
	if len(completions) != 2 {
		t.Fatalf("expected 2 completions for prefix chat-, got %v", completions)
	}
	for _, c := range completions {
		if !strings.HasPrefix(c, "chat-") {
			t.Errorf("completion %q does not match prefix", c)
		}
	}

	completions, _ = completeSessionIDs(nil, nil, "nomatch")
	if len(completions) != 0 {
		t.Errorf("expected no completions for unmatched prefix, got %v", completions)
	}
}

func TestCompleteSessionIDs_MissingDatabase(t *testing.T) {
	h := setupCLITest(t)
	newTestRoot(h)
	flagDB = filepath.Join(t.TempDir(), "missing.db")

	completions, directive := completeSessionIDs(nil, nil, "")
	if completions != nil {
		t.Errorf("expected nil completions when the store is missing, got %v", completions)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("expected ShellCompDirectiveNoFileComp, got %d", directive)
	}
}

func TestCompleteTiers(t *testing.T) {
	completions, directive := completeTiers(nil, nil, "")

	want := []string{"critical", "high", "medium", "low"}
	if len(completions) != len(want) {
		t.Fatalf("completeTiers() = %v, want %v", completions, want)
	}
	for i, w := range want {
		if completions[i] != w {
			t.Errorf("completeTiers()[%d] = %q, want %q", i, completions[i], w)
		}
		if _, err := core.ParseTier(completions[i]); err != nil {
			t.Errorf("completion %q is not a parseable tier: %v", completions[i], err)
		}
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("expected ShellCompDirectiveNoFileComp, got %d", directive)
	}
}

func TestCompletionCommand_Registered(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		found := false
		for _, v := range completionCmd.ValidArgs {
			if v == shell {
				found = true
			}
		}
		if !found {
			t.Errorf("expected completion to support %s", shell)
		}
	}
	for _, tc := range []struct {
		cmd  *cobra.Command
		flag string
	}{
		{analyzeCmd, "session"},
		{auditListCmd, "session"},
		{auditListCmd, "min-tier"},
		{scanCmd, "fail-on"},
		{patternsCmd, "tier"},
	} {
		if _, ok := tc.cmd.GetFlagCompletionFunc(tc.flag); !ok {
			t.Errorf("expected completion for %s --%s", tc.cmd.Name(), tc.flag)
		}
	}
}
