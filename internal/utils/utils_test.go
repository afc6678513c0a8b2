package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSanitizeInput(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"\x1b[31mred\x1b[0m", "red"},
		{"bell\x07 and null\x00", "bell and null"},
		{"keep\nnewlines\tand tabs", "keep\nnewlines\tand tabs"},
		{"I can’t take it", "I can’t take it"},
	}
	for _, tc := range cases {
		if got := SanitizeInput(tc.in); got != tc.want {
			t.Fatalf("SanitizeInput(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
	if got := StripANSI("\x1b[1;32mok\x1b[0m"); got != "ok" {
		t.Fatalf("StripANSI=%q", got)
	}
}

func TestParseLevelNames(t *testing.T) {
	cases := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"unknown", log.InfoLevel},
	}

	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Fatalf("parseLevel(%q)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestInitLogger_WritesOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLogger(LoggerOptions{
		Level:           "debug",
		Output:          &buf,
		Prefix:          "test",
		ReportTimestamp: false,
	})

	logger.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected output to contain message; got %q", buf.String())
	}
}

func TestInitLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLogger(LoggerOptions{Level: "warn", Output: &buf})
	logger.Info("quiet")
	logger.Warn("loud")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestInitAuditLogger_CreatesLogFileUnderProject(t *testing.T) {
	projectDir := t.TempDir()

	logger, f, err := InitAuditLogger(projectDir, "info")
	if err != nil {
		t.Fatalf("InitAuditLogger: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	logger.Warn("audit write failed, retrying", "tier", "high")

	matches, err := filepath.Glob(filepath.Join(projectDir, ".lifeline", "logs", "audit-*.log"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 log file, got %d: %#v", len(matches), matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "tier=high") {
		t.Fatalf("expected logfmt output, got %q", string(data))
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", &buf)
	logger.Info("quiet")
	logger.Warn("loud", "tier", "critical")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "lifeline") || !strings.Contains(out, "tier=critical") {
		t.Fatalf("unexpected output %q", out)
	}
}
