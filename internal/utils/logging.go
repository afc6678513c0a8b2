package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// LoggerOptions configures InitLogger.
type LoggerOptions struct {
	Level           string
	Output          io.Writer
	Prefix          string
	ReportTimestamp bool
}

// parseLevel maps a level name to a log.Level, defaulting to info.
func parseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// InitLogger builds a structured logger.
func InitLogger(opts LoggerOptions) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger := log.NewWithOptions(out, log.Options{
		Level:           parseLevel(opts.Level),
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.ReportTimestamp,
		TimeFormat:      time.RFC3339,
	})
	return logger
}

// NewLogger is InitLogger with the "lifeline" prefix, for components that
// take an injected logger.
func NewLogger(level string, w io.Writer) *log.Logger {
	return InitLogger(LoggerOptions{Level: level, Output: w, Prefix: "lifeline"})
}

// InitAuditLogger writes delivery diagnostics to .lifeline/logs/audit-<date>.log
// under projectDir. The caller closes the returned file.
func InitAuditLogger(projectDir, level string) (*log.Logger, *os.File, error) {
	dir := filepath.Join(projectDir, ".lifeline", "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	name := fmt.Sprintf("audit-%s.log", time.Now().UTC().Format("20060102"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}
	logger := InitLogger(LoggerOptions{
		Level:           level,
		Output:          f,
		Prefix:          "audit",
		ReportTimestamp: true,
	})
	logger.SetFormatter(log.LogfmtFormatter)
	return logger, f, nil
}
