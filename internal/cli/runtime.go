package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Dicklesworthstone/lifeline/internal/audit"
	"github.com/Dicklesworthstone/lifeline/internal/config"
	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/db"
	"github.com/Dicklesworthstone/lifeline/internal/respond"
	"github.com/Dicklesworthstone/lifeline/internal/utils"
)

// auditCloseTimeout bounds how long a command waits for queued audit writes
// on exit.
const auditCloseTimeout = 30 * time.Second

// flagOverrides maps global flags onto config keys so flags win over files
// and environment.
func flagOverrides() map[string]any {
	overrides := map[string]any{}
	if flagLocale != "" {
		overrides["general.locale"] = flagLocale
	}
	if flagVerbose {
		overrides["general.log_level"] = "debug"
	}
	if flagDB != "" {
		overrides["audit.db_path"] = flagDB
	}
	return overrides
}

func loadConfig() (config.Config, error) {
	project, err := projectPath()
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(config.LoadOptions{
		ProjectDir:    project,
		ConfigPath:    flagConfig,
		FlagOverrides: flagOverrides(),
	})
}

func newLogger(cfg config.Config) *log.Logger {
	return utils.NewLogger(cfg.General.LogLevel, os.Stderr)
}

// dbPathFor resolves the audit store: --db and LIFELINE_AUDIT_DB arrive via
// cfg, otherwise the project default applies.
func dbPathFor(cfg config.Config) string {
	if cfg.Audit.DBPath != "" {
		return cfg.Audit.DBPath
	}
	return GetDB()
}

// buildLibrary compiles the built-in catalogue plus any configured custom
// patterns. Rejected custom patterns are logged and skipped.
func buildLibrary(cfg config.Config, logger *log.Logger) *core.PatternLibrary {
	lib := core.NewPatternLibrary(
		core.WithCustomPatterns(cfg.Patterns.Custom...),
		core.WithCustomRiskFactors(cfg.Patterns.RiskFactors...),
	)
	for _, r := range lib.Rejected() {
		logger.Warn("custom pattern rejected", "pattern", r.Pattern, "reason", r.Reason)
	}
	return lib
}

func buildScorer(cfg config.Config, lib *core.PatternLibrary) *core.Scorer {
	opts := []core.ScorerOption{core.WithScoringConfig(cfg.Scoring.Core())}
	if d := cfg.Scoring.SentimentTimeout(); d > 0 {
		opts = append(opts, core.WithSentimentTimeout(d))
	}
	return core.NewScorer(lib, core.NewLexiconAnalyzer(), opts...)
}

func newSelector(cfg config.Config) (*respond.Selector, error) {
	locale, err := respond.ParseLocale(cfg.General.Locale)
	if err != nil {
		return nil, err
	}
	return respond.NewSelector(locale)
}

// openStore opens the audit database read-write, creating it on first use.
func openStore(cfg config.Config) (*db.DB, error) {
	path := dbPathFor(cfg)
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audit store %s: %w", path, err)
	}
	return database, nil
}

// openStoreReadOnly opens an existing audit database without creating it.
func openStoreReadOnly(cfg config.Config) (*db.DB, error) {
	path := dbPathFor(cfg)
	database, err := db.OpenWithOptions(path, db.OpenOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("opening audit store %s: %w", path, err)
	}
	return database, nil
}

// auditRuntime bundles an audit logger with the resources behind it.
type auditRuntime struct {
	Logger  *audit.Logger
	Metrics *audit.Metrics
	store   *db.DB
	logFile *os.File
}

// openAudit wires the SQLite sink, plus the log-file sink when enabled, into
// an audit logger stamped with lib.
func openAudit(cfg config.Config, lib *core.PatternLibrary, logger *log.Logger) (*auditRuntime, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	rt := &auditRuntime{store: store, Metrics: audit.NewMetrics()}

	var sink audit.Sink = audit.NewDBSink(store)
	if cfg.Audit.LogSink {
		project, err := projectPath()
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		fileLogger, f, err := utils.InitAuditLogger(project, cfg.General.LogLevel)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		rt.logFile = f
		sink = audit.MultiSink{sink, audit.NewLogSink(fileLogger)}
	}

	rt.Logger = audit.NewLogger(sink, cfg.Audit.Delivery(),
		audit.WithLibrary(lib),
		audit.WithLogger(logger.WithPrefix("audit")),
		audit.WithMetrics(rt.Metrics),
	)
	return rt, nil
}

// Delivery reports delivery counters, or nil if they cannot be gathered.
func (rt *auditRuntime) Delivery(logger *log.Logger) *audit.Delivery {
	d, err := rt.Metrics.Delivery()
	if err != nil {
		logger.Warn("gathering audit metrics", "error", err)
		return nil
	}
	return &d
}

// Close drains the audit queue and releases the store.
func (rt *auditRuntime) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), auditCloseTimeout)
	defer cancel()
	err := rt.Logger.Close(ctx)
	if rt.logFile != nil {
		_ = rt.logFile.Close()
	}
	if cerr := rt.store.Close(); err == nil {
		err = cerr
	}
	return err
}
