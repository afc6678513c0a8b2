// Package config loads layered lifeline configuration.
//
// Precedence, lowest first: built-in defaults, the user file
// (~/.lifeline/config.toml), the project file (.lifeline/config.toml),
// LIFELINE_* environment variables, then explicit flag overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/Dicklesworthstone/lifeline/internal/audit"
	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/respond"
)

// DirName is the per-user and per-project config directory.
const DirName = ".lifeline"

// Config is the full lifeline configuration.
type Config struct {
	General  GeneralConfig  `toml:"general" mapstructure:"general" json:"general" yaml:"general"`
	Scoring  ScoringConfig  `toml:"scoring" mapstructure:"scoring" json:"scoring" yaml:"scoring"`
	Patterns PatternsConfig `toml:"patterns" mapstructure:"patterns" json:"patterns" yaml:"patterns"`
	Audit    AuditConfig    `toml:"audit" mapstructure:"audit" json:"audit" yaml:"audit"`
	Batch    BatchConfig    `toml:"batch" mapstructure:"batch" json:"batch" yaml:"batch"`

	Notifications NotificationsConfig `toml:"notifications" mapstructure:"notifications" json:"notifications" yaml:"notifications"`
}

// GeneralConfig holds process-wide settings.
type GeneralConfig struct {
	Locale   string `toml:"locale" mapstructure:"locale" json:"locale" yaml:"locale"`
	LogLevel string `toml:"log_level" mapstructure:"log_level" json:"log_level" yaml:"log_level"`
}

// ScoringConfig mirrors core.ScoringConfig in a file-friendly, flat shape.
type ScoringConfig struct {
	MediumThreshold   float64 `toml:"medium_threshold" mapstructure:"medium_threshold" json:"medium_threshold" yaml:"medium_threshold"`
	HighThreshold     float64 `toml:"high_threshold" mapstructure:"high_threshold" json:"high_threshold" yaml:"high_threshold"`
	CriticalThreshold float64 `toml:"critical_threshold" mapstructure:"critical_threshold" json:"critical_threshold" yaml:"critical_threshold"`

	WeightLow      float64 `toml:"weight_low" mapstructure:"weight_low" json:"weight_low" yaml:"weight_low"`
	WeightMedium   float64 `toml:"weight_medium" mapstructure:"weight_medium" json:"weight_medium" yaml:"weight_medium"`
	WeightHigh     float64 `toml:"weight_high" mapstructure:"weight_high" json:"weight_high" yaml:"weight_high"`
	WeightCritical float64 `toml:"weight_critical" mapstructure:"weight_critical" json:"weight_critical" yaml:"weight_critical"`

	StrongNegative      float64 `toml:"strong_negative" mapstructure:"strong_negative" json:"strong_negative" yaml:"strong_negative"`
	StrongNegativeBoost float64 `toml:"strong_negative_boost" mapstructure:"strong_negative_boost" json:"strong_negative_boost" yaml:"strong_negative_boost"`
	MildNegative        float64 `toml:"mild_negative" mapstructure:"mild_negative" json:"mild_negative" yaml:"mild_negative"`
	MildNegativeBoost   float64 `toml:"mild_negative_boost" mapstructure:"mild_negative_boost" json:"mild_negative_boost" yaml:"mild_negative_boost"`
	RiskFactorStep      float64 `toml:"risk_factor_step" mapstructure:"risk_factor_step" json:"risk_factor_step" yaml:"risk_factor_step"`
	RiskFactorCap       float64 `toml:"risk_factor_cap" mapstructure:"risk_factor_cap" json:"risk_factor_cap" yaml:"risk_factor_cap"`

	PatternConfidenceFactor  float64 `toml:"pattern_confidence_factor" mapstructure:"pattern_confidence_factor" json:"pattern_confidence_factor" yaml:"pattern_confidence_factor"`
	SentimentMagnitude       float64 `toml:"sentiment_magnitude" mapstructure:"sentiment_magnitude" json:"sentiment_magnitude" yaml:"sentiment_magnitude"`
	SentimentConfidenceBonus float64 `toml:"sentiment_confidence_bonus" mapstructure:"sentiment_confidence_bonus" json:"sentiment_confidence_bonus" yaml:"sentiment_confidence_bonus"`
	RiskFactorMinCount       int     `toml:"risk_factor_min_count" mapstructure:"risk_factor_min_count" json:"risk_factor_min_count" yaml:"risk_factor_min_count"`
	RiskFactorConfidence     float64 `toml:"risk_factor_confidence" mapstructure:"risk_factor_confidence" json:"risk_factor_confidence" yaml:"risk_factor_confidence"`
	CrisisConfidence         float64 `toml:"crisis_confidence" mapstructure:"crisis_confidence" json:"crisis_confidence" yaml:"crisis_confidence"`

	// SentimentTimeoutMS bounds the sentiment analyzer; 0 disables the bound.
	SentimentTimeoutMS int `toml:"sentiment_timeout_ms" mapstructure:"sentiment_timeout_ms" json:"sentiment_timeout_ms" yaml:"sentiment_timeout_ms"`
}

// PatternsConfig holds deployment-specific catalogue additions.
type PatternsConfig struct {
	Custom      []core.PatternSpec    `toml:"custom" mapstructure:"custom" json:"custom" yaml:"custom"`
	RiskFactors []core.RiskFactorSpec `toml:"risk_factors" mapstructure:"risk_factors" json:"risk_factors" yaml:"risk_factors"`
}

// AuditConfig controls the detection audit trail.
type AuditConfig struct {
	// DBPath is the SQLite audit store; empty means .lifeline/audit.db in the project.
	DBPath           string `toml:"db_path" mapstructure:"db_path" json:"db_path" yaml:"db_path"`
	LogSink          bool   `toml:"log_sink" mapstructure:"log_sink" json:"log_sink" yaml:"log_sink"`
	QueueSize        int    `toml:"queue_size" mapstructure:"queue_size" json:"queue_size" yaml:"queue_size"`
	Workers          int    `toml:"workers" mapstructure:"workers" json:"workers" yaml:"workers"`
	MaxAttempts      int    `toml:"max_attempts" mapstructure:"max_attempts" json:"max_attempts" yaml:"max_attempts"`
	InitialBackoffMS int    `toml:"initial_backoff_ms" mapstructure:"initial_backoff_ms" json:"initial_backoff_ms" yaml:"initial_backoff_ms"`
	MaxBackoffMS     int    `toml:"max_backoff_ms" mapstructure:"max_backoff_ms" json:"max_backoff_ms" yaml:"max_backoff_ms"`
	WriteTimeoutMS   int    `toml:"write_timeout_ms" mapstructure:"write_timeout_ms" json:"write_timeout_ms" yaml:"write_timeout_ms"`
	RetentionDays    int    `toml:"retention_days" mapstructure:"retention_days" json:"retention_days" yaml:"retention_days"`
}

// BatchConfig controls bulk scanning.
type BatchConfig struct {
	// Workers is the scan parallelism; 0 uses GOMAXPROCS.
	Workers int `toml:"workers" mapstructure:"workers" json:"workers" yaml:"workers"`
}

// NotificationsConfig controls the reviewer alerts raised by `lifeline watch`.
type NotificationsConfig struct {
	DesktopEnabled   bool   `toml:"desktop_enabled" mapstructure:"desktop_enabled" json:"desktop_enabled" yaml:"desktop_enabled"`
	MinTier          string `toml:"min_tier" mapstructure:"min_tier" json:"min_tier" yaml:"min_tier"`
	PollIntervalSecs int    `toml:"poll_interval_secs" mapstructure:"poll_interval_secs" json:"poll_interval_secs" yaml:"poll_interval_secs"`
}

// PollInterval returns the store polling interval as a duration.
func (n NotificationsConfig) PollInterval() time.Duration {
	return time.Duration(n.PollIntervalSecs) * time.Second
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	sc := core.DefaultScoringConfig()
	ac := audit.DefaultConfig()
	return Config{
		General: GeneralConfig{
			Locale:   string(respond.DefaultLocale),
			LogLevel: "info",
		},
		Scoring: ScoringConfig{
			MediumThreshold:          sc.Thresholds.Medium,
			HighThreshold:            sc.Thresholds.High,
			CriticalThreshold:        sc.Thresholds.Critical,
			WeightLow:                sc.TierWeights.Low,
			WeightMedium:             sc.TierWeights.Medium,
			WeightHigh:               sc.TierWeights.High,
			WeightCritical:           sc.TierWeights.Critical,
			StrongNegative:           sc.StrongNegative,
			StrongNegativeBoost:      sc.StrongNegativeBoost,
			MildNegative:             sc.MildNegative,
			MildNegativeBoost:        sc.MildNegativeBoost,
			RiskFactorStep:           sc.RiskFactorStep,
			RiskFactorCap:            sc.RiskFactorCap,
			PatternConfidenceFactor:  sc.PatternConfidenceFactor,
			SentimentMagnitude:       sc.SentimentMagnitude,
			SentimentConfidenceBonus: sc.SentimentConfidenceBonus,
			RiskFactorMinCount:       sc.RiskFactorMinCount,
			RiskFactorConfidence:     sc.RiskFactorConfidence,
			CrisisConfidence:         sc.CrisisConfidence,
			SentimentTimeoutMS:       0,
		},
		Patterns: PatternsConfig{
			Custom:      []core.PatternSpec{},
			RiskFactors: []core.RiskFactorSpec{},
		},
		Audit: AuditConfig{
			DBPath:           "",
			LogSink:          false,
			QueueSize:        ac.QueueSize,
			Workers:          ac.Workers,
			MaxAttempts:      ac.MaxAttempts,
			InitialBackoffMS: int(ac.InitialBackoff / time.Millisecond),
			MaxBackoffMS:     int(ac.MaxBackoff / time.Millisecond),
			WriteTimeoutMS:   int(ac.WriteTimeout / time.Millisecond),
			RetentionDays:    90,
		},
		Batch: BatchConfig{Workers: 0},
		Notifications: NotificationsConfig{
			DesktopEnabled:   true,
			MinTier:          string(core.TierHigh),
			PollIntervalSecs: 10,
		},
	}
}

// Core converts the scoring section to the scorer's constants.
func (s ScoringConfig) Core() core.ScoringConfig {
	return core.ScoringConfig{
		Thresholds: core.Thresholds{
			Medium:   s.MediumThreshold,
			High:     s.HighThreshold,
			Critical: s.CriticalThreshold,
		},
		TierWeights: core.TierWeights{
			Low:      s.WeightLow,
			Medium:   s.WeightMedium,
			High:     s.WeightHigh,
			Critical: s.WeightCritical,
		},
		StrongNegative:           s.StrongNegative,
		StrongNegativeBoost:      s.StrongNegativeBoost,
		MildNegative:             s.MildNegative,
		MildNegativeBoost:        s.MildNegativeBoost,
		RiskFactorStep:           s.RiskFactorStep,
		RiskFactorCap:            s.RiskFactorCap,
		PatternConfidenceFactor:  s.PatternConfidenceFactor,
		SentimentMagnitude:       s.SentimentMagnitude,
		SentimentConfidenceBonus: s.SentimentConfidenceBonus,
		RiskFactorMinCount:       s.RiskFactorMinCount,
		RiskFactorConfidence:     s.RiskFactorConfidence,
		CrisisConfidence:         s.CrisisConfidence,
	}
}

// SentimentTimeout returns the analyzer bound as a duration.
func (s ScoringConfig) SentimentTimeout() time.Duration {
	return time.Duration(s.SentimentTimeoutMS) * time.Millisecond
}

// Delivery converts the audit section to logger settings.
func (a AuditConfig) Delivery() audit.Config {
	return audit.Config{
		QueueSize:      a.QueueSize,
		Workers:        a.Workers,
		MaxAttempts:    a.MaxAttempts,
		InitialBackoff: time.Duration(a.InitialBackoffMS) * time.Millisecond,
		MaxBackoff:     time.Duration(a.MaxBackoffMS) * time.Millisecond,
		WriteTimeout:   time.Duration(a.WriteTimeoutMS) * time.Millisecond,
	}
}

// LoadOptions control Load.
type LoadOptions struct {
	// ProjectDir locates .lifeline/config.toml; empty uses the working directory.
	ProjectDir string
	// ConfigPath replaces the project config file.
	ConfigPath string
	// FlagOverrides are applied last, keyed by dotted config key.
	FlagOverrides map[string]any
}

// Load builds the effective configuration and validates it.
func Load(opts LoadOptions) (Config, error) {
	projectDir := opts.ProjectDir
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("getting working directory: %w", err)
		}
		projectDir = cwd
	}

	v := viper.New()
	setDefaults(v)

	userPath, projectPath := ConfigPaths(projectDir, opts.ConfigPath)
	if err := mergeConfigFile(v, userPath); err != nil {
		return Config{}, err
	}
	if err := mergeConfigFile(v, projectPath); err != nil {
		return Config{}, err
	}

	bindEnv(v)

	for key, value := range opts.FlagOverrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ConfigPaths returns the user and project config file paths. A non-empty
// configPath replaces the project file.
func ConfigPaths(projectDir, configPath string) (user string, project string) {
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		user = filepath.Join(home, DirName, "config.toml")
	}
	return user, projectConfigPath(projectDir, configPath)
}

func projectConfigPath(projectDir, configPath string) string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(projectDir, DirName, "config.toml")
}

// mergeConfigFile merges a TOML file into v. Missing files are skipped.
func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}

	var data map[string]any
	if _, err := toml.DecodeFile(path, &data); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := v.MergeConfigMap(data); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}

// setDefaults seeds every leaf key so env bindings and Unmarshal see them.
func setDefaults(v *viper.Viper) {
	for key, value := range flatten(DefaultConfig()) {
		v.SetDefault(key, value)
	}
}

// envBindings are the short environment names; every other key is also
// reachable as LIFELINE_<SECTION>_<KEY>.
var envBindings = map[string]string{
	"general.locale":    "LIFELINE_LOCALE",
	"general.log_level": "LIFELINE_LOG_LEVEL",
	"audit.db_path":     "LIFELINE_AUDIT_DB",
	"batch.workers":     "LIFELINE_WORKERS",
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("LIFELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
}

// Validate checks the whole configuration and reports every problem found.
func Validate(cfg Config) error {
	var errs []string

	if _, err := respond.ParseLocale(cfg.General.Locale); err != nil {
		errs = append(errs, "general.locale: "+err.Error())
	}
	switch strings.ToLower(cfg.General.LogLevel) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		errs = append(errs, fmt.Sprintf("general.log_level must be debug, info, warn, error or fatal (got %q)", cfg.General.LogLevel))
	}

	if err := cfg.Scoring.Core().Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			errs = append(errs, "scoring."+line)
		}
	}
	if cfg.Scoring.SentimentTimeoutMS < 0 {
		errs = append(errs, "scoring.sentiment_timeout_ms must be >= 0")
	}

	a := cfg.Audit
	if a.QueueSize <= 0 {
		errs = append(errs, "audit.queue_size must be > 0")
	}
	if a.Workers <= 0 {
		errs = append(errs, "audit.workers must be > 0")
	}
	if a.MaxAttempts <= 0 {
		errs = append(errs, "audit.max_attempts must be > 0")
	}
	if a.InitialBackoffMS <= 0 {
		errs = append(errs, "audit.initial_backoff_ms must be > 0")
	}
	if a.MaxBackoffMS < a.InitialBackoffMS {
		errs = append(errs, "audit.max_backoff_ms must be >= audit.initial_backoff_ms")
	}
	if a.WriteTimeoutMS <= 0 {
		errs = append(errs, "audit.write_timeout_ms must be > 0")
	}
	if a.RetentionDays < 0 {
		errs = append(errs, "audit.retention_days must be >= 0")
	}
	if cfg.Batch.Workers < 0 {
		errs = append(errs, "batch.workers must be >= 0")
	}
	if _, err := core.ParseTier(cfg.Notifications.MinTier); err != nil {
		errs = append(errs, "notifications.min_tier: "+err.Error())
	}
	if cfg.Notifications.PollIntervalSecs <= 0 {
		errs = append(errs, "notifications.poll_interval_secs must be > 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// GetValue returns the value at a dotted key (a section or a leaf).
func GetValue(cfg Config, key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	cur := reflect.ValueOf(cfg)
	for _, seg := range strings.Split(key, ".") {
		if cur.Kind() != reflect.Struct {
			return nil, false
		}
		next, ok := fieldByTag(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur.Interface(), true
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tomlName(f reflect.StructField) string {
	tag := f.Tag.Get("toml")
	if tag == "" {
		return strings.ToLower(f.Name)
	}
	return strings.Split(tag, ",")[0]
}

// flatten maps every scalar leaf of cfg to its dotted key.
func flatten(cfg Config) map[string]any {
	out := make(map[string]any)
	var walk func(prefix string, v reflect.Value)
	walk = func(prefix string, v reflect.Value) {
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			key := tomlName(t.Field(i))
			if prefix != "" {
				key = prefix + "." + key
			}
			fv := v.Field(i)
			if fv.Kind() == reflect.Struct {
				walk(key, fv)
				continue
			}
			out[key] = fv.Interface()
		}
	}
	walk("", reflect.ValueOf(cfg))
	return out
}
