package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/Dicklesworthstone/lifeline/internal/audit"
	"github.com/Dicklesworthstone/lifeline/internal/core"
)

func TestDefaultConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate(DefaultConfig) unexpected error: %v", err)
	}
}

func TestDefaultConfig_MatchesPackageDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if !reflect.DeepEqual(cfg.Scoring.Core(), core.DefaultScoringConfig()) {
		t.Fatalf("scoring defaults drifted:\n%+v\n%+v", cfg.Scoring.Core(), core.DefaultScoringConfig())
	}
	if !reflect.DeepEqual(cfg.Audit.Delivery(), audit.DefaultConfig()) {
		t.Fatalf("audit defaults drifted:\n%+v\n%+v", cfg.Audit.Delivery(), audit.DefaultConfig())
	}
	if cfg.Scoring.SentimentTimeout() != 0 {
		t.Fatalf("sentiment timeout should default to disabled")
	}
}

func TestValidate_Errors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.Locale = "xx"
	cfg.General.LogLevel = "loud"
	cfg.Scoring.HighThreshold = 0.2
	cfg.Scoring.WeightCritical = 2
	cfg.Scoring.SentimentTimeoutMS = -1
	cfg.Audit.QueueSize = 0
	cfg.Audit.Workers = 0
	cfg.Audit.MaxAttempts = 0
	cfg.Audit.MaxBackoffMS = 1
	cfg.Audit.WriteTimeoutMS = 0
	cfg.Audit.RetentionDays = -1
	cfg.Batch.Workers = -1
	cfg.Notifications.MinTier = "urgent"
	cfg.Notifications.PollIntervalSecs = 0

	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "config validation failed") {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"general.locale", "general.log_level", "scoring.", "tier_weights.critical",
		"audit.queue_size", "audit.workers", "audit.max_attempts", "audit.max_backoff_ms",
		"audit.write_timeout_ms", "audit.retention_days", "batch.workers",
		"notifications.min_tier", "notifications.poll_interval_secs",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error does not mention %q: %v", want, err)
		}
	}
}

func TestLoad_Precedence_DefaultsUserProjectEnvFlags(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	project := t.TempDir()

	// User config: 3
	userPath := filepath.Join(home, ".lifeline", "config.toml")
	if err := WriteValue(userPath, "batch.workers", 3); err != nil {
		t.Fatalf("WriteValue user: %v", err)
	}

	// Project config: 4
	projectPath := filepath.Join(project, ".lifeline", "config.toml")
	if err := WriteValue(projectPath, "batch.workers", 4); err != nil {
		t.Fatalf("WriteValue project: %v", err)
	}

	// Env: 5
	t.Setenv("LIFELINE_WORKERS", "5")

	// Flags: 6
	cfg, err := Load(LoadOptions{
		ProjectDir: project,
		FlagOverrides: map[string]any{
			"batch.workers": 6,
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Batch.Workers != 6 {
		t.Fatalf("batch.workers=%d want 6", cfg.Batch.Workers)
	}

	cfg, err = Load(LoadOptions{ProjectDir: project})
	if err != nil {
		t.Fatalf("Load without flags: %v", err)
	}
	if cfg.Batch.Workers != 5 {
		t.Fatalf("batch.workers=%d want 5 from env", cfg.Batch.Workers)
	}
}

func TestLoad_ProjectOverridesUser(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	project := t.TempDir()

	if err := WriteValue(filepath.Join(home, ".lifeline", "config.toml"), "audit.max_attempts", 3); err != nil {
		t.Fatalf("WriteValue user: %v", err)
	}
	if err := WriteValue(filepath.Join(home, ".lifeline", "config.toml"), "general.locale", "uk"); err != nil {
		t.Fatalf("WriteValue user: %v", err)
	}
	if err := WriteValue(filepath.Join(project, ".lifeline", "config.toml"), "audit.max_attempts", 9); err != nil {
		t.Fatalf("WriteValue project: %v", err)
	}

	cfg, err := Load(LoadOptions{ProjectDir: project})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audit.MaxAttempts != 9 {
		t.Fatalf("max_attempts=%d want 9", cfg.Audit.MaxAttempts)
	}
	if cfg.General.Locale != "uk" {
		t.Fatalf("locale=%q want uk from the user file", cfg.General.Locale)
	}
}

func TestLoad_PrefixedEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LIFELINE_SCORING_HIGH_THRESHOLD", "0.65")
	t.Setenv("LIFELINE_LOCALE", "au")

	cfg, err := Load(LoadOptions{ProjectDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scoring.HighThreshold != 0.65 {
		t.Fatalf("high_threshold=%v want 0.65", cfg.Scoring.HighThreshold)
	}
	if cfg.General.Locale != "au" {
		t.Fatalf("locale=%q want au", cfg.General.Locale)
	}
}

func TestLoad_InvalidEnvValueErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LIFELINE_WORKERS", "not-an-int")
	if _, err := Load(LoadOptions{ProjectDir: t.TempDir()}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_InvalidValuesFailValidation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	if err := WriteValue(filepath.Join(project, ".lifeline", "config.toml"), "scoring.critical_threshold", 0.1); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}
	_, err := Load(LoadOptions{ProjectDir: project})
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestLoad_CustomPatternsFromFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "lifeline.toml")
	content := `
[scoring]
sentiment_timeout_ms = 250

[[patterns.custom]]
tier = "high"
pattern = '\bcannot\s+cope\b'
weight = 0.8
description = "Inability to cope"

[[patterns.risk_factors]]
category = "housing"
pattern = '\bevicted\b'
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(LoadOptions{ProjectDir: t.TempDir(), ConfigPath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Patterns.Custom) != 1 || cfg.Patterns.Custom[0].Tier != "high" || cfg.Patterns.Custom[0].Weight != 0.8 {
		t.Fatalf("custom patterns=%+v", cfg.Patterns.Custom)
	}
	if len(cfg.Patterns.RiskFactors) != 1 || cfg.Patterns.RiskFactors[0].Category != "housing" {
		t.Fatalf("risk factors=%+v", cfg.Patterns.RiskFactors)
	}
	if cfg.Scoring.SentimentTimeout() != 250*time.Millisecond {
		t.Fatalf("sentiment timeout=%v", cfg.Scoring.SentimentTimeout())
	}
}

func TestLoad_ProjectDirEmptyUsesCWD(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	project := t.TempDir()

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(cwd)
	})
	if err := os.Chdir(project); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	projectPath := filepath.Join(project, ".lifeline", "config.toml")
	if err := WriteValue(projectPath, "audit.retention_days", 30); err != nil {
		t.Fatalf("WriteValue project: %v", err)
	}

	cfg, err := Load(LoadOptions{ProjectDir: ""})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audit.RetentionDays != 30 {
		t.Fatalf("retention_days=%d want 30", cfg.Audit.RetentionDays)
	}
}

func TestMergeConfigFile(t *testing.T) {
	v := newTestViper()

	// Empty path is a no-op.
	if err := mergeConfigFile(v, ""); err != nil {
		t.Fatalf("mergeConfigFile(empty): %v", err)
	}

	// Missing file is a no-op.
	if err := mergeConfigFile(v, filepath.Join(t.TempDir(), "missing.toml")); err != nil {
		t.Fatalf("mergeConfigFile(missing): %v", err)
	}

	// Directory path is an error.
	if err := mergeConfigFile(v, t.TempDir()); err == nil {
		t.Fatalf("expected error for directory path")
	}

	// Invalid TOML is an error.
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("general = [\n"), 0644); err != nil {
		t.Fatalf("write invalid toml: %v", err)
	}
	if err := mergeConfigFile(v, path); err == nil {
		t.Fatalf("expected error for invalid toml")
	}
}

func newTestViper() *viper.Viper {
	// Defaults are seeded the same way Load does.
	v := viper.New()
	setDefaults(v)
	return v
}

func TestConfigPathsAndProjectConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	u, p := ConfigPaths("/proj", "")
	if u != filepath.Join(home, ".lifeline", "config.toml") {
		t.Fatalf("unexpected user path: %q", u)
	}
	if p != filepath.Join("/proj", ".lifeline", "config.toml") {
		t.Fatalf("unexpected project path: %q", p)
	}

	if got := projectConfigPath("", ""); got != ".lifeline/config.toml" {
		t.Fatalf("projectConfigPath(empty)=%q", got)
	}
	if got := projectConfigPath("/proj", "/override.toml"); got != "/override.toml" {
		t.Fatalf("projectConfigPath(override)=%q", got)
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("audit.max_attempts", "7")
	if err != nil {
		t.Fatalf("ParseValue int: %v", err)
	}
	if v.(int) != 7 {
		t.Fatalf("unexpected value: %#v", v)
	}

	v, err = ParseValue("audit.log_sink", "true")
	if err != nil {
		t.Fatalf("ParseValue bool: %v", err)
	}
	if v.(bool) != true {
		t.Fatalf("unexpected value: %#v", v)
	}

	v, err = ParseValue("scoring.high_threshold", "0.65")
	if err != nil {
		t.Fatalf("ParseValue float: %v", err)
	}
	if v.(float64) != 0.65 {
		t.Fatalf("unexpected value: %#v", v)
	}

	v, err = ParseValue("audit.db_path", "/tmp/audit.db")
	if err != nil {
		t.Fatalf("ParseValue string: %v", err)
	}
	if v.(string) != "/tmp/audit.db" {
		t.Fatalf("unexpected value: %#v", v)
	}

	if _, err := ParseValue("audit.max_attempts", "many"); err == nil {
		t.Fatalf("expected error for non-integer")
	}

	if _, err := parseValueByKind("x", valueKind(123)); err == nil {
		t.Fatalf("expected error for unsupported value kind")
	}

	if _, err := ParseValue("nope.nope", "x"); err == nil {
		t.Fatalf("expected unsupported key error")
	}

	// Table-valued keys are edited in the file, not from the command line.
	if _, err := ParseValue("patterns.custom", "x"); err == nil {
		t.Fatalf("expected patterns.custom to be rejected")
	}
}

func TestSettableKeys(t *testing.T) {
	keys := SettableKeys()
	for _, want := range []string{"general.locale", "scoring.weight_critical", "audit.retention_days", "batch.workers"} {
		found := false
		for _, k := range keys {
			if k == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("SettableKeys missing %q", want)
		}
	}
}

func TestGetValue(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		key  string
		want any
	}{
		{"general.locale", cfg.General.Locale},
		{"general.log_level", cfg.General.LogLevel},

		{"scoring.medium_threshold", cfg.Scoring.MediumThreshold},
		{"scoring.high_threshold", cfg.Scoring.HighThreshold},
		{"scoring.critical_threshold", cfg.Scoring.CriticalThreshold},
		{"scoring.weight_critical", cfg.Scoring.WeightCritical},
		{"scoring.risk_factor_cap", cfg.Scoring.RiskFactorCap},
		{"scoring.crisis_confidence", cfg.Scoring.CrisisConfidence},
		{"scoring.sentiment_timeout_ms", cfg.Scoring.SentimentTimeoutMS},

		{"patterns.custom", cfg.Patterns.Custom},
		{"patterns.risk_factors", cfg.Patterns.RiskFactors},

		{"audit.db_path", cfg.Audit.DBPath},
		{"audit.log_sink", cfg.Audit.LogSink},
		{"audit.queue_size", cfg.Audit.QueueSize},
		{"audit.max_attempts", cfg.Audit.MaxAttempts},
		{"audit.retention_days", cfg.Audit.RetentionDays},

		{"batch.workers", cfg.Batch.Workers},

		{"notifications.desktop_enabled", cfg.Notifications.DesktopEnabled},
		{"notifications.min_tier", cfg.Notifications.MinTier},
		{"notifications.poll_interval_secs", cfg.Notifications.PollIntervalSecs},

		{"general", cfg.General},
		{"scoring", cfg.Scoring},
		{"patterns", cfg.Patterns},
		{"audit", cfg.Audit},
		{"batch", cfg.Batch},
		{"notifications", cfg.Notifications},
	}

	for _, tc := range cases {
		got, ok := GetValue(cfg, tc.key)
		if !ok {
			t.Fatalf("GetValue(%q) not found", tc.key)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("GetValue(%q)=%#v want %#v", tc.key, got, tc.want)
		}
	}

	if _, ok := GetValue(cfg, ""); ok {
		t.Fatalf("expected empty key to be not found")
	}

	badKeys := []string{
		"nope",
		"general.nope",
		"scoring.nope",
		"patterns.nope",
		"audit.nope",
		"batch.nope",
		"general.locale.nope",
	}
	for _, key := range badKeys {
		if _, ok := GetValue(cfg, key); ok {
			t.Fatalf("expected %q to be not found", key)
		}
	}
}

func TestWriteValue(t *testing.T) {
	if err := WriteValue("", "audit.max_attempts", 2); err == nil {
		t.Fatalf("expected error for empty path")
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteValue(path, "audit.max_attempts", 3); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}
	if err := WriteValue(path, "general.locale", "ca"); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []string{"[audit]", "max_attempts = 3", "[general]", `locale = "ca"`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("missing %q in toml: %q", want, string(data))
		}
	}

	// Error when an intermediate segment is not a table.
	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("audit = \"oops\"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteValue(bad, "audit.max_attempts", 2); err == nil {
		t.Fatalf("expected error when audit is not a table")
	}
}

func TestWriteValue_DecodeExistingInvalidTOMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("audit = [\n"), 0644); err != nil {
		t.Fatalf("write invalid toml: %v", err)
	}
	if err := WriteValue(path, "audit.max_attempts", 2); err == nil {
		t.Fatalf("expected decode error")
	} else if !strings.Contains(err.Error(), "decode config") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWriteDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), ".lifeline", "config.toml")
	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	if err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteDefault(path, true); err != nil {
		t.Fatalf("WriteDefault(force): %v", err)
	}

	cfg, err := Load(LoadOptions{ProjectDir: t.TempDir(), ConfigPath: path})
	if err != nil {
		t.Fatalf("Load written defaults: %v", err)
	}
	if cfg.Audit.MaxAttempts != DefaultConfig().Audit.MaxAttempts {
		t.Fatalf("round trip changed max_attempts: %d", cfg.Audit.MaxAttempts)
	}
}
