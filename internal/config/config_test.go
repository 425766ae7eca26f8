package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load without settings file = %+v, want defaults", cfg)
	}
}

func TestLoadSettingsFile(t *testing.T) {
	dir := t.TempDir()
	settings := []byte(`casing_policy: standard-title-case
max_timeout_minutes: 30
max_run_lines: 5
`)
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), settings, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CasingPolicy != CasingStandard {
		t.Errorf("casing_policy = %q", cfg.CasingPolicy)
	}
	if cfg.MaxTimeoutMinutes != 30 || cfg.MaxRunLines != 5 {
		t.Errorf("limits not applied: %+v", cfg)
	}
	// Untouched keys keep their defaults.
	if cfg.MaxRetentionDays != 3 || cfg.RunnerDenySuffix != "-latest" {
		t.Errorf("defaults clobbered: %+v", cfg)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SettingsFile),
		[]byte("max_retention_days: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WFLINT_MAX_RETENTION_DAYS", "14")
	t.Setenv("WFLINT_CONCURRENCY_PATTERN", "head-ref-or-ref")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxRetentionDays != 14 {
		t.Errorf("env override lost: max_retention_days = %d", cfg.MaxRetentionDays)
	}
	if cfg.ConcurrencyPattern.FallbackContext() != "github.ref" {
		t.Errorf("fallback context = %q", cfg.ConcurrencyPattern.FallbackContext())
	}
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SettingsFile),
		[]byte("casing_policy: shouting-case\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for unknown casing policy")
	}
}

func TestFallbackContextDefault(t *testing.T) {
	if got := ConcurrencyRefName.FallbackContext(); got != "github.ref_name" {
		t.Errorf("FallbackContext = %q", got)
	}
}
