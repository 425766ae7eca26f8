// Package config holds the linter's policy knobs.
//
// Values resolve in three layers: built-in defaults, then a .wflint.yaml
// file in the working directory, then WFLINT_* environment variables. A
// missing settings file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Casing policy variants for the name-casing rule.
const (
	CasingAllWords CasingPolicy = "all-words-capitalized"
	CasingStandard CasingPolicy = "standard-title-case"
)

type CasingPolicy string

// Concurrency group fallback variants. The two reflect historically
// conflicting conventions, so the choice is policy, not hard-coded.
const (
	ConcurrencyRefName ConcurrencyPattern = "head-ref-or-ref-name"
	ConcurrencyRef     ConcurrencyPattern = "head-ref-or-ref"
)

type ConcurrencyPattern string

// FallbackContext returns the context expression expected alongside
// github.head_ref in a concurrency group.
func (p ConcurrencyPattern) FallbackContext() string {
	if p == ConcurrencyRef {
		return "github.ref"
	}
	return "github.ref_name"
}

// Config is read-only after Load; every rule receives it at registry
// construction time.
type Config struct {
	CasingPolicy       CasingPolicy       `yaml:"casing_policy" env:"WFLINT_CASING_POLICY"`
	ConcurrencyPattern ConcurrencyPattern `yaml:"concurrency_pattern" env:"WFLINT_CONCURRENCY_PATTERN"`
	MaxTimeoutMinutes  int                `yaml:"max_timeout_minutes" env:"WFLINT_MAX_TIMEOUT_MINUTES"`
	MaxRetentionDays   int                `yaml:"max_retention_days" env:"WFLINT_MAX_RETENTION_DAYS"`
	MaxRunLines        int                `yaml:"max_run_lines" env:"WFLINT_MAX_RUN_LINES"`
	RunnerDenySuffix   string             `yaml:"runner_deny_suffix" env:"WFLINT_RUNNER_DENY_SUFFIX"`
	RunnerExemptSuffix string             `yaml:"runner_exempt_suffix" env:"WFLINT_RUNNER_EXEMPT_SUFFIX"`
}

// SettingsFile is the per-directory settings file name.
const SettingsFile = ".wflint.yaml"

// Default returns the built-in policy values.
func Default() Config {
	return Config{
		CasingPolicy:       CasingAllWords,
		ConcurrencyPattern: ConcurrencyRefName,
		MaxTimeoutMinutes:  20,
		MaxRetentionDays:   3,
		MaxRunLines:        10,
		RunnerDenySuffix:   "-latest",
		RunnerExemptSuffix: "-slim",
	}
}

// Load resolves the configuration for dir. Missing file and empty
// environment both leave the defaults untouched.
func Load(dir string) (Config, error) {
	cfg := Default()

	path := filepath.Join(dir, SettingsFile)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("unmarshal %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects unknown policy variants and non-positive limits.
func (c Config) Validate() error {
	switch c.CasingPolicy {
	case CasingAllWords, CasingStandard:
	default:
		return fmt.Errorf("unknown casing_policy %q", c.CasingPolicy)
	}
	switch c.ConcurrencyPattern {
	case ConcurrencyRefName, ConcurrencyRef:
	default:
		return fmt.Errorf("unknown concurrency_pattern %q", c.ConcurrencyPattern)
	}
	if c.MaxTimeoutMinutes <= 0 || c.MaxRetentionDays <= 0 || c.MaxRunLines <= 0 {
		return fmt.Errorf("limits must be positive")
	}
	if c.RunnerDenySuffix == "" {
		return fmt.Errorf("runner_deny_suffix must not be empty")
	}
	return nil
}
