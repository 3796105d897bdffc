// Package config loads the riskgate configuration file: scoring model
// parameters, call-limit ceilings, and the moderation backend. One file,
// one hash — the hash is bound into every audit record so a run can always
// be traced to the exact parameter set that produced it.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/riskgate/riskgate/internal/limits"
	"github.com/riskgate/riskgate/internal/moderation"
	"github.com/riskgate/riskgate/internal/scoring"
)

// Config holds all configurable workflow parameters.
type Config struct {
	Scoring    *scoring.ModelConfig `yaml:"scoring"`
	Limits     limits.Config        `yaml:"limits"`
	Moderation moderation.Config    `yaml:"moderation"`
}

// DefaultConfig returns the built-in configuration matching the reference
// model calibration.
func DefaultConfig() *Config {
	return &Config{
		Scoring: scoring.DefaultModel(),
		Limits:  limits.DefaultConfig(),
	}
}

// DefaultPath returns ~/.riskgate/config.yaml, or "" when no home
// directory can be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".riskgate", "config.yaml")
}

// Load reads configuration from a YAML file and returns it with the
// SHA-256 hash of the raw bytes on disk. Empty path falls back to
// ~/.riskgate/config.yaml. Missing file returns defaults with the hash of
// empty input. Invalid YAML or an invalid scoring model returns an error.
func Load(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields.
	cfg := DefaultConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, "", fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if cfg.Scoring == nil {
		cfg.Scoring = scoring.DefaultModel()
	}
	if err := cfg.Scoring.Validate(); err != nil {
		return nil, "", fmt.Errorf("config: %w", err)
	}

	return cfg, hash, nil
}

// DefaultConfigYAML returns a commented starter file for init-config.
func DefaultConfigYAML() string {
	return `# riskgate configuration
# Generated by: riskgate init-config
#
# Pipeline order (cannot be changed):
#   intake -> identity_guard -> content_guard -> scoring -> routing
#     -> [review gate, escalations only] -> output

# Versioned scoring model. The SHA-256 hash of this file is recorded on
# every run for audit traceability. Weights must sum to 1.0.
scoring:
  version: "2024.11-reference"
  weights:
    txn_count: 0.40
    avg_txn_amount: 0.40
    high_risk_country: 0.20
  bounds:
    txn_count_min: 2
    txn_count_max: 72
    avg_txn_amount_min: 12
    avg_txn_amount_max: 4500
  tiers:
    - {min: 55, tier: CRITICAL}
    - {min: 40, tier: HIGH}
    - {min: 20, tier: MEDIUM}
    - {min: 0, tier: LOW}

# Per-run call ceilings. Breaching either terminates the run as ESCALATE.
limits:
  max_tool_calls: 10
  max_model_calls: 5

# Remote moderation backend (OpenAI-compatible). Leave api_url empty to
# run the keyword heuristic only.
moderation:
  api_url: ""
  api_key: ""
  model: ""
  timeout_seconds: 10
`
}
