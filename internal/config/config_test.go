package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, hash, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scoring.Version != "2024.11-reference" {
		t.Errorf("Version = %q, want default", cfg.Scoring.Version)
	}
	if cfg.Limits.MaxToolCalls != 10 || cfg.Limits.MaxModelCalls != 5 {
		t.Errorf("Limits = %+v, want defaults", cfg.Limits)
	}
	// Hash of empty input, so two default-config runs always match.
	if hash != "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("hash = %q, want sha256 of empty input", hash)
	}
}

func TestLoadOverlayKeepsUnspecifiedDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	overlay := `
limits:
  max_model_calls: 2
moderation:
  api_url: https://moderation.internal/v1
`
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, hash, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Limits.MaxModelCalls != 2 {
		t.Errorf("MaxModelCalls = %d, want 2", cfg.Limits.MaxModelCalls)
	}
	if cfg.Limits.MaxToolCalls != 10 {
		t.Errorf("MaxToolCalls = %d, want default 10", cfg.Limits.MaxToolCalls)
	}
	if cfg.Moderation.APIURL != "https://moderation.internal/v1" {
		t.Errorf("APIURL = %q", cfg.Moderation.APIURL)
	}
	if cfg.Scoring.Weights.TxnCount != 0.40 {
		t.Errorf("scoring weights must keep defaults when not overridden")
	}
	if !strings.HasPrefix(hash, "sha256:") || len(hash) != len("sha256:")+64 {
		t.Errorf("hash = %q, want sha256:<64 hex>", hash)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{scoring: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(path); err == nil {
		t.Fatal("invalid YAML must fail")
	}
}

func TestLoadRejectsBrokenModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	broken := `
scoring:
  weights:
    txn_count: 0.9
    avg_txn_amount: 0.9
    high_risk_country: 0.9
`
	if err := os.WriteFile(path, []byte(broken), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(path); err == nil {
		t.Fatal("weights not summing to 1.0 must fail validation")
	}
}

func TestDefaultConfigYAMLRoundTrips(t *testing.T) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(DefaultConfigYAML()), cfg); err != nil {
		t.Fatalf("starter file must parse: %v", err)
	}
	if err := cfg.Scoring.Validate(); err != nil {
		t.Fatalf("starter file must validate: %v", err)
	}
	if cfg.Moderation.TimeoutSeconds != 10 {
		t.Errorf("TimeoutSeconds = %d, want 10", cfg.Moderation.TimeoutSeconds)
	}
}
