package scoring

import (
	"fmt"
	"sort"

	"github.com/riskgate/riskgate/internal/model"
)

// Weights are the per-feature multipliers of the linear scoring model.
// They should sum to 1.0; Validate enforces a small tolerance.
type Weights struct {
	TxnCount        float64 `yaml:"txn_count"`
	AvgTxnAmount    float64 `yaml:"avg_txn_amount"`
	HighRiskCountry float64 `yaml:"high_risk_country"`
}

// Bounds are the min-max normalization bounds, derived from the reference
// customer dataset. High-risk-country is binary and needs none.
type Bounds struct {
	TxnCountMin     float64 `yaml:"txn_count_min"`
	TxnCountMax     float64 `yaml:"txn_count_max"`
	AvgTxnAmountMin float64 `yaml:"avg_txn_amount_min"`
	AvgTxnAmountMax float64 `yaml:"avg_txn_amount_max"`
}

// TierThreshold maps a minimum score (0–100 scale) to a tier. Thresholds
// are evaluated highest first; the last one must cover zero.
type TierThreshold struct {
	Min  float64    `yaml:"min"`
	Tier model.Tier `yaml:"tier"`
}

// ModelConfig is the versioned, pluggable scoring parameter set. The exact
// weights are calibration data, not code: they load from YAML and their
// file hash is bound into every audit record.
type ModelConfig struct {
	Version string          `yaml:"version"`
	Weights Weights         `yaml:"weights"`
	Bounds  Bounds          `yaml:"bounds"`
	Tiers   []TierThreshold `yaml:"tiers"`
}

// DefaultModel returns the built-in model matching the reference formula:
// score = 0.4*txn_norm + 0.4*amt_norm + 0.2*high_risk_country, scaled to
// 0–100, with tier cutoffs calibrated so every flagged customer in the
// reference dataset lands in HIGH or CRITICAL.
func DefaultModel() *ModelConfig {
	return &ModelConfig{
		Version: "2024.11-reference",
		Weights: Weights{
			TxnCount:        0.40,
			AvgTxnAmount:    0.40,
			HighRiskCountry: 0.20,
		},
		Bounds: Bounds{
			TxnCountMin:     2,
			TxnCountMax:     72,
			AvgTxnAmountMin: 12,
			AvgTxnAmountMax: 4500,
		},
		Tiers: []TierThreshold{
			{Min: 55, Tier: model.TierCritical},
			{Min: 40, Tier: model.TierHigh},
			{Min: 20, Tier: model.TierMedium},
			{Min: 0, Tier: model.TierLow},
		},
	}
}

// Validate checks structural sanity of a loaded model.
func (c *ModelConfig) Validate() error {
	sum := c.Weights.TxnCount + c.Weights.AvgTxnAmount + c.Weights.HighRiskCountry
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("scoring: weights sum to %.4f, want 1.0", sum)
	}
	if c.Bounds.TxnCountMax <= c.Bounds.TxnCountMin {
		return fmt.Errorf("scoring: txn_count bounds inverted")
	}
	if c.Bounds.AvgTxnAmountMax <= c.Bounds.AvgTxnAmountMin {
		return fmt.Errorf("scoring: avg_txn_amount bounds inverted")
	}
	if len(c.Tiers) == 0 {
		return fmt.Errorf("scoring: no tier thresholds")
	}
	last := c.Tiers[len(c.Tiers)-1]
	if last.Min != 0 {
		return fmt.Errorf("scoring: lowest tier threshold must be 0, got %g", last.Min)
	}
	return nil
}

// tierFor maps a 0–100 score to its tier, highest threshold first.
func (c *ModelConfig) tierFor(score float64) model.Tier {
	tiers := make([]TierThreshold, len(c.Tiers))
	copy(tiers, c.Tiers)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Min > tiers[j].Min })
	for _, t := range tiers {
		if score >= t.Min {
			return t.Tier
		}
	}
	return tiers[len(tiers)-1].Tier
}
