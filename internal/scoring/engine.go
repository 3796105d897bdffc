// Package scoring implements the three-feature risk scoring model: a pure
// function from customer features to a 0–100 score, a tier, and a
// per-feature contribution breakdown for explainability. The weights and
// bounds are calibration parameters (see ModelConfig), not code.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/riskgate/riskgate/internal/model"
)

// Result is the outcome of scoring one customer.
type Result struct {
	Score     float64
	Tier      model.Tier
	Breakdown []model.Contribution
	Missing   []string
}

// Score computes the risk score for a single customer feature set.
// Missing required fields short-circuit: no partial score is ever
// produced, Missing carries the exact absent field names in fixed order.
// The same features always yield the identical result — no hidden state.
func Score(features model.Features, cfg *ModelConfig) Result {
	if missing := features.Missing(); len(missing) > 0 {
		return Result{Missing: missing}
	}

	txn := float64(*features.TxnCount)
	amt := *features.AvgTxnAmount
	hrc := float64(*features.HighRiskCountry)

	txnNorm := minmax(txn, cfg.Bounds.TxnCountMin, cfg.Bounds.TxnCountMax)
	amtNorm := minmax(amt, cfg.Bounds.AvgTxnAmountMin, cfg.Bounds.AvgTxnAmountMax)
	if hrc != 0 {
		hrc = 1
	}

	raw := cfg.Weights.TxnCount*txnNorm + cfg.Weights.AvgTxnAmount*amtNorm + cfg.Weights.HighRiskCountry*hrc

	score := round2(clamp(raw*100, 0, 100))

	breakdown := []model.Contribution{
		{
			Feature:    model.FeatureTxnCount,
			Raw:        txn,
			Normalized: round4(txnNorm),
			Weight:     cfg.Weights.TxnCount,
			Points:     round2(txnNorm * cfg.Weights.TxnCount * 100),
		},
		{
			Feature:    model.FeatureAvgTxnAmount,
			Raw:        amt,
			Normalized: round4(amtNorm),
			Weight:     cfg.Weights.AvgTxnAmount,
			Points:     round2(amtNorm * cfg.Weights.AvgTxnAmount * 100),
		},
		{
			Feature:    model.FeatureHighRiskCountry,
			Raw:        hrc,
			Normalized: hrc, // binary, no normalization
			Weight:     cfg.Weights.HighRiskCountry,
			Points:     round2(hrc * cfg.Weights.HighRiskCountry * 100),
		},
	}

	return Result{
		Score:     score,
		Tier:      cfg.tierFor(score),
		Breakdown: breakdown,
	}
}

// Explanation renders the feature-level report shown in the review packet
// and appended to the notes for explain_score requests.
func Explanation(score float64, tier model.Tier, breakdown []model.Contribution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Risk Score   : %.1f / 100\n", score)
	fmt.Fprintf(&b, "Risk Tier    : %s\n\n", tier)
	fmt.Fprintf(&b, "%-22s %10s %12s %8s %14s\n", "Feature", "Raw", "Normalized", "Weight", "Contribution")

	var top model.Contribution
	for _, c := range breakdown {
		fmt.Fprintf(&b, "%-22s %10g %12.4f %8.2f %12.2fpt\n", c.Feature, c.Raw, c.Normalized, c.Weight, c.Points)
		if c.Points > top.Points {
			top = c
		}
	}
	if top.Feature != "" {
		fmt.Fprintf(&b, "\nPrimary driver: %s (%.1fpt of %.1fpt total)", top.Feature, top.Points, score)
	}
	return b.String()
}

func minmax(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return clamp((v-lo)/(hi-lo), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
