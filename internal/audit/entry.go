// Package audit is the tamper-evident trail boundary: one hash-chained
// JSONL line per completed run, a verifier for the chain, and a queryable
// store. Everything written here is already PII-safe — the identity guard
// ran before any record reaches this package.
package audit

import "github.com/riskgate/riskgate/internal/model"

// Entry is one line in the hash-chained JSONL audit log: the flattened,
// serializable projection of a completed case record.
//
// All fields are concrete types (no map[string]any) to guarantee
// deterministic json.Marshal field order for reproducible hashing. The raw
// customer identifier cannot appear here: the record type never exports it.
type Entry struct {
	Timestamp        string       `json:"ts"`
	RunID            string       `json:"run_id"`
	Intent           model.Intent `json:"intent"`
	MaskedCustomerID string       `json:"customer_id_masked"`

	TerminalStatus model.Status `json:"terminal_status"`
	RouteTaken     string       `json:"route_taken"`
	StagePath      []string     `json:"stage_path"`

	RiskScore *float64   `json:"risk_score,omitempty"`
	RiskTier  model.Tier `json:"risk_tier,omitempty"`

	RedactedFields   []string `json:"pii_fields_redacted,omitempty"`
	ModerationPassed *bool    `json:"moderation_passed,omitempty"`
	ModerationReason string   `json:"moderation_reason,omitempty"`
	MissingFields    []string `json:"missing_fields,omitempty"`

	ReviewTriggered bool   `json:"review_triggered"`
	ReviewOutcome   string `json:"review_outcome,omitempty"`
	ReviewerNotes   string `json:"reviewer_notes,omitempty"`

	ToolCalls  int `json:"tool_call_count"`
	ModelCalls int `json:"model_call_count"`

	ModelVersion string   `json:"model_version,omitempty"`
	ModelHash    string   `json:"model_hash,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`

	PrevHash string `json:"prev_hash"`
}

// BuildEntry flattens a completed record into its audit projection.
func BuildEntry(rec *model.CaseRecord) Entry {
	masked := rec.MaskedCustomerID
	if masked == "" {
		masked = "NOT_SET"
	}

	e := Entry{
		Timestamp:        rec.Timestamp,
		RunID:            rec.RunID,
		Intent:           rec.Intent,
		MaskedCustomerID: masked,
		TerminalStatus:   rec.Status,
		RouteTaken:       rec.RouteLabel,
		StagePath:        rec.StagePath,
		RiskScore:        rec.RiskScore,
		RiskTier:         rec.RiskTier,
		RedactedFields:   rec.RedactedFields,
		ModerationPassed: rec.ModerationPassed,
		ModerationReason: rec.ModerationReason,
		MissingFields:    rec.MissingFields,
		ToolCalls:        rec.ToolCalls,
		ModelCalls:       rec.ModelCalls,
		ModelVersion:     rec.ModelVersion,
		ModelHash:        rec.ModelHash,
		Warnings:         rec.Warnings,
	}

	if rec.Review != nil {
		e.ReviewTriggered = true
		e.ReviewOutcome = string(rec.Review.Outcome)
		e.ReviewerNotes = rec.Review.ReviewerNotes
	}
	return e
}
