// Package model defines the case record — the single mutable entity that
// flows through every pipeline stage — and the closed vocabularies the
// stages write into it.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the run's terminal disposition. Closed set.
type Status string

const (
	StatusReady    Status = "READY"
	StatusNeedInfo Status = "NEED_INFO"
	StatusEscalate Status = "ESCALATE"
)

// ExitCode maps a terminal status to the process exit code contract.
func (s Status) ExitCode() int {
	switch s {
	case StatusReady:
		return 0
	case StatusNeedInfo:
		return 2
	case StatusEscalate:
		return 3
	default:
		return 1
	}
}

// Intent is the request type. Closed set.
type Intent string

const (
	IntentRescore      Intent = "rescore"
	IntentSuppressFlag Intent = "suppress_flag"
	IntentExplainScore Intent = "explain_score"
)

// ValidIntent reports whether s names a supported intent.
func ValidIntent(s string) bool {
	switch Intent(s) {
	case IntentRescore, IntentSuppressFlag, IntentExplainScore:
		return true
	}
	return false
}

// Tier is a banding of the numeric risk score.
type Tier string

const (
	TierLow      Tier = "LOW"
	TierMedium   Tier = "MEDIUM"
	TierHigh     Tier = "HIGH"
	TierCritical Tier = "CRITICAL"
)

// TierRank maps tiers to comparable integers for monotonicity checks.
var TierRank = map[Tier]int{
	TierLow:      0,
	TierMedium:   1,
	TierHigh:     2,
	TierCritical: 3,
}

// Feature field names, in the fixed breakdown order.
const (
	FeatureTxnCount        = "txn_count"
	FeatureAvgTxnAmount    = "avg_txn_amount"
	FeatureHighRiskCountry = "high_risk_country"
)

// Features is the customer feature set. Pointers distinguish an absent
// field from a zero value so missing-field reporting stays exact.
type Features struct {
	TxnCount        *int     `json:"txn_count,omitempty"`
	AvgTxnAmount    *float64 `json:"avg_txn_amount,omitempty"`
	HighRiskCountry *int     `json:"high_risk_country,omitempty"`
}

// Missing returns the names of absent required fields in fixed order.
func (f Features) Missing() []string {
	var missing []string
	if f.TxnCount == nil {
		missing = append(missing, FeatureTxnCount)
	}
	if f.AvgTxnAmount == nil {
		missing = append(missing, FeatureAvgTxnAmount)
	}
	if f.HighRiskCountry == nil {
		missing = append(missing, FeatureHighRiskCountry)
	}
	return missing
}

// Contribution is one feature's share of the risk score.
type Contribution struct {
	Feature    string  `json:"feature"`
	Raw        float64 `json:"raw_value"`
	Normalized float64 `json:"normalized"`
	Weight     float64 `json:"weight"`
	Points     float64 `json:"contribution"`
}

// ReviewAction is a reviewer's decision input.
type ReviewAction string

const (
	ActionApprove ReviewAction = "approve"
	ActionEdit    ReviewAction = "edit"
	ActionReject  ReviewAction = "reject"
)

// ReviewOutcome is the review gate's state. The gate is NOT_TRIGGERED when
// the record carries no Review at all.
type ReviewOutcome string

const (
	ReviewPending  ReviewOutcome = "pending"
	ReviewApproved ReviewOutcome = "approved"
	ReviewEdited   ReviewOutcome = "edited"
	ReviewRejected ReviewOutcome = "rejected"
)

// Resolved reports whether the gate has recorded a decision.
func (o ReviewOutcome) Resolved() bool {
	return o == ReviewApproved || o == ReviewEdited || o == ReviewRejected
}

// Review is the review-gate sub-state, present only on escalated runs.
type Review struct {
	Outcome        ReviewOutcome `json:"outcome"`
	Draft          string        `json:"draft"`
	ReviewerNotes  string        `json:"reviewer_notes"`
	EditedResponse string        `json:"edited_response,omitempty"`
}

// CaseRecord is mutated in place by each stage in pipeline order. One run,
// one record; nothing is shared across runs.
//
// The raw customer identifier is unexported so no serialization path can
// ever emit it. The identity guard reads it once through RawCustomerID and
// clears it after masking.
type CaseRecord struct {
	RunID     string `json:"run_id"`
	Timestamp string `json:"timestamp"`

	rawCustomerID string

	MaskedCustomerID string   `json:"customer_id_masked"`
	Intent           Intent   `json:"intent"`
	Notes            string   `json:"notes"`
	Features         Features `json:"customer_features"`

	RiskScore *float64       `json:"risk_score,omitempty"`
	RiskTier  Tier           `json:"risk_tier,omitempty"`
	Breakdown []Contribution `json:"score_breakdown,omitempty"`

	MissingFields    []string `json:"missing_fields,omitempty"`
	ModerationPassed *bool    `json:"moderation_passed,omitempty"`
	ModerationReason string   `json:"moderation_reason,omitempty"`
	RedactedFields   []string `json:"redacted_fields,omitempty"`

	ToolCalls  int `json:"tool_call_count"`
	ModelCalls int `json:"model_call_count"`

	StagePath  []string `json:"stage_path"`
	RouteLabel string   `json:"route_label,omitempty"`
	Status     Status   `json:"terminal_status,omitempty"`

	Review        *Review `json:"review,omitempty"`
	FinalResponse string  `json:"final_response,omitempty"`

	ModelVersion string   `json:"model_version,omitempty"`
	ModelHash    string   `json:"model_hash,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// NewRunID returns a short upper-case run identifier.
func NewRunID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// UTCNowISO returns the current UTC time in ISO format with Z suffix.
func UTCNowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// NewCaseRecord constructs a fresh record at intake.
func NewCaseRecord(intent Intent, customerID, notes string, features Features) *CaseRecord {
	return &CaseRecord{
		RunID:         NewRunID(),
		Timestamp:     UTCNowISO(),
		rawCustomerID: customerID,
		Intent:        intent,
		Notes:         notes,
		Features:      features,
	}
}

// AppendStage records a visited stage. The path is append-only: it is the
// execution proof in the audit trail.
func (r *CaseRecord) AppendStage(name string) {
	r.StagePath = append(r.StagePath, name)
}

// Terminal reports whether a terminal status has been set.
func (r *CaseRecord) Terminal() bool {
	return r.Status != ""
}

// RawCustomerID exposes the transient raw identifier to the identity guard.
func (r *CaseRecord) RawCustomerID() string {
	return r.rawCustomerID
}

// ClearRaw drops the raw identifier once masking has completed.
func (r *CaseRecord) ClearRaw() {
	r.rawCustomerID = ""
}

// Warn records a non-fatal condition for the audit trail.
func (r *CaseRecord) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
