package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/riskgate/riskgate/internal/audit"
	"github.com/riskgate/riskgate/internal/ingest"
	"github.com/riskgate/riskgate/internal/model"
)

// --- Input/Output types ---

// FeaturesInput mirrors the customer feature schema. Pointer fields keep
// absent-versus-zero distinct so NEED_INFO reporting stays exact.
type FeaturesInput struct {
	TxnCount        *int     `json:"txn_count,omitempty" jsonschema:"number of transactions in the period"`
	AvgTxnAmount    *float64 `json:"avg_txn_amount,omitempty" jsonschema:"average transaction amount in USD"`
	HighRiskCountry *int     `json:"high_risk_country,omitempty" jsonschema:"1 if the customer is in a high-risk jurisdiction, else 0"`
}

// SubmitInput defines parameters for the riskgate_submit tool.
type SubmitInput struct {
	Intent           string        `json:"intent" jsonschema:"request type: rescore, suppress_flag, or explain_score"`
	CustomerID       string        `json:"customer_id" jsonschema:"customer identifier, masked before any output"`
	Notes            string        `json:"notes,omitempty" jsonschema:"analyst free-text notes"`
	CustomerFeatures FeaturesInput `json:"customer_features,omitempty" jsonschema:"scoring feature set"`
}

// SubmitOutput contains the run's terminal disposition.
type SubmitOutput struct {
	RunID            string   `json:"run_id"`
	Status           string   `json:"status"`
	Route            string   `json:"route"`
	MaskedCustomerID string   `json:"customer_id_masked"`
	RiskScore        *float64 `json:"risk_score,omitempty"`
	RiskTier         string   `json:"risk_tier,omitempty"`
	ReviewOutcome    string   `json:"review_outcome,omitempty"`
	FinalResponse    string   `json:"final_response"`
	Warnings         []string `json:"warnings,omitempty"`
}

// VerifyInput defines parameters for the riskgate_verify tool.
type VerifyInput struct {
	Path string `json:"path,omitempty" jsonschema:"audit log path, defaults to the server's own log"`
}

// VerifyOutput contains the chain verification result.
type VerifyOutput struct {
	Valid     bool   `json:"valid"`
	Lines     int    `json:"lines"`
	Error     string `json:"error,omitempty"`
	ErrorLine int    `json:"error_line,omitempty"`
}

// AuditInput defines parameters for the riskgate_audit tool.
type AuditInput struct {
	RunID  string `json:"run_id,omitempty" jsonschema:"filter to a single run"`
	Status string `json:"status,omitempty" jsonschema:"filter by terminal status: READY, NEED_INFO, or ESCALATE"`
}

// AuditOutput contains the replayed trail.
type AuditOutput struct {
	Entries []audit.Entry       `json:"entries"`
	Summary audit.ReplaySummary `json:"summary"`
}

// --- Handlers ---

func (s *Server) handleSubmit(ctx context.Context, req *mcpsdk.CallToolRequest, input SubmitInput) (*mcpsdk.CallToolResult, SubmitOutput, error) {
	payload := &ingest.Payload{
		Intent:     input.Intent,
		CustomerID: input.CustomerID,
		Notes:      input.Notes,
		CustomerFeatures: model.Features{
			TxnCount:        input.CustomerFeatures.TxnCount,
			AvgTxnAmount:    input.CustomerFeatures.AvgTxnAmount,
			HighRiskCountry: input.CustomerFeatures.HighRiskCountry,
		},
	}
	payload.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.runner.Run(ctx, payload)
	if err != nil {
		return nil, SubmitOutput{}, err
	}

	if err := s.auditLog.RecordRun(rec); err != nil {
		return nil, SubmitOutput{}, fmt.Errorf("audit run %s: %w", rec.RunID, err)
	}
	if s.store != nil {
		if err := s.store.Save(audit.BuildEntry(rec)); err != nil {
			return nil, SubmitOutput{}, fmt.Errorf("store run %s: %w", rec.RunID, err)
		}
	}

	out := SubmitOutput{
		RunID:            rec.RunID,
		Status:           string(rec.Status),
		Route:            rec.RouteLabel,
		MaskedCustomerID: rec.MaskedCustomerID,
		RiskScore:        rec.RiskScore,
		RiskTier:         string(rec.RiskTier),
		FinalResponse:    rec.FinalResponse,
		Warnings:         rec.Warnings,
	}
	if rec.Review != nil {
		out.ReviewOutcome = string(rec.Review.Outcome)
	}
	return nil, out, nil
}

func (s *Server) handleVerify(ctx context.Context, req *mcpsdk.CallToolRequest, input VerifyInput) (*mcpsdk.CallToolResult, VerifyOutput, error) {
	path := input.Path
	if path == "" {
		path = s.auditPath
	}

	res := audit.Verify(path)
	out := VerifyOutput{
		Valid:     res.Valid,
		Lines:     res.Lines,
		Error:     res.Error,
		ErrorLine: res.ErrorLine,
	}
	if !res.Valid {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleAudit(ctx context.Context, req *mcpsdk.CallToolRequest, input AuditInput) (*mcpsdk.CallToolResult, AuditOutput, error) {
	filter := audit.ReplayFilter{
		RunID:  input.RunID,
		Status: model.Status(input.Status),
	}

	result, err := audit.Replay(s.auditPath, filter)
	if err != nil {
		return nil, AuditOutput{}, err
	}
	return nil, AuditOutput{Entries: result.Entries, Summary: result.Summary}, nil
}
