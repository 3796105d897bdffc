package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/riskgate/riskgate/internal/config"
	"github.com/riskgate/riskgate/internal/ingest"
	"github.com/riskgate/riskgate/internal/model"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func testRunner(t *testing.T) *Runner {
	t.Helper()
	cfg, hash, err := config.Load("/nonexistent/riskgate.yaml")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return NewRunner(cfg, hash)
}

func lowRiskPayload() *ingest.Payload {
	return &ingest.Payload{
		Intent:     "rescore",
		CustomerID: "CUST-20241107-7842",
		CustomerFeatures: model.Features{
			TxnCount:        intPtr(12),
			AvgTxnAmount:    floatPtr(90.0),
			HighRiskCountry: intPtr(0),
		},
	}
}

func criticalPayload() *ingest.Payload {
	return &ingest.Payload{
		Intent:     "rescore",
		CustomerID: "CUST-20241107-0099",
		CustomerFeatures: model.Features{
			TxnCount:        intPtr(26),
			AvgTxnAmount:    floatPtr(2500.0),
			HighRiskCountry: intPtr(1),
		},
	}
}

func TestRunLowRiskAutoApproves(t *testing.T) {
	r := testRunner(t)
	rec, err := r.Run(context.Background(), lowRiskPayload())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rec.Status != model.StatusReady {
		t.Fatalf("status = %s, want READY", rec.Status)
	}
	if rec.RouteLabel != "low_risk_auto_approved" {
		t.Errorf("route = %q", rec.RouteLabel)
	}
	if rec.Status.ExitCode() != 0 {
		t.Errorf("exit code = %d, want 0", rec.Status.ExitCode())
	}

	wantPath := []string{StageIntake, StageIdentityGuard, StageContentGuard, StageScoring, StageRouting, StageOutput}
	if got := strings.Join(rec.StagePath, ","); got != strings.Join(wantPath, ",") {
		t.Errorf("stage path = %v, want %v", rec.StagePath, wantPath)
	}

	if rec.RiskScore == nil || *rec.RiskScore != 6.41 {
		t.Errorf("score = %v, want 6.41", rec.RiskScore)
	}
	if rec.RiskTier != model.TierLow {
		t.Errorf("tier = %s, want LOW", rec.RiskTier)
	}
	if rec.MaskedCustomerID != "****************42" {
		t.Errorf("masked id = %q", rec.MaskedCustomerID)
	}
	if !strings.Contains(rec.FinalResponse, "re-scored") || !strings.Contains(rec.FinalResponse, rec.MaskedCustomerID) {
		t.Errorf("final response = %q", rec.FinalResponse)
	}
	if rec.ToolCalls != 1 {
		t.Errorf("tool calls = %d, want 1", rec.ToolCalls)
	}
	if rec.ModelVersion == "" || !strings.HasPrefix(rec.ModelHash, "sha256:") {
		t.Errorf("model provenance missing: %q %q", rec.ModelVersion, rec.ModelHash)
	}
}

// The raw identifier must be cleared after masking and must never appear
// in any serialized form of the record.
func TestRunNeverLeaksRawID(t *testing.T) {
	r := testRunner(t)
	p := lowRiskPayload()
	rec, err := r.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rec.RawCustomerID() != "" {
		t.Errorf("raw id still on record after run")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), p.CustomerID) {
		t.Errorf("raw customer id leaked into serialized record")
	}
}

func TestRunCriticalEscalatesThroughReview(t *testing.T) {
	r := testRunner(t)
	rec, err := r.Run(context.Background(), criticalPayload())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rec.Status != model.StatusEscalate || rec.RouteLabel != "critical_risk_auto_escalate" {
		t.Fatalf("disposition = (%s, %s)", rec.Status, rec.RouteLabel)
	}
	if rec.RiskScore == nil || *rec.RiskScore != 55.89 {
		t.Errorf("score = %v, want 55.89", rec.RiskScore)
	}
	if !strings.Contains(strings.Join(rec.StagePath, ","), StageReview) {
		t.Errorf("escalation must pass the review gate, path = %v", rec.StagePath)
	}
	if rec.Review == nil || rec.Review.Outcome != model.ReviewApproved {
		t.Fatalf("review = %+v, want auto-approved", rec.Review)
	}
	if rec.FinalResponse != rec.Review.Draft {
		t.Errorf("auto-approved run must publish the draft")
	}
	if rec.Status.ExitCode() != 3 {
		t.Errorf("exit code = %d, want 3", rec.Status.ExitCode())
	}
}

func TestRunIntakeFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload *ingest.Payload
		route   string
	}{
		{"invalid intent", &ingest.Payload{Intent: "reschedule", CustomerID: "C001"}, RouteInvalidIntent},
		{"missing customer id", &ingest.Payload{Intent: "rescore"}, RouteMissingCustomerID},
	}

	for _, tt := range tests {
		r := testRunner(t)
		rec, err := r.Run(context.Background(), tt.payload)
		if err != nil {
			t.Fatalf("%s: Run: %v", tt.name, err)
		}
		if rec.Status != model.StatusNeedInfo || rec.RouteLabel != tt.route {
			t.Errorf("%s: disposition = (%s, %s), want (NEED_INFO, %s)", tt.name, rec.Status, rec.RouteLabel, tt.route)
		}
		wantPath := StageIntake + "," + StageOutput
		if got := strings.Join(rec.StagePath, ","); got != wantPath {
			t.Errorf("%s: early termination must skip straight to output, path = %v", tt.name, rec.StagePath)
		}
		if rec.FinalResponse == "" {
			t.Errorf("%s: every path must produce a client-facing response", tt.name)
		}
	}
}

func TestRunMissingFeatures(t *testing.T) {
	r := testRunner(t)
	p := &ingest.Payload{
		Intent:     "rescore",
		CustomerID: "C008",
		CustomerFeatures: model.Features{
			TxnCount: intPtr(5),
		},
	}
	rec, err := r.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rec.Status != model.StatusNeedInfo || rec.RouteLabel != "missing_features" {
		t.Fatalf("disposition = (%s, %s)", rec.Status, rec.RouteLabel)
	}
	want := []string{model.FeatureAvgTxnAmount, model.FeatureHighRiskCountry}
	if strings.Join(rec.MissingFields, ",") != strings.Join(want, ",") {
		t.Errorf("missing fields = %v, want %v", rec.MissingFields, want)
	}
	if rec.RiskScore != nil {
		t.Errorf("no partial score may be produced on missing features")
	}
	if !strings.Contains(rec.FinalResponse, "avg_txn_amount") {
		t.Errorf("NEED_INFO response must name the missing fields: %q", rec.FinalResponse)
	}
}

func TestRunModerationFailureEscalates(t *testing.T) {
	r := testRunner(t)
	p := lowRiskPayload()
	p.Notes = "customer asked us to falsify the report"
	rec, err := r.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rec.Status != model.StatusEscalate || rec.RouteLabel != "moderation_failure" {
		t.Fatalf("disposition = (%s, %s), want (ESCALATE, moderation_failure)", rec.Status, rec.RouteLabel)
	}
	if rec.ModerationPassed == nil || *rec.ModerationPassed {
		t.Errorf("moderation_passed = %v, want false", rec.ModerationPassed)
	}
	if rec.Review == nil {
		t.Errorf("moderation escalation must enter the review gate")
	}
}

func TestRunScrubsNotesBeforeScreening(t *testing.T) {
	r := testRunner(t)
	p := lowRiskPayload()
	p.Notes = "analyst reached the customer at 555-123-4567, SSN 123-45-6789 on file"
	rec, err := r.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, leak := range []string{"555-123-4567", "123-45-6789"} {
		if strings.Contains(rec.Notes, leak) {
			t.Errorf("PII %q survived the identity guard", leak)
		}
	}
	if !strings.Contains(rec.Notes, "[REDACTED-SSN]") {
		t.Errorf("scrubbed notes missing marker: %q", rec.Notes)
	}
	joined := strings.Join(rec.RedactedFields, ",")
	if !strings.Contains(joined, "ssn") || !strings.Contains(joined, "phone") {
		t.Errorf("redacted fields = %v", rec.RedactedFields)
	}
}

func TestRunExplainScoreAppendsReport(t *testing.T) {
	r := testRunner(t)
	p := lowRiskPayload()
	p.Intent = "explain_score"
	rec, err := r.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rec.Status != model.StatusReady {
		t.Fatalf("status = %s", rec.Status)
	}
	if !strings.Contains(rec.Notes, "[EXPLAINABILITY REPORT]") {
		t.Errorf("explain_score must attach the report to the notes")
	}
	if !strings.Contains(rec.Notes, "Risk Score   : 6.4 / 100") {
		t.Errorf("report missing rendered score: %q", rec.Notes)
	}
}

func TestRunSuppressFlagDualControl(t *testing.T) {
	r := testRunner(t)
	p := criticalPayload()
	p.Intent = "suppress_flag"
	rec, err := r.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.Status != model.StatusEscalate || rec.RouteLabel != "suppress_flag_escalated" {
		t.Errorf("disposition = (%s, %s), want (ESCALATE, suppress_flag_escalated)", rec.Status, rec.RouteLabel)
	}
}

func TestRenderContainsDisposition(t *testing.T) {
	r := testRunner(t)
	rec, err := r.Run(context.Background(), lowRiskPayload())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := Render(rec)
	for _, want := range []string{"EXECUTION COMPLETE", rec.RunID, "READY", "low_risk_auto_approved", "6.4 / 100"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render missing %q", want)
		}
	}
}
