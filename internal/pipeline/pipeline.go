// Package pipeline orchestrates one compliance run: a fixed-order stage
// sequence over a single case record, ending in a terminal disposition.
// Stages mutate the record in place; the append-only stage path is the
// execution proof carried into the audit trail.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskgate/riskgate/internal/config"
	"github.com/riskgate/riskgate/internal/ingest"
	"github.com/riskgate/riskgate/internal/limits"
	"github.com/riskgate/riskgate/internal/model"
	"github.com/riskgate/riskgate/internal/moderation"
	"github.com/riskgate/riskgate/internal/redact"
	"github.com/riskgate/riskgate/internal/review"
	"github.com/riskgate/riskgate/internal/route"
	"github.com/riskgate/riskgate/internal/scoring"
)

// Stage names, in execution order.
const (
	StageIntake        = "intake"
	StageIdentityGuard = "identity_guard"
	StageContentGuard  = "content_guard"
	StageScoring       = "scoring"
	StageRouting       = "routing"
	StageReview        = "review"
	StageOutput        = "output"
)

// Intake-failure route labels. These terminate before the record ever
// reaches the routing policy.
const (
	RouteInvalidIntent     = "invalid_intent"
	RouteMissingCustomerID = "missing_customer_id"
)

// Runner executes the pipeline. One Runner serves many runs; per-run state
// lives on the record and the call tracker.
type Runner struct {
	Config     *config.Config
	ConfigHash string

	// Classifier is the primary content-guard backend; nil means
	// heuristic only.
	Classifier moderation.Classifier

	// Decider resolves the review gate for escalated runs.
	Decider review.Decider
}

// NewRunner wires a runner from loaded configuration. The remote
// moderation classifier is attached only when configured; the review gate
// defaults to auto-approve until a caller installs an interactive decider.
func NewRunner(cfg *config.Config, configHash string) *Runner {
	r := &Runner{
		Config:     cfg,
		ConfigHash: configHash,
		Decider:    review.AutoApprover{},
	}
	// NewRemote returns a typed nil when unconfigured; assigning that to
	// the interface would make it non-nil. Guard explicitly.
	if remote := moderation.NewRemote(cfg.Moderation); remote != nil {
		r.Classifier = remote
	}
	return r
}

// Run executes the full pipeline for one payload and returns the completed
// record. The record is valid (terminal, audit-safe) whenever err is nil;
// a non-nil error means the run could not reach a disposition, e.g. an
// aborted interactive review.
func (r *Runner) Run(ctx context.Context, p *ingest.Payload) (*model.CaseRecord, error) {
	rec := model.NewCaseRecord(model.Intent(p.Intent), p.CustomerID, p.Notes, p.CustomerFeatures)
	rec.ModelVersion = r.Config.Scoring.Version
	rec.ModelHash = r.ConfigHash

	tracker := limits.NewTracker(r.Config.Limits)

	// intake — validate before any processing happens.
	rec.AppendStage(StageIntake)
	if !model.ValidIntent(p.Intent) {
		rec.Warn(fmt.Sprintf("intake: unknown or missing intent %q, valid values: %v", p.Intent, validIntents()))
		rec.Status = model.StatusNeedInfo
		rec.RouteLabel = RouteInvalidIntent
		r.finalize(rec, tracker)
		return rec, nil
	}
	if p.CustomerID == "" {
		rec.Warn("intake: customer_id is required")
		rec.Status = model.StatusNeedInfo
		rec.RouteLabel = RouteMissingCustomerID
		r.finalize(rec, tracker)
		return rec, nil
	}

	// identity_guard — mask the identifier, scrub the notes. The raw ID
	// is gone from the record after this point.
	rec.AppendStage(StageIdentityGuard)
	rec.MaskedCustomerID = redact.MaskCustomerID(rec.RawCustomerID())
	rec.ClearRaw()
	scrubbed, categories := redact.ScrubNotes(rec.Notes)
	rec.Notes = scrubbed
	for _, c := range categories {
		rec.RedactedFields = append(rec.RedactedFields, string(c))
	}

	// content_guard — screen the scrubbed notes. A remote verdict is a
	// model call against the ceiling.
	rec.AppendStage(StageContentGuard)
	if r.Classifier != nil && strings.TrimSpace(rec.Notes) != "" {
		if err := tracker.RecordModelCall(); err != nil {
			return r.abort(rec, tracker, err), nil
		}
	}
	verdict, warning := moderation.Screen(ctx, rec.Notes, r.Classifier)
	rec.ModerationPassed = &verdict.Passed
	rec.ModerationReason = verdict.Reason
	if warning != "" {
		rec.Warn(warning)
	}

	// scoring — one tool call against the ceiling.
	rec.AppendStage(StageScoring)
	if err := tracker.RecordToolCall(); err != nil {
		return r.abort(rec, tracker, err), nil
	}
	res := scoring.Score(rec.Features, r.Config.Scoring)
	if len(res.Missing) > 0 {
		rec.MissingFields = res.Missing
		rec.Warn(fmt.Sprintf("scoring: required fields missing: %s", strings.Join(res.Missing, ", ")))
	} else {
		score := res.Score
		rec.RiskScore = &score
		rec.RiskTier = res.Tier
		rec.Breakdown = res.Breakdown
		if rec.Intent == model.IntentExplainScore {
			rec.Notes = strings.TrimSpace(rec.Notes + "\n\n[EXPLAINABILITY REPORT]\n" +
				scoring.Explanation(res.Score, res.Tier, res.Breakdown))
		}
	}

	// routing — deterministic policy over the accumulated record state.
	rec.AppendStage(StageRouting)
	decision := route.Decide(rec, false)
	rec.Status = decision.Status
	rec.RouteLabel = decision.Route

	// review — escalations only. The gate blocks until resolved.
	if rec.Status == model.StatusEscalate {
		rec.AppendStage(StageReview)
		if err := review.Run(ctx, rec, r.Decider); err != nil {
			return rec, fmt.Errorf("pipeline: run %s: %w", rec.RunID, err)
		}
	}

	r.finalize(rec, tracker)
	return rec, nil
}

// abort terminates a run on a call-limit breach: straight to routing with
// the breach flag set, no review gate — the ceiling exists to stop
// processing, not to queue more of it.
func (r *Runner) abort(rec *model.CaseRecord, tracker *limits.Tracker, cause error) *model.CaseRecord {
	rec.Warn(cause.Error())
	decision := route.Decide(rec, true)
	rec.AppendStage(StageRouting)
	rec.Status = decision.Status
	rec.RouteLabel = decision.Route
	r.finalize(rec, tracker)
	return rec
}

// finalize is the output stage: counters written back, a client-facing
// response guaranteed on every path.
func (r *Runner) finalize(rec *model.CaseRecord, tracker *limits.Tracker) {
	rec.AppendStage(StageOutput)
	rec.ToolCalls = tracker.ToolCalls()
	rec.ModelCalls = tracker.ModelCalls()
	if rec.FinalResponse == "" {
		rec.FinalResponse = defaultResponse(rec)
	}
}

// defaultResponse covers paths that never set a response: READY runs that
// skipped the review gate and NEED_INFO terminations.
func defaultResponse(rec *model.CaseRecord) string {
	cid := rec.MaskedCustomerID
	if cid == "" {
		cid = "UNKNOWN"
	}

	switch rec.Status {
	case model.StatusReady:
		score := 0.0
		if rec.RiskScore != nil {
			score = *rec.RiskScore
		}
		switch rec.Intent {
		case model.IntentRescore:
			return fmt.Sprintf("Customer %s has been re-scored. Risk score: %.1f (%s tier). "+
				"Status: Cleared for normal processing.", cid, score, rec.RiskTier)
		case model.IntentSuppressFlag:
			return fmt.Sprintf("Flag suppression for customer %s has been approved. Risk score: %.1f (%s tier). "+
				"The flag has been suppressed as requested.", cid, score, rec.RiskTier)
		case model.IntentExplainScore:
			return fmt.Sprintf("Score explanation for customer %s: Risk score %.1f (%s tier). "+
				"See score breakdown for feature-level detail.", cid, score, rec.RiskTier)
		}
		return fmt.Sprintf("Request for customer %s processed. Status: READY.", cid)

	case model.StatusNeedInfo:
		missing := "unspecified fields"
		if len(rec.MissingFields) > 0 {
			missing = strings.Join(rec.MissingFields, ", ")
		}
		return fmt.Sprintf("Cannot process request for customer %s. "+
			"Additional information required: %s.", cid, missing)
	}

	return fmt.Sprintf("Request for customer %s completed with status: %s.", cid, rec.Status)
}

func validIntents() []string {
	v := []string{
		string(model.IntentExplainScore),
		string(model.IntentRescore),
		string(model.IntentSuppressFlag),
	}
	sort.Strings(v)
	return v
}

// Render formats a completed run for terminal display.
func Render(rec *model.CaseRecord) string {
	sep := strings.Repeat("═", 70)
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n  RISK COMPLIANCE WORKFLOW — EXECUTION COMPLETE\n%s\n", sep, sep)
	fmt.Fprintf(&b, "  Run ID          : %s\n", rec.RunID)
	fmt.Fprintf(&b, "  Timestamp       : %s\n", rec.Timestamp)
	fmt.Fprintf(&b, "  Customer        : %s\n", rec.MaskedCustomerID)
	fmt.Fprintf(&b, "  Status          : %s\n", rec.Status)
	fmt.Fprintf(&b, "  Route Taken     : %s\n", rec.RouteLabel)
	fmt.Fprintf(&b, "  Stage Path      : %s\n", strings.Join(rec.StagePath, " → "))

	b.WriteString("\n  CLIENT-FACING RESPONSE:\n\n")
	for _, line := range strings.Split(rec.FinalResponse, "\n") {
		fmt.Fprintf(&b, "    %s\n", line)
	}

	if rec.RiskScore != nil {
		fmt.Fprintf(&b, "\n  Risk Score      : %.1f / 100\n", *rec.RiskScore)
		fmt.Fprintf(&b, "  Risk Tier       : %s\n", rec.RiskTier)
	}
	if rec.Review != nil {
		fmt.Fprintf(&b, "  Review Outcome  : %s\n", rec.Review.Outcome)
	}
	if len(rec.Warnings) > 0 {
		fmt.Fprintf(&b, "  Warnings        : %d warning(s) — see audit log\n", len(rec.Warnings))
	}
	fmt.Fprintf(&b, "  Model           : %s (%s)\n", rec.ModelVersion, rec.ModelHash)
	b.WriteString(sep + "\n")

	return b.String()
}
