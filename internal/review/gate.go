// Package review implements the human-in-the-loop review gate: the
// mandatory decision stage entered when routing escalates a case. The gate
// suspends the pipeline at a single resumption point; whoever supplies the
// decision — an interactive reviewer or the auto-approve policy — resumes
// it identically.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskgate/riskgate/internal/model"
)

// ErrAlreadyResolved guards the gate's single-shot contract: one decision
// per run, no re-entry.
var ErrAlreadyResolved = errors.New("review gate already resolved")

// autoApproveNotes is the explicit marker recorded when no human was in
// the loop.
const autoApproveNotes = "auto-approved, non-interactive"

// Decision is the reviewer's resumption input.
type Decision struct {
	Action model.ReviewAction
	Text   string // replacement response, edit only
	Notes  string // reviewer free text
}

// Decider supplies the decision at the gate's suspension point.
type Decider interface {
	Decide(ctx context.Context, p Packet) (Decision, error)
}

// AutoApprover approves every draft unchanged. Used by non-interactive
// callers (inbox watcher, MCP tools, CI); behaviorally indistinguishable
// from a human pressing approve.
type AutoApprover struct{}

// Decide approves the draft with the non-interactive marker.
func (AutoApprover) Decide(context.Context, Packet) (Decision, error) {
	return Decision{Action: model.ActionApprove, Notes: autoApproveNotes}, nil
}

// Run drives the gate for an escalated record: pending → resolved in one
// pass. It sets the record's review sub-state and final response.
// Non-escalated records pass through untouched.
func Run(ctx context.Context, rec *model.CaseRecord, decider Decider) error {
	if rec.Status != model.StatusEscalate {
		return nil
	}
	if rec.Review != nil && rec.Review.Outcome.Resolved() {
		return fmt.Errorf("run %s: %w", rec.RunID, ErrAlreadyResolved)
	}

	packet := BuildPacket(rec)
	rec.Review = &model.Review{
		Outcome: model.ReviewPending,
		Draft:   packet.Draft,
	}

	decision, err := decider.Decide(ctx, packet)
	if err != nil {
		return fmt.Errorf("review gate: %w", err)
	}

	return Apply(rec, decision)
}

// Apply records a decision onto a pending gate. Exposed separately so
// programmatic drivers can resume a suspended record directly.
func Apply(rec *model.CaseRecord, decision Decision) error {
	if rec.Review == nil {
		return fmt.Errorf("review gate: no pending review on run %s", rec.RunID)
	}
	if rec.Review.Outcome.Resolved() {
		return fmt.Errorf("run %s: %w", rec.RunID, ErrAlreadyResolved)
	}

	rec.Review.ReviewerNotes = decision.Notes

	switch decision.Action {
	case model.ActionApprove:
		rec.Review.Outcome = model.ReviewApproved
		rec.FinalResponse = rec.Review.Draft

	case model.ActionEdit:
		if decision.Text == "" {
			return fmt.Errorf("review gate: edit requires replacement text")
		}
		rec.Review.Outcome = model.ReviewEdited
		// The original draft stays on the record for audit comparison.
		rec.Review.EditedResponse = decision.Text
		rec.FinalResponse = decision.Text

	case model.ActionReject:
		rec.Review.Outcome = model.ReviewRejected
		notes := decision.Notes
		if notes == "" {
			notes = "None provided."
		}
		rec.FinalResponse = fmt.Sprintf(
			"[REJECTED BY REVIEWER] Customer %s: This case has been rejected and flagged "+
				"for further investigation. Notes: %s",
			rec.MaskedCustomerID, notes)

	default:
		return fmt.Errorf("review gate: unknown action %q", decision.Action)
	}

	return nil
}
