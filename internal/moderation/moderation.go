// Package moderation is the content guard: it classifies scrubbed analyst
// notes as pass/fail for policy-violating content. The primary classifier
// calls a remote verdict endpoint; any failure there degrades to the local
// keyword heuristic. The guard never fails the pipeline — a failing verdict
// is a flag the routing policy consumes, not a halt.
package moderation

import (
	"context"
	"fmt"
	"strings"
)

// Verdict is the pass/fail outcome plus a human-readable reason.
type Verdict struct {
	Passed bool
	Reason string
}

// Classifier produces a verdict for a piece of text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Verdict, error)
}

// Screen runs the content guard over the given notes. Empty notes pass
// trivially. A primary classifier error degrades to the heuristic; the
// returned warning (if non-empty) belongs in the audit trail.
func Screen(ctx context.Context, notes string, primary Classifier) (Verdict, string) {
	if strings.TrimSpace(notes) == "" {
		return Verdict{Passed: true, Reason: "no analyst notes to screen"}, ""
	}

	if primary != nil {
		v, err := primary.Classify(ctx, notes)
		if err == nil {
			return v, ""
		}
		warning := fmt.Sprintf("content guard: remote classifier unavailable, heuristic fallback used: %v", err)
		v, _ = Heuristic{}.Classify(ctx, notes)
		return v, warning
	}

	v, _ := Heuristic{}.Classify(ctx, notes)
	return v, ""
}
