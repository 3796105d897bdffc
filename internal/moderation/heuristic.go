package moderation

import (
	"context"
	"fmt"
	"strings"
)

// flaggedKeywords are substring stems that fail the heuristic screen.
// Stems (not whole words) so inflections match: "fabricat" catches both
// "fabricate" and "fabricating".
var flaggedKeywords = []string{
	"kill", "threat", "harm", "discriminat", "racist", "sexist",
	"fabricat", "fake", "falsif", "bribe",
}

// Heuristic is the deterministic local fallback classifier. It needs no
// network and never errors.
type Heuristic struct{}

// Classify scans for flagged keyword stems, case-insensitively.
func (Heuristic) Classify(_ context.Context, text string) (Verdict, error) {
	lower := strings.ToLower(text)
	for _, kw := range flaggedKeywords {
		if strings.Contains(lower, kw) {
			return Verdict{
				Passed: false,
				Reason: fmt.Sprintf("flagged by heuristic screen: keyword %q detected", kw),
			}, nil
		}
	}
	return Verdict{Passed: true, Reason: "passed heuristic screen"}, nil
}
