// Package route is the deterministic routing policy: a pure function of
// the post-guard, post-scoring record state that assigns the terminal
// status and a machine-readable route label. Ambiguity resolves toward
// escalation — when in doubt, a human looks at it.
package route

import "github.com/riskgate/riskgate/internal/model"

// Route labels. Closed set, one per policy branch.
const (
	RouteCallLimitExceeded  = "call_limit_exceeded"
	RouteModerationFailure  = "moderation_failure"
	RouteMissingFeatures    = "missing_features"
	RouteSuppressEscalated  = "suppress_flag_escalated"
	RouteCriticalEscalate   = "critical_risk_auto_escalate"
	RouteHighEscalate       = "high_risk_escalate"
	RouteSuppressApproved   = "suppress_flag_auto_approved"
	routeAutoApprovedSuffix = "_risk_auto_approved"
)

// Decision is the routing outcome.
type Decision struct {
	Status model.Status
	Route  string
}

// Decide evaluates the routing policy in fixed precedence order — first
// match wins:
//
//  1. call limit exceeded        → ESCALATE
//  2. content guard failed       → ESCALATE
//  3. required features missing  → NEED_INFO
//  4. suppress_flag at HIGH/CRITICAL → ESCALATE (dual control)
//  5. tier CRITICAL              → ESCALATE
//  6. tier HIGH                  → ESCALATE
//  7. otherwise                  → READY, auto-approved
//
// limitExceeded is passed explicitly because the counters live outside the
// record until the orchestrator writes them back.
func Decide(rec *model.CaseRecord, limitExceeded bool) Decision {
	if limitExceeded {
		return Decision{model.StatusEscalate, RouteCallLimitExceeded}
	}

	if rec.ModerationPassed != nil && !*rec.ModerationPassed {
		return Decision{model.StatusEscalate, RouteModerationFailure}
	}

	if len(rec.MissingFields) > 0 {
		return Decision{model.StatusNeedInfo, RouteMissingFeatures}
	}

	// Suppressing a flag on a risky customer always requires a human,
	// regardless of which tier rule would fire next.
	risky := rec.RiskTier == model.TierHigh || rec.RiskTier == model.TierCritical
	if rec.Intent == model.IntentSuppressFlag && risky {
		return Decision{model.StatusEscalate, RouteSuppressEscalated}
	}

	switch rec.RiskTier {
	case model.TierCritical:
		return Decision{model.StatusEscalate, RouteCriticalEscalate}
	case model.TierHigh:
		return Decision{model.StatusEscalate, RouteHighEscalate}
	}

	if rec.Intent == model.IntentSuppressFlag {
		return Decision{model.StatusReady, RouteSuppressApproved}
	}
	return Decision{model.StatusReady, tierLabel(rec.RiskTier) + routeAutoApprovedSuffix}
}

func tierLabel(t model.Tier) string {
	switch t {
	case model.TierLow:
		return "low"
	case model.TierMedium:
		return "medium"
	case model.TierHigh:
		return "high"
	case model.TierCritical:
		return "critical"
	default:
		return "unknown"
	}
}
