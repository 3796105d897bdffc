package route

import (
	"testing"

	"github.com/riskgate/riskgate/internal/model"
)

func boolPtr(v bool) *bool { return &v }

func rec(intent model.Intent, tier model.Tier) *model.CaseRecord {
	return &model.CaseRecord{Intent: intent, RiskTier: tier, ModerationPassed: boolPtr(true)}
}

func TestDecidePrecedence(t *testing.T) {
	tests := []struct {
		name          string
		rec           *model.CaseRecord
		limitExceeded bool
		status        model.Status
		route         string
	}{
		{
			"call limit beats everything",
			rec(model.IntentRescore, model.TierLow),
			true,
			model.StatusEscalate, RouteCallLimitExceeded,
		},
		{
			"moderation failure beats tier",
			&model.CaseRecord{Intent: model.IntentRescore, RiskTier: model.TierLow, ModerationPassed: boolPtr(false)},
			false,
			model.StatusEscalate, RouteModerationFailure,
		},
		{
			"missing features",
			&model.CaseRecord{Intent: model.IntentRescore, ModerationPassed: boolPtr(true), MissingFields: []string{"avg_txn_amount"}},
			false,
			model.StatusNeedInfo, RouteMissingFeatures,
		},
		{
			"suppress_flag at HIGH escalates with its own route",
			rec(model.IntentSuppressFlag, model.TierHigh),
			false,
			model.StatusEscalate, RouteSuppressEscalated,
		},
		{
			"suppress_flag at CRITICAL escalates with its own route",
			rec(model.IntentSuppressFlag, model.TierCritical),
			false,
			model.StatusEscalate, RouteSuppressEscalated,
		},
		{
			"critical tier escalates",
			rec(model.IntentRescore, model.TierCritical),
			false,
			model.StatusEscalate, RouteCriticalEscalate,
		},
		{
			"high tier escalates",
			rec(model.IntentExplainScore, model.TierHigh),
			false,
			model.StatusEscalate, RouteHighEscalate,
		},
		{
			"low tier auto-approves",
			rec(model.IntentRescore, model.TierLow),
			false,
			model.StatusReady, "low_risk_auto_approved",
		},
		{
			"medium tier auto-approves",
			rec(model.IntentExplainScore, model.TierMedium),
			false,
			model.StatusReady, "medium_risk_auto_approved",
		},
		{
			"suppress_flag at low tier auto-approves with intent route",
			rec(model.IntentSuppressFlag, model.TierLow),
			false,
			model.StatusReady, RouteSuppressApproved,
		},
	}

	for _, tt := range tests {
		d := Decide(tt.rec, tt.limitExceeded)
		if d.Status != tt.status || d.Route != tt.route {
			t.Errorf("%s: Decide = (%s, %s), want (%s, %s)", tt.name, d.Status, d.Route, tt.status, tt.route)
		}
	}
}

// No tier/intent combination at HIGH or CRITICAL may ever produce READY.
func TestHighAndCriticalNeverReady(t *testing.T) {
	intents := []model.Intent{model.IntentRescore, model.IntentSuppressFlag, model.IntentExplainScore}
	for _, tier := range []model.Tier{model.TierHigh, model.TierCritical} {
		for _, intent := range intents {
			d := Decide(rec(intent, tier), false)
			if d.Status != model.StatusEscalate {
				t.Errorf("intent=%s tier=%s: status = %s, want ESCALATE", intent, tier, d.Status)
			}
		}
	}
}

func TestModerationFailureIsSticky(t *testing.T) {
	// A failed content guard must escalate even for an otherwise clean
	// low-tier rescore.
	r := rec(model.IntentRescore, model.TierLow)
	r.ModerationPassed = boolPtr(false)
	d := Decide(r, false)
	if d.Status != model.StatusEscalate || d.Route != RouteModerationFailure {
		t.Fatalf("Decide = (%s, %s), want (ESCALATE, %s)", d.Status, d.Route, RouteModerationFailure)
	}
}
