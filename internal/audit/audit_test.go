package audit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/riskgate/riskgate/internal/model"
)

func sampleEntry(runID string, status model.Status) Entry {
	score := 55.89
	return Entry{
		Timestamp:        model.UTCNowISO(),
		RunID:            runID,
		Intent:           model.IntentRescore,
		MaskedCustomerID: "****************42",
		TerminalStatus:   status,
		RouteTaken:       "critical_risk_auto_escalate",
		StagePath:        []string{"intake", "identity_guard", "content_guard", "scoring", "routing", "review", "output"},
		RiskScore:        &score,
		RiskTier:         model.TierCritical,
		ToolCalls:        1,
	}
}

func TestLogChainAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, id := range []string{"RUN00001", "RUN00002", "RUN00003"} {
		if err := log.Record(sampleEntry(id, model.StatusEscalate)); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}
	log.Close()

	res := Verify(path)
	if !res.Valid {
		t.Fatalf("Verify = %+v, want valid", res)
	}
	if res.Lines != 3 {
		t.Errorf("lines = %d, want 3", res.Lines)
	}
}

func TestLogRecoversChainTailOnReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	log, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := log.Record(sampleEntry("RUN00001", model.StatusReady)); err != nil {
		t.Fatal(err)
	}
	log.Close()

	// A second process appending must continue the chain, not restart it.
	log, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := log.Record(sampleEntry("RUN00002", model.StatusReady)); err != nil {
		t.Fatal(err)
	}
	log.Close()

	res := Verify(path)
	if !res.Valid || res.Lines != 2 {
		t.Fatalf("Verify after reopen = %+v", res)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	log, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"RUN00001", "RUN00002", "RUN00003"} {
		if err := log.Record(sampleEntry(id, model.StatusEscalate)); err != nil {
			t.Fatal(err)
		}
	}
	log.Close()

	// Flip the disposition on the middle line.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tampered := strings.Replace(string(data), `"ESCALATE"`, `"READY"`, 2)
	if err := os.WriteFile(path, []byte(tampered), 0600); err != nil {
		t.Fatal(err)
	}

	res := Verify(path)
	if res.Valid {
		t.Fatal("tampered log must not verify")
	}
	if res.ErrorLine == 0 {
		t.Errorf("result must name the broken line: %+v", res)
	}
}

func TestBuildEntryFlattensReview(t *testing.T) {
	rec := &model.CaseRecord{
		RunID:      "RUN00009",
		Timestamp:  model.UTCNowISO(),
		Intent:     model.IntentSuppressFlag,
		Status:     model.StatusEscalate,
		RouteLabel: "suppress_flag_escalated",
		Review: &model.Review{
			Outcome:       model.ReviewRejected,
			ReviewerNotes: "flag stays",
		},
	}

	e := BuildEntry(rec)
	if !e.ReviewTriggered || e.ReviewOutcome != "rejected" || e.ReviewerNotes != "flag stays" {
		t.Errorf("review flattening wrong: %+v", e)
	}
	if e.MaskedCustomerID != "NOT_SET" {
		t.Errorf("unmasked record must surface NOT_SET, got %q", e.MaskedCustomerID)
	}
}

func TestReplayFiltersAndSummarizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	log, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	esc := sampleEntry("RUN00001", model.StatusEscalate)
	esc.ReviewTriggered = true
	esc.ReviewOutcome = "approved"
	ready := sampleEntry("RUN00002", model.StatusReady)
	ready.RiskTier = model.TierLow
	needInfo := sampleEntry("RUN00003", model.StatusNeedInfo)
	needInfo.RiskScore = nil
	needInfo.RiskTier = ""
	for _, e := range []Entry{esc, ready, needInfo} {
		if err := log.Record(e); err != nil {
			t.Fatal(err)
		}
	}
	log.Close()

	all, err := Replay(path, ReplayFilter{})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	s := all.Summary
	if s.Total != 3 || s.ReadyCount != 1 || s.NeedInfoCount != 1 || s.EscalateCount != 1 || s.ReviewCount != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.MaxTier != model.TierCritical {
		t.Errorf("max tier = %s, want CRITICAL", s.MaxTier)
	}

	one, err := Replay(path, ReplayFilter{RunID: "RUN00002"})
	if err != nil {
		t.Fatal(err)
	}
	if len(one.Entries) != 1 || one.Entries[0].RunID != "RUN00002" {
		t.Errorf("run filter = %+v", one.Entries)
	}

	escOnly, err := Replay(path, ReplayFilter{Status: model.StatusEscalate})
	if err != nil {
		t.Fatal(err)
	}
	if len(escOnly.Entries) != 1 {
		t.Errorf("status filter returned %d entries", len(escOnly.Entries))
	}

	timeline := FormatTimeline(all)
	for _, want := range []string{"RUN00001", "ESCALATE", "[review: approved]", "Summary:"} {
		if !strings.Contains(timeline, want) {
			t.Errorf("timeline missing %q", want)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	esc := sampleEntry("RUN00001", model.StatusEscalate)
	ready := sampleEntry("RUN00002", model.StatusReady)
	for _, e := range []Entry{esc, ready} {
		if err := store.Save(e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := store.Get("RUN00001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.RouteTaken != esc.RouteTaken || got.RiskScore == nil || *got.RiskScore != *esc.RiskScore {
		t.Errorf("Get = %+v", got)
	}

	if _, err := store.Get("NOPE0000"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("unknown run error = %v, want ErrRunNotFound", err)
	}

	escalated, err := store.List(model.StatusEscalate, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(escalated) != 1 || escalated[0].RunID != "RUN00001" {
		t.Errorf("List(ESCALATE) = %+v", escalated)
	}

	all, err := store.List("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("List all = %d entries", len(all))
	}
}
