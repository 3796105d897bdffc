package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/riskgate/riskgate/internal/model"
)

// TimestampFormat is the layout used in audit entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// ReplayFilter holds filtering criteria for trail replay. Zero-value
// fields impose no constraint.
type ReplayFilter struct {
	RunID  string
	Status model.Status
	Intent model.Intent
	From   time.Time
	To     time.Time
}

// ReplaySummary holds disposition counts and metadata for a replayed trail.
type ReplaySummary struct {
	Total          int        `json:"total"`
	ReadyCount     int        `json:"ready_count"`
	NeedInfoCount  int        `json:"need_info_count"`
	EscalateCount  int        `json:"escalate_count"`
	ReviewCount    int        `json:"review_count"`
	FirstTimestamp string     `json:"first_timestamp"`
	LastTimestamp  string     `json:"last_timestamp"`
	MaxTier        model.Tier `json:"max_tier,omitempty"`
}

// ReplayResult holds filtered entries and summary for a trail replay.
type ReplayResult struct {
	Entries []Entry       `json:"entries"`
	Summary ReplaySummary `json:"summary"`
}

// Replay reads the audit log and returns entries matching the filter.
func Replay(path string, filter ReplayFilter) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	result := &ReplayResult{}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines
		}

		if filter.RunID != "" && entry.RunID != filter.RunID {
			continue
		}
		if filter.Status != "" && entry.TerminalStatus != filter.Status {
			continue
		}
		if filter.Intent != "" && entry.Intent != filter.Intent {
			continue
		}

		if !filter.From.IsZero() || !filter.To.IsZero() {
			ts, err := time.Parse(TimestampFormat, entry.Timestamp)
			if err != nil {
				continue // skip unparseable timestamps
			}
			if !filter.From.IsZero() && ts.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && ts.After(filter.To) {
				continue
			}
		}

		result.Entries = append(result.Entries, entry)
		updateSummary(&result.Summary, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	return result, nil
}

func updateSummary(s *ReplaySummary, entry Entry) {
	s.Total++

	switch entry.TerminalStatus {
	case model.StatusReady:
		s.ReadyCount++
	case model.StatusNeedInfo:
		s.NeedInfoCount++
	case model.StatusEscalate:
		s.EscalateCount++
	}

	if entry.ReviewTriggered {
		s.ReviewCount++
	}

	if model.TierRank[entry.RiskTier] > model.TierRank[s.MaxTier] || s.MaxTier == "" {
		if entry.RiskTier != "" {
			s.MaxTier = entry.RiskTier
		}
	}

	if s.FirstTimestamp == "" {
		s.FirstTimestamp = entry.Timestamp
	}
	s.LastTimestamp = entry.Timestamp
}
