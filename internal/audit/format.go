package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReplayResult as a human-readable text timeline.
func FormatTimeline(result *ReplayResult) string {
	if len(result.Entries) == 0 {
		return "No runs found.\n"
	}

	var b strings.Builder

	first := formatDateRange(result.Summary.FirstTimestamp)
	last := formatTimeOnly(result.Summary.LastTimestamp)
	b.WriteString(fmt.Sprintf("Audit trail | %s–%s UTC\n", first, last))
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		ts := formatTimeOnly(e.Timestamp)
		score := "   --"
		if e.RiskScore != nil {
			score = fmt.Sprintf("%5.1f", *e.RiskScore)
		}

		tag := ""
		if e.ReviewTriggered {
			tag = "  [review: " + e.ReviewOutcome + "]"
		}

		b.WriteString(fmt.Sprintf("%-10s %-9s %-14s %-10s %s %-30s%s\n",
			ts, e.RunID, truncate(string(e.Intent), 14), e.TerminalStatus,
			score, truncate(e.RouteTaken, 30), tag))
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))

	return b.String()
}

// FormatJSON renders a ReplayResult as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func formatDateRange(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s ReplaySummary) string {
	parts := []string{}
	if s.ReadyCount > 0 {
		parts = append(parts, fmt.Sprintf("%d ready", s.ReadyCount))
	}
	if s.NeedInfoCount > 0 {
		parts = append(parts, fmt.Sprintf("%d need-info", s.NeedInfoCount))
	}
	if s.EscalateCount > 0 {
		parts = append(parts, fmt.Sprintf("%d escalated", s.EscalateCount))
	}
	if s.ReviewCount > 0 {
		parts = append(parts, fmt.Sprintf("%d reviewed", s.ReviewCount))
	}

	tier := string(s.MaxTier)
	if tier == "" {
		tier = "none"
	}
	return fmt.Sprintf("Summary: %s | Max tier: %s\n", strings.Join(parts, ", "), tier)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
