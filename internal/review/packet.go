package review

import (
	"fmt"
	"strings"

	"github.com/riskgate/riskgate/internal/model"
	"github.com/riskgate/riskgate/internal/scoring"
)

// Packet is everything a compliance officer needs to decide an escalated
// case: identity (masked only), the score with its explainability
// breakdown, the scrubbed notes, and the draft response under review.
type Packet struct {
	RunID     string
	Timestamp string
	MaskedID  string
	Intent    model.Intent
	Score     *float64
	Tier      model.Tier
	Route     string
	Breakdown []model.Contribution
	Notes     string
	Warnings  []string
	Draft     string
}

// draftResponse is the generated compliance response the officer reviews.
// Deliberately generic: it commits to nothing before a human signs off.
const draftResponse = "Thank you for your patience. We have received your request and it is " +
	"currently being reviewed by one of our compliance officers. This is a standard part " +
	"of our process to ensure your account is protected. Please call us back and a member " +
	"of our team will be happy to walk you through the next steps."

// BuildPacket assembles the review packet from an escalated record.
func BuildPacket(rec *model.CaseRecord) Packet {
	masked := rec.MaskedCustomerID
	if masked == "" {
		masked = "UNKNOWN"
	}
	return Packet{
		RunID:     rec.RunID,
		Timestamp: rec.Timestamp,
		MaskedID:  masked,
		Intent:    rec.Intent,
		Score:     rec.RiskScore,
		Tier:      rec.RiskTier,
		Route:     rec.RouteLabel,
		Breakdown: rec.Breakdown,
		Notes:     rec.Notes,
		Warnings:  rec.Warnings,
		Draft:     draftResponse,
	}
}

// Render formats the packet as plain text for non-interactive display.
func (p Packet) Render() string {
	sep := strings.Repeat("─", 70)
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n  COMPLIANCE REVIEW REQUIRED — HUMAN IN THE LOOP\n%s\n", sep, sep)
	fmt.Fprintf(&b, "  Run ID     : %s\n", p.RunID)
	fmt.Fprintf(&b, "  Timestamp  : %s\n", p.Timestamp)
	fmt.Fprintf(&b, "  Customer   : %s  (masked)\n", p.MaskedID)
	fmt.Fprintf(&b, "  Intent     : %s\n", p.Intent)
	if p.Score != nil {
		fmt.Fprintf(&b, "  Risk Score : %.1f / 100\n", *p.Score)
	} else {
		fmt.Fprintf(&b, "  Risk Score : N/A\n")
	}
	fmt.Fprintf(&b, "  Risk Tier  : %s\n", tierOrUnknown(p.Tier))
	fmt.Fprintf(&b, "  Route      : %s\n%s\n", p.Route, sep)

	if len(p.Breakdown) > 0 && p.Score != nil {
		b.WriteString("  SCORE BREAKDOWN (explainability):\n")
		for _, line := range strings.Split(scoring.Explanation(*p.Score, p.Tier, p.Breakdown), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
		b.WriteString(sep + "\n")
	}

	if strings.TrimSpace(p.Notes) != "" {
		b.WriteString("  ANALYST NOTES (PII-scrubbed):\n")
		for _, line := range strings.Split(strings.TrimSpace(p.Notes), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
		b.WriteString(sep + "\n")
	}

	if len(p.Warnings) > 0 {
		b.WriteString("  WORKFLOW WARNINGS:\n")
		for _, w := range p.Warnings {
			fmt.Fprintf(&b, "    ! %s\n", w)
		}
		b.WriteString(sep + "\n")
	}

	b.WriteString("  DRAFT COMPLIANCE RESPONSE:\n\n")
	for _, line := range strings.Split(p.Draft, "\n") {
		fmt.Fprintf(&b, "    %s\n", line)
	}
	b.WriteString(sep + "\n")

	return b.String()
}

func tierOrUnknown(t model.Tier) string {
	if t == "" {
		return "UNKNOWN"
	}
	return string(t)
}
