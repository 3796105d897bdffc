// Package redact is the identity guard: customer-ID masking and PII
// scrubbing of analyst free-text notes. It transforms the record for log
// safety and never decides the terminal status.
package redact

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Category identifies the kind of sensitive data redacted.
type Category string

const (
	CategorySSN        Category = "ssn"
	CategoryEmail      Category = "email"
	CategoryPhone      Category = "phone"
	CategoryAccountNum Category = "account_num"
	CategoryCustomerID Category = "customer_id"
)

// Compiled patterns for PII detection in free text. Order matters: the SSN
// pattern must run before the account-number pattern or the digit groups
// would be consumed as a partial account number.
var scrubPatterns = []struct {
	category Category
	re       *regexp.Regexp
}{
	{CategorySSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{CategoryEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)},
	{CategoryPhone, regexp.MustCompile(`\b(\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
	{CategoryAccountNum, regexp.MustCompile(`\b\d{10,16}\b`)},
}

// MaskCustomerID masks all but the last two characters of a customer ID.
// At least four asterisks are always prepended so the masked form is never
// identical to the original, even for short IDs.
//
//	CUST-20241107-7842 → ****************42
//	C008               → ****08
func MaskCustomerID(id string) string {
	if id == "" {
		return "UNKNOWN"
	}
	visible := 2
	if len(id) < visible {
		visible = len(id)
	}
	stars := len(id) - visible
	if stars < 4 {
		stars = 4
	}
	return strings.Repeat("*", stars) + id[len(id)-visible:]
}

// ScrubNotes removes PII patterns from analyst free text, replacing each
// occurrence with a [REDACTED-<CATEGORY>] marker. Text is NFKC-normalized
// first so full-width or compatibility forms cannot slip past the
// patterns. Returns the scrubbed text and the categories found, in pattern
// order.
func ScrubNotes(text string) (string, []Category) {
	scrubbed := norm.NFKC.String(text)

	var found []Category
	for _, p := range scrubPatterns {
		if !p.re.MatchString(scrubbed) {
			continue
		}
		marker := fmt.Sprintf("[REDACTED-%s]", strings.ToUpper(string(p.category)))
		scrubbed = p.re.ReplaceAllString(scrubbed, marker)
		found = append(found, p.category)
	}
	return scrubbed, found
}
