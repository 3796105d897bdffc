package redact

import (
	"strings"
	"testing"
)

func TestMaskCustomerID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"CUST-20241107-7842", "****************42"},
		{"C008", "****08"},
		{"C014", "****14"},
		{"AB", "****AB"},
		{"X", "****X"},
		{"", "UNKNOWN"},
	}

	for _, tt := range tests {
		got := MaskCustomerID(tt.id)
		if got != tt.want {
			t.Errorf("MaskCustomerID(%q) = %q, want %q", tt.id, got, tt.want)
		}
		if tt.id != "" && got == tt.id {
			t.Errorf("MaskCustomerID(%q) returned the input unchanged", tt.id)
		}
	}
}

func TestScrubNotesCategories(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     []Category
		leaked   string
	}{
		{
			"ssn",
			"customer SSN is 123-45-6789 on file",
			[]Category{CategorySSN},
			"123-45-6789",
		},
		{
			"email",
			"contact alice.smith@example-bank.com for docs",
			[]Category{CategoryEmail},
			"alice.smith@example-bank.com",
		},
		{
			"phone",
			"call back at (415) 555-0134 tomorrow",
			[]Category{CategoryPhone},
			"555-0134",
		},
		{
			"account number",
			"transfers from 4111111111111111 look structured",
			[]Category{CategoryAccountNum},
			"4111111111111111",
		},
		{
			"multiple categories",
			"SSN 123-45-6789, mail bob@corp.io",
			[]Category{CategorySSN, CategoryEmail},
			"123-45-6789",
		},
		{
			"clean text",
			"routine quarterly review, nothing unusual",
			nil,
			"",
		},
	}

	for _, tt := range tests {
		scrubbed, found := ScrubNotes(tt.text)
		if len(found) != len(tt.want) {
			t.Errorf("%s: categories = %v, want %v", tt.name, found, tt.want)
			continue
		}
		for i := range tt.want {
			if found[i] != tt.want[i] {
				t.Errorf("%s: categories[%d] = %q, want %q", tt.name, i, found[i], tt.want[i])
			}
		}
		if tt.leaked != "" && strings.Contains(scrubbed, tt.leaked) {
			t.Errorf("%s: PII survived scrubbing: %q", tt.name, scrubbed)
		}
		if len(tt.want) > 0 && !strings.Contains(scrubbed, "[REDACTED-") {
			t.Errorf("%s: no redaction marker in %q", tt.name, scrubbed)
		}
	}
}

func TestScrubNotesNormalizesCompatibilityForms(t *testing.T) {
	// Full-width digits normalize to ASCII under NFKC and must still match.
	text := "SSN １２３-４５-６７８９ noted"
	scrubbed, found := ScrubNotes(text)
	if len(found) == 0 {
		t.Fatalf("full-width SSN not detected: %q", scrubbed)
	}
	if found[0] != CategorySSN {
		t.Fatalf("category = %q, want ssn", found[0])
	}
}

func TestScrubNotesMarkerShape(t *testing.T) {
	scrubbed, _ := ScrubNotes("reach me at test@example.com")
	if !strings.Contains(scrubbed, "[REDACTED-EMAIL]") {
		t.Fatalf("marker missing or wrong shape: %q", scrubbed)
	}
}
