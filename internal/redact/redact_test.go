package redact

import (
	"strings"
	"testing"
)

func TestRedact_Phone(t *testing.T) {
	cases := []string{
		"call 555-123-4567 tomorrow",
		"call (555) 123-4567 tomorrow",
		"call 555.123.4567 tomorrow",
		"call +1 555-123-4567 tomorrow",
		"call 1-555-123-4567 tomorrow",
	}
	for _, in := range cases {
		got := Redact(in)
		if !strings.Contains(got, Placeholder(KindPhone)) {
			t.Errorf("Redact(%q) = %q, want phone placeholder", in, got)
		}
		if strings.Contains(got, "555") {
			t.Errorf("Redact(%q) = %q, digits leaked", in, got)
		}
	}
}

func TestRedact_PhoneDoesNotEatClinicalReadings(t *testing.T) {
	in := "blood pressure was 140/90 today"
	got := Redact(in)
	if got != in {
		t.Errorf("Redact(%q) = %q, want unchanged", in, got)
	}
}

func TestRedact_SSN(t *testing.T) {
	got := Redact("my social is 123-45-6789 ok")
	want := "my social is " + Placeholder(KindSSN) + " ok"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRedact_Email(t *testing.T) {
	got := Redact("reach me at jane.doe+test@example.co.uk please")
	if !strings.Contains(got, Placeholder(KindEmail)) {
		t.Errorf("got %q, want email placeholder", got)
	}
	if strings.Contains(got, "@") {
		t.Errorf("got %q, @ leaked", got)
	}
}

func TestRedact_Dates(t *testing.T) {
	cases := []string{
		"seen on 3/15/2024 for follow-up",
		"seen on 03-15-24 for follow-up",
		"seen on March 15th, 2024 for follow-up",
		"seen on Mar 15 for follow-up",
	}
	for _, in := range cases {
		got := Redact(in)
		if !strings.Contains(got, Placeholder(KindDates)) {
			t.Errorf("Redact(%q) = %q, want date placeholder", in, got)
		}
	}
}

func TestRedact_Names(t *testing.T) {
	cases := map[string]string{
		"Dr. Smith will see you":         Placeholder(KindNames) + " will see you",
		"Doctor Jane Smith will see you": Placeholder(KindNames) + " will see you",
		"ask Mrs. Garcia about it":       "ask " + Placeholder(KindNames) + " about it",
	}
	for in, want := range cases {
		if got := Redact(in); got != want {
			t.Errorf("Redact(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRedact_MRN(t *testing.T) {
	cases := []string{
		"MRN: 1234567",
		"medical record number 99-AB-123",
		"patient id #445566",
	}
	for _, in := range cases {
		got := Redact(in)
		if !strings.Contains(got, Placeholder(KindMRN)) {
			t.Errorf("Redact(%q) = %q, want MRN placeholder", in, got)
		}
	}
}

func TestRedact_AddressAndZIP(t *testing.T) {
	got := Redact("lives at 123 Main Street, Springfield 62704")
	if !strings.Contains(got, Placeholder(KindAddress)) {
		t.Errorf("got %q, want address placeholder", got)
	}
	if !strings.Contains(got, Placeholder(KindZIP)) {
		t.Errorf("got %q, want zip placeholder", got)
	}
}

func TestRedact_UnmatchedTextPassesThrough(t *testing.T) {
	in := "the patient reports mild chest pain after exercise"
	if got := Redact(in); got != in {
		t.Errorf("Redact(%q) = %q, want unchanged", in, got)
	}
}

func TestRedact_EmptyInput(t *testing.T) {
	if got := Redact(""); got != "" {
		t.Errorf("Redact(\"\") = %q, want empty", got)
	}
}

// Placeholders contain no digits, no @ and no honorifics, so a second pass
// must be a no-op regardless of input.
func TestRedact_Idempotent(t *testing.T) {
	inputs := []string{
		"Dr. Smith at 555-123-4567, jane@example.com, SSN 123-45-6789",
		"seen 3/15/2024 at 123 Main Street, Springfield 62704, MRN: 778899",
		"blood pressure 140/90, weighs 70 kilograms",
	}
	for _, in := range inputs {
		once := Redact(in)
		twice := Redact(once)
		if once != twice {
			t.Errorf("not idempotent:\n once: %q\ntwice: %q", once, twice)
		}
	}
}

func TestRedact_MixedUtterance(t *testing.T) {
	in := "Dr. Smith called 555-123-4567 about the visit on 3/15/2024; " +
		"the patient with diabetes mellitus had blood pressure 140/90"
	got := Redact(in)

	for _, ph := range []Kind{KindNames, KindPhone, KindDates} {
		if !strings.Contains(got, Placeholder(ph)) {
			t.Errorf("missing %s placeholder in %q", ph, got)
		}
	}
	// Clinical content survives.
	for _, keep := range []string{"diabetes mellitus", "blood pressure 140/90"} {
		if !strings.Contains(got, keep) {
			t.Errorf("clinical text %q lost in %q", keep, got)
		}
	}
}

func TestKinds_MatchesRuleOrder(t *testing.T) {
	kinds := Kinds()
	rules := Rules()
	if len(rules) < len(kinds) {
		t.Fatalf("rules = %d, want at least %d", len(rules), len(kinds))
	}
	seen := make(map[Kind]bool)
	for _, r := range rules {
		seen[r.Kind] = true
	}
	for _, k := range kinds {
		if !seen[k] {
			t.Errorf("kind %s has no rule", k)
		}
	}
}
