// Package redact removes patient-identifying information from transcript
// text before any other component — local or remote — is allowed to see it.
//
// Detection is a single ordered regex pass: each rule replaces every match
// with a typed placeholder token of the form [<KIND>_REDACTED], and later
// rules run on the output of earlier ones, so identifiers embedded inside
// larger constructs (a date inside an address line, say) are still caught.
//
// [Redact] is a total function: it never fails, unmatched text passes
// through unchanged, and it is idempotent — placeholder tokens contain no
// digits, no @, and no honorifics, so no rule can match the output of a
// previous pass.
//
// The patterns are best-effort heuristics tuned for US formats. Non-English
// name conventions and international phone or date formats are out of
// scope, matching the system this service fronts.
package redact

import "regexp"

// Kind identifies the category of personal health information a rule detects.
type Kind string

// Supported PHI categories. The string value appears verbatim in the
// placeholder token, e.g. [NAMES_REDACTED].
const (
	KindNames   Kind = "NAMES"
	KindPhone   Kind = "PHONE"
	KindEmail   Kind = "EMAIL"
	KindSSN     Kind = "SSN"
	KindDates   Kind = "DATES"
	KindMRN     Kind = "MRN"
	KindAddress Kind = "ADDRESS"
	KindZIP     Kind = "ZIP"
)

// Kinds lists every PHI category in rule application order.
func Kinds() []Kind {
	return []Kind{
		KindNames, KindPhone, KindEmail, KindSSN,
		KindDates, KindMRN, KindAddress, KindZIP,
	}
}

// Placeholder returns the replacement token for the given kind.
func Placeholder(k Kind) string {
	return "[" + string(k) + "_REDACTED]"
}

// Rule pairs a PHI kind with its compiled pattern. Rules are immutable and
// defined at package initialisation.
type Rule struct {
	Kind    Kind
	Pattern *regexp.Regexp
}

// rules is the fixed, ordered matcher set. Order matters: titled names run
// before addresses so "Dr. Smith" is consumed as a name rather than feeding
// a "... Dr" street-suffix match, and dates run before ZIP codes so year
// fragments are not mistaken for postal codes.
var rules = []Rule{
	{KindNames, regexp.MustCompile(
		`\b(?:Dr|Doctor|Mr|Mrs|Ms|Miss|Prof|Professor)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`)},
	{KindPhone, regexp.MustCompile(
		`(?:\+?1[-.\s]?)?(?:\(\d{3}\)\s?|\d{3}[-.\s])\d{3}[-.\s]?\d{4}\b`)},
	{KindEmail, regexp.MustCompile(
		`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)},
	{KindSSN, regexp.MustCompile(
		`\b\d{3}-\d{2}-\d{4}\b`)},
	{KindDates, regexp.MustCompile(
		`\b\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}\b`)},
	{KindDates, regexp.MustCompile(
		`\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b`)},
	{KindMRN, regexp.MustCompile(
		`(?i)\b(?:MRN|medical record(?:\s+number)?|patient\s+id(?:entifier)?)\s*[:#]?\s*[A-Za-z0-9\-]+`)},
	{KindAddress, regexp.MustCompile(
		`\b\d+\s+(?:[A-Z][A-Za-z]*\s+)+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Place|Pl|Way)\b\.?`)},
	{KindZIP, regexp.MustCompile(
		`\b\d{5}(?:-\d{4})?\b`)},
}

// Rules returns a copy of the ordered rule set. Intended for testing and
// diagnostics; the live set cannot be modified.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Redact replaces every PHI match in text with its kind's placeholder
// token. This must be the first processing step for any transcript text:
// everything downstream (term matching, caching, the annotation backend)
// sees only its output.
func Redact(text string) string {
	if text == "" {
		return text
	}
	for _, r := range rules {
		text = r.Pattern.ReplaceAllString(text, Placeholder(r.Kind))
	}
	return text
}
