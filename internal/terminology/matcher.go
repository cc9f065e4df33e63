package terminology

import (
	"strings"
	"sync"
	"unicode"

	"github.com/antzucaro/matchr"
)

const (
	// phoneticSimilarityThreshold is the minimum Jaro-Winkler score for a
	// phonetically-filtered candidate to be accepted as a misheard term.
	phoneticSimilarityThreshold = 0.88

	// phoneticMinTokenLen skips very short tokens, which produce too many
	// spurious Double Metaphone collisions to be useful.
	phoneticMinTokenLen = 4
)

// How a detection matched, carried on [Detection.Source].
const (
	SourceExact    = "exact"
	SourcePhonetic = "phonetic"
)

// Detection is one term found in transcript text, shaped for display and
// for the annotation backend's wire contract.
type Detection struct {
	// English is the canonical term with its first letter capitalised.
	English string `json:"english"`

	Translation string `json:"translation"`
	Phonetic    string `json:"phonetic"`
	Definition  string `json:"definition"`
	ImageURL    string `json:"imageUrl,omitempty"`

	// Source is [SourceExact] or [SourcePhonetic]. Diagnostic only; not
	// part of the wire contract.
	Source string `json:"-"`
}

// MatcherOption configures a [Matcher].
type MatcherOption func(*Matcher)

// WithPhoneticFallback enables the misheard-term recovery pass. Disabled
// by default because it trades a small false-positive risk for recall.
func WithPhoneticFallback(enabled bool) MatcherOption {
	return func(m *Matcher) {
		m.phonetic = enabled
	}
}

// Matcher detects dictionary terms in text, emitting each term at most
// once per session. All methods are safe for concurrent use.
type Matcher struct {
	mu       sync.Mutex
	dict     *Dictionary
	seen     map[string]struct{}
	phonetic bool
}

// NewMatcher creates a matcher over dict. The matcher takes ownership of
// dict; callers extend the vocabulary through [Matcher.AddCustomTerm].
func NewMatcher(dict *Dictionary, opts ...MatcherOption) *Matcher {
	if dict == nil {
		dict = NewDictionary()
	}
	m := &Matcher{
		dict: dict,
		seen: make(map[string]struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Detect scans text for dictionary terms and returns one [Detection] per
// term not previously emitted this session. Candidate keys are tested
// longest-first, and once a multi-word term matches, its component words
// are masked out of the search text so "diabetes mellitus" does not also
// surface "diabetes".
//
// Detect mutates the session's seen set: a second call with text
// containing the same terms returns nothing for them. Use [Matcher.Reset]
// at session boundaries.
func (m *Matcher) Detect(text string) []Detection {
	if text == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lower := strings.ToLower(text)
	var results []Detection

	for _, key := range m.dict.Keys() {
		if !strings.Contains(lower, key) {
			continue
		}
		if _, dup := m.seen[key]; dup {
			// Still mask so shorter substrings of an already-seen term
			// cannot match inside it.
			lower = maskTerm(lower, key)
			continue
		}
		m.seen[key] = struct{}{}
		results = append(results, m.detectionFor(key, SourceExact))
		lower = maskTerm(lower, key)
	}

	if m.phonetic {
		results = append(results, m.phoneticPass(lower)...)
	}

	return results
}

// Reset clears the per-session seen set. Called at session boundaries so a
// new conversation re-announces its vocabulary.
func (m *Matcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = make(map[string]struct{})
}

// AddCustomTerm extends the dictionary at runtime. The entry is keyed by
// its lowercased term; adding an existing key silently replaces it.
func (m *Matcher) AddCustomTerm(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dict.Add(e)
}

// detectionFor builds the display record for a matched key.
// Caller must hold m.mu.
func (m *Matcher) detectionFor(key, source string) Detection {
	e, _ := m.dict.Lookup(key)
	return Detection{
		English:     capitalize(key),
		Translation: e.Translation,
		Phonetic:    e.Phonetic,
		Definition:  e.Definition,
		ImageURL:    e.ImageURL,
		Source:      source,
	}
}

// phoneticPass recovers misheard single-word terms from the residual text
// (exact matches already masked). Each token is filtered by Double
// Metaphone code overlap against single-word dictionary keys, then ranked
// by Jaro-Winkler similarity; the best candidate above the threshold wins.
// Caller must hold m.mu.
func (m *Matcher) phoneticPass(residual string) []Detection {
	var results []Detection

	for _, token := range strings.FieldsFunc(residual, isTokenBoundary) {
		if len(token) < phoneticMinTokenLen {
			continue
		}
		tp, ts := matchr.DoubleMetaphone(token)

		bestScore := 0.0
		bestKey := ""
		for _, key := range m.dict.Keys() {
			if strings.ContainsRune(key, ' ') {
				continue
			}
			if _, dup := m.seen[key]; dup {
				continue
			}
			kp, ks := matchr.DoubleMetaphone(key)
			if !codesOverlap(tp, ts, kp, ks) {
				continue
			}
			if score := matchr.JaroWinkler(token, key, false); score > bestScore {
				bestScore = score
				bestKey = key
			}
		}

		if bestKey != "" && bestScore >= phoneticSimilarityThreshold {
			m.seen[bestKey] = struct{}{}
			results = append(results, m.detectionFor(bestKey, SourcePhonetic))
		}
	}

	return results
}

// maskTerm blanks out every occurrence of key in lower so subsequent
// (shorter) keys cannot match inside an already-consumed span.
func maskTerm(lower, key string) string {
	return strings.ReplaceAll(lower, key, strings.Repeat("\x00", len(key)))
}

// codesOverlap reports whether the two Double Metaphone code pairs share
// at least one non-empty code.
func codesOverlap(ap, as, bp, bs string) bool {
	for _, a := range []string{ap, as} {
		if a == "" {
			continue
		}
		if a == bp || (bs != "" && a == bs) {
			return true
		}
	}
	return false
}

// isTokenBoundary splits residual text into candidate word tokens.
func isTokenBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// capitalize upper-cases the first rune of s for display.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
