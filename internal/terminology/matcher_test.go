package terminology

import (
	"testing"
)

func testDict() *Dictionary {
	return NewDictionary(
		Entry{Term: "diabetes mellitus", Translation: "diabetes mellitus"},
		Entry{Term: "diabetes", Translation: "diabetes"},
		Entry{Term: "blood pressure", Translation: "presión arterial"},
		Entry{Term: "asthma", Translation: "asma"},
	)
}

func englishTerms(ds []Detection) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.English
	}
	return out
}

func TestMatcher_DetectSimple(t *testing.T) {
	m := NewMatcher(testDict())
	got := m.Detect("the patient has asthma")
	if len(got) != 1 || got[0].English != "Asthma" {
		t.Fatalf("got %v, want [Asthma]", englishTerms(got))
	}
	if got[0].Translation != "asma" {
		t.Errorf("Translation = %q, want asma", got[0].Translation)
	}
	if got[0].Source != SourceExact {
		t.Errorf("Source = %q, want %q", got[0].Source, SourceExact)
	}
}

func TestMatcher_CaseInsensitive(t *testing.T) {
	m := NewMatcher(testDict())
	if got := m.Detect("ASTHMA is acting up"); len(got) != 1 {
		t.Errorf("got %v, want one detection", englishTerms(got))
	}
}

func TestMatcher_LongestMatchWins(t *testing.T) {
	m := NewMatcher(testDict())
	got := m.Detect("diagnosed with diabetes mellitus today")
	if len(got) != 1 {
		t.Fatalf("got %v, want exactly one detection", englishTerms(got))
	}
	if got[0].English != "Diabetes mellitus" {
		t.Errorf("English = %q, want the multi-word term", got[0].English)
	}
}

func TestMatcher_ShorterTermStillMatchesElsewhere(t *testing.T) {
	m := NewMatcher(testDict())
	got := m.Detect("diabetes mellitus is a form of diabetes")
	names := englishTerms(got)
	if len(got) != 2 {
		t.Fatalf("got %v, want both terms", names)
	}
	if names[0] != "Diabetes mellitus" || names[1] != "Diabetes" {
		t.Errorf("got %v, want [Diabetes mellitus Diabetes]", names)
	}
}

func TestMatcher_NoDuplicatesAcrossCalls(t *testing.T) {
	m := NewMatcher(testDict())
	if got := m.Detect("asthma again"); len(got) != 1 {
		t.Fatalf("first call: got %v", englishTerms(got))
	}
	if got := m.Detect("still asthma"); len(got) != 0 {
		t.Errorf("second call: got %v, want none", englishTerms(got))
	}
}

func TestMatcher_ResetClearsSeen(t *testing.T) {
	m := NewMatcher(testDict())
	m.Detect("asthma")
	m.Reset()
	if got := m.Detect("asthma"); len(got) != 1 {
		t.Errorf("after Reset: got %v, want one detection", englishTerms(got))
	}
}

func TestMatcher_AddCustomTerm(t *testing.T) {
	m := NewMatcher(testDict())
	m.AddCustomTerm(Entry{Term: "nebulizer", Translation: "nebulizador"})
	got := m.Detect("use the nebulizer twice a day")
	if len(got) != 1 || got[0].English != "Nebulizer" {
		t.Errorf("got %v, want [Nebulizer]", englishTerms(got))
	}
}

func TestMatcher_NoMatches(t *testing.T) {
	m := NewMatcher(testDict())
	if got := m.Detect("nothing clinical here"); len(got) != 0 {
		t.Errorf("got %v, want none", englishTerms(got))
	}
	if got := m.Detect(""); got != nil {
		t.Errorf("empty input: got %v, want nil", englishTerms(got))
	}
}

func TestMatcher_PhoneticFallbackRecoversMisheardTerm(t *testing.T) {
	m := NewMatcher(testDict(), WithPhoneticFallback(true))
	got := m.Detect("the patient has diabeetus")
	if len(got) != 1 || got[0].English != "Diabetes" {
		t.Fatalf("got %v, want [Diabetes]", englishTerms(got))
	}
	if got[0].Source != SourcePhonetic {
		t.Errorf("Source = %q, want %q", got[0].Source, SourcePhonetic)
	}
}

func TestMatcher_PhoneticFallbackOffByDefault(t *testing.T) {
	m := NewMatcher(testDict())
	if got := m.Detect("the patient has diabeetus"); len(got) != 0 {
		t.Errorf("got %v, want none without phonetic fallback", englishTerms(got))
	}
}

func TestMatcher_PhoneticDoesNotDuplicateExactMatch(t *testing.T) {
	m := NewMatcher(testDict(), WithPhoneticFallback(true))
	got := m.Detect("diabetes, or as some say, diabeetus")
	if len(got) != 1 {
		t.Errorf("got %v, want the term exactly once", englishTerms(got))
	}
}

func TestMatcher_PhoneticIgnoresUnrelatedWords(t *testing.T) {
	m := NewMatcher(testDict(), WithPhoneticFallback(true))
	if got := m.Detect("the weather is pleasant outside"); len(got) != 0 {
		t.Errorf("got %v, want none", englishTerms(got))
	}
}
