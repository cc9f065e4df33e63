// Package terminology detects domain vocabulary in redacted transcript
// text: clinical terms from an extensible dictionary and medication names
// resolved through a brand/generic alias index.
//
// Matching is substring containment over lowercased text with candidate
// keys ordered by descending length, so multi-word clinical terms
// ("diabetes mellitus") always win over their single-word components
// ("diabetes"). The [Matcher] additionally tracks which terms it has
// already emitted in the current session and suppresses repeats; the
// presentation layer therefore sees each term at most once per call.
//
// An optional phonetic fallback (Double Metaphone candidate filtering
// ranked by Jaro-Winkler similarity) recovers single-word terms the speech
// engine misheard, e.g. "diabeetus" for "diabetes".
package terminology

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one dictionary term with its interpreter-facing metadata.
// The Term field is the canonical lookup key and is stored lowercased.
type Entry struct {
	// Term is the canonical English term, e.g. "diabetes mellitus".
	Term string `yaml:"term"`

	// Translation is the target-language rendering shown to the interpreter.
	Translation string `yaml:"translation"`

	// Phonetic is a pronunciation guide for the translation.
	Phonetic string `yaml:"phonetic"`

	// Definition is a short plain-language explanation.
	Definition string `yaml:"definition"`

	// ImageURL optionally points at an illustrative image.
	ImageURL string `yaml:"image_url,omitempty"`
}

// Dictionary holds term entries keyed by their lowercase canonical term.
// It is not safe for concurrent use on its own; the owning [Matcher]
// serialises access.
type Dictionary struct {
	entries map[string]Entry

	// keys is the entry key set sorted by descending length, rebuilt
	// lazily after mutation. Longest-first ordering is the tie-break that
	// makes multi-word terms win.
	keys  []string
	stale bool
}

// NewDictionary creates a dictionary from the given entries. Entries with
// an empty term are ignored; duplicate keys keep the last entry.
func NewDictionary(entries ...Entry) *Dictionary {
	d := &Dictionary{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		d.Add(e)
	}
	return d
}

// Add inserts or replaces an entry, keyed by the lowercased term. A later
// Add with the same key silently overwrites the earlier entry.
func (d *Dictionary) Add(e Entry) {
	key := strings.ToLower(strings.TrimSpace(e.Term))
	if key == "" {
		return
	}
	e.Term = key
	d.entries[key] = e
	d.stale = true
}

// Clone returns an independent copy of the dictionary. Matchers take
// ownership of their dictionary, so per-session matchers over a shared
// base vocabulary must clone it first.
func (d *Dictionary) Clone() *Dictionary {
	c := &Dictionary{entries: make(map[string]Entry, len(d.entries))}
	for k, e := range d.entries {
		c.entries[k] = e
	}
	c.stale = true
	return c
}

// Lookup returns the entry for term (case-insensitive).
func (d *Dictionary) Lookup(term string) (Entry, bool) {
	e, ok := d.entries[strings.ToLower(strings.TrimSpace(term))]
	return e, ok
}

// Len reports the number of entries.
func (d *Dictionary) Len() int { return len(d.entries) }

// Keys returns all entry keys sorted by descending character length.
// Equal-length keys sort lexicographically so the order is deterministic.
func (d *Dictionary) Keys() []string {
	if d.stale || d.keys == nil {
		d.keys = make([]string, 0, len(d.entries))
		for k := range d.entries {
			d.keys = append(d.keys, k)
		}
		sort.Slice(d.keys, func(i, j int) bool {
			if len(d.keys[i]) != len(d.keys[j]) {
				return len(d.keys[i]) > len(d.keys[j])
			}
			return d.keys[i] < d.keys[j]
		})
		d.stale = false
	}
	return d.keys
}

// dictionaryFile is the on-disk YAML shape for a term dictionary.
type dictionaryFile struct {
	Terms []Entry `yaml:"terms"`
}

// LoadDictionaryFile reads a YAML term dictionary from path. Unknown
// fields are rejected so typos in hand-maintained vocabularies surface at
// startup instead of silently dropping metadata.
func LoadDictionaryFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("terminology: open %q: %w", path, err)
	}
	defer f.Close()

	var file dictionaryFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("terminology: decode %q: %w", path, err)
	}
	return file.Terms, nil
}

// Builtin returns the seed vocabulary shipped with the service. Deployments
// extend it via terminology.dictionaries config files and runtime
// [Matcher.AddCustomTerm] calls.
func Builtin() *Dictionary {
	return NewDictionary(
		Entry{Term: "diabetes mellitus", Translation: "diabetes mellitus", Phonetic: "dee-ah-BEH-tes meh-LEE-tus", Definition: "A chronic condition affecting how the body turns food into energy."},
		Entry{Term: "diabetes", Translation: "diabetes", Phonetic: "dee-ah-BEH-tes", Definition: "High blood sugar over a prolonged period."},
		Entry{Term: "blood pressure", Translation: "presión arterial", Phonetic: "preh-SYON ar-teh-RYAL", Definition: "The pressure of circulating blood against vessel walls."},
		Entry{Term: "hypertension", Translation: "hipertensión", Phonetic: "ee-per-ten-SYON", Definition: "Persistently elevated blood pressure."},
		Entry{Term: "hypotension", Translation: "hipotensión", Phonetic: "ee-po-ten-SYON", Definition: "Abnormally low blood pressure."},
		Entry{Term: "asthma", Translation: "asma", Phonetic: "AHS-mah", Definition: "A condition that narrows and inflames the airways."},
		Entry{Term: "myocardial infarction", Translation: "infarto de miocardio", Phonetic: "een-FAR-toh deh myo-KAR-dyoh", Definition: "A heart attack: blocked blood flow to the heart muscle."},
		Entry{Term: "heart attack", Translation: "ataque cardíaco", Phonetic: "ah-TAH-keh kar-DEE-ah-koh", Definition: "Sudden blockage of blood flow to the heart."},
		Entry{Term: "stroke", Translation: "derrame cerebral", Phonetic: "deh-RRAH-meh seh-reh-BRAHL", Definition: "Interrupted blood supply to part of the brain."},
		Entry{Term: "pneumonia", Translation: "neumonía", Phonetic: "neh-oo-moh-NEE-ah", Definition: "Infection that inflames the air sacs of the lungs."},
		Entry{Term: "anemia", Translation: "anemia", Phonetic: "ah-NEH-mya", Definition: "A shortage of healthy red blood cells."},
		Entry{Term: "arthritis", Translation: "artritis", Phonetic: "ar-TREE-tees", Definition: "Inflammation of one or more joints."},
		Entry{Term: "migraine", Translation: "migraña", Phonetic: "mee-GRAH-nyah", Definition: "A recurring severe headache, often one-sided."},
		Entry{Term: "allergy", Translation: "alergia", Phonetic: "ah-LEHR-hya", Definition: "An immune reaction to a normally harmless substance."},
		Entry{Term: "kidney stones", Translation: "cálculos renales", Phonetic: "KAL-koo-los reh-NAH-les", Definition: "Hard mineral deposits formed in the kidneys."},
		Entry{Term: "appendicitis", Translation: "apendicitis", Phonetic: "ah-pen-dee-SEE-tees", Definition: "Inflammation of the appendix."},
		Entry{Term: "biopsy", Translation: "biopsia", Phonetic: "BYOP-sya", Definition: "Removal of tissue for diagnostic examination."},
		Entry{Term: "ultrasound", Translation: "ecografía", Phonetic: "eh-koh-grah-FEE-ah", Definition: "Imaging that uses high-frequency sound waves."},
		Entry{Term: "vaccination", Translation: "vacunación", Phonetic: "bah-koo-nah-SYON", Definition: "Administration of a vaccine to build immunity."},
		Entry{Term: "anesthesia", Translation: "anestesia", Phonetic: "ah-nes-TEH-sya", Definition: "Medication that prevents pain during procedures."},
	)
}
