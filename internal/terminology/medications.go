package terminology

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// MedicationEntry is one canonical medication record. Every alias — the
// generic name and each brand name — points at the same record in the
// index.
type MedicationEntry struct {
	// Generic is the generic (INN) name, stored lowercased.
	Generic string `yaml:"generic" json:"generic"`

	// BrandNames lists the trade names the medication is sold under.
	BrandNames []string `yaml:"brand_names" json:"brandNames,omitempty"`

	// Category is the drug class, e.g. "ACE inhibitor".
	Category string `yaml:"category" json:"category"`
}

// MedicationIndex resolves brand or generic medication names found in text
// to their canonical records. The index is read-only after construction
// and safe for concurrent use; per-session de-duplication is handled by
// the session controller.
type MedicationIndex struct {
	byAlias map[string]*MedicationEntry

	// aliases sorted by descending length so longer names win when one
	// alias contains another.
	aliases []string
}

// NewMedicationIndex builds an index over the given entries. Aliases are
// matched case-insensitively; a duplicate alias keeps the last record.
func NewMedicationIndex(entries ...MedicationEntry) *MedicationIndex {
	idx := &MedicationIndex{byAlias: make(map[string]*MedicationEntry)}
	for i := range entries {
		e := entries[i]
		e.Generic = strings.ToLower(strings.TrimSpace(e.Generic))
		if e.Generic == "" {
			continue
		}
		idx.byAlias[e.Generic] = &e
		for _, brand := range e.BrandNames {
			if alias := strings.ToLower(strings.TrimSpace(brand)); alias != "" {
				idx.byAlias[alias] = &e
			}
		}
	}
	idx.aliases = make([]string, 0, len(idx.byAlias))
	for alias := range idx.byAlias {
		idx.aliases = append(idx.aliases, alias)
	}
	sort.Slice(idx.aliases, func(i, j int) bool {
		if len(idx.aliases[i]) != len(idx.aliases[j]) {
			return len(idx.aliases[i]) > len(idx.aliases[j])
		}
		return idx.aliases[i] < idx.aliases[j]
	})
	return idx
}

// Len reports the number of distinct aliases in the index.
func (idx *MedicationIndex) Len() int { return len(idx.byAlias) }

// Lookup resolves a single name (brand or generic, case-insensitive) to
// its canonical record.
func (idx *MedicationIndex) Lookup(name string) (MedicationEntry, bool) {
	e, ok := idx.byAlias[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return MedicationEntry{}, false
	}
	return *e, true
}

// Detect returns the canonical records for every medication alias
// contained in text, longest alias first, de-duplicated by generic name
// within the call. Detect is pure; session-lifetime de-duplication is the
// caller's job.
func (idx *MedicationIndex) Detect(text string) []MedicationEntry {
	if text == "" || len(idx.aliases) == 0 {
		return nil
	}
	lower := strings.ToLower(text)

	var results []MedicationEntry
	emitted := make(map[string]struct{})
	for _, alias := range idx.aliases {
		if !strings.Contains(lower, alias) {
			continue
		}
		e := idx.byAlias[alias]
		if _, dup := emitted[e.Generic]; dup {
			continue
		}
		emitted[e.Generic] = struct{}{}
		results = append(results, *e)
	}
	return results
}

// medicationFile is the on-disk YAML shape for a medication database.
type medicationFile struct {
	Medications []MedicationEntry `yaml:"medications"`
}

// LoadMedicationFile reads a YAML medication database from path.
func LoadMedicationFile(path string) ([]MedicationEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("terminology: open %q: %w", path, err)
	}
	defer f.Close()

	var file medicationFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("terminology: decode %q: %w", path, err)
	}
	return file.Medications, nil
}

// BuiltinMedications returns the seed medication database as an index.
func BuiltinMedications() *MedicationIndex {
	return NewMedicationIndex(BuiltinMedicationEntries()...)
}

// BuiltinMedicationEntries returns the seed medication records, so callers
// merging a configured medication file can build a combined index.
func BuiltinMedicationEntries() []MedicationEntry {
	return []MedicationEntry{
		{Generic: "lisinopril", BrandNames: []string{"Prinivil", "Zestril"}, Category: "ACE inhibitor"},
		{Generic: "metformin", BrandNames: []string{"Glucophage", "Fortamet"}, Category: "biguanide antidiabetic"},
		{Generic: "atorvastatin", BrandNames: []string{"Lipitor"}, Category: "statin"},
		{Generic: "amlodipine", BrandNames: []string{"Norvasc"}, Category: "calcium channel blocker"},
		{Generic: "omeprazole", BrandNames: []string{"Prilosec"}, Category: "proton pump inhibitor"},
		{Generic: "albuterol", BrandNames: []string{"ProAir", "Ventolin", "Proventil"}, Category: "bronchodilator"},
		{Generic: "ibuprofen", BrandNames: []string{"Advil", "Motrin"}, Category: "NSAID"},
		{Generic: "acetaminophen", BrandNames: []string{"Tylenol"}, Category: "analgesic"},
		{Generic: "levothyroxine", BrandNames: []string{"Synthroid", "Levoxyl"}, Category: "thyroid hormone"},
		{Generic: "sertraline", BrandNames: []string{"Zoloft"}, Category: "SSRI antidepressant"},
		{Generic: "insulin glargine", BrandNames: []string{"Lantus", "Basaglar"}, Category: "long-acting insulin"},
		{Generic: "warfarin", BrandNames: []string{"Coumadin", "Jantoven"}, Category: "anticoagulant"},
	}
}
