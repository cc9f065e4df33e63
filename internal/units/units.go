// Package units detects metric quantities in transcript text and converts
// them to the imperial equivalents US patients and clinicians expect:
// meters to feet and inches, kilograms to pounds.
//
// Detection is pure and stateless — calling it twice on overlapping text
// re-reports the same conversions. De-duplication, when needed, is the
// caller's concern (the session layer keys on a text fingerprint).
package units

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
)

// Kind distinguishes the measurement category of a detected quantity.
type Kind string

const (
	// KindHeight is a length quantity converted to feet and inches.
	KindHeight Kind = "height"

	// KindWeight is a mass quantity converted to pounds.
	KindWeight Kind = "weight"
)

// Conversion is one detected quantity with its imperial rendering.
type Conversion struct {
	// OriginalText is the matched source fragment, e.g. "1.83 meters".
	OriginalText string `json:"originalText"`

	// Kind is the measurement category.
	Kind Kind `json:"kind"`

	// Converted is the display-ready imperial value, e.g. `6'0"` or "154.3".
	Converted string `json:"convertedValue"`

	// UnitLabel names the imperial unit, e.g. "ft" or "lb".
	UnitLabel string `json:"unitLabel"`
}

const (
	feetPerMeter  = 3.28084
	poundsPerKilo = 2.20462
	inchesPerFoot = 12
)

var (
	meterPattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:meters?|metres?|m)\b`)
	kiloPattern  = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:kilograms?|kilos?|kgs?)\b`)
)

// DetectAndConvert scans text for metric height and weight quantities and
// returns one [Conversion] per match, in input order. Numeric literals that
// fail to parse are skipped silently — a malformed number is not an error,
// the match simply produces nothing.
func DetectAndConvert(text string) []Conversion {
	type hit struct {
		start int
		conv  Conversion
	}
	var hits []hit

	collect := func(re *regexp.Regexp, kind Kind) {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			original := text[m[0]:m[1]]
			literal := text[m[2]:m[3]]
			value, err := strconv.ParseFloat(literal, 64)
			if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
				continue
			}
			conv := Conversion{OriginalText: original, Kind: kind}
			switch kind {
			case KindHeight:
				conv.Converted = FeetInches(value)
				conv.UnitLabel = "ft"
			case KindWeight:
				conv.Converted = Pounds(value)
				conv.UnitLabel = "lb"
			}
			hits = append(hits, hit{start: m[0], conv: conv})
		}
	}

	collect(meterPattern, KindHeight)
	collect(kiloPattern, KindWeight)

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	out := make([]Conversion, len(hits))
	for i, h := range hits {
		out[i] = h.conv
	}
	return out
}

// FeetInches converts a length in meters to a feet-and-inches display
// string: whole feet are floored and the remainder is rounded to whole
// inches, so 1.83 m becomes 6.0047 ft and renders as 6'0".
func FeetInches(meters float64) string {
	feet := meters * feetPerMeter
	whole := int(math.Floor(feet))
	inches := int(math.Round((feet - float64(whole)) * inchesPerFoot))
	if inches == inchesPerFoot {
		whole++
		inches = 0
	}
	return fmt.Sprintf(`%d'%d"`, whole, inches)
}

// Pounds converts a mass in kilograms to pounds with one decimal place:
// 70 kg is 154.3234 lb and renders as "154.3".
func Pounds(kilos float64) string {
	return strconv.FormatFloat(kilos*poundsPerKilo, 'f', 1, 64)
}
