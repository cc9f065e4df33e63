package units

import (
	"reflect"
	"testing"
)

func TestFeetInches(t *testing.T) {
	cases := map[float64]string{
		1.83: `6'0"`,
		1.75: `5'9"`,
		2.0:  `6'7"`,
		0:    `0'0"`,
	}
	for meters, want := range cases {
		if got := FeetInches(meters); got != want {
			t.Errorf("FeetInches(%v) = %q, want %q", meters, got, want)
		}
	}
}

func TestFeetInches_InchCarry(t *testing.T) {
	// 0.99 m = 3.248 ft → 3 ft + 2.98 in → 3'3", no carry; 1.2182 m is
	// 3.9965 ft, whose 11.96 in remainder rounds to 12 and must carry.
	if got := FeetInches(1.2182); got != `4'0"` {
		t.Errorf(`FeetInches(1.2182) = %q, want 4'0"`, got)
	}
}

func TestPounds(t *testing.T) {
	cases := map[float64]string{
		70:   "154.3",
		100:  "220.5",
		62.5: "137.8",
	}
	for kilos, want := range cases {
		if got := Pounds(kilos); got != want {
			t.Errorf("Pounds(%v) = %q, want %q", kilos, got, want)
		}
	}
}

func TestDetectAndConvert_Height(t *testing.T) {
	got := DetectAndConvert("the patient is 1.83 meters tall")
	want := []Conversion{{
		OriginalText: "1.83 meters",
		Kind:         KindHeight,
		Converted:    `6'0"`,
		UnitLabel:    "ft",
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDetectAndConvert_Weight(t *testing.T) {
	got := DetectAndConvert("weighs 70 kilograms now")
	want := []Conversion{{
		OriginalText: "70 kilograms",
		Kind:         KindWeight,
		Converted:    "154.3",
		UnitLabel:    "lb",
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDetectAndConvert_UnitSpellings(t *testing.T) {
	cases := map[string]Kind{
		"about 2 m off the ground": KindHeight,
		"roughly 1.6 metres":       KindHeight,
		"around 80 kg":             KindWeight,
		"gained 5 kilos":           KindWeight,
		"3 KGS of fluid":           KindWeight,
	}
	for in, kind := range cases {
		got := DetectAndConvert(in)
		if len(got) != 1 {
			t.Errorf("DetectAndConvert(%q) = %d conversions, want 1", in, len(got))
			continue
		}
		if got[0].Kind != kind {
			t.Errorf("DetectAndConvert(%q) kind = %s, want %s", in, got[0].Kind, kind)
		}
	}
}

func TestDetectAndConvert_InputOrder(t *testing.T) {
	got := DetectAndConvert("weighs 70 kilograms and is 1.83 meters tall")
	if len(got) != 2 {
		t.Fatalf("got %d conversions, want 2", len(got))
	}
	if got[0].Kind != KindWeight || got[1].Kind != KindHeight {
		t.Errorf("order = [%s %s], want [weight height]", got[0].Kind, got[1].Kind)
	}
}

func TestDetectAndConvert_NoMatches(t *testing.T) {
	for _, in := range []string{"", "no measurements here", "walked 5 miles"} {
		if got := DetectAndConvert(in); len(got) != 0 {
			t.Errorf("DetectAndConvert(%q) = %+v, want none", in, got)
		}
	}
}

func TestDetectAndConvert_DoesNotMatchBareNumbers(t *testing.T) {
	if got := DetectAndConvert("took 70 milligrams"); len(got) != 0 {
		t.Errorf("got %+v, want none (milligrams is not a mass unit we convert)", got)
	}
}
