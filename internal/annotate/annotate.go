// Package annotate defines the contract with the remote annotation
// backend and provides the HTTP client that speaks it.
//
// The backend is opaque: it receives redacted transcript text plus the
// locally-detected medications and unit conversions, and returns
// AI-sourced term detections and conversation highlights. Only redacted
// text may ever appear in a [Request] — the redaction boundary sits in
// front of this package, not inside it.
package annotate

import (
	"context"

	"github.com/clarivox/clarivox/internal/terminology"
	"github.com/clarivox/clarivox/internal/units"
)

// Request is the wire body for a single annotation call.
type Request struct {
	// Text is the redacted utterance text.
	Text string `json:"text"`

	// Medications lists the generic names detected locally.
	Medications []string `json:"medications,omitempty"`

	// Conversions lists the unit conversions detected locally.
	Conversions []units.Conversion `json:"conversions,omitempty"`

	// UseMedicalAI asks the backend to run its medical model pass.
	UseMedicalAI bool `json:"useMedicalAI"`
}

// Highlight is one AI-sourced conversation highlight.
type Highlight struct {
	// Icon is an optional pictogram hint for the presentation layer.
	Icon string `json:"icon,omitempty"`

	// Text is the highlight body.
	Text string `json:"text"`
}

// Result is the backend's response to a [Request]. Both fields may be
// empty; an empty result is a valid answer, not an error.
type Result struct {
	MedicalTerms []terminology.Detection `json:"medicalTerms,omitempty"`
	Highlights   []Highlight             `json:"highlights,omitempty"`
}

// Client issues annotation calls. Implementations must respect ctx for
// timeout and cancellation — the drain loop aborts slow requests through
// it — and must be safe for concurrent use.
type Client interface {
	Annotate(ctx context.Context, req Request) (*Result, error)
}
