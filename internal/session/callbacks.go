package session

import (
	"github.com/clarivox/clarivox/internal/annotate"
	"github.com/clarivox/clarivox/internal/terminology"
	"github.com/clarivox/clarivox/internal/units"
)

// Severity grades a status notification.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Callbacks delivers pipeline output to the presentation layer. Every
// field is optional; nil callbacks are skipped. Callbacks are invoked
// from the controller's goroutine, so implementations must not block for
// long and must not call back into the controller.
type Callbacks struct {
	// OnTranscriptUpdate receives the redacted running transcript after
	// every partial or final speech event.
	OnTranscriptUpdate func(redacted string)

	// OnMedicationsDetected receives newly detected medications. Each
	// generic name is delivered at most once per session.
	OnMedicationsDetected func(meds []terminology.MedicationEntry)

	// OnConversionsDetected receives unit conversions for the current
	// utterance.
	OnConversionsDetected func(convs []units.Conversion)

	// OnMedicalTermsDetected receives dictionary and AI term detections.
	OnMedicalTermsDetected func(terms []terminology.Detection)

	// OnHighlightsDetected receives AI conversation highlights.
	OnHighlightsDetected func(highlights []annotate.Highlight)

	// OnStatusChange receives human-readable status messages.
	OnStatusChange func(text string, severity Severity)
}

func (cb Callbacks) transcriptUpdate(redacted string) {
	if cb.OnTranscriptUpdate != nil {
		cb.OnTranscriptUpdate(redacted)
	}
}

func (cb Callbacks) medicationsDetected(meds []terminology.MedicationEntry) {
	if cb.OnMedicationsDetected != nil && len(meds) > 0 {
		cb.OnMedicationsDetected(meds)
	}
}

func (cb Callbacks) conversionsDetected(convs []units.Conversion) {
	if cb.OnConversionsDetected != nil && len(convs) > 0 {
		cb.OnConversionsDetected(convs)
	}
}

func (cb Callbacks) medicalTermsDetected(terms []terminology.Detection) {
	if cb.OnMedicalTermsDetected != nil && len(terms) > 0 {
		cb.OnMedicalTermsDetected(terms)
	}
}

func (cb Callbacks) highlightsDetected(highlights []annotate.Highlight) {
	if cb.OnHighlightsDetected != nil && len(highlights) > 0 {
		cb.OnHighlightsDetected(highlights)
	}
}

func (cb Callbacks) statusChange(text string, severity Severity) {
	if cb.OnStatusChange != nil {
		cb.OnStatusChange(text, severity)
	}
}
