// Package speech defines the speech-event source feeding a session and
// provides the websocket-backed implementation used by the browser
// extension.
//
// Transcription itself happens upstream (in the browser, via the Web
// Speech API); this package only carries the resulting text events. Raw
// event text is unredacted and must never be logged or persisted.
package speech

import "context"

// Event is one transcription event. Partial events revise the in-progress
// utterance and may be superseded; a final event commits it.
type Event struct {
	// Text is the raw (unredacted) transcript text of the utterance.
	Text string `json:"transcript"`

	// IsFinal marks the utterance as committed by the recognizer.
	IsFinal bool `json:"is_final"`
}

// Engine is a source of transcription events.
//
// Start begins delivery and returns the event channel. The channel is
// closed when the underlying source ends, whether by error or by Stop;
// after a close, Start may be called again only if the implementation
// supports restart. Stop tears the source down and is idempotent.
type Engine interface {
	Start(ctx context.Context) (<-chan Event, error)
	Stop() error
}
