// Package mock provides a scripted [speech.Engine] test double.
package mock

import (
	"context"
	"sync"

	"github.com/clarivox/clarivox/internal/speech"
)

// Engine is a scripted speech engine. Tests emit events through [Engine.Emit]
// and end the stream with [Engine.CloseStream]; each Start hands out a
// fresh channel, so a close followed by another Start models an engine
// restart. Safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	// StartErr, when non-nil, is returned by the next Start call.
	StartErr error

	// StartCalls counts Start invocations.
	StartCalls int

	// StopCalls counts Stop invocations.
	StopCalls int

	current chan speech.Event
}

var _ speech.Engine = (*Engine)(nil)

// Start returns a fresh event channel (or StartErr if configured).
func (e *Engine) Start(_ context.Context) (<-chan speech.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.StartCalls++
	if e.StartErr != nil {
		return nil, e.StartErr
	}
	e.current = make(chan speech.Event, 16)
	return e.current, nil
}

// Stop records the call. The stream stays open; use CloseStream to end it.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.StopCalls++
	return nil
}

// Starts returns the number of Start calls so far.
func (e *Engine) Starts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.StartCalls
}

// Emit delivers ev on the current stream. Panics if Start has not been
// called, which in a test is the bug you want to see.
func (e *Engine) Emit(ev speech.Event) {
	e.mu.Lock()
	ch := e.current
	e.mu.Unlock()
	ch <- ev
}

// Partial emits a non-final event with the given text.
func (e *Engine) Partial(text string) {
	e.Emit(speech.Event{Text: text})
}

// Final emits a final event with the given text.
func (e *Engine) Final(text string) {
	e.Emit(speech.Event{Text: text, IsFinal: true})
}

// CloseStream ends the current stream, simulating an engine drop.
func (e *Engine) CloseStream() {
	e.mu.Lock()
	ch := e.current
	e.current = nil
	e.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}
