package session

import "strings"

// sessionState is the mutable per-session transcript state. Raw utterance
// text exists only in the pending slice, between the speech event that
// carried it and the debounce flush that consumes it; everything retained
// longer than that is redacted. Guarded by the controller's mutex.
type sessionState struct {
	// segments holds the redacted text of committed utterances, in order.
	segments []string

	// partial is the redacted text of the in-progress utterance, replaced
	// wholesale by each partial event.
	partial string

	// pending holds raw final utterances accumulated inside the current
	// debounce window, not yet processed.
	pending []string
}

func newSessionState() *sessionState {
	return &sessionState{}
}

// transcript renders the redacted running transcript: committed segments
// followed by the current partial.
func (s *sessionState) transcript() string {
	if s.partial == "" {
		return strings.Join(s.segments, " ")
	}
	return strings.Join(append(append([]string(nil), s.segments...), s.partial), " ")
}

// wipe zeroes every field explicitly. Clearing pending matters most: it is
// the only place raw text lives.
func (s *sessionState) wipe() {
	for i := range s.pending {
		s.pending[i] = ""
	}
	s.pending = nil
	s.segments = nil
	s.partial = ""
}
