package speech

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// ErrSocketClosed is returned by [Socket.Start] once the websocket stream
// has ended; a closed browser connection cannot be re-established from the
// server side.
var ErrSocketClosed = errors.New("speech: socket stream closed")

// Compile-time interface assertion.
var _ Engine = (*Socket)(nil)

// Socket adapts an accepted websocket connection into an [Engine]. The
// browser extension sends one JSON [Event] per message; the read loop
// forwards them until the connection drops or the Run context ends.
//
// A Socket is single-use: it serves exactly one Start cycle, and a second
// Start reports [ErrSocketClosed]. The session controller interprets that
// as the end of the session rather than a restartable engine fault.
type Socket struct {
	conn *websocket.Conn
	log  *slog.Logger

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
}

// NewSocket wraps conn. The caller keeps ownership of the HTTP handler
// lifetime; the Socket only closes conn through [Socket.Stop].
func NewSocket(conn *websocket.Conn, log *slog.Logger) *Socket {
	if log == nil {
		log = slog.Default()
	}
	return &Socket{conn: conn, log: log}
}

// Start launches the read loop and returns its event channel. The channel
// closes when the connection ends.
func (s *Socket) Start(ctx context.Context) (<-chan Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil, ErrSocketClosed
	}
	s.started = true

	events := make(chan Event)
	go s.readLoop(ctx, events)
	return events, nil
}

// Stop closes the websocket connection, which unblocks the read loop.
// Idempotent.
func (s *Socket) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		err = s.conn.Close(websocket.StatusNormalClosure, "session ended")
	})
	return err
}

func (s *Socket) readLoop(ctx context.Context, events chan<- Event) {
	defer close(events)
	for {
		var ev Event
		if err := wsjson.Read(ctx, s.conn, &ev); err != nil {
			// Normal closure and context cancellation are expected ends;
			// anything else is worth a note. Never log event text.
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure &&
				ctx.Err() == nil {
				s.log.Debug("speech stream read ended", "error", err)
			}
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
