package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/clarivox/clarivox/internal/annotate"
	"github.com/clarivox/clarivox/internal/session"
	"github.com/clarivox/clarivox/internal/speech"
	"github.com/clarivox/clarivox/internal/terminology"
	"github.com/clarivox/clarivox/internal/units"
)

// frame is the outbound websocket message envelope. Type discriminates
// the payload shape on the extension side.
type frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Outbound frame types.
const (
	frameTranscript   = "transcript"
	frameMedicalTerms = "medical_terms"
	frameMedications  = "medications"
	frameConversions  = "conversions"
	frameHighlights   = "highlights"
	frameStatus       = "status"
)

// handleStream upgrades the request to a websocket and runs one
// interpretation session over it. The handler returns when the session
// ends, for whatever reason; the controller has wiped all session state
// by then.
func (a *App) handleStream(w http.ResponseWriter, r *http.Request) {
	// The extension connects from an opaque browser-extension origin, so
	// origin checking is no protection here; the server binds loopback
	// instead.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		a.log.Warn("websocket accept failed", "error", err)
		return
	}

	a.log.Info("session connected", "remote", r.RemoteAddr)
	st := &stream{app: a, conn: conn}
	st.run(r.Context())
	a.log.Info("session disconnected", "remote", r.RemoteAddr)
}

// stream is one live websocket session: the connection, a write lock, and
// the pipeline built around it.
type stream struct {
	app  *App
	conn *websocket.Conn

	// writeMu serialises outbound frames; callbacks and the queue result
	// path both write.
	writeMu sync.Mutex
	ctx     context.Context
}

func (s *stream) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.ctx = ctx

	a := s.app
	cfg := a.cfg

	engine := speech.NewSocket(s.conn, a.log)
	cache := session.NewCache(cfg.Pipeline.CacheTTL.Std(), cfg.Pipeline.FingerprintLength)

	var queue *session.Queue
	if a.annotater != nil {
		queue = session.NewQueue(a.annotater, cache,
			session.WithQueueCapacity(cfg.Pipeline.QueueCapacity),
			session.WithDrainDelay(cfg.Pipeline.DrainDelay.Std()),
			session.WithRequestTimeout(cfg.Annotation.RequestTimeout.Std()),
			session.WithMedicalAI(cfg.Annotation.UseMedicalAI),
			session.WithQueueClock(a.clock),
			session.WithQueueLogger(a.log),
			session.WithQueueMetrics(a.metrics),
		)
		go queue.Run(ctx)
	}

	ctrl := session.NewController(session.ControllerConfig{
		Engine:         engine,
		Matcher:        terminology.NewMatcher(a.dict.Clone(), terminology.WithPhoneticFallback(cfg.Pipeline.PhoneticFallback)),
		Medications:    a.meds,
		Cache:          cache,
		Queue:          queue,
		Callbacks:      s.callbacks(),
		DebounceWindow: cfg.Pipeline.DebounceWindow.Std(),
		Clock:          a.clock,
		Logger:         a.log,
		Metrics:        a.metrics,
	})

	if err := ctrl.Run(ctx); err != nil {
		a.log.Warn("session ended with error", "error", err)
	}
}

// callbacks adapts pipeline output into outbound frames.
func (s *stream) callbacks() session.Callbacks {
	return session.Callbacks{
		OnTranscriptUpdate: func(redacted string) {
			s.send(frameTranscript, map[string]string{"text": redacted})
		},
		OnMedicalTermsDetected: func(terms []terminology.Detection) {
			s.send(frameMedicalTerms, terms)
		},
		OnMedicationsDetected: func(meds []terminology.MedicationEntry) {
			s.send(frameMedications, meds)
		},
		OnConversionsDetected: func(convs []units.Conversion) {
			s.send(frameConversions, convs)
		},
		OnHighlightsDetected: func(highlights []annotate.Highlight) {
			s.send(frameHighlights, highlights)
		},
		OnStatusChange: func(text string, severity session.Severity) {
			s.send(frameStatus, map[string]string{
				"text":     text,
				"severity": string(severity),
			})
		},
	}
}

// send writes one frame. Write errors end the session through the read
// side anyway, so they are only logged at debug level.
func (s *stream) send(typ string, payload any) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := wsjson.Write(s.ctx, s.conn, frame{Type: typ, Payload: payload}); err != nil {
		s.app.log.Debug("frame write failed", "type", typ, "error", err)
	}
}
