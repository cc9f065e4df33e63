// Package session orchestrates one interpretation session: it consumes
// speech events, redacts them, runs the local detection passes, and feeds
// the annotation queue, delivering everything to the presentation layer
// through [Callbacks].
//
// The compliance boundary lives here. Raw transcript text is redacted on
// arrival; only redacted text reaches callbacks, the cache, the queue, or
// a log line, and ending a session wipes every piece of derived state.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/clarivox/clarivox/internal/observe"
	"github.com/clarivox/clarivox/internal/redact"
	"github.com/clarivox/clarivox/internal/speech"
	"github.com/clarivox/clarivox/internal/terminology"
	"github.com/clarivox/clarivox/internal/units"
)

// DefaultDebounceWindow is how long after the last final utterance the
// controller waits before processing, so rapid back-and-forth speech is
// handled as one batch.
const DefaultDebounceWindow = 1500 * time.Millisecond

// ControllerConfig wires a [Controller]. Engine, Matcher, Medications and
// Cache are required; a nil Queue runs the session local-only, without AI
// annotations. The rest default sensibly.
type ControllerConfig struct {
	Engine      speech.Engine
	Matcher     *terminology.Matcher
	Medications *terminology.MedicationIndex
	Cache       *Cache
	Queue       *Queue
	Callbacks   Callbacks

	// DebounceWindow overrides [DefaultDebounceWindow] when positive.
	DebounceWindow time.Duration

	// Clock defaults to [RealClock].
	Clock Clock

	Logger  *slog.Logger
	Metrics *observe.Metrics
}

// Controller runs the per-session pipeline. Create with [NewController],
// drive with [Controller.Run], and finish with [Controller.End] (Run ends
// the session itself when its context is cancelled or the speech stream
// is gone for good).
type Controller struct {
	engine  speech.Engine
	matcher *terminology.Matcher
	meds    *terminology.MedicationIndex
	cache   *Cache
	queue   *Queue
	cb      Callbacks
	window  time.Duration
	clock   Clock
	log     *slog.Logger
	metrics *observe.Metrics

	mu       sync.Mutex
	state    *sessionState
	medsSeen map[string]struct{}
	ended    bool
}

// NewController creates a controller from cfg.
func NewController(cfg ControllerConfig) *Controller {
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = DefaultDebounceWindow
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Controller{
		engine:   cfg.Engine,
		matcher:  cfg.Matcher,
		meds:     cfg.Medications,
		cache:    cfg.Cache,
		queue:    cfg.Queue,
		cb:       cfg.Callbacks,
		window:   cfg.DebounceWindow,
		clock:    cfg.Clock,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		state:    newSessionState(),
		medsSeen: make(map[string]struct{}),
	}
}

// Run starts the speech engine and processes events until ctx is
// cancelled or the speech stream ends unrecoverably. The session is ended
// (wiped) before Run returns. The annotation queue's drain loop must be
// running separately (see [Queue.Run]).
func (c *Controller) Run(ctx context.Context) error {
	events, err := c.engine.Start(ctx)
	if err != nil {
		return err
	}

	if c.metrics != nil {
		c.metrics.ActiveSessions.Add(ctx, 1)
		defer c.metrics.ActiveSessions.Add(context.Background(), -1)
	}
	defer c.End()

	c.cb.statusChange("session started", SeverityInfo)

	// The debounce timer is created disarmed; the first final utterance
	// arms it.
	debounce := c.clock.NewTimer(c.window)
	debounce.Stop()
	defer debounce.Stop()

	// With no queue configured the session runs local-only and the
	// results arm of the select stays nil (never ready).
	var results <-chan QueueResult
	if c.queue != nil {
		results = c.queue.Results()
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				events = c.restart(ctx)
				if events == nil {
					return nil
				}
				continue
			}
			c.handleEvent(ev, debounce)

		case <-debounce.C():
			c.flush(ctx)

		case qr := <-results:
			c.deliver(qr)

		case <-ctx.Done():
			return nil
		}
	}
}

// End wipes all session state: transcript, cache, queue, matcher seen set
// and medication de-duplication. Idempotent and callable from any
// goroutine.
func (c *Controller) End() {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return
	}
	c.ended = true
	c.state.wipe()
	c.medsSeen = make(map[string]struct{})
	c.mu.Unlock()

	c.cache.Wipe()
	if c.queue != nil {
		c.queue.Clear()
	}
	c.matcher.Reset()
	if err := c.engine.Stop(); err != nil {
		c.log.Debug("speech engine stop", "error", err)
	}
	c.cb.statusChange("session ended", SeverityInfo)
	c.log.Info("session ended, state wiped")
}

// Transcript returns the current redacted running transcript.
func (c *Controller) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.transcript()
}

// restart attempts to recover from a dropped speech stream. It returns
// the new event channel, or nil when the engine cannot be restarted and
// the session is over.
func (c *Controller) restart(ctx context.Context) <-chan speech.Event {
	if ctx.Err() != nil {
		return nil
	}
	c.cb.statusChange("speech stream interrupted, restarting", SeverityWarn)
	c.log.Warn("speech stream closed, attempting restart")

	events, err := c.engine.Start(ctx)
	if err != nil {
		c.cb.statusChange("speech stream ended", SeverityError)
		c.log.Info("speech engine restart not possible, ending session", "error", err)
		return nil
	}
	c.cb.statusChange("speech stream restored", SeverityInfo)
	return events
}

// handleEvent folds one speech event into the session. Partials update
// the live transcript only; finals also join the pending batch and push
// the debounce window out.
func (c *Controller) handleEvent(ev speech.Event, debounce Timer) {
	redacted := redact.Redact(ev.Text)

	c.mu.Lock()
	if c.ended {
		// End already wiped the session; folding this event in would put
		// raw text back into pending with nothing left to wipe it.
		c.mu.Unlock()
		return
	}
	if ev.IsFinal {
		c.state.partial = ""
		c.state.segments = append(c.state.segments, redacted)
		c.state.pending = append(c.state.pending, ev.Text)
	} else {
		c.state.partial = redacted
	}
	transcript := c.state.transcript()
	c.mu.Unlock()

	// Arm the window before notifying, so by the time the observer sees
	// the update the flush is already scheduled.
	if ev.IsFinal {
		debounce.Reset(c.window)
	}
	c.cb.transcriptUpdate(transcript)
}

// flush processes the pending batch accumulated during the debounce
// window.
func (c *Controller) flush(ctx context.Context) {
	c.mu.Lock()
	pending := c.state.pending
	c.state.pending = nil
	c.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	c.process(ctx, strings.Join(pending, " "))
}

// process runs the local detection passes over one batch of raw utterance
// text and hands the redacted form to the cache or queue. This is the
// last point the raw text exists.
func (c *Controller) process(ctx context.Context, raw string) {
	redacted := redact.Redact(raw)
	c.recordRedactions(ctx, redacted)

	terms := c.matcher.Detect(redacted)
	meds := c.newMedications(redacted)
	convs := units.DetectAndConvert(redacted)

	c.recordDetections(ctx, terms, meds, convs)

	c.cb.medicalTermsDetected(terms)
	c.cb.medicationsDetected(meds)
	c.cb.conversionsDetected(convs)

	if c.queue == nil {
		return
	}

	fp := c.cache.Fingerprint(redacted)
	if cached, ok := c.cache.Get(fp); ok {
		if c.metrics != nil {
			c.metrics.RecordCacheLookup(ctx, "hit")
		}
		c.deliver(QueueResult{Fingerprint: fp, Result: cached})
		return
	}
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(ctx, "miss")
	}

	medNames := make([]string, 0, len(meds))
	for _, m := range meds {
		medNames = append(medNames, m.Generic)
	}
	c.queue.Enqueue(QueueItem{
		RedactedText: redacted,
		Fingerprint:  fp,
		Medications:  medNames,
		Conversions:  convs,
	})
}

// newMedications detects medications in text and filters out generics
// already announced this session.
func (c *Controller) newMedications(text string) []terminology.MedicationEntry {
	detected := c.meds.Detect(text)
	if len(detected) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fresh := detected[:0]
	for _, m := range detected {
		if _, dup := c.medsSeen[m.Generic]; dup {
			continue
		}
		c.medsSeen[m.Generic] = struct{}{}
		fresh = append(fresh, m)
	}
	return fresh
}

// deliver forwards an annotation result to the callbacks.
func (c *Controller) deliver(qr QueueResult) {
	if qr.Result == nil {
		return
	}
	c.cb.medicalTermsDetected(qr.Result.MedicalTerms)
	c.cb.highlightsDetected(qr.Result.Highlights)
}

// recordRedactions counts the placeholder substitutions present in one
// processed batch, per PHI kind.
func (c *Controller) recordRedactions(ctx context.Context, redacted string) {
	if c.metrics == nil {
		return
	}
	for _, k := range redact.Kinds() {
		for n := strings.Count(redacted, redact.Placeholder(k)); n > 0; n-- {
			c.metrics.RecordRedaction(ctx, string(k))
		}
	}
}

func (c *Controller) recordDetections(ctx context.Context, terms []terminology.Detection, meds []terminology.MedicationEntry, convs []units.Conversion) {
	if c.metrics == nil {
		return
	}
	for _, d := range terms {
		c.metrics.RecordTerm(ctx, d.Source)
	}
	if len(meds) > 0 {
		c.metrics.MedicationsDetected.Add(ctx, int64(len(meds)))
	}
	for _, conv := range convs {
		c.metrics.ConversionsDetected.Add(ctx, 1,
			metric.WithAttributes(attribute.String("kind", string(conv.Kind))))
	}
}
