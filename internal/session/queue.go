package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/clarivox/clarivox/internal/annotate"
	"github.com/clarivox/clarivox/internal/observe"
	"github.com/clarivox/clarivox/internal/units"
)

const (
	// DefaultQueueCapacity bounds how many utterances may wait for
	// annotation at once. Beyond this the newest item is dropped: during a
	// backend stall, fresher speech keeps arriving and an unbounded
	// backlog would only be answered after it stopped mattering.
	DefaultQueueCapacity = 10

	// DefaultDrainDelay is the pause between consecutive annotation
	// calls, keeping the backend request rate polite.
	DefaultDrainDelay = 500 * time.Millisecond

	// DefaultRequestTimeout caps a single annotation call.
	DefaultRequestTimeout = 5 * time.Second
)

// QueueItem is one pending annotation request. RedactedText must already
// have passed through redaction; the queue never sees raw transcript
// text.
type QueueItem struct {
	RedactedText string
	Fingerprint  string
	Medications  []string
	Conversions  []units.Conversion
}

// QueueResult pairs a completed annotation with the fingerprint of the
// item that produced it, so the consumer can correlate it back to the
// utterance.
type QueueResult struct {
	Fingerprint string
	Result      *annotate.Result
}

// QueueOption configures a [Queue].
type QueueOption func(*Queue)

// WithQueueCapacity overrides [DefaultQueueCapacity].
func WithQueueCapacity(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// WithDrainDelay overrides [DefaultDrainDelay].
func WithDrainDelay(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d >= 0 {
			q.delay = d
		}
	}
}

// WithRequestTimeout overrides [DefaultRequestTimeout].
func WithRequestTimeout(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithQueueClock injects the clock used for drain pacing.
func WithQueueClock(c Clock) QueueOption {
	return func(q *Queue) { q.clock = c }
}

// WithMedicalAI sets whether annotation requests ask for the backend's
// medical model pass.
func WithMedicalAI(on bool) QueueOption {
	return func(q *Queue) { q.useMedicalAI = on }
}

// WithQueueLogger injects the logger used by the drain loop.
func WithQueueLogger(log *slog.Logger) QueueOption {
	return func(q *Queue) { q.log = log }
}

// WithQueueMetrics injects the metric instruments the queue records into.
func WithQueueMetrics(m *observe.Metrics) QueueOption {
	return func(q *Queue) { q.metrics = m }
}

// Queue is a bounded FIFO of pending annotation requests drained by a
// single goroutine, one request in flight at a time. Failed requests are
// logged and discarded, never retried: by the time a retry would land the
// conversation has moved on, and the next utterance will carry the
// context anyway.
//
// Safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	items    []QueueItem
	draining bool

	capacity     int
	delay        time.Duration
	timeout      time.Duration
	useMedicalAI bool

	client  annotate.Client
	cache   *Cache
	clock   Clock
	log     *slog.Logger
	metrics *observe.Metrics

	results chan QueueResult
	wake    chan struct{}
}

// NewQueue creates a queue draining into client. Successful results are
// stored in cache and delivered on [Queue.Results]. Call [Queue.Run] to
// start the drain loop.
func NewQueue(client annotate.Client, cache *Cache, opts ...QueueOption) *Queue {
	q := &Queue{
		capacity: DefaultQueueCapacity,
		delay:    DefaultDrainDelay,
		timeout:  DefaultRequestTimeout,
		client:   client,
		cache:    cache,
		clock:    RealClock(),
		log:      slog.Default(),
		results:  make(chan QueueResult, 16),
		wake:     make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Enqueue adds item to the queue. When the queue is at capacity the item
// is dropped and Enqueue reports false; the caller keeps its local
// detections either way.
func (q *Queue) Enqueue(item QueueItem) bool {
	q.mu.Lock()
	if len(q.items) >= q.capacity {
		q.mu.Unlock()
		q.log.Warn("annotation queue full, dropping utterance",
			"capacity", q.capacity, "fingerprint_len", len(item.Fingerprint))
		if q.metrics != nil {
			q.metrics.QueueDropped.Add(context.Background(), 1)
		}
		return false
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.QueueDepth.Add(context.Background(), 1)
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Results returns the channel completed annotations are delivered on.
func (q *Queue) Results() <-chan QueueResult {
	return q.results
}

// Len reports the number of items currently waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Draining reports whether the drain loop is actively working through
// items (as opposed to parked waiting for the next enqueue).
func (q *Queue) Draining() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.draining
}

// Clear discards every pending item. In-flight requests are unaffected;
// the session-end wipe cancels those through the Run context instead.
func (q *Queue) Clear() {
	q.mu.Lock()
	n := len(q.items)
	q.items = nil
	q.mu.Unlock()
	if n > 0 && q.metrics != nil {
		q.metrics.QueueDepth.Add(context.Background(), int64(-n))
	}
}

// Run drains the queue until ctx is cancelled. It processes one item at a
// time: annotate under a per-request deadline, cache and deliver on
// success, log and drop on failure, then pause for the drain delay before
// the next item. With the queue empty it parks until the next Enqueue.
func (q *Queue) Run(ctx context.Context) {
	for {
		item, ok := q.pop()
		if !ok {
			select {
			case <-q.wake:
				continue
			case <-ctx.Done():
				return
			}
		}

		q.process(ctx, item)

		if q.delay > 0 {
			t := q.clock.NewTimer(q.delay)
			select {
			case <-t.C():
			case <-ctx.Done():
				t.Stop()
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// pop removes and returns the oldest item, updating the draining flag so
// observers can tell an idle queue from a working one.
func (q *Queue) pop() (QueueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		q.draining = false
		return QueueItem{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	q.draining = true
	if q.metrics != nil {
		q.metrics.QueueDepth.Add(context.Background(), -1)
	}
	return item, true
}

func (q *Queue) process(ctx context.Context, item QueueItem) {
	reqCtx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	start := q.clock.Now()
	result, err := q.client.Annotate(reqCtx, annotate.Request{
		Text:         item.RedactedText,
		Medications:  item.Medications,
		Conversions:  item.Conversions,
		UseMedicalAI: q.useMedicalAI,
	})
	elapsed := q.clock.Now().Sub(start)

	if q.metrics != nil {
		q.metrics.AnnotateDuration.Record(context.Background(), elapsed.Seconds())
	}

	if err != nil {
		reason := "backend"
		switch {
		case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
			reason = "timeout"
		case reqCtx.Err() != nil:
			// The session context was cancelled mid-flight, not the
			// per-request deadline.
			reason = "canceled"
		}
		q.log.Warn("annotation request failed",
			"error", err, "reason", reason, "elapsed", elapsed)
		if q.metrics != nil {
			q.metrics.RecordAnnotateError(context.Background(), reason)
		}
		return
	}

	q.cache.Set(item.Fingerprint, result)

	select {
	case q.results <- QueueResult{Fingerprint: item.Fingerprint, Result: result}:
	case <-ctx.Done():
	}
}
