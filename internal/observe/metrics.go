// Package observe provides the OpenTelemetry metric instruments for the
// Clarivox pipeline and the provider bootstrap that bridges them to a
// Prometheus /metrics endpoint.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is
// provided for convenience; tests should use [NewMetrics] with their own
// [metric.MeterProvider] to avoid cross-test pollution.
//
// Metric cardinality is deliberately PHI-free: instruments carry kind and
// status attributes only, never transcript text.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for all Clarivox metrics.
const meterName = "github.com/clarivox/clarivox"

// Metrics holds all OpenTelemetry metric instruments for the pipeline.
// All fields are safe for concurrent use.
type Metrics struct {
	// RedactionsApplied counts placeholder substitutions by PHI kind.
	// Use with attribute.String("kind", ...).
	RedactionsApplied metric.Int64Counter

	// TermsDetected counts dictionary term detections by source
	// ("exact" or "phonetic").
	TermsDetected metric.Int64Counter

	// MedicationsDetected counts medication detections.
	MedicationsDetected metric.Int64Counter

	// ConversionsDetected counts unit conversions by kind.
	ConversionsDetected metric.Int64Counter

	// AnnotateDuration tracks remote annotation call latency.
	AnnotateDuration metric.Float64Histogram

	// AnnotateErrors counts failed annotation calls by reason
	// ("timeout", "canceled", "backend").
	AnnotateErrors metric.Int64Counter

	// CacheLookups counts session cache lookups by outcome
	// ("hit", "miss").
	CacheLookups metric.Int64Counter

	// QueueDepth tracks the number of items waiting in annotation queues.
	QueueDepth metric.Int64UpDownCounter

	// QueueDropped counts items discarded because a queue was full.
	QueueDropped metric.Int64Counter

	// ActiveSessions tracks the number of live interpretation sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized
// for the annotation backend's sub-5-second budget.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation
// fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.RedactionsApplied, err = m.Int64Counter("clarivox.redactions.applied",
		metric.WithDescription("Total PHI placeholder substitutions by kind."),
	); err != nil {
		return nil, err
	}
	if met.TermsDetected, err = m.Int64Counter("clarivox.terms.detected",
		metric.WithDescription("Total dictionary term detections by source."),
	); err != nil {
		return nil, err
	}
	if met.MedicationsDetected, err = m.Int64Counter("clarivox.medications.detected",
		metric.WithDescription("Total medication detections."),
	); err != nil {
		return nil, err
	}
	if met.ConversionsDetected, err = m.Int64Counter("clarivox.conversions.detected",
		metric.WithDescription("Total unit conversions by kind."),
	); err != nil {
		return nil, err
	}
	if met.AnnotateDuration, err = m.Float64Histogram("clarivox.annotate.duration",
		metric.WithDescription("Latency of remote annotation calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AnnotateErrors, err = m.Int64Counter("clarivox.annotate.errors",
		metric.WithDescription("Total failed annotation calls by reason."),
	); err != nil {
		return nil, err
	}
	if met.CacheLookups, err = m.Int64Counter("clarivox.cache.lookups",
		metric.WithDescription("Session cache lookups by outcome."),
	); err != nil {
		return nil, err
	}
	if met.QueueDepth, err = m.Int64UpDownCounter("clarivox.queue.depth",
		metric.WithDescription("Items waiting in annotation queues."),
	); err != nil {
		return nil, err
	}
	if met.QueueDropped, err = m.Int64Counter("clarivox.queue.dropped",
		metric.WithDescription("Items discarded because the annotation queue was full."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("clarivox.active_sessions",
		metric.WithDescription("Number of live interpretation sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Panics if instrument
// creation fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordRedaction records one placeholder substitution for the given PHI
// kind. Nil-safe so call sites need no guard when metrics are disabled.
func (m *Metrics) RecordRedaction(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.RedactionsApplied.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordTerm records one term detection from the given source.
func (m *Metrics) RecordTerm(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.TermsDetected.Add(ctx, 1,
		metric.WithAttributes(attribute.String("source", source)))
}

// RecordCacheLookup records one cache lookup outcome ("hit" or "miss").
func (m *Metrics) RecordCacheLookup(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.CacheLookups.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordAnnotateError records one failed annotation call by reason.
func (m *Metrics) RecordAnnotateError(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.AnnotateErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)))
}
