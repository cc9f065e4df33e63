package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/clarivox/clarivox/internal/annotate"
	"github.com/clarivox/clarivox/internal/annotate/mock"
	"github.com/clarivox/clarivox/internal/observe"
	"github.com/clarivox/clarivox/internal/terminology"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// testMetrics builds a Metrics instance backed by a manual reader so tests
// can inspect recorded values.
func testMetrics(t *testing.T) (*observe.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	m, err := observe.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// counterByAttr sums the named int64 counter's data points grouped by the
// given attribute key.
func counterByAttr(t *testing.T, reader *sdkmetric.ManualReader, name, attr string) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, met := range scope.Metrics {
			if met.Name != name {
				continue
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(attribute.Key(attr)); ok {
					out[v.AsString()] += dp.Value
				}
			}
		}
	}
	return out
}

func TestQueue_EnqueueDropsWhenFull(t *testing.T) {
	q := NewQueue(&mock.Client{}, NewCache(time.Minute, 100), WithQueueCapacity(2))

	if !q.Enqueue(QueueItem{Fingerprint: "a"}) {
		t.Fatal("first enqueue rejected")
	}
	if !q.Enqueue(QueueItem{Fingerprint: "b"}) {
		t.Fatal("second enqueue rejected")
	}
	if q.Enqueue(QueueItem{Fingerprint: "c"}) {
		t.Error("third enqueue accepted beyond capacity")
	}
	if q.Len() != 2 {
		t.Errorf("Len = %d, want 2", q.Len())
	}
}

func TestQueue_DrainDeliversResultAndFillsCache(t *testing.T) {
	client := &mock.Client{Response: &annotate.Result{
		MedicalTerms: []terminology.Detection{{English: "Asthma"}},
	}}
	cache := NewCache(time.Minute, 100)
	q := NewQueue(client, cache, WithDrainDelay(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue(QueueItem{RedactedText: "redacted text", Fingerprint: "fp-1"})

	select {
	case res := <-q.Results():
		if res.Fingerprint != "fp-1" {
			t.Errorf("Fingerprint = %q, want fp-1", res.Fingerprint)
		}
		if len(res.Result.MedicalTerms) != 1 {
			t.Errorf("Result = %+v", res.Result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no result delivered")
	}

	if _, ok := cache.Get("fp-1"); !ok {
		t.Error("successful result not cached")
	}
	if got := client.Calls[0].Text; got != "redacted text" {
		t.Errorf("request text = %q", got)
	}
}

func TestQueue_FailedRequestDroppedWithoutRetry(t *testing.T) {
	client := &mock.Client{Err: errors.New("backend down")}
	q := NewQueue(client, NewCache(time.Minute, 100), WithDrainDelay(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue(QueueItem{Fingerprint: "x"})
	q.Enqueue(QueueItem{Fingerprint: "y"})

	waitFor(t, "both requests attempted", func() bool { return client.CallCount() == 2 })

	// No retries: the count must stay at two.
	time.Sleep(30 * time.Millisecond)
	if got := client.CallCount(); got != 2 {
		t.Errorf("CallCount = %d, want 2 (no retries)", got)
	}
	select {
	case res := <-q.Results():
		t.Errorf("unexpected result %+v for failed requests", res)
	default:
	}
}

func TestQueue_SingleRequestInFlight(t *testing.T) {
	client := &mock.Client{Delay: 15 * time.Millisecond}
	q := NewQueue(client, NewCache(time.Minute, 100), WithDrainDelay(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	for i := 0; i < 3; i++ {
		q.Enqueue(QueueItem{Fingerprint: "fp"})
	}
	for i := 0; i < 3; i++ {
		select {
		case <-q.Results():
		case <-time.After(2 * time.Second):
			t.Fatal("missing result")
		}
	}

	if client.MaxActive != 1 {
		t.Errorf("MaxActive = %d, want 1", client.MaxActive)
	}
}

func TestQueue_DrainingFlag(t *testing.T) {
	client := &mock.Client{}
	q := NewQueue(client, NewCache(time.Minute, 100), WithDrainDelay(0))

	if q.Draining() {
		t.Error("Draining before Run should be false")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue(QueueItem{Fingerprint: "fp"})
	<-q.Results()

	waitFor(t, "queue to park", func() bool { return !q.Draining() })
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue(&mock.Client{}, NewCache(time.Minute, 100))
	q.Enqueue(QueueItem{Fingerprint: "a"})
	q.Enqueue(QueueItem{Fingerprint: "b"})

	q.Clear()

	if q.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", q.Len())
	}
}

func TestQueue_RequestTimeoutCancelsSlowCall(t *testing.T) {
	client := &mock.Client{Delay: time.Second}
	q := NewQueue(client, NewCache(time.Minute, 100),
		WithDrainDelay(0), WithRequestTimeout(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue(QueueItem{Fingerprint: "slow"})

	waitFor(t, "request attempted", func() bool { return client.CallCount() == 1 })
	select {
	case res := <-q.Results():
		t.Errorf("unexpected result %+v for timed-out request", res)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestQueue_SlowCallRecordedAsTimeout(t *testing.T) {
	m, reader := testMetrics(t)
	client := &mock.Client{Delay: time.Second}
	q := NewQueue(client, NewCache(time.Minute, 100),
		WithDrainDelay(0), WithRequestTimeout(10*time.Millisecond), WithQueueMetrics(m))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue(QueueItem{Fingerprint: "slow"})

	waitFor(t, "timeout recorded", func() bool {
		return counterByAttr(t, reader, "clarivox.annotate.errors", "reason")["timeout"] == 1
	})
}

func TestQueue_MidFlightCancelRecordedAsCanceled(t *testing.T) {
	m, reader := testMetrics(t)
	client := &mock.Client{Delay: time.Second}
	q := NewQueue(client, NewCache(time.Minute, 100),
		WithDrainDelay(0), WithQueueMetrics(m))

	ctx, cancel := context.WithCancel(context.Background())
	go q.Run(ctx)

	q.Enqueue(QueueItem{Fingerprint: "mid"})
	waitFor(t, "request in flight", func() bool { return client.CallCount() == 1 })
	cancel()

	// Session cancellation is not the per-request deadline expiring.
	waitFor(t, "cancellation recorded", func() bool {
		reasons := counterByAttr(t, reader, "clarivox.annotate.errors", "reason")
		return reasons["canceled"] == 1 && reasons["timeout"] == 0
	})
}
