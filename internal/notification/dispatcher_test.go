package notification

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/observability/metrics"
)

var errTest = errors.NewStd("provider unavailable")

func TestDispatcherDeliversToEveryProvider(t *testing.T) {
	a := &fakeProvider{name: "a"}
	b := &fakeProvider{name: "b"}
	rec := &fakeRecorder{}
	d := NewDispatcher(DispatcherConfig{Logger: quietLogger(), Recorder: rec}, a, b)
	d.Start()

	assert.True(t, d.Notify(testEvent(1)))
	assert.True(t, d.Notify(testEvent(2)))
	closeDispatcher(t, d)

	for _, p := range []*fakeProvider{a, b} {
		_, events := p.snapshot()
		require.Len(t, events, 2, p.name)
	}
	assert.ElementsMatch(t, []string{"a:sent", "b:sent", "a:sent", "b:sent"}, rec.records)
	assert.Equal(t, []string{"a", "b"}, d.Providers())
}

func TestDispatcherRetriesRetryableErrors(t *testing.T) {
	p := &fakeProvider{name: "flaky", failures: 2, retryable: true}
	d := NewDispatcher(DispatcherConfig{
		Logger:     quietLogger(),
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, p)
	d.Start()

	d.Notify(testEvent(3))
	closeDispatcher(t, d)

	calls, events := p.snapshot()
	assert.Equal(t, 3, calls)
	assert.Len(t, events, 1)
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	p := &fakeProvider{name: "broken", failures: 5}
	rec := &fakeRecorder{}
	d := NewDispatcher(DispatcherConfig{
		Logger:     quietLogger(),
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		Recorder:   rec,
	}, p)
	d.Start()

	d.Notify(testEvent(4))
	closeDispatcher(t, d)

	calls, events := p.snapshot()
	assert.Equal(t, 1, calls)
	assert.Empty(t, events)
	assert.Equal(t, []string{"broken:failed"}, rec.records)
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	m, err := metrics.NewNotificationMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	p := &fakeProvider{name: "p"}
	d := NewDispatcher(DispatcherConfig{Logger: quietLogger(), QueueSize: 1, Metrics: m}, p)

	// not started, so nothing drains the queue
	assert.True(t, d.Notify(testEvent(5)))
	assert.False(t, d.Notify(testEvent(6)))
	assert.InDelta(t, 1, testutil.ToFloat64(m.DroppedTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DispatchTotal), 0)

	closeDispatcher(t, d)
	assert.False(t, d.Notify(testEvent(7)))
}

func TestDispatcherWithoutProvidersAcceptsNothing(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Logger: quietLogger()})
	d.Start()
	assert.False(t, d.Notify(testEvent(8)))
	closeDispatcher(t, d)
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Logger: quietLogger()}, &fakeProvider{name: "p"})
	d.Start()
	d.Start()
	closeDispatcher(t, d)
	closeDispatcher(t, d)
}

func TestDispatcherCloseCancelsStuckDelivery(t *testing.T) {
	p := &fakeProvider{name: "stuck", block: true}
	d := NewDispatcher(DispatcherConfig{Logger: quietLogger(), Timeout: time.Minute}, p)
	d.Start()
	d.Notify(testEvent(9))

	// give the worker time to pick the event up
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := d.Close(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryTimeout))
}
