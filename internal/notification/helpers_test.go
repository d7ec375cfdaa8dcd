package notification

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/voicediary/composite/internal/logger"
)

// fakeProvider records deliveries and fails the first failures attempts.
type fakeProvider struct {
	name      string
	failures  int
	retryable bool
	block     bool

	mu     sync.Mutex
	calls  int
	events []Event
}

func (f *fakeProvider) GetName() string       { return f.name }
func (f *fakeProvider) IsEnabled() bool       { return true }
func (f *fakeProvider) ValidateConfig() error { return nil }

func (f *fakeProvider) Send(ctx context.Context, e *Event) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		err := errTest
		if f.retryable {
			return retryable(err)
		}
		return err
	}
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeProvider) snapshot() (calls int, events []Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, append([]Event(nil), f.events...)
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []string
}

func (r *fakeRecorder) Record(_ context.Context, e *Event, channel string, sendErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := "sent"
	if sendErr != nil {
		status = "failed"
	}
	r.records = append(r.records, channel+":"+status)
	return nil
}

func quietLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
}

func testEvent(id uint64) Event {
	return Event{RecordingID: id, TopEmotion: "happy", DisplayEmotion: "happy", ConfidenceBps: 6200}
}

func closeDispatcher(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Errorf("close dispatcher: %v", err)
	}
}
