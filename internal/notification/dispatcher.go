package notification

import (
	"context"
	"sync"
	"time"

	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/logger"
	"github.com/voicediary/composite/internal/observability/metrics"
)

const (
	defaultWorkers    = 2
	defaultQueueSize  = 100
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 2
	defaultRetryDelay = 500 * time.Millisecond
)

// DispatcherConfig configures a Dispatcher. Zero values select defaults.
type DispatcherConfig struct {
	Workers    int
	QueueSize  int
	Timeout    time.Duration // per delivery attempt
	MaxRetries int
	RetryDelay time.Duration
	Metrics    *metrics.NotificationMetrics
	Recorder   Recorder
	Logger     logger.Logger
}

// Dispatcher delivers events asynchronously to every enabled provider.
type Dispatcher struct {
	providers  []Provider
	recorder   Recorder
	queue      chan Event
	workers    int
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	metrics    *metrics.NotificationMetrics
	log        logger.Logger

	mu      sync.RWMutex
	started bool
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher for the enabled providers among providers.
func NewDispatcher(cfg DispatcherConfig, providers ...Provider) *Dispatcher {
	d := &Dispatcher{
		recorder:   cfg.Recorder,
		workers:    cfg.Workers,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		metrics:    cfg.Metrics,
		log:        cfg.Logger,
	}
	if d.workers <= 0 {
		d.workers = defaultWorkers
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if d.timeout <= 0 {
		d.timeout = defaultTimeout
	}
	if d.maxRetries < 0 {
		d.maxRetries = 0
	}
	if d.retryDelay <= 0 {
		d.retryDelay = defaultRetryDelay
	}
	if d.log == nil {
		d.log = logger.Global().Module("notification")
	}
	for _, p := range providers {
		if p != nil && p.IsEnabled() {
			d.providers = append(d.providers, p)
		}
	}
	d.queue = make(chan Event, queueSize)
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d
}

// Providers returns the names of the active providers.
func (d *Dispatcher) Providers() []string {
	names := make([]string, len(d.providers))
	for i, p := range d.providers {
		names[i] = p.GetName()
	}
	return names
}

// Start launches the workers. Calling Start more than once has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for range d.workers {
		d.wg.Go(d.worker)
	}
	d.log.Info("notification dispatcher started",
		logger.Int("providers", len(d.providers)),
		logger.Int("workers", d.workers))
}

// Notify enqueues e without blocking. It reports false when the event was
// dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Notify(e Event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed || len(d.providers) == 0 {
		if d.closed {
			d.metrics.RecordDropped()
		}
		return false
	}
	select {
	case d.queue <- e:
		d.metrics.RecordDispatch()
		d.metrics.SetQueueDepth(len(d.queue))
		return true
	default:
		d.metrics.RecordDropped()
		d.log.Warn("notification queue full, dropping event",
			logger.Uint64("recording_id", e.RecordingID))
		return false
	}
}

// Close stops accepting events, lets the workers drain the queue and waits
// for them. If ctx ends first, in-flight deliveries are cancelled.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		d.cancel()
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return errors.New(ctx.Err()).
			Component("notification").
			Category(errors.CategoryTimeout).
			Context("operation", "dispatcher_close").
			Build()
	}
}

func (d *Dispatcher) worker() {
	for e := range d.queue {
		d.metrics.SetQueueDepth(len(d.queue))
		d.deliver(&e)
	}
}

// deliver sends e to each provider in turn, retrying retryable failures.
func (d *Dispatcher) deliver(e *Event) {
	for _, p := range d.providers {
		err := d.sendWithRetry(p, e)
		if d.recorder != nil {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			if rerr := d.recorder.Record(ctx, e, p.GetName(), err); rerr != nil {
				d.log.Warn("failed to record notification",
					logger.Uint64("recording_id", e.RecordingID),
					logger.String("provider", p.GetName()),
					logger.Error(rerr))
			}
			cancel()
		}
	}
}

func (d *Dispatcher) sendWithRetry(p Provider, e *Event) error {
	var err error
	for attempt := 0; ; attempt++ {
		start := time.Now()
		ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
		err = p.Send(ctx, e)
		cancel()

		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusError
		}
		d.metrics.RecordDelivery(p.GetName(), status, time.Since(start).Seconds())

		if err == nil {
			d.log.Debug("notification delivered",
				logger.Uint64("recording_id", e.RecordingID),
				logger.String("provider", p.GetName()),
				logger.String("trace_id", e.TraceID))
			return nil
		}

		var perr *providerError
		if !errors.As(err, &perr) || !perr.Retryable || attempt >= d.maxRetries || d.ctx.Err() != nil {
			d.log.Error("notification delivery failed",
				logger.Uint64("recording_id", e.RecordingID),
				logger.String("provider", p.GetName()),
				logger.Int("attempts", attempt+1),
				logger.Error(err))
			return err
		}

		select {
		case <-time.After(d.retryDelay):
		case <-d.ctx.Done():
			return err
		}
	}
}
