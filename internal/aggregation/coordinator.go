// Package aggregation coordinates the two producers of a recording and runs
// fusion exactly when both have finished.
//
// Producers call OnTextDone or OnAudioDone after persisting their output.
// Each hook marks its half done and then tries to aggregate; whichever call
// observes both halves done and wins the job's lock reads the inputs fresh,
// fuses them and upserts the composite. Nobody ever waits for the other
// producer. Jobs left behind by a crash or a failed attempt are picked up by
// Sweep.
package aggregation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/voicediary/composite/internal/composite"
	"github.com/voicediary/composite/internal/datastore/entities"
	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/fusion"
	"github.com/voicediary/composite/internal/jobstate"
	"github.com/voicediary/composite/internal/logger"
	"github.com/voicediary/composite/internal/notification"
	"github.com/voicediary/composite/internal/observability/metrics"
	"github.com/voicediary/composite/internal/sources"
)

const (
	defaultSweepBatchSize = 50
	releaseTimeout        = 10 * time.Second
)

// Notifier receives an event for every stored composite. Notify must not block.
type Notifier interface {
	Notify(e notification.Event) bool
}

// Config wires a Coordinator. Jobs, Audio, Text, Composites and Engine are required.
type Config struct {
	Jobs       *jobstate.Store
	Audio      sources.AudioProbabilitySource
	Text       sources.TextSentimentSource
	Composites *composite.Store
	Engine     *fusion.Engine

	Notifier         Notifier
	Metrics          *metrics.AggregationMetrics
	DatastoreMetrics *metrics.DatastoreMetrics
	SweepBatchSize   int
	SweepRate        float64 // retries per second during a sweep, 0 for unlimited
	Logger           logger.Logger
}

// Coordinator implements the completion barrier on top of jobstate.
type Coordinator struct {
	jobs       *jobstate.Store
	audio      sources.AudioProbabilitySource
	text       sources.TextSentimentSource
	composites *composite.Store
	engine     *fusion.Engine
	notifier   Notifier
	metrics    *metrics.AggregationMetrics
	dbMetrics  *metrics.DatastoreMetrics
	batchSize  int
	limiter    *rate.Limiter
	log        logger.Logger
}

// NewCoordinator validates cfg and returns a coordinator.
func NewCoordinator(cfg Config) (*Coordinator, error) {
	switch {
	case cfg.Jobs == nil:
		return nil, configError("job store")
	case cfg.Audio == nil:
		return nil, configError("audio source")
	case cfg.Text == nil:
		return nil, configError("text source")
	case cfg.Composites == nil:
		return nil, configError("composite store")
	case cfg.Engine == nil:
		return nil, configError("fusion engine")
	}

	c := &Coordinator{
		jobs:       cfg.Jobs,
		audio:      cfg.Audio,
		text:       cfg.Text,
		composites: cfg.Composites,
		engine:     cfg.Engine,
		notifier:   cfg.Notifier,
		metrics:    cfg.Metrics,
		dbMetrics:  cfg.DatastoreMetrics,
		batchSize:  cfg.SweepBatchSize,
		log:        cfg.Logger,
	}
	if c.batchSize <= 0 {
		c.batchSize = defaultSweepBatchSize
	}
	if cfg.SweepRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.SweepRate), 1)
	}
	if c.log == nil {
		c.log = logger.Global().Module("aggregation")
	}
	return c, nil
}

// OnTextDone records that the text producer finished and tries to aggregate.
// A failed mark is returned as is. An aggregation failure is logged and
// returned, but the mark stays committed and Sweep will retry the job, so
// callers must not treat that error as a lost mark or mark again.
// A job that is not ready yet yields (false, nil).
func (c *Coordinator) OnTextDone(ctx context.Context, recordingID uint64) (bool, error) {
	return c.onDone(ctx, recordingID, jobstate.SideText, metrics.TriggerText)
}

// OnAudioDone is the audio counterpart of OnTextDone, with the same error
// contract: an error after a successful mark leaves the mark in place.
func (c *Coordinator) OnAudioDone(ctx context.Context, recordingID uint64) (bool, error) {
	return c.onDone(ctx, recordingID, jobstate.SideAudio, metrics.TriggerAudio)
}

func (c *Coordinator) onDone(ctx context.Context, id uint64, side jobstate.Side, trigger string) (bool, error) {
	err := c.timed(metrics.OpMarkDone, func() error {
		_, err := c.jobs.MarkDone(ctx, id, side)
		return err
	})
	if err != nil {
		return false, err
	}

	ok, err := c.tryAggregate(ctx, id, trigger)
	if err != nil {
		c.log.Error("aggregation failed, job left for sweep",
			logger.Uint64("recording_id", id),
			logger.String("trigger", trigger),
			logger.Error(err))
		return false, err
	}
	return ok, nil
}

// TryAggregate fuses the recording if both producers are done and no other
// attempt holds it. It reports true only when a composite was stored. A job
// that is not ready yields (false, nil); it never waits.
func (c *Coordinator) TryAggregate(ctx context.Context, recordingID uint64) (bool, error) {
	return c.tryAggregate(ctx, recordingID, metrics.TriggerDirect)
}

func (c *Coordinator) tryAggregate(ctx context.Context, id uint64, trigger string) (bool, error) {
	row, err := c.aggregate(ctx, id, jobstate.ModeBarrier, trigger)
	if errors.Is(err, jobstate.ErrNotReady) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// Recompute fuses an already aggregated recording again from its current
// inputs and overwrites the composite. Both producers must be done.
func (c *Coordinator) Recompute(ctx context.Context, recordingID uint64) (*entities.CompositeResult, error) {
	return c.aggregate(ctx, recordingID, jobstate.ModeRecompute, metrics.TriggerRecompute)
}

// aggregate holds the job's lock for the duration of one fusion. The lock is
// released on every path, panics included. The notifier sees a stored
// composite only after the job has been released.
func (c *Coordinator) aggregate(ctx context.Context, id uint64, mode jobstate.Mode, trigger string) (row *entities.CompositeResult, err error) {
	traceID := uuid.NewString()
	ctx = logger.WithTraceID(ctx, traceID)
	log := c.log.WithContext(ctx).With(
		logger.Uint64("recording_id", id),
		logger.String("trigger", trigger))

	var lease *jobstate.Lease
	err = c.timed(metrics.OpAcquire, func() error {
		var aerr error
		lease, aerr = c.jobs.Acquire(ctx, id, mode)
		return aerr
	})
	if errors.Is(err, jobstate.ErrNotReady) {
		reason := jobstate.ReasonOf(err)
		c.metrics.RecordNotReady(string(reason))
		c.metrics.RecordAttempt(trigger, metrics.OutcomeNotReady)
		log.Debug("job not ready", logger.String("reason", string(reason)))
		return nil, err
	}
	if err != nil {
		c.metrics.RecordAttempt(trigger, metrics.OutcomeFailed)
		return nil, err
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("aggregation panicked: %v", r).
				Component("aggregation").
				Category(errors.CategoryProcessing).
				Priority(errors.PriorityHigh).
				Context("recording_id", id).
				Build()
			row = nil
		}
		c.release(ctx, log, lease, err)
		if err != nil {
			c.metrics.RecordAttempt(trigger, metrics.OutcomeFailed)
			return
		}
		if c.notifier != nil {
			c.notifier.Notify(notification.NewEvent(row, traceID))
		}
	}()

	row, err = c.fuse(ctx, log, id)
	if err != nil {
		return nil, err
	}

	c.metrics.RecordAttempt(trigger, metrics.OutcomeAggregated)
	c.metrics.ObserveDuration(trigger, time.Since(start).Seconds())
	c.metrics.RecordTopEmotion(row.TopEmotion)
	log.Info("composite stored",
		logger.String("top_emotion", row.TopEmotion),
		logger.Int("confidence_bps", row.TopEmotionConfidenceBps),
		logger.Int("attempt", lease.Attempt),
		logger.Duration("elapsed", time.Since(start)))
	return row, nil
}

// fuse reads both inputs fresh, fuses them and upserts the composite.
func (c *Coordinator) fuse(ctx context.Context, log logger.Logger, id uint64) (*entities.CompositeResult, error) {
	var (
		probs            fusion.AudioProbs
		score, magnitude float64
	)
	err := c.timed(metrics.OpReadSources, func() error {
		var err error
		if probs, err = c.audio.AudioProbabilities(ctx, id); err != nil {
			return fmt.Errorf("read audio probabilities: %w", err)
		}
		if score, magnitude, err = c.text.TextSentiment(ctx, id); err != nil {
			return fmt.Errorf("read text sentiment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := c.engine.Fuse(probs, score, magnitude)
	log.Debug("fused",
		logger.Float64("audio_valence", result.AudioValence),
		logger.Float64("audio_arousal", result.AudioArousal),
		logger.Float64("text_valence", result.TextValence),
		logger.Float64("text_arousal", result.TextArousal),
		logger.Float64("alpha", result.Alpha),
		logger.Float64("beta", result.Beta),
		logger.Float64("valence", result.Valence),
		logger.Float64("arousal", result.Arousal))

	row := composite.FromFusion(id, result)
	if err := c.timed(metrics.OpUpsert, func() error { return c.composites.Upsert(ctx, row) }); err != nil {
		return nil, err
	}
	return row, nil
}

// release frees the job. It runs on a context detached from ctx so that a
// cancelled caller still unlocks the row.
func (c *Coordinator) release(ctx context.Context, log logger.Logger, lease *jobstate.Lease, outcome error) {
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	err := c.timed(metrics.OpRelease, func() error { return c.jobs.Release(relCtx, lease, outcome) })
	switch {
	case err == nil:
	case errors.Is(err, jobstate.ErrLeaseLost):
		log.Warn("lease taken over before release", logger.Int("attempt", lease.Attempt))
	default:
		log.Error("failed to release job, it will be reclaimed when the lease expires",
			logger.Time("lease_until", lease.Until),
			logger.Error(err))
	}
}

// timed records fn as a datastore operation. A not-ready answer is a normal
// result of the barrier, not a failure.
func (c *Coordinator) timed(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	recorded := err
	if errors.Is(err, jobstate.ErrNotReady) {
		recorded = nil
	}
	c.dbMetrics.RecordOperation(op, recorded, time.Since(start).Seconds())
	return err
}

func configError(missing string) error {
	return errors.Newf("aggregation coordinator requires a %s", missing).
		Component("aggregation").
		Category(errors.CategoryConfiguration).
		Build()
}
