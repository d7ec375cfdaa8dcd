package aggregation

import (
	"context"
	"time"

	"github.com/voicediary/composite/internal/datastore/entities"
	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/jobstate"
	"github.com/voicediary/composite/internal/logger"
	"github.com/voicediary/composite/internal/observability/metrics"
)

// SweepReport summarises one sweep.
type SweepReport struct {
	Reclaimed  int64 `json:"reclaimed" yaml:"reclaimed"`
	Candidates int   `json:"candidates" yaml:"candidates"`
	Aggregated int   `json:"aggregated" yaml:"aggregated"`
	NotReady   int   `json:"not_ready" yaml:"not_ready"`
	Failed     int   `json:"failed" yaml:"failed"`
}

// Sweep unlocks jobs whose lease expired and retries up to SweepBatchSize
// ready jobs. Failures of individual jobs are counted, not returned.
func (c *Coordinator) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	start := time.Now()
	defer func() { c.metrics.ObserveSweep(time.Since(start).Seconds()) }()

	err := c.timed(metrics.OpReclaim, func() error {
		n, err := c.jobs.ReclaimExpired(ctx)
		report.Reclaimed = n
		return err
	})
	if err != nil {
		return report, err
	}
	c.metrics.AddReclaimed(report.Reclaimed)

	var jobs []entities.JobState
	err = c.timed(metrics.OpListReady, func() error {
		var err error
		jobs, err = c.jobs.ListReady(ctx, c.batchSize)
		return err
	})
	if err != nil {
		return report, err
	}
	report.Candidates = len(jobs)

	for i := range jobs {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return report, err
			}
		} else if ctx.Err() != nil {
			return report, ctx.Err()
		}
		_, err := c.aggregate(ctx, jobs[i].RecordingID, jobstate.ModeBarrier, metrics.TriggerSweep)
		switch {
		case err == nil:
			report.Aggregated++
		case errors.Is(err, jobstate.ErrNotReady):
			report.NotReady++
		default:
			report.Failed++
			c.log.Warn("sweep retry failed",
				logger.Uint64("recording_id", jobs[i].RecordingID),
				logger.Error(err))
		}
	}

	c.updateStatusGauge(ctx)

	if report.Reclaimed > 0 || report.Candidates > 0 {
		c.log.Info("sweep completed",
			logger.Int64("reclaimed", report.Reclaimed),
			logger.Int("candidates", report.Candidates),
			logger.Int("aggregated", report.Aggregated),
			logger.Int("failed", report.Failed),
			logger.Duration("elapsed", time.Since(start)))
	}
	return report, nil
}

func (c *Coordinator) updateStatusGauge(ctx context.Context) {
	if c.metrics == nil {
		return
	}
	counts, err := c.jobs.CountByStatus(ctx)
	if err != nil {
		c.log.Debug("failed to count jobs by status", logger.Error(err))
		return
	}
	gauge := make(map[string]int64, len(counts))
	for status, n := range counts {
		gauge[string(status)] = n
	}
	c.metrics.SetJobsByStatus(gauge)
}

// RunSweeper calls Sweep every interval until ctx is cancelled. With
// sweepOnStart the first sweep runs immediately.
func (c *Coordinator) RunSweeper(ctx context.Context, interval time.Duration, sweepOnStart bool) {
	if interval <= 0 {
		c.log.Warn("sweeper disabled, interval must be positive", logger.Duration("interval", interval))
		return
	}

	run := func() {
		if _, err := c.Sweep(ctx); err != nil && ctx.Err() == nil {
			c.log.Error("sweep failed", logger.Error(err))
		}
	}

	if sweepOnStart {
		run()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.log.Debug("sweeper stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
