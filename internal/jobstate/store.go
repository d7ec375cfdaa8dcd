// Package jobstate implements the per-recording completion barrier.
//
// Each recording owns one recording_jobs row. Producers flip their done flag
// with a conditional update; whoever observes both flags set acquires the
// row with a compare-and-swap that also stamps a lock token and lease. The
// row is the only coordination primitive, so any number of processes can
// share the database.
package jobstate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voicediary/composite/internal/datastore/entities"
	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/logger"
)

// Side identifies a producer.
type Side string

const (
	SideText  Side = "text"
	SideAudio Side = "audio"
)

// Mode selects which statuses Acquire accepts.
type Mode int

const (
	// ModeBarrier is used by producers: an aggregated job is not fused again.
	ModeBarrier Mode = iota
	// ModeRecompute is the manual trigger: aggregated jobs are fused again.
	ModeRecompute
)

// Lease is held by the single attempt allowed to aggregate a recording.
type Lease struct {
	RecordingID uint64
	Token       string
	Until       time.Time
	Attempt     int
	// Reclaimed is set when the lock was taken over from an expired holder.
	Reclaimed bool
}

// maxErrorLength bounds last_error so a huge upstream message cannot bloat the row.
const maxErrorLength = 1024

// Store manages recording_jobs rows.
type Store struct {
	db    *gorm.DB
	lease time.Duration
	now   func() time.Time
	log   logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now. Tests use it to expire leases.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore creates a barrier store. lease bounds how long an aggregation
// attempt may hold a job before others may take it over.
func NewStore(db *gorm.DB, lease time.Duration, opts ...Option) *Store {
	s := &Store{
		db:    db,
		lease: lease,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Global().Module("jobstate")
	}
	return s
}

// LeaseDuration returns the configured lease length.
func (s *Store) LeaseDuration() time.Duration {
	return s.lease
}

// clock returns the current time in UTC so stored lease timestamps compare consistently.
func (s *Store) clock() time.Time {
	return s.now().UTC()
}

// EnsureJob returns the job for id, creating a pending row if none exists.
// Concurrent callers all observe the same row.
func (s *Store) EnsureJob(ctx context.Context, id uint64) (*entities.JobState, error) {
	job := entities.JobState{RecordingID: id, Status: entities.JobStatusPending}
	err := s.db.WithContext(ctx).
		Where(entities.JobState{RecordingID: id}).
		FirstOrCreate(&job).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost the insert race; the winner's row is there now
		job = entities.JobState{}
		err = s.db.WithContext(ctx).Where("recording_id = ?", id).First(&job).Error
	}
	if err != nil {
		return nil, dbError(err, "ensure_job", id)
	}
	return &job, nil
}

// MarkDone sets the done flag of side and advances the status. It reports
// whether this call changed the flag; repeated calls are no-ops.
func (s *Store) MarkDone(ctx context.Context, id uint64, side Side) (bool, error) {
	if _, err := s.EnsureJob(ctx, id); err != nil {
		return false, err
	}

	column, other, alone := "text_done", "audio_done", entities.JobStatusTextDone
	if side == SideAudio {
		column, other, alone = "audio_done", "text_done", entities.JobStatusAudioDone
	}

	result := s.db.WithContext(ctx).
		Model(&entities.JobState{}).
		Where("recording_id = ? AND "+column+" = ?", id, false).
		Updates(map[string]any{
			column:   true,
			"status": gorm.Expr("CASE WHEN "+other+" = ? THEN ? ELSE ? END", true, entities.JobStatusReady, alone),
		})
	if result.Error != nil {
		return false, dbError(result.Error, "mark_"+string(side)+"_done", id)
	}

	changed := result.RowsAffected > 0
	if changed {
		s.log.Debug("producer finished",
			logger.Uint64("recording_id", id),
			logger.String("side", string(side)))
	}
	return changed, nil
}

// MarkTextDone records that the text pipeline finished.
func (s *Store) MarkTextDone(ctx context.Context, id uint64) (bool, error) {
	return s.MarkDone(ctx, id, SideText)
}

// MarkAudioDone records that the audio pipeline finished.
func (s *Store) MarkAudioDone(ctx context.Context, id uint64) (bool, error) {
	return s.MarkDone(ctx, id, SideAudio)
}

// Acquire takes the aggregation lock of a job whose producers have both
// finished. It never waits: a job that is missing, incomplete, locked under
// an unexpired lease or (in ModeBarrier) already aggregated yields a
// NotReadyError.
//
// The row is read under FOR UPDATE to classify the outcome, and the lock is
// then taken with a conditional UPDATE whose affected-row count decides the
// winner.
func (s *Store) Acquire(ctx context.Context, id uint64, mode Mode) (*Lease, error) {
	now := s.clock()
	var lease *Lease

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job entities.JobState
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("recording_id = ?", id).
			First(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notReady(id, ReasonMissing)
		}
		if err != nil {
			return dbError(err, "acquire", id)
		}

		switch {
		case job.Locked && !job.LeaseExpired(now):
			return notReady(id, ReasonLocked)
		case !job.BothDone():
			return notReady(id, ReasonWaiting)
		case mode == ModeBarrier && job.Status == entities.JobStatusAggregated && !job.Locked:
			return notReady(id, ReasonAggregated)
		}

		token := uuid.NewString()
		until := now.Add(s.lease)

		query := tx.Model(&entities.JobState{}).
			Where("recording_id = ? AND text_done = ? AND audio_done = ?", id, true, true).
			Where("(locked = ? OR lease_until IS NULL OR lease_until <= ?)", false, now)
		if mode == ModeBarrier {
			query = query.Where("status <> ?", entities.JobStatusAggregated)
		}
		result := query.Updates(map[string]any{
			"locked":      true,
			"status":      entities.JobStatusAggregating,
			"lock_token":  token,
			"lease_until": until,
			"attempts":    gorm.Expr("attempts + ?", 1),
		})
		if result.Error != nil {
			return dbError(result.Error, "acquire", id)
		}
		if result.RowsAffected == 0 {
			return notReady(id, ReasonLocked)
		}

		lease = &Lease{
			RecordingID: id,
			Token:       token,
			Until:       until,
			Attempt:     job.Attempts + 1,
			Reclaimed:   job.Locked,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if lease.Reclaimed {
		s.log.Warn("took over expired aggregation lease",
			logger.Uint64("recording_id", id),
			logger.Int("attempt", lease.Attempt))
	}
	return lease, nil
}

// Release clears the lock held by lease. A nil outcome marks the job
// aggregated; an error returns it to ready and records the message so the
// sweeper can retry it. Done flags are never touched.
func (s *Store) Release(ctx context.Context, lease *Lease, outcome error) error {
	updates := map[string]any{
		"locked":      false,
		"lock_token":  "",
		"lease_until": nil,
	}
	if outcome == nil {
		updates["status"] = entities.JobStatusAggregated
		updates["aggregated_at"] = s.clock()
		updates["last_error"] = ""
	} else {
		updates["status"] = entities.JobStatusReady
		updates["last_error"] = truncate(outcome.Error(), maxErrorLength)
	}

	result := s.db.WithContext(ctx).
		Model(&entities.JobState{}).
		Where("recording_id = ? AND lock_token = ?", lease.RecordingID, lease.Token).
		Updates(updates)
	if result.Error != nil {
		return dbError(result.Error, "release", lease.RecordingID)
	}
	if result.RowsAffected == 0 {
		return errors.New(ErrLeaseLost).
			Component("jobstate").
			Category(errors.CategoryConflict).
			Context("recording_id", lease.RecordingID).
			Build()
	}
	return nil
}

// ReclaimExpired unlocks every job whose lease has run out and returns how
// many were reclaimed.
func (s *Store) ReclaimExpired(ctx context.Context) (int64, error) {
	now := s.clock()
	result := s.db.WithContext(ctx).
		Model(&entities.JobState{}).
		Where("locked = ? AND (lease_until IS NULL OR lease_until <= ?)", true, now).
		Updates(map[string]any{
			"locked":      false,
			"lock_token":  "",
			"lease_until": nil,
			"status":      entities.JobStatusReady,
			"last_error":  "aggregation lease expired",
		})
	if result.Error != nil {
		return 0, dbError(result.Error, "reclaim_expired", 0)
	}
	if result.RowsAffected > 0 {
		s.log.Warn("reclaimed expired aggregation leases", logger.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// ListReady returns unlocked jobs whose producers both finished but which
// have not been aggregated, oldest first.
func (s *Store) ListReady(ctx context.Context, limit int) ([]entities.JobState, error) {
	var jobs []entities.JobState
	err := s.db.WithContext(ctx).
		Where("text_done = ? AND audio_done = ? AND locked = ? AND status = ?", true, true, false, entities.JobStatusReady).
		Order("updated_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, dbError(err, "list_ready", 0)
	}
	return jobs, nil
}

// Get returns the job for id.
func (s *Store) Get(ctx context.Context, id uint64) (*entities.JobState, error) {
	var job entities.JobState
	err := s.db.WithContext(ctx).Where("recording_id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(ErrJobNotFound).
			Component("jobstate").
			Category(errors.CategoryNotFound).
			Context("recording_id", id).
			Build()
	}
	if err != nil {
		return nil, dbError(err, "get", id)
	}
	return &job, nil
}

// CountByStatus returns the number of jobs in each status.
func (s *Store) CountByStatus(ctx context.Context) (map[entities.JobStatus]int64, error) {
	var rows []struct {
		Status entities.JobStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&entities.JobState{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, dbError(err, "count_by_status", 0)
	}
	counts := make(map[entities.JobStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
