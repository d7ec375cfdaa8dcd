// Package composite persists fused affect results, one row per recording.
package composite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voicediary/composite/internal/datastore/entities"
	"github.com/voicediary/composite/internal/errors"
)

// ErrCompositeNotFound is returned when a recording has no composite yet.
var ErrCompositeNotFound = errors.NewStd("composite not found")

// upsertColumns are overwritten when a recording is fused again. created_at is kept.
var upsertColumns = []string{
	"text_score_bps",
	"text_magnitude_x1000",
	"alpha_bps",
	"beta_bps",
	"valence_x1000",
	"arousal_x1000",
	"intensity_x1000",
	"happy_bps",
	"sad_bps",
	"neutral_bps",
	"angry_bps",
	"fear_bps",
	"surprise_bps",
	"top_emotion",
	"top_emotion_confidence_bps",
	"updated_at",
}

// Store reads and writes voice_composite rows.
type Store struct {
	db    *gorm.DB
	cache *cache.Cache
}

// Option configures a Store.
type Option func(*Store)

// WithCache enables a read-through cache of composites with the given TTL.
// Writes through the same Store invalidate the cached entry.
func WithCache(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.cache = cache.New(ttl, 2*ttl)
		}
	}
}

// NewStore creates a composite store.
func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert writes row keyed by its RecordingID, overwriting any earlier result.
func (s *Store) Upsert(ctx context.Context, row *entities.CompositeResult) error {
	if row.RecordingID == 0 {
		return errors.Newf("composite row has no recording id").
			Component("composite").
			Category(errors.CategoryValidation).
			Build()
	}

	row.UpdatedAt = time.Now()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "recording_id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(row).Error

	s.invalidate(row.RecordingID)
	if err != nil {
		return dbError(err, "upsert_composite", row.RecordingID)
	}
	return nil
}

// Get returns the composite of a recording.
func (s *Store) Get(ctx context.Context, id uint64) (*entities.CompositeResult, error) {
	key := cacheKey(id)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			row := v.(entities.CompositeResult)
			return &row, nil
		}
	}

	var row entities.CompositeResult
	err := s.db.WithContext(ctx).Where("recording_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(ErrCompositeNotFound).
			Component("composite").
			Category(errors.CategoryNotFound).
			Context("recording_id", id).
			Build()
	}
	if err != nil {
		return nil, dbError(err, "get_composite", id)
	}

	if s.cache != nil {
		s.cache.SetDefault(key, row)
	}
	return &row, nil
}

// ListByRecordings returns the composites that exist for ids, ordered by
// creation time. Recordings without a composite are skipped.
func (s *Store) ListByRecordings(ctx context.Context, ids []uint64) ([]entities.CompositeResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []entities.CompositeResult
	err := s.db.WithContext(ctx).
		Where("recording_id IN ?", ids).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, dbError(err, "list_composites", 0)
	}
	return rows, nil
}

// CacheStats returns the number of cached composites, or 0 when caching is off.
func (s *Store) CacheStats() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.ItemCount()
}

func (s *Store) invalidate(id uint64) {
	if s.cache != nil {
		s.cache.Delete(cacheKey(id))
	}
}

func cacheKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func dbError(err error, op string, id uint64) error {
	return errors.New(fmt.Errorf("%s: %w", op, err)).
		Component("composite").
		Category(errors.CategoryDatabase).
		Context("operation", op).
		Context("recording_id", id).
		Build()
}
