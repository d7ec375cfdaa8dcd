package composite

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicediary/composite/internal/datastore"
	"github.com/voicediary/composite/internal/datastore/entities"
	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/fusion"
	"github.com/voicediary/composite/internal/logger"
)

func setupStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	mgr, err := datastore.NewSQLiteManager(datastore.Config{
		Path:   filepath.Join(t.TempDir(), "composite.db"),
		Logger: logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, mgr.Initialize())
	t.Cleanup(func() { _ = mgr.Close() })

	return NewStore(mgr.DB(), opts...)
}

func fused(t *testing.T, happy, sad, score, magnitude float64) fusion.Result {
	t.Helper()
	engine, err := fusion.NewEngine(fusion.DefaultParams())
	require.NoError(t, err)

	var probs fusion.AudioProbs
	probs.Set(fusion.Happy, happy)
	probs.Set(fusion.Sad, sad)
	probs.Set(fusion.Neutral, 1-happy-sad)
	return engine.Fuse(probs, score, magnitude)
}

func TestFromFusionQuantises(t *testing.T) {
	t.Parallel()

	r := fused(t, 0.7, 0.1, 0.6, 2.0)
	row := FromFusion(9, r)

	assert.Equal(t, uint64(9), row.RecordingID)
	assert.Equal(t, fusion.TotalBps, Distribution(row).Sum())
	assert.Equal(t, fusion.UnitToBps(0.6), row.TextScoreBps)
	assert.Equal(t, fusion.ToX1000(r.TextArousal), row.TextMagnitudeX1000)
	assert.Equal(t, fusion.ToX1000(r.Valence), row.ValenceX1000)
	assert.Equal(t, fusion.ToBps(r.Alpha), row.AlphaBps)
	assert.Equal(t, string(r.TopEmotion), row.TopEmotion)
	assert.Equal(t, r.Distribution.Get(r.TopEmotion), row.TopEmotionConfidenceBps)
}

func TestUpsertOverwritesInsteadOfDuplicating(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first := FromFusion(1, fused(t, 0.8, 0.1, 0.5, 1.0))
	require.NoError(t, s.Upsert(ctx, first))

	stored, err := s.Get(ctx, 1)
	require.NoError(t, err)
	createdAt := stored.CreatedAt

	second := FromFusion(1, fused(t, 0.1, 0.8, -0.7, 3.0))
	require.NoError(t, s.Upsert(ctx, second))

	rows, err := s.ListByRecordings(ctx, []uint64{1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.TopEmotion, rows[0].TopEmotion)
	assert.Equal(t, second.Shares(), rows[0].Shares())
	assert.Equal(t, second.ValenceX1000, rows[0].ValenceX1000)
	assert.True(t, createdAt.Equal(rows[0].CreatedAt), "created_at must survive an overwrite")
}

func TestGetMissing(t *testing.T) {
	s := setupStore(t)

	_, err := s.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrCompositeNotFound)
	assert.True(t, errors.IsNotFound(err))
}

func TestUpsertRequiresRecordingID(t *testing.T) {
	s := setupStore(t)

	err := s.Upsert(context.Background(), &entities.CompositeResult{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestCacheIsInvalidatedOnUpsert(t *testing.T) {
	s := setupStore(t, WithCache(time.Minute))
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, FromFusion(2, fused(t, 0.8, 0.1, 0.5, 1.0))))
	got, err := s.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, s.CacheStats())

	// cached copies are independent of the caller's value
	got.TopEmotion = "mutated"
	again, err := s.Get(ctx, 2)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.TopEmotion)

	replacement := FromFusion(2, fused(t, 0.0, 0.9, -0.9, 4.0))
	require.NoError(t, s.Upsert(ctx, replacement))
	assert.Zero(t, s.CacheStats())

	fresh, err := s.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, replacement.TopEmotion, fresh.TopEmotion)
}

func TestCacheDisabledByDefault(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, FromFusion(3, fused(t, 0.5, 0.2, 0, 0))))
	_, err := s.Get(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, s.CacheStats())
}

func TestListByRecordingsAndRepresentative(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rows, err := s.ListByRecordings(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	for id, top := range map[uint64]string{10: "sad", 11: "happy", 12: "sad"} {
		row := FromFusion(id, fused(t, 0.5, 0.2, 0, 0))
		row.TopEmotion = top
		require.NoError(t, s.Upsert(ctx, row))
	}

	rows, err = s.ListByRecordings(ctx, []uint64{10, 11, 12, 13})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "sad", Representative(rows))
}
