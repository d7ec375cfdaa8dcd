package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicediary/composite/internal/conf"
	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/fusion"
)

func TestFusionParamsDefaults(t *testing.T) {
	t.Parallel()

	p, err := FusionParams(&conf.Defaults().Fusion)
	require.NoError(t, err)
	assert.Equal(t, fusion.DefaultParams(), p)
}

func TestFusionParamsOverrides(t *testing.T) {
	t.Parallel()

	s := conf.FusionSettings{
		ArousalK:       2,
		SurpriseCapBps: 500,
		Anchors: map[string]conf.AnchorSettings{
			"Happy": {Valence: 0.9, Arousal: 0.5},
		},
	}
	p, err := FusionParams(&s)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, p.ArousalK, 1e-12)
	assert.Equal(t, 500, p.SurpriseCapBps)
	assert.Equal(t, fusion.Anchor{Valence: 0.9, Arousal: 0.5}, p.Anchor(fusion.Happy))
	assert.Equal(t, fusion.DefaultParams().Anchor(fusion.Sad), p.Anchor(fusion.Sad))
}

func TestFusionParamsRejectsUnknownAnchor(t *testing.T) {
	t.Parallel()

	_, err := FusionParams(&conf.FusionSettings{
		Anchors: map[string]conf.AnchorSettings{"bored": {}},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestFusionParamsRejectsInvalidCap(t *testing.T) {
	t.Parallel()

	_, err := FusionParams(&conf.FusionSettings{SurpriseCapBps: 20000})
	require.Error(t, err)
}

func TestNewWiresSQLiteService(t *testing.T) {
	settings := conf.Defaults()
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "app.db")
	settings.Notification.Enabled = false

	a, err := New(settings)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	assert.Nil(t, a.Dispatcher)
	require.NotNil(t, a.Coordinator)

	ctx := context.Background()
	var probs fusion.AudioProbs
	probs.Set(fusion.Happy, 1)
	_, err = a.Sources.SaveAudio(ctx, 1, probs, "v1")
	require.NoError(t, err)

	ok, err := a.Coordinator.OnAudioDone(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = a.Coordinator.OnTextDone(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	row, err := a.Composites.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, string(fusion.Happy), row.TopEmotion)

	a.RefreshPoolStats()
}
