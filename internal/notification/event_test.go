package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voicediary/composite/internal/datastore/entities"
)

func TestNewEventShowsFearAsAnxiety(t *testing.T) {
	t.Parallel()

	row := &entities.CompositeResult{
		RecordingID:             12,
		FearBps:                 6150,
		NeutralBps:              3850,
		TopEmotion:              "fear",
		TopEmotionConfidenceBps: 6150,
		ValenceX1000:            -420,
		ArousalX1000:            510,
	}
	e := NewEvent(row, "trace-1")

	assert.Equal(t, "fear", e.TopEmotion)
	assert.Equal(t, "anxiety", e.DisplayEmotion)
	assert.Equal(t, "trace-1", e.TraceID)
	assert.Equal(t, 6150, e.Distribution["fear"])
	assert.Equal(t, 0, e.Distribution["surprise"])
	assert.Len(t, e.Distribution, 6)
	assert.Equal(t, "Recording 12: anxiety (62%)", e.Message())
	assert.False(t, e.Timestamp.IsZero())
}

func TestNewEventKeepsUnknownLabel(t *testing.T) {
	t.Parallel()

	e := NewEvent(&entities.CompositeResult{RecordingID: 1, TopEmotion: "unknown"}, "")
	assert.Equal(t, "unknown", e.DisplayEmotion)
}
