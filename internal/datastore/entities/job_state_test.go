package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, JobStatusPending, StatusFor(false, false))
	assert.Equal(t, JobStatusTextDone, StatusFor(true, false))
	assert.Equal(t, JobStatusAudioDone, StatusFor(false, true))
	assert.Equal(t, JobStatusReady, StatusFor(true, true))
}

func TestJobState_LeaseExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Minute)
	past := now.Add(-time.Second)

	assert.False(t, (&JobState{Locked: false, LeaseUntil: &past}).LeaseExpired(now))
	assert.False(t, (&JobState{Locked: true, LeaseUntil: &future}).LeaseExpired(now))
	assert.True(t, (&JobState{Locked: true, LeaseUntil: &past}).LeaseExpired(now))
	assert.True(t, (&JobState{Locked: true}).LeaseExpired(now))
}
