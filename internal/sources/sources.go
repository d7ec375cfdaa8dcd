// Package sources reads the producer-side analysis rows that feed fusion and
// writes them on behalf of the producers.
package sources

import (
	"context"
	"fmt"

	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/fusion"
)

// AudioProbabilitySource yields the emotion probabilities of a recording.
// A recording without an analysis yields all zeros.
type AudioProbabilitySource interface {
	AudioProbabilities(ctx context.Context, recordingID uint64) (fusion.AudioProbs, error)
}

// TextSentimentSource yields the sentiment score in [-1, 1] and the
// non-negative magnitude of a recording's transcript. A recording without
// a sentiment yields (0, 0).
type TextSentimentSource interface {
	TextSentiment(ctx context.Context, recordingID uint64) (score, magnitude float64, err error)
}

// TextInput is a finished transcription. Score and Magnitude are nil when
// the sentiment provider returned nothing.
type TextInput struct {
	Content   string
	Score     *float64
	Magnitude *float64
	Locale    string
	Provider  string
}

func dbError(err error, op string, id uint64) error {
	return errors.New(fmt.Errorf("%s: %w", op, err)).
		Component("sources").
		Category(errors.CategoryDatabase).
		Context("operation", op).
		Context("recording_id", id).
		Build()
}
