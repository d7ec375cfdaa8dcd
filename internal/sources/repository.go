package sources

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voicediary/composite/internal/datastore/entities"
	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/fusion"
)

// Repository implements both sources over the voice_analyze and
// voice_content tables.
type Repository struct {
	db *gorm.DB
}

var (
	_ AudioProbabilitySource = (*Repository)(nil)
	_ TextSentimentSource    = (*Repository)(nil)
)

// NewRepository creates a repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AudioProbabilities converts the stored basis points to probabilities and
// rescales them to sum to 1 when any are positive.
func (r *Repository) AudioProbabilities(ctx context.Context, recordingID uint64) (fusion.AudioProbs, error) {
	var probs fusion.AudioProbs

	var row entities.AudioAnalysis
	err := r.db.WithContext(ctx).Where("recording_id = ?", recordingID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return probs, nil
	}
	if err != nil {
		return probs, dbError(err, "read_audio_analysis", recordingID)
	}

	var sum float64
	for i, bps := range row.Shares() {
		probs[i] = math.Max(0, float64(bps)/fusion.TotalBps)
		sum += probs[i]
	}
	if sum > 0 {
		for i := range probs {
			probs[i] /= sum
		}
	}
	return probs, nil
}

// TextSentiment decodes the stored score and magnitude. NULL columns read as 0.
func (r *Repository) TextSentiment(ctx context.Context, recordingID uint64) (score, magnitude float64, err error) {
	var row entities.TextSentiment
	err = r.db.WithContext(ctx).Where("recording_id = ?", recordingID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, dbError(err, "read_text_sentiment", recordingID)
	}

	if row.ScoreBps != nil {
		score = fusion.BpsToUnit(*row.ScoreBps)
	}
	if row.MagnitudeX1000 != nil {
		magnitude = math.Max(0, fusion.FromX1000(*row.MagnitudeX1000))
	}
	return score, magnitude, nil
}

// SaveAudio stores classifier probabilities as basis points summing to
// exactly 10000, replacing any earlier analysis of the recording.
func (r *Repository) SaveAudio(ctx context.Context, recordingID uint64, probs fusion.AudioProbs, modelVersion string) (*entities.AudioAnalysis, error) {
	var weights [fusion.NumLabels]float64
	for i, p := range probs {
		if p > 0 && !math.IsInf(p, 0) {
			weights[i] = p
		}
	}
	d := fusion.NormalizeBps(weights)
	top, conf := d.Top()

	row := &entities.AudioAnalysis{
		RecordingID:      recordingID,
		HappyBps:         d.Get(fusion.Happy),
		SadBps:           d.Get(fusion.Sad),
		NeutralBps:       d.Get(fusion.Neutral),
		AngryBps:         d.Get(fusion.Angry),
		FearBps:          d.Get(fusion.Fear),
		SurpriseBps:      d.Get(fusion.Surprise),
		TopEmotion:       string(top),
		TopConfidenceBps: conf,
		ModelVersion:     modelVersion,
		UpdatedAt:        time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "recording_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"happy_bps", "sad_bps", "neutral_bps", "angry_bps", "fear_bps", "surprise_bps",
			"top_emotion", "top_confidence_bps", "model_version", "updated_at",
		}),
	}).Create(row).Error
	if err != nil {
		return nil, dbError(err, "save_audio_analysis", recordingID)
	}
	return row, nil
}

// SaveText stores a transcription and its sentiment, replacing any earlier one.
func (r *Repository) SaveText(ctx context.Context, recordingID uint64, in TextInput) (*entities.TextSentiment, error) {
	row := &entities.TextSentiment{
		RecordingID: recordingID,
		Content:     in.Content,
		Locale:      in.Locale,
		Provider:    in.Provider,
		UpdatedAt:   time.Now(),
	}
	if in.Score != nil && !math.IsNaN(*in.Score) {
		bps := fusion.UnitToBps(*in.Score)
		row.ScoreBps = &bps
	}
	if in.Magnitude != nil && !math.IsNaN(*in.Magnitude) {
		x := fusion.ToX1000(math.Max(0, *in.Magnitude))
		row.MagnitudeX1000 = &x
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "recording_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"content", "score_bps", "magnitude_x1000", "locale", "provider", "updated_at",
		}),
	}).Create(row).Error
	if err != nil {
		return nil, dbError(err, "save_text_sentiment", recordingID)
	}
	return row, nil
}
