package composite

import (
	"github.com/voicediary/composite/internal/datastore/entities"
	"github.com/voicediary/composite/internal/fusion"
)

// FromFusion quantises a fusion result into a storable row.
func FromFusion(recordingID uint64, r fusion.Result) *entities.CompositeResult {
	d := r.Distribution
	return &entities.CompositeResult{
		RecordingID: recordingID,

		TextScoreBps:       fusion.UnitToBps(r.TextValence),
		TextMagnitudeX1000: fusion.ToX1000(r.TextArousal),
		AlphaBps:           fusion.ToBps(r.Alpha),
		BetaBps:            fusion.ToBps(r.Beta),

		ValenceX1000:   fusion.ToX1000(r.Valence),
		ArousalX1000:   fusion.ToX1000(r.Arousal),
		IntensityX1000: fusion.ToX1000(r.Intensity),

		HappyBps:    d.Get(fusion.Happy),
		SadBps:      d.Get(fusion.Sad),
		NeutralBps:  d.Get(fusion.Neutral),
		AngryBps:    d.Get(fusion.Angry),
		FearBps:     d.Get(fusion.Fear),
		SurpriseBps: d.Get(fusion.Surprise),

		TopEmotion:              string(r.TopEmotion),
		TopEmotionConfidenceBps: r.TopConfidence,
	}
}

// Distribution returns the stored shares as a fusion.Distribution.
func Distribution(row *entities.CompositeResult) fusion.Distribution {
	return fusion.Distribution(row.Shares())
}

// Representative returns the most common top emotion across rows.
func Representative(rows []entities.CompositeResult) string {
	labels := make([]string, len(rows))
	for i := range rows {
		labels[i] = rows[i].TopEmotion
	}
	return fusion.Representative(labels)
}
