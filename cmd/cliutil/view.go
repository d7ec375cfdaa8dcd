package cliutil

import (
	"time"

	"github.com/voicediary/composite/internal/composite"
	"github.com/voicediary/composite/internal/datastore/entities"
	"github.com/voicediary/composite/internal/fusion"
)

// CompositeView is the printable form of a stored composite.
type CompositeView struct {
	RecordingID    uint64         `json:"recording_id" yaml:"recording_id"`
	TopEmotion     string         `json:"top_emotion" yaml:"top_emotion"`
	DisplayEmotion string         `json:"display_emotion" yaml:"display_emotion"`
	ConfidenceBps  int            `json:"confidence_bps" yaml:"confidence_bps"`
	Valence        float64        `json:"valence" yaml:"valence"`
	Arousal        float64        `json:"arousal" yaml:"arousal"`
	Intensity      float64        `json:"intensity" yaml:"intensity"`
	TextScore      float64        `json:"text_score" yaml:"text_score"`
	TextArousal    float64        `json:"text_arousal" yaml:"text_arousal"`
	AlphaBps       int            `json:"alpha_bps" yaml:"alpha_bps"`
	BetaBps        int            `json:"beta_bps" yaml:"beta_bps"`
	Distribution   map[string]int `json:"distribution" yaml:"distribution"`
	CreatedAt      time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" yaml:"updated_at"`
}

// NewCompositeView converts a stored row back into readable units.
func NewCompositeView(row *entities.CompositeResult) CompositeView {
	d := composite.Distribution(row)
	dist := make(map[string]int, fusion.NumLabels)
	for i, l := range fusion.Labels {
		dist[string(l)] = d[i]
	}

	display := row.TopEmotion
	if l, ok := fusion.ParseLabel(row.TopEmotion); ok {
		display = fusion.DisplayLabel(l)
	}

	return CompositeView{
		RecordingID:    row.RecordingID,
		TopEmotion:     row.TopEmotion,
		DisplayEmotion: display,
		ConfidenceBps:  row.TopEmotionConfidenceBps,
		Valence:        fusion.FromX1000(row.ValenceX1000),
		Arousal:        fusion.FromX1000(row.ArousalX1000),
		Intensity:      fusion.FromX1000(row.IntensityX1000),
		TextScore:      fusion.BpsToUnit(row.TextScoreBps),
		TextArousal:    fusion.FromX1000(row.TextMagnitudeX1000),
		AlphaBps:       row.AlphaBps,
		BetaBps:        row.BetaBps,
		Distribution:   dist,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
