package entities

import "time"

// CompositeResult is the fused affect of one recording. Written by upsert on
// RecordingID so recomputation overwrites instead of duplicating.
type CompositeResult struct {
	ID          uint   `gorm:"primaryKey"`
	RecordingID uint64 `gorm:"uniqueIndex;not null"`

	TextScoreBps       int `gorm:"column:text_score_bps;not null"`       // score mapped from [-1,1] onto [0,10000]
	TextMagnitudeX1000 int `gorm:"column:text_magnitude_x1000;not null"` // text arousal ×1000
	AlphaBps           int `gorm:"column:alpha_bps;not null"`
	BetaBps            int `gorm:"column:beta_bps;not null"`

	ValenceX1000   int `gorm:"column:valence_x1000;not null"`
	ArousalX1000   int `gorm:"column:arousal_x1000;not null"`
	IntensityX1000 int `gorm:"column:intensity_x1000;not null"`

	HappyBps    int `gorm:"column:happy_bps;not null"`
	SadBps      int `gorm:"column:sad_bps;not null"`
	NeutralBps  int `gorm:"column:neutral_bps;not null"`
	AngryBps    int `gorm:"column:angry_bps;not null"`
	FearBps     int `gorm:"column:fear_bps;not null"`
	SurpriseBps int `gorm:"column:surprise_bps;not null"`

	TopEmotion              string `gorm:"type:varchar(16)"`
	TopEmotionConfidenceBps int    `gorm:"column:top_emotion_confidence_bps"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (CompositeResult) TableName() string {
	return "voice_composite"
}

// Shares returns the six category shares in label declaration order.
func (c *CompositeResult) Shares() [6]int {
	return [6]int{c.HappyBps, c.SadBps, c.NeutralBps, c.AngryBps, c.FearBps, c.SurpriseBps}
}
