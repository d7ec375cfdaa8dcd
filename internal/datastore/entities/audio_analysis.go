package entities

import "time"

// AudioAnalysis holds the emotion classifier output for one recording as
// basis points per category.
type AudioAnalysis struct {
	ID          uint   `gorm:"primaryKey"`
	RecordingID uint64 `gorm:"uniqueIndex;not null"`

	HappyBps    int `gorm:"column:happy_bps;not null;default:0"`
	SadBps      int `gorm:"column:sad_bps;not null;default:0"`
	NeutralBps  int `gorm:"column:neutral_bps;not null;default:0"`
	AngryBps    int `gorm:"column:angry_bps;not null;default:0"`
	FearBps     int `gorm:"column:fear_bps;not null;default:0"`
	SurpriseBps int `gorm:"column:surprise_bps;not null;default:0"`

	TopEmotion       string `gorm:"type:varchar(16)"`
	TopConfidenceBps int    `gorm:"column:top_confidence_bps"`
	ModelVersion     string `gorm:"type:varchar(32)"`

	AnalyzedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (AudioAnalysis) TableName() string {
	return "voice_analyze"
}

// Shares returns the six category shares in label declaration order.
func (a *AudioAnalysis) Shares() [6]int {
	return [6]int{a.HappyBps, a.SadBps, a.NeutralBps, a.AngryBps, a.FearBps, a.SurpriseBps}
}
