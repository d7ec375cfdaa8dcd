package entities

import "time"

// TextSentiment holds the transcript and sentiment of one recording.
// Score and magnitude are nullable because transcription can finish
// without a sentiment result.
type TextSentiment struct {
	ID             uint   `gorm:"primaryKey"`
	RecordingID    uint64 `gorm:"uniqueIndex;not null"`
	Content        string `gorm:"type:text"`
	ScoreBps       *int   `gorm:"column:score_bps"`       // score mapped from [-1,1] onto [0,10000]
	MagnitudeX1000 *int   `gorm:"column:magnitude_x1000"` // magnitude ×1000
	Locale         string `gorm:"type:varchar(16)"`
	Provider       string `gorm:"type:varchar(32)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (TextSentiment) TableName() string {
	return "voice_content"
}
