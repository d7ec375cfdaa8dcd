package entities

import "time"

// JobStatus is the barrier state of one recording.
type JobStatus string

const (
	JobStatusPending     JobStatus = "pending"
	JobStatusTextDone    JobStatus = "text_done"
	JobStatusAudioDone   JobStatus = "audio_done"
	JobStatusReady       JobStatus = "ready"
	JobStatusAggregating JobStatus = "aggregating"
	JobStatusAggregated  JobStatus = "aggregated"
)

// JobState is the per-recording coordination row. Done flags only ever move
// from false to true; Locked is true only while an aggregation attempt holds
// the lease identified by LockToken.
type JobState struct {
	ID           uint       `gorm:"primaryKey"`
	RecordingID  uint64     `gorm:"uniqueIndex;not null"`
	TextDone     bool       `gorm:"not null;default:false"`
	AudioDone    bool       `gorm:"not null;default:false"`
	Locked       bool       `gorm:"not null;default:false"`
	Status       JobStatus  `gorm:"type:varchar(20);not null;default:'pending';index"`
	LockToken    string     `gorm:"type:varchar(36)"`
	LeaseUntil   *time.Time `gorm:"index"`
	Attempts     int        `gorm:"not null;default:0"`
	LastError    string     `gorm:"type:text"`
	AggregatedAt *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (JobState) TableName() string {
	return "recording_jobs"
}

// BothDone reports whether both producers have finished.
func (j *JobState) BothDone() bool {
	return j.TextDone && j.AudioDone
}

// LeaseExpired reports whether a held lock may be reclaimed at now.
func (j *JobState) LeaseExpired(now time.Time) bool {
	return j.Locked && (j.LeaseUntil == nil || !now.Before(*j.LeaseUntil))
}

// StatusFor derives the resting status from the done flags.
func StatusFor(textDone, audioDone bool) JobStatus {
	switch {
	case textDone && audioDone:
		return JobStatusReady
	case textDone:
		return JobStatusTextDone
	case audioDone:
		return JobStatusAudioDone
	default:
		return JobStatusPending
	}
}
