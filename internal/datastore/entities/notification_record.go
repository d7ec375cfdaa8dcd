package entities

import "time"

// NotificationStatus is the delivery outcome of a notification.
type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// NotificationRecord is one delivery attempt of a finished composite.
type NotificationRecord struct {
	ID          uint               `gorm:"primaryKey"`
	RecordingID uint64             `gorm:"index;not null"`
	TopEmotion  string             `gorm:"type:varchar(16)"`
	Channel     string             `gorm:"type:varchar(32);not null"`
	Status      NotificationStatus `gorm:"type:varchar(10);not null"`
	Error       string             `gorm:"type:text"`
	CreatedAt   time.Time          `gorm:"autoCreateTime;index"`
}

// TableName returns the table name for GORM.
func (NotificationRecord) TableName() string {
	return "composite_notifications"
}
