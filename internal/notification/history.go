package notification

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/voicediary/composite/internal/datastore/entities"
	"github.com/voicediary/composite/internal/errors"
)

// History records delivery outcomes in composite_notifications.
type History struct {
	db *gorm.DB
}

var _ Recorder = (*History)(nil)

// NewHistory creates a history recorder.
func NewHistory(db *gorm.DB) *History {
	return &History{db: db}
}

// Record stores one delivery outcome.
func (h *History) Record(ctx context.Context, e *Event, channel string, sendErr error) error {
	rec := entities.NotificationRecord{
		RecordingID: e.RecordingID,
		TopEmotion:  e.TopEmotion,
		Channel:     channel,
		Status:      entities.NotificationStatusSent,
	}
	if sendErr != nil {
		rec.Status = entities.NotificationStatusFailed
		rec.Error = sendErr.Error()
	}
	if err := h.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return errors.New(fmt.Errorf("record notification: %w", err)).
			Component("notification").
			Category(errors.CategoryDatabase).
			Context("recording_id", e.RecordingID).
			Build()
	}
	return nil
}

// ForRecording lists the delivery records of a recording, oldest first.
func (h *History) ForRecording(ctx context.Context, recordingID uint64) ([]entities.NotificationRecord, error) {
	var recs []entities.NotificationRecord
	err := h.db.WithContext(ctx).
		Where("recording_id = ?", recordingID).
		Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("list notifications: %w", err)).
			Component("notification").
			Category(errors.CategoryDatabase).
			Context("recording_id", recordingID).
			Build()
	}
	return recs, nil
}
