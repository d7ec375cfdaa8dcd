// Package notification fans finished composites out to push providers.
//
// The Dispatcher owns a bounded queue drained by a fixed number of workers.
// Each event is offered to every enabled provider with a per-attempt
// timeout; retryable failures are retried a bounded number of times.
// Delivery never blocks or fails the aggregation that produced the event.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/voicediary/composite/internal/datastore/entities"
	"github.com/voicediary/composite/internal/fusion"
)

// Event is the downstream notification of a stored composite.
type Event struct {
	RecordingID    uint64         `json:"recording_id"`
	TopEmotion     string         `json:"top_emotion"`
	DisplayEmotion string         `json:"display_emotion"`
	ConfidenceBps  int            `json:"confidence_bps"`
	ValenceX1000   int            `json:"valence_x1000"`
	ArousalX1000   int            `json:"arousal_x1000"`
	IntensityX1000 int            `json:"intensity_x1000"`
	Distribution   map[string]int `json:"distribution"`
	TraceID        string         `json:"trace_id,omitzero"`
	Timestamp      time.Time      `json:"timestamp"`
}

// NewEvent builds the event for a stored composite row.
func NewEvent(row *entities.CompositeResult, traceID string) Event {
	d := fusion.Distribution(row.Shares())
	dist := make(map[string]int, fusion.NumLabels)
	for i, l := range fusion.Labels {
		dist[string(l)] = d[i]
	}

	display := row.TopEmotion
	if l, ok := fusion.ParseLabel(row.TopEmotion); ok {
		display = fusion.DisplayLabel(l)
	}

	return Event{
		RecordingID:    row.RecordingID,
		TopEmotion:     row.TopEmotion,
		DisplayEmotion: display,
		ConfidenceBps:  row.TopEmotionConfidenceBps,
		ValenceX1000:   row.ValenceX1000,
		ArousalX1000:   row.ArousalX1000,
		IntensityX1000: row.IntensityX1000,
		Distribution:   dist,
		TraceID:        traceID,
		Timestamp:      time.Now().UTC(),
	}
}

// Title returns a short human-readable title.
func (e *Event) Title() string {
	return "Voice diary analysed"
}

// Message returns the human-readable body.
func (e *Event) Message() string {
	return fmt.Sprintf("Recording %d: %s (%d%%)", e.RecordingID, e.DisplayEmotion, (e.ConfidenceBps+50)/100)
}

// Provider is a delivery backend. Implementations must be safe for concurrent use.
type Provider interface {
	GetName() string
	ValidateConfig() error
	Send(ctx context.Context, e *Event) error
	IsEnabled() bool
}

// Recorder persists the outcome of each delivery.
type Recorder interface {
	Record(ctx context.Context, e *Event, channel string, sendErr error) error
}

// providerError allows providers to mark errors as retryable.
type providerError struct {
	Err       error
	Retryable bool
}

func (e *providerError) Error() string { return e.Err.Error() }
func (e *providerError) Unwrap() error { return e.Err }

func retryable(err error) error {
	return &providerError{Err: err, Retryable: true}
}
