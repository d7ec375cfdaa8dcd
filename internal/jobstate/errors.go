package jobstate

import (
	"fmt"

	"github.com/voicediary/composite/internal/errors"
)

var (
	// ErrNotReady is matched by every NotReadyError.
	ErrNotReady = errors.NewStd("job not ready for aggregation")
	// ErrJobNotFound is returned when no barrier row exists for a recording.
	ErrJobNotFound = errors.NewStd("job not found")
	// ErrLeaseLost is returned when releasing a lock whose lease was taken over.
	ErrLeaseLost = errors.NewStd("aggregation lease lost")
)

// Reason explains why a job could not be acquired.
type Reason string

const (
	ReasonMissing    Reason = "missing"    // no barrier row yet
	ReasonWaiting    Reason = "waiting"    // a producer has not finished
	ReasonLocked     Reason = "locked"     // another attempt holds an unexpired lease
	ReasonAggregated Reason = "aggregated" // already fused for this completion
)

// NotReadyError reports that acquisition was declined. It is an expected
// outcome, not a failure.
type NotReadyError struct {
	RecordingID uint64
	Reason      Reason
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("recording %d not ready for aggregation: %s", e.RecordingID, e.Reason)
}

// Is makes errors.Is(err, ErrNotReady) match.
func (e *NotReadyError) Is(target error) bool {
	return target == ErrNotReady
}

// ReasonOf returns the reason carried by a NotReadyError, or "".
func ReasonOf(err error) Reason {
	var nre *NotReadyError
	if errors.As(err, &nre) {
		return nre.Reason
	}
	return ""
}

func notReady(id uint64, reason Reason) error {
	return &NotReadyError{RecordingID: id, Reason: reason}
}

func dbError(err error, op string, id uint64) error {
	return errors.New(fmt.Errorf("%s: %w", op, err)).
		Component("jobstate").
		Category(errors.CategoryDatabase).
		Context("operation", op).
		Context("recording_id", id).
		Build()
}
