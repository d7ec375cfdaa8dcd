package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.reported = append(r.reported, ee)
	ee.MarkReported()
}

func (r *recordingReporter) IsEnabled() bool { return true }

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	ee := New(fmt.Errorf("boom")).Build()
	assert.Equal(t, "boom", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.Component)
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.Timestamp.IsZero())
}

func TestBuilderCarriesMetadata(t *testing.T) {
	t.Parallel()

	base := NewStd("row missing")
	ee := New(base).
		Component("jobstate").
		Category(CategoryNotFound).
		Priority(PriorityHigh).
		Context("recording_id", uint64(7)).
		Build()

	assert.Equal(t, "jobstate", ee.Component)
	assert.Equal(t, PriorityHigh, ee.Priority)
	assert.Equal(t, uint64(7), ee.GetContext()["recording_id"])
	assert.True(t, IsNotFound(ee))
	require.ErrorIs(t, ee, base)
}

func TestPriorityFallsBackToMedium(t *testing.T) {
	t.Parallel()

	ee := Newf("x").Priority("urgent").Build()
	assert.Equal(t, PriorityMedium, ee.Priority)
}

func TestCategoryInheritedFromWrappedError(t *testing.T) {
	t.Parallel()

	inner := New(NewStd("lock held")).Category(CategoryConflict).Build()
	outer := New(fmt.Errorf("acquire: %w", inner)).Build()
	assert.Equal(t, CategoryConflict, outer.Category)
}

func TestCategoryHeuristics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  string
		want ErrorCategory
	}{
		{"context deadline exceeded", CategoryTimeout},
		{"connection refused", CategoryNetwork},
		{"record not found", CategoryNotFound},
		{"invalid lease duration", CategoryValidation},
		{"something odd", CategoryGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, New(NewStd(tt.msg)).Build().Category, tt.msg)
	}
}

func TestTelemetryReporterReceivesErrors(t *testing.T) {
	rep := &recordingReporter{}
	SetTelemetryReporter(rep)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := Newf("fusion failed").Component("aggregation").Category(CategoryProcessing).Build()

	require.Len(t, rep.reported, 1)
	assert.Same(t, ee, rep.reported[0])
	assert.True(t, ee.IsReported())
}

func TestScrubMessage(t *testing.T) {
	t.Parallel()

	got := scrubMessage("POST https://hooks.example.com/x?token=abc failed: password=hunter2")
	assert.NotContains(t, got, "abc")
	assert.NotContains(t, got, "hunter2")
	assert.Contains(t, got, "https://hooks.example.com/x?[REDACTED]")

	got = scrubMessage("dial tcp mysql://root:secret@db:3306")
	assert.NotContains(t, got, "secret")
}

func TestErrorTitle(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("x")).Component("jobstate").Category(CategoryDatabase).Context("operation", "mark_text_done").Build()
	assert.Equal(t, "Jobstate Database Error Mark Text Done", errorTitle(ee))
}
