package metrics

import (
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicediary/composite/internal/errors"
)

func gatherFamily(t *testing.T, registry *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric family %s not gathered", name)
	return nil
}

func TestAggregationMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewAggregationMetrics(registry)
	require.NoError(t, err)

	m.RecordAttempt(TriggerAudio, OutcomeAggregated)
	m.RecordAttempt(TriggerAudio, OutcomeAggregated)
	m.RecordAttempt(TriggerText, OutcomeNotReady)
	m.RecordNotReady("waiting")
	m.ObserveDuration(TriggerAudio, 0.02)
	m.AddReclaimed(3)
	m.AddReclaimed(0)
	m.RecordTopEmotion("happy")

	assert.InDelta(t, 2, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues(TriggerAudio, OutcomeAggregated)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues(TriggerText, OutcomeNotReady)), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.LeasesReclaimedTotal), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.AttemptDuration))

	hist := gatherFamily(t, registry, "composite_aggregation_duration_seconds")
	assert.Equal(t, dto.MetricType_HISTOGRAM, hist.GetType())
	require.Len(t, hist.GetMetric(), 1)
	assert.Equal(t, uint64(1), hist.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestSetJobsByStatusResetsMissing(t *testing.T) {
	t.Parallel()

	m, err := NewAggregationMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.SetJobsByStatus(map[string]int64{"pending": 4, "ready": 1})
	assert.Equal(t, 2, testutil.CollectAndCount(m.JobsByStatus))

	m.SetJobsByStatus(map[string]int64{"aggregated": 5})
	assert.Equal(t, 1, testutil.CollectAndCount(m.JobsByStatus))
	assert.InDelta(t, 5, testutil.ToFloat64(m.JobsByStatus.WithLabelValues("aggregated")), 0)
}

func TestNilReceiversAreSafe(t *testing.T) {
	t.Parallel()

	var a *AggregationMetrics
	var n *NotificationMetrics
	var q *MQTTMetrics
	var d *DatastoreMetrics

	assert.NotPanics(t, func() {
		a.RecordAttempt(TriggerSweep, OutcomeFailed)
		a.SetJobsByStatus(map[string]int64{"ready": 1})
		n.RecordDelivery("webhook", StatusSuccess, 0.1)
		n.SetQueueDepth(3)
		q.IncrementErrors()
		q.StartPublishTimer().ObserveDuration()
		d.RecordOperation(OpAcquire, nil, 0.001)
		d.UpdatePoolStats(sql.DBStats{})
	})
}

func TestNotificationMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewNotificationMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordDispatch()
	m.RecordDropped()
	m.SetQueueDepth(7)
	m.RecordDelivery("mqtt", StatusError, 0.3)

	assert.InDelta(t, 1, testutil.ToFloat64(m.DispatchTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DroppedTotal), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(m.QueueDepth), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues("mqtt", StatusError)), 0)
}

func TestDatastoreMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewDatastoreMetrics(registry)
	require.NoError(t, err)

	m.RecordOperation(OpUpsert, nil, 0.004)
	m.RecordOperation(OpUpsert, errors.NewStd("disk full"), 0.2)
	m.UpdatePoolStats(sql.DBStats{OpenConnections: 3, InUse: 1, Idle: 2})

	assert.InDelta(t, 1, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpUpsert, StatusError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpUpsert, StatusSuccess)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.connectionsIdle), 0)

	open := gatherFamily(t, registry, "datastore_db_connections_open")
	assert.Equal(t, dto.MetricType_GAUGE, open.GetType())
	assert.InDelta(t, 3, open.GetMetric()[0].GetGauge().GetValue(), 0)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewMQTTMetrics(registry)
	require.NoError(t, err)
	_, err = NewMQTTMetrics(registry)
	require.Error(t, err)
}
