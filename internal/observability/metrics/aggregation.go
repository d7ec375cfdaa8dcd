package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// AggregationMetrics tracks the completion barrier and fusion.
// All methods are safe on a nil receiver so callers may run without metrics.
type AggregationMetrics struct {
	AttemptsTotal        *prometheus.CounterVec   // by trigger and outcome
	NotReadyTotal        *prometheus.CounterVec   // by reason
	AttemptDuration      *prometheus.HistogramVec // by trigger
	LeasesReclaimedTotal prometheus.Counter
	JobsByStatus         *prometheus.GaugeVec
	TopEmotionTotal      *prometheus.CounterVec
	SweepDuration        prometheus.Histogram

	collectors []prometheus.Collector
}

// NewAggregationMetrics creates and registers the aggregation collectors.
func NewAggregationMetrics(registry *prometheus.Registry) (*AggregationMetrics, error) {
	m := &AggregationMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register aggregation metrics: %w", err)
	}
	return m, nil
}

func (m *AggregationMetrics) initMetrics() {
	m.AttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "composite_aggregation_attempts_total",
			Help: "Aggregation attempts by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)
	m.NotReadyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "composite_aggregation_not_ready_total",
			Help: "Declined aggregation attempts by reason",
		},
		[]string{"reason"},
	)
	m.AttemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "composite_aggregation_duration_seconds",
			Help:    "Duration of successful aggregations from acquire to release",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		},
		[]string{"trigger"},
	)
	m.LeasesReclaimedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "composite_aggregation_leases_reclaimed_total",
		Help: "Aggregation locks released because their lease expired",
	})
	m.JobsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "composite_jobs",
			Help: "Recording jobs by barrier status",
		},
		[]string{"status"},
	)
	m.TopEmotionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "composite_top_emotion_total",
			Help: "Fused composites by top emotion",
		},
		[]string{"emotion"},
	)
	m.SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "composite_sweep_duration_seconds",
		Help:    "Duration of sweep passes",
		Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount10),
	})

	m.collectors = []prometheus.Collector{
		m.AttemptsTotal,
		m.NotReadyTotal,
		m.AttemptDuration,
		m.LeasesReclaimedTotal,
		m.JobsByStatus,
		m.TopEmotionTotal,
		m.SweepDuration,
	}
}

// Describe implements the prometheus.Collector interface.
func (m *AggregationMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface.
func (m *AggregationMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordAttempt counts one aggregation attempt.
func (m *AggregationMetrics) RecordAttempt(trigger, outcome string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(trigger, outcome).Inc()
}

// RecordNotReady counts a declined acquisition.
func (m *AggregationMetrics) RecordNotReady(reason string) {
	if m == nil {
		return
	}
	m.NotReadyTotal.WithLabelValues(reason).Inc()
}

// ObserveDuration records how long a successful aggregation took.
func (m *AggregationMetrics) ObserveDuration(trigger string, seconds float64) {
	if m == nil {
		return
	}
	m.AttemptDuration.WithLabelValues(trigger).Observe(seconds)
}

// AddReclaimed counts expired leases released by a sweep.
func (m *AggregationMetrics) AddReclaimed(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.LeasesReclaimedTotal.Add(float64(n))
}

// SetJobsByStatus replaces the job gauges. Statuses absent from counts are reset to 0.
func (m *AggregationMetrics) SetJobsByStatus(counts map[string]int64) {
	if m == nil {
		return
	}
	m.JobsByStatus.Reset()
	for status, n := range counts {
		m.JobsByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// RecordTopEmotion counts a stored composite by its top emotion.
func (m *AggregationMetrics) RecordTopEmotion(emotion string) {
	if m == nil {
		return
	}
	m.TopEmotionTotal.WithLabelValues(emotion).Inc()
}

// ObserveSweep records the duration of a sweep pass.
func (m *AggregationMetrics) ObserveSweep(seconds float64) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(seconds)
}
