package metrics

import (
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics tracks barrier and composite store operations and the
// connection pool.
type DatastoreMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	connectionsOpen   prometheus.Gauge
	connectionsInUse  prometheus.Gauge
	connectionsIdle   prometheus.Gauge
	waitCount         prometheus.Gauge

	collectors []prometheus.Collector
}

// NewDatastoreMetrics creates and registers the datastore collectors.
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register datastore metrics: %w", err)
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_db_operations_total",
			Help: "Total number of database operations by operation and status",
		},
		[]string{"operation", "status"},
	)
	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datastore_db_operation_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		},
		[]string{"operation"},
	)
	m.connectionsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datastore_db_connections_open",
		Help: "Open database connections",
	})
	m.connectionsInUse = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datastore_db_connections_active",
		Help: "Database connections currently in use",
	})
	m.connectionsIdle = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datastore_db_connections_idle",
		Help: "Idle database connections",
	})
	m.waitCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datastore_db_connection_waits",
		Help: "Total number of connections waited for",
	})

	m.collectors = []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.connectionsOpen,
		m.connectionsInUse,
		m.connectionsIdle,
		m.waitCount,
	}
}

// Describe implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordOperation records one database operation and its duration.
func (m *DatastoreMetrics) RecordOperation(operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// UpdatePoolStats copies connection pool statistics into the gauges.
func (m *DatastoreMetrics) UpdatePoolStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.connectionsOpen.Set(float64(stats.OpenConnections))
	m.connectionsInUse.Set(float64(stats.InUse))
	m.connectionsIdle.Set(float64(stats.Idle))
	m.waitCount.Set(float64(stats.WaitCount))
}
