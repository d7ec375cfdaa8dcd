package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics tracks the notification dispatcher and its providers.
type NotificationMetrics struct {
	DeliveriesTotal  *prometheus.CounterVec   // by provider and status
	DeliveryDuration *prometheus.HistogramVec // by provider
	DispatchTotal    prometheus.Counter
	DroppedTotal     prometheus.Counter
	QueueDepth       prometheus.Gauge

	collectors []prometheus.Collector
}

// NewNotificationMetrics creates and registers the notification collectors.
func NewNotificationMetrics(registry *prometheus.Registry) (*NotificationMetrics, error) {
	m := &NotificationMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register notification metrics: %w", err)
	}
	return m, nil
}

func (m *NotificationMetrics) initMetrics() {
	m.DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_provider_deliveries_total",
			Help: "Notification deliveries by provider and status",
		},
		[]string{"provider", "status"},
	)
	m.DeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_provider_delivery_duration_seconds",
			Help:    "Time taken for notification delivery by provider",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"provider"},
	)
	m.DispatchTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_dispatch_total",
		Help: "Events accepted by the dispatcher",
	})
	m.DroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_dropped_total",
		Help: "Events dropped because the queue was full or closed",
	})
	m.QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notification_queue_depth",
		Help: "Events waiting in the dispatcher queue",
	})

	m.collectors = []prometheus.Collector{
		m.DeliveriesTotal,
		m.DeliveryDuration,
		m.DispatchTotal,
		m.DroppedTotal,
		m.QueueDepth,
	}
}

// Describe implements the prometheus.Collector interface.
func (m *NotificationMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface.
func (m *NotificationMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordDelivery records one provider delivery.
func (m *NotificationMetrics) RecordDelivery(provider, status string, seconds float64) {
	if m == nil {
		return
	}
	m.DeliveriesTotal.WithLabelValues(provider, status).Inc()
	m.DeliveryDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordDispatch counts an accepted event.
func (m *NotificationMetrics) RecordDispatch() {
	if m == nil {
		return
	}
	m.DispatchTotal.Inc()
}

// RecordDropped counts a dropped event.
func (m *NotificationMetrics) RecordDropped() {
	if m == nil {
		return
	}
	m.DroppedTotal.Inc()
}

// SetQueueDepth updates the queue depth gauge.
func (m *NotificationMetrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}
