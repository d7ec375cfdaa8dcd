package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MQTTMetrics tracks the broker connection used to publish composite events.
type MQTTMetrics struct {
	ConnectionStatus  prometheus.Gauge
	MessagesDelivered prometheus.Counter
	Errors            prometheus.Counter
	ReconnectAttempts prometheus.Counter
	MessageSize       prometheus.Histogram
	PublishLatency    prometheus.Histogram
}

// NewMQTTMetrics creates and registers the MQTT collectors.
func NewMQTTMetrics(registry *prometheus.Registry) (*MQTTMetrics, error) {
	m := &MQTTMetrics{
		ConnectionStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "composite_mqtt_connected",
			Help: "1 while the composite event publisher holds a broker connection",
		}),
		MessagesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "composite_mqtt_published_total",
			Help: "Composite events acknowledged by the broker",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "composite_mqtt_errors_total",
			Help: "Failed connects and publishes",
		}),
		ReconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "composite_mqtt_reconnects_total",
			Help: "Automatic reconnects after a lost connection",
		}),
		MessageSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "composite_mqtt_payload_bytes",
			Help:    "Encoded composite event size",
			Buckets: prometheus.ExponentialBuckets(BucketStart64B, BucketFactor2, BucketCount10),
		}),
		PublishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "composite_mqtt_publish_seconds",
			Help:    "Time from publish to broker acknowledgement",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register MQTT metrics: %w", err)
	}
	return m, nil
}

// UpdateConnectionStatus sets the connection gauge.
func (m *MQTTMetrics) UpdateConnectionStatus(connected bool) {
	if m == nil {
		return
	}
	v := 0.0
	if connected {
		v = 1
	}
	m.ConnectionStatus.Set(v)
}

// IncrementMessagesDelivered counts an acknowledged publish.
func (m *MQTTMetrics) IncrementMessagesDelivered() {
	if m == nil {
		return
	}
	m.MessagesDelivered.Inc()
}

func (m *MQTTMetrics) IncrementErrors() {
	if m == nil {
		return
	}
	m.Errors.Inc()
}

func (m *MQTTMetrics) IncrementReconnectAttempts() {
	if m == nil {
		return
	}
	m.ReconnectAttempts.Inc()
}

// ObserveMessageSize records the size of a published payload.
func (m *MQTTMetrics) ObserveMessageSize(sizeBytes int) {
	if m == nil {
		return
	}
	m.MessageSize.Observe(float64(sizeBytes))
}

// StartPublishTimer returns a timer for one publish. It is safe on a nil receiver.
func (m *MQTTMetrics) StartPublishTimer() *PublishTimer {
	return &PublishTimer{start: time.Now(), metrics: m}
}

type PublishTimer struct {
	start   time.Time
	metrics *MQTTMetrics
}

// ObserveDuration records the time since StartPublishTimer.
func (pt *PublishTimer) ObserveDuration() {
	if pt.metrics == nil {
		return
	}
	pt.metrics.PublishLatency.Observe(time.Since(pt.start).Seconds())
}

// Collect implements prometheus.Collector.
func (m *MQTTMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.ConnectionStatus
	ch <- m.MessagesDelivered
	ch <- m.Errors
	ch <- m.ReconnectAttempts
	ch <- m.MessageSize
	ch <- m.PublishLatency
}

// Describe implements prometheus.Collector.
func (m *MQTTMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.ConnectionStatus.Desc()
	ch <- m.MessagesDelivered.Desc()
	ch <- m.Errors.Desc()
	ch <- m.ReconnectAttempts.Desc()
	ch <- m.MessageSize.Desc()
	ch <- m.PublishLatency.Desc()
}
