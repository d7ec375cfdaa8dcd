// Package metrics provides the Prometheus collectors of the composite service.
package metrics

import "time"

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Aggregation outcome label values.
const (
	OutcomeAggregated = "aggregated"
	OutcomeNotReady   = "not_ready"
	OutcomeFailed     = "failed"
)

// Aggregation trigger label values.
const (
	TriggerText      = "text"
	TriggerAudio     = "audio"
	TriggerSweep     = "sweep"
	TriggerRecompute = "recompute"
	TriggerDirect    = "direct"
)

// Datastore operation label values.
const (
	OpAcquire     = "acquire"
	OpRelease     = "release"
	OpMarkDone    = "mark_done"
	OpReadSources = "read_sources"
	OpUpsert      = "upsert"
	OpReclaim     = "reclaim"
	OpListReady   = "list_ready"
)

// Histogram bucket configuration.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~2s range).
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01
	// BucketStart64B is the starting bucket for message size histograms.
	BucketStart64B = 64.0
	// BucketFactor2 is the exponential growth factor of every histogram.
	BucketFactor2 = 2
	BucketCount10 = 10
	BucketCount12 = 12
)

// ShutdownTimeout bounds the graceful shutdown of the metrics endpoint.
const ShutdownTimeout = 5 * time.Second
