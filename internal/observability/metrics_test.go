package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicediary/composite/internal/conf"
	"github.com/voicediary/composite/internal/observability/metrics"
)

// TestNewMetricsConcurrency verifies that every call gets its own registry.
func TestNewMetricsConcurrency(t *testing.T) {
	const numGoroutines = 20

	var wg sync.WaitGroup
	for range numGoroutines {
		wg.Go(func() {
			m, err := NewMetrics()
			if !assert.NoError(t, err) {
				return
			}
			assert.NotNil(t, m.Registry())
			assert.NotNil(t, m.Aggregation)
			assert.NotNil(t, m.Notification)
			assert.NotNil(t, m.MQTT)
			assert.NotNil(t, m.Datastore)
		})
	}
	wg.Wait()
}

func TestMetricsHandlerServesCollectors(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)
	m.Aggregation.RecordAttempt(metrics.TriggerAudio, metrics.OutcomeAggregated)

	mux := http.NewServeMux()
	m.RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `composite_aggregation_attempts_total{outcome="aggregated",trigger="audio"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewEndpointRequiresEnabled(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	_, err = NewEndpoint(&conf.TelemetrySettings{Enabled: false}, m)
	require.Error(t, err)

	e, err := NewEndpoint(&conf.TelemetrySettings{Enabled: true, Listen: "127.0.0.1:0"}, m)
	require.NoError(t, err)
	assert.Same(t, m, e.GetMetrics())
}

func TestEndpointStopsOnQuit(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	e, err := NewEndpoint(&conf.TelemetrySettings{Enabled: true, Listen: "127.0.0.1:0"}, m)
	require.NoError(t, err)

	var wg sync.WaitGroup
	quit := make(chan struct{})
	e.Start(&wg, quit)
	close(quit)
	wg.Wait()
}
