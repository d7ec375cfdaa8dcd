package observability

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/voicediary/composite/internal/conf"
	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/logger"
	"github.com/voicediary/composite/internal/observability/metrics"
)

var log = logger.Global().Module("telemetry")

// Endpoint serves the Prometheus scrape endpoint.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
}

// NewEndpoint creates an endpoint for m. It fails when telemetry is disabled.
func NewEndpoint(settings *conf.TelemetrySettings, m *Metrics) (*Endpoint, error) {
	if !settings.Enabled {
		return nil, fmt.Errorf("telemetry not enabled in settings")
	}
	return &Endpoint{
		listenAddress: settings.Listen,
		metrics:       m,
	}, nil
}

// Start runs the HTTP server in a goroutine tracked by wg and shuts it down
// when quitChan is closed.
func (e *Endpoint) Start(wg *sync.WaitGroup, quitChan <-chan struct{}) {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	e.server = &http.Server{
		Addr:              e.listenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Go(func() {
		log.Info("telemetry endpoint starting", logger.String("address", e.listenAddress))
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("telemetry HTTP server error", logger.Error(err))
		}
	})

	wg.Go(func() {
		<-quitChan
		e.shutdown()
	})
}

func (e *Endpoint) shutdown() {
	log.Info("stopping telemetry server")
	ctx, cancel := context.WithTimeout(context.Background(), metrics.ShutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(ctx); err != nil {
		log.Error("telemetry server shutdown error", logger.Error(err))
	}
}

// GetMetrics returns the Metrics served by this endpoint.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}
