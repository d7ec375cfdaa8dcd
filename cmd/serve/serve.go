package serve

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voicediary/composite/internal/app"
	"github.com/voicediary/composite/internal/conf"
	"github.com/voicediary/composite/internal/logger"
	"github.com/voicediary/composite/internal/observability"
)

const poolStatsInterval = 30 * time.Second

// Command runs the long-lived service: sweeper, notification delivery and
// the telemetry endpoint.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		listen    string
		telemetry bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sweeper and notification workers",
		Long: `Run the composite service until interrupted.

The sweeper periodically reclaims expired aggregation leases and retries
recordings whose producers both finished but whose aggregation failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("telemetry") {
				settings.Telemetry.Enabled = telemetry
			}
			if cmd.Flags().Changed("listen") {
				settings.Telemetry.Listen = listen
			}
			return run(cmd.Context(), settings)
		},
	}

	cmd.Flags().BoolVar(&telemetry, "telemetry", false, "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address and port of telemetry endpoint")

	return cmd
}

func run(parent context.Context, settings *conf.Settings) error {
	log := logger.Global().Module("serve")

	a, err := app.New(settings)
	if err != nil {
		return err
	}
	defer a.Shutdown()
	a.Start()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	quitChan := make(chan struct{})

	if settings.Telemetry.Enabled {
		endpoint, err := observability.NewEndpoint(&settings.Telemetry, a.Metrics)
		if err != nil {
			return err
		}
		endpoint.Start(&wg, quitChan)
	}

	wg.Go(func() {
		a.Coordinator.RunSweeper(ctx, settings.Aggregation.SweepInterval, settings.Aggregation.SweepOnStart)
	})

	wg.Go(func() {
		ticker := time.NewTicker(poolStatsInterval)
		defer ticker.Stop()
		for {
			a.RefreshPoolStats()
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	})

	log.Info("composite service running",
		logger.Duration("sweep_interval", settings.Aggregation.SweepInterval),
		logger.Bool("telemetry", settings.Telemetry.Enabled))

	<-ctx.Done()
	log.Info("shutdown signal received")
	close(quitChan)
	wg.Wait()
	return nil
}
