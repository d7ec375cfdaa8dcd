// Package app assembles the composite service from its settings.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/voicediary/composite/internal/aggregation"
	"github.com/voicediary/composite/internal/composite"
	"github.com/voicediary/composite/internal/conf"
	"github.com/voicediary/composite/internal/datastore"
	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/fusion"
	"github.com/voicediary/composite/internal/jobstate"
	"github.com/voicediary/composite/internal/logger"
	"github.com/voicediary/composite/internal/notification"
	"github.com/voicediary/composite/internal/observability"
	"github.com/voicediary/composite/internal/sources"
)

// shutdownTimeout bounds Close during process exit.
const shutdownTimeout = 15 * time.Second

// App holds the wired components of one process.
type App struct {
	Settings    *conf.Settings
	DB          datastore.Manager
	Metrics     *observability.Metrics
	Jobs        *jobstate.Store
	Sources     *sources.Repository
	Composites  *composite.Store
	History     *notification.History
	Dispatcher  *notification.Dispatcher
	Coordinator *aggregation.Coordinator

	log logger.Logger
}

// New opens the database and builds every component. The notification
// dispatcher is created but not started; call Start for that.
func New(settings *conf.Settings) (*App, error) {
	log := logger.Global().Module("app")

	params, err := FusionParams(&settings.Fusion)
	if err != nil {
		return nil, err
	}
	engine, err := fusion.NewEngine(params)
	if err != nil {
		return nil, err
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	db, err := datastore.Open(&settings.Database, logger.Global().Module("datastore"))
	if err != nil {
		return nil, err
	}

	a := &App{
		Settings: settings,
		DB:       db,
		Metrics:  m,
		Jobs: jobstate.NewStore(db.DB(), settings.Aggregation.LeaseDuration,
			jobstate.WithLogger(logger.Global().Module("jobstate"))),
		Sources: sources.NewRepository(db.DB()),
		History: notification.NewHistory(db.DB()),
		log:     log,
	}

	var compositeOpts []composite.Option
	if settings.Cache.Enabled {
		compositeOpts = append(compositeOpts, composite.WithCache(settings.Cache.TTL))
	}
	a.Composites = composite.NewStore(db.DB(), compositeOpts...)

	if settings.Notification.Enabled {
		providers, err := notification.ProvidersFromSettings(&settings.Notification, m.MQTT)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		cfg := notification.DispatcherConfig{
			Workers:   settings.Notification.Workers,
			QueueSize: settings.Notification.QueueSize,
			Timeout:   settings.Notification.Timeout,
			Metrics:   m.Notification,
			Logger:    logger.Global().Module("notification"),
		}
		if settings.Notification.History {
			cfg.Recorder = a.History
		}
		a.Dispatcher = notification.NewDispatcher(cfg, providers...)
	}

	coordCfg := aggregation.Config{
		Jobs:             a.Jobs,
		Audio:            a.Sources,
		Text:             a.Sources,
		Composites:       a.Composites,
		Engine:           engine,
		Metrics:          m.Aggregation,
		DatastoreMetrics: m.Datastore,
		SweepBatchSize:   settings.Aggregation.SweepBatchSize,
		SweepRate:        settings.Aggregation.SweepRate,
		Logger:           logger.Global().Module("aggregation"),
	}
	if a.Dispatcher != nil {
		coordCfg.Notifier = a.Dispatcher
	}
	a.Coordinator, err = aggregation.NewCoordinator(coordCfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("composite service assembled",
		logger.String("database", settings.Database.Type),
		logger.String("path", db.Path()),
		logger.Duration("lease", a.Jobs.LeaseDuration()),
		logger.Bool("notifications", a.Dispatcher != nil))
	return a, nil
}

// Start launches background delivery of notifications.
func (a *App) Start() {
	if a.Dispatcher != nil {
		a.Dispatcher.Start()
	}
}

// RefreshPoolStats copies the connection pool statistics into the metrics.
func (a *App) RefreshPoolStats() {
	sqlDB, err := a.DB.DB().DB()
	if err != nil {
		return
	}
	a.Metrics.Datastore.UpdatePoolStats(sqlDB.Stats())
}

// Close drains pending notifications and closes the database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Dispatcher != nil {
		if err := a.Dispatcher.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// FusionParams converts settings into engine parameters. Anchors missing
// from settings keep their default position.
func FusionParams(s *conf.FusionSettings) (fusion.Params, error) {
	p := fusion.DefaultParams()
	if s.ArousalK != 0 {
		p.ArousalK = s.ArousalK
	}
	if s.Epsilon != 0 {
		p.Epsilon = s.Epsilon
	}
	if s.SurpriseDamping != 0 {
		p.SurpriseDamping = s.SurpriseDamping
	}
	if s.SurpriseCapBps != 0 {
		p.SurpriseCapBps = s.SurpriseCapBps
	}

	for name, anchor := range s.Anchors {
		label, ok := fusion.ParseLabel(name)
		if !ok {
			return p, errors.Newf("unknown emotion %q in fusion anchors", name).
				Component("app").
				Category(errors.CategoryConfiguration).
				Build()
		}
		p = p.WithAnchor(label, fusion.Anchor{Valence: anchor.Valence, Arousal: anchor.Arousal})
	}

	if err := p.Validate(); err != nil {
		return p, errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return p, nil
}

// Shutdown closes a with a bounded timeout and logs the outcome.
func (a *App) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		a.log.Error("shutdown incomplete", logger.Error(err))
		return
	}
	a.log.Info("shutdown complete")
}
