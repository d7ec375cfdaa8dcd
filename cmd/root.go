package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/voicediary/composite/cmd/config"
	"github.com/voicediary/composite/cmd/ingest"
	"github.com/voicediary/composite/cmd/job"
	"github.com/voicediary/composite/cmd/recompute"
	"github.com/voicediary/composite/cmd/representative"
	"github.com/voicediary/composite/cmd/serve"
	"github.com/voicediary/composite/cmd/show"
	"github.com/voicediary/composite/cmd/sweep"
	"github.com/voicediary/composite/internal/conf"
	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/logger"
)

// RootCommand creates and returns the root command. Settings are loaded
// before any subcommand runs and copied into settings.
func RootCommand(settings *conf.Settings, version string) *cobra.Command {
	var (
		configFile string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:           "composite",
		Short:         "Voice diary composite emotion service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config.yaml (default: search standard locations)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")

	configCmd := config.Command()
	rootCmd.AddCommand(
		serve.Command(settings),
		ingest.Command(settings),
		recompute.Command(settings),
		show.Command(settings),
		job.Command(settings),
		sweep.Command(settings),
		representative.Command(settings),
		configCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// config init must work without a valid configuration
		if cmd.Parent() == configCmd {
			return nil
		}

		loaded, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		*settings = *loaded
		if debug {
			settings.Debug = true
		}
		return initialize(settings, version)
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		errors.FlushSentry(2 * time.Second)
	}

	return rootCmd
}

// initialize sets up logging and error telemetry before a subcommand runs.
func initialize(settings *conf.Settings, version string) error {
	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	if settings.Sentry.Enabled {
		if err := errors.InitSentry(settings.Sentry.DSN, settings.Sentry.Environment, version); err != nil {
			logger.Global().Module("main").Warn("sentry disabled", logger.Error(err))
		}
	}
	return nil
}
