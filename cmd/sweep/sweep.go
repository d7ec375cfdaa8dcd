package sweep

import (
	"github.com/spf13/cobra"

	"github.com/voicediary/composite/cmd/cliutil"
	"github.com/voicediary/composite/internal/app"
	"github.com/voicediary/composite/internal/conf"
)

// Command runs a single sweep pass and prints its report.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		format string
		batch  int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Reclaim expired leases and retry ready recordings once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if batch > 0 {
				settings.Aggregation.SweepBatchSize = batch
			}

			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer a.Shutdown()
			a.Start()

			report, err := a.Coordinator.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return cliutil.Write(cmd.OutOrStdout(), format, report)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", cliutil.FormatJSON, "Output format (json|yaml)")
	cmd.Flags().IntVar(&batch, "batch", 0, "Maximum ready recordings to retry (default from config)")
	return cmd
}
