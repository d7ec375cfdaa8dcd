package recompute

import (
	"github.com/spf13/cobra"

	"github.com/voicediary/composite/cmd/cliutil"
	"github.com/voicediary/composite/internal/app"
	"github.com/voicediary/composite/internal/conf"
)

// Command fuses an already aggregated recording again from its current inputs.
func Command(settings *conf.Settings) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "recompute <recording-id>",
		Short: "Recompute the composite of a recording",
		Long: `Recompute reads the current audio and text analysis of a recording and
overwrites its composite. Both producers must have finished.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliutil.ParseRecordingID(args[0])
			if err != nil {
				return err
			}

			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer a.Shutdown()
			a.Start()

			row, err := a.Coordinator.Recompute(cmd.Context(), id)
			if err != nil {
				return err
			}
			return cliutil.Write(cmd.OutOrStdout(), format, cliutil.NewCompositeView(row))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", cliutil.FormatJSON, "Output format (json|yaml)")
	return cmd
}
