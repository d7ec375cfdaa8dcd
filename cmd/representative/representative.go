package representative

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicediary/composite/cmd/cliutil"
	"github.com/voicediary/composite/internal/app"
	"github.com/voicediary/composite/internal/composite"
	"github.com/voicediary/composite/internal/conf"
	"github.com/voicediary/composite/internal/fusion"
)

// Command prints the representative emotion of a set of recordings, such as
// one diary day.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:     "representative <recording-id>...",
		Aliases: []string{"daily"},
		Short:   "Show the most frequent top emotion across recordings",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := cliutil.ParseRecordingIDs(args)
			if err != nil {
				return err
			}

			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer a.Shutdown()

			rows, err := a.Composites.ListByRecordings(cmd.Context(), ids)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return fmt.Errorf("none of the %d recordings has a composite yet", len(ids))
			}

			emotion := composite.Representative(rows)
			display := emotion
			if l, ok := fusion.ParseLabel(emotion); ok {
				display = fusion.DisplayLabel(l)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d of %d recordings fused)\n", display, len(rows), len(ids))
			return nil
		},
	}
}
