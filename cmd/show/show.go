package show

import (
	"github.com/spf13/cobra"

	"github.com/voicediary/composite/cmd/cliutil"
	"github.com/voicediary/composite/internal/app"
	"github.com/voicediary/composite/internal/conf"
	"github.com/voicediary/composite/internal/datastore/entities"
)

type output struct {
	cliutil.CompositeView `yaml:",inline"`
	Notifications         []notificationView `json:"notifications,omitempty" yaml:"notifications,omitempty"`
}

type notificationView struct {
	Channel string `json:"channel" yaml:"channel"`
	Status  string `json:"status" yaml:"status"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
	SentAt  string `json:"sent_at" yaml:"sent_at"`
}

// Command prints the stored composite of a recording.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		format  string
		history bool
	)

	cmd := &cobra.Command{
		Use:   "show <recording-id>",
		Short: "Show the composite emotion of a recording",
		Args:  cobra.ExactArgs(1),
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

			ctx := cmd.Context()
			row, err := a.Composites.Get(ctx, id)
			if err != nil {
				return err
			}

			out := output{CompositeView: cliutil.NewCompositeView(row)}
			if history {
				records, err := a.History.ForRecording(ctx, id)
				if err != nil {
					return err
				}
				out.Notifications = notificationViews(records)
			}
			return cliutil.Write(cmd.OutOrStdout(), format, out)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", cliutil.FormatJSON, "Output format (json|yaml)")
	cmd.Flags().BoolVar(&history, "history", false, "Include notification deliveries")
	return cmd
}

func notificationViews(records []entities.NotificationRecord) []notificationView {
	views := make([]notificationView, 0, len(records))
	for _, r := range records {
		views = append(views, notificationView{
			Channel: r.Channel,
			Status:  string(r.Status),
			Error:   r.Error,
			SentAt:  r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return views
}
