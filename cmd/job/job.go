package job

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/voicediary/composite/cmd/cliutil"
	"github.com/voicediary/composite/internal/app"
	"github.com/voicediary/composite/internal/conf"
	"github.com/voicediary/composite/internal/datastore/entities"
)

type jobView struct {
	RecordingID  uint64     `json:"recording_id" yaml:"recording_id"`
	Status       string     `json:"status" yaml:"status"`
	TextDone     bool       `json:"text_done" yaml:"text_done"`
	AudioDone    bool       `json:"audio_done" yaml:"audio_done"`
	Locked       bool       `json:"locked" yaml:"locked"`
	LeaseUntil   *time.Time `json:"lease_until,omitempty" yaml:"lease_until,omitempty"`
	Attempts     int        `json:"attempts" yaml:"attempts"`
	LastError    string     `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	AggregatedAt *time.Time `json:"aggregated_at,omitempty" yaml:"aggregated_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at" yaml:"updated_at"`
}

func newJobView(j *entities.JobState) jobView {
	return jobView{
		RecordingID:  j.RecordingID,
		Status:       string(j.Status),
		TextDone:     j.TextDone,
		AudioDone:    j.AudioDone,
		Locked:       j.Locked,
		LeaseUntil:   j.LeaseUntil,
		Attempts:     j.Attempts,
		LastError:    j.LastError,
		AggregatedAt: j.AggregatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

// Command prints the barrier state of a recording, or counts per status
// when called without an id.
func Command(settings *conf.Settings) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "job [recording-id]",
		Short: "Inspect aggregation job state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer a.Shutdown()

			ctx := cmd.Context()
			if len(args) == 0 {
				counts, err := a.Jobs.CountByStatus(ctx)
				if err != nil {
					return err
				}
				out := make(map[string]int64, len(counts))
				for status, n := range counts {
					out[string(status)] = n
				}
				return cliutil.Write(cmd.OutOrStdout(), format, out)
			}

			id, err := cliutil.ParseRecordingID(args[0])
			if err != nil {
				return err
			}
			j, err := a.Jobs.Get(ctx, id)
			if err != nil {
				return err
			}
			return cliutil.Write(cmd.OutOrStdout(), format, newJobView(j))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", cliutil.FormatJSON, "Output format (json|yaml)")
	return cmd
}
