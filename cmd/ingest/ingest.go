// Package ingest records producer output and signals completion, the way the
// audio and text workers do.
package ingest

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicediary/composite/cmd/cliutil"
	"github.com/voicediary/composite/internal/app"
	"github.com/voicediary/composite/internal/conf"
	"github.com/voicediary/composite/internal/fusion"
	"github.com/voicediary/composite/internal/sources"
)

// Command returns the ingest command with its audio and text subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Store producer output for a recording and try to aggregate",
	}
	cmd.AddCommand(audioCommand(settings), textCommand(settings))
	return cmd
}

func audioCommand(settings *conf.Settings) *cobra.Command {
	var (
		probs        [fusion.NumLabels]float64
		modelVersion string
	)

	cmd := &cobra.Command{
		Use:   "audio <recording-id>",
		Short: "Store emotion classifier probabilities and mark audio done",
		Example: `  composite ingest audio 42 --happy 0.8 --neutral 0.2
  composite ingest audio 42 --fear 0.6 --sad 0.3 --neutral 0.1 --model ser-v3`,
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

			ctx := cmd.Context()
			row, err := a.Sources.SaveAudio(ctx, id, fusion.AudioProbs(probs), modelVersion)
			if err != nil {
				return err
			}
			fused, err := a.Coordinator.OnAudioDone(ctx, id)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "recording %d: audio stored (top %s %d bps), fused=%t\n",
				id, row.TopEmotion, row.TopConfidenceBps, fused)
			return nil
		},
	}

	for i, l := range fusion.Labels {
		cmd.Flags().Float64Var(&probs[i], string(l), 0, fmt.Sprintf("Probability of %s in [0, 1]", l))
	}
	cmd.Flags().StringVar(&modelVersion, "model", "", "Classifier model version")

	return cmd
}

func textCommand(settings *conf.Settings) *cobra.Command {
	var (
		score, magnitude float64
		content, locale  string
		provider         string
	)

	cmd := &cobra.Command{
		Use:   "text <recording-id>",
		Short: "Store transcript sentiment and mark text done",
		Example: `  composite ingest text 42 --score 0.5 --magnitude 1.0 --content "good day"
  composite ingest text 42   # transcript without sentiment`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliutil.ParseRecordingID(args[0])
			if err != nil {
				return err
			}

			in := sources.TextInput{Content: content, Locale: locale, Provider: provider}
			if cmd.Flags().Changed("score") {
				in.Score = &score
			}
			if cmd.Flags().Changed("magnitude") {
				in.Magnitude = &magnitude
			}

			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer a.Shutdown()
			a.Start()

			ctx := cmd.Context()
			if _, err := a.Sources.SaveText(ctx, id, in); err != nil {
				return err
			}
			fused, err := a.Coordinator.OnTextDone(ctx, id)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "recording %d: text stored, fused=%t\n", id, fused)
			return nil
		},
	}

	cmd.Flags().Float64Var(&score, "score", 0, "Sentiment score in [-1, 1]")
	cmd.Flags().Float64Var(&magnitude, "magnitude", 0, "Sentiment magnitude, >= 0")
	cmd.Flags().StringVar(&content, "content", "", "Transcript text")
	cmd.Flags().StringVar(&locale, "locale", "", "Transcript locale")
	cmd.Flags().StringVar(&provider, "provider", "", "Sentiment provider name")

	return cmd
}
