package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/scopa-go/internal/model"
	"github.com/mcoot/scopa-go/internal/view"
)

func newResultsCmd() *cobra.Command {
	var htmlPath string

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show the score of the last finished match",
		Long: `Show the score saved when the last match ended. The score is consumed:
a second call reports that no score is recorded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			ctx := cmd.Context()
			score, err := app.Storage.TakeFinalScore(ctx)
			if err != nil {
				return err
			}

			out := newOutput(cmd.OutOrStdout())
			if htmlPath == "" {
				out.Print(*score)
				return nil
			}

			if err := writeResultsFile(cmd, htmlPath, *score); err != nil {
				// Put the score back so the page can be retried
				if saveErr := app.Storage.SaveFinalScore(ctx, *score); saveErr != nil {
					logger.Warn("failed to restore final score", slog.String("error", saveErr.Error()))
				}
				return err
			}

			out.PrintMessage(fmt.Sprintf("Results written to %s", htmlPath))
			return nil
		},
	}

	cmd.Flags().StringVar(&htmlPath, "html", "", "Write the results as an HTML page to this path")
	return cmd
}

func writeResultsFile(cmd *cobra.Command, path string, score model.ScoreSnapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results page: %w", err)
	}

	if err := view.WriteResultsHTML(cmd.Context(), f, score); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
