package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/lodboard/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed <dataset.json>",
	Short: "Load a JSON dataset export into a local database",
	Long: `Load a JSON dataset export into a local database.

The file holds one array per analytics view keyed by view name
(daily_summary, dp001_prac_attempts, ...) plus a users array.
Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			fh, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open dataset: %w", err)
			}
			defer fh.Close()
			r = fh
		}

		var ds store.Dataset
		if err := json.NewDecoder(r).Decode(&ds); err != nil {
			return fmt.Errorf("decode dataset: %w", err)
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		if err := st.MigrateDataset(ctx); err != nil {
			return fmt.Errorf("migrate dataset: %w", err)
		}
		if err := st.LearningRepo().Load(ctx, ds); err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}

		logger.Info().
			Int("users", len(ds.Users)).
			Int("daily_summary", len(ds.DailySummary)).
			Int("prac_attempts", len(ds.PracAttempts)).
			Int("prac_items", len(ds.PracItems)).
			Int("missions", len(ds.Missions)).
			Int("math_daily", len(ds.MathDaily)).
			Int("math_items", len(ds.MathItems)).
			Int("question_attempts", len(ds.QuestionAttempts)).
			Int("video_views", len(ds.VideoViews)).
			Msg("dataset loaded")
		return nil
	},
}
