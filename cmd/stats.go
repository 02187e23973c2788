package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lodboard/internal/analytics"
	"github.com/abhisek/lodboard/internal/ui/components"
	"github.com/abhisek/lodboard/internal/ui/theme"
)

var platformNames = map[analytics.Platform]string{
	analytics.PlatformPractice: "Practice",
	analytics.PlatformExam:     "Exam missions",
	analytics.PlatformMath:     "Math",
}

var statsCmd = &cobra.Command{
	Use:   "stats <user_sn>",
	Short: "Show a student's learning statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userSn := args[0]

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		u, err := st.UserRepo().FindUser(ctx, userSn)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("user %s not found", userSn)
		}

		var r analytics.DateRange
		r.Start, _ = cmd.Flags().GetString("start")
		r.End, _ = cmd.Flags().GetString("end")

		repo := st.LearningRepo()
		summary, err := repo.DailySummary(ctx, userSn)
		if err != nil {
			return fmt.Errorf("load daily summary: %w", err)
		}
		daily, err := repo.PracDaily(ctx, userSn)
		if err != nil {
			return fmt.Errorf("load practice days: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, theme.Title.Render(fmt.Sprintf("%s · grade %s class %s", u.UserSn, u.Grade, u.Class)))
		fmt.Fprintln(out)

		for _, t := range analytics.PlatformTotals(analytics.FilterSummary(summary, r)) {
			fmt.Fprintln(out, theme.Body.Bold(true).Render(platformNames[t.Platform]))
			fmt.Fprintf(out, "%s%.0f min\n", theme.Label.Render("Learning time"), t.LearningMin)
			fmt.Fprintf(out, "%s%d\n", theme.Label.Render("Activities"), t.ActivityCount)
			fmt.Fprintf(out, "%s%d\n", theme.Label.Render("Attempts"), t.AttemptCount)
			if t.CorrectRate != nil {
				fmt.Fprintln(out, components.NewProgressBar("Correct rate", *t.CorrectRate, 60).View())
			} else {
				fmt.Fprintln(out, theme.Label.Render("Correct rate")+theme.Hint.Render("not graded"))
			}
			fmt.Fprintln(out)
		}

		kpi := analytics.PracticeKPI(analytics.FilterDaily(daily, r, ""))
		lines := []string{
			theme.Title.Render("Practice"),
			fmt.Sprintf("%s%d", theme.Label.Render("Practice sessions"), kpi.TotalPrac),
			fmt.Sprintf("%s%.0f min", theme.Label.Render("Practice time"), kpi.TotalTimeMin),
			components.NewProgressBar("Average score", kpi.AvgScore, 56).View(),
		}
		fmt.Fprintln(out, theme.Card.Render(strings.Join(lines, "\n")))
		return nil
	},
}

func init() {
	statsCmd.Flags().String("start", "", "First activity date to include (YYYY-MM-DD)")
	statsCmd.Flags().String("end", "", "Last activity date to include (YYYY-MM-DD)")
}
