package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/lodboard/internal/advisor"
	"github.com/abhisek/lodboard/internal/analytics"
	"github.com/abhisek/lodboard/internal/session"
	"github.com/abhisek/lodboard/internal/store"
	"github.com/abhisek/lodboard/internal/ui/components"
)

const cardWidth = 64

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Print the practice suggestion for a statistics snapshot",
	Long: `Print the practice suggestion for a statistics snapshot.

The snapshot comes from flags, from a JSON file (--json, "-" for stdin),
or from a student's stored practice rows (--user).`,
	Example: `  lodboard advise --score 45 --speed 3.2 --lod 2
  echo '{"avgScore":92,"avgSpeedSec":9}' | lodboard advise --json -
  lodboard advise --user s001 --subject Math --lod 3
  lodboard advise --all --lod 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		lod, _ := f.GetInt("lod")

		if all, _ := f.GetBool("all"); all {
			level := advisor.PracContext{LODLevel: advisor.LOD(lod)}.LOD()
			for _, r := range advisor.Rules() {
				fmt.Fprintln(cmd.OutOrStdout(), components.SuggestionCard(advisor.Render(r, level), cardWidth))
			}
			return nil
		}

		var pc advisor.PracContext
		switch {
		case f.Changed("json"):
			path, _ := f.GetString("json")
			var err error
			if pc, err = readPracContext(cmd, path); err != nil {
				return err
			}
			if f.Changed("lod") {
				pc.LODLevel = advisor.LOD(lod)
			}
		case f.Changed("user"):
			userSn, _ := f.GetString("user")
			var err error
			if pc, err = storedPracContext(cmd, userSn, advisor.LOD(lod)); err != nil {
				return err
			}
		default:
			pc.LODLevel = advisor.LOD(lod)
			pc.AvgScore, _ = f.GetFloat64("score")
			pc.AvgSpeedSec, _ = f.GetFloat64("speed")
			pc.BelowClassCount, _ = f.GetInt("below")
			pc.StruggleCount, _ = f.GetInt("struggle")
			pc.ReachedGoal, _ = f.GetBool("goal")
		}

		s := advisor.Suggest(pc)
		if asJSON, _ := f.GetBool("output-json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}
		fmt.Fprintln(cmd.OutOrStdout(), components.SuggestionCard(s, cardWidth))
		return nil
	},
}

func readPracContext(cmd *cobra.Command, path string) (advisor.PracContext, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		fh, err := os.Open(path)
		if err != nil {
			return advisor.PracContext{}, fmt.Errorf("open snapshot: %w", err)
		}
		defer fh.Close()
		r = fh
	}

	var pc advisor.PracContext
	if err := json.NewDecoder(r).Decode(&pc); err != nil {
		return advisor.PracContext{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return pc, nil
}

// storedPracContext computes the snapshot of a student from the database
// under the subject/indicator/date filter flags.
func storedPracContext(cmd *cobra.Command, userSn string, lod advisor.LOD) (advisor.PracContext, error) {
	st, err := openStore(cmd)
	if err != nil {
		return advisor.PracContext{}, err
	}
	defer st.Close()

	ctx := cmd.Context()
	u, err := st.UserRepo().FindUser(ctx, userSn)
	if err != nil {
		return advisor.PracContext{}, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return advisor.PracContext{}, fmt.Errorf("user %s not found", userSn)
	}

	repo := st.LearningRepo()
	attempts, err := repo.PracAttempts(ctx, userSn)
	if err != nil {
		return advisor.PracContext{}, fmt.Errorf("load practice attempts: %w", err)
	}
	scope := store.Scope(&session.Session{OrganizationID: u.OrganizationID, Grade: u.Grade, Class: u.Class})
	class, err := repo.ClassIndicators(ctx, scope)
	if err != nil {
		return advisor.PracContext{}, fmt.Errorf("load class averages: %w", err)
	}

	f := cmd.Flags()
	var filter analytics.PracticeFilter
	filter.Subject, _ = f.GetString("subject")
	filter.Indicator, _ = f.GetString("indicator")
	filter.Date, _ = f.GetString("date")

	filtered := analytics.FilterAttempts(attempts, filter)
	return analytics.PracContextFrom(
		analytics.ProcessAttempts(filtered),
		analytics.BelowClass(filtered, class),
		lod,
	), nil
}

func init() {
	f := adviseCmd.Flags()
	f.Int("lod", int(advisor.LODOverview), "Level of detail: 1 overview, 2 indicator, 3 item")
	f.Float64("score", 0, "Average accuracy in percent")
	f.Float64("speed", 0, "Average seconds per answered item")
	f.Int("below", 0, "Indicators below the class average")
	f.Int("struggle", 0, "Indicators whose latest attempt failed")
	f.Bool("goal", false, "Learning goal reached")
	f.String("json", "", `Read the snapshot from a JSON file ("-" for stdin)`)
	f.String("user", "", "Compute the snapshot from a student's stored practice")
	f.String("subject", analytics.All, "Subject filter for --user")
	f.String("indicator", analytics.All, "Indicator filter for --user")
	f.String("date", "", "Single activity date filter for --user (YYYY-MM-DD)")
	f.Bool("all", false, "Print every scenario at the given level of detail")
	f.Bool("output-json", false, "Print the suggestion as JSON")
	adviseCmd.MarkFlagsMutuallyExclusive("json", "user", "all")
}
