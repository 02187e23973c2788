package analytics

import "github.com/abhisek/lodboard/internal/advisor"

// PracContextFrom builds the advisor input from the practice statistics of
// the current filter. The score is the student's own mean, so a class with
// no comparison rows does not read as a zero score.
func PracContextFrom(stats AttemptStats, below BelowClassStats, lod advisor.LOD) advisor.PracContext {
	return advisor.PracContext{
		LODLevel:        lod,
		AvgScore:        stats.AvgScore,
		AvgSpeedSec:     stats.AvgSpeedSec,
		BelowClassCount: below.Count,
		StruggleCount:   stats.StruggleCount,
		ReachedGoal:     stats.ReachedGoal,
	}
}

// PracticeView is everything the practice page shows for one filter.
type PracticeView struct {
	KPI          PracticeSummary    `json:"kpi"`
	Stats        AttemptStats       `json:"stats"`
	BelowClass   BelowClassStats    `json:"belowClass"`
	ScoreCompare Comparison         `json:"scoreCompare"`
	SpeedCompare Comparison         `json:"speedCompare"`
	Gaps         []IndicatorGap     `json:"gaps"`
	Pareto       []ParetoBar        `json:"pareto"`
	ParetoClass  *float64           `json:"paretoClassAvg"`
	Diagnosis    Diagnosis          `json:"diagnosis"`
	Details      []PracticeDetail   `json:"details"`
	Subjects     []SubjectCount     `json:"subjects"`
	Suggestion   advisor.Suggestion `json:"suggestion"`
}

// PracticeInput bundles the rows read for one student.
type PracticeInput struct {
	Daily      []PracDaily
	Attempts   []PracAttempt
	Indicators []IndicatorSummary
	Class      []ClassIndicator
	Items      []PracItem
}

// BuildPracticeView runs every practice aggregation for f and asks the
// advisor for a suggestion at lod.
func BuildPracticeView(in PracticeInput, f PracticeFilter, lod advisor.LOD) PracticeView {
	attempts := FilterAttempts(in.Attempts, f)
	stats := ProcessAttempts(attempts)
	below := BelowClass(attempts, in.Class)
	pareto := Pareto(ActiveIndicators(in.Indicators, attempts, f.Subject))

	return PracticeView{
		KPI:          PracticeKPI(FilterDaily(in.Daily, f.Range, f.Date)),
		Stats:        stats,
		BelowClass:   below,
		ScoreCompare: CompareScore(attempts, in.Class),
		SpeedCompare: CompareSpeed(attempts, in.Class),
		Gaps:         IndicatorGaps(attempts, in.Class),
		Pareto:       pareto,
		ParetoClass:  ParetoClassAverage(pareto, in.Class, f.Subject),
		Diagnosis:    Diagnose(attempts),
		Details:      PracticeDetails(FilterItems(in.Items, f)),
		Subjects:     SubjectShare(in.Attempts, f.Date),
		Suggestion:   advisor.Suggest(PracContextFrom(stats, below, lod)),
	}
}
