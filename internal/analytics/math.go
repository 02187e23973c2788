package analytics

import "sort"

// MathSummary is the KPI card over daily math rows.
type MathSummary struct {
	TotalProblems int     `json:"totalProblems"`
	TotalMinutes  float64 `json:"totalMinutes"`
	AvgScore      float64 `json:"avgScore"`
}

// MathKPI totals daily math rows. AvgScore is the overall share of correct
// problems in percent.
func MathKPI(rows []MathDaily) MathSummary {
	if len(rows) == 0 {
		return MathSummary{}
	}
	var (
		problems, correct int
		secs              float64
	)
	for _, r := range rows {
		problems += r.ProblemCount
		correct += r.CorrectCount
		secs += r.TotalTimeSec
	}
	s := MathSummary{
		TotalProblems: problems,
		TotalMinutes:  round(secs / 60),
	}
	if problems > 0 {
		s.AvgScore = round(float64(correct) / float64(problems) * 100)
	}
	return s
}

// UnitShare is one slice of the math unit pie.
type UnitShare struct {
	Unit     string `json:"unit"`
	Problems int    `json:"problems"`
}

// UnitBreakdown sums problems per unit on date, or across all dates when date
// is empty. Units keep their first-seen order.
func UnitBreakdown(rows []MathUnitDaily, date string) []UnitShare {
	var out []UnitShare
	index := map[string]int{}
	for _, r := range rows {
		if date != "" && r.ActivityDate != date {
			continue
		}
		i, ok := index[r.UnitName]
		if !ok {
			i = len(out)
			index[r.UnitName] = i
			out = append(out, UnitShare{Unit: r.UnitName})
		}
		out[i].Problems += r.ProblemCount
	}
	return out
}

// UnitDetail is the drill-down card for a single unit.
type UnitDetail struct {
	Unit       string  `json:"unit"`
	Correct    int     `json:"correct"`
	Wrong      int     `json:"wrong"`
	AvgTimeSec float64 `json:"avgTimeSec"`
}

// UnitDetailFor returns the first row for unit on date (any date when empty).
func UnitDetailFor(rows []MathUnitDaily, unit, date string) (UnitDetail, bool) {
	for _, r := range rows {
		if r.UnitName != unit || (date != "" && r.ActivityDate != date) {
			continue
		}
		return UnitDetail{
			Unit:       unit,
			Correct:    r.CorrectCount,
			Wrong:      r.WrongCount,
			AvgTimeSec: round(r.AvgTimeMs / 1000),
		}, true
	}
	return UnitDetail{}, false
}

// Item result filters for the math drill-down.
const (
	ResultCorrect = "correct"
	ResultWrong   = "wrong"
)

// ValidItemResult reports whether r is a known item result filter.
func ValidItemResult(r string) bool {
	switch r {
	case "", All, ResultCorrect, ResultWrong:
		return true
	}
	return false
}

// MathItemRow is one line of the unit's item table.
type MathItemRow struct {
	ActivityDate string  `json:"activityDate"`
	Problem      string  `json:"problem"`
	Correct      bool    `json:"correct"`
	TimeSec      float64 `json:"timeSec"`
	GameGrade    string  `json:"gameGrade"`
}

// MathItems lists the answered problems of unit, newest date first,
// narrowed to date when set and to correct or wrong answers by result.
func MathItems(rows []MathItem, unit, date, result string) []MathItemRow {
	out := []MathItemRow{}
	for _, r := range rows {
		if r.UnitName != unit || (date != "" && r.ActivityDate != date) {
			continue
		}
		if (result == ResultCorrect && r.IsCorrect != 1) || (result == ResultWrong && r.IsCorrect != 0) {
			continue
		}
		out = append(out, MathItemRow{
			ActivityDate: r.ActivityDate,
			Problem:      r.AnswerProblemNum,
			Correct:      r.IsCorrect == 1,
			TimeSec:      round(r.GameTime / 1000),
			GameGrade:    r.GameGrade,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ActivityDate > out[j].ActivityDate })
	return out
}
