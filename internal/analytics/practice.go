package analytics

import (
	"sort"
	"strconv"
)

// Score thresholds for practice attempts, in percent.
const (
	PassScore    = 60
	GoalScore    = 80
	PerfectScore = 99
)

// PracticeSummary is the KPI card over the selected practice days.
type PracticeSummary struct {
	TotalPrac    int     `json:"totalPrac"`
	TotalTimeMin float64 `json:"totalTimeMin"`
	AvgScore     float64 `json:"avgScore"`
}

// PracticeKPI totals the daily practice rows.
func PracticeKPI(daily []PracDaily) PracticeSummary {
	if len(daily) == 0 {
		return PracticeSummary{}
	}
	var (
		count  int
		secs   float64
		scores = make([]float64, 0, len(daily))
	)
	for _, d := range daily {
		count += d.PracCount
		secs += d.LearnTimeSec
		scores = append(scores, d.AvgScoreRate)
	}
	return PracticeSummary{
		TotalPrac:    count,
		TotalTimeMin: round(secs / 60),
		AvgScore:     round(mean(scores)),
	}
}

// AttemptStats summarizes a filtered set of practice attempts.
type AttemptStats struct {
	Count         int     `json:"count"`
	TotalTime     float64 `json:"totalTime"`
	AvgScore      float64 `json:"avgScore"`
	AvgSpeedSec   float64 `json:"avgSpeedSec"`
	StruggleCount int     `json:"struggleCount"`
	ImprovedCount int     `json:"improvedCount"`
	PerfectCount  int     `json:"perfectCount"`
	ReachedGoal   bool    `json:"reachedGoal"`
}

// ProcessAttempts computes attempt totals and the per-indicator learning
// state. Each indicator is judged by its latest attempt: below the pass line
// it struggles, at or above the perfect line it is perfect, and it improved
// when an earlier attempt failed and the latest reaches the goal.
func ProcessAttempts(attempts []PracAttempt) AttemptStats {
	if len(attempts) == 0 {
		return AttemptStats{}
	}

	var (
		total  float64
		scores = make([]float64, 0, len(attempts))
		speeds = make([]float64, 0, len(attempts))
	)
	for _, a := range attempts {
		total += a.DuringTime
		scores = append(scores, a.ScoreRate)
		speeds = append(speeds, a.AvgItemTimeMs)
	}

	s := AttemptStats{
		Count:       len(attempts),
		TotalTime:   round(total),
		AvgScore:    round(mean(scores)),
		AvgSpeedSec: round1(mean(speeds) / 1000),
	}

	order, groups := groupAttempts(attempts, byIndicator)
	for _, name := range order {
		sorted := sortedByDate(groups[name])
		latest := sorted[len(sorted)-1].ScoreRate

		wasLow := false
		for _, a := range sorted {
			if a.ScoreRate < PassScore {
				wasLow = true
				break
			}
		}

		if latest < PassScore {
			s.StruggleCount++
		}
		if wasLow && latest >= GoalScore {
			s.ImprovedCount++
		}
		if latest >= PerfectScore {
			s.PerfectCount++
		}
	}

	s.ReachedGoal = s.StruggleCount == 0 && (s.ImprovedCount > 0 || s.PerfectCount > 0)
	return s
}

// SubjectCount is one slice of the subject share pie.
type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

// SubjectShare counts attempts per subject on date, or over all attempts when
// date is empty. Slices are ordered by first appearance.
func SubjectShare(attempts []PracAttempt, date string) []SubjectCount {
	var out []SubjectCount
	index := map[string]int{}
	for _, a := range attempts {
		if date != "" && a.ActivityDate != date {
			continue
		}
		i, ok := index[a.SubjectName]
		if !ok {
			i = len(out)
			index[a.SubjectName] = i
			out = append(out, SubjectCount{Subject: a.SubjectName})
		}
		out[i].Count++
	}
	return out
}

// ParetoBar is one bar of the practice-count Pareto chart.
type ParetoBar struct {
	Label      string  `json:"label"`
	Indicator  string  `json:"indicator"`
	PracCount  int     `json:"pracCount"`
	AvgScore   float64 `json:"avgScore"`
	TotalItems int     `json:"totalItems"`
	TotalWrong int     `json:"totalWrong"`
}

// ParetoLimit caps the number of bars in the Pareto chart.
const ParetoLimit = 15

// Pareto returns the most-practised indicators, highest count first.
func Pareto(indicators []IndicatorSummary) []ParetoBar {
	sorted := make([]IndicatorSummary, len(indicators))
	copy(sorted, indicators)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PracCount > sorted[j].PracCount })
	if len(sorted) > ParetoLimit {
		sorted = sorted[:ParetoLimit]
	}

	out := make([]ParetoBar, 0, len(sorted))
	for i, in := range sorted {
		out = append(out, ParetoBar{
			Label:      indicatorLabel(i),
			Indicator:  in.IndicatorName,
			PracCount:  in.PracCount,
			AvgScore:   round(in.AvgScoreRate),
			TotalItems: in.TotalItems,
			TotalWrong: in.TotalWrong,
		})
	}
	return out
}

func indicatorLabel(i int) string {
	return "Indicator " + strconv.Itoa(i+1)
}

// ActiveIndicators narrows indicator summaries to those with attempts in the
// filtered set. With subject "all" every summary is kept.
func ActiveIndicators(indicators []IndicatorSummary, attempts []PracAttempt, subject string) []IndicatorSummary {
	if subject == "" || subject == All {
		return indicators
	}
	active := map[string]bool{}
	for _, a := range attempts {
		active[a.IndicatorName] = true
	}
	out := make([]IndicatorSummary, 0, len(indicators))
	for _, in := range indicators {
		if active[in.IndicatorName] {
			out = append(out, in)
		}
	}
	return out
}

// ParetoClassAverage is the class mean score over the indicators in bars,
// restricted to subject unless it is "all". It is nil without class data.
func ParetoClassAverage(bars []ParetoBar, class []ClassIndicator, subject string) *float64 {
	if len(bars) == 0 || len(class) == 0 {
		return nil
	}
	inChart := map[string]bool{}
	for _, b := range bars {
		inChart[b.Indicator] = true
	}
	var scores []float64
	for _, c := range class {
		if inChart[c.IndicatorName] && matches(subject, c.SubjectName) {
			scores = append(scores, c.ClassAvgScoreRate)
		}
	}
	if len(scores) == 0 {
		return nil
	}
	return ptr(mean(scores))
}
