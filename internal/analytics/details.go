package analytics

import "sort"

// PracticeDetail is one practice session reconstructed from its items.
type PracticeDetail struct {
	PracSn        int64      `json:"pracSn"`
	Date          string     `json:"date"`
	Items         []PracItem `json:"items"`
	AvgItemTimeMs float64    `json:"avgItemTimeMs"`
	ScoreRate     float64    `json:"scoreRate"`
}

// PracticeDetails groups items by practice and scores each practice as the
// share of correct items. Newest practices come first.
func PracticeDetails(items []PracItem) []PracticeDetail {
	var out []PracticeDetail
	index := map[int64]int{}
	for _, it := range items {
		i, ok := index[it.PracSn]
		if !ok {
			i = len(out)
			index[it.PracSn] = i
			out = append(out, PracticeDetail{PracSn: it.PracSn, Date: it.Date})
		}
		out[i].Items = append(out[i].Items, it)
	}

	for i := range out {
		var correct int
		times := make([]float64, 0, len(out[i].Items))
		for _, it := range out[i].Items {
			if it.IsCorrect == 1 {
				correct++
			}
			times = append(times, it.AnsTimeMs)
		}
		out[i].AvgItemTimeMs = mean(times)
		out[i].ScoreRate = float64(correct) / float64(len(out[i].Items)) * 100
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// MaxItemCount is the widest practice in details, used to size the item grid.
func MaxItemCount(details []PracticeDetail) int {
	n := 0
	for _, d := range details {
		if len(d.Items) > n {
			n = len(d.Items)
		}
	}
	return n
}

// DayKPI summarizes one day of practice.
type DayKPI struct {
	Count     int     `json:"count"`
	TotalTime float64 `json:"totalTime"` // minutes
	AvgScore  float64 `json:"avgScore"`
}

// IndicatorDay holds one indicator's attempts and items on a single day.
type IndicatorDay struct {
	Indicator string        `json:"indicator"`
	Attempts  []PracAttempt `json:"attempts"`
	Items     []PracItem    `json:"items"`
}

// Day is the single-day practice drill-down.
type Day struct {
	Date       string         `json:"date"`
	KPI        DayKPI         `json:"kpi"`
	Indicators []IndicatorDay `json:"indicators"`
}

// DailyPractice builds the drill-down for date. Only attempts and items with
// that activity date are used, and an indicator's items are limited to its
// own practices.
func DailyPractice(attempts []PracAttempt, items []PracItem, date string) Day {
	day := Day{Date: date}

	var dayAttempts []PracAttempt
	for _, a := range attempts {
		if a.ActivityDate == date {
			dayAttempts = append(dayAttempts, a)
		}
	}
	if len(dayAttempts) == 0 {
		return day
	}
	sort.SliceStable(dayAttempts, func(i, j int) bool { return dayAttempts[i].Date < dayAttempts[j].Date })

	var secs float64
	scores := make([]float64, 0, len(dayAttempts))
	for _, a := range dayAttempts {
		secs += a.DuringTime
		scores = append(scores, a.ScoreRate)
	}
	day.KPI = DayKPI{
		Count:     len(dayAttempts),
		TotalTime: round(secs / 60),
		AvgScore:  round(mean(scores)),
	}

	order, groups := groupAttempts(dayAttempts, byIndicator)
	for _, name := range order {
		pracs := map[int64]bool{}
		for _, a := range groups[name] {
			pracs[a.PracSn] = true
		}
		var its []PracItem
		for _, it := range items {
			if it.ActivityDate == date && it.IndicatorName == name && pracs[it.PracSn] {
				its = append(its, it)
			}
		}
		sort.SliceStable(its, func(i, j int) bool { return its[i].ItemIndex < its[j].ItemIndex })
		day.Indicators = append(day.Indicators, IndicatorDay{
			Indicator: name,
			Attempts:  groups[name],
			Items:     its,
		})
	}
	return day
}
