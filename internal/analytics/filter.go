package analytics

import (
	"math"
	"sort"
)

// All is the filter value meaning "no restriction".
const All = "all"

// DateRange is an inclusive ISO date range. An empty bound is open.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether the ISO date d falls inside r.
func (r DateRange) Contains(d string) bool {
	if r.Start != "" && d < r.Start {
		return false
	}
	if r.End != "" && d > r.End {
		return false
	}
	return true
}

// PracticeFilter narrows the practice view. Empty or "all" fields match everything.
type PracticeFilter struct {
	Range     DateRange
	Date      string // single selected activity date
	Subject   string
	Indicator string
}

func matches(want, got string) bool {
	return want == "" || want == All || want == got
}

// FilterDaily returns the daily rows inside r, narrowed to date when set.
func FilterDaily(rows []PracDaily, r DateRange, date string) []PracDaily {
	out := make([]PracDaily, 0, len(rows))
	for _, row := range rows {
		if !r.Contains(row.ActivityDate) {
			continue
		}
		if date != "" && row.ActivityDate != date {
			continue
		}
		out = append(out, row)
	}
	return out
}

// FilterAttempts applies the subject and indicator filters.
func FilterAttempts(attempts []PracAttempt, f PracticeFilter) []PracAttempt {
	out := make([]PracAttempt, 0, len(attempts))
	for _, a := range attempts {
		if !matches(f.Subject, a.SubjectName) || !matches(f.Indicator, a.IndicatorName) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// FilterItems applies the indicator filter to answered items.
func FilterItems(items []PracItem, f PracticeFilter) []PracItem {
	out := make([]PracItem, 0, len(items))
	for _, it := range items {
		if !matches(f.Indicator, it.IndicatorName) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Subjects returns the distinct subjects, sorted.
func Subjects(attempts []PracAttempt) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range attempts {
		if !seen[a.SubjectName] {
			seen[a.SubjectName] = true
			out = append(out, a.SubjectName)
		}
	}
	sort.Strings(out)
	return out
}

// Indicators returns the distinct indicators for subject ("all" for every subject), sorted.
func Indicators(attempts []PracAttempt, subject string) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range attempts {
		if !matches(subject, a.SubjectName) || seen[a.IndicatorName] {
			continue
		}
		seen[a.IndicatorName] = true
		out = append(out, a.IndicatorName)
	}
	sort.Strings(out)
	return out
}

// groupAttempts groups attempts by key, keeping first-seen key order.
func groupAttempts(attempts []PracAttempt, key func(PracAttempt) string) ([]string, map[string][]PracAttempt) {
	var order []string
	groups := map[string][]PracAttempt{}
	for _, a := range attempts {
		k := key(a)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], a)
	}
	return order, groups
}

func byIndicator(a PracAttempt) string { return a.IndicatorName }

// sortedByDate returns a copy of attempts in ascending date order.
func sortedByDate(attempts []PracAttempt) []PracAttempt {
	out := make([]PracAttempt, len(attempts))
	copy(out, attempts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// latestByDate returns the first attempt holding the maximum date.
func latestByDate(attempts []PracAttempt) (PracAttempt, bool) {
	if len(attempts) == 0 {
		return PracAttempt{}, false
	}
	latest := attempts[0]
	for _, a := range attempts[1:] {
		if a.Date > latest.Date {
			latest = a
		}
	}
	return latest, true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 != 0 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// round rounds half up, so -2.5 becomes -2 and 2.5 becomes 3.
func round(x float64) float64 {
	return math.Floor(x + 0.5)
}

// round1 rounds to one decimal place.
func round1(x float64) float64 {
	return round(x*10) / 10
}

func ptr(v float64) *float64 { return &v }
