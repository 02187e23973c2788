package analytics

// DefaultRange spans the first to the last activity date of rows, which
// arrive ordered by date. It is empty when there are no rows.
func DefaultRange(rows []DailySummary) DateRange {
	if len(rows) == 0 {
		return DateRange{}
	}
	return DateRange{Start: rows[0].ActivityDate, End: rows[len(rows)-1].ActivityDate}
}

// FilterSummary returns the daily summary rows inside r.
func FilterSummary(rows []DailySummary, r DateRange) []DailySummary {
	out := make([]DailySummary, 0, len(rows))
	for _, row := range rows {
		if r.Contains(row.ActivityDate) {
			out = append(out, row)
		}
	}
	return out
}

// PlatformTotal is the overview card of one platform.
type PlatformTotal struct {
	Platform      Platform `json:"platform"`
	LearningMin   float64  `json:"learningMin"`
	ActivityCount int      `json:"activityCount"`
	AttemptCount  int      `json:"attemptCount"`
	CorrectRate   *float64 `json:"correctRate"` // nil when nothing was graded
}

// PlatformTotals sums rows per platform in Platforms order. Every platform
// gets a card even without rows.
func PlatformTotals(rows []DailySummary) []PlatformTotal {
	type acc struct {
		secs                 float64
		activities, attempts int
		correct, graded      int
	}
	sums := make(map[Platform]*acc, len(Platforms))
	for _, p := range Platforms {
		sums[p] = &acc{}
	}
	for _, r := range rows {
		a, ok := sums[r.Platform]
		if !ok {
			continue
		}
		a.secs += r.LearningTimeSec
		a.activities += r.ActivityCount
		a.attempts += r.AttemptCount
		a.correct += r.CorrectCount
		a.graded += r.CorrectCount + r.IncorrectCount
	}

	out := make([]PlatformTotal, 0, len(Platforms))
	for _, p := range Platforms {
		a := sums[p]
		t := PlatformTotal{
			Platform:      p,
			LearningMin:   round(a.secs / 60),
			ActivityCount: a.activities,
			AttemptCount:  a.attempts,
		}
		if a.graded > 0 {
			t.CorrectRate = ptr(round(float64(a.correct) / float64(a.graded) * 100))
		}
		out = append(out, t)
	}
	return out
}
