package analytics

import "sort"

// BelowClassStats counts indicators trailing the class.
type BelowClassStats struct {
	Count int `json:"count"`
	// ClassPracPeople is the largest participant count among class rows, nil
	// when there is no class data.
	ClassPracPeople *int `json:"classPracPeople"`
}

func findClass(class []ClassIndicator, subject, indicator string) (ClassIndicator, bool) {
	for _, c := range class {
		if c.SubjectName == subject && c.IndicatorName == indicator {
			return c, true
		}
	}
	return ClassIndicator{}, false
}

// BelowClass counts indicators whose latest attempt scores below the class
// average for the same subject and indicator.
func BelowClass(attempts []PracAttempt, class []ClassIndicator) BelowClassStats {
	if len(attempts) == 0 || len(class) == 0 {
		return BelowClassStats{}
	}

	var s BelowClassStats
	order, groups := groupAttempts(attempts, byIndicator)
	for _, name := range order {
		latest, _ := latestByDate(groups[name])
		c, ok := findClass(class, latest.SubjectName, latest.IndicatorName)
		if !ok {
			continue
		}
		if latest.ScoreRate < c.ClassAvgScoreRate {
			s.Count++
		}
	}

	people := 0
	for _, c := range class {
		if c.ParticipantCount > people {
			people = c.ParticipantCount
		}
	}
	s.ClassPracPeople = &people
	return s
}

// Comparison is a student value against the matching class value. Class and
// Diff are nil when no class row matched.
type Comparison struct {
	Student float64  `json:"student"`
	Class   *float64 `json:"class"`
	Diff    *float64 `json:"diff"`
}

type subjectIndicator struct{ subject, indicator string }

// matchedClass returns the class rows for the distinct subject and indicator
// pairs present in attempts, in first-seen order.
func matchedClass(attempts []PracAttempt, class []ClassIndicator) []ClassIndicator {
	seen := map[subjectIndicator]bool{}
	var out []ClassIndicator
	for _, a := range attempts {
		k := subjectIndicator{a.SubjectName, a.IndicatorName}
		if seen[k] {
			continue
		}
		seen[k] = true
		if c, ok := findClass(class, k.subject, k.indicator); ok {
			out = append(out, c)
		}
	}
	return out
}

// CompareScore compares the student's mean score with the class mean over
// the indicators the student practised. Values are rounded.
func CompareScore(attempts []PracAttempt, class []ClassIndicator) Comparison {
	matched := matchedClass(attempts, class)
	if len(attempts) == 0 || len(matched) == 0 {
		return Comparison{}
	}

	scores := make([]float64, 0, len(attempts))
	for _, a := range attempts {
		scores = append(scores, a.ScoreRate)
	}
	classScores := make([]float64, 0, len(matched))
	for _, c := range matched {
		classScores = append(classScores, c.ClassAvgScoreRate)
	}

	student, classAvg := mean(scores), mean(classScores)
	return Comparison{
		Student: round(student),
		Class:   ptr(round(classAvg)),
		Diff:    ptr(round(student - classAvg)),
	}
}

// CompareSpeed compares the student's mean time per attempt in seconds with
// the class average time. Each attempt contributes its own class row, so
// frequently practised indicators weigh more.
func CompareSpeed(attempts []PracAttempt, class []ClassIndicator) Comparison {
	if len(attempts) == 0 || len(class) == 0 {
		return Comparison{}
	}

	times := make([]float64, 0, len(attempts))
	var classTimes []float64
	for _, a := range attempts {
		times = append(times, a.DuringTime)
		for _, c := range class {
			if c.SubjectName == a.SubjectName && c.IndicatorName == a.IndicatorName && c.ClassAvgTimeSec != nil {
				classTimes = append(classTimes, *c.ClassAvgTimeSec)
				break
			}
		}
	}

	student := mean(times)
	if len(classTimes) == 0 {
		return Comparison{Student: round1(student)}
	}
	classAvg := mean(classTimes)
	return Comparison{
		Student: round(student),
		Class:   ptr(round(classAvg)),
		Diff:    ptr(round(student - classAvg)),
	}
}

// IndicatorGap is one row of the student-versus-class gap chart.
type IndicatorGap struct {
	Indicator  string  `json:"indicator"`
	StudentAvg float64 `json:"studentAvg"`
	ClassAvg   float64 `json:"classAvg"`
	Diff       float64 `json:"diff"`
}

// IndicatorGaps returns the per-indicator gap to the class, largest deficit
// first. Indicators without a class row are omitted.
func IndicatorGaps(attempts []PracAttempt, class []ClassIndicator) []IndicatorGap {
	matched := matchedClass(attempts, class)
	if len(attempts) == 0 || len(matched) == 0 {
		return nil
	}

	var out []IndicatorGap
	order, groups := groupAttempts(attempts, byIndicator)
	for _, name := range order {
		var c *ClassIndicator
		for i := range matched {
			if matched[i].IndicatorName == name {
				c = &matched[i]
				break
			}
		}
		if c == nil {
			continue
		}

		scores := make([]float64, 0, len(groups[name]))
		for _, a := range groups[name] {
			scores = append(scores, a.ScoreRate)
		}
		student := mean(scores)
		out = append(out, IndicatorGap{
			Indicator:  name,
			StudentAvg: round(student),
			ClassAvg:   round(c.ClassAvgScoreRate),
			Diff:       round(student - c.ClassAvgScoreRate),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Diff < out[j].Diff })
	return out
}
