package analytics

import "sort"

// ExamSummary is the exam KPI card over daily exam rows.
type ExamSummary struct {
	TotalCount int     `json:"totalCount"`
	TotalMin   float64 `json:"totalMin"`
	AvgAcc     float64 `json:"avgAcc"`
}

// FilterExamDaily returns exam rows whose attempt date falls in r.
func FilterExamDaily(rows []ExamDaily, r DateRange) []ExamDaily {
	out := make([]ExamDaily, 0, len(rows))
	for _, row := range rows {
		if r.Contains(row.AttemptDate) {
			out = append(out, row)
		}
	}
	return out
}

// ExamKPI totals daily exam rows.
func ExamKPI(rows []ExamDaily) ExamSummary {
	if len(rows) == 0 {
		return ExamSummary{}
	}
	var (
		count int
		secs  float64
		accs  = make([]float64, 0, len(rows))
	)
	for _, r := range rows {
		count += r.AttemptCount
		secs += r.TotalDurationSec
		accs = append(accs, r.AvgAccuracy)
	}
	return ExamSummary{
		TotalCount: count,
		TotalMin:   round(secs / 60),
		AvgAcc:     round(mean(accs)),
	}
}

// MissionFilter narrows mission rows by object type and mission id.
type MissionFilter struct {
	ObjectType string
	MissionID  string
}

// FilterMissions applies f to mission attempts.
func FilterMissions(rows []MissionPerformance, f MissionFilter) []MissionPerformance {
	out := make([]MissionPerformance, 0, len(rows))
	for _, r := range rows {
		if matches(f.ObjectType, r.ObjectType) && matches(f.MissionID, r.MissionID) {
			out = append(out, r)
		}
	}
	return out
}

// MissionSummary is the KPI card over mission attempts.
type MissionSummary struct {
	TotalAttempt int     `json:"totalAttempt"`
	TotalMin     float64 `json:"totalMin"`
	AvgAcc       float64 `json:"avgAcc"`
	AvgSpeed     float64 `json:"avgSpeed"` // seconds per mission
}

// MissionKPI totals mission attempts.
func MissionKPI(rows []MissionPerformance) MissionSummary {
	if len(rows) == 0 {
		return MissionSummary{}
	}
	var (
		secs float64
		accs = make([]float64, 0, len(rows))
	)
	for _, r := range rows {
		secs += r.MissionTimeSec
		accs = append(accs, r.AccuracyRate)
	}
	return MissionSummary{
		TotalAttempt: len(rows),
		TotalMin:     round(secs / 60),
		AvgAcc:       round(mean(accs)),
		AvgSpeed:     round(secs / float64(len(rows))),
	}
}

// MissionStats counts missions by how their accuracy developed.
type MissionStats struct {
	ImprovedCount int  `json:"improvedCount"`
	PerfectCount  int  `json:"perfectCount"`
	ReachedGoal   bool `json:"reachedGoal"`
}

func groupMissions(rows []MissionPerformance) ([]string, map[string][]MissionPerformance) {
	var order []string
	groups := map[string][]MissionPerformance{}
	for _, r := range rows {
		if _, ok := groups[r.MissionID]; !ok {
			order = append(order, r.MissionID)
		}
		groups[r.MissionID] = append(groups[r.MissionID], r)
	}
	return order, groups
}

// MissionProgress orders each mission's attempts by attempt number. A mission
// is perfect when its first attempt scores 100, and improved when the first
// attempt fails and the last one passes.
func MissionProgress(rows []MissionPerformance) MissionStats {
	var s MissionStats
	order, groups := groupMissions(rows)
	for _, id := range order {
		sorted := make([]MissionPerformance, len(groups[id]))
		copy(sorted, groups[id])
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].AttemptNo < sorted[j].AttemptNo })

		first, last := sorted[0].AccuracyRate, sorted[len(sorted)-1].AccuracyRate
		if first == 100 {
			s.PerfectCount++
			continue
		}
		if first < PassScore && last >= PassScore {
			s.ImprovedCount++
		}
	}
	s.ReachedGoal = s.ImprovedCount+s.PerfectCount > 0
	return s
}

// MissionComparison compares the student's missions with the class.
type MissionComparison struct {
	AvgAccStudent     float64  `json:"avgAccStudent"`
	AvgAccClass       *float64 `json:"avgAccClass"`
	AvgSpeedStudent   float64  `json:"avgSpeedStudent"` // seconds per question
	AvgSpeedClass     *float64 `json:"avgSpeedClass"`
	BelowClassCount   int      `json:"belowClassCount"`
	ClassStudentCount int      `json:"classStudentCount"`
}

// CompareMissions compares accuracy and per-question speed with the class
// rows of the missions the student attempted. A mission counts as below
// class when its highest-numbered attempt is under the class accuracy.
func CompareMissions(rows []MissionPerformance, class []ClassMission) MissionComparison {
	if len(rows) == 0 || len(class) == 0 {
		return MissionComparison{}
	}

	byMission := make(map[string]ClassMission, len(class))
	for _, c := range class {
		byMission[c.MissionID] = c
	}

	accs := make([]float64, 0, len(rows))
	speeds := make([]float64, 0, len(rows))
	for _, r := range rows {
		accs = append(accs, r.AccuracyRate)
		if r.TotalQuestions > 0 {
			speeds = append(speeds, r.MissionTimeSec/float64(r.TotalQuestions))
		} else {
			speeds = append(speeds, 0)
		}
	}
	accStudent, speedStudent := mean(accs), mean(speeds)

	order, groups := groupMissions(rows)
	var matched []ClassMission
	for _, id := range order {
		if c, ok := byMission[id]; ok {
			matched = append(matched, c)
		}
	}

	cmp := MissionComparison{
		AvgAccStudent:   round(accStudent),
		AvgSpeedStudent: round1(speedStudent),
	}
	if len(matched) == 0 {
		return cmp
	}

	classAccs := make([]float64, 0, len(matched))
	classSpeeds := make([]float64, 0, len(matched))
	for _, c := range matched {
		classAccs = append(classAccs, c.AvgAccuracyRate)
		classSpeeds = append(classSpeeds, c.AvgSpeedSec)
		if c.StudentCount > cmp.ClassStudentCount {
			cmp.ClassStudentCount = c.StudentCount
		}
	}
	cmp.AvgAccClass = ptr(round(mean(classAccs)))
	cmp.AvgSpeedClass = ptr(round1(mean(classSpeeds)))

	for _, id := range order {
		attempts := groups[id]
		latest := attempts[0]
		for _, a := range attempts[1:] {
			if a.AttemptNo > latest.AttemptNo {
				latest = a
			}
		}
		if c, ok := byMission[id]; ok && latest.AccuracyRate < c.AvgAccuracyRate {
			cmp.BelowClassCount++
		}
	}
	return cmp
}

// QuestionRow is one question across a mission's attempts. Results[i] is
// attempt i+1: true for a correct answer, false for a wrong one, nil when the
// question was not answered in that attempt.
type QuestionRow struct {
	QuestionID string  `json:"questionId"`
	Results    []*bool `json:"results"`
	Correct    int     `json:"correct"`
}

// QuestionGrid is the per-question drill-down of one mission.
type QuestionGrid struct {
	MissionID    string        `json:"missionId"`
	MaxAttemptNo int           `json:"maxAttemptNo"`
	Questions    []QuestionRow `json:"questions"`
}

// QuestionAttempts groups answers by question id, in first-seen order, with
// one column per attempt number up to the highest seen.
func QuestionAttempts(missionID string, rows []QuestionAttempt) QuestionGrid {
	g := QuestionGrid{MissionID: missionID, Questions: []QuestionRow{}}
	for _, r := range rows {
		g.MaxAttemptNo = max(g.MaxAttemptNo, r.AttemptNo)
	}
	index := map[string]int{}
	for _, r := range rows {
		if r.AttemptNo < 1 {
			continue
		}
		i, ok := index[r.QuestionID]
		if !ok {
			i = len(g.Questions)
			index[r.QuestionID] = i
			g.Questions = append(g.Questions, QuestionRow{
				QuestionID: r.QuestionID,
				Results:    make([]*bool, g.MaxAttemptNo),
			})
		}
		q := &g.Questions[i]
		if q.Results[r.AttemptNo-1] != nil {
			continue
		}
		success := r.ResultSuccess
		q.Results[r.AttemptNo-1] = &success
		if success {
			q.Correct++
		}
	}
	return g
}
