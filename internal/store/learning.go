package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/lodboard/internal/analytics"
)

// learningRepo implements LearningRepo on the analytics views.
type learningRepo struct {
	s *Store
}

// queryAll runs a select on table and scans every row with scan.
func queryAll[T any](ctx context.Context, s *Store, table string, cols []string, where *entsql.Predicate, order []string, scan func(scanner, *T) error) ([]T, error) {
	sel := s.builder().Select(cols...).From(s.builder().Table(table))
	if where != nil {
		sel.Where(where)
	}
	if len(order) > 0 {
		sel.OrderBy(order...)
	}

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var v T
		if err := scan(rows, &v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return out, nil
}

func nullable(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// nullString stores "" as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func byUser(userSn string) *entsql.Predicate {
	return entsql.EQ("user_sn", userSn)
}

func byClass(scope ClassScope) *entsql.Predicate {
	return entsql.And(
		entsql.EQ("organization_id", scope.OrganizationID),
		entsql.EQ("grade", scope.Grade),
		entsql.EQ("class", scope.Class),
	)
}

var (
	dailySummaryCols = []string{"user_sn", "activity_date", "platform", "learning_time_sec",
		"activity_count", "attempt_count", "correct_count", "incorrect_count", "correct_rate"}
	platformEventCols    = []string{"user_sn", "platform", "event_date", "activity_count"}
	pracDailyCols        = []string{"user_sn", "activity_date", "d_prac_count", "d_learn_time_sec", "d_avg_score_rate", "d_avg_efficiency", "d_total_wrong"}
	pracAttemptCols      = []string{"prac_sn", "user_sn", "activity_date", "date", "subject_name", "indicator_name", "during_time", "score_rate", "items_count", "avg_item_time_ms"}
	indicatorSummaryCols = []string{"user_sn", "indicator_name", "in_prac_count", "in_avg_score_rate", "in_total_items", "in_total_wrong"}
	classIndicatorCols   = []string{"subject_name", "indicator_name", "participant_count", "class_avg_score_rate", "class_prac_count", "class_avg_time_sec"}
	pracItemCols         = []string{"prac_sn", "user_sn", "date", "activity_date", "indicator_name", "item_index", "is_correct", "ans_time_ms"}
	examDailyCols        = []string{"user_sn", "attempt_date", "attempt_count", "avg_accuracy", "avg_response_time", "total_duration_sec"}
	missionCols          = []string{"user_sn", "mission_id", "object_type", "attempt_no", "attempt_time", "attempt_date", "total_questions", "correct_count", "accuracy_rate", "mission_time_sec"}
	classMissionCols     = []string{"object_type", "mission_id", "student_count", "avg_accuracy_rate", "avg_mission_time_sec", "avg_speed_sec", "total_questions"}
	mathDailyCols        = []string{"user_sn", "activity_date", "d_problem_count", "d_correct_count", "d_wrong_count", "d_total_time_sec"}
	mathUnitCols         = []string{"user_sn", "activity_date", "unit_name", "du_problem_count", "du_correct_count", "du_wrong_count", "du_avg_time_ms"}
	classScopeCols       = []string{"organization_id", "grade", "class"}
	questionAttemptCols  = []string{"user_sn", "mission_id", "attempt_no", "question_id", "result_success", "answer_time_sec"}
	mathItemCols         = []string{"user_sn", "activity_date", "unit_name", "answer_problem_num", "is_correct", "ans_time_ms", "game_grade", "game_time"}
	videoViewCols        = []string{"user_sn", "activity_date", "video_name", "indicator_name", "coverage_ratio", "learning_strategy_type"}
)

func scanDailySummary(sc scanner, d *analytics.DailySummary) error {
	var rate sql.NullFloat64
	err := sc.Scan(&d.UserSn, &d.ActivityDate, &d.Platform, &d.LearningTimeSec,
		&d.ActivityCount, &d.AttemptCount, &d.CorrectCount, &d.IncorrectCount, &rate)
	d.CorrectRate = nullable(rate)
	return err
}

func scanPlatformEvent(sc scanner, e *analytics.PlatformEvent) error {
	return sc.Scan(&e.UserSn, &e.Platform, &e.EventDate, &e.ActivityCount)
}

func scanPracDaily(sc scanner, d *analytics.PracDaily) error {
	return sc.Scan(&d.UserSn, &d.ActivityDate, &d.PracCount, &d.LearnTimeSec, &d.AvgScoreRate, &d.AvgEfficiency, &d.TotalWrong)
}

func scanPracAttempt(sc scanner, a *analytics.PracAttempt) error {
	return sc.Scan(&a.PracSn, &a.UserSn, &a.ActivityDate, &a.Date, &a.SubjectName, &a.IndicatorName,
		&a.DuringTime, &a.ScoreRate, &a.ItemsCount, &a.AvgItemTimeMs)
}

func scanIndicatorSummary(sc scanner, in *analytics.IndicatorSummary) error {
	return sc.Scan(&in.UserSn, &in.IndicatorName, &in.PracCount, &in.AvgScoreRate, &in.TotalItems, &in.TotalWrong)
}

func scanClassIndicator(sc scanner, c *analytics.ClassIndicator) error {
	var t sql.NullFloat64
	err := sc.Scan(&c.SubjectName, &c.IndicatorName, &c.ParticipantCount, &c.ClassAvgScoreRate, &c.ClassPracCount, &t)
	c.ClassAvgTimeSec = nullable(t)
	return err
}

func scanPracItem(sc scanner, it *analytics.PracItem) error {
	return sc.Scan(&it.PracSn, &it.UserSn, &it.Date, &it.ActivityDate, &it.IndicatorName, &it.ItemIndex, &it.IsCorrect, &it.AnsTimeMs)
}

func scanExamDaily(sc scanner, e *analytics.ExamDaily) error {
	return sc.Scan(&e.UserSn, &e.AttemptDate, &e.AttemptCount, &e.AvgAccuracy, &e.AvgResponseTime, &e.TotalDurationSec)
}

func scanMission(sc scanner, m *analytics.MissionPerformance) error {
	return sc.Scan(&m.UserSn, &m.MissionID, &m.ObjectType, &m.AttemptNo, &m.AttemptTime, &m.AttemptDate,
		&m.TotalQuestions, &m.CorrectCount, &m.AccuracyRate, &m.MissionTimeSec)
}

func scanClassMission(sc scanner, c *analytics.ClassMission) error {
	return sc.Scan(&c.ObjectType, &c.MissionID, &c.StudentCount, &c.AvgAccuracyRate, &c.AvgMissionTimeSec, &c.AvgSpeedSec, &c.TotalQuestions)
}

func scanMathDaily(sc scanner, d *analytics.MathDaily) error {
	return sc.Scan(&d.UserSn, &d.ActivityDate, &d.ProblemCount, &d.CorrectCount, &d.WrongCount, &d.TotalTimeSec)
}

func scanMathUnit(sc scanner, u *analytics.MathUnitDaily) error {
	return sc.Scan(&u.UserSn, &u.ActivityDate, &u.UnitName, &u.ProblemCount, &u.CorrectCount, &u.WrongCount, &u.AvgTimeMs)
}

func scanQuestionAttempt(sc scanner, q *analytics.QuestionAttempt) error {
	var t sql.NullFloat64
	err := sc.Scan(&q.UserSn, &q.MissionID, &q.AttemptNo, &q.QuestionID, &q.ResultSuccess, &t)
	q.AnswerTimeSec = nullable(t)
	return err
}

func scanMathItem(sc scanner, it *analytics.MathItem) error {
	return sc.Scan(&it.UserSn, &it.ActivityDate, &it.UnitName, &it.AnswerProblemNum, &it.IsCorrect, &it.AnsTimeMs, &it.GameGrade, &it.GameTime)
}

func scanVideoView(sc scanner, v *analytics.VideoView) error {
	var strategy sql.NullString
	err := sc.Scan(&v.UserSn, &v.ActivityDate, &v.VideoName, &v.IndicatorName, &v.CoverageRatio, &strategy)
	v.LearningStrategyType = strategy.String
	return err
}

func (r *learningRepo) DailySummary(ctx context.Context, userSn string) ([]analytics.DailySummary, error) {
	return queryAll(ctx, r.s, TableDailySummary, dailySummaryCols, byUser(userSn),
		[]string{"activity_date", "platform"}, scanDailySummary)
}

func (r *learningRepo) PlatformEvents(ctx context.Context, userSn string) ([]analytics.PlatformEvent, error) {
	return queryAll(ctx, r.s, TablePlatformViewSummary, platformEventCols, byUser(userSn),
		[]string{"event_date"}, scanPlatformEvent)
}

func (r *learningRepo) PracDaily(ctx context.Context, userSn string) ([]analytics.PracDaily, error) {
	return queryAll(ctx, r.s, TablePracDaily, pracDailyCols, byUser(userSn),
		[]string{"activity_date"}, scanPracDaily)
}

func (r *learningRepo) PracAttempts(ctx context.Context, userSn string) ([]analytics.PracAttempt, error) {
	return queryAll(ctx, r.s, TablePracAttempts, pracAttemptCols, byUser(userSn),
		[]string{"date"}, scanPracAttempt)
}

func (r *learningRepo) PracAttemptsOn(ctx context.Context, userSn, date string) ([]analytics.PracAttempt, error) {
	return queryAll(ctx, r.s, TablePracAttempts, pracAttemptCols,
		entsql.And(byUser(userSn), entsql.EQ("activity_date", date)),
		[]string{"date"}, scanPracAttempt)
}

func (r *learningRepo) IndicatorSummary(ctx context.Context, userSn string) ([]analytics.IndicatorSummary, error) {
	return queryAll(ctx, r.s, TablePracIndicatorSummary, indicatorSummaryCols, byUser(userSn),
		[]string{"indicator_name"}, scanIndicatorSummary)
}

func (r *learningRepo) ClassIndicators(ctx context.Context, scope ClassScope) ([]analytics.ClassIndicator, error) {
	return queryAll(ctx, r.s, TablePracClassAttempts, classIndicatorCols, byClass(scope),
		[]string{"subject_name", "indicator_name"}, scanClassIndicator)
}

func (r *learningRepo) PracItems(ctx context.Context, userSn string) ([]analytics.PracItem, error) {
	return queryAll(ctx, r.s, TablePracItems, pracItemCols, byUser(userSn),
		[]string{"date", "item_index"}, scanPracItem)
}

func (r *learningRepo) PracItemsOn(ctx context.Context, userSn, date string) ([]analytics.PracItem, error) {
	return queryAll(ctx, r.s, TablePracItems, pracItemCols,
		entsql.And(byUser(userSn), entsql.EQ("activity_date", date)),
		[]string{"item_index"}, scanPracItem)
}

func (r *learningRepo) ExamDaily(ctx context.Context, userSn string) ([]analytics.ExamDaily, error) {
	return queryAll(ctx, r.s, TableExamDaily, examDailyCols, byUser(userSn),
		[]string{"attempt_date"}, scanExamDaily)
}

func (r *learningRepo) Missions(ctx context.Context, userSn string) ([]analytics.MissionPerformance, error) {
	return queryAll(ctx, r.s, TableMissionPerformance, missionCols, byUser(userSn),
		[]string{"attempt_time"}, scanMission)
}

func (r *learningRepo) ClassMissions(ctx context.Context, scope ClassScope) ([]analytics.ClassMission, error) {
	return queryAll(ctx, r.s, TableClassMissionPerformance, classMissionCols, byClass(scope),
		[]string{"mission_id"}, scanClassMission)
}

func (r *learningRepo) MathDaily(ctx context.Context, userSn string) ([]analytics.MathDaily, error) {
	return queryAll(ctx, r.s, TableMathDaily, mathDailyCols, byUser(userSn),
		[]string{"activity_date"}, scanMathDaily)
}

func (r *learningRepo) MathUnits(ctx context.Context, userSn string) ([]analytics.MathUnitDaily, error) {
	return queryAll(ctx, r.s, TableMathDailyUnitSummary, mathUnitCols, byUser(userSn),
		[]string{"activity_date", "unit_name"}, scanMathUnit)
}

func (r *learningRepo) QuestionAttempts(ctx context.Context, userSn, missionID string) ([]analytics.QuestionAttempt, error) {
	return queryAll(ctx, r.s, TableExamQuestionAttempt, questionAttemptCols,
		entsql.And(byUser(userSn), entsql.EQ("mission_id", missionID)),
		[]string{"attempt_no"}, scanQuestionAttempt)
}

func (r *learningRepo) MathItems(ctx context.Context, userSn, unit string) ([]analytics.MathItem, error) {
	return queryAll(ctx, r.s, TableMathItems, mathItemCols,
		entsql.And(byUser(userSn), entsql.EQ("unit_name", unit)),
		[]string{entsql.Desc("activity_date")}, scanMathItem)
}

func (r *learningRepo) OrganizationVideoViews(ctx context.Context, orgID string) ([]analytics.VideoView, error) {
	members := r.s.builder().Select("user_sn").
		From(r.s.builder().Table(TableUsers)).
		Where(entsql.EQ("organization_id", orgID))
	return queryAll(ctx, r.s, TableVideoViews, videoViewCols, entsql.In("user_sn", members),
		[]string{"activity_date", "user_sn"}, scanVideoView)
}

// loadBatchSize keeps each insert well under SQLite's bound parameter limit.
const loadBatchSize = 200

// bulkInsert accumulates rows for one table.
type bulkInsert struct {
	table string
	cols  []string
	rows  [][]any
}

func (b *bulkInsert) add(vals ...any) { b.rows = append(b.rows, vals) }

func (r *learningRepo) Load(ctx context.Context, d Dataset) error {
	users := &bulkInsert{table: TableUsers, cols: userColumns}
	for _, u := range d.Users {
		users.add(u.UserSn, u.Role, nullString(u.OrganizationID), nullString(u.Grade), nullString(u.Class))
	}
	daily := &bulkInsert{table: TableDailySummary, cols: dailySummaryCols}
	for _, x := range d.DailySummary {
		daily.add(x.UserSn, x.ActivityDate, string(x.Platform), x.LearningTimeSec,
			x.ActivityCount, x.AttemptCount, x.CorrectCount, x.IncorrectCount, nullFloat(x.CorrectRate))
	}
	events := &bulkInsert{table: TablePlatformViewSummary, cols: platformEventCols}
	for _, x := range d.PlatformEvents {
		events.add(x.UserSn, x.Platform, x.EventDate, x.ActivityCount)
	}
	pracDaily := &bulkInsert{table: TablePracDaily, cols: pracDailyCols}
	for _, x := range d.PracDaily {
		pracDaily.add(x.UserSn, x.ActivityDate, x.PracCount, x.LearnTimeSec, x.AvgScoreRate, x.AvgEfficiency, x.TotalWrong)
	}
	attempts := &bulkInsert{table: TablePracAttempts, cols: pracAttemptCols}
	for _, x := range d.PracAttempts {
		attempts.add(x.PracSn, x.UserSn, x.ActivityDate, x.Date, x.SubjectName, x.IndicatorName,
			x.DuringTime, x.ScoreRate, x.ItemsCount, x.AvgItemTimeMs)
	}
	indicators := &bulkInsert{table: TablePracIndicatorSummary, cols: indicatorSummaryCols}
	for _, x := range d.IndicatorSummary {
		indicators.add(x.UserSn, x.IndicatorName, x.PracCount, x.AvgScoreRate, x.TotalItems, x.TotalWrong)
	}
	classInd := &bulkInsert{table: TablePracClassAttempts, cols: append(append([]string{}, classScopeCols...), classIndicatorCols...)}
	for _, x := range d.ClassIndicators {
		classInd.add(x.OrganizationID, x.Grade, x.Class, x.SubjectName, x.IndicatorName,
			x.ParticipantCount, x.ClassAvgScoreRate, x.ClassPracCount, nullFloat(x.ClassAvgTimeSec))
	}
	items := &bulkInsert{table: TablePracItems, cols: pracItemCols}
	for _, x := range d.PracItems {
		items.add(x.PracSn, x.UserSn, x.Date, x.ActivityDate, x.IndicatorName, x.ItemIndex, x.IsCorrect, x.AnsTimeMs)
	}
	exam := &bulkInsert{table: TableExamDaily, cols: examDailyCols}
	for _, x := range d.ExamDaily {
		exam.add(x.UserSn, x.AttemptDate, x.AttemptCount, x.AvgAccuracy, x.AvgResponseTime, x.TotalDurationSec)
	}
	missions := &bulkInsert{table: TableMissionPerformance, cols: missionCols}
	for _, x := range d.Missions {
		missions.add(x.UserSn, x.MissionID, x.ObjectType, x.AttemptNo, x.AttemptTime, x.AttemptDate,
			x.TotalQuestions, x.CorrectCount, x.AccuracyRate, x.MissionTimeSec)
	}
	classMissions := &bulkInsert{table: TableClassMissionPerformance, cols: append(append([]string{}, classScopeCols...), classMissionCols...)}
	for _, x := range d.ClassMissions {
		classMissions.add(x.OrganizationID, x.Grade, x.Class, x.ObjectType, x.MissionID, x.StudentCount,
			x.AvgAccuracyRate, x.AvgMissionTimeSec, x.AvgSpeedSec, x.TotalQuestions)
	}
	mathDaily := &bulkInsert{table: TableMathDaily, cols: mathDailyCols}
	for _, x := range d.MathDaily {
		mathDaily.add(x.UserSn, x.ActivityDate, x.ProblemCount, x.CorrectCount, x.WrongCount, x.TotalTimeSec)
	}
	mathUnits := &bulkInsert{table: TableMathDailyUnitSummary, cols: mathUnitCols}
	for _, x := range d.MathUnits {
		mathUnits.add(x.UserSn, x.ActivityDate, x.UnitName, x.ProblemCount, x.CorrectCount, x.WrongCount, x.AvgTimeMs)
	}
	questions := &bulkInsert{table: TableExamQuestionAttempt, cols: questionAttemptCols}
	for _, x := range d.QuestionAttempts {
		questions.add(x.UserSn, x.MissionID, x.AttemptNo, x.QuestionID, x.ResultSuccess, nullFloat(x.AnswerTimeSec))
	}
	mathItems := &bulkInsert{table: TableMathItems, cols: mathItemCols}
	for _, x := range d.MathItems {
		mathItems.add(x.UserSn, x.ActivityDate, x.UnitName, x.AnswerProblemNum, x.IsCorrect, x.AnsTimeMs, x.GameGrade, x.GameTime)
	}
	videos := &bulkInsert{table: TableVideoViews, cols: videoViewCols}
	for _, x := range d.VideoViews {
		videos.add(x.UserSn, x.ActivityDate, x.VideoName, x.IndicatorName, x.CoverageRatio, x.LearningStrategyType)
	}

	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()

	for _, b := range []*bulkInsert{users, daily, events, pracDaily, attempts, indicators, classInd,
		items, exam, missions, classMissions, mathDaily, mathUnits, questions, mathItems, videos} {
		if len(b.rows) == 0 {
			continue
		}
		for start := 0; start < len(b.rows); start += loadBatchSize {
			end := min(start+loadBatchSize, len(b.rows))
			ins := r.s.builder().Insert(b.table).Columns(b.cols...)
			for _, row := range b.rows[start:end] {
				ins.Values(row...)
			}
			query, args := ins.Query()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("load %s: %w", b.table, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load: %w", err)
	}
	return nil
}
