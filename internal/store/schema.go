package store

import (
	"math"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names owned by the service.
const (
	TableLLMRequestEvents = "llm_request_events"
	TableRateLimitWindows = "rate_limit_windows"
)

// Dataset table names. In production these are read-only views maintained
// by the analytics warehouse; MigrateDataset creates them as plain tables
// for local use.
const (
	TableUsers                   = "users"
	TableDailySummary            = "daily_summary"
	TablePlatformViewSummary     = "platform_view_summary"
	TablePracDaily               = "dp001_prac_daily"
	TablePracAttempts            = "dp001_prac_attempts"
	TablePracIndicatorSummary    = "dp001_prac_indicator_summary"
	TablePracClassAttempts       = "dp001_prac_class_attempts"
	TablePracItems               = "dp001_prac_items"
	TableExamDaily               = "dp002_exam_daily"
	TableMissionPerformance      = "dp002_mission_performance"
	TableClassMissionPerformance = "dp002_class_mission_performance"
	TableMathDaily               = "dp003_math_daily"
	TableMathDailyUnitSummary    = "dp003_math_daily_unit_summary"
	TableExamQuestionAttempt     = "dp002_exam_question_attempt"
	TableMathItems               = "dp003_math_items"
	TableVideoViews              = "video_views"
)

func idColumn() *schema.Column {
	return &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
}

func strCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Default: ""}
}

func nullStrCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Nullable: true}
}

func textCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: math.MaxInt32, Default: ""}
}

func intCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt, Default: 0}
}

func int64Col(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt64, Default: 0}
}

func floatCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeFloat64, Default: 0}
}

func nullFloatCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeFloat64, Nullable: true}
}

func boolCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeBool, Default: false}
}

func timeCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeTime}
}

// newTable builds a table with an auto-increment id primary key followed by cols.
func newTable(name string, cols ...*schema.Column) *schema.Table {
	id := idColumn()
	return &schema.Table{
		Name:       name,
		Columns:    append([]*schema.Column{id}, cols...),
		PrimaryKey: []*schema.Column{id},
	}
}

// index adds a named index over the given column names of t.
func index(t *schema.Table, name string, unique bool, columns ...string) *schema.Table {
	idx := &schema.Index{Name: name, Unique: unique}
	for _, c := range columns {
		for _, col := range t.Columns {
			if col.Name == c {
				idx.Columns = append(idx.Columns, col)
			}
		}
	}
	t.Indexes = append(t.Indexes, idx)
	return t
}

// ownedTables are the tables this service writes.
func ownedTables() []*schema.Table {
	llm := newTable(TableLLMRequestEvents,
		timeCol("timestamp"),
		strCol("provider"),
		strCol("model"),
		strCol("purpose"),
		intCol("input_tokens"),
		intCol("output_tokens"),
		int64Col("latency_ms"),
		boolCol("success"),
		strCol("error_message"),
		textCol("request_body"),
		textCol("response_body"),
	)
	index(llm, "llmrequestevent_purpose", false, "purpose")
	index(llm, "llmrequestevent_timestamp", false, "timestamp")

	rl := newTable(TableRateLimitWindows,
		strCol("key"),
		timeCol("window_start"),
		intCol("count"),
		timeCol("updated_at"),
	)
	index(rl, "ratelimitwindow_key", true, "key")

	return []*schema.Table{llm, rl}
}

// datasetTables mirrors the column layout of the analytics views.
func datasetTables() []*schema.Table {
	users := newTable(TableUsers,
		strCol("user_sn"), strCol("role"),
		nullStrCol("organization_id"), nullStrCol("grade"), nullStrCol("class"))
	index(users, "users_user_sn", true, "user_sn")

	return []*schema.Table{
		users,
		newTable(TableDailySummary,
			strCol("user_sn"), strCol("activity_date"), strCol("platform"),
			floatCol("learning_time_sec"), intCol("activity_count"), intCol("attempt_count"),
			intCol("correct_count"), intCol("incorrect_count"), nullFloatCol("correct_rate")),
		newTable(TablePlatformViewSummary,
			strCol("user_sn"), strCol("platform"), strCol("event_date"), intCol("activity_count")),
		newTable(TablePracDaily,
			strCol("user_sn"), strCol("activity_date"), intCol("d_prac_count"),
			floatCol("d_learn_time_sec"), floatCol("d_avg_score_rate"),
			floatCol("d_avg_efficiency"), intCol("d_total_wrong")),
		newTable(TablePracAttempts,
			int64Col("prac_sn"), strCol("user_sn"), strCol("activity_date"), strCol("date"),
			strCol("subject_name"), strCol("indicator_name"), floatCol("during_time"),
			floatCol("score_rate"), intCol("items_count"), floatCol("avg_item_time_ms")),
		newTable(TablePracIndicatorSummary,
			strCol("user_sn"), strCol("indicator_name"), intCol("in_prac_count"),
			floatCol("in_avg_score_rate"), intCol("in_total_items"), intCol("in_total_wrong")),
		newTable(TablePracClassAttempts,
			strCol("organization_id"), strCol("grade"), strCol("class"),
			strCol("subject_name"), strCol("indicator_name"), intCol("participant_count"),
			floatCol("class_avg_score_rate"), intCol("class_prac_count"), nullFloatCol("class_avg_time_sec")),
		newTable(TablePracItems,
			int64Col("prac_sn"), strCol("user_sn"), strCol("date"), strCol("activity_date"),
			strCol("indicator_name"), intCol("item_index"), intCol("is_correct"), floatCol("ans_time_ms")),
		newTable(TableExamDaily,
			strCol("user_sn"), strCol("attempt_date"), intCol("attempt_count"),
			floatCol("avg_accuracy"), floatCol("avg_response_time"), floatCol("total_duration_sec")),
		newTable(TableMissionPerformance,
			strCol("user_sn"), strCol("mission_id"), strCol("object_type"), intCol("attempt_no"),
			strCol("attempt_time"), strCol("attempt_date"), intCol("total_questions"),
			intCol("correct_count"), floatCol("accuracy_rate"), floatCol("mission_time_sec")),
		newTable(TableClassMissionPerformance,
			strCol("organization_id"), strCol("grade"), strCol("class"),
			strCol("object_type"), strCol("mission_id"), intCol("student_count"),
			floatCol("avg_accuracy_rate"), floatCol("avg_mission_time_sec"),
			floatCol("avg_speed_sec"), intCol("total_questions")),
		newTable(TableMathDaily,
			strCol("user_sn"), strCol("activity_date"), intCol("d_problem_count"),
			intCol("d_correct_count"), intCol("d_wrong_count"), floatCol("d_total_time_sec")),
		newTable(TableMathDailyUnitSummary,
			strCol("user_sn"), strCol("activity_date"), strCol("unit_name"),
			intCol("du_problem_count"), intCol("du_correct_count"), intCol("du_wrong_count"),
			floatCol("du_avg_time_ms")),
		newTable(TableExamQuestionAttempt,
			strCol("user_sn"), strCol("mission_id"), intCol("attempt_no"), strCol("question_id"),
			boolCol("result_success"), nullFloatCol("answer_time_sec")),
		newTable(TableMathItems,
			strCol("user_sn"), strCol("activity_date"), strCol("unit_name"), strCol("answer_problem_num"),
			intCol("is_correct"), floatCol("ans_time_ms"), strCol("game_grade"), floatCol("game_time")),
		newTable(TableVideoViews,
			strCol("user_sn"), strCol("activity_date"), strCol("video_name"), strCol("indicator_name"),
			floatCol("coverage_ratio"), strCol("learning_strategy_type")),
	}
}
