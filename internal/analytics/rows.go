// Package analytics aggregates learning-activity rows from the dashboard's
// SQL views into KPI cards, chart series and the advisor's input snapshot.
//
// All score rates are percentages in [0, 100]. Dates are ISO-8601 strings
// ("2024-03-01"); timestamps ("date", "attempt_time") sort lexically.
package analytics

// Platform identifies a learning sub-platform.
type Platform string

const (
	PlatformPractice Platform = "dp001"
	PlatformExam     Platform = "dp002"
	PlatformMath     Platform = "dp003"
)

// Platforms lists every sub-platform in display order.
var Platforms = []Platform{PlatformPractice, PlatformExam, PlatformMath}

// DailySummary is one row of daily_summary: activity per user, day and platform.
type DailySummary struct {
	UserSn          string   `json:"user_sn"`
	ActivityDate    string   `json:"activity_date"`
	Platform        Platform `json:"platform"`
	LearningTimeSec float64  `json:"learning_time_sec"`
	ActivityCount   int      `json:"activity_count"`
	AttemptCount    int      `json:"attempt_count"`
	CorrectCount    int      `json:"correct_count"`
	IncorrectCount  int      `json:"incorrect_count"`
	CorrectRate     *float64 `json:"correct_rate"`
}

// PlatformEvent is one row of platform_view_summary.
type PlatformEvent struct {
	UserSn        string `json:"user_sn"`
	Platform      string `json:"platform"`
	EventDate     string `json:"event_date"`
	ActivityCount int    `json:"activity_count"`
}

// PracDaily is one row of dp001_prac_daily.
type PracDaily struct {
	UserSn        string  `json:"user_sn"`
	ActivityDate  string  `json:"activity_date"`
	PracCount     int     `json:"d_prac_count"`
	LearnTimeSec  float64 `json:"d_learn_time_sec"`
	AvgScoreRate  float64 `json:"d_avg_score_rate"`
	AvgEfficiency float64 `json:"d_avg_efficiency"`
	TotalWrong    int     `json:"d_total_wrong"`
}

// PracAttempt is one practice attempt from dp001_prac_attempts.
type PracAttempt struct {
	PracSn        int64   `json:"prac_sn"`
	UserSn        string  `json:"user_sn"`
	ActivityDate  string  `json:"activity_date"`
	Date          string  `json:"date"`
	SubjectName   string  `json:"subject_name"`
	IndicatorName string  `json:"indicator_name"`
	DuringTime    float64 `json:"during_time"`
	ScoreRate     float64 `json:"score_rate"`
	ItemsCount    int     `json:"items_count"`
	AvgItemTimeMs float64 `json:"avg_item_time_ms"`
}

// IndicatorSummary is one row of dp001_prac_indicator_summary.
type IndicatorSummary struct {
	UserSn        string  `json:"user_sn"`
	IndicatorName string  `json:"indicator_name"`
	PracCount     int     `json:"in_prac_count"`
	AvgScoreRate  float64 `json:"in_avg_score_rate"`
	TotalItems    int     `json:"in_total_items"`
	TotalWrong    int     `json:"in_total_wrong"`
}

// ClassIndicator is one row of dp001_prac_class_attempts: the class-level
// averages for one subject and indicator.
type ClassIndicator struct {
	SubjectName       string   `json:"subject_name"`
	IndicatorName     string   `json:"indicator_name"`
	ParticipantCount  int      `json:"participant_count"`
	ClassAvgScoreRate float64  `json:"class_avg_score_rate"`
	ClassPracCount    int      `json:"class_prac_count"`
	ClassAvgTimeSec   *float64 `json:"class_avg_time_sec"`
}

// PracItem is one answered item from dp001_prac_items.
type PracItem struct {
	PracSn        int64   `json:"prac_sn"`
	UserSn        string  `json:"user_sn"`
	Date          string  `json:"date"`
	ActivityDate  string  `json:"activity_date"`
	IndicatorName string  `json:"indicator_name"`
	ItemIndex     int     `json:"item_index"`
	IsCorrect     int     `json:"is_correct"`
	AnsTimeMs     float64 `json:"ans_time_ms"`
}

// ExamDaily is one row of dp002_exam_daily.
type ExamDaily struct {
	UserSn           string  `json:"user_sn"`
	AttemptDate      string  `json:"attempt_date"`
	AttemptCount     int     `json:"attempt_count"`
	AvgAccuracy      float64 `json:"avg_accuracy"`
	AvgResponseTime  float64 `json:"avg_response_time"`
	TotalDurationSec float64 `json:"total_duration_sec"`
}

// MissionPerformance is one exam mission attempt from dp002_mission_performance.
type MissionPerformance struct {
	UserSn         string  `json:"user_sn"`
	MissionID      string  `json:"mission_id"`
	ObjectType     string  `json:"object_type"`
	AttemptNo      int     `json:"attempt_no"`
	AttemptTime    string  `json:"attempt_time"`
	AttemptDate    string  `json:"attempt_date"`
	TotalQuestions int     `json:"total_questions"`
	CorrectCount   int     `json:"correct_count"`
	AccuracyRate   float64 `json:"accuracy_rate"`
	MissionTimeSec float64 `json:"mission_time_sec"`
}

// ClassMission is one row of dp002_class_mission_performance.
type ClassMission struct {
	ObjectType        string  `json:"object_type"`
	MissionID         string  `json:"mission_id"`
	StudentCount      int     `json:"student_count"`
	AvgAccuracyRate   float64 `json:"avg_accuracy_rate"`
	AvgMissionTimeSec float64 `json:"avg_mission_time_sec"`
	AvgSpeedSec       float64 `json:"avg_speed_sec"`
	TotalQuestions    int     `json:"total_questions"`
}

// MathDaily is one row of dp003_math_daily.
type MathDaily struct {
	UserSn       string  `json:"user_sn"`
	ActivityDate string  `json:"activity_date"`
	ProblemCount int     `json:"d_problem_count"`
	CorrectCount int     `json:"d_correct_count"`
	WrongCount   int     `json:"d_wrong_count"`
	TotalTimeSec float64 `json:"d_total_time_sec"`
}

// MathUnitDaily is one row of dp003_math_daily_unit_summary.
type MathUnitDaily struct {
	UserSn       string  `json:"user_sn"`
	ActivityDate string  `json:"activity_date"`
	UnitName     string  `json:"unit_name"`
	ProblemCount int     `json:"du_problem_count"`
	CorrectCount int     `json:"du_correct_count"`
	WrongCount   int     `json:"du_wrong_count"`
	AvgTimeMs    float64 `json:"du_avg_time_ms"`
}

// QuestionAttempt is one answered question from dp002_exam_question_attempt.
type QuestionAttempt struct {
	UserSn        string   `json:"user_sn"`
	MissionID     string   `json:"mission_id"`
	AttemptNo     int      `json:"attempt_no"`
	QuestionID    string   `json:"question_id"`
	ResultSuccess bool     `json:"result_success"`
	AnswerTimeSec *float64 `json:"answer_time_sec"`
}

// MathItem is one answered problem from dp003_math_items.
type MathItem struct {
	UserSn           string  `json:"user_sn"`
	ActivityDate     string  `json:"activity_date"`
	UnitName         string  `json:"unit_name"`
	AnswerProblemNum string  `json:"answer_problem_num"`
	IsCorrect        int     `json:"is_correct"`
	AnsTimeMs        float64 `json:"ans_time_ms"`
	GameGrade        string  `json:"game_grade"`
	GameTime         float64 `json:"game_time"` // milliseconds
}

// VideoView is one video-watching row: how much of a video a user covered
// on a day and which viewing strategy the warehouse classified it as.
type VideoView struct {
	UserSn               string  `json:"user_sn"`
	ActivityDate         string  `json:"activity_date"`
	VideoName            string  `json:"video_name"`
	IndicatorName        string  `json:"indicator_name"`
	CoverageRatio        float64 `json:"coverage_ratio"` // 0–1
	LearningStrategyType string  `json:"learning_strategy_type"`
}
