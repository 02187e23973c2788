package store

import (
	"context"
	"time"

	"github.com/abhisek/lodboard/internal/analytics"
	"github.com/abhisek/lodboard/internal/session"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // id > After
	Before int64     // id < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates LLM usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates LLM usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}

// RateLimitWindow is the persisted state of one fixed window.
type RateLimitWindow struct {
	Key   string
	Start time.Time
	Count int
}

// RateLimitRepo persists rate limiter windows so that every instance of
// the service shares them.
type RateLimitRepo interface {
	// GetWindow returns the window for key, or nil if none is stored.
	GetWindow(ctx context.Context, key string) (*RateLimitWindow, error)

	// PutWindow creates or replaces the window for key.
	PutWindow(ctx context.Context, w RateLimitWindow) error

	// PruneWindows deletes windows that started before cutoff.
	PruneWindows(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserRepo reads the users table.
type UserRepo interface {
	FindUser(ctx context.Context, userSn string) (*session.User, error)

	// ListStudents returns the students of one class ordered by user_sn.
	ListStudents(ctx context.Context, orgID, grade, class string) ([]session.User, error)
}

// ClassScope identifies one class.
type ClassScope struct {
	OrganizationID string `json:"organization_id"`
	Grade          string `json:"grade"`
	Class          string `json:"class"`
}

// Scope returns the class a session belongs to.
func Scope(s *session.Session) ClassScope {
	return ClassScope{OrganizationID: s.OrganizationID, Grade: s.Grade, Class: s.Class}
}

// ClassIndicatorRow is a class practice row with its class key.
type ClassIndicatorRow struct {
	ClassScope
	analytics.ClassIndicator
}

// ClassMissionRow is a class exam mission row with its class key.
type ClassMissionRow struct {
	ClassScope
	analytics.ClassMission
}

// Dataset is a bundle of analytics rows used to seed a local database.
type Dataset struct {
	Users            []session.User                 `json:"users"`
	DailySummary     []analytics.DailySummary       `json:"daily_summary"`
	PlatformEvents   []analytics.PlatformEvent      `json:"platform_view_summary"`
	PracDaily        []analytics.PracDaily          `json:"dp001_prac_daily"`
	PracAttempts     []analytics.PracAttempt        `json:"dp001_prac_attempts"`
	IndicatorSummary []analytics.IndicatorSummary   `json:"dp001_prac_indicator_summary"`
	ClassIndicators  []ClassIndicatorRow            `json:"dp001_prac_class_attempts"`
	PracItems        []analytics.PracItem           `json:"dp001_prac_items"`
	ExamDaily        []analytics.ExamDaily          `json:"dp002_exam_daily"`
	Missions         []analytics.MissionPerformance `json:"dp002_mission_performance"`
	ClassMissions    []ClassMissionRow              `json:"dp002_class_mission_performance"`
	MathDaily        []analytics.MathDaily          `json:"dp003_math_daily"`
	MathUnits        []analytics.MathUnitDaily      `json:"dp003_math_daily_unit_summary"`
	QuestionAttempts []analytics.QuestionAttempt    `json:"dp002_exam_question_attempt"`
	MathItems        []analytics.MathItem           `json:"dp003_math_items"`
	VideoViews       []analytics.VideoView          `json:"video_views"`
}

// LearningRepo reads the per-platform analytics views. Every reader is
// scoped to one user (or one class) and ordered by date.
type LearningRepo interface {
	DailySummary(ctx context.Context, userSn string) ([]analytics.DailySummary, error)
	PlatformEvents(ctx context.Context, userSn string) ([]analytics.PlatformEvent, error)

	PracDaily(ctx context.Context, userSn string) ([]analytics.PracDaily, error)
	PracAttempts(ctx context.Context, userSn string) ([]analytics.PracAttempt, error)
	PracAttemptsOn(ctx context.Context, userSn, date string) ([]analytics.PracAttempt, error)
	IndicatorSummary(ctx context.Context, userSn string) ([]analytics.IndicatorSummary, error)
	ClassIndicators(ctx context.Context, scope ClassScope) ([]analytics.ClassIndicator, error)
	PracItems(ctx context.Context, userSn string) ([]analytics.PracItem, error)
	PracItemsOn(ctx context.Context, userSn, date string) ([]analytics.PracItem, error)

	ExamDaily(ctx context.Context, userSn string) ([]analytics.ExamDaily, error)
	Missions(ctx context.Context, userSn string) ([]analytics.MissionPerformance, error)
	ClassMissions(ctx context.Context, scope ClassScope) ([]analytics.ClassMission, error)

	MathDaily(ctx context.Context, userSn string) ([]analytics.MathDaily, error)
	MathUnits(ctx context.Context, userSn string) ([]analytics.MathUnitDaily, error)

	// QuestionAttempts returns one mission's answers ordered by attempt_no.
	QuestionAttempts(ctx context.Context, userSn, missionID string) ([]analytics.QuestionAttempt, error)
	// MathItems returns the answered problems of one unit, newest first.
	MathItems(ctx context.Context, userSn, unit string) ([]analytics.MathItem, error)

	// OrganizationVideoViews returns the video views of every user in the
	// organization, ordered by date.
	OrganizationVideoViews(ctx context.Context, orgID string) ([]analytics.VideoView, error)

	// Load inserts every row of d in one transaction.
	Load(ctx context.Context, d Dataset) error
}
