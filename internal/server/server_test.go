package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lodboard/internal/analytics"
	"github.com/abhisek/lodboard/internal/events"
	"github.com/abhisek/lodboard/internal/insight"
	"github.com/abhisek/lodboard/internal/llm"
	"github.com/abhisek/lodboard/internal/ratelimit"
	"github.com/abhisek/lodboard/internal/session"
	"github.com/abhisek/lodboard/internal/store"
)

const testSecret = "test-secret-0123456789"

var dbSeq atomic.Int64

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func testDataset() store.Dataset {
	classA := store.ClassScope{OrganizationID: "org1", Grade: "5", Class: "A"}
	return store.Dataset{
		Users: []session.User{
			{UserSn: "s001", Role: "student", OrganizationID: "org1", Grade: "5", Class: "A"},
			{UserSn: "s002", Role: "student", OrganizationID: "org1", Grade: "5", Class: "A"},
			{UserSn: "t001", Role: "teacher", OrganizationID: "org1", Grade: "5", Class: "A"},
			{UserSn: "x001", Role: "janitor", OrganizationID: "org1"},
			{UserSn: "p001", Role: "policy_maker", OrganizationID: "org1"},
			{UserSn: "s900", Role: "student", OrganizationID: "org2", Grade: "6", Class: "C"},
		},
		DailySummary: []analytics.DailySummary{
			{UserSn: "s001", ActivityDate: "2024-03-01", Platform: analytics.PlatformPractice, LearningTimeSec: 600, ActivityCount: 2, AttemptCount: 2, CorrectCount: 3, IncorrectCount: 1},
			{UserSn: "s001", ActivityDate: "2024-03-04", Platform: analytics.PlatformMath, LearningTimeSec: 120, ActivityCount: 1},
		},
		PlatformEvents: []analytics.PlatformEvent{
			{UserSn: "s001", Platform: "dp001", EventDate: "2024-03-01", ActivityCount: 2},
		},
		PracAttempts: []analytics.PracAttempt{
			{PracSn: 1, UserSn: "s001", ActivityDate: "2024-03-01", Date: "2024-03-01T09:00:00", SubjectName: "Math", IndicatorName: "Fractions", ScoreRate: 40, ItemsCount: 5, AvgItemTimeMs: 3000},
			{PracSn: 2, UserSn: "s001", ActivityDate: "2024-03-04", Date: "2024-03-04T09:00:00", SubjectName: "Math", IndicatorName: "Decimals", ScoreRate: 50, ItemsCount: 5, AvgItemTimeMs: 2500},
		},
		ClassIndicators: []store.ClassIndicatorRow{
			{ClassScope: classA, ClassIndicator: analytics.ClassIndicator{SubjectName: "Math", IndicatorName: "Fractions", ParticipantCount: 20, ClassAvgScoreRate: 70}},
		},
		PracItems: []analytics.PracItem{
			{PracSn: 1, UserSn: "s001", Date: "2024-03-01T09:00:00", ActivityDate: "2024-03-01", IndicatorName: "Fractions", ItemIndex: 1, IsCorrect: 1},
			{PracSn: 1, UserSn: "s001", Date: "2024-03-01T09:00:00", ActivityDate: "2024-03-01", IndicatorName: "Fractions", ItemIndex: 2, IsCorrect: 0},
		},
		Missions: []analytics.MissionPerformance{
			{UserSn: "s001", MissionID: "m1", ObjectType: "quiz", AttemptNo: 1, AttemptTime: "2024-03-01T09:00:00", AttemptDate: "2024-03-01", AccuracyRate: 50},
		},
		ClassMissions: []store.ClassMissionRow{
			{ClassScope: classA, ClassMission: analytics.ClassMission{ObjectType: "quiz", MissionID: "m1", StudentCount: 22, AvgAccuracyRate: 70}},
		},
		MathUnits: []analytics.MathUnitDaily{
			{UserSn: "s001", ActivityDate: "2024-03-01", UnitName: "Fractions", ProblemCount: 4, CorrectCount: 3, WrongCount: 1, AvgTimeMs: 4200},
		},
		QuestionAttempts: []analytics.QuestionAttempt{
			{UserSn: "s001", MissionID: "m1", AttemptNo: 1, QuestionID: "q1", ResultSuccess: false},
			{UserSn: "s001", MissionID: "m1", AttemptNo: 1, QuestionID: "q2", ResultSuccess: true},
			{UserSn: "s001", MissionID: "m1", AttemptNo: 2, QuestionID: "q1", ResultSuccess: true},
			{UserSn: "s002", MissionID: "m1", AttemptNo: 1, QuestionID: "q1", ResultSuccess: true},
		},
		MathItems: []analytics.MathItem{
			{UserSn: "s001", ActivityDate: "2024-03-01", UnitName: "Fractions", AnswerProblemNum: "F-1", IsCorrect: 1, GameTime: 3800, GameGrade: "5"},
			{UserSn: "s001", ActivityDate: "2024-03-01", UnitName: "Fractions", AnswerProblemNum: "F-2", IsCorrect: 0, GameTime: 6200, GameGrade: "5"},
		},
		VideoViews: []analytics.VideoView{
			{UserSn: "s001", ActivityDate: "2024-03-01", VideoName: "Adding fractions", IndicatorName: "Fractions", CoverageRatio: 0.2, LearningStrategyType: "fast_skimming"},
			{UserSn: "s002", ActivityDate: "2024-03-02", VideoName: "Adding fractions", IndicatorName: "Fractions", CoverageRatio: 0.4, LearningStrategyType: "fast_skimming"},
			{UserSn: "s002", ActivityDate: "2024-03-05", VideoName: "Decimals intro", IndicatorName: "Decimals", CoverageRatio: 0.9, LearningStrategyType: "stable_complete"},
			{UserSn: "s900", ActivityDate: "2024-03-01", VideoName: "Other school", CoverageRatio: 0.1},
		},
	}
}

type testEnv struct {
	srv  *Server
	st   *store.Store
	mock *llm.MockProvider
	pub  *recordingPublisher
	logs *bytes.Buffer
}

// newTestEnv builds a server over a seeded in-memory store. A nil mock
// leaves the server without an LLM provider.
func newTestEnv(t *testing.T, mock *llm.MockProvider) *testEnv {
	t.Helper()
	if mock == nil {
		return newProviderEnv(t, nil)
	}
	env := newProviderEnv(t, func(*store.Store) llm.Provider { return mock })
	env.mock = mock
	return env
}

// newProviderEnv is newTestEnv with the provider built over the test store,
// so real adapters can log their request events.
func newProviderEnv(t *testing.T, provider func(*store.Store) llm.Provider) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(store.DriverSQLite, fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1)))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	require.NoError(t, st.MigrateDataset(ctx))
	require.NoError(t, st.LearningRepo().Load(ctx, testDataset()))

	pub := &recordingPublisher{}
	logs := &bytes.Buffer{}
	deps := Deps{
		DB:        st,
		Learning:  st.LearningRepo(),
		Users:     st.UserRepo(),
		Limiter:   ratelimit.New(ratelimit.DefaultConfig(), ratelimit.NewMemoryStore(), nil),
		Publisher: pub,
		Logger:    zerolog.New(logs),
	}
	if provider != nil {
		deps.Insight = insight.NewService(provider(st), insight.DefaultConfig())
	}

	cfg := DefaultConfig()
	cfg.JWTSecret = testSecret
	srv, err := New(cfg, deps)
	require.NoError(t, err)
	return &testEnv{srv: srv, st: st, pub: pub, logs: logs}
}

type reqOpt func(*http.Request)

func withToken(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withHeader(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...reqOpt) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}

	resp, err := e.srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (e *testEnv) login(t *testing.T, userSn string) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/login", map[string]string{"user_sn": userSn})
	require.Equal(t, http.StatusOK, status, body)
	return body["token"].(string)
}

func TestPingAndHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pong", body["message"])

	status, body = env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestRequestIDEchoed(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := env.srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))

	resp, err = env.srv.App().Test(httptest.NewRequest(http.MethodGet, "/ping", nil), -1)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestAPITest(t *testing.T) {
	status, body := newTestEnv(t, nil).do(t, http.MethodGet, "/api/test", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, false, body["ok"])

	status, body = newTestEnv(t, llm.NewMockProvider()).do(t, http.MethodGet, "/api/test", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "mock", body["model"])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, http.MethodPost, "/api/login", map[string]string{"user_sn": "t001"})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "/teacher", body["landing"])
	sess := body["session"].(map[string]any)
	assert.Equal(t, "teacher", sess["role"])
	assert.Equal(t, "A", sess["class"])
	assert.Contains(t, env.pub.types(), events.TypeLoginSucceeded)

	// Policy makers have no grade or class; both are stored as NULL.
	status, body = env.do(t, http.MethodPost, "/api/login", map[string]string{"user_sn": "p001"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "/policy", body["landing"])
	sess = body["session"].(map[string]any)
	assert.Equal(t, "policy_maker", sess["role"])
	assert.Empty(t, sess["grade"])

	tests := []struct {
		name   string
		userSn string
		want   int
	}{
		{"empty", "  ", http.StatusBadRequest},
		{"unknown", "nobody", http.StatusUnauthorized},
		{"invalid role", "x001", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, http.MethodPost, "/api/login", map[string]string{"user_sn": tt.userSn})
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSuggestion(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name     string
		in       map[string]any
		scenario string
		level    string
		tag      string
		next     string
		actions  int
	}{
		{
			name:     "stuck despite effort",
			in:       map[string]any{"avgScore": 50, "avgSpeedSec": 6, "struggleCount": 2, "belowClassCount": 0, "reachedGoal": false, "lodLevel": 1},
			scenario: "stuck-indicator", level: "warning", tag: "risk", next: "indicator",
		},
		{
			name:     "correct but slow at item detail",
			in:       map[string]any{"avgScore": 85, "avgSpeedSec": 9, "struggleCount": 0, "belowClassCount": 0, "reachedGoal": false, "lodLevel": 3},
			scenario: "correct-not-fluent", level: "info", tag: "maintenance", next: "item", actions: 2,
		},
		{
			name:     "fast but careless without a level",
			in:       map[string]any{"avgScore": 50, "avgSpeedSec": 3, "struggleCount": 0, "belowClassCount": 0, "reachedGoal": false},
			scenario: "fast-low-accuracy", level: "warning", tag: "risk", next: "item",
		},
		{
			name:     "below class average",
			in:       map[string]any{"avgScore": 70, "avgSpeedSec": 5, "struggleCount": 0, "belowClassCount": 3, "reachedGoal": false},
			scenario: "below-class-average", level: "info", tag: "risk", next: "indicator",
		},
		{
			name:     "goal reached",
			in:       map[string]any{"avgScore": 90, "avgSpeedSec": 3, "struggleCount": 0, "belowClassCount": 0, "reachedGoal": true},
			scenario: "goal-reached", level: "success", tag: "opportunity", next: "overview",
		},
		{
			name:     "nothing stands out",
			in:       map[string]any{"avgScore": 70, "avgSpeedSec": 5, "struggleCount": 0, "belowClassCount": 0, "reachedGoal": false},
			scenario: "stable", level: "info", tag: "maintenance", next: "overview",
		},
		{
			name:     "struggle outranks below class",
			in:       map[string]any{"avgScore": 50, "avgSpeedSec": 6, "struggleCount": 1, "belowClassCount": 2},
			scenario: "stuck-indicator", level: "warning", tag: "risk", next: "indicator",
		},
		{
			name:     "zero speed and score reads as guessing",
			in:       map[string]any{"avgScore": 0, "avgSpeedSec": 0, "struggleCount": 0, "belowClassCount": 0, "reachedGoal": false},
			scenario: "fast-low-accuracy", level: "warning", tag: "risk", next: "item",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, http.MethodPost, "/api/suggestion", tt.in)
			require.Equal(t, http.StatusOK, status, body)
			assert.Equal(t, tt.scenario, body["scenario"])
			assert.Equal(t, tt.level, body["level"])
			assert.Equal(t, tt.tag, body["tag"])
			assert.Equal(t, tt.next, body["nextStep"])
			assert.NotEmpty(t, body["title"])
			assert.NotEmpty(t, body["explanation"])
			if tt.actions > 0 {
				assert.Len(t, body["actions"], tt.actions)
			} else {
				assert.NotEmpty(t, body["actions"])
			}
		})
	}
	assert.Contains(t, env.pub.types(), events.TypeSuggestionGenerated)

	req := httptest.NewRequest(http.MethodPost, "/api/suggestion", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoleGuard(t *testing.T) {
	env := newTestEnv(t, nil)
	student := env.login(t, "s001")
	teacher := env.login(t, "t001")

	tests := []struct {
		name string
		path string
		opts []reqOpt
		want int
	}{
		{"no token", "/api/student/overview", nil, http.StatusUnauthorized},
		{"garbage token", "/api/student/overview", []reqOpt{withToken("nope")}, http.StatusUnauthorized},
		{"teacher on student route", "/api/student/overview", []reqOpt{withToken(teacher)}, http.StatusForbidden},
		{"student on teacher route", "/api/teacher/students", []reqOpt{withToken(student)}, http.StatusForbidden},
		{"student", "/api/student/overview", []reqOpt{withToken(student)}, http.StatusOK},
		{"teacher", "/api/teacher/students", []reqOpt{withToken(teacher)}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := env.do(t, http.MethodGet, tt.path, nil, tt.opts...)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestStudentOverview(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "s001")

	status, body := env.do(t, http.MethodGet, "/api/student/overview", nil, withToken(token))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"start": "2024-03-01", "end": "2024-03-04"}, body["range"])
	assert.Len(t, body["totals"], 3)
	assert.Len(t, body["daily"], 2)

	status, body = env.do(t, http.MethodGet, "/api/student/overview?start=2024-03-02", nil, withToken(token))
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["daily"], 1)

	status, _ = env.do(t, http.MethodGet, "/api/student/overview?start=March", nil, withToken(token))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStudentPractice(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "s001")

	status, body := env.do(t, http.MethodGet, "/api/student/practice?lod=3&subject=Math", nil, withToken(token))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["lod"])

	sug := body["suggestion"].(map[string]any)
	assert.NotEmpty(t, sug["scenario"])
	assert.NotEmpty(t, sug["title"])

	opts := body["options"].(map[string]any)
	assert.Equal(t, []any{"Math"}, opts["subjects"])

	status, _ = env.do(t, http.MethodGet, "/api/student/practice?lod=high", nil, withToken(token))
	assert.Equal(t, http.StatusBadRequest, status)

	// Out-of-range levels fall back to the overview level.
	status, body = env.do(t, http.MethodGet, "/api/student/practice?lod=9", nil, withToken(token))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["lod"])
}

func TestStudentPracticeDay(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "s001")

	status, body := env.do(t, http.MethodGet, "/api/student/practice/daily/2024-03-01", nil, withToken(token))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2024-03-01", body["date"])

	status, _ = env.do(t, http.MethodGet, "/api/student/practice/daily/yesterday", nil, withToken(token))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStudentPracticeExplain(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("｜Overall\n• Accuracy is 45%")})
	env := newTestEnv(t, mock)
	token := env.login(t, "s001")

	status, body := env.do(t, http.MethodPost, "/api/student/practice/explain", map[string]any{
		"subject": "Math",
		"charts":  []string{"indicator_gap"},
	}, withToken(token))
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "｜Overall\n• Accuracy is 45%", body["text"])
	assert.Contains(t, body["html"], "<h3>Overall</h3>")

	require.Equal(t, 1, mock.CallCount())
	prompt := mock.Calls[0].Messages[0].Content
	assert.Contains(t, prompt, "Subject: Math")
	assert.Contains(t, prompt, "Practice count: 2")
	assert.Contains(t, prompt, insight.ChartIndicatorGap.Label())
}

func TestStudentPracticeExplainWithoutProvider(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "s001")

	status, _ := env.do(t, http.MethodPost, "/api/student/practice/explain", map[string]any{}, withToken(token))
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

// newGeminiEnv wires the real Gemini adapter, through the full decorator
// chain, to a fake API that always answers with text.
func newGeminiEnv(t *testing.T, text string) (*testEnv, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	fake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{"promptTokenCount": 5, "candidatesTokenCount": 0},
		})
	}))
	t.Cleanup(fake.Close)

	env := newProviderEnv(t, func(st *store.Store) llm.Provider {
		cfg := llm.DefaultConfig()
		cfg.Gemini.APIKey = "test-key"
		cfg.Gemini.BaseURL = fake.URL
		p, err := llm.NewProvider(context.Background(), cfg, st.EventRepo(), zerolog.Nop())
		require.NoError(t, err)
		return p
	})
	return env, &hits
}

func TestEmptyGeminiReplyBecomesPlaceholder(t *testing.T) {
	env, hits := newGeminiEnv(t, "")

	status, body := env.do(t, http.MethodPost, "/api/gemini", map[string]any{"prompt": "hello"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, insight.NoReply, body["text"])
	assert.Equal(t, int64(1), hits.Load(), "an empty reply must not be retried")

	status, body = env.do(t, http.MethodPost, "/api/gemini", map[string]any{
		"messages": []insight.ChatMessage{{Role: "user", Content: "hello"}},
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, insight.NoReply, body["reply"])
	assert.Equal(t, int64(2), hits.Load())

	token := env.login(t, "s001")
	status, body = env.do(t, http.MethodPost, "/api/student/practice/explain", map[string]any{"subject": "Math"}, withToken(token))
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, insight.NoReply, body["text"])
	assert.Equal(t, int64(3), hits.Load())

	logged, err := env.st.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, logged, 3)
	for _, e := range logged {
		assert.True(t, e.Success)
	}
}

func TestStudentExamAndMath(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "s001")

	status, body := env.do(t, http.MethodGet, "/api/student/exam?object_type=quiz", nil, withToken(token))
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "missions")
	assert.Contains(t, body, "comparison")
	assert.Equal(t, []any{}, body["daily"])

	status, body = env.do(t, http.MethodGet, "/api/student/math?unit=Fractions", nil, withToken(token))
	require.Equal(t, http.StatusOK, status)
	unit := body["unit"].(map[string]any)
	assert.Equal(t, "Fractions", unit["unit"])
	assert.Equal(t, float64(3), unit["correct"])
	assert.Equal(t, 4.0, unit["avgTimeSec"])
}

func TestStudentExamQuestions(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "s001")

	status, body := env.do(t, http.MethodGet, "/api/student/exam/questions?mission_id=m1", nil, withToken(token))
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "m1", body["missionId"])
	assert.Equal(t, float64(2), body["maxAttemptNo"])

	questions := body["questions"].([]any)
	require.Len(t, questions, 2, "only the signed-in student's answers")
	q1 := questions[0].(map[string]any)
	assert.Equal(t, "q1", q1["questionId"])
	assert.Equal(t, []any{false, true}, q1["results"])
	q2 := questions[1].(map[string]any)
	assert.Equal(t, []any{true, nil}, q2["results"])

	status, body = env.do(t, http.MethodGet, "/api/student/exam/questions?mission_id=all", nil, withToken(token))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["questions"])
}

func TestStudentMathItems(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "s001")

	status, body := env.do(t, http.MethodGet, "/api/student/math/items?unit=Fractions", nil, withToken(token))
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "all", body["result"])
	assert.Len(t, body["items"], 2)
	detail := body["detail"].(map[string]any)
	assert.Equal(t, float64(3), detail["correct"])

	status, body = env.do(t, http.MethodGet, "/api/student/math/items?unit=Fractions&date=2024-03-01&result=wrong", nil, withToken(token))
	require.Equal(t, http.StatusOK, status, body)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "F-2", item["problem"])
	assert.Equal(t, false, item["correct"])
	assert.Equal(t, float64(6), item["timeSec"])

	tests := []struct {
		name  string
		query string
	}{
		{"missing unit", ""},
		{"bad date", "?unit=Fractions&date=March"},
		{"bad result", "?unit=Fractions&result=right"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := env.do(t, http.MethodGet, "/api/student/math/items"+tt.query, nil, withToken(token))
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

func TestPolicyViews(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "p001")

	status, body := env.do(t, http.MethodGet, "/api/policy/coverage", nil, withToken(token))
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(2), body["distinctVideos"], "other organizations are excluded")
	assert.InDelta(t, 0.5, body["avgCoverage"], 1e-9)
	assert.Equal(t, "fast_skimming", body["dominantStrategy"])

	status, body = env.do(t, http.MethodGet, "/api/policy/weak-videos", nil, withToken(token))
	require.Equal(t, http.StatusOK, status, body)
	weak := body["videos"].([]any)
	require.Len(t, weak, 1)
	first := weak[0].(map[string]any)
	assert.Equal(t, "Adding fractions", first["videoName"])
	assert.Equal(t, float64(2), first["views"])
	assert.InDelta(t, 0.3, first["avgCoverage"], 1e-9)

	status, body = env.do(t, http.MethodGet, "/api/policy/history?end=2024-03-02", nil, withToken(token))
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["videos"], 1)

	status, body = env.do(t, http.MethodGet, "/api/policy/history?user_sn=s002", nil, withToken(token))
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["videos"], 2)

	status, _ = env.do(t, http.MethodGet, "/api/policy/coverage?start=soon", nil, withToken(token))
	assert.Equal(t, http.StatusBadRequest, status)

	student := env.login(t, "s001")
	status, _ = env.do(t, http.MethodGet, "/api/policy/coverage", nil, withToken(student))
	assert.Equal(t, http.StatusForbidden, status)
}

func TestTeacherStudents(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "t001")

	status, body := env.do(t, http.MethodGet, "/api/teacher/students", nil, withToken(token))
	require.Equal(t, http.StatusOK, status)

	students := body["students"].([]any)
	require.Len(t, students, 2)
	first := students[0].(map[string]any)
	assert.Equal(t, "s001", first["user_sn"])
	assert.Len(t, first["totals"], 3)
}

func TestProxyShapes(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`{"summary":"Steady.","highlight":"Fractions lag.","suggestions":["Redo fractions"]}`)},
		llm.MockResponse{Content: json.RawMessage(`plain answer`)},
		llm.MockResponse{Content: json.RawMessage(`chat answer`)},
	)
	env := newTestEnv(t, mock)

	status, body := env.do(t, http.MethodPost, "/api/gemini", map[string]any{
		"question": "How am I doing?",
		"context":  map[string]any{"avgScore": 45},
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, body["text"], "Most notable: Fractions lag.")

	status, body = env.do(t, http.MethodPost, "/api/gemini", map[string]any{"prompt": "hi"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "plain answer", body["text"])

	status, body = env.do(t, http.MethodPost, "/api/gemini", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "hello"}},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "chat answer", body["reply"])
	assert.Equal(t, "user: hello", mock.Calls[2].Messages[0].Content)

	status, body = env.do(t, http.MethodPost, "/api/gemini", map[string]any{"context": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])
}

func TestProxyErrors(t *testing.T) {
	status, _ := newTestEnv(t, nil).do(t, http.MethodPost, "/api/gemini", map[string]any{"prompt": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, status)

	mock := llm.NewMockProvider(llm.MockResponse{Err: errors.New("upstream exploded")})
	status, body := newTestEnv(t, mock).do(t, http.MethodPost, "/api/gemini", map[string]any{"prompt": "hi"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Gemini API error", body["error"])
	assert.Equal(t, "upstream exploded", body["detail"])
}

func TestProxyRateLimit(t *testing.T) {
	mock := llm.NewMockProvider()
	for range 6 {
		mock.AddResponse(llm.MockResponse{Content: json.RawMessage(`ok`)})
	}
	env := newTestEnv(t, mock)
	first := withHeader("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	for i := 0; i < ratelimit.DefaultMaxRequests; i++ {
		status, _ := env.do(t, http.MethodPost, "/api/gemini", map[string]any{"prompt": "hi"}, first)
		require.Equal(t, http.StatusOK, status, "request %d", i+1)
	}

	status, body := env.do(t, http.MethodPost, "/api/gemini", map[string]any{"prompt": "hi"}, first)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Too many requests", body["error"])
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, ratelimit.DefaultMaxRequests, mock.CallCount(), "rejected request reached the provider")

	// Another client has its own window.
	status, _ = env.do(t, http.MethodPost, "/api/gemini", map[string]any{"prompt": "hi"}, withHeader("X-Forwarded-For", "198.51.100.2"))
	assert.Equal(t, http.StatusOK, status)
}

type failingLearning struct {
	store.LearningRepo
}

func (failingLearning) DailySummary(context.Context, string) ([]analytics.DailySummary, error) {
	return nil, errors.New("view missing")
}

func (failingLearning) PlatformEvents(context.Context, string) ([]analytics.PlatformEvent, error) {
	return nil, errors.New("view missing")
}

type staticUsers map[string]session.User

func (u staticUsers) FindUser(_ context.Context, sn string) (*session.User, error) {
	if user, ok := u[sn]; ok {
		return &user, nil
	}
	return nil, nil
}

func (u staticUsers) ListStudents(context.Context, string, string, string) ([]session.User, error) {
	return nil, nil
}

func TestFetchFailureDegradesToEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWTSecret = testSecret
	srv, err := New(cfg, Deps{
		Learning: failingLearning{},
		Users:    staticUsers{"s001": {UserSn: "s001", Role: "student"}},
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	env := &testEnv{srv: srv}

	token := env.login(t, "s001")
	status, body := env.do(t, http.MethodGet, "/api/student/overview", nil, withToken(token))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["daily"])
	assert.Len(t, body["totals"], 3)
}

func TestExpiredTokenRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	short := session.NewIssuer(testSecret, time.Nanosecond)
	token, err := short.Issue(&session.Session{UserSn: "s001", Role: session.RoleStudent})
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	status, _ := env.do(t, http.MethodGet, "/api/student/overview", nil, withToken(token))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/ping", nil)
	env.do(t, http.MethodPost, "/api/suggestion", map[string]any{"reachedGoal": true})

	resp, err := env.srv.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, `lodboard_http_requests_total{route="/ping",status="200"} 1`)
	assert.Contains(t, text, `lodboard_suggestions_total{scenario="goal-reached"} 1`)
}

func TestPanicIsLoggedAndCounted(t *testing.T) {
	env := newTestEnv(t, nil)
	env.srv.App().Get("/boom", func(c *fiber.Ctx) error {
		panic("handler exploded")
	})

	status, body := env.do(t, http.MethodGet, "/boom", nil, withHeader(fiber.HeaderXRequestID, "req-boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotEmpty(t, body["error"])

	resp, err := env.srv.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `lodboard_http_requests_total{route="/boom",status="500"} 1`)

	logged := env.logs.String()
	assert.Contains(t, logged, `"request_id":"req-boom"`)
	assert.Contains(t, logged, `"status":500`)
	assert.Contains(t, logged, `"level":"warn"`)
}

func TestConfig(t *testing.T) {
	t.Setenv("LODBOARD_ADDR", ":8080")
	t.Setenv("LODBOARD_JWT_SECRET", "short")
	t.Setenv("LODBOARD_RATE_WINDOW", "1m")
	t.Setenv("LODBOARD_RATE_MAX", "10")

	cfg := ConfigFromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.Error(t, cfg.Validate(), "secret too short")

	cfg.JWTSecret = testSecret
	assert.NoError(t, cfg.Validate())
}
