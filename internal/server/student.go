package server

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/lodboard/internal/advisor"
	"github.com/abhisek/lodboard/internal/analytics"
	"github.com/abhisek/lodboard/internal/events"
	"github.com/abhisek/lodboard/internal/insight"
	"github.com/abhisek/lodboard/internal/store"
)

// studentHandler serves the views of the signed-in student.
type studentHandler struct {
	srv    *Server
	repo   store.LearningRepo
	logger zerolog.Logger
}

func newStudentHandler(srv *Server) *studentHandler {
	return &studentHandler{
		srv:    srv,
		repo:   srv.deps.Learning,
		logger: srv.deps.Logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches the student routes to the router group.
func (h *studentHandler) Register(router fiber.Router) {
	router.Get("/overview", h.overview)
	router.Get("/practice", h.practice)
	router.Get("/practice/daily/:date", h.practiceDay)
	router.Post("/practice/explain", h.srv.rateLimit(), h.explain)
	router.Get("/exam", h.exam)
	router.Get("/exam/questions", h.examQuestions)
	router.Get("/math", h.math)
	router.Get("/math/items", h.mathItems)
}

// degrade logs a failed read and serves an empty view in its place.
func degrade[T any](log *zerolog.Logger, view string, rows []T, err error) []T {
	if err != nil {
		log.Error().Err(err).Str("view", view).Msg("failed to load view, serving empty rows")
		return []T{}
	}
	if rows == nil {
		return []T{}
	}
	return rows
}

func validDate(d string) bool {
	_, err := time.Parse(time.DateOnly, d)
	return err == nil
}

// dateRange reads the start and end query parameters.
func dateRange(c *fiber.Ctx) (analytics.DateRange, error) {
	r := analytics.DateRange{Start: c.Query("start"), End: c.Query("end")}
	for _, d := range []string{r.Start, r.End} {
		if d != "" && !validDate(d) {
			return r, fiber.NewError(fiber.StatusBadRequest, "dates must be YYYY-MM-DD")
		}
	}
	return r, nil
}

type overviewResponse struct {
	Range    analytics.DateRange       `json:"range"`
	Totals   []analytics.PlatformTotal `json:"totals"`
	Activity analytics.PlatformSeries  `json:"activity"`
	Daily    []analytics.DailySummary  `json:"daily"`
}

func (h *studentHandler) overview(c *fiber.Ctx) error {
	r, err := dateRange(c)
	if err != nil {
		return err
	}
	sess := sessionFrom(c)
	ctx := c.UserContext()
	log := requestLogger(h.logger, c)

	rows, err := h.repo.DailySummary(ctx, sess.UserSn)
	rows = degrade(log, "daily_summary", rows, err)
	evs, err := h.repo.PlatformEvents(ctx, sess.UserSn)
	evs = degrade(log, "platform_view_summary", evs, err)

	def := analytics.DefaultRange(rows)
	if r.Start == "" {
		r.Start = def.Start
	}
	if r.End == "" {
		r.End = def.End
	}

	daily := analytics.FilterSummary(rows, r)
	return c.JSON(overviewResponse{
		Range:    r,
		Totals:   analytics.PlatformTotals(daily),
		Activity: analytics.PlatformActivity(evs, r),
		Daily:    daily,
	})
}

// practiceQuery is the practice filter plus the requested level of detail.
type practiceQuery struct {
	Start     string          `json:"start"`
	End       string          `json:"end"`
	Date      string          `json:"date"`
	Subject   string          `json:"subject"`
	Indicator string          `json:"indicator"`
	LOD       int             `json:"lod"`
	Charts    []insight.Chart `json:"charts"`
}

func (q practiceQuery) filter() (analytics.PracticeFilter, error) {
	for _, d := range []string{q.Start, q.End, q.Date} {
		if d != "" && !validDate(d) {
			return analytics.PracticeFilter{}, fiber.NewError(fiber.StatusBadRequest, "dates must be YYYY-MM-DD")
		}
	}
	return analytics.PracticeFilter{
		Range:     analytics.DateRange{Start: q.Start, End: q.End},
		Date:      q.Date,
		Subject:   q.Subject,
		Indicator: q.Indicator,
	}, nil
}

func (q practiceQuery) lod() advisor.LOD {
	return advisor.PracContext{LODLevel: advisor.LOD(q.LOD)}.LOD()
}

func (h *studentHandler) loadPractice(c *fiber.Ctx) analytics.PracticeInput {
	sess := sessionFrom(c)
	ctx := c.UserContext()
	log := requestLogger(h.logger, c)

	var in analytics.PracticeInput
	var err error
	in.Daily, err = h.repo.PracDaily(ctx, sess.UserSn)
	in.Daily = degrade(log, "prac_daily", in.Daily, err)
	in.Attempts, err = h.repo.PracAttempts(ctx, sess.UserSn)
	in.Attempts = degrade(log, "prac_attempts", in.Attempts, err)
	in.Indicators, err = h.repo.IndicatorSummary(ctx, sess.UserSn)
	in.Indicators = degrade(log, "prac_indicator_summary", in.Indicators, err)
	in.Class, err = h.repo.ClassIndicators(ctx, store.Scope(sess))
	in.Class = degrade(log, "prac_class_attempts", in.Class, err)
	in.Items, err = h.repo.PracItems(ctx, sess.UserSn)
	in.Items = degrade(log, "prac_items", in.Items, err)
	return in
}

type practiceResponse struct {
	analytics.PracticeView
	Filter  analytics.PracticeFilter `json:"filter"`
	Options filterOptions            `json:"options"`
	LOD     advisor.LOD              `json:"lod"`
	Context advisor.PracContext      `json:"context"`
}

type filterOptions struct {
	Subjects   []string `json:"subjects"`
	Indicators []string `json:"indicators"`
}

func (h *studentHandler) practice(c *fiber.Ctx) error {
	q := practiceQuery{
		Start:     c.Query("start"),
		End:       c.Query("end"),
		Date:      c.Query("date"),
		Subject:   c.Query("subject", analytics.All),
		Indicator: c.Query("indicator", analytics.All),
	}
	if v := c.Query("lod"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lod must be a number")
		}
		q.LOD = n
	}
	f, err := q.filter()
	if err != nil {
		return err
	}

	in := h.loadPractice(c)
	lod := q.lod()
	view := analytics.BuildPracticeView(in, f, lod)
	h.srv.recordSuggestion(c, view.Suggestion, lod)

	return c.JSON(practiceResponse{
		PracticeView: view,
		Filter:       f,
		Options: filterOptions{
			Subjects:   analytics.Subjects(in.Attempts),
			Indicators: analytics.Indicators(in.Attempts, f.Subject),
		},
		LOD:     lod,
		Context: analytics.PracContextFrom(view.Stats, view.BelowClass, lod),
	})
}

func (h *studentHandler) practiceDay(c *fiber.Ctx) error {
	date := c.Params("date")
	if !validDate(date) {
		return fiber.NewError(fiber.StatusBadRequest, "dates must be YYYY-MM-DD")
	}
	sess := sessionFrom(c)
	ctx := c.UserContext()
	log := requestLogger(h.logger, c)

	attempts, err := h.repo.PracAttemptsOn(ctx, sess.UserSn, date)
	attempts = degrade(log, "prac_attempts", attempts, err)
	items, err := h.repo.PracItemsOn(ctx, sess.UserSn, date)
	items = degrade(log, "prac_items", items, err)

	return c.JSON(analytics.DailyPractice(attempts, items, date))
}

type explainResponse struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// explain asks the model to summarise the practice view of the posted filter.
func (h *studentHandler) explain(c *fiber.Ctx) error {
	var q practiceQuery
	if err := c.BodyParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	f, err := q.filter()
	if err != nil {
		return err
	}
	svc := h.srv.deps.Insight
	if svc == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no LLM provider configured")
	}

	view := analytics.BuildPracticeView(h.loadPractice(c), f, q.lod())
	params := insight.PracPromptParams{
		Date:      f.Date,
		Subject:   f.Subject,
		Indicator: f.Indicator,
		Charts:    q.Charts,
		Stats: insight.PracStats{
			AvgScore:        view.Stats.AvgScore,
			AvgSpeedSec:     view.Stats.AvgSpeedSec,
			TotalCount:      view.Stats.Count,
			BelowClassCount: view.BelowClass.Count,
			ReachedGoal:     view.Stats.ReachedGoal,
		},
	}

	text, err := svc.Explain(c.UserContext(), params)
	h.srv.metrics.observeInsight("explain", err)
	_ = h.srv.deps.Publisher.Publish(c.UserContext(), events.Event{
		Type:    events.TypeInsightRequested,
		UserSn:  sessionFrom(c).UserSn,
		Payload: map[string]any{"kind": "explain", "ok": err == nil},
	})
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("practice explanation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  "Gemini API error",
			"detail": err.Error(),
		})
	}

	html, err := insight.RenderHTML(text)
	if err != nil {
		return err
	}
	return c.JSON(explainResponse{Text: text, HTML: html})
}

type examResponse struct {
	Range      analytics.DateRange         `json:"range"`
	KPI        analytics.ExamSummary       `json:"kpi"`
	Daily      []analytics.ExamDaily       `json:"daily"`
	Missions   analytics.MissionSummary    `json:"missions"`
	Progress   analytics.MissionStats      `json:"progress"`
	Comparison analytics.MissionComparison `json:"comparison"`
}

func (h *studentHandler) exam(c *fiber.Ctx) error {
	r, err := dateRange(c)
	if err != nil {
		return err
	}
	mf := analytics.MissionFilter{
		ObjectType: c.Query("object_type", analytics.All),
		MissionID:  c.Query("mission_id", analytics.All),
	}
	sess := sessionFrom(c)
	ctx := c.UserContext()
	log := requestLogger(h.logger, c)

	daily, err := h.repo.ExamDaily(ctx, sess.UserSn)
	daily = degrade(log, "exam_daily", daily, err)
	missions, err := h.repo.Missions(ctx, sess.UserSn)
	missions = degrade(log, "mission_performance", missions, err)
	class, err := h.repo.ClassMissions(ctx, store.Scope(sess))
	class = degrade(log, "class_mission_performance", class, err)

	daily = analytics.FilterExamDaily(daily, r)
	missions = analytics.FilterMissions(missions, mf)
	return c.JSON(examResponse{
		Range:      r,
		KPI:        analytics.ExamKPI(daily),
		Daily:      daily,
		Missions:   analytics.MissionKPI(missions),
		Progress:   analytics.MissionProgress(missions),
		Comparison: analytics.CompareMissions(missions, class),
	})
}

type mathResponse struct {
	KPI   analytics.MathSummary `json:"kpi"`
	Daily []analytics.MathDaily `json:"daily"`
	Units []analytics.UnitShare `json:"units"`
	Unit  *analytics.UnitDetail `json:"unit,omitempty"`
}

func (h *studentHandler) math(c *fiber.Ctx) error {
	date := c.Query("date")
	if date != "" && !validDate(date) {
		return fiber.NewError(fiber.StatusBadRequest, "dates must be YYYY-MM-DD")
	}
	sess := sessionFrom(c)
	ctx := c.UserContext()
	log := requestLogger(h.logger, c)

	daily, err := h.repo.MathDaily(ctx, sess.UserSn)
	daily = degrade(log, "math_daily", daily, err)
	units, err := h.repo.MathUnits(ctx, sess.UserSn)
	units = degrade(log, "math_daily_unit_summary", units, err)

	resp := mathResponse{
		KPI:   analytics.MathKPI(daily),
		Daily: daily,
		Units: analytics.UnitBreakdown(units, date),
	}
	if resp.Units == nil {
		resp.Units = []analytics.UnitShare{}
	}
	if unit := c.Query("unit"); unit != "" {
		if d, ok := analytics.UnitDetailFor(units, unit, date); ok {
			resp.Unit = &d
		}
	}
	return c.JSON(resp)
}

// examQuestions is the per-question grid of one mission. Without a mission
// the grid is empty.
func (h *studentHandler) examQuestions(c *fiber.Ctx) error {
	missionID := c.Query("mission_id")
	if missionID == "" || missionID == analytics.All {
		return c.JSON(analytics.QuestionAttempts("", nil))
	}
	sess := sessionFrom(c)
	rows, err := h.repo.QuestionAttempts(c.UserContext(), sess.UserSn, missionID)
	rows = degrade(requestLogger(h.logger, c), "exam_question_attempt", rows, err)
	return c.JSON(analytics.QuestionAttempts(missionID, rows))
}

type mathItemsResponse struct {
	Unit   string                  `json:"unit"`
	Date   string                  `json:"date,omitempty"`
	Result string                  `json:"result"`
	Detail *analytics.UnitDetail   `json:"detail,omitempty"`
	Items  []analytics.MathItemRow `json:"items"`
}

// mathItems lists the answered problems of one unit.
func (h *studentHandler) mathItems(c *fiber.Ctx) error {
	unit := c.Query("unit")
	if unit == "" {
		return fiber.NewError(fiber.StatusBadRequest, "unit is required")
	}
	date := c.Query("date")
	if date != "" && !validDate(date) {
		return fiber.NewError(fiber.StatusBadRequest, "dates must be YYYY-MM-DD")
	}
	result := c.Query("result", analytics.All)
	if !analytics.ValidItemResult(result) {
		return fiber.NewError(fiber.StatusBadRequest, "result must be all, correct or wrong")
	}
	sess := sessionFrom(c)
	ctx := c.UserContext()
	log := requestLogger(h.logger, c)

	items, err := h.repo.MathItems(ctx, sess.UserSn, unit)
	items = degrade(log, "math_items", items, err)
	units, err := h.repo.MathUnits(ctx, sess.UserSn)
	units = degrade(log, "math_daily_unit_summary", units, err)

	resp := mathItemsResponse{
		Unit:   unit,
		Date:   date,
		Result: result,
		Items:  analytics.MathItems(items, unit, date, result),
	}
	if d, ok := analytics.UnitDetailFor(units, unit, date); ok {
		resp.Detail = &d
	}
	return c.JSON(resp)
}
