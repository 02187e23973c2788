package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/lodboard/internal/analytics"
	"github.com/abhisek/lodboard/internal/session"
	"github.com/abhisek/lodboard/internal/store"
)

type teacherHandler struct {
	srv    *Server
	logger zerolog.Logger
}

func newTeacherHandler(srv *Server) *teacherHandler {
	return &teacherHandler{
		srv:    srv,
		logger: srv.deps.Logger.With().Str("component", "teacher_handler").Logger(),
	}
}

// Register attaches the teacher routes to the router group.
func (h *teacherHandler) Register(router fiber.Router) {
	router.Get("/students", h.students)
}

type rosterEntry struct {
	session.User
	Totals []analytics.PlatformTotal `json:"totals"`
}

type rosterResponse struct {
	Class    store.ClassScope `json:"class"`
	Students []rosterEntry    `json:"students"`
}

// students lists the teacher's class with each student's platform totals.
func (h *teacherHandler) students(c *fiber.Ctx) error {
	sess := sessionFrom(c)
	scope := store.Scope(sess)
	ctx := c.UserContext()
	log := requestLogger(h.logger, c)

	users, err := h.srv.deps.Users.ListStudents(ctx, scope.OrganizationID, scope.Grade, scope.Class)
	users = degrade(log, "users", users, err)

	resp := rosterResponse{Class: scope, Students: make([]rosterEntry, 0, len(users))}
	for _, u := range users {
		rows, err := h.srv.deps.Learning.DailySummary(ctx, u.UserSn)
		rows = degrade(log, "daily_summary", rows, err)
		resp.Students = append(resp.Students, rosterEntry{User: u, Totals: analytics.PlatformTotals(rows)})
	}
	return c.JSON(resp)
}
