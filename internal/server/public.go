package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/abhisek/lodboard/internal/advisor"
	"github.com/abhisek/lodboard/internal/events"
	"github.com/abhisek/lodboard/internal/session"
)

func (s *Server) ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "pong"})
}

func (s *Server) healthz(c *fiber.Ctx) error {
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(c.UserContext()); err != nil {
			requestLogger(s.logger, c).Error().Err(err).Msg("database ping failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// test reports which model answers the AI routes.
func (s *Server) test(c *fiber.Ctx) error {
	if s.deps.Insight == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"ok":    false,
			"error": "no LLM provider configured",
		})
	}
	return c.JSON(fiber.Map{"ok": true, "model": s.deps.Insight.ModelID()})
}

type loginRequest struct {
	UserSn string `json:"user_sn"`
}

type loginResponse struct {
	Token   string           `json:"token"`
	Session *session.Session `json:"session"`
	Landing string           `json:"landing"`
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	sess, err := s.auth.Login(c.UserContext(), req.UserSn)
	switch {
	case errors.Is(err, session.ErrEmptyUserSn):
		return fiber.NewError(fiber.StatusBadRequest, "user_sn is required")
	case errors.Is(err, session.ErrUnknownUser):
		return fiber.NewError(fiber.StatusUnauthorized, "unknown user")
	case errors.Is(err, session.ErrInvalidRole):
		return fiber.NewError(fiber.StatusForbidden, "user has no dashboard role")
	case err != nil:
		return err
	}

	token, err := s.issuer.Issue(sess)
	if err != nil {
		return err
	}
	landing, _ := session.LandingRoute(sess.Role)

	_ = s.deps.Publisher.Publish(c.UserContext(), events.Event{
		Type:    events.TypeLoginSucceeded,
		UserSn:  sess.UserSn,
		Payload: map[string]any{"role": string(sess.Role)},
	})

	return c.JSON(loginResponse{Token: token, Session: sess, Landing: landing})
}

// suggestion runs the advisor on a posted snapshot. It needs no session.
func (s *Server) suggestion(c *fiber.Ctx) error {
	var pc advisor.PracContext
	if err := c.BodyParser(&pc); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid practice context")
	}

	sug := advisor.Suggest(pc)
	s.recordSuggestion(c, sug, pc.LOD())
	return c.JSON(sug)
}

func (s *Server) recordSuggestion(c *fiber.Ctx, sug advisor.Suggestion, lod advisor.LOD) {
	s.metrics.observeSuggestion(string(sug.Scenario))

	var userSn string
	if sess := sessionFrom(c); sess != nil {
		userSn = sess.UserSn
	}
	_ = s.deps.Publisher.Publish(c.UserContext(), events.Event{
		Type:   events.TypeSuggestionGenerated,
		UserSn: userSn,
		Payload: map[string]any{
			"scenario": string(sug.Scenario),
			"lod":      int(lod),
		},
	})
}
