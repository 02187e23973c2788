package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abhisek/lodboard/internal/session"
)

const (
	localRequestID = "request_id"
	localSession   = "session"
)

// requestLogger assigns a request id, logs the request and records it in
// the metrics once the error handler has set the final status.
func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(localRequestID, id)
		c.Set(fiber.HeaderXRequestID, id)

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		route := c.Route().Path
		elapsed := time.Since(start)
		s.metrics.observeRequest(route, status, elapsed.Seconds())

		ev := requestLogger(s.logger, c).Debug()
		if status >= fiber.StatusInternalServerError {
			ev = requestLogger(s.logger, c).Warn()
		}
		ev.Str("method", c.Method()).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Msg("request")
		return nil
	}
}

func requestLogger(logger zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	l := logger.With().Str("path", c.Path())
	if id, ok := c.Locals(localRequestID).(string); ok {
		l = l.Str("request_id", id)
	}
	if s := sessionFrom(c); s != nil {
		l = l.Str("user_sn", s.UserSn)
	}
	out := l.Logger()
	return &out
}

// authenticate verifies the Bearer session token and attaches the session
// to the request.
func (s *Server) authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing session token")
		}

		sess, err := s.issuer.Verify(strings.TrimSpace(token))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid session token")
		}

		c.Locals(localSession, sess)
		c.SetUserContext(session.WithSession(c.UserContext(), sess))
		return c.Next()
	}
}

// requireRole rejects sessions whose role is not one of roles.
func requireRole(roles ...session.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := sessionFrom(c)
		if sess == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "missing session token")
		}
		for _, r := range roles {
			if sess.Role == r {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "role "+string(sess.Role)+" may not access this resource")
	}
}

func sessionFrom(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(localSession).(*session.Session)
	return sess
}

// clientAddr identifies the caller for rate limiting: the first
// X-Forwarded-For entry, else the remote address.
func clientAddr(c *fiber.Ctx) string {
	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}

// rateLimit guards the AI routes. A failing limiter store lets the request
// through.
func (s *Server) rateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := clientAddr(c)
		allowed, err := s.deps.Limiter.Allow(c.UserContext(), key)
		if err != nil {
			requestLogger(s.logger, c).Warn().Err(err).Str("client", key).Msg("rate limiter unavailable")
			return c.Next()
		}
		if !allowed {
			s.metrics.rateLimited.Inc()
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "Too many requests",
				"message": "AI analysis requests are too frequent, please try again shortly.",
			})
		}
		return c.Next()
	}
}
