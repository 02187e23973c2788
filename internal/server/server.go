// Package server exposes the dashboard API over HTTP: login, the per-role
// analytics views, the advisory suggestion endpoint and the AI text proxy.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/abhisek/lodboard/internal/events"
	"github.com/abhisek/lodboard/internal/insight"
	"github.com/abhisek/lodboard/internal/ratelimit"
	"github.com/abhisek/lodboard/internal/session"
	"github.com/abhisek/lodboard/internal/store"
)

// DefaultAddr is the address the AI proxy has always listened on.
const DefaultAddr = ":5050"

// Config configures the HTTP server.
type Config struct {
	Addr      string
	JWTSecret string
	TokenTTL  time.Duration
	RateLimit ratelimit.Config

	// CORSOrigins is a comma separated allow list; "*" allows any origin.
	CORSOrigins string
}

// DefaultConfig returns the server defaults. JWTSecret has no default.
func DefaultConfig() Config {
	return Config{
		Addr:        DefaultAddr,
		TokenTTL:    session.DefaultTTL,
		RateLimit:   ratelimit.DefaultConfig(),
		CORSOrigins: "*",
	}
}

// ConfigFromEnv overlays LODBOARD_* environment variables on DefaultConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("LODBOARD_ADDR"); v != "" {
		cfg.Addr = v
	}
	cfg.JWTSecret = os.Getenv("LODBOARD_JWT_SECRET")
	if d, err := time.ParseDuration(os.Getenv("LODBOARD_TOKEN_TTL")); err == nil && d > 0 {
		cfg.TokenTTL = d
	}
	if d, err := time.ParseDuration(os.Getenv("LODBOARD_RATE_WINDOW")); err == nil && d > 0 {
		cfg.RateLimit.Window = d
	}
	if n, err := strconv.Atoi(os.Getenv("LODBOARD_RATE_MAX")); err == nil && n > 0 {
		cfg.RateLimit.MaxRequests = n
	}
	if v := os.Getenv("LODBOARD_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = v
	}
	return cfg
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("server address must not be empty")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("jwt secret must be at least 16 bytes (set LODBOARD_JWT_SECRET)")
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers use. Insight may be nil when no
// LLM provider is configured; the AI routes then answer 503.
type Deps struct {
	DB        Pinger
	Learning  store.LearningRepo
	Users     store.UserRepo
	Insight   *insight.Service
	Limiter   *ratelimit.Limiter
	Publisher events.Publisher
	Logger    zerolog.Logger
}

// Server is the fiber application plus its collaborators.
type Server struct {
	cfg     Config
	app     *fiber.App
	deps    Deps
	auth    *session.Authenticator
	issuer  *session.Issuer
	metrics *Metrics
	logger  zerolog.Logger
}

// New builds the server and registers every route.
func New(cfg Config, deps Deps) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Learning == nil || deps.Users == nil {
		return nil, errors.New("server: learning and user repositories are required")
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.New(cfg.RateLimit, ratelimit.NewMemoryStore(), nil)
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}
	deps.Publisher = events.WithLogging(deps.Publisher, deps.Logger)

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		auth:    session.NewAuthenticator(deps.Users),
		issuer:  session.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		metrics: NewMetrics(),
		logger:  deps.Logger.With().Str("component", "server").Logger(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "lodboard",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          90 * time.Second,
	})
	// The request logger sits outside recover so panics are logged and counted.
	s.app.Use(s.requestLogger())
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/ping", s.ping)
	s.app.Get("/healthz", s.healthz)
	s.app.Get("/metrics", s.metrics.Handler())

	api := s.app.Group("/api")
	api.Get("/test", s.test)
	api.Post("/login", s.login)
	api.Post("/suggestion", s.suggestion)
	api.Post("/gemini", s.rateLimit(), s.proxy)

	newStudentHandler(s).Register(api.Group("/student", s.authenticate(), requireRole(session.RoleStudent)))
	newTeacherHandler(s).Register(api.Group("/teacher", s.authenticate(), requireRole(session.RoleTeacher)))
	newPolicyHandler(s).Register(api.Group("/policy", s.authenticate(), requireRole(session.RolePolicyMaker)))
}

// App exposes the fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("listening")
		errc <- s.app.Listen(s.cfg.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	if err := s.app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// errorHandler renders every error as {error} JSON.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		requestLogger(s.logger, c).Error().Err(err).Msg("request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
