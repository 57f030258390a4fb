// Package web is the staff HTTP API.
package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"grimaldi/internal/analysis"
	"grimaldi/internal/composition"
	"grimaldi/internal/log"
	"grimaldi/internal/repository"
)

// Analyzer is the part of analysis.Service used by the API.
type Analyzer interface {
	Run(ctx context.Context, req analysis.Request) (*analysis.Outcome, error)
	Recompute(ctx context.Context, id string, edit analysis.Edit) (*analysis.Outcome, error)
	Latest(ctx context.Context, userID int64) (*analysis.Outcome, error)
	Get(ctx context.Context, id string) (*analysis.Outcome, error)
	Delete(ctx context.Context, id string) error
}

// Profiles reads and creates client profiles.
type Profiles interface {
	GetByUserID(ctx context.Context, userID int64) (*repository.Profile, error)
	Create(ctx context.Context, p *repository.Profile) error
}

// Records lists stored analyses for the dashboard.
type Records interface {
	ListLatestPerUser(ctx context.Context) ([]repository.Record, error)
	History(ctx context.Context, userID int64, limit int) ([]repository.Record, error)
}

// Server is the staff API server.
type Server struct {
	app      *fiber.App
	analyzer Analyzer
	profiles Profiles
	records  Records
	token    string
	logger   *slog.Logger
}

// NewServer builds the fiber app. An empty token disables authentication.
func NewServer(analyzer Analyzer, profiles Profiles, records Records, token string) *Server {
	s := &Server{
		analyzer: analyzer,
		profiles: profiles,
		records:  records,
		token:    token,
		logger:   log.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Grimaldi API",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(s.logRequests)

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)

	protected := api.Group("", s.requireToken)
	protected.Post("/users", s.handleCreateUser)
	protected.Get("/users/:id", s.handleGetUser)
	protected.Get("/users/:id/analyses/latest", s.handleLatest)
	protected.Post("/analyses", s.handleCreateAnalysis)
	protected.Get("/analyses/:id", s.handleGetAnalysis)
	protected.Put("/analyses/:id", s.handleRecompute)
	protected.Delete("/analyses/:id", s.handleDeleteAnalysis)
	protected.Get("/analyses/:id/export", s.handleExport)
	protected.Get("/dashboard", s.handleDashboard)

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("HTTP API запущен", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requireToken(c *fiber.Ctx) error {
	if s.token == "" {
		return c.Next()
	}
	got := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}
	return c.Next()
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("запрос",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}

// handleError maps domain errors to HTTP statuses.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{"error": err.Error()}

	var (
		fe *fiber.Error
		ve composition.ValidationError
		pe *analysis.PersistenceError
	)
	switch {
	case errors.As(err, &fe):
		status = fe.Code
	case errors.As(err, &ve):
		status = fiber.StatusUnprocessableEntity
		body["field"] = ve.Field
	case errors.Is(err, repository.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, analysis.ErrAlreadyRunning):
		status = fiber.StatusConflict
	case errors.As(err, &pe):
		status = fiber.StatusServiceUnavailable
	}

	if status >= fiber.StatusInternalServerError {
		s.logger.Error("ошибка запроса", "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(body)
}
