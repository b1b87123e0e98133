// Package api serves the task tracker over HTTP.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/example/task-tracker/config"
	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// RateLimiter supplies middleware for the credential routes.
type RateLimiter interface {
	Handler() fiber.Handler
}

// APIModule is the HTTP API module.
type APIModule struct {
	cfg      config.Config
	app      *fiber.App
	requests *RequestMetrics
	logger   types.Logger

	authAdapter     auth.AuthPort
	taskAdapter     task.TaskPort
	activityAdapter activity.ActivityPort

	rateLimiter RateLimiter
	services    ServiceStats
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(cfg config.Config, logger types.Logger) *APIModule {
	return &APIModule{
		cfg:      cfg,
		requests: NewRequestMetrics(),
		logger:   logger.WithModule("api"),
	}
}

// SetRateLimiter throttles the credential routes with rl.
func (m *APIModule) SetRateLimiter(rl RateLimiter) {
	m.rateLimiter = rl
}

// SetServiceStats exposes inter-module service counters on /ops/metrics.
func (m *APIModule) SetServiceStats(s ServiceStats) {
	m.services = s
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "task":
		m.taskAdapter = task.NewTaskAdapter(container)
	case "activity":
		m.activityAdapter = activity.NewActivityAdapter(container)
	}
}

// Start builds the Fiber app and starts listening.
func (m *APIModule) Start(_ context.Context) error {
	switch {
	case m.authAdapter == nil:
		return fmt.Errorf("auth dependency not set")
	case m.taskAdapter == nil:
		return fmt.Errorf("task dependency not set")
	case m.activityAdapter == nil:
		return fmt.Errorf("activity dependency not set")
	}

	m.app = m.newApp()

	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.cfg.HTTPAddr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", m.cfg.HTTPAddr, "prefix", m.cfg.APIPrefix)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	m.logger.Info("HTTP server stopped")
	return nil
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	total, _ := m.requests.Snapshot()
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr":     m.cfg.HTTPAddr,
			"requests": total,
		},
	}
}

// newApp builds the Fiber app with middleware and routes.
func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               m.cfg.AppName,
		DisableStartupMessage: true,
		ErrorHandler:          newErrorHandler(m.logger),
	})

	app.Use(requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	app.Use(m.requests.Handler())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  m.cfg.CORSAllowedOrigins,
		AllowMethods:  "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Content-Type,Authorization,X-Request-ID",
		ExposeHeaders: "X-Request-ID,Retry-After",
	}))

	var limiter fiber.Handler
	if m.rateLimiter != nil {
		limiter = m.rateLimiter.Handler()
	}

	handlers := NewHandlers(m.authAdapter, m.taskAdapter, m.activityAdapter, m.requests, m.services, m.cfg.AppVersion)
	setupRoutes(app, handlers, RequireAuth(m.authAdapter), limiter, m.cfg.APIPrefix)
	return app
}

// setupRoutes configures all routes. limiter may be nil.
func setupRoutes(app *fiber.App, h *Handlers, requireAuth, limiter fiber.Handler, prefix string) {
	ops := app.Group("/ops")
	ops.Get("/health", h.Health)
	ops.Get("/metrics", h.Metrics)

	v1 := app.Group(prefix)

	authRoutes := v1.Group("/auth")
	credentials := []fiber.Handler{}
	if limiter != nil {
		credentials = append(credentials, limiter)
	}
	authRoutes.Post("/register", append(credentials, h.Register)...)
	authRoutes.Post("/login", append(credentials, h.Login)...)
	authRoutes.Post("/refresh", append(credentials, h.Refresh)...)
	authRoutes.Get("/me", requireAuth, h.Me)

	tasks := v1.Group("/tasks", requireAuth)
	tasks.Get("", h.ListTasks)
	tasks.Post("", h.CreateTask)
	tasks.Post("/bulk-status", h.BulkStatus)
	tasks.Get("/:id", h.GetTask)
	tasks.Patch("/:id", h.UpdateTask)
	tasks.Delete("/:id", h.DeleteTask)
	tasks.Post("/:id/assign", h.AssignTask)
	tasks.Post("/:id/transition", h.TransitionTask)
	tasks.Delete("/:id/force", h.ForceDeleteTask)
	tasks.Get("/:id/activity", h.TaskActivity)
}
