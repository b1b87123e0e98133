// Task Tracker - a task tracking API with a guarded status workflow, JWT
// sessions and bulk transitions, built as a modular monolith.
package main

import (
	"context"
	"log"
	"os"

	"github.com/example/task-tracker/config"
	"github.com/example/task-tracker/database"
	"github.com/example/task-tracker/middleware/servicemetrics"
	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/api"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/modules/ratelimit"
	"github.com/example/task-tracker/modules/seed"
	"github.com/example/task-tracker/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("=== %s v%s ===", cfg.AppName, cfg.AppVersion)
	if cfg.UsesDefaultSecret() {
		log.Println("WARNING: JWT_SECRET_KEY is not set, using the built-in development key")
	}

	db, err := database.Open(cfg.DBPath, cfg.DBDebug)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	level := mono.LogLevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = mono.LogLevelDebug
	case "warn":
		level = mono.LogLevelWarn
	case "error":
		level = mono.LogLevelError
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(level),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	// Middleware must be registered first to see every service registration.
	metrics := servicemetrics.New(logger)
	app.Register(metrics)

	authModule := auth.NewModule(db, cfg.JWT, logger)
	app.Register(authModule)
	app.Register(task.NewModule(db, logger))
	app.Register(activity.NewModule(activity.DefaultCapacity, logger))

	apiModule := api.NewModule(cfg, logger)
	apiModule.SetServiceStats(metrics)

	if cfg.RateLimitEnabled() {
		limiter := ratelimit.NewModule(cfg.RedisAddr, cfg.RedisPassword, cfg.AuthRateLimit, logger)
		apiModule.SetRateLimiter(limiter)
		app.Register(limiter)
	}
	if cfg.SeedDemoData {
		app.Register(seed.NewModule(db, auth.NewPasswordHasher(), logger))
	}
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		_ = database.Close(db)
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				if err := app.Stop(ctx); err != nil {
					return err
				}
				return database.Close(db)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	p := cfg.APIPrefix
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (%s):", cfg.HTTPAddr)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Printf("  POST   %s/auth/register          - Register a new user", p)
	log.Printf("  POST   %s/auth/login             - Login and get tokens", p)
	log.Printf("  POST   %s/auth/refresh           - Refresh the token pair", p)
	log.Println("  GET    /ops/health                  - Health check")
	log.Println("  GET    /ops/metrics                 - Request and service counters")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Printf("  GET    %s/auth/me                - Current user", p)
	log.Printf("  GET    %s/tasks                  - List tasks", p)
	log.Printf("  POST   %s/tasks                  - Create a task", p)
	log.Printf("  GET    %s/tasks/:id              - Get a task", p)
	log.Printf("  PATCH  %s/tasks/:id              - Update a task", p)
	log.Printf("  DELETE %s/tasks/:id              - Delete a task", p)
	log.Printf("  POST   %s/tasks/:id/assign       - Assign or unassign", p)
	log.Printf("  POST   %s/tasks/:id/transition   - Move along the workflow", p)
	log.Printf("  POST   %s/tasks/bulk-status      - Transition up to 100 tasks", p)
	log.Printf("  DELETE %s/tasks/:id/force        - Force delete a task", p)
	log.Printf("  GET    %s/tasks/:id/activity     - Task lifecycle activity", p)
	log.Println("")
	if cfg.RateLimitEnabled() {
		log.Printf("Credential routes limited to %d requests/minute per IP (Redis %s)", cfg.AuthRateLimit, cfg.RedisAddr)
	}
	if cfg.SeedDemoData {
		log.Printf("Demo accounts use password %q", seed.DemoPassword)
	}
	log.Println("Press Ctrl+C to shutdown gracefully")
}
