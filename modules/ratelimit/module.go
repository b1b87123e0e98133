package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key the module writes.
const KeyPrefix = "task-tracker:ratelimit:"

// Module owns the Redis connection and the limiter for credential routes.
type Module struct {
	addr     string
	password string
	config   Config
	client   *redis.Client
	limiter  *SlidingWindowLimiter
	logger   types.Logger
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a module allowing requestsPerMinute auth requests per
// client IP.
func NewModule(addr, password string, requestsPerMinute int, logger types.Logger) *Module {
	return &Module{
		addr:     addr,
		password: password,
		config: Config{
			RequestsPerWindow: requestsPerMinute,
			WindowSize:        time.Minute,
		},
		logger: logger.WithModule("rate-limiter"),
	}
}

func (m *Module) Name() string {
	return "rate-limiter"
}

// Start connects to Redis.
func (m *Module) Start(ctx context.Context) error {
	m.client = redis.NewClient(&redis.Options{
		Addr:         m.addr,
		Password:     m.password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := m.client.Ping(ctx).Err(); err != nil {
		_ = m.client.Close()
		return fmt.Errorf("failed to connect to Redis at %s: %w", m.addr, err)
	}

	m.limiter = NewSlidingWindowLimiter(m.client, m.config, KeyPrefix+"auth:")
	m.logger.Info("Module started",
		"redis", m.addr,
		"limit", m.config.RequestsPerWindow,
		"window", m.config.WindowSize)
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			m.logger.Error("Failed to close Redis connection", "error", err)
			return err
		}
	}
	m.logger.Info("Module stopped")
	return nil
}

func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{Healthy: false, Message: "redis client not initialized"}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("redis ping failed: %v", err)}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// Handler returns the Fiber middleware for the credential routes. Requests
// pass through untouched until Start has connected the limiter.
func (m *Module) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.limiter == nil {
			return c.Next()
		}
		return IPRateLimit(m.limiter)(c)
	}
}
