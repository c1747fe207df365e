package ratelimit

import (
	"context"
	"fmt"

	"github.com/example/todo-app/config"
	"github.com/example/todo-app/database"
	"github.com/example/todo-app/metrics"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "todo:ratelimit:auth:"

// Module provides rate limiting for the public auth routes. Without a
// configured Redis it is disabled and its handler passes every request.
type Module struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *metrics.PromMetrics
	client     *redis.Client
	middleware *Middleware
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new rate limiting module.
func NewModule(cfg *config.Config, logger *zap.Logger, m *metrics.PromMetrics) *Module {
	return &Module{
		cfg:     cfg,
		logger:  logger.Named("rate-limiter"),
		metrics: m,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "rate-limiter"
}

// Start connects to Redis and builds the middleware.
func (m *Module) Start(ctx context.Context) error {
	client, err := database.OpenRedis(ctx, m.cfg.Redis)
	if err != nil {
		m.logger.Warn("rate limiting disabled", zap.Error(err))
		return nil
	}
	if client == nil {
		m.logger.Info("rate limiting disabled, no redis configured")
		return nil
	}

	m.client = client
	limiter := NewSlidingWindowLimiter(client, Limit{
		RequestsPerWindow: m.cfg.RateLimit.AuthRequestsPerWindow,
		WindowSize:        m.cfg.RateLimit.Window,
	}, keyPrefix)
	m.middleware = NewMiddleware(limiter, m.metrics, m.logger)

	m.logger.Info("module started",
		zap.Int("requests_per_window", m.cfg.RateLimit.AuthRequestsPerWindow),
		zap.Duration("window", m.cfg.RateLimit.Window),
	)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			m.logger.Warn("error closing redis connection", zap.Error(err))
		}
	}
	m.logger.Info("module stopped")
	return nil
}

// Health verifies the Redis connection when limiting is enabled.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{Healthy: true, Message: "disabled"}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// Handler returns the auth route limiter. It is resolved per request so it
// can be mounted before the module has started.
func (m *Module) Handler() fiber.Handler {
	var limit fiber.Handler
	return func(c *fiber.Ctx) error {
		if m.middleware == nil {
			return c.Next()
		}
		if limit == nil {
			limit = m.middleware.IPRateLimit()
		}
		return limit(c)
	}
}
