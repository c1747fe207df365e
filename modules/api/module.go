package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/todo-app/config"
	"github.com/example/todo-app/metrics"
	"github.com/example/todo-app/modules/auth"
	"github.com/example/todo-app/modules/share"
	"github.com/example/todo-app/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RateLimiter supplies the middleware guarding the public auth routes.
type RateLimiter interface {
	Handler() fiber.Handler
}

// APIModule is the HTTP API module.
type APIModule struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.PromMetrics
	gatherer prometheus.Gatherer

	app         *fiber.App
	authAdapter auth.AuthPort
	tasks       task.TaskPort
	shares      share.SharePort
	rateLimiter RateLimiter
	checks      map[string]mono.HealthCheckableModule
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule. gatherer backs the /metrics endpoint.
func NewModule(cfg *config.Config, logger *zap.Logger, m *metrics.PromMetrics, gatherer prometheus.Gatherer) *APIModule {
	return &APIModule{
		cfg:      cfg,
		logger:   logger.Named("api"),
		metrics:  m,
		gatherer: gatherer,
		checks:   make(map[string]mono.HealthCheckableModule),
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task", "share"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "task":
		m.tasks = task.NewTaskAdapter(container)
	case "share":
		m.shares = share.NewShareAdapter(container)
	}
}

// SetRateLimitModule injects the limiter for the register and login routes.
func (m *APIModule) SetRateLimitModule(rl RateLimiter) {
	m.rateLimiter = rl
}

// AddHealthCheck includes a module in the /health report.
func (m *APIModule) AddHealthCheck(name string, module mono.HealthCheckableModule) {
	m.checks[name] = module
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authAdapter == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.tasks == nil {
		return fmt.Errorf("task dependency not set")
	}
	if m.shares == nil {
		return fmt.Errorf("share dependency not set")
	}

	m.buildApp()

	addr := m.cfg.ListenAddr()
	go func() {
		if err := m.app.Listen(addr); err != nil {
			m.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	m.logger.Info("HTTP server started", zap.String("addr", addr))
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("shutting down HTTP server")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.cfg.HTTP.Port,
		},
	}
}

func (m *APIModule) buildApp() {
	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		JSONDecoder:           strictJSONDecoder,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: m.cfg.HTTP.AllowOrigins,
	}))
	m.app.Use(MetricsMiddleware(m.metrics))

	m.setupRoutes()
}

// setupRoutes configures all API routes.
func (m *APIModule) setupRoutes() {
	handlers := NewHandlers(m.authAdapter, m.tasks, m.shares, m.cfg.HTTP.FrontendURL, m.logger)

	m.app.Get("/health", m.handleHealth)
	if m.gatherer != nil {
		m.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := m.app.Group("/api/v1")

	limit := func(c *fiber.Ctx) error { return c.Next() }
	if m.rateLimiter != nil {
		limit = m.rateLimiter.Handler()
	}

	// Public auth routes
	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", limit, handlers.Register)
	authRoutes.Post("/login", limit, handlers.Login)
	authRoutes.Post("/refresh", handlers.Refresh)
	authRoutes.Get("/google", handlers.GoogleLogin)
	authRoutes.Get("/google/callback", handlers.GoogleCallback)

	// Protected routes (require authentication)
	gate := AuthMiddleware(m.authAdapter)
	v1.Get("/profile", gate, handlers.Profile)

	todos := v1.Group("/todos", gate)
	todos.Post("/", handlers.CreateTodo)
	todos.Get("/", handlers.ListTodos)
	todos.Get("/stats", handlers.TodoStats)
	todos.Get("/:id", handlers.GetTodo)
	todos.Put("/:id", handlers.UpdateTodo)
	todos.Patch("/:id/toggle", handlers.ToggleTodo)
	todos.Delete("/:id", handlers.DeleteTodo)

	shares := v1.Group("/share", gate)
	shares.Post("/", handlers.ShareTask)
	shares.Get("/", handlers.ListShares)
}

// handleHealth reports every registered module; any unhealthy module turns
// the response into a 503.
func (m *APIModule) handleHealth(c *fiber.Ctx) error {
	healthy := true
	modules := make(map[string]mono.HealthStatus, len(m.checks))
	for name, module := range m.checks {
		status := module.Health(c.UserContext())
		modules[name] = status
		healthy = healthy && status.Healthy
	}

	code, status := fiber.StatusOK, "healthy"
	if !healthy {
		code, status = fiber.StatusServiceUnavailable, "degraded"
	}
	return c.Status(code).JSON(fiber.Map{
		"status":  status,
		"modules": modules,
	})
}

// customErrorHandler handles errors that escape the handlers, such as
// unmatched routes and recovered panics.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal error occurred"

	var e *fiber.Error
	if errors.As(err, &e) && e.Code < fiber.StatusInternalServerError {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   errorCode(code),
		Message: message,
	})
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "bad_request"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusTooManyRequests:
		return "rate_limited"
	}
	if status >= fiber.StatusInternalServerError {
		return "internal_error"
	}
	return "request_error"
}
