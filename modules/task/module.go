package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/todo-app/config"
	"github.com/example/todo-app/database"
	domain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/events"
	"github.com/example/todo-app/metrics"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const cachePrefix = "todo:tasks:"

// TaskModule owns the task store and exposes task services.
type TaskModule struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.PromMetrics
	db       *gorm.DB
	cache    *ListCache
	eventBus mono.EventBus
	service  *TaskService
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

func NewModule(cfg *config.Config, logger *zap.Logger, m *metrics.PromMetrics) *TaskModule {
	return &TaskModule{
		cfg:     cfg,
		logger:  logger.Named("task"),
		metrics: m,
	}
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "toggle-task", json.Unmarshal, json.Marshal, m.toggleTask,
	); err != nil {
		return fmt.Errorf("failed to register toggle-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "task-stats", json.Unmarshal, json.Marshal, m.taskStats,
	); err != nil {
		return fmt.Errorf("failed to register task-stats service: %w", err)
	}

	m.logger.Info("registered services",
		zap.Strings("services", []string{
			"create-task", "get-task", "update-task", "toggle-task", "delete-task", "list-tasks", "task-stats",
		}),
	)
	return nil
}

func (m *TaskModule) Start(ctx context.Context) error {
	db, err := database.Open(m.cfg.Database)
	if err != nil {
		return err
	}
	m.db = db

	if err := db.AutoMigrate(&domain.Task{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	client, err := database.OpenRedis(ctx, m.cfg.Redis)
	if err != nil {
		// The cache is an optimisation; run against the store alone.
		m.logger.Warn("list cache disabled", zap.Error(err))
	}
	if client != nil {
		m.cache = NewListCache(client, cachePrefix, m.cfg.Redis.CacheTTL, m.metrics)
	}

	if m.eventBus == nil {
		m.logger.Warn("eventBus not set, events will not be published")
	}

	m.service = NewTaskService(NewTaskRepository(db), m.cache, m.eventBus, m.metrics, m.logger)
	m.logger.Info("module started",
		zap.String("database", database.Redact(m.cfg.Database.DSN)),
		zap.Bool("list_cache", m.cache != nil),
	)
	return nil
}

func (m *TaskModule) Stop(_ context.Context) error {
	if err := m.cache.Close(); err != nil {
		m.logger.Warn("failed to close redis client", zap.Error(err))
	}
	if err := database.Close(m.db); err != nil {
		m.logger.Warn("failed to close database", zap.Error(err))
	}
	m.logger.Info("module stopped")
	return nil
}

func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	details := map[string]any{
		"database":   database.DriverName(m.cfg.Database.DSN),
		"list_cache": m.cache != nil,
	}
	if err := m.cache.Ping(ctx); err != nil {
		// Listing still works without the cache.
		details["list_cache_error"] = err.Error()
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}
