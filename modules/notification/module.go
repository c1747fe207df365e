package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/todo-app/config"
	"github.com/example/todo-app/events"
	"github.com/example/todo-app/metrics"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"go.uber.org/zap"
)

// maxHistory bounds the in-memory notification log.
const maxHistory = 100

// NotificationLog represents a handled notification.
type NotificationLog struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Channel   string    `json:"channel"`
	Failed    bool      `json:"failed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationModule emails receivers of shared tasks and keeps an audit log
// of task events. It subscribes to domain events using the
// EventConsumerModule interface.
type NotificationModule struct {
	logger  *zap.Logger
	metrics *metrics.PromMetrics
	mailer  Mailer

	mu            sync.RWMutex
	notifications []NotificationLog
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)
var _ mono.HealthCheckableModule = (*NotificationModule)(nil)

func NewModule(cfg *config.Config, logger *zap.Logger, m *metrics.PromMetrics) *NotificationModule {
	logger = logger.Named("notification")
	return NewModuleWithMailer(NewMailer(cfg.Mail, logger), logger, m)
}

// NewModuleWithMailer creates the module around an explicit Mailer.
func NewModuleWithMailer(mailer Mailer, logger *zap.Logger, m *metrics.PromMetrics) *NotificationModule {
	return &NotificationModule{
		logger:        logger,
		metrics:       m,
		mailer:        mailer,
		notifications: make([]NotificationLog, 0),
	}
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskSharedV1, m.handleTaskShared, m); err != nil {
		return fmt.Errorf("failed to register TaskShared consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.logger.Info("registered event consumers",
		zap.Strings("events", []string{"TaskShared", "TaskCreated", "TaskUpdated", "TaskDeleted"}),
	)
	return nil
}

// handleTaskShared sends the share email once. Delivery failures are logged
// and counted; returning nil keeps the event from being redelivered.
func (m *NotificationModule) handleTaskShared(ctx context.Context, event events.TaskSharedEvent, _ *mono.Msg) error {
	email, err := ComposeSharedTask(event)
	if err != nil {
		m.fail(event.ShareID, err)
		return nil
	}

	if err := m.mailer.Send(ctx, email); err != nil {
		m.fail(event.ShareID, err)
		return nil
	}

	m.metrics.NotificationSent()
	m.logger.Info("share email sent", zap.String("share_id", event.ShareID))
	m.record(NotificationLog{
		ID:      event.ShareID,
		Type:    "task_shared",
		Message: email.Subject,
		Channel: "email",
	})
	return nil
}

func (m *NotificationModule) fail(shareID string, err error) {
	m.metrics.NotificationFailed()
	m.logger.Error("share email failed", zap.String("share_id", shareID), zap.Error(err))
	m.record(NotificationLog{
		ID:      shareID,
		Type:    "task_shared",
		Message: err.Error(),
		Channel: "email",
		Failed:  true,
	})
}

func (m *NotificationModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.logger.Debug("task created", zap.String("task_id", event.TaskID), zap.String("user_id", event.UserID))
	m.record(NotificationLog{
		ID:      event.TaskID,
		Type:    "task_created",
		Message: fmt.Sprintf("Task '%s' due %s created", event.Name, event.Date),
		Channel: "event",
	})
	return nil
}

func (m *NotificationModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.logger.Debug("task updated",
		zap.String("task_id", event.TaskID),
		zap.Strings("fields", event.Fields),
	)
	m.record(NotificationLog{
		ID:      event.TaskID,
		Type:    "task_updated",
		Message: fmt.Sprintf("Task %s updated: %v", event.TaskID, event.Fields),
		Channel: "event",
	})
	return nil
}

func (m *NotificationModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.logger.Debug("task deleted", zap.String("task_id", event.TaskID), zap.String("user_id", event.UserID))
	m.record(NotificationLog{
		ID:      event.TaskID,
		Type:    "task_deleted",
		Message: fmt.Sprintf("Task %s deleted", event.TaskID),
		Channel: "event",
	})
	return nil
}

func (m *NotificationModule) record(entry NotificationLog) {
	entry.Timestamp = time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.notifications = append(m.notifications, entry)
	if len(m.notifications) > maxHistory {
		m.notifications = m.notifications[len(m.notifications)-maxHistory:]
	}
}

// GetNotifications returns the most recent handled notifications, oldest
// first.
func (m *NotificationModule) GetNotifications() []NotificationLog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]NotificationLog, len(m.notifications))
	copy(result, m.notifications)
	return result
}

func (m *NotificationModule) Start(_ context.Context) error {
	_, smtp := m.mailer.(*SMTPMailer)
	m.logger.Info("module started", zap.Bool("smtp", smtp))
	return nil
}

func (m *NotificationModule) Stop(_ context.Context) error {
	m.logger.Info("module stopped")
	return nil
}

func (m *NotificationModule) Health(_ context.Context) mono.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	failed := 0
	for _, n := range m.notifications {
		if n.Failed {
			failed++
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"recent":        len(m.notifications),
			"recent_failed": failed,
		},
	}
}
