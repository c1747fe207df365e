package share

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/todo-app/config"
	"github.com/example/todo-app/database"
	domain "github.com/example/todo-app/domain/share"
	"github.com/example/todo-app/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ShareModule stores shared tasks and emits TaskShared.
type ShareModule struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	eventBus mono.EventBus
	service  *ShareService
}

var _ mono.Module = (*ShareModule)(nil)
var _ mono.ServiceProviderModule = (*ShareModule)(nil)
var _ mono.EventEmitterModule = (*ShareModule)(nil)
var _ mono.HealthCheckableModule = (*ShareModule)(nil)

func NewModule(cfg *config.Config, logger *zap.Logger) *ShareModule {
	return &ShareModule{
		cfg:    cfg,
		logger: logger.Named("share"),
	}
}

func (m *ShareModule) Name() string {
	return "share"
}

func (m *ShareModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *ShareModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskSharedV1.ToBase(),
	}
}

func (m *ShareModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "share-task", json.Unmarshal, json.Marshal, m.shareTask,
	); err != nil {
		return fmt.Errorf("failed to register share-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-shares", json.Unmarshal, json.Marshal, m.listShares,
	); err != nil {
		return fmt.Errorf("failed to register list-shares service: %w", err)
	}

	m.logger.Info("registered services", zap.Strings("services", []string{"share-task", "list-shares"}))
	return nil
}

func (m *ShareModule) Start(_ context.Context) error {
	db, err := database.Open(m.cfg.Database)
	if err != nil {
		return err
	}
	m.db = db

	if err := db.AutoMigrate(&domain.SharedTask{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if m.eventBus == nil {
		m.logger.Warn("eventBus not set, shares will not be emailed")
	}
	m.service = NewShareService(NewShareRepository(db), m.eventBus, m.logger)

	m.logger.Info("module started")
	return nil
}

func (m *ShareModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		m.logger.Warn("failed to close database", zap.Error(err))
	}
	m.logger.Info("module stopped")
	return nil
}

func (m *ShareModule) Health(ctx context.Context) mono.HealthStatus {
	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

func (m *ShareModule) shareTask(ctx context.Context, req ShareTaskRequest, _ *mono.Msg) (SharedTaskResponse, error) {
	shared, err := m.service.Share(ctx,
		Sender{ID: req.SenderID, Username: req.SenderUsername},
		ShareInput{
			Name:          req.Name,
			Type:          req.Type,
			Deadline:      req.Deadline,
			ReceiverEmail: req.ReceiverEmail,
		},
	)
	if err != nil {
		return SharedTaskResponse{}, err
	}
	m.logger.Info("task shared",
		zap.String("share_id", shared.ID),
		zap.String("sender_id", shared.SenderID),
	)
	return toSharedTaskResponse(shared), nil
}

func (m *ShareModule) listShares(ctx context.Context, req ListSharesRequest, _ *mono.Msg) (ListSharesResponse, error) {
	shares, err := m.service.List(ctx, req.SenderID)
	if err != nil {
		return ListSharesResponse{}, err
	}

	resp := ListSharesResponse{Shares: make([]SharedTaskResponse, 0, len(shares))}
	for i := range shares {
		resp.Shares = append(resp.Shares, toSharedTaskResponse(&shares[i]))
	}
	return resp, nil
}
