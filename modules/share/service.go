package share

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/example/todo-app/domain/share"
	taskdomain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/events"
	"github.com/go-monolith/mono"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const anonymousSender = "Task App User"

var (
	// ErrFieldsRequired is returned when any shared field is blank.
	ErrFieldsRequired = errors.New("name, type, deadline and receiver email are required")
	// ErrInvalidReceiver is returned when the receiver is not an email address.
	ErrInvalidReceiver = errors.New("receiver email is invalid")
	// ErrSenderRequired is returned when a call carries no authenticated sender.
	ErrSenderRequired = errors.New("share sender is required")
)

// ShareInput is a share request after trimming.
type ShareInput struct {
	Name          string `validate:"required"`
	Type          string `validate:"required"`
	Deadline      string `validate:"required"`
	ReceiverEmail string `validate:"required,email"`
}

// Sender identifies the authenticated user sharing a task.
type Sender struct {
	ID       string
	Username string
}

// ShareService persists shared tasks and announces them on the event bus.
type ShareService struct {
	repo     *ShareRepository
	eventBus mono.EventBus
	validate *validator.Validate
	logger   *zap.Logger
}

// NewShareService creates a new ShareService. eventBus may be nil.
func NewShareService(repo *ShareRepository, eventBus mono.EventBus, logger *zap.Logger) *ShareService {
	return &ShareService{
		repo:     repo,
		eventBus: eventBus,
		validate: validator.New(),
		logger:   logger,
	}
}

// Share stores the record first, then publishes TaskShared. A failed publish
// is logged; the stored record is kept.
func (s *ShareService) Share(ctx context.Context, sender Sender, in ShareInput) (*domain.SharedTask, error) {
	if sender.ID == "" {
		return nil, ErrSenderRequired
	}

	in = ShareInput{
		Name:          strings.TrimSpace(in.Name),
		Type:          strings.TrimSpace(in.Type),
		Deadline:      strings.TrimSpace(in.Deadline),
		ReceiverEmail: strings.ToLower(strings.TrimSpace(in.ReceiverEmail)),
	}
	if err := s.check(in); err != nil {
		return nil, err
	}

	deadline, err := taskdomain.ParseDate(in.Deadline)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	shared := &domain.SharedTask{
		ID:            uuid.New().String(),
		SenderID:      sender.ID,
		ReceiverEmail: in.ReceiverEmail,
		Name:          in.Name,
		Type:          in.Type,
		Deadline:      taskdomain.FormatDate(deadline),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, shared); err != nil {
		return nil, err
	}

	s.publish(shared, sender)
	return shared, nil
}

// List returns sender's shared tasks, newest first.
func (s *ShareService) List(ctx context.Context, senderID string) ([]domain.SharedTask, error) {
	if senderID == "" {
		return nil, ErrSenderRequired
	}
	return s.repo.ListBySender(ctx, senderID)
}

func (s *ShareService) check(in ShareInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return ErrFieldsRequired
		}
	}
	return ErrInvalidReceiver
}

func (s *ShareService) publish(shared *domain.SharedTask, sender Sender) {
	if s.eventBus == nil {
		return
	}

	username := sender.Username
	if username == "" {
		username = anonymousSender
	}
	event := events.TaskSharedEvent{
		ShareID:        shared.ID,
		SenderID:       shared.SenderID,
		SenderUsername: username,
		ReceiverEmail:  shared.ReceiverEmail,
		Name:           shared.Name,
		Type:           shared.Type,
		Deadline:       shared.Deadline,
		SharedAt:       shared.CreatedAt,
	}
	if err := events.TaskSharedV1.Publish(s.eventBus, event, nil); err != nil {
		s.logger.Warn("failed to publish TaskShared event",
			zap.String("share_id", shared.ID),
			zap.Error(err),
		)
	}
}
