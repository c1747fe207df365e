package task

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	domain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/events"
	"github.com/example/todo-app/metrics"
	"github.com/go-monolith/mono"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrOwnerRequired is returned when a call carries no authenticated owner.
var ErrOwnerRequired = errors.New("task owner is required")

// TaskService implements task mutations and listing for one owner at a time.
type TaskService struct {
	repo     *TaskRepository
	cache    *ListCache
	eventBus mono.EventBus
	metrics  *metrics.PromMetrics
	logger   *zap.Logger
}

// NewTaskService creates a new TaskService. cache and eventBus may be nil.
func NewTaskService(repo *TaskRepository, cache *ListCache, eventBus mono.EventBus, m *metrics.PromMetrics, logger *zap.Logger) *TaskService {
	return &TaskService{
		repo:     repo,
		cache:    cache,
		eventBus: eventBus,
		metrics:  m,
		logger:   logger,
	}
}

// CreateInput holds client-supplied fields of a new task.
type CreateInput struct {
	Name        string
	Type        string
	Date        string
	Description string
}

// Create validates and stores a new, incomplete task owned by owner.
func (s *TaskService) Create(ctx context.Context, owner string, in CreateInput) (*domain.Task, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	task := &domain.Task{
		ID:          uuid.New().String(),
		UserID:      owner,
		Name:        name,
		Type:        strings.TrimSpace(in.Type),
		Date:        date,
		Description: in.Description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, "create", owner)
	s.publish(task.ID, func() error {
		return events.TaskCreatedV1.Publish(s.eventBus, events.TaskCreatedEvent{
			TaskID:    task.ID,
			UserID:    task.UserID,
			Name:      task.Name,
			Type:      task.Type,
			Date:      domain.FormatDate(task.Date),
			CreatedAt: task.CreatedAt,
		}, nil)
	})
	return task, nil
}

// Get returns one of owner's tasks.
func (s *TaskService) Get(ctx context.Context, owner, id string) (*domain.Task, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	return s.repo.FindByID(ctx, owner, id)
}

// Update applies a partial update. An empty patch only checks that the task
// exists.
func (s *TaskService) Update(ctx context.Context, owner, id string, patch domain.Patch) (*domain.Task, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.repo.FindByID(ctx, owner, id)
	}

	cols := patch.Columns()
	if err := s.repo.Update(ctx, owner, id, cols); err != nil {
		return nil, err
	}
	task, err := s.repo.FindByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(cols))
	for k := range cols {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	s.afterMutation(ctx, "update", owner)
	s.publishUpdated(task, fields)
	return task, nil
}

// Toggle flips completed and leaves every other field untouched.
func (s *TaskService) Toggle(ctx context.Context, owner, id string) (*domain.Task, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	if err := s.repo.Toggle(ctx, owner, id); err != nil {
		return nil, err
	}
	task, err := s.repo.FindByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, "toggle", owner)
	s.publishUpdated(task, []string{"completed"})
	return task, nil
}

// Delete removes one of owner's tasks.
func (s *TaskService) Delete(ctx context.Context, owner, id string) error {
	if owner == "" {
		return ErrOwnerRequired
	}
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return err
	}

	s.afterMutation(ctx, "delete", owner)
	s.publish(id, func() error {
		return events.TaskDeletedV1.Publish(s.eventBus, events.TaskDeletedEvent{
			TaskID:    id,
			UserID:    owner,
			DeletedAt: time.Now(),
		}, nil)
	})
	return nil
}

// List returns one page of owner's tasks. Pages are served from the list
// cache when one is configured; cache failures fall through to the store.
func (s *TaskService) List(ctx context.Context, owner string, q domain.ListQuery) (domain.ListResult, error) {
	if owner == "" {
		return domain.ListResult{}, ErrOwnerRequired
	}
	q = q.Normalize()

	cached, version, found, cacheErr := s.cache.Get(ctx, owner, q)
	if cacheErr != nil {
		s.logger.Warn("list cache read failed", zap.String("user_id", owner), zap.Error(cacheErr))
	}
	if found {
		return cached, nil
	}

	tasks, total, err := s.repo.List(ctx, owner, q)
	if err != nil {
		return domain.ListResult{}, err
	}
	result := domain.ListResult{
		Tasks:      tasks,
		Total:      total,
		TotalPages: q.TotalPages(total),
		Page:       q.Page,
		Limit:      q.Limit,
	}

	if cacheErr == nil {
		if err := s.cache.Set(ctx, owner, version, q, result); err != nil {
			s.logger.Warn("list cache write failed", zap.String("user_id", owner), zap.Error(err))
		}
	}
	return result, nil
}

// Stats returns per-type counts plus overall totals.
func (s *TaskService) Stats(ctx context.Context, owner string) (*TaskStatsResponse, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	counts, err := s.repo.CountByType(ctx, owner)
	if err != nil {
		return nil, err
	}

	stats := &TaskStatsResponse{ByType: counts}
	for _, c := range counts {
		stats.Total += c.Total
		stats.Completed += c.Completed
	}
	return stats, nil
}

func (s *TaskService) afterMutation(ctx context.Context, op, owner string) {
	s.metrics.TaskMutation(op)
	if err := s.cache.Invalidate(ctx, owner); err != nil {
		s.logger.Warn("list cache invalidation failed", zap.String("user_id", owner), zap.Error(err))
	}
}

func (s *TaskService) publishUpdated(task *domain.Task, fields []string) {
	s.publish(task.ID, func() error {
		return events.TaskUpdatedV1.Publish(s.eventBus, events.TaskUpdatedEvent{
			TaskID:    task.ID,
			UserID:    task.UserID,
			Fields:    fields,
			Completed: task.Completed,
			UpdatedAt: task.UpdatedAt,
		}, nil)
	})
}

// publish is best-effort: a failure is logged and never fails the mutation.
func (s *TaskService) publish(taskID string, fn func() error) {
	if s.eventBus == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Warn("failed to publish task event", zap.String("task_id", taskID), zap.Error(err))
	}
}
