package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/todo-app/domain/task"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrTaskNotFound is returned when a task does not exist or belongs to
// another user. The two cases are deliberately indistinguishable.
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository provides owner-scoped access to task storage.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ownedBy restricts a statement to one owner's tasks.
func ownedBy(owner string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", owner)
	}
}

// matching applies the owner scope plus the completed filter. The page query
// and the count query both go through it.
func matching(owner string, q domain.ListQuery) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		tx = tx.Scopes(ownedBy(owner))
		if q.Completed != nil {
			tx = tx.Where("completed = ?", *q.Completed)
		}
		return tx
	}
}

// Create saves a new task.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByID retrieves one of owner's tasks.
func (r *TaskRepository) FindByID(ctx context.Context, owner, id string) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).Scopes(ownedBy(owner)).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// Update applies column updates to one of owner's tasks. user_id and id are
// never part of cols.
func (r *TaskRepository) Update(ctx context.Context, owner, id string, cols map[string]any) error {
	updates := make(map[string]any, len(cols)+1)
	for k, v := range cols {
		if k == "id" || k == "user_id" {
			continue
		}
		updates[k] = v
	}
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Scopes(ownedBy(owner)).
		Where("id = ?", id).
		Updates(updates)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Toggle flips the completed flag in a single statement.
func (r *TaskRepository) Toggle(ctx context.Context, owner, id string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Scopes(ownedBy(owner)).
		Where("id = ?", id).
		Updates(map[string]any{
			"completed":  gorm.Expr("NOT completed"),
			"updated_at": time.Now(),
		})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to toggle task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes one of owner's tasks.
func (r *TaskRepository) Delete(ctx context.Context, owner, id string) error {
	result := r.db.WithContext(ctx).Scopes(ownedBy(owner)).Delete(&domain.Task{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// List returns one page of owner's tasks and the number of tasks matching
// the filter. q must be normalized.
func (r *TaskRepository) List(ctx context.Context, owner string, q domain.ListQuery) ([]domain.Task, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Scopes(matching(owner, q)).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, q.Limit)
	if int64(q.Page-1) >= q.TotalPages(total) {
		return tasks, total, nil
	}

	desc := q.Desc()
	if err := r.db.WithContext(ctx).
		Scopes(matching(owner, q)).
		Order(clause.OrderByColumn{Column: clause.Column{Name: q.SortColumn()}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc}).
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// CountByType tallies owner's tasks per type.
func (r *TaskRepository) CountByType(ctx context.Context, owner string) ([]domain.TypeCount, error) {
	counts := make([]domain.TypeCount, 0)
	err := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Scopes(ownedBy(owner)).
		Select("type, COUNT(*) AS total, SUM(CASE WHEN completed THEN 1 ELSE 0 END) AS completed").
		Group("type").
		Order("type").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by type: %w", err)
	}
	return counts, nil
}
