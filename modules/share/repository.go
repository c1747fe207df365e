package share

import (
	"context"
	"fmt"

	domain "github.com/example/todo-app/domain/share"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShareRepository stores shared-task records.
type ShareRepository struct {
	db *gorm.DB
}

// NewShareRepository creates a new share repository.
func NewShareRepository(db *gorm.DB) *ShareRepository {
	return &ShareRepository{db: db}
}

// Create saves a shared-task record.
func (r *ShareRepository) Create(ctx context.Context, shared *domain.SharedTask) error {
	if err := r.db.WithContext(ctx).Create(shared).Error; err != nil {
		return fmt.Errorf("failed to create shared task: %w", err)
	}
	return nil
}

// ListBySender returns sender's shared tasks, newest first.
func (r *ShareRepository) ListBySender(ctx context.Context, senderID string) ([]domain.SharedTask, error) {
	shares := make([]domain.SharedTask, 0)
	err := r.db.WithContext(ctx).
		Where("sender_id = ?", senderID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shared tasks: %w", err)
	}
	return shares, nil
}
