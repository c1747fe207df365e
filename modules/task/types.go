package task

import (
	"context"
	"time"

	domain "github.com/example/todo-app/domain/task"
)

// CreateTaskRequest is the request for creating a task. UserID is the
// authenticated caller, never client input.
type CreateTaskRequest struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	UserID string `json:"user_id"`
	TaskID string `json:"task_id"`
}

// UpdateTaskRequest is a partial update. Nil fields are left untouched.
type UpdateTaskRequest struct {
	UserID      string  `json:"user_id"`
	TaskID      string  `json:"task_id"`
	Name        *string `json:"name,omitempty"`
	Type        *string `json:"type,omitempty"`
	Date        *string `json:"date,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// ToggleTaskRequest is the request for flipping a task's completed flag.
type ToggleTaskRequest struct {
	UserID string `json:"user_id"`
	TaskID string `json:"task_id"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	UserID string `json:"user_id"`
	TaskID string `json:"task_id"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

// ListTasksRequest carries a normalized listing query.
type ListTasksRequest struct {
	UserID string           `json:"user_id"`
	Query  domain.ListQuery `json:"query"`
}

// ListTasksResponse is one page of tasks.
type ListTasksResponse struct {
	Tasks      []TaskResponse `json:"tasks"`
	Total      int64          `json:"total"`
	TotalPages int64          `json:"total_pages"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
}

// TaskStatsRequest is the request for per-type statistics.
type TaskStatsRequest struct {
	UserID string `json:"user_id"`
}

// TaskStatsResponse holds per-type statistics and overall totals.
type TaskStatsResponse struct {
	Total     int64              `json:"total"`
	Completed int64              `json:"completed"`
	ByType    []domain.TypeCount `json:"by_type"`
}

// TaskResponse is the response for a single task.
type TaskResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskPort defines the interface for task operations (hexagonal port).
// Every method is scoped to owner.
type TaskPort interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error)
	GetTask(ctx context.Context, owner, taskID string) (*TaskResponse, error)
	UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResponse, error)
	ToggleTask(ctx context.Context, owner, taskID string) (*TaskResponse, error)
	DeleteTask(ctx context.Context, owner, taskID string) error
	ListTasks(ctx context.Context, owner string, q domain.ListQuery) (*ListTasksResponse, error)
	TaskStats(ctx context.Context, owner string) (*TaskStatsResponse, error)
}

func toTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		UserID:      task.UserID,
		Name:        task.Name,
		Type:        task.Type,
		Date:        domain.FormatDate(task.Date),
		Description: task.Description,
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func toListTasksResponse(result domain.ListResult) ListTasksResponse {
	resp := ListTasksResponse{
		Tasks:      make([]TaskResponse, 0, len(result.Tasks)),
		Total:      result.Total,
		TotalPages: result.TotalPages,
		Page:       result.Page,
		Limit:      result.Limit,
	}
	for i := range result.Tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(&result.Tasks[i]))
	}
	return resp
}
