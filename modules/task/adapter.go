package task

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/example/todo-app/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter wraps ServiceContainer for type-safe cross-module communication.
// This is the adapter that implements the TaskPort interface.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

func (a *taskAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return translateError(service, err)
	}
	return nil
}

func (a *taskAdapter) CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := a.call(ctx, "create-task", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) GetTask(ctx context.Context, owner, taskID string) (*TaskResponse, error) {
	req := GetTaskRequest{UserID: owner, TaskID: taskID}
	var resp TaskResponse
	if err := a.call(ctx, "get-task", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := a.call(ctx, "update-task", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) ToggleTask(ctx context.Context, owner, taskID string) (*TaskResponse, error) {
	req := ToggleTaskRequest{UserID: owner, TaskID: taskID}
	var resp TaskResponse
	if err := a.call(ctx, "toggle-task", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) DeleteTask(ctx context.Context, owner, taskID string) error {
	req := DeleteTaskRequest{UserID: owner, TaskID: taskID}
	var resp DeleteTaskResponse
	if err := a.call(ctx, "delete-task", &req, &resp); err != nil {
		return err
	}
	if !resp.Deleted {
		return fmt.Errorf("task not deleted: %s", taskID)
	}
	return nil
}

func (a *taskAdapter) ListTasks(ctx context.Context, owner string, q domain.ListQuery) (*ListTasksResponse, error) {
	req := ListTasksRequest{UserID: owner, Query: q}
	var resp ListTasksResponse
	if err := a.call(ctx, "list-tasks", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) TaskStats(ctx context.Context, owner string) (*TaskStatsResponse, error) {
	req := TaskStatsRequest{UserID: owner}
	var resp TaskStatsResponse
	if err := a.call(ctx, "task-stats", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// knownErrors are matched by message because service errors reach the
// caller as text.
var knownErrors = []error{
	ErrTaskNotFound,
	ErrOwnerRequired,
	domain.ErrNameRequired,
	domain.ErrDateRequired,
	domain.ErrInvalidDate,
	domain.ErrInvalidPagination,
}

func translateError(service string, err error) error {
	msg := err.Error()
	for _, known := range knownErrors {
		if strings.Contains(msg, known.Error()) {
			return known
		}
	}
	return fmt.Errorf("%s service call failed: %w", service, err)
}
