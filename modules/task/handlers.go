package task

import (
	"context"

	domain "github.com/example/todo-app/domain/task"
	"github.com/go-monolith/mono"
)

func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Create(ctx, req.UserID, CreateInput{
		Name:        req.Name,
		Type:        req.Type,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(task), nil
}

func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Get(ctx, req.UserID, req.TaskID)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(task), nil
}

func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	patch, err := toPatch(req)
	if err != nil {
		return TaskResponse{}, err
	}
	task, err := m.service.Update(ctx, req.UserID, req.TaskID, patch)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(task), nil
}

func (m *TaskModule) toggleTask(ctx context.Context, req ToggleTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Toggle(ctx, req.UserID, req.TaskID)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(task), nil
}

func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.Delete(ctx, req.UserID, req.TaskID); err != nil {
		return DeleteTaskResponse{Deleted: false}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	result, err := m.service.List(ctx, req.UserID, req.Query)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return toListTasksResponse(result), nil
}

func (m *TaskModule) taskStats(ctx context.Context, req TaskStatsRequest, _ *mono.Msg) (TaskStatsResponse, error) {
	stats, err := m.service.Stats(ctx, req.UserID)
	if err != nil {
		return TaskStatsResponse{}, err
	}
	return *stats, nil
}

// toPatch converts the wire form of a partial update, parsing the date.
func toPatch(req UpdateTaskRequest) (domain.Patch, error) {
	patch := domain.Patch{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Completed:   req.Completed,
	}
	if req.Date != nil {
		date, err := domain.ParseDate(*req.Date)
		if err != nil {
			return domain.Patch{}, err
		}
		patch.Date = &date
	}
	return patch, nil
}
