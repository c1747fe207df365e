package task

import (
	"context"
	"errors"
	"testing"

	domain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*TaskService, *TaskRepository) {
	t.Helper()
	repo := NewTaskRepository(setupTestDB(t))
	return NewTaskService(repo, nil, nil, metrics.Nop(), zap.NewNop()), repo
}

func strPtr(s string) *string { return &s }

func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	task, err := svc.Create(ctx, "alice", CreateInput{
		Name:        "  Write report ",
		Type:        "work",
		Date:        "2024-05-01",
		Description: "quarterly",
	})
	require.NoError(t, err)
	assert.Equal(t, "Write report", task.Name)
	assert.Equal(t, "alice", task.UserID)
	assert.False(t, task.Completed)
	assert.Equal(t, "2024-05-01", domain.FormatDate(task.Date))

	stored, err := repo.FindByID(ctx, "alice", task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Name, stored.Name)
}

func TestTaskService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	tests := []struct {
		name    string
		owner   string
		in      CreateInput
		wantErr error
	}{
		{name: "missing date", owner: "alice", in: CreateInput{Name: "x"}, wantErr: domain.ErrDateRequired},
		{name: "bad date", owner: "alice", in: CreateInput{Name: "x", Date: "01/05/2024"}, wantErr: domain.ErrInvalidDate},
		{name: "blank name", owner: "alice", in: CreateInput{Name: "   ", Date: "2024-05-01"}, wantErr: domain.ErrNameRequired},
		{name: "no owner", owner: "", in: CreateInput{Name: "x", Date: "2024-05-01"}, wantErr: ErrOwnerRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.owner, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, total, err := repo.List(ctx, "alice", domain.ListQuery{}.Normalize())
	require.NoError(t, err)
	assert.Zero(t, total, "no record may be persisted by a rejected create")
}

func TestTaskService_ListScenario(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seed(t, repo, "alice", 7, 3)
	seed(t, repo, "bob", 6, 2)

	parse := func(raw domain.RawListQuery) domain.ListQuery {
		q, err := domain.ParseListQuery(raw)
		require.NoError(t, err)
		return q
	}

	t.Run("completed filter", func(t *testing.T) {
		res, err := svc.List(ctx, "alice", parse(domain.RawListQuery{Completed: "true", Page: "1", Limit: "5"}))
		require.NoError(t, err)
		assert.Len(t, res.Tasks, 3)
		assert.EqualValues(t, 3, res.Total)
		assert.EqualValues(t, 1, res.TotalPages)
	})

	t.Run("second page", func(t *testing.T) {
		res, err := svc.List(ctx, "alice", parse(domain.RawListQuery{Page: "2", Limit: "5"}))
		require.NoError(t, err)
		assert.Len(t, res.Tasks, 2)
		assert.EqualValues(t, 7, res.Total)
		assert.EqualValues(t, 2, res.TotalPages)
	})

	t.Run("past the end", func(t *testing.T) {
		res, err := svc.List(ctx, "alice", parse(domain.RawListQuery{Page: "3", Limit: "5"}))
		require.NoError(t, err)
		assert.Empty(t, res.Tasks)
		assert.EqualValues(t, 7, res.Total)
		assert.EqualValues(t, 2, res.TotalPages)
		assert.Equal(t, 3, res.Page)
	})

	t.Run("huge page is empty", func(t *testing.T) {
		res, err := svc.List(ctx, "alice", parse(domain.RawListQuery{Page: "100000000000000000", Limit: "100"}))
		require.NoError(t, err)
		assert.Empty(t, res.Tasks)
		assert.EqualValues(t, 7, res.Total)
		assert.EqualValues(t, 1, res.TotalPages)
	})

	t.Run("unknown completed value lists everything", func(t *testing.T) {
		res, err := svc.List(ctx, "alice", parse(domain.RawListQuery{Completed: "yes", Limit: "100"}))
		require.NoError(t, err)
		assert.EqualValues(t, 7, res.Total)
	})

	t.Run("unknown sort key falls back", func(t *testing.T) {
		res, err := svc.List(ctx, "alice", parse(domain.RawListQuery{SortBy: "password", Limit: "100"}))
		require.NoError(t, err)
		assert.Len(t, res.Tasks, 7)
	})

	t.Run("same parameters, same page", func(t *testing.T) {
		q := parse(domain.RawListQuery{SortBy: "type", Order: "asc", Page: "2", Limit: "3"})
		first, err := svc.List(ctx, "alice", q)
		require.NoError(t, err)
		second, err := svc.List(ctx, "alice", q)
		require.NoError(t, err)
		require.Len(t, second.Tasks, len(first.Tasks))
		for i := range first.Tasks {
			assert.Equal(t, first.Tasks[i].ID, second.Tasks[i].ID)
		}
	})
}

func TestTaskService_ListRejectsMissingOwner(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.List(context.Background(), "", domain.ListQuery{})
	assert.ErrorIs(t, err, ErrOwnerRequired)
}

func TestTaskService_Update(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	task, err := svc.Create(ctx, "alice", CreateInput{Name: "draft", Type: "work", Date: "2024-05-01", Description: "d"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "alice", task.ID, domain.Patch{Name: strPtr("final")})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Name)
	assert.Equal(t, "work", updated.Type)
	assert.Equal(t, "d", updated.Description)
	assert.Equal(t, "alice", updated.UserID)

	_, err = svc.Update(ctx, "alice", task.ID, domain.Patch{Name: strPtr(" ")})
	assert.ErrorIs(t, err, domain.ErrNameRequired)

	_, err = svc.Update(ctx, "mallory", task.ID, domain.Patch{Name: strPtr("mine")})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	same, err := svc.Update(ctx, "alice", task.ID, domain.Patch{})
	require.NoError(t, err)
	assert.Equal(t, "final", same.Name)
}

func TestTaskService_ToggleTwiceRestoresRecord(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	task, err := svc.Create(ctx, "alice", CreateInput{Name: "walk", Type: "home", Date: "2024-05-02", Description: "dog"})
	require.NoError(t, err)

	once, err := svc.Toggle(ctx, "alice", task.ID)
	require.NoError(t, err)
	assert.True(t, once.Completed)

	twice, err := svc.Toggle(ctx, "alice", task.ID)
	require.NoError(t, err)
	assert.False(t, twice.Completed)
	assert.Equal(t, task.Name, twice.Name)
	assert.Equal(t, task.Type, twice.Type)
	assert.Equal(t, task.Description, twice.Description)
	assert.Equal(t, domain.FormatDate(task.Date), domain.FormatDate(twice.Date))
}

func TestTaskService_DeleteOtherOwnersTask(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	task, err := svc.Create(ctx, "alice", CreateInput{Name: "keep", Date: "2024-05-03"})
	require.NoError(t, err)

	err = svc.Delete(ctx, "mallory", task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = repo.FindByID(ctx, "alice", task.ID)
	assert.NoError(t, err, "record must remain")

	require.NoError(t, svc.Delete(ctx, "alice", task.ID))
	_, err = svc.Get(ctx, "alice", task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_Stats(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seed(t, repo, "alice", 5, 3)

	stats, err := svc.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.Total)
	assert.EqualValues(t, 3, stats.Completed)
	assert.Len(t, stats.ByType, 2)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{msg: "task not found", want: ErrTaskNotFound},
		{msg: "service error: task date is required", want: domain.ErrDateRequired},
		{msg: "task name is required", want: domain.ErrNameRequired},
		{msg: "task date must be YYYY-MM-DD or RFC 3339", want: domain.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.ErrorIs(t, translateError("get-task", errors.New(tt.msg)), tt.want)
		})
	}
}
