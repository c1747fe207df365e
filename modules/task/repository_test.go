package task

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/example/todo-app/config"
	"github.com/example/todo-app/database"
	domain "github.com/example/todo-app/domain/task"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One connection: every new connection to :memory: is a fresh database.
	db, err := database.Open(config.DatabaseConfig{DSN: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.Task{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newTask(owner, name, typ, date string, completed bool) *domain.Task {
	d, err := domain.ParseDate(date)
	if err != nil {
		panic(err)
	}
	now := time.Now()
	return &domain.Task{
		ID:        uuid.New().String(),
		UserID:    owner,
		Name:      name,
		Type:      typ,
		Date:      d,
		Completed: completed,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// seed stores n tasks for owner; the first `completed` of them are completed.
func seed(t *testing.T, repo *TaskRepository, owner string, n, completed int) []*domain.Task {
	t.Helper()
	tasks := make([]*domain.Task, 0, n)
	for i := 0; i < n; i++ {
		task := newTask(owner, fmt.Sprintf("task %d", i), []string{"work", "home"}[i%2], fmt.Sprintf("2024-03-%02d", i+1), i < completed)
		if err := repo.Create(context.Background(), task); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func TestTaskRepository_FindByIDIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupTestDB(t))
	task := seed(t, repo, "alice", 1, 0)[0]

	found, err := repo.FindByID(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found.Name != task.Name {
		t.Errorf("Name = %q, want %q", found.Name, task.Name)
	}

	if _, err := repo.FindByID(ctx, "bob", task.ID); err != ErrTaskNotFound {
		t.Errorf("FindByID() as another owner error = %v, want ErrTaskNotFound", err)
	}
	if _, err := repo.FindByID(ctx, "alice", "missing"); err != ErrTaskNotFound {
		t.Errorf("FindByID() unknown id error = %v, want ErrTaskNotFound", err)
	}
}

func TestTaskRepository_UpdateAndDeleteAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupTestDB(t))
	task := seed(t, repo, "alice", 1, 0)[0]

	if err := repo.Update(ctx, "bob", task.ID, map[string]any{"name": "stolen"}); err != ErrTaskNotFound {
		t.Errorf("Update() as another owner error = %v, want ErrTaskNotFound", err)
	}
	if err := repo.Delete(ctx, "bob", task.ID); err != ErrTaskNotFound {
		t.Errorf("Delete() as another owner error = %v, want ErrTaskNotFound", err)
	}

	found, err := repo.FindByID(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("record should remain: %v", err)
	}
	if found.Name != task.Name {
		t.Errorf("Name = %q, want %q", found.Name, task.Name)
	}
}

func TestTaskRepository_UpdateNeverChangesOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupTestDB(t))
	task := seed(t, repo, "alice", 1, 0)[0]

	err := repo.Update(ctx, "alice", task.ID, map[string]any{"name": "renamed", "user_id": "bob", "id": "other"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := repo.FindByID(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found.Name != "renamed" {
		t.Errorf("Name = %q, want %q", found.Name, "renamed")
	}
	if found.UserID != "alice" {
		t.Errorf("UserID = %q, want alice", found.UserID)
	}
}

func TestTaskRepository_Toggle(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupTestDB(t))
	task := seed(t, repo, "alice", 1, 0)[0]

	if err := repo.Toggle(ctx, "alice", task.ID); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	found, _ := repo.FindByID(ctx, "alice", task.ID)
	if !found.Completed {
		t.Error("Completed = false after one toggle")
	}

	if err := repo.Toggle(ctx, "bob", task.ID); err != ErrTaskNotFound {
		t.Errorf("Toggle() as another owner error = %v, want ErrTaskNotFound", err)
	}
}

func TestTaskRepository_ListFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupTestDB(t))
	seed(t, repo, "alice", 7, 3)
	seed(t, repo, "bob", 4, 4)

	yes, no := true, false
	tests := []struct {
		name      string
		completed *bool
		wantTotal int64
	}{
		{name: "no filter", completed: nil, wantTotal: 7},
		{name: "completed", completed: &yes, wantTotal: 3},
		{name: "incomplete", completed: &no, wantTotal: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := domain.ListQuery{Completed: tt.completed, Limit: 100}.Normalize()
			tasks, total, err := repo.List(ctx, "alice", q)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			if int64(len(tasks)) != tt.wantTotal {
				t.Errorf("len(tasks) = %d, want %d", len(tasks), tt.wantTotal)
			}
			for _, task := range tasks {
				if task.UserID != "alice" {
					t.Errorf("listed task of %q", task.UserID)
				}
				if tt.completed != nil && task.Completed != *tt.completed {
					t.Errorf("task %s completed = %v, want %v", task.ID, task.Completed, *tt.completed)
				}
			}
		})
	}
}

func TestTaskRepository_ListSorts(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupTestDB(t))
	seed(t, repo, "alice", 5, 0)

	q := domain.ListQuery{SortBy: domain.SortByDate, Order: domain.OrderAsc, Limit: 10}.Normalize()
	tasks, _, err := repo.List(ctx, "alice", q)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	for i := 1; i < len(tasks); i++ {
		if tasks[i].Date.Before(tasks[i-1].Date) {
			t.Errorf("asc order broken at %d: %v before %v", i, tasks[i].Date, tasks[i-1].Date)
		}
	}

	q.Order = domain.OrderDesc
	tasks, _, err = repo.List(ctx, "alice", q)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got := domain.FormatDate(tasks[0].Date); got != "2024-03-05" {
		t.Errorf("first date desc = %s, want 2024-03-05", got)
	}
}

func TestTaskRepository_ListPagesAreStableWithTies(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupTestDB(t))

	// Every task has the same date, so only the id tie-break orders them.
	for i := 0; i < 11; i++ {
		if err := repo.Create(ctx, newTask("alice", fmt.Sprintf("t%d", i), "work", "2024-01-01", false)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	seen := make(map[string]bool)
	for page := 1; page <= 3; page++ {
		q := domain.ListQuery{Page: page, Limit: 4}.Normalize()
		tasks, total, err := repo.List(ctx, "alice", q)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if total != 11 {
			t.Errorf("total = %d, want 11", total)
		}
		for _, task := range tasks {
			if seen[task.ID] {
				t.Errorf("task %s returned on more than one page", task.ID)
			}
			seen[task.ID] = true
		}
	}
	if len(seen) != 11 {
		t.Errorf("saw %d distinct tasks across pages, want 11", len(seen))
	}
}

func TestTaskRepository_CountByType(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupTestDB(t))
	// types alternate work/home; tasks 0..2 completed
	seed(t, repo, "alice", 5, 3)
	seed(t, repo, "bob", 2, 0)

	counts, err := repo.CountByType(ctx, "alice")
	if err != nil {
		t.Fatalf("CountByType() error = %v", err)
	}

	want := []domain.TypeCount{
		{Type: "home", Total: 2, Completed: 1},
		{Type: "work", Total: 3, Completed: 2},
	}
	if len(counts) != len(want) {
		t.Fatalf("CountByType() = %+v, want %+v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %+v, want %+v", i, counts[i], want[i])
		}
	}
}

func TestTaskRepository_ListPastLastPage(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupTestDB(t))
	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, newTask("alice", fmt.Sprintf("t%d", i), "work", "2024-01-01", false)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	for _, page := range []int{2, domain.MaxPage} {
		q := domain.ListQuery{Page: page, Limit: domain.MaxLimit}.Normalize()
		tasks, total, err := repo.List(ctx, "alice", q)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(tasks) != 0 {
			t.Errorf("page %d returned %d tasks, want 0", page, len(tasks))
		}
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
	}
}
