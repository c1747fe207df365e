package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	taskdomain "github.com/example/todo-app/domain/task"
	domain "github.com/example/todo-app/domain/user"
	"github.com/example/todo-app/modules/auth"
	"github.com/example/todo-app/modules/share"
	"github.com/example/todo-app/modules/task"
	"github.com/go-monolith/mono"
)

// mockAuthPort implements auth.AuthPort for testing
type mockAuthPort struct {
	registerFunc       func(ctx context.Context, req auth.RegisterRequest) (*auth.UserResponse, error)
	loginFunc          func(ctx context.Context, req auth.LoginRequest) (*auth.TokenResponse, error)
	refreshFunc        func(ctx context.Context, refreshToken string) (*auth.TokenResponse, error)
	validateTokenFunc  func(ctx context.Context, token string) (*domain.Claims, error)
	getUserFunc        func(ctx context.Context, userID string) (*auth.UserResponse, error)
	googleAuthURLFunc  func(ctx context.Context) (string, error)
	googleCallbackFunc func(ctx context.Context, state, code string) (*auth.TokenResponse, error)
}

var errNotImplemented = errors.New("not implemented")

func (m *mockAuthPort) Register(ctx context.Context, req auth.RegisterRequest) (*auth.UserResponse, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) Login(ctx context.Context, req auth.LoginRequest) (*auth.TokenResponse, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) Refresh(ctx context.Context, refreshToken string) (*auth.TokenResponse, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, refreshToken)
	}
	return nil, auth.ErrInvalidToken
}

func (m *mockAuthPort) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	if m.validateTokenFunc != nil {
		return m.validateTokenFunc(ctx, token)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) GetUser(ctx context.Context, userID string) (*auth.UserResponse, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) GoogleAuthURL(ctx context.Context) (string, error) {
	if m.googleAuthURLFunc != nil {
		return m.googleAuthURLFunc(ctx)
	}
	return "", auth.ErrGoogleDisabled
}

func (m *mockAuthPort) GoogleCallback(ctx context.Context, state, code string) (*auth.TokenResponse, error) {
	if m.googleCallbackFunc != nil {
		return m.googleCallbackFunc(ctx, state, code)
	}
	return nil, auth.ErrInvalidState
}

// tokenAuth resolves "<username>-token" to that user.
func tokenAuth() *mockAuthPort {
	return &mockAuthPort{
		validateTokenFunc: func(_ context.Context, token string) (*domain.Claims, error) {
			name, ok := strings.CutSuffix(token, "-token")
			if !ok || name == "" {
				return nil, auth.ErrInvalidToken
			}
			return &domain.Claims{UserID: name + "-id", Email: name + "@example.com", Username: name}, nil
		},
	}
}

// fakeTasks is an owner-scoped in-memory TaskPort.
type fakeTasks struct {
	mu        sync.Mutex
	seq       int
	tasks     map[string]*task.TaskResponse
	lastQuery taskdomain.ListQuery
	listErr   error
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{tasks: make(map[string]*task.TaskResponse)}
}

func (f *fakeTasks) owned(owner, id string) (*task.TaskResponse, error) {
	t, ok := f.tasks[id]
	if !ok || t.UserID != owner {
		return nil, task.ErrTaskNotFound
	}
	return t, nil
}

func (f *fakeTasks) CreateTask(_ context.Context, req *task.CreateTaskRequest) (*task.TaskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if strings.TrimSpace(req.Name) == "" {
		return nil, taskdomain.ErrNameRequired
	}
	if _, err := taskdomain.ParseDate(req.Date); err != nil {
		return nil, err
	}
	f.seq++
	now := time.Now().UTC()
	t := &task.TaskResponse{
		ID:          fmt.Sprintf("task-%d", f.seq),
		UserID:      req.UserID,
		Name:        strings.TrimSpace(req.Name),
		Type:        req.Type,
		Date:        req.Date,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.tasks[t.ID] = t
	copied := *t
	return &copied, nil
}

func (f *fakeTasks) GetTask(_ context.Context, owner, id string) (*task.TaskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.owned(owner, id)
	if err != nil {
		return nil, err
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTasks) UpdateTask(_ context.Context, req *task.UpdateTaskRequest) (*task.TaskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.owned(req.UserID, req.TaskID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Type != nil {
		t.Type = *req.Type
	}
	if req.Date != nil {
		t.Date = *req.Date
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Completed != nil {
		t.Completed = *req.Completed
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTasks) ToggleTask(_ context.Context, owner, id string) (*task.TaskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.owned(owner, id)
	if err != nil {
		return nil, err
	}
	t.Completed = !t.Completed
	copied := *t
	return &copied, nil
}

func (f *fakeTasks) DeleteTask(_ context.Context, owner, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.owned(owner, id); err != nil {
		return err
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTasks) ListTasks(_ context.Context, owner string, q taskdomain.ListQuery) (*task.ListTasksResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastQuery = q
	if f.listErr != nil {
		return nil, f.listErr
	}
	resp := &task.ListTasksResponse{Page: q.Page, Limit: q.Limit}
	for _, t := range f.tasks {
		if t.UserID == owner {
			resp.Tasks = append(resp.Tasks, *t)
		}
	}
	resp.Total = int64(len(resp.Tasks))
	resp.TotalPages = q.TotalPages(resp.Total)
	return resp, nil
}

func (f *fakeTasks) TaskStats(_ context.Context, owner string) (*task.TaskStatsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	byType := map[string]*taskdomain.TypeCount{}
	resp := &task.TaskStatsResponse{}
	for _, t := range f.tasks {
		if t.UserID != owner {
			continue
		}
		tc, ok := byType[t.Type]
		if !ok {
			tc = &taskdomain.TypeCount{Type: t.Type}
			byType[t.Type] = tc
		}
		tc.Total++
		resp.Total++
		if t.Completed {
			tc.Completed++
			resp.Completed++
		}
	}
	for _, tc := range byType {
		resp.ByType = append(resp.ByType, *tc)
	}
	return resp, nil
}

// fakeShares records shares in memory.
type fakeShares struct {
	mu     sync.Mutex
	shares []share.SharedTaskResponse
	last   *share.ShareTaskRequest
}

func (f *fakeShares) ShareTask(_ context.Context, req *share.ShareTaskRequest) (*share.SharedTaskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.last = req
	s := share.SharedTaskResponse{
		ID:            fmt.Sprintf("share-%d", len(f.shares)+1),
		SenderID:      req.SenderID,
		ReceiverEmail: req.ReceiverEmail,
		Name:          req.Name,
		Type:          req.Type,
		Deadline:      req.Deadline,
		CreatedAt:     time.Now().UTC(),
	}
	f.shares = append([]share.SharedTaskResponse{s}, f.shares...)
	return &s, nil
}

func (f *fakeShares) ListShares(_ context.Context, senderID string) ([]share.SharedTaskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []share.SharedTaskResponse
	for _, s := range f.shares {
		if s.SenderID == senderID {
			out = append(out, s)
		}
	}
	return out, nil
}

// stubHealth is a module with a fixed health status.
type stubHealth struct {
	status mono.HealthStatus
}

func (s *stubHealth) Name() string                             { return "stub" }
func (s *stubHealth) Start(context.Context) error              { return nil }
func (s *stubHealth) Stop(context.Context) error               { return nil }
func (s *stubHealth) Health(context.Context) mono.HealthStatus { return s.status }
