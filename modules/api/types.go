package api

import (
	"time"

	"github.com/example/todo-app/modules/auth"
	"github.com/example/todo-app/modules/share"
	"github.com/example/todo-app/modules/task"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	TokenType    string        `json:"token_type"`
	User         *UserResponse `json:"user,omitempty"`
}

// UserResponse represents a user response.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTodoRequest is the body of POST /todos.
type CreateTodoRequest struct {
	Name        string `json:"name" validate:"required"`
	Type        string `json:"type"`
	Date        string `json:"date" validate:"required"`
	Description string `json:"description"`
}

// UpdateTodoRequest is the body of PUT /todos/:id. Absent fields are kept.
type UpdateTodoRequest struct {
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	Date        *string `json:"date"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// TodoResponse is a task as the web client sees it.
type TodoResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TodoEnvelope wraps a single task with a status message.
type TodoEnvelope struct {
	Message string       `json:"message"`
	Todo    TodoResponse `json:"todo"`
}

// TodoListResponse is one page of tasks.
type TodoListResponse struct {
	Todos      []TodoResponse `json:"todos"`
	Total      int64          `json:"total"`
	TotalPages int64          `json:"totalPages"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
}

// TypeCountResponse is one row of the dashboard statistics.
type TypeCountResponse struct {
	Type      string `json:"type"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
}

// StatsResponse is the dashboard statistics payload.
type StatsResponse struct {
	Total     int64               `json:"total"`
	Completed int64               `json:"completed"`
	Pending   int64               `json:"pending"`
	ByType    []TypeCountResponse `json:"byType"`
}

// ShareRequest is the body of POST /share.
type ShareRequest struct {
	Name          string `json:"name" validate:"required"`
	Type          string `json:"type" validate:"required"`
	Deadline      string `json:"deadline" validate:"required"`
	ReceiverEmail string `json:"receiverEmail" validate:"required,email"`
}

// SharedTaskResponse is a share record as the web client sees it.
type SharedTaskResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Deadline      string    `json:"deadline"`
	ReceiverEmail string    `json:"receiverEmail"`
	SenderID      string    `json:"senderId"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ShareEnvelope wraps a created share with a status message.
type ShareEnvelope struct {
	Message string             `json:"message"`
	Share   SharedTaskResponse `json:"share"`
}

// MessageResponse carries a status message only.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func toUserResponse(u *auth.UserResponse) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toTokenResponse(t *auth.TokenResponse) TokenResponse {
	return TokenResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    t.ExpiresIn,
		TokenType:    t.TokenType,
		User:         toUserResponse(t.User),
	}
}

func toTodoResponse(t *task.TaskResponse) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Name:        t.Name,
		Type:        t.Type,
		Date:        t.Date,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toSharedTaskResponse(s *share.SharedTaskResponse) SharedTaskResponse {
	return SharedTaskResponse{
		ID:            s.ID,
		Name:          s.Name,
		Type:          s.Type,
		Deadline:      s.Deadline,
		ReceiverEmail: s.ReceiverEmail,
		SenderID:      s.SenderID,
		CreatedAt:     s.CreatedAt,
	}
}
