package api

import (
	"errors"
	"net/url"
	"strings"

	taskdomain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/modules/auth"
	"github.com/example/todo-app/modules/share"
	"github.com/example/todo-app/modules/task"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	authAdapter auth.AuthPort
	tasks       task.TaskPort
	shares      share.SharePort
	validate    *validator.Validate
	frontendURL string
	logger      *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authAdapter auth.AuthPort, tasks task.TaskPort, shares share.SharePort, frontendURL string, logger *zap.Logger) *Handlers {
	return &Handlers{
		authAdapter: authAdapter,
		tasks:       tasks,
		shares:      shares,
		validate:    newValidator(),
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// parseBody decodes and validates the request body into out. It writes the
// 400 response itself and reports whether the handler may continue.
func (h *Handlers) parseBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validate.Struct(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: describeValidation(err),
		})
	}
	return true, nil
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	user, err := h.authAdapter.Register(c.UserContext(), auth.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	tokens, err := h.authAdapter.Login(c.UserContext(), auth.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toTokenResponse(tokens))
}

// Refresh handles token refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	tokens, err := h.authAdapter.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toTokenResponse(tokens))
}

// GoogleLogin redirects to the Google consent page.
func (h *Handlers) GoogleLogin(c *fiber.Ctx) error {
	target, err := h.authAdapter.GoogleAuthURL(c.UserContext())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Redirect(target, fiber.StatusTemporaryRedirect)
}

// GoogleCallback completes Google sign-in and hands the tokens to the web
// client through its oauth-success page.
func (h *Handlers) GoogleCallback(c *fiber.Ctx) error {
	if c.Query("error") != "" {
		return c.Redirect(h.frontendURL+"/login?error=oauth_failed", fiber.StatusTemporaryRedirect)
	}

	tokens, err := h.authAdapter.GoogleCallback(c.UserContext(), c.Query("state"), c.Query("code"))
	if err != nil {
		h.logger.Warn("google callback failed", zap.Error(err))
		return c.Redirect(h.frontendURL+"/login?error=oauth_failed", fiber.StatusTemporaryRedirect)
	}

	q := url.Values{}
	q.Set("token", tokens.AccessToken)
	q.Set("refresh", tokens.RefreshToken)
	return c.Redirect(h.frontendURL+"/oauth-success?"+q.Encode(), fiber.StatusTemporaryRedirect)
}

// Profile returns the authenticated user.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	user, err := h.authAdapter.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toUserResponse(user))
}

// CreateTodo creates a task owned by the caller.
func (h *Handlers) CreateTodo(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateTodoRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	created, err := h.tasks.CreateTask(c.UserContext(), &task.CreateTaskRequest{
		UserID:      claims.UserID,
		Name:        req.Name,
		Type:        req.Type,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(TodoEnvelope{
		Message: "Task created",
		Todo:    toTodoResponse(created),
	})
}

// ListTodos returns one page of the caller's tasks.
func (h *Handlers) ListTodos(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	q, err := taskdomain.ParseListQuery(taskdomain.RawListQuery{
		Completed: c.Query("completed"),
		SortBy:    c.Query("sortBy"),
		Order:     c.Query("order"),
		Page:      c.Query("page"),
		Limit:     c.Query("limit"),
	})
	if err != nil {
		return h.writeError(c, err)
	}

	page, err := h.tasks.ListTasks(c.UserContext(), claims.UserID, q)
	if err != nil {
		return h.writeError(c, err)
	}

	resp := TodoListResponse{
		Todos:      make([]TodoResponse, 0, len(page.Tasks)),
		Total:      page.Total,
		TotalPages: page.TotalPages,
		Page:       page.Page,
		Limit:      page.Limit,
	}
	for i := range page.Tasks {
		resp.Todos = append(resp.Todos, toTodoResponse(&page.Tasks[i]))
	}
	return c.JSON(resp)
}

// TodoStats returns per-type counts for the dashboard.
func (h *Handlers) TodoStats(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	stats, err := h.tasks.TaskStats(c.UserContext(), claims.UserID)
	if err != nil {
		return h.writeError(c, err)
	}

	resp := StatsResponse{
		Total:     stats.Total,
		Completed: stats.Completed,
		Pending:   stats.Total - stats.Completed,
		ByType:    make([]TypeCountResponse, 0, len(stats.ByType)),
	}
	for _, tc := range stats.ByType {
		resp.ByType = append(resp.ByType, TypeCountResponse(tc))
	}
	return c.JSON(resp)
}

// GetTodo returns one of the caller's tasks.
func (h *Handlers) GetTodo(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	t, err := h.tasks.GetTask(c.UserContext(), claims.UserID, c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(toTodoResponse(t))
}

// UpdateTodo applies a partial update to one of the caller's tasks.
func (h *Handlers) UpdateTodo(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req UpdateTodoRequest
	if len(c.Body()) > 0 {
		if ok, err := h.parseBody(c, &req); !ok {
			return err
		}
	}

	updated, err := h.tasks.UpdateTask(c.UserContext(), &task.UpdateTaskRequest{
		UserID:      claims.UserID,
		TaskID:      c.Params("id"),
		Name:        req.Name,
		Type:        req.Type,
		Date:        req.Date,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(TodoEnvelope{
		Message: "Task updated",
		Todo:    toTodoResponse(updated),
	})
}

// ToggleTodo flips the completed flag of one of the caller's tasks.
func (h *Handlers) ToggleTodo(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	toggled, err := h.tasks.ToggleTask(c.UserContext(), claims.UserID, c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(TodoEnvelope{
		Message: "Task updated",
		Todo:    toTodoResponse(toggled),
	})
}

// DeleteTodo removes one of the caller's tasks.
func (h *Handlers) DeleteTodo(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.tasks.DeleteTask(c.UserContext(), claims.UserID, c.Params("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Task deleted"})
}

// ShareTask records a shared task and triggers the receiver's email.
func (h *Handlers) ShareTask(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req ShareRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	shared, err := h.shares.ShareTask(c.UserContext(), &share.ShareTaskRequest{
		SenderID:       claims.UserID,
		SenderUsername: claims.Username,
		Name:           req.Name,
		Type:           req.Type,
		Deadline:       req.Deadline,
		ReceiverEmail:  req.ReceiverEmail,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(ShareEnvelope{
		Message: "Task shared",
		Share:   toSharedTaskResponse(shared),
	})
}

// ListShares returns the caller's shares, newest first.
func (h *Handlers) ListShares(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	shares, err := h.shares.ListShares(c.UserContext(), claims.UserID)
	if err != nil {
		return h.writeError(c, err)
	}

	resp := make([]SharedTaskResponse, 0, len(shares))
	for i := range shares {
		resp = append(resp, toSharedTaskResponse(&shares[i]))
	}
	return c.JSON(resp)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: "User not authenticated",
	})
}

// errorMappings maps sentinel errors to responses. Their messages are safe to
// show to clients.
var errorMappings = []struct {
	err    error
	status int
	code   string
}{
	{taskdomain.ErrNameRequired, fiber.StatusBadRequest, "validation_error"},
	{taskdomain.ErrDateRequired, fiber.StatusBadRequest, "validation_error"},
	{taskdomain.ErrInvalidDate, fiber.StatusBadRequest, "validation_error"},
	{taskdomain.ErrInvalidPagination, fiber.StatusBadRequest, "validation_error"},
	{auth.ErrInvalidEmail, fiber.StatusBadRequest, "validation_error"},
	{auth.ErrUsernameRequired, fiber.StatusBadRequest, "validation_error"},
	{auth.ErrWeakPassword, fiber.StatusBadRequest, "validation_error"},
	{auth.ErrPasswordTooLong, fiber.StatusBadRequest, "validation_error"},
	{share.ErrFieldsRequired, fiber.StatusBadRequest, "validation_error"},
	{share.ErrInvalidReceiver, fiber.StatusBadRequest, "validation_error"},

	{auth.ErrInvalidCredentials, fiber.StatusUnauthorized, "unauthorized"},
	{auth.ErrInvalidToken, fiber.StatusUnauthorized, "unauthorized"},
	{auth.ErrExpiredToken, fiber.StatusUnauthorized, "unauthorized"},
	{auth.ErrInvalidState, fiber.StatusUnauthorized, "unauthorized"},
	{task.ErrOwnerRequired, fiber.StatusUnauthorized, "unauthorized"},
	{share.ErrSenderRequired, fiber.StatusUnauthorized, "unauthorized"},

	{task.ErrTaskNotFound, fiber.StatusNotFound, "not_found"},
	{auth.ErrUserNotFound, fiber.StatusNotFound, "not_found"},
	{auth.ErrGoogleDisabled, fiber.StatusNotFound, "not_found"},

	{auth.ErrUserExists, fiber.StatusConflict, "conflict"},
}

// writeError maps err to a status and error code. Unknown errors are logged
// and reported without detail.
func (h *Handlers) writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(ErrorResponse{
				Error:   m.code,
				Message: err.Error(),
			})
		}
	}

	h.logger.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
