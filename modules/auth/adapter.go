package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/example/todo-app/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort is how other modules reach the auth module.
type AuthPort interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*UserResponse, error)
	GoogleAuthURL(ctx context.Context) (string, error)
	GoogleCallback(ctx context.Context, state, code string) (*TokenResponse, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

func (a *AuthAdapter) call(ctx context.Context, service string, req, resp any) error {
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

// Register creates a password account.
func (a *AuthAdapter) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	var resp UserResponse
	if err := a.call(ctx, "register", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for tokens.
func (a *AuthAdapter) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := a.call(ctx, "login", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh rotates a token pair.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp TokenResponse
	if err := a.call(ctx, "refresh-token", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateToken validates an access token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := a.call(ctx, "validate-token", &req, &resp); err != nil {
		return nil, err
	}

	if !resp.Valid {
		if resp.Error == "token expired" {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	return &domain.Claims{
		UserID:   resp.UserID,
		Email:    resp.Email,
		Username: resp.Username,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*UserResponse, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserResponse
	if err := a.call(ctx, "get-user", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GoogleAuthURL returns the Google consent page URL.
func (a *AuthAdapter) GoogleAuthURL(ctx context.Context) (string, error) {
	var resp GoogleAuthURLResponse
	if err := a.call(ctx, "google-auth-url", &GoogleAuthURLRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// GoogleCallback completes Google sign-in.
func (a *AuthAdapter) GoogleCallback(ctx context.Context, state, code string) (*TokenResponse, error) {
	req := GoogleCallbackRequest{State: state, Code: code}
	var resp TokenResponse
	if err := a.call(ctx, "google-callback", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// knownErrors are matched by message because service errors reach the
// caller as text.
var knownErrors = []error{
	ErrUserExists,
	ErrUserNotFound,
	ErrInvalidCredentials,
	ErrInvalidEmail,
	ErrUsernameRequired,
	ErrWeakPassword,
	ErrPasswordTooLong,
	ErrExpiredToken,
	ErrInvalidToken,
	ErrGoogleDisabled,
	ErrInvalidState,
	ErrGoogleExchange,
}

func translateError(service string, err error) error {
	msg := err.Error()
	for _, known := range knownErrors {
		if strings.Contains(msg, known.Error()) {
			return known
		}
	}
	return fmt.Errorf("%s request failed: %w", service, err)
}
