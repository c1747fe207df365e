package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/todo-app/config"
	"github.com/example/todo-app/database"
	domain "github.com/example/todo-app/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthModule owns user accounts and issues and validates tokens.
type AuthModule struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	service *AuthService
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(cfg *config.Config, logger *zap.Logger) *AuthModule {
	return &AuthModule{
		cfg:    cfg,
		logger: logger.Named("auth"),
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start opens the user store and builds the service.
func (m *AuthModule) Start(_ context.Context) error {
	db, err := database.Open(m.cfg.Database)
	if err != nil {
		return err
	}
	m.db = db

	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var google GoogleProvider
	if g := NewGoogleOAuth(m.cfg.Google); g != nil {
		google = g
	}

	m.service = NewAuthService(
		NewUserRepository(db),
		NewPasswordHasher(),
		NewJWTManager(NewJWTConfig(m.cfg.Auth)),
		google,
	)

	m.logger.Info("module started",
		zap.String("database", database.Redact(m.cfg.Database.DSN)),
		zap.Bool("google_sign_in", google != nil),
	)
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		m.logger.Warn("failed to close database", zap.Error(err))
	}
	m.logger.Info("module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": database.DriverName(m.cfg.Database.DSN),
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "register", json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "login", json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "refresh-token", json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register refresh-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "google-auth-url", json.Unmarshal, json.Marshal, m.handleGoogleAuthURL,
	); err != nil {
		return fmt.Errorf("failed to register google-auth-url service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "google-callback", json.Unmarshal, json.Marshal, m.handleGoogleCallback,
	); err != nil {
		return fmt.Errorf("failed to register google-callback service: %w", err)
	}

	m.logger.Info("registered services",
		zap.Strings("services", []string{
			"register", "login", "refresh-token", "validate-token", "get-user", "google-auth-url", "google-callback",
		}),
	)
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return UserResponse{}, err
	}
	m.logger.Info("user registered", zap.String("user_id", user.ID))
	return toUserResponse(user), nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (TokenResponse, error) {
	user, tokens, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return TokenResponse{}, err
	}
	return toTokenResponse(tokens, user), nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (TokenResponse, error) {
	tokens, err := m.service.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		return TokenResponse{}, err
	}
	return toTokenResponse(tokens, nil), nil
}

func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := "invalid token"
		if errors.Is(err, ErrExpiredToken) {
			errMsg = "token expired"
		}
		// Validation failures are a normal answer, not a service error.
		return ValidateTokenResponse{
			Valid: false,
			Error: errMsg,
		}, nil
	}

	return ValidateTokenResponse{
		Valid:    true,
		UserID:   claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (m *AuthModule) handleGoogleAuthURL(ctx context.Context, _ GoogleAuthURLRequest, _ *mono.Msg) (GoogleAuthURLResponse, error) {
	url, err := m.service.GoogleAuthURL(ctx)
	if err != nil {
		return GoogleAuthURLResponse{}, err
	}
	return GoogleAuthURLResponse{URL: url}, nil
}

func (m *AuthModule) handleGoogleCallback(ctx context.Context, req GoogleCallbackRequest, _ *mono.Msg) (TokenResponse, error) {
	user, tokens, err := m.service.GoogleLogin(ctx, req.State, req.Code)
	if err != nil {
		m.logger.Warn("google sign-in failed", zap.Error(err))
		return TokenResponse{}, err
	}
	m.logger.Info("google sign-in", zap.String("user_id", user.ID))
	return toTokenResponse(tokens, user), nil
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

func toTokenResponse(tokens *domain.TokenPair, user *domain.User) TokenResponse {
	resp := TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    tokens.TokenType,
	}
	if user != nil {
		u := toUserResponse(user)
		resp.User = &u
	}
	return resp
}
