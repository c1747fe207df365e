package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	domain "github.com/example/todo-app/domain/user"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrUsernameRequired is returned when registering without a username.
	ErrUsernameRequired = errors.New("username is required")
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
)

// AuthService handles authentication business logic.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
	google GoogleProvider
}

// NewAuthService creates a new AuthService. google may be nil.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager, google GoogleProvider) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
		google: google,
	}
}

// Register creates a new password account.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a password account and returns tokens.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.TokenPair, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// RefreshTokens generates new access and refresh tokens.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	// The account may have been removed since the token was issued.
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return s.generateTokenPair(user)
}

// ValidateToken validates an access token and returns claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// GoogleAuthURL starts the Google sign-in flow.
func (s *AuthService) GoogleAuthURL(_ context.Context) (string, error) {
	if s.google == nil {
		return "", ErrGoogleDisabled
	}
	state, err := s.jwt.GenerateStateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return s.google.AuthCodeURL(state), nil
}

// GoogleLogin completes the Google sign-in flow. The account is found by
// Google ID, then by email (linking it), and created otherwise.
func (s *AuthService) GoogleLogin(ctx context.Context, state, code string) (*domain.User, *domain.TokenPair, error) {
	if s.google == nil {
		return nil, nil, ErrGoogleDisabled
	}
	if err := s.jwt.ValidateStateToken(state); err != nil {
		return nil, nil, ErrInvalidState
	}
	if code == "" {
		return nil, nil, fmt.Errorf("%w: missing code", ErrGoogleExchange)
	}

	profile, err := s.google.Profile(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.findOrCreateGoogleUser(ctx, profile)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *AuthService) findOrCreateGoogleUser(ctx context.Context, profile *domain.GoogleProfile) (*domain.User, error) {
	user, err := s.repo.FindByGoogleID(ctx, profile.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(profile.Email))
	user, err = s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.repo.LinkGoogleID(ctx, user.ID, profile.ID); err != nil {
			return nil, fmt.Errorf("failed to link google account: %w", err)
		}
		googleID := profile.ID
		user.GoogleID = &googleID
		return user, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	username := strings.TrimSpace(profile.Name)
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	googleID := profile.ID
	now := time.Now()
	user = &domain.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		GoogleID:  &googleID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// generateTokenPair generates both access and refresh tokens.
func (s *AuthService) generateTokenPair(user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", ErrInvalidEmail
	}
	// Reject "Name <addr>" forms; only a bare address is accepted.
	if addr.Name != "" || !strings.EqualFold(addr.Address, strings.TrimSpace(email)) {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
