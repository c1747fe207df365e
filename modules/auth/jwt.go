package auth

import (
	"errors"
	"time"

	"github.com/example/todo-app/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// Token types carried in the token_type claim.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	tokenTypeState   = "oauth_state"

	stateTokenDuration = 10 * time.Minute
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	SecretKey            string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	Issuer               string
}

// NewJWTConfig derives the token settings from the auth section of the
// application config.
func NewJWTConfig(cfg config.AuthConfig) JWTConfig {
	return JWTConfig{
		SecretKey:            cfg.JWTSecret,
		AccessTokenDuration:  cfg.AccessTokenDuration,
		RefreshTokenDuration: cfg.RefreshTokenDuration,
		Issuer:               cfg.Issuer,
	}
}

// JWTClaims represents the custom claims for JWT tokens.
type JWTClaims struct {
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token operations.
type JWTManager struct {
	config JWTConfig
}

// NewJWTManager creates a new JWTManager with the given configuration.
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{
		config: config,
	}
}

// GenerateAccessToken generates a new access token for the given identity.
func (m *JWTManager) GenerateAccessToken(userID, email, username string) (string, error) {
	return m.sign(JWTClaims{UserID: userID, Email: email, Username: username, TokenType: tokenTypeAccess},
		userID, m.config.AccessTokenDuration)
}

// GenerateRefreshToken generates a new refresh token for the given identity.
func (m *JWTManager) GenerateRefreshToken(userID, email, username string) (string, error) {
	return m.sign(JWTClaims{UserID: userID, Email: email, Username: username, TokenType: tokenTypeRefresh},
		userID, m.config.RefreshTokenDuration)
}

// GenerateStateToken issues the short-lived, self-verifying state value for
// the OAuth round trip.
func (m *JWTManager) GenerateStateToken() (string, error) {
	return m.sign(JWTClaims{TokenType: tokenTypeState}, uuid.New().String(), stateTokenDuration)
}

func (m *JWTManager) sign(claims JWTClaims, subject string, duration time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    m.config.Issuer,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// ValidateToken validates the token and returns the claims if valid.
func (m *JWTManager) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.SecretKey), nil
	}, jwt.WithIssuer(m.config.Issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (m *JWTManager) validateType(tokenString, tokenType string) (*JWTClaims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccessToken validates an access token.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	claims, err := m.validateType(tokenString, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateRefreshToken validates a refresh token.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	return m.validateType(tokenString, tokenTypeRefresh)
}

// ValidateStateToken validates an OAuth state value.
func (m *JWTManager) ValidateStateToken(tokenString string) error {
	_, err := m.validateType(tokenString, tokenTypeState)
	return err
}

// AccessTokenDuration returns the access token duration in seconds.
func (m *JWTManager) AccessTokenDuration() int64 {
	return int64(m.config.AccessTokenDuration.Seconds())
}
