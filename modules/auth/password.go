package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the cost used outside of tests.
const DefaultBcryptCost = 12

// Password length bounds. bcrypt ignores input past 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a PasswordHasher with DefaultBcryptCost.
func NewPasswordHasher() *PasswordHasher {
	return NewPasswordHasherWithCost(DefaultBcryptCost)
}

// NewPasswordHasherWithCost creates a PasswordHasher with an explicit cost,
// clamped into bcrypt's accepted range.
func NewPasswordHasherWithCost(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash generates a bcrypt hash of the given password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify checks if the provided password matches the hash. An empty hash
// (an account without a password) never matches.
func (h *PasswordHasher) Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePassword enforces the length bounds.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}
