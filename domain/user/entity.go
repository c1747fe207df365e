package user

import (
	"time"
)

// User is an account that owns tasks. Accounts created through Google
// sign-in have a GoogleID and no password hash.
type User struct {
	ID           string  `gorm:"primaryKey;type:text"`
	Username     string  `gorm:"not null;type:text"`
	Email        string  `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string  `gorm:"type:text"`
	GoogleID     *string `gorm:"uniqueIndex;type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// TokenPair represents access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims is the identity resolved from a bearer token.
type Claims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// GoogleProfile is the subset of the Google userinfo response used for
// find-or-create.
type GoogleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}
