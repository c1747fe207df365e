package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
	}{
		{name: "simple password", password: "password123"},
		{name: "complex password", password: "P@ssw0rd!#$%^&*()"},
		{name: "unicode password", password: "密码123密码"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			if hash == "" || hash == tt.password {
				t.Fatalf("Hash() = %q, want a bcrypt hash", hash)
			}
			if !hasher.Verify(tt.password, hash) {
				t.Error("Verify() returned false for correct password")
			}
			if hasher.Verify(tt.password+"x", hash) {
				t.Error("Verify() returned true for wrong password")
			}
		})
	}
}

func TestPasswordHasher_EmptyHashNeverMatches(t *testing.T) {
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)
	if hasher.Verify("", "") {
		t.Error("Verify() matched an empty hash")
	}
	if hasher.Verify("anything", "") {
		t.Error("Verify() matched an empty hash")
	}
}

func TestPasswordHasher_UniqueHashes(t *testing.T) {
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)

	hash1, err := hasher.Hash("samepassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	hash2, err := hasher.Hash("samepassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// salted
	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password")
	}
}

func TestNewPasswordHasherWithCost_Clamps(t *testing.T) {
	if got := NewPasswordHasherWithCost(1).cost; got != bcrypt.MinCost {
		t.Errorf("cost = %d, want %d", got, bcrypt.MinCost)
	}
	if got := NewPasswordHasherWithCost(99).cost; got != bcrypt.MaxCost {
		t.Errorf("cost = %d, want %d", got, bcrypt.MaxCost)
	}
	if got := NewPasswordHasher().cost; got != DefaultBcryptCost {
		t.Errorf("cost = %d, want %d", got, DefaultBcryptCost)
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "8 characters exactly", password: "12345678"},
		{name: "more than 8 characters", password: "password123"},
		{name: "7 characters", password: "1234567", wantErr: ErrWeakPassword},
		{name: "empty password", password: "", wantErr: ErrWeakPassword},
		{name: "72 characters exactly", password: strings.Repeat("a", 72)},
		{name: "73 characters", password: strings.Repeat("a", 73), wantErr: ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePassword(tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePassword() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
