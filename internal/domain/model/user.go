package model

import (
	"strings"
	"time"

	"subscription-billing/internal/domain"
)

// User is an account in the identity store. PasswordHash is a bcrypt hash and
// is never serialized outward.
type User struct {
	ID           string // UUID
	Email        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser validates and constructs a user.
func NewUser(id, email, name string, passwordHash []byte) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if id == "" || email == "" || !strings.Contains(email, "@") || len(passwordHash) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
