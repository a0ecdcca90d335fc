package repository

import (
	"context"

	"subscription-billing/internal/domain/model"
)

// UserRepository is the port for the identity store.
type UserRepository interface {
	// Save inserts a user; domain.ErrEmailTaken on a duplicate email.
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
}
