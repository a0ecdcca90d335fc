// File: internal/usecase/user_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/domain/ports/repository"
	"subscription-billing/internal/infra/logging"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase is the identity collaborator: account creation, credential
// verification and profile lookup. Token issuance lives at the web boundary.
type UserUseCase interface {
	Register(ctx context.Context, email, name, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	Profile(ctx context.Context, userID string) (*model.User, error)
}

type userUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, logger *zerolog.Logger) *userUC {
	l := logger.With().Str("component", "UserUC").Logger()
	return &userUC{users: users, log: &l}
}

func (u *userUC) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Register")()

	if len(password) < 8 {
		return nil, domain.ErrInvalidArgument
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := model.NewUser(uuid.NewString(), email, name, hash)
	if err != nil {
		return nil, err
	}

	if err := u.users.Save(ctx, repository.NoTX, user); err != nil {
		return nil, err
	}
	u.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (u *userUC) Login(ctx context.Context, email, password string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Login")()

	user, err := u.users.FindByEmail(ctx, repository.NoTX, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (u *userUC) Profile(ctx context.Context, userID string) (*model.User, error) {
	return u.users.FindByID(ctx, repository.NoTX, userID)
}
