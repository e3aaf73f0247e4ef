package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/entity"
	"github.com/joseph-ayodele/dipex/internal/repository"
)

// UserService handles the little user management the CLIs need.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, logger: logger}
}

// EnsureUser returns the user with email, creating it with name when missing.
func (s *UserService) EnsureUser(ctx context.Context, email, name string) (entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	v := common.NewValidator()
	v.Field("email", email, common.Required, common.MaxLength(255))
	v.Field("name", name, common.Required, common.MaxLength(255))
	if err := common.ValidateAndReturnError(v); err != nil {
		return entity.User{}, err
	}
	if !strings.Contains(email, "@") {
		return entity.User{}, common.ValidationFailed("email must contain @", nil)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return entity.User{}, err
	}

	u = entity.User{Email: email, Name: name}
	if err := s.users.Create(ctx, &u); err != nil {
		return entity.User{}, err
	}
	s.logger.Info("user created", "user_id", u.ID, "email", email)
	return u, nil
}
