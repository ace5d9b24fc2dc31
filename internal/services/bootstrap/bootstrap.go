// Package bootstrap выдаёт роль admin при первоначальной настройке платформы.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/content-paywall/internal/lib/password"
	"github.com/magabrotheeeer/content-paywall/internal/models"
	"github.com/magabrotheeeer/content-paywall/internal/storage"
)

// ErrPasswordRequired новому администратору нужен пароль.
var ErrPasswordRequired = errors.New("password is required to create a new admin")

// Repository хранилище пользователей.
type Repository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	SetUserRole(ctx context.Context, id int64, role models.Role) error
}

// Result итог EnsureAdmin.
type Result struct {
	User    *models.User
	Created bool
}

// BootstrapService создание и повышение администраторов.
type BootstrapService struct {
	repo Repository
	log  *slog.Logger
}

// NewBootstrapService создаёт новый экземпляр BootstrapService.
func NewBootstrapService(repo Repository, log *slog.Logger) *BootstrapService {
	return &BootstrapService{repo: repo, log: log}
}

// EnsureAdmin повышает существующего пользователя до admin или создаёт
// нового администратора. Повторный вызов ничего не меняет.
func (s *BootstrapService) EnsureAdmin(ctx context.Context, email, name, rawPassword string) (*Result, error) {
	const op = "bootstrap.EnsureAdmin"
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user != nil {
		if user.Role != models.RoleAdmin {
			if err = s.repo.SetUserRole(ctx, user.ID, models.RoleAdmin); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			user.Role = models.RoleAdmin
			s.log.Info("user promoted to admin", slog.String("op", op), slog.Int64("user_id", user.ID))
		}
		return &Result{User: user}, nil
	}

	if rawPassword == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrPasswordRequired)
	}
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if name = strings.TrimSpace(name); name == "" {
		name = email
	}
	loginMethod := "email"
	created, err := s.repo.CreateUser(ctx, models.User{
		Name:         name,
		Email:        &email,
		LoginMethod:  &loginMethod,
		Role:         models.RoleAdmin,
		PasswordHash: &hashed,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("admin created", slog.String("op", op), slog.Int64("user_id", created.ID))
	return &Result{User: created, Created: true}, nil
}
