// Package auth содержит логику регистрации, входа и проверки сессионного токена.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/content-paywall/internal/lib/apperr"
	"github.com/magabrotheeeer/content-paywall/internal/lib/jwt"
	"github.com/magabrotheeeer/content-paywall/internal/lib/password"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/models"
	"github.com/magabrotheeeer/content-paywall/internal/storage"
)

const (
	MsgEmailTaken         = "email already registered"
	MsgInvalidCredentials = "invalid email or password"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastSignedIn(ctx context.Context, id int64) error
}

// Session результат успешной регистрации или входа.
type Session struct {
	Token string
	User  *models.Identity
}

// AuthService отвечает за регистрацию, вход и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	log      *slog.Logger

	// dummyHash проверяется для неизвестного email, чтобы время ответа
	// не выдавало существование учётной записи.
	dummyHash string
}

// NewAuthService создаёт новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, log *slog.Logger) (*AuthService, error) {
	dummy, err := password.GetHash("dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("auth.NewAuthService: %w", err)
	}
	return &AuthService{
		users:     users,
		jwtMaker:  jwtMaker,
		log:       log,
		dummyHash: dummy,
	}, nil
}

// Register создаёт пользователя с ролью user и сразу открывает для него сессию.
func (s *AuthService) Register(ctx context.Context, name, email, rawPassword string) (*Session, error) {
	const op = "auth.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to register", fmt.Errorf("%s: %w", op, err))
	}

	loginMethod := "email"
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.CreateUser(ctx, models.User{
		Name:         strings.TrimSpace(name),
		Email:        &email,
		LoginMethod:  &loginMethod,
		Role:         models.RoleUser,
		PasswordHash: &hashed,
	})
	switch {
	case errors.Is(err, storage.ErrEmailTaken):
		return nil, apperr.Wrap(apperr.Conflict, MsgEmailTaken, err)
	case err != nil:
		s.log.Error("failed to create user", slog.String("op", op), sl.Err(err))
		return nil, apperr.Wrap(apperr.Internal, "failed to register", fmt.Errorf("%s: %w", op, err))
	}

	return s.issue(op, user)
}

// Login проверяет пароль и открывает сессию. Неизвестный email и неверный
// пароль неразличимы для вызывающего.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*Session, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Error("failed to load user", slog.String("op", op), sl.Err(err))
		return nil, apperr.Wrap(apperr.Internal, "failed to login", fmt.Errorf("%s: %w", op, err))
	}

	if user == nil || user.PasswordHash == nil {
		_ = password.CompareHash(s.dummyHash, rawPassword)
		return nil, apperr.New(apperr.Unauthorized, MsgInvalidCredentials)
	}
	if err = password.CompareHash(*user.PasswordHash, rawPassword); err != nil {
		return nil, apperr.New(apperr.Unauthorized, MsgInvalidCredentials)
	}

	if err = s.users.TouchLastSignedIn(ctx, user.ID); err != nil {
		s.log.Warn("failed to update last sign in", slog.String("op", op), slog.Int64("user_id", user.ID), sl.Err(err))
	}

	return s.issue(op, user)
}

// Authenticate проверяет токен. Любая ошибка проверки (истёк, подделан,
// подписан другим ключом, некорректен) даёт nil, как для анонимного запроса.
func (s *AuthService) Authenticate(token string) *models.Identity {
	if token == "" {
		return nil
	}
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		s.log.Debug("session token rejected", sl.Err(err))
		return nil
	}
	role := models.Role(claims.Payload.Role)
	if !role.Valid() {
		return nil
	}
	return &models.Identity{
		ID:    claims.Payload.ID,
		Email: claims.Payload.Email,
		Name:  claims.Payload.Name,
		Role:  role,
	}
}

func (s *AuthService) issue(op string, user *models.User) (*Session, error) {
	identity := models.IdentityOf(user)
	token, err := s.jwtMaker.GenerateToken(jwt.Payload{
		ID:    identity.ID,
		Email: identity.Email,
		Name:  identity.Name,
		Role:  string(identity.Role),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to issue session", fmt.Errorf("%s: %w", op, err))
	}
	return &Session{Token: token, User: identity}, nil
}
