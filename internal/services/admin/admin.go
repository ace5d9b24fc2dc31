// Package admin реализует операции администратора: управление каталогом
// и просмотр пользователей и подписок.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/content-paywall/internal/lib/apperr"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/models"
	"github.com/magabrotheeeer/content-paywall/internal/services/access"
	"github.com/magabrotheeeer/content-paywall/internal/storage"
)

const (
	MsgContentNotFound = "content not found"
	MsgBlankTitle      = "title must not be empty"
	MsgBlankURL        = "url must not be empty"
)

// Repository хранилище, доступное администратору.
type Repository interface {
	CreateContent(ctx context.Context, c models.NewContent) (*models.Content, error)
	GetContent(ctx context.Context, id int64) (*models.Content, error)
	UpdateContent(ctx context.Context, id int64, patch models.ContentPatch) (*models.Content, error)
	DeleteContent(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]*models.User, error)
	ListSubscriptions(ctx context.Context) ([]*models.Subscription, error)
}

// AdminService операции администратора. Каждая операция начинается с проверки роли.
type AdminService struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// NewAdminService создаёт новый экземпляр AdminService.
func NewAdminService(repo Repository, log *slog.Logger) *AdminService {
	return &AdminService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// CreateContent добавляет элемент каталога. Пустой тип считается video.
func (s *AdminService) CreateContent(ctx context.Context, identity *models.Identity, c models.NewContent) (*models.Content, error) {
	const op = "admin.CreateContent"
	if err := access.RequireRole(identity, models.RoleAdmin); err != nil {
		return nil, err
	}
	if c.Type == "" {
		c.Type = models.ContentVideo
	}

	created, err := s.repo.CreateContent(ctx, c)
	if err != nil {
		return nil, s.internal(op, "failed to create content", err)
	}
	s.log.Info("content created", slog.String("op", op), slog.Int64("id", created.ID), slog.Int64("admin_id", identity.ID))
	return created, nil
}

// UpdateContent частично обновляет элемент. Пустой патч возвращает элемент без изменений.
// Заголовок и ссылку нельзя сделать пустыми.
func (s *AdminService) UpdateContent(ctx context.Context, identity *models.Identity, id int64, patch models.ContentPatch) (*models.Content, error) {
	const op = "admin.UpdateContent"
	if err := access.RequireRole(identity, models.RoleAdmin); err != nil {
		return nil, err
	}
	if blank(patch.Title) {
		return nil, apperr.New(apperr.BadRequest, MsgBlankTitle)
	}
	if blank(patch.URL) {
		return nil, apperr.New(apperr.BadRequest, MsgBlankURL)
	}

	var (
		updated *models.Content
		err     error
	)
	if patch.Empty() {
		updated, err = s.repo.GetContent(ctx, id)
	} else {
		updated, err = s.repo.UpdateContent(ctx, id, patch)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Wrap(apperr.NotFound, MsgContentNotFound, err)
	}
	if err != nil {
		return nil, s.internal(op, "failed to update content", err)
	}
	s.log.Info("content updated", slog.String("op", op), slog.Int64("id", id), slog.Int64("admin_id", identity.ID))
	return updated, nil
}

// DeleteContent удаляет элемент каталога.
func (s *AdminService) DeleteContent(ctx context.Context, identity *models.Identity, id int64) error {
	const op = "admin.DeleteContent"
	if err := access.RequireRole(identity, models.RoleAdmin); err != nil {
		return err
	}

	err := s.repo.DeleteContent(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.Wrap(apperr.NotFound, MsgContentNotFound, err)
	}
	if err != nil {
		return s.internal(op, "failed to delete content", err)
	}
	s.log.Info("content deleted", slog.String("op", op), slog.Int64("id", id), slog.Int64("admin_id", identity.ID))
	return nil
}

// ListUsers возвращает всех пользователей.
func (s *AdminService) ListUsers(ctx context.Context, identity *models.Identity) ([]*models.User, error) {
	const op = "admin.ListUsers"
	if err := access.RequireRole(identity, models.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, s.internal(op, "failed to list users", err)
	}
	return users, nil
}

// ListSubscriptions возвращает все подписки. Статус просроченных active-записей
// отдаётся как expired.
func (s *AdminService) ListSubscriptions(ctx context.Context, identity *models.Identity) ([]*models.Subscription, error) {
	const op = "admin.ListSubscriptions"
	if err := access.RequireRole(identity, models.RoleAdmin); err != nil {
		return nil, err
	}

	subs, err := s.repo.ListSubscriptions(ctx)
	if err != nil {
		return nil, s.internal(op, "failed to list subscriptions", err)
	}
	now := s.now()
	for _, sub := range subs {
		sub.Status = sub.EffectiveStatus(now)
	}
	return subs, nil
}

func blank(v *string) bool {
	return v != nil && strings.TrimSpace(*v) == ""
}

func (s *AdminService) internal(op, msg string, err error) error {
	s.log.Error(msg, slog.String("op", op), sl.Err(err))
	return apperr.Wrap(apperr.Internal, msg, fmt.Errorf("%s: %w", op, err))
}
