// Package content отдаёт каталог с учётом прав доступа.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/content-paywall/internal/lib/apperr"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/models"
	"github.com/magabrotheeeer/content-paywall/internal/storage"
)

// MsgNotFound сообщение для отсутствующего элемента.
const MsgNotFound = "content not found"

// Repository источник элементов каталога.
type Repository interface {
	GetContent(ctx context.Context, id int64) (*models.Content, error)
	ListContent(ctx context.Context, publicOnly bool) ([]*models.Content, error)
}

// Access решение о доступе к элементу.
type Access interface {
	Decide(ctx context.Context, identity *models.Identity, item *models.Content) error
	Filter(ctx context.Context, identity *models.Identity, items []*models.Content) ([]*models.Content, error)
}

// ContentService каталог для пользователей.
type ContentService struct {
	repo   Repository
	access Access
	log    *slog.Logger
}

// NewContentService создаёт новый экземпляр ContentService.
func NewContentService(repo Repository, access Access, log *slog.Logger) *ContentService {
	return &ContentService{
		repo:   repo,
		access: access,
		log:    log,
	}
}

// List возвращает элементы, которые identity может видеть. Анонимному
// пользователю отдаются только публичные элементы.
func (s *ContentService) List(ctx context.Context, identity *models.Identity) ([]*models.Content, error) {
	const op = "content.List"

	items, err := s.repo.ListContent(ctx, identity == nil)
	if err != nil {
		s.log.Error("failed to list content", slog.String("op", op), sl.Err(err))
		return nil, apperr.Wrap(apperr.Internal, "failed to list content", fmt.Errorf("%s: %w", op, err))
	}
	return s.access.Filter(ctx, identity, items)
}

// Get возвращает элемент id, если identity может его видеть.
func (s *ContentService) Get(ctx context.Context, identity *models.Identity, id int64) (*models.Content, error) {
	const op = "content.Get"

	item, err := s.repo.GetContent(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Wrap(apperr.NotFound, MsgNotFound, err)
	}
	if err != nil {
		s.log.Error("failed to get content", slog.String("op", op), slog.Int64("id", id), sl.Err(err))
		return nil, apperr.Wrap(apperr.Internal, "failed to get content", fmt.Errorf("%s: %w", op, err))
	}

	if err = s.access.Decide(ctx, identity, item); err != nil {
		return nil, err
	}
	return item, nil
}
