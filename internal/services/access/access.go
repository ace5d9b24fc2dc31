// Package access принимает решение, может ли пользователь видеть элемент каталога.
//
// Правила проверяются по порядку, срабатывает первое подходящее:
//  1. публичный элемент доступен всем;
//  2. анонимному пользователю закрытый элемент недоступен (нужен вход);
//  3. администратору доступно всё;
//  4. доступно при активной и неистёкшей последней подписке;
//  5. иначе недоступно (нужна подписка).
package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/content-paywall/internal/lib/apperr"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/metrics"
	"github.com/magabrotheeeer/content-paywall/internal/models"
)

const (
	MsgLoginRequired        = "login required"
	MsgSubscriptionRequired = "active subscription required to view this content"
	MsgAdminRequired        = "admin access required"
)

// SubscriptionReader источник последней подписки пользователя.
type SubscriptionReader interface {
	GetLatestSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
}

// Service вычисляет решения о доступе.
type Service struct {
	subs    SubscriptionReader
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New создаёт сервис доступа.
func New(subs SubscriptionReader, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		subs:    subs,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// Decide возвращает nil, если identity может видеть item. Иначе apperr с видом
// Unauthorized (нужен вход) или Forbidden (нужна подписка).
// nil identity означает анонимный запрос.
func (s *Service) Decide(ctx context.Context, identity *models.Identity, item *models.Content) error {
	v := s.viewer(identity)
	return v.decide(ctx, item)
}

// Filter оставляет только элементы, доступные identity. Подписка запрашивается
// не более одного раза и только если среди элементов есть закрытые.
func (s *Service) Filter(ctx context.Context, identity *models.Identity, items []*models.Content) ([]*models.Content, error) {
	v := s.viewer(identity)
	result := make([]*models.Content, 0, len(items))
	for _, item := range items {
		err := v.decide(ctx, item)
		if err == nil {
			result = append(result, item)
			continue
		}
		if k := apperr.KindOf(err); k != apperr.Unauthorized && k != apperr.Forbidden {
			return nil, err
		}
	}
	return result, nil
}

// HasActiveSubscription сообщает, даёт ли последняя подписка пользователя доступ сейчас.
func (s *Service) HasActiveSubscription(ctx context.Context, userID int64) (bool, error) {
	const op = "access.HasActiveSubscription"

	sub, err := s.subs.GetLatestSubscription(ctx, userID)
	if err != nil {
		s.log.Error("failed to load subscription", slog.String("op", op), slog.Int64("user_id", userID), sl.Err(err))
		return false, apperr.Wrap(apperr.Internal, "failed to check subscription", fmt.Errorf("%s: %w", op, err))
	}
	return sub.IsActiveAt(s.now()), nil
}

// RequireRole проверяет роль: анонимному возвращается Unauthorized,
// пользователю с другой ролью - Forbidden.
func RequireRole(identity *models.Identity, role models.Role) error {
	if identity == nil {
		return apperr.New(apperr.Unauthorized, MsgLoginRequired)
	}
	if identity.Role != role {
		if role == models.RoleAdmin {
			return apperr.New(apperr.Forbidden, MsgAdminRequired)
		}
		return apperr.New(apperr.Forbidden, fmt.Sprintf("%s role required", role))
	}
	return nil
}

// viewer хранит результат проверки подписки в пределах одного вызова.
type viewer struct {
	s        *Service
	identity *models.Identity

	checked bool
	active  bool
}

func (s *Service) viewer(identity *models.Identity) *viewer {
	return &viewer{s: s, identity: identity}
}

func (v *viewer) decide(ctx context.Context, item *models.Content) error {
	switch {
	case item.IsPublic:
		v.s.metrics.AccessDecision("allow_public")
		return nil
	case v.identity == nil:
		v.s.metrics.AccessDecision("deny_login")
		return apperr.New(apperr.Unauthorized, MsgLoginRequired)
	case v.identity.IsAdmin():
		v.s.metrics.AccessDecision("allow_admin")
		return nil
	}

	if !v.checked {
		active, err := v.s.HasActiveSubscription(ctx, v.identity.ID)
		if err != nil {
			return err
		}
		v.active = active
		v.checked = true
	}
	if v.active {
		v.s.metrics.AccessDecision("allow_subscription")
		return nil
	}
	v.s.metrics.AccessDecision("deny_subscription")
	return apperr.New(apperr.Forbidden, MsgSubscriptionRequired)
}
