// Package subscription реализует жизненный цикл подписки: создание Pix-платежа
// в статусе pending и подтверждение оплаты по вебхуку провайдера.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/content-paywall/internal/cache"
	"github.com/magabrotheeeer/content-paywall/internal/lib/apperr"
	"github.com/magabrotheeeer/content-paywall/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/metrics"
	"github.com/magabrotheeeer/content-paywall/internal/models"
	"github.com/magabrotheeeer/content-paywall/internal/paymentprovider"
	"github.com/magabrotheeeer/content-paywall/internal/services/access"
	"github.com/magabrotheeeer/content-paywall/internal/storage"
)

const (
	MsgAlreadyActive         = "you already have an active subscription"
	MsgUnknownPlan           = "unknown plan type"
	MsgProviderNotConfigured = "payment provider not configured"
	MsgPaymentFailed         = "failed to create payment"
	MsgPaymentLookupFailed   = "failed to fetch payment"
	MsgWebhookInProgress     = "payment notification is being processed"

	ActionPaymentCreated = "payment.created"
	ActionPaymentUpdated = "payment.updated"

	lockTTL      = 30 * time.Second
	processedTTL = 24 * time.Hour
)

// Repository хранилище подписок и пользователей.
type Repository interface {
	Ping(ctx context.Context) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetLatestSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, sub models.NewSubscription) (*models.Subscription, error)
	GetSubscriptionByPaymentID(ctx context.Context, paymentID string) (*models.Subscription, error)
	ActivateByPaymentID(ctx context.Context, paymentID string) (*models.Subscription, error)
	CancelByPaymentID(ctx context.Context, paymentID string) (*models.Subscription, error)
}

// PaymentProvider внешний платёжный провайдер.
type PaymentProvider interface {
	CreatePixPayment(ctx context.Context, req paymentprovider.PixPaymentRequest) (*paymentprovider.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*paymentprovider.Payment, error)
}

// Cache блокировки и отметки об обработанных платежах.
type Cache interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// EventPublisher публикует события о смене статуса подписки.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Options необязательные зависимости сервиса.
type Options struct {
	Cache       Cache
	Publisher   EventPublisher
	Metrics     *metrics.Metrics
	ProductName string
}

// SubscriptionService реализует жизненный цикл подписки.
type SubscriptionService struct {
	repo        Repository
	provider    PaymentProvider
	cache       Cache
	publisher   EventPublisher
	metrics     *metrics.Metrics
	log         *slog.Logger
	productName string
	now         func() time.Time
}

// NewSubscriptionService создаёт новый экземпляр SubscriptionService.
func NewSubscriptionService(repo Repository, provider PaymentProvider, log *slog.Logger, opts Options) *SubscriptionService {
	return &SubscriptionService{
		repo:        repo,
		provider:    provider,
		cache:       opts.Cache,
		publisher:   opts.Publisher,
		metrics:     opts.Metrics,
		log:         log,
		productName: opts.ProductName,
		now:         time.Now,
	}
}

// Mine последняя подписка пользователя и признак действующего доступа.
type Mine struct {
	Subscription *models.Subscription `json:"subscription"`
	Active       bool                 `json:"active"`
}

// PixPayment данные для оплаты созданной подписки.
type PixPayment struct {
	SubscriptionID  int64     `json:"subscriptionId"`
	PixCode         string    `json:"pixCode"`
	PixQRCodeBase64 string    `json:"pixQrCode"`
	AmountCents     int64     `json:"amountCents"`
	Amount          string    `json:"amount"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// GetMine возвращает последнюю подписку пользователя. Subscription равен nil,
// если подписок нет. Истёкшая подписка со статусом active отдаётся как expired.
func (s *SubscriptionService) GetMine(ctx context.Context, identity *models.Identity) (*Mine, error) {
	const op = "subscription.GetMine"
	if identity == nil {
		return nil, apperr.New(apperr.Unauthorized, access.MsgLoginRequired)
	}

	sub, err := s.repo.GetLatestSubscription(ctx, identity.ID)
	if err != nil {
		s.log.Error("failed to load subscription", slog.String("op", op), sl.Err(err))
		return nil, apperr.Wrap(apperr.Internal, "failed to load subscription", fmt.Errorf("%s: %w", op, err))
	}
	now := s.now()
	if sub != nil {
		sub.Status = sub.EffectiveStatus(now)
	}
	return &Mine{Subscription: sub, Active: sub.IsActiveAt(now)}, nil
}

// CreatePixPayment создаёт Pix-платёж у провайдера и запись подписки в статусе pending.
// Пользователю с действующей подпиской отказывается до обращения к провайдеру.
// Если провайдер вернул ошибку, запись не создаётся.
func (s *SubscriptionService) CreatePixPayment(ctx context.Context, identity *models.Identity, planType string) (*PixPayment, error) {
	const op = "subscription.CreatePixPayment"
	if identity == nil {
		return nil, apperr.New(apperr.Unauthorized, access.MsgLoginRequired)
	}
	log := s.log.With(slog.String("op", op), slog.Int64("user_id", identity.ID), slog.String("plan", planType))

	plan, ok := models.LookupPlan(planType)
	if !ok {
		s.metrics.Payment(planType, "bad_plan")
		return nil, apperr.New(apperr.BadRequest, MsgUnknownPlan)
	}

	latest, err := s.repo.GetLatestSubscription(ctx, identity.ID)
	if err != nil {
		log.Error("failed to load subscription", sl.Err(err))
		return nil, apperr.Wrap(apperr.Internal, "failed to load subscription", fmt.Errorf("%s: %w", op, err))
	}
	if latest.IsActiveAt(s.now()) {
		s.metrics.Payment(plan.Code, "already_active")
		return nil, apperr.New(apperr.BadRequest, MsgAlreadyActive)
	}

	if err = s.repo.Ping(ctx); err != nil {
		log.Error("database unavailable", sl.Err(err))
		s.metrics.Payment(plan.Code, "db_unavailable")
		return nil, apperr.Wrap(apperr.Internal, "database unavailable", fmt.Errorf("%s: %w", op, err))
	}

	payment, err := s.provider.CreatePixPayment(ctx, paymentprovider.PixPaymentRequest{
		AmountCents:       plan.AmountCents(),
		Description:       s.description(plan),
		PayerEmail:        identity.Email,
		PayerFirstName:    identity.Name,
		ExternalReference: fmt.Sprintf("user-%d-%s", identity.ID, plan.Code),
	})
	if err != nil {
		log.Error("failed to create pix payment", sl.Err(err))
		s.metrics.Payment(plan.Code, "provider_error")
		if errors.Is(err, paymentprovider.ErrNotConfigured) {
			return nil, apperr.Wrap(apperr.Internal, MsgProviderNotConfigured, err)
		}
		return nil, apperr.Wrap(apperr.Internal, MsgPaymentFailed, fmt.Errorf("%s: %w", op, err))
	}

	pix := payment.PointOfInteraction.TransactionData
	created, err := s.repo.CreateSubscription(ctx, models.NewSubscription{
		UserID:    identity.ID,
		PlanType:  plan.Code,
		PaymentID: payment.IDString(),
		PixCode:   pix.QRCode,
		PixQRCode: pix.QRCodeBase64,
		Amount:    plan.AmountCents(),
		ExpiresAt: plan.ExpiresAt(s.now()),
	})
	if err != nil {
		log.Error("failed to save subscription", slog.String("payment_id", payment.IDString()), sl.Err(err))
		s.metrics.Payment(plan.Code, "db_error")
		return nil, apperr.Wrap(apperr.Internal, "failed to save subscription", fmt.Errorf("%s: %w", op, err))
	}

	s.metrics.Payment(plan.Code, "created")
	log.Info("pix payment created", slog.Int64("subscription_id", created.ID), slog.String("payment_id", payment.IDString()))

	result := &PixPayment{
		SubscriptionID:  created.ID,
		PixCode:         pix.QRCode,
		PixQRCodeBase64: pix.QRCodeBase64,
		AmountCents:     created.Amount,
		Amount:          plan.Price.StringFixed(2),
	}
	if created.ExpiresAt != nil {
		result.ExpiresAt = *created.ExpiresAt
	}
	return result, nil
}

func (s *SubscriptionService) description(plan models.Plan) string {
	if s.productName == "" {
		return "Assinatura " + plan.Label
	}
	return fmt.Sprintf("Assinatura %s - %s", plan.Label, s.productName)
}

// WebhookOutcome итог обработки уведомления.
type WebhookOutcome string

const (
	OutcomeIgnored   WebhookOutcome = "ignored"
	OutcomeActivated WebhookOutcome = "activated"
	OutcomeCancelled WebhookOutcome = "cancelled"
	OutcomePending   WebhookOutcome = "pending"
	OutcomeNoop      WebhookOutcome = "noop"
	OutcomeUnknown   WebhookOutcome = "unknown"
)

// Notification уведомление провайдера о платеже.
type Notification struct {
	Action    string
	PaymentID string
}

// HandleWebhook обрабатывает уведомление о платеже. Обрабатываются только
// payment.created и payment.updated, остальные действия подтверждаются без
// побочных эффектов. Статус из уведомления не используется: платёж
// перезапрашивается у провайдера, и только для платежей, по которым есть
// подписка в статусе pending. Повторная доставка ничего не меняет.
func (s *SubscriptionService) HandleWebhook(ctx context.Context, n Notification) (WebhookOutcome, error) {
	const op = "subscription.HandleWebhook"

	if n.Action != ActionPaymentCreated && n.Action != ActionPaymentUpdated {
		s.metrics.Webhook(n.Action, string(OutcomeIgnored))
		return OutcomeIgnored, nil
	}
	if n.PaymentID == "" {
		return "", apperr.New(apperr.BadRequest, "payment id is required")
	}
	log := s.log.With(slog.String("op", op), slog.String("payment_id", n.PaymentID), slog.String("action", n.Action))

	processedKey := "webhook:processed:" + n.PaymentID
	if s.cache != nil {
		var prev WebhookOutcome
		found, err := s.cache.Get(ctx, processedKey, &prev)
		if err != nil {
			log.Warn("failed to read processed marker", sl.Err(err))
		}
		if found {
			s.metrics.Webhook(n.Action, string(OutcomeNoop))
			return OutcomeNoop, nil
		}

		unlock, err := s.cache.Lock(ctx, "webhook:lock:"+n.PaymentID, lockTTL)
		switch {
		case errors.Is(err, cache.ErrLocked):
			return "", apperr.Wrap(apperr.Conflict, MsgWebhookInProgress, err)
		case err != nil:
			log.Warn("failed to acquire webhook lock, continuing without it", sl.Err(err))
		default:
			defer func() {
				if err := unlock(context.WithoutCancel(ctx)); err != nil {
					log.Warn("failed to release webhook lock", sl.Err(err))
				}
			}()
		}
	}

	sub, err := s.repo.GetSubscriptionByPaymentID(ctx, n.PaymentID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Warn("notification for unknown payment")
		s.metrics.Webhook(n.Action, string(OutcomeUnknown))
		return OutcomeUnknown, nil
	case err != nil:
		log.Error("failed to load subscription", sl.Err(err))
		s.metrics.Webhook(n.Action, "error")
		return "", apperr.Wrap(apperr.Internal, "failed to load subscription", fmt.Errorf("%s: %w", op, err))
	case sub == nil:
		// Хранилище не настроено: ошибка заставит провайдера повторить доставку.
		log.Error("database unavailable")
		s.metrics.Webhook(n.Action, "error")
		return "", apperr.New(apperr.Internal, "database unavailable")
	case sub.Status != models.StatusPending:
		s.metrics.Webhook(n.Action, string(OutcomeNoop))
		return OutcomeNoop, nil
	}

	status, err := s.confirmPayment(ctx, n.PaymentID)
	if err != nil {
		log.Error("failed to confirm payment", sl.Err(err))
		s.metrics.Webhook(n.Action, "error")
		return "", err
	}

	outcome, err := s.apply(ctx, n.PaymentID, status)
	if err != nil {
		log.Error("failed to apply payment status", slog.String("status", string(status)), sl.Err(err))
		s.metrics.Webhook(n.Action, "error")
		return "", apperr.Wrap(apperr.Internal, "failed to update subscription", fmt.Errorf("%s: %w", op, err))
	}

	if s.cache != nil && (outcome == OutcomeActivated || outcome == OutcomeCancelled) {
		if err := s.cache.Set(ctx, processedKey, outcome, processedTTL); err != nil {
			log.Warn("failed to store processed marker", sl.Err(err))
		}
	}

	s.metrics.Webhook(n.Action, string(outcome))
	log.Info("payment notification processed", slog.String("status", string(status)), slog.String("outcome", string(outcome)))
	return outcome, nil
}

// confirmPayment перезапрашивает платёж у провайдера и возвращает его статус.
func (s *SubscriptionService) confirmPayment(ctx context.Context, paymentID string) (paymentprovider.PaymentStatus, error) {
	const op = "subscription.confirmPayment"

	payment, err := s.provider.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, paymentprovider.ErrNotConfigured) {
			return "", apperr.Wrap(apperr.Internal, MsgProviderNotConfigured, err)
		}
		return "", apperr.Wrap(apperr.Internal, MsgPaymentLookupFailed, fmt.Errorf("%s: %w", op, err))
	}
	return payment.Status, nil
}

func (s *SubscriptionService) apply(ctx context.Context, paymentID string, status paymentprovider.PaymentStatus) (WebhookOutcome, error) {
	switch {
	case status == paymentprovider.StatusApproved:
		sub, err := s.repo.ActivateByPaymentID(ctx, paymentID)
		if err != nil {
			return "", err
		}
		if sub == nil {
			return OutcomeNoop, nil
		}
		s.publish(ctx, rabbitmq.RoutingKeyActivated, sub)
		return OutcomeActivated, nil
	case status.Failed():
		sub, err := s.repo.CancelByPaymentID(ctx, paymentID)
		if err != nil {
			return "", err
		}
		if sub == nil {
			return OutcomeNoop, nil
		}
		return OutcomeCancelled, nil
	default:
		return OutcomePending, nil
	}
}

// publish отправляет событие; ошибки только логируются.
func (s *SubscriptionService) publish(ctx context.Context, routingKey string, sub *models.Subscription) {
	const op = "subscription.publish"
	if s.publisher == nil {
		return
	}

	event := models.SubscriptionEvent{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		PlanType:       sub.PlanType,
		Status:         sub.Status,
		ExpiresAt:      sub.ExpiresAt,
	}
	user, err := s.repo.GetUserByID(ctx, sub.UserID)
	if err != nil {
		s.log.Warn("failed to load user for event", slog.String("op", op), slog.Int64("user_id", sub.UserID), sl.Err(err))
	}
	if user != nil {
		event.Email = user.EmailOrEmpty()
		event.Name = user.Name
	}

	if err = s.publisher.Publish(ctx, routingKey, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("op", op), slog.String("routing_key", routingKey), sl.Err(err))
	}
}
