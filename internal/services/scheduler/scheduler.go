// Package scheduler периодически переводит истёкшие подписки в статус expired
// и публикует события для рассылки уведомлений. Доступ от него не зависит:
// истечение проверяется при каждом чтении.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/content-paywall/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/metrics"
	"github.com/magabrotheeeer/content-paywall/internal/models"
)

// SubscriptionRepository хранилище подписок.
type SubscriptionRepository interface {
	ExpireOverdue(ctx context.Context, now time.Time) ([]*models.Subscription, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// EventPublisher публикует события о подписках.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SchedulerService задача истечения подписок.
type SchedulerService struct {
	repo      SubscriptionRepository
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService. publisher может быть nil.
func NewSchedulerService(repo SubscriptionRepository, publisher EventPublisher, m *metrics.Metrics, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// Run выполняет проход сразу и затем по расписанию schedule (формат cron или @every).
// Блокируется до отмены ctx и дожидается завершения текущего прохода.
func (s *SchedulerService) Run(ctx context.Context, schedule string) error {
	const op = "scheduler.Run"

	logger := cronLogger{log: s.log}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(schedule, func() { s.sweep(ctx) }); err != nil {
		return fmt.Errorf("%s: invalid schedule %q: %w", op, schedule, err)
	}

	s.sweep(ctx)
	c.Start()
	s.log.Info("expiry sweep scheduled", slog.String("schedule", schedule))

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("expiry sweep stopped")
	return nil
}

func (s *SchedulerService) sweep(ctx context.Context) {
	if _, err := s.ExpireOverdue(ctx); err != nil {
		s.log.Error("expiry sweep failed", sl.Err(err))
	}
}

// ExpireOverdue переводит просроченные активные подписки в expired и
// публикует по событию на каждую. Возвращает число изменённых записей.
func (s *SchedulerService) ExpireOverdue(ctx context.Context) (int, error) {
	const op = "scheduler.ExpireOverdue"

	expired, err := s.repo.ExpireOverdue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.Expired(len(expired))
	if len(expired) == 0 {
		s.log.Debug("no overdue subscriptions")
		return 0, nil
	}
	s.log.Info("subscriptions expired", slog.Int("count", len(expired)))

	if s.publisher == nil {
		return len(expired), nil
	}
	for _, sub := range expired {
		event := models.SubscriptionEvent{
			SubscriptionID: sub.ID,
			UserID:         sub.UserID,
			PlanType:       sub.PlanType,
			Status:         sub.Status,
			ExpiresAt:      sub.ExpiresAt,
		}
		user, err := s.repo.GetUserByID(ctx, sub.UserID)
		if err != nil {
			s.log.Warn("failed to load user for event", slog.Int64("user_id", sub.UserID), sl.Err(err))
		}
		if user != nil {
			event.Email = user.EmailOrEmpty()
			event.Name = user.Name
		}
		if err = s.publisher.Publish(ctx, rabbitmq.RoutingKeyExpired, event); err != nil {
			s.log.Error("failed to publish message", slog.Int64("subscription_id", sub.ID), sl.Err(err))
		}
	}
	return len(expired), nil
}

// cronLogger передаёт журнал cron в slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, sl.Err(err))...)
}
