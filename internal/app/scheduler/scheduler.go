// Package scheduler собирает фоновое приложение, которое переводит истёкшие
// подписки в статус expired.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/content-paywall/internal/config"
	"github.com/magabrotheeeer/content-paywall/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	schedulerservice "github.com/magabrotheeeer/content-paywall/internal/services/scheduler"
	"github.com/magabrotheeeer/content-paywall/internal/storage"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	schedule         string
	db               *storage.Storage
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

// New создает новый экземпляр приложения планировщика. Без RabbitMQ
// подписки всё равно истекают, но уведомления не отправляются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db := storage.New(logger, cfg.StorageConnectionString)
	if !db.Configured() {
		return nil, errors.New("scheduler requires a database")
	}
	if err := db.WaitReady(ctx, 10, time.Second); err != nil {
		return nil, err
	}

	a := &App{
		schedule: cfg.ExpirySweepSchedule,
		db:       db,
		logger:   logger,
	}

	var publisher schedulerservice.EventPublisher
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		a.conn = conn

		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		a.ch = ch
		publisher = rabbitmq.NewPublisher(ch)
	} else {
		logger.Warn("rabbitmq is not configured, expiry notifications are disabled")
	}

	a.schedulerService = schedulerservice.NewSchedulerService(db, publisher, nil, logger)
	return a, nil
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("scheduler started", slog.String("schedule", a.schedule))
	err := a.schedulerService.Run(ctx, a.schedule)

	a.logger.Info("shutting down scheduler service")
	a.close()
	return err
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
