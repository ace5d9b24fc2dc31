// Package sender собирает приложение рассылки писем по событиям подписок.
package sender

import (
	"context"
	"errors"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/content-paywall/internal/config"
	"github.com/magabrotheeeer/content-paywall/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/content-paywall/internal/services/sender"
)

// App приложение notification-sender.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New подключается к брокеру и объявляет очереди уведомлений.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.RabbitMQURL == "" {
		return nil, errors.New("notification-sender requires RABBITMQ_URL")
	}
	if cfg.SMTPHost == "" {
		return nil, errors.New("notification-sender requires SMTP_HOST")
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewSenderService(transport, cfg.ProductName, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run читает все очереди уведомлений до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	for _, q := range rabbitmq.GetNotificationQueues() {
		err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, q.QueueName, a.senderService.HandleMessage)
		if err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), sl.Err(err))
			a.close()
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
