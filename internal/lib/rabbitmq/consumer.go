package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
)

// maxInFlight число одновременно обрабатываемых сообщений.
const maxInFlight = 10

// ConsumerMessage читает очередь queueName и вызывает handler для каждого сообщения.
// Успешно обработанные сообщения подтверждаются, при ошибке возвращаются в очередь.
// Чтение прекращается при отмене ctx или закрытии канала.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string,
	handler func(ctx context.Context, routingKey string, body []byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	go consume(ctx, log.With(slog.String("queue", queueName)), delivery, handler)
	return nil
}

func consume(ctx context.Context, log *slog.Logger, delivery <-chan amqp.Delivery,
	handler func(ctx context.Context, routingKey string, body []byte) error) {
	sem := make(chan struct{}, maxInFlight)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				if err := handler(ctx, d.RoutingKey, d.Body); err != nil {
					log.Error("failed to handle message", slog.String("routing_key", d.RoutingKey), sl.Err(err))
					if nackErr := d.Nack(false, true); nackErr != nil {
						log.Error("failed to nack message", sl.Err(nackErr))
					}
					return
				}
				if ackErr := d.Ack(false); ackErr != nil {
					log.Error("failed to ack message", sl.Err(ackErr))
				}
			}(d)
		case <-ctx.Done():
			return
		}
	}
}
