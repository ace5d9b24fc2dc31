// Package rabbitmq содержит подключение к RabbitMQ, объявление топологии,
// публикацию и потребление событий подписок.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/streadway/amqp"
)

// Connect подключается к брокеру, повторяя попытки с экспоненциальной задержкой.
func Connect(ctx context.Context, connection string, retries uint64, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection

	backoff := retry.WithMaxRetries(retries, retry.NewExponential(delay))
	err := retry.Do(ctx, backoff, func(_ context.Context) error {
		c, err := amqp.Dial(connection)
		if err != nil {
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return conn, nil
}
