// Package cache содержит обёртку над redis: JSON-значения с TTL
// и короткие распределённые блокировки.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/content-paywall/internal/config"
)

// ErrLocked блокировка уже захвачена другим владельцем.
var ErrLocked = errors.New("lock is held")

// unlockScript удаляет ключ, только если он принадлежит владельцу токена.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Cache клиент redis.
type Cache struct {
	Db *redis.Client
}

// InitServer подключается к redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Get читает JSON-значение по ключу. false означает отсутствие ключа.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal([]byte(val), result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет значение в JSON с временем жизни expiration.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = c.Db.Set(ctx, key, jsonData, expiration).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Lock захватывает блокировку key на время ttl. Если блокировка занята,
// возвращает ErrLocked. Возвращаемая функция снимает блокировку, только
// если она всё ещё принадлежит вызывающему.
func (c *Cache) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	const op = "cache.Lock"
	token := uuid.NewString()

	ok, err := c.Db.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrLocked)
	}

	unlock := func(ctx context.Context) error {
		if err := unlockScript.Run(ctx, c.Db, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("cache.Unlock: %w", err)
		}
		return nil
	}
	return unlock, nil
}

// Close закрывает соединение.
func (c *Cache) Close() error {
	return c.Db.Close()
}
