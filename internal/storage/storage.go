// Package storage реализует хранилище пользователей, подписок и каталога
// на основе PostgreSQL. Соединение открывается лениво при первом обращении;
// если строка подключения не задана или база недоступна, чтения
// возвращают пустой результат, а записи - ErrUnavailable.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken email уже зарегистрирован.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUnavailable база данных не настроена или недоступна.
	ErrUnavailable = errors.New("database unavailable")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	log *slog.Logger
	dsn string

	mu sync.Mutex
	db *sql.DB
}

// New создаёт хранилище без подключения к базе.
func New(log *slog.Logger, dsn string) *Storage {
	return &Storage{log: log, dsn: dsn}
}

// NewWithDB оборачивает уже открытое соединение.
func NewWithDB(log *slog.Logger, db *sql.DB) *Storage {
	return &Storage{log: log, db: db}
}

// Configured сообщает, задана ли строка подключения.
func (s *Storage) Configured() bool {
	return s.dsn != "" || s.db != nil
}

// DB возвращает соединение, открывая его при первом вызове.
func (s *Storage) DB(ctx context.Context) (*sql.DB, error) {
	const op = "storage.DB"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}
	if s.dsn == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	db, err := sql.Open("pgx", s.dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	s.db = db
	return s.db, nil
}

// Ping проверяет, что база доступна.
func (s *Storage) Ping(ctx context.Context) error {
	const op = "storage.Ping"

	db, err := s.DB(ctx)
	if err != nil {
		return err
	}
	if err = db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return nil
}

// WaitReady ожидает доступности базы с экспоненциальной задержкой.
func (s *Storage) WaitReady(ctx context.Context, attempts uint64, delay time.Duration) error {
	const op = "storage.WaitReady"

	backoff := retry.WithMaxRetries(attempts, retry.NewExponential(delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.Ping(ctx); err != nil {
			s.log.Debug("database not ready", slog.String("op", op), slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает соединение, если оно было открыто.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// degrade превращает недоступность базы в пустой результат для операций чтения.
func degrade[T any](s *Storage, op string, err error) (T, error) {
	var zero T
	if errors.Is(err, ErrUnavailable) {
		s.log.Warn("database unavailable, returning empty result", slog.String("op", op))
		return zero, nil
	}
	return zero, fmt.Errorf("%s: %w", op, err)
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	return nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}

func stringOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
