package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/content-paywall/internal/migrations"
	"github.com/magabrotheeeer/content-paywall/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testDataFactory создаёт тестовые записи напрямую через SQL.
type testDataFactory struct {
	t       *testing.T
	storage *Storage
}

func newTestDataFactory(t *testing.T, storage *Storage) *testDataFactory {
	return &testDataFactory{t: t, storage: storage}
}

func (f *testDataFactory) createUser(email string, role models.Role) int64 {
	db, err := f.storage.DB(context.Background())
	require.NoError(f.t, err)

	var id int64
	err = db.QueryRow(`INSERT INTO users (name, email, role, password_hash, login_method)
		VALUES ($1, $2, $3, 'salt:hash', 'email') RETURNING id`,
		"user "+email, email, string(role)).Scan(&id)
	require.NoError(f.t, err)
	return id
}

func (f *testDataFactory) createSubscription(userID int64, paymentID string, status models.SubscriptionStatus,
	expiresAt, createdAt time.Time) int64 {
	db, err := f.storage.DB(context.Background())
	require.NoError(f.t, err)

	var id int64
	err = db.QueryRow(`INSERT INTO subscriptions
		(user_id, plan_type, status, payment_id, amount, expires_at, created_at)
		VALUES ($1, 'monthly', $2, $3, 9700, $4, $5) RETURNING id`,
		userID, string(status), paymentID, expiresAt, createdAt).Scan(&id)
	require.NoError(f.t, err)
	return id
}

func (f *testDataFactory) subscriptionStatus(id int64) models.SubscriptionStatus {
	db, err := f.storage.DB(context.Background())
	require.NoError(f.t, err)

	var status string
	require.NoError(f.t, db.QueryRow(`SELECT status FROM subscriptions WHERE id = $1`, id).Scan(&status))
	return models.SubscriptionStatus(status)
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		_ = pgContainer.Terminate(ctx)
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage := New(discardLogger(), dsn)
	t.Cleanup(func() {
		_ = storage.Close()
	})
	require.NoError(t, storage.WaitReady(ctx, 10, 200*time.Millisecond))

	db, err := storage.DB(ctx)
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db))

	return storage
}
