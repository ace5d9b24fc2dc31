package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-paywall/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/content-paywall/internal/metrics"
	"github.com/magabrotheeeer/content-paywall/internal/models"
)

type SubscriptionRepoMock struct {
	mock.Mock
}

func (m *SubscriptionRepoMock) ExpireOverdue(ctx context.Context, now time.Time) ([]*models.Subscription, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *SubscriptionRepoMock) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

var fixedNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestService(repo SubscriptionRepository, pub EventPublisher, m *metrics.Metrics) *SchedulerService {
	svc := NewSchedulerService(repo, pub, m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestSchedulerService_ExpireOverdue(t *testing.T) {
	email := "ana@example.com"
	expiredAt := fixedNow.Add(-time.Hour)
	expired := []*models.Subscription{
		{ID: 1, UserID: 10, PlanType: "monthly", Status: models.StatusExpired, ExpiresAt: &expiredAt},
		{ID: 2, UserID: 11, PlanType: "yearly", Status: models.StatusExpired, ExpiresAt: &expiredAt},
	}

	repo := new(SubscriptionRepoMock)
	pub := new(PublisherMock)
	repo.On("ExpireOverdue", mock.Anything, fixedNow).Return(expired, nil).Once()
	repo.On("GetUserByID", mock.Anything, int64(10)).Return(&models.User{ID: 10, Name: "Ana", Email: &email}, nil).Once()
	repo.On("GetUserByID", mock.Anything, int64(11)).Return(nil, errors.New("db error")).Once()
	pub.On("Publish", mock.Anything, rabbitmq.RoutingKeyExpired, models.SubscriptionEvent{
		SubscriptionID: 1,
		UserID:         10,
		Email:          email,
		Name:           "Ana",
		PlanType:       "monthly",
		Status:         models.StatusExpired,
		ExpiresAt:      &expiredAt,
	}).Return(nil).Once()
	pub.On("Publish", mock.Anything, rabbitmq.RoutingKeyExpired, mock.MatchedBy(func(e models.SubscriptionEvent) bool {
		return e.SubscriptionID == 2 && e.Email == ""
	})).Return(errors.New("broker down")).Once()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	n, err := newTestService(repo, pub, m).ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
	expected := `
# HELP paywall_subscriptions_expired_total Subscriptions marked expired by the sweep job.
# TYPE paywall_subscriptions_expired_total counter
paywall_subscriptions_expired_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "paywall_subscriptions_expired_total"))
}

func TestSchedulerService_ExpireOverdue_NothingToDo(t *testing.T) {
	repo := new(SubscriptionRepoMock)
	repo.On("ExpireOverdue", mock.Anything, fixedNow).Return([]*models.Subscription{}, nil).Once()

	n, err := newTestService(repo, nil, nil).ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	repo.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
}

func TestSchedulerService_ExpireOverdue_RepositoryError(t *testing.T) {
	repo := new(SubscriptionRepoMock)
	repo.On("ExpireOverdue", mock.Anything, fixedNow).Return(nil, errors.New("database unavailable")).Once()

	_, err := newTestService(repo, nil, nil).ExpireOverdue(context.Background())
	assert.Error(t, err)
}

func TestSchedulerService_Run(t *testing.T) {
	t.Run("invalid schedule", func(t *testing.T) {
		repo := new(SubscriptionRepoMock)
		err := newTestService(repo, nil, nil).Run(context.Background(), "not a schedule")
		assert.Error(t, err)
		repo.AssertNotCalled(t, "ExpireOverdue", mock.Anything, mock.Anything)
	})

	t.Run("sweeps on start and stops with context", func(t *testing.T) {
		repo := new(SubscriptionRepoMock)
		swept := make(chan struct{}, 1)
		repo.On("ExpireOverdue", mock.Anything, fixedNow).Return(nil, nil).Run(func(mock.Arguments) {
			select {
			case swept <- struct{}{}:
			default:
			}
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- newTestService(repo, nil, nil).Run(ctx, "@every 1h") }()

		select {
		case <-swept:
		case <-time.After(time.Second):
			t.Fatal("no sweep on start")
		}
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler did not stop")
		}
	})
}
