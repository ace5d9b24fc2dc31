package access

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-paywall/internal/lib/apperr"
	"github.com/magabrotheeeer/content-paywall/internal/models"
)

type SubscriptionReaderMock struct {
	mock.Mock
}

func (m *SubscriptionReaderMock) GetLatestSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(subs SubscriptionReader) *Service {
	s := New(subs, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func subscription(status models.SubscriptionStatus, expiresAt time.Time) *models.Subscription {
	return &models.Subscription{ID: 1, UserID: 7, Status: status, ExpiresAt: &expiresAt}
}

func TestService_Decide(t *testing.T) {
	user := &models.Identity{ID: 7, Email: "u@example.com", Role: models.RoleUser}
	admin := &models.Identity{ID: 1, Email: "a@example.com", Role: models.RoleAdmin}
	public := &models.Content{ID: 1, IsPublic: true}
	private := &models.Content{ID: 2, IsPublic: false}

	tests := []struct {
		name       string
		identity   *models.Identity
		item       *models.Content
		setupMocks func(m *SubscriptionReaderMock)
		wantKind   apperr.Kind
	}{
		{
			name:     "public item anonymous",
			identity: nil,
			item:     public,
		},
		{
			name:     "public item without subscription",
			identity: user,
			item:     public,
		},
		{
			name:     "private item anonymous",
			identity: nil,
			item:     private,
			wantKind: apperr.Unauthorized,
		},
		{
			name:     "private item admin",
			identity: admin,
			item:     private,
		},
		{
			name:     "active subscription in future",
			identity: user,
			item:     private,
			setupMocks: func(m *SubscriptionReaderMock) {
				m.On("GetLatestSubscription", mock.Anything, int64(7)).
					Return(subscription(models.StatusActive, fixedNow.Add(time.Hour)), nil).Once()
			},
		},
		{
			name:     "active subscription already expired",
			identity: user,
			item:     private,
			setupMocks: func(m *SubscriptionReaderMock) {
				m.On("GetLatestSubscription", mock.Anything, int64(7)).
					Return(subscription(models.StatusActive, fixedNow.Add(-time.Second)), nil).Once()
			},
			wantKind: apperr.Forbidden,
		},
		{
			name:     "pending subscription",
			identity: user,
			item:     private,
			setupMocks: func(m *SubscriptionReaderMock) {
				m.On("GetLatestSubscription", mock.Anything, int64(7)).
					Return(subscription(models.StatusPending, fixedNow.Add(time.Hour)), nil).Once()
			},
			wantKind: apperr.Forbidden,
		},
		{
			name:     "no subscription",
			identity: user,
			item:     private,
			setupMocks: func(m *SubscriptionReaderMock) {
				m.On("GetLatestSubscription", mock.Anything, int64(7)).Return(nil, nil).Once()
			},
			wantKind: apperr.Forbidden,
		},
		{
			name:     "subscription lookup fails",
			identity: user,
			item:     private,
			setupMocks: func(m *SubscriptionReaderMock) {
				m.On("GetLatestSubscription", mock.Anything, int64(7)).Return(nil, errors.New("db error")).Once()
			},
			wantKind: apperr.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := new(SubscriptionReaderMock)
			if tt.setupMocks != nil {
				tt.setupMocks(subs)
			}
			svc := newService(subs)

			err := svc.Decide(context.Background(), tt.identity, tt.item)
			if tt.wantKind == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			}
			subs.AssertExpectations(t)
		})
	}
}

func TestService_Decide_PublicNeverLooksUpSubscription(t *testing.T) {
	subs := new(SubscriptionReaderMock)
	svc := newService(subs)

	user := &models.Identity{ID: 7, Role: models.RoleUser}
	require.NoError(t, svc.Decide(context.Background(), user, &models.Content{IsPublic: true}))
	subs.AssertNotCalled(t, "GetLatestSubscription", mock.Anything, mock.Anything)
}

func TestService_Filter(t *testing.T) {
	items := []*models.Content{
		{ID: 1, IsPublic: true},
		{ID: 2, IsPublic: false},
		{ID: 3, IsPublic: false},
	}

	ids := func(items []*models.Content) []int64 {
		var out []int64
		for _, it := range items {
			out = append(out, it.ID)
		}
		return out
	}

	t.Run("anonymous sees only public", func(t *testing.T) {
		svc := newService(new(SubscriptionReaderMock))
		got, err := svc.Filter(context.Background(), nil, items)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, ids(got))
	})

	t.Run("subscriber sees everything with one lookup", func(t *testing.T) {
		subs := new(SubscriptionReaderMock)
		subs.On("GetLatestSubscription", mock.Anything, int64(7)).
			Return(subscription(models.StatusActive, fixedNow.Add(24*time.Hour)), nil).Once()
		svc := newService(subs)

		got, err := svc.Filter(context.Background(), &models.Identity{ID: 7, Role: models.RoleUser}, items)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, ids(got))
		subs.AssertExpectations(t)
	})

	t.Run("user without subscription sees public", func(t *testing.T) {
		subs := new(SubscriptionReaderMock)
		subs.On("GetLatestSubscription", mock.Anything, int64(7)).Return(nil, nil).Once()
		svc := newService(subs)

		got, err := svc.Filter(context.Background(), &models.Identity{ID: 7, Role: models.RoleUser}, items)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, ids(got))
	})

	t.Run("lookup error propagates", func(t *testing.T) {
		subs := new(SubscriptionReaderMock)
		subs.On("GetLatestSubscription", mock.Anything, int64(7)).Return(nil, errors.New("boom")).Once()
		svc := newService(subs)

		_, err := svc.Filter(context.Background(), &models.Identity{ID: 7, Role: models.RoleUser}, items)
		require.Error(t, err)
		assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	})
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		identity *models.Identity
		wantKind apperr.Kind
	}{
		{name: "anonymous", identity: nil, wantKind: apperr.Unauthorized},
		{name: "user", identity: &models.Identity{ID: 2, Role: models.RoleUser}, wantKind: apperr.Forbidden},
		{name: "admin", identity: &models.Identity{ID: 1, Role: models.RoleAdmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireRole(tt.identity, models.RoleAdmin)
			if tt.wantKind == "" {
				require.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
		})
	}
}
