package mine

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-paywall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-paywall/internal/lib/apperr"
	"github.com/magabrotheeeer/content-paywall/internal/models"
	"github.com/magabrotheeeer/content-paywall/internal/services/subscription"
)

type SubscriptionServiceMock struct {
	mock.Mock
}

func (m *SubscriptionServiceMock) GetMine(ctx context.Context, identity *models.Identity) (*subscription.Mine, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Mine), args.Error(1)
}

func TestMineHandler_ServeHTTP(t *testing.T) {
	user := &models.Identity{ID: 3, Role: models.RoleUser}

	t.Run("active subscription", func(t *testing.T) {
		svc := new(SubscriptionServiceMock)
		svc.On("GetMine", mock.Anything, user).Return(&subscription.Mine{
			Subscription: &models.Subscription{ID: 9, UserID: 3, PlanType: "monthly", Status: models.StatusActive},
			Active:       true,
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/me", nil)
		req = req.WithContext(middlewarectx.WithIdentity(req.Context(), user))
		rec := httptest.NewRecorder()
		New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data subscription.Mine `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Active)
		assert.Equal(t, models.StatusActive, resp.Data.Subscription.Status)
		svc.AssertExpectations(t)
	})

	t.Run("no subscription", func(t *testing.T) {
		svc := new(SubscriptionServiceMock)
		svc.On("GetMine", mock.Anything, user).Return(&subscription.Mine{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/me", nil)
		req = req.WithContext(middlewarectx.WithIdentity(req.Context(), user))
		rec := httptest.NewRecorder()
		New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"OK","data":{"subscription":null,"active":false}}`, rec.Body.String())
	})

	t.Run("anonymous", func(t *testing.T) {
		svc := new(SubscriptionServiceMock)
		svc.On("GetMine", mock.Anything, (*models.Identity)(nil)).
			Return(nil, apperr.New(apperr.Unauthorized, "login required")).Once()

		rec := httptest.NewRecorder()
		New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
