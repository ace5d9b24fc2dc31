package list

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-paywall/internal/models"
)

type ContentServiceMock struct {
	mock.Mock
}

func (m *ContentServiceMock) List(ctx context.Context, identity *models.Identity) ([]*models.Content, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Content), args.Error(1)
}

func TestListHandler_ServeHTTP(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		svc := new(ContentServiceMock)
		svc.On("List", mock.Anything, (*models.Identity)(nil)).
			Return([]*models.Content{{ID: 1, Title: "Grátis", IsPublic: true}}, nil).Once()

		rec := httptest.NewRecorder()
		New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/content", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Status string           `json:"status"`
			Data   []models.Content `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.True(t, resp.Data[0].IsPublic)
		svc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		svc := new(ContentServiceMock)
		svc.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

		rec := httptest.NewRecorder()
		New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/content", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
