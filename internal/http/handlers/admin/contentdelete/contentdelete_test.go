package contentdelete

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/content-paywall/internal/lib/apperr"
	"github.com/magabrotheeeer/content-paywall/internal/models"
)

type AdminServiceMock struct {
	mock.Mock
}

func (m *AdminServiceMock) DeleteContent(ctx context.Context, identity *models.Identity, id int64) error {
	return m.Called(ctx, identity, id).Error(0)
}

func TestContentDeleteHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		err            error
		wantStatusCode int
	}{
		{name: "deleted", path: "/admin/content/2", wantStatusCode: http.StatusOK},
		{name: "missing", path: "/admin/content/3", err: apperr.New(apperr.NotFound, "content not found"), wantStatusCode: http.StatusNotFound},
		{name: "forbidden", path: "/admin/content/4", err: apperr.New(apperr.Forbidden, "admin role required"), wantStatusCode: http.StatusForbidden},
		{name: "bad id", path: "/admin/content/-1", wantStatusCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AdminServiceMock)
			svc.On("DeleteContent", mock.Anything, mock.Anything, mock.Anything).Return(tt.err).Maybe()

			r := chi.NewRouter()
			r.Method(http.MethodDelete, "/admin/content/{id}", New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, tt.path, nil))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
		})
	}
}
