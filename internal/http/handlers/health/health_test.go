package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	configured bool
	err        error
}

func (f fakePinger) Configured() bool { return f.configured }
func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name     string
		db       fakePinger
		wantCode int
		wantBody string
	}{
		{
			name:     "up",
			db:       fakePinger{configured: true},
			wantCode: http.StatusOK,
			wantBody: `{"status":"OK","data":{"database":"up"}}`,
		},
		{
			name:     "unconfigured",
			db:       fakePinger{},
			wantCode: http.StatusOK,
			wantBody: `{"status":"OK","data":{"database":"unconfigured"}}`,
		},
		{
			name:     "down",
			db:       fakePinger{configured: true, err: errors.New("refused")},
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"status":"Error","error":"database unavailable","data":{"database":"down"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), tt.db).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
