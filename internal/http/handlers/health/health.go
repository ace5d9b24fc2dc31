// Package health отдаёт состояние сервиса и базы данных.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-paywall/internal/http/response"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
)

// Pinger проверка доступности хранилища.
type Pinger interface {
	Configured() bool
	Ping(ctx context.Context) error
}

// Status состояние зависимостей.
type Status struct {
	Database string `json:"database" example:"up"`
}

const (
	StateUp           = "up"
	StateDown         = "down"
	StateUnconfigured = "unconfigured"
)

// Handler обрабатывает /health.
type Handler struct {
	log     *slog.Logger
	db      Pinger
	timeout time.Duration
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, db Pinger) *Handler {
	return &Handler{log: log, db: db, timeout: 2 * time.Second}
}

// ServeHTTP godoc
// @Summary Проверка состояния
// @Description Без базы сервис работает в деградированном режиме, поэтому unconfigured не считается ошибкой.
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response{data=Status}
// @Failure 503 {object} response.Response{data=Status}
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st := Status{Database: StateUnconfigured}
	if h.db.Configured() {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		st.Database = StateUp
		if err := h.db.Ping(ctx); err != nil {
			h.log.Warn("health check failed", slog.String("op", "handlers.health"), sl.Err(err))
			st.Database = StateDown
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Response{Status: response.StatusError, Error: "database unavailable", Data: st})
			return
		}
	}
	render.JSON(w, r, response.OKWithData(st))
}
