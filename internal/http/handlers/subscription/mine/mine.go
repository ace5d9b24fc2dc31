// Package mine возвращает последнюю подписку текущего пользователя.
package mine

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-paywall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-paywall/internal/http/response"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/models"
	"github.com/magabrotheeeer/content-paywall/internal/services/subscription"
)

// Service описывает получение подписки пользователя.
type Service interface {
	GetMine(ctx context.Context, identity *models.Identity) (*subscription.Mine, error)
}

// Handler обрабатывает запрос подписки текущего пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Моя подписка
// @Description Последняя подписка пользователя и признак действующего доступа.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=subscription.Mine}
// @Failure 401 {object} response.ErrorResponse "Нужен вход"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscriptions/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.mine"

	mine, err := h.service.GetMine(r.Context(), middlewarectx.IdentityFrom(r.Context()))
	if err != nil {
		h.log.Error("failed to get subscription",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		response.FromError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(mine))
}
