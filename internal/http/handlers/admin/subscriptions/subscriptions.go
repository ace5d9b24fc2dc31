// Package subscriptions возвращает все подписки для администратора.
package subscriptions

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
)

// Service описывает получение подписок.
type Service interface {
	ListSubscriptions(ctx context.Context, identity *models.Identity) ([]*models.Subscription, error)
}

// Handler обрабатывает запрос списка подписок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подписки
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Subscription}
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Router /admin/subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.subscriptions"

	list, err := h.service.ListSubscriptions(r.Context(), middlewarectx.IdentityFrom(r.Context()))
	if err != nil {
		h.log.Info("subscriptions not listed",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		response.FromError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Subscription{}
	}

	render.JSON(w, r, response.OKWithData(list))
}
