// Package users возвращает список пользователей для администратора.
package users

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

// Service описывает получение пользователей.
type Service interface {
	ListUsers(ctx context.Context, identity *models.Identity) ([]*models.User, error)
}

// Handler обрабатывает запрос списка пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Пользователи
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.User}
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users"

	list, err := h.service.ListUsers(r.Context(), middlewarectx.IdentityFrom(r.Context()))
	if err != nil {
		h.log.Info("users not listed",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		response.FromError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.User{}
	}

	render.JSON(w, r, response.OKWithData(list))
}
