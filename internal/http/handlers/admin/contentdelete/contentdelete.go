// Package contentdelete реализует удаление элемента каталога.
package contentdelete

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-paywall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-paywall/internal/http/response"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/models"
)

// Service описывает удаление элемента каталога.
type Service interface {
	DeleteContent(ctx context.Context, identity *models.Identity, id int64) error
}

// Handler обрабатывает DELETE элемента каталога.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить элемент каталога
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID элемента"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Failure 404 {object} response.ErrorResponse "Не найден"
// @Router /admin/content/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.contentdelete"

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	if err := h.service.DeleteContent(r.Context(), middlewarectx.IdentityFrom(r.Context()), id); err != nil {
		h.log.Info("content not deleted",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Int64("id", id),
			sl.Err(err),
		)
		response.FromError(w, r, err)
		return
	}

	render.JSON(w, r, response.OK())
}
