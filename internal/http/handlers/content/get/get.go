// Package get реализует HTTP-обработчик для получения элемента каталога по id.
package get

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

// Service описывает получение элемента каталога с проверкой доступа.
type Service interface {
	Get(ctx context.Context, identity *models.Identity, id int64) (*models.Content, error)
}

// Handler обрабатывает запросы на элемент каталога.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Элемент каталога
// @Description Возвращает элемент, если пользователь может его видеть.
// @Tags Content
// @Produce  json
// @Param id path int true "ID элемента"
// @Success 200 {object} response.Response{data=models.Content}
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 401 {object} response.ErrorResponse "Нужен вход"
// @Failure 403 {object} response.ErrorResponse "Нужна подписка"
// @Failure 404 {object} response.ErrorResponse "Не найден"
// @Router /content/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		log.Info("invalid id", slog.String("id", chi.URLParam(r, "id")))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	item, err := h.service.Get(r.Context(), middlewarectx.IdentityFrom(r.Context()), id)
	if err != nil {
		log.Info("content not served", slog.Int64("id", id), sl.Err(err))
		response.FromError(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(item))
}
