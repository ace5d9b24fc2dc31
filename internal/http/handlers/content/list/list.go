// Package list реализует HTTP-обработчик для получения каталога.
package list

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

// Service описывает получение каталога.
type Service interface {
	List(ctx context.Context, identity *models.Identity) ([]*models.Content, error)
}

// Handler обрабатывает запросы на список элементов каталога.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Каталог
// @Description Возвращает элементы, доступные текущему пользователю. Недоступные элементы не попадают в список целиком.
// @Tags Content
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.Content}
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /content [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	items, err := h.service.List(r.Context(), middlewarectx.IdentityFrom(r.Context()))
	if err != nil {
		log.Error("failed to list content", sl.Err(err))
		response.FromError(w, r, err)
		return
	}

	log.Debug("content listed", slog.Int("count", len(items)))
	render.JSON(w, r, response.OKWithData(items))
}
