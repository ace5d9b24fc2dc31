// Package contentupdate реализует частичное обновление элемента каталога.
package contentupdate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/content-paywall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-paywall/internal/http/response"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/models"
)

// Service описывает обновление элемента каталога.
type Service interface {
	UpdateContent(ctx context.Context, identity *models.Identity, id int64, patch models.ContentPatch) (*models.Content, error)
}

// Handler обрабатывает PATCH элемента каталога.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновить элемент каталога
// @Description Только для администратора. Отсутствующие поля не изменяются.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID элемента"
// @Param request body models.ContentPatch true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.Content}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Failure 404 {object} response.ErrorResponse "Не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /admin/content/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.contentupdate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	var patch models.ContentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	updated, err := h.service.UpdateContent(r.Context(), middlewarectx.IdentityFrom(r.Context()), id, patch)
	if err != nil {
		log.Info("content not updated", slog.Int64("id", id), sl.Err(err))
		response.FromError(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(updated))
}
