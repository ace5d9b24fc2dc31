// Package contentcreate реализует HTTP-обработчик добавления элемента каталога.
package contentcreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/content-paywall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-paywall/internal/http/response"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/models"
)

// Service описывает создание элемента каталога.
type Service interface {
	CreateContent(ctx context.Context, identity *models.Identity, c models.NewContent) (*models.Content, error)
}

// Handler обрабатывает запросы на создание элемента каталога.
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
// @Summary Добавить элемент каталога
// @Description Только для администратора. Тип по умолчанию video.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.NewContent true "Элемент каталога"
// @Success 201 {object} response.Response{data=models.Content}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Нужен вход"
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/content [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.contentcreate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.NewContent
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if req.Type == "" {
		req.Type = models.ContentVideo
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	created, err := h.service.CreateContent(r.Context(), middlewarectx.IdentityFrom(r.Context()), req)
	if err != nil {
		log.Info("content not created", sl.Err(err))
		response.FromError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(created))
}
