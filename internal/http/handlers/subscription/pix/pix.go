// Package pix реализует HTTP-обработчик создания Pix-платежа за подписку.
package pix

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
	"github.com/magabrotheeeer/content-paywall/internal/services/subscription"
)

// Request - план подписки.
type Request struct {
	PlanType string `json:"planType" validate:"required,max=32"`
}

// Service описывает создание платежа.
type Service interface {
	CreatePixPayment(ctx context.Context, identity *models.Identity, planType string) (*subscription.PixPayment, error)
}

// Handler обрабатывает запросы на создание Pix-платежа.
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
// @Summary Оплата подписки через Pix
// @Description Создаёт платёж у провайдера и подписку в статусе pending. Подписка активируется вебхуком.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "План: monthly или yearly"
// @Success 200 {object} response.Response{data=subscription.PixPayment}
// @Failure 400 {object} response.ErrorResponse "Неизвестный план или подписка уже активна"
// @Failure 401 {object} response.ErrorResponse "Нужен вход"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка провайдера"
// @Router /subscriptions/pix [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.pix"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	payment, err := h.service.CreatePixPayment(r.Context(), middlewarectx.IdentityFrom(r.Context()), req.PlanType)
	if err != nil {
		log.Info("pix payment not created", sl.Err(err))
		response.FromError(w, r, err)
		return
	}

	log.Info("pix payment created", slog.Int64("subscription_id", payment.SubscriptionID))
	render.JSON(w, r, response.OKWithData(payment))
}
