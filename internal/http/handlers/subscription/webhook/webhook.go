// Package webhook принимает уведомления Mercado Pago о платежах.
//
// Тело уведомления содержит только действие и id платежа: статус всегда
// перезапрашивается у провайдера. Неизвестные действия подтверждаются кодом 200,
// чтобы не ломать политику повторов провайдера.
package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-paywall/internal/http/response"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/services/subscription"
)

// Request тело уведомления.
type Request struct {
	Action string `json:"action"`
	Type   string `json:"type"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// Result ответ на уведомление.
type Result struct {
	Outcome subscription.WebhookOutcome `json:"outcome"`
}

// Service обработка уведомления.
type Service interface {
	HandleWebhook(ctx context.Context, n subscription.Notification) (subscription.WebhookOutcome, error)
}

// Verifier проверка подписи уведомления.
type Verifier interface {
	Verify(header, requestID, dataID string) error
}

// Handler обрабатывает уведомления провайдера.
type Handler struct {
	log      *slog.Logger
	service  Service
	verifier Verifier
}

// New создает новый экземпляр Handler. verifier может быть nil, тогда подпись не проверяется.
func New(log *slog.Logger, service Service, verifier Verifier) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		verifier: verifier,
	}
}

// ServeHTTP godoc
// @Summary Вебхук платежей
// @Description Уведомление Mercado Pago. Обрабатываются payment.created и payment.updated, остальные действия игнорируются.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body Request true "Уведомление"
// @Success 200 {object} response.Response{data=Result}
// @Failure 400 {object} response.ErrorResponse "Некорректное уведомление"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 409 {object} response.ErrorResponse "Уведомление уже обрабатывается"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscriptions/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.webhook"

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

	paymentID := parseID(req.Data.ID)
	if paymentID == "" {
		paymentID = r.URL.Query().Get("data.id")
	}

	if h.verifier != nil {
		err := h.verifier.Verify(r.Header.Get("x-signature"), r.Header.Get("x-request-id"), paymentID)
		if err != nil {
			log.Warn("webhook signature rejected", slog.String("payment_id", paymentID), sl.Err(err))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid signature"))
			return
		}
	}

	outcome, err := h.service.HandleWebhook(r.Context(), subscription.Notification{
		Action:    req.Action,
		PaymentID: paymentID,
	})
	if err != nil {
		log.Error("webhook not processed", slog.String("payment_id", paymentID), sl.Err(err))
		response.FromError(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(Result{Outcome: outcome}))
}

// parseID принимает id платежа и как строку, и как число.
func parseID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
