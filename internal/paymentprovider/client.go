// Package paymentprovider реализует клиент REST API Mercado Pago
// для создания Pix-платежей и проверки их статуса.
package paymentprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/content-paywall/internal/config"
)

// ErrNotConfigured не задан токен доступа к провайдеру.
var ErrNotConfigured = errors.New("payment provider not configured")

// Client клиент Mercado Pago.
type Client struct {
	http            *resty.Client
	accessToken     string
	notificationURL string
}

// NewClient создаёт клиент по настройкам провайдера.
func NewClient(cfg config.MercadoPago) *Client {
	timeout := cfg.TimeoutProvider
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryCondition)
	if cfg.AccessToken != "" {
		httpClient.SetAuthToken(cfg.AccessToken)
	}

	return &Client{
		http:            httpClient,
		accessToken:     cfg.AccessToken,
		notificationURL: cfg.NotificationURL,
	}
}

// retryCondition повторяет запрос при сетевых ошибках, 429 и 5xx.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}

// Configured сообщает, задан ли токен доступа.
func (c *Client) Configured() bool {
	return c.accessToken != ""
}

// CreatePixPayment создаёт Pix-платёж. Запрос снабжается ключом идемпотентности,
// поэтому повтор после сетевой ошибки не создаёт второй платёж.
func (c *Client) CreatePixPayment(ctx context.Context, req PixPaymentRequest) (*Payment, error) {
	const op = "paymentprovider.CreatePixPayment"
	if !c.Configured() {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	body := createPaymentBody{
		TransactionAmount: decimal.New(req.AmountCents, -2).InexactFloat64(),
		Description:       req.Description,
		PaymentMethodID:   "pix",
		Payer: Payer{
			Email:     req.PayerEmail,
			FirstName: req.PayerFirstName,
		},
		NotificationURL:   c.notificationURL,
		ExternalReference: req.ExternalReference,
	}

	var payment Payment
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Idempotency-Key", uuid.NewString()).
		SetBody(body).
		SetResult(&payment).
		SetError(&APIError{}).
		Post("/v1/payments")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = handleResponse(resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if payment.ID == 0 {
		return nil, fmt.Errorf("%s: response without payment id", op)
	}
	return &payment, nil
}

// GetPayment возвращает актуальное состояние платежа.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	const op = "paymentprovider.GetPayment"
	if !c.Configured() {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	var payment Payment
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&payment).
		SetError(&APIError{}).
		Get("/v1/payments/" + url.PathEscape(paymentID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = handleResponse(resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &payment, nil
}

func handleResponse(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	if apiErr, ok := resp.Error().(*APIError); ok && apiErr != nil && apiErr.Message != "" {
		apiErr.StatusCode = resp.StatusCode()
		return apiErr
	}
	return &APIError{StatusCode: resp.StatusCode(), Code: "unexpected_status", Message: resp.Status()}
}
