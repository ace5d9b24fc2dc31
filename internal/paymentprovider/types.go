package paymentprovider

import (
	"fmt"
	"strconv"
)

// PaymentStatus статус платежа у провайдера.
type PaymentStatus string

const (
	StatusPending     PaymentStatus = "pending"
	StatusInProcess   PaymentStatus = "in_process"
	StatusApproved    PaymentStatus = "approved"
	StatusRejected    PaymentStatus = "rejected"
	StatusCancelled   PaymentStatus = "cancelled"
	StatusRefunded    PaymentStatus = "refunded"
	StatusChargedBack PaymentStatus = "charged_back"
)

// Failed сообщает, что платёж окончательно не прошёл.
func (s PaymentStatus) Failed() bool {
	return s == StatusRejected || s == StatusCancelled
}

// PixPaymentRequest параметры создания Pix-платежа.
type PixPaymentRequest struct {
	// AmountCents сумма в сентаво.
	AmountCents       int64
	Description       string
	PayerEmail        string
	PayerFirstName    string
	ExternalReference string
}

// Payer плательщик.
type Payer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
}

type createPaymentBody struct {
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description"`
	PaymentMethodID   string  `json:"payment_method_id"`
	Payer             Payer   `json:"payer"`
	NotificationURL   string  `json:"notification_url,omitempty"`
	ExternalReference string  `json:"external_reference,omitempty"`
}

// TransactionData данные Pix для оплаты.
type TransactionData struct {
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
	TicketURL    string `json:"ticket_url,omitempty"`
}

// PointOfInteraction блок ответа с данными Pix.
type PointOfInteraction struct {
	TransactionData TransactionData `json:"transaction_data"`
}

// Payment платёж в ответе провайдера.
type Payment struct {
	ID                 int64              `json:"id"`
	Status             PaymentStatus      `json:"status"`
	StatusDetail       string             `json:"status_detail,omitempty"`
	TransactionAmount  float64            `json:"transaction_amount"`
	ExternalReference  string             `json:"external_reference,omitempty"`
	PointOfInteraction PointOfInteraction `json:"point_of_interaction"`
}

// IDString идентификатор платежа в строковом виде.
func (p *Payment) IDString() string {
	return strconv.FormatInt(p.ID, 10)
}

// APIError ошибка, возвращаемая API провайдера.
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercado pago: %s (status %d, %s)", e.Message, e.StatusCode, e.Code)
}
