package models

import "time"

// SubscriptionStatus хранимый статус подписки.
type SubscriptionStatus string

const (
	StatusPending   SubscriptionStatus = "pending"
	StatusActive    SubscriptionStatus = "active"
	StatusExpired   SubscriptionStatus = "expired"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription запись о подписке пользователя.
//
// Истечение вычисляется при чтении: запись со статусом active, но с ExpiresAt
// в прошлом, доступа не даёт, даже если статус в базе ещё не обновлён.
type Subscription struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"userId"`
	PlanType  string             `json:"planType"`
	Status    SubscriptionStatus `json:"status"`
	PaymentID *string            `json:"paymentId,omitempty"`
	PixCode   *string            `json:"pixCode,omitempty"`
	PixQRCode *string            `json:"pixQrCode,omitempty"`
	Amount    int64              `json:"amount"`
	ExpiresAt *time.Time         `json:"expiresAt,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// IsActiveAt сообщает, даёт ли подписка доступ в момент now.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	if s == nil || s.Status != StatusActive || s.ExpiresAt == nil {
		return false
	}
	return s.ExpiresAt.After(now)
}

// EffectiveStatus возвращает статус с учётом истечения срока.
func (s *Subscription) EffectiveStatus(now time.Time) SubscriptionStatus {
	if s.Status == StatusActive && !s.IsActiveAt(now) {
		return StatusExpired
	}
	return s.Status
}

// NewSubscription данные для создания подписки в статусе pending.
type NewSubscription struct {
	UserID    int64
	PlanType  string
	PaymentID string
	PixCode   string
	PixQRCode string
	Amount    int64
	ExpiresAt time.Time
}

// SubscriptionEvent сообщение о смене статуса подписки для очереди уведомлений.
type SubscriptionEvent struct {
	SubscriptionID int64              `json:"subscription_id"`
	UserID         int64              `json:"user_id"`
	Email          string             `json:"email"`
	Name           string             `json:"name"`
	PlanType       string             `json:"plan_type"`
	Status         SubscriptionStatus `json:"status"`
	ExpiresAt      *time.Time         `json:"expires_at,omitempty"`
}
