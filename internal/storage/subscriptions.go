package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/content-paywall/internal/models"
)

const subscriptionColumns = `id, user_id, plan_type, status, payment_id, pix_code, pix_qr_code,
		amount, expires_at, created_at, updated_at`

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		sub                       models.Subscription
		paymentID, pixCode, pixQR sql.NullString
		expiresAt                 sql.NullTime
	)
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.PlanType, &sub.Status, &paymentID, &pixCode, &pixQR,
		&sub.Amount, &expiresAt, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	sub.PaymentID = nullString(paymentID)
	sub.PixCode = nullString(pixCode)
	sub.PixQRCode = nullString(pixQR)
	sub.ExpiresAt = nullTime(expiresAt)
	return &sub, nil
}

func scanSubscriptions(rows *sql.Rows) ([]*models.Subscription, error) {
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateSubscription сохраняет подписку в статусе pending.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.NewSubscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO subscriptions (user_id, plan_type, status, payment_id, pix_code,
				  pix_qr_code, amount, expires_at)
			  VALUES ($1, $2, 'pending', $3, $4, $5, $6, $7)
			  RETURNING ` + subscriptionColumns
	created, err := scanSubscription(db.QueryRowContext(ctx, query,
		sub.UserID, sub.PlanType, stringOrNil(sub.PaymentID), stringOrNil(sub.PixCode),
		stringOrNil(sub.PixQRCode), sub.Amount, sub.ExpiresAt))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetLatestSubscription возвращает последнюю созданную подписку пользователя.
// Если подписок нет, возвращает nil без ошибки.
func (s *Storage) GetLatestSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	const op = "storage.GetLatestSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return degrade[*models.Subscription](s, op, err)
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_id = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT 1`
	sub, err := scanSubscription(db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// GetSubscriptionByPaymentID возвращает подписку по идентификатору платежа.
func (s *Storage) GetSubscriptionByPaymentID(ctx context.Context, paymentID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByPaymentID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return degrade[*models.Subscription](s, op, err)
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE payment_id = $1`
	sub, err := scanSubscription(db.QueryRowContext(ctx, query, paymentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// ActivateByPaymentID переводит подписку из pending в active.
// Возвращает nil, если подходящей записи в статусе pending нет.
func (s *Storage) ActivateByPaymentID(ctx context.Context, paymentID string) (*models.Subscription, error) {
	const op = "storage.ActivateByPaymentID"
	return s.transitionByPaymentID(ctx, op, paymentID, models.StatusPending, models.StatusActive)
}

// CancelByPaymentID переводит подписку из pending в cancelled.
// Возвращает nil, если подходящей записи в статусе pending нет.
func (s *Storage) CancelByPaymentID(ctx context.Context, paymentID string) (*models.Subscription, error) {
	const op = "storage.CancelByPaymentID"
	return s.transitionByPaymentID(ctx, op, paymentID, models.StatusPending, models.StatusCancelled)
}

func (s *Storage) transitionByPaymentID(ctx context.Context, op, paymentID string,
	from, to models.SubscriptionStatus) (*models.Subscription, error) {
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE subscriptions
			  SET status = $1, updated_at = NOW()
			  WHERE payment_id = $2 AND status = $3
			  RETURNING ` + subscriptionColumns
	sub, err := scanSubscription(db.QueryRowContext(ctx, query, string(to), paymentID, string(from)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// ListSubscriptions возвращает все подписки, новые первыми.
func (s *Storage) ListSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return degrade[[]*models.Subscription](s, op, err)
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions ORDER BY created_at DESC, id DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := scanSubscriptions(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ExpireOverdue помечает истёкшие активные подписки статусом expired
// и возвращает изменённые записи.
func (s *Storage) ExpireOverdue(ctx context.Context, now time.Time) ([]*models.Subscription, error) {
	const op = "storage.ExpireOverdue"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE subscriptions
			  SET status = 'expired', updated_at = NOW()
			  WHERE status = 'active' AND expires_at <= $1
			  RETURNING ` + subscriptionColumns
	rows, err := db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := scanSubscriptions(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
