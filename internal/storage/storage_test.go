package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-paywall/internal/models"
)

func TestStorage_Unconfigured(t *testing.T) {
	ctx := context.Background()
	s := New(discardLogger(), "")

	assert.False(t, s.Configured())
	require.ErrorIs(t, s.Ping(ctx), ErrUnavailable)

	t.Run("reads degrade to empty", func(t *testing.T) {
		user, err := s.GetUserByEmail(ctx, "a@b.c")
		require.NoError(t, err)
		assert.Nil(t, user)

		byID, err := s.GetUserByID(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, byID)

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)

		latest, err := s.GetLatestSubscription(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, latest)

		byPayment, err := s.GetSubscriptionByPaymentID(ctx, "pay-1")
		require.NoError(t, err)
		assert.Nil(t, byPayment, "unconfigured storage is distinguishable from ErrNotFound")

		subs, err := s.ListSubscriptions(ctx)
		require.NoError(t, err)
		assert.Empty(t, subs)

		items, err := s.ListContent(ctx, false)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("missing content is not found", func(t *testing.T) {
		_, err := s.GetContent(ctx, 1)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("writes fail", func(t *testing.T) {
		email := "a@b.c"
		_, err := s.CreateUser(ctx, models.User{Name: "a", Email: &email})
		require.ErrorIs(t, err, ErrUnavailable)

		_, err = s.CreateSubscription(ctx, models.NewSubscription{UserID: 1, PlanType: "monthly"})
		require.ErrorIs(t, err, ErrUnavailable)

		_, err = s.ActivateByPaymentID(ctx, "1")
		require.ErrorIs(t, err, ErrUnavailable)

		_, err = s.CreateContent(ctx, models.NewContent{Title: "t", URL: "u"})
		require.ErrorIs(t, err, ErrUnavailable)

		require.ErrorIs(t, s.DeleteContent(ctx, 1), ErrUnavailable)
		require.ErrorIs(t, s.SetUserRole(ctx, 1, models.RoleAdmin), ErrUnavailable)

		_, err = s.ExpireOverdue(ctx, time.Now())
		require.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestStorage_CanceledContext(t *testing.T) {
	s := New(discardLogger(), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ListContent(ctx, true)
	require.ErrorIs(t, err, context.Canceled)
}
