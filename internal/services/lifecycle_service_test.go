package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/smarttransit/seat-booking-backend/pkg/apperror"
	"github.com/smarttransit/seat-booking-backend/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var owner = Caller{Email: "Asha@Example.com"}

func TestGetBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.reserve(t, "2025-06-01", 5)

	got, err := env.lifecycle.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "asha@example.com", got.CustomerEmail)

	_, err = env.lifecycle.GetBooking(ctx, uuid.NewString())
	assert.True(t, apperror.IsKind(err, apperror.KindBookingNotFound))

	_, err = env.lifecycle.GetBooking(ctx, "garbage")
	assert.True(t, apperror.IsKind(err, apperror.KindBookingNotFound))
}

func TestUserBookings_HidesStalePending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stale := env.reserve(t, "2025-05-01", 1)
	pastPaid := env.pay(t, env.reserve(t, "2025-05-02", 2))
	upcoming := env.reserve(t, "2025-06-01", 3)

	list, err := env.lifecycle.UserBookings(ctx, "ASHA@example.com", false)
	require.NoError(t, err)
	ids := make([]string, len(list))
	for i, b := range list {
		ids[i] = b.ID
	}
	assert.Equal(t, []string{upcoming.ID, pastPaid.ID}, ids)

	all, err := env.lifecycle.UserBookings(ctx, "asha@example.com", true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, stale.ID, all[2].ID)

	_, err = env.lifecycle.UserBookings(ctx, " ", false)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("owner cancels pending", func(t *testing.T) {
		b := env.reserve(t, "2025-06-01", 1)
		cancelled, err := env.lifecycle.Cancel(ctx, b.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
		assert.Contains(t, env.publisher.types(), models.BookingEventCancelled)

		_, err = env.lifecycle.Cancel(ctx, b.ID, owner)
		assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		b := env.reserve(t, "2025-06-01", 2)
		_, err := env.lifecycle.Cancel(ctx, b.ID, Caller{Email: "mallory@example.com"})
		assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
	})

	t.Run("admin cancels", func(t *testing.T) {
		b := env.reserve(t, "2025-06-01", 3)
		_, err := env.lifecycle.Cancel(ctx, b.ID, Caller{Email: "ops@example.com", Roles: []string{jwt.RoleAdmin}})
		assert.NoError(t, err)
	})

	t.Run("paid cannot be cancelled", func(t *testing.T) {
		b := env.pay(t, env.reserve(t, "2025-06-01", 4))
		_, err := env.lifecycle.Cancel(ctx, b.ID, owner)
		assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))
	})
}

func TestBoard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pending := env.reserve(t, "2025-06-01", 1)
	_, err := env.lifecycle.Board(ctx, pending.ID)
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindInvalidTransition, appErr.Kind)
	assert.Equal(t, "booking cannot move from pending to boarded", appErr.Message)

	paid := env.pay(t, env.reserve(t, "2025-06-01", 2))
	boarded, err := env.lifecycle.Board(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusBoarded, boarded.Status)

	// Boarded keeps its seats
	seats, err := env.reservation.OccupiedSeats(ctx, "B1", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, seats)

	_, err = env.lifecycle.Board(ctx, paid.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))
}

func TestRequestRefund(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	upcoming := env.pay(t, env.reserve(t, "2025-06-01", 1))
	_, err := env.lifecycle.RequestRefund(ctx, upcoming.ID, owner)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))

	sameDay := env.pay(t, env.reserve(t, "2025-05-30", 1))
	_, err = env.lifecycle.RequestRefund(ctx, sameDay.ID, owner)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))

	past := env.pay(t, env.reserve(t, "2025-05-20", 7))
	refund, err := env.lifecycle.RequestRefund(ctx, past.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusRefundPending, refund.Status)

	seats, err := env.reservation.OccupiedSeats(ctx, "B1", "2025-05-20")
	require.NoError(t, err)
	assert.Empty(t, seats)

	// A refund-pending booking still answers payment callbacks with success
	res, err := env.payments.VerifyAndFinalize(ctx, signedVerify(past.ID, "o", "p"), models.RequestMeta{})
	require.NoError(t, err)
	assert.True(t, res.Duplicate)

	pending := env.reserve(t, "2025-05-20", 8)
	_, err = env.lifecycle.RequestRefund(ctx, pending.ID, owner)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))
}

func TestTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pending := env.reserve(t, "2025-06-01", 1)
	_, _, err := env.lifecycle.Ticket(ctx, pending.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))

	paid := env.pay(t, pending)
	pdf, filename, err := env.lifecycle.Ticket(ctx, paid.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Contains(t, filename, paid.ID)
}
