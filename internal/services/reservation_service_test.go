package services

import (
	"context"
	"errors"
	"testing"

	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/smarttransit/seat-booking-backend/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingFlow_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.reserve(t, "2025-06-01", 5, 6)
	assert.Equal(t, int64(560), first.Amount)
	assert.Equal(t, models.BookingStatusPending, first.Status)

	seats, err := env.reservation.OccupiedSeats(ctx, "B1", "2025-06-01")
	require.NoError(t, err)
	assert.Empty(t, seats)

	paid := env.pay(t, first)
	assert.Equal(t, models.BookingStatusPaid, paid.Status)

	seats, err = env.reservation.OccupiedSeats(ctx, "B1", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, seats)

	// Seat 6 is confirmed now, so a new reservation including it is rejected
	_, err = env.reservation.InitReservation(ctx, InitReservationInput{
		BusID: "B1", SeatNumbers: []int{6, 7}, TravelDate: "2025-06-01", Customer: testCustomer(),
	})
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindSeatConflict, appErr.Kind)
	assert.Equal(t, []int{6}, appErr.Seats)
}

func TestPendingRace_ReconciliationRejectsSecondConfirmation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Both reservations pass init because Pending never occupies seats
	first := env.reserve(t, "2025-06-01", 5, 6)
	second := env.reserve(t, "2025-06-01", 6, 7)

	env.pay(t, first)

	_, err := env.payments.VerifyAndFinalize(ctx, signedVerify(second.ID, "order_2", "pay_2"), models.RequestMeta{})
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindSeatConflict, appErr.Kind)
	assert.Equal(t, []int{6}, appErr.Seats)

	stored, err := env.lifecycle.GetBooking(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, stored.Status)
	assert.Nil(t, stored.PaymentID)
	assert.Contains(t, env.publisher.types(), models.BookingEventReconciliationConflict)
}

func TestInitReservation_AmountIsFixedAtCreation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := env.reserve(t, "2025-06-01", 1, 2, 3)
	assert.Equal(t, int64(840), b.Amount)

	_, err := env.fleet.UpdatePrice(ctx, "B1", 500)
	require.NoError(t, err)

	stored, err := env.lifecycle.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(840), stored.Amount)

	paid := env.pay(t, b)
	assert.Equal(t, int64(840), paid.Amount)
}

func TestInitReservation_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input InitReservationInput
		kind  apperror.Kind
		field string
	}{
		{"missing bus", InitReservationInput{SeatNumbers: []int{1}, TravelDate: "2025-06-01", Customer: testCustomer()}, apperror.KindInvalidInput, "busId"},
		{"bad date", InitReservationInput{BusID: "B1", SeatNumbers: []int{1}, TravelDate: "01/06/2025", Customer: testCustomer()}, apperror.KindInvalidInput, "date"},
		{"no seats", InitReservationInput{BusID: "B1", TravelDate: "2025-06-01", Customer: testCustomer()}, apperror.KindInvalidInput, "seatNumbers"},
		{"seat zero", InitReservationInput{BusID: "B1", SeatNumbers: []int{0}, TravelDate: "2025-06-01", Customer: testCustomer()}, apperror.KindInvalidInput, "seatNumbers"},
		{"beyond capacity", InitReservationInput{BusID: "B1", SeatNumbers: []int{41}, TravelDate: "2025-06-01", Customer: testCustomer()}, apperror.KindInvalidInput, "seatNumbers"},
		{"duplicate seat", InitReservationInput{BusID: "B1", SeatNumbers: []int{3, 3}, TravelDate: "2025-06-01", Customer: testCustomer()}, apperror.KindInvalidInput, "seatNumbers"},
		{"missing phone", InitReservationInput{BusID: "B1", SeatNumbers: []int{1}, TravelDate: "2025-06-01", Customer: models.Customer{Email: "a@b.c", Name: "A"}}, apperror.KindInvalidInput, "customerPhone"},
		{"unknown bus", InitReservationInput{BusID: "B404", SeatNumbers: []int{1}, TravelDate: "2025-06-01", Customer: testCustomer()}, apperror.KindBusNotFound, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.reservation.InitReservation(ctx, tc.input)
			require.Error(t, err)
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, tc.kind, appErr.Kind)
			assert.Equal(t, tc.field, appErr.Field)
		})
	}
}

func TestInitReservation_PastDatesAllowed(t *testing.T) {
	env := newTestEnv(t)
	b := env.reserve(t, "2025-01-01", 9)
	assert.Equal(t, models.BookingStatusPending, b.Status)
}

type stubCache struct {
	seats       []int
	hit         bool
	sets        int
	invalidated int
}

func (c *stubCache) Get(context.Context, string, string) ([]int, bool, error) {
	return c.seats, c.hit, nil
}

func (c *stubCache) Set(_ context.Context, _, _ string, seats []int) error {
	c.sets++
	c.seats = seats
	return nil
}

func (c *stubCache) Invalidate(context.Context, string, string) error {
	c.invalidated++
	c.hit = false
	return nil
}

type failingLedger struct {
	BookingLedger
}

func (failingLedger) OccupiedSeats(context.Context, string, string) ([]int, error) {
	return nil, errors.New("connection refused")
}

func TestOccupiedSeats_Cache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cache := &stubCache{}
	svc := NewReservationService(env.store.Buses, env.store.Bookings, cache, env.publisher, quietLogger())

	seats, err := svc.OccupiedSeats(ctx, "B1", "2025-06-01")
	require.NoError(t, err)
	assert.Empty(t, seats)
	assert.Equal(t, 1, cache.sets)

	cache.seats, cache.hit = []int{1, 2}, true
	seats, err = svc.OccupiedSeats(ctx, "B1", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seats)

	// Init ignores the cache and reads the ledger
	_, err = svc.InitReservation(ctx, InitReservationInput{
		BusID: "B1", SeatNumbers: []int{1}, TravelDate: "2025-06-01", Customer: testCustomer(),
	})
	assert.NoError(t, err)
}

func TestOccupiedSeats_StorageFailure(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReservationService(env.store.Buses, failingLedger{env.store.Bookings}, nil, nil, quietLogger())

	_, err := svc.OccupiedSeats(context.Background(), "B1", "2025-06-01")
	assert.True(t, apperror.IsKind(err, apperror.KindStorageUnavailable))

	_, err = svc.OccupiedSeats(context.Background(), "B1", "June 1")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))
}
