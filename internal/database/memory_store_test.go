package database

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPending(t *testing.T, repo *MemoryBookingRepository, busID, date string, seats ...int) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ID:            uuid.NewString(),
		BusID:         busID,
		SeatNumbers:   seats,
		TravelDate:    date,
		CustomerEmail: "asha@example.com",
		CustomerName:  "Asha",
		CustomerPhone: "9876543210",
		Amount:        int64(len(seats)) * 280,
		Status:        models.BookingStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

func TestMemoryBookingRepository_FinalizeAndOccupancy(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Bookings
	ctx := context.Background()

	first := seedPending(t, repo, "B1", "2025-06-01", 5, 6)
	second := seedPending(t, repo, "B1", "2025-06-01", 6, 7)

	seats, err := repo.OccupiedSeats(ctx, "B1", "2025-06-01")
	require.NoError(t, err)
	assert.Empty(t, seats)

	b, outcome, err := repo.FinalizePayment(ctx, first.ID, "order_1", "pay_1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.FinalizeApplied, outcome)
	assert.Equal(t, models.BookingStatusPaid, b.Status)

	seats, err = repo.OccupiedSeats(ctx, "B1", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, seats)

	_, _, err = repo.FinalizePayment(ctx, second.ID, "order_2", "pay_2", time.Now())
	var conflict *models.SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []int{6}, conflict.Seats)

	stored, err := repo.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, stored.Status)
	assert.Nil(t, stored.PaymentID)

	b, outcome, err = repo.FinalizePayment(ctx, first.ID, "order_1", "pay_other", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.FinalizeDuplicate, outcome)
	assert.Equal(t, "pay_1", *b.PaymentID)
}

func TestMemoryBookingRepository_ConcurrentFinalize(t *testing.T) {
	repo := NewMemoryStore().Bookings
	ctx := context.Background()

	const contenders = 20
	ids := make([]string, contenders)
	for i := range ids {
		ids[i] = seedPending(t, repo, "B1", "2025-06-01", 12).ID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, outcome, err := repo.FinalizePayment(ctx, id, fmt.Sprintf("order_%d", i), fmt.Sprintf("pay_%d", i), time.Now())
			if err == nil && outcome == models.FinalizeApplied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}(i, id)
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	seats, err := repo.OccupiedSeats(ctx, "B1", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, []int{12}, seats)
}

func TestMemoryBookingRepository_TransitionStatus(t *testing.T) {
	repo := NewMemoryStore().Bookings
	ctx := context.Background()
	b := seedPending(t, repo, "B1", "2025-06-01", 1)

	_, err := repo.TransitionStatus(ctx, b.ID, models.BookingStatusPending, models.BookingStatusBoarded)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = repo.TransitionStatus(ctx, b.ID, models.BookingStatusPaid, models.BookingStatusBoarded)
	assert.ErrorIs(t, err, models.ErrStatusChanged)

	cancelled, err := repo.TransitionStatus(ctx, b.ID, models.BookingStatusPending, models.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	_, _, err = repo.FinalizePayment(ctx, b.ID, "order", "pay", time.Now())
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = repo.TransitionStatus(ctx, "missing", models.BookingStatusPending, models.BookingStatusCancelled)
	assert.ErrorIs(t, err, models.ErrBookingNotFound)
}

func TestMemoryBookingRepository_Reports(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Buses.Create(ctx, &models.Bus{
		ID: "B1", Name: "Night Rider", Registration: "MH-12-AB-1234", Origin: "Pune", Destination: "Goa",
		DepartureTime: "21:30", Price: 280, Capacity: 40,
	}))

	paidOld := seedPending(t, store.Bookings, "B1", "2025-06-01", 1, 2)
	paidNewer := seedPending(t, store.Bookings, "B1", "2025-06-03", 3)
	seedPending(t, store.Bookings, "B1", "2025-06-02", 4)
	orphan := seedPending(t, store.Bookings, "GONE", "2025-06-02", 9)
	for _, b := range []*models.Booking{paidOld, paidNewer, orphan} {
		_, _, err := store.Bookings.FinalizePayment(ctx, b.ID, "o", "p", time.Now())
		require.NoError(t, err)
	}

	manifest, err := store.Bookings.ListManifest(ctx, "B1", "")
	require.NoError(t, err)
	require.Len(t, manifest, 2)
	assert.Equal(t, "2025-06-03", manifest[0].TravelDate)

	summaries, err := store.Bookings.SummarizeTrips(ctx, "2025-06-03")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "GONE", summaries[0].BusID)
	assert.Nil(t, summaries[0].Bus)
	assert.Equal(t, "2025-06-01", summaries[1].Date)
	assert.Equal(t, int64(560), summaries[1].Revenue)
	assert.Equal(t, 2, summaries[1].Passengers)
	require.NotNil(t, summaries[1].Bus)
	assert.Equal(t, "Night Rider", summaries[1].Bus.Name)

	stale, err := store.Bookings.CountStalePending(ctx, "2025-06-05")
	require.NoError(t, err)
	assert.Equal(t, 1, stale)
}

func TestMemoryBusRepository(t *testing.T) {
	repo := NewMemoryStore().Buses
	ctx := context.Background()
	bus := &models.Bus{ID: "B1", Registration: "MH-12", Price: 280, Capacity: 40, DepartureTime: "21:30"}

	require.NoError(t, repo.Create(ctx, bus))
	assert.ErrorIs(t, repo.Create(ctx, &models.Bus{ID: "B1", Registration: "X"}), ErrDuplicateBus)
	assert.ErrorIs(t, repo.Create(ctx, &models.Bus{ID: "B2", Registration: "mh-12"}), ErrDuplicateBus)

	require.NoError(t, repo.UpdatePrice(ctx, "B1", 300))
	got, err := repo.GetByID(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, int64(300), got.Price)

	assert.ErrorIs(t, repo.UpdatePrice(ctx, "B404", 300), models.ErrBusNotFound)
	_, err = repo.GetByID(ctx, "B404")
	assert.ErrorIs(t, err, models.ErrBusNotFound)
}
