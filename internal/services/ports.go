package services

import (
	"context"
	"time"

	"github.com/smarttransit/seat-booking-backend/internal/models"
)

// BusStore is the fleet collaborator
type BusStore interface {
	Create(ctx context.Context, bus *models.Bus) error
	GetByID(ctx context.Context, busID string) (*models.Bus, error)
	List(ctx context.Context) ([]models.Bus, error)
	UpdatePrice(ctx context.Context, busID string, price int64) error
}

// BookingLedger is the authoritative booking store
type BookingLedger interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByEmail(ctx context.Context, email string) ([]models.Booking, error)
	OccupiedSeats(ctx context.Context, busID, travelDate string) ([]int, error)
	ListManifest(ctx context.Context, busID, travelDate string) ([]models.Booking, error)
	SummarizeTrips(ctx context.Context, before string) ([]models.TripSummary, error)
	CountStalePending(ctx context.Context, before string) (int, error)
	FinalizePayment(ctx context.Context, bookingID, orderID, paymentID string, paidAt time.Time) (*models.Booking, models.FinalizeOutcome, error)
	TransitionStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.Booking, error)
}

// PaymentAuditLog is the append-only payment audit trail
type PaymentAuditLog interface {
	Record(ctx context.Context, audit *models.PaymentAudit) error
	ListByBooking(ctx context.Context, bookingID string) ([]models.PaymentAudit, error)
}

// OccupancyCache holds advisory occupancy snapshots
type OccupancyCache interface {
	Get(ctx context.Context, busID, travelDate string) ([]int, bool, error)
	Set(ctx context.Context, busID, travelDate string, seats []int) error
	Invalidate(ctx context.Context, busID, travelDate string) error
}

// NoopCache never hits
type NoopCache struct{}

func (NoopCache) Get(context.Context, string, string) ([]int, bool, error) { return nil, false, nil }
func (NoopCache) Set(context.Context, string, string, []int) error         { return nil }
func (NoopCache) Invalidate(context.Context, string, string) error         { return nil }
