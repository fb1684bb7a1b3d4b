package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/smarttransit/seat-booking-backend/internal/models"
)

// MemoryStore bundles in-process repositories for development and tests.
// It has the same semantics as the PostgreSQL repositories, with one mutex
// standing in for row locks and the seat_claims unique index.
type MemoryStore struct {
	Buses    *MemoryBusRepository
	Bookings *MemoryBookingRepository
	Audits   *MemoryAuditRepository
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	buses := &MemoryBusRepository{buses: make(map[string]*models.Bus)}
	return &MemoryStore{
		Buses:    buses,
		Bookings: &MemoryBookingRepository{bookings: make(map[string]*memoryBooking), buses: buses},
		Audits:   &MemoryAuditRepository{},
	}
}

// MemoryBusRepository is an in-memory bus store
type MemoryBusRepository struct {
	mu    sync.RWMutex
	buses map[string]*models.Bus
}

// Create inserts a new bus
func (r *MemoryBusRepository) Create(ctx context.Context, bus *models.Bus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.buses[bus.ID]; exists {
		return ErrDuplicateBus
	}
	for _, other := range r.buses {
		if strings.EqualFold(other.Registration, bus.Registration) {
			return ErrDuplicateBus
		}
	}
	now := time.Now()
	bus.CreatedAt, bus.UpdatedAt = now, now
	stored := *bus
	r.buses[bus.ID] = &stored
	return nil
}

// GetByID retrieves a bus by ID
func (r *MemoryBusRepository) GetByID(ctx context.Context, busID string) (*models.Bus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bus, ok := r.buses[busID]
	if !ok {
		return nil, models.ErrBusNotFound
	}
	out := *bus
	return &out, nil
}

// List returns all buses ordered by departure time
func (r *MemoryBusRepository) List(ctx context.Context) ([]models.Bus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	buses := make([]models.Bus, 0, len(r.buses))
	for _, b := range r.buses {
		buses = append(buses, *b)
	}
	sort.Slice(buses, func(i, j int) bool {
		if buses[i].DepartureTime != buses[j].DepartureTime {
			return buses[i].DepartureTime < buses[j].DepartureTime
		}
		return buses[i].ID < buses[j].ID
	})
	return buses, nil
}

// UpdatePrice changes the fare charged to bookings created from now on
func (r *MemoryBusRepository) UpdatePrice(ctx context.Context, busID string, price int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bus, ok := r.buses[busID]
	if !ok {
		return models.ErrBusNotFound
	}
	bus.Price = price
	bus.UpdatedAt = time.Now()
	return nil
}

type memoryBooking struct {
	booking *models.Booking
	seq     int64
}

// MemoryBookingRepository is an in-memory booking ledger
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*memoryBooking
	seq      int64
	buses    *MemoryBusRepository
}

// Create inserts a new pending booking
func (r *MemoryBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	b.CreatedAt, b.UpdatedAt = now, now
	r.seq++
	r.bookings[b.ID] = &memoryBooking{booking: b.Copy(), seq: r.seq}
	return nil
}

// GetByID retrieves a booking by ID
func (r *MemoryBookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.bookings[id]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	return entry.booking.Copy(), nil
}

// ListByEmail returns a customer's bookings, newest first
func (r *MemoryBookingRepository) ListByEmail(ctx context.Context, email string) ([]models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []*memoryBooking
	for _, e := range r.bookings {
		if strings.EqualFold(e.booking.CustomerEmail, email) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	out := make([]models.Booking, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e.booking.Copy())
	}
	return out, nil
}

// heldSeats must be called with the lock held
func (r *MemoryBookingRepository) heldSeats(busID, travelDate, excludeID string) map[int]struct{} {
	held := make(map[int]struct{})
	for id, e := range r.bookings {
		b := e.booking
		if id == excludeID || b.BusID != busID || b.TravelDate != travelDate || !b.Status.HoldsSeats() {
			continue
		}
		for _, s := range b.SeatNumbers {
			held[s] = struct{}{}
		}
	}
	return held
}

// OccupiedSeats returns the seats held by paid or boarded bookings for a trip, ascending
func (r *MemoryBookingRepository) OccupiedSeats(ctx context.Context, busID, travelDate string) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	held := r.heldSeats(busID, travelDate, "")
	seats := make([]int, 0, len(held))
	for s := range held {
		seats = append(seats, s)
	}
	sort.Ints(seats)
	return seats, nil
}

// ListManifest returns paid and boarded bookings for a bus, newest travel date first
func (r *MemoryBookingRepository) ListManifest(ctx context.Context, busID, travelDate string) ([]models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []*memoryBooking
	for _, e := range r.bookings {
		b := e.booking
		if b.BusID != busID || !b.Status.HoldsSeats() {
			continue
		}
		if travelDate != "" && b.TravelDate != travelDate {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].booking.TravelDate != entries[j].booking.TravelDate {
			return entries[i].booking.TravelDate > entries[j].booking.TravelDate
		}
		return entries[i].seq < entries[j].seq
	})

	out := make([]models.Booking, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e.booking.Copy())
	}
	return out, nil
}

// SummarizeTrips aggregates paid and boarded bookings per trip for travel dates before the cutoff
func (r *MemoryBookingRepository) SummarizeTrips(ctx context.Context, before string) ([]models.TripSummary, error) {
	r.mu.RLock()
	type tripKey struct{ busID, date string }
	totals := make(map[tripKey]*models.TripSummary)
	for _, e := range r.bookings {
		b := e.booking
		if !b.Status.HoldsSeats() || b.TravelDate >= before {
			continue
		}
		key := tripKey{b.BusID, b.TravelDate}
		s, ok := totals[key]
		if !ok {
			s = &models.TripSummary{BusID: b.BusID, Date: b.TravelDate}
			totals[key] = s
		}
		s.Revenue += b.Amount
		s.Passengers += len(b.SeatNumbers)
	}
	r.mu.RUnlock()

	summaries := make([]models.TripSummary, 0, len(totals))
	for _, s := range totals {
		if bus, err := r.buses.GetByID(ctx, s.BusID); err == nil {
			s.Bus = &models.BusSummary{
				Name:          bus.Name,
				From:          bus.Origin,
				To:            bus.Destination,
				DepartureTime: bus.DepartureTime,
			}
		}
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Date != summaries[j].Date {
			return summaries[i].Date > summaries[j].Date
		}
		return summaries[i].BusID < summaries[j].BusID
	})
	return summaries, nil
}

// CountStalePending counts never-paid bookings whose travel date is before the cutoff
func (r *MemoryBookingRepository) CountStalePending(ctx context.Context, before string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, e := range r.bookings {
		if e.booking.IsStale(before) {
			count++
		}
	}
	return count, nil
}

// FinalizePayment applies a verified payment to a pending booking atomically
func (r *MemoryBookingRepository) FinalizePayment(ctx context.Context, bookingID, orderID, paymentID string, paidAt time.Time) (*models.Booking, models.FinalizeOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.bookings[bookingID]
	if !ok {
		return nil, "", models.ErrBookingNotFound
	}
	b := entry.booking

	if b.Status.IsFinalized() {
		return b.Copy(), models.FinalizeDuplicate, nil
	}
	if b.Status != models.BookingStatusPending {
		return b.Copy(), "", models.ErrInvalidTransition
	}

	held := r.heldSeats(b.BusID, b.TravelDate, b.ID)
	var conflicts []int
	for _, s := range b.SeatNumbers {
		if _, taken := held[s]; taken {
			conflicts = append(conflicts, s)
		}
	}
	if len(conflicts) > 0 {
		sort.Ints(conflicts)
		return b.Copy(), "", &models.SeatConflictError{Seats: conflicts}
	}

	b.Status = models.BookingStatusPaid
	b.OrderID = &orderID
	b.PaymentID = &paymentID
	b.PaidAt = &paidAt
	b.UpdatedAt = time.Now()
	return b.Copy(), models.FinalizeApplied, nil
}

// TransitionStatus moves a booking from one status to another if it is still in from
func (r *MemoryBookingRepository) TransitionStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.Booking, error) {
	if !from.CanTransitionTo(to) {
		return nil, models.ErrInvalidTransition
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.bookings[id]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	if entry.booking.Status != from {
		return nil, models.ErrStatusChanged
	}
	entry.booking.Status = to
	entry.booking.UpdatedAt = time.Now()
	return entry.booking.Copy(), nil
}

// MemoryAuditRepository is an append-only in-memory payment audit log
type MemoryAuditRepository struct {
	mu     sync.Mutex
	audits []models.PaymentAudit
}

// Record appends a payment audit entry
func (r *MemoryAuditRepository) Record(ctx context.Context, audit *models.PaymentAudit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits = append(r.audits, *audit)
	return nil
}

// ListByBooking returns the audit trail of one booking, oldest first
func (r *MemoryAuditRepository) ListByBooking(ctx context.Context, bookingID string) ([]models.PaymentAudit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.PaymentAudit{}
	for _, a := range r.audits {
		if a.BookingID != nil && *a.BookingID == bookingID {
			out = append(out, a)
		}
	}
	return out, nil
}
