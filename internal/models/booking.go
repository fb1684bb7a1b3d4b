package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TravelDateLayout is the wire and storage layout of a travel date.
// Lexical order of dates in this layout matches chronological order.
const TravelDateLayout = "2006-01-02"

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending       BookingStatus = "pending"
	BookingStatusPaid          BookingStatus = "paid"
	BookingStatusBoarded       BookingStatus = "boarded"
	BookingStatusCancelled     BookingStatus = "cancelled"
	BookingStatusRefundPending BookingStatus = "refund_pending"
)

// validTransitions lists every allowed status edge. Anything missing is forbidden.
var validTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending: {BookingStatusPaid, BookingStatusCancelled},
	BookingStatusPaid:    {BookingStatusBoarded, BookingStatusRefundPending},
}

// CanTransitionTo reports whether the status may move to next
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s BookingStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// HoldsSeats reports whether bookings in this status occupy their seats
func (s BookingStatus) HoldsSeats() bool {
	return s == BookingStatusPaid || s == BookingStatusBoarded
}

// IsFinalized reports whether a payment has already been applied
func (s BookingStatus) IsFinalized() bool {
	return s == BookingStatusPaid || s == BookingStatusBoarded || s == BookingStatusRefundPending
}

// Valid reports whether s is a known status
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusPaid, BookingStatusBoarded,
		BookingStatusCancelled, BookingStatusRefundPending:
		return true
	}
	return false
}

// SeatHoldingStatuses are the statuses counted by occupancy
var SeatHoldingStatuses = []BookingStatus{BookingStatusPaid, BookingStatusBoarded}

// Customer is the authenticated caller a booking is made for
type Customer struct {
	Email string `json:"customerEmail"`
	Name  string `json:"customerName"`
	Phone string `json:"customerPhone"`
}

// Booking is a seat reservation for one bus on one travel date
type Booking struct {
	ID            string        `json:"id" db:"id"`
	BusID         string        `json:"busId" db:"bus_id"`
	SeatNumbers   SeatList      `json:"seatNumbers" db:"seat_numbers"`
	TravelDate    string        `json:"date" db:"travel_date"`
	CustomerEmail string        `json:"customerEmail" db:"customer_email"`
	CustomerName  string        `json:"customerName" db:"customer_name"`
	CustomerPhone string        `json:"customerPhone" db:"customer_phone"`
	Amount        int64         `json:"amount" db:"amount"`
	Status        BookingStatus `json:"status" db:"status"`
	OrderID       *string       `json:"orderId,omitempty" db:"order_id"`
	PaymentID     *string       `json:"paymentId,omitempty" db:"payment_id"`
	PaidAt        *time.Time    `json:"paidAt,omitempty" db:"paid_at"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" db:"updated_at"`
}

// IsStale reports whether a never-paid booking's travel date has passed
func (b *Booking) IsStale(today string) bool {
	return b.Status == BookingStatusPending && b.TravelDate < today
}

// Copy returns a deep copy of the booking
func (b *Booking) Copy() *Booking {
	c := *b
	c.SeatNumbers = append(SeatList(nil), b.SeatNumbers...)
	if b.OrderID != nil {
		v := *b.OrderID
		c.OrderID = &v
	}
	if b.PaymentID != nil {
		v := *b.PaymentID
		c.PaymentID = &v
	}
	if b.PaidAt != nil {
		v := *b.PaidAt
		c.PaidAt = &v
	}
	return &c
}

// ParseTravelDate checks that s is a real calendar date in YYYY-MM-DD form
func ParseTravelDate(s string) (time.Time, error) {
	d, err := time.Parse(TravelDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return d, nil
}

// ValidateSeats checks a requested seat set against a bus capacity
func ValidateSeats(seats []int, capacity int) error {
	if len(seats) == 0 {
		return errors.New("at least one seat is required")
	}
	seen := make(map[int]struct{}, len(seats))
	for _, s := range seats {
		if s <= 0 {
			return fmt.Errorf("seat %d must be a positive number", s)
		}
		if s > capacity {
			return fmt.Errorf("seat %d exceeds bus capacity %d", s, capacity)
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("seat %d is requested more than once", s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

// Errors returned by stores
var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBusNotFound       = errors.New("bus not found")
	ErrStatusChanged     = errors.New("booking status changed concurrently")
	ErrInvalidTransition = errors.New("invalid booking status transition")
)

// SeatConflictError names seats already held by a confirmed booking
type SeatConflictError struct {
	Seats []int
}

func (e *SeatConflictError) Error() string {
	seats := append([]int(nil), e.Seats...)
	sort.Ints(seats)
	parts := make([]string, len(seats))
	for i, s := range seats {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return "seats already booked: " + strings.Join(parts, ", ")
}

// FinalizeOutcome describes what a payment finalization did
type FinalizeOutcome string

const (
	FinalizeApplied   FinalizeOutcome = "applied"
	FinalizeDuplicate FinalizeOutcome = "duplicate"
)
