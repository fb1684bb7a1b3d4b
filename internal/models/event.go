package models

import "time"

// BookingEventType names a lifecycle event published for a booking
type BookingEventType string

const (
	BookingEventCreated                BookingEventType = "booking.created"
	BookingEventPaid                   BookingEventType = "booking.paid"
	BookingEventCancelled              BookingEventType = "booking.cancelled"
	BookingEventBoarded                BookingEventType = "booking.boarded"
	BookingEventRefundRequested        BookingEventType = "booking.refund_requested"
	BookingEventReconciliationConflict BookingEventType = "booking.reconciliation_conflict"
)

// BookingEvent is the message published on every lifecycle change
type BookingEvent struct {
	Type          BookingEventType `json:"type"`
	BookingID     string           `json:"bookingId"`
	BusID         string           `json:"busId"`
	TravelDate    string           `json:"date"`
	SeatNumbers   []int            `json:"seatNumbers"`
	Status        BookingStatus    `json:"status"`
	Amount        int64            `json:"amount"`
	CustomerEmail string           `json:"customerEmail"`
	ConflictSeats []int            `json:"conflictSeats,omitempty"`
	OccurredAt    time.Time        `json:"occurredAt"`
}

// NewBookingEvent builds an event snapshot of b
func NewBookingEvent(t BookingEventType, b *Booking) BookingEvent {
	return BookingEvent{
		Type:          t,
		BookingID:     b.ID,
		BusID:         b.BusID,
		TravelDate:    b.TravelDate,
		SeatNumbers:   append([]int(nil), b.SeatNumbers...),
		Status:        b.Status,
		Amount:        b.Amount,
		CustomerEmail: b.CustomerEmail,
		OccurredAt:    time.Now().UTC(),
	}
}

// EventKey partitions events per booking so consumers see them in order
func (e BookingEvent) EventKey() string {
	return e.BookingID
}

func (e BookingEvent) EventType() string {
	return string(e.Type)
}
