package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEventType represents the type of payment event
type PaymentEventType string

const (
	PaymentEventOrderCreated      PaymentEventType = "order_created"
	PaymentEventOrderFailed       PaymentEventType = "order_failed"
	PaymentEventVerified          PaymentEventType = "payment_verified"
	PaymentEventDuplicate         PaymentEventType = "duplicate_callback"
	PaymentEventInvalidSignature  PaymentEventType = "invalid_signature"
	PaymentEventSeatConflict      PaymentEventType = "seat_conflict"
	PaymentEventBookingNotFound   PaymentEventType = "booking_not_found"
	PaymentEventInvalidTransition PaymentEventType = "invalid_transition"
	PaymentEventError             PaymentEventType = "error"
)

// PaymentAudit is an append-only record of a payment event.
// Rows are never updated.
type PaymentAudit struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	BookingID    *string          `json:"bookingId,omitempty" db:"booking_id"`
	OrderID      *string          `json:"orderId,omitempty" db:"order_id"`
	PaymentID    *string          `json:"paymentId,omitempty" db:"payment_id"`
	EventType    PaymentEventType `json:"eventType" db:"event_type"`
	Amount       *int64           `json:"amount,omitempty" db:"amount"`
	Currency     *string          `json:"currency,omitempty" db:"currency"`
	ErrorMessage *string          `json:"errorMessage,omitempty" db:"error_message"`
	IsDuplicate  bool             `json:"isDuplicate" db:"is_duplicate"`
	IPAddress    *string          `json:"ipAddress,omitempty" db:"ip_address"`
	Device       *string          `json:"device,omitempty" db:"device"`
	RequestID    *string          `json:"requestId,omitempty" db:"request_id"`
	CreatedAt    time.Time        `json:"createdAt" db:"created_at"`
}

// RequestMeta carries caller metadata into audit records
type RequestMeta struct {
	IP        string
	Device    string
	RequestID string
}

// NewPaymentAudit creates a new payment audit entry with required fields
func NewPaymentAudit(eventType PaymentEventType) *PaymentAudit {
	return &PaymentAudit{
		ID:        uuid.New(),
		EventType: eventType,
		CreatedAt: time.Now(),
	}
}

// SetBooking sets the booking the event refers to
func (pa *PaymentAudit) SetBooking(id string) *PaymentAudit {
	if id != "" {
		pa.BookingID = &id
	}
	return pa
}

// SetGatewayRefs sets the gateway order and payment identifiers
func (pa *PaymentAudit) SetGatewayRefs(orderID, paymentID string) *PaymentAudit {
	if orderID != "" {
		pa.OrderID = &orderID
	}
	if paymentID != "" {
		pa.PaymentID = &paymentID
	}
	return pa
}

// SetAmount records the charged amount
func (pa *PaymentAudit) SetAmount(amount int64, currency string) *PaymentAudit {
	pa.Amount = &amount
	pa.Currency = &currency
	return pa
}

// SetError sets error information
func (pa *PaymentAudit) SetError(err error) *PaymentAudit {
	if err != nil {
		msg := err.Error()
		pa.ErrorMessage = &msg
	}
	return pa
}

// SetMetadata sets request metadata
func (pa *PaymentAudit) SetMetadata(meta RequestMeta) *PaymentAudit {
	if meta.IP != "" {
		pa.IPAddress = &meta.IP
	}
	if meta.Device != "" {
		pa.Device = &meta.Device
	}
	if meta.RequestID != "" {
		pa.RequestID = &meta.RequestID
	}
	return pa
}

// MarkAsDuplicate marks this event as a duplicate callback
func (pa *PaymentAudit) MarkAsDuplicate() *PaymentAudit {
	pa.IsDuplicate = true
	return pa
}
