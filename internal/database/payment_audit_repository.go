package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/seat-booking-backend/internal/models"
)

// PaymentAuditRepository handles payment audit operations
type PaymentAuditRepository struct {
	db *sqlx.DB
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(db *sqlx.DB) *PaymentAuditRepository {
	return &PaymentAuditRepository{db: db}
}

// Record appends a payment audit entry
func (r *PaymentAuditRepository) Record(ctx context.Context, audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_audits (
			id, booking_id, order_id, payment_id, event_type, amount, currency,
			error_message, is_duplicate, ip_address, device, request_id, created_at
		) VALUES (
			:id, :booking_id, :order_id, :payment_id, :event_type, :amount, :currency,
			:error_message, :is_duplicate, :ip_address, :device, :request_id, :created_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, audit); err != nil {
		return fmt.Errorf("failed to insert payment audit: %w", err)
	}
	return nil
}

// ListByBooking returns the audit trail of one booking, oldest first
func (r *PaymentAuditRepository) ListByBooking(ctx context.Context, bookingID string) ([]models.PaymentAudit, error) {
	query := `
		SELECT id, booking_id, order_id, payment_id, event_type, amount, currency,
			error_message, is_duplicate, ip_address, device, request_id, created_at
		FROM payment_audits
		WHERE booking_id = $1
		ORDER BY created_at ASC`

	audits := []models.PaymentAudit{}
	if err := r.db.SelectContext(ctx, &audits, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list payment audits: %w", err)
	}
	return audits, nil
}
