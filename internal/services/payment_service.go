package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/smarttransit/seat-booking-backend/pkg/apperror"
	"github.com/smarttransit/seat-booking-backend/pkg/events"
	"github.com/smarttransit/seat-booking-backend/pkg/payment"
	"github.com/smarttransit/seat-booking-backend/pkg/sms"
)

// PaymentConfig holds the reconciliation secret and currency
type PaymentConfig struct {
	KeySecret string
	Currency  string
}

// CreateOrderInput asks the gateway for an order. When BookingID is set the
// booking's stored amount is charged and Amount is ignored.
type CreateOrderInput struct {
	Amount    int64
	BookingID string
}

// OrderResult is returned to the client to open checkout. Amount is in paise.
type OrderResult struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	BookingID string `json:"bookingId,omitempty"`
}

// VerifyInput is a gateway checkout callback
type VerifyInput struct {
	OrderID   string
	PaymentID string
	Signature string
	BookingID string
}

// VerifyResult reports the booking after reconciliation
type VerifyResult struct {
	Booking   *models.Booking
	Duplicate bool
}

// PaymentService creates gateway orders and reconciles payment callbacks
type PaymentService struct {
	bookings BookingLedger
	audits   PaymentAuditLog
	gateway  payment.Gateway
	cache    OccupancyCache
	events   events.Publisher
	notifier sms.Gateway
	clock    *Clock
	config   PaymentConfig
	logger   *logrus.Logger
}

func NewPaymentService(
	bookings BookingLedger,
	audits PaymentAuditLog,
	gateway payment.Gateway,
	cache OccupancyCache,
	publisher events.Publisher,
	notifier sms.Gateway,
	clock *Clock,
	config PaymentConfig,
	logger *logrus.Logger,
) *PaymentService {
	if cache == nil {
		cache = NoopCache{}
	}
	if config.Currency == "" {
		config.Currency = "INR"
	}
	return &PaymentService{
		bookings: bookings,
		audits:   audits,
		gateway:  gateway,
		cache:    cache,
		events:   publisher,
		notifier: notifier,
		clock:    clock,
		config:   config,
		logger:   logger,
	}
}

// ============================================================================
// ORDER CREATION
// ============================================================================

// CreateOrder opens a gateway order for an amount in rupees
func (s *PaymentService) CreateOrder(ctx context.Context, in CreateOrderInput, meta models.RequestMeta) (*OrderResult, error) {
	amount := in.Amount
	receipt := ""

	if in.BookingID != "" {
		booking, err := s.loadBooking(ctx, in.BookingID)
		if err != nil {
			return nil, err
		}
		if booking.Status != models.BookingStatusPending {
			return nil, apperror.InvalidTransition(string(booking.Status), string(models.BookingStatusPaid))
		}
		amount = booking.Amount
		receipt = booking.ID
	}

	if amount <= 0 {
		return nil, apperror.InvalidInput("amount", "must be a positive number")
	}

	minor := payment.ToMinorUnits(amount)
	order, err := s.gateway.CreateOrder(ctx, minor, s.config.Currency, receipt)
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", in.BookingID).Error("Gateway order creation failed")
		s.record(ctx, models.NewPaymentAudit(models.PaymentEventOrderFailed).
			SetBooking(receipt).
			SetAmount(minor, s.config.Currency).
			SetError(err).
			SetMetadata(meta))
		return nil, apperror.GatewayUnavailable(err)
	}

	s.record(ctx, models.NewPaymentAudit(models.PaymentEventOrderCreated).
		SetBooking(receipt).
		SetGatewayRefs(order.ID, "").
		SetAmount(order.Amount, order.Currency).
		SetMetadata(meta))

	s.logger.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"booking_id": receipt,
		"amount":     order.Amount,
		"gateway":    s.gateway.Name(),
	}).Info("Payment order created")

	return &OrderResult{
		ID:        order.ID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		BookingID: receipt,
	}, nil
}

// ============================================================================
// RECONCILIATION
// ============================================================================

// VerifyAndFinalize checks the callback signature and promotes the booking to Paid.
// A booking that is already finalized answers with success and is not touched.
func (s *PaymentService) VerifyAndFinalize(ctx context.Context, in VerifyInput, meta models.RequestMeta) (*VerifyResult, error) {
	if err := validateVerifyInput(in); err != nil {
		return nil, err
	}

	fields := logrus.Fields{"booking_id": in.BookingID, "order_id": in.OrderID, "payment_id": in.PaymentID}
	audit := func(t models.PaymentEventType) *models.PaymentAudit {
		return models.NewPaymentAudit(t).
			SetBooking(in.BookingID).
			SetGatewayRefs(in.OrderID, in.PaymentID).
			SetMetadata(meta)
	}

	if !payment.VerifySignature(s.config.KeySecret, in.OrderID, in.PaymentID, in.Signature) {
		s.logger.WithFields(fields).Warn("Payment signature mismatch")
		s.record(ctx, audit(models.PaymentEventInvalidSignature))
		return nil, apperror.InvalidSignature()
	}

	if _, err := uuid.Parse(in.BookingID); err != nil {
		s.record(ctx, audit(models.PaymentEventBookingNotFound))
		return nil, apperror.BookingNotFound(in.BookingID)
	}

	booking, outcome, err := s.bookings.FinalizePayment(ctx, in.BookingID, in.OrderID, in.PaymentID, s.clock.Now())
	if err != nil {
		return nil, s.finalizeFailed(ctx, in, booking, err, audit(models.PaymentEventError), fields)
	}

	if outcome == models.FinalizeDuplicate {
		s.logger.WithFields(fields).WithField("status", booking.Status).Info("Duplicate payment callback")
		s.record(ctx, audit(models.PaymentEventDuplicate).
			SetAmount(payment.ToMinorUnits(booking.Amount), s.config.Currency).
			MarkAsDuplicate())
		return &VerifyResult{Booking: booking, Duplicate: true}, nil
	}

	s.logger.WithFields(fields).WithFields(logrus.Fields{
		"bus_id":      booking.BusID,
		"travel_date": booking.TravelDate,
		"seats":       booking.SeatNumbers,
	}).Info("Booking paid")

	s.record(ctx, audit(models.PaymentEventVerified).
		SetAmount(payment.ToMinorUnits(booking.Amount), s.config.Currency))

	if err := s.cache.Invalidate(ctx, booking.BusID, booking.TravelDate); err != nil {
		s.logger.WithError(err).WithFields(fields).Warn("Occupancy cache invalidation failed")
	}
	publish(ctx, s.events, s.logger, models.NewBookingEvent(models.BookingEventPaid, booking))

	if s.notifier != nil {
		go s.sendConfirmation(context.WithoutCancel(ctx), booking.Copy())
	}

	return &VerifyResult{Booking: booking}, nil
}

func (s *PaymentService) finalizeFailed(
	ctx context.Context,
	in VerifyInput,
	booking *models.Booking,
	err error,
	entry *models.PaymentAudit,
	fields logrus.Fields,
) error {
	var conflict *models.SeatConflictError
	switch {
	case errors.Is(err, models.ErrBookingNotFound):
		entry.EventType = models.PaymentEventBookingNotFound
		s.record(ctx, entry)
		return apperror.BookingNotFound(in.BookingID)

	case errors.As(err, &conflict):
		s.logger.WithFields(fields).WithField("conflicts", conflict.Seats).Warn("Reconciliation seat conflict, booking left pending")
		entry.EventType = models.PaymentEventSeatConflict
		s.record(ctx, entry.SetError(err))
		if booking != nil {
			event := models.NewBookingEvent(models.BookingEventReconciliationConflict, booking)
			event.ConflictSeats = append([]int(nil), conflict.Seats...)
			publish(ctx, s.events, s.logger, event)
		}
		return apperror.SeatConflict(conflict.Seats)

	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrStatusChanged):
		entry.EventType = models.PaymentEventInvalidTransition
		s.record(ctx, entry.SetError(err))
		from := "unknown"
		if booking != nil {
			from = string(booking.Status)
		}
		return apperror.InvalidTransition(from, string(models.BookingStatusPaid))
	}

	s.record(ctx, entry.SetError(err))
	return translateError(s.logger, "finalize payment", err, fields)
}

func (s *PaymentService) sendConfirmation(ctx context.Context, b *models.Booking) {
	seats := make([]string, len(b.SeatNumbers))
	for i, n := range b.SeatNumbers {
		seats[i] = fmt.Sprintf("%d", n)
	}
	message := fmt.Sprintf("Booking %s confirmed: bus %s on %s, seats %s. Amount paid Rs %d.",
		shortID(b.ID), b.BusID, b.TravelDate, strings.Join(seats, ", "), b.Amount)

	if err := s.notifier.SendMessage(ctx, b.CustomerPhone, message); err != nil {
		s.logger.WithError(err).WithField("booking_id", b.ID).Warn("Confirmation SMS failed")
	}
}

// PaymentHistory returns the audit trail for a booking, oldest first
func (s *PaymentService) PaymentHistory(ctx context.Context, bookingID string) ([]models.PaymentAudit, error) {
	if _, err := s.loadBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	audits, err := s.audits.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, translateError(s.logger, "list payment audits", err, logrus.Fields{"booking_id": bookingID})
	}
	if audits == nil {
		audits = []models.PaymentAudit{}
	}
	return audits, nil
}

func (s *PaymentService) loadBooking(ctx context.Context, id string) (*models.Booking, error) {
	return getBooking(ctx, s.bookings, s.logger, id)
}

// record appends an audit entry; a failed write is logged and never fails the payment flow
func (s *PaymentService) record(ctx context.Context, audit *models.PaymentAudit) {
	if s.audits == nil {
		return
	}
	if err := s.audits.Record(ctx, audit); err != nil {
		s.logger.WithError(err).WithField("event_type", audit.EventType).Error("Failed to record payment audit")
	}
}

func validateVerifyInput(in VerifyInput) error {
	switch {
	case strings.TrimSpace(in.OrderID) == "":
		return apperror.InvalidInput("razorpay_order_id", "is required")
	case strings.TrimSpace(in.PaymentID) == "":
		return apperror.InvalidInput("razorpay_payment_id", "is required")
	case strings.TrimSpace(in.Signature) == "":
		return apperror.InvalidInput("razorpay_signature", "is required")
	case strings.TrimSpace(in.BookingID) == "":
		return apperror.InvalidInput("bookingId", "is required")
	}
	return nil
}

// getBooking loads a booking; ids that are not UUIDs are simply unknown
func getBooking(ctx context.Context, bookings BookingLedger, logger *logrus.Logger, id string) (*models.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.BookingNotFound(id)
	}
	b, err := bookings.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(logger, "load booking", err, logrus.Fields{"booking_id": id})
	}
	return b, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}
