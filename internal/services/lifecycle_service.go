package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/smarttransit/seat-booking-backend/pkg/apperror"
	"github.com/smarttransit/seat-booking-backend/pkg/events"
	"github.com/smarttransit/seat-booking-backend/pkg/ticket"
)

// LifecycleService serves booking lookups and the explicit status changes:
// cancel, board and refund request
type LifecycleService struct {
	bookings BookingLedger
	buses    BusStore
	cache    OccupancyCache
	events   events.Publisher
	clock    *Clock
	currency string
	logger   *logrus.Logger
}

func NewLifecycleService(
	bookings BookingLedger,
	buses BusStore,
	cache OccupancyCache,
	publisher events.Publisher,
	clock *Clock,
	currency string,
	logger *logrus.Logger,
) *LifecycleService {
	if cache == nil {
		cache = NoopCache{}
	}
	return &LifecycleService{
		bookings: bookings,
		buses:    buses,
		cache:    cache,
		events:   publisher,
		clock:    clock,
		currency: currency,
		logger:   logger,
	}
}

// GetBooking returns one booking by id
func (s *LifecycleService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return getBooking(ctx, s.bookings, s.logger, id)
}

// UserBookings lists a customer's bookings, newest first.
// Pending bookings whose travel date has passed are hidden unless includeExpired is set.
func (s *LifecycleService) UserBookings(ctx context.Context, email string, includeExpired bool) ([]models.Booking, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.InvalidInput("email", "is required")
	}

	list, err := s.bookings.ListByEmail(ctx, email)
	if err != nil {
		return nil, translateError(s.logger, "list bookings", err, logrus.Fields{"email": email})
	}

	today := s.clock.Today()
	result := make([]models.Booking, 0, len(list))
	for _, b := range list {
		if !includeExpired && b.IsStale(today) {
			continue
		}
		result = append(result, b)
	}
	return result, nil
}

// Cancel abandons a Pending booking
func (s *LifecycleService) Cancel(ctx context.Context, id string, caller Caller) (*models.Booking, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := caller.authorizeBooking(b); err != nil {
		return nil, err
	}
	return s.transition(ctx, b, models.BookingStatusCancelled, models.BookingEventCancelled)
}

// Board marks a Paid booking as boarded
func (s *LifecycleService) Board(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, b, models.BookingStatusBoarded, models.BookingEventBoarded)
}

// RequestRefund moves a Paid booking whose travel date has passed to RefundPending.
// Its seats are released.
func (s *LifecycleService) RequestRefund(ctx context.Context, id string, caller Caller) (*models.Booking, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := caller.authorizeBooking(b); err != nil {
		return nil, err
	}
	if b.Status == models.BookingStatusPaid && b.TravelDate >= s.clock.Today() {
		return nil, apperror.New(apperror.KindInvalidTransition, http.StatusConflict,
			"refund can be requested only after the travel date")
	}
	return s.transition(ctx, b, models.BookingStatusRefundPending, models.BookingEventRefundRequested)
}

func (s *LifecycleService) transition(
	ctx context.Context,
	b *models.Booking,
	to models.BookingStatus,
	eventType models.BookingEventType,
) (*models.Booking, error) {
	fields := logrus.Fields{"booking_id": b.ID, "from": b.Status, "to": to}

	if !b.Status.CanTransitionTo(to) {
		return nil, apperror.InvalidTransition(string(b.Status), string(to))
	}

	updated, err := s.bookings.TransitionStatus(ctx, b.ID, b.Status, to)
	if err != nil {
		if errors.Is(err, models.ErrStatusChanged) || errors.Is(err, models.ErrInvalidTransition) {
			current := "unknown"
			if fresh, getErr := s.bookings.GetByID(ctx, b.ID); getErr == nil {
				current = string(fresh.Status)
			}
			return nil, apperror.InvalidTransition(current, string(to))
		}
		return nil, translateError(s.logger, "transition booking", err, fields)
	}

	if b.Status.HoldsSeats() != to.HoldsSeats() {
		if err := s.cache.Invalidate(ctx, b.BusID, b.TravelDate); err != nil {
			s.logger.WithError(err).WithFields(fields).Warn("Occupancy cache invalidation failed")
		}
	}

	s.logger.WithFields(fields).Info("Booking status changed")
	publish(ctx, s.events, s.logger, models.NewBookingEvent(eventType, updated))
	return updated, nil
}

// Ticket renders the e-ticket PDF for a Paid or Boarded booking
func (s *LifecycleService) Ticket(ctx context.Context, id string) ([]byte, string, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !b.Status.HoldsSeats() {
		return nil, "", apperror.New(apperror.KindInvalidTransition, http.StatusConflict,
			"ticket is available only for paid bookings")
	}

	data := ticket.Data{
		BookingID:     b.ID,
		Status:        string(b.Status),
		PassengerName: b.CustomerName,
		Phone:         b.CustomerPhone,
		Email:         b.CustomerEmail,
		TravelDate:    b.TravelDate,
		Seats:         b.SeatNumbers,
		Amount:        b.Amount,
		Currency:      s.currency,
		PaidAt:        b.PaidAt,
	}
	if b.PaymentID != nil {
		data.PaymentID = *b.PaymentID
	}

	// Dangling bus references still print a ticket
	bus, err := s.buses.GetByID(ctx, b.BusID)
	switch {
	case err == nil:
		data.BusName = bus.Name
		data.Registration = bus.Registration
		data.From = bus.Origin
		data.To = bus.Destination
		data.DepartureTime = bus.DepartureTime
	case errors.Is(err, models.ErrBusNotFound):
		data.BusName = b.BusID
	default:
		return nil, "", translateError(s.logger, "load bus", err, logrus.Fields{"bus_id": b.BusID})
	}

	pdf, filename, err := ticket.Render(data)
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", b.ID).Error("Ticket rendering failed")
		return nil, "", apperror.New(apperror.KindStorageUnavailable, http.StatusInternalServerError, "ticket rendering failed")
	}
	return pdf, filename, nil
}
