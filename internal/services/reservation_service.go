package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/smarttransit/seat-booking-backend/pkg/apperror"
	"github.com/smarttransit/seat-booking-backend/pkg/events"
)

// InitReservationInput is a validated seat selection for one bus and date
type InitReservationInput struct {
	BusID       string
	SeatNumbers []int
	TravelDate  string
	Customer    models.Customer
}

// ReservationService checks seat conflicts and creates Pending bookings.
// It never locks seats; confirmation happens at payment reconciliation.
type ReservationService struct {
	buses    BusStore
	bookings BookingLedger
	cache    OccupancyCache
	events   events.Publisher
	logger   *logrus.Logger
}

func NewReservationService(
	buses BusStore,
	bookings BookingLedger,
	cache OccupancyCache,
	publisher events.Publisher,
	logger *logrus.Logger,
) *ReservationService {
	if cache == nil {
		cache = NoopCache{}
	}
	return &ReservationService{
		buses:    buses,
		bookings: bookings,
		cache:    cache,
		events:   publisher,
		logger:   logger,
	}
}

// OccupiedSeats returns the seats held by Paid and Boarded bookings, ascending.
// Results may come from a short-lived cache and are advisory.
func (s *ReservationService) OccupiedSeats(ctx context.Context, busID, travelDate string) ([]int, error) {
	if strings.TrimSpace(busID) == "" {
		return nil, apperror.InvalidInput("busId", "is required")
	}
	if _, err := models.ParseTravelDate(travelDate); err != nil {
		return nil, apperror.InvalidInput("date", "must be YYYY-MM-DD")
	}

	if seats, ok, err := s.cache.Get(ctx, busID, travelDate); err != nil {
		s.logger.WithError(err).WithField("bus_id", busID).Warn("Occupancy cache read failed")
	} else if ok {
		return seats, nil
	}

	seats, err := s.bookings.OccupiedSeats(ctx, busID, travelDate)
	if err != nil {
		return nil, translateError(s.logger, "occupied seats", err, logrus.Fields{"bus_id": busID, "travel_date": travelDate})
	}
	if seats == nil {
		seats = []int{}
	}

	// A Set racing a payment's Invalidate can store a pre-payment snapshot until the TTL expires
	if err := s.cache.Set(ctx, busID, travelDate, seats); err != nil {
		s.logger.WithError(err).WithField("bus_id", busID).Warn("Occupancy cache write failed")
	}
	return seats, nil
}

// InitReservation validates a seat selection and stores a Pending booking.
// The amount is fixed here from the bus's current price.
func (s *ReservationService) InitReservation(ctx context.Context, in InitReservationInput) (*models.Booking, error) {
	fields := logrus.Fields{"bus_id": in.BusID, "travel_date": in.TravelDate, "seats": in.SeatNumbers}

	if strings.TrimSpace(in.BusID) == "" {
		return nil, apperror.InvalidInput("busId", "is required")
	}
	if _, err := models.ParseTravelDate(in.TravelDate); err != nil {
		return nil, apperror.InvalidInput("date", "must be YYYY-MM-DD")
	}
	if err := validateCustomer(in.Customer); err != nil {
		return nil, err
	}

	bus, err := s.buses.GetByID(ctx, in.BusID)
	if err != nil {
		return nil, translateError(s.logger, "load bus", err, fields)
	}

	if err := models.ValidateSeats(in.SeatNumbers, bus.Capacity); err != nil {
		return nil, apperror.InvalidInput("seatNumbers", err.Error())
	}

	// Authoritative read; the cache may lag behind a fresh payment
	occupied, err := s.bookings.OccupiedSeats(ctx, in.BusID, in.TravelDate)
	if err != nil {
		return nil, translateError(s.logger, "occupied seats", err, fields)
	}
	if conflicts := models.SeatList(in.SeatNumbers).Intersect(occupied); len(conflicts) > 0 {
		s.logger.WithFields(fields).WithField("conflicts", conflicts).Info("Reservation rejected: seats taken")
		return nil, apperror.SeatConflict(conflicts)
	}

	now := time.Now()
	booking := &models.Booking{
		ID:            uuid.NewString(),
		BusID:         bus.ID,
		SeatNumbers:   models.SeatList(in.SeatNumbers).Sorted(),
		TravelDate:    in.TravelDate,
		CustomerEmail: strings.ToLower(strings.TrimSpace(in.Customer.Email)),
		CustomerName:  strings.TrimSpace(in.Customer.Name),
		CustomerPhone: strings.TrimSpace(in.Customer.Phone),
		Amount:        bus.Fare(len(in.SeatNumbers)),
		Status:        models.BookingStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, translateError(s.logger, "create booking", err, fields)
	}

	s.logger.WithFields(fields).WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"amount":     booking.Amount,
	}).Info("Booking created")

	publish(ctx, s.events, s.logger, models.NewBookingEvent(models.BookingEventCreated, booking))
	return booking, nil
}

func validateCustomer(c models.Customer) error {
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return apperror.InvalidInput("customerEmail", "is required")
	}
	if !strings.Contains(email, "@") {
		return apperror.InvalidInput("customerEmail", "must be an email address")
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperror.InvalidInput("customerName", "is required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return apperror.InvalidInput("customerPhone", "is required")
	}
	return nil
}

// publish sends an event without failing the caller; the ledger is already committed
func publish(ctx context.Context, publisher events.Publisher, logger *logrus.Logger, event models.BookingEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": event.BookingID,
			"event_type": event.Type,
		}).Warn("Failed to publish booking event")
	}
}
