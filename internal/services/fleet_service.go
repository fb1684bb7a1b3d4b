package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/database"
	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/smarttransit/seat-booking-backend/pkg/apperror"
)

// FleetService is the minimal bus registry bookings price against
type FleetService struct {
	buses  BusStore
	logger *logrus.Logger
}

func NewFleetService(buses BusStore, logger *logrus.Logger) *FleetService {
	return &FleetService{buses: buses, logger: logger}
}

func (s *FleetService) List(ctx context.Context) ([]models.Bus, error) {
	buses, err := s.buses.List(ctx)
	if err != nil {
		return nil, translateError(s.logger, "list buses", err, nil)
	}
	if buses == nil {
		buses = []models.Bus{}
	}
	return buses, nil
}

func (s *FleetService) Get(ctx context.Context, busID string) (*models.Bus, error) {
	bus, err := s.buses.GetByID(ctx, busID)
	if err != nil {
		return nil, translateError(s.logger, "load bus", err, logrus.Fields{"bus_id": busID})
	}
	return bus, nil
}

// Create registers a bus
func (s *FleetService) Create(ctx context.Context, req *models.CreateBusRequest) (*models.Bus, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.New(apperror.KindInvalidInput, http.StatusBadRequest, err.Error())
	}

	now := time.Now()
	bus := &models.Bus{
		ID:            strings.TrimSpace(req.ID),
		Name:          strings.TrimSpace(req.Name),
		Registration:  strings.ToUpper(strings.TrimSpace(req.Registration)),
		Origin:        strings.TrimSpace(req.Origin),
		Destination:   strings.TrimSpace(req.Destination),
		DepartureTime: req.DepartureTime,
		Price:         req.Price,
		Capacity:      req.Capacity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.buses.Create(ctx, bus); err != nil {
		if errors.Is(err, database.ErrDuplicateBus) {
			return nil, apperror.New(apperror.KindInvalidInput, http.StatusConflict, "bus id or registration already exists")
		}
		return nil, translateError(s.logger, "create bus", err, logrus.Fields{"bus_id": bus.ID})
	}

	s.logger.WithField("bus_id", bus.ID).Info("Bus registered")
	return bus, nil
}

// UpdatePrice changes the fare for future reservations. Existing bookings keep their amount.
func (s *FleetService) UpdatePrice(ctx context.Context, busID string, price int64) (*models.Bus, error) {
	if price <= 0 {
		return nil, apperror.InvalidInput("price", "must be positive")
	}
	fields := logrus.Fields{"bus_id": busID, "price": price}
	if err := s.buses.UpdatePrice(ctx, busID, price); err != nil {
		return nil, translateError(s.logger, "update price", err, fields)
	}
	s.logger.WithFields(fields).Info("Bus price updated")
	return s.Get(ctx, busID)
}
