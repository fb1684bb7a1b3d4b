package services

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/smarttransit/seat-booking-backend/pkg/apperror"
)

// translateError maps store errors to client-facing errors.
// Anything unrecognised is logged and reported as StorageUnavailable.
func translateError(logger *logrus.Logger, op string, err error, fields logrus.Fields) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}

	var conflict *models.SeatConflictError
	switch {
	case errors.As(err, &conflict):
		return apperror.SeatConflict(conflict.Seats)
	case errors.Is(err, models.ErrBookingNotFound):
		return apperror.BookingNotFound(stringField(fields, "booking_id"))
	case errors.Is(err, models.ErrBusNotFound):
		return apperror.BusNotFound(stringField(fields, "bus_id"))
	}

	logger.WithFields(fields).WithError(err).Errorf("%s failed", op)
	return apperror.StorageUnavailable(err)
}

func stringField(fields logrus.Fields, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
