package services

import (
	"strings"

	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/smarttransit/seat-booking-backend/pkg/apperror"
	"github.com/smarttransit/seat-booking-backend/pkg/jwt"
)

// Caller is the authenticated identity behind a request
type Caller struct {
	Email string
	Name  string
	Phone string
	Roles []string
}

func (c Caller) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Owns reports whether the booking was made by the caller
func (c Caller) Owns(b *models.Booking) bool {
	return c.Email != "" && strings.EqualFold(c.Email, b.CustomerEmail)
}

// authorizeBooking allows the owner and admins
func (c Caller) authorizeBooking(b *models.Booking) error {
	if c.Owns(b) || c.HasRole(jwt.RoleAdmin) {
		return nil
	}
	return apperror.Forbidden("booking belongs to another customer")
}
