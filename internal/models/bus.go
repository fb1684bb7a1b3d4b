package models

import (
	"errors"
	"strings"
	"time"
)

// Bus is the fleet record a booking references
type Bus struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Registration  string    `json:"registration" db:"registration"`
	Origin        string    `json:"from" db:"origin"`
	Destination   string    `json:"to" db:"destination"`
	DepartureTime string    `json:"departureTime" db:"departure_time"`
	Price         int64     `json:"price" db:"price"`
	Capacity      int       `json:"capacity" db:"capacity"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Fare returns the amount charged for n seats at the current price
func (b *Bus) Fare(n int) int64 {
	return int64(n) * b.Price
}

// CreateBusRequest represents the request to register a bus
type CreateBusRequest struct {
	ID            string `json:"id" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Registration  string `json:"registration" binding:"required"`
	Origin        string `json:"from" binding:"required"`
	Destination   string `json:"to" binding:"required"`
	DepartureTime string `json:"departureTime" binding:"required"`
	Price         int64  `json:"price" binding:"required,gt=0"`
	Capacity      int    `json:"capacity" binding:"required,gt=0,lte=100"`
}

// Validate validates the create bus request
func (r *CreateBusRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("id is required")
	}
	if r.Price <= 0 {
		return errors.New("price must be positive")
	}
	if r.Capacity <= 0 {
		return errors.New("capacity must be positive")
	}
	if _, err := time.Parse("15:04", r.DepartureTime); err != nil {
		return errors.New("departureTime must be HH:MM")
	}
	return nil
}

// UpdatePriceRequest changes the fare for future bookings only
type UpdatePriceRequest struct {
	Price int64 `json:"price" binding:"required,gt=0"`
}

// BusSummary is the bus detail embedded in reports
type BusSummary struct {
	Name          string `json:"name"`
	From          string `json:"from"`
	To            string `json:"to"`
	DepartureTime string `json:"departureTime"`
}
