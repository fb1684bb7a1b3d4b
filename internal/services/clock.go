package services

import (
	"time"

	"github.com/smarttransit/seat-booking-backend/internal/models"
)

// Clock decides "today" for travel-date rules in one configured time zone
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: time.Now}
}

// NewFixedClock always reports t
func NewFixedClock(t time.Time) *Clock {
	return &Clock{loc: t.Location(), now: func() time.Time { return t }}
}

func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the current calendar date as YYYY-MM-DD
func (c *Clock) Today() string {
	return c.Now().Format(models.TravelDateLayout)
}
