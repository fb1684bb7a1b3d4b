package models

// ManifestRow is one passenger seat on a trip roster
type ManifestRow struct {
	BookingID     string        `json:"bookingId"`
	BusID         string        `json:"busId"`
	TravelDate    string        `json:"date"`
	SeatNumber    int           `json:"seatNumber"`
	CustomerName  string        `json:"customerName"`
	CustomerEmail string        `json:"customerEmail"`
	CustomerPhone string        `json:"customerPhone"`
	Status        BookingStatus `json:"status"`
}

// TripSummary is the revenue and head count of one past trip
type TripSummary struct {
	BusID      string      `json:"busId" db:"bus_id"`
	Date       string      `json:"date" db:"travel_date"`
	Bus        *BusSummary `json:"bus"`
	Revenue    int64       `json:"revenue" db:"revenue"`
	Passengers int         `json:"passengers" db:"passengers"`
}
