package services

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/smarttransit/seat-booking-backend/pkg/apperror"
)

// ReportService builds trip manifests and revenue history from the ledger
type ReportService struct {
	bookings BookingLedger
	clock    *Clock
	logger   *logrus.Logger
}

func NewReportService(bookings BookingLedger, clock *Clock, logger *logrus.Logger) *ReportService {
	return &ReportService{bookings: bookings, clock: clock, logger: logger}
}

// Manifest lists one row per confirmed seat, newest travel date first and
// seats ascending within a date. An empty travelDate covers every date.
func (s *ReportService) Manifest(ctx context.Context, busID, travelDate string) ([]models.ManifestRow, error) {
	if strings.TrimSpace(busID) == "" {
		return nil, apperror.InvalidInput("busId", "is required")
	}
	if travelDate != "" {
		if _, err := models.ParseTravelDate(travelDate); err != nil {
			return nil, apperror.InvalidInput("date", "must be YYYY-MM-DD")
		}
	}

	bookings, err := s.bookings.ListManifest(ctx, busID, travelDate)
	if err != nil {
		return nil, translateError(s.logger, "list manifest", err, logrus.Fields{"bus_id": busID, "travel_date": travelDate})
	}

	rows := make([]models.ManifestRow, 0, len(bookings))
	for _, b := range bookings {
		for _, seat := range b.SeatNumbers {
			rows = append(rows, models.ManifestRow{
				BookingID:     b.ID,
				BusID:         b.BusID,
				TravelDate:    b.TravelDate,
				SeatNumber:    seat,
				CustomerName:  b.CustomerName,
				CustomerEmail: b.CustomerEmail,
				CustomerPhone: b.CustomerPhone,
				Status:        b.Status,
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TravelDate != rows[j].TravelDate {
			return rows[i].TravelDate > rows[j].TravelDate
		}
		return rows[i].SeatNumber < rows[j].SeatNumber
	})
	return rows, nil
}

// History summarises confirmed trips whose travel date is before today, newest first
func (s *ReportService) History(ctx context.Context) ([]models.TripSummary, error) {
	today := s.clock.Today()
	summaries, err := s.bookings.SummarizeTrips(ctx, today)
	if err != nil {
		return nil, translateError(s.logger, "summarize trips", err, logrus.Fields{"before": today})
	}
	if summaries == nil {
		summaries = []models.TripSummary{}
	}
	return summaries, nil
}

// StalePendingCount counts Pending bookings whose travel date has passed
func (s *ReportService) StalePendingCount(ctx context.Context) (int, error) {
	today := s.clock.Today()
	count, err := s.bookings.CountStalePending(ctx, today)
	if err != nil {
		return 0, translateError(s.logger, "count stale bookings", err, logrus.Fields{"before": today})
	}
	return count, nil
}
