package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/smarttransit/seat-booking-backend/internal/models"
)

const bookingColumns = `id, bus_id, seat_numbers, travel_date, customer_email, customer_name,
	customer_phone, amount, status, order_id, payment_id, paid_at, created_at, updated_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// BookingRepository is the PostgreSQL booking ledger
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func seatHoldingStatuses() []string {
	out := make([]string, len(models.SeatHoldingStatuses))
	for i, s := range models.SeatHoldingStatuses {
		out[i] = string(s)
	}
	return out
}

// Create inserts a new pending booking
func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, bus_id, seat_numbers, travel_date, customer_email, customer_name,
			customer_phone, amount, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		b.ID, b.BusID, b.SeatNumbers, b.TravelDate, b.CustomerEmail, b.CustomerName,
		b.CustomerPhone, b.Amount, b.Status,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var b models.Booking
	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

// ListByEmail returns a customer's bookings, newest first
func (r *BookingRepository) ListByEmail(ctx context.Context, email string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE lower(customer_email) = lower($1)
		ORDER BY created_at DESC`

	bookings := []models.Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, email); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// OccupiedSeats returns the seats held by paid or boarded bookings for a trip, ascending
func (r *BookingRepository) OccupiedSeats(ctx context.Context, busID, travelDate string) ([]int, error) {
	query := `
		SELECT DISTINCT s.seat
		FROM bookings b, unnest(b.seat_numbers) AS s(seat)
		WHERE b.bus_id = $1 AND b.travel_date = $2 AND b.status = ANY($3)
		ORDER BY s.seat
	`

	seats := []int{}
	if err := r.db.SelectContext(ctx, &seats, query, busID, travelDate, pq.Array(seatHoldingStatuses())); err != nil {
		return nil, fmt.Errorf("failed to load occupied seats: %w", err)
	}
	return seats, nil
}

// ListManifest returns paid and boarded bookings for a bus, newest travel date first.
// An empty travelDate lists every date.
func (r *BookingRepository) ListManifest(ctx context.Context, busID, travelDate string) ([]models.Booking, error) {
	q := psql.Select(bookingColumns).
		From("bookings").
		Where(sq.Eq{"bus_id": busID, "status": seatHoldingStatuses()})
	if travelDate != "" {
		q = q.Where(sq.Eq{"travel_date": travelDate})
	}
	q = q.OrderBy("travel_date DESC", "created_at ASC")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build manifest query: %w", err)
	}

	bookings := []models.Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list manifest: %w", err)
	}
	return bookings, nil
}

type tripSummaryRow struct {
	BusID         string         `db:"bus_id"`
	TravelDate    string         `db:"travel_date"`
	Revenue       int64          `db:"revenue"`
	Passengers    int            `db:"passengers"`
	BusName       sql.NullString `db:"bus_name"`
	Origin        sql.NullString `db:"origin"`
	Destination   sql.NullString `db:"destination"`
	DepartureTime sql.NullString `db:"departure_time"`
}

// SummarizeTrips aggregates paid and boarded bookings per trip for travel dates before the cutoff
func (r *BookingRepository) SummarizeTrips(ctx context.Context, before string) ([]models.TripSummary, error) {
	query := `
		SELECT
			b.bus_id,
			b.travel_date,
			SUM(b.amount) AS revenue,
			SUM(cardinality(b.seat_numbers)) AS passengers,
			bs.name AS bus_name,
			bs.origin,
			bs.destination,
			bs.departure_time
		FROM bookings b
		LEFT JOIN buses bs ON bs.id = b.bus_id
		WHERE b.status = ANY($1) AND b.travel_date < $2
		GROUP BY b.bus_id, b.travel_date, bs.name, bs.origin, bs.destination, bs.departure_time
		ORDER BY b.travel_date DESC, b.bus_id
	`

	var rows []tripSummaryRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(seatHoldingStatuses()), before); err != nil {
		return nil, fmt.Errorf("failed to summarize trips: %w", err)
	}

	summaries := make([]models.TripSummary, 0, len(rows))
	for _, row := range rows {
		s := models.TripSummary{
			BusID:      row.BusID,
			Date:       row.TravelDate,
			Revenue:    row.Revenue,
			Passengers: row.Passengers,
		}
		// Bus rows may be gone; history keeps the trip without details
		if row.BusName.Valid {
			s.Bus = &models.BusSummary{
				Name:          row.BusName.String,
				From:          row.Origin.String,
				To:            row.Destination.String,
				DepartureTime: row.DepartureTime.String,
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// CountStalePending counts never-paid bookings whose travel date is before the cutoff
func (r *BookingRepository) CountStalePending(ctx context.Context, before string) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE status = $1 AND travel_date < $2`

	var count int
	if err := r.db.GetContext(ctx, &count, query, models.BookingStatusPending, before); err != nil {
		return 0, fmt.Errorf("failed to count stale bookings: %w", err)
	}
	return count, nil
}

// contestedSeats lists the booking's seats already claimed by another booking.
// Falls back to every seat of the booking when the lookup fails or finds nothing.
func (r *BookingRepository) contestedSeats(ctx context.Context, b *models.Booking) []int {
	held := []int{}
	query := `
		SELECT seat_number FROM seat_claims
		WHERE bus_id = $1 AND travel_date = $2 AND seat_number = ANY($3) AND booking_id <> $4
		ORDER BY seat_number
	`
	if err := r.db.SelectContext(ctx, &held, query, b.BusID, b.TravelDate, b.SeatNumbers, b.ID); err != nil || len(held) == 0 {
		return b.SeatNumbers.Sorted()
	}
	return held
}

// FinalizePayment applies a verified payment to a pending booking.
// The booking row is locked for the whole transaction so duplicate callbacks
// serialize, and the seat_claims primary key rejects a second confirmed claim on a seat.
func (r *BookingRepository) FinalizePayment(ctx context.Context, bookingID, orderID, paymentID string, paidAt time.Time) (*models.Booking, models.FinalizeOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var b models.Booking
	lockQuery := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &b, lockQuery, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", models.ErrBookingNotFound
		}
		return nil, "", fmt.Errorf("failed to lock booking: %w", err)
	}

	if b.Status.IsFinalized() {
		return &b, models.FinalizeDuplicate, nil
	}
	if b.Status != models.BookingStatusPending {
		return &b, "", models.ErrInvalidTransition
	}

	held := []int{}
	claimedQuery := `
		SELECT seat_number FROM seat_claims
		WHERE bus_id = $1 AND travel_date = $2 AND seat_number = ANY($3)
		ORDER BY seat_number
	`
	if err := tx.SelectContext(ctx, &held, claimedQuery, b.BusID, b.TravelDate, b.SeatNumbers); err != nil {
		return nil, "", fmt.Errorf("failed to check seat claims: %w", err)
	}
	if len(held) > 0 {
		return &b, "", &models.SeatConflictError{Seats: held}
	}

	claimQuery := `
		INSERT INTO seat_claims (bus_id, travel_date, seat_number, booking_id)
		SELECT $1, $2, seat, $3 FROM unnest($4::int[]) AS seat
	`
	if _, err := tx.ExecContext(ctx, claimQuery, b.BusID, b.TravelDate, b.ID, b.SeatNumbers); err != nil {
		if isUniqueViolation(err) {
			// The transaction is aborted; the winner's claims are visible outside it
			tx.Rollback()
			return &b, "", &models.SeatConflictError{Seats: r.contestedSeats(ctx, &b)}
		}
		return nil, "", fmt.Errorf("failed to claim seats: %w", err)
	}

	updateQuery := `
		UPDATE bookings
		SET status = $1, order_id = $2, payment_id = $3, paid_at = $4, updated_at = NOW()
		WHERE id = $5 AND status = $6
	`
	result, err := tx.ExecContext(ctx, updateQuery,
		models.BookingStatusPaid, orderID, paymentID, paidAt, b.ID, models.BookingStatusPending)
	if err != nil {
		return nil, "", fmt.Errorf("failed to mark booking paid: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, "", models.ErrStatusChanged
	}

	if err := tx.Commit(); err != nil {
		return nil, "", fmt.Errorf("failed to commit payment: %w", err)
	}

	b.Status = models.BookingStatusPaid
	b.OrderID = &orderID
	b.PaymentID = &paymentID
	b.PaidAt = &paidAt
	return &b, models.FinalizeApplied, nil
}

// TransitionStatus moves a booking from one status to another if it is still in from.
// Seat claims are released when the new status no longer holds seats.
func (r *BookingRepository) TransitionStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.Booking, error) {
	if !from.CanTransitionTo(to) {
		return nil, models.ErrInvalidTransition
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var b models.Booking
	updateQuery := `
		UPDATE bookings SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + bookingColumns
	if err := tx.GetContext(ctx, &b, updateQuery, to, id, from); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to update booking status: %w", err)
		}
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id); err != nil {
			return nil, fmt.Errorf("failed to check booking: %w", err)
		}
		if !exists {
			return nil, models.ErrBookingNotFound
		}
		return nil, models.ErrStatusChanged
	}

	if from.HoldsSeats() && !to.HoldsSeats() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM seat_claims WHERE booking_id = $1`, id); err != nil {
			return nil, fmt.Errorf("failed to release seat claims: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status change: %w", err)
	}
	return &b, nil
}
