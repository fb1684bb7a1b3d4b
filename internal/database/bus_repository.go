package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/seat-booking-backend/internal/models"
)

// ErrDuplicateBus is returned when a bus id or registration already exists
var ErrDuplicateBus = errors.New("bus already exists")

const busColumns = `id, name, registration, origin, destination, departure_time,
	price, capacity, created_at, updated_at`

// BusRepository handles database operations for buses
type BusRepository struct {
	db *sqlx.DB
}

// NewBusRepository creates a new BusRepository
func NewBusRepository(db *sqlx.DB) *BusRepository {
	return &BusRepository{db: db}
}

// Create inserts a new bus
func (r *BusRepository) Create(ctx context.Context, bus *models.Bus) error {
	query := `
		INSERT INTO buses (
			id, name, registration, origin, destination, departure_time, price, capacity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		bus.ID, bus.Name, bus.Registration, bus.Origin, bus.Destination,
		bus.DepartureTime, bus.Price, bus.Capacity,
	).Scan(&bus.CreatedAt, &bus.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBus
		}
		return fmt.Errorf("failed to create bus: %w", err)
	}
	return nil
}

// GetByID retrieves a bus by ID
func (r *BusRepository) GetByID(ctx context.Context, busID string) (*models.Bus, error) {
	query := `SELECT ` + busColumns + ` FROM buses WHERE id = $1`

	var bus models.Bus
	if err := r.db.GetContext(ctx, &bus, query, busID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBusNotFound
		}
		return nil, fmt.Errorf("failed to get bus: %w", err)
	}
	return &bus, nil
}

// List returns all buses ordered by departure time
func (r *BusRepository) List(ctx context.Context) ([]models.Bus, error) {
	query := `SELECT ` + busColumns + ` FROM buses ORDER BY departure_time, id`

	buses := []models.Bus{}
	if err := r.db.SelectContext(ctx, &buses, query); err != nil {
		return nil, fmt.Errorf("failed to list buses: %w", err)
	}
	return buses, nil
}

// UpdatePrice changes the fare charged to bookings created from now on
func (r *BusRepository) UpdatePrice(ctx context.Context, busID string, price int64) error {
	query := `UPDATE buses SET price = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, price, busID)
	if err != nil {
		return fmt.Errorf("failed to update bus price: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return models.ErrBusNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
