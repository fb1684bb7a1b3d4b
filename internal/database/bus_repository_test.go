package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBusRepository(db)
	ctx := context.Background()
	busColumnNames := []string{
		"id", "name", "registration", "origin", "destination", "departure_time",
		"price", "capacity", "created_at", "updated_at",
	}

	t.Run("GetByID", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT .* FROM buses WHERE id = \$1`).
			WithArgs("B1").
			WillReturnRows(sqlmock.NewRows(busColumnNames).
				AddRow("B1", "Night Rider", "MH-12-AB-1234", "Pune", "Goa", "21:30", int64(280), 40, now, now))

		bus, err := repo.GetByID(ctx, "B1")
		require.NoError(t, err)
		assert.Equal(t, int64(280), bus.Price)
		assert.Equal(t, 40, bus.Capacity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByID Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM buses WHERE id = \$1`).
			WithArgs("B404").
			WillReturnRows(sqlmock.NewRows(busColumnNames))

		_, err := repo.GetByID(ctx, "B404")
		assert.ErrorIs(t, err, models.ErrBusNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Create Duplicate", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO buses`).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err := repo.Create(ctx, &models.Bus{ID: "B1"})
		assert.ErrorIs(t, err, ErrDuplicateBus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdatePrice", func(t *testing.T) {
		mock.ExpectExec(`UPDATE buses SET price = \$1`).
			WithArgs(int64(300), "B1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdatePrice(ctx, "B1", 300))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdatePrice Unknown Bus", func(t *testing.T) {
		mock.ExpectExec(`UPDATE buses SET price = \$1`).
			WithArgs(int64(300), "B404").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdatePrice(ctx, "B404", 300), models.ErrBusNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPaymentAuditRepository_Record(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentAuditRepository(db)

	audit := models.NewPaymentAudit(models.PaymentEventVerified).
		SetBooking(testBookingID).
		SetGatewayRefs("order_1", "pay_1")

	mock.ExpectExec(`INSERT INTO payment_audits`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Record(context.Background(), audit))
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Error(t, repo.Record(context.Background(), nil))
}
