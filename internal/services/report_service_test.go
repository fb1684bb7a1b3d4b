package services

import (
	"context"
	"testing"

	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/smarttransit/seat-booking-backend/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_OrderAndFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.pay(t, env.reserve(t, "2025-06-01", 9, 2))
	env.pay(t, env.reserve(t, "2025-06-01", 5))
	env.pay(t, env.reserve(t, "2025-06-03", 1))
	env.reserve(t, "2025-06-01", 30) // pending, not on the roster

	rows, err := env.reports.Manifest(ctx, "B1", "")
	require.NoError(t, err)

	type key struct {
		date string
		seat int
	}
	got := make([]key, len(rows))
	for i, r := range rows {
		got[i] = key{r.TravelDate, r.SeatNumber}
		assert.Equal(t, models.BookingStatusPaid, r.Status)
	}
	assert.Equal(t, []key{
		{"2025-06-03", 1},
		{"2025-06-01", 2},
		{"2025-06-01", 5},
		{"2025-06-01", 9},
	}, got)

	filtered, err := env.reports.Manifest(ctx, "B1", "2025-06-03")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "asha@example.com", filtered[0].CustomerEmail)

	_, err = env.reports.Manifest(ctx, "", "")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))
	_, err = env.reports.Manifest(ctx, "B1", "2025/06/01")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))
}

func TestHistory_PastTripsOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.pay(t, env.reserve(t, "2025-05-20", 1, 2))
	boarded := env.pay(t, env.reserve(t, "2025-05-20", 3))
	_, err := env.lifecycle.Board(ctx, boarded.ID)
	require.NoError(t, err)
	env.pay(t, env.reserve(t, "2025-05-25", 4))
	env.pay(t, env.reserve(t, "2025-05-30", 5)) // today, excluded
	env.reserve(t, "2025-05-21", 6)             // never paid

	history, err := env.reports.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "2025-05-25", history[0].Date)
	assert.Equal(t, "2025-05-20", history[1].Date)
	assert.Equal(t, int64(840), history[1].Revenue)
	assert.Equal(t, 3, history[1].Passengers)
	require.NotNil(t, history[1].Bus)
	assert.Equal(t, "Pune", history[1].Bus.From)
}

func TestCronService_StalePendingAudit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.reserve(t, "2025-05-01", 1)
	env.reserve(t, "2025-05-02", 2)
	env.reserve(t, "2025-06-01", 3)

	cron := NewCronService(env.reports, env.clock, "", quietLogger())
	count, err := cron.RunStalePendingAuditNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, cron.Start())
	status := cron.GetJobStatus()
	assert.Equal(t, 1, status["job_count"])
	cron.Stop()
}
