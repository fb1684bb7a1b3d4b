package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{BookingStatusPending, BookingStatusPaid, true},
		{BookingStatusPending, BookingStatusCancelled, true},
		{BookingStatusPaid, BookingStatusBoarded, true},
		{BookingStatusPaid, BookingStatusRefundPending, true},
		{BookingStatusPending, BookingStatusBoarded, false},
		{BookingStatusPaid, BookingStatusPending, false},
		{BookingStatusPaid, BookingStatusCancelled, false},
		{BookingStatusBoarded, BookingStatusPaid, false},
		{BookingStatusCancelled, BookingStatusPending, false},
		{BookingStatusRefundPending, BookingStatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBookingStatus_Flags(t *testing.T) {
	assert.True(t, BookingStatusBoarded.IsTerminal())
	assert.True(t, BookingStatusCancelled.IsTerminal())
	assert.False(t, BookingStatusPending.IsTerminal())

	assert.True(t, BookingStatusPaid.HoldsSeats())
	assert.True(t, BookingStatusBoarded.HoldsSeats())
	assert.False(t, BookingStatusPending.HoldsSeats())
	assert.False(t, BookingStatusRefundPending.HoldsSeats())

	assert.True(t, BookingStatusRefundPending.IsFinalized())
	assert.False(t, BookingStatusCancelled.IsFinalized())
	assert.False(t, BookingStatus("expired").Valid())
}

func TestValidateSeats(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, ValidateSeats([]int{1, 40, 12}, 40))
	})
	t.Run("empty", func(t *testing.T) {
		assert.Error(t, ValidateSeats(nil, 40))
	})
	t.Run("zero seat", func(t *testing.T) {
		assert.ErrorContains(t, ValidateSeats([]int{0}, 40), "positive")
	})
	t.Run("over capacity", func(t *testing.T) {
		assert.ErrorContains(t, ValidateSeats([]int{41}, 40), "capacity")
	})
	t.Run("duplicate", func(t *testing.T) {
		assert.ErrorContains(t, ValidateSeats([]int{3, 3}, 40), "more than once")
	})
}

func TestParseTravelDate(t *testing.T) {
	_, err := ParseTravelDate("2025-06-01")
	require.NoError(t, err)

	for _, bad := range []string{"", "2025-6-1", "2025-02-30", "01-06-2025", "2025-06-01T00:00:00Z"} {
		_, err := ParseTravelDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestSeatList(t *testing.T) {
	seats := SeatList{7, 5, 6}
	assert.Equal(t, SeatList{5, 6, 7}, seats.Sorted())
	assert.Equal(t, SeatList{7, 5, 6}, seats)
	assert.Equal(t, []int{6, 7}, seats.Intersect([]int{6, 7, 9}))
	assert.Nil(t, seats.Intersect([]int{1}))

	v, err := seats.Value()
	require.NoError(t, err)
	assert.Equal(t, "{7,5,6}", v)

	var scanned SeatList
	require.NoError(t, scanned.Scan([]byte("{5,6}")))
	assert.Equal(t, SeatList{5, 6}, scanned)
}

func TestSeatList_ScanPostgresEncodings(t *testing.T) {
	tests := []struct {
		name string
		src  interface{}
		want SeatList
	}{
		{"single seat bytes", []byte("{12}"), SeatList{12}},
		{"two seats bytes", []byte("{1,40}"), SeatList{1, 40}},
		{"string form", "{3,4,5}", SeatList{3, 4, 5}},
		{"empty array", []byte("{}"), SeatList{}},
		{"null", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seats := SeatList{99}
			require.NoError(t, seats.Scan(tt.src))
			assert.Equal(t, tt.want, seats)
		})
	}

	t.Run("rejects non-integer elements", func(t *testing.T) {
		var seats SeatList
		assert.Error(t, seats.Scan([]byte("{a,b}")))
	})
}

func TestSeatList_ValueRoundTrip(t *testing.T) {
	v, err := SeatList{1, 40}.Value()
	require.NoError(t, err)
	assert.Equal(t, "{1,40}", v)

	var back SeatList
	require.NoError(t, back.Scan(v))
	assert.Equal(t, SeatList{1, 40}, back)

	v, err = SeatList(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSeatConflictError(t *testing.T) {
	err := &SeatConflictError{Seats: []int{9, 6}}
	assert.Equal(t, "seats already booked: 6, 9", err.Error())
}

func TestBooking_IsStaleAndCopy(t *testing.T) {
	order := "order_1"
	b := &Booking{ID: "x", Status: BookingStatusPending, TravelDate: "2025-06-01", SeatNumbers: SeatList{1}, OrderID: &order}
	assert.True(t, b.IsStale("2025-06-02"))
	assert.False(t, b.IsStale("2025-06-01"))

	c := b.Copy()
	c.SeatNumbers[0] = 2
	*c.OrderID = "changed"
	assert.Equal(t, 1, b.SeatNumbers[0])
	assert.Equal(t, "order_1", *b.OrderID)

	b.Status = BookingStatusPaid
	assert.False(t, b.IsStale("2025-06-02"))
}
