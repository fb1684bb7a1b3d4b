package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seatRequest struct {
	Date  string `validate:"required,traveldate"`
	Seats []int  `validate:"seatnumbers"`
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	require.NoError(t, RegisterBookingValidations(v))
	return v
}

func TestTravelDateTag(t *testing.T) {
	v := newValidate(t)

	assert.NoError(t, v.Struct(seatRequest{Date: "2025-06-01", Seats: []int{5}}))
	for _, bad := range []string{"2025-6-1", "01-06-2025", "2025-02-30", "tomorrow"} {
		assert.Error(t, v.Struct(seatRequest{Date: bad, Seats: []int{5}}), bad)
	}
}

func TestSeatNumbersTag(t *testing.T) {
	v := newValidate(t)

	assert.NoError(t, v.Struct(seatRequest{Date: "2025-06-01", Seats: []int{5, 6, 40}}))
	assert.Error(t, v.Struct(seatRequest{Date: "2025-06-01", Seats: nil}))
	assert.Error(t, v.Struct(seatRequest{Date: "2025-06-01", Seats: []int{}}))
	assert.Error(t, v.Struct(seatRequest{Date: "2025-06-01", Seats: []int{0}}))
	assert.Error(t, v.Struct(seatRequest{Date: "2025-06-01", Seats: []int{5, 5}}))
}

func TestJSONFieldName(t *testing.T) {
	v := newValidate(t)
	v.RegisterTagNameFunc(JSONFieldName)

	type body struct {
		TravelDate string `json:"date" validate:"required,traveldate"`
	}
	err := v.Struct(body{TravelDate: "soon"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "date", verrs[0].Field())
}

func TestRegisterGinValidations(t *testing.T) {
	assert.NoError(t, RegisterGinValidations())
}
