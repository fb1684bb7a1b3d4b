package validator

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// TravelDateLayout is the calendar-date format used across the API
const TravelDateLayout = "2006-01-02"

// RegisterBookingValidations adds the traveldate and seatnumbers tags
func RegisterBookingValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("traveldate", validateTravelDate); err != nil {
		return fmt.Errorf("failed to register traveldate: %w", err)
	}
	if err := v.RegisterValidation("seatnumbers", validateSeatNumbers); err != nil {
		return fmt.Errorf("failed to register seatnumbers: %w", err)
	}
	return nil
}

// RegisterGinValidations installs the booking tags on gin's binding engine
func RegisterGinValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	v.RegisterTagNameFunc(JSONFieldName)
	return RegisterBookingValidations(v)
}

// JSONFieldName reports a struct field by its json name in validation errors
func JSONFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func validateTravelDate(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	s := fl.Field().String()
	d, err := time.Parse(TravelDateLayout, s)
	return err == nil && d.Format(TravelDateLayout) == s
}

// seatnumbers: non-empty, every seat >= 1, no repeats
func validateSeatNumbers(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice || field.Len() == 0 {
		return false
	}
	seen := make(map[int64]struct{}, field.Len())
	for i := 0; i < field.Len(); i++ {
		elem := field.Index(i)
		switch elem.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		default:
			return false
		}
		n := elem.Int()
		if n < 1 {
			return false
		}
		if _, dup := seen[n]; dup {
			return false
		}
		seen[n] = struct{}{}
	}
	return true
}
