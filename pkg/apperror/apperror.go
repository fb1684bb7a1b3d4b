package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind is the stable, client-visible category of a failure
type Kind string

const (
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindBusNotFound        Kind = "BUS_NOT_FOUND"
	KindBookingNotFound    Kind = "BOOKING_NOT_FOUND"
	KindSeatConflict       Kind = "SEAT_CONFLICT"
	KindInvalidSignature   Kind = "INVALID_SIGNATURE"
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindForbidden          Kind = "FORBIDDEN"
	KindStorageUnavailable Kind = "STORAGE_UNAVAILABLE"
	KindGatewayUnavailable Kind = "GATEWAY_UNAVAILABLE"
)

// AppError is a custom error type that includes an HTTP status code and a stable kind.
type AppError struct {
	Kind    Kind   // Stable error kind
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Message string // User-facing error message
	Field   string // Offending input field, if any
	Seats   []int  // Contended seats for SeatConflict
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller can succeed by retrying with new input
func (e *AppError) Retryable() bool {
	switch e.Kind {
	case KindSeatConflict, KindInvalidSignature, KindStorageUnavailable, KindGatewayUnavailable:
		return true
	}
	return false
}

// New creates a new AppError with a kind, status code and message.
func New(kind Kind, code int, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

// InvalidInput reports a malformed request, naming the offending field
func InvalidInput(field, message string) *AppError {
	return &AppError{
		Kind:    KindInvalidInput,
		Code:    http.StatusBadRequest,
		Message: fmt.Sprintf("%s: %s", field, message),
		Field:   field,
	}
}

// BusNotFound reports an unknown bus
func BusNotFound(busID string) *AppError {
	return New(KindBusNotFound, http.StatusNotFound, fmt.Sprintf("bus %s not found", busID))
}

// BookingNotFound reports an unknown booking
func BookingNotFound(bookingID string) *AppError {
	return New(KindBookingNotFound, http.StatusNotFound, fmt.Sprintf("booking %s not found", bookingID))
}

// SeatConflict reports seats already held by a confirmed booking
func SeatConflict(seats []int) *AppError {
	sorted := append([]int(nil), seats...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, s := range sorted {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return &AppError{
		Kind:    KindSeatConflict,
		Code:    http.StatusBadRequest,
		Message: "Seats already booked: " + strings.Join(parts, ", "),
		Seats:   sorted,
	}
}

// InvalidSignature reports a payment callback that failed verification
func InvalidSignature() *AppError {
	return New(KindInvalidSignature, http.StatusBadRequest, "Invalid Signature")
}

// InvalidTransition reports a status change the state machine forbids
func InvalidTransition(from, to string) *AppError {
	return New(KindInvalidTransition, http.StatusConflict,
		fmt.Sprintf("booking cannot move from %s to %s", from, to))
}

// Forbidden reports a caller acting on a resource they do not own
func Forbidden(message string) *AppError {
	return New(KindForbidden, http.StatusForbidden, message)
}

// StorageUnavailable wraps an unexpected persistence failure
func StorageUnavailable(err error) *AppError {
	return &AppError{
		Kind:    KindStorageUnavailable,
		Code:    http.StatusInternalServerError,
		Message: "storage unavailable",
		Err:     err,
	}
}

// GatewayUnavailable wraps a payment provider failure
func GatewayUnavailable(err error) *AppError {
	return &AppError{
		Kind:    KindGatewayUnavailable,
		Code:    http.StatusBadGateway,
		Message: "payment gateway unavailable",
		Err:     err,
	}
}

// As extracts an AppError from err
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindStorageUnavailable for foreign errors
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindStorageUnavailable
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
