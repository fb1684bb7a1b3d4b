package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/smarttransit/seat-booking-backend/internal/services"
	"github.com/smarttransit/seat-booking-backend/pkg/apperror"
	"github.com/smarttransit/seat-booking-backend/pkg/jwt"
	"github.com/smarttransit/seat-booking-backend/pkg/validator"
)

// InitBookingRequest selects seats on one bus for one travel date.
// Amount is accepted for compatibility and ignored; the fare is computed server-side.
type InitBookingRequest struct {
	BusID         string `json:"busId" binding:"required"`
	SeatNumbers   []int  `json:"seatNumbers" binding:"seatnumbers"`
	TravelDate    string `json:"date" binding:"required,traveldate"`
	CustomerEmail string `json:"customerEmail" binding:"omitempty,email"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	Amount        int64  `json:"amount"`
}

// InitBookingResponse identifies the new Pending booking
type InitBookingResponse struct {
	BookingID string               `json:"bookingId"`
	Amount    int64                `json:"amount"`
	Status    models.BookingStatus `json:"status"`
}

// VerifyPaymentRequest is the gateway checkout callback
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
	BookingID string `json:"bookingId" binding:"required"`
}

// VerifyPaymentResponse confirms the booking is Paid
type VerifyPaymentResponse struct {
	Message   string `json:"message"`
	BookingID string `json:"bookingId"`
}

// BookingHandler serves the passenger booking flow
type BookingHandler struct {
	reservations   *services.ReservationService
	payments       *services.PaymentService
	lifecycle      *services.LifecycleService
	phoneValidator *validator.PhoneValidator
	logger         *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(
	reservations *services.ReservationService,
	payments *services.PaymentService,
	lifecycle *services.LifecycleService,
	phoneValidator *validator.PhoneValidator,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		reservations:   reservations,
		payments:       payments,
		lifecycle:      lifecycle,
		phoneValidator: phoneValidator,
		logger:         logger,
	}
}

// InitBooking creates a Pending booking
// @Summary Reserve seats
// @Description Checks the seats against confirmed bookings and creates a Pending booking priced from the bus fare
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body InitBookingRequest true "Seat selection"
// @Success 201 {object} InitBookingResponse
// @Failure 400 {object} errorResponse "Invalid input or seats already booked"
// @Failure 404 {object} errorResponse "Bus not found"
// @Security BearerAuth
// @Router /api/v1/bookings/init [post]
func (h *BookingHandler) InitBooking(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req InitBookingRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	customer, err := h.resolveCustomer(caller, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	booking, err := h.reservations.InitReservation(c.Request.Context(), services.InitReservationInput{
		BusID:       req.BusID,
		SeatNumbers: req.SeatNumbers,
		TravelDate:  req.TravelDate,
		Customer:    customer,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, InitBookingResponse{
		BookingID: booking.ID,
		Amount:    booking.Amount,
		Status:    booking.Status,
	})
}

// resolveCustomer books for the signed-in caller. Body fields fill gaps in the
// token; only admins may book for a different email.
func (h *BookingHandler) resolveCustomer(caller services.Caller, req InitBookingRequest) (models.Customer, error) {
	customer := models.Customer{Email: caller.Email, Name: caller.Name, Phone: caller.Phone}

	if email := strings.TrimSpace(req.CustomerEmail); email != "" && !strings.EqualFold(email, caller.Email) {
		if !caller.HasRole(jwt.RoleAdmin) {
			return models.Customer{}, apperror.InvalidInput("customerEmail", "must match the signed-in account")
		}
		customer = models.Customer{Email: email}
	}
	if customer.Name == "" {
		customer.Name = strings.TrimSpace(req.CustomerName)
	}
	if customer.Phone == "" {
		customer.Phone = strings.TrimSpace(req.CustomerPhone)
	}

	if customer.Phone != "" {
		normalized, err := h.phoneValidator.Validate(customer.Phone)
		if err != nil {
			return models.Customer{}, apperror.InvalidInput("customerPhone", err.Error())
		}
		customer.Phone = normalized
	}
	return customer, nil
}

// OccupiedSeats lists the seats held by confirmed bookings
// @Summary Occupied seats
// @Description Seats on a bus and date held by Paid or Boarded bookings, ascending. Pending bookings are not counted.
// @Tags Bookings
// @Produce json
// @Param busId query string true "Bus ID"
// @Param date query string true "Travel date (YYYY-MM-DD)"
// @Success 200 {array} int
// @Failure 400 {object} errorResponse
// @Router /api/v1/bookings/occupied [get]
func (h *BookingHandler) OccupiedSeats(c *gin.Context) {
	seats, err := h.reservations.OccupiedSeats(c.Request.Context(), c.Query("busId"), c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, seats)
}

// VerifyPayment reconciles a checkout callback and confirms the booking
// @Summary Verify payment
// @Description Checks the gateway signature and moves the booking to Paid if its seats are still free
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body VerifyPaymentRequest true "Gateway callback"
// @Success 200 {object} VerifyPaymentResponse
// @Failure 400 {object} errorResponse "Invalid signature or seats already booked"
// @Failure 404 {object} errorResponse "Booking not found"
// @Failure 409 {object} errorResponse "Booking cannot be paid"
// @Security BearerAuth
// @Router /api/v1/bookings/verify [post]
func (h *BookingHandler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.payments.VerifyAndFinalize(c.Request.Context(), services.VerifyInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		BookingID: req.BookingID,
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	message := "Payment verified"
	if result.Duplicate {
		message = "Payment already verified"
	}
	c.JSON(http.StatusOK, VerifyPaymentResponse{Message: message, BookingID: result.Booking.ID})
}

// UserBookings lists a customer's bookings
// @Summary User bookings
// @Description Bookings for an email, newest first. Pending bookings whose travel date passed are hidden unless include_expired=true.
// @Tags Bookings
// @Produce json
// @Param email path string true "Customer email"
// @Param include_expired query bool false "Include stale pending bookings"
// @Success 200 {array} models.Booking
// @Failure 403 {object} errorResponse
// @Security BearerAuth
// @Router /api/v1/bookings/user/{email} [get]
func (h *BookingHandler) UserBookings(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	email := strings.TrimSpace(c.Param("email"))
	if !strings.EqualFold(email, caller.Email) && !caller.HasRole(jwt.RoleAdmin) {
		respondError(c, h.logger, apperror.Forbidden("bookings belong to another customer"))
		return
	}

	includeExpired, _ := strconv.ParseBool(c.DefaultQuery("include_expired", "false"))
	bookings, err := h.lifecycle.UserBookings(c.Request.Context(), email, includeExpired)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// CancelBooking abandons a Pending booking
// @Summary Cancel booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse "Booking is not pending"
// @Security BearerAuth
// @Router /api/v1/bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	booking, err := h.lifecycle.Cancel(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// RequestRefund moves a Paid booking to RefundPending after its travel date
// @Summary Request refund
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Security BearerAuth
// @Router /api/v1/bookings/{id}/refund [post]
func (h *BookingHandler) RequestRefund(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	booking, err := h.lifecycle.RequestRefund(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
