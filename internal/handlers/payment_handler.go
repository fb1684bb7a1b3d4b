package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/services"
)

// CreateOrderRequest asks for a gateway order. With bookingId set, the
// booking's stored amount is charged and amount is ignored.
type CreateOrderRequest struct {
	Amount    int64  `json:"amount"`
	BookingID string `json:"bookingId"`
}

// PaymentHandler opens gateway orders for checkout
type PaymentHandler struct {
	payments *services.PaymentService
	logger   *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// CreateOrder creates a payment gateway order
// @Summary Create payment order
// @Description Creates a gateway order. The response amount is in paise.
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body CreateOrderRequest true "Order request"
// @Success 200 {object} services.OrderResult
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse "Booking not found"
// @Failure 502 {object} errorResponse "Payment gateway unavailable"
// @Security BearerAuth
// @Router /api/v1/payment/order [post]
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	order, err := h.payments.CreateOrder(c.Request.Context(), services.CreateOrderInput{
		Amount:    req.Amount,
		BookingID: req.BookingID,
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
