package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/services"
)

// VerifyHandler serves ticket lookups and boarding
type VerifyHandler struct {
	lifecycle *services.LifecycleService
	logger    *logrus.Logger
}

// NewVerifyHandler creates a new VerifyHandler
func NewVerifyHandler(lifecycle *services.LifecycleService, logger *logrus.Logger) *VerifyHandler {
	return &VerifyHandler{lifecycle: lifecycle, logger: logger}
}

// GetBooking returns a booking by id
// @Summary Look up booking
// @Tags Verify
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 404 {object} errorResponse
// @Router /api/v1/verify/{id} [get]
func (h *VerifyHandler) GetBooking(c *gin.Context) {
	booking, err := h.lifecycle.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// Ticket returns the e-ticket PDF
// @Summary Download e-ticket
// @Tags Verify
// @Produce application/pdf
// @Param id path string true "Booking ID"
// @Success 200 {file} binary
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse "Booking is not paid"
// @Router /api/v1/verify/{id}/ticket [get]
func (h *VerifyHandler) Ticket(c *gin.Context) {
	pdf, filename, err := h.lifecycle.Ticket(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Board marks a Paid booking as boarded
// @Summary Board passenger
// @Tags Verify
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse "Booking is not paid"
// @Security BearerAuth
// @Router /api/v1/verify/{id}/board [post]
func (h *VerifyHandler) Board(c *gin.Context) {
	booking, err := h.lifecycle.Board(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
