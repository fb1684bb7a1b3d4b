package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/smarttransit/seat-booking-backend/internal/services"
)

// AdminHandler serves operator reports and fleet management
type AdminHandler struct {
	reports  *services.ReportService
	payments *services.PaymentService
	fleet    *services.FleetService
	cron     *services.CronService
	logger   *logrus.Logger
}

// NewAdminHandler creates a new AdminHandler. cron may be nil.
func NewAdminHandler(
	reports *services.ReportService,
	payments *services.PaymentService,
	fleet *services.FleetService,
	cron *services.CronService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		reports:  reports,
		payments: payments,
		fleet:    fleet,
		cron:     cron,
		logger:   logger,
	}
}

// Manifest lists confirmed seats for a bus
// @Summary Passenger manifest
// @Description One row per confirmed seat, newest travel date first. Omit date to cover every date.
// @Tags Admin
// @Produce json
// @Param busId query string true "Bus ID"
// @Param date query string false "Travel date (YYYY-MM-DD)"
// @Success 200 {array} models.ManifestRow
// @Failure 400 {object} errorResponse
// @Security BearerAuth
// @Router /api/v1/admin/manifest [get]
func (h *AdminHandler) Manifest(c *gin.Context) {
	rows, err := h.reports.Manifest(c.Request.Context(), c.Query("busId"), c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// History summarises revenue per past trip
// @Summary Trip history
// @Tags Admin
// @Produce json
// @Success 200 {array} models.TripSummary
// @Security BearerAuth
// @Router /api/v1/admin/history [get]
func (h *AdminHandler) History(c *gin.Context) {
	summaries, err := h.reports.History(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// PaymentHistory lists the payment audit trail of a booking
// @Summary Booking payment audit
// @Tags Admin
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {array} models.PaymentAudit
// @Failure 404 {object} errorResponse
// @Security BearerAuth
// @Router /api/v1/admin/bookings/{id}/payments [get]
func (h *AdminHandler) PaymentHistory(c *gin.Context) {
	audits, err := h.payments.PaymentHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, audits)
}

// CreateBus adds a bus to the fleet
// @Summary Create bus
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body models.CreateBusRequest true "Bus"
// @Success 201 {object} models.Bus
// @Failure 400 {object} errorResponse
// @Security BearerAuth
// @Router /api/v1/admin/buses [post]
func (h *AdminHandler) CreateBus(c *gin.Context) {
	var req models.CreateBusRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	bus, err := h.fleet.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, bus)
}

// UpdateBusPrice changes the fare charged to future bookings
// @Summary Update bus fare
// @Description Existing bookings keep the amount they were created with
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Bus ID"
// @Param request body models.UpdatePriceRequest true "New fare"
// @Success 200 {object} models.Bus
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Security BearerAuth
// @Router /api/v1/admin/buses/{id}/price [patch]
func (h *AdminHandler) UpdateBusPrice(c *gin.Context) {
	var req models.UpdatePriceRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	bus, err := h.fleet.UpdatePrice(c.Request.Context(), c.Param("id"), req.Price)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bus)
}

// StalePending reports how many unpaid bookings have passed their travel date
// @Summary Stale pending bookings
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/admin/jobs/stale-pending [get]
func (h *AdminHandler) StalePending(c *gin.Context) {
	count, err := h.reports.StalePendingCount(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := gin.H{"stale_pending": count}
	if h.cron != nil {
		resp["scheduler"] = h.cron.GetJobStatus()
	}
	c.JSON(http.StatusOK, resp)
}
