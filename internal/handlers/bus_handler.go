package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/services"
)

// BusHandler serves fleet lookups
type BusHandler struct {
	fleet  *services.FleetService
	logger *logrus.Logger
}

// NewBusHandler creates a new BusHandler
func NewBusHandler(fleet *services.FleetService, logger *logrus.Logger) *BusHandler {
	return &BusHandler{fleet: fleet, logger: logger}
}

// ListBuses returns every bus
// @Summary List buses
// @Tags Buses
// @Produce json
// @Success 200 {array} models.Bus
// @Router /api/v1/buses [get]
func (h *BusHandler) ListBuses(c *gin.Context) {
	buses, err := h.fleet.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, buses)
}

// GetBus returns one bus
// @Summary Get bus
// @Tags Buses
// @Produce json
// @Param id path string true "Bus ID"
// @Success 200 {object} models.Bus
// @Failure 404 {object} errorResponse
// @Router /api/v1/buses/{id} [get]
func (h *BusHandler) GetBus(c *gin.Context) {
	bus, err := h.fleet.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bus)
}
