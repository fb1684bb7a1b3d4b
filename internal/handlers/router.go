package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/middleware"
	"github.com/smarttransit/seat-booking-backend/pkg/jwt"
	"github.com/smarttransit/seat-booking-backend/pkg/ratelimit"
)

// Rate limit classes
const (
	LimitClassBooking = "booking"
	LimitClassPayment = "payment"
)

// Handlers groups every HTTP handler the API serves
type Handlers struct {
	Booking *BookingHandler
	Payment *PaymentHandler
	Verify  *VerifyHandler
	Admin   *AdminHandler
	Bus     *BusHandler
	Health  *HealthHandler
}

// RegisterRoutes mounts the API on router. limiter may be disabled but not nil.
func RegisterRoutes(router *gin.Engine, h *Handlers, jwtService *jwt.Service, limiter *ratelimit.RateLimiter, logger *logrus.Logger) {
	auth := middleware.AuthMiddleware(jwtService, logger)

	router.GET("/health", h.Health.Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/buses", h.Bus.ListBuses)
		v1.GET("/buses/:id", h.Bus.GetBus)

		bookings := v1.Group("/bookings")
		{
			bookings.GET("/occupied", h.Booking.OccupiedSeats)

			protected := bookings.Group("", auth)
			protected.POST("/init", ratelimit.Middleware(limiter, LimitClassBooking, logger), h.Booking.InitBooking)
			protected.POST("/verify", ratelimit.Middleware(limiter, LimitClassPayment, logger), h.Booking.VerifyPayment)
			protected.GET("/user/:email", h.Booking.UserBookings)
			protected.POST("/:id/cancel", h.Booking.CancelBooking)
			protected.POST("/:id/refund", h.Booking.RequestRefund)
		}

		v1.POST("/payment/order", auth, ratelimit.Middleware(limiter, LimitClassPayment, logger), h.Payment.CreateOrder)

		verify := v1.Group("/verify")
		{
			verify.GET("/:id", h.Verify.GetBooking)
			verify.GET("/:id/ticket", h.Verify.Ticket)
			verify.POST("/:id/board", auth, middleware.RequireRole(jwt.RoleConductor, jwt.RoleAdmin), h.Verify.Board)
		}

		admin := v1.Group("/admin", auth, middleware.RequireRole(jwt.RoleAdmin))
		{
			admin.GET("/manifest", h.Admin.Manifest)
			admin.GET("/history", h.Admin.History)
			admin.GET("/bookings/:id/payments", h.Admin.PaymentHistory)
			admin.POST("/buses", h.Admin.CreateBus)
			admin.PATCH("/buses/:id/price", h.Admin.UpdateBusPrice)
			admin.GET("/jobs/stale-pending", h.Admin.StalePending)
		}
	}
}
