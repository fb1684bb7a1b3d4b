package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/config"
	"github.com/smarttransit/seat-booking-backend/internal/database"
	"github.com/smarttransit/seat-booking-backend/internal/handlers"
	"github.com/smarttransit/seat-booking-backend/internal/middleware"
	"github.com/smarttransit/seat-booking-backend/internal/services"
	"github.com/smarttransit/seat-booking-backend/pkg/cache"
	"github.com/smarttransit/seat-booking-backend/pkg/events"
	"github.com/smarttransit/seat-booking-backend/pkg/jwt"
	"github.com/smarttransit/seat-booking-backend/pkg/payment"
	"github.com/smarttransit/seat-booking-backend/pkg/ratelimit"
	"github.com/smarttransit/seat-booking-backend/pkg/sms"
	"github.com/smarttransit/seat-booking-backend/pkg/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

// stores is the persistence backend selected by DATABASE_DRIVER
type stores struct {
	buses    services.BusStore
	bookings services.BookingLedger
	audits   services.PaymentAuditLog
	ping     handlers.HealthCheck
	close    func() error
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SmartTransit Seat Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	if err := validator.RegisterGinValidations(); err != nil {
		logger.Fatalf("Failed to register request validations: %v", err)
	}

	st, err := openStores(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer st.close()

	// Redis is optional; without it occupancy is read straight from the ledger
	// and rate limiting is disabled.
	var (
		redisClient    *redis.Client
		occupancyCache services.OccupancyCache = services.NoopCache{}
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewClient(cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, continuing without cache and rate limiting")
		} else {
			defer redisClient.Close()
			occupancyCache = cache.NewOccupancyCache(redisClient, cfg.Redis.OccupancyTTL)
			logger.WithField("addr", cfg.Redis.Addr).Info("Redis connected")
		}
	}
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		Enabled:  cfg.RateLimit.Enabled && redisClient != nil,
		Requests: cfg.RateLimit.Requests,
		Window:   cfg.RateLimit.Window,
	})

	var publisher events.Publisher = events.NewLogPublisher(logger)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("Kafka unavailable, booking events will only be logged")
		} else {
			publisher = kafkaPublisher
			logger.WithField("topic", cfg.Kafka.Topic).Info("Kafka publisher ready")
		}
	}
	defer publisher.Close()

	var smsGateway sms.Gateway
	if cfg.SMS.Mode == "production" {
		smsGateway = sms.NewURLGateway(cfg.SMS.APIURL, cfg.SMS.APIKey, cfg.SMS.Mask, logger)
		logger.Info("SMS gateway initialized in production mode")
	} else {
		smsGateway = sms.NewDevGateway(logger)
		logger.Info("SMS gateway in development mode (no actual SMS will be sent)")
	}

	var gateway payment.Gateway
	if cfg.Payment.Mode == "razorpay" {
		gateway = payment.NewRazorpayGateway(payment.RazorpayConfig{
			APIURL:    cfg.Payment.APIURL,
			KeyID:     cfg.Payment.KeyID,
			KeySecret: cfg.Payment.KeySecret,
		})
	} else {
		gateway = payment.NewDevGateway()
	}
	logger.WithField("gateway", gateway.Name()).Info("Payment gateway ready")

	clock := services.NewClock(cfg.Location())
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenExpiry)

	reservations := services.NewReservationService(st.buses, st.bookings, occupancyCache, publisher, logger)
	payments := services.NewPaymentService(st.bookings, st.audits, gateway, occupancyCache, publisher, smsGateway, clock,
		services.PaymentConfig{KeySecret: cfg.Payment.KeySecret, Currency: cfg.Payment.Currency}, logger)
	lifecycle := services.NewLifecycleService(st.bookings, st.buses, occupancyCache, publisher, clock, cfg.Payment.Currency, logger)
	reports := services.NewReportService(st.bookings, clock, logger)
	fleet := services.NewFleetService(st.buses, logger)

	cronService := services.NewCronService(reports, clock, cfg.Jobs.StalePendingAuditSpec, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	defer cronService.Stop()

	healthChecks := map[string]handlers.HealthCheck{"database": st.ping}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	h := &handlers.Handlers{
		Booking: handlers.NewBookingHandler(reservations, payments, lifecycle, validator.NewPhoneValidator(), logger),
		Payment: handlers.NewPaymentHandler(payments, logger),
		Verify:  handlers.NewVerifyHandler(lifecycle, logger),
		Admin:   handlers.NewAdminHandler(reports, payments, fleet, cronService, logger),
		Bus:     handlers.NewBusHandler(fleet, logger),
		Health:  handlers.NewHealthHandler(version, healthChecks),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: !containsWildcard(cfg.CORS.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))
	handlers.RegisterRoutes(router, h, jwtService, limiter, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

func openStores(cfg *config.Config, logger *logrus.Logger) (*stores, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory storage; data is lost on restart")
		mem := database.NewMemoryStore()
		return &stores{
			buses:    mem.Buses,
			bookings: mem.Bookings,
			audits:   mem.Audits,
			ping:     func(ctx context.Context) error { return nil },
			close:    func() error { return nil },
		}, nil
	}

	db, err := database.NewConnection(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Database migrations applied")
	}

	return &stores{
		buses:    database.NewBusRepository(db),
		bookings: database.NewBookingRepository(db),
		audits:   database.NewPaymentAuditRepository(db),
		ping:     db.PingContext,
		close:    db.Close,
	}, nil
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
