package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/careconnect/booking-backend/internal/config"
	"github.com/careconnect/booking-backend/internal/database"
	"github.com/careconnect/booking-backend/internal/handlers"
	"github.com/careconnect/booking-backend/internal/middleware"
	"github.com/careconnect/booking-backend/internal/services"
	"github.com/careconnect/booking-backend/pkg/jwt"
	"github.com/careconnect/booking-backend/pkg/logging"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger with the noisy-error suppression list
	logger := logging.New(cfg.Logging.Level, cfg.Logging.SuppressedErrors)
	logger.Info("Starting CareConnect Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize repositories
	bookingRepo := database.NewBookingRepository(db)
	reviewRepo := database.NewReviewRepository(db)
	auditRepo := database.NewPaymentAuditRepository(db, logger)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	pricingService := services.NewPricingService(cfg.Pricing, logger)
	bookingService := services.NewBookingService(bookingRepo, pricingService, logger)
	stripeService := services.NewStripeService(&cfg.Payment, logger)
	orchestratorService := services.NewPaymentOrchestratorService(
		bookingRepo,
		bookingService,
		stripeService,
		auditRepo,
		cfg.Pricing,
		cfg.Payment.Currency,
		logger,
	)
	reviewService := services.NewReviewService(reviewRepo, bookingRepo, bookingService, logger)

	if !stripeService.IsConfigured() {
		logger.Warn("Payment gateway key missing, payment endpoints will reject requests")
	}

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	paymentHandler := handlers.NewPaymentHandler(orchestratorService, auditRepo, logger)
	reviewHandler := handlers.NewReviewHandler(reviewService, logger)
	pricingHandler := handlers.NewPricingHandler(pricingService, logger)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Authenticated API routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(jwtService))
	{
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("/:booking_id", bookingHandler.GetBooking)
			bookings.PUT("/:booking_id/schedule", bookingHandler.Reschedule)
			bookings.POST("/:booking_id/address", bookingHandler.ConfirmAddress)
			bookings.POST("/:booking_id/performed", bookingHandler.MarkPerformed)

			bookings.POST("/:booking_id/payments/deposit", paymentHandler.InitiateDeposit)
			bookings.POST("/:booking_id/payments/deposit/confirm", paymentHandler.ConfirmDeposit)
			bookings.POST("/:booking_id/payments/balance", paymentHandler.InitiateBalance)
			bookings.POST("/:booking_id/payments/balance/confirm", paymentHandler.ConfirmBalance)
			bookings.POST("/:booking_id/payments/cancel", paymentHandler.ReportCancellation)
			bookings.GET("/:booking_id/payments/audit", paymentHandler.GetAuditTrail)

			bookings.POST("/:booking_id/rating", reviewHandler.SubmitRating)
			bookings.POST("/:booking_id/review", reviewHandler.SubmitReview)
		}

		v1.POST("/payments/quote", paymentHandler.Quote)
		v1.POST("/pricing/quote", pricingHandler.Quote)

		providers := v1.Group("/providers")
		{
			providers.GET("/:provider_id/reviews", reviewHandler.GetProviderReviews)
			providers.GET("/:provider_id/stats", reviewHandler.GetProviderStats)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
		}

		entry := logger.WithFields(fields)
		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
