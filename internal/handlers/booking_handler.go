package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/careconnect/booking-backend/internal/middleware"
	"github.com/careconnect/booking-backend/internal/models"
	"github.com/careconnect/booking-backend/internal/services"
)

// BookingHandler handles booking lifecycle endpoints
type BookingHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// respondServiceError maps a service-layer error onto an HTTP status.
// Pricing validation failures carry their machine-readable code through.
func respondServiceError(c *gin.Context, err error) {
	var pricingErr *models.ValidationError
	if errors.As(err, &pricingErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "pricing_validation",
			"code":    pricingErr.Code,
			"message": pricingErr.Message,
		})
		return
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
	case strings.Contains(msg, "unauthorized"):
		c.JSON(http.StatusForbidden, gin.H{"error": msg})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
	}
}

// ============================================================================
// CREATE BOOKING - POST /api/v1/bookings
// ============================================================================

// CreateBooking opens (or returns) the booking for a seeker/provider pair
// @Summary Create or fetch a booking
// @Description One booking per participant pair; repeated calls return the existing record
// @Tags Bookings
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body models.ServiceRequest true "Service request"
// @Success 201 {object} models.Booking
// @Success 200 {object} models.Booking "Booking already existed"
// @Failure 400 {object} map[string]interface{} "Validation or pricing error"
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req models.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	// The seeker is always the authenticated caller
	req.SeekerID = userCtx.UserID

	booking, created, err := h.bookingService.CreateBooking(&req)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to create booking")
		respondServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"booking": booking, "created": created})
}

// ============================================================================
// GET BOOKING - GET /api/v1/bookings/:booking_id
// ============================================================================

// GetBooking returns a booking visible to one of its participants
// @Summary Get booking
// @Tags Bookings
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param booking_id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 403 {object} map[string]interface{} "Not a participant"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Router /bookings/{booking_id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	booking, err := h.bookingService.GetBooking(c.Param("booking_id"), userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// ============================================================================
// RESCHEDULE - PUT /api/v1/bookings/:booking_id/schedule
// ============================================================================

// RescheduleRequest carries a replacement time window
type RescheduleRequest struct {
	ServiceDate string `json:"service_date"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
}

// Reschedule replaces the service window while the booking is under discussion
// @Summary Reschedule a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param booking_id path string true "Booking ID"
// @Param request body RescheduleRequest true "New time window"
// @Success 200 {object} models.Booking
// @Failure 400 {object} map[string]interface{} "Invalid window or wrong status"
// @Router /bookings/{booking_id}/schedule [put]
func (h *BookingHandler) Reschedule(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	booking, err := h.bookingService.Reschedule(c.Param("booking_id"), userCtx.UserID, req.ServiceDate, req.StartTime, req.EndTime)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// ============================================================================
// CONFIRM ADDRESS - POST /api/v1/bookings/:booking_id/address
// ============================================================================

// ConfirmAddressRequest carries the service address
type ConfirmAddressRequest struct {
	Address string `json:"address" binding:"required"`
}

// ConfirmAddress locks the service address and ends the discussion phase
// @Summary Confirm service address
// @Tags Bookings
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param booking_id path string true "Booking ID"
// @Param request body ConfirmAddressRequest true "Service address"
// @Success 200 {object} models.Booking
// @Failure 400 {object} map[string]interface{} "Address already locked or wrong status"
// @Router /bookings/{booking_id}/address [post]
func (h *BookingHandler) ConfirmAddress(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req ConfirmAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	booking, err := h.bookingService.ConfirmAddress(c.Param("booking_id"), userCtx.UserID, req.Address)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// ============================================================================
// MARK PERFORMED - POST /api/v1/bookings/:booking_id/performed
// ============================================================================

// MarkPerformed records the provider's assertion that the service took place
// @Summary Mark service as performed
// @Tags Bookings
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param booking_id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 400 {object} map[string]interface{} "Wrong status or caller is not the provider"
// @Router /bookings/{booking_id}/performed [post]
func (h *BookingHandler) MarkPerformed(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	booking, err := h.bookingService.MarkPerformed(c.Param("booking_id"), userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}
