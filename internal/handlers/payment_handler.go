package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/careconnect/booking-backend/internal/middleware"
	"github.com/careconnect/booking-backend/internal/models"
	"github.com/careconnect/booking-backend/internal/services"
	"github.com/careconnect/booking-backend/internal/utils"
)

// PaymentAuditReader exposes the stored audit trail to the API layer
type PaymentAuditReader interface {
	ListByBookingID(bookingID string) ([]*models.PaymentAudit, error)
}

// PaymentHandler handles split-payment orchestration endpoints
type PaymentHandler struct {
	orchestrator *services.PaymentOrchestratorService
	auditRepo    PaymentAuditReader
	logger       *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(
	orchestrator *services.PaymentOrchestratorService,
	auditRepo PaymentAuditReader,
	logger *logrus.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		orchestrator: orchestrator,
		auditRepo:    auditRepo,
		logger:       logger,
	}
}

// clientInfo captures the caller's network identity for the audit trail
func clientInfo(c *gin.Context) *services.ClientInfo {
	ua := utils.GetUserAgent(c)
	return &services.ClientInfo{
		IPAddress: utils.GetRealIP(c),
		UserAgent: ua,
		Device:    utils.DescribeDevice(ua),
	}
}

// respondPaymentError maps the payment failure taxonomy onto HTTP.
// Retryable init failures are 502 (the gateway misbehaved, try again),
// confirmation failures are 409 (a charge may exist, do not re-charge).
func respondPaymentError(c *gin.Context, err error) {
	var payErr *models.PaymentError
	if errors.As(err, &payErr) {
		status := http.StatusBadRequest
		switch payErr.Kind {
		case models.PaymentErrorInit:
			if payErr.Err != nil {
				status = http.StatusBadGateway
			}
		case models.PaymentErrorConfirm:
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"error":     string(payErr.Kind),
			"message":   payErr.Message,
			"retryable": payErr.Retryable(),
		})
		return
	}
	respondServiceError(c, err)
}

// ============================================================================
// QUOTE - POST /api/v1/payments/quote
// ============================================================================

// Quote computes the deposit/balance split from a validated payment context
// @Summary Quote a payment split
// @Description Reconstructs the canonical total from the price breakdown and splits it
// @Tags Payments
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body models.PaymentContext true "Payment context"
// @Success 200 {object} models.PaymentSplit
// @Failure 400 {object} map[string]interface{} "Invalid context"
// @Router /payments/quote [post]
func (h *PaymentHandler) Quote(c *gin.Context) {
	var pc models.PaymentContext
	if err := c.ShouldBindJSON(&pc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	split, err := h.orchestrator.Quote(pc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, split)
}

// ============================================================================
// DEPOSIT - POST /api/v1/bookings/:booking_id/payments/deposit
// ============================================================================

// InitiateDeposit creates the deposit payment intent for a booking
// @Summary Initiate the deposit payment
// @Tags Payments
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param booking_id path string true "Booking ID"
// @Success 200 {object} models.PaymentInitiation
// @Failure 400 {object} map[string]interface{} "Wrong status or caller is not the seeker"
// @Failure 502 {object} map[string]interface{} "Gateway failure, safe to retry"
// @Router /bookings/{booking_id}/payments/deposit [post]
func (h *PaymentHandler) InitiateDeposit(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	initiation, err := h.orchestrator.InitiateDeposit(c.Param("booking_id"), userCtx.UserID, clientInfo(c))
	if err != nil {
		h.logger.WithError(err).Warn("Deposit initiation failed")
		respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, initiation)
}

// ConfirmDeposit verifies the deposit charge at the gateway and schedules the service
// @Summary Confirm the deposit payment
// @Tags Payments
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param booking_id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 409 {object} map[string]interface{} "Verification failed, charge may exist"
// @Router /bookings/{booking_id}/payments/deposit/confirm [post]
func (h *PaymentHandler) ConfirmDeposit(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	booking, err := h.orchestrator.ConfirmDeposit(c.Param("booking_id"), userCtx.UserID, clientInfo(c))
	if err != nil {
		h.logger.WithError(err).Warn("Deposit confirmation failed")
		respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// ============================================================================
// BALANCE - POST /api/v1/bookings/:booking_id/payments/balance
// ============================================================================

// InitiateBalance creates the balance payment intent after the rating step
// @Summary Initiate the balance payment
// @Tags Payments
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param booking_id path string true "Booking ID"
// @Success 200 {object} models.PaymentInitiation
// @Failure 400 {object} map[string]interface{} "Rating not given yet"
// @Router /bookings/{booking_id}/payments/balance [post]
func (h *PaymentHandler) InitiateBalance(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	initiation, err := h.orchestrator.InitiateBalance(c.Param("booking_id"), userCtx.UserID, clientInfo(c))
	if err != nil {
		h.logger.WithError(err).Warn("Balance initiation failed")
		respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, initiation)
}

// ConfirmBalance verifies the balance charge and completes the booking
// @Summary Confirm the balance payment
// @Tags Payments
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param booking_id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 409 {object} map[string]interface{} "Verification failed, charge may exist"
// @Router /bookings/{booking_id}/payments/balance/confirm [post]
func (h *PaymentHandler) ConfirmBalance(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	booking, err := h.orchestrator.ConfirmBalance(c.Param("booking_id"), userCtx.UserID, clientInfo(c))
	if err != nil {
		h.logger.WithError(err).Warn("Balance confirmation failed")
		respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// ============================================================================
// CANCELLATION - POST /api/v1/bookings/:booking_id/payments/cancel
// ============================================================================

// CancelRequest identifies which payment phase the user backed out of
type CancelRequest struct {
	Kind models.PaymentKind `json:"kind" binding:"required"`
}

// ReportCancellation records that the user dismissed the payment sheet.
// Audit only: the booking state and any pending intent are untouched.
// @Summary Report a user-cancelled payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param booking_id path string true "Booking ID"
// @Param request body CancelRequest true "Payment phase"
// @Success 200 {object} map[string]interface{}
// @Router /bookings/{booking_id}/payments/cancel [post]
func (h *PaymentHandler) ReportCancellation(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.Kind != models.PaymentKindDeposit && req.Kind != models.PaymentKindBalance {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be deposit or balance"})
		return
	}

	if err := h.orchestrator.ReportCancellation(c.Param("booking_id"), userCtx.UserID, req.Kind, clientInfo(c)); err != nil {
		respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancellation recorded"})
}

// ============================================================================
// AUDIT TRAIL - GET /api/v1/bookings/:booking_id/payments/audit
// ============================================================================

// GetAuditTrail returns the payment audit events for a booking, oldest first
// @Summary Get the payment audit trail
// @Tags Payments
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param booking_id path string true "Booking ID"
// @Success 200 {object} map[string]interface{}
// @Router /bookings/{booking_id}/payments/audit [get]
func (h *PaymentHandler) GetAuditTrail(c *gin.Context) {
	if _, exists := middleware.GetUserContext(c); !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	events, err := h.auditRepo.ListByBookingID(c.Param("booking_id"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load payment audit trail")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit trail"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
