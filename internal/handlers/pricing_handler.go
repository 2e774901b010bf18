package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/careconnect/booking-backend/internal/models"
	"github.com/careconnect/booking-backend/internal/services"
)

// PricingHandler handles pricing preview endpoints
type PricingHandler struct {
	pricingService *services.PricingService
	logger         *logrus.Logger
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(pricingService *services.PricingService, logger *logrus.Logger) *PricingHandler {
	return &PricingHandler{
		pricingService: pricingService,
		logger:         logger,
	}
}

// PricingQuoteRequest carries a candidate service time window
type PricingQuoteRequest struct {
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// ============================================================================
// QUOTE - POST /api/v1/pricing/quote
// ============================================================================

// Quote prices a time window before any booking exists
// @Summary Price a service time window
// @Description Returns the cost breakdown, display string and deposit/balance split
// @Tags Pricing
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body PricingQuoteRequest true "Time window"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Invalid or too-short window"
// @Router /pricing/quote [post]
func (h *PricingHandler) Quote(c *gin.Context) {
	var req PricingQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	result, err := h.pricingService.PriceForTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	split := models.ComputePaymentSplit(result.FinalPrice, h.pricingService.DepositRate())

	c.JSON(http.StatusOK, gin.H{
		"pricing":   result,
		"formatted": h.pricingService.FormatPrice(result.FinalPrice),
		"summary":   h.pricingService.PricingSummary(result),
		"split":     split,
	})
}
