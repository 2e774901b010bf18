package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/careconnect/booking-backend/internal/middleware"
	"github.com/careconnect/booking-backend/internal/services"
)

// ReviewHandler handles rating and review endpoints
type ReviewHandler struct {
	reviewService *services.ReviewService
	logger        *logrus.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService *services.ReviewService, logger *logrus.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger,
	}
}

// ============================================================================
// SUBMIT RATING - POST /api/v1/bookings/:booking_id/rating
// ============================================================================

// RatingRequest carries the seeker's star rating, comment optional
type RatingRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// SubmitRating records the seeker's rating for a performed service.
// Ratings below 3 stars require a written review before the booking advances.
// @Summary Submit a rating
// @Tags Reviews
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param booking_id path string true "Booking ID"
// @Param request body RatingRequest true "Rating"
// @Success 200 {object} models.Booking
// @Failure 400 {object} map[string]interface{} "Invalid rating or wrong status"
// @Router /bookings/{booking_id}/rating [post]
func (h *ReviewHandler) SubmitRating(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	booking, err := h.reviewService.SubmitRating(c.Param("booking_id"), userCtx.UserID, req.Rating, req.Comment)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// ============================================================================
// SUBMIT REVIEW - POST /api/v1/bookings/:booking_id/review
// ============================================================================

// ReviewRequest carries the written review text for a low rating
type ReviewRequest struct {
	Comment string `json:"comment" binding:"required"`
}

// SubmitReview releases a booking held in the review-required state
// @Summary Submit a written review
// @Tags Reviews
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param booking_id path string true "Booking ID"
// @Param request body ReviewRequest true "Review text"
// @Success 200 {object} models.Booking
// @Failure 400 {object} map[string]interface{} "No review pending or empty text"
// @Router /bookings/{booking_id}/review [post]
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	booking, err := h.reviewService.SubmitReview(c.Param("booking_id"), userCtx.UserID, req.Comment)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// ============================================================================
// PROVIDER REVIEWS - GET /api/v1/providers/:provider_id/reviews
// ============================================================================

// GetProviderReviews returns a provider's reviews, newest first
// @Summary List provider reviews
// @Tags Reviews
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param provider_id path string true "Provider ID"
// @Success 200 {object} map[string]interface{}
// @Router /providers/{provider_id}/reviews [get]
func (h *ReviewHandler) GetProviderReviews(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("provider_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid provider id"})
		return
	}

	reviews, err := h.reviewService.GetProviderReviews(providerID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list provider reviews")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reviews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "count": len(reviews)})
}

// ============================================================================
// PROVIDER STATS - GET /api/v1/providers/:provider_id/stats
// ============================================================================

// GetProviderStats returns the provider's aggregate rating figures
// @Summary Get provider rating stats
// @Tags Reviews
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param provider_id path string true "Provider ID"
// @Success 200 {object} models.ProviderStats
// @Router /providers/{provider_id}/stats [get]
func (h *ReviewHandler) GetProviderStats(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("provider_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid provider id"})
		return
	}

	stats, err := h.reviewService.GetProviderStats(providerID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load provider stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
