package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/careconnect/booking-backend/internal/models"
)

// DefaultAckComment is stored when an acceptable rating arrives without
// written text, so every recorded review carries a comment.
const DefaultAckComment = "Service completed as agreed."

// ReviewStore persists reviews and the per-provider aggregate.
// GetByBookingID and GetStats return (nil, nil) when no record exists.
type ReviewStore interface {
	Create(review *models.Review) error
	GetByBookingID(bookingID string) (*models.Review, error)
	ListByProvider(providerID uuid.UUID) ([]*models.Review, error)
	GetStats(providerID uuid.UUID) (*models.ProviderStats, error)
	UpsertStats(stats *models.ProviderStats) error
}

// ReviewService records ratings, enforces the detailed-review rule for low
// ratings and recomputes provider aggregates.
type ReviewService struct {
	store    ReviewStore
	bookings BookingStore
	booking  *BookingService
	logger   *logrus.Logger
}

// NewReviewService creates a new review service
func NewReviewService(store ReviewStore, bookings BookingStore, booking *BookingService, logger *logrus.Logger) *ReviewService {
	return &ReviewService{
		store:    store,
		bookings: bookings,
		booking:  booking,
		logger:   logger,
	}
}

// SubmitRating records the seeker's star rating. Ratings at or above the
// threshold are stored immediately (with a default comment when none is
// given); lower ratings park the booking until a written review arrives.
func (s *ReviewService) SubmitRating(bookingID string, actorID uuid.UUID, rating int, comment string) (*models.Booking, error) {
	if !models.ValidRating(rating) {
		return nil, fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}

	booking, err := s.loadForSeeker(bookingID, actorID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusAwaitingRating {
		return nil, fmt.Errorf("booking is not awaiting a rating (status: %s)", booking.Status)
	}

	booking.Rating = &rating

	// A low rating with no written text parks the booking; text supplied
	// with the rating satisfies the detailed-review rule in the same call.
	if models.RequiresDetailedReview(rating) && strings.TrimSpace(comment) == "" {
		if err := s.booking.Transition(booking, models.StatusReviewRequired); err != nil {
			return nil, err
		}
		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"rating":     rating,
		}).Info("Low rating recorded, detailed review required")
		return booking, nil
	}

	if strings.TrimSpace(comment) == "" {
		comment = DefaultAckComment
	}
	if err := s.createReview(booking, rating, comment); err != nil {
		return nil, err
	}
	if err := s.booking.Transition(booking, models.StatusRatingGiven); err != nil {
		return nil, err
	}

	return booking, nil
}

// SubmitReview attaches the written review demanded by a low rating and
// releases the booking towards the balance payment.
func (s *ReviewService) SubmitReview(bookingID string, actorID uuid.UUID, comment string) (*models.Booking, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, fmt.Errorf("review text is required")
	}

	booking, err := s.loadForSeeker(bookingID, actorID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusReviewRequired {
		return nil, fmt.Errorf("booking does not require a review (status: %s)", booking.Status)
	}
	if booking.Rating == nil {
		return nil, fmt.Errorf("booking has no rating on record")
	}

	if err := s.createReview(booking, *booking.Rating, comment); err != nil {
		return nil, err
	}
	if err := s.booking.Transition(booking, models.StatusRatingGiven); err != nil {
		return nil, err
	}

	return booking, nil
}

// GetProviderReviews lists all reviews recorded for a provider
func (s *ReviewService) GetProviderReviews(providerID uuid.UUID) ([]*models.Review, error) {
	return s.store.ListByProvider(providerID)
}

// GetProviderStats returns the provider aggregate, zero-valued when the
// provider has no reviews yet
func (s *ReviewService) GetProviderStats(providerID uuid.UUID) (*models.ProviderStats, error) {
	stats, err := s.store.GetStats(providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider stats: %w", err)
	}
	if stats == nil {
		return &models.ProviderStats{ProviderID: providerID}, nil
	}
	return stats, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *ReviewService) loadForSeeker(bookingID string, actorID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking not found")
	}
	if actorID != booking.SeekerID {
		return nil, fmt.Errorf("unauthorized: only the seeker rates this booking")
	}
	return booking, nil
}

// createReview stores the immutable review record and recomputes the
// provider aggregate. One review per booking, ever: an existing record is
// treated as already done so a retry after a failed status update can still
// drive the booking forward. Resubmission after full success is blocked by
// the status guards in the callers.
func (s *ReviewService) createReview(booking *models.Booking, rating int, comment string) error {
	existing, err := s.store.GetByBookingID(booking.ID)
	if err != nil {
		return fmt.Errorf("failed to check existing review: %w", err)
	}
	if existing != nil {
		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"review_id":  existing.ID,
		}).Info("Review already recorded, keeping original")
		return nil
	}

	review := &models.Review{
		ID:          uuid.New(),
		BookingID:   booking.ID,
		ProviderID:  booking.ProviderID,
		SeekerID:    booking.SeekerID,
		Rating:      rating,
		Comment:     comment,
		Sector:      booking.Sector,
		ServiceDate: booking.ServiceDate,
		Verified:    true,
		CreatedAt:   time.Now(),
	}
	if booking.Pricing != nil {
		review.ServiceHours = booking.Pricing.Hours
		review.Amount = booking.Pricing.FinalPrice
	}

	if err := s.store.Create(review); err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	if err := s.recomputeStats(booking.ProviderID); err != nil {
		s.logger.WithError(err).WithField("provider_id", booking.ProviderID).Warn("Failed to recompute provider stats")
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"provider_id": booking.ProviderID,
		"rating":      rating,
	}).Info("Review recorded")

	return nil
}

// recomputeStats rebuilds the aggregate from the full review list rather
// than incrementing counters, so it self-heals after partial failures.
func (s *ReviewService) recomputeStats(providerID uuid.UUID) error {
	reviews, err := s.store.ListByProvider(providerID)
	if err != nil {
		return fmt.Errorf("failed to list reviews: %w", err)
	}
	if len(reviews) == 0 {
		return nil
	}

	var sum int
	latest := reviews[0].CreatedAt
	distribution := make(models.RatingDistribution)
	for _, r := range reviews {
		sum += r.Rating
		distribution[r.Rating]++
		if r.CreatedAt.After(latest) {
			latest = r.CreatedAt
		}
	}

	stats := &models.ProviderStats{
		ProviderID:    providerID,
		AverageRating: math.Round(float64(sum)/float64(len(reviews))*10) / 10,
		TotalReviews:  len(reviews),
		Distribution:  distribution,
		LastReviewAt:  latest,
	}

	return s.store.UpsertStats(stats)
}
