package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/careconnect/booking-backend/internal/models"
)

// BookingStore persists booking records. GetByID returns (nil, nil) when no
// record exists.
type BookingStore interface {
	Create(booking *models.Booking) error
	GetByID(id string) (*models.Booking, error)
	Update(booking *models.Booking) error
}

// BookingService owns the booking lifecycle. Every status change goes
// through applyTransition so illegal or backwards moves are impossible.
type BookingService struct {
	store   BookingStore
	pricing *PricingService
	logger  *logrus.Logger
}

// NewBookingService creates a new booking lifecycle service
func NewBookingService(store BookingStore, pricing *PricingService, logger *logrus.Logger) *BookingService {
	return &BookingService{
		store:   store,
		pricing: pricing,
		logger:  logger,
	}
}

// ============================================================================
// CREATE / READ
// ============================================================================

// CreateBooking opens a booking for the participant pair. The booking id is
// derived from the pair, so a second request for the same two users returns
// the existing record instead of creating a duplicate.
func (s *BookingService) CreateBooking(req *models.ServiceRequest) (*models.Booking, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	id := models.ConversationID(req.SeekerID, req.ProviderID)

	existing, err := s.store.GetByID(id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up booking: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	pricing, err := s.pricing.PriceForTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	booking := &models.Booking{
		ID:          id,
		SeekerID:    req.SeekerID,
		ProviderID:  req.ProviderID,
		Status:      models.StatusDiscussing,
		Sector:      req.Sector,
		ServiceDate: req.ServiceDate,
		StartTime:   s.pricing.tokens.Normalize(req.StartTime),
		EndTime:     s.pricing.tokens.Normalize(req.EndTime),
		Pricing:     pricing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(booking); err != nil {
		return nil, false, fmt.Errorf("failed to create booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"sector":      booking.Sector,
		"final_price": pricing.FinalPrice,
	}).Info("Booking created")

	return booking, true, nil
}

// GetBooking returns the booking if the caller participates in it
func (s *BookingService) GetBooking(bookingID string, actorID uuid.UUID) (*models.Booking, error) {
	return s.loadForActor(bookingID, actorID)
}

// ============================================================================
// LIFECYCLE TRANSITIONS
// ============================================================================

// Reschedule replaces the service time window and recomputes the price
// breakdown. Only allowed while the booking is still being discussed.
func (s *BookingService) Reschedule(bookingID string, actorID uuid.UUID, serviceDate, startTime, endTime string) (*models.Booking, error) {
	booking, err := s.loadForActor(bookingID, actorID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusDiscussing {
		return nil, fmt.Errorf("booking can no longer be rescheduled (status: %s)", booking.Status)
	}

	pricing, err := s.pricing.PriceForTimeRange(startTime, endTime)
	if err != nil {
		return nil, err
	}

	if serviceDate != "" {
		booking.ServiceDate = serviceDate
	}
	booking.StartTime = s.pricing.tokens.Normalize(startTime)
	booking.EndTime = s.pricing.tokens.Normalize(endTime)
	booking.Pricing = pricing

	booking.UpdatedAt = time.Now()
	if err := s.store.Update(booking); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"final_price": pricing.FinalPrice,
	}).Info("Booking rescheduled")

	return booking, nil
}

// ConfirmAddress records the service address and moves the booking out of
// the discussion phase. The address is immutable from this point on.
func (s *BookingService) ConfirmAddress(bookingID string, actorID uuid.UUID, address string) (*models.Booking, error) {
	booking, err := s.loadForActor(bookingID, actorID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("address is required")
	}
	if booking.AddressLocked() {
		return nil, fmt.Errorf("address is already confirmed and can no longer change")
	}
	if booking.Pricing == nil || booking.Pricing.Hours < s.pricing.MinimumHours() {
		return nil, fmt.Errorf("booking has no valid price for its service window")
	}

	booking.Address = &address
	if err := s.applyTransition(booking, models.StatusAddressConfirmed); err != nil {
		return nil, err
	}

	return booking, nil
}

// MarkPerformed is the provider's assertion that the service took place.
func (s *BookingService) MarkPerformed(bookingID string, actorID uuid.UUID) (*models.Booking, error) {
	booking, err := s.loadForActor(bookingID, actorID)
	if err != nil {
		return nil, err
	}
	if actorID != booking.ProviderID {
		return nil, fmt.Errorf("only the provider can mark the service as performed")
	}

	if err := s.applyTransition(booking, models.StatusAwaitingRating); err != nil {
		return nil, err
	}

	return booking, nil
}

// Transition advances a booking on behalf of another service. Used by the
// payment orchestrator and the review service, which own the business rules
// for their respective edges.
func (s *BookingService) Transition(booking *models.Booking, next models.BookingStatus) error {
	return s.applyTransition(booking, next)
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *BookingService) loadForActor(bookingID string, actorID uuid.UUID) (*models.Booking, error) {
	booking, err := s.store.GetByID(bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking not found")
	}
	if !booking.HasParticipant(actorID) {
		return nil, fmt.Errorf("unauthorized: booking belongs to other users")
	}
	return booking, nil
}

// applyTransition validates the edge, clears any stale payment error and
// persists the new state. Rejects same-state re-entry so a duplicated
// request cannot replay a step.
func (s *BookingService) applyTransition(booking *models.Booking, next models.BookingStatus) error {
	if booking.Status == next {
		return fmt.Errorf("booking is already %s", next)
	}
	if !booking.Status.CanTransitionTo(next) {
		return fmt.Errorf("cannot transition from %s to %s", booking.Status, next)
	}

	previous := booking.Status
	booking.Status = next
	booking.LastError = nil
	booking.UpdatedAt = time.Now()

	if err := s.store.Update(booking); err != nil {
		booking.Status = previous
		return fmt.Errorf("failed to update booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"from":       previous,
		"to":         next,
	}).Info("Booking status changed")

	return nil
}
