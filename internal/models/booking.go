package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// BOOKING STATUS (matches DB ENUM booking_status)
// ============================================================================

// BookingStatus represents the lifecycle state of a booking.
// It is owned by the booking service and mutated only through
// the transitions below; handlers never write it directly.
type BookingStatus string

const (
	StatusDiscussing       BookingStatus = "discussing"        // request created, negotiation in progress
	StatusAddressConfirmed BookingStatus = "address_confirmed" // address supplied, displayed price accepted
	StatusDepositPending   BookingStatus = "deposit_pending"   // deposit initiated at the gateway
	StatusServiceScheduled BookingStatus = "service_scheduled" // deposit confirmed
	StatusAwaitingRating   BookingStatus = "awaiting_rating"   // provider marked the service performed
	StatusReviewRequired   BookingStatus = "review_required"   // low rating, detailed review pending
	StatusRatingGiven      BookingStatus = "rating_given"      // rating (and review if required) recorded
	StatusCompleted        BookingStatus = "completed"         // balance confirmed, terminal
)

// statusRank orders the lifecycle. Transitions may only increase rank.
var statusRank = map[BookingStatus]int{
	StatusDiscussing:       0,
	StatusAddressConfirmed: 1,
	StatusDepositPending:   2,
	StatusServiceScheduled: 3,
	StatusAwaitingRating:   4,
	StatusReviewRequired:   5,
	StatusRatingGiven:      6,
	StatusCompleted:        7,
}

// allowedTransitions enumerates the legal forward edges.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	StatusDiscussing:       {StatusAddressConfirmed},
	StatusAddressConfirmed: {StatusDepositPending},
	StatusDepositPending:   {StatusServiceScheduled},
	StatusServiceScheduled: {StatusAwaitingRating},
	StatusAwaitingRating:   {StatusRatingGiven, StatusReviewRequired},
	StatusReviewRequired:   {StatusRatingGiven},
	StatusRatingGiven:      {StatusCompleted},
	StatusCompleted:        {},
}

// IsValid reports whether the value is a known lifecycle state
func (s BookingStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// IsTerminal reports whether the booking has reached its final state
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted
}

// CanTransitionTo reports whether moving to next is a legal forward edge
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if statusRank[next] <= statusRank[s] {
		return false
	}
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ============================================================================
// SERVICE REQUEST
// ============================================================================

// ServiceRequest is the inbound request that opens a booking: a sector,
// a scheduled day, a time window, and the two participants.
type ServiceRequest struct {
	Sector      string    `json:"sector" binding:"required"`
	ServiceDate string    `json:"service_date" binding:"required"` // as supplied by the scheduling UI, e.g. "2026-03-14"
	StartTime   string    `json:"start_time" binding:"required"`   // HH:MM or HHhMM
	EndTime     string    `json:"end_time" binding:"required"`
	SeekerID    uuid.UUID `json:"seeker_id"`
	ProviderID  uuid.UUID `json:"provider_id" binding:"required"`
}

// Validate checks structural requirements. Time-window semantics are
// validated by the pricing engine.
func (r *ServiceRequest) Validate() error {
	if strings.TrimSpace(r.Sector) == "" {
		return fmt.Errorf("sector is required")
	}
	if strings.TrimSpace(r.ServiceDate) == "" {
		return fmt.Errorf("service date is required")
	}
	if r.SeekerID == uuid.Nil || r.ProviderID == uuid.Nil {
		return fmt.Errorf("both participants are required")
	}
	if r.SeekerID == r.ProviderID {
		return fmt.Errorf("seeker and provider must be different users")
	}
	return nil
}

// ConversationID derives the deterministic, order-independent booking
// identifier from the two participant ids.
func ConversationID(a, b uuid.UUID) string {
	first, second := a.String(), b.String()
	if second < first {
		first, second = second, first
	}
	return first + "_" + second
}

// ============================================================================
// BOOKING RECORD
// ============================================================================

// Booking is the durable conversation/booking record. One record per
// participant pair; never reused across two service engagements.
type Booking struct {
	ID         string        `json:"id" db:"id"`
	SeekerID   uuid.UUID     `json:"seeker_id" db:"seeker_id"`
	ProviderID uuid.UUID     `json:"provider_id" db:"provider_id"`
	Status     BookingStatus `json:"status" db:"status"`

	Sector      string  `json:"sector" db:"sector"`
	ServiceDate string  `json:"service_date" db:"service_date"`
	StartTime   string  `json:"start_time" db:"start_time"`
	EndTime     string  `json:"end_time" db:"end_time"`
	Address     *string `json:"address,omitempty" db:"address"`

	// Pricing is the last computed breakdown, recomputed (never mutated)
	// whenever the time window changes.
	Pricing *PricingResult `json:"pricing,omitempty" db:"pricing"`

	Rating          *int    `json:"rating,omitempty" db:"rating"`
	DepositIntentID *string `json:"deposit_intent_id,omitempty" db:"deposit_intent_id"`
	BalanceIntentID *string `json:"balance_intent_id,omitempty" db:"balance_intent_id"`

	// LastError holds the most recent non-advancing failure (payment
	// retry context). Cleared on the next successful transition.
	LastError *string `json:"last_error,omitempty" db:"last_error"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Participants returns both participant ids, seeker first
func (b *Booking) Participants() []uuid.UUID {
	return []uuid.UUID{b.SeekerID, b.ProviderID}
}

// HasParticipant reports whether the given user belongs to this booking
func (b *Booking) HasParticipant(userID uuid.UUID) bool {
	return userID == b.SeekerID || userID == b.ProviderID
}

// AddressLocked reports whether the service address can no longer change
func (b *Booking) AddressLocked() bool {
	return statusRank[b.Status] >= statusRank[StatusAddressConfirmed]
}
