package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DetailedReviewThreshold: ratings below this require a written review
// before the booking can complete.
const DetailedReviewThreshold = 3

// Review is an append-only rating record linked to exactly one booking.
// Immutable once created; resubmission is rejected.
type Review struct {
	ID         uuid.UUID `json:"id" db:"id"`
	BookingID  string    `json:"booking_id" db:"booking_id"`
	ProviderID uuid.UUID `json:"provider_id" db:"provider_id"`
	SeekerID   uuid.UUID `json:"seeker_id" db:"seeker_id"`

	Rating  int    `json:"rating" db:"rating"` // 1..5
	Comment string `json:"comment" db:"comment"`

	Sector       string  `json:"sector" db:"sector"`
	ServiceDate  string  `json:"service_date" db:"service_date"`
	ServiceHours float64 `json:"service_hours" db:"service_hours"`
	Amount       float64 `json:"amount" db:"amount"`

	Verified  bool      `json:"verified" db:"verified"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ValidRating reports whether the value is an acceptable star rating
func ValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}

// RequiresDetailedReview reports whether the rating forces a written review
func RequiresDetailedReview(rating int) bool {
	return rating < DetailedReviewThreshold
}

// HasComment reports whether the review carries non-empty text
func (r *Review) HasComment() bool {
	return strings.TrimSpace(r.Comment) != ""
}

// RatingDistribution counts reviews per star value, stored as JSONB
type RatingDistribution map[int]int

// Value implements the driver.Valuer interface
func (d RatingDistribution) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface
func (d *RatingDistribution) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported distribution source type %T", src)
	}

	if len(data) == 0 {
		*d = nil
		return nil
	}
	return json.Unmarshal(data, d)
}

// ProviderStats is the aggregate recomputed whenever a review is created
type ProviderStats struct {
	ProviderID    uuid.UUID          `json:"provider_id" db:"provider_id"`
	AverageRating float64            `json:"average_rating" db:"average_rating"` // rounded to 1 decimal
	TotalReviews  int                `json:"total_reviews" db:"total_reviews"`
	Distribution  RatingDistribution `json:"distribution,omitempty" db:"distribution"`
	LastReviewAt  time.Time          `json:"last_review_at" db:"last_review_at"`
}
