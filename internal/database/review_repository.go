package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/careconnect/booking-backend/internal/models"
	"github.com/google/uuid"
)

// ReviewRepository handles review and provider-aggregate persistence.
// Reviews are append-only: there is no update or delete path.
type ReviewRepository struct {
	db DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db DB) *ReviewRepository {
	return &ReviewRepository{
		db: db,
	}
}

// Create inserts a new review
func (r *ReviewRepository) Create(review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO reviews (
			id, booking_id, provider_id, seeker_id,
			rating, comment, sector, service_date,
			service_hours, amount, verified, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(
		query,
		review.ID,
		review.BookingID,
		review.ProviderID,
		review.SeekerID,
		review.Rating,
		review.Comment,
		review.Sector,
		review.ServiceDate,
		review.ServiceHours,
		review.Amount,
		review.Verified,
		review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// GetByBookingID fetches the review attached to a booking.
// Returns (nil, nil) when the booking has no review.
func (r *ReviewRepository) GetByBookingID(bookingID string) (*models.Review, error) {
	query := `
		SELECT id, booking_id, provider_id, seeker_id,
		       rating, comment, sector, service_date,
		       service_hours, amount, verified, created_at
		FROM reviews
		WHERE booking_id = $1
	`

	review := &models.Review{}
	err := r.db.QueryRow(query, bookingID).Scan(
		&review.ID,
		&review.BookingID,
		&review.ProviderID,
		&review.SeekerID,
		&review.Rating,
		&review.Comment,
		&review.Sector,
		&review.ServiceDate,
		&review.ServiceHours,
		&review.Amount,
		&review.Verified,
		&review.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch review: %w", err)
	}

	return review, nil
}

// ListByProvider returns all reviews for a provider, newest first
func (r *ReviewRepository) ListByProvider(providerID uuid.UUID) ([]*models.Review, error) {
	query := `
		SELECT id, booking_id, provider_id, seeker_id,
		       rating, comment, sector, service_date,
		       service_hours, amount, verified, created_at
		FROM reviews
		WHERE provider_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		review := &models.Review{}
		err := rows.Scan(
			&review.ID,
			&review.BookingID,
			&review.ProviderID,
			&review.SeekerID,
			&review.Rating,
			&review.Comment,
			&review.Sector,
			&review.ServiceDate,
			&review.ServiceHours,
			&review.Amount,
			&review.Verified,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	return reviews, rows.Err()
}

// GetStats fetches the provider aggregate.
// Returns (nil, nil) when the provider has no stats row yet.
func (r *ReviewRepository) GetStats(providerID uuid.UUID) (*models.ProviderStats, error) {
	query := `
		SELECT provider_id, average_rating, total_reviews, distribution, last_review_at
		FROM provider_stats
		WHERE provider_id = $1
	`

	stats := &models.ProviderStats{}
	err := r.db.QueryRow(query, providerID).Scan(
		&stats.ProviderID,
		&stats.AverageRating,
		&stats.TotalReviews,
		&stats.Distribution,
		&stats.LastReviewAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider stats: %w", err)
	}

	return stats, nil
}

// UpsertStats writes the recomputed provider aggregate
func (r *ReviewRepository) UpsertStats(stats *models.ProviderStats) error {
	query := `
		INSERT INTO provider_stats (provider_id, average_rating, total_reviews, distribution, last_review_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider_id) DO UPDATE SET
			average_rating = EXCLUDED.average_rating,
			total_reviews = EXCLUDED.total_reviews,
			distribution = EXCLUDED.distribution,
			last_review_at = EXCLUDED.last_review_at
	`

	_, err := r.db.Exec(query, stats.ProviderID, stats.AverageRating, stats.TotalReviews, stats.Distribution, stats.LastReviewAt)
	if err != nil {
		return fmt.Errorf("failed to upsert provider stats: %w", err)
	}

	return nil
}
