package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/careconnect/booking-backend/internal/models"
	"github.com/google/uuid"
)

// BookingRepository handles booking persistence
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{
		db: db,
	}
}

// Create inserts a new booking record
func (r *BookingRepository) Create(booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, seeker_id, provider_id, status,
			sector, service_date, start_time, end_time, address,
			pricing, rating, deposit_intent_id, balance_intent_id, last_error,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4::booking_status, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Exec(
		query,
		booking.ID,
		booking.SeekerID,
		booking.ProviderID,
		booking.Status,
		booking.Sector,
		booking.ServiceDate,
		booking.StartTime,
		booking.EndTime,
		booking.Address,
		booking.Pricing,
		booking.Rating,
		booking.DepositIntentID,
		booking.BalanceIntentID,
		booking.LastError,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetByID fetches a booking by its conversation-derived id.
// Returns (nil, nil) when no booking exists.
func (r *BookingRepository) GetByID(id string) (*models.Booking, error) {
	query := `
		SELECT id, seeker_id, provider_id, status,
		       sector, service_date, start_time, end_time, address,
		       pricing, rating, deposit_intent_id, balance_intent_id, last_error,
		       created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	booking, err := r.scanBooking(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	return booking, nil
}

// Update persists the mutable fields of a booking
func (r *BookingRepository) Update(booking *models.Booking) error {
	query := `
		UPDATE bookings SET
			status = $1::booking_status,
			service_date = $2,
			start_time = $3,
			end_time = $4,
			address = $5,
			pricing = $6,
			rating = $7,
			deposit_intent_id = $8,
			balance_intent_id = $9,
			last_error = $10,
			updated_at = $11
		WHERE id = $12
	`

	result, err := r.db.Exec(
		query,
		booking.Status,
		booking.ServiceDate,
		booking.StartTime,
		booking.EndTime,
		booking.Address,
		booking.Pricing,
		booking.Rating,
		booking.DepositIntentID,
		booking.BalanceIntentID,
		booking.LastError,
		time.Now(),
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("booking %s not found", booking.ID)
	}

	return nil
}

// ListByParticipant returns every booking a user takes part in, newest first
func (r *BookingRepository) ListByParticipant(userID uuid.UUID, limit, offset int) ([]*models.Booking, error) {
	query := `
		SELECT id, seeker_id, provider_id, status,
		       sector, service_date, start_time, end_time, address,
		       pricing, rating, deposit_intent_id, balance_intent_id, last_error,
		       created_at, updated_at
		FROM bookings
		WHERE seeker_id = $1 OR provider_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *BookingRepository) scanBooking(row rowScanner) (*models.Booking, error) {
	booking := &models.Booking{}
	var pricing models.PricingResult

	err := row.Scan(
		&booking.ID,
		&booking.SeekerID,
		&booking.ProviderID,
		&booking.Status,
		&booking.Sector,
		&booking.ServiceDate,
		&booking.StartTime,
		&booking.EndTime,
		&booking.Address,
		&pricing,
		&booking.Rating,
		&booking.DepositIntentID,
		&booking.BalanceIntentID,
		&booking.LastError,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// NULL pricing scans to the zero value; an empty breakdown is absent.
	if pricing.Hours > 0 || pricing.FinalPrice > 0 {
		booking.Pricing = &pricing
	}

	return booking, nil
}
