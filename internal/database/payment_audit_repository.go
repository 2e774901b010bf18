package database

import (
	"fmt"
	"time"

	"github.com/careconnect/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PaymentAuditRepository handles the append-only payment audit trail
type PaymentAuditRepository struct {
	db     DB
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(db DB, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Record creates a new payment audit entry
// This should NEVER fail silently - payment events must be logged
func (r *PaymentAuditRepository) Record(audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}

	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_audits (
			id, booking_id, intent_id,
			event_type, event_source, kind,
			amount, total, currency,
			error_message,
			ip_address, user_agent, device,
			payload, created_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9,
			$10,
			$11, $12, $13,
			$14, $15
		)`

	_, err := r.db.Exec(query,
		audit.ID, audit.BookingID, audit.IntentID,
		audit.EventType, audit.EventSource, audit.Kind,
		audit.Amount, audit.Total, audit.Currency,
		audit.ErrorMessage,
		audit.IPAddress, audit.UserAgent, audit.Device,
		audit.Payload, audit.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": audit.BookingID,
			"event_type": audit.EventType,
		}).Error("Failed to record payment audit entry")
		return fmt.Errorf("failed to record payment audit: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":   audit.ID,
		"booking_id": audit.BookingID,
		"event_type": audit.EventType,
	}).Debug("Payment audit recorded")

	return nil
}

// ListByBookingID retrieves the full audit trail for a booking, oldest first
func (r *PaymentAuditRepository) ListByBookingID(bookingID string) ([]*models.PaymentAudit, error) {
	query := `
		SELECT id, booking_id, intent_id,
		       event_type, event_source, kind,
		       amount, total, currency,
		       error_message,
		       ip_address, user_agent, device,
		       payload, created_at
		FROM payment_audits
		WHERE booking_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment audits: %w", err)
	}
	defer rows.Close()

	var audits []*models.PaymentAudit
	for rows.Next() {
		audit := &models.PaymentAudit{}
		err := rows.Scan(
			&audit.ID, &audit.BookingID, &audit.IntentID,
			&audit.EventType, &audit.EventSource, &audit.Kind,
			&audit.Amount, &audit.Total, &audit.Currency,
			&audit.ErrorMessage,
			&audit.IPAddress, &audit.UserAgent, &audit.Device,
			&audit.Payload, &audit.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment audit: %w", err)
		}
		audits = append(audits, audit)
	}

	return audits, rows.Err()
}

// CountRecentFailures counts failed initiations for a booking within the
// given window, for retry-pressure monitoring
func (r *PaymentAuditRepository) CountRecentFailures(bookingID string, window time.Duration) (int, error) {
	query := `
		SELECT COUNT(*) FROM payment_audits
		WHERE booking_id = $1
		AND event_type = $2
		AND created_at > $3
	`

	var count int
	err := r.db.QueryRow(query, bookingID, models.PaymentEventFailed, time.Now().Add(-window)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count payment failures: %w", err)
	}

	return count, nil
}
