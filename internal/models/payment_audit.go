package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEventType represents the type of payment event
type PaymentEventType string

const (
	PaymentEventInitiated PaymentEventType = "payment_initiated"
	PaymentEventConfirmed PaymentEventType = "payment_confirmed"
	PaymentEventCancelled PaymentEventType = "payment_cancelled"
	PaymentEventFailed    PaymentEventType = "payment_failed"

	// PaymentEventConfirmPending: the gateway accepted the charge but
	// server-side confirmation failed and will be retried.
	PaymentEventConfirmPending PaymentEventType = "payment_confirm_pending"
)

// PaymentEventSource identifies where the event originated
type PaymentEventSource string

const (
	PaymentSourceBackend PaymentEventSource = "backend"
	PaymentSourceGateway PaymentEventSource = "gateway"
	PaymentSourceUser    PaymentEventSource = "user"
)

// PaymentAudit is an immutable audit log entry for payment events.
// Amount fields are kept even on failures so mismatches can be traced.
type PaymentAudit struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BookingID string    `json:"booking_id" db:"booking_id"`
	IntentID  *string   `json:"intent_id,omitempty" db:"intent_id"`

	EventType   PaymentEventType   `json:"event_type" db:"event_type"`
	EventSource PaymentEventSource `json:"event_source" db:"event_source"`
	Kind        PaymentKind        `json:"kind" db:"kind"`

	Amount   *float64 `json:"amount,omitempty" db:"amount"`
	Total    *float64 `json:"total,omitempty" db:"total"`
	Currency *string  `json:"currency,omitempty" db:"currency"`

	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`

	// Client details captured from the initiating request
	IPAddress *string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent *string `json:"user_agent,omitempty" db:"user_agent"`
	Device    *string `json:"device,omitempty" db:"device"`

	Payload JSONB `json:"payload,omitempty" db:"payload"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
