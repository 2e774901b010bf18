package models

import (
	"fmt"

	"github.com/careconnect/booking-backend/pkg/moneymath"
)

// ============================================================================
// PAYMENT KINDS & FAILURE CLASSES
// ============================================================================

// PaymentKind distinguishes the two phases of the split payment
type PaymentKind string

const (
	PaymentKindDeposit PaymentKind = "deposit" // charged to confirm the booking
	PaymentKindBalance PaymentKind = "balance" // charged on completion
)

// PaymentErrorKind classifies a payment failure
type PaymentErrorKind string

const (
	// PaymentErrorInit: gateway/network failure before anything was charged.
	// Safe to retry.
	PaymentErrorInit PaymentErrorKind = "init_error"

	// PaymentErrorCancelled: the user backed out. Not an alarm condition,
	// the action is simply re-offered.
	PaymentErrorCancelled PaymentErrorKind = "user_cancelled"

	// PaymentErrorConfirm: the charge went through at the gateway but the
	// server-side confirmation failed. Must not re-charge.
	PaymentErrorConfirm PaymentErrorKind = "confirm_error"
)

// PaymentError is the discriminated failure returned by the payment
// orchestrator so callers can tell cancellation from real failure.
type PaymentError struct {
	Kind    PaymentErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// Retryable reports whether re-initiating is safe: nothing was charged yet
func (e *PaymentError) Retryable() bool {
	return e.Kind == PaymentErrorInit
}

// NewInitError wraps a pre-charge gateway failure
func NewInitError(message string, err error) *PaymentError {
	return &PaymentError{Kind: PaymentErrorInit, Message: message, Err: err}
}

// NewUserCancelled marks an explicit user cancellation
func NewUserCancelled(message string) *PaymentError {
	return &PaymentError{Kind: PaymentErrorCancelled, Message: message}
}

// NewConfirmError wraps a post-charge confirmation failure
func NewConfirmError(message string, err error) *PaymentError {
	return &PaymentError{Kind: PaymentErrorConfirm, Message: message, Err: err}
}

// ============================================================================
// PAYMENT CONTEXT (single validated cross-boundary value)
// ============================================================================

// PaymentContext carries everything the orchestrator needs across the
// screen boundary in one validated value, replacing the loosely-typed
// payloads that let an 80% balance figure masquerade as a full total.
type PaymentContext struct {
	BookingID string `json:"booking_id"`

	// BasePrice and Discount, when both present, are the authoritative
	// source of the total. FinalPrice alone cannot be trusted: one caller
	// convention treats it as 100% of cost, another as the 80% remainder.
	BasePrice  *float64 `json:"base_price,omitempty"`
	Discount   *float64 `json:"discount,omitempty"`
	FinalPrice float64  `json:"final_price"`
}

// NewPaymentContext builds a context from a pricing breakdown
func NewPaymentContext(bookingID string, pricing *PricingResult) PaymentContext {
	base := pricing.BasePrice
	discount := pricing.Discount
	return PaymentContext{
		BookingID:  bookingID,
		BasePrice:  &base,
		Discount:   &discount,
		FinalPrice: pricing.FinalPrice,
	}
}

// CanonicalTotal reconstructs the authoritative full-service price:
// basePrice - discount when the breakdown is available, otherwise the
// supplied final price. Always rounded to 2 decimals.
func (pc *PaymentContext) CanonicalTotal() float64 {
	if pc.BasePrice != nil && pc.Discount != nil {
		return moneymath.Round2(*pc.BasePrice - *pc.Discount)
	}
	return moneymath.Round2(pc.FinalPrice)
}

// Validate checks the context once at the orchestration boundary
func (pc *PaymentContext) Validate() error {
	if pc.BookingID == "" {
		return fmt.Errorf("payment context missing booking id")
	}
	if pc.BasePrice != nil && !moneymath.IsValidAmount(*pc.BasePrice) {
		return fmt.Errorf("payment context base price is not a valid amount")
	}
	if pc.Discount != nil && (!moneymath.IsValidAmount(*pc.Discount) || *pc.Discount < 0) {
		return fmt.Errorf("payment context discount is not a valid amount")
	}
	if !moneymath.IsValidAmount(pc.FinalPrice) {
		return fmt.Errorf("payment context final price is not a valid amount")
	}
	if pc.CanonicalTotal() <= 0 {
		return fmt.Errorf("payment context total must be positive")
	}
	return nil
}

// ============================================================================
// SPLITS
// ============================================================================

// PaymentSplit is the two-phase charge plan derived from a canonical total.
// Invariant: Deposit + Balance == Total at 2 decimals for all Total > 0.
type PaymentSplit struct {
	Total   float64 `json:"total"`
	Deposit float64 `json:"deposit"`
	Balance float64 `json:"balance"`
}

// ComputePaymentSplit derives the deposit/balance amounts. The balance is
// always the exact remainder so the two charges reconstruct the total.
func ComputePaymentSplit(total, depositRate float64) PaymentSplit {
	t := moneymath.Round2(total)
	deposit := moneymath.Round2(t * depositRate)
	return PaymentSplit{
		Total:   t,
		Deposit: deposit,
		Balance: moneymath.Round2(t - deposit),
	}
}

// CommissionSplit is the platform/provider revenue split. Informational
// only; it never changes the amount charged to the seeker.
// Invariant: Commission + ProviderShare == Total.
type CommissionSplit struct {
	Total         float64 `json:"total"`
	Commission    float64 `json:"commission"`
	ProviderShare float64 `json:"provider_share"`
}

// ============================================================================
// GATEWAY TYPES
// ============================================================================

// GatewayIntent is a payment intent created at the external gateway
type GatewayIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// PaymentInitiation is the orchestrator's answer to an initiate call
type PaymentInitiation struct {
	BookingID string      `json:"booking_id"`
	Kind      PaymentKind `json:"kind"`
	IntentID  string      `json:"intent_id,omitempty"`

	// ClientSecret lets the presentation layer drive the gateway's
	// payment sheet. Empty when no charge was needed.
	ClientSecret string `json:"client_secret,omitempty"`

	Amount float64 `json:"amount"`
	Total  float64 `json:"total"`
}
