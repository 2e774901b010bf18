package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ============================================================================
// VALIDATION ERRORS
// ============================================================================

// ValidationCode classifies a pricing validation failure
type ValidationCode string

const (
	CodeInvalidDuration   ValidationCode = "invalid_duration"
	CodeBelowMinimum      ValidationCode = "below_minimum"
	CodeInvalidTimeFormat ValidationCode = "invalid_time_format"
	CodeEndBeforeStart    ValidationCode = "end_before_start"
)

// ValidationError is a non-fatal input error from the pricing engine.
// It is surfaced inline to the caller and never persisted.
type ValidationError struct {
	Code    ValidationCode `json:"code"`
	Message string         `json:"message"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error with a formatted message
func NewValidationError(code ValidationCode, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ============================================================================
// PRICING RESULT
// ============================================================================

// PricingResult is the cost breakdown for a service time window.
// All monetary fields are major units rounded to 2 decimals.
type PricingResult struct {
	Hours              float64 `json:"hours"`
	HourlyRate         float64 `json:"hourly_rate"`
	BasePrice          float64 `json:"base_price"`
	Discount           float64 `json:"discount"`
	DiscountPercentage int     `json:"discount_percentage"`
	FinalPrice         float64 `json:"final_price"`

	// Note carries the original error message when the safe pricing path
	// fell back to a default duration. Non-fatal, display only.
	Note string `json:"note,omitempty"`
}

// HasDiscount reports whether a special offer applied
func (p *PricingResult) HasDiscount() bool {
	return p.Discount > 0
}

// Value implements driver.Valuer so a result can be persisted as JSONB
func (p PricingResult) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner
func (p *PricingResult) Scan(src interface{}) error {
	if src == nil {
		*p = PricingResult{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported pricing source type %T", src)
	}
	return json.Unmarshal(data, p)
}
