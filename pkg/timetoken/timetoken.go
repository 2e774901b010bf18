package timetoken

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrEmptyToken indicates the time token is empty
	ErrEmptyToken = errors.New("time token cannot be empty")

	// ErrInvalidFormat indicates the token matches neither HH:MM nor HHhMM
	ErrInvalidFormat = errors.New("time token must be in HH:MM or HHhMM format")

	// ErrEndBeforeStart indicates the end of a range is not after its start
	ErrEndBeforeStart = errors.New("end time must be after start time")
)

// colonFormat matches tokens like "10:00", "14:30", "9:05"
var colonFormat = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// letterFormat matches tokens like "10h00", "14H30"
var letterFormat = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3])[hH][0-5][0-9]$`)

// Validator parses and validates time-of-day tokens as they arrive from the
// scheduling UI, in either colon ("14:30") or letter-separated ("14h30") form.
type Validator struct{}

// NewValidator creates a new time token validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// IsValid reports whether the token parses in either accepted format.
func (v *Validator) IsValid(token string) bool {
	_, err := v.Parse(token)
	return err == nil
}

// Normalize trims the token and rewrites the letter-separated form to the
// colon form ("10h00" -> "10:00"). The token is not validated.
func (v *Validator) Normalize(token string) string {
	clean := strings.TrimSpace(token)
	if letterFormat.MatchString(clean) {
		clean = strings.Replace(clean, "h", ":", 1)
		clean = strings.Replace(clean, "H", ":", 1)
	}
	return clean
}

// Parse converts a token into minutes since midnight.
func (v *Validator) Parse(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, ErrEmptyToken
	}

	clean := v.Normalize(token)
	if !colonFormat.MatchString(clean) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, token)
	}

	parts := strings.SplitN(clean, ":", 2)
	hour, _ := strconv.Atoi(parts[0])
	minute, _ := strconv.Atoi(parts[1])

	return hour*60 + minute, nil
}

// HoursBetween computes the fractional-hour duration between two tokens on
// the same day, derived from the millisecond difference.
func (v *Validator) HoursBetween(start, end string) (float64, error) {
	startMin, err := v.Parse(start)
	if err != nil {
		return 0, err
	}
	endMin, err := v.Parse(end)
	if err != nil {
		return 0, err
	}

	if endMin <= startMin {
		return 0, ErrEndBeforeStart
	}

	diffMs := int64(endMin-startMin) * 60 * 1000
	return float64(diffMs) / (1000 * 60 * 60), nil
}

// Format renders minutes since midnight back into the canonical HH:MM form.
func (v *Validator) Format(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
