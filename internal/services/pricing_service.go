package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/careconnect/booking-backend/internal/config"
	"github.com/careconnect/booking-backend/internal/models"
	"github.com/careconnect/booking-backend/pkg/moneymath"
	"github.com/careconnect/booking-backend/pkg/timetoken"
)

// PricingService computes the cost breakdown for a service time window.
// Pure and side-effect free: safe to call repeatedly and concurrently.
type PricingService struct {
	config config.PricingConfig
	tokens *timetoken.Validator
	logger *logrus.Logger
}

// NewPricingService creates a new pricing service
func NewPricingService(cfg config.PricingConfig, logger *logrus.Logger) *PricingService {
	return &PricingService{
		config: cfg,
		tokens: timetoken.NewValidator(),
		logger: logger,
	}
}

// MinimumHours returns the minimum bookable duration
func (s *PricingService) MinimumHours() float64 {
	return s.config.MinimumHours
}

// DepositRate returns the configured deposit share of the total
func (s *PricingService) DepositRate() float64 {
	return s.config.DepositRate
}

// PriceForDuration computes the breakdown for a duration in hours.
// Special offers apply only to whole-hour durations present in the
// configured offer table.
func (s *PricingService) PriceForDuration(hours float64) (*models.PricingResult, error) {
	if !moneymath.IsValidAmount(hours) || hours <= 0 {
		return nil, models.NewValidationError(models.CodeInvalidDuration,
			"invalid duration: %v, must be a positive number of hours", hours)
	}

	if hours < s.config.MinimumHours {
		return nil, models.NewValidationError(models.CodeBelowMinimum,
			"minimum duration of %gh required, got %.2fh", s.config.MinimumHours, hours)
	}

	basePrice := moneymath.Round2(hours * s.config.HourlyRate)

	result := &models.PricingResult{
		Hours:      hours,
		HourlyRate: s.config.HourlyRate,
		BasePrice:  basePrice,
		FinalPrice: basePrice,
	}

	wholeHours := int(math.Floor(hours))
	offerPrice, hasOffer := s.config.SpecialOffers[wholeHours]
	if hasOffer && hours == float64(wholeHours) {
		discount := moneymath.Round2(basePrice - offerPrice)
		if discount > 0 {
			result.Discount = discount
			result.DiscountPercentage = moneymath.RoundPercent(discount / basePrice)
			result.FinalPrice = moneymath.Round2(basePrice - discount)
		}
	}

	return result, nil
}

// PriceForTimeRange computes the breakdown for a start/end time-of-day
// pair in either HH:MM or HHhMM form.
func (s *PricingService) PriceForTimeRange(start, end string) (*models.PricingResult, error) {
	hours, err := s.tokens.HoursBetween(start, end)
	if err != nil {
		switch {
		case errors.Is(err, timetoken.ErrEndBeforeStart):
			return nil, models.NewValidationError(models.CodeEndBeforeStart,
				"end time %q must be after start time %q", end, start)
		default:
			return nil, models.NewValidationError(models.CodeInvalidTimeFormat,
				"invalid time range %q-%q: %v", start, end, err)
		}
	}

	return s.PriceForDuration(hours)
}

// PriceForTimeRangeSafe never fails outwardly: on any validation error it
// prices the fallback duration instead and carries the original error
// message as a non-fatal note, so callers can still render a breakdown.
// Fallbacks below the bookable minimum are raised to the minimum.
func (s *PricingService) PriceForTimeRangeSafe(start, end string, fallbackHours float64) *models.PricingResult {
	result, err := s.PriceForTimeRange(start, end)
	if err == nil {
		return result
	}

	fallback := fallbackHours
	if !moneymath.IsValidAmount(fallback) || fallback < s.config.MinimumHours {
		fallback = s.config.MinimumHours
	}

	s.logger.WithFields(logrus.Fields{
		"start":    start,
		"end":      end,
		"fallback": fallback,
	}).WithError(err).Warn("Pricing fell back to default duration")

	result, fallbackErr := s.PriceForDuration(fallback)
	if fallbackErr != nil {
		// Only reachable with a misconfigured offer/minimum table.
		result = &models.PricingResult{HourlyRate: s.config.HourlyRate}
	}
	result.Note = err.Error()
	return result
}

// Split computes the informational platform/provider revenue split.
// It never affects the amount charged to the seeker; invalid totals
// yield a zero split rather than an error.
func (s *PricingService) Split(total float64) models.CommissionSplit {
	if !moneymath.IsValidAmount(total) || total < 0 {
		return models.CommissionSplit{}
	}

	t := moneymath.Round2(total)
	commission := moneymath.Round2(t * s.config.CommissionRate)
	return models.CommissionSplit{
		Total:         t,
		Commission:    commission,
		ProviderShare: moneymath.Round2(t - commission),
	}
}

// FormatPrice renders a price for display, comma decimal separator
func (s *PricingService) FormatPrice(price float64) string {
	if !moneymath.IsValidAmount(price) {
		return "0,00€"
	}
	return strings.Replace(fmt.Sprintf("%.2f€", price), ".", ",", 1)
}

// PricingSummary renders a one-line human-readable breakdown
func (s *PricingService) PricingSummary(result *models.PricingResult) string {
	if result == nil || !moneymath.IsValidAmount(result.FinalPrice) {
		return "Price unavailable"
	}

	if result.HasDiscount() {
		return fmt.Sprintf("%gh → %s (instead of %s) - You save %s (%d%%)",
			result.Hours,
			s.FormatPrice(result.FinalPrice),
			s.FormatPrice(result.BasePrice),
			s.FormatPrice(result.Discount),
			result.DiscountPercentage,
		)
	}

	return fmt.Sprintf("%gh → %s", result.Hours, s.FormatPrice(result.FinalPrice))
}
