package models

import (
	"fmt"
	"testing"

	"github.com/careconnect/booking-backend/pkg/moneymath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePaymentSplit_ReconstructsTotal(t *testing.T) {
	totals := []float64{60, 66, 44, 55.5, 0.01, 13.33, 99.99, 123.45, 999.99}

	for _, total := range totals {
		t.Run(fmt.Sprintf("total_%v", total), func(t *testing.T) {
			split := ComputePaymentSplit(total, 0.20)
			assert.InDelta(t, split.Total, moneymath.Round2(split.Deposit+split.Balance), 0.0001,
				"deposit %v + balance %v must equal total %v", split.Deposit, split.Balance, split.Total)
			assert.GreaterOrEqual(t, split.Deposit, 0.0)
			assert.GreaterOrEqual(t, split.Balance, 0.0)
		})
	}
}

func TestComputePaymentSplit_KnownValues(t *testing.T) {
	split := ComputePaymentSplit(60, 0.20)
	assert.InDelta(t, 12.0, split.Deposit, 0.0001)
	assert.InDelta(t, 48.0, split.Balance, 0.0001)

	split = ComputePaymentSplit(55.55, 0.20)
	assert.InDelta(t, 11.11, split.Deposit, 0.0001)
	assert.InDelta(t, 44.44, split.Balance, 0.0001)
}

func TestPaymentContext_CanonicalTotal_FromBreakdown(t *testing.T) {
	base := 66.0
	discount := 6.0

	// The final price field lies: it already holds the 80% remainder a
	// balance screen passed along. The breakdown wins.
	pc := PaymentContext{
		BookingID:  "a_b",
		BasePrice:  &base,
		Discount:   &discount,
		FinalPrice: 48.0,
	}
	assert.InDelta(t, 60.0, pc.CanonicalTotal(), 0.0001)
}

func TestPaymentContext_CanonicalTotal_FallsBackToFinalPrice(t *testing.T) {
	pc := PaymentContext{BookingID: "a_b", FinalPrice: 44.0}
	assert.InDelta(t, 44.0, pc.CanonicalTotal(), 0.0001)
}

func TestPaymentContext_Validate(t *testing.T) {
	pc := PaymentContext{BookingID: "a_b", FinalPrice: 44.0}
	require.NoError(t, pc.Validate())

	noBooking := PaymentContext{FinalPrice: 44.0}
	assert.Error(t, noBooking.Validate())

	zeroTotal := PaymentContext{BookingID: "a_b", FinalPrice: 0}
	assert.Error(t, zeroTotal.Validate())

	negDiscount := -1.0
	base := 44.0
	badDiscount := PaymentContext{BookingID: "a_b", BasePrice: &base, Discount: &negDiscount, FinalPrice: 44}
	assert.Error(t, badDiscount.Validate())
}

func TestNewPaymentContext(t *testing.T) {
	pricing := &PricingResult{Hours: 3, HourlyRate: 22, BasePrice: 66, Discount: 6, FinalPrice: 60}
	pc := NewPaymentContext("a_b", pricing)

	require.NotNil(t, pc.BasePrice)
	require.NotNil(t, pc.Discount)
	assert.InDelta(t, 60.0, pc.CanonicalTotal(), 0.0001)
	assert.NoError(t, pc.Validate())
}

func TestPaymentError_Classes(t *testing.T) {
	init := NewInitError("gateway unreachable", assert.AnError)
	assert.True(t, init.Retryable())
	assert.ErrorIs(t, init, assert.AnError)

	cancelled := NewUserCancelled("payment cancelled")
	assert.False(t, cancelled.Retryable())
	assert.Equal(t, PaymentErrorCancelled, cancelled.Kind)

	confirm := NewConfirmError("confirmation failed", assert.AnError)
	assert.False(t, confirm.Retryable())
	assert.Equal(t, PaymentErrorConfirm, confirm.Kind)
}
