// internal/pricing/amortize_test.go
package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyPayment_KnownValue(t *testing.T) {
	// 300k at 6.5% over 30 years.
	payment := MonthlyPayment(300000, 6.5, DefaultTermYears)
	assert.InDelta(t, 1896.20, payment, 0.01)
}

func TestMonthlyPayment_Sentinels(t *testing.T) {
	tests := []struct {
		name      string
		principal float64
		rate      float64
	}{
		{name: "zero principal", principal: 0, rate: 6.5},
		{name: "negative principal", principal: -100000, rate: 6.5},
		{name: "zero rate", principal: 300000, rate: 0},
		{name: "negative rate", principal: 300000, rate: -1},
		{name: "both zero", principal: 0, rate: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Zero(t, MonthlyPayment(tt.principal, tt.rate, DefaultTermYears))
		})
	}
}

func TestMonthlyPayment_StrictlyIncreasingInRate(t *testing.T) {
	prev := 0.0
	for rate := 0.5; rate <= 15; rate += 0.5 {
		payment := MonthlyPayment(250000, rate, DefaultTermYears)
		assert.Greater(t, payment, prev, "rate %.2f", rate)
		prev = payment
	}
}

func TestMonthlyPayment_StrictlyIncreasingInPrincipal(t *testing.T) {
	prev := 0.0
	for principal := 50000.0; principal <= 2000000; principal += 150000 {
		payment := MonthlyPayment(principal, 6.5, DefaultTermYears)
		assert.Greater(t, payment, prev, "principal %.0f", principal)
		prev = payment
	}
}

func TestMonthlyPayment_ShorterTermPaysMore(t *testing.T) {
	thirty := MonthlyPayment(300000, 6.5, 30)
	fifteen := MonthlyPayment(300000, 6.5, 15)
	assert.Greater(t, fifteen, thirty)
}
