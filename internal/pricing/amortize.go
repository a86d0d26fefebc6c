// internal/pricing/amortize.go
package pricing

import "math"

// DefaultTermYears is the assumed loan term for refinance pricing.
const DefaultTermYears = 30

// MonthlyPayment computes the fixed monthly payment for a fully
// amortizing loan. Non-positive principal or rate returns 0; zero is
// the sentinel for "not computable", so malformed rows never abort a
// batch.
func MonthlyPayment(principal, annualRatePercent float64, termYears int) float64 {
	if principal <= 0 || annualRatePercent <= 0 {
		return 0
	}

	monthlyRate := annualRatePercent / 100 / 12
	numPayments := float64(termYears * 12)

	// P = L[c(1 + c)^n]/[(1 + c)^n - 1]
	compound := math.Pow(1+monthlyRate, numPayments)
	return principal * (monthlyRate * compound) / (compound - 1)
}
