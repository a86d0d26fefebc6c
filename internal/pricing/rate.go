// internal/pricing/rate.go
package pricing

import "math"

const (
	rateSeedPercent  = 6.0
	rateStepPercent  = 0.01
	rateFloorPercent = 0.1
	rateTolerance    = 0.001
	rateMaxIter      = 100
)

// EstimateRate approximates the annual rate implied by a known
// principal and monthly payment by inverting MonthlyPayment with a
// fixed-step search: start at 6.0%, move 0.01 points per iteration
// toward the target payment, stop once the recomputed payment is
// within 0.001 of the known one or after 100 iterations.
//
// On cap exhaustion the last rate reached is returned as-is; callers
// cannot tell a converged result from a best-effort one. Keep the
// fixed step; a faster solver changes outputs the golden tests pin.
func EstimateRate(principal, knownPayment float64, termYears int) float64 {
	if principal <= 0 || knownPayment <= 0 {
		return 0
	}

	rate := rateSeedPercent
	for i := 0; i < rateMaxIter; i++ {
		diff := MonthlyPayment(principal, rate, termYears) - knownPayment
		if math.Abs(diff) < rateTolerance {
			return rate
		}

		if diff > 0 {
			rate -= rateStepPercent // payment too high, lower rate
		} else {
			rate += rateStepPercent
		}

		if rate <= 0 {
			rate = rateFloorPercent
		}
	}

	return rate
}
