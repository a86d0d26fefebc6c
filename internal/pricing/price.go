// internal/pricing/price.go
package pricing

import "math"

// PriceBorrower combines matrix evaluation, rate estimation and
// payment computation into one PricingResult. It is total over its
// domain: every borrower yields a result, with sentinel zeros or an
// absent break-even where sub-computations do not apply.
func PriceBorrower(b BorrowerRecord, s ScenarioInputs, m AdjustmentMatrix) PricingResult {
	eval := EvaluateAdjustments(b, s, m)

	finalPoints := s.StartingPoints + eval.Total
	pointCost := b.LoanAmount * finalPoints / 100

	// Points change the cash due at closing, not the quoted rate.
	adjustedRate := s.BaseRate

	currentRate := EstimateRate(b.LoanAmount, b.CurrentPayment, DefaultTermYears)
	newPayment := MonthlyPayment(b.LoanAmount, adjustedRate, DefaultTermYears)
	paymentDiff := newPayment - b.CurrentPayment

	// Break-even only applies when the borrower pays points up front
	// and saves monthly.
	var breakEven *float64
	if pointCost > 0 && paymentDiff < 0 {
		months := math.Abs(pointCost / paymentDiff)
		breakEven = &months
	}

	return PricingResult{
		ClientName:       b.ClientName,
		PropertyValue:    b.PropertyValue,
		LoanAmount:       b.LoanAmount,
		Income:           b.Income,
		ZipCode:          b.ZipCode,
		CreditScore:      b.CreditScore,
		LoanProgram:      b.LoanProgram,
		LTV:              eval.LTV,
		CurrentRate:      currentRate,
		CurrentPayment:   b.CurrentPayment,
		AdjustedRate:     adjustedRate,
		NewPayment:       newPayment,
		PaymentDiff:      paymentDiff,
		TotalAdjustments: eval.Total,
		FinalPoints:      finalPoints,
		PointCost:        pointCost,
		BreakEvenMonths:  breakEven,
		Adjustments:      eval.LineItems,
	}
}
