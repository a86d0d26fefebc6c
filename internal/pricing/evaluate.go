// internal/pricing/evaluate.go
package pricing

import (
	"fmt"
	"strings"
)

// propertyTypeRule pairs a substring predicate with the matrix key it
// triggers. The free-text property type is a fuzzy classifier, not an
// enum; both rules may fire for the same row.
type propertyTypeRule struct {
	contains  string
	bucket    string
	label     string
	reason    string
}

var propertyTypeRules = []propertyTypeRule{
	{contains: "condo", bucket: PropertyCondo, label: "Condo", reason: "Condo property adjustment"},
	{contains: "manufactured", bucket: PropertyManufacturedHome, label: "Manufactured Home", reason: "Manufactured home adjustment"},
}

// EvaluateAdjustments walks the borrower's attributes through the
// program's adjustment tables in a fixed order and returns the
// itemized line items, their signed total and the computed LTV.
//
// Every category except property type appends a line item only when
// its resolved value is non-zero. Property-type matches append
// unconditionally, zero included. If the scenario carries the
// HomeReady waiver and the running total is positive, a final line
// item negates that total exactly.
func EvaluateAdjustments(b BorrowerRecord, s ScenarioInputs, m AdjustmentMatrix) Evaluation {
	var items []LineItem
	total := 0.0

	program := m.Program(s.NewLoanProgram, b.LoanProgram)

	ltv := 0.0
	if b.PropertyValue > 0 {
		ltv = b.LoanAmount / b.PropertyValue * 100
	}
	ltvTier := LTVTier(ltv)

	if adj := pointsFor(program.LTV, ltvTier); adj != 0 {
		items = append(items, LineItem{
			Name:   "LTV " + ltvTier,
			Points: adj,
			Reason: "Loan-to-value adjustment",
		})
		total += adj
	}

	if adj := pointsFor(program.CreditScore, b.CreditScore); adj != 0 {
		items = append(items, LineItem{
			Name:   "Credit " + b.CreditScore,
			Points: adj,
			Reason: "Credit score tier adjustment",
		})
		total += adj
	}

	productType := b.ProductType
	if productType == "" {
		productType = "Fixed"
	}
	if adj := pointsFor(program.ProductType, productType); adj != 0 {
		items = append(items, LineItem{
			Name:   "Product " + productType,
			Points: adj,
			Reason: "Product type adjustment",
		})
		total += adj
	}

	occupancy := b.Occupancy
	if occupancy == "" {
		occupancy = "Primary"
	}
	if adj := pointsFor(program.Occupancy, occupancy); adj != 0 {
		items = append(items, LineItem{
			Name:   "Occupancy " + occupancy,
			Points: adj,
			Reason: "Occupancy type adjustment",
		})
		total += adj
	}

	refiType := s.NewRefinanceType
	if refiType == "" {
		refiType = "RateTerm"
	}
	if adj := pointsFor(program.RefinanceType, refiType); adj != 0 {
		items = append(items, LineItem{
			Name:   "Refi " + refiType,
			Points: adj,
			Reason: "Refinance type adjustment",
		})
		total += adj
	}

	// Property-type matches always produce a line item, zero included.
	propertyType := strings.ToLower(b.PropertyType)
	for _, rule := range propertyTypeRules {
		if strings.Contains(propertyType, rule.contains) {
			adj := pointsFor(program.PropertyType, rule.bucket)
			items = append(items, LineItem{
				Name:   rule.label,
				Points: adj,
				Reason: rule.reason,
			})
			total += adj
		}
	}

	units := b.Units
	if units == "" {
		units = "1"
	}
	if adj := pointsFor(program.Units, units); adj != 0 {
		items = append(items, LineItem{
			Name:   unitsLabel(units),
			Points: adj,
			Reason: "Number of units adjustment",
		})
		total += adj
	}

	// HomeReady waiver fully offsets a positive running total.
	if s.HomeReadyEligible && total > 0 {
		items = append(items, LineItem{
			Name:   "HomeReady Waiver",
			Points: -total,
			Reason: "HomeReady program credit",
		})
		total = 0
	}

	return Evaluation{LineItems: items, Total: total, LTV: ltv}
}

func unitsLabel(units string) string {
	if units == "1" {
		return "1 Unit"
	}
	return fmt.Sprintf("%s Units", units)
}
