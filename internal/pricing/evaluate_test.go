// internal/pricing/evaluate_test.go
package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func testBorrower() BorrowerRecord {
	return BorrowerRecord{
		ClientName:    "Jane Smith",
		PropertyValue: 350000,
		LoanAmount:    300000,
		CreditScore:   "720-739",
		LoanProgram:   "Conventional",
		ProductType:   "Fixed",
		PropertyType:  "Single Family",
		Occupancy:     "Primary",
		Units:         "1",
	}
}

func testScenario() ScenarioInputs {
	return ScenarioInputs{
		BaseRate:         6.5,
		StartingPoints:   0,
		NewLoanProgram:   "Conventional",
		NewRefinanceType: "RateTerm",
	}
}

func itemPoints(items []LineItem, name string) (float64, bool) {
	for _, it := range items {
		if it.Name == name {
			return it.Points, true
		}
	}
	return 0, false
}

// ==========================
// Core Functionality Tests
// ==========================

func TestEvaluateAdjustments_GoldenScenario(t *testing.T) {
	m := DefaultMatrix()
	eval := EvaluateAdjustments(testBorrower(), testScenario(), m)

	// LTV = 300000/350000*100 ≈ 85.71 → tier 85.01-90.
	assert.InDelta(t, 85.714, eval.LTV, 0.001)

	ltvAdj, ok := itemPoints(eval.LineItems, "LTV 85.01-90")
	assert.True(t, ok)
	assert.Equal(t, m["Conventional"].LTV["85.01-90"], ltvAdj)

	creditAdj, ok := itemPoints(eval.LineItems, "Credit 720-739")
	assert.True(t, ok)
	assert.Equal(t, m["Conventional"].CreditScore["720-739"], creditAdj)

	// Fixed/Primary/RateTerm/1-unit are all zero-point buckets, so the
	// breakdown carries only the two non-zero categories.
	assert.Len(t, eval.LineItems, 2)
	assert.InDelta(t, ltvAdj+creditAdj, eval.Total, 1e-9)
}

func TestEvaluateAdjustments_TotalMatchesLineItems(t *testing.T) {
	b := testBorrower()
	b.Occupancy = "Investment"
	b.ProductType = "ARM"
	b.Units = "2"
	s := testScenario()
	s.NewRefinanceType = "CashOut"

	eval := EvaluateAdjustments(b, s, DefaultMatrix())

	sum := 0.0
	for _, it := range eval.LineItems {
		sum += it.Points
	}
	assert.InDelta(t, sum, eval.Total, 1e-9)
}

func TestEvaluateAdjustments_ZeroPropertyValue(t *testing.T) {
	b := testBorrower()
	b.PropertyValue = 0

	eval := EvaluateAdjustments(b, testScenario(), DefaultMatrix())
	assert.Zero(t, eval.LTV)

	// LTV 0 buckets to the lowest tier, which carries a credit.
	_, ok := itemPoints(eval.LineItems, "LTV <=60")
	assert.True(t, ok)
}

func TestEvaluateAdjustments_DefaultsApplied(t *testing.T) {
	// Blank product/occupancy/units fall back to Fixed/Primary/1,
	// which are all zero buckets in the default matrix.
	b := testBorrower()
	b.ProductType = ""
	b.Occupancy = ""
	b.Units = ""

	withDefaults := EvaluateAdjustments(b, testScenario(), DefaultMatrix())
	explicit := EvaluateAdjustments(testBorrower(), testScenario(), DefaultMatrix())
	assert.Equal(t, explicit.Total, withDefaults.Total)
}

func TestEvaluateAdjustments_UnknownBucketsContributeNothing(t *testing.T) {
	b := testBorrower()
	b.ProductType = "Balloon"
	b.Occupancy = "Vacation"
	b.Units = "9"
	b.CreditScore = "not-a-tier"

	eval := EvaluateAdjustments(b, testScenario(), DefaultMatrix())

	// Only the LTV bucket resolves; everything unknown is silently 0.
	assert.Len(t, eval.LineItems, 1)
	_, ok := itemPoints(eval.LineItems, "LTV 85.01-90")
	assert.True(t, ok)
}

func TestEvaluateAdjustments_UnknownProgramFallsBackToConventional(t *testing.T) {
	b := testBorrower()
	b.LoanProgram = "USDA-Mystery"

	fallback := EvaluateAdjustments(b, testScenario(), DefaultMatrix())
	b.LoanProgram = "Conventional"
	conventional := EvaluateAdjustments(b, testScenario(), DefaultMatrix())

	assert.Equal(t, conventional.Total, fallback.Total)
	assert.Equal(t, conventional.LineItems, fallback.LineItems)
}

func TestEvaluateAdjustments_ScenarioProgramOverride(t *testing.T) {
	b := testBorrower()
	b.LoanProgram = "Conventional"
	s := testScenario()
	s.NewLoanProgram = "Jumbo"

	eval := EvaluateAdjustments(b, s, DefaultMatrix())
	creditAdj, ok := itemPoints(eval.LineItems, "Credit 720-739")
	assert.True(t, ok)
	assert.Equal(t, DefaultMatrix()["Jumbo"].CreditScore["720-739"], creditAdj)
}

// ==========================
// Property Type Special Cases
// ==========================

func TestEvaluateAdjustments_CondoMatchedBySubstring(t *testing.T) {
	b := testBorrower()
	b.PropertyType = "High-Rise CONDOminium"

	eval := EvaluateAdjustments(b, testScenario(), DefaultMatrix())
	pts, ok := itemPoints(eval.LineItems, "Condo")
	assert.True(t, ok)
	assert.Equal(t, DefaultMatrix()["Conventional"].PropertyType[PropertyCondo], pts)
}

func TestEvaluateAdjustments_ZeroValueCondoStillAppended(t *testing.T) {
	// Property-type rules are the one category not gated on non-zero:
	// a matched condo with a 0-point bucket still shows up itemized.
	m := DefaultMatrix()
	p := m["VA"]
	b := testBorrower()
	b.PropertyType = "Condo"
	s := testScenario()
	s.NewLoanProgram = "VA"

	assert.Zero(t, p.PropertyType[PropertyCondo])

	eval := EvaluateAdjustments(b, s, m)
	pts, ok := itemPoints(eval.LineItems, "Condo")
	assert.True(t, ok)
	assert.Zero(t, pts)
}

func TestEvaluateAdjustments_CondoAndManufacturedBothApply(t *testing.T) {
	b := testBorrower()
	b.PropertyType = "Manufactured condo unit"

	eval := EvaluateAdjustments(b, testScenario(), DefaultMatrix())
	_, condo := itemPoints(eval.LineItems, "Condo")
	_, mfh := itemPoints(eval.LineItems, "Manufactured Home")
	assert.True(t, condo)
	assert.True(t, mfh)
}

// ==========================
// HomeReady Waiver
// ==========================

func TestEvaluateAdjustments_WaiverZeroesPositiveTotal(t *testing.T) {
	b := testBorrower()
	b.PropertyType = "Condo"
	s := testScenario()
	s.HomeReadyEligible = true

	withoutWaiver := s
	withoutWaiver.HomeReadyEligible = false
	preWaiver := EvaluateAdjustments(b, withoutWaiver, DefaultMatrix())
	assert.Greater(t, preWaiver.Total, 0.0)

	eval := EvaluateAdjustments(b, s, DefaultMatrix())
	assert.Zero(t, eval.Total)

	waiver, ok := itemPoints(eval.LineItems, "HomeReady Waiver")
	assert.True(t, ok)
	assert.InDelta(t, -preWaiver.Total, waiver, 1e-9)
}

func TestEvaluateAdjustments_WaiverSkippedOnNonPositiveTotal(t *testing.T) {
	b := testBorrower()
	b.PropertyValue = 600000 // LTV 50 → -0.250 credit
	b.CreditScore = ">=780"  // -0.125 credit
	s := testScenario()
	s.HomeReadyEligible = true

	eval := EvaluateAdjustments(b, s, DefaultMatrix())
	assert.Less(t, eval.Total, 0.0)

	_, ok := itemPoints(eval.LineItems, "HomeReady Waiver")
	assert.False(t, ok)
}
