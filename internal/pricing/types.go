// internal/pricing/types.go
package pricing

// BorrowerRecord is one ingested row, immutable once constructed.
// CreditScore carries the pre-bucketed tier string (see CreditTier),
// not a raw score.
type BorrowerRecord struct {
	ClientName     string  `json:"clientName"`
	PropertyValue  float64 `json:"propertyValue"`
	LoanAmount     float64 `json:"loanAmount"`
	Income         float64 `json:"income"`
	ZipCode        string  `json:"zipCode"`
	CreditScore    string  `json:"creditScore"`
	LoanProgram    string  `json:"loanProgram"`
	ProductType    string  `json:"productType"`
	PropertyType   string  `json:"propertyType"`
	Occupancy      string  `json:"occupancy"`
	Units          string  `json:"units"`
	CurrentPayment float64 `json:"currentPayment"`
}

// ScenarioInputs are shared across every borrower in one pricing run.
// NewLoanProgram, when set, overrides each borrower's own program.
type ScenarioInputs struct {
	BaseRate           float64 `json:"baseRate"`
	StartingPoints     float64 `json:"startingPoints"`
	NewLoanProgram     string  `json:"newLoanProgram"`
	NewRefinanceType   string  `json:"newRefinanceType"`
	HomeReadyEligible  bool    `json:"homeReadyEligible"`
	BreakEvenThreshold int     `json:"breakEvenThreshold"`
}

// LineItem is one itemized point adjustment. Order within a result
// reflects evaluation order and matters for display, not for the total.
type LineItem struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"`
	Reason string  `json:"reason"`
}

// Evaluation is the output of the adjustment matrix evaluator.
type Evaluation struct {
	LineItems []LineItem `json:"lineItems"`
	Total     float64    `json:"total"`
	LTV       float64    `json:"ltv"`
}

// PricingResult is the priced outcome for a single borrower.
// BreakEvenMonths is nil when break-even does not apply (no up-front
// cost, or no monthly savings); absent is a distinct state from zero.
type PricingResult struct {
	ClientName       string     `json:"clientName"`
	PropertyValue    float64    `json:"propertyValue"`
	LoanAmount       float64    `json:"loanAmount"`
	Income           float64    `json:"income"`
	ZipCode          string     `json:"zipCode"`
	CreditScore      string     `json:"creditScore"`
	LoanProgram      string     `json:"currentLoanProgram"`
	LTV              float64    `json:"ltv"`
	CurrentRate      float64    `json:"currentRate"`
	CurrentPayment   float64    `json:"currentPayment"`
	AdjustedRate     float64    `json:"adjustedRate"`
	NewPayment       float64    `json:"newPayment"`
	PaymentDiff      float64    `json:"paymentDiff"`
	TotalAdjustments float64    `json:"totalAdjustments"`
	FinalPoints      float64    `json:"finalPoints"`
	PointCost        float64    `json:"pointCost"`
	BreakEvenMonths  *float64   `json:"breakEvenMonths,omitempty"`
	Adjustments      []LineItem `json:"adjustments"`
}
