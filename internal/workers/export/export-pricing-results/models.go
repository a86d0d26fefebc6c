// internal/workers/export/export-pricing-results/models.go
package exportpricingresults

import "refi-pricing-workers/internal/pricing"

type Input struct {
	BatchID    string `json:"batchId"`
	ResultsKey string `json:"resultsKey"`
	// BreakEvenThreshold in months; overrides the scenario value when
	// positive.
	BreakEvenThreshold float64 `json:"breakEvenThreshold,omitempty"`
}

// Summary mirrors the stats banner: currency rounded to whole dollars,
// adjustments to three decimals.
type Summary struct {
	TotalLoans       int    `json:"totalLoans"`
	LoansSavingMoney int    `json:"loansSavingMoney"`
	TotalVolume      string `json:"totalVolume"`
	AvgAdjustment    string `json:"avgAdjustment"`
	AvgSavings       string `json:"avgSavings"`
}

type Output struct {
	BatchID  string  `json:"batchId"`
	FileName string  `json:"fileName"`
	CSV      string  `json:"csv"`
	Summary  Summary `json:"summary"`
	// HighlightedClients break even within the threshold.
	HighlightedClients []string `json:"highlightedClients,omitempty"`
}

// cachedBatch matches the payload written by the pricing stage.
type cachedBatch struct {
	BatchID  string                  `json:"batchId"`
	Scenario pricing.ScenarioInputs  `json:"scenario"`
	Results  []pricing.PricingResult `json:"results"`
}
