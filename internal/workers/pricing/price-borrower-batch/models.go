// internal/workers/pricing/price-borrower-batch/models.go
package priceborrowerbatch

import "refi-pricing-workers/internal/pricing"

// Input is the roster from the ingestion stage plus the shared scenario.
type Input struct {
	Borrowers []pricing.BorrowerRecord `json:"borrowers"`
	Scenario  pricing.ScenarioInputs   `json:"scenario"`
}

// Output identifies the priced batch. The full result set is cached
// under ResultsKey for the export and indexing stages rather than being
// carried through process variables.
type Output struct {
	BatchID          string `json:"batchId"`
	ResultCount      int    `json:"resultCount"`
	LoansSavingMoney int    `json:"loansSavingMoney"`
	ResultsKey       string `json:"resultsKey"`
}

// cachedBatch is the Redis payload shared with downstream stages.
type cachedBatch struct {
	BatchID  string                  `json:"batchId"`
	Scenario pricing.ScenarioInputs  `json:"scenario"`
	Results  []pricing.PricingResult `json:"results"`
}
