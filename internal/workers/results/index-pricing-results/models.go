// internal/workers/results/index-pricing-results/models.go
package indexpricingresults

import (
	"time"

	"refi-pricing-workers/internal/pricing"
)

type Input struct {
	BatchID    string `json:"batchId"`
	ResultsKey string `json:"resultsKey"`
}

type Output struct {
	BatchID      string `json:"batchId"`
	Index        string `json:"index"`
	IndexedCount int    `json:"indexedCount"`
}

// resultDocument is the indexed shape: one document per priced
// borrower, tagged with its batch so the UI can filter a single run.
type resultDocument struct {
	pricing.PricingResult
	BatchID   string    `json:"batchId"`
	IndexedAt time.Time `json:"indexedAt"`
}

// cachedBatch matches the payload written by the pricing stage.
type cachedBatch struct {
	BatchID  string                  `json:"batchId"`
	Scenario pricing.ScenarioInputs  `json:"scenario"`
	Results  []pricing.PricingResult `json:"results"`
}
