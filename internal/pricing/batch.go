// internal/pricing/batch.go
package pricing

import (
	"context"
	"sync"
)

// DefaultBatchWorkers bounds the scatter-gather pool when the caller
// does not size it.
const DefaultBatchWorkers = 8

// PriceBatch prices every borrower against one immutable matrix
// snapshot. Borrowers are independent, so the batch fans out across a
// bounded pool; results keep input order. A cancelled context stops
// feeding the pool; already-dispatched borrowers still finish, and
// their slots in the returned slice are populated while the rest stay
// zero-valued.
func PriceBatch(ctx context.Context, borrowers []BorrowerRecord, s ScenarioInputs, m AdjustmentMatrix, workers int) []PricingResult {
	results := make([]PricingResult, len(borrowers))
	if len(borrowers) == 0 {
		return results
	}

	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	if workers > len(borrowers) {
		workers = len(borrowers)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = PriceBorrower(borrowers[i], s, m)
			}
		}()
	}

feed:
	for i := range borrowers {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return results
}
