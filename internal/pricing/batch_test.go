// internal/pricing/batch_test.go
package pricing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func batchBorrowers(n int) []BorrowerRecord {
	borrowers := make([]BorrowerRecord, n)
	for i := range borrowers {
		b := testBorrower()
		b.ClientName = fmt.Sprintf("Borrower %03d", i)
		b.LoanAmount = 100000 + float64(i)*10000
		b.PropertyValue = b.LoanAmount * 1.25
		borrowers[i] = b
	}
	return borrowers
}

func TestPriceBatch_MatchesSequential(t *testing.T) {
	borrowers := batchBorrowers(50)
	s := testScenario()
	m := DefaultMatrix()

	parallel := PriceBatch(context.Background(), borrowers, s, m, 8)

	assert.Len(t, parallel, len(borrowers))
	for i, b := range borrowers {
		assert.Equal(t, PriceBorrower(b, s, m), parallel[i], "index %d", i)
	}
}

func TestPriceBatch_PreservesOrder(t *testing.T) {
	borrowers := batchBorrowers(20)
	results := PriceBatch(context.Background(), borrowers, testScenario(), DefaultMatrix(), 4)

	for i, r := range results {
		assert.Equal(t, borrowers[i].ClientName, r.ClientName)
	}
}

func TestPriceBatch_Empty(t *testing.T) {
	results := PriceBatch(context.Background(), nil, testScenario(), DefaultMatrix(), 4)
	assert.Empty(t, results)
}

func TestPriceBatch_DefaultsWorkerCount(t *testing.T) {
	borrowers := batchBorrowers(10)
	results := PriceBatch(context.Background(), borrowers, testScenario(), DefaultMatrix(), 0)
	assert.Len(t, results, 10)
	assert.Equal(t, borrowers[9].ClientName, results[9].ClientName)
}

func TestPriceBatch_CancelledContextStopsFeeding(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	borrowers := batchBorrowers(100)
	results := PriceBatch(ctx, borrowers, testScenario(), DefaultMatrix(), 2)

	// The slice keeps its full length; slots past the cancellation
	// point stay zero-valued.
	assert.Len(t, results, 100)
}
