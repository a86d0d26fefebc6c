// internal/workers/pricing/price-borrower-batch/handler_test.go
package priceborrowerbatch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	commonerrors "refi-pricing-workers/internal/common/errors"
	"refi-pricing-workers/internal/common/logger"
	"refi-pricing-workers/internal/pricing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		BatchWorkers: 4,
		MatrixKey:    "llpa:adjustment-matrix",
		ResultsTTL:   time.Hour,
	}
}

func createTestHandler(t *testing.T, db *sql.DB, redisClient *redis.Client, config *Config) *Handler {
	if config == nil {
		config = createTestConfig()
	}
	return NewHandler(config, db, redisClient, logger.NewTestLogger(t))
}

func testBorrowers() []pricing.BorrowerRecord {
	return []pricing.BorrowerRecord{
		{
			ClientName:     "Jane Smith",
			PropertyValue:  350000,
			LoanAmount:     300000,
			CreditScore:    "720-739",
			LoanProgram:    "Conventional",
			ProductType:    "Fixed",
			PropertyType:   "Single Family",
			Occupancy:      "Primary",
			Units:          "1",
			CurrentPayment: 2100,
		},
		{
			ClientName:     "Bob Jones",
			PropertyValue:  500000,
			LoanAmount:     450000,
			CreditScore:    ">=780",
			LoanProgram:    "Conventional",
			ProductType:    "Fixed",
			PropertyType:   "Single Family",
			Occupancy:      "Primary",
			Units:          "1",
			CurrentPayment: 2600,
		},
	}
}

func testScenario() pricing.ScenarioInputs {
	return pricing.ScenarioInputs{
		BaseRate:         6.5,
		StartingPoints:   0,
		NewLoanProgram:   "Conventional",
		NewRefinanceType: "RateTerm",
	}
}

func expectPersist(mock sqlmock.Sqlmock, resultCount int) {
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO pricing_runs").WillReturnResult(sqlmock.NewResult(1, 1))
	for i := 0; i < resultCount; i++ {
		mock.ExpectExec("INSERT INTO pricing_results").WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()
}

// sparseMatrix has one non-zero LTV bucket and nothing else.
func sparseMatrix() pricing.AdjustmentMatrix {
	return pricing.AdjustmentMatrix{
		"Conventional": pricing.ProgramMatrix{
			LTV:         map[string]float64{"85.01-90": 1.5},
			CreditScore: map[string]float64{},
			ProductType: map[string]float64{},
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	borrowers := testBorrowers()
	expectPersist(mock, len(borrowers))

	handler := createTestHandler(t, db, redisClient, nil)
	output, err := handler.Execute(context.Background(), &Input{
		Borrowers: borrowers,
		Scenario:  testScenario(),
	})

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.NotEmpty(t, output.BatchID)
	assert.Equal(t, 2, output.ResultCount)
	assert.Equal(t, resultsKeyPrefix+output.BatchID, output.ResultsKey)

	// Result set is cached for the downstream stages.
	cached, err := mr.Get(output.ResultsKey)
	require.NoError(t, err)

	var batch cachedBatch
	require.NoError(t, json.Unmarshal([]byte(cached), &batch))
	assert.Equal(t, output.BatchID, batch.BatchID)
	assert.Len(t, batch.Results, 2)
	assert.Equal(t, "Jane Smith", batch.Results[0].ClientName)
	assert.Equal(t, "Bob Jones", batch.Results[1].ClientName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_UsesStoredMatrix(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	stored, err := json.Marshal(sparseMatrix())
	require.NoError(t, err)
	require.NoError(t, mr.Set("llpa:adjustment-matrix", string(stored)))

	borrowers := testBorrowers()[:1] // LTV 300000/350000 = 85.71 -> "85.01-90"
	expectPersist(mock, 1)

	handler := createTestHandler(t, db, redisClient, nil)
	output, err := handler.Execute(context.Background(), &Input{
		Borrowers: borrowers,
		Scenario:  testScenario(),
	})
	require.NoError(t, err)

	cached, err := mr.Get(output.ResultsKey)
	require.NoError(t, err)
	var batch cachedBatch
	require.NoError(t, json.Unmarshal([]byte(cached), &batch))
	require.Len(t, batch.Results, 1)
	assert.InDelta(t, 1.5, batch.Results[0].TotalAdjustments, 1e-9)
}

func TestHandler_Execute_CorruptMatrixFallsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	require.NoError(t, mr.Set("llpa:adjustment-matrix", "{not json"))

	expectPersist(mock, 1)

	handler := createTestHandler(t, db, redisClient, nil)
	output, err := handler.Execute(context.Background(), &Input{
		Borrowers: testBorrowers()[:1],
		Scenario:  testScenario(),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.ResultCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CountsLoansSavingMoney(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	// High current payment guarantees savings; low guarantees none.
	borrowers := testBorrowers()
	borrowers[0].CurrentPayment = 5000
	borrowers[1].CurrentPayment = 100

	expectPersist(mock, len(borrowers))

	handler := createTestHandler(t, db, redisClient, nil)
	output, err := handler.Execute(context.Background(), &Input{
		Borrowers: borrowers,
		Scenario:  testScenario(),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.LoansSavingMoney)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_DatabaseFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO pricing_runs").WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	handler := createTestHandler(t, db, redisClient, nil)
	output, err := handler.Execute(context.Background(), &Input{
		Borrowers: testBorrowers(),
		Scenario:  testScenario(),
	})

	require.Error(t, err)
	assert.Nil(t, output)

	var stdErr *commonerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodeDatabaseInsertFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_Execute_CacheFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	expectPersist(mock, 1)

	handler := createTestHandler(t, db, redisClient, nil)

	// Kill the server before the cache write.
	mr.Close()

	output, err := handler.Execute(context.Background(), &Input{
		Borrowers: testBorrowers()[:1],
		Scenario:  testScenario(),
	})

	require.Error(t, err)
	assert.Nil(t, output)

	var stdErr *commonerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodeCacheWriteFailed, stdErr.Code)
}

// ==========================
// Edge Cases
// ==========================

func TestHandler_Execute_EmptyBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	expectPersist(mock, 0)

	handler := createTestHandler(t, db, redisClient, nil)
	output, err := handler.Execute(context.Background(), &Input{
		Borrowers: nil,
		Scenario:  testScenario(),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, output.ResultCount)
	assert.Equal(t, 0, output.LoansSavingMoney)
}
