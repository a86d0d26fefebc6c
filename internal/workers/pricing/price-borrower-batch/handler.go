// internal/workers/pricing/price-borrower-batch/handler.go
package priceborrowerbatch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	commonerrors "refi-pricing-workers/internal/common/errors"
	"refi-pricing-workers/internal/common/logger"
	"refi-pricing-workers/internal/common/metrics"
	"refi-pricing-workers/internal/pricing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "price-borrower-batch"

	resultsKeyPrefix = "pricing:results:"
)

type Handler struct {
	config       *Config
	db           *sql.DB
	redis        *redis.Client
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		db:           db,
		redis:        redisClient,
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
		errorHandler: commonerrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "PARSE_ERROR").Inc()
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode(err)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(client, job, output)
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	matrix := h.loadMatrix(ctx)

	results := pricing.PriceBatch(ctx, input.Borrowers, input.Scenario, matrix, h.config.BatchWorkers)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch pricing interrupted: %w", err)
	}

	batchID := uuid.NewString()
	saving := 0
	for _, r := range results {
		if r.PaymentDiff < 0 {
			saving++
		}
	}

	if err := h.persistRun(ctx, batchID, input, results); err != nil {
		return nil, commonerrors.NewDatabaseInsertError(err)
	}

	resultsKey := resultsKeyPrefix + batchID
	if err := h.cacheResults(ctx, resultsKey, batchID, input.Scenario, results); err != nil {
		return nil, commonerrors.NewCacheWriteError(err)
	}

	metrics.BatchesPriced.Inc()
	metrics.BorrowersPriced.Add(float64(len(results)))
	metrics.BatchSize.Observe(float64(len(results)))

	h.logger.Info("batch priced", map[string]interface{}{
		"batchId":          batchID,
		"resultCount":      len(results),
		"loansSavingMoney": saving,
	})

	return &Output{
		BatchID:          batchID,
		ResultCount:      len(results),
		LoansSavingMoney: saving,
		ResultsKey:       resultsKey,
	}, nil
}

// loadMatrix returns the stored adjustment matrix snapshot, or the
// built-in default when no valid matrix is stored. Pricing always
// proceeds; a corrupt matrix is logged and replaced by the default.
func (h *Handler) loadMatrix(ctx context.Context) pricing.AdjustmentMatrix {
	val, err := h.redis.Get(ctx, h.config.MatrixKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.logger.Warn("matrix read failed, using default matrix", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return pricing.DefaultMatrix()
	}

	var matrix pricing.AdjustmentMatrix
	if err := json.Unmarshal([]byte(val), &matrix); err != nil {
		h.logger.Warn("stored matrix is corrupt, using default matrix", map[string]interface{}{
			"error": err.Error(),
		})
		return pricing.DefaultMatrix()
	}
	if err := matrix.Validate(); err != nil {
		h.logger.Warn("stored matrix is invalid, using default matrix", map[string]interface{}{
			"error": err.Error(),
		})
		return pricing.DefaultMatrix()
	}
	return matrix
}

func (h *Handler) persistRun(ctx context.Context, batchID string, input *Input, results []pricing.PricingResult) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pricing_runs (id, borrower_count, base_rate, starting_points, loan_program, refinance_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		batchID, len(results), input.Scenario.BaseRate, input.Scenario.StartingPoints,
		input.Scenario.NewLoanProgram, input.Scenario.NewRefinanceType, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert pricing run: %w", err)
	}

	for _, r := range results {
		adjustments, marshalErr := json.Marshal(r.Adjustments)
		if marshalErr != nil {
			return fmt.Errorf("marshal adjustments: %w", marshalErr)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO pricing_results (run_id, client_name, loan_amount, property_value, ltv, credit_score,
			   current_rate, current_payment, adjusted_rate, new_payment, payment_diff,
			   total_adjustments, final_points, point_cost, break_even_months, adjustments)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			batchID, r.ClientName, r.LoanAmount, r.PropertyValue, r.LTV, r.CreditScore,
			r.CurrentRate, r.CurrentPayment, r.AdjustedRate, r.NewPayment, r.PaymentDiff,
			r.TotalAdjustments, r.FinalPoints, r.PointCost, r.BreakEvenMonths, adjustments,
		)
		if err != nil {
			return fmt.Errorf("insert pricing result: %w", err)
		}
	}

	return tx.Commit()
}

func (h *Handler) cacheResults(ctx context.Context, key, batchID string, scenario pricing.ScenarioInputs, results []pricing.PricingResult) error {
	payload, err := json.Marshal(cachedBatch{
		BatchID:  batchID,
		Scenario: scenario,
		Results:  results,
	})
	if err != nil {
		return err
	}
	return h.redis.Set(ctx, key, payload, h.config.ResultsTTL).Err()
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func errorCode(err error) string {
	var stdErr *commonerrors.StandardError
	if errors.As(err, &stdErr) {
		return string(stdErr.Code)
	}
	return "INTERNAL_ERROR"
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
