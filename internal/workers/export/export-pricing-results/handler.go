// internal/workers/export/export-pricing-results/handler.go
package exportpricingresults

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"time"

	commonerrors "refi-pricing-workers/internal/common/errors"
	"refi-pricing-workers/internal/common/logger"
	"refi-pricing-workers/internal/common/metrics"
	"refi-pricing-workers/internal/pricing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	TaskType = "export-pricing-results"
)

var exportHeaders = []string{
	"Client Name", "Property Value", "Loan Amount", "Income", "Zip Code", "Credit Score",
	"Current Loan Program", "LTV", "Current Rate", "Current Payment",
	"New Rate", "New Payment", "Payment Change", "Total Adjustments",
	"Final Points", "Point Cost",
}

type Handler struct {
	config       *Config
	redis        *redis.Client
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, redisClient *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
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
	batch, err := h.loadBatch(ctx, input)
	if err != nil {
		return nil, err
	}

	content, err := renderCSV(batch.Results)
	if err != nil {
		return nil, commonerrors.NewExportError(err)
	}

	threshold := input.BreakEvenThreshold
	if threshold <= 0 {
		threshold = float64(batch.Scenario.BreakEvenThreshold)
	}
	if threshold <= 0 {
		threshold = h.config.BreakEvenThreshold
	}

	var highlighted []string
	for _, r := range batch.Results {
		if r.BreakEvenMonths != nil && *r.BreakEvenMonths < threshold {
			highlighted = append(highlighted, r.ClientName)
		}
	}

	output := &Output{
		BatchID:            batch.BatchID,
		FileName:           "batch-pricing-results.csv",
		CSV:                content,
		Summary:            summarize(batch.Results),
		HighlightedClients: highlighted,
	}

	h.logger.Info("results exported", map[string]interface{}{
		"batchId":     batch.BatchID,
		"totalLoans":  output.Summary.TotalLoans,
		"highlighted": len(highlighted),
	})

	return output, nil
}

func (h *Handler) loadBatch(ctx context.Context, input *Input) (*cachedBatch, error) {
	key := input.ResultsKey
	if key == "" {
		key = "pricing:results:" + input.BatchID
	}

	val, err := h.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, commonerrors.NewResultsNotFoundError(input.BatchID)
		}
		return nil, commonerrors.NewCacheReadError(err)
	}

	var batch cachedBatch
	if err := json.Unmarshal([]byte(val), &batch); err != nil {
		return nil, commonerrors.NewExportError(err)
	}
	return &batch, nil
}

// renderCSV emits the canonical result column set: currency to two
// decimals, rates and points to three, LTV to two.
func renderCSV(results []pricing.PricingResult) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(exportHeaders); err != nil {
		return "", err
	}

	for _, r := range results {
		record := []string{
			r.ClientName,
			money2(r.PropertyValue),
			money2(r.LoanAmount),
			money2(r.Income),
			r.ZipCode,
			r.CreditScore,
			r.LoanProgram,
			percent(r.LTV, 2),
			percent(r.CurrentRate, 3),
			money2(r.CurrentPayment),
			percent(r.AdjustedRate, 3),
			money2(r.NewPayment),
			money2(r.PaymentDiff),
			points(r.TotalAdjustments),
			points(r.FinalPoints),
			money2(r.PointCost),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func summarize(results []pricing.PricingResult) Summary {
	total := len(results)
	saving := 0
	volume := decimal.Zero
	adjSum := decimal.Zero
	diffSum := decimal.Zero

	for _, r := range results {
		if r.PaymentDiff < 0 {
			saving++
		}
		volume = volume.Add(decimal.NewFromFloat(r.LoanAmount))
		adjSum = adjSum.Add(decimal.NewFromFloat(r.TotalAdjustments))
		diffSum = diffSum.Add(decimal.NewFromFloat(r.PaymentDiff))
	}

	avgAdj := decimal.Zero
	avgDiff := decimal.Zero
	if total > 0 {
		n := decimal.NewFromInt(int64(total))
		avgAdj = adjSum.Div(n)
		avgDiff = diffSum.Div(n)
	}

	return Summary{
		TotalLoans:       total,
		LoansSavingMoney: saving,
		TotalVolume:      wholeDollars(volume),
		AvgAdjustment:    avgAdj.Round(3).StringFixed(3) + "%",
		AvgSavings:       wholeDollars(avgDiff),
	}
}

func money2(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

func percent(v float64, places int32) string {
	return decimal.NewFromFloat(v).Round(places).StringFixed(places) + "%"
}

func points(v float64) string {
	return decimal.NewFromFloat(v).Round(3).StringFixed(3)
}

// wholeDollars renders a currency amount to whole dollars with
// thousands separators, keeping the sign ahead of the dollar sign.
func wholeDollars(d decimal.Decimal) string {
	rounded := d.Round(0)
	prefix := "$"
	if rounded.IsNegative() {
		prefix = "-$"
		rounded = rounded.Neg()
	}

	digits := rounded.StringFixed(0)
	var sb strings.Builder
	sb.WriteString(prefix)
	for i, ch := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(ch)
	}
	return sb.String()
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
