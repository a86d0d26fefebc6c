// internal/workers/results/index-pricing-results/handler.go
package indexpricingresults

import (
	"bytes"
	"context"
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
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "index-pricing-results"
)

type Handler struct {
	config       *Config
	es           *elasticsearch.Client
	redis        *redis.Client
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, es *elasticsearch.Client, redisClient *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		es:           es,
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

	if len(batch.Results) == 0 {
		return &Output{BatchID: batch.BatchID, Index: h.config.Index}, nil
	}

	body, err := buildBulkBody(h.config.Index, batch.BatchID, batch.Results)
	if err != nil {
		return nil, commonerrors.NewIndexingError(err)
	}

	res, err := h.es.Bulk(bytes.NewReader(body),
		h.es.Bulk.WithContext(ctx),
		h.es.Bulk.WithIndex(h.config.Index),
		h.es.Bulk.WithRefresh("wait_for"),
	)
	if err != nil {
		return nil, commonerrors.NewIndexingError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, commonerrors.NewIndexingError(fmt.Errorf("bulk request failed: %s", res.Status()))
	}

	var bulkRes struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return nil, commonerrors.NewIndexingError(fmt.Errorf("decode bulk response: %w", err))
	}
	if bulkRes.Errors {
		for _, item := range bulkRes.Items {
			for _, op := range item {
				if op.Error != nil {
					return nil, commonerrors.NewIndexingError(
						fmt.Errorf("bulk item failed: %s: %s", op.Error.Type, op.Error.Reason))
				}
			}
		}
		return nil, commonerrors.NewIndexingError(errors.New("bulk response reported errors"))
	}

	h.logger.Info("results indexed", map[string]interface{}{
		"batchId": batch.BatchID,
		"index":   h.config.Index,
		"count":   len(batch.Results),
	})

	return &Output{
		BatchID:      batch.BatchID,
		Index:        h.config.Index,
		IndexedCount: len(batch.Results),
	}, nil
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
		return nil, commonerrors.NewIndexingError(err)
	}
	return &batch, nil
}

// buildBulkBody renders NDJSON for the bulk API: an index action line
// per document, document IDs derived from the batch so re-runs upsert
// instead of duplicating.
func buildBulkBody(index, batchID string, results []pricing.PricingResult) ([]byte, error) {
	var buf bytes.Buffer
	now := time.Now().UTC()

	for i, r := range results {
		action := map[string]map[string]string{
			"index": {
				"_index": index,
				"_id":    fmt.Sprintf("%s:%d", batchID, i),
			},
		}
		actionLine, err := json.Marshal(action)
		if err != nil {
			return nil, err
		}

		docLine, err := json.Marshal(resultDocument{
			PricingResult: r,
			BatchID:       batchID,
			IndexedAt:     now,
		})
		if err != nil {
			return nil, err
		}

		buf.Write(actionLine)
		buf.WriteByte('\n')
		buf.Write(docLine)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
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
