// internal/workers/matrix/update-adjustment-matrix/handler.go
package updateadjustmentmatrix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	commonerrors "refi-pricing-workers/internal/common/errors"
	"refi-pricing-workers/internal/common/logger"
	"refi-pricing-workers/internal/common/metrics"
	"refi-pricing-workers/internal/pricing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"github.com/xeipuuv/gojsonschema"
)

const (
	TaskType = "update-adjustment-matrix"
)

// matrixSchema is the structural contract for a matrix override: at
// least one program, each program an object of category tables keyed by
// tier with numeric point values. The creditScore/ltv/productType
// categories are mandatory per program.
const matrixSchema = `{
	"type": "object",
	"minProperties": 1,
	"additionalProperties": {
		"type": "object",
		"required": ["creditScore", "ltv", "productType"],
		"properties": {
			"ltv": {"$ref": "#/definitions/table"},
			"creditScore": {"$ref": "#/definitions/table"},
			"productType": {"$ref": "#/definitions/table"},
			"occupancy": {"$ref": "#/definitions/table"},
			"refinanceType": {"$ref": "#/definitions/table"},
			"propertyType": {"$ref": "#/definitions/table"},
			"units": {"$ref": "#/definitions/table"}
		},
		"additionalProperties": false
	},
	"definitions": {
		"table": {
			"type": "object",
			"additionalProperties": {"type": "number"}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(matrixSchema)

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
	if input.Action == ActionReset {
		if err := h.redis.Del(ctx, h.config.MatrixKey).Err(); err != nil {
			metrics.MatrixUpdates.WithLabelValues("store_failed").Inc()
			return nil, commonerrors.NewMatrixStoreError(err)
		}
		metrics.MatrixUpdates.WithLabelValues("reset").Inc()
		h.logger.Info("matrix reset to default", nil)
		return &Output{Reset: true}, nil
	}

	matrix, err := h.validateOverride(input.Matrix)
	if err != nil {
		metrics.MatrixUpdates.WithLabelValues("rejected").Inc()
		return nil, err
	}

	// Canonical re-marshal so the stored value never carries unknown
	// fields the schema happened to let through.
	payload, err := json.Marshal(matrix)
	if err != nil {
		return nil, commonerrors.NewMatrixStoreError(err)
	}
	if err := h.redis.Set(ctx, h.config.MatrixKey, payload, 0).Err(); err != nil {
		metrics.MatrixUpdates.WithLabelValues("store_failed").Inc()
		return nil, commonerrors.NewMatrixStoreError(err)
	}

	programs := make([]string, 0, len(matrix))
	for name := range matrix {
		programs = append(programs, name)
	}
	sort.Strings(programs)

	metrics.MatrixUpdates.WithLabelValues("applied").Inc()
	h.logger.Info("matrix updated", map[string]interface{}{
		"programs": programs,
	})

	return &Output{Applied: true, Programs: programs}, nil
}

// validateOverride runs the schema check, then the model-level check.
// A rejected override leaves the stored matrix untouched.
func (h *Handler) validateOverride(raw json.RawMessage) (pricing.AdjustmentMatrix, error) {
	if len(raw) == 0 {
		return nil, commonerrors.NewMatrixValidationError("no matrix supplied")
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, commonerrors.NewMatrixValidationError(fmt.Sprintf("schema check failed: %v", err))
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, commonerrors.NewMatrixValidationError(strings.Join(details, "; "))
	}

	var matrix pricing.AdjustmentMatrix
	if err := json.Unmarshal(raw, &matrix); err != nil {
		return nil, commonerrors.NewMatrixValidationError(err.Error())
	}
	if err := matrix.Validate(); err != nil {
		return nil, commonerrors.NewMatrixValidationError(err.Error())
	}
	return matrix, nil
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
