// internal/workers/ingestion/parse-borrower-file/handler.go
package parseborrowerfile

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	commonerrors "refi-pricing-workers/internal/common/errors"
	"refi-pricing-workers/internal/common/logger"
	"refi-pricing-workers/internal/common/metrics"
	"refi-pricing-workers/internal/pricing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "parse-borrower-file"
)

// requiredFields must each resolve to a column before any row is accepted.
var requiredFields = []string{"clientName", "loanAmount", "propertyValue", "creditScore", "currentPayment"}

// columnPatterns maps borrower fields to header-name patterns, tried in
// order against each lowercased header. Later headers win ties.
var columnPatterns = []struct {
	field   string
	pattern *regexp.Regexp
}{
	{"clientName", regexp.MustCompile(`^(client|name|borrower|customer).*name`)},
	{"loanAmount", regexp.MustCompile(`^(loan.*amount|amount|principal)`)},
	{"propertyValue", regexp.MustCompile(`^(property.*value|home.*value|value|appraisal)`)},
	{"income", regexp.MustCompile(`^(income|borrower.*income|annual.*income)`)},
	{"zipCode", regexp.MustCompile(`^(zip.*code|zip|postal)`)},
	{"creditScore", regexp.MustCompile(`^(credit.*score|fico|score)`)},
	{"loanProgram", regexp.MustCompile(`^(loan.*program|program|loan.*type)`)},
	{"productType", regexp.MustCompile(`^(product.*type|product|mortgage.*type)`)},
	{"propertyType", regexp.MustCompile(`^(property.*type|home.*type|type)`)},
	{"occupancy", regexp.MustCompile(`^(occupancy|occupancy.*type)`)},
	{"currentPayment", regexp.MustCompile(`^(current.*payment|payment|monthly.*payment)`)},
	{"units", regexp.MustCompile(`^(units|number.*units)`)},
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.FileContent) == "" {
		return nil, commonerrors.NewEmptyFileError(input.FileName)
	}

	headers, rows, err := parseDelimited(input.FileContent)
	if err != nil {
		return nil, commonerrors.NewFileParseError(err)
	}
	if len(rows) == 0 {
		return nil, commonerrors.NewNoRowsFoundError(input.FileName)
	}

	mapping := input.ColumnMapping
	if len(mapping) == 0 {
		mapping = autoDetectMapping(headers)
	}

	var missing []string
	for _, field := range requiredFields {
		if mapping[field] == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, commonerrors.NewMissingColumnMappingError(missing)
	}

	if h.config.MaxRows > 0 && len(rows) > h.config.MaxRows {
		h.logger.Warn("row count exceeds limit, truncating", map[string]interface{}{
			"fileName": input.FileName,
			"rows":     len(rows),
			"maxRows":  h.config.MaxRows,
		})
		rows = rows[:h.config.MaxRows]
	}

	borrowers := make([]pricing.BorrowerRecord, 0, len(rows))
	for _, row := range rows {
		borrowers = append(borrowers, transformRow(row, mapping))
	}

	return &Output{
		Borrowers:     borrowers,
		RowCount:      len(borrowers),
		ColumnMapping: mapping,
	}, nil
}

// parseDelimited reads CSV content into a header slice and per-row maps.
// Rows whose field count differs from the header are dropped.
func parseDelimited(content string) ([]string, []map[string]string, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != len(headers) {
			continue
		}
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			row[header] = strings.TrimSpace(record[i])
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}

// autoDetectMapping resolves borrower fields from common header names.
func autoDetectMapping(headers []string) map[string]string {
	mapping := make(map[string]string)
	for _, header := range headers {
		normalized := strings.ToLower(strings.TrimSpace(header))
		for _, cp := range columnPatterns {
			if cp.pattern.MatchString(normalized) {
				mapping[cp.field] = header
			}
		}
	}
	return mapping
}

// transformRow normalizes one raw row into a BorrowerRecord, applying
// the standard defaults for unmapped or blank optional fields.
func transformRow(row map[string]string, mapping map[string]string) pricing.BorrowerRecord {
	return pricing.BorrowerRecord{
		ClientName:     stringOr(row[mapping["clientName"]], "Unknown"),
		LoanAmount:     parseMoney(row[mapping["loanAmount"]]),
		PropertyValue:  parseMoney(row[mapping["propertyValue"]]),
		Income:         parseMoney(row[mapping["income"]]),
		ZipCode:        strings.TrimSpace(row[mapping["zipCode"]]),
		CreditScore:    pricing.CreditTier(stringOr(row[mapping["creditScore"]], "780")),
		LoanProgram:    stringOr(row[mapping["loanProgram"]], pricing.DefaultLoanProgram),
		ProductType:    stringOr(row[mapping["productType"]], "Fixed"),
		PropertyType:   stringOr(row[mapping["propertyType"]], "Single Family"),
		Occupancy:      stringOr(row[mapping["occupancy"]], "Primary"),
		CurrentPayment: parseMoney(row[mapping["currentPayment"]]),
		Units:          stringOr(row[mapping["units"]], "1"),
	}
}

func stringOr(raw, fallback string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}

// parseMoney strips currency punctuation; unparseable values become 0.
func parseMoney(raw string) float64 {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(raw))
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
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
