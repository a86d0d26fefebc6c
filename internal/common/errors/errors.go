// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Ingestion errors, raised before any borrower record exists.
	ErrCodeEmptyFile            ErrorCode = "EMPTY_FILE"
	ErrCodeNoRowsFound          ErrorCode = "NO_ROWS_FOUND"
	ErrCodeMissingColumnMapping ErrorCode = "MISSING_COLUMN_MAPPING"
	ErrCodeFileParseFailed      ErrorCode = "FILE_PARSE_FAILED"

	// Matrix store errors.
	ErrCodeMatrixValidationFailed ErrorCode = "MATRIX_VALIDATION_FAILED"
	ErrCodeMatrixStoreFailed      ErrorCode = "MATRIX_STORE_FAILED"

	// Pricing pipeline errors.
	ErrCodePricingFailed   ErrorCode = "PRICING_FAILED"
	ErrCodeResultsNotFound ErrorCode = "RESULTS_NOT_FOUND"
	ErrCodeExportFailed    ErrorCode = "EXPORT_FAILED"
	ErrCodeIndexingFailed  ErrorCode = "INDEXING_FAILED"

	// Infrastructure errors.
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeCacheReadFailed          ErrorCode = "CACHE_READ_FAILED"
	ErrCodeCacheWriteFailed         ErrorCode = "CACHE_WRITE_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// BPMNErrorMapping maps internal codes to the codes BPMN boundary
// events catch. Identity for now; kept separate so workflow and code
// vocabularies can drift independently.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeEmptyFile:              "EMPTY_FILE",
	ErrCodeNoRowsFound:            "NO_ROWS_FOUND",
	ErrCodeMissingColumnMapping:   "MISSING_COLUMN_MAPPING",
	ErrCodeFileParseFailed:        "FILE_PARSE_FAILED",
	ErrCodeMatrixValidationFailed: "MATRIX_VALIDATION_FAILED",
	ErrCodeMatrixStoreFailed:      "MATRIX_STORE_FAILED",
	ErrCodePricingFailed:          "PRICING_FAILED",
	ErrCodeResultsNotFound:        "RESULTS_NOT_FOUND",
	ErrCodeExportFailed:           "EXPORT_FAILED",
	ErrCodeIndexingFailed:         "INDEXING_FAILED",
}

// ==========================
// 3. Error Constructors
// ==========================

// NewEmptyFileError flags an uploaded file with no content.
func NewEmptyFileError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyFile,
		Message:   "Uploaded file is empty",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoRowsFoundError flags a parsed file with headers but no data rows.
func NewNoRowsFoundError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoRowsFound,
		Message:   "No data rows found in file",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingColumnMappingError lists required borrower fields that no
// column maps to.
func NewMissingColumnMappingError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingColumnMapping,
		Message:   "Required fields not mapped",
		Details:   strings.Join(missing, ", "),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFileParseError wraps a malformed file that the reader rejected.
func NewFileParseError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFileParseFailed,
		Message:   "Failed to parse uploaded file",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatrixValidationError rejects a malformed matrix override; the
// persisted matrix is left untouched.
func NewMatrixValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatrixValidationFailed,
		Message:   "Adjustment matrix override failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatrixStoreError wraps a matrix persistence failure.
func NewMatrixStoreError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatrixStoreFailed,
		Message:   "Failed to persist adjustment matrix",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResultsNotFoundError flags a missing cached result set.
func NewResultsNotFoundError(batchID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResultsNotFound,
		Message:   "No cached pricing results for batch",
		Details:   batchID,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewExportError wraps a result export failure.
func NewExportError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExportFailed,
		Message:   "Failed to export pricing results",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexingError wraps an Elasticsearch indexing failure.
func NewIndexingError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexingFailed,
		Message:   "Failed to index pricing results",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertError wraps a failed result persistence write.
func NewDatabaseInsertError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheReadError wraps a failed result-cache read.
func NewCacheReadError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheReadFailed,
		Message:   "Failed to read cached pricing results",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheWriteError wraps a failed result-cache write.
func NewCacheWriteError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheWriteFailed,
		Message:   "Failed to cache pricing results",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendError wraps a failed batch notification.
func NewNotificationSendError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Failed to send batch notification",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Retry Policy
// ==========================

// GetRetryCount returns how many times a job failing with this code
// should be retried before the error reaches the workflow.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeCacheReadFailed,
		ErrCodeCacheWriteFailed,
		ErrCodeMatrixStoreFailed,
		ErrCodeIndexingFailed,
		ErrCodeNotificationSendFailed:
		return 3 // Retryable technical errors

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "FILE") || strings.Contains(codeStr, "ROWS") || strings.Contains(codeStr, "MAPPING"):
		return "INGESTION"
	case strings.Contains(codeStr, "MATRIX"):
		return "MATRIX"
	case strings.Contains(codeStr, "PRICING") || strings.Contains(codeStr, "RESULTS") || strings.Contains(codeStr, "EXPORT"):
		return "PRICING"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "CACHE"):
		return "DATABASE"
	case strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
