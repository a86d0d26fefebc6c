// internal/workers/ingestion/parse-borrower-file/models.go
package parseborrowerfile

import "refi-pricing-workers/internal/pricing"

// Input carries the raw delimited file content plus an optional explicit
// column mapping. When the mapping is empty, columns are auto-detected
// from the header row.
type Input struct {
	FileName      string            `json:"fileName"`
	FileContent   string            `json:"fileContent"`
	ColumnMapping map[string]string `json:"columnMapping,omitempty"`
}

// Output is the normalized borrower roster handed to the pricing stage.
type Output struct {
	Borrowers     []pricing.BorrowerRecord `json:"borrowers"`
	RowCount      int                      `json:"rowCount"`
	ColumnMapping map[string]string        `json:"columnMapping"`
}
