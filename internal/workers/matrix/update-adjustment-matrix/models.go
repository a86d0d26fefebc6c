// internal/workers/matrix/update-adjustment-matrix/models.go
package updateadjustmentmatrix

import "encoding/json"

const (
	ActionUpdate = "update"
	ActionReset  = "reset"
)

// Input carries a full replacement matrix. Updates are whole-value: the
// override replaces the stored matrix entirely, there is no per-program
// merge. ActionReset drops the stored matrix so pricing falls back to
// the built-in default.
type Input struct {
	Action string          `json:"action"`
	Matrix json.RawMessage `json:"matrix,omitempty"`
}

type Output struct {
	Applied  bool     `json:"applied"`
	Reset    bool     `json:"reset"`
	Programs []string `json:"programs,omitempty"`
}
