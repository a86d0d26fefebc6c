// internal/pricing/matrix_test.go
package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLTVTier_Boundaries(t *testing.T) {
	tests := []struct {
		ltv  float64
		tier string
	}{
		{0, "<=60"},
		{60, "<=60"},
		{60.01, "60.01-70"},
		{70, "60.01-70"},
		{75, "70.01-75"},
		{80, "75.01-80"},
		{85, "80.01-85"},
		{85.7, "85.01-90"},
		{90, "85.01-90"},
		{95, "90.01-95"},
		{97, "95.01-97"},
		{97.5, ">97"},
		{110, ">97"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.tier, LTVTier(tt.ltv), "ltv %.2f", tt.ltv)
	}
}

func TestCreditTier(t *testing.T) {
	tests := []struct {
		raw  string
		tier string
	}{
		{"800", ">=780"},
		{"780", ">=780"},
		{"779", "760-779"},
		{"755", "740-759"},
		{"720", "720-739"},
		{"700", "700-719"},
		{"680", "680-699"},
		{"660", "660-679"},
		{"640", "640-659"},
		{"639", "<640"},
		{"500", "<640"},
		{"not-a-score", ">=780"},
		{"", ">=780"},
		// Only the leading integer counts: spreadsheet exports and
		// pre-bucketed tier strings keep their real tier.
		{"745.0", "740-759"},
		{"720-739", "720-739"},
		{" 700 ", "700-719"},
		{"680ish", "680-699"},
		{".5", ">=780"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.tier, CreditTier(tt.raw), "raw %q", tt.raw)
	}
}

func TestAdjustmentMatrix_Program(t *testing.T) {
	m := DefaultMatrix()

	// Scenario override wins over the borrower's program.
	fha := m.Program("FHA", "Conventional")
	assert.Equal(t, m["FHA"], fha)

	// Borrower program is used when there is no override.
	va := m.Program("", "VA")
	assert.Equal(t, m["VA"], va)

	// Unknown programs fall back to Conventional.
	fallback := m.Program("", "SomethingElse")
	assert.Equal(t, m["Conventional"], fallback)

	fallback = m.Program("AlsoUnknown", "VA")
	assert.Equal(t, m["Conventional"], fallback)
}

func TestAdjustmentMatrix_Validate(t *testing.T) {
	assert.NoError(t, DefaultMatrix().Validate())

	assert.Error(t, AdjustmentMatrix{}.Validate())

	missingCredit := AdjustmentMatrix{
		"Conventional": {
			LTV:         map[string]float64{},
			ProductType: map[string]float64{},
		},
	}
	err := missingCredit.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creditScore")

	missingLTV := AdjustmentMatrix{
		"Conventional": {
			CreditScore: map[string]float64{},
			ProductType: map[string]float64{},
		},
	}
	err = missingLTV.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ltv")

	missingProduct := AdjustmentMatrix{
		"Conventional": {
			CreditScore: map[string]float64{},
			LTV:         map[string]float64{},
		},
	}
	err = missingProduct.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "productType")
}

func TestDefaultMatrix_EveryCategoryPresent(t *testing.T) {
	for program, p := range DefaultMatrix() {
		assert.NotNil(t, p.LTV, program)
		assert.NotNil(t, p.CreditScore, program)
		assert.NotNil(t, p.ProductType, program)
		assert.NotNil(t, p.Occupancy, program)
		assert.NotNil(t, p.RefinanceType, program)
		assert.NotNil(t, p.PropertyType, program)
		assert.NotNil(t, p.Units, program)
	}
}
