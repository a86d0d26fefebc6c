// internal/pricing/matrix.go
package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// Property-type sub-keys. These are the only two propertyType buckets;
// they are matched by substring against free-text property descriptions.
const (
	PropertyCondo            = "Condo"
	PropertyManufacturedHome = "ManufacturedHome"
)

// DefaultLoanProgram is the fallback when a borrower's program is
// blank or unknown to the matrix.
const DefaultLoanProgram = "Conventional"

// ProgramMatrix holds every adjustment category for one loan program.
// A missing bucket key resolves to 0 points, never an error.
type ProgramMatrix struct {
	LTV           map[string]float64 `json:"ltv"`
	CreditScore   map[string]float64 `json:"creditScore"`
	ProductType   map[string]float64 `json:"productType"`
	Occupancy     map[string]float64 `json:"occupancy"`
	RefinanceType map[string]float64 `json:"refinanceType"`
	PropertyType  map[string]float64 `json:"propertyType"`
	Units         map[string]float64 `json:"units"`
}

// AdjustmentMatrix maps loan program name to its adjustment table.
type AdjustmentMatrix map[string]ProgramMatrix

// Program resolves the effective program table: scenario override
// first, then the borrower's own program, then Conventional.
func (m AdjustmentMatrix) Program(override, borrowerProgram string) ProgramMatrix {
	name := override
	if name == "" {
		name = borrowerProgram
	}
	if p, ok := m[name]; ok {
		return p
	}
	return m[DefaultLoanProgram]
}

// Validate enforces the minimum structure a persisted override must
// carry before it replaces the active matrix: creditScore, ltv and
// productType tables for every program.
func (m AdjustmentMatrix) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("matrix has no loan programs")
	}
	for program, p := range m {
		if p.CreditScore == nil {
			return fmt.Errorf("program %q: missing creditScore table", program)
		}
		if p.LTV == nil {
			return fmt.Errorf("program %q: missing ltv table", program)
		}
		if p.ProductType == nil {
			return fmt.Errorf("program %q: missing productType table", program)
		}
	}
	return nil
}

// pointsFor is the one permissive lookup shared by every category:
// nil table or unknown key contributes nothing.
func pointsFor(table map[string]float64, key string) float64 {
	if table == nil {
		return 0
	}
	return table[key]
}

// LTVTier buckets a loan-to-value percentage into the matrix's
// discrete LTV ranges.
func LTVTier(ltv float64) string {
	switch {
	case ltv <= 60:
		return "<=60"
	case ltv <= 70:
		return "60.01-70"
	case ltv <= 75:
		return "70.01-75"
	case ltv <= 80:
		return "75.01-80"
	case ltv <= 85:
		return "80.01-85"
	case ltv <= 90:
		return "85.01-90"
	case ltv <= 95:
		return "90.01-95"
	case ltv <= 97:
		return "95.01-97"
	default:
		return ">97"
	}
}

// CreditTier buckets a raw credit score into the tier strings the
// matrix is keyed by. Only the leading integer is read, so spreadsheet
// exports like "745.0" and pre-bucketed values like "720-739" resolve
// to their real tier. Input with no leading digits lands in the top
// tier so an unmapped score prices neutrally rather than failing the
// row.
func CreditTier(raw string) string {
	score, ok := leadingInt(raw)
	if !ok {
		return ">=780"
	}
	switch {
	case score >= 780:
		return ">=780"
	case score >= 760:
		return "760-779"
	case score >= 740:
		return "740-759"
	case score >= 720:
		return "720-739"
	case score >= 700:
		return "700-719"
	case score >= 680:
		return "680-699"
	case score >= 660:
		return "660-679"
	case score >= 640:
		return "640-659"
	default:
		return "<640"
	}
}

// leadingInt reads the integer prefix of a score string, ignoring
// whatever trails it.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 0, false
	}
	n, err := strconv.Atoi(s[:j])
	if err != nil {
		return 0, false
	}
	return n, true
}

// DefaultMatrix returns the built-in adjustment tables. Values are
// illustrative, not a regulatory LLPA grid.
func DefaultMatrix() AdjustmentMatrix {
	return AdjustmentMatrix{
		"Conventional": {
			LTV: map[string]float64{
				"<=60":      -0.250,
				"60.01-70":  -0.125,
				"70.01-75":  0.000,
				"75.01-80":  0.125,
				"80.01-85":  0.250,
				"85.01-90":  0.375,
				"90.01-95":  0.500,
				"95.01-97":  0.750,
				">97":       1.000,
			},
			CreditScore: map[string]float64{
				">=780":   -0.125,
				"760-779": 0.000,
				"740-759": 0.125,
				"720-739": 0.250,
				"700-719": 0.500,
				"680-699": 0.750,
				"660-679": 1.125,
				"640-659": 1.500,
				"<640":    2.250,
			},
			ProductType: map[string]float64{
				"Fixed": 0.000,
				"ARM":   0.250,
			},
			Occupancy: map[string]float64{
				"Primary":    0.000,
				"Secondary":  1.125,
				"Investment": 2.125,
			},
			RefinanceType: map[string]float64{
				"RateTerm": 0.000,
				"CashOut":  0.625,
			},
			PropertyType: map[string]float64{
				PropertyCondo:            0.750,
				PropertyManufacturedHome: 0.500,
			},
			Units: map[string]float64{
				"1": 0.000,
				"2": 0.375,
				"3": 0.625,
				"4": 0.625,
			},
		},
		"FHA": {
			LTV: map[string]float64{
				"<=60":      0.000,
				"60.01-70":  0.000,
				"70.01-75":  0.000,
				"75.01-80":  0.000,
				"80.01-85":  0.125,
				"85.01-90":  0.125,
				"90.01-95":  0.250,
				"95.01-97":  0.250,
				">97":       0.375,
			},
			CreditScore: map[string]float64{
				">=780":   0.000,
				"760-779": 0.000,
				"740-759": 0.000,
				"720-739": 0.125,
				"700-719": 0.125,
				"680-699": 0.250,
				"660-679": 0.375,
				"640-659": 0.500,
				"<640":    0.750,
			},
			ProductType: map[string]float64{
				"Fixed": 0.000,
				"ARM":   0.125,
			},
			Occupancy: map[string]float64{
				"Primary": 0.000,
			},
			RefinanceType: map[string]float64{
				"RateTerm": 0.000,
				"CashOut":  0.250,
			},
			PropertyType: map[string]float64{
				PropertyCondo:            0.250,
				PropertyManufacturedHome: 0.375,
			},
			Units: map[string]float64{
				"1": 0.000,
				"2": 0.250,
				"3": 0.375,
				"4": 0.375,
			},
		},
		"VA": {
			LTV: map[string]float64{
				"<=60":      0.000,
				"60.01-70":  0.000,
				"70.01-75":  0.000,
				"75.01-80":  0.000,
				"80.01-85":  0.000,
				"85.01-90":  0.125,
				"90.01-95":  0.125,
				"95.01-97":  0.250,
				">97":       0.250,
			},
			CreditScore: map[string]float64{
				">=780":   0.000,
				"760-779": 0.000,
				"740-759": 0.000,
				"720-739": 0.000,
				"700-719": 0.125,
				"680-699": 0.125,
				"660-679": 0.250,
				"640-659": 0.375,
				"<640":    0.500,
			},
			ProductType: map[string]float64{
				"Fixed": 0.000,
				"ARM":   0.125,
			},
			Occupancy: map[string]float64{
				"Primary": 0.000,
			},
			RefinanceType: map[string]float64{
				"RateTerm": 0.000,
				"CashOut":  0.500,
			},
			PropertyType: map[string]float64{
				PropertyCondo:            0.000,
				PropertyManufacturedHome: 0.500,
			},
			Units: map[string]float64{
				"1": 0.000,
				"2": 0.250,
				"3": 0.250,
				"4": 0.250,
			},
		},
		"Jumbo": {
			LTV: map[string]float64{
				"<=60":      -0.125,
				"60.01-70":  0.000,
				"70.01-75":  0.125,
				"75.01-80":  0.250,
				"80.01-85":  0.500,
				"85.01-90":  0.750,
				"90.01-95":  1.250,
				"95.01-97":  1.750,
				">97":       2.250,
			},
			CreditScore: map[string]float64{
				">=780":   -0.250,
				"760-779": 0.000,
				"740-759": 0.250,
				"720-739": 0.500,
				"700-719": 0.875,
				"680-699": 1.250,
				"660-679": 1.750,
				"640-659": 2.250,
				"<640":    3.000,
			},
			ProductType: map[string]float64{
				"Fixed": 0.000,
				"ARM":   0.375,
			},
			Occupancy: map[string]float64{
				"Primary":    0.000,
				"Secondary":  1.375,
				"Investment": 2.500,
			},
			RefinanceType: map[string]float64{
				"RateTerm": 0.000,
				"CashOut":  1.000,
			},
			PropertyType: map[string]float64{
				PropertyCondo:            1.000,
				PropertyManufacturedHome: 1.000,
			},
			Units: map[string]float64{
				"1": 0.000,
				"2": 0.500,
				"3": 0.750,
				"4": 0.750,
			},
		},
	}
}
