package risk

import (
	"fmt"
	"math"
)

// Classification is the attendance risk category derived from a percentage.
type Classification string

// Categories, plus the zero-sample state which is not a risk category.
const (
	Excellent        Classification = "excellent"
	Good             Classification = "good"
	Regular          Classification = "regular"
	Deficient        Classification = "deficient"
	InsufficientData Classification = "insufficient_data"
)

// Inclusive lower bounds of each category, in percent.
const (
	ExcellentThreshold = 90.0
	GoodThreshold      = 80.0
	RegularThreshold   = 70.0

	// AtRiskThreshold is the percentage below which a learner is at risk.
	AtRiskThreshold = RegularThreshold
)

// labels are the portal's display names for each classification.
var labels = map[Classification]string{
	Excellent:        "Excelente",
	Good:             "Bueno",
	Regular:          "Regular",
	Deficient:        "Deficiente",
	InsufficientData: "Sin datos",
}

// Classify maps a percentage in [0, 100] to its category.
// PRE: pct is a percentage; values outside [0, 100] clamp to the nearest category
// POST: Returns one of Excellent, Good, Regular, Deficient
func Classify(pct float64) Classification {
	switch {
	case pct >= ExcellentThreshold:
		return Excellent
	case pct >= GoodThreshold:
		return Good
	case pct >= RegularThreshold:
		return Regular
	default:
		return Deficient
	}
}

// IsAtRisk reports whether pct falls below the at-risk threshold.
// Equivalent to Classify(pct) == Deficient.
func IsAtRisk(pct float64) bool {
	return pct < AtRiskThreshold
}

// Label returns the display name for c.
func (c Classification) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return string(c)
}

// Valid reports whether c is a known classification.
func (c Classification) Valid() bool {
	_, ok := labels[c]
	return ok
}

// Percentage returns part/total*100 rounded half-up to 2 decimals.
// It works on integers so that exact halves (e.g. 1/8 = 12.5%) never
// suffer from binary floating point drift. total == 0 yields 0.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	// hundredths of a percent, rounded half-up: (part*10000 + total/2) / total
	num := int64(part) * 10000 * 2
	den := int64(total) * 2
	hundredths := (num + int64(total)) / den
	return float64(hundredths) / 100
}

// Round rounds x half-up to 2 decimal places. Used for derived values such
// as averages of percentages, where Percentage does not apply.
func Round(x float64) float64 {
	const eps = 1e-9
	if x < 0 {
		return -math.Floor(-x*100+0.5+eps) / 100
	}
	return math.Floor(x*100+0.5+eps) / 100
}

// Format renders pct as "NN.NN%".
func Format(pct float64) string {
	return fmt.Sprintf("%.2f%%", Round(pct))
}
