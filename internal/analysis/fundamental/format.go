package fundamental

import (
	"fmt"
	"math"
)

// FormatFinancialNumber scales a dollar amount to B, M or K.
//
//	FormatFinancialNumber(2.5e9)  → "$2.50B"
//	FormatFinancialNumber(-4.2e6) → "$-4.20M"
//	FormatFinancialNumber(950)    → "$950.00"
func FormatFinancialNumber(n float64) string {
	abs := math.Abs(n)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", n/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.2fM", n/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("$%.2fK", n/1e3)
	default:
		return fmt.Sprintf("$%.2f", n)
	}
}

// FormatBillions always renders in billions, e.g. "$124.30B".
func FormatBillions(n float64) string {
	return fmt.Sprintf("$%.2fB", n/1e9)
}

// FormatPercent renders a decimal ratio as a percentage, e.g. 0.0815 → "8.15%".
func FormatPercent(r float64) string {
	return fmt.Sprintf("%.2f%%", r*100)
}
