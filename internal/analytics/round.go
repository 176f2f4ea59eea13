package analytics

import (
	"math"
	"strconv"
)

// roundFloat rounds the exact binary value of v to the given number of
// decimal places. Exact ties go to the even digit: 0.125 becomes 0.12, and
// 2.675 (stored as 2.67499...) becomes 2.67.
func roundFloat(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	if decimals < 0 {
		decimals = 0
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', decimals, 64), 64)
	if err != nil {
		return v
	}
	if r == 0 {
		// avoid -0 in JSON output
		return 0
	}
	return r
}

func Round2(v float64) float64 { return roundFloat(v, 2) }
