// Package report turns computed outcomes into display text. It is the only
// package that produces user-facing strings.
package report

import (
	"math"
	"strconv"
	"strings"

	"statsmed/internal/errors"
)

// FormatPValue renders p with a three-tier rounding policy:
//
//	p >= 0.06                     2 decimals
//	0.05 < p < 0.06               3 decimals
//	10^-precision <= p <= 0.05    precision decimals
//	p < 10^-precision             "p < 10^-precision"
//
// Trailing zeros are trimmed, so 0.5 prints as "p = 0.5".
func FormatPValue(p float64, precision int) (string, error) {
	const stage = "report.format_p_value"
	if precision < 1 {
		return "", errors.Parameter(stage, "precision must be at least 1", errors.Inputs{"precision": precision})
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return "", errors.Domain(stage, "p-value outside [0, 1]", errors.Inputs{"p": p})
	}

	floor := math.Pow(10, -float64(precision))
	switch {
	case p >= 0.06:
		return "p = " + trimmed(p, 2), nil
	case p > 0.05:
		return "p = " + trimmed(p, 3), nil
	case p >= floor:
		return "p = " + trimmed(p, precision), nil
	default:
		return "p < " + strconv.FormatFloat(floor, 'f', precision, 64), nil
	}
}

func trimmed(v float64, decimals int) string {
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
