package engine

import (
	"math"
	"sort"

	"statsmed/domain/analysis"
	"statsmed/internal/errors"
)

// Quartiles returns the type-7 quartiles of x (linear interpolation
// between order statistics at h = (n-1)p).
func Quartiles(x []float64) (analysis.Quartiles, error) {
	if err := analysis.ValidateSample("x", x, 1); err != nil {
		return analysis.Quartiles{}, errors.DomainCause("engine.quartiles", err, errors.Inputs{"n": len(x)})
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	return analysis.Quartiles{
		Q1:     quantile7(sorted, 0.25),
		Median: quantile7(sorted, 0.5),
		Q3:     quantile7(sorted, 0.75),
	}, nil
}

func quantile7(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
