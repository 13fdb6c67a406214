package estimate

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"statsmed/domain/analysis"
	"statsmed/internal/errors"
	"statsmed/internal/rankdist"
	"statsmed/internal/rootfind"
)

// SignRankCICorrected returns the continuity-corrected Hodges-Lehmann
// interval: each bound is the shift d at which the standardized signed-rank
// statistic of x - d, corrected by 0.5 towards zero, equals the normal
// quantile. The estimate is the shift where it equals zero.
func (e *Estimator) SignRankCICorrected(x []float64) (analysis.ConfidenceInterval, error) {
	const stage = "estimate.signrank_ci_corrected"
	if err := analysis.ValidateSample("x", x, 1); err != nil {
		return analysis.ConfidenceInterval{}, errors.DomainCause(stage, err, errors.Inputs{"n": len(x)})
	}

	lo, _ := stats.Min(x)
	hi, _ := stats.Max(x)
	alpha := 1 - Level

	targets := []float64{
		distuv.UnitNormal.Quantile(1 - alpha/2), // lower bound
		distuv.UnitNormal.Quantile(alpha / 2),   // upper bound
		0,                                       // estimate
	}
	roots := make([]float64, len(targets))
	for i, zq := range targets {
		zq := zq
		f := func(d float64) float64 { return SignRankDeviation(x, d) - zq }
		res, err := rootfind.Brent(f, lo, hi, rootfind.DefaultOptions())
		if err != nil {
			var appErr *errors.AppError
			if errors.As(err, &appErr) {
				appErr.Stage = stage
				appErr.Inputs["n"] = len(x)
				appErr.Inputs["z_q"] = zq
			}
			return analysis.ConfidenceInterval{}, err
		}
		roots[i] = res.Root
	}

	return analysis.ConfidenceInterval{
		Estimate: roots[2],
		Lower:    roots[0],
		Upper:    roots[1],
		Level:    Level,
		Method:   analysis.CISignedRankContinuityCorrected,
	}, nil
}

// SignRankDeviation returns the continuity-corrected standardized
// signed-rank statistic of x - d. Zero differences are dropped; ties among
// |x - d| get average ranks and reduce the variance by Σ(t³-t)/48.
func SignRankDeviation(x []float64, d float64) float64 {
	diffs := make([]float64, 0, len(x))
	for _, v := range x {
		if v-d != 0 {
			diffs = append(diffs, v-d)
		}
	}
	nx := float64(len(diffs))
	if nx == 0 {
		return 0
	}

	abs := make([]float64, len(diffs))
	for i, v := range diffs {
		abs[i] = math.Abs(v)
	}
	ranks := rankdist.Rank(abs)

	var positive float64
	for i, v := range diffs {
		if v > 0 {
			positive += ranks[i]
		}
	}
	z := positive - nx*(nx+1)/4
	sigma := math.Sqrt(nx*(nx+1)*(2*nx+1)/24 - rankdist.TieSum(abs)/48)
	if sigma == 0 {
		return 0
	}
	return (z - sign(z)*0.5) / sigma
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
