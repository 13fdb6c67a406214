// Package estimate builds point estimates and confidence intervals from
// normal theory and from the exact rank distributions.
package estimate

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"statsmed/domain/analysis"
	"statsmed/internal/errors"
	"statsmed/internal/rankdist"
)

// Level is the confidence level of every interval produced here.
const Level = 0.95

// Estimator computes confidence intervals. It holds no per-call state and
// is safe for concurrent use.
type Estimator struct {
	dist *rankdist.Distributions
}

// NewEstimator creates an estimator over the given distributions.
func NewEstimator(dist *rankdist.Distributions) *Estimator {
	if dist == nil {
		dist = rankdist.NewDistributions(nil)
	}
	return &Estimator{dist: dist}
}

// NormalCI returns mean ± t(0.975, n-1)·sd/√n.
func (e *Estimator) NormalCI(x []float64) (analysis.ConfidenceInterval, error) {
	const stage = "estimate.normal_ci"
	if err := analysis.ValidateSample("x", x, 2); err != nil {
		return analysis.ConfidenceInterval{}, errors.DomainCause(stage, err, errors.Inputs{"n": len(x)})
	}

	n := float64(len(x))
	mean, sd := stat.MeanStdDev(x, nil)
	tq := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}.Quantile(1 - (1-Level)/2)
	half := tq * sd / math.Sqrt(n)

	return analysis.ConfidenceInterval{
		Estimate: mean,
		Lower:    mean - half,
		Upper:    mean + half,
		Level:    Level,
		Method:   analysis.CINormalTheory,
	}, nil
}

// WalshAverages returns the sorted pairwise averages (x[i]+x[j])/2, i <= j.
func WalshAverages(x []float64) []float64 {
	n := len(x)
	out := make([]float64, 0, n*(n+1)/2)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out = append(out, (x[i]+x[j])/2)
		}
	}
	sort.Float64s(out)
	return out
}

// PairwiseDifferences returns the sorted differences x[i] - y[j].
func PairwiseDifferences(x, y []float64) []float64 {
	out := make([]float64, 0, len(x)*len(y))
	for _, xi := range x {
		for _, yj := range y {
			out = append(out, xi-yj)
		}
	}
	sort.Float64s(out)
	return out
}

// SignRankCI returns the Hodges-Lehmann one-sample estimate with bounds
// taken at the signed-rank quantile positions of the Walsh averages.
func (e *Estimator) SignRankCI(x []float64) (analysis.ConfidenceInterval, error) {
	const stage = "estimate.signrank_ci"
	if err := analysis.ValidateSample("x", x, 1); err != nil {
		return analysis.ConfidenceInterval{}, errors.DomainCause(stage, err, errors.Inputs{"n": len(x)})
	}

	n := len(x)
	walsh := WalshAverages(x)
	qu, err := e.dist.SignRankQuantile((1-Level)/2, n, true)
	if err != nil {
		return analysis.ConfidenceInterval{}, errors.Wrap(err, "signed-rank interval")
	}
	if qu == 0 {
		qu = 1
	}

	estimate, err := stats.Median(walsh)
	if err != nil {
		return analysis.ConfidenceInterval{}, errors.DomainCause(stage, err, errors.Inputs{"n": n})
	}

	return analysis.ConfidenceInterval{
		Estimate: estimate,
		Lower:    walsh[qu-1],
		Upper:    walsh[len(walsh)-qu],
		Level:    Level,
		Method:   analysis.CISignedRank,
	}, nil
}

// RankSumCI returns the Hodges-Lehmann shift estimate of x - y with bounds
// taken at the rank-sum quantile positions of the pairwise differences.
func (e *Estimator) RankSumCI(x, y []float64) (analysis.ConfidenceInterval, error) {
	const stage = "estimate.ranksum_ci"
	if err := analysis.ValidateSample("x", x, 1); err != nil {
		return analysis.ConfidenceInterval{}, errors.DomainCause(stage, err, errors.Inputs{"m": len(x), "n": len(y)})
	}
	if err := analysis.ValidateSample("y", y, 1); err != nil {
		return analysis.ConfidenceInterval{}, errors.DomainCause(stage, err, errors.Inputs{"m": len(x), "n": len(y)})
	}

	diffs := PairwiseDifferences(x, y)
	qu, err := e.dist.RankSumQuantile((1-Level)/2, len(x), len(y), true)
	if err != nil {
		return analysis.ConfidenceInterval{}, errors.Wrap(err, "rank-sum interval")
	}
	if qu == 0 {
		qu = 1
	}

	estimate, err := stats.Median(diffs)
	if err != nil {
		return analysis.ConfidenceInterval{}, errors.DomainCause(stage, err, errors.Inputs{"m": len(x), "n": len(y)})
	}

	return analysis.ConfidenceInterval{
		Estimate: estimate,
		Lower:    diffs[qu-1],
		Upper:    diffs[len(diffs)-qu],
		Level:    Level,
		Method:   analysis.CIRankSum,
	}, nil
}
