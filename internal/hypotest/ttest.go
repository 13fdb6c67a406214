// Package hypotest implements the parametric and rank-based tests the
// engine chooses between.
package hypotest

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"statsmed/domain/analysis"
	"statsmed/domain/core"
	"statsmed/internal/errors"
)

// PairedTTest tests mean(x - y) against zero.
func (t *Tester) PairedTTest(x, y []float64, alt analysis.Alternative) (analysis.Finding, error) {
	const stage = "hypotest.paired_t_test"
	d, err := pairedDifferences(stage, x, y)
	if err != nil {
		return analysis.Finding{}, err
	}
	f, err := t.OneSampleTTest(d, 0, alt)
	if err != nil {
		return analysis.Finding{}, err
	}
	f.Procedure = analysis.ProcPairedTTest
	return f, nil
}

// OneSampleTTest tests mean(x) against mu. A constant sample yields an
// infinite statistic unless its mean equals mu, which is undefined.
func (t *Tester) OneSampleTTest(x []float64, mu float64, alt analysis.Alternative) (analysis.Finding, error) {
	const stage = "hypotest.one_sample_t_test"
	if err := analysis.ValidateSample("x", x, 2); err != nil {
		return analysis.Finding{}, errors.DomainCause(stage, err, errors.Inputs{"n": len(x)})
	}

	n := float64(len(x))
	mean, sd := stat.MeanStdDev(x, nil)
	diff := mean - mu
	var tStat float64
	if sd == 0 {
		if diff == 0 {
			return analysis.Finding{}, errors.DomainCause(stage, core.ErrZeroVariance, errors.Inputs{"n": len(x), "mean": mean, "mu": mu})
		}
		tStat = math.Inf(int(math.Copysign(1, diff)))
	} else {
		tStat = diff / (sd / math.Sqrt(n))
	}
	df := n - 1
	half := t.dist.TQuantile(0.975, df) * sd / math.Sqrt(n)

	return analysis.Finding{
		Procedure:     analysis.ProcPairedTTest,
		Kind:          analysis.DecisionParametric,
		N:             len(x),
		StatisticName: "t",
		Statistic:     tStat,
		DF:            df,
		PValue:        t.dist.TTestPValue(tStat, df, alt),
		Alternative:   alt,
		Exact:         true,
		Interval:      meanInterval(mean, half),
	}, nil
}

// WelchTTest tests mean(x) - mean(y) against zero without assuming equal
// variances (Welch-Satterthwaite degrees of freedom).
func (t *Tester) WelchTTest(x, y []float64, alt analysis.Alternative) (analysis.Finding, error) {
	const stage = "hypotest.welch_t_test"
	if err := analysis.ValidateSample("x", x, 2); err != nil {
		return analysis.Finding{}, errors.DomainCause(stage, err, errors.Inputs{"n_x": len(x), "n_y": len(y)})
	}
	if err := analysis.ValidateSample("y", y, 2); err != nil {
		return analysis.Finding{}, errors.DomainCause(stage, err, errors.Inputs{"n_x": len(x), "n_y": len(y)})
	}

	nx, ny := float64(len(x)), float64(len(y))
	mx, vx := stat.MeanVariance(x, nil)
	my, vy := stat.MeanVariance(y, nil)
	sx, sy := vx/nx, vy/ny
	se := math.Sqrt(sx + sy)
	if se == 0 {
		return analysis.Finding{}, errors.DomainCause(stage, core.ErrZeroVariance, errors.Inputs{"n_x": len(x), "n_y": len(y)})
	}

	tStat := (mx - my) / se
	df := (sx + sy) * (sx + sy) / (sx*sx/(nx-1) + sy*sy/(ny-1))
	half := t.dist.TQuantile(0.975, df) * se

	return analysis.Finding{
		Procedure:     analysis.ProcWelchTTest,
		Kind:          analysis.DecisionParametric,
		N:             len(x) + len(y),
		StatisticName: "t",
		Statistic:     tStat,
		DF:            df,
		PValue:        t.dist.TTestPValue(tStat, df, alt),
		Alternative:   alt,
		Exact:         true,
		Interval:      meanInterval(mx-my, half),
	}, nil
}

// meanInterval is the 95% t interval estimate ± half.
func meanInterval(estimate, half float64) *analysis.ConfidenceInterval {
	return &analysis.ConfidenceInterval{
		Estimate: estimate,
		Lower:    estimate - half,
		Upper:    estimate + half,
		Level:    0.95,
		Method:   analysis.CINormalTheory,
	}
}

func pairedDifferences(stage string, x, y []float64) ([]float64, error) {
	if err := analysis.ValidateSample("x", x, 1); err != nil {
		return nil, errors.DomainCause(stage, err, errors.Inputs{"n_x": len(x), "n_y": len(y)})
	}
	if err := analysis.ValidateSample("y", y, 1); err != nil {
		return nil, errors.DomainCause(stage, err, errors.Inputs{"n_x": len(x), "n_y": len(y)})
	}
	if len(x) != len(y) {
		return nil, errors.DomainCause(stage, core.ErrLengthMismatch, errors.Inputs{"n_x": len(x), "n_y": len(y)})
	}
	d := make([]float64, len(x))
	for i := range x {
		d[i] = x[i] - y[i]
	}
	return d, nil
}
