package hypotest

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"statsmed/domain/analysis"
	"statsmed/domain/core"
	"statsmed/internal/errors"
	"statsmed/internal/rankdist"
)

// Pearson computes the product-moment correlation of x and y with a
// Fisher-z interval (se 1/√(n-3)).
func (t *Tester) Pearson(x, y []float64) (analysis.Finding, error) {
	const stage = "hypotest.pearson"
	if err := correlationInputs(stage, x, y); err != nil {
		return analysis.Finding{}, err
	}
	r := stat.Correlation(x, y, nil)
	n := len(x)
	if math.IsNaN(r) {
		return analysis.Finding{}, errors.DomainCause(stage, core.ErrZeroVariance, errors.Inputs{"n": n})
	}
	se := 1 / math.Sqrt(float64(n-3))
	return t.correlationFinding(analysis.ProcPearson, analysis.DecisionParametric, r, n, se), nil
}

// Spearman computes the rank correlation of x and y with the Bonett-Wright
// interval, s² = (1 + r²/2)/(n-3).
func (t *Tester) Spearman(x, y []float64) (analysis.Finding, error) {
	const stage = "hypotest.spearman"
	if err := correlationInputs(stage, x, y); err != nil {
		return analysis.Finding{}, err
	}
	r := stat.Correlation(rankdist.Rank(x), rankdist.Rank(y), nil)
	n := len(x)
	if math.IsNaN(r) {
		return analysis.Finding{}, errors.DomainCause(stage, core.ErrZeroVariance, errors.Inputs{"n": n})
	}
	se := math.Sqrt((1 + r*r/2) / float64(n-3))
	return t.correlationFinding(analysis.ProcSpearman, analysis.DecisionNonparametric, r, n, se), nil
}

func (t *Tester) correlationFinding(proc analysis.Procedure, kind analysis.Decision, r float64, n int, se float64) analysis.Finding {
	zq := t.dist.NormalQuantile(0.975)
	z := math.Atanh(r)
	f := analysis.Finding{
		Procedure:     proc,
		Kind:          kind,
		N:             n,
		StatisticName: "r",
		Statistic:     r,
		DF:            float64(n - 2),
		PValue:        t.dist.CorrelationPValue(r, n),
		Alternative:   analysis.TwoSided,
		Interval: &analysis.ConfidenceInterval{
			Estimate: r,
			Lower:    math.Tanh(z - zq*se),
			Upper:    math.Tanh(z + zq*se),
			Level:    0.95,
			Method:   analysis.CIFisherZ,
		},
	}
	if math.Abs(r) > 1-1e-12 {
		f.Notes = append(f.Notes, "perfect correlation")
	}
	return f
}

func correlationInputs(stage string, x, y []float64) error {
	inputs := errors.Inputs{"n_x": len(x), "n_y": len(y)}
	if err := analysis.ValidateSample("x", x, 4); err != nil {
		return errors.DomainCause(stage, err, inputs)
	}
	if err := analysis.ValidateSample("y", y, 4); err != nil {
		return errors.DomainCause(stage, err, inputs)
	}
	if len(x) != len(y) {
		return errors.DomainCause(stage, core.ErrLengthMismatch, inputs)
	}
	return nil
}
