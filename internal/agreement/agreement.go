// Package agreement quantifies how well two raters or methods agree on the
// same subjects.
package agreement

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"statsmed/domain/analysis"
	"statsmed/domain/core"
	"statsmed/internal/errors"
)

// LimitFactor scales the standard deviation of the differences into the
// 95% limits of agreement.
const LimitFactor = 1.96

// BlandAltman computes the bias (mean of x - y), the limits of agreement
// bias ± 1.96·sd and t-based 95% intervals for all three. The standard
// error of the bias is √(s²/n) and of each limit √(3s²/n).
func BlandAltman(x, y []float64) (analysis.AgreementSection, error) {
	const stage = "agreement.bland_altman"
	d, err := Differences(x, y)
	if err != nil {
		return analysis.AgreementSection{}, err
	}
	if len(d) < 2 {
		return analysis.AgreementSection{}, errors.DomainCause(stage, core.ErrSampleTooSmall, errors.Inputs{"n": len(d)})
	}

	n := float64(len(d))
	bias, sd := stat.MeanStdDev(d, nil)
	variance := sd * sd
	tq := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}.Quantile(0.975)
	seBias := math.Sqrt(variance / n)
	seLimit := math.Sqrt(3 * variance / n)

	lower := bias - LimitFactor*sd
	upper := bias + LimitFactor*sd
	out := analysis.AgreementSection{
		N:               len(d),
		Bias:            bias,
		SD:              sd,
		LowerLimit:      lower,
		UpperLimit:      upper,
		BiasCI:          interval(bias, tq*seBias),
		LowerLimitCI:    interval(lower, tq*seLimit),
		UpperLimitCI:    interval(upper, tq*seLimit),
		WithinSubjectCV: math.NaN(),
	}

	if cv, err := WithinSubjectCV(x, y); err == nil {
		out.WithinSubjectCV = cv
	}
	return out, nil
}

// WithinSubjectCV returns √(mean(s²/m²)) where s² = (x-y)²/2 is the
// within-subject variance and m = (x+y)/2 the subject mean. Older statsmed
// reports used √(sum(s²/m²)); those values are larger by a factor √n.
func WithinSubjectCV(x, y []float64) (float64, error) {
	const stage = "agreement.within_subject_cv"
	if _, err := Differences(x, y); err != nil {
		return math.NaN(), err
	}
	var sum float64
	for i := range x {
		m := (x[i] + y[i]) / 2
		if m == 0 {
			return math.NaN(), errors.Domain(stage, "subject mean is zero", errors.Inputs{"index": i})
		}
		diff := x[i] - y[i]
		sum += diff * diff / 2 / (m * m)
	}
	return math.Sqrt(sum / float64(len(x))), nil
}

// Differences returns x - y after validating both samples.
func Differences(x, y []float64) ([]float64, error) {
	const stage = "agreement.differences"
	inputs := errors.Inputs{"n_x": len(x), "n_y": len(y)}
	if err := analysis.ValidateSample("x", x, 1); err != nil {
		return nil, errors.DomainCause(stage, err, inputs)
	}
	if err := analysis.ValidateSample("y", y, 1); err != nil {
		return nil, errors.DomainCause(stage, err, inputs)
	}
	if len(x) != len(y) {
		return nil, errors.DomainCause(stage, core.ErrLengthMismatch, inputs)
	}
	d := make([]float64, len(x))
	for i := range x {
		d[i] = x[i] - y[i]
	}
	return d, nil
}

// Means returns the per-subject means (x+y)/2, the horizontal axis of a
// Bland-Altman plot.
func Means(x, y []float64) []float64 {
	m := make([]float64, len(x))
	for i := range x {
		m[i] = (x[i] + y[i]) / 2
	}
	return m
}

func interval(estimate, half float64) analysis.ConfidenceInterval {
	return analysis.ConfidenceInterval{
		Estimate: estimate,
		Lower:    estimate - half,
		Upper:    estimate + half,
		Level:    0.95,
		Method:   analysis.CINormalTheory,
	}
}
