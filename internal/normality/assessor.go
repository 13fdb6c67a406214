// Package normality decides between parametric and nonparametric
// procedures from a Shapiro-Wilk and a Kolmogorov-Smirnov test.
package normality

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"statsmed/domain/analysis"
	"statsmed/internal"
	"statsmed/internal/errors"
)

// DefaultAlpha is the rejection level of both normality tests.
const DefaultAlpha = 0.05

// Assessor runs both normality tests on a sample. A sample is treated as
// nonparametric as soon as either test rejects normality.
type Assessor struct {
	alpha  float64
	logger *internal.Logger
}

// NewAssessor creates an assessor rejecting at alpha (DefaultAlpha when
// alpha is outside (0, 1)).
func NewAssessor(alpha float64, logger *internal.Logger) *Assessor {
	if !(alpha > 0 && alpha < 1) {
		alpha = DefaultAlpha
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Assessor{alpha: alpha, logger: logger}
}

// Alpha returns the rejection level.
func (a *Assessor) Alpha() float64 { return a.alpha }

// Assess runs Shapiro-Wilk on the raw sample and Kolmogorov-Smirnov on the
// standardized sample.
func (a *Assessor) Assess(name string, x []float64) (analysis.Assessment, error) {
	const stage = "normality.assess"
	if err := analysis.ValidateSample(name, x, 3); err != nil {
		return analysis.Assessment{}, errors.DomainCause(stage, err, errors.Inputs{"sample": name, "n": len(x)})
	}

	result := analysis.Assessment{
		Sample:   name,
		N:        len(x),
		ShapiroW: math.NaN(),
		ShapiroP: math.NaN(),
		KSD:      math.NaN(),
		KSP:      math.NaN(),
		Alpha:    a.alpha,
	}

	if stat.Variance(x, nil) == 0 {
		result.Decision = analysis.DecisionNonparametric
		result.Note = "zero variance"
		a.logger.Debug("sample %s has zero variance, treating as nonparametric", name)
		return result, nil
	}

	w, pw, err := ShapiroWilk(x)
	if err != nil {
		return analysis.Assessment{}, err
	}
	d, pd, err := KolmogorovSmirnov(x)
	if err != nil {
		return analysis.Assessment{}, err
	}

	result.ShapiroW, result.ShapiroP = w, pw
	result.KSD, result.KSP = d, pd
	result.ShapiroRejects = pw < a.alpha
	result.KSRejects = pd < a.alpha
	if result.ShapiroRejects || result.KSRejects {
		result.Decision = analysis.DecisionNonparametric
	} else {
		result.Decision = analysis.DecisionParametric
	}
	if len(x) > ShapiroMaxN {
		result.Note = fmt.Sprintf("Shapiro-Wilk p-value may be inaccurate for n > %d", ShapiroMaxN)
	}

	a.logger.Debug("sample %s: W=%.4f p=%.4g, D=%.4f p=%.4g -> %s", name, w, pw, d, pd, result.Decision)
	return result, nil
}

// Decide combines per-sample assessments: the decision is nonparametric if
// any sample is nonparametric.
func (a *Assessor) Decide(assessments ...analysis.Assessment) analysis.TestDecision {
	decision := analysis.DecisionParametric
	for _, as := range assessments {
		if as.Decision == analysis.DecisionNonparametric {
			decision = analysis.DecisionNonparametric
			break
		}
	}
	out := make([]analysis.Assessment, len(assessments))
	copy(out, assessments)
	return analysis.TestDecision{Decision: decision, Assessments: out}
}
