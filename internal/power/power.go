// Package power sizes paired non-inferiority studies.
package power

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"statsmed/domain/analysis"
	"statsmed/domain/core"
	"statsmed/internal/errors"
)

const (
	// MinSampleSize is the smallest n the search starts from; a t-test
	// needs at least one degree of freedom.
	MinSampleSize = 2
	// MaxIterations bounds the step-wise search after the normal
	// approximation.
	MaxIterations = 100000
)

// NonInferiorityPower returns the power of a one-sided paired t-test at
// level alpha to reject a difference beyond margin when the true mean
// difference is diff. A positive margin flips the direction (upper margin).
func NonInferiorityPower(alpha, margin, diff, sem, df float64) (float64, error) {
	const stage = "power.non_inferiority_power"
	inputs := errors.Inputs{"alpha": alpha, "sem": sem, "df": df}
	if !(alpha > 0 && alpha < 1) {
		return 0, errors.Parameter(stage, "alpha must be in (0, 1)", inputs)
	}
	if !(sem > 0) || !(df > 0) {
		return 0, errors.Domain(stage, "standard error and degrees of freedom must be positive", inputs)
	}

	tval := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(1 - alpha)
	tau := (diff - margin) / sem
	if margin > 0 {
		tau = -tau
	}
	return 1 - distuv.StudentsT{Mu: tau, Sigma: 1, Nu: df}.CDF(tval), nil
}

// SampleSizeParams configures NonInferioritySampleSize.
type SampleSizeParams struct {
	CV          float64 // within-subject coefficient of variation
	Theta0      float64 // expected difference
	Margin      float64 // non-inferiority margin
	Alpha       float64
	TargetPower float64
	Steps       int     // n grows in multiples of Steps
	BK          float64 // design constant, 2 for a 2x2 crossover
}

// DefaultSampleSizeParams returns the conventional one-sided 2.5% level,
// 80% power, steps of 2 and bk = 2.
func DefaultSampleSizeParams() SampleSizeParams {
	return SampleSizeParams{Alpha: 0.025, TargetPower: 0.8, Steps: 2, BK: 2}
}

// NonInferioritySampleSize starts from the normal-approximation size
//
//	n0 = bk·cv²·(z(power) + z(1-α))² / (θ0 - margin)²
//
// rounded to a multiple of Steps, then increases n by Steps until the
// t-based power reaches the target.
func NonInferioritySampleSize(p SampleSizeParams) (analysis.SampleSizeSection, error) {
	const stage = "power.non_inferiority_sample_size"
	inputs := errors.Inputs{
		"cv": p.CV, "theta0": p.Theta0, "margin": p.Margin,
		"alpha": p.Alpha, "target_power": p.TargetPower, "steps": p.Steps, "bk": p.BK,
	}
	switch {
	case !(p.Alpha > 0 && p.Alpha < 1):
		return analysis.SampleSizeSection{}, errors.Parameter(stage, "alpha must be in (0, 1)", inputs)
	case !(p.TargetPower > 0 && p.TargetPower < 1):
		return analysis.SampleSizeSection{}, errors.Parameter(stage, "target power must be in (0, 1)", inputs)
	case !(p.CV > 0) || math.IsInf(p.CV, 0):
		return analysis.SampleSizeSection{}, errors.Parameter(stage, "cv must be positive", inputs)
	case p.Steps < 1:
		return analysis.SampleSizeSection{}, errors.Parameter(stage, "steps must be at least 1", inputs)
	case !(p.BK > 0):
		return analysis.SampleSizeSection{}, errors.Parameter(stage, "bk must be positive", inputs)
	case p.Theta0 == p.Margin:
		return analysis.SampleSizeSection{}, errors.Parameter(stage, "expected difference equals the margin", inputs)
	}

	z := distuv.UnitNormal.Quantile
	gap := p.Theta0 - p.Margin
	n0 := p.BK * p.CV * p.CV * math.Pow(z(p.TargetPower)+z(1-p.Alpha), 2) / (gap * gap)
	steps := float64(p.Steps)
	n := int(steps * math.RoundToEven(n0/steps))
	if n < MinSampleSize {
		n = MinSampleSize
	}

	pw, err := sizedPower(p, n)
	if err != nil {
		return analysis.SampleSizeSection{}, err
	}
	iterations := 0
	for pw < p.TargetPower {
		if iterations >= MaxIterations {
			return analysis.SampleSizeSection{}, errors.RootFinding(stage, core.ErrNotConverged, inputs)
		}
		n += p.Steps
		iterations++
		if pw, err = sizedPower(p, n); err != nil {
			return analysis.SampleSizeSection{}, err
		}
	}

	return analysis.SampleSizeSection{
		N:           n,
		Power:       pw,
		TargetPower: p.TargetPower,
		Alpha:       p.Alpha,
		CV:          p.CV,
		Theta0:      p.Theta0,
		Margin:      p.Margin,
		Steps:       p.Steps,
		Iterations:  iterations,
	}, nil
}

func sizedPower(p SampleSizeParams, n int) (float64, error) {
	sem := p.CV * math.Sqrt(p.BK/float64(n))
	return NonInferiorityPower(p.Alpha, p.Margin, p.Theta0, sem, float64(n-1))
}
