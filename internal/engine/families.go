package engine

import (
	"math"

	"statsmed/domain/analysis"
	"statsmed/internal/agreement"
	"statsmed/internal/errors"
	"statsmed/internal/estimate"
	"statsmed/internal/power"
)

// newOutcome fills the fields every family shares and resolves alpha and
// precision against the configuration.
func (e *Engine) newOutcome(stage string, req analysis.Request) (*analysis.Outcome, error) {
	alpha := req.Params.Alpha
	if alpha == 0 {
		alpha = e.cfg.Analysis.Alpha
	}
	if !(alpha > 0 && alpha < 1) {
		return nil, errors.Parameter(stage, "alpha must be in (0, 1)", errors.Inputs{"alpha": alpha})
	}
	precision := req.Params.Precision
	if precision == 0 {
		precision = e.cfg.Analysis.Precision
	}
	if precision < 1 {
		return nil, errors.Parameter(stage, "precision must be at least 1", errors.Inputs{"precision": precision})
	}
	return &analysis.Outcome{
		Family:    req.Family,
		Mode:      req.Mode,
		Label:     req.Label,
		Paired:    req.Paired,
		Alpha:     alpha,
		Precision: precision,
	}, nil
}

// Normality assesses X, and Y when present, regardless of mode.
func (e *Engine) Normality(req analysis.Request) (*analysis.Outcome, error) {
	const stage = "engine.normality"
	out, err := e.newOutcome(stage, req)
	if err != nil {
		return nil, err
	}
	samples := []namedSample{{"x", req.X}}
	if len(req.Y) > 0 {
		samples = append(samples, namedSample{"y", req.Y})
	}
	_, decision, err := e.variants(stage, analysis.ModeAuto, samples...)
	if err != nil {
		return nil, err
	}
	out.Decision = decision
	out.Findings = []analysis.Finding{}
	return out, nil
}

// Describe reports mean with t interval (parametric) or median with
// type-7 quartiles (nonparametric) of X.
func (e *Engine) Describe(req analysis.Request) (*analysis.Outcome, error) {
	const stage = "engine.describe"
	out, err := e.newOutcome(stage, req)
	if err != nil {
		return nil, err
	}
	kinds, decision, err := e.variants(stage, req.Mode, namedSample{"x", req.X})
	if err != nil {
		return nil, err
	}
	out.Decision = decision

	for _, kind := range kinds {
		var f analysis.Finding
		if kind == analysis.DecisionParametric {
			ci, err := e.estimator.NormalCI(req.X)
			if err != nil {
				return nil, err
			}
			f = emptyFinding(analysis.ProcMeanCI, kind, len(req.X))
			f.Interval = &ci
		} else {
			q, err := Quartiles(req.X)
			if err != nil {
				return nil, err
			}
			f = emptyFinding(analysis.ProcMedianIQR, kind, len(req.X))
			f.Quartiles = &q
		}
		out.Findings = append(out.Findings, f)
	}
	return out, nil
}

// Compare tests X against Y: Welch t-test or rank-sum for independent
// samples, paired t-test or signed-rank for paired ones. Each test carries
// its interval for the location difference.
func (e *Engine) Compare(req analysis.Request) (*analysis.Outcome, error) {
	const stage = "engine.compare"
	out, err := e.newOutcome(stage, req)
	if err != nil {
		return nil, err
	}
	kinds, decision, err := e.variants(stage, req.Mode, namedSample{"x", req.X}, namedSample{"y", req.Y})
	if err != nil {
		return nil, err
	}
	out.Decision = decision

	for _, kind := range kinds {
		var f analysis.Finding
		switch {
		case kind == analysis.DecisionParametric && req.Paired:
			f, err = e.tester.PairedTTest(req.X, req.Y, analysis.TwoSided)
		case kind == analysis.DecisionParametric:
			f, err = e.tester.WelchTTest(req.X, req.Y, analysis.TwoSided)
		case req.Paired:
			f, err = e.pairedSignedRank(req.X, req.Y)
		default:
			f, err = e.rankSum(req.X, req.Y)
		}
		if err != nil {
			return nil, err
		}
		f.Significant = f.PValue <= out.Alpha
		out.Findings = append(out.Findings, f)
	}
	return out, nil
}

func (e *Engine) pairedSignedRank(x, y []float64) (analysis.Finding, error) {
	f, err := e.tester.PairedSignedRank(x, y, analysis.TwoSided)
	if err != nil {
		return f, err
	}
	d := make([]float64, len(x))
	for i := range x {
		d[i] = x[i] - y[i]
	}
	ci, err := e.estimator.SignRankCI(d)
	if err != nil {
		return f, err
	}
	f.Interval = &ci
	return f, nil
}

func (e *Engine) rankSum(x, y []float64) (analysis.Finding, error) {
	f, err := e.tester.RankSum(x, y, analysis.TwoSided)
	if err != nil {
		return f, err
	}
	ci, err := e.estimator.RankSumCI(x, y)
	if err != nil {
		return f, err
	}
	f.Interval = &ci
	return f, nil
}

// Correlate reports Pearson (parametric) or Spearman (nonparametric)
// correlation with its interval.
func (e *Engine) Correlate(req analysis.Request) (*analysis.Outcome, error) {
	const stage = "engine.correlate"
	out, err := e.newOutcome(stage, req)
	if err != nil {
		return nil, err
	}
	kinds, decision, err := e.variants(stage, req.Mode, namedSample{"x", req.X}, namedSample{"y", req.Y})
	if err != nil {
		return nil, err
	}
	out.Decision = decision
	out.Paired = true

	for _, kind := range kinds {
		var f analysis.Finding
		if kind == analysis.DecisionParametric {
			f, err = e.tester.Pearson(req.X, req.Y)
		} else {
			f, err = e.tester.Spearman(req.X, req.Y)
		}
		if err != nil {
			return nil, err
		}
		f.Significant = f.PValue <= out.Alpha
		out.Findings = append(out.Findings, f)
	}
	out.Figure = &analysis.FigureSpec{
		Kind:  analysis.FigureScatter,
		Title: out.Label,
		X:     append([]float64(nil), req.X...),
		Y:     append([]float64(nil), req.Y...),
	}
	return out, nil
}

// NonInferiority tests whether Y stays above the threshold X - X·margin
// (alternative less on threshold - Y).
func (e *Engine) NonInferiority(req analysis.Request) (*analysis.Outcome, error) {
	return e.marginTest("engine.non_inferiority", analysis.FamilyNonInferiority, req)
}

// NonSuperiority tests whether Y stays below the threshold X + X·margin
// (alternative greater on threshold - Y).
func (e *Engine) NonSuperiority(req analysis.Request) (*analysis.Outcome, error) {
	return e.marginTest("engine.non_superiority", analysis.FamilyNonSuperiority, req)
}

func (e *Engine) marginTest(stage string, family analysis.Family, req analysis.Request) (*analysis.Outcome, error) {
	req.Family = family
	out, err := e.newOutcome(stage, req)
	if err != nil {
		return nil, err
	}
	margin := req.Params.RelativeMargin
	if !(margin > 0) || math.IsInf(margin, 0) {
		return nil, errors.Parameter(stage, "relative margin must be positive", errors.Inputs{"relative_margin": margin})
	}

	methods, decision, err := e.marginMethods(stage, family, req.Mode, req.Params.Method,
		namedSample{"x", req.X}, namedSample{"y", req.Y})
	if err != nil {
		return nil, err
	}
	out.Decision = decision
	out.Paired = true
	out.Margin = &analysis.MarginSection{RelativeMargin: margin, Alpha: out.Alpha, Method: req.Params.Method}

	alt, sign := analysis.Less, -1.0
	if family == analysis.FamilyNonSuperiority {
		alt, sign = analysis.Greater, 1.0
	}
	threshold := make([]float64, len(req.X))
	for i, v := range req.X {
		threshold[i] = v + sign*v*margin
	}

	for _, m := range methods {
		var f analysis.Finding
		switch m {
		case analysis.MethodTTest:
			f, err = e.tester.PairedTTest(threshold, req.Y, alt)
		case analysis.MethodWilcoxon:
			f, err = e.tester.PairedSignedRank(threshold, req.Y, alt)
		case analysis.MethodWilcoxonAbs:
			f, err = e.tester.AbsoluteSignedRank(req.X, req.Y, margin)
		default:
			err = errors.Parameter(stage, "unsupported method", errors.Inputs{"method": string(m)})
		}
		if err != nil {
			return nil, err
		}
		f.Significant = f.PValue <= out.Alpha
		e.logger.Debug("%s: %s p=%.4g significant=%t", stage, f.Procedure, f.PValue, f.Significant)
		out.Findings = append(out.Findings, f)
	}
	return out, nil
}

// RelativeDifference estimates the location of the relative differences
// between X and Y with a t interval or a Hodges-Lehmann interval
// (continuity corrected on request).
func (e *Engine) RelativeDifference(req analysis.Request) (*analysis.Outcome, error) {
	const stage = "engine.relative_difference"
	out, err := e.newOutcome(stage, req)
	if err != nil {
		return nil, err
	}
	kind, err := analysis.ParseRelativeKind(string(req.Params.Relative))
	if err != nil {
		return nil, errors.ParameterCause(stage, err, errors.Inputs{"relative": string(req.Params.Relative)})
	}
	r, err := estimate.RelativeDifferences(req.X, req.Y, kind)
	if err != nil {
		return nil, err
	}
	kinds, decision, err := e.variants(stage, req.Mode, namedSample{"relative difference", r})
	if err != nil {
		return nil, err
	}
	out.Decision = decision
	out.Paired = true
	out.Relative = kind

	for _, k := range kinds {
		var (
			ci   analysis.ConfidenceInterval
			proc analysis.Procedure
		)
		switch {
		case k == analysis.DecisionParametric:
			proc = analysis.ProcRelativeNormal
			ci, err = e.estimator.NormalCI(r)
		case req.Params.ContinuityCorrection:
			proc = analysis.ProcRelativeSignedRank
			ci, err = e.estimator.SignRankCICorrected(r)
		default:
			proc = analysis.ProcRelativeSignedRank
			ci, err = e.estimator.SignRankCI(r)
		}
		if err != nil {
			return nil, err
		}
		f := emptyFinding(proc, k, len(r))
		f.Interval = &ci
		out.Findings = append(out.Findings, f)
	}

	first := out.Findings[0].Interval
	out.Figure = &analysis.FigureSpec{
		Kind:  analysis.FigureInterval,
		Title: out.Label,
		X:     r,
		Lines: map[string]float64{"estimate": first.Estimate, "lower": first.Lower, "upper": first.Upper},
	}
	return out, nil
}

// Agreement runs a Bland-Altman analysis of X against Y.
func (e *Engine) Agreement(req analysis.Request) (*analysis.Outcome, error) {
	const stage = "engine.agreement"
	out, err := e.newOutcome(stage, req)
	if err != nil {
		return nil, err
	}
	ba, err := agreement.BlandAltman(req.X, req.Y)
	if err != nil {
		return nil, err
	}
	d, err := agreement.Differences(req.X, req.Y)
	if err != nil {
		return nil, err
	}
	out.Paired = true
	out.Agreement = &ba
	out.Figure = &analysis.FigureSpec{
		Kind:   analysis.FigureBlandAltman,
		Title:  out.Label,
		X:      agreement.Means(req.X, req.Y),
		Y:      d,
		Lines:  map[string]float64{"bias": ba.Bias, "lower_limit": ba.LowerLimit, "upper_limit": ba.UpperLimit},
		XLabel: "Mean of raters",
		YLabel: "Difference between raters",
	}
	return out, nil
}

// SampleSize computes the non-inferiority sample size. The CV comes from
// Params.CV or, when unset, from the within-subject CV of X and Y.
func (e *Engine) SampleSize(req analysis.Request) (*analysis.Outcome, error) {
	const stage = "engine.sample_size"
	p := power.DefaultSampleSizeParams()
	if req.Params.Alpha != 0 {
		p.Alpha = req.Params.Alpha
	}
	if req.Params.TargetPower != 0 {
		p.TargetPower = req.Params.TargetPower
	}
	if req.Params.Steps != 0 {
		p.Steps = req.Params.Steps
	}
	if req.Params.BK != 0 {
		p.BK = req.Params.BK
	}
	p.Theta0, p.Margin = req.Params.Theta0, req.Params.Margin

	switch {
	case req.Params.CV != 0:
		p.CV = req.Params.CV
	case len(req.X) > 0 || len(req.Y) > 0:
		cv, err := agreement.WithinSubjectCV(req.X, req.Y)
		if err != nil {
			return nil, err
		}
		p.CV = cv
	default:
		return nil, errors.Parameter(stage, "cv or paired samples required", nil)
	}

	req.Params.Alpha = p.Alpha
	out, err := e.newOutcome(stage, req)
	if err != nil {
		return nil, err
	}
	size, err := power.NonInferioritySampleSize(p)
	if err != nil {
		return nil, err
	}
	out.SampleSize = &size
	out.Findings = []analysis.Finding{}
	return out, nil
}

func emptyFinding(proc analysis.Procedure, kind analysis.Decision, n int) analysis.Finding {
	return analysis.Finding{
		Procedure: proc,
		Kind:      kind,
		N:         n,
		Statistic: math.NaN(),
		DF:        math.NaN(),
		PValue:    math.NaN(),
	}
}
