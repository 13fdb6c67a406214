package engine

import (
	"statsmed/domain/analysis"
	"statsmed/domain/core"
	"statsmed/internal/errors"
)

// namedSample is a sample entering the normality assessment.
type namedSample struct {
	name   string
	values []float64
}

// variants returns the procedure kinds to run for mode. AUTO assesses every
// sample and goes nonparametric as soon as one of them is; the combined
// decision is returned for the report.
func (e *Engine) variants(stage string, mode analysis.Mode, samples ...namedSample) ([]analysis.Decision, *analysis.TestDecision, error) {
	switch mode {
	case analysis.ModeAuto:
		assessments := make([]analysis.Assessment, 0, len(samples))
		for _, s := range samples {
			as, err := e.assessor.Assess(s.name, s.values)
			if err != nil {
				return nil, nil, err
			}
			assessments = append(assessments, as)
		}
		decision := e.assessor.Decide(assessments...)
		e.metrics.RecordDecision(string(decision.Decision))
		e.logger.Debug("%s: AUTO decided %s over %d sample(s)", stage, decision.Decision, len(samples))
		return []analysis.Decision{decision.Decision}, &decision, nil
	case analysis.ModeAll:
		return []analysis.Decision{analysis.DecisionParametric, analysis.DecisionNonparametric}, nil, nil
	case analysis.ModeParametric:
		return []analysis.Decision{analysis.DecisionParametric}, nil, nil
	case analysis.ModeNonparametric:
		return []analysis.Decision{analysis.DecisionNonparametric}, nil, nil
	default:
		return nil, nil, errors.ParameterCause(stage, core.ErrUnknownMode, errors.Inputs{"mode": int(mode)})
	}
}

// marginMethods resolves the procedures of a margin test. An explicit
// method key wins over the mode but must not contradict a forced mode;
// the absolute-deviation variant only exists for non-superiority.
func (e *Engine) marginMethods(stage string, family analysis.Family, mode analysis.Mode, key analysis.MethodKey, samples ...namedSample) ([]analysis.MethodKey, *analysis.TestDecision, error) {
	if _, err := analysis.ParseMethodKey(string(key)); err != nil {
		return nil, nil, errors.ParameterCause(stage, err, errors.Inputs{"method": string(key)})
	}
	if key == analysis.MethodWilcoxonAbs && family != analysis.FamilyNonSuperiority {
		return nil, nil, errors.Parameter(stage, "wilcoxon_abs is only defined for non-superiority", errors.Inputs{"method": string(key), "family": string(family)})
	}

	if key != analysis.MethodUnset {
		switch mode {
		case analysis.ModeAuto, analysis.ModeAll:
		case analysis.ModeParametric, analysis.ModeNonparametric:
			if (mode == analysis.ModeParametric) != (key.Kind() == analysis.DecisionParametric) {
				return nil, nil, errors.Parameter(stage, "method contradicts the forced mode", errors.Inputs{"method": string(key), "mode": mode.String()})
			}
		default:
			return nil, nil, errors.ParameterCause(stage, core.ErrUnknownMode, errors.Inputs{"mode": int(mode)})
		}
		return []analysis.MethodKey{key}, nil, nil
	}

	kinds, decision, err := e.variants(stage, mode, samples...)
	if err != nil {
		return nil, nil, err
	}
	methods := make([]analysis.MethodKey, 0, len(kinds))
	for _, k := range kinds {
		if k == analysis.DecisionParametric {
			methods = append(methods, analysis.MethodTTest)
		} else {
			methods = append(methods, analysis.MethodWilcoxon)
		}
	}
	return methods, decision, nil
}
