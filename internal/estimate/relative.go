package estimate

import (
	"statsmed/domain/analysis"
	"statsmed/domain/core"
	"statsmed/internal/errors"
)

// RelativeDifferences transforms paired measurements into relative
// differences against the reference x: signed (x-y)/x, absolute |x-y|/x or
// squared (x-y)²/x².
func RelativeDifferences(x, y []float64, kind analysis.RelativeKind) ([]float64, error) {
	const stage = "estimate.relative_differences"
	if err := analysis.ValidateSample("x", x, 1); err != nil {
		return nil, errors.DomainCause(stage, err, errors.Inputs{"n": len(x)})
	}
	if err := analysis.ValidateSample("y", y, 1); err != nil {
		return nil, errors.DomainCause(stage, err, errors.Inputs{"n": len(y)})
	}
	if len(x) != len(y) {
		return nil, errors.DomainCause(stage, core.ErrLengthMismatch, errors.Inputs{"n_x": len(x), "n_y": len(y)})
	}

	out := make([]float64, len(x))
	for i := range x {
		if x[i] == 0 {
			return nil, errors.Domain(stage, "reference value is zero", errors.Inputs{"index": i})
		}
		d := x[i] - y[i]
		switch kind {
		case analysis.RelativeSigned, "":
			out[i] = d / x[i]
		case analysis.RelativeAbsolute:
			if d < 0 {
				d = -d
			}
			out[i] = d / x[i]
		case analysis.RelativeSquared:
			out[i] = d * d / (x[i] * x[i])
		default:
			return nil, errors.ParameterCause(stage, core.ErrUnknownMethod, errors.Inputs{"kind": string(kind)})
		}
	}
	return out, nil
}
