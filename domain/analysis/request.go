package analysis

import (
	"fmt"
	"strings"

	"statsmed/domain/core"
)

// MethodKey selects the procedure of a margin test explicitly.
type MethodKey string

const (
	MethodUnset       MethodKey = ""
	MethodTTest       MethodKey = "ttest"
	MethodWilcoxon    MethodKey = "wilcoxon"
	MethodWilcoxonAbs MethodKey = "wilcoxon_abs"
)

// ParseMethodKey accepts "", ttest, wilcoxon and wilcoxon_abs.
func ParseMethodKey(s string) (MethodKey, error) {
	switch k := MethodKey(strings.ToLower(strings.TrimSpace(s))); k {
	case MethodUnset, MethodTTest, MethodWilcoxon, MethodWilcoxonAbs:
		return k, nil
	default:
		return MethodUnset, fmt.Errorf("method %q: %w", s, core.ErrUnknownMethod)
	}
}

// Kind returns the decision class of the method.
func (k MethodKey) Kind() Decision {
	if k == MethodTTest {
		return DecisionParametric
	}
	return DecisionNonparametric
}

// RelativeKind selects the relative difference transform.
type RelativeKind string

const (
	RelativeSigned   RelativeKind = "signed"
	RelativeAbsolute RelativeKind = "absolute"
	RelativeSquared  RelativeKind = "squared"
)

func ParseRelativeKind(s string) (RelativeKind, error) {
	switch k := RelativeKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return RelativeSigned, nil
	case RelativeSigned, RelativeAbsolute, RelativeSquared:
		return k, nil
	default:
		return "", fmt.Errorf("relative difference kind %q: %w", s, core.ErrUnknownMethod)
	}
}

// Params carries the method-specific scalars of a request. Zero values
// fall back to the engine configuration.
type Params struct {
	Alpha                float64
	Precision            int
	Method               MethodKey
	RelativeMargin       float64
	ContinuityCorrection bool
	Relative             RelativeKind

	// sample size
	CV          float64
	Theta0      float64
	Margin      float64
	TargetPower float64
	Steps       int
	BK          float64
}

// Request is one analysis invocation.
type Request struct {
	Family Family
	Mode   Mode
	Label  string
	X      Sample
	Y      Sample
	Paired bool
	Params Params
}
