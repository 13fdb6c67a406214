// Package rootfind finds roots of scalar functions on a bracket.
package rootfind

import (
	"math"

	"statsmed/domain/core"
	"statsmed/internal/errors"
)

// Options controls convergence. The root is accepted once the bracket is
// narrower than XTol + RTol*|x|.
type Options struct {
	XTol    float64
	RTol    float64
	MaxIter int
}

// DefaultOptions returns XTol 1e-4, RTol 4 epsilon and 100 iterations.
func DefaultOptions() Options {
	return Options{
		XTol:    1e-4,
		RTol:    4 * 0x1p-52,
		MaxIter: 100,
	}
}

// Result is a located root.
type Result struct {
	Root       float64
	Iterations int
	Calls      int
}

// Brent finds a root of f in [a, b] with Brent's method: inverse quadratic
// interpolation or secant steps while they shrink the bracket fast enough,
// bisection otherwise. f(a) and f(b) must differ in sign. All state lives
// in the call.
func Brent(f func(float64) float64, a, b float64, opt Options) (Result, error) {
	const stage = "rootfind.brent"
	inputs := errors.Inputs{"a": a, "b": b}

	if opt.MaxIter <= 0 {
		opt.MaxIter = DefaultOptions().MaxIter
	}
	if opt.XTol <= 0 {
		opt.XTol = DefaultOptions().XTol
	}
	if opt.RTol < 0 {
		opt.RTol = DefaultOptions().RTol
	}
	if math.IsNaN(a) || math.IsNaN(b) || a == b {
		return Result{}, errors.RootFinding(stage, core.ErrNoSignChange, errors.Inputs{"a": a, "b": b, "reason": "degenerate bracket"})
	}

	xpre, xcur := a, b
	var xblk, fblk, spre, scur float64
	fpre, fcur := f(xpre), f(xcur)
	calls := 2

	if math.IsNaN(fpre) || math.IsNaN(fcur) {
		return Result{}, errors.RootFinding(stage, core.ErrNotConverged, errors.Inputs{"a": a, "b": b, "reason": "f is NaN at bracket end"})
	}
	if fpre == 0 {
		return Result{Root: xpre, Calls: calls}, nil
	}
	if fcur == 0 {
		return Result{Root: xcur, Calls: calls}, nil
	}
	if math.Signbit(fpre) == math.Signbit(fcur) {
		inputs["f(a)"] = fpre
		inputs["f(b)"] = fcur
		return Result{}, errors.RootFinding(stage, core.ErrNoSignChange, inputs)
	}

	for i := 0; i < opt.MaxIter; i++ {
		if fpre != 0 && fcur != 0 && math.Signbit(fpre) != math.Signbit(fcur) {
			xblk, fblk = xpre, fpre
			spre = xcur - xpre
			scur = spre
		}
		if math.Abs(fblk) < math.Abs(fcur) {
			xpre, xcur, xblk = xcur, xblk, xcur
			fpre, fcur, fblk = fcur, fblk, fcur
		}

		delta := (opt.XTol + opt.RTol*math.Abs(xcur)) / 2
		sbis := (xblk - xcur) / 2
		if fcur == 0 || math.Abs(sbis) < delta {
			return Result{Root: xcur, Iterations: i, Calls: calls}, nil
		}

		if math.Abs(spre) > delta && math.Abs(fcur) < math.Abs(fpre) {
			var stry float64
			if xpre == xblk {
				// secant
				stry = -fcur * (xcur - xpre) / (fcur - fpre)
			} else {
				// inverse quadratic
				dpre := (fpre - fcur) / (xpre - xcur)
				dblk := (fblk - fcur) / (xblk - xcur)
				stry = -fcur * (fblk*dblk - fpre*dpre) / (dblk * dpre * (fblk - fpre))
			}
			if 2*math.Abs(stry) < math.Min(math.Abs(spre), 3*math.Abs(sbis)-delta) {
				spre, scur = scur, stry
			} else {
				spre, scur = sbis, sbis
			}
		} else {
			spre, scur = sbis, sbis
		}

		xpre, fpre = xcur, fcur
		if math.Abs(scur) > delta {
			xcur += scur
		} else if sbis > 0 {
			xcur += delta
		} else {
			xcur -= delta
		}
		fcur = f(xcur)
		calls++
		if math.IsNaN(fcur) {
			inputs["x"] = xcur
			return Result{}, errors.RootFinding(stage, core.ErrNotConverged, inputs)
		}
	}

	inputs["iterations"] = opt.MaxIter
	inputs["x"] = xcur
	return Result{}, errors.RootFinding(stage, core.ErrNotConverged, inputs)
}
