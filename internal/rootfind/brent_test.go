package rootfind

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"statsmed/domain/core"
)

func TestBrent_SmoothFunctions(t *testing.T) {
	opt := Options{XTol: 1e-12, RTol: 4 * 0x1p-52, MaxIter: 100}

	tests := []struct {
		name string
		f    func(float64) float64
		a, b float64
		want float64
	}{
		{"sqrt2", func(x float64) float64 { return x*x - 2 }, 0, 2, math.Sqrt2},
		{"cubic", func(x float64) float64 { return x*x*x - x - 2 }, 1, 2, 1.5213797068045676},
		{"cosine", math.Cos, 0, 3, math.Pi / 2},
		{"exp", func(x float64) float64 { return math.Exp(x) - 10 }, 0, 5, math.Log(10)},
		{"reversed bracket", func(x float64) float64 { return x - 0.25 }, 1, -1, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Brent(tt.f, tt.a, tt.b, opt)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, res.Root, 1e-10)
			assert.LessOrEqual(t, res.Iterations, opt.MaxIter)
		})
	}
}

func TestBrent_RootAtBracketEnd(t *testing.T) {
	res, err := Brent(func(x float64) float64 { return x - 1 }, 1, 3, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Root)
}

func TestBrent_StepFunction(t *testing.T) {
	step := func(x float64) float64 {
		if x < 0.3 {
			return -1
		}
		return 1
	}
	res, err := Brent(step, 0, 1, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 0.3, res.Root, 1e-4)
}

func TestBrent_Errors(t *testing.T) {
	_, err := Brent(func(x float64) float64 { return x*x + 1 }, -1, 1, DefaultOptions())
	require.Error(t, err)
	assert.True(t, core.IsRootFindingError(err))
	assert.ErrorIs(t, err, core.ErrNoSignChange)

	_, err = Brent(func(x float64) float64 { return x }, 2, 2, DefaultOptions())
	assert.ErrorIs(t, err, core.ErrNoSignChange)

	_, err = Brent(func(x float64) float64 { return math.NaN() }, 0, 1, DefaultOptions())
	assert.ErrorIs(t, err, core.ErrNotConverged)

	_, err = Brent(func(x float64) float64 { return x - 0.123456 }, 0, 1, Options{XTol: 1e-15, MaxIter: 1})
	assert.ErrorIs(t, err, core.ErrNotConverged)
}

func TestBrent_LinearRootsProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		root := rapid.Float64Range(-100, 100).Draw(rt, "root")
		slope := rapid.Float64Range(0.1, 10).Draw(rt, "slope")
		f := func(x float64) float64 { return slope * (x - root) }

		res, err := Brent(f, root-50, root+70, Options{XTol: 1e-9, MaxIter: 100})
		if err != nil {
			rt.Fatalf("brent: %v", err)
		}
		if math.Abs(res.Root-root) > 1e-6 {
			rt.Fatalf("root %v, want %v", res.Root, root)
		}
	})
}
