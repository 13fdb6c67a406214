package hypotest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"statsmed/domain/analysis"
	"statsmed/domain/core"
	"statsmed/internal/testkit"
)

func TestOneSampleTTest(t *testing.T) {
	tester := NewTester(nil)
	f, err := tester.OneSampleTTest([]float64{1, 2, 3, 4, 5}, 0, analysis.TwoSided)
	require.NoError(t, err)

	assert.InDelta(t, 4.242641, f.Statistic, 1e-6)
	assert.Equal(t, 4.0, f.DF)
	assert.InDelta(t, 0.0132356, f.PValue, 1e-6)
	assert.Equal(t, analysis.DecisionParametric, f.Kind)
}

func TestPairedTTest(t *testing.T) {
	tester := NewTester(nil)
	x := []float64{5.1, 4.8, 6.0, 5.5, 5.9, 6.2}
	y := []float64{4.9, 4.7, 5.4, 5.6, 5.1, 5.8}

	f, err := tester.PairedTTest(x, y, analysis.TwoSided)
	require.NoError(t, err)
	assert.Equal(t, analysis.ProcPairedTTest, f.Procedure)
	assert.InDelta(t, 2.454403, f.Statistic, 1e-5)
	assert.InDelta(t, 0.0576236, f.PValue, 1e-5)

	greater, err := tester.PairedTTest(x, y, analysis.Greater)
	require.NoError(t, err)
	assert.InDelta(t, f.PValue/2, greater.PValue, 1e-9)
}

func TestPairedTTest_ConstantDifferences(t *testing.T) {
	tester := NewTester(nil)

	f, err := tester.PairedTTest([]float64{9, 9, 9}, []float64{9.5, 9.5, 9.5}, analysis.Less)
	require.NoError(t, err)
	assert.True(t, math.IsInf(f.Statistic, -1))
	assert.Equal(t, 0.0, f.PValue)

	_, err = tester.PairedTTest([]float64{1, 1, 1}, []float64{1, 1, 1}, analysis.Less)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrZeroVariance)
}

func TestPairedTTest_LengthMismatch(t *testing.T) {
	_, err := NewTester(nil).PairedTTest([]float64{1, 2, 3}, []float64{1, 2}, analysis.TwoSided)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrLengthMismatch)
	assert.True(t, core.IsDomainError(err))
}

func TestWelchTTest(t *testing.T) {
	tester := NewTester(nil)
	tests := []struct {
		name  string
		x, y  []float64
		t, df float64
		p     float64
	}{
		{"equal variances", []float64{1, 2, 3, 4, 5}, []float64{6, 7, 8, 9, 10}, -5, 8, 0.00105283},
		{"unequal variances", []float64{1, 2, 3, 4, 5, 6}, []float64{2, 4, 6, 8, 10}, -1.555428, 6.248375, 0.168892},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tester.WelchTTest(tt.x, tt.y, analysis.TwoSided)
			require.NoError(t, err)
			assert.InDelta(t, tt.t, f.Statistic, 1e-5)
			assert.InDelta(t, tt.df, f.DF, 1e-5)
			assert.InDelta(t, tt.p, f.PValue, 1e-5)
		})
	}

	_, err := tester.WelchTTest([]float64{2, 2}, []float64{3, 3}, analysis.TwoSided)
	assert.ErrorIs(t, err, core.ErrZeroVariance)
}

func TestSignedRank_Exact(t *testing.T) {
	tester := NewTester(nil)
	d := []float64{1.5, -0.5, 2.5, 3.5, 4.5}

	tests := []struct {
		alt analysis.Alternative
		p   float64
	}{
		{analysis.TwoSided, 0.125},
		{analysis.Greater, 0.0625},
		{analysis.Less, 0.96875},
	}
	for _, tt := range tests {
		t.Run(string(tt.alt), func(t *testing.T) {
			f, err := tester.SignedRank(d, tt.alt)
			require.NoError(t, err)
			assert.True(t, f.Exact)
			assert.Equal(t, 14.0, f.Statistic)
			assert.InDelta(t, tt.p, f.PValue, 1e-12)
		})
	}
}

func TestSignedRank_TiesUseNormalApproximation(t *testing.T) {
	tester := NewTester(nil)
	f, err := tester.PairedSignedRank([]float64{9, 9, 9}, []float64{9.5, 9.5, 9.5}, analysis.Less)
	require.NoError(t, err)

	assert.False(t, f.Exact)
	assert.Equal(t, 0.0, f.Statistic)
	// z = (0 - 3 + 0.5)/√3
	assert.InDelta(t, 0.0745, f.PValue, 1e-4)
	assert.Contains(t, f.Notes, "normal approximation with tie correction")
}

func TestSignedRank_Zeros(t *testing.T) {
	tester := NewTester(nil)
	f, err := tester.SignedRank([]float64{0, 1, 2, 3}, analysis.TwoSided)
	require.NoError(t, err)
	assert.False(t, f.Exact)
	assert.Equal(t, 3, f.N)
	assert.Contains(t, f.Notes, "zero differences dropped")

	_, err = tester.SignedRank([]float64{0, 0}, analysis.TwoSided)
	require.Error(t, err)
	assert.True(t, core.IsDomainError(err))
}

func TestRankSum(t *testing.T) {
	tester := NewTester(nil)

	f, err := tester.RankSum([]float64{1, 2, 3}, []float64{4, 5, 6, 7}, analysis.TwoSided)
	require.NoError(t, err)
	assert.True(t, f.Exact)
	assert.Equal(t, 0.0, f.Statistic)
	assert.InDelta(t, 2.0/35, f.PValue, 1e-12)

	f, err = tester.RankSum([]float64{1, 2, 2, 3, 4}, []float64{3, 4, 5, 5, 6, 7}, analysis.TwoSided)
	require.NoError(t, err)
	assert.False(t, f.Exact)
	assert.Equal(t, 2.0, f.Statistic)
	assert.InDelta(t, 0.0212669, f.PValue, 1e-6)

	_, err = tester.RankSum([]float64{4, 4}, []float64{4, 4}, analysis.TwoSided)
	assert.ErrorIs(t, err, core.ErrZeroVariance)
}

func TestRankSum_Properties(t *testing.T) {
	tester := NewTester(nil)
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		m := rapid.IntRange(1, 8).Draw(t, "m")
		n := rapid.IntRange(1, 8).Draw(t, "n")
		g := testkit.NewSampleGenerator(seed)
		x, y := g.Normal(m, 0, 1), g.Normal(n, 0.5, 1)

		f, err := tester.RankSum(x, y, analysis.TwoSided)
		require.NoError(t, err)
		if f.PValue < 0 || f.PValue > 1 {
			t.Fatalf("p-value %v out of range", f.PValue)
		}

		// Swapping the samples mirrors the statistic around mn/2.
		r, err := tester.RankSum(y, x, analysis.TwoSided)
		require.NoError(t, err)
		if math.Abs(f.Statistic+r.Statistic-float64(m*n)) > 1e-9 {
			t.Fatalf("W + W' = %v, want %d", f.Statistic+r.Statistic, m*n)
		}
		if math.Abs(f.PValue-r.PValue) > 1e-12 {
			t.Fatalf("two-sided p differs after swap: %v vs %v", f.PValue, r.PValue)
		}
	})
}

func TestAbsoluteSignedRank(t *testing.T) {
	tester := NewTester(nil)
	x := []float64{10, 12, 14, 16, 18, 20}
	y := []float64{10.1, 11.9, 14.2, 15.95, 18.3, 19.8}

	f, err := tester.AbsoluteSignedRank(x, y, 0.1)
	require.NoError(t, err)
	assert.Equal(t, analysis.ProcWilcoxonAbsolute, f.Procedure)
	assert.Equal(t, analysis.Greater, f.Alternative)
	// every deviation is inside the tolerance: all six ranks positive
	assert.Equal(t, 21.0, f.Statistic)
	assert.InDelta(t, 1.0/64, f.PValue, 1e-12)
}

func TestCorrelation(t *testing.T) {
	tester := NewTester(nil)
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	y := []float64{2, 1, 4, 3, 7, 8, 6, 5}

	p, err := tester.Pearson(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 0.738095, p.Statistic, 1e-6)
	assert.InDelta(t, 0.0365528, p.PValue, 1e-6)
	require.NotNil(t, p.Interval)
	assert.InDelta(t, 0.0696466, p.Interval.Lower, 1e-5)
	assert.InDelta(t, 0.9491173, p.Interval.Upper, 1e-5)

	s, err := tester.Spearman(x, y)
	require.NoError(t, err)
	assert.Equal(t, analysis.DecisionNonparametric, s.Kind)
	assert.InDelta(t, 0.738095, s.Statistic, 1e-6)
	assert.InDelta(t, -0.0424131, s.Interval.Lower, 1e-5)
	assert.InDelta(t, 0.9591358, s.Interval.Upper, 1e-5)
	assert.True(t, s.Interval.Valid())
}

func TestCorrelation_Errors(t *testing.T) {
	tester := NewTester(nil)

	_, err := tester.Pearson([]float64{1, 2, 3}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, core.ErrSampleTooSmall)

	_, err = tester.Spearman([]float64{1, 1, 1, 1}, []float64{1, 2, 3, 4})
	assert.ErrorIs(t, err, core.ErrZeroVariance)

	_, err = tester.Pearson([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, core.ErrLengthMismatch)
}

func TestCorrelation_Perfect(t *testing.T) {
	f, err := NewTester(nil).Pearson([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 6, 8, 10})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f.Statistic, 1e-12)
	assert.Less(t, f.PValue, 1e-10)
	assert.Contains(t, f.Notes, "perfect correlation")
}

func TestNormalPValue(t *testing.T) {
	d := NewDistributions()
	assert.InDelta(t, 0.05, d.NormalPValue(1.959964, analysis.TwoSided), 1e-6)
	assert.InDelta(t, 0.025, d.NormalPValue(1.959964, analysis.Greater), 1e-6)
	assert.InDelta(t, 0.975, d.NormalPValue(1.959964, analysis.Less), 1e-6)
	assert.True(t, math.IsNaN(d.NormalPValue(math.NaN(), analysis.TwoSided)))
}

func TestTTestIntervals(t *testing.T) {
	tester := NewTester(nil)

	f, err := tester.WelchTTest([]float64{1, 2, 3, 4, 5}, []float64{6, 7, 8, 9, 10}, analysis.TwoSided)
	require.NoError(t, err)
	require.NotNil(t, f.Interval)
	assert.Equal(t, -5.0, f.Interval.Estimate)
	assert.InDelta(t, -7.306004, f.Interval.Lower, 1e-5)
	assert.InDelta(t, -2.693996, f.Interval.Upper, 1e-5)

	f, err = tester.OneSampleTTest([]float64{1, 2, 3, 4, 5}, 0, analysis.TwoSided)
	require.NoError(t, err)
	assert.InDelta(t, 1.036757, f.Interval.Lower, 1e-5)
	assert.InDelta(t, 4.963243, f.Interval.Upper, 1e-5)
}
