package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"statsmed/domain/analysis"
	"statsmed/domain/core"
	"statsmed/internal/rankdist"
)

func newTestEstimator() *Estimator {
	return NewEstimator(rankdist.NewDistributions(rankdist.NewCache()))
}

func TestNormalCI_Symmetric(t *testing.T) {
	e := newTestEstimator()
	ci, err := e.NormalCI([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	assert.InDelta(t, 3.0, ci.Estimate, 1e-12)
	assert.InDelta(t, ci.Estimate-ci.Lower, ci.Upper-ci.Estimate, 1e-12)
	assert.InDelta(t, 1.036757, ci.Lower, 1e-5)
	assert.InDelta(t, 4.963243, ci.Upper, 1e-5)
	assert.Equal(t, analysis.CINormalTheory, ci.Method)
	assert.True(t, ci.Valid())
}

func TestNormalCI_TooSmall(t *testing.T) {
	e := newTestEstimator()
	_, err := e.NormalCI([]float64{1})
	require.Error(t, err)
	assert.True(t, core.IsDomainError(err))
	assert.ErrorIs(t, err, core.ErrSampleTooSmall)
}

func TestSignRankCI(t *testing.T) {
	e := newTestEstimator()
	ci, err := e.SignRankCI([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	// qsignrank(0.025, 5) is 0, clamped to the first Walsh average.
	assert.Equal(t, 3.0, ci.Estimate)
	assert.Equal(t, 1.0, ci.Lower)
	assert.Equal(t, 5.0, ci.Upper)
	assert.Equal(t, analysis.CISignedRank, ci.Method)
}

func TestSignRankCI_TenObservations(t *testing.T) {
	e := newTestEstimator()
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	ci, err := e.SignRankCI(x)
	require.NoError(t, err)

	// qsignrank(0.025, 10) = 9: the 9th smallest and 9th largest of 55 averages.
	walsh := WalshAverages(x)
	assert.Equal(t, walsh[8], ci.Lower)
	assert.Equal(t, walsh[len(walsh)-9], ci.Upper)
	assert.Equal(t, 5.5, ci.Estimate)
}

func TestSignRankCI_OrderingProperty(t *testing.T) {
	e := newTestEstimator()
	rapid.Check(t, func(rt *rapid.T) {
		x := rapid.SliceOfN(rapid.Float64Range(-1000, 1000), 1, 30).Draw(rt, "x")
		ci, err := e.SignRankCI(x)
		if err != nil {
			rt.Fatalf("signrank ci: %v", err)
		}
		if !(ci.Lower <= ci.Estimate && ci.Estimate <= ci.Upper) {
			rt.Fatalf("unordered interval %+v", ci)
		}
	})
}

func TestRankSumCI(t *testing.T) {
	e := newTestEstimator()
	ci, err := e.RankSumCI([]float64{1, 2, 3, 4, 5}, []float64{6, 7, 8, 9, 10})
	require.NoError(t, err)

	assert.Equal(t, -5.0, ci.Estimate)
	assert.Equal(t, -8.0, ci.Lower)
	assert.Equal(t, -2.0, ci.Upper)
	assert.Equal(t, analysis.CIRankSum, ci.Method)
}

func TestRankSumCI_OrderingProperty(t *testing.T) {
	e := newTestEstimator()
	rapid.Check(t, func(rt *rapid.T) {
		x := rapid.SliceOfN(rapid.Float64Range(-50, 50), 1, 15).Draw(rt, "x")
		y := rapid.SliceOfN(rapid.Float64Range(-50, 50), 1, 15).Draw(rt, "y")
		ci, err := e.RankSumCI(x, y)
		if err != nil {
			rt.Fatalf("ranksum ci: %v", err)
		}
		if !ci.Valid() {
			rt.Fatalf("unordered interval %+v", ci)
		}
	})
}

func TestSignRankCICorrected_ContainsEstimate(t *testing.T) {
	e := newTestEstimator()
	x := []float64{1.2, 2.3, 3.1, 4.8, 5.5, 6.1, 7.9, 8.4, 9.0, 10.7, 11.3, 12.6}

	ci, err := e.SignRankCICorrected(x)
	require.NoError(t, err)
	assert.Equal(t, analysis.CISignedRankContinuityCorrected, ci.Method)
	assert.True(t, ci.Valid(), "%+v", ci)
	assert.Greater(t, ci.Upper, ci.Lower)

	exact, err := e.SignRankCI(x)
	require.NoError(t, err)
	assert.InDelta(t, exact.Estimate, ci.Estimate, 1.0)
}

func TestSignRankCICorrected_Failures(t *testing.T) {
	e := newTestEstimator()

	_, err := e.SignRankCICorrected([]float64{2, 2, 2})
	require.Error(t, err)
	assert.True(t, core.IsRootFindingError(err))

	// Three observations cannot reach the 97.5% normal quantile.
	_, err = e.SignRankCICorrected([]float64{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNoSignChange)
	assert.Contains(t, err.Error(), "estimate.signrank_ci_corrected")
}

func TestSignRankDeviation(t *testing.T) {
	x := []float64{-2, -1, 0, 1, 2}
	assert.Equal(t, 0.0, SignRankDeviation(x, 0))
	assert.Equal(t, 0.0, SignRankDeviation([]float64{3, 3}, 3))
	assert.Greater(t, SignRankDeviation(x, -10), 0.0)
	assert.Less(t, SignRankDeviation(x, 10), 0.0)
}

func TestRelativeDifferences(t *testing.T) {
	x := []float64{10, 20, 40}
	y := []float64{9, 22, 40}

	r, err := RelativeDifferences(x, y, analysis.RelativeSigned)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.1, -0.1, 0}, r, 1e-12)

	r, err = RelativeDifferences(x, y, analysis.RelativeAbsolute)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.1, 0.1, 0}, r, 1e-12)

	r, err = RelativeDifferences(x, y, analysis.RelativeSquared)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.01, 0.01, 0}, r, 1e-12)

	_, err = RelativeDifferences([]float64{0, 1}, []float64{1, 1}, analysis.RelativeSigned)
	assert.True(t, core.IsDomainError(err))

	_, err = RelativeDifferences([]float64{1, 2}, []float64{1}, analysis.RelativeSigned)
	assert.ErrorIs(t, err, core.ErrLengthMismatch)

	_, err = RelativeDifferences(x, y, analysis.RelativeKind("log"))
	assert.True(t, core.IsParameterError(err))
}
