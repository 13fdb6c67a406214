package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statsmed/domain/core"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"auto", ModeAuto},
		{"ALL", ModeAll},
		{"parametric", ModeParametric},
		{"force_nonparametric", ModeNonparametric},
		{" np ", ModeNonparametric},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseMode("automatic")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnknownMode)
	assert.True(t, core.IsParameterError(err))
}

func TestMode_StringRoundTrip(t *testing.T) {
	for m := ModeAuto; m <= ModeNonparametric; m++ {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	assert.False(t, Mode(42).Valid())
	assert.Equal(t, "Mode(42)", Mode(42).String())
}

func TestParseFamily(t *testing.T) {
	for _, f := range Families() {
		got, err := ParseFamily(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFamily("regression")
	assert.ErrorIs(t, err, core.ErrUnknownFamily)
}

func TestParseMethodKey(t *testing.T) {
	k, err := ParseMethodKey("Wilcoxon_Abs")
	require.NoError(t, err)
	assert.Equal(t, MethodWilcoxonAbs, k)
	assert.Equal(t, DecisionNonparametric, k.Kind())
	assert.Equal(t, DecisionParametric, MethodTTest.Kind())

	_, err = ParseMethodKey("sign_test")
	assert.ErrorIs(t, err, core.ErrUnknownMethod)
}

func TestValidateSample(t *testing.T) {
	assert.NoError(t, ValidateSample("x", []float64{1, 2, 3}, 2))
	assert.ErrorIs(t, ValidateSample("x", nil, 1), core.ErrEmptySample)
	assert.ErrorIs(t, ValidateSample("x", []float64{1}, 2), core.ErrSampleTooSmall)

	err := ValidateSample("y", []float64{1, math.NaN(), 3}, 1)
	require.ErrorIs(t, err, core.ErrNonFinite)
	assert.Contains(t, err.Error(), "index 1")
	assert.True(t, core.IsDomainError(err))
}

func TestConfidenceInterval_Valid(t *testing.T) {
	assert.True(t, ConfidenceInterval{Estimate: 1, Lower: 0, Upper: 2}.Valid())
	assert.False(t, ConfidenceInterval{Estimate: 3, Lower: 0, Upper: 2}.Valid())
	assert.False(t, ConfidenceInterval{Estimate: math.NaN(), Lower: 0, Upper: 2}.Valid())
	assert.True(t, ConfidenceInterval{Estimate: math.NaN(), Lower: math.NaN(), Upper: math.NaN(), Degenerate: true}.Valid())
}
