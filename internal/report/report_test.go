package report

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statsmed/domain/analysis"
	"statsmed/domain/core"
)

func TestFormatPValue(t *testing.T) {
	tests := []struct {
		p         float64
		precision int
		want      string
	}{
		{0.5, 3, "p = 0.5"},
		{0.049, 3, "p = 0.049"},
		{0.0001, 3, "p < 0.001"},
		{1, 3, "p = 1"},
		{0.06, 3, "p = 0.06"},
		{0.0649, 3, "p = 0.06"},
		{0.0599, 3, "p = 0.06"},
		{0.0551, 3, "p = 0.055"},
		{0.05, 3, "p = 0.05"},
		{0.05, 4, "p = 0.05"},
		{0.01234, 4, "p = 0.0123"},
		{0.001, 3, "p = 0.001"},
		{0.00099, 3, "p < 0.001"},
		{0, 2, "p < 0.01"},
		{0.03, 1, "p < 0.1"},
	}
	for _, tt := range tests {
		got, err := FormatPValue(tt.p, tt.precision)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "p=%v precision=%d", tt.p, tt.precision)
	}
}

func TestFormatPValue_Errors(t *testing.T) {
	_, err := FormatPValue(math.NaN(), 3)
	assert.True(t, core.IsDomainError(err))

	_, err = FormatPValue(1.5, 3)
	assert.True(t, core.IsDomainError(err))

	_, err = FormatPValue(0.5, 0)
	assert.True(t, core.IsParameterError(err))
}

func nonInferiorityOutcome(p float64) *analysis.Outcome {
	return &analysis.Outcome{
		Family:    analysis.FamilyNonInferiority,
		Mode:      analysis.ModeParametric,
		Paired:    true,
		Alpha:     0.05,
		Precision: 3,
		Margin:    &analysis.MarginSection{RelativeMargin: 0.1, Alpha: 0.05, Method: analysis.MethodTTest},
		Findings: []analysis.Finding{{
			Procedure:     analysis.ProcPairedTTest,
			Kind:          analysis.DecisionParametric,
			N:             3,
			StatisticName: "t",
			Statistic:     math.Inf(-1),
			DF:            2,
			PValue:        p,
			Alternative:   analysis.Less,
			Significant:   p <= 0.05,
		}},
	}
}

func TestRender_NonInferiority(t *testing.T) {
	f := NewFormatter(0)
	r, err := f.Render(nonInferiorityOutcome(0))
	require.NoError(t, err)

	assert.Equal(t, "Non-inferiority test", r.Label)
	assert.Contains(t, r.Description, "paired")
	assert.Contains(t, r.Body, "## Paired t-test")
	assert.Contains(t, r.Body, "t = -Inf, df = 2.000, p < 0.001 (one-sided, less)")
	assert.Contains(t, r.Body, "Significant: Yes")
	assert.Contains(t, r.Body, "Conclusion: Non-inferiority established")

	r, err = f.Render(nonInferiorityOutcome(0.2))
	require.NoError(t, err)
	assert.Contains(t, r.Body, "Significant: No")
	assert.Contains(t, r.Body, "Conclusion: Non-inferiority NOT established")
}

func TestRender_Deterministic(t *testing.T) {
	f := NewFormatter(3)
	a, err := f.Render(nonInferiorityOutcome(0.01))
	require.NoError(t, err)
	b, err := f.Render(nonInferiorityOutcome(0.01))
	require.NoError(t, err)

	assert.Equal(t, a.Body, b.Body)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRender_Decision(t *testing.T) {
	o := &analysis.Outcome{
		Family: analysis.FamilyComparison,
		Mode:   analysis.ModeAuto,
		Decision: &analysis.TestDecision{
			Decision: analysis.DecisionNonparametric,
			Assessments: []analysis.Assessment{
				{Sample: "x", N: 5, ShapiroW: 0.98676, ShapiroP: 0.96717, KSD: 0.136455, KSP: 0.999, Decision: analysis.DecisionParametric},
				{Sample: "y", N: 3, ShapiroW: math.NaN(), ShapiroP: math.NaN(), KSD: math.NaN(), KSP: math.NaN(),
					Decision: analysis.DecisionNonparametric, Note: "zero variance"},
			},
		},
		Findings: []analysis.Finding{{
			Procedure:     analysis.ProcWilcoxonRankSum,
			Kind:          analysis.DecisionNonparametric,
			N:             8,
			StatisticName: "W",
			Statistic:     0,
			DF:            math.NaN(),
			PValue:        2.0 / 35,
			Alternative:   analysis.TwoSided,
			Exact:         true,
			Interval:      &analysis.ConfidenceInterval{Estimate: -5, Lower: -8, Upper: -2, Level: 0.95, Method: analysis.CIRankSum},
		}},
	}

	r, err := NewFormatter(3).Render(o)
	require.NoError(t, err)
	assert.Equal(t, "Two-sample comparison, mode auto, nonparametric procedures selected", r.Description)
	assert.Contains(t, r.Body, "- x (n = 5): Shapiro-Wilk W = 0.987, p = 0.97; Kolmogorov-Smirnov D = 0.136, p = 1; parametric")
	assert.Contains(t, r.Body, "- y (n = 3): zero variance, treated as nonparametric")
	assert.Contains(t, r.Body, "Decision: NONPARAMETRIC")
	assert.Contains(t, r.Body, "W = 0.000, p = 0.057 (exact)")
	assert.Contains(t, r.Body, "Estimate: -5.000, 95% CI [-8.000, -2.000] (rank-sum)")
	assert.True(t, strings.HasSuffix(r.Body, "\n"))
	assert.False(t, strings.HasSuffix(r.Body, "\n\n"))
}

func TestRender_Sections(t *testing.T) {
	o := &analysis.Outcome{
		Family: analysis.FamilyAgreement,
		Label:  "Rater A vs B",
		Agreement: &analysis.AgreementSection{
			N: 8, Bias: 0.0375, SD: 0.32,
			LowerLimit: -0.59, UpperLimit: 0.67,
			BiasCI:          analysis.ConfidenceInterval{Lower: -0.23, Upper: 0.31},
			LowerLimitCI:    analysis.ConfidenceInterval{Lower: -1.05, Upper: -0.13},
			UpperLimitCI:    analysis.ConfidenceInterval{Lower: 0.2, Upper: 1.13},
			WithinSubjectCV: math.NaN(),
		},
		SampleSize: &analysis.SampleSizeSection{N: 30, Power: 0.8014, TargetPower: 0.8, Alpha: 0.025, CV: 0.2, Theta0: 0.05, Margin: 0.2, Steps: 2},
	}
	r, err := NewFormatter(2).Render(o)
	require.NoError(t, err)

	assert.Equal(t, "Rater A vs B", r.Label)
	assert.Equal(t, "Method agreement", r.Description)
	assert.Contains(t, r.Body, "Bias: 0.04, 95% CI [-0.23, 0.31]")
	assert.Contains(t, r.Body, "Within-subject CV: n/a")
	assert.Contains(t, r.Body, "Required n = 30 (steps of 2)")
	assert.Contains(t, r.Body, "Achieved power: 0.80 (target 0.8)")
}

func TestRender_Errors(t *testing.T) {
	_, err := NewFormatter(3).Render(nil)
	assert.True(t, core.IsParameterError(err))

	o := nonInferiorityOutcome(1.2)
	_, err = NewFormatter(3).Render(o)
	assert.True(t, core.IsDomainError(err))
}

func TestConclusion(t *testing.T) {
	assert.Equal(t, "Non-superiority established", Conclusion(analysis.FamilyNonSuperiority, true))
	assert.Equal(t, "Non-superiority NOT established", Conclusion(analysis.FamilyNonSuperiority, false))
	assert.Equal(t, "Non-inferiority NOT established", Conclusion(analysis.FamilyNonInferiority, false))
}

func TestRenderHTML(t *testing.T) {
	r, err := NewFormatter(3).Render(nonInferiorityOutcome(0))
	require.NoError(t, err)

	out := string(RenderHTML(r))
	assert.Contains(t, out, "<h1>Non-inferiority test</h1>")
	assert.Contains(t, out, "<h2")
	assert.Contains(t, out, "Paired t-test</h2>")
	assert.Nil(t, RenderHTML(nil))
}
