package analysis

import (
	"fmt"
	"math"
	"strings"

	"statsmed/domain/core"
)

// Sample is an ordered sequence of finite measurements. Analyses never
// mutate a Sample; anything that sorts works on a copy.
type Sample []float64

// ValidateSample rejects samples shorter than min or holding NaN/Inf.
// The returned error wraps core.ErrEmptySample, core.ErrSampleTooSmall or
// core.ErrNonFinite.
func ValidateSample(name string, xs []float64, min int) error {
	if len(xs) == 0 {
		return fmt.Errorf("sample %s: %w", name, core.ErrEmptySample)
	}
	if len(xs) < min {
		return fmt.Errorf("sample %s has %d values, need at least %d: %w", name, len(xs), min, core.ErrSampleTooSmall)
	}
	for i, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("sample %s index %d is %v: %w", name, i, v, core.ErrNonFinite)
		}
	}
	return nil
}

// Clone returns an independent copy of the sample.
func (s Sample) Clone() Sample {
	out := make(Sample, len(s))
	copy(out, s)
	return out
}

// Mode selects how the engine picks between parametric and nonparametric
// procedures.
type Mode int

const (
	ModeAuto Mode = iota
	ModeAll
	ModeParametric
	ModeNonparametric
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeAll:
		return "all"
	case ModeParametric:
		return "parametric"
	case ModeNonparametric:
		return "nonparametric"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	return m >= ModeAuto && m <= ModeNonparametric
}

// ParseMode accepts the mode names case-insensitively, plus the
// force_parametric / force_nonparametric aliases used by older callers.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		return ModeAuto, nil
	case "all":
		return ModeAll, nil
	case "parametric", "force_parametric", "p":
		return ModeParametric, nil
	case "nonparametric", "force_nonparametric", "np":
		return ModeNonparametric, nil
	default:
		return ModeAuto, fmt.Errorf("mode %q: %w", s, core.ErrUnknownMode)
	}
}

// Family names an analysis family dispatched by the engine.
type Family string

const (
	FamilyNormality          Family = "normality"
	FamilyDescriptive        Family = "descriptive"
	FamilyComparison         Family = "comparison"
	FamilyCorrelation        Family = "correlation"
	FamilyNonInferiority     Family = "non_inferiority"
	FamilyNonSuperiority     Family = "non_superiority"
	FamilyRelativeDifference Family = "relative_difference"
	FamilyAgreement          Family = "agreement"
	FamilySampleSize         Family = "sample_size"
)

var families = []Family{
	FamilyNormality,
	FamilyDescriptive,
	FamilyComparison,
	FamilyCorrelation,
	FamilyNonInferiority,
	FamilyNonSuperiority,
	FamilyRelativeDifference,
	FamilyAgreement,
	FamilySampleSize,
}

// Families lists every supported family in dispatch order.
func Families() []Family {
	out := make([]Family, len(families))
	copy(out, families)
	return out
}

func ParseFamily(s string) (Family, error) {
	f := Family(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range families {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("family %q: %w", s, core.ErrUnknownFamily)
}

// Decision is the parametric/nonparametric tag of a normality assessment.
type Decision string

const (
	DecisionParametric    Decision = "PARAMETRIC"
	DecisionNonparametric Decision = "NONPARAMETRIC"
)

// Assessment holds both normality test results for one sample.
type Assessment struct {
	Sample         string   `json:"sample"`
	N              int      `json:"n"`
	ShapiroW       float64  `json:"shapiro_w"`
	ShapiroP       float64  `json:"shapiro_p"`
	KSD            float64  `json:"ks_d"`
	KSP            float64  `json:"ks_p"`
	ShapiroRejects bool     `json:"shapiro_rejects"`
	KSRejects      bool     `json:"ks_rejects"`
	Alpha          float64  `json:"alpha"`
	Decision       Decision `json:"decision"`
	Note           string   `json:"note,omitempty"`
}

// TestDecision combines the assessments of every sample in a request.
type TestDecision struct {
	Decision    Decision     `json:"decision"`
	Assessments []Assessment `json:"assessments"`
}

// CIMethod tags how a confidence interval was produced.
type CIMethod string

const (
	CINormalTheory                  CIMethod = "normal-theory"
	CISignedRank                    CIMethod = "signed-rank"
	CISignedRankContinuityCorrected CIMethod = "signed-rank-continuity-corrected"
	CIRankSum                       CIMethod = "rank-sum"
	CIFisherZ                       CIMethod = "fisher-z"
)

// ConfidenceInterval is a point estimate with its bounds.
type ConfidenceInterval struct {
	Estimate   float64  `json:"estimate"`
	Lower      float64  `json:"lower"`
	Upper      float64  `json:"upper"`
	Level      float64  `json:"level"`
	Method     CIMethod `json:"method"`
	Degenerate bool     `json:"degenerate,omitempty"`
	Note       string   `json:"note,omitempty"`
}

// Valid reports whether Lower <= Estimate <= Upper. Degenerate intervals
// are valid only when reported as such.
func (ci ConfidenceInterval) Valid() bool {
	if ci.Degenerate {
		return true
	}
	if math.IsNaN(ci.Estimate) || math.IsNaN(ci.Lower) || math.IsNaN(ci.Upper) {
		return false
	}
	return ci.Lower <= ci.Estimate && ci.Estimate <= ci.Upper
}

// Width returns Upper - Lower.
func (ci ConfidenceInterval) Width() float64 {
	return ci.Upper - ci.Lower
}

// Alternative is the alternative hypothesis of a test.
type Alternative string

const (
	TwoSided Alternative = "two.sided"
	Less     Alternative = "less"
	Greater  Alternative = "greater"
)

// Procedure names the statistical procedure behind a Finding.
type Procedure string

const (
	ProcMeanCI             Procedure = "mean_ci"
	ProcMedianIQR          Procedure = "median_iqr"
	ProcWelchTTest         Procedure = "welch_t_test"
	ProcPairedTTest        Procedure = "paired_t_test"
	ProcWilcoxonRankSum    Procedure = "wilcoxon_rank_sum"
	ProcWilcoxonSignedRank Procedure = "wilcoxon_signed_rank"
	ProcWilcoxonAbsolute   Procedure = "wilcoxon_absolute"
	ProcPearson            Procedure = "pearson"
	ProcSpearman           Procedure = "spearman"
	ProcRelativeNormal     Procedure = "relative_difference_normal"
	ProcRelativeSignedRank Procedure = "relative_difference_signed_rank"
)

// Quartiles holds type-7 sample quartiles.
type Quartiles struct {
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
}

// IQR returns Q3 - Q1.
func (q Quartiles) IQR() float64 { return q.Q3 - q.Q1 }

// Finding is the result of one procedure. Fields that do not apply are NaN
// (numbers) or nil (sections).
type Finding struct {
	Procedure     Procedure           `json:"procedure"`
	Kind          Decision            `json:"kind"`
	N             int                 `json:"n"`
	StatisticName string              `json:"statistic_name,omitempty"`
	Statistic     float64             `json:"statistic"`
	DF            float64             `json:"df"`
	PValue        float64             `json:"p_value"`
	Alternative   Alternative         `json:"alternative,omitempty"`
	Exact         bool                `json:"exact,omitempty"`
	Interval      *ConfidenceInterval `json:"interval,omitempty"`
	Quartiles     *Quartiles          `json:"quartiles,omitempty"`
	Significant   bool                `json:"significant"`
	Notes         []string            `json:"notes,omitempty"`
}

// HasPValue reports whether the finding carries a test p-value.
func (f Finding) HasPValue() bool { return !math.IsNaN(f.PValue) }

// MarginSection describes a non-inferiority or non-superiority analysis.
type MarginSection struct {
	RelativeMargin float64   `json:"relative_margin"`
	Alpha          float64   `json:"alpha"`
	Method         MethodKey `json:"method"`
}

// AgreementSection holds Bland-Altman results.
type AgreementSection struct {
	N               int                `json:"n"`
	Bias            float64            `json:"bias"`
	SD              float64            `json:"sd"`
	LowerLimit      float64            `json:"lower_limit"`
	UpperLimit      float64            `json:"upper_limit"`
	BiasCI          ConfidenceInterval `json:"bias_ci"`
	LowerLimitCI    ConfidenceInterval `json:"lower_limit_ci"`
	UpperLimitCI    ConfidenceInterval `json:"upper_limit_ci"`
	WithinSubjectCV float64            `json:"within_subject_cv"`
}

// SampleSizeSection holds a non-inferiority sample size calculation.
type SampleSizeSection struct {
	N           int     `json:"n"`
	Power       float64 `json:"power"`
	TargetPower float64 `json:"target_power"`
	Alpha       float64 `json:"alpha"`
	CV          float64 `json:"cv"`
	Theta0      float64 `json:"theta0"`
	Margin      float64 `json:"margin"`
	Steps       int     `json:"steps"`
	Iterations  int     `json:"iterations"`
}

// Outcome is the computed, not yet rendered, result of a request.
type Outcome struct {
	Family     Family             `json:"family"`
	Mode       Mode               `json:"mode"`
	Label      string             `json:"label"`
	Paired     bool               `json:"paired,omitempty"`
	Alpha      float64            `json:"alpha"`
	Precision  int                `json:"precision"`
	Decision   *TestDecision      `json:"decision,omitempty"`
	Findings   []Finding          `json:"findings"`
	Margin     *MarginSection     `json:"margin,omitempty"`
	Agreement  *AgreementSection  `json:"agreement,omitempty"`
	SampleSize *SampleSizeSection `json:"sample_size,omitempty"`
	Relative   RelativeKind       `json:"relative,omitempty"`
	Figure     *FigureSpec        `json:"figure,omitempty"`
}
