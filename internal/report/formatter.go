package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"statsmed/domain/analysis"
	"statsmed/domain/core"
	"statsmed/internal/errors"
)

// DefaultPrecision is the number of decimals used when neither the
// outcome nor the formatter sets one.
const DefaultPrecision = 3

var familyTitles = map[analysis.Family]string{
	analysis.FamilyNormality:          "Normality assessment",
	analysis.FamilyDescriptive:        "Descriptive statistics",
	analysis.FamilyComparison:         "Two-sample comparison",
	analysis.FamilyCorrelation:        "Correlation",
	analysis.FamilyNonInferiority:     "Non-inferiority test",
	analysis.FamilyNonSuperiority:     "Non-superiority test",
	analysis.FamilyRelativeDifference: "Relative difference",
	analysis.FamilyAgreement:          "Method agreement",
	analysis.FamilySampleSize:         "Non-inferiority sample size",
}

var procedureTitles = map[analysis.Procedure]string{
	analysis.ProcMeanCI:             "Mean with 95% confidence interval",
	analysis.ProcMedianIQR:          "Median and interquartile range",
	analysis.ProcWelchTTest:         "Welch two-sample t-test",
	analysis.ProcPairedTTest:        "Paired t-test",
	analysis.ProcWilcoxonRankSum:    "Wilcoxon rank-sum test",
	analysis.ProcWilcoxonSignedRank: "Wilcoxon signed-rank test",
	analysis.ProcWilcoxonAbsolute:   "Wilcoxon signed-rank test on absolute deviations",
	analysis.ProcPearson:            "Pearson correlation",
	analysis.ProcSpearman:           "Spearman rank correlation",
	analysis.ProcRelativeNormal:     "Relative difference, normal theory",
	analysis.ProcRelativeSignedRank: "Relative difference, signed-rank",
}

// Formatter renders outcomes. It holds no per-call state.
type Formatter struct {
	precision int
}

// NewFormatter creates a formatter printing precision decimals
// (DefaultPrecision when precision < 1).
func NewFormatter(precision int) *Formatter {
	if precision < 1 {
		precision = DefaultPrecision
	}
	return &Formatter{precision: precision}
}

// Render builds the report for an outcome. Identical outcomes produce
// identical bodies and fingerprints; only the ID differs.
func (f *Formatter) Render(o *analysis.Outcome) (*analysis.TestReport, error) {
	if o == nil {
		return nil, errors.Parameter("report.render", "nil outcome", nil)
	}
	precision := f.precision
	if o.Precision > 0 {
		precision = o.Precision
	}

	w := &writer{precision: precision}
	if o.Decision != nil {
		if err := w.decision(o.Decision); err != nil {
			return nil, err
		}
	}
	for _, finding := range o.Findings {
		if err := w.finding(o, finding); err != nil {
			return nil, err
		}
	}
	if o.Agreement != nil {
		w.agreement(o.Agreement)
	}
	if o.SampleSize != nil {
		w.sampleSize(o.SampleSize)
	}

	label := Label(o)
	body := strings.TrimRight(w.b.String(), "\n") + "\n"
	return &analysis.TestReport{
		ID:          core.NewReportID(),
		Family:      o.Family,
		Label:       label,
		Description: Description(o),
		Body:        body,
		Fingerprint: core.ComputeFingerprint(label, body),
		Outcome:     o,
	}, nil
}

// Label returns the caller's label or the family title.
func Label(o *analysis.Outcome) string {
	if o.Label != "" {
		return o.Label
	}
	if title, ok := familyTitles[o.Family]; ok {
		return title
	}
	return string(o.Family)
}

// Description summarises family, mode and the procedures chosen.
func Description(o *analysis.Outcome) string {
	title := familyTitles[o.Family]
	if title == "" {
		title = string(o.Family)
	}
	parts := []string{title}
	if o.Paired {
		parts[0] += " (paired)"
	}
	if o.Family != analysis.FamilySampleSize && o.Family != analysis.FamilyAgreement {
		parts = append(parts, "mode "+o.Mode.String())
	}
	if o.Decision != nil {
		parts = append(parts, strings.ToLower(string(o.Decision.Decision))+" procedures selected")
	}
	if o.Margin != nil {
		parts = append(parts, fmt.Sprintf("relative margin %g, alpha %g", o.Margin.RelativeMargin, o.Margin.Alpha))
	}
	return strings.Join(parts, ", ")
}

// Conclusion returns the directional conclusion of a margin test.
func Conclusion(family analysis.Family, significant bool) string {
	subject := "Non-inferiority"
	if family == analysis.FamilyNonSuperiority {
		subject = "Non-superiority"
	}
	if significant {
		return subject + " established"
	}
	return subject + " NOT established"
}

type writer struct {
	b         strings.Builder
	precision int
}

func (w *writer) num(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', w.precision, 64)
}

func (w *writer) decision(d *analysis.TestDecision) error {
	w.b.WriteString("## Normality assessment\n")
	for _, as := range d.Assessments {
		if as.Note == "zero variance" {
			w.b.WriteString(fmt.Sprintf("- %s (n = %d): zero variance, treated as nonparametric\n", as.Sample, as.N))
			continue
		}
		sw, err := FormatPValue(as.ShapiroP, w.precision)
		if err != nil {
			return err
		}
		ks, err := FormatPValue(as.KSP, w.precision)
		if err != nil {
			return err
		}
		w.b.WriteString(fmt.Sprintf("- %s (n = %d): Shapiro-Wilk W = %s, %s; Kolmogorov-Smirnov D = %s, %s; %s\n",
			as.Sample, as.N, w.num(as.ShapiroW), sw, w.num(as.KSD), ks, strings.ToLower(string(as.Decision))))
		if as.Note != "" {
			w.b.WriteString(fmt.Sprintf("  - note: %s\n", as.Note))
		}
	}
	w.b.WriteString(fmt.Sprintf("\nDecision: %s\n\n", d.Decision))
	return nil
}

func (w *writer) finding(o *analysis.Outcome, f analysis.Finding) error {
	title := procedureTitles[f.Procedure]
	if title == "" {
		title = string(f.Procedure)
	}
	w.b.WriteString(fmt.Sprintf("## %s\n", title))
	w.b.WriteString(fmt.Sprintf("n = %d\n", f.N))

	if f.StatisticName != "" {
		line := fmt.Sprintf("%s = %s", f.StatisticName, w.num(f.Statistic))
		if !math.IsNaN(f.DF) && f.DF > 0 {
			line += ", df = " + w.num(f.DF)
		}
		if f.HasPValue() {
			p, err := FormatPValue(f.PValue, w.precision)
			if err != nil {
				return err
			}
			line += ", " + p
			if f.Alternative != "" && f.Alternative != analysis.TwoSided {
				line += fmt.Sprintf(" (one-sided, %s)", f.Alternative)
			}
			if f.Exact && f.Kind == analysis.DecisionNonparametric {
				line += " (exact)"
			}
		}
		w.b.WriteString(line + "\n")
	}

	if f.Interval != nil {
		ci := f.Interval
		w.b.WriteString(fmt.Sprintf("Estimate: %s, %.0f%% CI [%s, %s] (%s)\n",
			w.num(ci.Estimate), ci.Level*100, w.num(ci.Lower), w.num(ci.Upper), ci.Method))
		if ci.Degenerate {
			w.b.WriteString("Interval is degenerate")
			if ci.Note != "" {
				w.b.WriteString(": " + ci.Note)
			}
			w.b.WriteString("\n")
		}
	}
	if f.Quartiles != nil {
		q := f.Quartiles
		w.b.WriteString(fmt.Sprintf("Median: %s, IQR [%s, %s]\n", w.num(q.Median), w.num(q.Q1), w.num(q.Q3)))
	}

	if o.Margin != nil {
		yes := "No"
		if f.Significant {
			yes = "Yes"
		}
		w.b.WriteString(fmt.Sprintf("Significant: %s\n", yes))
		w.b.WriteString(fmt.Sprintf("Conclusion: %s\n", Conclusion(o.Family, f.Significant)))
	}
	for _, note := range f.Notes {
		w.b.WriteString(fmt.Sprintf("- note: %s\n", note))
	}
	w.b.WriteString("\n")
	return nil
}

func (w *writer) agreement(a *analysis.AgreementSection) {
	w.b.WriteString("## Bland-Altman analysis\n")
	w.b.WriteString(fmt.Sprintf("n = %d\n", a.N))
	w.b.WriteString(fmt.Sprintf("Bias: %s, 95%% CI [%s, %s]\n", w.num(a.Bias), w.num(a.BiasCI.Lower), w.num(a.BiasCI.Upper)))
	w.b.WriteString(fmt.Sprintf("Lower limit of agreement: %s, 95%% CI [%s, %s]\n",
		w.num(a.LowerLimit), w.num(a.LowerLimitCI.Lower), w.num(a.LowerLimitCI.Upper)))
	w.b.WriteString(fmt.Sprintf("Upper limit of agreement: %s, 95%% CI [%s, %s]\n",
		w.num(a.UpperLimit), w.num(a.UpperLimitCI.Lower), w.num(a.UpperLimitCI.Upper)))
	w.b.WriteString(fmt.Sprintf("SD of differences: %s\n", w.num(a.SD)))
	w.b.WriteString(fmt.Sprintf("Within-subject CV: %s\n\n", w.num(a.WithinSubjectCV)))
}

func (w *writer) sampleSize(s *analysis.SampleSizeSection) {
	w.b.WriteString("## Sample size\n")
	w.b.WriteString(fmt.Sprintf("CV = %s, expected difference = %s, margin = %s, alpha = %g\n",
		w.num(s.CV), w.num(s.Theta0), w.num(s.Margin), s.Alpha))
	w.b.WriteString(fmt.Sprintf("Required n = %d (steps of %d)\n", s.N, s.Steps))
	w.b.WriteString(fmt.Sprintf("Achieved power: %s (target %g)\n\n", w.num(s.Power), s.TargetPower))
}
