package hypotest

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"statsmed/domain/analysis"
	"statsmed/domain/core"
	"statsmed/internal/errors"
	"statsmed/internal/rankdist"
)

// ExactLimit is the sample size below which rank tests use the exact null
// distribution when the data carry no ties.
const ExactLimit = 50

// Tester runs hypothesis tests. It is safe for concurrent use.
type Tester struct {
	dist  *StatisticalDistributions
	ranks *rankdist.Distributions
}

// NewTester creates a tester whose exact rank tests read tables from ranks.
func NewTester(ranks *rankdist.Distributions) *Tester {
	if ranks == nil {
		ranks = rankdist.NewDistributions(nil)
	}
	return &Tester{dist: NewDistributions(), ranks: ranks}
}

// PairedSignedRank runs the signed-rank test on x - y.
func (t *Tester) PairedSignedRank(x, y []float64, alt analysis.Alternative) (analysis.Finding, error) {
	d, err := pairedDifferences("hypotest.paired_signed_rank", x, y)
	if err != nil {
		return analysis.Finding{}, err
	}
	return t.SignedRank(d, alt)
}

// SignedRank runs the Wilcoxon signed-rank test of d against zero. Zero
// differences are dropped. The statistic V is the sum of the ranks of the
// positive differences.
func (t *Tester) SignedRank(d []float64, alt analysis.Alternative) (analysis.Finding, error) {
	const stage = "hypotest.signed_rank"
	if err := analysis.ValidateSample("d", d, 1); err != nil {
		return analysis.Finding{}, errors.DomainCause(stage, err, errors.Inputs{"n": len(d)})
	}

	nonzero := make([]float64, 0, len(d))
	for _, v := range d {
		if v != 0 {
			nonzero = append(nonzero, v)
		}
	}
	zeros := len(d) - len(nonzero)
	n := len(nonzero)
	if n == 0 {
		return analysis.Finding{}, errors.Domain(stage, "all differences are zero", errors.Inputs{"n": len(d)})
	}

	abs := make([]float64, n)
	for i, v := range nonzero {
		abs[i] = math.Abs(v)
	}
	ranks := rankdist.Rank(abs)
	var v float64
	for i, r := range ranks {
		if nonzero[i] > 0 {
			v += r
		}
	}

	f := analysis.Finding{
		Procedure:     analysis.ProcWilcoxonSignedRank,
		Kind:          analysis.DecisionNonparametric,
		N:             n,
		StatisticName: "V",
		Statistic:     v,
		DF:            math.NaN(),
		Alternative:   alt,
	}
	if zeros > 0 {
		f.Notes = append(f.Notes, "zero differences dropped")
	}

	ties := rankdist.HasTies(abs)
	if n < ExactLimit && !ties && zeros == 0 {
		p, err := t.exactSignedRankP(v, n, alt)
		if err != nil {
			return analysis.Finding{}, err
		}
		f.PValue = p
		f.Exact = true
		return f, nil
	}

	nf := float64(n)
	z := v - nf*(nf+1)/4
	sigma := math.Sqrt(nf*(nf+1)*(2*nf+1)/24 - rankdist.TieSum(abs)/48)
	if sigma == 0 {
		return analysis.Finding{}, errors.DomainCause(stage, core.ErrZeroVariance, errors.Inputs{"n": n})
	}
	z = (z - continuity(z, alt)) / sigma
	f.PValue = t.dist.NormalPValue(z, alt)
	if ties {
		f.Notes = append(f.Notes, "normal approximation with tie correction")
	} else {
		f.Notes = append(f.Notes, "normal approximation")
	}
	return f, nil
}

func (t *Tester) exactSignedRankP(v float64, n int, alt analysis.Alternative) (float64, error) {
	switch alt {
	case analysis.Less:
		return t.ranks.SignRankCDF(v, n, true)
	case analysis.Greater:
		return t.ranks.SignRankCDF(v-1, n, false)
	default:
		var p float64
		var err error
		if v > float64(n*(n+1))/4 {
			p, err = t.ranks.SignRankCDF(v-1, n, false)
		} else {
			p, err = t.ranks.SignRankCDF(v, n, true)
		}
		return math.Min(1, 2*p), err
	}
}

// RankSum runs the Wilcoxon rank-sum (Mann-Whitney) test of x against y.
// W is the rank sum of x minus its minimum nx(nx+1)/2.
func (t *Tester) RankSum(x, y []float64, alt analysis.Alternative) (analysis.Finding, error) {
	const stage = "hypotest.rank_sum"
	inputs := errors.Inputs{"n_x": len(x), "n_y": len(y)}
	if err := analysis.ValidateSample("x", x, 1); err != nil {
		return analysis.Finding{}, errors.DomainCause(stage, err, inputs)
	}
	if err := analysis.ValidateSample("y", y, 1); err != nil {
		return analysis.Finding{}, errors.DomainCause(stage, err, inputs)
	}

	nx, ny := len(x), len(y)
	pooled := make([]float64, 0, nx+ny)
	pooled = append(pooled, x...)
	pooled = append(pooled, y...)
	ranks := rankdist.Rank(pooled)
	w := floats.Sum(ranks[:nx]) - float64(nx*(nx+1))/2

	f := analysis.Finding{
		Procedure:     analysis.ProcWilcoxonRankSum,
		Kind:          analysis.DecisionNonparametric,
		N:             nx + ny,
		StatisticName: "W",
		Statistic:     w,
		DF:            math.NaN(),
		Alternative:   alt,
	}

	ties := rankdist.HasTies(pooled)
	if nx < ExactLimit && ny < ExactLimit && !ties {
		p, err := t.exactRankSumP(w, nx, ny, alt)
		if err != nil {
			return analysis.Finding{}, err
		}
		f.PValue = p
		f.Exact = true
		return f, nil
	}

	mf, nf := float64(nx), float64(ny)
	total := mf + nf
	z := w - mf*nf/2
	sigma := math.Sqrt(mf * nf / 12 * ((total + 1) - rankdist.TieSum(pooled)/(total*(total-1))))
	if sigma == 0 || math.IsNaN(sigma) {
		return analysis.Finding{}, errors.DomainCause(stage, core.ErrZeroVariance, inputs)
	}
	z = (z - continuity(z, alt)) / sigma
	f.PValue = t.dist.NormalPValue(z, alt)
	if ties {
		f.Notes = append(f.Notes, "normal approximation with tie correction")
	} else {
		f.Notes = append(f.Notes, "normal approximation")
	}
	return f, nil
}

func (t *Tester) exactRankSumP(w float64, m, n int, alt analysis.Alternative) (float64, error) {
	switch alt {
	case analysis.Less:
		return t.ranks.RankSumCDF(w, m, n, true)
	case analysis.Greater:
		return t.ranks.RankSumCDF(w-1, m, n, false)
	default:
		var p float64
		var err error
		if w > float64(m*n)/2 {
			p, err = t.ranks.RankSumCDF(w-1, m, n, false)
		} else {
			p, err = t.ranks.RankSumCDF(w, m, n, true)
		}
		return math.Min(1, 2*p), err
	}
}

// AbsoluteSignedRank tests whether |y - x| stays below the tolerated
// deviation |x·margin|, pairing the two and testing the tolerance side
// with alternative greater.
func (t *Tester) AbsoluteSignedRank(x, y []float64, margin float64) (analysis.Finding, error) {
	const stage = "hypotest.absolute_signed_rank"
	d, err := pairedDifferences(stage, y, x)
	if err != nil {
		return analysis.Finding{}, err
	}
	tolerance := make([]float64, len(x))
	for i := range x {
		tolerance[i] = math.Abs(x[i] * margin)
		d[i] = math.Abs(d[i])
	}
	f, err := t.PairedSignedRank(tolerance, d, analysis.Greater)
	if err != nil {
		return analysis.Finding{}, err
	}
	f.Procedure = analysis.ProcWilcoxonAbsolute
	return f, nil
}

func continuity(z float64, alt analysis.Alternative) float64 {
	switch alt {
	case analysis.Less:
		return -0.5
	case analysis.Greater:
		return 0.5
	default:
		if z > 0 {
			return 0.5
		}
		if z < 0 {
			return -0.5
		}
		return 0
	}
}
