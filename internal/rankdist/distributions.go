package rankdist

import (
	"math"

	"statsmed/internal/errors"
)

// dblEpsilon is the float64 machine epsilon.
const dblEpsilon = 0x1p-52

// Distributions exposes the exact signed-rank and rank-sum distribution
// functions on top of a shared table cache.
type Distributions struct {
	cache *Cache
}

// NewDistributions creates a distributions utility backed by cache. A nil
// cache gets a private unbounded one.
func NewDistributions(cache *Cache) *Distributions {
	if cache == nil {
		cache = NewCache()
	}
	return &Distributions{cache: cache}
}

// Cache returns the underlying table cache.
func (d *Distributions) Cache() *Cache { return d.cache }

// SignRankCounts returns the counting table for n observations.
func (d *Distributions) SignRankCounts(n int) (*SignRankTable, error) {
	return d.cache.SignRank(n)
}

// SignRankCDF returns P(V <= x) for the signed-rank statistic V over n
// observations, or P(V > x) when lowerTail is false. x is floored after
// adding 1e-7.
func (d *Distributions) SignRankCDF(x float64, n int, lowerTail bool) (float64, error) {
	const stage = "rankdist.signrank_cdf"
	if n <= 0 {
		return math.NaN(), errors.Domain(stage, "n must be at least 1", errors.Inputs{"n": n})
	}
	if math.IsNaN(x) {
		return math.NaN(), errors.Domain(stage, "x is NaN", errors.Inputs{"n": n})
	}
	t, err := d.cache.SignRank(n)
	if err != nil {
		return math.NaN(), err
	}
	return tableCDF(t, x, lowerTail), nil
}

// SignRankQuantile returns the smallest k with P(V <= k) >= p (lower tail)
// by linear accumulation from the tail nearer to p.
func (d *Distributions) SignRankQuantile(p float64, n int, lowerTail bool) (int, error) {
	const stage = "rankdist.signrank_quantile"
	if n <= 0 {
		return 0, errors.Domain(stage, "n must be at least 1", errors.Inputs{"n": n})
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, errors.Domain(stage, "p outside [0,1]", errors.Inputs{"n": n, "p": p})
	}
	t, err := d.cache.SignRank(n)
	if err != nil {
		return 0, err
	}
	return tableQuantile(t, p, lowerTail), nil
}

// RankSumCounts returns the counting table for sizes m and n.
func (d *Distributions) RankSumCounts(m, n int) (*RankSumTable, error) {
	return d.cache.RankSum(m, n)
}

// RankSumCDF returns P(W <= q) for the rank-sum statistic W (in its
// Mann-Whitney form, on [0, mn]), or P(W > q) when lowerTail is false.
func (d *Distributions) RankSumCDF(q float64, m, n int, lowerTail bool) (float64, error) {
	const stage = "rankdist.ranksum_cdf"
	if m <= 0 || n <= 0 {
		return math.NaN(), errors.Domain(stage, "sample sizes must be at least 1", errors.Inputs{"m": m, "n": n})
	}
	if math.IsNaN(q) {
		return math.NaN(), errors.Domain(stage, "q is NaN", errors.Inputs{"m": m, "n": n})
	}
	t, err := d.cache.RankSum(m, n)
	if err != nil {
		return math.NaN(), err
	}
	return tableCDF(t, q, lowerTail), nil
}

// RankSumQuantile returns the smallest k with P(W <= k) >= p (lower tail).
func (d *Distributions) RankSumQuantile(p float64, m, n int, lowerTail bool) (int, error) {
	const stage = "rankdist.ranksum_quantile"
	if m <= 0 || n <= 0 {
		return 0, errors.Domain(stage, "sample sizes must be at least 1", errors.Inputs{"m": m, "n": n})
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, errors.Domain(stage, "p outside [0,1]", errors.Inputs{"m": m, "n": n, "p": p})
	}
	t, err := d.cache.RankSum(m, n)
	if err != nil {
		return 0, err
	}
	return tableQuantile(t, p, lowerTail), nil
}

func dt0(lowerTail bool) float64 {
	if lowerTail {
		return 0
	}
	return 1
}

func dt1(lowerTail bool) float64 {
	if lowerTail {
		return 1
	}
	return 0
}

// tableCDF sums whichever tail lies below the mean and complements when
// the other tail was summed.
func tableCDF(t Table, x float64, lowerTail bool) float64 {
	x = math.Floor(x + 1e-7)
	u := float64(t.Max())
	if x < 0 {
		return dt0(lowerTail)
	}
	if x >= u {
		return dt1(lowerTail)
	}

	total := t.Total()
	p := 0.0
	if x <= u/2 {
		for i := 0; i <= int(x); i++ {
			p += t.Count(i) / total
		}
	} else {
		x = u - x
		for i := 0; i < int(x); i++ {
			p += t.Count(i) / total
		}
		lowerTail = !lowerTail
	}

	if lowerTail {
		return p
	}
	return 1 - p
}

// tableQuantile accumulates mass from the lower end, with a 10 epsilon
// tolerance, and mirrors the result when p lies above one half.
func tableQuantile(t Table, p float64, lowerTail bool) int {
	u := t.Max()
	if p == dt0(lowerTail) {
		return 0
	}
	if p == dt1(lowerTail) {
		return u
	}
	if !lowerTail {
		p = 1 - p
	}

	total := t.Total()
	cum := 0.0
	q := 0
	if p <= 0.5 {
		p -= 10 * dblEpsilon
		for ; q < u; q++ {
			cum += t.Count(q) / total
			if cum >= p {
				break
			}
		}
		return q
	}

	p = 1 - p + 10*dblEpsilon
	for ; q < u; q++ {
		cum += t.Count(q) / total
		if cum > p {
			break
		}
	}
	return u - q
}
