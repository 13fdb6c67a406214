package normality

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"statsmed/domain/analysis"
	"statsmed/domain/core"
	"statsmed/internal/errors"
)

// ksExactMaxN is the largest n for which the exact distribution is used.
const ksExactMaxN = 1000

// KolmogorovSmirnov tests (x - mean)/sd against the standard normal and
// returns the two-sided statistic D and its p-value.
func KolmogorovSmirnov(x []float64) (d, p float64, err error) {
	const stage = "normality.kolmogorov_smirnov"
	if err := analysis.ValidateSample("x", x, 2); err != nil {
		return math.NaN(), math.NaN(), errors.DomainCause(stage, err, errors.Inputs{"n": len(x)})
	}

	mean, sd := stat.MeanStdDev(x, nil)
	if sd == 0 {
		return math.NaN(), math.NaN(), errors.DomainCause(stage, core.ErrZeroVariance, errors.Inputs{"n": len(x)})
	}
	z := make([]float64, len(x))
	for i, v := range x {
		z[i] = (v - mean) / sd
	}

	d = KSStatistic(z, distuv.UnitNormal.CDF)
	return d, KolmogorovPValue(len(x), d), nil
}

// KSStatistic returns sup |F_n - F| for the sample against cdf.
func KSStatistic(sample []float64, cdf func(float64) float64) float64 {
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	var d float64
	for i, v := range sorted {
		f := cdf(v)
		d = math.Max(d, float64(i+1)/n-f)
		d = math.Max(d, f-float64(i)/n)
	}
	return d
}

// KolmogorovPValue returns P(D_n >= d) for the two-sided one-sample
// statistic: exact (Marsaglia, Tsang and Wang 2003) for n <= 1000 and
// Stephens' corrected asymptotic form above.
func KolmogorovPValue(n int, d float64) float64 {
	if d <= 0 {
		return 1
	}
	if d >= 1 {
		return 0
	}
	if n > ksExactMaxN {
		sn := math.Sqrt(float64(n))
		return kolmogorovQ((sn + 0.12 + 0.11/sn) * d)
	}
	p := 1 - marsagliaK(n, d)
	return math.Min(1, math.Max(0, p))
}

// kolmogorovQ is the limiting survival function 2Σ(-1)^(k-1)·exp(-2k²λ²).
func kolmogorovQ(lambda float64) float64 {
	if lambda < 0.2 {
		return 1
	}
	var sum float64
	sign := 1.0
	for k := 1; k <= 100; k++ {
		term := sign * math.Exp(-2*float64(k*k)*lambda*lambda)
		sum += term
		if math.Abs(term) < 1e-16 {
			break
		}
		sign = -sign
	}
	return math.Min(1, math.Max(0, 2*sum))
}

// marsagliaK returns P(D_n < d).
func marsagliaK(n int, d float64) float64 {
	nf := float64(n)
	s := d * d * nf
	if s > 7.24 || (s > 3.76 && n > 99) {
		return 1 - 2*math.Exp(-(2.000071+0.331/math.Sqrt(nf)+1.409/nf)*s)
	}

	k := int(nf*d) + 1
	m := 2*k - 1
	h := float64(k) - nf*d

	H := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			if i-j+1 >= 0 {
				H.Set(i, j, 1)
			}
		}
	}
	for i := 0; i < m; i++ {
		H.Set(i, 0, H.At(i, 0)-math.Pow(h, float64(i+1)))
		H.Set(m-1, i, H.At(m-1, i)-math.Pow(h, float64(m-i)))
	}
	if 2*h-1 > 0 {
		H.Set(m-1, 0, H.At(m-1, 0)+math.Pow(2*h-1, float64(m)))
	}
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			if i-j+1 > 0 {
				v := H.At(i, j)
				for g := 1; g <= i-j+1; g++ {
					v /= float64(g)
				}
				H.Set(i, j, v)
			}
		}
	}

	Q, eQ := matrixPower(H, n, k-1)
	v := Q.At(k-1, k-1)
	for i := 1; i <= n; i++ {
		v = v * float64(i) / nf
		if v < 1e-140 {
			v *= 1e140
			eQ -= 140
		}
	}
	return v * math.Pow(10, float64(eQ))
}

// matrixPower returns A^n as (B, e) with A^n = B·10^e, rescaling whenever
// the centre element grows past 1e140.
func matrixPower(A *mat.Dense, n, centre int) (*mat.Dense, int) {
	if n == 1 {
		B := new(mat.Dense)
		B.CloneFrom(A)
		return B, 0
	}
	V, eV := matrixPower(A, n/2, centre)
	B := new(mat.Dense)
	B.Mul(V, V)
	eB := 2 * eV
	if n%2 == 1 {
		T := new(mat.Dense)
		T.Mul(A, B)
		B = T
	}
	if B.At(centre, centre) > 1e140 {
		B.Scale(1e-140, B)
		eB += 140
	}
	return B, eB
}
