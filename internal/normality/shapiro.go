package normality

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"statsmed/domain/analysis"
	"statsmed/domain/core"
	"statsmed/internal/errors"
)

// Royston (1995) polynomial coefficients, algorithm AS R94.
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.07119, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.544, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

// ShapiroMaxN is the largest sample size for which the Royston
// approximation of the p-value is calibrated.
const ShapiroMaxN = 5000

// ShapiroWilk returns the W statistic and its p-value. n must be at least
// 3 and the sample must not be constant.
func ShapiroWilk(x []float64) (w, p float64, err error) {
	const stage = "normality.shapiro_wilk"
	if err := analysis.ValidateSample("x", x, 3); err != nil {
		return math.NaN(), math.NaN(), errors.DomainCause(stage, err, errors.Inputs{"n": len(x)})
	}

	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	n := len(sorted)
	if sorted[n-1]-sorted[0] == 0 {
		return math.NaN(), math.NaN(), errors.DomainCause(stage, core.ErrZeroVariance, errors.Inputs{"n": n})
	}

	a := shapiroCoefficients(n)

	var num float64
	for i := range a {
		num += a[i] * (sorted[n-1-i] - sorted[i])
	}
	mean := stat.Mean(sorted, nil)
	var ssq float64
	for _, v := range sorted {
		ssq += (v - mean) * (v - mean)
	}
	w = num * num / ssq
	if w > 1 {
		w = 1
	}

	return w, shapiroPValue(w, n), nil
}

// shapiroCoefficients returns the first n/2 weights a_i (positive,
// descending).
func shapiroCoefficients(n int) []float64 {
	nn2 := n / 2
	a := make([]float64, nn2)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}

	an25 := float64(n) + 0.25
	m := make([]float64, nn2)
	var summ2 float64
	for i := 0; i < nn2; i++ {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / an25)
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(float64(n))

	a1 := poly(swC1, rsn) - m[0]/ssumm2
	a[0] = a1

	first := 1
	var fac float64
	if n > 5 {
		first = 2
		a2 := -m[1]/ssumm2 + poly(swC2, rsn)
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2
	} else {
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	for i := first; i < nn2; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

func shapiroPValue(w float64, n int) float64 {
	if n == 3 {
		const pi6 = 6 / math.Pi
		const stqr = math.Pi / 3
		pw := pi6 * (math.Asin(math.Sqrt(w)) - stqr)
		return math.Max(pw, 0)
	}

	y := math.Log(1 - w)
	var m, s float64
	if n <= 11 {
		fn := float64(n)
		gamma := poly(swG, fn)
		if y >= gamma {
			return 1e-99
		}
		y = -math.Log(gamma - y)
		m = poly(swC3, fn)
		s = math.Exp(poly(swC4, fn))
	} else {
		ln := math.Log(float64(n))
		m = poly(swC5, ln)
		s = math.Exp(poly(swC6, ln))
	}
	return 1 - distuv.Normal{Mu: m, Sigma: s}.CDF(y)
}

// poly evaluates Σ c[k]·x^k.
func poly(c []float64, x float64) float64 {
	var r float64
	for k := len(c) - 1; k >= 0; k-- {
		r = r*x + c[k]
	}
	return r
}
