package hypotest

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"statsmed/domain/analysis"
)

// StatisticalDistributions provides unified access to the continuous
// reference distributions used by the tests in this package.
type StatisticalDistributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *StatisticalDistributions {
	return &StatisticalDistributions{}
}

// TTestPValue computes the p-value of a t statistic under Student's t with
// df degrees of freedom.
func (sd *StatisticalDistributions) TTestPValue(tStatistic, df float64, alt analysis.Alternative) float64 {
	if df <= 0 || math.IsNaN(tStatistic) {
		return math.NaN()
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return tailPValue(tDist.CDF, tDist.Survival, tStatistic, alt)
}

// NormalPValue computes the p-value of a standard normal statistic.
func (sd *StatisticalDistributions) NormalPValue(z float64, alt analysis.Alternative) float64 {
	if math.IsNaN(z) {
		return math.NaN()
	}
	return tailPValue(distuv.UnitNormal.CDF, distuv.UnitNormal.Survival, z, alt)
}

// CorrelationPValue computes the two-sided p-value of a correlation
// coefficient via t = r·sqrt((n-2)/(1-r²)).
func (sd *StatisticalDistributions) CorrelationPValue(correlation float64, sampleSize int) float64 {
	if sampleSize < 3 {
		return math.NaN()
	}
	df := float64(sampleSize - 2)
	if math.Abs(correlation) >= 1 {
		return 0
	}
	tStatistic := correlation * math.Sqrt(df/(1-correlation*correlation))
	return sd.TTestPValue(tStatistic, df, analysis.TwoSided)
}

// TQuantile computes the quantile function of Student's t.
func (sd *StatisticalDistributions) TQuantile(p, df float64) float64 {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(p)
}

// NormalQuantile computes quantile function for standard normal (inverse CDF)
func (sd *StatisticalDistributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

func tailPValue(cdf, survival func(float64) float64, stat float64, alt analysis.Alternative) float64 {
	switch alt {
	case analysis.Less:
		return cdf(stat)
	case analysis.Greater:
		return survival(stat)
	default:
		return math.Min(1, 2*survival(math.Abs(stat)))
	}
}
