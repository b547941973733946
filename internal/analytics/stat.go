package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// corrPValue computes the two-sided p-value for a Pearson correlation r over
// n paired samples, using the exact t distribution with n-2 degrees of
// freedom.
func corrPValue(r float64, n int) float64 {
	if n < 3 {
		return 1
	}
	denom := 1 - r*r
	if denom <= 1e-12 {
		// Perfect correlation: the t statistic diverges.
		return 0
	}
	t := r * math.Sqrt(float64(n-2)/denom)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	return 2 * dist.CDF(-math.Abs(t))
}

// twoSampleT performs a pooled-variance two-sample t-test and returns the t
// statistic and two-sided p-value. Degenerate inputs yield p=1.
func twoSampleT(a, b []float64) (t, p float64) {
	na, nb := len(a), len(b)
	if na < 2 || nb < 2 {
		return 0, 1
	}
	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)

	df := float64(na + nb - 2)
	pooled := (float64(na-1)*varA + float64(nb-1)*varB) / df
	se := math.Sqrt(pooled * (1/float64(na) + 1/float64(nb)))
	if se == 0 {
		if meanA == meanB {
			return 0, 1
		}
		return math.Inf(1), 0
	}
	t = (meanA - meanB) / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return t, 2 * dist.CDF(-math.Abs(t))
}
