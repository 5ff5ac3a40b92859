package stats

import (
	"math"
	"time"
)

// Summary is the minimum needed to compare two series without their samples.
type Summary struct {
	Mean   time.Duration
	StdDev time.Duration
	N      int
}

// WelchTTest compares two series with unequal variances and returns the t
// statistic and a two-sided p-value. Series with fewer than two samples, or
// no variance at all, yield (0, 1).
func WelchTTest(a, b Summary) (t float64, p float64) {
	if a.N < 2 || b.N < 2 {
		return 0, 1
	}

	n1, n2 := float64(a.N), float64(b.N)
	v1 := math.Pow(float64(a.StdDev), 2) / n1
	v2 := math.Pow(float64(b.StdDev), 2) / n2

	se := math.Sqrt(v1 + v2)
	if se == 0 {
		return 0, 1
	}
	t = (float64(a.Mean) - float64(b.Mean)) / se

	denom := v1*v1/(n1-1) + v2*v2/(n2-1)
	if denom == 0 {
		return t, 1
	}
	df := (v1 + v2) * (v1 + v2) / denom

	// Normal approximation; small df widen the statistic slightly.
	z := math.Abs(t)
	if df < 30 && df > 2 {
		z /= math.Sqrt(df / (df - 2))
	}
	p = 2 * normalCDF(-z)
	return t, min(1, max(0, p))
}

// Summarize reduces Statistics to a Summary.
func (s Statistics) Summarize() Summary {
	return Summary{Mean: s.Mean, StdDev: s.StdDev, N: s.N}
}

func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
