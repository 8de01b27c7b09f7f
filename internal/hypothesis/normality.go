package hypothesis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// dagostinoK2 computes the D'Agostino-Pearson omnibus normality statistic:
// the skewness z-score (D'Agostino 1970) and kurtosis z-score
// (Anscombe-Glynn 1983) combined as K2 = Zg1^2 + Zg2^2, which is
// chi-square distributed with 2 degrees of freedom under normality.
// Callers must supply at least 8 values.
func dagostinoK2(x []float64) (k2, p float64) {
	n := float64(len(x))

	mean := stat.Mean(x, nil)
	var m2, m3, m4 float64
	for _, v := range x {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
		m4 += d * d * d * d
	}
	m2 /= n
	m3 /= n
	m4 /= n

	if m2 == 0 {
		// Constant sample: trivially non-normal, report p=0.
		return math.Inf(1), 0
	}

	// Skewness z-score.
	g1 := m3 / math.Pow(m2, 1.5)
	y := g1 * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) /
		((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(math.Log(math.Sqrt(w2)))
	alpha := math.Sqrt(2 / (w2 - 1))
	zg1 := delta * math.Log(y/alpha+math.Sqrt((y/alpha)*(y/alpha)+1))

	// Kurtosis z-score.
	b2 := m4 / (m2 * m2)
	eb2 := 3 * (n - 1) / (n + 1)
	vb2 := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	xstd := (b2 - eb2) / math.Sqrt(vb2)
	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) *
		math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))
	num := 1 - 2/a
	den := 1 + xstd*math.Sqrt(2/(a-4))
	zg2 := ((1 - 2/(9*a)) - math.Cbrt(num/den)) / math.Sqrt(2/(9*a))

	k2 = zg1*zg1 + zg2*zg2
	p = distuv.ChiSquared{K: 2}.Survival(k2)
	return k2, p
}

// ksNormal runs a one-sample Kolmogorov-Smirnov test of x against the
// normal distribution fitted to x. The p-value uses the asymptotic
// Kolmogorov distribution with the small-sample correction.
func ksNormal(x []float64) (d, p float64) {
	n := len(x)
	if n == 0 {
		return 0, 1
	}
	mean := stat.Mean(x, nil)
	std := stat.StdDev(x, nil)
	if std == 0 {
		return 1, 0
	}
	norm := distuv.Normal{Mu: mean, Sigma: std}

	sorted := make([]float64, n)
	copy(sorted, x)
	sort.Float64s(sorted)

	for i, v := range sorted {
		cdf := norm.CDF(v)
		upper := float64(i+1)/float64(n) - cdf
		lower := cdf - float64(i)/float64(n)
		if upper > d {
			d = upper
		}
		if lower > d {
			d = lower
		}
	}

	sqrtN := math.Sqrt(float64(n))
	lambda := (sqrtN + 0.12 + 0.11/sqrtN) * d
	p = kolmogorovQ(lambda)
	return d, p
}

// kolmogorovQ evaluates the Kolmogorov survival function
// Q(lambda) = 2 * sum_{k>=1} (-1)^(k-1) exp(-2 k^2 lambda^2).
func kolmogorovQ(lambda float64) float64 {
	if lambda <= 0 {
		return 1
	}
	sum := 0.0
	sign := 1.0
	for k := 1; k <= 100; k++ {
		term := math.Exp(-2 * float64(k) * float64(k) * lambda * lambda)
		sum += sign * term
		if term < 1e-10 {
			break
		}
		sign = -sign
	}
	q := 2 * sum
	switch {
	case q < 0:
		return 0
	case q > 1:
		return 1
	default:
		return q
	}
}
