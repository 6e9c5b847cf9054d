// Package stattest implements the classical tests used to evaluate
// hypotheses. Degenerate inputs produce NaN statistics and p-values rather
// than errors; callers decide how to report an untestable result.
package stattest

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TTest is the outcome of a Student t-test
type TTest struct {
	T  float64
	P  float64
	DF float64
}

// ANOVA is the outcome of a one-way analysis of variance
type ANOVA struct {
	F         float64
	P         float64
	DFBetween int
	DFWithin  int
}

// Regression is an ordinary least squares fit of y on x
type Regression struct {
	Slope     float64
	Intercept float64
	R         float64
	RSquared  float64
	P         float64
	StdErr    float64
}

var nanTTest = TTest{T: math.NaN(), P: math.NaN(), DF: math.NaN()}

// StudentT runs a two-sided independent two-sample t-test assuming equal
// variances.
func StudentT(a, b []float64) TTest {
	n1, n2 := float64(len(a)), float64(len(b))
	if len(a) < 2 || len(b) < 2 {
		return nanTTest
	}
	df := n1 + n2 - 2
	m1, v1 := stat.MeanVariance(a, nil)
	m2, v2 := stat.MeanVariance(b, nil)
	pooled := ((n1-1)*v1 + (n2-1)*v2) / df
	se := math.Sqrt(pooled * (1/n1 + 1/n2))
	return tFromDiff(m1-m2, se, df)
}

// OneSampleT runs a two-sided one-sample t-test of x against mu
func OneSampleT(x []float64, mu float64) TTest {
	if len(x) < 2 {
		return nanTTest
	}
	n := float64(len(x))
	m, sd := stat.MeanStdDev(x, nil)
	return tFromDiff(m-mu, sd/math.Sqrt(n), n-1)
}

func tFromDiff(diff, se, df float64) TTest {
	if se == 0 || math.IsNaN(se) {
		if diff == 0 || math.IsNaN(diff) {
			return TTest{T: math.NaN(), P: math.NaN(), DF: df}
		}
		return TTest{T: math.Copysign(math.Inf(1), diff), P: 0, DF: df}
	}
	t := diff / se
	return TTest{T: t, P: TwoSidedP(t, df), DF: df}
}

// TwoSidedP returns the two-sided p-value of t under Student's t with df
// degrees of freedom.
func TwoSidedP(t, df float64) float64 {
	if df <= 0 || math.IsNaN(t) {
		return math.NaN()
	}
	if math.IsInf(t, 0) {
		return 0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return math.Min(2*dist.Survival(math.Abs(t)), 1)
}

// OneWayANOVA compares the means of two or more groups
func OneWayANOVA(groups ...[]float64) ANOVA {
	out := ANOVA{F: math.NaN(), P: math.NaN()}
	k := len(groups)
	if k < 2 {
		return out
	}
	total, sum := 0, 0.0
	for _, g := range groups {
		if len(g) == 0 {
			return out
		}
		total += len(g)
		sum += sumOf(g)
	}
	out.DFBetween = k - 1
	out.DFWithin = total - k
	if out.DFWithin <= 0 {
		return out
	}

	grand := sum / float64(total)
	var ssb, ssw float64
	for _, g := range groups {
		m := stat.Mean(g, nil)
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssw += (v - m) * (v - m)
		}
	}
	msb := ssb / float64(out.DFBetween)
	msw := ssw / float64(out.DFWithin)
	if msw == 0 {
		if msb == 0 {
			return out
		}
		out.F, out.P = math.Inf(1), 0
		return out
	}
	out.F = msb / msw
	dist := distuv.F{D1: float64(out.DFBetween), D2: float64(out.DFWithin)}
	out.P = dist.Survival(out.F)
	return out
}

// LinearRegression fits y = intercept + slope*x and tests slope != 0
func LinearRegression(x, y []float64) Regression {
	out := Regression{Slope: math.NaN(), Intercept: math.NaN(), R: math.NaN(), RSquared: math.NaN(), P: math.NaN(), StdErr: math.NaN()}
	n := len(x)
	if n != len(y) || n < 3 {
		return out
	}
	mx, my := stat.Mean(x, nil), stat.Mean(y, nil)
	var ssx, ssy, sxy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		ssx += dx * dx
		ssy += dy * dy
		sxy += dx * dy
	}
	if ssx == 0 {
		return out
	}

	out.Intercept, out.Slope = stat.LinearRegression(x, y, nil, false)
	out.R = 0
	if ssy != 0 {
		out.R = math.Max(-1, math.Min(1, sxy/math.Sqrt(ssx*ssy)))
	}
	out.RSquared = out.R * out.R

	df := float64(n - 2)
	out.StdErr = math.Sqrt((1 - out.RSquared) * ssy / ssx / df)
	if math.Abs(out.R) == 1 {
		out.P = 0
		return out
	}
	t := out.R * math.Sqrt(df/((1-out.R)*(1+out.R)))
	out.P = TwoSidedP(t, df)
	return out
}

// CohensD is the absolute mean difference over the pooled standard
// deviation. A zero or undefined pooled deviation yields 0.
func CohensD(a, b []float64) float64 {
	n1, n2 := float64(len(a)), float64(len(b))
	if len(a) < 2 || len(b) < 2 {
		return 0
	}
	m1, v1 := stat.MeanVariance(a, nil)
	m2, v2 := stat.MeanVariance(b, nil)
	pooled := math.Sqrt(((n1-1)*v1 + (n2-1)*v2) / (n1 + n2 - 2))
	if pooled == 0 || math.IsNaN(pooled) {
		return 0
	}
	return math.Abs(m1-m2) / pooled
}

func sumOf(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
