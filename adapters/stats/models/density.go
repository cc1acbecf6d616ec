package models

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Density is a one-parameter family of probability densities.
// theta is the hypothesis parameter scanned by the grid.
type Density interface {
	Name() string
	// PDF evaluates the normalized density at x for hypothesis theta
	PDF(x, theta float64) float64
	// Integral is the closed-form probability content of [lo, hi)
	Integral(lo, hi, theta float64) float64
}

// PDFs applies the density element-wise to a sequence of inputs
func PDFs(d Density, xs []float64, theta float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = d.PDF(x, theta)
	}
	return out
}

// ExpectedCounts returns total * Integral over every bin of edges
func ExpectedCounts(d Density, edges []float64, theta, total float64) []float64 {
	if len(edges) < 2 {
		return nil
	}
	out := make([]float64, len(edges)-1)
	for i := range out {
		out[i] = total * d.Integral(edges[i], edges[i+1], theta)
	}
	return out
}

// Exponential is the decay-time density with lifetime theta
type Exponential struct{}

func (Exponential) Name() string { return "exponential" }

func (Exponential) PDF(x, tau float64) float64 {
	if tau <= 0 {
		return 0
	}
	return distuv.Exponential{Rate: 1 / tau}.Prob(x)
}

func (Exponential) Integral(lo, hi, tau float64) float64 {
	if tau <= 0 {
		return 0
	}
	e := distuv.Exponential{Rate: 1 / tau}
	return e.CDF(hi) - e.CDF(lo)
}

// Gaussian is a normal density of fixed width whose mean is the hypothesis
type Gaussian struct {
	Sigma float64
}

func (Gaussian) Name() string { return "gaussian" }

func (g Gaussian) PDF(x, mu float64) float64 {
	if g.Sigma <= 0 {
		return 0
	}
	return distuv.Normal{Mu: mu, Sigma: g.Sigma}.Prob(x)
}

func (g Gaussian) Integral(lo, hi, mu float64) float64 {
	if g.Sigma <= 0 {
		return 0
	}
	n := distuv.Normal{Mu: mu, Sigma: g.Sigma}
	return n.CDF(hi) - n.CDF(lo)
}

// ByName resolves a density from its configuration name
func ByName(name string, sigma float64) (Density, bool) {
	switch name {
	case "exponential", "":
		return Exponential{}, true
	case "gaussian":
		if sigma <= 0 || math.IsNaN(sigma) {
			return nil, false
		}
		return Gaussian{Sigma: sigma}, true
	}
	return nil, false
}
