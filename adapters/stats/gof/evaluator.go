// Package gof implements the goodness-of-fit evaluators scanned over a
// hypothesis grid: chi-square, binned Poisson likelihood and unbinned likelihood.
// Every evaluator is a pure function of (data, hypothesis).
package gof

import (
	"fmt"

	"gofit/adapters/stats/models"
	"gofit/domain/stats"
	"gofit/ports"
)

// Evaluator names accepted by New
const (
	NameChiSquare          = "chi_square"
	NameBinnedLikelihood   = "binned_likelihood"
	NameUnbinnedLikelihood = "unbinned_likelihood"
)

// Names lists every evaluator in a stable order
func Names() []string {
	return []string{NameChiSquare, NameBinnedLikelihood, NameUnbinnedLikelihood}
}

// New builds the named evaluator for a data sample.
// The histogram is required by the binned evaluators, the raw events by the unbinned one.
func New(name string, events stats.Events, hist stats.Histogram, density models.Density) (ports.Evaluator, error) {
	switch name {
	case NameChiSquare:
		return NewChiSquareEvaluator(hist, density, float64(len(events)))
	case NameBinnedLikelihood:
		return NewBinnedLikelihoodEvaluator(hist, density, float64(len(events)))
	case NameUnbinnedLikelihood:
		return NewUnbinnedLikelihoodEvaluator(events, density)
	}
	return nil, fmt.Errorf("unknown evaluator %q (expected one of %v)", name, Names())
}
