package gof

import (
	"fmt"
	"math"

	"gofit/adapters/stats/models"
	"gofit/domain/core"
	"gofit/domain/stats"
)

// UnbinnedLikelihoodEvaluator computes -2 Σ log f(x_i; θ) over raw events
type UnbinnedLikelihoodEvaluator struct {
	events  stats.Events
	density models.Density
}

// NewUnbinnedLikelihoodEvaluator creates an unbinned likelihood evaluator
func NewUnbinnedLikelihoodEvaluator(events stats.Events, density models.Density) (*UnbinnedLikelihoodEvaluator, error) {
	if len(events) == 0 {
		return nil, core.NewInsufficientDataError(0, 1)
	}
	cp := make(stats.Events, len(events))
	copy(cp, events)
	return &UnbinnedLikelihoodEvaluator{events: cp, density: density}, nil
}

// Name returns the evaluator name
func (e *UnbinnedLikelihoodEvaluator) Name() string {
	return NameUnbinnedLikelihood
}

// Description returns a human-readable description
func (e *UnbinnedLikelihoodEvaluator) Description() string {
	return "-2 log of the product of per-event densities"
}

// Score returns -2 log L at hypothesis theta
func (e *UnbinnedLikelihoodEvaluator) Score(theta float64) (float64, error) {
	sum := 0.0
	for i, x := range e.events {
		p := e.density.PDF(x, theta)
		if !(p > 0) {
			return math.NaN(), fmt.Errorf("%w: density %g for event %d (x=%g) at theta=%g", core.ErrInvalidLikelihood, p, i, x, theta)
		}
		sum += -2 * math.Log(p)
	}
	return sum, nil
}
