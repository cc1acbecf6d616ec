package gof

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gofit/adapters/stats/models"
	"gofit/domain/core"
	"gofit/domain/stats"
)

// BinnedLikelihoodEvaluator computes -2 Σ log Poisson(nobs | nexp) over every bin
type BinnedLikelihoodEvaluator struct {
	hist    stats.Histogram
	density models.Density
	total   float64
}

// NewBinnedLikelihoodEvaluator creates a binned Poisson likelihood evaluator
func NewBinnedLikelihoodEvaluator(hist stats.Histogram, density models.Density, total float64) (*BinnedLikelihoodEvaluator, error) {
	if err := hist.Validate(); err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, core.NewValidationError("total", fmt.Sprintf("must be positive, got %g", total))
	}
	return &BinnedLikelihoodEvaluator{hist: hist, density: density, total: total}, nil
}

// Name returns the evaluator name
func (e *BinnedLikelihoodEvaluator) Name() string {
	return NameBinnedLikelihood
}

// Description returns a human-readable description
func (e *BinnedLikelihoodEvaluator) Description() string {
	return "-2 log of the product of per-bin Poisson probabilities"
}

// Score returns -2 log L at hypothesis theta
func (e *BinnedLikelihoodEvaluator) Score(theta float64) (float64, error) {
	expected := models.ExpectedCounts(e.density, e.hist.Edges, theta, e.total)
	return BinnedLikelihoodFromCounts(e.hist.Counts, expected)
}

// BinnedLikelihoodFromCounts accumulates -2 log Poisson(n | ν) over every bin.
// A non-positive expectation makes the term undefined.
func BinnedLikelihoodFromCounts(observed []int, expected []float64) (float64, error) {
	if len(observed) != len(expected) {
		return 0, fmt.Errorf("%w: %d observed vs %d expected bins", core.ErrInvalidHistogram, len(observed), len(expected))
	}
	sum := 0.0
	for i, n := range observed {
		nexp := expected[i]
		if !(nexp > 0) {
			return math.NaN(), fmt.Errorf("%w: expected count %g in bin %d", core.ErrInvalidLikelihood, nexp, i)
		}
		logp := distuv.Poisson{Lambda: nexp}.LogProb(float64(n))
		if math.IsInf(logp, 0) || math.IsNaN(logp) {
			return math.NaN(), fmt.Errorf("%w: log probability %g in bin %d", core.ErrInvalidLikelihood, logp, i)
		}
		sum += -2 * logp
	}
	return sum, nil
}
