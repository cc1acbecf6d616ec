// Package uncertainty turns a score curve or a fitted parabola into a
// parameter uncertainty. A unit rise of the score above its minimum marks
// one standard deviation.
package uncertainty

import (
	"fmt"
	"math"

	"gofit/domain/core"
	"gofit/domain/stats"
)

// FromCurvature returns 1/sqrt(q), the distance at which q*d^2 reaches 1
func FromCurvature(q float64) (float64, error) {
	if !(q > 0) || math.IsInf(q, 0) {
		return 0, fmt.Errorf("%w: curvature %g", core.ErrUndefinedUncertainty, q)
	}
	return 1 / math.Sqrt(q), nil
}

// FromFit converts a symmetric parabola fit into an estimate
func FromFit(fit stats.QuadraticFit) (stats.Estimate, error) {
	sigma, err := FromCurvature(fit.Curvature)
	if err != nil {
		return stats.Estimate{}, err
	}
	return stats.Estimate{
		Value:   fit.MinPosition,
		ErrLow:  sigma,
		ErrHigh: sigma,
		Method:  stats.MethodParabola,
	}, nil
}

// FromAsymmetricFit converts a two-sided parabola fit into an estimate with
// separate lower and upper errors
func FromAsymmetricFit(fit stats.AsymmetricQuadraticFit) (stats.Estimate, error) {
	low, err := FromCurvature(fit.CurvatureLow)
	if err != nil {
		return stats.Estimate{}, fmt.Errorf("lower side: %w", err)
	}
	high, err := FromCurvature(fit.CurvatureHigh)
	if err != nil {
		return stats.Estimate{}, fmt.Errorf("upper side: %w", err)
	}
	return stats.Estimate{
		Value:   fit.MinPosition,
		ErrLow:  low,
		ErrHigh: high,
		Method:  stats.MethodAsymmetricParabola,
	}, nil
}
