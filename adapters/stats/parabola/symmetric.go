// Package parabola fits local quadratic models to the region of a score
// curve around its minimum.
package parabola

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"gofit/domain/core"
	"gofit/domain/stats"
)

const (
	symmetricParams  = 3
	asymmetricParams = 4

	curvatureTolerance = 1e-10
)

// FitSymmetric fits score = minval + q*(x-minpos)^2 to the curve restricted to
// [MinIndex-lowWidth, MinIndex+highWidth]. The window must hold points on
// both sides of the minimum, otherwise MinPosition would be an extrapolation.
func FitSymmetric(curve stats.ScoreCurve, lowWidth, highWidth int) (stats.QuadraticFit, error) {
	if err := bracketsMinimum(curve, lowWidth, highWidth); err != nil {
		return stats.QuadraticFit{}, err
	}
	return FitSymmetricPoints(curve.Window(lowWidth, highWidth))
}

func bracketsMinimum(curve stats.ScoreCurve, lowWidth, highWidth int) error {
	n := curve.Len()
	if n == 0 {
		return core.NewInsufficientDataError(0, symmetricParams)
	}
	if curve.MinIndex == 0 || lowWidth < 1 {
		return fmt.Errorf("%w: no points below the minimum at %g", core.ErrInsufficientData, curve.Min().Hypothesis)
	}
	if curve.MinIndex == n-1 || highWidth < 1 {
		return fmt.Errorf("%w: no points above the minimum at %g", core.ErrInsufficientData, curve.Min().Hypothesis)
	}
	return nil
}

// FitSymmetricPoints fits the symmetric parabola with unit weights.
// The model is linear in (a, b, c) after expanding around the window mean,
// which gives the same least-squares optimum as the (minval, minpos, q) form.
func FitSymmetricPoints(points []stats.ScorePoint) (stats.QuadraticFit, error) {
	n := len(points)
	if n < symmetricParams {
		return stats.QuadraticFit{}, core.NewInsufficientDataError(n, symmetricParams)
	}

	x0, lo, hi, scale := 0.0, points[0].Hypothesis, points[0].Hypothesis, 0.0
	for _, p := range points {
		x0 += p.Hypothesis
		lo = math.Min(lo, p.Hypothesis)
		hi = math.Max(hi, p.Hypothesis)
		scale = math.Max(scale, math.Abs(p.Score))
	}
	x0 /= float64(n)

	a := mat.NewDense(n, symmetricParams, nil)
	b := mat.NewVecDense(n, nil)
	for i, p := range points {
		d := p.Hypothesis - x0
		a.Set(i, 0, 1)
		a.Set(i, 1, d)
		a.Set(i, 2, d*d)
		b.SetVec(i, p.Score)
	}

	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		return stats.QuadraticFit{}, fmt.Errorf("%w: degenerate window: %v", core.ErrInsufficientData, err)
	}

	c0, c1, c2 := coef.AtVec(0), coef.AtVec(1), coef.AtVec(2)
	// curvature indistinguishable from rounding noise counts as flat
	if !(c2*(hi-lo)*(hi-lo) > curvatureTolerance*(1+scale)) || math.IsInf(c2, 0) {
		return stats.QuadraticFit{}, fmt.Errorf("%w: fitted curvature %g", core.ErrUndefinedUncertainty, c2)
	}

	return stats.QuadraticFit{
		MinValue:    c0 - c1*c1/(4*c2),
		MinPosition: x0 - c1/(2*c2),
		Curvature:   c2,
		Points:      n,
	}, nil
}
