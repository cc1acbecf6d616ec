package parabola

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"gofit/domain/core"
	"gofit/domain/stats"
)

// penalty stands in for the residual sum when a trial minimum leaves one side empty
const penalty = 1e300

// FitAsymmetric fits the two-sided parabola to the curve restricted to
// [MinIndex-lowWidth, MinIndex+highWidth]
func FitAsymmetric(curve stats.ScoreCurve, lowWidth, highWidth int) (stats.AsymmetricQuadraticFit, error) {
	if err := bracketsMinimum(curve, lowWidth, highWidth); err != nil {
		return stats.AsymmetricQuadraticFit{}, err
	}
	return FitAsymmetricPoints(curve.Window(lowWidth, highWidth))
}

// FitAsymmetricPoints fits score = minval + qlow*(x-m)^2 for x < m and
// minval + qhigh*(x-m)^2 for x >= m in a single least-squares fit.
// For a fixed m the model is linear in (minval, qlow, qhigh); m itself is
// found by minimizing the profiled residual sum with Nelder-Mead.
func FitAsymmetricPoints(points []stats.ScorePoint) (stats.AsymmetricQuadraticFit, error) {
	n := len(points)
	if n < asymmetricParams {
		return stats.AsymmetricQuadraticFit{}, core.NewInsufficientDataError(n, asymmetricParams)
	}

	start, err := FitSymmetricPoints(points)
	if err != nil {
		return stats.AsymmetricQuadraticFit{}, err
	}

	lo, hi := points[0].Hypothesis, points[0].Hypothesis
	for _, p := range points {
		lo = math.Min(lo, p.Hypothesis)
		hi = math.Max(hi, p.Hypothesis)
	}
	m0 := math.Min(math.Max(start.MinPosition, lo), hi)

	profile := func(x []float64) float64 {
		_, ssr, ok := solveAtMinimum(points, x[0])
		if !ok {
			return penalty
		}
		return ssr
	}

	result, err := optimize.Minimize(
		optimize.Problem{Func: profile},
		[]float64{m0},
		&optimize.Settings{
			Converger:       &optimize.FunctionConverge{Absolute: 1e-15, Relative: 1e-15, Iterations: 50},
			MajorIterations: 5000,
		},
		&optimize.NelderMead{SimplexSize: (hi - lo) / float64(n-1) / 2},
	)
	if result == nil {
		return stats.AsymmetricQuadraticFit{}, fmt.Errorf("%w: asymmetric parabola: %v", core.ErrNotConverged, err)
	}

	m := result.X[0]
	coef, _, ok := solveAtMinimum(points, m)
	if !ok {
		return stats.AsymmetricQuadraticFit{}, fmt.Errorf("%w: minimum %g leaves one side of the window empty", core.ErrInsufficientData, m)
	}

	fit := stats.AsymmetricQuadraticFit{
		MinValue:      coef[0],
		MinPosition:   m,
		CurvatureLow:  coef[1],
		CurvatureHigh: coef[2],
		Points:        n,
	}
	if !(fit.CurvatureLow > 0) || !(fit.CurvatureHigh > 0) {
		return stats.AsymmetricQuadraticFit{}, fmt.Errorf("%w: fitted curvatures low=%g high=%g",
			core.ErrUndefinedUncertainty, fit.CurvatureLow, fit.CurvatureHigh)
	}
	return fit, nil
}

// solveAtMinimum solves the linear sub-problem for a fixed minimum position m
func solveAtMinimum(points []stats.ScorePoint, m float64) ([3]float64, float64, bool) {
	var coef [3]float64
	below, above := 0, 0
	for _, p := range points {
		switch {
		case p.Hypothesis < m:
			below++
		case p.Hypothesis > m:
			above++
		}
	}
	if below == 0 || above == 0 || math.IsNaN(m) {
		return coef, 0, false
	}

	n := len(points)
	a := mat.NewDense(n, 3, nil)
	b := mat.NewVecDense(n, nil)
	for i, p := range points {
		d := p.Hypothesis - m
		a.Set(i, 0, 1)
		if p.Hypothesis < m {
			a.Set(i, 1, d*d)
		} else {
			a.Set(i, 2, d*d)
		}
		b.SetVec(i, p.Score)
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return coef, 0, false
	}

	ssr := 0.0
	for i, p := range points {
		pred := x.AtVec(0) + a.At(i, 1)*x.AtVec(1) + a.At(i, 2)*x.AtVec(2)
		r := p.Score - pred
		ssr += r * r
	}
	coef[0], coef[1], coef[2] = x.AtVec(0), x.AtVec(1), x.AtVec(2)
	return coef, ssr, true
}
