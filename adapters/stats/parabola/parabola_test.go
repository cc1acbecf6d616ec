package parabola

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofit/domain/core"
	"gofit/domain/stats"
)

func curveFrom(xs []float64, f func(float64) float64) stats.ScoreCurve {
	c := stats.ScoreCurve{Evaluator: "test", Points: make([]stats.ScorePoint, len(xs))}
	for i, x := range xs {
		c.Points[i] = stats.ScorePoint{Hypothesis: x, Score: f(x)}
		if c.Points[i].Score < c.Points[c.MinIndex].Score {
			c.MinIndex = i
		}
	}
	return c
}

func span(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

func TestFitSymmetric_RecoversExactParabola(t *testing.T) {
	f := func(x float64) float64 { return 5 + 3*(x-1.2)*(x-1.2) }

	for _, n := range []int{5, 11, 41} {
		curve := curveFrom(span(0.3, 2.3, n), f)
		fit, err := FitSymmetric(curve, n, n)
		require.NoError(t, err, "n=%d", n)

		assert.InDelta(t, 5.0, fit.MinValue, 1e-9)
		assert.InDelta(t, 1.2, fit.MinPosition, 1e-9)
		assert.InDelta(t, 3.0, fit.Curvature, 1e-9)
		assert.Equal(t, n, fit.Points)
		assert.InDelta(t, 1/math.Sqrt(3), 1/math.Sqrt(fit.Curvature), 1e-9)
	}
}

func TestFitSymmetric_WindowRestriction(t *testing.T) {
	// Far from the minimum the curve stops being parabolic; the window keeps the fit local.
	f := func(x float64) float64 {
		d := x - 1
		if math.Abs(d) > 0.5 {
			return 100
		}
		return 2 + 4*d*d
	}
	curve := curveFrom(span(0, 2, 41), f)

	fit, err := FitSymmetric(curve, 5, 5)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, fit.MinPosition, 1e-9)
	assert.InDelta(t, 4.0, fit.Curvature, 1e-9)
	assert.Equal(t, 11, fit.Points)
}

func TestFitSymmetric_InsufficientData(t *testing.T) {
	curve := curveFrom(span(0, 1, 11), func(x float64) float64 { return (x - 0.5) * (x - 0.5) })

	_, err := FitSymmetric(curve, 1, 0)
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = FitSymmetricPoints(nil)
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	dup := []stats.ScorePoint{{Hypothesis: 1, Score: 1}, {Hypothesis: 1, Score: 1}, {Hypothesis: 1, Score: 1}}
	_, err = FitSymmetricPoints(dup)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestFitSymmetric_MinimumAtGridEdge(t *testing.T) {
	// the true minimum at 1.5 lies beyond the sampled range
	curve := curveFrom(span(0, 1, 11), func(x float64) float64 { return (x - 1.5) * (x - 1.5) })
	require.Equal(t, 10, curve.MinIndex)

	_, err := FitSymmetric(curve, 5, 5)
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	falling := curveFrom(span(0, 1, 11), func(x float64) float64 { return (x + 0.5) * (x + 0.5) })
	_, err = FitSymmetric(falling, 5, 5)
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = FitAsymmetric(curve, 5, 5)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestFitSymmetric_NonPositiveCurvature(t *testing.T) {
	curve := curveFrom(span(0, 1, 9), func(x float64) float64 { return -(x - 0.5) * (x - 0.5) })
	_, err := FitSymmetricPoints(curve.Points)
	assert.ErrorIs(t, err, core.ErrUndefinedUncertainty)

	flat := curveFrom(span(0, 1, 9), func(float64) float64 { return 7 })
	_, err = FitSymmetricPoints(flat.Points)
	assert.ErrorIs(t, err, core.ErrUndefinedUncertainty)
}

func TestFitAsymmetric_RecoversPiecewiseParabola(t *testing.T) {
	truth := stats.AsymmetricQuadraticFit{MinValue: 2, MinPosition: 0.53, CurvatureLow: 4, CurvatureHigh: 1}
	curve := curveFrom(span(0, 1, 21), truth.Eval)

	fit, err := FitAsymmetric(curve, 20, 20)
	require.NoError(t, err)

	assert.InDelta(t, truth.MinValue, fit.MinValue, 1e-5)
	assert.InDelta(t, truth.MinPosition, fit.MinPosition, 1e-4)
	assert.InDelta(t, truth.CurvatureLow, fit.CurvatureLow, 1e-3)
	assert.InDelta(t, truth.CurvatureHigh, fit.CurvatureHigh, 1e-3)
	assert.Equal(t, 21, fit.Points)
}

func TestFitAsymmetric_SymmetricInputGivesEqualCurvatures(t *testing.T) {
	curve := curveFrom(span(0.3, 2.3, 21), func(x float64) float64 { return 5 + 3*(x-1.2)*(x-1.2) })

	fit, err := FitAsymmetric(curve, 6, 6)
	require.NoError(t, err)
	assert.InDelta(t, 1.2, fit.MinPosition, 1e-4)
	assert.InDelta(t, 3.0, fit.CurvatureLow, 1e-3)
	assert.InDelta(t, 3.0, fit.CurvatureHigh, 1e-3)
}

func TestFitAsymmetric_InsufficientData(t *testing.T) {
	curve := curveFrom(span(0, 1, 11), func(x float64) float64 { return (x - 0.5) * (x - 0.5) })
	_, err := FitAsymmetric(curve, 1, 1)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestAsymmetricEval_ContinuousAtMinimum(t *testing.T) {
	q := stats.AsymmetricQuadraticFit{MinValue: 1, MinPosition: 2, CurvatureLow: 5, CurvatureHigh: 0.5}
	assert.Equal(t, 1.0, q.Eval(2))
	assert.InDelta(t, q.Eval(2-1e-9), q.Eval(2+1e-9), 1e-8)
	assert.Equal(t, []float64{6, 1, 1.5}, q.EvalAll([]float64{1, 2, 3}))
}
