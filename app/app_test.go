package app_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"gofit/adapters/stats/clt"
	"gofit/adapters/stats/gof"
	"gofit/adapters/stats/scan"
	"gofit/app"
	"gofit/domain/core"
	"gofit/domain/stats"
	"gofit/internal/testkit"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const seed = 42

func TestLikelihoodScan_UnbinnedLifetime(t *testing.T) {
	kit := testkit.NewTestKit()
	svc := kit.Services().Scan
	req := app.DefaultScanRequest()

	rep, err := svc.Run(context.Background(), seed, req)
	require.NoError(t, err)
	require.Empty(t, rep.Failures)
	assert.Equal(t, req.Steps+1, rep.Curve.Len())
	require.Len(t, rep.Estimates, 3)

	parabola, ok := rep.Estimate(stats.MethodParabola)
	require.True(t, ok)
	threshold, ok := rep.Estimate(stats.MethodThresholdScan)
	require.True(t, ok)

	// 1000 decays measure tau to about 1/sqrt(1000)
	assert.InDelta(t, 1/math.Sqrt(1000), parabola.ErrHigh, 0.006)
	assert.InDelta(t, 1.0, parabola.Value, 4*parabola.ErrHigh)
	assert.InDelta(t, parabola.Value, threshold.Value, 0.005)
	assert.InDelta(t, parabola.ErrHigh, 0.5*(threshold.ErrLow+threshold.ErrHigh), 0.1*parabola.ErrHigh)

	// the exponential likelihood is skewed toward large tau
	assert.Greater(t, threshold.ErrHigh, threshold.ErrLow)
}

func TestLikelihoodScan_CallerOwnsLog(t *testing.T) {
	svc := testkit.NewTestKit().Services().Scan
	req := app.DefaultScanRequest()
	req.Steps = 50

	log := scan.NewLog()
	for i := 0; i < 3; i++ {
		_, err := svc.RunLogged(context.Background(), seed, req, log)
		require.NoError(t, err)
	}
	assert.Equal(t, 3*(req.Steps+1), log.Len())

	// unlogged runs and other logs are untouched
	_, err := svc.Run(context.Background(), seed, req)
	require.NoError(t, err)
	other := scan.NewLog()
	_, err = svc.RunLogged(context.Background(), seed, req, other)
	require.NoError(t, err)
	assert.Equal(t, 3*(req.Steps+1), log.Len())
	assert.Equal(t, req.Steps+1, other.Len())
	assert.Len(t, other.Points(gof.NameUnbinnedLikelihood), req.Steps+1)
}

func TestLikelihoodScan_GaussianZeroMean(t *testing.T) {
	req := app.ScanRequest{
		Density:      "gaussian",
		DensitySigma: 1,
		Truth:        0,
		HistLow:      -5,
		HistHigh:     5,
		ScanMin:      -0.5,
		ScanMax:      0.5,
		Steps:        100,
		Window:       10,
	}
	assert.Equal(t, 0.0, req.WithDefaults().Truth)
	assert.Equal(t, 1.0, app.ScanRequest{Density: "exponential"}.WithDefaults().Truth)

	rep, err := testkit.NewTestKit().Services().Scan.Run(context.Background(), seed, req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rep.Truth)
	assert.Empty(t, rep.Failures)

	parabola, ok := rep.Estimate(stats.MethodParabola)
	require.True(t, ok)
	// 1000 events of unit width measure the mean to about 0.03
	assert.InDelta(t, 0.0, parabola.Value, 0.15)
	assert.InDelta(t, 1/math.Sqrt(1000), parabola.ErrHigh, 0.006)
}

func TestLikelihoodScan_EdgeMinimumFailsParabola(t *testing.T) {
	req := app.DefaultScanRequest()
	// the true lifetime lies far above the scanned range
	req.ScanMin, req.ScanMax = 0.5, 0.7
	req.Steps = 40
	req.Window = 5

	rep, err := testkit.NewTestKit().Services().Scan.Run(context.Background(), seed, req)
	require.NoError(t, err)
	assert.Nil(t, rep.Fit)
	assert.Empty(t, rep.Estimates)

	steps := map[string]bool{}
	for _, f := range rep.Failures {
		steps[f.Step] = true
	}
	assert.True(t, steps["parabola"])
	assert.True(t, steps["threshold_scan"])
}

func TestLikelihoodScan_Deterministic(t *testing.T) {
	kit := testkit.NewTestKit()
	req := app.DefaultScanRequest()
	req.Evaluator = gof.NameBinnedLikelihood

	a, err := kit.Services().Scan.Run(context.Background(), seed, req)
	require.NoError(t, err)
	b, err := kit.Services().Scan.Run(context.Background(), seed, req)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed gave different reports (-first +second):\n%s", diff)
	}

	c, err := kit.Services().Scan.Run(context.Background(), seed+1, req)
	require.NoError(t, err)
	assert.NotEqual(t, a.Curve.Min().Hypothesis, c.Curve.Min().Hypothesis)
}

func TestLikelihoodScan_EvaluatorsShareEvents(t *testing.T) {
	svc := testkit.NewTestKit().Services().Scan
	req := app.DefaultScanRequest()

	unbinned, err := svc.Events(context.Background(), seed, req)
	require.NoError(t, err)
	req.Evaluator = gof.NameChiSquare
	chi2, err := svc.Events(context.Background(), seed, req)
	require.NoError(t, err)
	assert.Equal(t, unbinned, chi2)
}

func TestLikelihoodScan_NarrowRangeIsLocalFailure(t *testing.T) {
	req := app.DefaultScanRequest()
	req.ScanMin, req.ScanMax = 0.99, 1.01
	req.Steps = 21
	req.Window = 5

	rep, err := testkit.NewTestKit().Services().Scan.Run(context.Background(), seed, req)
	require.NoError(t, err)

	assert.Nil(t, rep.Band)
	_, ok := rep.Estimate(stats.MethodThresholdScan)
	assert.False(t, ok)

	steps := map[string]bool{}
	for _, f := range rep.Failures {
		steps[f.Step] = true
	}
	assert.True(t, steps["threshold_scan"])
}

func TestLikelihoodScan_InvalidRequest(t *testing.T) {
	svc := testkit.NewTestKit().Services().Scan
	tests := []struct {
		name   string
		mutate func(*app.ScanRequest)
	}{
		{"unknown evaluator", func(r *app.ScanRequest) { r.Evaluator = "kolmogorov" }},
		{"unknown density", func(r *app.ScanRequest) { r.Density = "landau" }},
		{"gaussian without width", func(r *app.ScanRequest) { r.Density = "gaussian" }},
		{"negative events", func(r *app.ScanRequest) { r.Events = -5 }},
		{"inverted scan", func(r *app.ScanRequest) { r.ScanMin, r.ScanMax = 1.2, 0.8 }},
		{"one step", func(r *app.ScanRequest) { r.Steps = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := app.DefaultScanRequest()
			tt.mutate(&req)
			_, err := svc.Run(context.Background(), seed, req)
			require.Error(t, err)
			assert.True(t, core.IsValidationError(err), "got %v", err)
		})
	}
}

func TestCoffee_PositiveStableSlope(t *testing.T) {
	svc := testkit.NewTestKit().Services().Coffee

	first, err := svc.Run(context.Background(), app.DefaultCoffeeRequest())
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), app.DefaultCoffeeRequest())
	require.NoError(t, err)

	assert.Len(t, first.Observations, 4)
	assert.Equal(t, 2, first.Fit.Ndof)
	assert.Greater(t, first.Slope.Value, 0.0)
	assert.Greater(t, first.Slope.ErrHigh, 0.0)
	assert.InDelta(t, 17.7, first.Slope.Value, 0.5)
	assert.Equal(t, first.Slope, second.Slope)

	// the minimizer agrees with the closed-form weighted fit
	assert.InDelta(t, first.ClosedForm.Slope, first.Slope.Value, 1e-4)
	assert.InDelta(t, first.ClosedForm.SlopeErr, first.Slope.ErrHigh, 1e-3*first.ClosedForm.SlopeErr)
	assert.False(t, math.IsNaN(first.Fit.Chi2PerNdof))
	assert.Len(t, first.Pulls, 4)
}

func TestCoffee_Validation(t *testing.T) {
	svc := testkit.NewTestKit().Services().Coffee

	_, err := svc.Run(context.Background(), app.CoffeeRequest{Sigma: -1})
	assert.True(t, core.IsValidationError(err))

	_, err = svc.Run(context.Background(), app.CoffeeRequest{WindowLow: 100, WindowHigh: 50})
	assert.True(t, core.IsValidationError(err))

	_, err = svc.Run(context.Background(), app.CoffeeRequest{DataFile: "readings.csv"})
	assert.True(t, core.IsValidationError(err), "no reader configured: %v", err)

	// a window holding a single reading cannot fit a line
	_, err = svc.Run(context.Background(), app.CoffeeRequest{WindowLow: 90, WindowHigh: 100})
	require.Error(t, err)
	assert.True(t, core.IsFitError(err), "got %v", err)
}

func TestPropagation_AnalyticMatchesMonteCarlo(t *testing.T) {
	svc := testkit.NewTestKit().Services().Propagation
	req := app.DefaultPropagationRequest()

	res, err := svc.Run(context.Background(), seed, req)
	require.NoError(t, err)
	require.Len(t, res.Quantities, 3)

	byName := map[string]app.PropagatedQuantity{}
	for _, q := range res.Quantities {
		byName[q.Name] = q
	}
	// var(x+y) = 1 + 0.25 + 2*0.5*1*0.5
	assert.InDelta(t, math.Sqrt(1.75), byName[app.QuantitySum].Analytic.Sigma, 1e-6)
	assert.InDelta(t, 15, byName[app.QuantitySum].Analytic.Value, 1e-9)
	// var(xy) = 5²*1 + 10²*0.25 + 2*0.5*5*10*1*0.5
	assert.InDelta(t, math.Sqrt(75), byName[app.QuantityProduct].Analytic.Sigma, 1e-4)

	for _, q := range res.Quantities {
		assert.InDelta(t, 1.0, q.Agreement, 0.05, q.Name)
	}
}

func TestPropagation_InvalidRhoFailsFast(t *testing.T) {
	svc := testkit.NewTestKit().Services().Propagation
	req := app.DefaultPropagationRequest()
	req.Inputs.Rho = 1.5

	_, err := svc.Run(context.Background(), seed, req)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))

	req = app.DefaultPropagationRequest()
	req.Quantities = []string{"power"}
	_, err = svc.Run(context.Background(), seed, req)
	assert.True(t, core.IsValidationError(err))
}

func TestCLT_UniformConverges(t *testing.T) {
	svc := testkit.NewTestKit().Services().CLT
	res, err := svc.Run(context.Background(), seed, clt.Config{Source: clt.SourceUniform, Terms: 12, Trials: 5000})
	require.NoError(t, err)

	assert.True(t, res.HasMoments)
	assert.InDelta(t, 6.0, res.Mean, 0.05)
	assert.InDelta(t, 1.0, res.StdDev, 0.05)
	assert.Greater(t, res.Probability, 1e-4)
}
