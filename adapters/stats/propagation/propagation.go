// Package propagation propagates the uncertainty of two correlated Gaussian
// inputs through a function f(x, y), analytically to first order and by
// Monte Carlo sampling.
package propagation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/stat/distuv"

	"gofit/domain/core"
)

const ctxCheckEvery = 4096

// Config describes the two inputs
type Config struct {
	MeanX  float64 `json:"mean_x" yaml:"mean_x"`
	SigmaX float64 `json:"sigma_x" yaml:"sigma_x"`
	MeanY  float64 `json:"mean_y" yaml:"mean_y"`
	SigmaY float64 `json:"sigma_y" yaml:"sigma_y"`
	Rho    float64 `json:"rho" yaml:"rho"`
}

// Validate rejects configurations that cannot describe a bivariate Gaussian
func (c Config) Validate() error {
	for name, v := range map[string]float64{"mean_x": c.MeanX, "mean_y": c.MeanY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.NewValidationError(name, fmt.Sprintf("must be finite, got %g", v))
		}
	}
	if !(c.SigmaX > 0) || math.IsInf(c.SigmaX, 0) {
		return core.NewValidationError("sigma_x", fmt.Sprintf("must be positive, got %g", c.SigmaX))
	}
	if !(c.SigmaY > 0) || math.IsInf(c.SigmaY, 0) {
		return core.NewValidationError("sigma_y", fmt.Sprintf("must be positive, got %g", c.SigmaY))
	}
	if !(c.Rho >= -1 && c.Rho <= 1) {
		return core.NewValidationError("rho", fmt.Sprintf("correlation must be within [-1, 1], got %g", c.Rho))
	}
	return nil
}

// Func is the quantity whose uncertainty is propagated
type Func func(x, y float64) float64

// Result is a first-order propagated value
type Result struct {
	Value    float64    `json:"value"`
	Sigma    float64    `json:"sigma"`
	Gradient [2]float64 `json:"gradient"`
}

// Analytic computes σf² = fx²σx² + fy²σy² + 2ρ fx fy σx σy with the partial
// derivatives taken numerically at the means.
func Analytic(f Func, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	g := func(p []float64) float64 { return f(p[0], p[1]) }
	mean := []float64{cfg.MeanX, cfg.MeanY}

	grad := fd.Gradient(nil, g, mean, &fd.Settings{Formula: fd.Central})
	fx, fy := grad[0], grad[1]

	variance := fx*fx*cfg.SigmaX*cfg.SigmaX +
		fy*fy*cfg.SigmaY*cfg.SigmaY +
		2*cfg.Rho*fx*fy*cfg.SigmaX*cfg.SigmaY
	if variance < 0 {
		// rounding at rho = -1
		variance = 0
	}

	value := f(cfg.MeanX, cfg.MeanY)
	if math.IsNaN(value) || math.IsNaN(variance) {
		return Result{}, fmt.Errorf("%w: function undefined at (%g, %g)", core.ErrUndefinedUncertainty, cfg.MeanX, cfg.MeanY)
	}
	return Result{Value: value, Sigma: math.Sqrt(variance), Gradient: [2]float64{fx, fy}}, nil
}

// MCResult summarizes a Monte Carlo propagation
type MCResult struct {
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	Median      float64 `json:"median"`
	Lower       float64 `json:"lower"` // 15.87th percentile
	Upper       float64 `json:"upper"` // 84.13th percentile
	Correlation float64 `json:"correlation"`
	Samples     int     `json:"samples"`
}

// Draw returns n correlated (x, y) pairs
func Draw(ctx context.Context, cfg Config, n int, rng *rand.Rand) (xs, ys []float64, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if n < 2 {
		return nil, nil, core.NewInsufficientDataError(n, 2)
	}
	unit := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	tail := math.Sqrt(1 - cfg.Rho*cfg.Rho)

	xs = make([]float64, n)
	ys = make([]float64, n)
	for i := 0; i < n; i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		z1, z2 := unit.Rand(), unit.Rand()
		xs[i] = cfg.MeanX + cfg.SigmaX*z1
		ys[i] = cfg.MeanY + cfg.SigmaY*(cfg.Rho*z1+tail*z2)
	}
	return xs, ys, nil
}

// MonteCarlo evaluates f on n correlated draws and summarizes the outputs
func MonteCarlo(ctx context.Context, f Func, cfg Config, n int, rng *rand.Rand) (MCResult, error) {
	xs, ys, err := Draw(ctx, cfg, n, rng)
	if err != nil {
		return MCResult{}, err
	}

	values := make(mstats.Float64Data, n)
	for i := range values {
		values[i] = f(xs[i], ys[i])
		if math.IsNaN(values[i]) {
			return MCResult{}, fmt.Errorf("%w: function undefined at sample (%g, %g)", core.ErrUndefinedUncertainty, xs[i], ys[i])
		}
	}

	res := MCResult{Samples: n}
	if res.Mean, err = values.Mean(); err != nil {
		return MCResult{}, err
	}
	if res.StdDev, err = values.StandardDeviationSample(); err != nil {
		return MCResult{}, err
	}
	if res.Median, err = values.Median(); err != nil {
		return MCResult{}, err
	}
	if res.Lower, err = values.Percentile(15.87); err != nil {
		return MCResult{}, err
	}
	if res.Upper, err = values.Percentile(84.13); err != nil {
		return MCResult{}, err
	}
	if res.Correlation, err = mstats.Correlation(xs, ys); err != nil {
		return MCResult{}, err
	}
	return res, nil
}
