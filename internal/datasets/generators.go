// Package datasets holds the fixed fixtures and the seeded synthetic data
// generators used by the scenarios.
package datasets

import (
	"context"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"gofit/domain/core"
	"gofit/domain/stats"
)

const ctxCheckEvery = 4096

func checkCount(n int) error {
	if n < 1 {
		return core.NewValidationError("events", "count must be positive")
	}
	return nil
}

// ExponentialEvents draws n decay times with lifetime tau
func ExponentialEvents(ctx context.Context, rng *rand.Rand, n int, tau float64) (stats.Events, error) {
	if err := checkCount(n); err != nil {
		return nil, err
	}
	if !(tau > 0) {
		return nil, core.NewValidationError("tau", "lifetime must be positive")
	}
	return draw(ctx, n, distuv.Exponential{Rate: 1 / tau, Src: rng})
}

// GaussianEvents draws n values from N(mu, sigma)
func GaussianEvents(ctx context.Context, rng *rand.Rand, n int, mu, sigma float64) (stats.Events, error) {
	if err := checkCount(n); err != nil {
		return nil, err
	}
	if !(sigma > 0) {
		return nil, core.NewValidationError("sigma", "width must be positive")
	}
	return draw(ctx, n, distuv.Normal{Mu: mu, Sigma: sigma, Src: rng})
}

func draw(ctx context.Context, n int, d interface{ Rand() float64 }) (stats.Events, error) {
	out := make(stats.Events, n)
	for i := range out {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		out[i] = d.Rand()
	}
	return out, nil
}

// LinearObservations returns y = intercept + slope*x smeared by N(0, sigma)
// at each x, with SigmaY = sigma
func LinearObservations(rng *rand.Rand, xs []float64, intercept, slope, sigma float64) (stats.ObservationSet, error) {
	if !(sigma > 0) {
		return stats.ObservationSet{}, core.NewValidationError("sigma", "noise must be positive")
	}
	noise := distuv.Normal{Mu: 0, Sigma: sigma, Src: rng}
	obs := make([]stats.Observation, len(xs))
	for i, x := range xs {
		obs[i] = stats.Observation{X: x, Y: intercept + slope*x + noise.Rand(), SigmaY: sigma}
	}
	return stats.NewObservationSet(obs)
}
