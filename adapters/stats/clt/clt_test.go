package clt

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofit/domain/core"
)

func seeded(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, 0)) }

func chi2PerNdof(r *Result) float64 { return r.Chi2 / float64(r.Ndof) }

func TestSimulate_UniformSumIsGaussian(t *testing.T) {
	res, err := Simulate(context.Background(), seeded(42), Config{Source: SourceUniform, Terms: 12, Trials: 20000})
	require.NoError(t, err)

	assert.True(t, res.HasMoments)
	assert.InDelta(t, 6.0, res.ExpectedMean, 1e-12)
	assert.InDelta(t, 1.0, res.ExpectedSigma, 1e-12)
	assert.InDelta(t, 6.0, res.Mean, 0.03)
	assert.InDelta(t, 1.0, res.StdDev, 0.03)
	assert.Equal(t, defaultBins, res.Histogram.Bins())
	assert.Equal(t, defaultBins, res.Config.Bins)
	assert.Less(t, chi2PerNdof(res), 3.0)
	assert.Greater(t, res.Probability, 0.0)
}

func TestSimulate_MoreTermsApproachGaussian(t *testing.T) {
	one, err := Simulate(context.Background(), seeded(42), Config{Source: SourceExponential, Terms: 1, Trials: 20000})
	require.NoError(t, err)
	many, err := Simulate(context.Background(), seeded(42), Config{Source: SourceExponential, Terms: 50, Trials: 20000})
	require.NoError(t, err)

	assert.Greater(t, chi2PerNdof(one), chi2PerNdof(many))
	assert.InDelta(t, 50.0, many.Mean, 0.25)
}

func TestSimulate_CauchyNeverConverges(t *testing.T) {
	res, err := Simulate(context.Background(), seeded(42), Config{Source: SourceCauchy, Terms: 10, Trials: 20000})
	require.NoError(t, err)

	assert.False(t, res.HasMoments)
	assert.Zero(t, res.ExpectedSigma)
	assert.Greater(t, chi2PerNdof(res), 50.0)
}

func TestSimulate_Deterministic(t *testing.T) {
	cfg := Config{Source: SourceExponential, Terms: 5, Trials: 2000, Bins: 20}
	a, err := Simulate(context.Background(), seeded(9), cfg)
	require.NoError(t, err)
	b, err := Simulate(context.Background(), seeded(9), cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown source", Config{Source: "poisson", Terms: 1, Trials: 10}},
		{"no terms", Config{Source: SourceUniform, Terms: 0, Trials: 10}},
		{"single trial", Config{Source: SourceUniform, Terms: 1, Trials: 1}},
		{"negative bins", Config{Source: SourceUniform, Terms: 1, Trials: 10, Bins: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Simulate(context.Background(), seeded(1), tt.cfg)
			assert.True(t, core.IsValidationError(err), "got %v", err)
		})
	}
}

func TestSums_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Sums(ctx, seeded(1), Config{Source: SourceUniform, Terms: 1, Trials: 10})
	assert.ErrorIs(t, err, context.Canceled)
}
