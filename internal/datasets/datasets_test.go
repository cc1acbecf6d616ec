package datasets

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofit/domain/core"
)

func TestCoffeeFixture(t *testing.T) {
	set, err := CoffeeObservations(DefaultCoffeeSigma)
	require.NoError(t, err)
	assert.Equal(t, 13, set.Len())

	window := InWindow(set, CoffeeWindowLow, CoffeeWindowHigh)
	require.Equal(t, 4, window.Len())
	x, y, _ := window.Columns()
	assert.Equal(t, []float64{65, 76, 86, 99}, x)

	// the counter only ever goes up
	for i := 1; i < len(y); i++ {
		assert.Greater(t, y[i], y[i-1])
	}
}

func TestExponentialEvents(t *testing.T) {
	events, err := ExponentialEvents(context.Background(), rand.New(rand.NewPCG(42, 1)), 50000, 2)
	require.NoError(t, err)

	sum := 0.0
	for _, e := range events {
		assert.GreaterOrEqual(t, e, 0.0)
		sum += e
	}
	assert.InDelta(t, 2.0, sum/float64(len(events)), 0.05)

	again, err := ExponentialEvents(context.Background(), rand.New(rand.NewPCG(42, 1)), 50000, 2)
	require.NoError(t, err)
	assert.Equal(t, events, again)
}

func TestGaussianEvents(t *testing.T) {
	events, err := GaussianEvents(context.Background(), rand.New(rand.NewPCG(7, 7)), 20000, 5, 0.5)
	require.NoError(t, err)

	sum := 0.0
	for _, e := range events {
		sum += e
	}
	assert.InDelta(t, 5.0, sum/float64(len(events)), 0.02)
}

func TestGenerators_Validation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	ctx := context.Background()

	_, err := ExponentialEvents(ctx, rng, 0, 1)
	assert.True(t, core.IsValidationError(err))
	_, err = ExponentialEvents(ctx, rng, 10, -1)
	assert.True(t, core.IsValidationError(err))
	_, err = GaussianEvents(ctx, rng, 10, 0, 0)
	assert.True(t, core.IsValidationError(err))
	_, err = LinearObservations(rng, []float64{1, 2}, 0, 1, 0)
	assert.True(t, core.IsValidationError(err))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = ExponentialEvents(cancelled, rng, 10, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLinearObservations(t *testing.T) {
	set, err := LinearObservations(rand.New(rand.NewPCG(3, 3)), []float64{0, 1, 2, 3}, 1, 2, 0.1)
	require.NoError(t, err)
	require.Equal(t, 4, set.Len())
	for i := 0; i < set.Len(); i++ {
		o := set.At(i)
		assert.InDelta(t, 1+2*o.X, o.Y, 0.6)
		assert.Equal(t, 0.1, o.SigmaY)
	}
}
