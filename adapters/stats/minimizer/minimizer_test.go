package minimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofit/domain/core"
	"gofit/ports"
)

// chi-square bowl centred on (3, -1) with standard errors (0.5, 2)
func bowl(p []float64) float64 {
	dx := (p[0] - 3) / 0.5
	dy := (p[1] + 1) / 2
	return dx*dx + dy*dy
}

func TestMinimize_Bowl(t *testing.T) {
	for _, method := range []Method{MethodBFGS, MethodNelderMead} {
		t.Run(string(method), func(t *testing.T) {
			m := New(Config{Method: method})
			res, err := m.Minimize(bowl, []ports.Parameter{
				{Name: "x", Start: 1, Step: 0.1},
				{Name: "y", Start: 1, Step: 0.1},
			})
			require.NoError(t, err)

			x, ok := res.Value("x")
			require.True(t, ok)
			y, _ := res.Value("y")
			assert.InDelta(t, 3.0, x, 1e-4)
			assert.InDelta(t, -1.0, y, 1e-4)

			ex, _ := res.Error("x")
			ey, _ := res.Error("y")
			assert.InDelta(t, 0.5, ex, 1e-3)
			assert.InDelta(t, 2.0, ey, 1e-3)

			assert.InDelta(t, 0.0, res.Cost, 1e-6)
			assert.True(t, res.Converged)
			assert.Greater(t, res.Evaluations, 0)
		})
	}
}

func TestMinimize_UpScalesErrors(t *testing.T) {
	m := New(Config{Up: 4})
	res, err := m.Minimize(bowl, []ports.Parameter{{Name: "x", Start: 2}, {Name: "y", Start: 0}})
	require.NoError(t, err)

	// errors grow with sqrt(Up)
	assert.InDelta(t, 1.0, res.Errors[0], 2e-3)
	assert.InDelta(t, 4.0, res.Errors[1], 8e-3)
}

func TestMinimize_FixedParameter(t *testing.T) {
	res, err := Default().Minimize(bowl, []ports.Parameter{
		{Name: "x", Start: 0, Step: 0.5},
		{Name: "y", Start: 0, Fixed: true},
	})
	require.NoError(t, err)

	assert.InDelta(t, 3.0, res.Values[0], 1e-4)
	assert.Equal(t, 0.0, res.Values[1])
	assert.Equal(t, 0.0, res.Errors[1])
	assert.InDelta(t, 0.25, res.Cost, 1e-6)
}

func TestMinimize_AllFixed(t *testing.T) {
	res, err := Default().Minimize(bowl, []ports.Parameter{
		{Name: "x", Start: 3, Fixed: true},
		{Name: "y", Start: 1, Fixed: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, res.Values)
	assert.InDelta(t, 1.0, res.Cost, 1e-12)
	assert.Equal(t, 1, res.Evaluations)
}

func TestMinimize_Rosenbrock(t *testing.T) {
	rosen := func(p []float64) float64 {
		a := 1 - p[0]
		b := p[1] - p[0]*p[0]
		return a*a + 100*b*b
	}
	res, err := Default().Minimize(rosen, []ports.Parameter{
		{Name: "a", Start: -1.2, Step: 0.1},
		{Name: "b", Start: 1, Step: 0.1},
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Values[0], 1e-3)
	assert.InDelta(t, 1.0, res.Values[1], 2e-3)
}

func TestMinimize_FlatCostHasNoUncertainty(t *testing.T) {
	flat := func([]float64) float64 { return 7 }
	_, err := Default().Minimize(flat, []ports.Parameter{{Name: "x", Start: 1}})
	assert.ErrorIs(t, err, core.ErrUndefinedUncertainty)
}

func TestMinimize_InvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		params []ports.Parameter
	}{
		{"empty", nil},
		{"unnamed", []ports.Parameter{{Start: 1}}},
		{"duplicate", []ports.Parameter{{Name: "x"}, {Name: "x"}}},
		{"negative step", []ports.Parameter{{Name: "x", Step: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Default().Minimize(bowl, tt.params)
			assert.True(t, core.IsValidationError(err), "got %v", err)
		})
	}

	_, err := Default().Minimize(nil, []ports.Parameter{{Name: "x"}})
	assert.True(t, core.IsValidationError(err))
}
