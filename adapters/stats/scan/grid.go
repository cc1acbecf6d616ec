package scan

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"gofit/domain/core"
	"gofit/domain/stats"
)

// NewGrid returns steps+1 evenly spaced hypotheses min + i*(max-min)/steps.
// The first and last values equal min and max exactly.
func NewGrid(min, max float64, steps int) (stats.Grid, error) {
	if steps < 1 {
		return nil, fmt.Errorf("%w: steps must be >= 1, got %d", core.ErrInvalidGrid, steps)
	}
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return nil, fmt.Errorf("%w: bounds must be finite, got [%g, %g]", core.ErrInvalidGrid, min, max)
	}
	if !(max > min) {
		return nil, fmt.Errorf("%w: max %g must exceed min %g", core.ErrInvalidGrid, max, min)
	}

	grid := stats.Grid(floats.Span(make([]float64, steps+1), min, max))
	grid[0], grid[steps] = min, max

	if err := grid.Validate(); err != nil {
		// step underflow for absurd step counts
		return nil, err
	}
	return grid, nil
}

// Step returns the nominal grid spacing
func Step(g stats.Grid) float64 {
	if len(g) < 2 {
		return 0
	}
	return (g[len(g)-1] - g[0]) / float64(len(g)-1)
}
