package histogram

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"gofit/domain/core"
	"gofit/domain/stats"
)

// Build bins values into `bins` equal-width bins covering [lo, hi).
// Values outside the range are counted in Underflow/Overflow; NaNs are rejected.
func Build(values []float64, lo, hi float64, bins int) (stats.Histogram, error) {
	if bins < 1 {
		return stats.Histogram{}, fmt.Errorf("%w: bins must be >= 1, got %d", core.ErrInvalidHistogram, bins)
	}
	if !(hi > lo) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return stats.Histogram{}, fmt.Errorf("%w: range [%g, %g) is empty", core.ErrInvalidHistogram, lo, hi)
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)
	edges[bins] = hi

	return BuildWithEdges(values, edges)
}

// BuildWithEdges bins values using explicit, strictly increasing edges
func BuildWithEdges(values, edges []float64) (stats.Histogram, error) {
	h := stats.Histogram{Edges: append([]float64(nil), edges...)}
	if len(edges) >= 2 {
		h.Counts = make([]int, len(edges)-1)
	}
	if err := h.Validate(); err != nil {
		return stats.Histogram{}, err
	}

	lo, hi := edges[0], edges[len(edges)-1]
	inside := make([]float64, 0, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v):
			return stats.Histogram{}, fmt.Errorf("%w: NaN value at index %d", core.ErrInvalidHistogram, i)
		case v < lo:
			h.Underflow++
		case v >= hi:
			h.Overflow++
		default:
			inside = append(inside, v)
		}
	}
	sort.Float64s(inside)

	counts := stat.Histogram(nil, edges, inside, nil)
	for i, c := range counts {
		h.Counts[i] = int(c)
	}
	return h, nil
}
