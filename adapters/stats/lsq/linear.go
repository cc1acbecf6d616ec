package lsq

import (
	"math"

	"gofit/domain/core"
	"gofit/domain/stats"
)

// LinearFit is the closed-form weighted straight-line solution
type LinearFit struct {
	Intercept    float64 `json:"intercept"`
	Slope        float64 `json:"slope"`
	InterceptErr float64 `json:"intercept_err"`
	SlopeErr     float64 `json:"slope_err"`
}

// WeightedLinearFit solves y = a + b*x with weights 1/σ².
// Used directly and as the starting point for iterative fits.
func WeightedLinearFit(obs stats.ObservationSet) (LinearFit, error) {
	if obs.Len() < 2 {
		return LinearFit{}, core.NewInsufficientDataError(obs.Len(), 2)
	}
	x, y, sigma := obs.Columns()
	w := make([]float64, len(sigma))
	var s, sx, sy, sxx, sxy float64
	for i, sg := range sigma {
		w[i] = 1 / (sg * sg)
		s += w[i]
		sx += w[i] * x[i]
		sy += w[i] * y[i]
		sxx += w[i] * x[i] * x[i]
		sxy += w[i] * x[i] * y[i]
	}
	delta := s*sxx - sx*sx
	if !(delta > 0) {
		return LinearFit{}, core.NewValidationError("observations", "x values do not span a range")
	}

	// solved directly; the result must not depend on how the weights are normalized
	return LinearFit{
		Intercept:    (sxx*sy - sx*sxy) / delta,
		Slope:        (s*sxy - sx*sy) / delta,
		InterceptErr: math.Sqrt(sxx / delta),
		SlopeErr:     math.Sqrt(s / delta),
	}, nil
}
