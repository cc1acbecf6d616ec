package uncertainty

import (
	"fmt"

	"gofit/domain/core"
	"gofit/domain/stats"
)

// DefaultDelta is the score rise that defines the 1-sigma band
const DefaultDelta = 1.0

// ThresholdOptions controls the direct band search
type ThresholdOptions struct {
	// Delta is the rise above the minimum score that ends the band
	Delta float64
	// Interpolate places each crossing linearly between the last grid point
	// inside the band and the first outside. When false the first grid point
	// outside the band is reported.
	Interpolate bool
}

// DefaultThresholdOptions returns Delta=1 with interpolation
func DefaultThresholdOptions() ThresholdOptions {
	return ThresholdOptions{Delta: DefaultDelta, Interpolate: true}
}

// ThresholdScan finds the 1-sigma band with default options
func ThresholdScan(curve stats.ScoreCurve) (stats.UncertaintyBand, error) {
	return ThresholdScanWith(curve, DefaultThresholdOptions())
}

// ThresholdScanWith walks outward from the grid minimum in both directions
// over the whole curve and stops at the first points whose score exceeds
// min+Delta. Both curve boundaries must exceed min+Delta; the band is never
// extrapolated past the grid.
func ThresholdScanWith(curve stats.ScoreCurve, opts ThresholdOptions) (stats.UncertaintyBand, error) {
	n := curve.Len()
	if n < 3 {
		return stats.UncertaintyBand{}, core.NewInsufficientDataError(n, 3)
	}
	if !(opts.Delta > 0) {
		return stats.UncertaintyBand{}, core.NewValidationError("delta", fmt.Sprintf("must be positive, got %g", opts.Delta))
	}

	pts := curve.Points
	min := curve.Min()
	threshold := min.Score + opts.Delta

	if !(pts[0].Score > threshold) || !(pts[n-1].Score > threshold) {
		return stats.UncertaintyBand{}, fmt.Errorf("%w: boundary scores %g and %g must exceed %g",
			core.ErrRangeInsufficient, pts[0].Score, pts[n-1].Score, threshold)
	}

	lower := pts[0].Hypothesis
	for i := curve.MinIndex - 1; i >= 0; i-- {
		if pts[i].Score > threshold {
			lower = crossing(pts[i], pts[i+1], threshold, opts.Interpolate)
			break
		}
	}

	upper := pts[n-1].Hypothesis
	for i := curve.MinIndex + 1; i < n; i++ {
		if pts[i].Score > threshold {
			upper = crossing(pts[i], pts[i-1], threshold, opts.Interpolate)
			break
		}
	}

	band := stats.UncertaintyBand{Center: min.Hypothesis, Lower: lower, Upper: upper}
	if !band.Brackets() {
		return stats.UncertaintyBand{}, fmt.Errorf("%w: band [%g, %g] does not bracket %g",
			core.ErrRangeInsufficient, band.Lower, band.Upper, band.Center)
	}
	return band, nil
}

// crossing locates the threshold between an outside point and its inside neighbour
func crossing(outside, inside stats.ScorePoint, threshold float64, interpolate bool) float64 {
	if !interpolate || outside.Score == inside.Score {
		return outside.Hypothesis
	}
	frac := (threshold - inside.Score) / (outside.Score - inside.Score)
	return inside.Hypothesis + frac*(outside.Hypothesis-inside.Hypothesis)
}

// FromBand converts a band into an estimate
func FromBand(band stats.UncertaintyBand) stats.Estimate {
	return stats.Estimate{
		Value:   band.Center,
		ErrLow:  band.ErrLow(),
		ErrHigh: band.ErrHigh(),
		Method:  stats.MethodThresholdScan,
	}
}
