package stats

import (
	"fmt"
	"math"

	"gofit/domain/core"
)

// ============================================================================
// OBSERVATIONS
// ============================================================================

// Observation is a single (x, y, σy) measurement
type Observation struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	SigmaY float64 `json:"sigma_y"`
}

// ObservationSet is an ordered, immutable sequence of observations.
// The constructor copies its input and the accessors copy out.
type ObservationSet struct {
	obs []Observation
}

// NewObservationSet validates and copies the observations
func NewObservationSet(obs []Observation) (ObservationSet, error) {
	out := make([]Observation, len(obs))
	for i, o := range obs {
		if math.IsNaN(o.X) || math.IsNaN(o.Y) {
			return ObservationSet{}, core.NewValidationError("observation", fmt.Sprintf("NaN at index %d", i))
		}
		if o.SigmaY <= 0 {
			return ObservationSet{}, core.NewValidationError("observation", fmt.Sprintf("non-positive uncertainty %g at index %d", o.SigmaY, i))
		}
		out[i] = o
	}
	return ObservationSet{obs: out}, nil
}

// Len returns the number of observations
func (s ObservationSet) Len() int { return len(s.obs) }

// At returns the i-th observation
func (s ObservationSet) At(i int) Observation { return s.obs[i] }

// Observations returns a copy of the underlying slice
func (s ObservationSet) Observations() []Observation {
	out := make([]Observation, len(s.obs))
	copy(out, s.obs)
	return out
}

// Columns splits the set into parallel x, y, σy slices
func (s ObservationSet) Columns() (x, y, sigma []float64) {
	x = make([]float64, len(s.obs))
	y = make([]float64, len(s.obs))
	sigma = make([]float64, len(s.obs))
	for i, o := range s.obs {
		x[i], y[i], sigma[i] = o.X, o.Y, o.SigmaY
	}
	return x, y, sigma
}

// Filter returns the observations for which keep returns true
func (s ObservationSet) Filter(keep func(Observation) bool) ObservationSet {
	var out []Observation
	for _, o := range s.obs {
		if keep(o) {
			out = append(out, o)
		}
	}
	return ObservationSet{obs: out}
}

// Events is an unbinned sample of scalar event values
type Events []float64

// ============================================================================
// HISTOGRAM
// ============================================================================

// Histogram is a binned view of an event sample.
// INVARIANTS:
// - len(Edges) == len(Counts) + 1
// - Edges strictly increasing
// - Counts non-negative
type Histogram struct {
	Edges     []float64 `json:"edges"`
	Counts    []int     `json:"counts"`
	Underflow int       `json:"underflow"`
	Overflow  int       `json:"overflow"`
}

// Validate checks the histogram invariants
func (h Histogram) Validate() error {
	if len(h.Counts) == 0 {
		return fmt.Errorf("%w: no bins", core.ErrInvalidHistogram)
	}
	if len(h.Edges) != len(h.Counts)+1 {
		return fmt.Errorf("%w: %d edges for %d bins", core.ErrInvalidHistogram, len(h.Edges), len(h.Counts))
	}
	for i := 1; i < len(h.Edges); i++ {
		if !(h.Edges[i] > h.Edges[i-1]) {
			return fmt.Errorf("%w: edges not strictly increasing at index %d", core.ErrInvalidHistogram, i)
		}
	}
	for i, c := range h.Counts {
		if c < 0 {
			return fmt.Errorf("%w: negative count %d in bin %d", core.ErrInvalidHistogram, c, i)
		}
	}
	return nil
}

// Bins returns the number of bins
func (h Histogram) Bins() int { return len(h.Counts) }

// Total returns the number of entries inside the histogram range
func (h Histogram) Total() int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// Centers returns the bin mid-points
func (h Histogram) Centers() []float64 {
	out := make([]float64, len(h.Counts))
	for i := range h.Counts {
		out[i] = 0.5 * (h.Edges[i] + h.Edges[i+1])
	}
	return out
}

// Widths returns the bin widths
func (h Histogram) Widths() []float64 {
	out := make([]float64, len(h.Counts))
	for i := range h.Counts {
		out[i] = h.Edges[i+1] - h.Edges[i]
	}
	return out
}

// ============================================================================
// GRID AND SCORE CURVE
// ============================================================================

// Grid is a strictly increasing sequence of hypothesis values (len >= 2)
type Grid []float64

// Validate checks the grid invariants
func (g Grid) Validate() error {
	if len(g) < 2 {
		return fmt.Errorf("%w: need at least 2 points, got %d", core.ErrInvalidGrid, len(g))
	}
	for i := 1; i < len(g); i++ {
		if !(g[i] > g[i-1]) {
			return fmt.Errorf("%w: not strictly increasing at index %d", core.ErrInvalidGrid, i)
		}
	}
	return nil
}

// ScorePoint is a single (hypothesis, score) evaluation
type ScorePoint struct {
	Hypothesis float64 `json:"hypothesis"`
	Score      float64 `json:"score"`
}

// ScoreCurve holds one score per grid point and the index of the first minimum
type ScoreCurve struct {
	Evaluator string       `json:"evaluator"`
	Points    []ScorePoint `json:"points"`
	MinIndex  int          `json:"min_index"`
}

// Len returns the number of points
func (c ScoreCurve) Len() int { return len(c.Points) }

// Min returns the minimum point of the curve
func (c ScoreCurve) Min() ScorePoint { return c.Points[c.MinIndex] }

// Hypotheses returns the hypothesis values
func (c ScoreCurve) Hypotheses() []float64 {
	out := make([]float64, len(c.Points))
	for i, p := range c.Points {
		out[i] = p.Hypothesis
	}
	return out
}

// Scores returns the score values
func (c ScoreCurve) Scores() []float64 {
	out := make([]float64, len(c.Points))
	for i, p := range c.Points {
		out[i] = p.Score
	}
	return out
}

// Window returns the points in [MinIndex-lowWidth, MinIndex+highWidth], clipped to the curve
func (c ScoreCurve) Window(lowWidth, highWidth int) []ScorePoint {
	if len(c.Points) == 0 || lowWidth < 0 || highWidth < 0 {
		return nil
	}
	lo := c.MinIndex - lowWidth
	if lo < 0 {
		lo = 0
	}
	hi := c.MinIndex + highWidth
	if hi > len(c.Points)-1 {
		hi = len(c.Points) - 1
	}
	out := make([]ScorePoint, hi-lo+1)
	copy(out, c.Points[lo:hi+1])
	return out
}

// ============================================================================
// FIT RESULTS
// ============================================================================

// QuadraticFit is score(x) = MinValue + Curvature*(x-MinPosition)^2
type QuadraticFit struct {
	MinValue    float64 `json:"min_value"`
	MinPosition float64 `json:"min_position"`
	Curvature   float64 `json:"curvature"`
	Points      int     `json:"points"`
}

// Eval evaluates the fitted parabola at x
func (q QuadraticFit) Eval(x float64) float64 {
	d := x - q.MinPosition
	return q.MinValue + q.Curvature*d*d
}

// EvalAll evaluates the fitted parabola element-wise
func (q QuadraticFit) EvalAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = q.Eval(x)
	}
	return out
}

// AsymmetricQuadraticFit uses CurvatureLow below MinPosition and CurvatureHigh at or above it
type AsymmetricQuadraticFit struct {
	MinValue      float64 `json:"min_value"`
	MinPosition   float64 `json:"min_position"`
	CurvatureLow  float64 `json:"curvature_low"`
	CurvatureHigh float64 `json:"curvature_high"`
	Points        int     `json:"points"`
}

// Eval evaluates the piecewise parabola at x; continuous at MinPosition
func (q AsymmetricQuadraticFit) Eval(x float64) float64 {
	d := x - q.MinPosition
	if x < q.MinPosition {
		return q.MinValue + q.CurvatureLow*d*d
	}
	return q.MinValue + q.CurvatureHigh*d*d
}

// EvalAll evaluates the piecewise parabola element-wise
func (q AsymmetricQuadraticFit) EvalAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = q.Eval(x)
	}
	return out
}

// UncertaintyBand is the interval where the score stays within min+1
type UncertaintyBand struct {
	Center float64 `json:"center"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
}

// ErrLow is the distance from the lower crossing to the center
func (b UncertaintyBand) ErrLow() float64 { return b.Center - b.Lower }

// ErrHigh is the distance from the center to the upper crossing
func (b UncertaintyBand) ErrHigh() float64 { return b.Upper - b.Center }

// Symmetric is the mean of the two half-widths
func (b UncertaintyBand) Symmetric() float64 { return 0.5 * (b.Upper - b.Lower) }

// Brackets reports whether Lower < Center < Upper
func (b UncertaintyBand) Brackets() bool { return b.Lower < b.Center && b.Center < b.Upper }

// EstimateMethod names how an estimate was derived
type EstimateMethod string

const (
	MethodParabola           EstimateMethod = "parabola"
	MethodAsymmetricParabola EstimateMethod = "asymmetric_parabola"
	MethodThresholdScan      EstimateMethod = "threshold_scan"
	MethodMinimizer          EstimateMethod = "minimizer"
)

// Estimate is a point estimate with (possibly asymmetric) errors
type Estimate struct {
	Value   float64        `json:"value"`
	ErrLow  float64        `json:"err_low"`
	ErrHigh float64        `json:"err_high"`
	Method  EstimateMethod `json:"method"`
}

// IsSymmetric reports whether both error bars agree to within a relative 1e-9
func (e Estimate) IsSymmetric() bool {
	return math.Abs(e.ErrLow-e.ErrHigh) <= 1e-9*math.Max(math.Abs(e.ErrLow), math.Abs(e.ErrHigh))
}
