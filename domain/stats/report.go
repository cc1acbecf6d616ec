package stats

// StepFailure records a computation inside a larger run that failed on its own
type StepFailure struct {
	Step  string `json:"step"`
	Error string `json:"error"`
}

// ScanReport is the outcome of one likelihood or chi-square scan.
// Fit, AsymmetricFit and Band are nil when their step failed; the
// failure is listed in Failures instead.
type ScanReport struct {
	Evaluator     string                  `json:"evaluator"`
	Density       string                  `json:"density"`
	Truth         float64                 `json:"truth"`
	Events        int                     `json:"events"`
	Histogram     *Histogram              `json:"histogram,omitempty"`
	Curve         ScoreCurve              `json:"curve"`
	Fit           *QuadraticFit           `json:"fit,omitempty"`
	AsymmetricFit *AsymmetricQuadraticFit `json:"asymmetric_fit,omitempty"`
	Band          *UncertaintyBand        `json:"band,omitempty"`
	Estimates     []Estimate              `json:"estimates"`
	Failures      []StepFailure           `json:"failures,omitempty"`
}

// Estimate returns the estimate produced by the given method
func (r *ScanReport) Estimate(method EstimateMethod) (Estimate, bool) {
	for _, e := range r.Estimates {
		if e.Method == method {
			return e, true
		}
	}
	return Estimate{}, false
}

// Fail records a failed step
func (r *ScanReport) Fail(step string, err error) {
	r.Failures = append(r.Failures, StepFailure{Step: step, Error: err.Error()})
}
