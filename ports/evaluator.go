package ports

// Evaluator scores a single hypothesis value against a fixed data set.
// Implementations are pure functions of (data, hypothesis).
type Evaluator interface {
	Name() string
	Score(hypothesis float64) (float64, error)
}

// CostFunc is a multi-parameter objective handed to a Minimizer
type CostFunc func(params []float64) float64

// Parameter describes a single minimizer parameter
type Parameter struct {
	Name  string  `json:"name" yaml:"name"`
	Start float64 `json:"start" yaml:"start"`
	Step  float64 `json:"step,omitempty" yaml:"step,omitempty"` // initial step / scale hint
	Fixed bool    `json:"fixed,omitempty" yaml:"fixed,omitempty"`
}

// MinimizerResult is what callers need back from the external minimizer
type MinimizerResult struct {
	Names       []string  `json:"names"`
	Values      []float64 `json:"values"`
	Errors      []float64 `json:"errors"`
	Cost        float64   `json:"cost"`
	Converged   bool      `json:"converged"`
	Evaluations int       `json:"evaluations"`
}

// Value returns the best-fit value of a named parameter
func (r MinimizerResult) Value(name string) (float64, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Values[i], true
		}
	}
	return 0, false
}

// Error returns the standard error of a named parameter
func (r MinimizerResult) Error(name string) (float64, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Errors[i], true
		}
	}
	return 0, false
}

// Minimizer is the general nonlinear minimizer the fits delegate to
type Minimizer interface {
	Minimize(cost CostFunc, params []Parameter) (*MinimizerResult, error)
}
