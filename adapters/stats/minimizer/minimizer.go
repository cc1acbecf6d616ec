// Package minimizer implements ports.Minimizer on top of gonum/optimize.
//
// Free parameters are minimized in scaled coordinates u = (x-start)/step so
// that parameters of very different magnitude share one set of tolerances.
// Standard errors come from the inverse of the finite-difference Hessian at
// the minimum, scaled by the error definition Up.
package minimizer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"gofit/domain/core"
	"gofit/ports"
)

// Method selects the primary optimization algorithm
type Method string

const (
	MethodBFGS       Method = "bfgs"
	MethodNelderMead Method = "nelder-mead"
)

const (
	// DefaultUp is the error definition for chi-square and -2lnL costs
	DefaultUp = 1.0

	defaultMaxIterations = 10000
	hessianStep          = 1e-3
)

// Config holds minimizer settings
type Config struct {
	Method        Method
	Up            float64
	MaxIterations int
	// Fallback retries with Nelder-Mead when the primary method fails
	Fallback bool
}

// DefaultConfig returns BFGS with a Nelder-Mead fallback and Up=1
func DefaultConfig() Config {
	return Config{
		Method:        MethodBFGS,
		Up:            DefaultUp,
		MaxIterations: defaultMaxIterations,
		Fallback:      true,
	}
}

// Minimizer is a gonum-backed ports.Minimizer
type Minimizer struct {
	cfg Config
}

var _ ports.Minimizer = (*Minimizer)(nil)

// New creates a minimizer, filling unset fields from DefaultConfig
func New(cfg Config) *Minimizer {
	def := DefaultConfig()
	if cfg.Method == "" {
		cfg.Method = def.Method
	}
	if !(cfg.Up > 0) {
		cfg.Up = def.Up
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	return &Minimizer{cfg: cfg}
}

// Default returns a minimizer with DefaultConfig
func Default() *Minimizer {
	return New(DefaultConfig())
}

// Minimize finds the parameter values minimizing cost.
// Fixed parameters stay at Start and report a zero error.
func (m *Minimizer) Minimize(cost ports.CostFunc, params []ports.Parameter) (*ports.MinimizerResult, error) {
	if cost == nil {
		return nil, core.NewValidationError("cost", "cost function is required")
	}
	if err := validateParameters(params); err != nil {
		return nil, err
	}

	sp := newScaledProblem(cost, params)

	result := &ports.MinimizerResult{
		Names:  make([]string, len(params)),
		Values: make([]float64, len(params)),
		Errors: make([]float64, len(params)),
	}
	for i, p := range params {
		result.Names[i] = p.Name
	}

	if len(sp.free) == 0 {
		copy(result.Values, sp.full(nil))
		result.Cost = sp.eval(nil)
		result.Converged = true
		result.Evaluations = sp.evaluations
		return result, nil
	}

	uMin, fMin, converged, err := m.optimize(sp)
	if err != nil {
		return nil, err
	}

	errs, err := m.parameterErrors(sp, uMin)
	if err != nil {
		return nil, err
	}

	copy(result.Values, sp.full(uMin))
	for k, idx := range sp.free {
		result.Errors[idx] = errs[k]
	}
	result.Cost = fMin
	result.Converged = converged
	result.Evaluations = sp.evaluations
	return result, nil
}

func (m *Minimizer) optimize(sp *scaledProblem) ([]float64, float64, bool, error) {
	u0 := make([]float64, len(sp.free))

	res, err := optimize.Minimize(sp.problem(m.cfg.Method), u0, m.settings(), m.method(m.cfg.Method))
	if err == nil && res != nil && !res.Status.Early() {
		return res.X, res.F, true, nil
	}
	if !m.cfg.Fallback || m.cfg.Method == MethodNelderMead {
		if res == nil {
			return nil, 0, false, fmt.Errorf("%w: %v", core.ErrNotConverged, err)
		}
		return res.X, res.F, false, nil
	}

	// restart from the best point reached so far
	start := u0
	if res != nil && !math.IsNaN(res.F) && !math.IsInf(res.F, 0) {
		start = res.X
	}
	fb, fbErr := optimize.Minimize(sp.problem(MethodNelderMead), start, m.settings(), m.method(MethodNelderMead))
	if fb == nil {
		return nil, 0, false, fmt.Errorf("%w: %v", core.ErrNotConverged, fbErr)
	}
	return fb.X, fb.F, fbErr == nil && !fb.Status.Early(), nil
}

func (m *Minimizer) settings() *optimize.Settings {
	return &optimize.Settings{
		MajorIterations:   m.cfg.MaxIterations,
		GradientThreshold: 1e-9,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 50,
		},
	}
}

func (m *Minimizer) method(method Method) optimize.Method {
	switch method {
	case MethodNelderMead:
		return &optimize.NelderMead{SimplexSize: 1}
	default:
		return &optimize.BFGS{}
	}
}

// parameterErrors returns sqrt(2*Up*diag(H^-1)) mapped back to parameter units
func (m *Minimizer) parameterErrors(sp *scaledProblem, u []float64) ([]float64, error) {
	n := len(u)
	var hess mat.SymDense
	fd.Hessian(&hess, sp.eval, u, &fd.Settings{Formula: fd.Central, Step: hessianStep})

	var chol mat.Cholesky
	if ok := chol.Factorize(&hess); !ok {
		return nil, fmt.Errorf("%w: Hessian at minimum is not positive definite", core.ErrUndefinedUncertainty)
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUndefinedUncertainty, err)
	}

	out := make([]float64, n)
	for k := 0; k < n; k++ {
		v := 2 * m.cfg.Up * cov.At(k, k)
		if !(v > 0) {
			return nil, fmt.Errorf("%w: variance %g for %s", core.ErrUndefinedUncertainty, v, sp.params[sp.free[k]].Name)
		}
		out[k] = math.Sqrt(v) * sp.steps[k]
	}
	return out, nil
}

func validateParameters(params []ports.Parameter) error {
	if len(params) == 0 {
		return core.NewValidationError("parameters", "at least one parameter is required")
	}
	seen := make(map[string]bool, len(params))
	for i, p := range params {
		if p.Name == "" {
			return core.NewValidationError("parameters", fmt.Sprintf("parameter %d has no name", i))
		}
		if seen[p.Name] {
			return core.NewValidationError("parameters", fmt.Sprintf("duplicate parameter %q", p.Name))
		}
		seen[p.Name] = true
		if math.IsNaN(p.Start) || math.IsInf(p.Start, 0) {
			return core.NewValidationError(p.Name, "start value must be finite")
		}
		if p.Step < 0 || math.IsNaN(p.Step) || math.IsInf(p.Step, 0) {
			return core.NewValidationError(p.Name, fmt.Sprintf("invalid step %g", p.Step))
		}
	}
	return nil
}
