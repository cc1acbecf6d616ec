package lsq

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"gofit/domain/core"
	"gofit/domain/stats"
	"gofit/ports"
)

// FitResult is a χ² minimization outcome
type FitResult struct {
	Model       string                `json:"model"`
	Params      ports.MinimizerResult `json:"params"`
	Chi2        float64               `json:"chi2"`
	Ndof        int                   `json:"ndof"`
	Chi2PerNdof float64               `json:"chi2_per_ndof"`
	Probability float64               `json:"probability"`
	Points      int                   `json:"points"`
}

// ChiSquare returns Σ((y-f(x))/σ)² at the given parameters
func ChiSquare(obs stats.ObservationSet, m Model, params []float64) float64 {
	chi2 := 0.0
	for i := 0; i < obs.Len(); i++ {
		o := obs.At(i)
		r := (o.Y - m.Eval(o.X, params)) / o.SigmaY
		chi2 += r * r
	}
	return chi2
}

// Pulls returns the normalized residuals (y-f(x))/σ
func Pulls(obs stats.ObservationSet, m Model, params []float64) []float64 {
	out := make([]float64, obs.Len())
	for i := range out {
		o := obs.At(i)
		out[i] = (o.Y - m.Eval(o.X, params)) / o.SigmaY
	}
	return out
}

// ChiSquareFit minimizes χ² over the free parameters.
// params must follow the order of m.ParamNames().
func ChiSquareFit(obs stats.ObservationSet, m Model, params []ports.Parameter, fitter ports.Minimizer) (*FitResult, error) {
	names := m.ParamNames()
	if len(params) != len(names) {
		return nil, core.NewValidationError("parameters", fmt.Sprintf("model %s takes %d parameters, got %d", m.Name(), len(names), len(params)))
	}
	free := 0
	for i, p := range params {
		if p.Name != names[i] {
			return nil, core.NewValidationError("parameters", fmt.Sprintf("parameter %d is %q, model expects %q", i, p.Name, names[i]))
		}
		if !p.Fixed {
			free++
		}
	}
	ndof := obs.Len() - free
	if ndof < 1 {
		return nil, core.NewInsufficientDataError(obs.Len(), free+1)
	}

	res, err := fitter.Minimize(func(p []float64) float64 { return ChiSquare(obs, m, p) }, params)
	if err != nil {
		return nil, fmt.Errorf("chi-square fit of %s: %w", m.Name(), err)
	}

	chi2 := res.Cost
	return &FitResult{
		Model:       m.Name(),
		Params:      *res,
		Chi2:        chi2,
		Ndof:        ndof,
		Chi2PerNdof: chi2 / float64(ndof),
		Probability: distuv.ChiSquared{K: float64(ndof)}.Survival(chi2),
		Points:      obs.Len(),
	}, nil
}

// LinearStart turns a closed-form fit into minimizer starting parameters
func LinearStart(fit LinearFit) []ports.Parameter {
	return []ports.Parameter{
		{Name: "intercept", Start: fit.Intercept, Step: fit.InterceptErr},
		{Name: "slope", Start: fit.Slope, Step: fit.SlopeErr},
	}
}
