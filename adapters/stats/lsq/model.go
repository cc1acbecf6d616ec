// Package lsq fits models to (x, y, σy) observations by minimizing
// Σ((y-f(x))/σ)².
package lsq

// Model is a curve y = f(x; params)
type Model interface {
	Name() string
	ParamNames() []string
	Eval(x float64, params []float64) float64
}

// FuncModel adapts a plain function to Model
type FuncModel struct {
	Label  string
	Params []string
	Fn     func(x float64, params []float64) float64
}

func (m FuncModel) Name() string                             { return m.Label }
func (m FuncModel) ParamNames() []string                     { return m.Params }
func (m FuncModel) Eval(x float64, params []float64) float64 { return m.Fn(x, params) }

// LinearModel is y = intercept + slope*x
type LinearModel struct{}

func (LinearModel) Name() string         { return "linear" }
func (LinearModel) ParamNames() []string { return []string{"intercept", "slope"} }

func (LinearModel) Eval(x float64, params []float64) float64 {
	return params[0] + params[1]*x
}

// EvalAll evaluates a model element-wise
func EvalAll(m Model, xs []float64, params []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = m.Eval(x, params)
	}
	return out
}
