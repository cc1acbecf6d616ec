package minimizer

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"gofit/ports"
)

// scaledProblem maps free-parameter offsets u onto the full parameter vector
type scaledProblem struct {
	cost        ports.CostFunc
	params      []ports.Parameter
	free        []int
	steps       []float64
	evaluations int
}

func newScaledProblem(cost ports.CostFunc, params []ports.Parameter) *scaledProblem {
	sp := &scaledProblem{cost: cost, params: params}
	for i, p := range params {
		if p.Fixed {
			continue
		}
		sp.free = append(sp.free, i)
		sp.steps = append(sp.steps, stepFor(p))
	}
	return sp
}

// stepFor falls back to 10% of the start value, or 0.1 for a zero start
func stepFor(p ports.Parameter) float64 {
	if p.Step > 0 {
		return p.Step
	}
	if p.Start != 0 {
		return 0.1 * math.Abs(p.Start)
	}
	return 0.1
}

func (sp *scaledProblem) full(u []float64) []float64 {
	x := make([]float64, len(sp.params))
	for i, p := range sp.params {
		x[i] = p.Start
	}
	for k, idx := range sp.free {
		if u != nil {
			x[idx] += u[k] * sp.steps[k]
		}
	}
	return x
}

func (sp *scaledProblem) eval(u []float64) float64 {
	sp.evaluations++
	v := sp.cost(sp.full(u))
	if math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}

func (sp *scaledProblem) problem(method Method) optimize.Problem {
	p := optimize.Problem{Func: sp.eval}
	if method == MethodBFGS {
		p.Grad = func(grad, u []float64) {
			fd.Gradient(grad, sp.eval, u, &fd.Settings{Formula: fd.Central})
		}
	}
	return p
}
