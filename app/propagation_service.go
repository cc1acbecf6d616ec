package app

import (
	"context"
	"fmt"

	"gofit/adapters/stats/propagation"
	"gofit/domain/core"
	"gofit/internal"
	"gofit/ports"
)

// Propagated quantities of two inputs x and y
const (
	QuantitySum     = "sum"
	QuantityProduct = "product"
	QuantityRatio   = "ratio"
)

// Quantities lists the supported functions of (x, y)
func Quantities() []string {
	return []string{QuantitySum, QuantityProduct, QuantityRatio}
}

func quantityFunc(name string) (propagation.Func, bool) {
	switch name {
	case QuantitySum:
		return func(x, y float64) float64 { return x + y }, true
	case QuantityProduct:
		return func(x, y float64) float64 { return x * y }, true
	case QuantityRatio:
		return func(x, y float64) float64 { return x / y }, true
	}
	return nil, false
}

// PropagationRequest configures an error propagation comparison
type PropagationRequest struct {
	Inputs     propagation.Config `json:"inputs" yaml:"inputs"`
	Quantities []string           `json:"quantities" yaml:"quantities"`
	Samples    int                `json:"samples" yaml:"samples"`
}

// DefaultPropagationRequest propagates x = 10 ± 1, y = 5 ± 0.5 with rho = 0.5
func DefaultPropagationRequest() PropagationRequest {
	return PropagationRequest{
		Inputs:     propagation.Config{MeanX: 10, SigmaX: 1, MeanY: 5, SigmaY: 0.5, Rho: 0.5},
		Quantities: Quantities(),
		Samples:    100000,
	}
}

// Validate rejects bad inputs before anything is computed
func (r PropagationRequest) Validate() error {
	if err := r.Inputs.Validate(); err != nil {
		return err
	}
	if len(r.Quantities) == 0 {
		return core.NewValidationError("quantities", "at least one is required")
	}
	for _, q := range r.Quantities {
		if _, ok := quantityFunc(q); !ok {
			return core.NewValidationError("quantities", fmt.Sprintf("unknown quantity %q", q))
		}
	}
	if r.Samples < 2 {
		return core.NewValidationError("samples", fmt.Sprintf("need at least 2, got %d", r.Samples))
	}
	return nil
}

// Params returns the request as a flat map for config hashing
func (r PropagationRequest) Params() map[string]interface{} {
	return map[string]interface{}{
		"mean_x":     r.Inputs.MeanX,
		"sigma_x":    r.Inputs.SigmaX,
		"mean_y":     r.Inputs.MeanY,
		"sigma_y":    r.Inputs.SigmaY,
		"rho":        r.Inputs.Rho,
		"quantities": r.Quantities,
		"samples":    r.Samples,
	}
}

// PropagatedQuantity compares both propagation methods for one function
type PropagatedQuantity struct {
	Name       string               `json:"name"`
	Analytic   propagation.Result   `json:"analytic"`
	MonteCarlo propagation.MCResult `json:"monte_carlo"`
	// Agreement is the Monte Carlo width over the analytic width, zero when the analytic width vanishes
	Agreement float64 `json:"agreement"`
}

// PropagationResult holds every propagated quantity
type PropagationResult struct {
	Request    PropagationRequest   `json:"request"`
	Quantities []PropagatedQuantity `json:"quantities"`
}

// PropagationService compares first-order and Monte Carlo propagation
type PropagationService struct {
	rng    ports.RNGPort
	logger *internal.Logger
}

// NewPropagationService creates the service
func NewPropagationService(rng ports.RNGPort, logger *internal.Logger) *PropagationService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &PropagationService{rng: rng, logger: logger}
}

// Run propagates every requested quantity. Each quantity draws from its own stream.
func (s *PropagationService) Run(ctx context.Context, seed int64, req PropagationRequest) (*PropagationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res := &PropagationResult{Request: req}
	for _, name := range req.Quantities {
		f, _ := quantityFunc(name)

		analytic, err := propagation.Analytic(f, req.Inputs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		rng, err := s.rng.SeededStream(ctx, "propagation/"+name, seed)
		if err != nil {
			return nil, err
		}
		mc, err := propagation.MonteCarlo(ctx, f, req.Inputs, req.Samples, rng)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		q := PropagatedQuantity{Name: name, Analytic: analytic, MonteCarlo: mc, }
		if analytic.Sigma > 0 {
			q.Agreement = mc.StdDev / analytic.Sigma
		}
		s.logger.Debug("propagated %s: analytic σ=%g, monte carlo σ=%g", name, analytic.Sigma, mc.StdDev)
		res.Quantities = append(res.Quantities, q)
	}
	return res, nil
}
