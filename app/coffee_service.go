package app

import (
	"context"
	"fmt"

	"gofit/adapters/stats/lsq"
	"gofit/domain/core"
	"gofit/domain/stats"
	"gofit/internal"
	"gofit/internal/datasets"
	"gofit/ports"
)

// CoffeeRequest configures the coffee-machine usage fit
type CoffeeRequest struct {
	// Sigma is the reading uncertainty in cups
	Sigma      float64 `json:"sigma" yaml:"sigma"`
	WindowLow  float64 `json:"window_low" yaml:"window_low"`
	WindowHigh float64 `json:"window_high" yaml:"window_high"`
	// DataFile replaces the built-in readings with an xlsx or csv table
	DataFile string `json:"data_file,omitempty" yaml:"data_file,omitempty"`
}

// DefaultCoffeeRequest fits the steady period 60 < day < 105 with 2-cup readings
func DefaultCoffeeRequest() CoffeeRequest {
	return CoffeeRequest{
		Sigma:      datasets.DefaultCoffeeSigma,
		WindowLow:  datasets.CoffeeWindowLow,
		WindowHigh: datasets.CoffeeWindowHigh,
	}
}

// WithDefaults fills zero-valued fields from DefaultCoffeeRequest
func (r CoffeeRequest) WithDefaults() CoffeeRequest {
	def := DefaultCoffeeRequest()
	if r.Sigma == 0 {
		r.Sigma = def.Sigma
	}
	if r.WindowLow == 0 && r.WindowHigh == 0 {
		r.WindowLow, r.WindowHigh = def.WindowLow, def.WindowHigh
	}
	return r
}

// Validate checks the request
func (r CoffeeRequest) Validate() error {
	if !(r.Sigma > 0) {
		return core.NewValidationError("sigma", "reading uncertainty must be positive")
	}
	if !(r.WindowHigh > r.WindowLow) {
		return core.NewValidationError("window", fmt.Sprintf("window_high %g must exceed window_low %g", r.WindowHigh, r.WindowLow))
	}
	return nil
}

// Params returns the request as a flat map for config hashing
func (r CoffeeRequest) Params() map[string]interface{} {
	return map[string]interface{}{
		"sigma":       r.Sigma,
		"window_low":  r.WindowLow,
		"window_high": r.WindowHigh,
		"data_file":   r.DataFile,
	}
}

// CoffeeResult is the straight-line fit of cups against days
type CoffeeResult struct {
	Request      CoffeeRequest       `json:"request"`
	Observations []stats.Observation `json:"observations"`
	ClosedForm   lsq.LinearFit       `json:"closed_form"`
	Fit          *lsq.FitResult      `json:"fit"`
	Slope        stats.Estimate      `json:"slope"`     // cups per day
	Intercept    stats.Estimate      `json:"intercept"` // counter reading at day 0
	Pulls        []float64           `json:"pulls"`
}

// CoffeeService fits the daily coffee consumption
type CoffeeService struct {
	minimizer ports.Minimizer
	reader    ports.ObservationReader
	logger    *internal.Logger
}

// NewCoffeeService creates the service; reader may be nil when only the
// built-in readings are used
func NewCoffeeService(minimizer ports.Minimizer, reader ports.ObservationReader, logger *internal.Logger) *CoffeeService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CoffeeService{minimizer: minimizer, reader: reader, logger: logger}
}

func (s *CoffeeService) observations(ctx context.Context, req CoffeeRequest) (stats.ObservationSet, error) {
	if req.DataFile == "" {
		return datasets.CoffeeObservations(req.Sigma)
	}
	if s.reader == nil {
		return stats.ObservationSet{}, core.NewValidationError("data_file", "no observation reader configured")
	}
	return s.reader.ReadObservations(ctx, req.DataFile)
}

// Run restricts the readings to the window and fits cups = intercept + slope*day.
// The closed-form weighted solution seeds the minimizer.
func (s *CoffeeService) Run(ctx context.Context, req CoffeeRequest) (*CoffeeResult, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	all, err := s.observations(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("load readings: %w", err)
	}
	window := datasets.InWindow(all, req.WindowLow, req.WindowHigh)
	s.logger.Debug("coffee fit: %d of %d readings in (%g, %g)", window.Len(), all.Len(), req.WindowLow, req.WindowHigh)

	closed, err := lsq.WeightedLinearFit(window)
	if err != nil {
		return nil, fmt.Errorf("closed-form fit: %w", err)
	}
	fit, err := lsq.ChiSquareFit(window, lsq.LinearModel{}, lsq.LinearStart(closed), s.minimizer)
	if err != nil {
		return nil, err
	}
	if !fit.Params.Converged {
		return nil, fmt.Errorf("coffee fit: %w", core.ErrNotConverged)
	}

	return &CoffeeResult{
		Request:      req,
		Observations: window.Observations(),
		ClosedForm:   closed,
		Fit:          fit,
		Slope:        minimizerEstimate(fit.Params, 1),
		Intercept:    minimizerEstimate(fit.Params, 0),
		Pulls:        lsq.Pulls(window, lsq.LinearModel{}, fit.Params.Values),
	}, nil
}

func minimizerEstimate(res ports.MinimizerResult, i int) stats.Estimate {
	return stats.Estimate{
		Value:   res.Values[i],
		ErrLow:  res.Errors[i],
		ErrHigh: res.Errors[i],
		Method:  stats.MethodMinimizer,
	}
}
