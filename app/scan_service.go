package app

import (
	"context"
	"fmt"

	"gofit/adapters/stats/gof"
	"gofit/adapters/stats/histogram"
	"gofit/adapters/stats/models"
	"gofit/adapters/stats/parabola"
	"gofit/adapters/stats/scan"
	"gofit/adapters/stats/uncertainty"
	"gofit/domain/core"
	"gofit/domain/stats"
	"gofit/internal"
	"gofit/internal/datasets"
	"gofit/ports"
)

// ScanRequest configures one likelihood scan. Zero fields take the
// values of DefaultScanRequest, except Truth for a gaussian density.
type ScanRequest struct {
	Evaluator    string  `json:"evaluator" yaml:"evaluator"`
	Density      string  `json:"density" yaml:"density"`
	DensitySigma float64 `json:"density_sigma,omitempty" yaml:"density_sigma,omitempty"`
	Truth        float64 `json:"truth" yaml:"truth"`
	Events       int     `json:"events" yaml:"events"`
	Bins         int     `json:"bins" yaml:"bins"`
	HistLow      float64 `json:"hist_low" yaml:"hist_low"`
	HistHigh     float64 `json:"hist_high" yaml:"hist_high"`
	ScanMin      float64 `json:"scan_min" yaml:"scan_min"`
	ScanMax      float64 `json:"scan_max" yaml:"scan_max"`
	Steps        int     `json:"steps" yaml:"steps"`
	// Window is the number of grid points on each side of the minimum used by the parabola fits
	Window int `json:"window" yaml:"window"`
}

// DefaultScanRequest scans the lifetime of 1000 exponential decays with tau = 1
func DefaultScanRequest() ScanRequest {
	return ScanRequest{
		Evaluator: gof.NameUnbinnedLikelihood,
		Density:   "exponential",
		Truth:     1.0,
		Events:    1000,
		Bins:      50,
		HistLow:   0,
		HistHigh:  5,
		ScanMin:   0.8,
		ScanMax:   1.2,
		Steps:     200,
		Window:    20,
	}
}

// WithDefaults fills zero-valued fields from DefaultScanRequest
func (r ScanRequest) WithDefaults() ScanRequest {
	def := DefaultScanRequest()
	if r.Evaluator == "" {
		r.Evaluator = def.Evaluator
	}
	if r.Density == "" {
		r.Density = def.Density
	}
	// zero is a valid gaussian mean; only the lifetime has no meaningful zero
	if r.Truth == 0 && r.Density == def.Density {
		r.Truth = def.Truth
	}
	if r.Events == 0 {
		r.Events = def.Events
	}
	if r.Bins == 0 {
		r.Bins = def.Bins
	}
	if r.HistLow == 0 && r.HistHigh == 0 {
		r.HistLow, r.HistHigh = def.HistLow, def.HistHigh
	}
	if r.ScanMin == 0 && r.ScanMax == 0 {
		r.ScanMin, r.ScanMax = def.ScanMin, def.ScanMax
	}
	if r.Steps == 0 {
		r.Steps = def.Steps
	}
	if r.Window == 0 {
		r.Window = def.Window
	}
	return r
}

// Validate checks the request before any events are drawn
func (r ScanRequest) Validate() error {
	known := false
	for _, n := range gof.Names() {
		if n == r.Evaluator {
			known = true
		}
	}
	if !known {
		return core.NewValidationError("evaluator", fmt.Sprintf("unknown evaluator %q", r.Evaluator))
	}
	if _, ok := models.ByName(r.Density, r.DensitySigma); !ok {
		return core.NewValidationError("density", fmt.Sprintf("unknown density %q or missing width", r.Density))
	}
	if r.Density == "exponential" && !(r.Truth > 0) {
		return core.NewValidationError("truth", "exponential lifetime must be positive")
	}
	if r.Events < 1 {
		return core.NewValidationError("events", "must be positive")
	}
	if r.Bins < 1 || !(r.HistHigh > r.HistLow) {
		return core.NewValidationError("histogram", fmt.Sprintf("need bins >= 1 and hist_high > hist_low, got %d bins on [%g, %g]", r.Bins, r.HistLow, r.HistHigh))
	}
	if !(r.ScanMax > r.ScanMin) || r.Steps < 2 {
		return core.NewValidationError("scan", fmt.Sprintf("need scan_max > scan_min and steps >= 2, got [%g, %g] in %d steps", r.ScanMin, r.ScanMax, r.Steps))
	}
	if r.Window < 1 {
		return core.NewValidationError("window", "must be at least 1")
	}
	return nil
}

// Params returns the request as a flat map for config hashing
func (r ScanRequest) Params() map[string]interface{} {
	return map[string]interface{}{
		"evaluator":     r.Evaluator,
		"density":       r.Density,
		"density_sigma": r.DensitySigma,
		"truth":         r.Truth,
		"events":        r.Events,
		"bins":          r.Bins,
		"hist_low":      r.HistLow,
		"hist_high":     r.HistHigh,
		"scan_min":      r.ScanMin,
		"scan_max":      r.ScanMax,
		"steps":         r.Steps,
		"window":        r.Window,
	}
}

// LikelihoodScanService runs generate → histogram → evaluate → scan → fit → extract
type LikelihoodScanService struct {
	rng    ports.RNGPort
	logger *internal.Logger
}

// NewLikelihoodScanService creates a stateless scan service
func NewLikelihoodScanService(rng ports.RNGPort, logger *internal.Logger) *LikelihoodScanService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &LikelihoodScanService{rng: rng, logger: logger}
}

// Events draws the event sample for a request. Requests that differ only in
// evaluator or binning see the same events for the same seed.
func (s *LikelihoodScanService) Events(ctx context.Context, seed int64, req ScanRequest) (stats.Events, error) {
	rng, err := s.rng.SeededStream(ctx, "events/"+req.Density, seed)
	if err != nil {
		return nil, err
	}
	if req.Density == "gaussian" {
		return datasets.GaussianEvents(ctx, rng, req.Events, req.Truth, req.DensitySigma)
	}
	return datasets.ExponentialEvents(ctx, rng, req.Events, req.Truth)
}

// Run executes a full scan. A failing fit or band search is recorded in the
// report and does not fail the run; invalid input and scan errors do.
func (s *LikelihoodScanService) Run(ctx context.Context, seed int64, req ScanRequest) (*stats.ScanReport, error) {
	return s.RunLogged(ctx, seed, req, nil)
}

// RunLogged is Run with every evaluated point also appended to log.
// The log belongs to the caller and may be shared across calls; nil disables logging.
func (s *LikelihoodScanService) RunLogged(ctx context.Context, seed int64, req ScanRequest, log *scan.Log) (*stats.ScanReport, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	density, _ := models.ByName(req.Density, req.DensitySigma)

	events, err := s.Events(ctx, seed, req)
	if err != nil {
		return nil, fmt.Errorf("generate events: %w", err)
	}
	hist, err := histogram.Build(events, req.HistLow, req.HistHigh, req.Bins)
	if err != nil {
		return nil, fmt.Errorf("build histogram: %w", err)
	}
	eval, err := gof.New(req.Evaluator, events, hist, density)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("scanning %s over [%g, %g] in %d steps (%d events)", eval.Name(), req.ScanMin, req.ScanMax, req.Steps, len(events))
	curve, err := scan.NewScanner(log).Range(ctx, req.ScanMin, req.ScanMax, req.Steps, eval)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	rep := &stats.ScanReport{
		Evaluator: eval.Name(),
		Density:   density.Name(),
		Truth:     req.Truth,
		Events:    len(events),
		Histogram: &hist,
		Curve:     curve,
	}
	s.extract(rep, req.Window)

	for _, f := range rep.Failures {
		s.logger.Warn("%s: %s failed: %s", rep.Evaluator, f.Step, f.Error)
	}
	return rep, nil
}

// extract runs the three independent uncertainty extractions on the curve
func (s *LikelihoodScanService) extract(rep *stats.ScanReport, window int) {
	if fit, err := parabola.FitSymmetric(rep.Curve, window, window); err != nil {
		rep.Fail("parabola", err)
	} else {
		rep.Fit = &fit
		if est, err := uncertainty.FromFit(fit); err != nil {
			rep.Fail("parabola", err)
		} else {
			rep.Estimates = append(rep.Estimates, est)
		}
	}

	if fit, err := parabola.FitAsymmetric(rep.Curve, window, window); err != nil {
		rep.Fail("asymmetric_parabola", err)
	} else {
		rep.AsymmetricFit = &fit
		if est, err := uncertainty.FromAsymmetricFit(fit); err != nil {
			rep.Fail("asymmetric_parabola", err)
		} else {
			rep.Estimates = append(rep.Estimates, est)
		}
	}

	if band, err := uncertainty.ThresholdScan(rep.Curve); err != nil {
		rep.Fail("threshold_scan", err)
	} else {
		rep.Band = &band
		rep.Estimates = append(rep.Estimates, uncertainty.FromBand(band))
	}
}
