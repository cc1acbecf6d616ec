package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"gofit/adapters/stats/clt"
	"gofit/adapters/stats/gof"
	"gofit/domain/core"
	"gofit/domain/stats"
)

// Scenario kinds
const (
	KindScan        = "scan"
	KindCoffee      = "coffee"
	KindPropagation = "propagation"
	KindCLT         = "clt"
)

// Scenario is one named, reproducible computation
type Scenario interface {
	Name() string
	Kind() string
	Description() string
	Params() map[string]interface{}
	Run(ctx context.Context, seed int64) (*ScenarioResult, error)
}

// ScenarioResult holds the output of exactly one scenario kind
type ScenarioResult struct {
	Scenario    string             `json:"scenario"`
	Kind        string             `json:"kind"`
	Scan        *stats.ScanReport  `json:"scan,omitempty"`
	Coffee      *CoffeeResult      `json:"coffee,omitempty"`
	Propagation *PropagationResult `json:"propagation,omitempty"`
	CLT         *clt.Result        `json:"clt,omitempty"`
}

// ScanReports returns the scan reports carried by the result
func (r *ScenarioResult) ScanReports() []*stats.ScanReport {
	if r == nil || r.Scan == nil {
		return nil
	}
	return []*stats.ScanReport{r.Scan}
}

// ============================================================================
// SCENARIO SET
// ============================================================================

// ScenarioSet holds the parameters of every registered scenario
type ScenarioSet struct {
	Scans       map[string]ScanRequest `json:"scans" yaml:"scans"`
	Coffee      *CoffeeRequest         `json:"coffee,omitempty" yaml:"coffee,omitempty"`
	Propagation *PropagationRequest    `json:"propagation,omitempty" yaml:"propagation,omitempty"`
	CLT         map[string]clt.Config  `json:"clt" yaml:"clt"`
}

// DefaultScenarioSet returns the built-in scenarios: the same exponential
// sample scanned with each evaluator, the coffee fit, error propagation and
// the two central limit theorem demonstrations
func DefaultScenarioSet() ScenarioSet {
	scans := map[string]ScanRequest{}
	for name, evaluator := range map[string]string{
		"likelihood_unbinned": gof.NameUnbinnedLikelihood,
		"likelihood_binned":   gof.NameBinnedLikelihood,
		"likelihood_chi2":     gof.NameChiSquare,
	} {
		req := DefaultScanRequest()
		req.Evaluator = evaluator
		scans[name] = req
	}
	coffee := DefaultCoffeeRequest()
	prop := DefaultPropagationRequest()
	return ScenarioSet{
		Scans:       scans,
		Coffee:      &coffee,
		Propagation: &prop,
		CLT:         DefaultCLTConfigs(),
	}
}

// Merge overlays other onto s. Map entries replace entries of the same
// name; a non-nil request replaces the existing one.
func (s ScenarioSet) Merge(other ScenarioSet) ScenarioSet {
	out := ScenarioSet{
		Scans:       make(map[string]ScanRequest, len(s.Scans)+len(other.Scans)),
		CLT:         make(map[string]clt.Config, len(s.CLT)+len(other.CLT)),
		Coffee:      s.Coffee,
		Propagation: s.Propagation,
	}
	for k, v := range s.Scans {
		out.Scans[k] = v
	}
	for k, v := range other.Scans {
		out.Scans[k] = v
	}
	for k, v := range s.CLT {
		out.CLT[k] = v
	}
	for k, v := range other.CLT {
		out.CLT[k] = v
	}
	if other.Coffee != nil {
		out.Coffee = other.Coffee
	}
	if other.Propagation != nil {
		out.Propagation = other.Propagation
	}
	return out
}

// ParseScenarioSet decodes a YAML scenario file. Unknown keys are rejected.
func ParseScenarioSet(data []byte) (ScenarioSet, error) {
	var set ScenarioSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil && !errors.Is(err, io.EOF) {
		return ScenarioSet{}, core.NewValidationError("scenarios", err.Error())
	}
	return set, nil
}

// LoadScenarioFile reads a YAML scenario file and merges it over the defaults.
// An empty path returns the defaults.
func LoadScenarioFile(path string) (ScenarioSet, error) {
	def := DefaultScenarioSet()
	if path == "" {
		return def, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ScenarioSet{}, fmt.Errorf("read scenario file: %w", err)
	}
	set, err := ParseScenarioSet(data)
	if err != nil {
		return ScenarioSet{}, err
	}
	return def.Merge(set), nil
}

// Services are the services scenarios delegate to
type Services struct {
	Scan        *LikelihoodScanService
	Coffee      *CoffeeService
	Propagation *PropagationService
	CLT         *CLTService
}

// BuildScenarios validates the set and creates its scenarios in a stable
// order: scans, coffee, propagation, then CLT, each group sorted by name
func BuildScenarios(set ScenarioSet, svc Services) ([]Scenario, error) {
	var out []Scenario

	for _, name := range sortedKeys(set.Scans) {
		req := set.Scans[name].WithDefaults()
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", name, err)
		}
		out = append(out, &scanScenario{name: name, req: req, svc: svc.Scan})
	}
	if set.Coffee != nil {
		req := set.Coffee.WithDefaults()
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("scenario coffee: %w", err)
		}
		out = append(out, &coffeeScenario{req: req, svc: svc.Coffee})
	}
	if set.Propagation != nil {
		if err := set.Propagation.Validate(); err != nil {
			return nil, fmt.Errorf("scenario propagation: %w", err)
		}
		out = append(out, &propagationScenario{req: *set.Propagation, svc: svc.Propagation})
	}
	for _, name := range sortedKeys(set.CLT) {
		cfg := set.CLT[name]
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", name, err)
		}
		out = append(out, &cltScenario{name: name, cfg: cfg, svc: svc.CLT})
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ============================================================================
// SCENARIO IMPLEMENTATIONS
// ============================================================================

type scanScenario struct {
	name string
	req  ScanRequest
	svc  *LikelihoodScanService
}

func (s *scanScenario) Name() string { return s.name }
func (s *scanScenario) Kind() string { return KindScan }
func (s *scanScenario) Description() string {
	return fmt.Sprintf("%s scan of %d %s events over [%g, %g]", s.req.Evaluator, s.req.Events, s.req.Density, s.req.ScanMin, s.req.ScanMax)
}
func (s *scanScenario) Params() map[string]interface{} { return s.req.Params() }

func (s *scanScenario) Run(ctx context.Context, seed int64) (*ScenarioResult, error) {
	rep, err := s.svc.Run(ctx, seed, s.req)
	if err != nil {
		return nil, err
	}
	return &ScenarioResult{Scenario: s.name, Kind: KindScan, Scan: rep}, nil
}

type coffeeScenario struct {
	req CoffeeRequest
	svc *CoffeeService
}

func (s *coffeeScenario) Name() string { return "coffee" }
func (s *coffeeScenario) Kind() string { return KindCoffee }
func (s *coffeeScenario) Description() string {
	return fmt.Sprintf("straight-line fit of the coffee counter for %g < day < %g", s.req.WindowLow, s.req.WindowHigh)
}
func (s *coffeeScenario) Params() map[string]interface{} { return s.req.Params() }

// Run ignores the seed; the coffee fixture is fixed data
func (s *coffeeScenario) Run(ctx context.Context, _ int64) (*ScenarioResult, error) {
	res, err := s.svc.Run(ctx, s.req)
	if err != nil {
		return nil, err
	}
	return &ScenarioResult{Scenario: s.Name(), Kind: KindCoffee, Coffee: res}, nil
}

type propagationScenario struct {
	req PropagationRequest
	svc *PropagationService
}

func (s *propagationScenario) Name() string { return "propagation" }
func (s *propagationScenario) Kind() string { return KindPropagation }
func (s *propagationScenario) Description() string {
	return fmt.Sprintf("first-order vs Monte Carlo propagation of %v with rho=%g", s.req.Quantities, s.req.Inputs.Rho)
}
func (s *propagationScenario) Params() map[string]interface{} { return s.req.Params() }

func (s *propagationScenario) Run(ctx context.Context, seed int64) (*ScenarioResult, error) {
	res, err := s.svc.Run(ctx, seed, s.req)
	if err != nil {
		return nil, err
	}
	return &ScenarioResult{Scenario: s.Name(), Kind: KindPropagation, Propagation: res}, nil
}

type cltScenario struct {
	name string
	cfg  clt.Config
	svc  *CLTService
}

func (s *cltScenario) Name() string { return s.name }
func (s *cltScenario) Kind() string { return KindCLT }
func (s *cltScenario) Description() string {
	return fmt.Sprintf("%d sums of %d %s draws", s.cfg.Trials, s.cfg.Terms, s.cfg.Source)
}
func (s *cltScenario) Params() map[string]interface{} { return cltParams(s.cfg) }

func (s *cltScenario) Run(ctx context.Context, seed int64) (*ScenarioResult, error) {
	res, err := s.svc.Run(ctx, seed, s.cfg)
	if err != nil {
		return nil, err
	}
	return &ScenarioResult{Scenario: s.name, Kind: KindCLT, CLT: res}, nil
}
