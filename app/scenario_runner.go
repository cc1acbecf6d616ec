package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gofit/domain/core"
	"gofit/domain/run"
	"gofit/internal"
	"gofit/ports"
)

// CodeVersion is recorded in every run manifest
const CodeVersion = "gofit-1"

// RunResult is the outcome of one scenario run. Err is set when the
// scenario failed; Result is nil in that case.
type RunResult struct {
	Manifest *run.RunManifest
	Result   *ScenarioResult
	Err      error
	Duration time.Duration
}

// Status returns ports.StatusSucceeded or ports.StatusFailed
func (r *RunResult) Status() string {
	if r.Err != nil {
		return ports.StatusFailed
	}
	return ports.StatusSucceeded
}

// Summary renders the markdown report, or a failure note
func (r *RunResult) Summary() string {
	if r.Result != nil {
		return r.Result.Summary()
	}
	return fmt.Sprintf("# %s\n\nRun failed: %v\n", r.Manifest.Scenario, r.Err)
}

// ScenarioRunner is a named registry of scenarios
type ScenarioRunner struct {
	mu        sync.RWMutex
	order     []string
	scenarios map[string]Scenario

	store       ports.ResultStore
	logger      *internal.Logger
	concurrency int
}

// NewScenarioRunner creates a runner. store may be nil, in which case runs are not persisted.
func NewScenarioRunner(store ports.ResultStore, logger *internal.Logger) *ScenarioRunner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ScenarioRunner{
		scenarios:   make(map[string]Scenario),
		store:       store,
		logger:      logger,
		concurrency: 4,
	}
}

// SetConcurrency bounds the number of scenarios RunAll executes at once
func (r *ScenarioRunner) SetConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	r.concurrency = n
}

// Register adds scenarios; names must be unique
func (r *ScenarioRunner) Register(scenarios ...Scenario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range scenarios {
		name := s.Name()
		if name == "" {
			return core.NewValidationError("scenario", "name cannot be empty")
		}
		if _, dup := r.scenarios[name]; dup {
			return core.NewValidationError("scenario", fmt.Sprintf("duplicate name %q", name))
		}
		r.scenarios[name] = s
		r.order = append(r.order, name)
	}
	return nil
}

// Names returns the registered names in registration order
func (r *ScenarioRunner) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Scenarios returns the registered scenarios in registration order
func (r *ScenarioRunner) Scenarios() []Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scenario, len(r.order))
	for i, name := range r.order {
		out[i] = r.scenarios[name]
	}
	return out
}

// Get looks a scenario up by name
func (r *ScenarioRunner) Get(name string) (Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrScenarioNotFound, name)
	}
	return s, nil
}

// Run executes one scenario. The returned error is the scenario's own
// failure, also recorded in the result; only an unknown name returns a nil result.
func (r *ScenarioRunner) Run(ctx context.Context, name string, seed int64) (*RunResult, error) {
	s, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	res := r.execute(ctx, s, seed)
	return res, res.Err
}

// RunAll executes every registered scenario concurrently. Each scenario owns
// its seeded streams, so the results do not depend on scheduling. A failing
// scenario is reported in its own result and never cancels the others.
// Results are returned in registration order.
func (r *ScenarioRunner) RunAll(ctx context.Context, seed int64) ([]*RunResult, error) {
	scenarios := r.Scenarios()
	results := make([]*RunResult, len(scenarios))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, s := range scenarios {
		g.Go(func() error {
			results[i] = r.execute(ctx, s, seed)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	r.logger.Info("ran %d scenarios with seed %d, %d failed", len(results), seed, failed)
	return results, ctx.Err()
}

func (r *ScenarioRunner) execute(ctx context.Context, s Scenario, seed int64) *RunResult {
	manifest := run.NewRunManifest(s.Name(), seed, s.Params(), CodeVersion)
	start := time.Now()

	out, err := s.Run(ctx, seed)
	res := &RunResult{Manifest: manifest, Result: out, Err: err, Duration: time.Since(start)}
	if err != nil {
		res.Result = nil
		r.logger.Error("scenario %s failed: %v", s.Name(), err)
	} else {
		r.logger.Debug("scenario %s finished in %s (run %s)", s.Name(), res.Duration, manifest.RunID)
	}

	if r.store != nil {
		if err := r.persist(ctx, res); err != nil {
			r.logger.Warn("scenario %s: could not store run %s: %v", s.Name(), manifest.RunID, err)
		}
	}
	return res
}

func (r *ScenarioRunner) persist(ctx context.Context, res *RunResult) error {
	stored := ports.StoredRun{
		Manifest: *res.Manifest,
		Status:   res.Status(),
		Summary:  res.Summary(),
	}
	if res.Err != nil {
		stored.Error = res.Err.Error()
	}
	if res.Result != nil {
		data, err := json.Marshal(res.Result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		stored.Result = data
	}
	if err := r.store.SaveRun(ctx, stored); err != nil {
		return err
	}
	for _, rep := range res.Result.ScanReports() {
		if err := r.store.SaveScanPoints(ctx, res.Manifest.RunID, rep.Evaluator, rep.Curve.Points); err != nil {
			return err
		}
	}
	return nil
}
