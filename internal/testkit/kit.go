// Package testkit wires the scenario services against in-memory adapters
// for tests.
package testkit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gofit/adapters/rng"
	"gofit/adapters/stats/minimizer"
	"gofit/app"
	"gofit/domain/core"
	"gofit/domain/stats"
	"gofit/internal"
	"gofit/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	store  *InMemoryResultStore
	rng    ports.RNGPort
	logger *internal.Logger
}

// NewTestKit creates a kit with an empty store and a quiet logger
func NewTestKit() *TestKit {
	return &TestKit{
		store:  NewInMemoryResultStore(),
		rng:    rng.NewSeededAdapter(),
		logger: internal.NewLogger(internal.LogLevelError),
	}
}

// Store returns the shared in-memory store
func (t *TestKit) Store() *InMemoryResultStore { return t.store }

// RNG returns the seeded RNG adapter
func (t *TestKit) RNG() ports.RNGPort { return t.rng }

// Logger returns the kit logger
func (t *TestKit) Logger() *internal.Logger { return t.logger }

// Services creates a fresh set of scenario services
func (t *TestKit) Services() app.Services {
	return app.Services{
		Scan:        app.NewLikelihoodScanService(t.rng, t.logger),
		Coffee:      app.NewCoffeeService(minimizer.Default(), nil, t.logger),
		Propagation: app.NewPropagationService(t.rng, t.logger),
		CLT:         app.NewCLTService(t.rng, t.logger),
	}
}

// Runner builds a runner holding every scenario of set, persisting to the kit store
func (t *TestKit) Runner(set app.ScenarioSet) (*app.ScenarioRunner, error) {
	scenarios, err := app.BuildScenarios(set, t.Services())
	if err != nil {
		return nil, err
	}
	runner := app.NewScenarioRunner(t.store, t.logger)
	if err := runner.Register(scenarios...); err != nil {
		return nil, err
	}
	return runner, nil
}

// SmallScenarioSet is a reduced set that runs quickly
func SmallScenarioSet() app.ScenarioSet {
	set := app.DefaultScenarioSet()
	for name, req := range set.Scans {
		req.Events = 400
		req.Steps = 81
		req.ScanMin, req.ScanMax = 0.7, 1.3
		req.Window = 10
		set.Scans[name] = req
	}
	set.Propagation.Samples = 5000
	for name, cfg := range set.CLT {
		cfg.Trials = 2000
		set.CLT[name] = cfg
	}
	return set
}

// ============================================================================
// FAKE SCENARIOS
// ============================================================================

// ErrScenarioFailed is returned by FailingScenario
var ErrScenarioFailed = errors.New("scenario failed on purpose")

// FailingScenario always fails
type FailingScenario struct {
	Label string
}

func (s FailingScenario) Name() string                   { return s.Label }
func (s FailingScenario) Kind() string                   { return "fake" }
func (s FailingScenario) Description() string            { return "always fails" }
func (s FailingScenario) Params() map[string]interface{} { return map[string]interface{}{"name": s.Label} }

func (s FailingScenario) Run(ctx context.Context, seed int64) (*app.ScenarioResult, error) {
	return nil, fmt.Errorf("%s: %w", s.Label, ErrScenarioFailed)
}

// ============================================================================
// IN-MEMORY RESULT STORE
// ============================================================================

// InMemoryResultStore implements ResultStore with in-memory storage
type InMemoryResultStore struct {
	runs   map[core.RunID]ports.StoredRun
	order  []core.RunID
	points map[string][]stats.ScorePoint
	mu     sync.RWMutex

	// FailSaves makes every save return an error
	FailSaves bool
}

var _ ports.ResultStore = (*InMemoryResultStore)(nil)

func NewInMemoryResultStore() *InMemoryResultStore {
	return &InMemoryResultStore{
		runs:   make(map[core.RunID]ports.StoredRun),
		points: make(map[string][]stats.ScorePoint),
	}
}

func pointsKey(runID core.RunID, evaluator string) string {
	return runID.String() + "/" + evaluator
}

func (s *InMemoryResultStore) SaveRun(ctx context.Context, stored ports.StoredRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return errors.New("store unavailable")
	}
	id := stored.Manifest.RunID
	if _, exists := s.runs[id]; !exists {
		s.order = append(s.order, id)
	}
	s.runs[id] = stored
	return nil
}

func (s *InMemoryResultStore) SaveScanPoints(ctx context.Context, runID core.RunID, evaluator string, points []stats.ScorePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return errors.New("store unavailable")
	}
	cp := make([]stats.ScorePoint, len(points))
	copy(cp, points)
	s.points[pointsKey(runID, evaluator)] = cp
	return nil
}

func (s *InMemoryResultStore) GetRun(ctx context.Context, runID core.RunID) (*ports.StoredRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	return &stored, nil
}

// ListRuns returns the newest runs first; insertion order breaks creation-time ties
func (s *InMemoryResultStore) ListRuns(ctx context.Context, limit int) ([]ports.StoredRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.StoredRun, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.runs[s.order[i]])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Manifest.CreatedAt.Time().After(out[j].Manifest.CreatedAt.Time())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryResultStore) ScanPoints(ctx context.Context, runID core.RunID, evaluator string) ([]stats.ScorePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.runs[runID]; !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	pts := s.points[pointsKey(runID, evaluator)]
	out := make([]stats.ScorePoint, len(pts))
	copy(out, pts)
	return out, nil
}

func (s *InMemoryResultStore) Close() error { return nil }

// RunCount returns the number of stored runs
func (s *InMemoryResultStore) RunCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
