package app

import (
	"context"
	"fmt"

	"gofit/adapters/stats/clt"
	"gofit/internal"
	"gofit/ports"
)

// DefaultCLTConfigs are the two central limit theorem demonstrations: a
// finite-variance source that converges and a Cauchy source that never does
func DefaultCLTConfigs() map[string]clt.Config {
	return map[string]clt.Config{
		"clt_uniform": {Source: clt.SourceUniform, Terms: 12, Trials: 10000},
		"clt_cauchy":  {Source: clt.SourceCauchy, Terms: 12, Trials: 10000},
	}
}

// CLTService runs central limit theorem simulations
type CLTService struct {
	rng    ports.RNGPort
	logger *internal.Logger
}

// NewCLTService creates the service
func NewCLTService(rng ports.RNGPort, logger *internal.Logger) *CLTService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CLTService{rng: rng, logger: logger}
}

// Run simulates sums for cfg. The stream depends on the source and the seed only.
func (s *CLTService) Run(ctx context.Context, seed int64, cfg clt.Config) (*clt.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng, err := s.rng.SeededStream(ctx, fmt.Sprintf("clt/%s", cfg.Source), seed)
	if err != nil {
		return nil, err
	}
	res, err := clt.Simulate(ctx, rng, cfg)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("clt %s: %d terms x %d trials, χ²=%.1f/%d", cfg.Source, cfg.Terms, cfg.Trials, res.Chi2, res.Ndof)
	return res, nil
}

// cltParams flattens a CLT config for config hashing
func cltParams(cfg clt.Config) map[string]interface{} {
	return map[string]interface{}{
		"source": string(cfg.Source),
		"terms":  cfg.Terms,
		"trials": cfg.Trials,
		"bins":   cfg.Bins,
	}
}
