// Package clt demonstrates the central limit theorem: sums of independent
// draws approach a Gaussian whenever the source has finite variance.
package clt

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"gofit/adapters/stats/gof"
	"gofit/adapters/stats/histogram"
	"gofit/adapters/stats/models"
	"gofit/domain/core"
	"gofit/domain/stats"
)

// Source names the distribution each term is drawn from
type Source string

const (
	SourceUniform     Source = "uniform"     // U(0, 1)
	SourceExponential Source = "exponential" // rate 1
	SourceCauchy      Source = "cauchy"      // standard Cauchy, no finite moments
)

// Sources lists the supported sources
func Sources() []Source {
	return []Source{SourceUniform, SourceExponential, SourceCauchy}
}

const (
	defaultBins = 40
	// histogram half-width in reference standard deviations
	histogramSpan = 4.0
)

// Config controls one simulation
type Config struct {
	Source Source `json:"source" yaml:"source"`
	Terms  int    `json:"terms" yaml:"terms"`
	Trials int    `json:"trials" yaml:"trials"`
	Bins   int    `json:"bins,omitempty" yaml:"bins,omitempty"`
}

// Validate checks the configuration
func (c Config) Validate() error {
	switch c.Source {
	case SourceUniform, SourceExponential, SourceCauchy:
	default:
		return core.NewValidationError("source", fmt.Sprintf("unknown source %q", c.Source))
	}
	if c.Terms < 1 {
		return core.NewValidationError("terms", fmt.Sprintf("must be >= 1, got %d", c.Terms))
	}
	if c.Trials < 2 {
		return core.NewValidationError("trials", fmt.Sprintf("must be >= 2, got %d", c.Trials))
	}
	if c.Bins < 0 {
		return core.NewValidationError("bins", fmt.Sprintf("must be >= 0, got %d", c.Bins))
	}
	return nil
}

// Result describes the distribution of the sums
type Result struct {
	Config Config  `json:"config"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`

	// HasMoments is false for sources without a finite variance; the
	// reference Gaussian then uses the sample mean and standard deviation.
	HasMoments    bool    `json:"has_moments"`
	ExpectedMean  float64 `json:"expected_mean"`
	ExpectedSigma float64 `json:"expected_sigma"`

	Histogram   stats.Histogram `json:"histogram"`
	Chi2        float64         `json:"chi2"`
	Ndof        int             `json:"ndof"`
	Probability float64         `json:"probability"`
}

type sampler interface {
	Rand() float64
}

// moments returns the per-term mean and variance, ok=false when undefined
func moments(src Source) (mean, variance float64, ok bool) {
	switch src {
	case SourceUniform:
		return 0.5, 1.0 / 12.0, true
	case SourceExponential:
		return 1, 1, true
	}
	return 0, 0, false
}

func newSampler(src Source, rng *rand.Rand) sampler {
	switch src {
	case SourceUniform:
		return distuv.Uniform{Min: 0, Max: 1, Src: rng}
	case SourceExponential:
		return distuv.Exponential{Rate: 1, Src: rng}
	default:
		// Student's t with one degree of freedom is the Cauchy distribution
		return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: 1, Src: rng}
	}
}

// Sums draws cfg.Trials sums of cfg.Terms independent draws
func Sums(ctx context.Context, rng *rand.Rand, cfg Config) ([]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := newSampler(cfg.Source, rng)
	sums := make([]float64, cfg.Trials)
	for i := range sums {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		total := 0.0
		for j := 0; j < cfg.Terms; j++ {
			total += s.Rand()
		}
		sums[i] = total
	}
	return sums, nil
}

// Simulate draws the sums and compares their histogram with the Gaussian
// the central limit theorem predicts
func Simulate(ctx context.Context, rng *rand.Rand, cfg Config) (*Result, error) {
	sums, err := Sums(ctx, rng, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Bins == 0 {
		cfg.Bins = defaultBins
	}

	data := mstats.Float64Data(sums)
	res := &Result{Config: cfg}
	if res.Mean, err = data.Mean(); err != nil {
		return nil, err
	}
	if res.StdDev, err = data.StandardDeviationSample(); err != nil {
		return nil, err
	}
	if res.Median, err = data.Median(); err != nil {
		return nil, err
	}

	refMean, refSigma := res.Mean, res.StdDev
	if mu, variance, ok := moments(cfg.Source); ok {
		res.HasMoments = true
		res.ExpectedMean = mu * float64(cfg.Terms)
		res.ExpectedSigma = math.Sqrt(variance * float64(cfg.Terms))
		refMean, refSigma = res.ExpectedMean, res.ExpectedSigma
	}
	if !(refSigma > 0) || math.IsInf(refSigma, 0) || math.IsNaN(refMean) || math.IsInf(refMean, 0) {
		return nil, fmt.Errorf("%w: reference width %g", core.ErrUndefinedUncertainty, refSigma)
	}

	hist, err := histogram.Build(sums, refMean-histogramSpan*refSigma, refMean+histogramSpan*refSigma, cfg.Bins)
	if err != nil {
		return nil, err
	}
	res.Histogram = hist

	expected := models.ExpectedCounts(models.Gaussian{Sigma: refSigma}, hist.Edges, refMean, float64(cfg.Trials))
	if res.Chi2, err = gof.ChiSquareFromCounts(hist.Counts, expected); err != nil {
		return nil, err
	}
	for _, c := range hist.Counts {
		if c > 0 {
			res.Ndof++
		}
	}
	if res.Ndof > 0 {
		res.Probability = distuv.ChiSquared{K: float64(res.Ndof)}.Survival(res.Chi2)
	}
	return res, nil
}
