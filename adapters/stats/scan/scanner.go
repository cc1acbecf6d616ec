// Package scan evaluates a goodness-of-fit function over a hypothesis grid.
package scan

import (
	"context"
	"fmt"

	"gofit/domain/stats"
	"gofit/ports"
)

// Scanner runs grid scans, optionally recording every point in a caller-owned Log
type Scanner struct {
	log *Log
}

// NewScanner creates a scanner; log may be nil
func NewScanner(log *Log) *Scanner {
	return &Scanner{log: log}
}

// Scan evaluates the evaluator exactly once per grid point, in grid order.
// The first occurrence of the minimum score wins ties.
func (s *Scanner) Scan(ctx context.Context, grid stats.Grid, eval ports.Evaluator) (stats.ScoreCurve, error) {
	if err := grid.Validate(); err != nil {
		return stats.ScoreCurve{}, err
	}

	curve := stats.ScoreCurve{
		Evaluator: eval.Name(),
		Points:    make([]stats.ScorePoint, len(grid)),
	}

	for i, theta := range grid {
		if err := ctx.Err(); err != nil {
			return stats.ScoreCurve{}, err
		}

		score, err := eval.Score(theta)
		if err != nil {
			return stats.ScoreCurve{}, fmt.Errorf("%s at hypothesis %g: %w", eval.Name(), theta, err)
		}

		p := stats.ScorePoint{Hypothesis: theta, Score: score}
		curve.Points[i] = p
		if score < curve.Points[curve.MinIndex].Score {
			curve.MinIndex = i
		}
		if s.log != nil {
			s.log.Append(eval.Name(), p)
		}
	}

	return curve, nil
}

// Range is a convenience wrapper building the grid from bounds and steps
func (s *Scanner) Range(ctx context.Context, min, max float64, steps int, eval ports.Evaluator) (stats.ScoreCurve, error) {
	grid, err := NewGrid(min, max, steps)
	if err != nil {
		return stats.ScoreCurve{}, err
	}
	return s.Scan(ctx, grid, eval)
}

// FuncEvaluator adapts a plain function to ports.Evaluator
type FuncEvaluator struct {
	Label string
	Fn    func(theta float64) (float64, error)
}

func (f FuncEvaluator) Name() string { return f.Label }

func (f FuncEvaluator) Score(theta float64) (float64, error) { return f.Fn(theta) }
