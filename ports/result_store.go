package ports

import (
	"context"
	"encoding/json"

	"gofit/domain/core"
	"gofit/domain/run"
	"gofit/domain/stats"
)

// Run statuses
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// StoredRun is a persisted scenario run. Summary is the rendered markdown
// report, Result the JSON encoding of the scenario output.
type StoredRun struct {
	Manifest run.RunManifest `json:"manifest"`
	Status   string          `json:"status"`
	Summary  string          `json:"summary"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ResultStore persists run manifests and scan logs
type ResultStore interface {
	SaveRun(ctx context.Context, stored StoredRun) error
	SaveScanPoints(ctx context.Context, runID core.RunID, evaluator string, points []stats.ScorePoint) error
	GetRun(ctx context.Context, runID core.RunID) (*StoredRun, error)
	// ListRuns returns the most recent runs first
	ListRuns(ctx context.Context, limit int) ([]StoredRun, error)
	ScanPoints(ctx context.Context, runID core.RunID, evaluator string) ([]stats.ScorePoint, error)
	Close() error
}
