package api

import (
	"encoding/json"

	"gofit/app"
	"gofit/ports"
)

// ScenarioInfo describes a registered scenario
type ScenarioInfo struct {
	Name        string                 `json:"name"`
	Kind        string                 `json:"kind"`
	Description string                 `json:"description"`
	Params      map[string]interface{} `json:"params"`
}

// RunRequest is the optional body of POST /scenarios/:name/run
type RunRequest struct {
	Seed *int64 `json:"seed"`
}

// RunResponse reports one scenario run
type RunResponse struct {
	RunID       string              `json:"run_id"`
	Scenario    string              `json:"scenario"`
	Seed        int64               `json:"seed"`
	Fingerprint string              `json:"fingerprint"`
	Status      string              `json:"status"`
	DurationMs  int64               `json:"duration_ms"`
	Result      *app.ScenarioResult `json:"result,omitempty"`
	Summary     string              `json:"summary"`
	Error       string              `json:"error,omitempty"`
	Code        string              `json:"code,omitempty"`
}

func newRunResponse(res *app.RunResult) RunResponse {
	out := RunResponse{
		RunID:       res.Manifest.RunID.String(),
		Scenario:    res.Manifest.Scenario,
		Seed:        res.Manifest.Seed,
		Fingerprint: res.Manifest.Fingerprint.String(),
		Status:      res.Status(),
		DurationMs:  res.Duration.Milliseconds(),
		Result:      res.Result,
		Summary:     res.Summary(),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// RunSummary is a stored run without its result payload
type RunSummary struct {
	RunID       string `json:"run_id"`
	Scenario    string `json:"scenario"`
	Seed        int64  `json:"seed"`
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	Error       string `json:"error,omitempty"`
}

func newRunSummary(r ports.StoredRun) RunSummary {
	return RunSummary{
		RunID:       r.Manifest.RunID.String(),
		Scenario:    r.Manifest.Scenario,
		Seed:        r.Manifest.Seed,
		Fingerprint: r.Manifest.Fingerprint.String(),
		Status:      r.Status,
		CreatedAt:   r.Manifest.CreatedAt.String(),
		Error:       r.Error,
	}
}

// StoredRunResponse is a stored run with its decoded result
type StoredRunResponse struct {
	RunSummary
	Summary string          `json:"summary"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
