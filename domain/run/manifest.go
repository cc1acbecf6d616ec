package run

import (
	"crypto/sha256"
	"fmt"

	"gofit/domain/core"
)

// RunManifest is the replay record of a single scenario run.
// Seed, scenario and parameters fully determine the numeric outcome.
type RunManifest struct {
	RunID       core.RunID     `json:"run_id"`
	Scenario    string         `json:"scenario"`
	Seed        int64          `json:"seed"`
	ConfigHash  core.Hash      `json:"config_hash"`
	CodeVersion string         `json:"code_version"`
	Fingerprint core.Hash      `json:"fingerprint"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// NewRunManifest creates a manifest for a scenario run with the given parameters
func NewRunManifest(scenario string, seed int64, params map[string]interface{}, codeVersion string) *RunManifest {
	configHash := core.ComputeConfigHash(params)
	return &RunManifest{
		RunID:       core.NewRunID(),
		Scenario:    scenario,
		Seed:        seed,
		ConfigHash:  configHash,
		CodeVersion: codeVersion,
		Fingerprint: ComputeFingerprint(scenario, configHash, seed, codeVersion),
		CreatedAt:   core.Now(),
	}
}

// ComputeFingerprint generates a deterministic hash from all determinism parameters
func ComputeFingerprint(scenario string, configHash core.Hash, seed int64, codeVersion string) core.Hash {
	data := fmt.Sprintf("scenario:%s|config:%s|seed:%d|code:%s", scenario, configHash, seed, codeVersion)
	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}

// Validate checks if the manifest is complete
func (r *RunManifest) Validate() error {
	if core.ID(r.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if r.Scenario == "" {
		return core.NewValidationError("run_manifest", "scenario cannot be empty")
	}
	if r.ConfigHash.IsEmpty() {
		return core.NewValidationError("run_manifest", "config_hash cannot be empty")
	}
	if r.CodeVersion == "" {
		return core.NewValidationError("run_manifest", "code_version cannot be empty")
	}
	if r.Fingerprint != ComputeFingerprint(r.Scenario, r.ConfigHash, r.Seed, r.CodeVersion) {
		return fmt.Errorf("%w: run %s", core.ErrNonDeterministic, r.RunID)
	}
	return nil
}

// SameReplay reports whether two manifests describe the same deterministic computation
func (r *RunManifest) SameReplay(other *RunManifest) bool {
	return r.Fingerprint == other.Fingerprint
}
