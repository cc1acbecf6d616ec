package run

import (
	"errors"
	"testing"

	"gofit/domain/core"
)

func TestRunFingerprint_Deterministic(t *testing.T) {
	params := map[string]interface{}{"tau_min": 0.8, "tau_max": 1.2, "steps": 100}

	m1 := NewRunManifest("likelihood", 42, params, "1.0.0")
	m2 := NewRunManifest("likelihood", 42, params, "1.0.0")

	if m1.RunID == m2.RunID {
		t.Error("Expected distinct run ids")
	}
	if !m1.SameReplay(m2) {
		t.Errorf("Fingerprints not identical: %s vs %s", m1.Fingerprint, m2.Fingerprint)
	}
	if err := m1.Validate(); err != nil {
		t.Errorf("Expected valid manifest, got %v", err)
	}
}

func TestRunFingerprint_Unique(t *testing.T) {
	base := ComputeFingerprint("likelihood", core.Hash("cfg"), 42, "1.0.0")

	testCases := []struct {
		name string
		fp   core.Hash
	}{
		{"different scenario", ComputeFingerprint("coffee", core.Hash("cfg"), 42, "1.0.0")},
		{"different config", ComputeFingerprint("likelihood", core.Hash("cfg2"), 42, "1.0.0")},
		{"different seed", ComputeFingerprint("likelihood", core.Hash("cfg"), 43, "1.0.0")},
		{"different code", ComputeFingerprint("likelihood", core.Hash("cfg"), 42, "1.0.1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp == base {
				t.Errorf("Fingerprint did not change for %s", tc.name)
			}
		})
	}
}

func TestRunManifest_ValidateDetectsTampering(t *testing.T) {
	m := NewRunManifest("clt", 42, map[string]interface{}{"terms": 12}, "1.0.0")
	m.Seed = 7

	err := m.Validate()
	if !errors.Is(err, core.ErrNonDeterministic) {
		t.Fatalf("Expected ErrNonDeterministic, got %v", err)
	}

	empty := &RunManifest{}
	if err := empty.Validate(); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for empty manifest, got %v", err)
	}
}
