package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofit/app"
	"gofit/domain/core"
	"gofit/internal/testkit"
	"gofit/ports"
)

func TestScenarioRunner_RegistryOrder(t *testing.T) {
	kit := testkit.NewTestKit()
	runner, err := kit.Runner(app.DefaultScenarioSet())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"likelihood_binned",
		"likelihood_chi2",
		"likelihood_unbinned",
		"coffee",
		"propagation",
		"clt_cauchy",
		"clt_uniform",
	}, runner.Names())

	_, err = runner.Get("nope")
	assert.ErrorIs(t, err, core.ErrScenarioNotFound)

	err = runner.Register(testkit.FailingScenario{Label: "coffee"})
	assert.True(t, core.IsValidationError(err))
}

func TestScenarioRunner_RunAllIsolatesFailures(t *testing.T) {
	kit := testkit.NewTestKit()
	runner, err := kit.Runner(testkit.SmallScenarioSet())
	require.NoError(t, err)
	require.NoError(t, runner.Register(testkit.FailingScenario{Label: "broken"}))

	results, err := runner.RunAll(context.Background(), seed)
	require.NoError(t, err)

	names := runner.Names()
	require.Len(t, results, len(names))
	for i, res := range results {
		assert.Equal(t, names[i], res.Manifest.Scenario)
		if names[i] == "broken" {
			assert.ErrorIs(t, res.Err, testkit.ErrScenarioFailed)
			assert.Equal(t, ports.StatusFailed, res.Status())
			assert.Nil(t, res.Result)
			continue
		}
		assert.NoError(t, res.Err, names[i])
		assert.Equal(t, ports.StatusSucceeded, res.Status())
		assert.NoError(t, res.Manifest.Validate())
	}

	assert.Equal(t, len(names), kit.Store().RunCount())

	// scan curves are persisted per run
	first := results[0]
	require.NotNil(t, first.Result.Scan)
	points, err := kit.Store().ScanPoints(context.Background(), first.Manifest.RunID, first.Result.Scan.Evaluator)
	require.NoError(t, err)
	assert.Equal(t, first.Result.Scan.Curve.Points, points)

	stored, err := kit.Store().GetRun(context.Background(), first.Manifest.RunID)
	require.NoError(t, err)
	assert.Contains(t, stored.Summary, "# likelihood_binned")
	var decoded app.ScenarioResult
	require.NoError(t, json.Unmarshal(stored.Result, &decoded))
	assert.Equal(t, app.KindScan, decoded.Kind)
}

func TestScenarioRunner_ConcurrentRunsMatchSequential(t *testing.T) {
	kit := testkit.NewTestKit()
	set := testkit.SmallScenarioSet()

	concurrent, err := kit.Runner(set)
	require.NoError(t, err)
	all, err := concurrent.RunAll(context.Background(), seed)
	require.NoError(t, err)

	sequential, err := kit.Runner(set)
	require.NoError(t, err)
	sequential.SetConcurrency(1)
	for _, res := range all {
		again, err := sequential.Run(context.Background(), res.Manifest.Scenario, seed)
		require.NoError(t, err)
		assert.Equal(t, res.Manifest.Fingerprint, again.Manifest.Fingerprint)
		assert.Equal(t, res.Result.Summary(), again.Result.Summary(), res.Manifest.Scenario)
	}
}

func TestScenarioRunner_StoreFailureDoesNotFailRun(t *testing.T) {
	kit := testkit.NewTestKit()
	kit.Store().FailSaves = true
	runner, err := kit.Runner(testkit.SmallScenarioSet())
	require.NoError(t, err)

	res, err := runner.Run(context.Background(), "coffee", seed)
	require.NoError(t, err)
	assert.NotNil(t, res.Result.Coffee)
	assert.Zero(t, kit.Store().RunCount())
}

func TestScenarioRunner_RunUnknownAndFailing(t *testing.T) {
	runner := app.NewScenarioRunner(nil, testkit.NewTestKit().Logger())
	require.NoError(t, runner.Register(testkit.FailingScenario{Label: "broken"}))

	res, err := runner.Run(context.Background(), "missing", seed)
	assert.Nil(t, res)
	assert.True(t, core.IsNotFoundError(err))

	res, err = runner.Run(context.Background(), "broken", seed)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.True(t, errors.Is(res.Err, testkit.ErrScenarioFailed))
	assert.Contains(t, res.Summary(), "Run failed")
}

func TestScenarioRunner_CancelledContext(t *testing.T) {
	kit := testkit.NewTestKit()
	runner, err := kit.Runner(testkit.SmallScenarioSet())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := runner.RunAll(ctx, seed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, len(runner.Names()))
}
