package app_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofit/adapters/stats/clt"
	"gofit/app"
	"gofit/domain/core"
	"gofit/internal/testkit"
)

func TestParseScenarioSet_MergesOverDefaults(t *testing.T) {
	data := []byte(`
scans:
  likelihood_chi2:
    evaluator: chi_square
    events: 250
  gaussian_mean:
    evaluator: unbinned_likelihood
    density: gaussian
    density_sigma: 2
    truth: 10
    hist_low: 0
    hist_high: 20
    scan_min: 9
    scan_max: 11
clt:
  clt_exponential:
    source: exponential
    terms: 30
    trials: 1000
`)
	override, err := app.ParseScenarioSet(data)
	require.NoError(t, err)

	set := app.DefaultScenarioSet().Merge(override)
	assert.Len(t, set.Scans, 4)
	assert.Equal(t, 250, set.Scans["likelihood_chi2"].Events)
	assert.Equal(t, clt.SourceExponential, set.CLT["clt_exponential"].Source)
	require.NotNil(t, set.Coffee)

	scenarios, err := app.BuildScenarios(set, testkit.NewTestKit().Services())
	require.NoError(t, err)
	assert.Len(t, scenarios, 4+1+1+3)
}

func TestParseScenarioSet_Errors(t *testing.T) {
	_, err := app.ParseScenarioSet([]byte("scanz: {}\n"))
	assert.True(t, core.IsValidationError(err))

	empty, err := app.ParseScenarioSet(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Scans)
}

func TestBuildScenarios_RejectsInvalidEntries(t *testing.T) {
	set := app.DefaultScenarioSet()
	set.CLT["bad"] = clt.Config{Source: "pareto", Terms: 1, Trials: 10}
	_, err := app.BuildScenarios(set, testkit.NewTestKit().Services())
	assert.True(t, core.IsValidationError(err))
}

func TestLoadScenarioFile(t *testing.T) {
	def, err := app.LoadScenarioFile("")
	require.NoError(t, err)
	assert.Len(t, def.Scans, 3)

	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte("coffee:\n  sigma: 3\n"), 0o644))
	set, err := app.LoadScenarioFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, set.Coffee.Sigma)

	_, err = app.LoadScenarioFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScenarioSummaries(t *testing.T) {
	kit := testkit.NewTestKit()
	runner, err := kit.Runner(testkit.SmallScenarioSet())
	require.NoError(t, err)

	for _, name := range []string{"coffee", "propagation", "clt_cauchy"} {
		res, err := runner.Run(t.Context(), name, seed)
		require.NoError(t, err, name)
		md := res.Summary()
		assert.Contains(t, md, "# "+name)
		assert.Contains(t, md, "| Quantity |", name)
	}
}
