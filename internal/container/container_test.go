package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofit/internal"
	"gofit/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Run:    config.RunConfig{Seed: config.DefaultSeed, Concurrency: 2},
		Server: config.ServerConfig{Port: "8080", GinMode: "test"},
		Log:    config.LogConfig{Level: internal.LogLevelError},
	}
}

func TestNew_DefaultsWithoutStore(t *testing.T) {
	c, err := New(context.Background(), testConfig())
	require.NoError(t, err)
	defer c.Shutdown(context.Background())

	assert.Nil(t, c.Store)
	assert.Contains(t, c.Runner.Names(), "coffee")
	assert.Contains(t, c.Runner.Names(), "likelihood_unbinned")
}

func TestNew_WithSqliteStoreAndCoffeeData(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "coffee.csv")
	require.NoError(t, os.WriteFile(data, []byte("day,cups\n65,29613\n76,29805\n86,29981\n99,30216\n"), 0o600))

	cfg := testConfig()
	cfg.Store.DSN = "sqlite:" + filepath.Join(dir, "runs.db")
	cfg.Run.CoffeeData = data

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Shutdown(context.Background())
	require.NotNil(t, c.Store)

	res, err := c.Runner.Run(context.Background(), "coffee", cfg.Run.Seed)
	require.NoError(t, err)
	assert.Len(t, res.Result.Coffee.Observations, 4)

	runs, err := c.Store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "coffee", runs[0].Manifest.Scenario)
}

func TestNew_RejectsNilAndBadScenarioFile(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clt:\n  broken:\n    source: pareto\n    terms: 1\n    trials: 10\n"), 0o600))
	cfg := testConfig()
	cfg.Run.ScenarioFile = path
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}
