package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofit/internal"
	"gofit/internal/errors"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"FITLAB_SEED", "FITLAB_SCENARIOS", "FITLAB_CONCURRENCY", "FITLAB_COFFEE_DATA",
		"FITLAB_STORE_DSN", "PORT", "GIN_MODE", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSeed, cfg.Run.Seed)
	assert.Equal(t, 4, cfg.Run.Concurrency)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, internal.LogLevelInfo, cfg.Log.Level)
	assert.Empty(t, cfg.Store.DSN)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FITLAB_SEED", "7")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FITLAB_STORE_DSN", "sqlite::memory:")

	cfg, err := Load(writeEnvFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Run.Seed)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, internal.LogLevelDebug, cfg.Log.Level)
	assert.Equal(t, "sqlite::memory:", cfg.Store.DSN)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even to ""
	os.Unsetenv("FITLAB_SEED")
	os.Unsetenv("GIN_MODE")

	cfg, err := Load(writeEnvFile(t, "FITLAB_SEED=123\nGIN_MODE=test\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(123), cfg.Run.Seed)
	assert.Equal(t, "test", cfg.Server.GinMode)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"FITLAB_SEED", "forty-two"},
		{"PORT", "http"},
		{"PORT", "70000"},
		{"GIN_MODE", "production"},
		{"LOG_LEVEL", "loud"},
		{"FITLAB_CONCURRENCY", "0"},
		{"FITLAB_SCENARIOS", "/does/not/exist.yaml"},
		{"FITLAB_STORE_DSN", "gofit.db"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load(writeEnvFile(t, ""))
			require.Error(t, err)
			assert.Equal(t, "CONFIG_INVALID", errors.GetCode(err), "got %v", err)
		})
	}
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
