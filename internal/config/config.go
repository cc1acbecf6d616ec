package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"gofit/internal"
	"gofit/internal/errors"
)

// DefaultSeed is the reproducibility seed used when FITLAB_SEED is unset
const DefaultSeed int64 = 42

// Config represents the complete application configuration
type Config struct {
	Run    RunConfig
	Store  StoreConfig
	Server ServerConfig
	Log    LogConfig
}

// RunConfig holds scenario execution settings
type RunConfig struct {
	Seed int64
	// ScenarioFile is an optional YAML file overriding the built-in scenarios
	ScenarioFile string
	Concurrency  int
	// CoffeeData replaces the built-in coffee readings (xlsx or csv)
	CoffeeData string
}

// StoreConfig holds result store settings. An empty DSN disables persistence.
type StoreConfig struct {
	DSN string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level internal.LogLevel
}

// Load reads an optional .env file, then environment variables, and validates the result.
// Variables already set in the environment win over the .env file.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, errors.Wrap(err, "failed to load environment file")
	}

	seed, err := getEnvInt64("FITLAB_SEED", DefaultSeed)
	if err != nil {
		return nil, err
	}
	level, ok := internal.ParseLogLevel(getEnvOrDefault("LOG_LEVEL", "INFO"))
	if !ok {
		return nil, errors.ConfigInvalid(fmt.Sprintf("LOG_LEVEL %q is not one of ERROR, WARN, INFO, DEBUG, TRACE", os.Getenv("LOG_LEVEL")))
	}

	config := &Config{
		Run: RunConfig{
			Seed:         seed,
			ScenarioFile: getEnvOrDefault("FITLAB_SCENARIOS", ""),
			Concurrency:  getEnvIntOrDefault("FITLAB_CONCURRENCY", 4),
			CoffeeData:   getEnvOrDefault("FITLAB_COFFEE_DATA", ""),
		},
		Store: StoreConfig{
			DSN: getEnvOrDefault("FITLAB_STORE_DSN", ""),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Log: LogConfig{Level: level},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// loadEnvFiles loads the given files, or ./.env when none are given.
// A missing default .env is not an error.
func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		return godotenv.Load()
	}
	return godotenv.Load(files...)
}

// Validate checks a config assembled outside Load, for example from CLI flags
func (c *Config) Validate() error {
	return validateConfig(c)
}

func validateConfig(config *Config) error {
	port, err := strconv.Atoi(config.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return errors.ConfigInvalid(fmt.Sprintf("PORT %q is not a valid port", config.Server.Port))
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("GIN_MODE %q must be debug, release or test", config.Server.GinMode))
	}
	if config.Run.Concurrency < 1 {
		return errors.ConfigInvalid("FITLAB_CONCURRENCY must be at least 1")
	}
	for _, f := range []struct{ key, path string }{
		{"FITLAB_SCENARIOS", config.Run.ScenarioFile},
		{"FITLAB_COFFEE_DATA", config.Run.CoffeeData},
	} {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("%s: %v", f.key, err))
		}
	}
	if dsn := config.Store.DSN; dsn != "" && !strings.Contains(dsn, ":") {
		return errors.ConfigInvalid(fmt.Sprintf("FITLAB_STORE_DSN %q needs a scheme (sqlite:, file:, postgres://)", dsn))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvInt64 rejects malformed values instead of silently using the default;
// a typo in the seed would otherwise change every result
func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s %q is not an integer", key, value))
	}
	return v, nil
}
