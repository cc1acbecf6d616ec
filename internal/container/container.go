package container

import (
	"context"
	"fmt"

	"gofit/adapters/excel"
	"gofit/adapters/rng"
	"gofit/adapters/stats/minimizer"
	"gofit/adapters/store"
	"gofit/app"
	"gofit/internal"
	"gofit/internal/config"
	"gofit/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	RNG       ports.RNGPort
	Minimizer ports.Minimizer
	Store     ports.ResultStore // nil when no DSN is configured
	Reader    ports.ObservationReader
	Exporter  ports.ScanExporter

	// Services
	Services  app.Services
	Scenarios app.ScenarioSet
	Runner    *app.ScenarioRunner
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewLogger(cfg.Log.Level),
	}

	if err := c.initStore(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize result store: %w", err)
	}
	c.initServices()
	if err := c.initRunner(); err != nil {
		c.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize scenarios: %w", err)
	}

	c.Logger.Debug("container initialized with %d scenarios", len(c.Runner.Names()))
	return c, nil
}

// initStore opens the result store when a DSN is configured
func (c *Container) initStore(ctx context.Context) error {
	if c.Config.Store.DSN == "" {
		return nil
	}
	s, err := store.Open(ctx, c.Config.Store.DSN)
	if err != nil {
		return err
	}
	c.Store = s
	c.Logger.Info("storing runs in %s", c.Config.Store.DSN)
	return nil
}

// initServices creates the adapters and scenario services
func (c *Container) initServices() {
	c.RNG = rng.NewSeededAdapter()
	c.Minimizer = minimizer.Default()

	columns := excel.DefaultColumnConfig()
	columns.DefaultSigma = app.DefaultCoffeeRequest().Sigma
	c.Reader = excel.NewObservationReader(columns, c.Logger)
	c.Exporter = excel.NewScanWriter()

	c.Services = app.Services{
		Scan:        app.NewLikelihoodScanService(c.RNG, c.Logger),
		Coffee:      app.NewCoffeeService(c.Minimizer, c.Reader, c.Logger),
		Propagation: app.NewPropagationService(c.RNG, c.Logger),
		CLT:         app.NewCLTService(c.RNG, c.Logger),
	}
}

// initRunner loads the scenario set and registers every scenario
func (c *Container) initRunner() error {
	set, err := app.LoadScenarioFile(c.Config.Run.ScenarioFile)
	if err != nil {
		return err
	}
	if c.Config.Run.CoffeeData != "" && set.Coffee != nil {
		coffee := *set.Coffee
		coffee.DataFile = c.Config.Run.CoffeeData
		set.Coffee = &coffee
	}
	c.Scenarios = set

	scenarios, err := app.BuildScenarios(set, c.Services)
	if err != nil {
		return err
	}
	c.Runner = app.NewScenarioRunner(c.Store, c.Logger)
	c.Runner.SetConcurrency(c.Config.Run.Concurrency)
	return c.Runner.Register(scenarios...)
}

// Shutdown flushes the logger and closes the store
func (c *Container) Shutdown(ctx context.Context) error {
	_ = c.Logger.Sync()
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}
