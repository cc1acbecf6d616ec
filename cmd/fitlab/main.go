package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"gofit/adapters/api"
	"gofit/app"
	"gofit/domain/core"
	"gofit/domain/stats"
	"gofit/internal"
	"gofit/internal/config"
	"gofit/internal/container"
	"gofit/internal/errors"
	"gofit/internal/report"
	"gofit/ui"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	envFile   string
	scenarios string
	logLevel  string
	store     string
}

func main() {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:           "fitlab",
		Short:         "Parameter scans, fits and toy simulations for introductory data analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.envFile, "env-file", "", "Environment file to load (default: ./.env if present)")
	rootCmd.PersistentFlags().StringVar(&g.scenarios, "scenarios", "", "YAML file overriding scenario parameters")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE")
	rootCmd.PersistentFlags().StringVar(&g.store, "store", "", "Result store DSN (sqlite:gofit.db, postgres://...)")

	rootCmd.AddCommand(
		newListCmd(&g),
		newRunCmd(&g),
		newScanCmd(&g),
		newServeCmd(&g),
		newRunsCmd(&g),
		newShowCmd(&g),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadContainer applies flag overrides on top of the environment configuration
func loadContainer(ctx context.Context, g *globalFlags, override func(*config.Config)) (*container.Container, error) {
	var envFiles []string
	if g.envFile != "" {
		envFiles = append(envFiles, g.envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	if g.scenarios != "" {
		cfg.Run.ScenarioFile = g.scenarios
	}
	if g.store != "" {
		cfg.Store.DSN = g.store
	}
	if g.logLevel != "" {
		level, ok := internal.ParseLogLevel(g.logLevel)
		if !ok {
			return nil, errors.ConfigInvalid(fmt.Sprintf("--log-level %q is not one of ERROR, WARN, INFO, DEBUG, TRACE", g.logLevel))
		}
		cfg.Log.Level = level
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return container.New(ctx, cfg)
}

func newListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(cmd.Context(), g, nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tDESCRIPTION")
			for _, s := range c.Runner.Scenarios() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name(), s.Kind(), s.Description())
			}
			return w.Flush()
		},
	}
}

// exportFlags are the output options shared by run and scan
type exportFlags struct {
	seed int64
	xlsx string
	html string
}

func (e *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&e.seed, "seed", config.DefaultSeed, "Random seed (default: FITLAB_SEED or 42)")
	cmd.Flags().StringVar(&e.xlsx, "xlsx", "", "Write score curves and estimates to this xlsx workbook")
	cmd.Flags().StringVar(&e.html, "html", "", "Write the run summaries to this HTML file")
}

// resolveSeed prefers an explicit --seed over the configured one
func (e *exportFlags) resolveSeed(cmd *cobra.Command, c *container.Container) int64 {
	if cmd.Flags().Changed("seed") {
		return e.seed
	}
	return c.Config.Run.Seed
}

func newRunCmd(g *globalFlags) *cobra.Command {
	var out exportFlags

	cmd := &cobra.Command{
		Use:   "run <scenario>|all",
		Short: "Run one scenario or all of them",
		Long: `Run a registered scenario, or every scenario concurrently with "all".

Each run prints a markdown summary and its replay fingerprint. Runs are
persisted when a store is configured (--store or FITLAB_STORE_DSN).

Example: fitlab run all --seed 7 --xlsx scans.xlsx --html report.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := loadContainer(ctx, g, nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			seed := out.resolveSeed(cmd, c)
			var results []*app.RunResult
			if args[0] == "all" {
				results, err = c.Runner.RunAll(ctx, seed)
				if err != nil {
					return err
				}
			} else {
				res, err := c.Runner.Run(ctx, args[0], seed)
				if res == nil {
					return err
				}
				results = []*app.RunResult{res}
			}
			return printResults(cmd, c, results, out)
		},
	}
	out.register(cmd)
	return cmd
}

func newScanCmd(g *globalFlags) *cobra.Command {
	var out exportFlags
	req := app.DefaultScanRequest()
	var name string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a likelihood scan with custom settings",
		Long: `Generate events, evaluate a goodness-of-fit score over a grid of the
parameter and extract its uncertainty three ways (parabola, asymmetric
parabola, threshold scan).

Example: fitlab scan --evaluator chi_square --bins 20 --min 0.8 --max 1.25 --steps 91`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := loadContainer(ctx, g, nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			scenarios, err := app.BuildScenarios(app.ScenarioSet{Scans: map[string]app.ScanRequest{name: req}}, c.Services)
			if err != nil {
				return err
			}
			runner := app.NewScenarioRunner(c.Store, c.Logger)
			if err := runner.Register(scenarios...); err != nil {
				return err
			}
			res, err := runner.Run(ctx, name, out.resolveSeed(cmd, c))
			if res == nil {
				return err
			}
			return printResults(cmd, c, []*app.RunResult{res}, out)
		},
	}
	out.register(cmd)
	f := cmd.Flags()
	f.StringVar(&name, "name", "scan", "Scenario name recorded with the run")
	f.StringVar(&req.Evaluator, "evaluator", req.Evaluator, "chi_square, binned_likelihood or unbinned_likelihood")
	f.StringVar(&req.Density, "density", req.Density, "exponential or gaussian")
	f.Float64Var(&req.DensitySigma, "density-sigma", 0, "Width of the gaussian density")
	f.Float64Var(&req.Truth, "truth", req.Truth, "True parameter used to generate events")
	f.IntVar(&req.Events, "events", req.Events, "Number of generated events")
	f.IntVar(&req.Bins, "bins", req.Bins, "Histogram bins")
	f.Float64Var(&req.HistLow, "hist-low", req.HistLow, "Lower histogram edge")
	f.Float64Var(&req.HistHigh, "hist-high", req.HistHigh, "Upper histogram edge")
	f.Float64Var(&req.ScanMin, "min", req.ScanMin, "Lower end of the scan")
	f.Float64Var(&req.ScanMax, "max", req.ScanMax, "Upper end of the scan")
	f.IntVar(&req.Steps, "steps", req.Steps, "Number of grid points")
	f.IntVar(&req.Window, "window", req.Window, "Grid points on each side of the minimum used by the parabola fits")
	return cmd
}

// printResults prints summaries and writes the requested exports. It fails when any run failed.
func printResults(cmd *cobra.Command, c *container.Container, results []*app.RunResult, out exportFlags) error {
	w := cmd.OutOrStdout()
	var summaries []string
	var failed []string
	for _, res := range results {
		summary := res.Summary()
		summaries = append(summaries, summary)
		fmt.Fprintln(w, summary)
		fmt.Fprintf(w, "run %s  seed %d  fingerprint %s  %s  (%s)\n\n",
			res.Manifest.RunID, res.Manifest.Seed, res.Manifest.Fingerprint.Short(), res.Status(), res.Duration.Round(time.Millisecond))
		if res.Err != nil {
			failed = append(failed, res.Manifest.Scenario)
		}
	}

	if out.xlsx != "" {
		reports := collectScanReports(results)
		if len(reports) == 0 {
			c.Logger.Warn("no scan reports to export to %s", out.xlsx)
		} else if err := c.Exporter.ExportScan(cmd.Context(), out.xlsx, reports); err != nil {
			return err
		} else {
			fmt.Fprintf(w, "wrote %d scan(s) to %s\n", len(reports), out.xlsx)
		}
	}
	if out.html != "" {
		page := report.ToHTML("fitlab report", strings.Join(summaries, "\n\n"))
		if err := os.WriteFile(out.html, page, 0o644); err != nil {
			return errors.Wrapf(err, "write %s", out.html)
		}
		fmt.Fprintf(w, "wrote %s\n", out.html)
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d scenario(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

func collectScanReports(results []*app.RunResult) []*stats.ScanReport {
	var out []*stats.ScanReport
	for _, res := range results {
		out = append(out, res.Result.ScanReports()...)
	}
	return out
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and the run browser",
		Long: `Serve the scenario API on /scenarios and /runs. With a result store
configured, stored runs can also be browsed as HTML under /ui.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := loadContainer(ctx, g, func(cfg *config.Config) {
				if port != "" {
					cfg.Server.Port = port
				}
			})
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			server := api.NewServer(c.Runner, c.Store, c.Config.Run.Seed, c.Config.Server.GinMode, c.Logger)
			if c.Store != nil {
				browser, err := ui.NewApp(ui.Config{Base: "/ui", RequestLog: c.Config.Server.GinMode == "debug"}, c.Store, c.Runner, c.Logger)
				if err != nil {
					return err
				}
				server.Mount("/ui", browser)
			} else {
				c.Logger.Info("no result store configured; /runs and /ui are disabled")
			}
			return server.ListenAndServe(ctx, ":"+c.Config.Server.Port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (default: PORT or 8080)")
	return cmd
}

func newRunsCmd(g *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := loadContainer(ctx, g, nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)
			if c.Store == nil {
				return errors.ConfigInvalid("no result store configured (use --store or FITLAB_STORE_DSN)")
			}

			runs, err := c.Store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tSCENARIO\tSEED\tSTATUS\tFINGERPRINT\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
					r.Manifest.RunID, r.Manifest.Scenario, r.Manifest.Seed, r.Status, r.Manifest.Fingerprint.Short(), r.Manifest.CreatedAt)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs (0 for all)")
	return cmd
}

func newShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the summary of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := core.ParseRunID(args[0])
			if err != nil {
				return err
			}
			c, err := loadContainer(ctx, g, nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)
			if c.Store == nil {
				return errors.ConfigInvalid("no result store configured (use --store or FITLAB_STORE_DSN)")
			}

			stored, err := c.Store.GetRun(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stored.Summary)
			fmt.Fprintf(cmd.OutOrStdout(), "seed %d  fingerprint %s  code %s  %s\n",
				stored.Manifest.Seed, stored.Manifest.Fingerprint, stored.Manifest.CodeVersion, stored.Status)
			return nil
		},
	}
}
