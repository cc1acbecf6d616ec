// Package ui is a read-only HTML browser over stored runs.
package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gofit/app"
	"gofit/domain/core"
	"gofit/internal"
	"gofit/internal/report"
	"gofit/ports"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

const listLimit = 100

// App renders stored run summaries as HTML
type App struct {
	router    *chi.Mux
	store     ports.ResultStore
	scenarios func() []app.Scenario
	templates *template.Template
	base      string
	logger    *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	// Base is the path prefix the app is mounted under, used for links
	Base string
	// RequestLog enables chi's request logger
	RequestLog bool
}

// NewApp creates the browser. runner may be nil, store must not be.
func NewApp(cfg Config, store ports.ResultStore, runner *app.ScenarioRunner, logger *internal.Logger) (*App, error) {
	if store == nil {
		return nil, fmt.Errorf("ui requires a result store")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	templates, err := template.New("").ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		store:     store,
		templates: templates,
		base:      cfg.Base,
		logger:    logger,
		scenarios: func() []app.Scenario { return nil },
	}
	if runner != nil {
		a.scenarios = runner.Scenarios
	}

	if cfg.RequestLog {
		a.router.Use(middleware.Logger)
	}
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
	a.setupRoutes()
	return a, nil
}

func (a *App) setupRoutes() {
	a.router.Get("/", a.handleRuns)
	a.router.Get("/scenarios", a.handleScenarios)
	a.router.Get("/runs/{id}", a.handleRun)
	a.router.Get("/runs/{id}/summary.md", a.handleRunMarkdown)
}

// ServeHTTP implements http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

type page struct {
	Title     string
	Base      string
	Runs      []ports.StoredRun
	Run       *ports.StoredRun
	Scenarios []app.Scenario
	Body      template.HTML
}

func (a *App) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := a.store.ListRuns(r.Context(), listLimit)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.render(w, "runs.html", page{Title: "Runs", Base: a.base, Runs: runs})
}

func (a *App) handleScenarios(w http.ResponseWriter, r *http.Request) {
	a.render(w, "scenarios.html", page{Title: "Scenarios", Base: a.base, Scenarios: a.scenarios()})
}

func (a *App) handleRun(w http.ResponseWriter, r *http.Request) {
	stored, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	a.render(w, "run.html", page{
		Title: stored.Manifest.Scenario,
		Base:  a.base,
		Run:   stored,
		// summaries are generated by the scenario runner, never user supplied
		Body: template.HTML(report.ToHTMLFragment(stored.Summary)),
	})
}

func (a *App) handleRunMarkdown(w http.ResponseWriter, r *http.Request) {
	stored, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(stored.Summary))
}

func (a *App) loadRun(w http.ResponseWriter, r *http.Request) (*ports.StoredRun, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	stored, err := a.store.GetRun(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return nil, false
	}
	return stored, true
}

func (a *App) fail(w http.ResponseWriter, err error) {
	if core.IsNotFoundError(err) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	a.logger.Error("ui: %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// render executes into a buffer first so template errors never produce half a page
func (a *App) render(w http.ResponseWriter, name string, data page) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		a.logger.Error("template %s: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
