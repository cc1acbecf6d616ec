// Package api serves scenarios and stored runs over HTTP with gin.
package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gofit/app"
	"gofit/domain/core"
	"gofit/internal"
	"gofit/internal/errors"
	"gofit/ports"
)

const defaultListLimit = 50

// Server exposes the scenario runner and result store
type Server struct {
	router *gin.Engine
	runner *app.ScenarioRunner
	store  ports.ResultStore // may be nil
	seed   int64
	logger *internal.Logger
}

// NewServer builds the router. mode is a gin mode (debug, release, test).
func NewServer(runner *app.ScenarioRunner, store ports.ResultStore, seed int64, mode string, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	gin.SetMode(mode)
	s := &Server{
		router: gin.New(),
		runner: runner,
		store:  store,
		seed:   seed,
		logger: logger,
	}
	s.router.Use(gin.CustomRecovery(s.recoverPanic), s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/scenarios", s.handleListScenarios)
	s.router.POST("/scenarios/:name/run", s.handleRunScenario)
	s.router.GET("/runs", s.handleListRuns)
	s.router.GET("/runs/:id", s.handleGetRun)
	s.router.GET("/runs/:id/points/:evaluator", s.handleScanPoints)
	s.router.NoRoute(func(c *gin.Context) {
		s.respondError(c, errors.NotFound(fmt.Sprintf("route %s %s", c.Request.Method, c.Request.URL.Path)))
	})
}

// Mount serves h under prefix, for example the HTML report browser
func (s *Server) Mount(prefix string, h http.Handler) {
	s.router.GET(prefix+"/*path", gin.WrapH(http.StripPrefix(prefix, h)))
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// respondError maps err to an HTTP status through its error code
func (s *Server) respondError(c *gin.Context, err error) {
	err = errors.FromDomain(err)
	code := errors.GetCode(err)
	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.respondError(c, errors.InternalError(fmt.Sprintf("panic: %v", recovered)))
}

func (s *Server) requireStore(c *gin.Context) bool {
	if s.store == nil {
		err := errors.DatabaseError("no result store configured")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Code: err.Code})
		return false
	}
	return true
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"scenarios": len(s.runner.Names()),
		"store":     s.store != nil,
	})
}

func (s *Server) handleListScenarios(c *gin.Context) {
	scenarios := s.runner.Scenarios()
	out := make([]ScenarioInfo, len(scenarios))
	for i, sc := range scenarios {
		out[i] = ScenarioInfo{Name: sc.Name(), Kind: sc.Kind(), Description: sc.Description(), Params: sc.Params()}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleRunScenario(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
		s.respondError(c, errors.InvalidInput("body must be JSON like {\"seed\": 42}: "+err.Error()))
		return
	}
	seed := s.seed
	if req.Seed != nil {
		seed = *req.Seed
	}

	res, err := s.runner.Run(c.Request.Context(), c.Param("name"), seed)
	if res == nil {
		s.respondError(c, err)
		return
	}
	body := newRunResponse(res)
	if err != nil {
		appErr := errors.FromDomain(err)
		body.Code = errors.GetCode(appErr)
		c.JSON(errors.HTTPStatus(body.Code), body)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondError(c, errors.ValidationError("limit must be a positive integer"))
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]RunSummary, len(runs))
	for i, r := range runs {
		out[i] = newRunSummary(r)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) runID(c *gin.Context) (core.RunID, bool) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		s.respondError(c, errors.ValidationError(err.Error()))
		return "", false
	}
	return id, true
}

func (s *Server) handleGetRun(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	id, ok := s.runID(c)
	if !ok {
		return
	}
	stored, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StoredRunResponse{
		RunSummary: newRunSummary(*stored),
		Summary:    stored.Summary,
		Result:     stored.Result,
	})
}

func (s *Server) handleScanPoints(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	id, ok := s.runID(c)
	if !ok {
		return
	}
	points, err := s.store.ScanPoints(c.Request.Context(), id, c.Param("evaluator"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}
