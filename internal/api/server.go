// Package api exposes analysis runs over HTTP: start a run, follow its
// progress as Server-Sent Events and query stored results.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"adhypo/domain/run"
	"adhypo/internal/orchestrator"
	"adhypo/ports"
)

// Runner executes one analysis run
type Runner interface {
	Execute(ctx context.Context, req orchestrator.Request) (*run.Result, error)
}

// Options configure the HTTP surface
type Options struct {
	// DataPath is used when a request names no dataset
	DataPath string
	// RunTimeout bounds background runs; zero means no limit
	RunTimeout time.Duration
}

// Server serves the run API
type Server struct {
	router *gin.Engine
	runner Runner
	runs   ports.RunRepository
	hub    *EventHub
	opts   Options
	logger *slog.Logger

	// background runs outlive their request but not the server
	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

func NewServer(runner Runner, runs ports.RunRepository, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, stop := context.WithCancel(context.Background())
	s := &Server{
		router:  gin.New(),
		runner:  runner,
		runs:    runs,
		hub:     NewEventHub(logger),
		opts:    opts,
		logger:  logger,
		baseCtx: ctx,
		stop:    stop,
	}
	s.router.Use(gin.Recovery(), requestLogger(logger))
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	runs := s.router.Group("/api/runs")
	{
		runs.POST("", s.createRun)
		runs.GET("", s.listRuns)
		runs.GET("/:id", s.getRun)
		runs.GET("/:id/evaluations", s.listEvaluations)
		runs.GET("/:id/events", s.streamEvents)
	}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Events returns the hub run progress is published to
func (s *Server) Events() *EventHub {
	return s.hub
}

// Wait blocks until every background run has finished
func (s *Server) Wait() {
	s.wg.Wait()
}

// Shutdown cancels background runs and waits for them to return, or for ctx
// to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds())
	}
}
