// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/invert50/internal/analysis"
	handler "github.com/newthinker/invert50/internal/api/handler/api"
	"github.com/newthinker/invert50/internal/api/job"
	"github.com/newthinker/invert50/internal/api/middleware"
	"github.com/newthinker/invert50/internal/backtest"
	"github.com/newthinker/invert50/internal/metrics"
	"github.com/newthinker/invert50/internal/storage/archive"
	"github.com/newthinker/invert50/internal/strategy"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	jobs       *job.Store
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	StaticDir   string
	MetricsPath string
	MaxJobs     int
	JobTTL      time.Duration
}

// Dependencies are the services the handlers call. Analyzer, Exporter and
// Metrics are optional.
type Dependencies struct {
	Backtester *backtest.Backtester
	Strategies *strategy.Engine
	Analyzer   *analysis.Analyzer
	Exporter   *archive.Exporter
	Metrics    *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Backtester == nil || deps.Strategies == nil {
		return nil, errors.New("backtester and strategies are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()

	var h http.Handler = mux
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	h = metrics.LoggingMiddleware(logger)(h)

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 6 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
		jobs:   job.NewStore(cfg.MaxJobs, cfg.JobTTL),
	}

	s.setupRoutes(cfg, deps)
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	auth := middleware.APIKeyAuth(cfg.APIKey)
	v1 := func(pattern string, fn http.HandlerFunc) {
		s.mux.Handle(pattern, auth(fn))
	}

	backtests := handler.NewBacktestHandler(s.jobs, deps.Backtester, deps.Strategies, s.logger)
	if deps.Exporter != nil {
		backtests.WithExporter(deps.Exporter)
	}
	analyses := handler.NewAnalysisHandler(deps.Analyzer)
	if deps.Metrics != nil {
		backtests.WithJobsGauge(deps.Metrics)
		analyses.WithRecorder(deps.Metrics)
	}
	strategies := handler.NewStrategiesHandler(deps.Strategies)

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	v1("POST /api/v1/backtest", backtests.Run)
	v1("POST /api/v1/backtest/jobs", backtests.Create)
	v1("GET /api/v1/backtest/jobs/{id}", backtests.GetStatus)
	v1("POST /api/v1/analysis", analyses.Analyze)
	v1("GET /api/v1/strategies", strategies.List)

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	if cfg.StaticDir != "" {
		s.mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
