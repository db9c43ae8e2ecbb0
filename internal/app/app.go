// Package app wires configuration into the services the CLI and the HTTP server use.
package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/invert50/internal/analysis"
	"github.com/newthinker/invert50/internal/api"
	"github.com/newthinker/invert50/internal/backtest"
	"github.com/newthinker/invert50/internal/collector"
	"github.com/newthinker/invert50/internal/collector/clickhouse"
	"github.com/newthinker/invert50/internal/collector/csvfile"
	"github.com/newthinker/invert50/internal/collector/polygon"
	"github.com/newthinker/invert50/internal/collector/yahoo"
	"github.com/newthinker/invert50/internal/config"
	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/llm"
	"github.com/newthinker/invert50/internal/llm/factory"
	"github.com/newthinker/invert50/internal/metrics"
	"github.com/newthinker/invert50/internal/storage/archive"
	"github.com/newthinker/invert50/internal/strategy"
	"github.com/newthinker/invert50/internal/strategy/invert50"
	"go.uber.org/zap"
)

// App is the main application container
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	collectors *collector.Registry
	strategies *strategy.Engine
	backtester *backtest.Backtester
	analyzer   *analysis.Analyzer
	exporter   *archive.Exporter
	metrics    *metrics.Registry
}

// Option customises New.
type Option func(*options)

type options struct {
	collectors []collector.Collector
	provider   llm.Provider
}

// WithCollector registers an already initialised collector next to the configured ones.
func WithCollector(c collector.Collector) Option {
	return func(o *options) { o.collectors = append(o.collectors, c) }
}

// WithLLM replaces the configured LLM provider.
func WithLLM(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// New builds every service cfg enables. cfg must already be validated.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		cfg:        cfg,
		logger:     logger,
		collectors: collector.NewRegistry(),
		strategies: strategy.NewEngine(logger),
	}

	if err := a.setupStrategies(); err != nil {
		return nil, err
	}
	if err := a.setupCollectors(o.collectors); err != nil {
		a.collectors.Close()
		return nil, err
	}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
	}
	if err := a.setupBacktester(); err != nil {
		a.collectors.Close()
		return nil, err
	}
	if err := a.setupAnalyzer(o.provider); err != nil {
		a.collectors.Close()
		return nil, err
	}
	if err := a.setupExporter(); err != nil {
		a.collectors.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) setupStrategies() error {
	params, err := strategy.DefaultParams().Merge(a.cfg.Strategy.Params)
	if err != nil {
		return err
	}
	a.strategies.Register(invert50.New(params, a.logger))
	a.strategies.Register(invert50.NewTouch(params, a.logger))

	if _, ok := a.strategies.Get(a.cfg.Strategy.Name); !ok {
		return core.WrapError(core.ErrStrategyNotFound, fmt.Errorf("%q", a.cfg.Strategy.Name))
	}
	return nil
}

func (a *App) setupCollectors(extra []collector.Collector) error {
	d := a.cfg.Data

	type candidate struct {
		c       collector.Collector
		enabled bool
		cfg     collector.Config
	}
	candidates := []candidate{
		{
			c:       polygon.New(),
			enabled: d.Polygon.APIKey != "",
			cfg:     collector.Config{APIKey: d.Polygon.APIKey, BaseURL: d.Polygon.BaseURL, Timeout: d.Timeout},
		},
		{
			c:       yahoo.New(),
			enabled: d.Yahoo.Enabled || d.Source == "yahoo",
			cfg:     collector.Config{BaseURL: d.Yahoo.BaseURL, Timeout: d.Timeout},
		},
		{
			c:       csvfile.New(d.CSV.Path),
			enabled: d.CSV.Path != "",
		},
		{
			c: clickhouse.New(clickhouse.Options{
				Addr:     d.ClickHouse.Addr,
				Database: d.ClickHouse.Database,
				Table:    d.ClickHouse.Table,
				Username: d.ClickHouse.Username,
				Password: d.ClickHouse.Password,
			}),
			enabled: d.ClickHouse.Addr != "",
			cfg:     collector.Config{Timeout: d.Timeout},
		},
	}

	for _, cand := range candidates {
		if !cand.enabled {
			continue
		}
		cand.cfg.Enabled = true
		cand.cfg.Interval = d.Interval
		if err := cand.c.Init(cand.cfg); err != nil {
			return fmt.Errorf("initializing %s collector: %w", cand.c.Name(), err)
		}
		a.collectors.Register(cand.c)
		a.logger.Info("collector registered", zap.String("name", cand.c.Name()))
	}
	for _, c := range extra {
		a.collectors.Register(c)
	}

	if _, ok := a.collectors.Get(d.Source); !ok {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("data source %q is not configured", d.Source))
	}
	return nil
}

func (a *App) setupBacktester() error {
	dir := core.Long
	if a.cfg.Strategy.Direction != "" {
		var err error
		if dir, err = core.ParseDirection(a.cfg.Strategy.Direction); err != nil {
			return err
		}
	}
	sizing := backtest.Sizing{Lots: a.cfg.Sizing.Lots, PointValue: a.cfg.Sizing.PointValue}
	if err := sizing.Validate(); err != nil {
		return err
	}

	a.backtester = backtest.New(a.strategies, a.collectors, a.logger).
		WithDefaultSource(a.cfg.Data.Source).
		WithDefaults(backtest.Defaults{
			Strategy:  a.cfg.Strategy.Name,
			Interval:  a.cfg.Data.Interval,
			Direction: dir,
			Sizing:    sizing,
		})
	if a.metrics != nil {
		a.backtester.WithRecorder(a.metrics)
	}
	return nil
}

func (a *App) setupAnalyzer(provider llm.Provider) error {
	if provider == nil {
		if a.cfg.LLM.Provider == "" {
			a.logger.Info("no LLM provider configured, analysis disabled")
			return nil
		}
		p, err := factory.New(a.cfg.LLM)
		if err != nil {
			return err
		}
		provider = p
	}
	a.analyzer = analysis.New(provider, analysis.Config{
		MaxTokens:    a.cfg.LLM.MaxTokens,
		Temperature:  a.cfg.LLM.Temperature,
		SampleTrades: a.cfg.LLM.SampleTrades,
	}, a.logger)
	return nil
}

func (a *App) setupExporter() error {
	store, err := archive.Open(a.cfg.Archive)
	if err != nil {
		return err
	}
	if store != nil {
		a.exporter = archive.NewExporter(store, a.logger)
	}
	return nil
}

// Backtester returns the configured pipeline.
func (a *App) Backtester() *backtest.Backtester { return a.backtester }

// Strategies returns the detector registry.
func (a *App) Strategies() *strategy.Engine { return a.strategies }

// Collectors returns the data source registry.
func (a *App) Collectors() *collector.Registry { return a.collectors }

// Analyzer is nil when no LLM is configured.
func (a *App) Analyzer() *analysis.Analyzer { return a.analyzer }

// Exporter is nil when archiving is disabled.
func (a *App) Exporter() *archive.Exporter { return a.exporter }

// Metrics is nil when metrics are disabled.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// Server builds the HTTP server over the app's services.
func (a *App) Server() (*api.Server, error) {
	s := a.cfg.Server
	return api.NewServer(api.Config{
		Host:        s.Host,
		Port:        s.Port,
		APIKey:      s.APIKey,
		StaticDir:   s.StaticDir,
		MetricsPath: a.cfg.Metrics.Path,
		MaxJobs:     s.MaxJobs,
		JobTTL:      time.Duration(s.JobTTLHours) * time.Hour,
	}, api.Dependencies{
		Backtester: a.backtester,
		Strategies: a.strategies,
		Analyzer:   a.analyzer,
		Exporter:   a.exporter,
		Metrics:    a.metrics,
	}, a.logger)
}

// Close releases collector connections.
func (a *App) Close() error {
	if err := a.collectors.Close(); err != nil {
		return errors.Join(errors.New("closing collectors"), err)
	}
	return nil
}
