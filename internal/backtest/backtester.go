package backtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/invert50/internal/collector"
	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/strategy"
	"go.uber.org/zap"
)

// Recorder receives pipeline metrics. *metrics.Registry implements it.
type Recorder interface {
	RecordBacktest(status string, duration float64)
	RecordSignals(strategy, direction string, count int)
	RecordTrades(outcome string, count int)
}

// Backtester runs strategy backtests against historical data
type Backtester struct {
	engine        *strategy.Engine
	sources       *collector.Registry
	defaultSource string
	defaults      Defaults
	recorder      Recorder
	logger        *zap.Logger
}

// New creates a Backtester. sources may be nil when only RunSeries is used.
func New(engine *strategy.Engine, sources *collector.Registry, logger ...*zap.Logger) *Backtester {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Backtester{
		engine:   engine,
		sources:  sources,
		defaults: Defaults{Strategy: "invert50", Interval: "1d", Direction: core.Long, Sizing: DefaultSizing()},
		logger:   l,
	}
}

// Defaults fill the fields a Request leaves empty.
type Defaults struct {
	Strategy  string
	Interval  string
	Direction core.Direction
	Sizing    Sizing
}

// WithDefaults overrides the request defaults. Zero fields keep the built-in value.
func (b *Backtester) WithDefaults(d Defaults) *Backtester {
	if d.Strategy != "" {
		b.defaults.Strategy = d.Strategy
	}
	if d.Interval != "" {
		b.defaults.Interval = d.Interval
	}
	if d.Direction != "" {
		b.defaults.Direction = d.Direction
	}
	if d.Sizing != (Sizing{}) {
		b.defaults.Sizing = d.Sizing
	}
	return b
}

// WithDefaultSource sets the source used when a request names none.
func (b *Backtester) WithDefaultSource(name string) *Backtester {
	b.defaultSource = name
	return b
}

// WithRecorder attaches a metrics recorder.
func (b *Backtester) WithRecorder(r Recorder) *Backtester {
	b.recorder = r
	return b
}

func (b *Backtester) normalize(req Request) (Request, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		return req, core.WrapError(core.ErrConfigMissing, errors.New("symbol is required"))
	}
	if req.Strategy == "" {
		req.Strategy = b.defaults.Strategy
	}
	if req.Source == "" {
		req.Source = b.defaultSource
	}
	if req.Interval == "" {
		req.Interval = b.defaults.Interval
	}
	if req.Direction == "" {
		req.Direction = b.defaults.Direction
	}
	if req.Direction != core.Long && req.Direction != core.Short {
		return req, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown direction %q", req.Direction))
	}
	if req.Sizing == (Sizing{}) {
		req.Sizing = b.defaults.Sizing
	}
	if err := req.Sizing.Validate(); err != nil {
		return req, err
	}
	if !req.Start.IsZero() && !req.End.IsZero() && !req.End.After(req.Start) {
		return req, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("end %s is not after start %s", req.End.Format(time.DateOnly), req.Start.Format(time.DateOnly)))
	}
	return req, nil
}

// Run fetches history from the request's source and runs the pipeline over it.
func (b *Backtester) Run(ctx context.Context, req Request) (*Result, error) {
	req, err := b.normalize(req)
	if err != nil {
		return nil, err
	}

	if b.sources == nil {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("no data sources configured"))
	}
	src, ok := b.sources.Get(req.Source)
	if !ok {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown data source %q", req.Source))
	}

	started := time.Now()
	bars, err := src.FetchHistory(ctx, req.Symbol, req.Start, req.End, req.Interval)
	if err != nil {
		b.record("error", started)
		var coreErr *core.Error
		if errors.As(err, &coreErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("%s: %w", req.Source, err))
	}
	if len(bars) == 0 {
		b.record("no_data", started)
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("%s returned no bars for %s", req.Source, req.Symbol))
	}

	b.logger.Info("history fetched",
		zap.String("symbol", req.Symbol),
		zap.String("source", req.Source),
		zap.Int("bars", len(bars)),
	)

	return b.run(ctx, req, bars, started)
}

// RunSeries runs the pipeline over bars the caller already holds. The request's
// source is informational only.
func (b *Backtester) RunSeries(ctx context.Context, req Request, bars []core.OHLCV) (*Result, error) {
	req, err := b.normalize(req)
	if err != nil {
		return nil, err
	}
	return b.run(ctx, req, bars, time.Now())
}

func (b *Backtester) run(ctx context.Context, req Request, bars []core.OHLCV, started time.Time) (*Result, error) {
	if err := core.ValidateSeries(bars); err != nil {
		b.record("error", started)
		return nil, err
	}

	signals, err := b.engine.Analyze(ctx, req.Strategy, bars, req.Direction)
	if err != nil {
		b.record("error", started)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		b.record("error", started)
		return nil, err
	}

	trades := ApplySizing(Simulate(bars, signals), req.Sizing)
	summary := CalculateStats(trades)

	result := &Result{
		Strategy:  req.Strategy,
		Symbol:    req.Symbol,
		Source:    req.Source,
		Interval:  req.Interval,
		Direction: req.Direction,
		Start:     req.Start,
		End:       req.End,
		Bars:      bars,
		Signals:   signals,
		Trades:    trades,
		Summary:   summary,
		Sizing:    req.Sizing,
	}
	if len(bars) > 0 {
		if result.Start.IsZero() {
			result.Start = bars[0].Time
		}
		if result.End.IsZero() {
			result.End = bars[len(bars)-1].Time
		}
	}

	b.record("success", started)
	if b.recorder != nil {
		b.recorder.RecordSignals(req.Strategy, string(req.Direction), len(signals))
		b.recorder.RecordTrades(string(Win), summary.WinningTrades)
		b.recorder.RecordTrades(string(Loss), summary.LosingTrades)
		b.recorder.RecordTrades(string(Open), summary.OpenTrades)
	}

	b.logger.Info("backtest finished",
		zap.String("symbol", req.Symbol),
		zap.String("strategy", req.Strategy),
		zap.String("direction", string(req.Direction)),
		zap.Int("signals", len(signals)),
		zap.Int("closed", summary.TotalTrades),
		zap.Int("open", summary.OpenTrades),
		zap.Float64("gross_pnl", summary.GrossPnL),
		zap.Duration("elapsed", time.Since(started)),
	)

	return result, nil
}

func (b *Backtester) record(status string, started time.Time) {
	if b.recorder != nil {
		b.recorder.RecordBacktest(status, time.Since(started).Seconds())
	}
}
