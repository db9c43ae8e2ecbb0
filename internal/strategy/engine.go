package strategy

import (
	"context"
	"sort"
	"sync"

	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/indicator"
	"go.uber.org/zap"
)

// Engine manages the registered detectors
type Engine struct {
	mu        sync.RWMutex
	detectors map[string]Detector
	logger    *zap.Logger
}

// NewEngine creates a new strategy engine
func NewEngine(logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{
		detectors: make(map[string]Detector),
		logger:    l,
	}
}

// Register adds a detector to the engine
func (e *Engine) Register(d Detector) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.detectors[d.Name()] = d
}

// Get retrieves a detector by name
func (e *Engine) Get(name string) (Detector, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.detectors[name]
	return d, ok
}

// GetAll returns all registered detectors sorted by name
func (e *Engine) GetAll() []Detector {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]Detector, 0, len(e.detectors))
	for _, d := range e.detectors {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Analyze computes the detector's indicators over bars and runs detection for one
// direction. The caller's bars are copied, never modified.
func (e *Engine) Analyze(ctx context.Context, name string, bars []core.OHLCV, dir core.Direction) ([]core.Signal, error) {
	d, ok := e.Get(name)
	if !ok {
		return nil, core.WrapError(core.ErrStrategyNotFound, nil)
	}

	if len(bars) < d.MinBars() {
		e.logger.Debug("series shorter than warm-up, no signals",
			zap.String("strategy", name),
			zap.Int("bars", len(bars)),
			zap.Int("min_bars", d.MinBars()),
		)
		return nil, nil
	}

	frame, err := indicator.Compute(bars, d.Indicators()...)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	signals := d.Detect(frame, dir)
	for i := range signals {
		signals[i].Strategy = name
	}

	e.logger.Debug("detection finished",
		zap.String("strategy", name),
		zap.String("direction", string(dir)),
		zap.Int("bars", frame.Len()),
		zap.Int("signals", len(signals)),
	)

	return signals, nil
}
