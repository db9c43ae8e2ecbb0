package invert50

import (
	"fmt"

	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/indicator"
	"github.com/newthinker/invert50/internal/strategy"
	"go.uber.org/zap"
)

// TouchName is the registry name of the legacy touch-tolerance detector.
const TouchName = "invert50_touch"

// TouchDetector is the stateless legacy mode: an aligned bar whose extreme lies within
// TouchTolerance of the slow line, followed by a strong candle. The signal belongs to
// the strong candle, which supplies entry, stop and target.
type TouchDetector struct {
	params strategy.Params
	logger *zap.Logger
}

// NewTouch creates a TouchDetector.
func NewTouch(params strategy.Params, logger ...*zap.Logger) *TouchDetector {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &TouchDetector{params: params, logger: l}
}

func (d *TouchDetector) Name() string {
	return TouchName
}

func (d *TouchDetector) Description() string {
	p := d.params
	return fmt.Sprintf("Invert 50 touch (%s %d/%d/%d/%d, tolerance %.2f%%)",
		p.Kind, p.Fast, p.Mid, p.Slow, p.Anchor, p.TouchTolerance*100)
}

func (d *TouchDetector) Init(cfg strategy.Config) error {
	p, err := d.params.Merge(cfg.Params)
	if err != nil {
		return err
	}
	d.params = p
	return nil
}

func (d *TouchDetector) Indicators() []indicator.Spec {
	return d.params.Specs()
}

func (d *TouchDetector) MinBars() int {
	return indicator.MaxSpan(d.Indicators())
}

func (d *TouchDetector) Detect(frame *indicator.Frame, dir core.Direction) []core.Signal {
	if frame == nil || frame.Len() < d.MinBars() {
		return nil
	}

	r := newRules(dir, d.params)
	var signals []core.Signal

	for i := r.start(frame); i+1 < frame.Len(); i++ {
		setup, next := frame.Point(i), frame.Point(i+1)
		if !r.trend(setup) || !r.nearSlow(setup) || !r.strongCandle(next) {
			continue
		}

		sig := r.levels(next)
		if err := sig.Validate(); err != nil {
			d.logger.Debug("discarding signal", zap.Int("bar", i+1), zap.Error(err))
			continue
		}
		signals = append(signals, sig)
	}

	return signals
}
