// Package invert50 implements the Invert 50 trend-pullback detectors.
package invert50

import (
	"fmt"

	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/indicator"
	"github.com/newthinker/invert50/internal/strategy"
	"go.uber.org/zap"
)

// Name is the registry name of the canonical detector.
const Name = "invert50"

// Detector is the three-state pullback detector:
// seeking trend -> pullback confirmed -> seeking trigger -> seeking trend.
type Detector struct {
	params strategy.Params
	logger *zap.Logger
}

// New creates a Detector with the given params.
func New(params strategy.Params, logger ...*zap.Logger) *Detector {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Detector{params: params, logger: l}
}

func (d *Detector) Name() string {
	return Name
}

func (d *Detector) Description() string {
	p := d.params
	return fmt.Sprintf("Invert 50 pullback (%s %d/%d/%d/%d)", p.Kind, p.Fast, p.Mid, p.Slow, p.Anchor)
}

func (d *Detector) Init(cfg strategy.Config) error {
	p, err := d.params.Merge(cfg.Params)
	if err != nil {
		return err
	}
	d.params = p
	return nil
}

// Params returns the active params.
func (d *Detector) Params() strategy.Params {
	return d.params
}

func (d *Detector) Indicators() []indicator.Spec {
	return d.params.Specs()
}

func (d *Detector) MinBars() int {
	return indicator.MaxSpan(d.Indicators())
}

// Detect walks the frame once in time order.
func (d *Detector) Detect(frame *indicator.Frame, dir core.Direction) []core.Signal {
	if frame == nil || frame.Len() < d.MinBars() {
		return nil
	}

	r := newRules(dir, d.params)
	m := &machine{state: SeekingTrend}
	var signals []core.Signal

	for i := r.start(frame); i < frame.Len(); i++ {
		p := frame.Point(i)

		switch m.state {
		case SeekingTrend:
			if r.pullback(p) {
				d.step(m, evPullback, i)
				d.step(m, evArm, i)
			}

		case SeekingTrigger:
			if !r.trend(p) {
				d.step(m, evTrendLost, i)
				continue
			}
			if !r.trigger(p) {
				continue
			}

			sig := r.levels(p)
			d.step(m, evTriggered, i)
			if err := sig.Validate(); err != nil {
				d.logger.Debug("discarding signal",
					zap.Int("bar", i),
					zap.Time("time", p.Bar.Time),
					zap.Error(err),
				)
				continue
			}
			signals = append(signals, sig)
		}
	}

	return signals
}

func (d *Detector) step(m *machine, ev event, bar int) {
	from := m.state
	if err := m.fire(ev); err != nil {
		d.logger.Error("invalid transition", zap.Int("bar", bar), zap.Error(err))
		return
	}
	d.logger.Debug("transition",
		zap.Int("bar", bar),
		zap.Stringer("from", from),
		zap.Stringer("to", m.state),
	)
}
