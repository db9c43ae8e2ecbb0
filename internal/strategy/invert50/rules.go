package invert50

import (
	"math"

	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/indicator"
	"github.com/newthinker/invert50/internal/strategy"
)

// rules holds the per-direction bar predicates over fast/mid/slow/anchor lines.
type rules struct {
	dir    core.Direction
	params strategy.Params
}

func newRules(dir core.Direction, p strategy.Params) rules {
	return rules{dir: dir, params: p}
}

func (r rules) lines(p indicator.Point) (fast, mid, slow float64) {
	return p.Get(r.params.FastSpec()), p.Get(r.params.MidSpec()), p.Get(r.params.SlowSpec())
}

// start is the first bar where the trend lines are all defined. The anchor may
// still be warming up; levels falls back to the reward multiple until it is.
func (r rules) start(f *indicator.Frame) int {
	return f.WarmupOf(r.params.FastSpec(), r.params.MidSpec(), r.params.SlowSpec())
}

// trend: fast > mid > slow for longs, slow > mid > fast for shorts.
func (r rules) trend(p indicator.Point) bool {
	fast, mid, slow := r.lines(p)
	if r.dir == core.Short {
		return slow > mid && mid > fast
	}
	return fast > mid && mid > slow
}

// touched: the bar reached the slow line against the trend.
func (r rules) touched(p indicator.Point) bool {
	slow := p.Get(r.params.SlowSpec())
	if r.dir == core.Short {
		return p.Bar.High >= slow
	}
	return p.Bar.Low <= slow
}

func (r rules) pullback(p indicator.Point) bool {
	return r.trend(p) && r.touched(p)
}

// strongCandle: body in the trend direction closing beyond the mid line.
func (r rules) strongCandle(p indicator.Point) bool {
	mid := p.Get(r.params.MidSpec())
	if r.dir == core.Short {
		return p.Bar.Close < p.Bar.Open && p.Bar.Close < mid
	}
	return p.Bar.Close > p.Bar.Open && p.Bar.Close > mid
}

func (r rules) trigger(p indicator.Point) bool {
	return r.trend(p) && r.strongCandle(p)
}

// nearSlow is the legacy touch test: extreme within tolerance×slow of the slow line.
func (r rules) nearSlow(p indicator.Point) bool {
	slow := p.Get(r.params.SlowSpec())
	extreme := p.Bar.Low
	if r.dir == core.Short {
		extreme = p.Bar.High
	}
	return math.Abs(extreme-slow) <= r.params.TouchTolerance*slow
}

// levels derives entry/stop/target from the trigger bar. The anchor line is the
// target when it lies on the profitable side of entry, otherwise entry ± k×risk.
func (r rules) levels(p indicator.Point) core.Signal {
	entry := p.Bar.Close
	stop := p.Bar.Low
	if r.dir == core.Short {
		stop = p.Bar.High
	}
	risk := math.Abs(entry - stop)
	anchor := p.Get(r.params.AnchorSpec())

	target := entry + r.dir.Sign()*r.params.RewardMultiple*risk
	if (r.dir == core.Long && anchor > entry) || (r.dir == core.Short && anchor < entry) {
		target = anchor
	}

	return core.Signal{
		Symbol:    p.Bar.Symbol,
		Direction: r.dir,
		Time:      p.Bar.Time,
		BarIndex:  p.Index,
		Entry:     entry,
		Stop:      stop,
		Target:    target,
	}
}
