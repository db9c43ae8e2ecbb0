package indicator

import (
	"fmt"
	"math"

	"github.com/newthinker/invert50/internal/core"
)

// Kind selects the moving-average formula.
type Kind string

const (
	KindEMA Kind = "ema"
	KindSMA Kind = "sma"
)

// Spec names one indicator line, e.g. EMA(50).
type Spec struct {
	Kind Kind
	Span int
}

func (s Spec) String() string {
	switch s.Kind {
	case KindSMA:
		return fmt.Sprintf("SMA%d", s.Span)
	default:
		return fmt.Sprintf("EMA%d", s.Span)
	}
}

// Warmup returns the index of the first bar where the line covers a full span.
// EMA lines are seeded from the first close but are not read before this bar.
func (s Spec) Warmup() int {
	return s.Span - 1
}

// Frame is an immutable set of bars with indicator lines aligned by bar index.
// It owns a private copy of the bars; callers may reuse their slice freely.
type Frame struct {
	bars   []core.OHLCV
	specs  []Spec
	index  map[Spec]int
	lines  [][]float64
	warmup int
}

// Compute builds a Frame over the closes of bars. Duplicate specs are collapsed.
func Compute(bars []core.OHLCV, specs ...Spec) (*Frame, error) {
	f := &Frame{
		bars:  make([]core.OHLCV, len(bars)),
		index: make(map[Spec]int, len(specs)),
	}
	copy(f.bars, bars)

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	for _, s := range specs {
		if s.Span <= 0 {
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("%s: span must be positive", s))
		}
		if s.Kind != KindEMA && s.Kind != KindSMA {
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown indicator kind %q", s.Kind))
		}
		if _, dup := f.index[s]; dup {
			continue
		}

		var line []float64
		switch s.Kind {
		case KindSMA:
			line = alignSMA(SMA(closes, s.Span), len(closes), s.Span)
		default:
			line = EMA(closes, s.Span)
		}

		f.index[s] = len(f.specs)
		f.specs = append(f.specs, s)
		f.lines = append(f.lines, line)
		if w := s.Warmup(); w > f.warmup {
			f.warmup = w
		}
	}

	return f, nil
}

// alignSMA pads the SMA output so index i refers to bar i.
func alignSMA(values []float64, n, period int) []float64 {
	out := make([]float64, n)
	for i := range values {
		out[i+period-1] = values[i]
	}
	return out
}

// Len returns the number of bars.
func (f *Frame) Len() int {
	return len(f.bars)
}

// Specs returns the configured lines in insertion order.
func (f *Frame) Specs() []Spec {
	out := make([]Spec, len(f.specs))
	copy(out, f.specs)
	return out
}

// Bars returns a copy of the underlying bars.
func (f *Frame) Bars() []core.OHLCV {
	out := make([]core.OHLCV, len(f.bars))
	copy(out, f.bars)
	return out
}

// Bar returns bar i.
func (f *Frame) Bar(i int) core.OHLCV {
	return f.bars[i]
}

// Warmup returns the first index at which every line is defined.
func (f *Frame) Warmup() int {
	return f.warmup
}

// WarmupOf returns the first index at which all of specs are defined.
func (f *Frame) WarmupOf(specs ...Spec) int {
	w := 0
	for _, s := range specs {
		if s.Warmup() > w {
			w = s.Warmup()
		}
	}
	return w
}

// Ready reports whether every line has a value at bar i.
func (f *Frame) Ready(i int) bool {
	return i >= f.warmup && i < len(f.bars)
}

// Value returns the value of spec at bar i. ok is false when the spec is unknown
// or the line is still warming up.
func (f *Frame) Value(i int, s Spec) (float64, bool) {
	idx, known := f.index[s]
	if !known || i < s.Warmup() || i < 0 || i >= len(f.bars) {
		return 0, false
	}
	return f.lines[idx][i], true
}

// Line returns a copy of one full line. SMA warm-up slots are zero; EMA slots
// carry the seeded values.
func (f *Frame) Line(s Spec) ([]float64, bool) {
	idx, ok := f.index[s]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(f.lines[idx]))
	copy(out, f.lines[idx])
	return out, true
}

// Point is the per-bar record a detector consumes.
type Point struct {
	Index int
	Bar   core.OHLCV
	frame *Frame
}

// Point returns the record for bar i.
func (f *Frame) Point(i int) Point {
	return Point{Index: i, Bar: f.bars[i], frame: f}
}

// Get returns the indicator value on this bar, NaN when undefined. Every comparison
// against NaN is false, so an undefined line can never satisfy a condition.
func (p Point) Get(s Spec) float64 {
	v, ok := p.frame.Value(p.Index, s)
	if !ok {
		return math.NaN()
	}
	return v
}

// MaxSpan returns the longest span among specs, 0 when empty.
func MaxSpan(specs []Spec) int {
	longest := 0
	for _, s := range specs {
		if s.Span > longest {
			longest = s.Span
		}
	}
	return longest
}
