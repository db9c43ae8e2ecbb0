package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// OHLCV represents a candlestick/bar
type OHLCV struct {
	Symbol   string
	Interval string // "1m", "5m", "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64 // 0 when the source has no volume
	Time     time.Time
}

// Direction is the side a detector looks for.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// ParseDirection accepts "long"/"short" plus the buy/sell aliases used by the web form.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy", "compra":
		return Long, nil
	case "short", "sell", "venda":
		return Short, nil
	default:
		return "", WrapError(ErrConfigInvalid, fmt.Errorf("unknown direction %q", s))
	}
}

// Sign is +1 for long and -1 for short.
func (d Direction) Sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

// Signal is one detected pattern occurrence. Immutable once emitted.
type Signal struct {
	Symbol    string
	Strategy  string
	Direction Direction
	Time      time.Time
	BarIndex  int
	Entry     float64
	Stop      float64
	Target    float64
}

// Risk returns the absolute distance between entry and stop.
func (s Signal) Risk() float64 {
	return math.Abs(s.Entry - s.Stop)
}

// Validate checks stop/target placement and positive risk.
func (s Signal) Validate() error {
	if !isFinite(s.Entry) || !isFinite(s.Stop) || !isFinite(s.Target) {
		return fmt.Errorf("non-finite levels (entry=%v stop=%v target=%v)", s.Entry, s.Stop, s.Target)
	}
	if s.Risk() <= 0 {
		return fmt.Errorf("zero risk at entry %v", s.Entry)
	}
	switch s.Direction {
	case Long:
		if !(s.Stop < s.Entry && s.Entry < s.Target) {
			return fmt.Errorf("long levels out of order: stop=%v entry=%v target=%v", s.Stop, s.Entry, s.Target)
		}
	case Short:
		if !(s.Target < s.Entry && s.Entry < s.Stop) {
			return fmt.Errorf("short levels out of order: target=%v entry=%v stop=%v", s.Target, s.Entry, s.Stop)
		}
	default:
		return fmt.Errorf("unknown direction %q", s.Direction)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
