package backtest

import (
	"fmt"
	"time"

	"github.com/newthinker/invert50/internal/core"
)

// Outcome is how a simulated trade ended.
type Outcome string

const (
	Win  Outcome = "win"
	Loss Outcome = "loss"
	Open Outcome = "open" // neither level touched before the data ran out
)

// Trade is the simulated result of one signal.
type Trade struct {
	Signal    core.Signal
	Outcome   Outcome
	ExitTime  *time.Time // nil while open
	ExitPrice float64    // exactly the stop or the target
	ExitIndex int        // bar index of the exit, -1 while open
	PnL       float64    // set by ApplySizing
}

// IsClosed returns true if the trade hit its stop or target
func (t Trade) IsClosed() bool {
	return t.Outcome == Win || t.Outcome == Loss
}

// IsWin returns true if the trade reached its target
func (t Trade) IsWin() bool {
	return t.Outcome == Win
}

// Sizing converts price distance into money.
type Sizing struct {
	Lots       int
	PointValue float64
}

// DefaultSizing is one lot at one unit of money per point.
func DefaultSizing() Sizing {
	return Sizing{Lots: 1, PointValue: 1}
}

// Validate requires positive lots and point value.
func (s Sizing) Validate() error {
	if s.Lots <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("lots must be positive, got %d", s.Lots))
	}
	if !(s.PointValue > 0) {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("point value must be positive, got %v", s.PointValue))
	}
	return nil
}

// Summary holds performance statistics over closed trades.
type Summary struct {
	TotalTrades   int // closed trades only
	WinningTrades int
	LosingTrades  int
	OpenTrades    int
	HitRate       float64 // fraction in [0, 1]
	GrossPnL      float64
	AvgWin        float64
	AvgLoss       float64  // mean absolute loss
	RewardToRisk  *float64 // AvgWin / AvgLoss, nil when undefined
	MaxDrawdown   float64
	EquityCurve   []float64 // cumulative PnL in entry order
}

// Request describes one backtest run.
type Request struct {
	Symbol    string
	Strategy  string
	Source    string
	Interval  string
	Direction core.Direction
	Start     time.Time
	End       time.Time
	Sizing    Sizing
}

// Result holds the complete backtest output
type Result struct {
	Strategy  string
	Symbol    string
	Source    string
	Interval  string
	Direction core.Direction
	Start     time.Time
	End       time.Time
	Bars      []core.OHLCV
	Signals   []core.Signal
	Trades    []Trade
	Summary   Summary
	Sizing    Sizing
}
