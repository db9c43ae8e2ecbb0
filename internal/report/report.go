// Package report turns a backtest result into the presentation shape served by the
// API and written by the exporter.
package report

import (
	"time"

	"github.com/newthinker/invert50/internal/backtest"
)

// NoTradesMessage is set on reports without any trade.
const NoTradesMessage = "no trades generated"

const timeLayout = "2006-01-02 15:04:05"

// Metrics are the formatted summary figures.
type Metrics struct {
	TotalTrades   int    `json:"total_trades"`
	WinningTrades int    `json:"winning_trades"`
	LosingTrades  int    `json:"losing_trades"`
	OpenTrades    int    `json:"open_trades"`
	HitRate       string `json:"hit_rate"`
	GrossPnL      string `json:"gross_pnl"`
	AvgWin        string `json:"avg_win"`
	AvgLoss       string `json:"avg_loss"`
	RewardToRisk  string `json:"reward_to_risk"`
	MaxDrawdown   string `json:"max_drawdown"`
}

// TradeRecord is one trade as shown to users.
type TradeRecord struct {
	EntryTime string   `json:"entry_time"`
	Direction string   `json:"direction"`
	Entry     float64  `json:"entry"`
	Stop      float64  `json:"stop"`
	Target    float64  `json:"target"`
	Outcome   string   `json:"outcome"`
	ExitTime  *string  `json:"exit_time"`
	ExitPrice *float64 `json:"exit_price"`
	PnL       float64  `json:"pnl"`
}

// Candle is one OHLC history point; Time is unix seconds.
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Report is the full presentation of one run.
type Report struct {
	Symbol      string        `json:"symbol"`
	Strategy    string        `json:"strategy"`
	Direction   string        `json:"direction"`
	Interval    string        `json:"interval"`
	Source      string        `json:"source,omitempty"`
	Start       string        `json:"start"`
	End         string        `json:"end"`
	Lots        int           `json:"lots"`
	PointValue  float64       `json:"point_value"`
	Message     string        `json:"message,omitempty"`
	Metrics     Metrics       `json:"metrics"`
	Trades      []TradeRecord `json:"trades"`
	EquityCurve []float64     `json:"equity_curve"`
	History     []Candle      `json:"history,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Option adjusts Build.
type Option func(*Report)

// WithoutHistory drops the OHLC history.
func WithoutHistory() Option {
	return func(r *Report) { r.History = nil }
}

// Build formats res. res is read, never modified.
func Build(res *backtest.Result, opts ...Option) *Report {
	s := res.Summary
	r := &Report{
		Symbol:     res.Symbol,
		Strategy:   res.Strategy,
		Direction:  string(res.Direction),
		Interval:   res.Interval,
		Source:     res.Source,
		Start:      res.Start.Format(time.DateOnly),
		End:        res.End.Format(time.DateOnly),
		Lots:       res.Sizing.Lots,
		PointValue: res.Sizing.PointValue,
		Metrics: Metrics{
			TotalTrades:   s.TotalTrades,
			WinningTrades: s.WinningTrades,
			LosingTrades:  s.LosingTrades,
			OpenTrades:    s.OpenTrades,
			HitRate:       Percent(s.HitRate),
			GrossPnL:      Money(s.GrossPnL),
			AvgWin:        Money(s.AvgWin),
			AvgLoss:       Money(s.AvgLoss),
			RewardToRisk:  Ratio(s.RewardToRisk),
			MaxDrawdown:   Money(s.MaxDrawdown),
		},
		Trades:      make([]TradeRecord, 0, len(res.Trades)),
		EquityCurve: make([]float64, 0, len(s.EquityCurve)),
		History:     make([]Candle, 0, len(res.Bars)),
		GeneratedAt: time.Now().UTC(),
	}

	for _, t := range res.Trades {
		r.Trades = append(r.Trades, tradeRecord(t))
	}
	for _, v := range s.EquityCurve {
		r.EquityCurve = append(r.EquityCurve, Price(v))
	}
	for _, b := range res.Bars {
		r.History = append(r.History, Candle{
			Time:  b.Time.Unix(),
			Open:  b.Open,
			High:  b.High,
			Low:   b.Low,
			Close: b.Close,
		})
	}
	if len(res.Trades) == 0 {
		r.Message = NoTradesMessage
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

func tradeRecord(t backtest.Trade) TradeRecord {
	rec := TradeRecord{
		EntryTime: t.Signal.Time.Format(timeLayout),
		Direction: string(t.Signal.Direction),
		Entry:     Price(t.Signal.Entry),
		Stop:      Price(t.Signal.Stop),
		Target:    Price(t.Signal.Target),
		Outcome:   string(t.Outcome),
		PnL:       Price(t.PnL),
	}
	if t.ExitTime != nil {
		exit := t.ExitTime.Format(timeLayout)
		price := Price(t.ExitPrice)
		rec.ExitTime = &exit
		rec.ExitPrice = &price
	}
	return rec
}
