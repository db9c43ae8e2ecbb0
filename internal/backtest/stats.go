package backtest

import (
	"math"
	"sort"
)

// ApplySizing returns a copy of trades with PnL set. Winners earn the full price
// distance, losers give it back; open trades carry zero.
func ApplySizing(trades []Trade, s Sizing) []Trade {
	out := make([]Trade, len(trades))
	copy(out, trades)

	mult := float64(s.Lots) * s.PointValue
	for i := range out {
		dist := math.Abs(out[i].ExitPrice-out[i].Signal.Entry) * mult
		switch out[i].Outcome {
		case Win:
			out[i].PnL = dist
		case Loss:
			out[i].PnL = -dist
		default:
			out[i].PnL = 0
		}
	}
	return out
}

// CalculateStats computes performance statistics from sized trades. Open trades are
// counted but excluded from every money figure.
func CalculateStats(trades []Trade) Summary {
	var s Summary

	closed := make([]Trade, 0, len(trades))
	for _, t := range trades {
		if t.IsClosed() {
			closed = append(closed, t)
		} else {
			s.OpenTrades++
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].Signal.Time.Before(closed[j].Signal.Time)
	})

	var sumWin, sumLoss float64
	s.EquityCurve = make([]float64, 0, len(closed))
	for _, t := range closed {
		if t.IsWin() {
			s.WinningTrades++
			sumWin += t.PnL
		} else {
			s.LosingTrades++
			sumLoss += math.Abs(t.PnL)
		}
		s.GrossPnL += t.PnL
		s.EquityCurve = append(s.EquityCurve, s.GrossPnL)
	}

	s.TotalTrades = len(closed)
	if s.TotalTrades > 0 {
		s.HitRate = float64(s.WinningTrades) / float64(s.TotalTrades)
	}
	if s.WinningTrades > 0 {
		s.AvgWin = sumWin / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = sumLoss / float64(s.LosingTrades)
	}
	if s.AvgLoss > 0 {
		rr := s.AvgWin / s.AvgLoss
		s.RewardToRisk = &rr
	}
	s.MaxDrawdown = calculateMaxDrawdown(s.EquityCurve)

	return s
}

// calculateMaxDrawdown finds the largest drop from a running peak of the equity curve
func calculateMaxDrawdown(equity []float64) float64 {
	if len(equity) < 2 {
		return 0
	}

	var maxDD float64
	peak := equity[0]
	for _, v := range equity[1:] {
		if v > peak {
			peak = v
		}
		if dd := peak - v; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
