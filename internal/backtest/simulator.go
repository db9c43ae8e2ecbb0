package backtest

import (
	"sort"

	"github.com/newthinker/invert50/internal/core"
)

// Simulate resolves every signal against the bars that follow it. Each signal is
// independent: overlapping trades are allowed and nothing is shared between them.
func Simulate(bars []core.OHLCV, signals []core.Signal) []Trade {
	trades := make([]Trade, 0, len(signals))
	for _, sig := range signals {
		trades = append(trades, simulate(bars, sig))
	}
	return trades
}

// simulate scans forward from the first bar strictly after the signal. A bar that
// reaches both levels counts as a loss: intrabar order is unknown, so the stop is
// assumed to fill first.
func simulate(bars []core.OHLCV, sig core.Signal) Trade {
	trade := Trade{Signal: sig, Outcome: Open, ExitIndex: -1}

	first := sort.Search(len(bars), func(i int) bool {
		return bars[i].Time.After(sig.Time)
	})

	for i := first; i < len(bars); i++ {
		b := bars[i]

		var stopHit, targetHit bool
		if sig.Direction == core.Short {
			stopHit = b.High >= sig.Stop
			targetHit = b.Low <= sig.Target
		} else {
			stopHit = b.Low <= sig.Stop
			targetHit = b.High >= sig.Target
		}

		switch {
		case stopHit:
			trade.Outcome = Loss
			trade.ExitPrice = sig.Stop
		case targetHit:
			trade.Outcome = Win
			trade.ExitPrice = sig.Target
		default:
			continue
		}

		exit := b.Time
		trade.ExitTime = &exit
		trade.ExitIndex = i
		return trade
	}

	return trade
}
