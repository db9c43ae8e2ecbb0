package core

import "fmt"

// ValidateSeries rejects bars with non-finite OHLC values or timestamps that are not
// strictly increasing. The first offending bar fails the whole series.
func ValidateSeries(bars []OHLCV) error {
	for i, b := range bars {
		if !isFinite(b.Open) || !isFinite(b.High) || !isFinite(b.Low) || !isFinite(b.Close) {
			return WrapError(ErrMalformedBar,
				fmt.Errorf("bar %d at %s has non-finite OHLC (%v/%v/%v/%v)",
					i, b.Time.Format("2006-01-02 15:04:05"), b.Open, b.High, b.Low, b.Close))
		}
		if b.Time.IsZero() {
			return WrapError(ErrMalformedBar, fmt.Errorf("bar %d has no timestamp", i))
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return WrapError(ErrMalformedBar,
				fmt.Errorf("bar %d at %s is not after bar %d at %s",
					i, b.Time.Format("2006-01-02 15:04:05"), i-1, bars[i-1].Time.Format("2006-01-02 15:04:05")))
		}
	}
	return nil
}
