package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func series(n int) []OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]OHLCV, n)
	for i := range bars {
		bars[i] = OHLCV{Open: 10, High: 11, Low: 9, Close: 10, Time: start.AddDate(0, 0, i)}
	}
	return bars
}

func TestValidateSeries_OK(t *testing.T) {
	if err := ValidateSeries(series(5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateSeries(nil); err != nil {
		t.Fatalf("empty series should be valid: %v", err)
	}
}

func TestValidateSeries_NonFinite(t *testing.T) {
	for name, mutate := range map[string]func(*OHLCV){
		"nan open":  func(b *OHLCV) { b.Open = math.NaN() },
		"inf high":  func(b *OHLCV) { b.High = math.Inf(1) },
		"-inf low":  func(b *OHLCV) { b.Low = math.Inf(-1) },
		"nan close": func(b *OHLCV) { b.Close = math.NaN() },
		"zero time": func(b *OHLCV) { b.Time = time.Time{} },
	} {
		t.Run(name, func(t *testing.T) {
			bars := series(5)
			mutate(&bars[2])
			err := ValidateSeries(bars)
			if !errors.Is(err, ErrMalformedBar) {
				t.Fatalf("expected MALFORMED_BAR, got %v", err)
			}
		})
	}
}

func TestValidateSeries_TimeOrder(t *testing.T) {
	dup := series(4)
	dup[2].Time = dup[1].Time
	if !errors.Is(ValidateSeries(dup), ErrMalformedBar) {
		t.Error("duplicate timestamp should be rejected")
	}

	backwards := series(4)
	backwards[3].Time = backwards[0].Time.Add(-time.Hour)
	if !errors.Is(ValidateSeries(backwards), ErrMalformedBar) {
		t.Error("decreasing timestamp should be rejected")
	}
}
