package invert50

import (
	"testing"

	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/indicator"
	"github.com/newthinker/invert50/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTouchDetector_NearMissWithinTolerance(t *testing.T) {
	bars := uptrend(300, -1)
	ema50 := indicator.EMA(closesOf(bars), 50)
	// Half a percent above the slow line: the canonical detector needs a real touch.
	bars[150].Low = ema50[150] * 1.005

	touch := NewTouch(strategy.DefaultParams())
	signals := detect(t, touch, bars, core.Long)
	require.Len(t, signals, 1)
	assert.Equal(t, 151, signals[0].BarIndex)
	assert.Equal(t, bars[151].Close, signals[0].Entry)
	assert.Equal(t, bars[151].Low, signals[0].Stop)

	assert.Empty(t, detect(t, New(strategy.DefaultParams()), bars, core.Long))
}

func TestTouchDetector_OutsideTolerance(t *testing.T) {
	bars := uptrend(300, -1)
	ema50 := indicator.EMA(closesOf(bars), 50)
	bars[150].Low = ema50[150] * 1.02

	touch := NewTouch(strategy.DefaultParams())
	assert.Empty(t, detect(t, touch, bars, core.Long))
}

func TestTouchDetector_NeedsStrongNextBar(t *testing.T) {
	bars := uptrend(300, 150)
	bars[151].Open = bars[151].Close + 0.5

	touch := NewTouch(strategy.DefaultParams())
	assert.Empty(t, detect(t, touch, bars, core.Long))
}

func TestTouchDetector_Short(t *testing.T) {
	bars := downtrend(300, 150)

	touch := NewTouch(strategy.DefaultParams())
	signals := detect(t, touch, bars, core.Short)
	require.Len(t, signals, 1)
	assert.Equal(t, 151, signals[0].BarIndex)
	assert.Equal(t, bars[151].High, signals[0].Stop)
}

func TestTouchDetector_Metadata(t *testing.T) {
	touch := NewTouch(strategy.DefaultParams())
	assert.Equal(t, TouchName, touch.Name())
	assert.Equal(t, 200, touch.MinBars())
	assert.Contains(t, touch.Description(), "1.00%")
	assert.Empty(t, detect(t, touch, flat(250), core.Long))
}
