package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
	}{
		{"long", Long},
		{"LONG", Long},
		{" buy ", Long},
		{"compra", Long},
		{"short", Short},
		{"sell", Short},
		{"venda", Short},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDirection("sideways")
	assert.True(t, errors.Is(err, ErrConfigInvalid))
}

func TestDirection_Sign(t *testing.T) {
	assert.Equal(t, 1.0, Long.Sign())
	assert.Equal(t, -1.0, Short.Sign())
}

func TestSignal_Validate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		sig     Signal
		wantErr bool
	}{
		{"valid long", Signal{Direction: Long, Time: now, Entry: 100, Stop: 95, Target: 110}, false},
		{"valid short", Signal{Direction: Short, Time: now, Entry: 100, Stop: 105, Target: 90}, false},
		{"long zero risk", Signal{Direction: Long, Entry: 100, Stop: 100, Target: 110}, true},
		{"long stop above entry", Signal{Direction: Long, Entry: 100, Stop: 101, Target: 110}, true},
		{"long target below entry", Signal{Direction: Long, Entry: 100, Stop: 95, Target: 99}, true},
		{"long target equals entry", Signal{Direction: Long, Entry: 100, Stop: 95, Target: 100}, true},
		{"short stop below entry", Signal{Direction: Short, Entry: 100, Stop: 99, Target: 90}, true},
		{"short target above entry", Signal{Direction: Short, Entry: 100, Stop: 105, Target: 101}, true},
		{"nan target", Signal{Direction: Long, Entry: 100, Stop: 95, Target: math.NaN()}, true},
		{"no direction", Signal{Entry: 100, Stop: 95, Target: 110}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sig.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSignal_Risk(t *testing.T) {
	assert.Equal(t, 5.0, Signal{Entry: 100, Stop: 95}.Risk())
	assert.Equal(t, 5.0, Signal{Entry: 100, Stop: 105}.Risk())
}
