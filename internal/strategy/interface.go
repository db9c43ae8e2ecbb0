package strategy

import (
	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/indicator"
)

// Config holds strategy configuration
type Config struct {
	Enabled bool
	Params  map[string]any
}

// Detector turns an indicator frame into signals for one direction.
//
// Detect must be a pure function of its inputs: two calls with the same frame and
// direction return identical signals, and nothing carries over between calls.
type Detector interface {
	Name() string
	Description() string
	Init(cfg Config) error

	// Indicators lists the lines Detect reads from the frame.
	Indicators() []indicator.Spec

	// MinBars is the shortest series that can produce a signal. Shorter input yields
	// no signals rather than an error.
	MinBars() int

	Detect(frame *indicator.Frame, dir core.Direction) []core.Signal
}
