package collector

import (
	"context"
	"time"

	"github.com/newthinker/invert50/internal/core"
)

// Config holds collector configuration
type Config struct {
	Enabled  bool
	Interval string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	Extra    map[string]any
}

// Collector fetches historical bars from one data source.
type Collector interface {
	Name() string
	Init(cfg Config) error

	// FetchHistory returns bars in [start, end] sorted by time. An empty result is
	// not an error; callers decide whether no data is fatal.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}

// Closer is implemented by collectors holding connections.
type Closer interface {
	Close() error
}
