// Package clickhouse reads candles from a ClickHouse table keyed by symbol, interval
// and open_time_ms.
package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/newthinker/invert50/internal/collector"
	"github.com/newthinker/invert50/internal/core"
)

// Options locate the candles table.
type Options struct {
	Addr     string
	Database string
	Table    string
	Username string
	Password string
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type querier interface {
	query(ctx context.Context, q string, args ...any) (rows, error)
	close() error
}

type driverQuerier struct {
	conn driver.Conn
}

func (d driverQuerier) query(ctx context.Context, q string, args ...any) (rows, error) {
	return d.conn.Query(ctx, q, args...)
}

func (d driverQuerier) close() error {
	return d.conn.Close()
}

// ClickHouse serves bars from a candles table
type ClickHouse struct {
	opts Options
	db   querier
}

// New creates a ClickHouse collector. The connection is opened by Init.
func New(opts Options) *ClickHouse {
	return &ClickHouse{opts: opts}
}

func (c *ClickHouse) Name() string {
	return "clickhouse"
}

// Init opens the connection. Extra may override addr, database, table, username
// and password.
func (c *ClickHouse) Init(cfg collector.Config) error {
	for key, dst := range map[string]*string{
		"addr":     &c.opts.Addr,
		"database": &c.opts.Database,
		"table":    &c.opts.Table,
		"username": &c.opts.Username,
		"password": &c.opts.Password,
	} {
		if v, ok := cfg.Extra[key].(string); ok && v != "" {
			*dst = v
		}
	}
	if c.opts.Addr == "" {
		return core.WrapError(core.ErrConfigMissing, errors.New("clickhouse addr is required"))
	}
	if c.opts.Database == "" {
		c.opts.Database = "default"
	}
	if c.opts.Table == "" {
		c.opts.Table = "candles"
	}
	if !identifier.MatchString(c.opts.Database) || !identifier.MatchString(c.opts.Table) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("invalid table name %s.%s", c.opts.Database, c.opts.Table))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	conn, err := ch.Open(&ch.Options{
		Addr: []string{c.opts.Addr},
		Auth: ch.Auth{
			Database: c.opts.Database,
			Username: c.opts.Username,
			Password: c.opts.Password,
		},
		DialTimeout: timeout,
	})
	if err != nil {
		return core.WrapError(core.ErrCollectorFailed, fmt.Errorf("clickhouse open: %w", err))
	}
	c.db = driverQuerier{conn: conn}
	return nil
}

func (c *ClickHouse) statement() string {
	return fmt.Sprintf(`
SELECT open_time_ms, open, high, low, close, volume
FROM %s.%s
WHERE symbol = ? AND interval = ? AND open_time_ms BETWEEN ? AND ?
ORDER BY open_time_ms`, c.opts.Database, c.opts.Table)
}

// FetchHistory selects candles in [start, end]. A zero end means now.
func (c *ClickHouse) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if c.db == nil {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("clickhouse collector not initialised"))
	}
	if interval == "" {
		interval = "1d"
	}
	if end.IsZero() {
		end = time.Now()
	}

	rs, err := c.db.query(ctx, c.statement(), symbol, interval, uint64(start.UnixMilli()), uint64(end.UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("querying candles: %w", err)
	}
	defer rs.Close()

	var data []core.OHLCV
	for rs.Next() {
		var (
			openTime       uint64
			o, h, l, cl, v float64
		)
		if err := rs.Scan(&openTime, &o, &h, &l, &cl, &v); err != nil {
			return nil, fmt.Errorf("scanning candle: %w", err)
		}
		data = append(data, core.OHLCV{
			Symbol:   symbol,
			Interval: interval,
			Open:     o,
			High:     h,
			Low:      l,
			Close:    cl,
			Volume:   v,
			Time:     time.UnixMilli(int64(openTime)).UTC(),
		})
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("reading candles: %w", err)
	}

	return data, nil
}

// Close releases the connection.
func (c *ClickHouse) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.close()
}
