// Package csvfile reads bars from local CSV exports. UTF-8 and UTF-16 (with BOM) files
// are accepted; the header row is optional.
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/invert50/internal/collector"
	"github.com/newthinker/invert50/internal/core"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSV serves bars from a single file or from <dir>/<SYMBOL>.csv.
type CSV struct {
	path string
}

// New creates a CSV collector rooted at path, which may be a file or a directory.
func New(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) Name() string {
	return "csv"
}

// Init reads the path from Extra["path"] when set.
func (c *CSV) Init(cfg collector.Config) error {
	if p, ok := cfg.Extra["path"].(string); ok && p != "" {
		c.path = p
	}
	if c.path == "" {
		return core.WrapError(core.ErrConfigMissing, errors.New("csv path is required"))
	}
	return nil
}

func (c *CSV) resolve(symbol string) (string, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return filepath.Join(c.path, strings.ToUpper(symbol)+".csv"), nil
	}
	return c.path, nil
}

// FetchHistory parses the file and keeps bars inside [start, end]; a zero bound is open.
func (c *CSV) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	path, err := c.resolve(symbol)
	if err != nil {
		return nil, fmt.Errorf("resolving csv for %s: %w", symbol, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	bars, err := Parse(f, symbol, interval)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	out := bars[:0]
	for _, b := range bars {
		if !start.IsZero() && b.Time.Before(start) {
			continue
		}
		if !end.IsZero() && b.Time.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, ctx.Err()
}

type columns struct {
	time, open, high, low, close, volume int
}

var positional = columns{time: 0, open: 1, high: 2, low: 3, close: 4, volume: 5}

// header maps column names to positions. ok is false when rec is data, not a header.
func header(rec []string) (columns, bool) {
	cols := columns{time: -1, open: -1, high: -1, low: -1, close: -1, volume: -1}
	for i, name := range rec {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "time", "timestamp", "timestamp_ms", "date", "datetime", "open_time_ms", "t":
			cols.time = i
		case "open", "o":
			cols.open = i
		case "high", "h":
			cols.high = i
		case "low", "l":
			cols.low = i
		case "close", "c", "adj close":
			if cols.close < 0 {
				cols.close = i
			}
		case "volume", "vol", "v":
			cols.volume = i
		}
	}
	if cols.time < 0 || cols.open < 0 || cols.high < 0 || cols.low < 0 || cols.close < 0 {
		return positional, false
	}
	return cols, true
}

// Parse decodes CSV bars from r. Rows are returned in file order; ordering and
// finiteness are checked later by the pipeline.
func Parse(r io.Reader, symbol, interval string) ([]core.OHLCV, error) {
	br := bufio.NewReader(r)
	if b, _ := br.Peek(2); len(b) == 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		br = bufio.NewReader(transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	cols := positional
	var bars []core.OHLCV
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
		}
		if line == 1 {
			if h, ok := header(rec); ok {
				cols = h
				continue
			}
		}
		if len(rec) < 5 {
			continue
		}

		bar, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bar.Symbol = symbol
		bar.Interval = interval
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseRow(rec []string, cols columns) (core.OHLCV, error) {
	var bar core.OHLCV
	field := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(strings.Trim(rec[i], `"`))
	}

	ts, err := parseTime(field(cols.time))
	if err != nil {
		return bar, err
	}
	bar.Time = ts

	for _, f := range []struct {
		idx int
		dst *float64
	}{
		{cols.open, &bar.Open},
		{cols.high, &bar.High},
		{cols.low, &bar.Low},
		{cols.close, &bar.Close},
	} {
		v, err := strconv.ParseFloat(field(f.idx), 64)
		if err != nil {
			return bar, fmt.Errorf("column %d: %w", f.idx+1, err)
		}
		*f.dst = v
	}

	if s := field(cols.volume); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			bar.Volume = v
		}
	}
	return bar, nil
}

var layouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"2006.01.02 15:04",
	"2006.01.02",
}

// parseTime accepts unix seconds or milliseconds and a handful of date layouts (UTC).
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
