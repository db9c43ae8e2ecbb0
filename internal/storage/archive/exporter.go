package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/report"
	"go.uber.org/zap"
)

const reportsPrefix = "reports"

// Exporter writes reports as JSON documents into a Storage.
type Exporter struct {
	store  Storage
	logger *zap.Logger
}

// NewExporter wraps store.
func NewExporter(store Storage, logger ...*zap.Logger) *Exporter {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Exporter{store: store, logger: l}
}

// ReportPath is reports/<SYMBOL>/<strategy>_<direction>_<start>_<end>_<generated>.json.
func ReportPath(r *report.Report) string {
	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	name := fmt.Sprintf("%s_%s_%s_%s_%s.json",
		r.Strategy, r.Direction, r.Start, r.End, generated.UTC().Format("20060102T150405Z"))
	return path.Join(reportsPrefix, strings.ToUpper(r.Symbol), name)
}

// Export stores r and returns its path. r is not modified.
func (e *Exporter) Export(ctx context.Context, r *report.Report) (string, error) {
	if r == nil {
		return "", core.WrapError(core.ErrArchiveFailed, errors.New("nil report"))
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", core.WrapError(core.ErrArchiveFailed, err)
	}

	p := ReportPath(r)
	if err := e.store.Write(ctx, p, data); err != nil {
		e.logger.Warn("report export failed", zap.String("path", p), zap.Error(err))
		return "", core.WrapError(core.ErrArchiveFailed, err)
	}

	e.logger.Info("report exported", zap.String("path", p), zap.Int("bytes", len(data)))
	return p, nil
}

// Load reads back an exported report.
func (e *Exporter) Load(ctx context.Context, p string) (*report.Report, error) {
	data, err := e.store.Read(ctx, p)
	if err != nil {
		return nil, err
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", p, err)
	}
	return &r, nil
}

// List returns the exported report paths for symbol, oldest first.
func (e *Exporter) List(ctx context.Context, symbol string) ([]string, error) {
	paths, err := e.store.List(ctx, path.Join(reportsPrefix, strings.ToUpper(symbol)))
	if err != nil {
		return nil, err
	}
	out := paths[:0]
	for _, p := range paths {
		if strings.HasSuffix(p, ".json") {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return generatedStamp(out[i]) < generatedStamp(out[j]) })
	return out, nil
}

func generatedStamp(p string) string {
	base := strings.TrimSuffix(path.Base(p), ".json")
	if i := strings.LastIndex(base, "_"); i >= 0 {
		return base[i+1:]
	}
	return base
}
