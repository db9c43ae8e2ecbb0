package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/invert50/internal/backtest"
	"github.com/newthinker/invert50/internal/config"
	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedLLM struct{}

func (cannedLLM) Name() string { return "canned" }
func (cannedLLM) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return &llm.Response{Text: "### Overall Diagnosis\nfine"}, nil
}

// writeCSV writes a flat 250-day series for symbol into dir.
func writeCSV(t *testing.T, dir, symbol string) {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("date,open,high,low,close,volume\n")
	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 250; i++ {
		sb.WriteString(fmt.Sprintf("%s,10,10.5,9.5,10,1000\n", day.AddDate(0, 0, i).Format("2006-01-02")))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(sb.String()), 0644))
}

func csvConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	writeCSV(t, dir, "PETR4")

	cfg := config.Defaults()
	cfg.Data.Source = "csv"
	cfg.Data.CSV.Path = dir
	return cfg
}

func TestNew_WiresServices(t *testing.T) {
	cfg := csvConfig(t)
	cfg.Archive = config.ArchiveConfig{Type: "localfs", Path: t.TempDir()}

	a, err := New(cfg, nil, WithLLM(cannedLLM{}))
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.Strategies().Get("invert50")
	assert.True(t, ok)
	_, ok = a.Strategies().Get("invert50_touch")
	assert.True(t, ok)
	_, ok = a.Collectors().Get("csv")
	assert.True(t, ok)
	_, ok = a.Collectors().Get("polygon")
	assert.False(t, ok, "polygon needs an api key")

	assert.NotNil(t, a.Analyzer())
	assert.NotNil(t, a.Exporter())
	assert.NotNil(t, a.Metrics())

	srv, err := a.Server()
	require.NoError(t, err)
	assert.NotNil(t, srv)
}

func TestNew_RunsBacktestFromCSV(t *testing.T) {
	a, err := New(csvConfig(t), nil)
	require.NoError(t, err)

	res, err := a.Backtester().Run(context.Background(), backtest.Request{Symbol: "petr4"})
	require.NoError(t, err)
	assert.Equal(t, "csv", res.Source)
	assert.Len(t, res.Bars, 250)
	assert.Empty(t, res.Trades)
	assert.Nil(t, a.Analyzer())
	assert.Nil(t, a.Exporter())
}

func TestNew_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"unconfigured source", func(c *config.Config) { c.Data.CSV.Path = ""; c.Data.Source = "csv" }, core.ErrConfigMissing},
		{"default polygon without key", func(c *config.Config) { c.Data.Source = "polygon" }, core.ErrConfigMissing},
		{"unknown strategy", func(c *config.Config) { c.Strategy.Name = "macd" }, core.ErrStrategyNotFound},
		{"bad direction", func(c *config.Config) { c.Strategy.Direction = "sideways" }, core.ErrConfigInvalid},
		{"bad llm", func(c *config.Config) { c.LLM.Provider = "bard" }, core.ErrConfigInvalid},
		{"bad archive", func(c *config.Config) { c.Archive.Type = "ftp" }, core.ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := csvConfig(t)
			tt.mutate(cfg)
			_, err := New(cfg, nil)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNew_StrategyParams(t *testing.T) {
	cfg := csvConfig(t)
	cfg.Strategy.Params = map[string]any{"slow": 30}

	a, err := New(cfg, nil)
	require.NoError(t, err)

	d, ok := a.Strategies().Get("invert50")
	require.True(t, ok)
	assert.Equal(t, 200, d.MinBars())

	cfg.Strategy.Params = map[string]any{"slow": "fifty"}
	_, err = New(cfg, nil)
	assert.Error(t, err)
}
