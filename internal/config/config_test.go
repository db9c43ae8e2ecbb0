package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/invert50/internal/core"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
server:
  host: "127.0.0.1"
  port: 9090
  static_dir: "./web"

data:
  source: csv
  csv:
    path: "/data/bars"

strategy:
  name: invert50_touch
  direction: short
  params:
    kind: sma
    touch_tolerance: 0.02

sizing:
  lots: 5
  point_value: 0.2

archive:
  type: localfs
  path: "/tmp/invert50/reports"
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Server.StaticDir != "./web" {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Data.Source != "csv" || cfg.Data.CSV.Path != "/data/bars" {
		t.Errorf("unexpected data config %+v", cfg.Data)
	}
	if cfg.Strategy.Name != "invert50_touch" || cfg.Strategy.Params["kind"] != "sma" {
		t.Errorf("unexpected strategy config %+v", cfg.Strategy)
	}
	if cfg.Sizing.Lots != 5 || cfg.Sizing.PointValue != 0.2 {
		t.Errorf("unexpected sizing %+v", cfg.Sizing)
	}
	if cfg.Archive.Type != "localfs" {
		t.Errorf("expected localfs, got %s", cfg.Archive.Type)
	}

	// Unset keys keep their defaults.
	if cfg.Data.Interval != "1d" || cfg.Server.MaxJobs != 100 || cfg.Data.Timeout != 30*time.Second {
		t.Errorf("defaults lost: interval=%s max_jobs=%d timeout=%v", cfg.Data.Interval, cfg.Server.MaxJobs, cfg.Data.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_POLYGON_KEY", "pk_test")
	content := []byte(`
data:
  polygon:
    api_key: "${TEST_POLYGON_KEY}"
`)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Data.Polygon.APIKey != "pk_test" {
		t.Errorf("expected expanded api key, got %q", cfg.Data.Polygon.APIKey)
	}
}

func TestLoad_EnvAlias(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "from_env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Data.Polygon.APIKey != "from_env" {
		t.Errorf("expected POLYGON_API_KEY to bind, got %q", cfg.Data.Polygon.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Data.Source != "polygon" {
		t.Errorf("expected default source polygon, got %s", cfg.Data.Source)
	}
	if cfg.Strategy.Name != "invert50" {
		t.Errorf("expected default strategy invert50, got %s", cfg.Strategy.Name)
	}
	if cfg.LLM.SampleTrades != 10 {
		t.Errorf("expected 10 sample trades, got %d", cfg.LLM.SampleTrades)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   *core.Error
	}{
		{"invalid port - zero", func(c *Config) { c.Server.Port = 0 }, core.ErrConfigInvalid},
		{"invalid port - too high", func(c *Config) { c.Server.Port = 70000 }, core.ErrConfigInvalid},
		{"unknown source", func(c *Config) { c.Data.Source = "bloomberg" }, core.ErrConfigInvalid},
		{"bad direction", func(c *Config) { c.Strategy.Direction = "up" }, core.ErrConfigInvalid},
		{"zero lots", func(c *Config) { c.Sizing.Lots = 0 }, core.ErrConfigInvalid},
		{"negative point value", func(c *Config) { c.Sizing.PointValue = -1 }, core.ErrConfigInvalid},
		{"claude without key", func(c *Config) { c.LLM.Provider = "claude" }, core.ErrConfigMissing},
		{"openai without key", func(c *Config) { c.LLM.Provider = "openai" }, core.ErrConfigMissing},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "gemini" }, core.ErrConfigInvalid},
		{"s3 without bucket", func(c *Config) { c.Archive.Type = "s3" }, core.ErrConfigMissing},
		{"localfs without path", func(c *Config) { c.Archive.Type = "localfs" }, core.ErrConfigMissing},
		{"unknown archive", func(c *Config) { c.Archive.Type = "ftp" }, core.ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}

	cfg := Defaults()
	cfg.LLM.Provider = "ollama"
	if err := cfg.Validate(); err != nil {
		t.Errorf("ollama needs no key: %v", err)
	}
}
