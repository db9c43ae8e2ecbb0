package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/invert50/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Data     DataConfig     `mapstructure:"data"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Sizing   SizingConfig   `mapstructure:"sizing"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Mode        string `mapstructure:"mode"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
	StaticDir   string `mapstructure:"static_dir"` // served at / when set
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// DataConfig selects and configures the historical data sources.
type DataConfig struct {
	Source     string           `mapstructure:"source"` // polygon, yahoo, csv, clickhouse
	Interval   string           `mapstructure:"interval"`
	Timeout    time.Duration    `mapstructure:"timeout"`
	Polygon    PolygonConfig    `mapstructure:"polygon"`
	Yahoo      YahooConfig      `mapstructure:"yahoo"`
	CSV        CSVConfig        `mapstructure:"csv"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
}

type PolygonConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type YahooConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
}

type CSVConfig struct {
	Path string `mapstructure:"path"` // file or directory of <SYMBOL>.csv
}

type ClickHouseConfig struct {
	Addr     string `mapstructure:"addr"`
	Database string `mapstructure:"database"`
	Table    string `mapstructure:"table"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// StrategyConfig picks the default detector and overrides its params
// (kind, fast, mid, slow, anchor, reward_multiple, touch_tolerance).
type StrategyConfig struct {
	Name      string         `mapstructure:"name"`
	Direction string         `mapstructure:"direction"`
	Params    map[string]any `mapstructure:"params"`
}

type SizingConfig struct {
	Lots       int     `mapstructure:"lots"`
	PointValue float64 `mapstructure:"point_value"`
}

type LLMConfig struct {
	Provider     string       `mapstructure:"provider"`
	MaxTokens    int          `mapstructure:"max_tokens"`
	Temperature  float64      `mapstructure:"temperature"`
	SampleTrades int          `mapstructure:"sample_trades"`
	Claude       ClaudeConfig `mapstructure:"claude"`
	OpenAI       OpenAIConfig `mapstructure:"openai"`
	Ollama       OllamaConfig `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// ArchiveConfig controls where finished reports are exported. Empty type disables export.
type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// envAliases binds the bare provider variables used by hosted deployments.
var envAliases = map[string]string{
	"data.polygon.api_key": "POLYGON_API_KEY",
	"llm.claude.api_key":   "ANTHROPIC_API_KEY",
	"llm.openai.api_key":   "OPENAI_API_KEY",
	"server.port":          "PORT",
}

// Load reads configuration from file on top of Defaults. An empty path yields the
// defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envAliases {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Mode:        "release",
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Data: DataConfig{
			Source:   "polygon",
			Interval: "1d",
			Timeout:  30 * time.Second,
			ClickHouse: ClickHouseConfig{
				Database: "default",
				Table:    "candles",
			},
		},
		Strategy: StrategyConfig{
			Name:      "invert50",
			Direction: "long",
		},
		Sizing: SizingConfig{
			Lots:       1,
			PointValue: 1,
		},
		LLM: LLMConfig{
			MaxTokens:    1024,
			Temperature:  0.3,
			SampleTrades: 10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

var sources = map[string]bool{"polygon": true, "yahoo": true, "csv": true, "clickhouse": true}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.JobTTLHours < 0 || c.Server.MaxJobs < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("job_ttl_hours and max_jobs cannot be negative"))
	}

	if c.Data.Source != "" && !sources[c.Data.Source] {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown data source %q", c.Data.Source))
	}

	if c.Strategy.Direction != "" {
		if _, err := core.ParseDirection(c.Strategy.Direction); err != nil {
			return err
		}
	}

	if c.Sizing.Lots <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("sizing.lots must be positive, got %d", c.Sizing.Lots))
	}
	if c.Sizing.PointValue <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("sizing.point_value must be positive, got %f", c.Sizing.PointValue))
	}

	// LLM validation - if provider set, check config exists
	switch c.LLM.Provider {
	case "":
	case "claude":
		if c.LLM.Claude.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("claude api_key required when provider is claude"))
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("openai api_key required when provider is openai"))
		}
	case "ollama":
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}

	switch c.Archive.Type {
	case "":
	case "localfs":
		if c.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing, errors.New("archive.path required for localfs"))
		}
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing, errors.New("archive.s3.bucket required for s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive type %q", c.Archive.Type))
	}

	return nil
}
