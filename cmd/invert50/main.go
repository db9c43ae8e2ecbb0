package main

import (
	"fmt"
	"os"

	"github.com/newthinker/invert50/internal/config"
	"github.com/newthinker/invert50/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "invert50",
	Short: "Invert 50 - moving-average trend pullback backtester",
	Long: `invert50 backtests the Invert 50 pullback pattern: with the fast, mid and
slow moving averages aligned, a pullback to the slow average followed by a strong
candle in the trend direction opens a trade with a fixed stop and target.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// loadConfig reads the config file (or defaults), lets override adjust it, then
// validates it and builds the logger it describes.
func loadConfig(override func(*config.Config)) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	log, err := logger.FromConfig(cfg.Log, debug)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults and environment")
	}
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
