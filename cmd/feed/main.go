package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/simulator"
	"github.com/shubham-shewale/market-feed/pkg/config"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "feed",
		Short:        "Simulated live market-data feed",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("FEED_CONFIG"), "config file (yaml, json or toml)")

	cmd.AddCommand(
		newServeCmd(opts),
		newSnapshotCmd(opts),
		newQuotesCmd(opts),
	)
	return cmd
}

// load reads configuration and builds the logger every subcommand shares.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func instruments(cfg *config.Config) ([]models.Instrument, error) {
	return config.LoadInstruments(cfg.Feed.InstrumentsFile)
}

func engineConfig(f config.FeedConfig) simulator.Config {
	return simulator.Config{
		TickInterval:      f.TickInterval,
		HeartbeatInterval: f.HeartbeatInterval,
		Volatility:        f.Volatility,
		AlertThreshold:    f.AlertThreshold,
		AlertCapacity:     f.AlertCapacity,
		HistoryLimit:      f.HistoryLimit,
	}
}
