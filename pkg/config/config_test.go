package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubham-shewale/market-feed/pkg/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Feed.TickInterval)
	assert.Equal(t, 15*time.Second, cfg.Feed.HeartbeatInterval)
	assert.InDelta(t, 0.012, cfg.Feed.Volatility, 1e-12)
	assert.InDelta(t, 3.0, cfg.Feed.AlertThreshold, 1e-12)
	assert.Equal(t, 60, cfg.Feed.HistoryLimit)
	assert.Equal(t, 30, cfg.Feed.AlertCapacity)
	assert.Equal(t, 10, cfg.Feed.WarmupTicks)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "market_ticks", cfg.Kafka.Topic)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("FEED_TICK_INTERVAL", "250ms")
	t.Setenv("FEED_VOLATILITY", "0.05")
	t.Setenv("FEED_HISTORY_LIMIT", "5")
	t.Setenv("APP_PORT", ":9999")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Feed.TickInterval)
	assert.InDelta(t, 0.05, cfg.Feed.Volatility, 1e-12)
	assert.Equal(t, 5, cfg.Feed.HistoryLimit)
	assert.Equal(t, ":9999", cfg.App.Port)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.yaml")
	body := "feed:\n  alert_threshold: 1.5\n  warmup_ticks: 0\nlogger:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, cfg.Feed.AlertThreshold, 1e-12)
	assert.Equal(t, 0, cfg.Feed.WarmupTicks)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, time.Second, cfg.Feed.TickInterval)
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	t.Setenv("FEED_HISTORY_LIMIT", "0")

	_, err := config.LoadConfig("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		ok     bool
	}{
		{"defaults", func(c *config.Config) {}, true},
		{"zero volatility is allowed", func(c *config.Config) { c.Feed.Volatility = 0 }, true},
		{"negative volatility", func(c *config.Config) { c.Feed.Volatility = -0.1 }, false},
		{"zero tick interval", func(c *config.Config) { c.Feed.TickInterval = 0 }, false},
		{"zero threshold", func(c *config.Config) { c.Feed.AlertThreshold = 0 }, false},
		{"kafka without brokers", func(c *config.Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = nil
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadInstruments(t *testing.T) {
	insts, err := config.LoadInstruments("")
	require.NoError(t, err)
	assert.Len(t, insts, 10)
	assert.Equal(t, "AAPL", insts[0].Symbol)

	path := filepath.Join(t.TempDir(), "instruments.yaml")
	body := `instruments:
  - symbol: ibm
    name: IBM Corp.
    sector: Technology
    price: 180.5
  - symbol: KO
    name: Coca-Cola Co.
    sector: Consumer
    price: 60
    open: 59.5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	insts, err = config.LoadInstruments(path)
	require.NoError(t, err)
	require.Len(t, insts, 2)
	assert.Equal(t, "IBM", insts[0].Symbol)
	assert.InDelta(t, 180.5, insts[0].Open, 1e-12)
	assert.InDelta(t, 59.5, insts[1].Open, 1e-12)
}

func TestLoadInstruments_Duplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instruments.yaml")
	body := "instruments:\n  - {symbol: A, price: 1}\n  - {symbol: a, price: 2}\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := config.LoadInstruments(path)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := config.NewLogger(config.LoggerConfig{Level: "debug", Encoding: "console"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = config.NewLogger(config.LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}
