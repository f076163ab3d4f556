package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/hub"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/protocol"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/sink"
	"github.com/shubham-shewale/market-feed/pkg/config"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOGGER_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSnapshotCommand(t *testing.T) {
	out, err := run(t, "snapshot", "--ticks", "25", "--seed", "42")
	require.NoError(t, err)

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, int64(25), snap.TickCount)
	assert.True(t, snap.MarketOpen)
	assert.Len(t, snap.Stocks, len(config.DefaultInstruments()))
	for sym, v := range snap.Stocks {
		assert.NotNil(t, v.SMA20, "%s should have sma20 after 25 ticks", sym)
		assert.GreaterOrEqual(t, v.Price, 0.01)
	}
}

func TestSnapshotCommand_RejectsNegativeTicks(t *testing.T) {
	_, err := run(t, "snapshot", "--ticks", "-1")
	assert.Error(t, err)
}

func TestQuotesCommand(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	t.Setenv("REDIS_ADDR", mr.Addr())

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mirror := sink.NewRedisMirror(zap.NewNop(), client, time.Hour, 30)
	require.NoError(t, mirror.Handle(context.Background(), hub.Event{
		Name: protocol.EventTick,
		Payload: models.Snapshot{
			Timestamp: time.Unix(1700000000, 0),
			Stocks:    map[string]models.StockView{"NVDA": {Price: 495.22, Open: 490}},
		},
	}))

	out, err := run(t, "quotes", "nvda", "AAPL")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	var u models.StockUpdate
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &u))
	assert.Equal(t, "NVDA", u.Symbol)
	assert.Equal(t, 495.22, u.Price)
}

func TestQuotesCommand_RequiresSymbol(t *testing.T) {
	_, err := run(t, "quotes")
	assert.Error(t, err)
}

func TestServe_FailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := config.Default()
	cfg.App.Port = ln.Addr().String()
	cfg.Feed.WarmupTicks = 0

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = serve(ctx, cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ln.Addr().String())
	assert.NoError(t, ctx.Err(), "serve should fail fast instead of waiting for the context")
}

func TestServe_CleanShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.App.Port = "127.0.0.1:0"
	cfg.Feed.WarmupTicks = 0

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	assert.NoError(t, serve(ctx, cfg, zap.NewNop()))
}
