package tests

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket" // Using Gorilla for the test CLIENT
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/gateway"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/hub"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/protocol"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/simulator"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/sink"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/testutils"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

func TestEndToEnd_FullFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := simulator.DefaultConfig()
	cfg.Volatility = 0.04
	h := hub.NewHub(64, zap.NewNop())
	clock := &testutils.MockClock{CurrentTime: time.Unix(1700000000, 0)}
	// every instrument moves +4% on every tick
	rnd := testutils.NewSequenceRand(0.6065306597126334, 1.0, 0.5)
	engine := simulator.NewEngine(cfg, zap.NewNop(), testutils.Instruments(), h, rnd, clock)

	writer := &testutils.MockKafkaWriter{}
	runner := sink.NewRunner(zap.NewNop(), engine,
		sink.NewRedisMirror(zap.NewNop(), rdb, time.Hour, 30),
		sink.NewKafkaSink(zap.NewNop(), writer, "market_ticks", "market_alerts"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runner.Run(ctx)
	}()

	server := httptest.NewServer(gateway.NewRouter(gateway.NewHandler(engine, zap.NewNop())))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	wsConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to websocket: %v", err)
	}
	defer wsConn.Close()

	// initial snapshot, then wait until both sinks and the client are attached
	var env protocol.WSMessage
	wsConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := wsConn.ReadJSON(&env); err != nil || env.Type != protocol.EventTick {
		t.Fatalf("Expected initial tick, got %+v (err=%v)", env, err)
	}
	for i := 0; i < 100 && h.Len() < 3; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	if h.Len() != 3 {
		t.Fatalf("Expected 3 subscribers, got %d", h.Len())
	}

	engine.Tick()

	// websocket: three alerts, then the tick
	var types []string
	for i := 0; i < 4; i++ {
		wsConn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := wsConn.ReadJSON(&env); err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		types = append(types, env.Type)
	}
	want := []string{"alert", "alert", "alert", "tick"}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, types)
		}
	}

	// redis: per-symbol key and capped alert list
	var u models.StockUpdate
	for i := 0; i < 20; i++ {
		if raw, err := mr.Get("stock:AAPL"); err == nil && json.Unmarshal([]byte(raw), &u) == nil && u.Price == 104 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if u.Price != 104 || u.Open != 100 {
		t.Fatalf("Mirror did not write the ticked quote to Redis, last seen %+v", u)
	}
	if n, _ := rdb.LLen(context.Background(), sink.AlertsKey).Result(); n != 3 {
		t.Errorf("Expected 3 mirrored alerts, got %d", n)
	}

	// kafka: initial snapshot (3) + alerts (3) + tick (3)
	for i := 0; i < 20 && writer.Count() < 9; i++ {
		time.Sleep(50 * time.Millisecond)
	}
	if writer.Count() != 9 {
		t.Errorf("Expected 9 kafka messages, got %d", writer.Count())
	}

	cancel()
	wg.Wait()
}
