package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/hub"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/protocol"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

const (
	SnapshotKey   = "feed:snapshot"
	AlertsKey     = "feed:alerts"
	AlertsChannel = "alerts"
	KeyPrefix     = "stock:"
	ChannelPrefix = "prices."
)

// RedisMirror keeps the latest market state in Redis: the whole snapshot,
// one key per instrument, a capped alert list, and pub/sub channels for
// each. Readers never feed anything back into the engine.
type RedisMirror struct {
	logger        *zap.Logger
	rdb           RedisClient
	ttl           time.Duration
	alertCapacity int64
	seq           *sequencer
}

func NewRedisMirror(logger *zap.Logger, rdb RedisClient, ttl time.Duration, alertCapacity int) *RedisMirror {
	if alertCapacity <= 0 {
		alertCapacity = 30
	}
	return &RedisMirror{
		logger:        logger,
		rdb:           rdb,
		ttl:           ttl,
		alertCapacity: int64(alertCapacity),
		seq:           newSequencer(),
	}
}

func (m *RedisMirror) Name() string { return "redis" }

func (m *RedisMirror) Handle(ctx context.Context, evt hub.Event) error {
	switch evt.Name {
	case protocol.EventTick:
		snap, ok := evt.Payload.(models.Snapshot)
		if !ok {
			return fmt.Errorf("redis mirror: unexpected tick payload %T", evt.Payload)
		}
		return m.writeSnapshot(ctx, snap)
	case protocol.EventAlert:
		alert, ok := evt.Payload.(models.Alert)
		if !ok {
			return fmt.Errorf("redis mirror: unexpected alert payload %T", evt.Payload)
		}
		return m.writeAlert(ctx, alert)
	}
	return nil
}

func (m *RedisMirror) writeSnapshot(ctx context.Context, snap models.Snapshot) error {
	full, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	// SET + PUBLISH for every symbol in a single round trip
	pipe := m.rdb.Pipeline()
	pipe.Set(ctx, SnapshotKey, full, m.ttl)
	for _, u := range m.seq.updates(snap) {
		payload, err := json.Marshal(u)
		if err != nil {
			m.logger.Error("JSON Marshal Error", zap.Error(err), zap.String("symbol", u.Symbol))
			continue
		}
		pipe.Set(ctx, KeyPrefix+u.Symbol, payload, m.ttl)
		pipe.Publish(ctx, ChannelPrefix+u.Symbol, payload)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	m.logger.Debug("Mirrored snapshot", zap.Int64("tick", snap.TickCount))
	return nil
}

func (m *RedisMirror) writeAlert(ctx context.Context, alert models.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	pipe := m.rdb.Pipeline()
	pipe.LPush(ctx, AlertsKey, payload)
	pipe.LTrim(ctx, AlertsKey, 0, m.alertCapacity-1)
	pipe.Publish(ctx, AlertsChannel, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

func (m *RedisMirror) Close() error {
	return m.rdb.Close()
}
