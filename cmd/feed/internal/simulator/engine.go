package simulator

import (
	"context"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/analytics"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/history"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/hub"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/ledger"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/protocol"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/snapshot"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

const (
	minPrice = 0.01
	// notional traded per tick before the random multiplier, in currency units
	volumeNotional = 80000
)

type Config struct {
	TickInterval      time.Duration
	HeartbeatInterval time.Duration // 0 disables heartbeats
	Volatility        float64
	AlertThreshold    float64 // percent, absolute
	AlertCapacity     int
	HistoryLimit      int
}

func DefaultConfig() Config {
	return Config{
		TickInterval:      time.Second,
		HeartbeatInterval: 15 * time.Second,
		Volatility:        0.012,
		AlertThreshold:    3,
		AlertCapacity:     30,
		HistoryLimit:      history.DefaultLimit,
	}
}

// Engine owns the simulated market. A single writer (Tick, Reset,
// TogglePause) mutates state under mu; readers take the read lock.
//
// streamMu orders publication against Subscribe: a tick's events are
// published with streamMu held, and a new subscriber's initial snapshot is
// built and queued with streamMu held, so the two never interleave.
type Engine struct {
	cfg    Config
	logger *zap.Logger
	rand   Rand
	clock  Clock
	hub    Broadcaster

	mu        sync.RWMutex
	ledger    *ledger.Ledger
	history   *history.Store
	builder   *snapshot.Builder
	alerts    []models.Alert
	tickCount int64
	paused    bool
	entropy   io.Reader

	streamMu sync.Mutex
}

func NewEngine(
	cfg Config,
	logger *zap.Logger,
	instruments []models.Instrument,
	b Broadcaster,
	rnd Rand,
	clock Clock,
) *Engine {
	if cfg.AlertCapacity <= 0 {
		cfg.AlertCapacity = DefaultConfig().AlertCapacity
	}
	l := ledger.New(instruments)
	h := history.New(cfg.HistoryLimit)
	return &Engine{
		cfg:     cfg,
		logger:  logger,
		rand:    rnd,
		clock:   clock,
		hub:     b,
		ledger:  l,
		history: h,
		builder: snapshot.NewBuilder(l, h),
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// Tick advances every instrument by one step and publishes the resulting
// alerts followed by one tick snapshot. It returns false, changing nothing,
// while the market is paused.
func (e *Engine) Tick() bool {
	e.streamMu.Lock()
	defer e.streamMu.Unlock()

	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return false
	}

	now := e.clock.Now()
	e.tickCount++

	var fresh []models.Alert
	for _, sym := range e.ledger.Symbols() {
		inst, err := e.ledger.Get(sym)
		if err != nil {
			continue
		}

		price := e.nextPrice(inst.Price)
		volume := e.nextVolume(price)
		if err := e.ledger.ApplyTick(sym, price, volume); err != nil {
			e.logger.Error("Apply tick failed", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		e.history.Append(sym, models.Sample{Price: price, Volume: volume, Time: now})

		pct := analytics.ChangePct(price, inst.Open)
		if math.Abs(pct) >= e.cfg.AlertThreshold {
			alert := e.newAlert(inst, price, pct, now)
			e.recordAlert(alert)
			fresh = append(fresh, alert)
		}
	}

	snap := e.builder.Build(e.metaLocked(now), e.alerts)
	tick := e.tickCount
	e.mu.Unlock()

	for _, a := range fresh {
		e.hub.Publish(hub.Event{Name: protocol.EventAlert, Payload: a})
	}
	e.hub.Publish(hub.Event{Name: protocol.EventTick, Payload: snap})

	e.logger.Debug("Tick", zap.Int64("tick", tick), zap.Int("alerts", len(fresh)))
	return true
}

// Warmup runs n ticks back to back.
func (e *Engine) Warmup(n int) {
	for i := 0; i < n; i++ {
		e.Tick()
	}
	e.logger.Info("Warm-up complete", zap.Int("ticks", n))
}

// Run ticks at the configured cadence and emits heartbeats until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("Engine started",
		zap.Duration("tick_interval", e.cfg.TickInterval),
		zap.Duration("heartbeat_interval", e.cfg.HeartbeatInterval),
		zap.Strings("symbols", e.ledger.Symbols()),
	)

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	var heartbeat <-chan time.Time
	if e.cfg.HeartbeatInterval > 0 {
		hb := time.NewTicker(e.cfg.HeartbeatInterval)
		defer hb.Stop()
		heartbeat = hb.C
	}

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine stopped")
			return
		case <-ticker.C:
			e.Tick()
		case <-heartbeat:
			e.hub.Publish(hub.Event{Name: protocol.EventHeartbeat, Payload: e.clock.Now()})
		}
	}
}

func (e *Engine) Snapshot() models.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.builder.Build(e.metaLocked(e.clock.Now()), e.alerts)
}

// Instrument returns the detail view of one symbol with its last 20 samples.
func (e *Engine) Instrument(symbol string) (models.StockDetail, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.builder.Detail(symbol, snapshot.DetailHistory)
}

// Alerts returns every retained alert, newest first.
func (e *Engine) Alerts() []models.Alert {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.Alert, len(e.alerts))
	copy(out, e.alerts)
	return out
}

// TogglePause flips the market state and returns whether it is now paused.
func (e *Engine) TogglePause() bool {
	e.mu.Lock()
	e.paused = !e.paused
	paused := e.paused
	e.mu.Unlock()

	e.logger.Info("Market toggled", zap.Bool("paused", paused))
	return paused
}

func (e *Engine) Paused() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.paused
}

// Reset starts a new session: opens move to current prices and history,
// alerts and the tick counter are cleared. The pause state is kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.ledger.ResetSession()
	e.history.ClearAll()
	e.alerts = nil
	e.tickCount = 0
	e.mu.Unlock()

	e.logger.Info("Session reset")
}

// Subscribe registers a subscriber whose first event is a tick carrying the
// current snapshot.
func (e *Engine) Subscribe() *hub.Subscription {
	e.streamMu.Lock()
	defer e.streamMu.Unlock()

	snap := e.Snapshot()
	sub := e.hub.Subscribe(hub.Event{Name: protocol.EventTick, Payload: snap})
	e.logger.Info("Subscriber joined", zap.Int64("id", sub.ID))
	return sub
}

func (e *Engine) Unsubscribe(id int64) {
	e.hub.Unsubscribe(id)
}

func (e *Engine) metaLocked(now time.Time) snapshot.Meta {
	return snapshot.Meta{Time: now, TickCount: e.tickCount, MarketOpen: !e.paused}
}

func (e *Engine) nextPrice(price float64) float64 {
	next := price * (1 + e.gaussian()*e.cfg.Volatility)
	return analytics.Round2(math.Max(next, minPrice))
}

func (e *Engine) nextVolume(price float64) int64 {
	base := math.Floor(volumeNotional / price)
	v := int64(math.Floor(base*(0.4+e.rand.Float64()*1.6))) * 100
	if v < 0 {
		return 0
	}
	return v
}

// gaussian draws a standard normal with the Box–Muller transform. Both
// uniforms are redrawn until non-zero so the log is finite.
func (e *Engine) gaussian() float64 {
	var u, v float64
	for u == 0 {
		u = e.rand.Float64()
	}
	for v == 0 {
		v = e.rand.Float64()
	}
	return math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
}

func (e *Engine) newAlert(inst models.Instrument, price, pct float64, now time.Time) models.Alert {
	dir := models.DirectionUp
	if pct < 0 {
		dir = models.DirectionDown
	}
	id, err := ulid.New(ulid.Timestamp(now), e.entropy)
	if err != nil {
		id = ulid.Make()
	}
	return models.Alert{
		ID:        id.String(),
		Symbol:    inst.Symbol,
		Name:      inst.Name,
		Price:     price,
		ChangePct: pct,
		Direction: dir,
		Time:      now,
	}
}

func (e *Engine) recordAlert(a models.Alert) {
	e.alerts = append(e.alerts, models.Alert{})
	copy(e.alerts[1:], e.alerts)
	e.alerts[0] = a
	if len(e.alerts) > e.cfg.AlertCapacity {
		e.alerts = e.alerts[:e.cfg.AlertCapacity]
	}
}
