package snapshot

import (
	"time"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/analytics"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/history"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/ledger"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

const (
	// RecentAlerts is how many alerts a snapshot carries.
	RecentAlerts = 10
	// DetailHistory is how many samples a single-symbol detail carries.
	DetailHistory = 20
)

// Meta is the engine state stamped on a snapshot.
type Meta struct {
	Time       time.Time
	TickCount  int64
	MarketOpen bool
}

// Builder assembles snapshots from the ledger and history store. It reads
// both without locking; callers must hold the simulator lock.
type Builder struct {
	ledger  *ledger.Ledger
	history *history.Store
}

func NewBuilder(l *ledger.Ledger, h *history.Store) *Builder {
	return &Builder{ledger: l, history: h}
}

// Build returns a fresh snapshot. alerts is expected newest-first; only the
// most recent RecentAlerts are copied in.
func (b *Builder) Build(meta Meta, alerts []models.Alert) models.Snapshot {
	symbols := b.ledger.Symbols()
	snap := models.Snapshot{
		Timestamp:  meta.Time,
		TickCount:  meta.TickCount,
		MarketOpen: meta.MarketOpen,
		Stocks:     make(map[string]models.StockView, len(symbols)),
	}

	n := len(alerts)
	if n > RecentAlerts {
		n = RecentAlerts
	}
	snap.Alerts = make([]models.Alert, n)
	copy(snap.Alerts, alerts[:n])

	for _, sym := range symbols {
		inst, err := b.ledger.Get(sym)
		if err != nil {
			continue
		}
		snap.Stocks[sym] = b.view(inst, b.history.Window(sym, 0))
	}
	return snap
}

// Detail returns the enriched view of one symbol with up to n history samples.
func (b *Builder) Detail(symbol string, n int) (models.StockDetail, error) {
	inst, err := b.ledger.Get(symbol)
	if err != nil {
		return models.StockDetail{}, err
	}
	window := b.history.Window(symbol, 0)

	hist := window
	if n > 0 && len(hist) > n {
		hist = hist[len(hist)-n:]
	}

	return models.StockDetail{
		Symbol:    symbol,
		StockView: b.view(inst, window),
		History:   hist,
	}, nil
}

func (b *Builder) view(inst models.Instrument, window []models.Sample) models.StockView {
	high, low := analytics.HighLow(window)
	return models.StockView{
		Name:      inst.Name,
		Sector:    inst.Sector,
		Price:     inst.Price,
		Open:      inst.Open,
		Change:    analytics.Change(inst.Price, inst.Open),
		ChangePct: analytics.ChangePct(inst.Price, inst.Open),
		Volume:    inst.Volume,
		VWAP:      analytics.VWAP(window),
		High:      high,
		Low:       low,
		SMA5:      analytics.SMA(window, 5),
		SMA20:     analytics.SMA(window, 20),
	}
}
