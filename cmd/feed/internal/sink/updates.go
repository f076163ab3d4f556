package sink

import (
	"sort"
	"time"

	"github.com/shubham-shewale/market-feed/pkg/models"
)

// sequencer numbers per-symbol updates so consumers can drop duplicates.
// It is owned by a single sink goroutine.
type sequencer struct {
	seq map[string]int64
}

func newSequencer() *sequencer {
	return &sequencer{seq: make(map[string]int64)}
}

// updates flattens a snapshot into one update per symbol, sorted by symbol.
func (s *sequencer) updates(snap models.Snapshot) []models.StockUpdate {
	symbols := make([]string, 0, len(snap.Stocks))
	for sym := range snap.Stocks {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	out := make([]models.StockUpdate, 0, len(symbols))
	for _, sym := range symbols {
		v := snap.Stocks[sym]
		s.seq[sym]++
		out = append(out, models.StockUpdate{
			Symbol:    sym,
			Price:     v.Price,
			Open:      v.Open,
			ChangePct: v.ChangePct,
			Volume:    v.Volume,
			VWAP:      v.VWAP,
			Timestamp: ts.UnixMicro(),
			SeqID:     s.seq[sym],
		})
	}
	return out
}
