package ledger

import (
	"errors"
	"fmt"

	"github.com/shubham-shewale/market-feed/pkg/models"
)

// ErrNotFound is returned for lookups of symbols the ledger does not track.
var ErrNotFound = errors.New("symbol not found")

// Ledger owns the canonical state of every tracked instrument.
//
// It does no locking of its own: the simulator is its only writer and holds
// its lock for the whole per-tick mutation loop.
type Ledger struct {
	symbols     []string
	instruments map[string]*models.Instrument
}

// New builds a ledger in the order given. Duplicate symbols keep the first
// entry; a non-positive open starts the session at the current price.
func New(instruments []models.Instrument) *Ledger {
	l := &Ledger{
		instruments: make(map[string]*models.Instrument, len(instruments)),
	}
	for _, inst := range instruments {
		if _, exists := l.instruments[inst.Symbol]; exists {
			continue
		}
		inst := inst
		if inst.Open <= 0 {
			inst.Open = inst.Price
		}
		l.instruments[inst.Symbol] = &inst
		l.symbols = append(l.symbols, inst.Symbol)
	}
	return l
}

func (l *Ledger) Get(symbol string) (models.Instrument, error) {
	inst, ok := l.instruments[symbol]
	if !ok {
		return models.Instrument{}, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	return *inst, nil
}

// Symbols returns the tracked symbols in insertion order.
func (l *Ledger) Symbols() []string {
	out := make([]string, len(l.symbols))
	copy(out, l.symbols)
	return out
}

func (l *Ledger) Len() int { return len(l.symbols) }

// ApplyTick sets price and volume. The session open is never touched here.
func (l *Ledger) ApplyTick(symbol string, price float64, volume int64) error {
	inst, ok := l.instruments[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	inst.Price = price
	inst.Volume = volume
	return nil
}

// ResetSession starts a new session at the current prices.
func (l *Ledger) ResetSession() {
	for _, inst := range l.instruments {
		inst.Open = inst.Price
	}
}
