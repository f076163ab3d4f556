package ledger_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/ledger"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

func newLedger() *ledger.Ledger {
	return ledger.New([]models.Instrument{
		{Symbol: "AAPL", Name: "Apple Inc.", Sector: "Technology", Price: 189.25},
		{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Sector: "Finance", Price: 198.75, Open: 200},
		{Symbol: "AAPL", Name: "Duplicate", Price: 1},
	})
}

func TestLedger_SymbolsKeepInsertionOrder(t *testing.T) {
	l := newLedger()

	got := l.Symbols()
	want := []string{"AAPL", "JPM"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}

	// Returned slice is a copy
	got[0] = "ZZZ"
	if l.Symbols()[0] != "AAPL" {
		t.Error("Symbols() leaked internal slice")
	}
}

func TestLedger_OpenDefaultsToPrice(t *testing.T) {
	l := newLedger()

	aapl, _ := l.Get("AAPL")
	if aapl.Open != 189.25 {
		t.Errorf("Expected open 189.25, got %v", aapl.Open)
	}
	if aapl.Name != "Apple Inc." {
		t.Errorf("Duplicate symbol overwrote the first entry: %q", aapl.Name)
	}

	jpm, _ := l.Get("JPM")
	if jpm.Open != 200 {
		t.Errorf("Explicit open should be kept, got %v", jpm.Open)
	}
}

func TestLedger_GetUnknown(t *testing.T) {
	l := newLedger()

	_, err := l.Get("NOPE")
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestLedger_ApplyTickLeavesOpen(t *testing.T) {
	l := newLedger()

	if err := l.ApplyTick("AAPL", 190.10, 4200); err != nil {
		t.Fatal(err)
	}

	aapl, _ := l.Get("AAPL")
	if aapl.Price != 190.10 || aapl.Volume != 4200 {
		t.Errorf("Tick not applied: %+v", aapl)
	}
	if aapl.Open != 189.25 {
		t.Errorf("ApplyTick must not move open, got %v", aapl.Open)
	}

	if err := l.ApplyTick("NOPE", 1, 1); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown symbol, got %v", err)
	}
}

func TestLedger_ResetSession(t *testing.T) {
	l := newLedger()
	l.ApplyTick("AAPL", 150, 100)
	l.ApplyTick("JPM", 210, 100)

	l.ResetSession()

	for _, sym := range l.Symbols() {
		inst, _ := l.Get(sym)
		if inst.Open != inst.Price {
			t.Errorf("%s: open %v != price %v after reset", sym, inst.Open, inst.Price)
		}
	}
}

func TestLedger_GetReturnsCopy(t *testing.T) {
	l := newLedger()

	inst, _ := l.Get("AAPL")
	inst.Price = 1

	again, _ := l.Get("AAPL")
	if again.Price != 189.25 {
		t.Error("Mutating the returned instrument changed ledger state")
	}
}
