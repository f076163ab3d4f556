package history_test

import (
	"testing"
	"time"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/history"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

func sample(price float64) models.Sample {
	return models.Sample{Price: price, Volume: 100, Time: time.Unix(int64(price), 0)}
}

func prices(samples []models.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Price
	}
	return out
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStore_UnknownSymbolIsEmpty(t *testing.T) {
	s := history.New(3)

	w := s.Window("NOPE", 5)
	if w == nil || len(w) != 0 {
		t.Errorf("Expected empty non-nil window, got %v", w)
	}
	if s.Len("NOPE") != 0 {
		t.Error("Expected zero length for unknown symbol")
	}
}

func TestStore_EvictsOldestAtCapacity(t *testing.T) {
	s := history.New(3)

	for i := 1; i <= 5; i++ {
		s.Append("AAPL", sample(float64(i)))
		if s.Len("AAPL") > 3 {
			t.Fatalf("History exceeded limit after %d appends: %d", i, s.Len("AAPL"))
		}
	}

	got := prices(s.Window("AAPL", 0))
	want := []float64{3, 4, 5}
	if !equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestStore_Window(t *testing.T) {
	s := history.New(10)
	for i := 1; i <= 6; i++ {
		s.Append("AAPL", sample(float64(i)))
	}

	tests := []struct {
		n    int
		want []float64
	}{
		{n: 2, want: []float64{5, 6}},
		{n: 6, want: []float64{1, 2, 3, 4, 5, 6}},
		{n: 20, want: []float64{1, 2, 3, 4, 5, 6}},
		{n: 0, want: []float64{1, 2, 3, 4, 5, 6}},
		{n: -1, want: []float64{1, 2, 3, 4, 5, 6}},
	}
	for _, tt := range tests {
		if got := prices(s.Window("AAPL", tt.n)); !equal(got, tt.want) {
			t.Errorf("Window(%d): expected %v, got %v", tt.n, tt.want, got)
		}
	}
}

func TestStore_WindowAfterWrap(t *testing.T) {
	s := history.New(4)
	for i := 1; i <= 7; i++ {
		s.Append("AAPL", sample(float64(i)))
	}

	if got := prices(s.Window("AAPL", 3)); !equal(got, []float64{5, 6, 7}) {
		t.Errorf("Expected [5 6 7], got %v", got)
	}

	// Window is a copy
	w := s.Window("AAPL", 0)
	w[0].Price = 999
	if s.Window("AAPL", 0)[0].Price == 999 {
		t.Error("Window leaked internal buffer")
	}
}

func TestStore_Clear(t *testing.T) {
	s := history.New(4)
	s.Append("AAPL", sample(1))
	s.Append("MSFT", sample(2))

	s.Clear("AAPL")
	if s.Len("AAPL") != 0 || s.Len("MSFT") != 1 {
		t.Errorf("Clear touched the wrong series: AAPL=%d MSFT=%d", s.Len("AAPL"), s.Len("MSFT"))
	}

	s.ClearAll()
	if s.Len("MSFT") != 0 {
		t.Error("ClearAll left samples behind")
	}
}

func TestStore_DefaultLimit(t *testing.T) {
	if got := history.New(0).Limit(); got != history.DefaultLimit {
		t.Errorf("Expected default limit %d, got %d", history.DefaultLimit, got)
	}
}
