// Package analytics holds the pure functions the snapshot builder derives
// per-symbol figures with. Every result is rounded to 2 decimals.
package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/shubham-shewale/market-feed/pkg/models"
)

var half = decimal.NewFromFloat(0.5)

// Round2 rounds half up (toward +Inf) at the hundredths digit, so -0.125
// becomes -0.12. Rounding works on the shortest decimal representation of x,
// so 1.005 becomes 1.01.
func Round2(x float64) float64 {
	f, _ := decimal.NewFromFloat(x).Shift(2).Add(half).Floor().Shift(-2).Float64()
	return f
}

// VWAP is Σ(price·volume)/Σ(volume) over samples, 0 when no volume traded.
func VWAP(samples []models.Sample) float64 {
	var pv, tv float64
	for _, s := range samples {
		pv += s.Price * float64(s.Volume)
		tv += float64(s.Volume)
	}
	if tv == 0 {
		return 0
	}
	return Round2(pv / tv)
}

// SMA is the mean price of the last n samples. It returns nil when fewer than
// n samples exist; partial windows are never averaged.
func SMA(samples []models.Sample, n int) *float64 {
	if n <= 0 || len(samples) < n {
		return nil
	}
	var sum float64
	for _, s := range samples[len(samples)-n:] {
		sum += s.Price
	}
	avg := Round2(sum / float64(n))
	return &avg
}

// HighLow returns the max and min price over samples, (0, 0) when empty.
func HighLow(samples []models.Sample) (high, low float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	high, low = samples[0].Price, samples[0].Price
	for _, s := range samples[1:] {
		if s.Price > high {
			high = s.Price
		}
		if s.Price < low {
			low = s.Price
		}
	}
	return Round2(high), Round2(low)
}

func Change(price, open float64) float64 {
	return Round2(price - open)
}

// ChangePct is computed on the unrounded difference and rounded once.
func ChangePct(price, open float64) float64 {
	if open == 0 {
		return 0
	}
	return Round2((price - open) / open * 100)
}
