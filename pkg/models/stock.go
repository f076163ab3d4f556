package models

import "time"

// Instrument is the canonical state of one tradable symbol.
type Instrument struct {
	Symbol string  `json:"symbol" yaml:"symbol"`
	Name   string  `json:"name" yaml:"name"`
	Sector string  `json:"sector" yaml:"sector"`
	Price  float64 `json:"price" yaml:"price"`
	Open   float64 `json:"open" yaml:"open"`
	Volume int64   `json:"volume" yaml:"-"`
}

// Sample is one history point appended per instrument per tick.
type Sample struct {
	Price  float64   `json:"price"`
	Volume int64     `json:"volume"`
	Time   time.Time `json:"ts"`
}

// Alert records a move from the session open that crossed the alert threshold.
type Alert struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	ChangePct float64   `json:"changePct"`
	Direction string    `json:"direction"` // "up" or "down"
	Time      time.Time `json:"time"`
}

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// StockView is an instrument enriched with analytics over its retained history.
// SMA fields are nil until enough samples exist.
type StockView struct {
	Name      string   `json:"name"`
	Sector    string   `json:"sector"`
	Price     float64  `json:"price"`
	Open      float64  `json:"open"`
	Change    float64  `json:"change"`
	ChangePct float64  `json:"changePct"`
	Volume    int64    `json:"volume"`
	VWAP      float64  `json:"vwap"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	SMA5      *float64 `json:"sma5"`
	SMA20     *float64 `json:"sma20"`
}

// StockDetail is the single-symbol view returned by on-demand lookups.
type StockDetail struct {
	Symbol string `json:"symbol"`
	StockView
	History []Sample `json:"history"`
}

// Snapshot is a consistent point-in-time view of the whole market.
type Snapshot struct {
	Timestamp  time.Time            `json:"timestamp"`
	TickCount  int64                `json:"tickCount"`
	MarketOpen bool                 `json:"marketOpen"`
	Stocks     map[string]StockView `json:"stocks"`
	Alerts     []Alert              `json:"alerts"`
}

// StockUpdate is the per-symbol message mirrored to downstream topics and keys.
type StockUpdate struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Open      float64 `json:"open"`
	ChangePct float64 `json:"change_pct"`
	Volume    int64   `json:"volume"`
	VWAP      float64 `json:"vwap"`
	Timestamp int64   `json:"timestamp"` // unix micro
	SeqID     int64   `json:"seq_id"`    // monotonic counter per symbol
}
