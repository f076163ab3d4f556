package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shubham-shewale/market-feed/pkg/models"
)

// DefaultInstruments is the universe the feed tracks when no instruments file is configured.
func DefaultInstruments() []models.Instrument {
	return []models.Instrument{
		{Symbol: "AAPL", Name: "Apple Inc.", Sector: "Technology", Price: 189.25},
		{Symbol: "MSFT", Name: "Microsoft Corp.", Sector: "Technology", Price: 415.80},
		{Symbol: "GOOGL", Name: "Alphabet Inc.", Sector: "Technology", Price: 175.40},
		{Symbol: "AMZN", Name: "Amazon.com Inc.", Sector: "Consumer", Price: 202.15},
		{Symbol: "NVDA", Name: "NVIDIA Corp.", Sector: "Technology", Price: 875.60},
		{Symbol: "TSLA", Name: "Tesla Inc.", Sector: "Automotive", Price: 248.30},
		{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Sector: "Finance", Price: 198.75},
		{Symbol: "META", Name: "Meta Platforms Inc.", Sector: "Technology", Price: 505.90},
		{Symbol: "V", Name: "Visa Inc.", Sector: "Finance", Price: 277.40},
		{Symbol: "WMT", Name: "Walmart Inc.", Sector: "Consumer", Price: 68.90},
	}
}

type instrumentsFile struct {
	Instruments []models.Instrument `yaml:"instruments"`
}

// LoadInstruments returns DefaultInstruments for an empty path, otherwise the
// instruments listed in the YAML file. Open defaults to the starting price.
func LoadInstruments(path string) ([]models.Instrument, error) {
	if path == "" {
		return DefaultInstruments(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instruments file: %w", err)
	}

	var f instrumentsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse instruments file: %w", err)
	}
	if len(f.Instruments) == 0 {
		return nil, fmt.Errorf("instruments file %s lists no instruments", path)
	}

	seen := make(map[string]bool, len(f.Instruments))
	for i := range f.Instruments {
		inst := &f.Instruments[i]
		inst.Symbol = strings.ToUpper(strings.TrimSpace(inst.Symbol))
		if inst.Symbol == "" {
			return nil, fmt.Errorf("instrument %d has no symbol", i)
		}
		if seen[inst.Symbol] {
			return nil, fmt.Errorf("duplicate symbol %s", inst.Symbol)
		}
		seen[inst.Symbol] = true
		if inst.Price <= 0 {
			return nil, fmt.Errorf("instrument %s: price must be positive", inst.Symbol)
		}
		if inst.Open <= 0 {
			inst.Open = inst.Price
		}
	}

	return f.Instruments, nil
}
