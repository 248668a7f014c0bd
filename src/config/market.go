package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultAccount is the clearing account used when none is configured.
const DefaultAccount = "7GE1478"

var (
	ErrUnknownMarket = errors.New("market not found in database")
	ErrMissingField  = errors.New("field not set in database")
	ErrInvalidFilter = errors.New("invalid market filter")
)

var sectors = []string{"Commodity", "Currency", "Stock", "Yield"}
var groups = []string{"Meat", "Other"}

type DownloadParams struct {
	ActiveCount int `json:"nac"`
	LegGap      int `json:"ncb"`
}

type CommissionRate struct {
	Lot  decimal.Decimal `json:"Lot"`
	Fill decimal.Decimal `json:"Fill"`
}

// Market is one entry of the market database, keyed by customized stem.
type Market struct {
	Stem      map[string]string                    `json:"Stem"`
	Letters   []string                             `json:"Letters"`
	Reference string                               `json:"Reference"`
	Spot      string                               `json:"Spot"`
	Rule      *int                                 `json:"Rule"`
	Download  *DownloadParams                      `json:"Download"`
	Point     decimal.Decimal                      `json:"Point"`
	Margin    decimal.Decimal                      `json:"Margin"`
	Comms     map[string]map[string]CommissionRate `json:"Comms"`
	Sector    string                               `json:"Sector"`
	Group     string                               `json:"Group"`
	Exchange  string                               `json:"Exchange"`
}

// ProviderStem returns the root symbol used by a data provider for this market.
func (m Market) ProviderStem(provider string) (string, error) {
	s, ok := m.Stem[provider]
	if !ok || s == "" {
		return "", fmt.Errorf("ProviderStem: %s stem: %w", provider, ErrMissingField)
	}

	return s, nil
}

// MarketDatabase is the read-only market metadata loaded once at start up.
type MarketDatabase struct {
	markets map[string]Market
	stems   []string
}

func NewMarketDatabase(markets map[string]Market) *MarketDatabase {
	db := &MarketDatabase{
		markets: make(map[string]Market, len(markets)),
	}

	for stem, m := range markets {
		db.markets[stem] = m
		db.stems = append(db.stems, stem)
	}

	sort.Strings(db.stems)
	return db
}

func LoadMarketDatabase(path string) (*MarketDatabase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadMarketDatabase: reading %s: %w", path, err)
	}

	var markets map[string]Market
	if err := json.Unmarshal(data, &markets); err != nil {
		return nil, fmt.Errorf("LoadMarketDatabase: parsing %s: %w", path, err)
	}

	return NewMarketDatabase(markets), nil
}

func (db *MarketDatabase) Market(stem string) (Market, error) {
	m, ok := db.markets[stem]
	if !ok {
		return Market{}, fmt.Errorf("Market: %s: %w", stem, ErrUnknownMarket)
	}

	return m, nil
}

// Stems lists every market stem in sorted order.
func (db *MarketDatabase) Stems() []string {
	out := make([]string, len(db.stems))
	copy(out, db.stems)
	return out
}

// Futures lists the stems matching the optional sector and group filters.
func (db *MarketDatabase) Futures(sector, group string) ([]string, error) {
	if sector != "" && !contains(sectors, sector) {
		return nil, fmt.Errorf("Futures: sector %q: %w", sector, ErrInvalidFilter)
	}

	if group != "" && !contains(groups, group) {
		return nil, fmt.Errorf("Futures: group %q: %w", group, ErrInvalidFilter)
	}

	var out []string
	for _, stem := range db.stems {
		m := db.markets[stem]
		if sector != "" && m.Sector != sector {
			continue
		}

		if group != "" && m.Group != group {
			continue
		}

		out = append(out, stem)
	}

	return out, nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}

	return false
}
