package data

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mickeykoko321/omega/src/config"
	"github.com/mickeykoko321/omega/src/instrument"
	"github.com/mickeykoko321/omega/src/models"
)

// PriceStore loads and saves daily series by customized ticker. Load
// returns ErrNotFound when the ticker has no data.
type PriceStore interface {
	Load(ticker string) (models.Series, error)
	Save(ticker string, series models.Series) error
}

// SeriesName is the storage key of a ticker: Daily-<stem>-<kind>-<ticker>.
func SeriesName(ticker string) (string, error) {
	s, err := instrument.Decode(ticker)
	if err != nil {
		return "", fmt.Errorf("SeriesName: %w", err)
	}

	return fmt.Sprintf("Daily-%s-%s-%s", s.Stem, s.Kind, ticker), nil
}

// NewPriceStore picks the back end from the storage version: "1" reads the
// text files under the data folder, anything else the database.
func NewPriceStore(cfg *config.Config, openDB func(dsn string) (*gorm.DB, error)) (PriceStore, error) {
	if !cfg.UsesDatabase() {
		return NewFilePriceStore(cfg.DataDir), nil
	}

	db, err := openDB(cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("NewPriceStore: %w", err)
	}

	return NewDatabasePriceStore(db), nil
}
