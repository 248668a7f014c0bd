package lists

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"github.com/mickeykoko321/omega/src/chain"
	"github.com/mickeykoko321/omega/src/instrument"
)

// ProviderRow maps a customized ticker to a provider symbol.
type ProviderRow struct {
	Ticker   string `csv:"Ticker"`
	Provider string `csv:"Provider"`
}

// ProviderRows lists the download tickers of stems with their provider
// symbols. Tickers the provider cannot render are logged and left out.
func (l *Lister) ProviderRows(status chain.Status, provider instrument.Provider, stems []string, date time.Time) ([]ProviderRow, *Report) {
	report := newReport()

	var rows []ProviderRow
	for _, stem := range stems {
		entries, err := l.TickersForDownload(stem, status, date)
		if err != nil {
			report.skip(stem, err)
			continue
		}

		for _, e := range entries {
			symbol, err := l.symbology.Convert(e.Ticker, provider)
			if err != nil {
				log.WithError(err).Warnf("no %s symbol for %s", provider, e.Ticker)
				continue
			}
			rows = append(rows, ProviderRow{Ticker: e.Ticker, Provider: symbol})
		}

		report.Processed = append(report.Processed, stem)
	}

	return rows, report
}

// ProviderFile writes Ticker;Provider lines, without header, for use by
// third party download tools.
func (l *Lister) ProviderFile(w io.Writer, status chain.Status, provider instrument.Provider, stems []string, date time.Time) (*Report, error) {
	if err := provider.Validate(); err != nil {
		return nil, fmt.Errorf("ProviderFile: %w", err)
	}

	rows, report := l.ProviderRows(status, provider, stems, date)

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := gocsv.MarshalCSVWithoutHeaders(&rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return report, fmt.Errorf("ProviderFile: %w", err)
	}

	return report, nil
}
