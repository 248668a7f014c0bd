package lists

import (
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mickeykoko321/omega/src/chain"
	"github.com/mickeykoko321/omega/src/config"
	"github.com/mickeykoko321/omega/src/data"
	"github.com/mickeykoko321/omega/src/instrument"
	"github.com/mickeykoko321/omega/src/models"
	"github.com/mickeykoko321/omega/src/utils"
)

var ErrUnknownSymbol = errors.New("symbol not defined")

const (
	defaultActiveCount = 4
	defaultLegGap      = 1
)

// Report collects the outcome of a batch over several markets. A failed
// market is logged and skipped, the batch carries on.
type Report struct {
	Processed []string
	Skipped   map[string]error
}

func newReport() *Report {
	return &Report{Skipped: make(map[string]error)}
}

func (r *Report) skip(stem string, err error) {
	log.WithField("stem", stem).WithError(err).Error("skipping market")
	r.Skipped[stem] = err
}

// Err joins the errors of the skipped markets, nil when none was skipped.
func (r *Report) Err() error {
	stems := make([]string, 0, len(r.Skipped))
	for stem := range r.Skipped {
		stems = append(stems, stem)
	}
	sort.Strings(stems)

	errs := make([]error, 0, len(stems))
	for _, stem := range stems {
		errs = append(errs, fmt.Errorf("%s: %w", stem, r.Skipped[stem]))
	}

	return errors.Join(errs...)
}

// Lister builds the ticker lists used for data download and trading.
type Lister struct {
	markets   *config.MarketDatabase
	builder   *chain.Builder
	table     chain.ContractMonthSource
	store     data.PriceStore
	symbology *instrument.Symbology
}

func NewLister(markets *config.MarketDatabase, table chain.ContractMonthSource, store data.PriceStore, symbology *instrument.Symbology) *Lister {
	return &Lister{
		markets:   markets,
		builder:   chain.NewBuilder(markets, table),
		table:     table,
		store:     store,
		symbology: symbology,
	}
}

// TickersForDownload lists the outrights, spreads and, for ED, butterflies
// of a market that need data.
func (l *Lister) TickersForDownload(stem string, status chain.Status, date time.Time) (models.ChainEntries, error) {
	m, err := l.markets.Market(stem)
	if err != nil {
		return nil, fmt.Errorf("TickersForDownload: %w", err)
	}

	nac, ncb := defaultActiveCount, defaultLegGap
	if m.Download != nil {
		nac, ncb = m.Download.ActiveCount, m.Download.LegGap
	} else {
		log.Warnf("%s - set download parameters", stem)
	}

	params := []chain.BuildParams{
		l.downloadParams(date, stem, instrument.Outright, status, false, nac, defaultLegGap),
		l.downloadParams(date, stem, instrument.Spread, status, stem == "ED", nac-1, ncb),
	}
	if stem == "ED" {
		params = append(params, l.downloadParams(date, stem, instrument.Butterfly, status, true, nac-2, ncb))
	}

	var out models.ChainEntries
	for _, p := range params {
		entries, err := l.builder.Build(p)
		if err != nil {
			return nil, fmt.Errorf("TickersForDownload: %w", err)
		}
		out = append(out, entries...)
	}

	return out, nil
}

func (l *Lister) downloadParams(date time.Time, stem string, kind instrument.Kind, status chain.Status, tradeOnly bool, nac, ncb int) chain.BuildParams {
	if nac < 0 {
		nac = 0
	}

	return chain.BuildParams{
		Date:         date,
		Stem:         stem,
		Kind:         kind,
		Status:       status,
		TradeOnly:    tradeOnly,
		ActiveCount:  nac,
		LegGap:       ncb,
		DownloadMode: true,
	}
}

// MissingData lists the expired and active download tickers without any
// stored series.
func (l *Lister) MissingData(stems []string, date time.Time) ([]string, *Report) {
	report := newReport()

	var missing []string
	for _, stem := range stems {
		var entries models.ChainEntries
		var err error
		for _, status := range []chain.Status{chain.Expired, chain.Active} {
			var e models.ChainEntries
			if e, err = l.TickersForDownload(stem, status, date); err != nil {
				break
			}
			entries = append(entries, e...)
		}

		if err != nil {
			report.skip(stem, err)
			continue
		}

		for _, e := range entries {
			if _, err := l.store.Load(e.Ticker); err != nil {
				if !errors.Is(err, data.ErrNotFound) {
					log.WithError(err).Warnf("failed to load %s", e.Ticker)
				}
				missing = append(missing, e.Ticker)
			}
		}

		report.Processed = append(report.Processed, stem)
	}

	return missing, report
}

type curvatureLeg struct {
	prefix string
	count  int
}

var curvatureLegs = map[string][]curvatureLeg{
	"ED": {
		{"ED", 29}, {"EDS3", 28}, {"EDS6", 27}, {"EDS9", 26},
		{"EDS12", 25}, {"EDB3", 27}, {"EDB6", 25}, {"EDB12", 21},
	},
	"FF": {
		{"FF", 18}, {"FFS1", 17}, {"FFS2", 16},
		{"FFS3", 15}, {"FFS4", 14}, {"FFS5", 13}, {"FFS6", 12},
	},
}

// curvatureSteps is the number of months between listed maturities.
var curvatureSteps = map[string]int{"ED": 3, "FF": 1}

// TickersForCurvature lists every ticker the curvature strategy may trade,
// starting from the first maturity. A short first maturity gives short
// tickers.
func TickersForCurvature(first, symbol string, step int) ([]string, error) {
	legs, ok := curvatureLegs[symbol]
	if !ok {
		return nil, fmt.Errorf("TickersForCurvature: %s: %w", symbol, ErrUnknownSymbol)
	}

	short := len(first) == 2

	var tickers []string
	for _, leg := range legs {
		maturities, err := instrument.GenerateMaturities(first, step, leg.count, short)
		if err != nil {
			return nil, fmt.Errorf("TickersForCurvature: %w", err)
		}

		for _, m := range maturities {
			tickers = append(tickers, leg.prefix+m)
		}
	}

	return tickers, nil
}

// CurvatureList lists the live ED and FF tickers in short form, starting at
// the first contract not yet expired on date.
func (l *Lister) CurvatureList(date time.Time) ([]string, error) {
	var tickers []string
	for _, stem := range []string{"ED", "FF"} {
		first, err := l.firstActive(stem, date)
		if err != nil {
			return nil, fmt.Errorf("CurvatureList: %w", err)
		}

		t, err := TickersForCurvature(first, stem, curvatureSteps[stem])
		if err != nil {
			return nil, fmt.Errorf("CurvatureList: %w", err)
		}
		tickers = append(tickers, t...)
	}

	for i, t := range tickers {
		tickers[i] = t[:len(t)-2] + t[len(t)-1:]
	}

	return tickers, nil
}

func (l *Lister) firstActive(stem string, date time.Time) (string, error) {
	rows, err := l.table.Load(stem, true)
	if err != nil {
		return "", err
	}

	day := utils.FormatDate(date)
	for _, row := range rows {
		if row.LTD >= day {
			m, err := instrument.MaturityFromKey(row.CtrMth)
			if err != nil {
				return "", err
			}
			return m.String(), nil
		}
	}

	return "", fmt.Errorf("no active contract for %s on %s: %w", stem, day, data.ErrData)
}
