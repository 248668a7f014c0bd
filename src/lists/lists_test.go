package lists

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickeykoko321/omega/src/chain"
	"github.com/mickeykoko321/omega/src/config"
	"github.com/mickeykoko321/omega/src/data"
	"github.com/mickeykoko321/omega/src/instrument"
	"github.com/mickeykoko321/omega/src/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeTable map[string][]models.ContractMonth

func (f fakeTable) Load(stem string, tradeOnly bool) ([]models.ContractMonth, error) {
	rows, ok := f[stem]
	if !ok {
		return nil, fmt.Errorf("no table for %s: %w", stem, data.ErrData)
	}

	var out []models.ContractMonth
	for _, r := range rows {
		if !tradeOnly || r.Traded() {
			out = append(out, r)
		}
	}

	return out, nil
}

type fakeLookup struct{}

func (fakeLookup) ProviderStem(stem string, provider instrument.Provider) (string, error) {
	if provider == instrument.IQFeed && stem == "ED" {
		return "@GE", nil
	}

	return stem, nil
}

func (fakeLookup) IsActive(string, int) (bool, error) {
	return true, nil
}

func row(ctrMth int, ltd string) models.ContractMonth {
	return models.ContractMonth{CtrMth: ctrMth, WeTrd: models.WeTrade, LTD: ltd}
}

func newTestLister(store data.PriceStore) *Lister {
	markets := config.NewMarketDatabase(map[string]config.Market{
		"LH": {Reference: "FND", Download: &config.DownloadParams{ActiveCount: 2, LegGap: 1}},
		"ED": {Reference: "LTD", Download: &config.DownloadParams{ActiveCount: 3, LegGap: 1}},
		"FF": {Reference: "LTD"},
	})

	var ff []models.ContractMonth
	for m := 1; m <= 12; m++ {
		ff = append(ff, row(20180000+m*100, fmt.Sprintf("2018-%02d-28", m)))
	}

	table := fakeTable{
		"LH": {
			row(20180200, "2018-02-14"),
			row(20180400, "2018-04-13"),
			row(20180500, "2018-05-14"),
			row(20180600, "2018-06-14"),
			row(20180700, "2018-07-16"),
		},
		"ED": {
			row(20180300, "2018-03-19"),
			row(20180600, "2018-06-18"),
			row(20180900, "2018-09-17"),
			row(20181200, "2018-12-17"),
			row(20190300, "2019-03-18"),
		},
		"FF": ff,
	}

	return NewLister(markets, table, store, instrument.NewSymbology(fakeLookup{}))
}

func TestTickersForDownload(t *testing.T) {
	l := newTestLister(data.NewMemoryPriceStore())

	t.Run("outrights and spreads", func(t *testing.T) {
		entries, err := l.TickersForDownload("LH", chain.Active, date(2018, 5, 1))
		require.NoError(t, err)
		assert.Equal(t, []string{"LHK18", "LHM18", "LHS1K18"}, entries.Tickers())
		assert.Equal(t, date(2018, 5, 14), entries[0].LastDate, "download mode reads LTD")
	})

	t.Run("ED adds butterflies", func(t *testing.T) {
		entries, err := l.TickersForDownload("ED", chain.Active, date(2018, 5, 1))
		require.NoError(t, err)
		assert.Equal(t, []string{"EDM18", "EDU18", "EDZ18", "EDS3M18", "EDS3U18", "EDB3M18"}, entries.Tickers())
	})

	t.Run("missing download parameters use defaults", func(t *testing.T) {
		entries, err := l.TickersForDownload("FF", chain.Active, date(2018, 5, 1))
		require.NoError(t, err)
		assert.Equal(t, []string{"FFK18", "FFM18", "FFN18", "FFQ18", "FFS1K18", "FFS1M18", "FFS1N18"}, entries.Tickers())
	})

	t.Run("unknown market", func(t *testing.T) {
		_, err := l.TickersForDownload("XX", chain.Active, date(2018, 5, 1))
		assert.True(t, errors.Is(err, config.ErrUnknownMarket))
	})
}

func TestProviderFile(t *testing.T) {
	l := newTestLister(data.NewMemoryPriceStore())

	var buf bytes.Buffer
	report, err := l.ProviderFile(&buf, chain.Active, instrument.Bloomberg, []string{"LH", "XX"}, date(2018, 5, 1))
	require.NoError(t, err)
	assert.Equal(t, "LHK18;LHK8 Comdty\nLHM18;LHM8 Comdty\nLHS1K18;LHK8LHM8 Comdty\n", buf.String())
	assert.Equal(t, []string{"LH"}, report.Processed)
	assert.Contains(t, report.Skipped, "XX")
	assert.True(t, errors.Is(report.Err(), config.ErrUnknownMarket))

	t.Run("unsupported structures are left out", func(t *testing.T) {
		rows, report := l.ProviderRows(chain.Active, instrument.IQFeed, []string{"ED"}, date(2018, 5, 1))
		assert.NoError(t, report.Err())
		require.Len(t, rows, 5)
		assert.Equal(t, ProviderRow{Ticker: "EDS3M18", Provider: "@GEM18-@GEU18"}, rows[3])
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := l.ProviderFile(&buf, chain.Active, "Quandl", []string{"LH"}, date(2018, 5, 1))
		assert.True(t, errors.Is(err, instrument.ErrUnsupported))
	})
}

func TestMissingData(t *testing.T) {
	store := data.NewMemoryPriceStore()
	bar := models.Series{models.NewBar(date(2018, 2, 1), 1, 1, 1, 1, 1, 1)}
	require.NoError(t, store.Save("LHG18", bar))
	require.NoError(t, store.Save("LHK18", bar))

	l := newTestLister(store)

	missing, report := l.MissingData([]string{"LH", "XX"}, date(2018, 5, 1))
	assert.Equal(t, []string{"LHJ18", "LHS2G18", "LHS1J18", "LHM18", "LHS1K18"}, missing)
	assert.Equal(t, []string{"LH"}, report.Processed)
	assert.Error(t, report.Err())
}

func TestTickersForCurvature(t *testing.T) {
	tickers, err := TickersForCurvature("M18", "ED", 3)
	require.NoError(t, err)
	require.Len(t, tickers, 208)
	assert.Equal(t, []string{"EDM18", "EDU18", "EDZ18", "EDH19"}, tickers[:4])
	assert.Equal(t, "EDS3M18", tickers[29])

	tickers, err = TickersForCurvature("M8", "FF", 1)
	require.NoError(t, err)
	require.Len(t, tickers, 105)
	assert.Equal(t, []string{"FFM8", "FFN8"}, tickers[:2])

	_, err = TickersForCurvature("M18", "CL", 1)
	assert.True(t, errors.Is(err, ErrUnknownSymbol))
}

func TestCurvatureList(t *testing.T) {
	l := newTestLister(data.NewMemoryPriceStore())

	tickers, err := l.CurvatureList(date(2018, 5, 1))
	require.NoError(t, err)
	require.Len(t, tickers, 208+105)
	assert.Equal(t, "EDM8", tickers[0])
	assert.Equal(t, "EDS3M8", tickers[29])
	assert.Equal(t, "FFK8", tickers[208])
}
