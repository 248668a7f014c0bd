package chain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickeykoko321/omega/src/data"
	"github.com/mickeykoko321/omega/src/instrument"
	"github.com/mickeykoko321/omega/src/models"
	"github.com/mickeykoko321/omega/src/utils"
)

// weekdayBars returns n weekday bars ending on end, closes counting up from 1.
func weekdayBars(end time.Time, n int) models.Series {
	days := utils.BusinessDateRange(utils.AddBusinessDays(end, -(n-1)), end)
	s := make(models.Series, len(days))
	for i, d := range days {
		s[i] = models.NewBar(d, 1, 2, 0.5, float64(i+1), 10, 20)
	}

	return s
}

func newTestChain(t *testing.T, stem string, kind instrument.Kind, store data.PriceStore) *FutureChain {
	t.Helper()
	markets := testMarkets()
	c, err := NewFutureChain(stem, kind, Services{
		Markets: markets,
		Builder: NewBuilder(markets, testTable()),
		Store:   store,
	})
	require.NoError(t, err)
	return c
}

func assertBijection(t *testing.T, c *FutureChain) {
	t.Helper()
	assert.Equal(t, c.Len(), c.DataLen())
	for _, ticker := range c.Tickers() {
		_, ok := c.Data(ticker)
		assert.True(t, ok, "%s has no data", ticker)
	}
}

func TestNewFutureChain(t *testing.T) {
	c := newTestChain(t, "LH", instrument.Outright, data.NewMemoryPriceStore())
	assert.Equal(t, "400", c.Point.String())
	assert.Equal(t, "1000", c.Margin.String())
	assert.True(t, c.Commission.IsZero())

	_, err := NewFutureChain("QQ", instrument.Outright, Services{Markets: testMarkets()})
	assert.Error(t, err)
}

func TestInitializeContracts(t *testing.T) {
	c := newTestChain(t, "LH", instrument.Outright, data.NewMemoryPriceStore())

	entries, err := c.InitializeContracts(NewBuildParams(date(2018, 5, 1), "", "", Active), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"LHK18", "LHM18", "LHN18", "LHQ18"}, entries.Tickers())
	assert.Equal(t, Active, c.Status)

	entries, err = c.InitializeContracts(NewBuildParams(date(2018, 5, 1), "", "", Active), "-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"LHN18", "LHQ18"}, entries.Tickers())

	_, err = c.InitializeContracts(NewBuildParams(date(2018, 1, 1), "", "", Expired), "")
	assert.True(t, errors.Is(err, ErrChain))
}

func TestAttach(t *testing.T) {
	store := data.NewMemoryPriceStore()
	require.NoError(t, store.Save("LHG18", weekdayBars(date(2018, 2, 20), 100)))
	require.NoError(t, store.Save("LHJ18", weekdayBars(date(2018, 4, 13), 20)))

	t.Run("requires contracts", func(t *testing.T) {
		c := newTestChain(t, "LH", instrument.Outright, store)
		_, err := c.Attach(NewAttachParams())
		assert.True(t, errors.Is(err, ErrChain))
	})

	t.Run("boundary day included", func(t *testing.T) {
		c := newTestChain(t, "LH", instrument.Outright, store)
		_, err := c.InitializeContracts(NewBuildParams(date(2018, 5, 15), "", "", Expired), "")
		require.NoError(t, err)

		pruned, err := c.Attach(NewAttachParams())
		require.NoError(t, err)
		assert.Equal(t, []string{"LHJ18", "LHK18"}, pruned)
		assert.Equal(t, []string{"LHG18"}, c.Tickers())
		assertBijection(t, c)

		s, _ := c.Data("LHG18")
		require.Len(t, s, 91)
		last, _ := s.Last()
		assert.Equal(t, date(2018, 2, 14), last.Date)
	})

	t.Run("boundary day excluded", func(t *testing.T) {
		c := newTestChain(t, "LH", instrument.Outright, store)
		_, err := c.InitializeContracts(NewBuildParams(date(2018, 5, 15), "", "", Expired), "")
		require.NoError(t, err)

		_, err = c.Attach(AttachParams{LookbackDays: 90})
		require.NoError(t, err)

		s, _ := c.Data("LHG18")
		require.Len(t, s, 90)
		last, _ := s.Last()
		assert.Equal(t, date(2018, 2, 13), last.Date)
	})

	t.Run("partial series are kept on request", func(t *testing.T) {
		c := newTestChain(t, "LH", instrument.Outright, store)
		_, err := c.InitializeContracts(NewBuildParams(date(2018, 5, 15), "", "", Expired), "")
		require.NoError(t, err)

		pruned, err := c.Attach(AttachParams{LookbackDays: 90, IncludeBoundaryDays: true, AllowPartial: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"LHK18"}, pruned)
		assert.Equal(t, []string{"LHG18", "LHJ18"}, c.Tickers())
		assertBijection(t, c)

		s, _ := c.Data("LHJ18")
		assert.Len(t, s, 20)
	})
}

func TestAttachActiveLive(t *testing.T) {
	store := data.NewMemoryPriceStore()
	require.NoError(t, store.Save("LHK18", weekdayBars(date(2018, 5, 14), 30)))
	require.NoError(t, store.Save("LHM18", weekdayBars(date(2018, 5, 1), 30)))

	c := newTestChain(t, "LH", instrument.Outright, store)
	p := NewBuildParams(date(2018, 5, 1), "", "", ActiveLive)
	p.ActiveCount = 2
	_, err := c.InitializeContracts(p, "")
	require.NoError(t, err)

	pruned, err := c.Attach(AttachParams{LookbackDays: 5, IncludeBoundaryDays: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"LHM18"}, pruned)
	assertBijection(t, c)

	s, ok := c.Data("LHK18")
	require.True(t, ok)
	require.Len(t, s, 8)
	first, _ := s.First()
	assert.Equal(t, date(2018, 5, 3), first.Date)

	t.Run("calendar sessions set the window start", func(t *testing.T) {
		markets := testMarkets()
		cal := data.WeekdayCalendar(date(2018, 1, 1), date(2018, 12, 31), date(2018, 5, 7))
		c, err := NewFutureChain("LH", instrument.Outright, Services{
			Markets:  markets,
			Builder:  NewBuilder(markets, testTable()),
			Store:    store,
			Calendar: cal,
		})
		require.NoError(t, err)

		_, err = c.InitializeContracts(p, "1")
		require.NoError(t, err)
		_, err = c.Attach(AttachParams{LookbackDays: 5, IncludeBoundaryDays: true})
		require.NoError(t, err)

		s, _ := c.Data("LHK18")
		first, _ := s.First()
		assert.Equal(t, date(2018, 5, 2), first.Date)
	})
}

func TestRollYield(t *testing.T) {
	store := data.NewMemoryPriceStore()

	days := []time.Time{date(2017, 12, 13), date(2017, 12, 14), date(2017, 12, 15), date(2017, 12, 18), date(2017, 12, 19)}
	var spread, outright models.Series
	for i, d := range days {
		spread = append(spread, models.NewBar(d, 0, 0, 0, 0.5*float64(i+1), 1, 1))
		if d != date(2017, 12, 18) {
			outright = append(outright, models.NewBar(d, 50, 50, 50, 50, 1, 1))
		}
	}
	require.NoError(t, store.Save("CLS1F18", spread))
	require.NoError(t, store.Save("CLF18", outright))

	markets := testMarkets()
	table := testTable()
	table.rows["CL"] = []models.ContractMonth{
		row(20180100, "2017-12-19", ""),
		row(20180200, "2018-01-22", ""),
		row(20180300, "2018-02-20", ""),
	}

	c, err := NewFutureChain("CL", instrument.Spread, Services{Markets: markets, Builder: NewBuilder(markets, table), Store: store})
	require.NoError(t, err)

	_, err = c.InitializeContracts(NewBuildParams(date(2017, 1, 1), "", "", All), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"CLS1F18", "CLS1G18"}, c.Tickers())

	pruned, err := c.Attach(AttachParams{LookbackDays: 3, IncludeBoundaryDays: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"CLS1G18"}, pruned)

	s, _ := c.Data("CLS1F18")
	require.Len(t, s, 4)
	assert.InDelta(t, 24.0, s[0].RollYield, 1e-9)
	assert.InDelta(t, 36.0, s[1].RollYield, 1e-9)
	assert.True(t, math.IsNaN(s[2].RollYield), "no outright bar on that date")
	assert.InDelta(t, 60.0, s[3].RollYield, 1e-9)

	mean, ok := MeanRollYield(s)
	require.True(t, ok)
	assert.InDelta(t, 40.0, mean, 1e-9)

	assert.Contains(t, c.Summary(), "ROLL YIELD")
}

func TestRollYieldQuarterlySpreads(t *testing.T) {
	quarters := []int{201803, 201806, 201809, 201812, 201903, 201906, 201909, 201912, 202003, 202006}
	var rows []models.ContractMonth
	for _, ym := range quarters {
		rows = append(rows, row(ym*100, fmt.Sprintf("%d-%02d-20", ym/100, ym%100), ""))
	}

	markets := testMarkets()
	table := testTable()
	table.rows["CL"] = rows

	last := date(2018, 3, 20)
	store := data.NewMemoryPriceStore()
	var spread, outright models.Series
	for _, d := range utils.BusinessDateRange(utils.AddBusinessDays(last, -9), last) {
		spread = append(spread, models.NewBar(d, 2, 2, 2, 2, 1, 1))
		outright = append(outright, models.NewBar(d, 50, 50, 50, 50, 1, 1))
	}
	require.NoError(t, store.Save("CLS3H18", spread))
	require.NoError(t, store.Save("CLH18", outright))

	c, err := NewFutureChain("CL", instrument.Spread, Services{Markets: markets, Builder: NewBuilder(markets, table), Store: store})
	require.NoError(t, err)

	entries, err := c.InitializeContracts(NewBuildParams(date(2017, 1, 1), "", "", All), "")
	require.NoError(t, err)
	require.Len(t, entries, 9)
	assert.Equal(t, "CLS3H18", entries[0].Ticker)
	assert.Equal(t, "CLS3H20", entries[8].Ticker)

	pruned, err := c.Attach(AttachParams{LookbackDays: 5, IncludeBoundaryDays: true})
	require.NoError(t, err)
	assert.Len(t, pruned, 8)
	assert.Equal(t, []string{"CLS3H18"}, c.Tickers())

	s, ok := c.Data("CLS3H18")
	require.True(t, ok)
	require.Len(t, s, 6)
	for _, b := range s {
		// 2 / 50 * 12 / 3 months * 100
		assert.InDelta(t, 16.0, b.RollYield, 1e-9, "bar %s", utils.FormatDate(b.Date))
	}
}

func TestContinuousAndStartEnd(t *testing.T) {
	c := &FutureChain{Stem: "LH", Kind: instrument.Outright}
	_, _, err := c.StartEnd(false)
	assert.True(t, errors.Is(err, ErrChain))

	first := weekdayBars(date(2018, 2, 14), 100)
	second := weekdayBars(date(2018, 4, 13), 100)
	c.entries = models.ChainEntries{
		{Ticker: "LHG18", LastDate: date(2018, 2, 14)},
		{Ticker: "LHJ18", LastDate: date(2018, 4, 13)},
	}
	c.data = map[string]models.Series{"LHG18": first, "LHJ18": second}

	t.Run("continuous", func(t *testing.T) {
		cont := c.Continuous()

		g := cont.UpTo(date(2018, 2, 14))
		require.Len(t, g, 90)
		assert.Equal(t, date(2018, 2, 13), g[89].Date, "first contract stops before its final bar")

		j := cont.From(date(2018, 2, 14))
		assert.Equal(t, date(2018, 2, 15), j[0].Date)
		assert.Equal(t, date(2018, 4, 12), j[len(j)-1].Date)
		assert.Len(t, j, len(second.Between(date(2018, 2, 14), date(2018, 4, 13))))
	})

	t.Run("start and end", func(t *testing.T) {
		start, end, err := c.StartEnd(false)
		require.NoError(t, err)
		assert.Equal(t, first[0].Date, start)
		assert.Equal(t, date(2018, 4, 13), end)

		start, end, err = c.StartEnd(true)
		require.NoError(t, err)
		assert.Equal(t, utils.AddBusinessDays(first[0].Date, -10), start)
		assert.Equal(t, date(2018, 4, 16), end)
	})

	t.Run("positions", func(t *testing.T) {
		d, err := c.LastDate(1)
		require.NoError(t, err)
		assert.Equal(t, date(2018, 4, 13), d)

		ticker, err := c.Ticker(0)
		require.NoError(t, err)
		assert.Equal(t, "LHG18", ticker)

		_, err = c.Ticker(2)
		assert.True(t, errors.Is(err, ErrChain))
		_, err = c.LastDate(-1)
		assert.True(t, errors.Is(err, ErrChain))
	})

	t.Run("summary", func(t *testing.T) {
		out := c.Summary()
		assert.True(t, strings.Contains(out, "LHG18"))
		assert.True(t, strings.Contains(out, "2018-04-13"))
	})
}

func TestAggregate(t *testing.T) {
	c := &FutureChain{Stem: "LH", Kind: instrument.Outright}
	c.entries = models.ChainEntries{{Ticker: "LHG18"}, {Ticker: "LHJ18"}, {Ticker: "LHK18"}}
	c.data = map[string]models.Series{
		"LHG18": {models.NewBar(date(2018, 1, 2), 0, 0, 0, 1, 0, 0), models.NewBar(date(2018, 1, 3), 0, 0, 0, 2, 0, 0)},
		"LHJ18": {models.NewBar(date(2018, 3, 1), 0, 0, 0, 3, 0, 0), models.NewBar(date(2018, 3, 2), 0, 0, 0, 6, 0, 0)},
		"LHK18": {models.NewBar(date(2018, 4, 2), 0, 0, 0, 5, 0, 0)},
	}

	agg, err := c.Aggregate("LHJ18", "Close", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, agg)

	agg, err = c.Aggregate("LHJ18", "Close", 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, agg)

	agg, err = c.Aggregate("LHK18", "Close", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, agg, "entries of a different length are skipped")

	_, err = c.Aggregate("LHZ18", "Close", 2)
	assert.True(t, errors.Is(err, ErrChain))

	_, err = c.Aggregate("LHJ18", "Spread", 2)
	assert.True(t, errors.Is(err, models.ErrUnknownField))
}

func TestFilterChain(t *testing.T) {
	c := &FutureChain{Stem: "LH", Kind: instrument.Outright}
	c.entries = models.ChainEntries{{Ticker: "LHG18"}, {Ticker: "LHJ18"}, {Ticker: "LHK18"}}
	c.data = map[string]models.Series{"LHG18": nil, "LHJ18": nil, "LHK18": nil}

	c.FilterChain([]string{"LHK18", "LHG18", "LHZ18"})
	assert.Equal(t, []string{"LHG18", "LHK18"}, c.Tickers())
	assertBijection(t, c)
}

func TestReferenceSeries(t *testing.T) {
	s := ReferenceSeries(date(2018, 4, 6), date(2018, 4, 10))
	require.Len(t, s, 3)
	assert.Equal(t, date(2018, 4, 9), s[1].Date)
	assert.Equal(t, 4.0, s[1].Close)
	assert.Equal(t, int64(6), s[1].OI)
}
