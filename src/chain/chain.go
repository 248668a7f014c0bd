package chain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/mickeykoko321/omega/src/config"
	"github.com/mickeykoko321/omega/src/data"
	"github.com/mickeykoko321/omega/src/instrument"
	"github.com/mickeykoko321/omega/src/models"
	"github.com/mickeykoko321/omega/src/utils"
)

const (
	// DefaultLookbackDays is the number of bars kept per contract.
	DefaultLookbackDays = 90

	startPadDays = 10
	endPadDays   = 1
)

// Services are the collaborators of a FutureChain. Calendar is optional and
// only used to find the start of the ActiveLive window.
type Services struct {
	Markets  *config.MarketDatabase
	Builder  *Builder
	Store    data.PriceStore
	Calendar *data.Calendar
	Account  string
}

// FutureChain is the ordered list of structures of a market with their
// attached daily series. It is not safe for concurrent use.
type FutureChain struct {
	Stem       string
	Kind       instrument.Kind
	Status     Status
	Margin     decimal.Decimal
	Point      decimal.Decimal
	Commission decimal.Decimal

	svc          Services
	entries      models.ChainEntries
	data         map[string]models.Series
	lookbackDays int
}

func NewFutureChain(stem string, kind instrument.Kind, svc Services) (*FutureChain, error) {
	if err := kind.Validate(); err != nil {
		return nil, fmt.Errorf("NewFutureChain: %w", err)
	}

	m, err := svc.Markets.Market(stem)
	if err != nil {
		return nil, fmt.Errorf("NewFutureChain: %w", err)
	}

	return &FutureChain{
		Stem:       stem,
		Kind:       kind,
		Margin:     m.Margin,
		Point:      m.Point,
		Commission: instrument.RawCommission(svc.Markets, stem, time.Now(), svc.Account),
		svc:        svc,
	}, nil
}

// InitializeContracts builds the chain entries and applies filter (see
// FilterEntries). Previously attached data is discarded.
func (c *FutureChain) InitializeContracts(p BuildParams, filter string) (models.ChainEntries, error) {
	p.Stem = c.Stem
	p.Kind = c.Kind

	entries, err := c.svc.Builder.Build(p)
	if err != nil {
		return nil, fmt.Errorf("FutureChain.InitializeContracts: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("FutureChain.InitializeContracts: no contracts for %s %s: %w", c.Stem, c.Kind, ErrChain)
	}

	c.Status = p.Status
	c.entries = FilterEntries(entries, filter)
	c.data = nil

	return c.Entries(), nil
}

type AttachParams struct {
	LookbackDays        int
	IncludeBoundaryDays bool
	AllowPartial        bool
}

func NewAttachParams() AttachParams {
	return AttachParams{
		LookbackDays:        DefaultLookbackDays,
		IncludeBoundaryDays: true,
	}
}

// Attach loads the series of every entry and trims it to the lookback window
// ending at the entry's last date. Entries without enough data are dropped
// from the chain and returned.
func (c *FutureChain) Attach(p AttachParams) ([]string, error) {
	if c.entries == nil {
		return nil, fmt.Errorf("FutureChain.Attach: contracts not initialized for %s %s: %w", c.Stem, c.Kind, ErrChain)
	}

	if p.LookbackDays <= 0 {
		return nil, fmt.Errorf("FutureChain.Attach: lookback days must be positive: %w", ErrChain)
	}

	c.lookbackDays = p.LookbackDays

	var kept models.ChainEntries
	var pruned []string
	attached := make(map[string]models.Series, len(c.entries))

	for _, e := range c.entries {
		series, reason := c.window(e, p)
		if reason != "" {
			log.WithFields(log.Fields{"stem": c.Stem, "ticker": e.Ticker}).Warnf("removing from chain: %s", reason)
			pruned = append(pruned, e.Ticker)
			continue
		}

		kept = append(kept, e)
		attached[e.Ticker] = series
	}

	c.entries = kept
	c.data = attached

	return pruned, nil
}

// window returns the attached series of an entry, or the reason it is pruned.
func (c *FutureChain) window(e models.ChainEntry, p AttachParams) (models.Series, string) {
	series, err := c.svc.Store.Load(e.Ticker)
	if err != nil {
		if !errors.Is(err, data.ErrNotFound) {
			log.WithError(err).Errorf("failed to load %s", e.Ticker)
		}

		return nil, "file not found or not enough data"
	}

	if len(series) < p.LookbackDays && !p.AllowPartial {
		return nil, "file not found or not enough data"
	}

	if c.Kind == instrument.Spread {
		series = c.withRollYield(e.Ticker, series)
	}

	var base, out models.Series
	if p.IncludeBoundaryDays {
		base = series.UpTo(e.LastDate)
		out = base.Tail(p.LookbackDays + 1)
	} else {
		// the last date itself is not tradeable
		base = series.Before(e.LastDate)
		out = base.Tail(p.LookbackDays)
	}

	if c.Status == ActiveLive {
		out = base.From(c.lookbackStart(e.LastDate, p.LookbackDays))
		if len(out) == 0 {
			return nil, "too early"
		}
	}

	return out, ""
}

// lookbackStart is the session LookbackDays+2 sessions before last.
func (c *FutureChain) lookbackStart(last time.Time, lookback int) time.Time {
	back := lookback + 2
	if c.svc.Calendar == nil {
		return utils.AddBusinessDays(last, -back)
	}

	i, ok := c.svc.Calendar.IndexOf(last)
	if !ok {
		if i, ok = c.svc.Calendar.LastBefore(last); !ok {
			return utils.AddBusinessDays(last, -back)
		}
	}

	if i -= back; i < 0 {
		i = 0
	}

	d, _ := c.svc.Calendar.At(i)
	return d
}

// withRollYield annualizes the spread against its front outright:
// close / outright close * 12 / months between legs * 100.
func (c *FutureChain) withRollYield(ticker string, series models.Series) models.Series {
	s, err := instrument.Decode(ticker)
	if err != nil || len(s.Maturities) < 2 {
		log.WithError(err).Warnf("cannot compute roll yield for %s", ticker)
		return series
	}

	months, err := instrument.MonthsBetween(s.Maturities[0].Key(false), s.Maturities[1].Key(false))
	if err != nil || months == 0 {
		log.WithError(err).Warnf("cannot compute roll yield for %s", ticker)
		return series
	}

	outright := s.Stem + s.Maturities[0].String()
	front, err := c.svc.Store.Load(outright)
	if err != nil {
		log.WithError(err).Warnf("no outright data for roll yield of %s", ticker)
	}
	closes := front.Closes()

	out := make(models.Series, len(series))
	for i, b := range series {
		b.RollYield = math.NaN()
		if oc, ok := closes[b.Date]; ok && oc != 0 {
			b.RollYield = b.Close / oc * 12 / float64(months) * 100
		}
		out[i] = b
	}

	return out
}

func (c *FutureChain) Entries() models.ChainEntries {
	out := make(models.ChainEntries, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *FutureChain) Tickers() []string {
	return c.entries.Tickers()
}

func (c *FutureChain) Len() int {
	return len(c.entries)
}

// Data returns the attached series of a ticker.
func (c *FutureChain) Data(ticker string) (models.Series, bool) {
	s, ok := c.data[ticker]
	return s, ok
}

// DataLen is the number of attached series.
func (c *FutureChain) DataLen() int {
	return len(c.data)
}

// Continuous concatenates the attached series without any price adjustment.
// The first entry contributes the 90 bars before its final bar, each next one
// the bars strictly between the previous last date and its own.
func (c *FutureChain) Continuous() models.Series {
	var out models.Series
	var previous time.Time

	for i, e := range c.entries {
		s := c.data[e.Ticker]
		if i == 0 {
			if len(s) > 0 {
				out = append(out, s[:len(s)-1].Tail(DefaultLookbackDays)...)
			}
		} else {
			out = append(out, s.Between(previous, e.LastDate)...)
		}

		previous = e.LastDate
	}

	return out
}

// StartEnd returns the first attached bar date and the last entry's last
// date. pad widens the range by 10 business days before and 1 after.
func (c *FutureChain) StartEnd(pad bool) (time.Time, time.Time, error) {
	if len(c.entries) == 0 || len(c.data) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("FutureChain.StartEnd: no data attached for %s %s: %w", c.Stem, c.Kind, ErrChain)
	}

	first, ok := c.data[c.entries[0].Ticker].First()
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("FutureChain.StartEnd: %s has no bars: %w", c.entries[0].Ticker, ErrChain)
	}

	start := first.Date
	end := c.entries[len(c.entries)-1].LastDate
	if pad {
		start = utils.AddBusinessDays(start, -startPadDays)
		end = utils.AddBusinessDays(end, endPadDays)
	}

	log.Infof("first contract: %s - last contract: %s", c.entries[0].Ticker, c.entries[len(c.entries)-1].Ticker)
	return start, end, nil
}

// FilterChain restricts the chain to the given tickers, keeping chain order.
func (c *FutureChain) FilterChain(tickers []string) *FutureChain {
	keep := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		keep[t] = true
	}

	var entries models.ChainEntries
	for _, e := range c.entries {
		if keep[e.Ticker] {
			entries = append(entries, e)
		}
	}

	if c.data != nil {
		attached := make(map[string]models.Series, len(entries))
		for _, e := range entries {
			if s, ok := c.data[e.Ticker]; ok {
				attached[e.Ticker] = s
			}
		}
		c.data = attached
	}

	c.entries = entries
	return c
}

func (c *FutureChain) LastDate(position int) (time.Time, error) {
	if position < 0 || position >= len(c.entries) {
		return time.Time{}, fmt.Errorf("FutureChain.LastDate: position %d out of range: %w", position, ErrChain)
	}

	return c.entries[position].LastDate, nil
}

func (c *FutureChain) Ticker(position int) (string, error) {
	if position < 0 || position >= len(c.entries) {
		return "", fmt.Errorf("FutureChain.Ticker: position %d out of range: %w", position, ErrChain)
	}

	return c.entries[position].Ticker, nil
}

// Aggregate averages a field bar by bar over the length entries ending at
// ticker. Entries whose series length differs from the ticker's are skipped.
func (c *FutureChain) Aggregate(ticker, field string, length int) ([]float64, error) {
	pos := c.entries.Index(ticker)
	if pos < 0 {
		return nil, fmt.Errorf("FutureChain.Aggregate: %s not in chain: %w", ticker, ErrChain)
	}

	var columns [][]float64
	for i := 0; i < length && pos-i >= 0; i++ {
		ct := c.entries[pos-i].Ticker
		values, err := c.data[ct].Values(field)
		if err != nil {
			return nil, fmt.Errorf("FutureChain.Aggregate: %w", err)
		}

		if len(columns) > 0 && len(values) != len(columns[0]) {
			log.Errorf("problem for ticker %s: %d bars, expected %d", ct, len(values), len(columns[0]))
			continue
		}

		columns = append(columns, values)
	}

	if len(columns) == 0 || len(columns[0]) == 0 {
		return nil, fmt.Errorf("FutureChain.Aggregate: no data for %s: %w", ticker, ErrChain)
	}

	out := make([]float64, len(columns[0]))
	row := make([]float64, len(columns))
	for i := range out {
		for j, col := range columns {
			row[j] = col[i]
		}

		mean, err := stats.Mean(row)
		if err != nil {
			return nil, fmt.Errorf("FutureChain.Aggregate: failed to calculate mean: %w", err)
		}
		out[i] = mean
	}

	return out, nil
}
