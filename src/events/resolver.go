package events

import (
	"fmt"
	"time"

	"github.com/mickeykoko321/omega/src/config"
	"github.com/mickeykoko321/omega/src/data"
	"github.com/mickeykoko321/omega/src/instrument"
	"github.com/mickeykoko321/omega/src/models"
)

// goldmanRollStart is the position of the first roll day (the 4th session of
// the month before expiry).
const goldmanRollStart = 3

// Resolver computes the date of an event for a ticker. offset moves the
// result by that many sessions.
type Resolver interface {
	Date(ticker string, lastDay time.Time, offset int) (time.Time, error)
}

func New(kind Kind, cal *data.Calendar, markets *config.MarketDatabase) (Resolver, error) {
	if cal == nil {
		return nil, fmt.Errorf("events.New: calendar is nil: %w", ErrEvent)
	}

	switch kind {
	case GoldmanRoll:
		return &goldmanRollResolver{cal: cal}, nil
	case LastDay:
		return &lastDayResolver{cal: cal}, nil
	case SpotLimit:
		if markets == nil {
			return nil, fmt.Errorf("events.New: spot limit needs the market database: %w", ErrEvent)
		}
		return &spotLimitResolver{cal: cal, markets: markets}, nil
	default:
		return nil, fmt.Errorf("events.New: %w", kind.Validate())
	}
}

// ResolveAll returns one event date per entry, in chain order.
func ResolveAll(kind Kind, cal *data.Calendar, markets *config.MarketDatabase, entries models.ChainEntries, offset int) ([]time.Time, error) {
	r, err := New(kind, cal, markets)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		d, err := r.Date(e.Ticker, e.LastDate, offset)
		if err != nil {
			return nil, fmt.Errorf("ResolveAll: %s: %w", e.Ticker, err)
		}
		dates = append(dates, d)
	}

	return dates, nil
}

// lastDayResolver: set offset to -2 to exit two sessions before expiry.
type lastDayResolver struct {
	cal *data.Calendar
}

func (r *lastDayResolver) Date(_ string, lastDay time.Time, offset int) (time.Time, error) {
	return shift(r.cal, lastDay, offset)
}

type goldmanRollResolver struct {
	cal *data.Calendar
}

// Date treats offset as the day number of the roll.
func (r *goldmanRollResolver) Date(ticker string, _ time.Time, offset int) (time.Time, error) {
	front, err := frontMaturity(ticker)
	if err != nil {
		return time.Time{}, err
	}

	prev, err := instrument.PreviousMonth(front.String())
	if err != nil {
		return time.Time{}, fmt.Errorf("GoldmanRoll: %w", err)
	}

	i, err := firstInMonth(r.cal, prev)
	if err != nil {
		return time.Time{}, fmt.Errorf("GoldmanRoll: %w", err)
	}

	return at(r.cal, i+offset+goldmanRollStart)
}

type spotLimitResolver struct {
	cal     *data.Calendar
	markets *config.MarketDatabase
}

func (r *spotLimitResolver) Date(ticker string, lastDay time.Time, offset int) (time.Time, error) {
	st, err := instrument.Decode(ticker)
	if err != nil {
		return time.Time{}, fmt.Errorf("SpotLimit: %w", err)
	}

	m, err := r.markets.Market(st.Stem)
	if err != nil {
		return time.Time{}, fmt.Errorf("SpotLimit: %v: %w", err, ErrEvent)
	}

	rule, err := ParseSpotRule(m.Spot)
	if err != nil {
		return time.Time{}, fmt.Errorf("SpotLimit: %s: %w", st.Stem, err)
	}

	n := 0
	if rule.NeedsParameter() {
		if m.Rule == nil {
			return time.Time{}, fmt.Errorf("SpotLimit: %s: rule parameter not set: %w", st.Stem, ErrEvent)
		}
		n = *m.Rule
	}

	switch rule {
	case FirstBusinessDay:
		return r.fromContractMonth(st.Front(), offset)
	case LastTradingDays, BeforeLastTradingDay:
		return shift(r.cal, lastDay, -n+offset)
	case AfterOptionExpiry:
		return r.afterThirdFriday(lastDay, n+offset)
	case BeforeFirstNotice, BeforeDeliveryMonth:
		return r.fromContractMonth(st.Front(), -n+offset)
	case OnFirstNotice:
		return shift(r.cal, lastDay, offset)
	default:
		return time.Time{}, fmt.Errorf("SpotLimit: %w", rule.Validate())
	}
}

// fromContractMonth counts sessions from the first session of the contract
// month.
func (r *spotLimitResolver) fromContractMonth(front instrument.Maturity, days int) (time.Time, error) {
	i, err := firstInMonth(r.cal, front.Key(false))
	if err != nil {
		return time.Time{}, fmt.Errorf("SpotLimit: %w", err)
	}

	return at(r.cal, i+days)
}

// afterThirdFriday counts sessions from the option expiry in the month of
// the last day. A holiday expiry falls back to the session before it.
func (r *spotLimitResolver) afterThirdFriday(lastDay time.Time, days int) (time.Time, error) {
	tf := ThirdFriday(lastDay.Year(), lastDay.Month())

	i, ok := r.cal.IndexOf(tf)
	if !ok {
		if i, ok = r.cal.LastBefore(tf); !ok {
			return time.Time{}, fmt.Errorf("SpotLimit: no trading day before %s: %w", tf.Format("2006-01-02"), ErrEvent)
		}
	}

	return at(r.cal, i+days)
}

func shift(cal *data.Calendar, d time.Time, days int) (time.Time, error) {
	i, err := indexOf(cal, d)
	if err != nil {
		return time.Time{}, err
	}

	return at(cal, i+days)
}

func frontMaturity(ticker string) (instrument.Maturity, error) {
	st, err := instrument.Decode(ticker)
	if err != nil {
		return instrument.Maturity{}, fmt.Errorf("invalid ticker %s: %w", ticker, err)
	}

	return st.Front(), nil
}
