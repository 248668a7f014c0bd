package models

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mickeykoko321/omega/src/utils"
)

// Bar is one daily observation. RollYield is NaN unless computed for a spread.
type Bar struct {
	Date      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	OI        int64
	RollYield float64
}

func NewBar(date time.Time, open, high, low, close float64, volume, oi int64) Bar {
	return Bar{
		Date:      date,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
		OI:        oi,
		RollYield: math.NaN(),
	}
}

// Field returns the named numeric field of the bar.
func (b Bar) Field(name string) (float64, error) {
	switch name {
	case "Open":
		return b.Open, nil
	case "High":
		return b.High, nil
	case "Low":
		return b.Low, nil
	case "Close":
		return b.Close, nil
	case "Volume":
		return float64(b.Volume), nil
	case "OI":
		return float64(b.OI), nil
	case "RollYield":
		return b.RollYield, nil
	default:
		return 0, fmt.Errorf("Bar.Field: %q: %w", name, ErrUnknownField)
	}
}

// Series is a daily bar series ordered by date.
type Series []Bar

func (s Series) Sort() {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}

func (s Series) First() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}

	return s[0], true
}

func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}

	return s[len(s)-1], true
}

func (s Series) filter(keep func(Bar) bool) Series {
	out := make(Series, 0, len(s))
	for _, b := range s {
		if keep(b) {
			out = append(out, b)
		}
	}

	return out
}

// Before keeps bars strictly before d.
func (s Series) Before(d time.Time) Series {
	return s.filter(func(b Bar) bool { return b.Date.Before(d) })
}

// UpTo keeps bars on or before d.
func (s Series) UpTo(d time.Time) Series {
	return s.filter(func(b Bar) bool { return !b.Date.After(d) })
}

// From keeps bars on or after d.
func (s Series) From(d time.Time) Series {
	return s.filter(func(b Bar) bool { return !b.Date.Before(d) })
}

// Between keeps bars strictly after start and strictly before end.
func (s Series) Between(start, end time.Time) Series {
	return s.filter(func(b Bar) bool { return b.Date.After(start) && b.Date.Before(end) })
}

func (s Series) Weekdays() Series {
	return s.filter(func(b Bar) bool { return utils.IsWeekday(b.Date) })
}

// Tail returns the last n bars, or all of them when the series is shorter.
func (s Series) Tail(n int) Series {
	if n <= 0 {
		return Series{}
	}

	if n >= len(s) {
		return s
	}

	return s[len(s)-n:]
}

// Closes indexes close prices by date.
func (s Series) Closes() map[time.Time]float64 {
	out := make(map[time.Time]float64, len(s))
	for _, b := range s {
		out[b.Date] = b.Close
	}

	return out
}

func (s Series) Values(field string) ([]float64, error) {
	out := make([]float64, len(s))
	for i, b := range s {
		v, err := b.Field(field)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}

	return out, nil
}

// Merge keeps the bars of s dated before the first bar of newer, then
// appends newer.
func (s Series) Merge(newer Series) Series {
	first, ok := newer.First()
	if !ok {
		return s
	}

	out := s.Before(first.Date)
	return append(out, newer...)
}
