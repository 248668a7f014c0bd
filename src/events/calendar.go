package events

import (
	"fmt"
	"time"

	"github.com/mickeykoko321/omega/src/data"
	"github.com/mickeykoko321/omega/src/utils"
)

// ThirdFriday is the third Friday of a month.
func ThirdFriday(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+14)
}

// DaysBetween is the number of sessions from a to b.
func DaysBetween(cal *data.Calendar, a, b time.Time) (int, error) {
	i, err := indexOf(cal, a)
	if err != nil {
		return 0, fmt.Errorf("DaysBetween: %w", err)
	}

	j, err := indexOf(cal, b)
	if err != nil {
		return 0, fmt.Errorf("DaysBetween: %w", err)
	}

	return j - i, nil
}

// BusinessDayOfMonth is the 1-based session number of d within its month.
func BusinessDayOfMonth(cal *data.Calendar, d time.Time) (int, error) {
	i, err := indexOf(cal, d)
	if err != nil {
		return 0, fmt.Errorf("BusinessDayOfMonth: %w", err)
	}

	first, err := firstInMonth(cal, utils.YearMonth(d))
	if err != nil {
		return 0, fmt.Errorf("BusinessDayOfMonth: %w", err)
	}

	return i - first + 1, nil
}

func indexOf(cal *data.Calendar, d time.Time) (int, error) {
	i, ok := cal.IndexOf(d)
	if !ok {
		return 0, fmt.Errorf("%s is not a trading day: %w", utils.FormatDate(d), ErrEvent)
	}

	return i, nil
}

func firstInMonth(cal *data.Calendar, yyyymm int) (int, error) {
	i, ok := cal.FirstInMonth(yyyymm)
	if !ok {
		return 0, fmt.Errorf("no trading day in %d: %w", yyyymm, ErrEvent)
	}

	return i, nil
}

func at(cal *data.Calendar, i int) (time.Time, error) {
	d, ok := cal.At(i)
	if !ok {
		return time.Time{}, fmt.Errorf("position %d outside calendar of %d days: %w", i, cal.Len(), ErrEvent)
	}

	return d, nil
}
