package utils

import (
	"fmt"
	"time"
)

// DateLayout is the ISO layout used by every persisted date in the data folder.
const DateLayout = "2006-01-02"

func GetMinTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}

	return b
}

func GetMaxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}

	return b
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate: invalid date %q: %w", s, err)
	}

	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Day truncates t to midnight UTC, keeping its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// YearMonth returns t as a yyyymm integer.
func YearMonth(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}

func IsWeekday(t time.Time) bool {
	return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday
}

// AddBusinessDays moves n weekdays away from t. A weekend start date first
// rolls in the direction of travel, so t+1 from a Saturday is the Monday.
func AddBusinessDays(t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}

	d := t
	if !IsWeekday(d) && n > 0 {
		for !IsWeekday(d) {
			d = d.AddDate(0, 0, step)
		}
		n--
	}

	for n > 0 {
		d = d.AddDate(0, 0, step)
		if IsWeekday(d) {
			n--
		}
	}

	return d
}

// BusinessDateRange lists every weekday between start and end, both included.
func BusinessDateRange(start, end time.Time) []time.Time {
	var days []time.Time
	for d := Day(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsWeekday(d) {
			days = append(days, d)
		}
	}

	return days
}
