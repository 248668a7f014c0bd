package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"github.com/mickeykoko321/omega/src/models"
	"github.com/mickeykoko321/omega/src/utils"
)

// Calendar is an ordered, read-only list of trading sessions.
type Calendar struct {
	days  []time.Time
	index map[time.Time]int
}

func NewCalendar(days []time.Time) *Calendar {
	sorted := make([]time.Time, 0, len(days))
	seen := make(map[time.Time]bool, len(days))
	for _, d := range days {
		d = utils.Day(d)
		if seen[d] {
			continue
		}
		seen[d] = true
		sorted = append(sorted, d)
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	c := &Calendar{days: sorted, index: make(map[time.Time]int, len(sorted))}
	for i, d := range sorted {
		c.index[d] = i
	}

	return c
}

// WeekdayCalendar treats every weekday between start and end as a session,
// except the given holidays.
func WeekdayCalendar(start, end time.Time, holidays ...time.Time) *Calendar {
	closed := make(map[time.Time]bool, len(holidays))
	for _, h := range holidays {
		closed[utils.Day(h)] = true
	}

	var days []time.Time
	for _, d := range utils.BusinessDateRange(start, end) {
		if !closed[d] {
			days = append(days, d)
		}
	}

	return NewCalendar(days)
}

// LoadCalendar reads a sessions export (Date,MarketOpen,MarketClose) and
// keeps the sessions between start and end.
func LoadCalendar(path string, start, end time.Time) (*Calendar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadCalendar: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var dtos []models.SessionDTO
	if err := gocsv.UnmarshalCSV(r, &dtos); err != nil {
		return nil, fmt.Errorf("LoadCalendar: error unmarshalling %s: %w", path, err)
	}

	var days []time.Time
	for _, dto := range dtos {
		s, err := dto.ToModel()
		if err != nil {
			return nil, fmt.Errorf("LoadCalendar: %w", err)
		}

		if s.Date.Before(start) || s.Date.After(end) {
			continue
		}

		days = append(days, s.Date)
	}

	if len(days) == 0 {
		log.Warnf("LoadCalendar: no sessions found in %s", path)
	}

	return NewCalendar(days), nil
}

func (c *Calendar) Len() int {
	return len(c.days)
}

func (c *Calendar) Days() []time.Time {
	out := make([]time.Time, len(c.days))
	copy(out, c.days)
	return out
}

func (c *Calendar) At(i int) (time.Time, bool) {
	if i < 0 || i >= len(c.days) {
		return time.Time{}, false
	}

	return c.days[i], true
}

// IndexOf is the position of a session date.
func (c *Calendar) IndexOf(d time.Time) (int, bool) {
	i, ok := c.index[utils.Day(d)]
	return i, ok
}

// FirstInMonth is the position of the first session of a yyyymm month.
func (c *Calendar) FirstInMonth(yyyymm int) (int, bool) {
	i := sort.Search(len(c.days), func(i int) bool { return utils.YearMonth(c.days[i]) >= yyyymm })
	if i < len(c.days) && utils.YearMonth(c.days[i]) == yyyymm {
		return i, true
	}

	return 0, false
}

// LastBefore is the position of the latest session strictly before d.
func (c *Calendar) LastBefore(d time.Time) (int, bool) {
	d = utils.Day(d)
	i := sort.Search(len(c.days), func(i int) bool { return !c.days[i].Before(d) })
	if i == 0 {
		return 0, false
	}

	return i - 1, true
}

// Between lists sessions from start to end, both included.
func (c *Calendar) Between(start, end time.Time) []time.Time {
	var out []time.Time
	for _, d := range c.days {
		if !d.Before(utils.Day(start)) && !d.After(utils.Day(end)) {
			out = append(out, d)
		}
	}

	return out
}
