package models

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2018, time.April, d, 0, 0, 0, 0, time.UTC)
}

func makeSeries(days ...int) Series {
	var s Series
	for _, d := range days {
		s = append(s, NewBar(day(d), 1, 2, 0.5, float64(d), 10, 20))
	}

	return s
}

func TestSeries(t *testing.T) {
	s := makeSeries(2, 3, 4, 5, 6, 9, 10)

	t.Run("date filters", func(t *testing.T) {
		assert.Len(t, s.Before(day(5)), 3)
		assert.Len(t, s.UpTo(day(5)), 4)
		assert.Len(t, s.From(day(5)), 4)
		assert.Len(t, s.Between(day(3), day(9)), 3)
	})

	t.Run("tail", func(t *testing.T) {
		tail := s.Tail(2)
		require.Len(t, tail, 2)
		assert.Equal(t, day(9), tail[0].Date)
		assert.Len(t, s.Tail(100), len(s))
		assert.Empty(t, s.Tail(0))
	})

	t.Run("weekdays", func(t *testing.T) {
		weekend := append(makeSeries(6), NewBar(day(7), 1, 1, 1, 1, 0, 0))
		assert.Len(t, weekend.Weekdays(), 1)
	})

	t.Run("merge keeps older bars before the new data", func(t *testing.T) {
		merged := makeSeries(2, 3, 4).Merge(makeSeries(4, 5))
		require.Len(t, merged, 4)
		assert.Equal(t, day(5), merged[3].Date)

		assert.Len(t, makeSeries(2).Merge(nil), 1)
	})

	t.Run("fields", func(t *testing.T) {
		closes, err := s.Values("Close")
		require.NoError(t, err)
		assert.Equal(t, 2.0, closes[0])

		b, _ := s.First()
		ry, err := b.Field("RollYield")
		require.NoError(t, err)
		assert.True(t, math.IsNaN(ry))

		_, err = s.Values("Bid")
		assert.True(t, errors.Is(err, ErrUnknownField))
	})
}

func TestBarDTO(t *testing.T) {
	dtos := BarDTOs{
		{Date: "2018-04-03 00:00:00", Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 120, OI: 3000},
		{Date: "2018-04-02", Open: 1, High: 2, Low: 0.5, Close: 1.2, Volume: 100.0, OI: 2900},
	}

	s, err := dtos.ToModel()
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, day(2), s[0].Date)
	assert.Equal(t, int64(120), s[1].Volume)

	back := NewBarDTOs(s)
	assert.Equal(t, "2018-04-02", back[0].Date)

	_, err = BarDTOs{{Date: "04/02/2018"}}.ToModel()
	assert.Error(t, err)
}

func TestContractMonth(t *testing.T) {
	row := ContractMonth{CtrMth: 20180400, WeTrd: WeTrade, LTD: "2018-04-13", FND: ""}
	assert.True(t, row.Traded())
	assert.Equal(t, 201804, row.YearMonth())

	d, err := row.Date("LTD")
	require.NoError(t, err)
	assert.Equal(t, day(13), d)

	_, err = row.Date("FND")
	assert.Error(t, err)

	_, err = row.Field("Expiry")
	assert.True(t, errors.Is(err, ErrUnknownField))
}
