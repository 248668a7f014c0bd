package instrument

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaturityKeys(t *testing.T) {
	t.Run("key round trip", func(t *testing.T) {
		for _, letter := range Letters {
			for year := 0; year < 100; year++ {
				m := Maturity{Letter: letter, Year: year}

				back, err := MaturityFromKey(m.Key(false))
				require.NoError(t, err)
				assert.Equal(t, m, back)

				back, err = MaturityFromKey(m.Key(true))
				require.NoError(t, err)
				assert.Equal(t, m, back)

				parsed, err := ParseMaturity(m.String())
				require.NoError(t, err)
				assert.Equal(t, m, parsed)
			}
		}
	})

	t.Run("century inference", func(t *testing.T) {
		m, err := ParseMaturity("H17")
		require.NoError(t, err)
		assert.Equal(t, 201703, m.Key(false))
		assert.Equal(t, 20170300, m.Key(true))

		m, err = ParseMaturity("Z99")
		require.NoError(t, err)
		assert.Equal(t, 199912, m.Key(false))
	})

	t.Run("bad keys", func(t *testing.T) {
		for _, key := range []int{2017030, 201700, 20171300, 1} {
			_, err := MaturityFromKey(key)
			assert.True(t, errors.Is(err, ErrFormat), "key %d", key)
		}
	})

	t.Run("bad maturities", func(t *testing.T) {
		for _, s := range []string{"A17", "H1", "H1x", "", "H170"} {
			_, err := ParseMaturity(s)
			assert.True(t, errors.Is(err, ErrFormat), "maturity %q", s)
		}
	})
}

func TestNextMaturity(t *testing.T) {
	cases := []struct {
		mat      string
		months   int
		short    bool
		expected string
	}{
		{"H17", 3, false, "M17"},
		{"Z17", 1, false, "F18"},
		{"H17", 15, false, "M18"},
		{"U17", 27, false, "Z19"},
		{"Z19", 1, true, "F0"},
		{"F05", 12, false, "F06"},
		{"Z99", 1, false, "F00"},
		{"H10", -3, false, "Z09"},
	}

	for _, tc := range cases {
		t.Run(tc.mat, func(t *testing.T) {
			next, err := NextMaturity(tc.mat, tc.months, tc.short)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, next)
		})
	}

	t.Run("stepping composes", func(t *testing.T) {
		for _, letter := range Letters {
			for year := 0; year < 40; year++ {
				start := Maturity{Letter: letter, Year: year}
				for g := 1; g <= 6; g++ {
					for k := 1; k <= 5; k++ {
						m := start
						for i := 0; i < k; i++ {
							m = m.Next(g)
						}
						assert.Equal(t, start.Next(k*g), m)
					}
				}
			}
		}
	})

	t.Run("malformed input", func(t *testing.T) {
		_, err := NextMaturity("H7", 1, false)
		assert.True(t, errors.Is(err, ErrFormat))
	})
}

func TestPreviousMonth(t *testing.T) {
	fixtures := map[string]int{
		"F18": 201712,
		"Z17": 201711,
		"M10": 201005,
		"J18": 201803,
	}

	for mat, expected := range fixtures {
		got, err := PreviousMonth(mat)
		require.NoError(t, err)
		assert.Equal(t, expected, got, mat)
	}
}

func TestMonthsBetween(t *testing.T) {
	n, err := MonthsBetween(20170300, 20180600)
	require.NoError(t, err)
	assert.Equal(t, 15, n)

	n, err = MonthsBetween(201806, 20170300)
	require.NoError(t, err)
	assert.Equal(t, -15, n)

	_, err = MonthsBetween(2017, 201803)
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestNormalizeTicker(t *testing.T) {
	jun17 := time.Date(2017, time.June, 1, 0, 0, 0, 0, time.UTC)
	jan26 := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

	got, err := NormalizeTicker("EDH8", jun17)
	require.NoError(t, err)
	assert.Equal(t, "EDH18", got)

	got, err = NormalizeTicker("EDS3H7", jun17)
	require.NoError(t, err)
	assert.Equal(t, "EDS3H17", got)

	got, err = NormalizeTicker("EDH8", jan26)
	require.NoError(t, err)
	assert.Equal(t, "EDH28", got)

	got, err = NormalizeTicker("EDH17", jan26)
	require.NoError(t, err)
	assert.Equal(t, "EDH17", got)

	_, err = NormalizeTicker("EDH", jun17)
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestMaturityForms(t *testing.T) {
	short, err := ToShortMaturity("M24")
	require.NoError(t, err)
	assert.Equal(t, "M4", short)

	cmed, err := CMEDMaturity("H17")
	require.NoError(t, err)
	assert.Equal(t, "Mar17", cmed)

	ms, err := GenerateMaturities("H17", 3, 4, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"H17", "M17", "U17", "Z17"}, ms)

	ms, err = GenerateMaturities("Z9", 1, 2, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Z9", "F0"}, ms)

	_, err = GenerateMaturities("Q", 1, 2, true)
	assert.Error(t, err)
}
