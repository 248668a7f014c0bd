package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const databaseJSON = `{
  "ED": {
    "Stem": {"Reuters": "ED", "Bloomberg": "ED", "T4": "ED", "CMED": "GE", "IQFeed": "@GE"},
    "Letters": ["H", "M", "U", "Z"],
    "Reference": "LTD",
    "Download": {"nac": 12, "ncb": 4},
    "Point": 2500,
    "Margin": 500.5,
    "Sector": "Yield",
    "Group": "Other",
    "Comms": {"7GE1478": {"2016-01-01": {"Lot": 1.5, "Fill": 0.2}}}
  },
  "LH": {
    "Stem": {"Reuters": "LH", "Bloomberg": "LH"},
    "Letters": [],
    "Reference": "FND",
    "Spot": "During the last x trading days of the contract",
    "Rule": 10,
    "Point": 400,
    "Sector": "Commodity",
    "Group": "Meat"
  }
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMarketDatabase(t *testing.T) {
	db, err := LoadMarketDatabase(writeFile(t, "database.json", databaseJSON))
	require.NoError(t, err)

	t.Run("markets are keyed by stem", func(t *testing.T) {
		assert.Equal(t, []string{"ED", "LH"}, db.Stems())

		ed, err := db.Market("ED")
		require.NoError(t, err)
		assert.Equal(t, "LTD", ed.Reference)
		assert.Equal(t, 12, ed.Download.ActiveCount)
		assert.True(t, decimal.NewFromFloat(500.5).Equal(ed.Margin))
		assert.True(t, decimal.NewFromFloat(1.5).Equal(ed.Comms["7GE1478"]["2016-01-01"].Lot))
		assert.Nil(t, ed.Rule)

		lh, err := db.Market("LH")
		require.NoError(t, err)
		require.NotNil(t, lh.Rule)
		assert.Equal(t, 10, *lh.Rule)
		assert.Nil(t, lh.Download)
	})

	t.Run("unknown market", func(t *testing.T) {
		_, err := db.Market("ZZ")
		assert.True(t, errors.Is(err, ErrUnknownMarket))
	})

	t.Run("provider stems", func(t *testing.T) {
		ed, _ := db.Market("ED")
		s, err := ed.ProviderStem("CMED")
		require.NoError(t, err)
		assert.Equal(t, "GE", s)

		lh, _ := db.Market("LH")
		_, err = lh.ProviderStem("T4")
		assert.True(t, errors.Is(err, ErrMissingField))
	})

	t.Run("futures filter", func(t *testing.T) {
		stems, err := db.Futures("Yield", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"ED"}, stems)

		stems, err = db.Futures("", "Meat")
		require.NoError(t, err)
		assert.Equal(t, []string{"LH"}, stems)

		stems, err = db.Futures("", "")
		require.NoError(t, err)
		assert.Len(t, stems, 2)

		_, err = db.Futures("Energy", "")
		assert.True(t, errors.Is(err, ErrInvalidFilter))
	})
}

func TestLoad(t *testing.T) {
	t.Run("defaults and env expansion", func(t *testing.T) {
		t.Setenv("OMEGA_DATA", "/data/omega")
		path := writeFile(t, "omega.yaml", "data_dir: ${OMEGA_DATA}\ndatabase: /data/omega/database.json\n")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/data/omega", cfg.DataDir)
		assert.Equal(t, StorageFile, cfg.Storage.Version)
		assert.False(t, cfg.UsesDatabase())
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "CME", cfg.Calendar.Exchange)
		assert.Equal(t, DefaultAccount, cfg.Account)
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		path := writeFile(t, "omega.yaml", "data_dir: /tmp\ndatabase: db.json\nmode: fast\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("database storage needs postgres settings", func(t *testing.T) {
		path := writeFile(t, "omega.yaml", "data_dir: /tmp\ndatabase: db.json\nstorage:\n  version: \"2\"\n")
		_, err := Load(path)
		assert.Error(t, err)

		path = writeFile(t, "omega.yaml", "data_dir: /tmp\ndatabase: db.json\nstorage:\n  version: \"2\"\npostgres:\n  host: localhost\n  dbname: omega\n")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.True(t, cfg.UsesDatabase())
		assert.Contains(t, cfg.Postgres.DSN(), "port=5432")
	})
}
