package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"github.com/mickeykoko321/omega/src/config"
	"github.com/mickeykoko321/omega/src/instrument"
	"github.com/mickeykoko321/omega/src/models"
	"github.com/mickeykoko321/omega/src/utils"
)

// Amendment switches trading on or off for every contract month of a letter.
type Amendment struct {
	Letter string
	Trade  bool
}

// ContractMonthTable reads and writes <root>/CtrMth/<Reuters stem>.csv.
// Amend overwrites the whole file and callers serialize access to it.
type ContractMonthTable struct {
	root    string
	markets *config.MarketDatabase
}

func NewContractMonthTable(root string, markets *config.MarketDatabase) *ContractMonthTable {
	return &ContractMonthTable{root: root, markets: markets}
}

func (t *ContractMonthTable) Path(stem string) (string, error) {
	m, err := t.markets.Market(stem)
	if err != nil {
		return "", fmt.Errorf("ContractMonthTable.Path: %w", err)
	}

	ric, err := m.ProviderStem(string(instrument.Reuters))
	if err != nil {
		return "", fmt.Errorf("ContractMonthTable.Path: %s: %w", stem, err)
	}

	return filepath.Join(t.root, "CtrMth", fmt.Sprintf("%s.csv", ric)), nil
}

// Read returns every row of the table with its derived letter.
func (t *ContractMonthTable) Read(stem string) ([]models.ContractMonth, error) {
	path, err := t.Path(stem)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ContractMonthTable.Read: %s: %v: %w", stem, err, ErrData)
	}
	defer f.Close()

	var rows []models.ContractMonth
	if err := gocsv.UnmarshalCSV(csv.NewReader(f), &rows); err != nil {
		return nil, fmt.Errorf("ContractMonthTable.Read: %s: %v: %w", stem, err, ErrData)
	}

	for i := range rows {
		m, err := instrument.MaturityFromKey(rows[i].CtrMth)
		if err != nil {
			return nil, fmt.Errorf("ContractMonthTable.Read: %s: %v: %w", stem, err, ErrData)
		}
		rows[i].Letter = m.Letter

		if i > 0 && rows[i].CtrMth <= rows[i-1].CtrMth {
			return nil, fmt.Errorf("ContractMonthTable.Read: %s: CtrMth %d is not ascending or unique: %w", stem, rows[i].CtrMth, ErrData)
		}
	}

	return rows, nil
}

// Load returns the rows used to build chains. tradeOnly keeps the months we
// trade; otherwise rows are restricted to the market's configured letters.
func (t *ContractMonthTable) Load(stem string, tradeOnly bool) ([]models.ContractMonth, error) {
	rows, err := t.Read(stem)
	if err != nil {
		return nil, err
	}

	var out []models.ContractMonth
	if tradeOnly {
		for _, row := range rows {
			if row.Traded() {
				out = append(out, row)
			}
		}
	} else {
		out, err = t.filterLetters(stem, rows)
		if err != nil {
			return nil, err
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("ContractMonthTable.Load: table for %s is empty: %w", stem, ErrData)
	}

	return out, nil
}

func (t *ContractMonthTable) filterLetters(stem string, rows []models.ContractMonth) ([]models.ContractMonth, error) {
	m, err := t.markets.Market(stem)
	if err != nil {
		return nil, fmt.Errorf("ContractMonthTable.Load: %w", err)
	}

	letters := m.Letters
	if len(letters) == 0 {
		letters = instrument.Letters
	}

	configured := make(map[string]bool, len(letters))
	for _, l := range letters {
		configured[l] = true
	}

	present := make(map[string]bool)
	for _, row := range rows {
		present[row.Letter] = true
	}

	if sameSet(configured, present) {
		return rows, nil
	}

	log.WithField("stem", stem).Warn("letters in database are different than in CtrMth")

	var out []models.ContractMonth
	for _, row := range rows {
		if configured[row.Letter] {
			out = append(out, row)
		}
	}

	return out, nil
}

func sameSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}

	for k := range a {
		if !b[k] {
			return false
		}
	}

	return true
}

// Save overwrites the table with rows using the fixed column layout.
func (t *ContractMonthTable) Save(stem string, rows []models.ContractMonth) error {
	path, err := t.Path(stem)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("ContractMonthTable.Save: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ContractMonthTable.Save: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csv.NewWriter(f))); err != nil {
		return fmt.Errorf("ContractMonthTable.Save: %s: %w", stem, err)
	}

	return nil
}

// Amend sets WeTrd on every row whose letter matches an amendment.
func (t *ContractMonthTable) Amend(stem string, amendments []Amendment) error {
	rows, err := t.Read(stem)
	if err != nil {
		return err
	}

	for _, a := range amendments {
		if instrument.LetterIndex(a.Letter) < 0 {
			return fmt.Errorf("ContractMonthTable.Amend: unknown letter %q: %w", a.Letter, instrument.ErrFormat)
		}

		flag := models.WeDoNotTrade
		if a.Trade {
			flag = models.WeTrade
		}

		n := 0
		for i := range rows {
			if rows[i].Letter == a.Letter {
				rows[i].WeTrd = flag
				n++
			}
		}

		log.WithFields(log.Fields{"stem": stem, "letter": a.Letter, "trade": a.Trade}).Infof("amended %d contract months", n)
	}

	return t.Save(stem, rows)
}

// IsActive reports whether the yyyymm contract is not yet past its last
// trading day.
func (t *ContractMonthTable) IsActive(stem string, yyyymm int, today time.Time) (bool, error) {
	rows, err := t.Load(stem, false)
	if err != nil {
		return false, err
	}

	for _, row := range rows {
		if row.CtrMth != yyyymm*100 {
			continue
		}

		if row.LTD == "" {
			return false, fmt.Errorf("ContractMonthTable.IsActive: %s %d has no LTD: %w", stem, yyyymm, ErrData)
		}

		ltd, err := utils.ParseDate(row.LTD)
		if err != nil {
			return false, fmt.Errorf("ContractMonthTable.IsActive: %s %d: %v: %w", stem, yyyymm, err, ErrData)
		}

		return !ltd.Before(utils.Day(today)), nil
	}

	return false, fmt.Errorf("ContractMonthTable.IsActive: %s %d not in table: %w", stem, yyyymm, ErrData)
}

// SymbolLookup answers provider rendering questions from the market
// database and the contract-month tables.
type SymbolLookup struct {
	markets *config.MarketDatabase
	table   *ContractMonthTable
	today   time.Time
}

func NewSymbolLookup(markets *config.MarketDatabase, table *ContractMonthTable, today time.Time) *SymbolLookup {
	return &SymbolLookup{markets: markets, table: table, today: today}
}

func (l *SymbolLookup) ProviderStem(stem string, provider instrument.Provider) (string, error) {
	m, err := l.markets.Market(stem)
	if err != nil {
		return "", err
	}

	return m.ProviderStem(string(provider))
}

func (l *SymbolLookup) IsActive(stem string, yyyymm int) (bool, error) {
	return l.table.IsActive(stem, yyyymm, l.today)
}
