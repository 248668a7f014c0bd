package chain

import (
	"fmt"
	"strconv"
	"time"
	"unicode"

	log "github.com/sirupsen/logrus"

	"github.com/mickeykoko321/omega/src/config"
	"github.com/mickeykoko321/omega/src/instrument"
	"github.com/mickeykoko321/omega/src/models"
	"github.com/mickeykoko321/omega/src/utils"
)

const (
	outrightFloor  = 20000000
	structureFloor = 20070000

	// ActivePlus keeps just-expired contracts for this many business days.
	activePlusExtraDays = 5
)

// ContractMonthSource provides the contract-month rows of a market.
type ContractMonthSource interface {
	Load(stem string, tradeOnly bool) ([]models.ContractMonth, error)
}

type BuildParams struct {
	Date         time.Time
	Stem         string
	Kind         instrument.Kind
	Status       Status
	TradeOnly    bool
	ActiveCount  int
	LegGap       int
	DownloadMode bool
}

// NewBuildParams returns the usual parameters: traded months only, four
// active contracts, adjacent legs.
func NewBuildParams(date time.Time, stem string, kind instrument.Kind, status Status) BuildParams {
	return BuildParams{
		Date:        date,
		Stem:        stem,
		Kind:        kind,
		Status:      status,
		TradeOnly:   true,
		ActiveCount: 4,
		LegGap:      1,
	}
}

func (p BuildParams) Validate() error {
	if err := p.Kind.Validate(); err != nil {
		return err
	}

	if err := p.Status.Validate(); err != nil {
		return err
	}

	if p.LegGap < 1 {
		return fmt.Errorf("leg gap must be positive, got %d: %w", p.LegGap, ErrChain)
	}

	if p.ActiveCount < 0 {
		return fmt.Errorf("active count must not be negative, got %d: %w", p.ActiveCount, ErrChain)
	}

	return nil
}

// Builder enumerates the structures of a market from its contract-month table.
type Builder struct {
	markets *config.MarketDatabase
	table   ContractMonthSource
}

func NewBuilder(markets *config.MarketDatabase, table ContractMonthSource) *Builder {
	return &Builder{markets: markets, table: table}
}

// Build returns the chain entries in ascending maturity order.
func (b *Builder) Build(p BuildParams) (models.ChainEntries, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("Builder.Build: %w", err)
	}

	field, err := b.referenceField(p)
	if err != nil {
		return nil, fmt.Errorf("Builder.Build: %w", err)
	}

	rows, err := b.table.Load(p.Stem, p.TradeOnly)
	if err != nil {
		return nil, fmt.Errorf("Builder.Build: %w", err)
	}

	floor := structureFloor
	if p.Kind == instrument.Outright {
		floor = outrightFloor
	}

	date := utils.Day(p.Date)
	limit := p.ActiveCount * p.LegGap
	active := 0

	var entries models.ChainEntries

rows:
	for idx, row := range rows {
		if row.CtrMth <= floor {
			continue
		}

		tickers, err := generateContracts(p.Stem, rows, idx, p.Kind, p.LegGap)
		if err != nil {
			return nil, fmt.Errorf("Builder.Build: %w", err)
		}

		for _, ticker := range tickers {
			last, err := row.Date(field)
			if err != nil {
				return nil, fmt.Errorf("Builder.Build: problem in contract-month table for %s: %v: %w", ticker, err, ErrChain)
			}

			switch {
			case p.Status.isActive():
				end := last
				if p.Status == ActivePlus {
					end = utils.AddBusinessDays(last, activePlusExtraDays)
				}

				if date.After(end) || active >= limit {
					continue
				}

				// entries already past their last day do not count
				if !last.Before(date) {
					active++
				}
			case p.Status == Expired:
				if !last.Before(date) {
					break rows
				}
			}

			entries = append(entries, models.ChainEntry{Ticker: ticker, LastDate: last})
		}
	}

	return entries, nil
}

func (b *Builder) referenceField(p BuildParams) (string, error) {
	if p.DownloadMode {
		return "LTD", nil
	}

	m, err := b.markets.Market(p.Stem)
	if err != nil {
		return "", err
	}

	switch m.Reference {
	case "LTD", "FND":
		return m.Reference, nil
	case "":
		log.WithField("stem", p.Stem).Warn("no reference field in database, using LTD")
		return "LTD", nil
	default:
		return "", fmt.Errorf("unknown reference field %q for %s: %w", m.Reference, p.Stem, ErrChain)
	}
}

// generateContracts returns the tickers whose front leg is rows[idx]. A
// multi-leg kind pairs the row with each of the next legGap rows while enough
// rows remain for all of its legs.
func generateContracts(stem string, rows []models.ContractMonth, idx int, kind instrument.Kind, legGap int) ([]string, error) {
	ctrMth := rows[idx].CtrMth
	if kind == instrument.Outright {
		ticker, err := instrument.CreateContract(stem, ctrMth, kind, 0)
		if err != nil {
			return nil, err
		}

		return []string{ticker}, nil
	}

	var tickers []string
	for j := 0; j < legGap; j++ {
		if idx+j+instrument.LegCount(kind)-1 >= len(rows) {
			break
		}

		ticker, err := instrument.CreateContract(stem, ctrMth, kind, rows[idx+j+1].CtrMth)
		if err != nil {
			return nil, err
		}

		tickers = append(tickers, ticker)
	}

	return tickers, nil
}

// FilterEntries keeps a subset of entries. A positive count keeps the first
// entries, a negative count the last ones and a single letter the entries
// whose front month has that letter. Invalid filters are logged and ignored.
func FilterEntries(entries models.ChainEntries, filter string) models.ChainEntries {
	if filter == "" {
		return entries
	}

	if n, err := strconv.Atoi(filter); err == nil {
		if abs(n) > len(entries) {
			log.Errorf("number of contracts %d too high for %d entries, filter ignored", n, len(entries))
			return entries
		}

		switch {
		case n > 0:
			return entries[:n]
		case n < 0:
			return entries[len(entries)+n:]
		default:
			return entries
		}
	}

	if len(filter) == 1 && unicode.IsLetter(rune(filter[0])) {
		var out models.ChainEntries
		for _, e := range entries {
			s, err := instrument.Decode(e.Ticker)
			if err == nil && s.Front().Letter == filter {
				out = append(out, e)
			}
		}

		if len(out) == 0 {
			log.Errorf("filter ignored, check that the letter %s is valid", filter)
			return entries
		}

		return out
	}

	log.Errorf("filter %q not defined and ignored", filter)
	return entries
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
