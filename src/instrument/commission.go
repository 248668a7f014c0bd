package instrument

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/mickeykoko321/omega/src/config"
	"github.com/mickeykoko321/omega/src/utils"
)

// Commission is the cost of trading qty units of ticker on date:
// (Lot * legs + Fill) * qty, from the schedule effective on that date.
// Missing schedules are logged and cost zero.
func Commission(markets *config.MarketDatabase, account, ticker string, qty int, date time.Time) decimal.Decimal {
	s, err := Decode(ticker)
	if err != nil {
		log.Errorf("Commission: %v", err)
		return decimal.Zero
	}

	rate, err := effectiveRate(markets, s.Stem, account, date)
	if err != nil {
		log.Errorf("Commission: %v", err)
		return decimal.Zero
	}

	legs := decimal.NewFromInt(int64(LegCount(s.Kind)))
	return rate.Lot.Mul(legs).Add(rate.Fill).Mul(decimal.NewFromInt(int64(qty)))
}

// RawCommission is the per-lot cost, Lot + Fill, for a market.
func RawCommission(markets *config.MarketDatabase, stem string, date time.Time, account string) decimal.Decimal {
	if account == "" {
		account = config.DefaultAccount
	}

	rate, err := effectiveRate(markets, stem, account, date)
	if err != nil {
		log.Errorf("RawCommission: %v", err)
		return decimal.Zero
	}

	return rate.Lot.Add(rate.Fill)
}

// effectiveRate picks the schedule entry with the latest effective date on
// or before date.
func effectiveRate(markets *config.MarketDatabase, stem, account string, date time.Time) (config.CommissionRate, error) {
	m, err := markets.Market(stem)
	if err != nil {
		return config.CommissionRate{}, err
	}

	schedule, ok := m.Comms[account]
	if !ok {
		return config.CommissionRate{}, fmt.Errorf("commissions for account %s not defined for %s", account, stem)
	}

	var (
		best     config.CommissionRate
		bestDate time.Time
		found    bool
	)
	for k, rate := range schedule {
		effective, err := utils.ParseDate(k)
		if err != nil {
			log.Warnf("effectiveRate: %s %s: %v", stem, account, err)
			continue
		}

		if effective.After(date) {
			continue
		}

		if !found || effective.After(bestDate) {
			best, bestDate, found = rate, effective, true
		}
	}

	if !found {
		return config.CommissionRate{}, fmt.Errorf("no commission schedule effective on %s for %s", utils.FormatDate(date), stem)
	}

	return best, nil
}
