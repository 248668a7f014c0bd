package data

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"gorm.io/gorm"

	"github.com/mickeykoko321/omega/src/models"
)

// BreakerSettings tunes the circuit breaker around database calls.
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

func newBreaker(name string, settings BreakerSettings) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		// a missing series is an answer, not a database failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("circuit breaker %s state changed from %s to %s", name, from, to)
		},
	})
}

func execute[T any](breaker *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	res, err := breaker.Execute(func() (interface{}, error) { return fn() })
	if err != nil {
		return zero, err
	}

	v, ok := res.(T)
	if !ok {
		return zero, errors.New("circuit breaker: type assertion failed")
	}

	return v, nil
}

// DatabasePriceStore keeps daily bars in Postgres, keyed by series name.
type DatabasePriceStore struct {
	db      *gorm.DB
	breaker *gobreaker.CircuitBreaker
}

func NewDatabasePriceStore(db *gorm.DB) *DatabasePriceStore {
	return NewDatabasePriceStoreWithSettings(db, DefaultBreakerSettings())
}

func NewDatabasePriceStoreWithSettings(db *gorm.DB, settings BreakerSettings) *DatabasePriceStore {
	return &DatabasePriceStore{
		db:      db,
		breaker: newBreaker("PriceDatabase", settings),
	}
}

func (s *DatabasePriceStore) Load(ticker string) (models.Series, error) {
	name, err := SeriesName(ticker)
	if err != nil {
		return nil, err
	}

	series, err := execute(s.breaker, func() (models.Series, error) {
		var records []models.BarRecord
		if err := s.db.Where("symbol = ?", name).Order("date").Find(&records).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch bars: %w", err)
		}

		if len(records) == 0 {
			return nil, ErrNotFound
		}

		out := make(models.Series, len(records))
		for i, r := range records {
			out[i] = r.ToModel()
		}

		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("DatabasePriceStore.Load: %s: %w", ticker, err)
	}

	return series.Weekdays(), nil
}

// Save replaces the stored bars from the first new date onwards in one
// transaction.
func (s *DatabasePriceStore) Save(ticker string, series models.Series) error {
	first, ok := series.First()
	if !ok {
		return nil
	}

	name, err := SeriesName(ticker)
	if err != nil {
		return err
	}

	_, err = execute(s.breaker, func() (bool, error) {
		return true, saveBarRecordsTx(s.db, name, first.Date, series)
	})
	if err != nil {
		return fmt.Errorf("DatabasePriceStore.Save: %s: %w", ticker, err)
	}

	return nil
}

func saveBarRecordsTx(_db *gorm.DB, name string, from time.Time, series models.Series) error {
	return _db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("symbol = ? AND date >= ?", name, from).Delete(&models.BarRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete bar records: %w", err)
		}

		records := make([]models.BarRecord, len(series))
		for i, b := range series {
			records[i] = models.NewBarRecord(name, b)
		}

		if err := tx.CreateInBatches(&records, 500).Error; err != nil {
			return fmt.Errorf("failed to create bar records: %w", err)
		}

		return nil
	})
}
