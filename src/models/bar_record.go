package models

import "time"

// BarRecord is a daily bar row in the daily_bars table. Symbol is the
// series name, Daily-<stem>-<kind>-<ticker>.
type BarRecord struct {
	ID     uint      `gorm:"primaryKey"`
	Symbol string    `gorm:"column:symbol;type:text;not null;uniqueIndex:idx_symbol_date"`
	Date   time.Time `gorm:"column:date;type:date;not null;uniqueIndex:idx_symbol_date"`
	Open   float64   `gorm:"column:open;type:numeric;not null"`
	High   float64   `gorm:"column:high;type:numeric;not null"`
	Low    float64   `gorm:"column:low;type:numeric;not null"`
	Close  float64   `gorm:"column:close;type:numeric;not null"`
	Volume int64     `gorm:"column:volume;not null"`
	OI     int64     `gorm:"column:oi;not null"`
}

func (BarRecord) TableName() string {
	return "daily_bars"
}

func (r BarRecord) ToModel() Bar {
	return NewBar(r.Date.UTC(), r.Open, r.High, r.Low, r.Close, r.Volume, r.OI)
}

func NewBarRecord(symbol string, b Bar) BarRecord {
	return BarRecord{
		Symbol: symbol,
		Date:   b.Date,
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: b.Volume,
		OI:     b.OI,
	}
}
