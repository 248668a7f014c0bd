package models

import (
	"fmt"
	"time"

	"github.com/mickeykoko321/omega/src/utils"
)

// Session is one trading day of an exchange calendar.
type Session struct {
	Date        time.Time
	MarketOpen  time.Time
	MarketClose time.Time
}

// SessionDTO is a row of a calendar export: Date,MarketOpen,MarketClose.
type SessionDTO struct {
	Date        string `csv:"Date"`
	MarketOpen  string `csv:"MarketOpen"`
	MarketClose string `csv:"MarketClose"`
}

const sessionTimeLayout = "2006-01-02 15:04:05-07:00"

func (dto SessionDTO) ToModel() (Session, error) {
	d, err := utils.ParseDate(dto.Date)
	if err != nil {
		return Session{}, fmt.Errorf("SessionDTO.ToModel: %w", err)
	}

	s := Session{Date: d}
	if dto.MarketOpen != "" {
		if s.MarketOpen, err = time.Parse(sessionTimeLayout, dto.MarketOpen); err != nil {
			return Session{}, fmt.Errorf("SessionDTO.ToModel: market open: %w", err)
		}
	}

	if dto.MarketClose != "" {
		if s.MarketClose, err = time.Parse(sessionTimeLayout, dto.MarketClose); err != nil {
			return Session{}, fmt.Errorf("SessionDTO.ToModel: market close: %w", err)
		}
	}

	return s, nil
}
