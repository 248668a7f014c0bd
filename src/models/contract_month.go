package models

import (
	"fmt"
	"time"

	"github.com/mickeykoko321/omega/src/utils"
)

const (
	WeTrade      = -1
	WeDoNotTrade = 0
)

// ContractMonth is one row of a market's contract-month table. Letter is
// derived from CtrMth on load and never written back.
type ContractMonth struct {
	CtrMth   int    `csv:"CtrMth"`
	WeTrd    int    `csv:"WeTrd"`
	LTD      string `csv:"LTD"`
	FND      string `csv:"FND"`
	PosFstDt string `csv:"PosFstDt"`
	PosLstDt string `csv:"PosLstDt"`
	Letter   string `csv:"-"`
}

func (c ContractMonth) Traded() bool {
	return c.WeTrd == WeTrade
}

// YearMonth drops the day part of CtrMth.
func (c ContractMonth) YearMonth() int {
	return c.CtrMth / 100
}

// Field returns the raw value of a date column (LTD, FND, PosFstDt, PosLstDt).
func (c ContractMonth) Field(name string) (string, error) {
	switch name {
	case "LTD":
		return c.LTD, nil
	case "FND":
		return c.FND, nil
	case "PosFstDt":
		return c.PosFstDt, nil
	case "PosLstDt":
		return c.PosLstDt, nil
	default:
		return "", fmt.Errorf("ContractMonth.Field: %q: %w", name, ErrUnknownField)
	}
}

// Date parses a date column.
func (c ContractMonth) Date(name string) (time.Time, error) {
	v, err := c.Field(name)
	if err != nil {
		return time.Time{}, err
	}

	d, err := utils.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("ContractMonth.Date: %d %s: %w", c.CtrMth, name, err)
	}

	return d, nil
}
