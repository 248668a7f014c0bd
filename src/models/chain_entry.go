package models

import "time"

// ChainEntry is one structure of a chain with its relevant last day.
type ChainEntry struct {
	Ticker   string
	LastDate time.Time
}

type ChainEntries []ChainEntry

func (e ChainEntries) Tickers() []string {
	out := make([]string, len(e))
	for i, entry := range e {
		out[i] = entry.Ticker
	}

	return out
}

func (e ChainEntries) Index(ticker string) int {
	for i, entry := range e {
		if entry.Ticker == ticker {
			return i
		}
	}

	return -1
}
