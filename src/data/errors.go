package data

import "errors"

var (
	// ErrData is returned when a contract-month table is missing, empty or
	// inconsistent.
	ErrData = errors.New("contract-month data error")
	// ErrNotFound is returned by price stores when a ticker has no series.
	ErrNotFound = errors.New("price series not found")
)
