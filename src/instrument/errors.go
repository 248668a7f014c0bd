package instrument

import "errors"

var (
	// ErrFormat is returned for malformed tickers, maturities and keys.
	ErrFormat = errors.New("malformed ticker or maturity")
	// ErrUnsupported is returned when a provider cannot render a structure.
	ErrUnsupported = errors.New("unsupported provider and structure combination")
)
