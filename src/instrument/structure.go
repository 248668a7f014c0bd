package instrument

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const stemLength = 2

// Structure is a decoded customized ticker.
type Structure struct {
	Stem       string
	Kind       Kind
	Spacing    int
	Maturities []Maturity
}

// Front is the first contract month of the structure.
func (s Structure) Front() Maturity {
	return s.Maturities[0]
}

func (s Structure) Ticker() string {
	if s.Kind == Outright {
		return s.Stem + s.Front().String()
	}

	return fmt.Sprintf("%s%s%d%s", s.Stem, s.Kind.Letter(), s.Spacing, s.Front())
}

// Encode builds a customized ticker: <stem><front> for outrights and
// <stem><type letter><spacing><front> otherwise.
func Encode(stem string, kind Kind, front string, spacing int) (string, error) {
	if len(stem) != stemLength {
		return "", fmt.Errorf("Encode: stem %q must have %d characters: %w", stem, stemLength, ErrFormat)
	}

	if err := kind.Validate(); err != nil {
		return "", fmt.Errorf("Encode: %w", err)
	}

	m, err := ParseMaturity(front)
	if err != nil {
		return "", fmt.Errorf("Encode: %w", err)
	}

	if kind != Outright && spacing <= 0 {
		return "", fmt.Errorf("Encode: spacing %d must be positive: %w", spacing, ErrFormat)
	}

	return Structure{Stem: stem, Kind: kind, Spacing: spacing, Maturities: []Maturity{m}}.Ticker(), nil
}

// Decode reads a customized ticker relative to the current date.
func Decode(ticker string) (Structure, error) {
	return DecodeAt(ticker, time.Now())
}

// DecodeAt reads a customized ticker, resolving a one-digit year against now.
func DecodeAt(ticker string, now time.Time) (Structure, error) {
	t, err := NormalizeTicker(ticker, now)
	if err != nil {
		return Structure{}, fmt.Errorf("Decode: %w", err)
	}

	if len(t) < stemLength+3 {
		return Structure{}, fmt.Errorf("Decode: %q: too short: %w", ticker, ErrFormat)
	}

	if !isStem(t[:stemLength]) {
		return Structure{}, fmt.Errorf("Decode: %q: stem %q must be letters or '_': %w", ticker, t[:stemLength], ErrFormat)
	}

	front, err := ParseMaturity(t[len(t)-3:])
	if err != nil {
		return Structure{}, fmt.Errorf("Decode: %w", err)
	}

	s := Structure{Stem: t[:stemLength], Kind: Outright}
	if len(t) == stemLength+3 {
		s.Maturities = []Maturity{front}
		return s, nil
	}

	if s.Kind, err = KindFromLetter(t[stemLength : stemLength+1]); err != nil {
		return Structure{}, fmt.Errorf("Decode: %q: %w", ticker, err)
	}

	spacing := t[stemLength+1 : len(t)-3]
	if !isDigits(spacing) {
		return Structure{}, fmt.Errorf("Decode: %q: spacing %q is not numeric: %w", ticker, spacing, ErrFormat)
	}

	s.Spacing, _ = strconv.Atoi(spacing)
	if s.Spacing <= 0 {
		return Structure{}, fmt.Errorf("Decode: %q: spacing must be positive: %w", ticker, ErrFormat)
	}

	s.Maturities = make([]Maturity, DistinctMaturities(s.Kind))
	s.Maturities[0] = front
	for i := 1; i < len(s.Maturities); i++ {
		s.Maturities[i] = s.Maturities[i-1].Next(s.Spacing)
	}

	return s, nil
}

// CreateContract builds the ticker for a contract-month row. next is the
// following row's CtrMth and sets the spacing; it is ignored for outrights.
func CreateContract(stem string, ctrMth int, kind Kind, next int) (string, error) {
	front, err := MaturityFromKey(ctrMth)
	if err != nil {
		return "", fmt.Errorf("CreateContract: %w", err)
	}

	if kind == Outright {
		return Encode(stem, kind, front.String(), 0)
	}

	spacing, err := MonthsBetween(ctrMth, next)
	if err != nil {
		return "", fmt.Errorf("CreateContract: %w", err)
	}

	return Encode(stem, kind, front.String(), spacing)
}

// Lots is the number of execution legs of a ticker.
func Lots(ticker string) (int, error) {
	s, err := Decode(ticker)
	if err != nil {
		return 0, fmt.Errorf("Lots: %w", err)
	}

	return LegCount(s.Kind), nil
}

// ToConstantContract renames a short-form ticker by its position in the
// list of short maturities, e.g. EDS3H8 with [U7 Z7 H8] gives ED3S3.
func ToConstantContract(ticker string, maturities []string) (string, error) {
	if len(ticker) < stemLength+2 {
		return "", fmt.Errorf("ToConstantContract: %q: too short: %w", ticker, ErrFormat)
	}

	short := ticker[len(ticker)-2:]
	number := -1
	for i, m := range maturities {
		if m == short {
			number = i + 1
			break
		}
	}

	if number < 0 {
		return "", fmt.Errorf("ToConstantContract: maturity %s not in %s: %w", short, strings.Join(maturities, ","), ErrFormat)
	}

	s, err := Decode(ticker)
	if err != nil {
		return "", fmt.Errorf("ToConstantContract: %w", err)
	}

	if s.Kind == Outright {
		return "", fmt.Errorf("ToConstantContract: %q has no spacing: %w", ticker, ErrUnsupported)
	}

	return fmt.Sprintf("%s%d%s%d", s.Stem, number, s.Kind.Letter(), s.Spacing), nil
}

func isStem(s string) bool {
	for _, r := range s {
		if r != '_' && (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}

	return true
}
