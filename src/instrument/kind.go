package instrument

import "fmt"

// Kind is the structure type of a customized ticker.
type Kind string

const (
	Outright        Kind = "Outright"
	Spread          Kind = "Spread"
	Butterfly       Kind = "Butterfly"
	Condor          Kind = "Condor"
	DoubleButterfly Kind = "DoubleButterfly"
	FlyOfFly        Kind = "FlyOfFly"
)

var Kinds = []Kind{Outright, Spread, Butterfly, Condor, DoubleButterfly, FlyOfFly}

type kindDefinition struct {
	letter     string
	maturities int
	legs       int
}

// Leg counts are execution conventions and are not derived from the weights.
var kindDefinitions = map[Kind]kindDefinition{
	Outright:        {letter: "", maturities: 1, legs: 1},
	Spread:          {letter: "S", maturities: 2, legs: 2},
	Butterfly:       {letter: "B", maturities: 3, legs: 4},
	Condor:          {letter: "C", maturities: 4, legs: 4},
	DoubleButterfly: {letter: "D", maturities: 4, legs: 8},
	FlyOfFly:        {letter: "F", maturities: 5, legs: 16},
}

func (k Kind) Validate() error {
	if _, ok := kindDefinitions[k]; !ok {
		return fmt.Errorf("Kind.Validate: unknown structure %q: %w", string(k), ErrFormat)
	}

	return nil
}

func (k Kind) String() string {
	return string(k)
}

// Letter is the type letter written after the stem; empty for outrights.
func (k Kind) Letter() string {
	return kindDefinitions[k].letter
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if err := k.Validate(); err != nil {
		return "", err
	}

	return k, nil
}

func KindFromLetter(letter string) (Kind, error) {
	for _, k := range Kinds {
		if k != Outright && kindDefinitions[k].letter == letter {
			return k, nil
		}
	}

	return "", fmt.Errorf("KindFromLetter: unknown type letter %q: %w", letter, ErrFormat)
}

// LegCount is the nominal number of execution legs: 1/2/4/4/8/16.
func LegCount(k Kind) int {
	return kindDefinitions[k].legs
}

// DistinctMaturities is the number of contract months in the structure.
func DistinctMaturities(k Kind) int {
	return kindDefinitions[k].maturities
}

// WeightTable maps each kind to its signed leg weights.
type WeightTable map[Kind][]int

// DefaultWeightTable keeps the historical FlyOfFly weights, which reuse the
// double butterfly pattern.
func DefaultWeightTable() WeightTable {
	return WeightTable{
		Outright:        {1},
		Spread:          {1, -1},
		Butterfly:       {1, -2, 1},
		Condor:          {1, -1, -1, 1},
		DoubleButterfly: {1, -3, 3, -1},
		FlyOfFly:        {1, -3, 3, -1},
	}
}

func (w WeightTable) For(k Kind) ([]int, error) {
	weights, ok := w[k]
	if !ok {
		return nil, fmt.Errorf("WeightTable.For: no weights for %q: %w", string(k), ErrFormat)
	}

	out := make([]int, len(weights))
	copy(out, weights)
	return out, nil
}

func LegWeights(k Kind) ([]int, error) {
	return DefaultWeightTable().For(k)
}
