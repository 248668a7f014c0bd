package instrument

import (
	"fmt"
	"strings"
)

// Provider is a market-data vendor with its own symbology.
type Provider string

const (
	Bloomberg Provider = "Bloomberg"
	Reuters   Provider = "Reuters"
	T4        Provider = "T4"
	CMED      Provider = "CMED"
	IQFeed    Provider = "IQFeed"
)

var Providers = []Provider{Bloomberg, Reuters, T4, CMED, IQFeed}

func (p Provider) Validate() error {
	for _, known := range Providers {
		if p == known {
			return nil
		}
	}

	return fmt.Errorf("Provider.Validate: unknown provider %q: %w", string(p), ErrUnsupported)
}

func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	if err := p.Validate(); err != nil {
		return "", err
	}

	return p, nil
}

// MarketLookup supplies the market metadata provider rendering depends on.
type MarketLookup interface {
	ProviderStem(stem string, provider Provider) (string, error)
	IsActive(stem string, yyyymm int) (bool, error)
}

type renderFunc func(markets MarketLookup, stem string, ms []Maturity) (string, error)

type renderer struct {
	outright  renderFunc
	spread    renderFunc
	butterfly renderFunc
	doubleFly renderFunc
}

var renderers = map[Provider]renderer{
	Bloomberg: {
		outright: func(_ MarketLookup, stem string, ms []Maturity) (string, error) {
			return fmt.Sprintf("%s%s Comdty", stem, ms[0].Short()), nil
		},
		spread: func(_ MarketLookup, stem string, ms []Maturity) (string, error) {
			return fmt.Sprintf("%s%s%s%s Comdty", stem, ms[0].Short(), stem, ms[1].Short()), nil
		},
		butterfly: func(_ MarketLookup, stem string, ms []Maturity) (string, error) {
			return fmt.Sprintf("B%s%s%s Comdty", stem, ms[0].Short(), ms[2].Short()), nil
		},
		doubleFly: func(_ MarketLookup, stem string, ms []Maturity) (string, error) {
			return fmt.Sprintf("D%s%s%s Comdty", stem, ms[0].Short(), ms[3].Short()), nil
		},
	},
	Reuters: {
		outright:  reutersOutright,
		spread:    reutersSpread,
		butterfly: reutersButterfly,
	},
	T4: {
		outright: withStem(T4, func(ps string, ms []Maturity) string {
			return fmt.Sprintf("%s (%s)", ps, ms[0])
		}),
		spread: withStem(T4, func(ps string, ms []Maturity) string {
			return fmt.Sprintf("%s (%s)-(%s)", ps, ms[0], ms[1])
		}),
		butterfly: withStem(T4, func(ps string, ms []Maturity) string {
			return fmt.Sprintf("%s (%s)-2(%s)(%s)", ps, ms[0], ms[1], ms[2])
		}),
		doubleFly: withStem(T4, func(ps string, ms []Maturity) string {
			return fmt.Sprintf("%s (%s)-3(%s)3(%s)-(%s)", ps, ms[0], ms[1], ms[2], ms[3])
		}),
	},
	CMED: {
		outright:  withStem(CMED, cmed),
		spread:    withStem(CMED, cmed),
		butterfly: withStem(CMED, cmed),
		doubleFly: withStem(CMED, cmed),
	},
	IQFeed: {
		outright: withStem(IQFeed, func(ps string, ms []Maturity) string {
			return fmt.Sprintf("%s%s", ps, ms[0])
		}),
		spread: withStem(IQFeed, func(ps string, ms []Maturity) string {
			return fmt.Sprintf("%s%s-%s%s", ps, ms[0], ps, ms[1])
		}),
	},
}

// T4 lists these butterflies under exchange-defined instruments.
var t4ExchangeButterflies = []string{"EDB3M20", "EDB3U20", "EDB6Z19", "EDB12Z18"}

// reutersOneStems take a leading 1 on spread RICs.
var reutersOneStems = map[string]bool{
	"BO": true, "C_": true, "DC": true, "ED": true, "FC": true, "FF": true, "GC": true, "HG": true, "KW": true,
	"LB": true, "LC": true, "LH": true, "O_": true, "RR": true, "S_": true, "SI": true, "SM": true, "W_": true,
}

func withStem(p Provider, format func(ps string, ms []Maturity) string) renderFunc {
	return func(markets MarketLookup, stem string, ms []Maturity) (string, error) {
		ps, err := markets.ProviderStem(stem, p)
		if err != nil {
			return "", err
		}

		return format(ps, ms), nil
	}
}

func cmed(ps string, ms []Maturity) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = m.CMED()
	}

	return fmt.Sprintf("=CMED.C(\"%s %s\")", ps, strings.Join(parts, "/"))
}

// reutersMaturity keeps the long form from 2024 on (2018 for natural gas)
// after Reuters renamed its chains.
func reutersMaturity(stem string, m Maturity) string {
	if m.Year >= 24 || (stem == "NG" && m.Year >= 18) {
		return m.String()
	}

	return m.Short()
}

// reutersExpired appends ^<decade> to RICs of expired contracts.
func reutersExpired(markets MarketLookup, stem string, m Maturity, ric string) (string, error) {
	active, err := markets.IsActive(stem, m.Key(false))
	if err != nil {
		return "", err
	}

	if !active {
		ric = fmt.Sprintf("%s^%d", ric, m.Year/10)
	}

	return ric, nil
}

func reutersOutright(markets MarketLookup, stem string, ms []Maturity) (string, error) {
	ps, err := markets.ProviderStem(stem, Reuters)
	if err != nil {
		return "", err
	}

	return reutersExpired(markets, stem, ms[0], ps+reutersMaturity(stem, ms[0]))
}

func reutersSpread(markets MarketLookup, stem string, ms []Maturity) (string, error) {
	ps, err := markets.ProviderStem(stem, Reuters)
	if err != nil {
		return "", err
	}

	one := ""
	if reutersOneStems[stem] {
		one = "1"
	}

	rt := ""
	if stem == "SI" {
		rt = "RT"
	}

	ric := fmt.Sprintf("%s%s%s%s-%s", one, ps, rt, reutersMaturity(stem, ms[0]), reutersMaturity(stem, ms[1]))
	return reutersExpired(markets, stem, ms[0], ric)
}

func reutersButterfly(markets MarketLookup, stem string, ms []Maturity) (string, error) {
	ps, err := markets.ProviderStem(stem, Reuters)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("1%sBF%s-%s-%s", ps, ms[0].Short(), ms[1].Short(), ms[2].Short()), nil
}

// Symbology converts customized tickers into provider tickers.
type Symbology struct {
	markets MarketLookup
}

func NewSymbology(markets MarketLookup) *Symbology {
	return &Symbology{markets: markets}
}

func (s *Symbology) Convert(ticker string, provider Provider) (string, error) {
	r, ok := renderers[provider]
	if !ok {
		return "", fmt.Errorf("Convert: provider %q: %w", string(provider), ErrUnsupported)
	}

	st, err := Decode(ticker)
	if err != nil {
		return "", fmt.Errorf("Convert: %w", err)
	}

	var render renderFunc
	switch st.Kind {
	case Outright:
		render = r.outright
	case Spread:
		render = r.spread
	case Butterfly:
		if provider == T4 && isT4ExchangeButterfly(st.Ticker()) {
			ms := st.Maturities
			return fmt.Sprintf("MKT_CME_%d_GE:BF %s-%s-%s", ms[0].Key(true), ms[0].Short(), ms[1].Short(), ms[2].Short()), nil
		}
		render = r.butterfly
	case DoubleButterfly:
		render = r.doubleFly
	}

	if render == nil {
		return "", fmt.Errorf("Convert: %s for %s: %w", st.Kind, provider, ErrUnsupported)
	}

	out, err := render(s.markets, st.Stem, st.Maturities)
	if err != nil {
		return "", fmt.Errorf("Convert: %s: %w", ticker, err)
	}

	return out, nil
}

func isT4ExchangeButterfly(ticker string) bool {
	for _, t := range t4ExchangeButterflies {
		if strings.Contains(ticker, t) {
			return true
		}
	}

	return false
}
