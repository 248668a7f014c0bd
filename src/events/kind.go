package events

import "fmt"

type Kind string

const (
	GoldmanRoll Kind = "GoldmanRoll"
	LastDay     Kind = "LastDay"
	SpotLimit   Kind = "SpotLimit"
)

var Kinds = []Kind{GoldmanRoll, LastDay, SpotLimit}

func (k Kind) Validate() error {
	switch k {
	case GoldmanRoll, LastDay, SpotLimit:
		return nil
	default:
		return fmt.Errorf("invalid event kind: %q: %w", string(k), ErrEvent)
	}
}

func (k Kind) String() string {
	return string(k)
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if err := k.Validate(); err != nil {
		return "", fmt.Errorf("ParseKind: %w", err)
	}

	return k, nil
}

// SpotRule is the exchange wording of a market's spot-month limit. N is the
// market's Rule parameter.
type SpotRule string

const (
	FirstBusinessDay     SpotRule = "Close of trading on the first business day of the contract month"
	LastTradingDays      SpotRule = "During the last x trading days of the contract"
	AfterOptionExpiry    SpotRule = "x Business Day following the expiration of the regular option contract traded on the expiring futures contract"
	BeforeLastTradingDay SpotRule = "Close of trading x business days prior to last trading day of the contract"
	BeforeFirstNotice    SpotRule = "Close of trading on the business day prior to the first notice day of the delivery month"
	BeforeDeliveryMonth  SpotRule = "Close of trading x business days prior to the first trading day of the delivery month"
	OnFirstNotice        SpotRule = "On and after First Notice Day"
)

var SpotRules = []SpotRule{
	FirstBusinessDay,
	LastTradingDays,
	AfterOptionExpiry,
	BeforeLastTradingDay,
	BeforeFirstNotice,
	BeforeDeliveryMonth,
	OnFirstNotice,
}

func (r SpotRule) Validate() error {
	for _, known := range SpotRules {
		if r == known {
			return nil
		}
	}

	return fmt.Errorf("spot limit function not defined for %q: %w", string(r), ErrEvent)
}

// NeedsParameter reports whether the rule reads the market's Rule value.
func (r SpotRule) NeedsParameter() bool {
	return r != FirstBusinessDay && r != OnFirstNotice
}

func ParseSpotRule(s string) (SpotRule, error) {
	if s == "" {
		return "", fmt.Errorf("ParseSpotRule: spot limit not defined in market database: %w", ErrEvent)
	}

	r := SpotRule(s)
	if err := r.Validate(); err != nil {
		return "", fmt.Errorf("ParseSpotRule: %w", err)
	}

	return r, nil
}
