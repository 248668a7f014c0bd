package chain

import "fmt"

// Status selects which contracts of a market make it into a chain.
type Status string

const (
	Active     Status = "Active"
	ActiveLive Status = "ActiveLive"
	ActivePlus Status = "ActivePlus"
	All        Status = "All"
	Expired    Status = "Expired"
)

var Statuses = []Status{Active, ActiveLive, ActivePlus, All, Expired}

func (s Status) Validate() error {
	switch s {
	case Active, ActiveLive, ActivePlus, All, Expired:
		return nil
	default:
		return fmt.Errorf("invalid status: %q: %w", string(s), ErrChain)
	}
}

func (s Status) String() string {
	return string(s)
}

func (s Status) isActive() bool {
	return s == Active || s == ActiveLive || s == ActivePlus
}

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if err := status.Validate(); err != nil {
		return "", fmt.Errorf("ParseStatus: %w", err)
	}

	return status, nil
}
