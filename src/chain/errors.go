package chain

import "errors"

// ErrChain is returned when a chain cannot be built or queried.
var ErrChain = errors.New("chain error")
