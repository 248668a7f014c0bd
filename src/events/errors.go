package events

import "errors"

// ErrEvent is returned for unknown event rules or dates outside the calendar.
var ErrEvent = errors.New("event error")
