package order

import "errors"

var (
	ErrUnknownEvent = errors.New("unknown order event type")
	ErrInvalidEvent = errors.New("invalid order event payload")
	ErrMissingID    = errors.New("order event without an id")
)
