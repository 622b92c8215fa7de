package gamma

import "errors"

var (
	ErrInvalidParams = errors.New("invalid engine parameters")
	ErrInvalidSpot   = errors.New("spot price must be finite and positive")
)
