package client

import "errors"

var (
	ErrBadRequest  = errors.New("request rejected by server")
	ErrRateLimited = errors.New("rate limited by server")
)
