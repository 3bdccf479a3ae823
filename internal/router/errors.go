package router

import "errors"

// Router-specific error types. All of them are answered on the offending
// connection as an error frame; none tear the connection down.
var (
	ErrNotBound          = errors.New("connection must send init before other frames")
	ErrRateLimitExceeded = errors.New("frame rate limit exceeded")
	ErrTooManyTimers     = errors.New("too many pending timers for this session")
	ErrCapsyFromMobile   = errors.New("capsy frames are not accepted on mobile connections")
)
