package session

import "errors"

// Session and timer table error types.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionDestroyed = errors.New("session has been destroyed")
	ErrInvalidConnKind  = errors.New("invalid connection kind: must be 'mobile' or 'device'")
	ErrInvalidTimerKind = errors.New("invalid timer kind: must be 'interval' or 'timeout'")
	ErrTimerNotFound    = errors.New("timer not found")
	ErrTimerTableFull   = errors.New("timer table full")
)
