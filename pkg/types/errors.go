package types

import "errors"

// Frame validation errors. These map to the ProtocolViolation taxonomy:
// answered with an error frame, connection stays open.
var (
	ErrInvalidUserID    = errors.New("userId must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidFrameType = errors.New("invalid frame type")
	ErrInvalidTestKind  = errors.New("testing must be one of: notification, ping, waitForCapsy")
	ErrEmptyTestData    = errors.New("test data map cannot be empty")
	ErrInvalidTimerID   = errors.New("timer id must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidTimerKind = errors.New("timer type must be 'interval' or 'timeout'")
	ErrInvalidTimeout   = errors.New("timer timeout must be a positive number of milliseconds")
	ErrTimerIDMismatch  = errors.New("timer entry id must match its data map key")
	ErrMissingSettings  = errors.New("capsy frame requires a settings payload")
	ErrMalformedFrame   = errors.New("malformed frame: not a JSON object with a type field")
)
