package directory

import "errors"

// Directory error types.
var (
	ErrClosed         = errors.New("directory is closed")
	ErrInvalidAccount = errors.New("account requires a valid userId, role and locale")
)
