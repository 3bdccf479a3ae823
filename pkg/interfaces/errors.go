package interfaces

import "errors"

// Common collaborator errors shared across components.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUnknownReason   = errors.New("unknown notification reason")
)
