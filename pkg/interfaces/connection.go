package interfaces

// Connection is the broker's view of one attached transport. Implementations
// must make WriteJSON safe for concurrent callers (single-writer pattern) and
// Close idempotent.
type Connection interface {
	// ID returns the broker-assigned connection identifier. Used to tell a
	// stale handle apart from its replacement during detach.
	ID() string

	// Kind returns the connection kind: types.ConnKindMobile or
	// types.ConnKindDevice. Fixed at accept time by the listening endpoint.
	Kind() string

	// WriteJSON sends one outbound frame. Best effort: a write error means
	// the transport is going away and the normal detach path will follow.
	WriteJSON(v interface{}) error

	// Close signals the peer and releases transport resources.
	Close() error

	// UserID returns the bound account id, or "" while Unbound.
	UserID() string

	// Bind records the account id after a successful init.
	Bind(userID string)
}
