package interfaces

import (
	"context"

	"capsyhub/pkg/types"
)

// AccountDirectory is the external user directory the broker consults when a
// connection binds. The broker treats accounts as read-only.
type AccountDirectory interface {
	// Lookup resolves an account by id. Returns ErrAccountNotFound for an
	// unknown id.
	Lookup(ctx context.Context, userID string) (*types.Account, error)

	// HealthCheck verifies the directory is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the directory's resources.
	Close() error
}

// ContentCatalog resolves localized notification content by reason code.
type ContentCatalog interface {
	// Localize returns the title/body for reason in the given locale,
	// falling back to the catalog's default locale when the requested
	// locale is unsupported.
	Localize(reason, locale string) (types.LocalizedContent, error)
}
