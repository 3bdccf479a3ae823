package directory

import (
	"context"
	"sync"

	"capsyhub/pkg/interfaces"
	"capsyhub/pkg/types"
)

// MemoryDirectory is an in-memory account store, used in tests and local
// development without a provisioned database.
type MemoryDirectory struct {
	mu       sync.RWMutex
	accounts map[string]types.Account
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{accounts: make(map[string]types.Account)}
}

// Lookup resolves an account by id.
func (m *MemoryDirectory) Lookup(_ context.Context, userID string) (*types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[userID]
	if !ok {
		return nil, interfaces.ErrAccountNotFound
	}
	return &account, nil
}

// UpsertAccount inserts or replaces an account.
func (m *MemoryDirectory) UpsertAccount(_ context.Context, account *types.Account) error {
	if account == nil || !types.IsValidUserID(account.UserID) || account.Role == "" || account.Locale == "" {
		return ErrInvalidAccount
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.UserID] = *account
	return nil
}

// HealthCheck always succeeds for the in-memory store.
func (m *MemoryDirectory) HealthCheck(context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryDirectory) Close() error {
	return nil
}
