package directory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"capsyhub/pkg/interfaces"
	"capsyhub/pkg/types"
)

func newTestSQLite(t *testing.T) *SQLiteDirectory {
	t.Helper()

	dir, err := NewSQLiteDirectory(filepath.Join(t.TempDir(), "accounts.db"))
	if err != nil {
		t.Fatalf("failed to open test directory: %v", err)
	}
	t.Cleanup(func() { _ = dir.Close() })
	return dir
}

func TestSQLiteDirectory_UpsertAndLookup(t *testing.T) {
	dir := newTestSQLite(t)
	ctx := context.Background()

	account := &types.Account{UserID: "user-1", Role: "patient", Locale: "en", PushEnabled: true}
	if err := dir.UpsertAccount(ctx, account); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := dir.Lookup(ctx, "user-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.UserID != "user-1" || got.Role != "patient" || got.Locale != "en" || !got.PushEnabled {
		t.Errorf("unexpected account %+v", got)
	}
}

func TestSQLiteDirectory_UpsertReplaces(t *testing.T) {
	dir := newTestSQLite(t)
	ctx := context.Background()

	first := &types.Account{UserID: "user-1", Role: "patient", Locale: "en", PushEnabled: true}
	if err := dir.UpsertAccount(ctx, first); err != nil {
		t.Fatalf("initial upsert failed: %v", err)
	}

	second := &types.Account{UserID: "user-1", Role: "caregiver", Locale: "es", PushEnabled: false}
	if err := dir.UpsertAccount(ctx, second); err != nil {
		t.Fatalf("replacing upsert failed: %v", err)
	}

	got, err := dir.Lookup(ctx, "user-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.Role != "caregiver" || got.Locale != "es" || got.PushEnabled {
		t.Errorf("upsert did not replace fields: %+v", got)
	}
}

func TestSQLiteDirectory_LookupUnknown(t *testing.T) {
	dir := newTestSQLite(t)

	_, err := dir.Lookup(context.Background(), "nobody")
	if !errors.Is(err, interfaces.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestSQLiteDirectory_RejectsInvalidAccounts(t *testing.T) {
	dir := newTestSQLite(t)
	ctx := context.Background()

	invalid := []*types.Account{
		nil,
		{UserID: "", Role: "patient", Locale: "en"},
		{UserID: "has spaces", Role: "patient", Locale: "en"},
		{UserID: "user-1", Role: "", Locale: "en"},
		{UserID: "user-1", Role: "patient", Locale: ""},
	}
	for i, account := range invalid {
		if err := dir.UpsertAccount(ctx, account); !errors.Is(err, ErrInvalidAccount) {
			t.Errorf("case %d: expected ErrInvalidAccount, got %v", i, err)
		}
	}
}

func TestSQLiteDirectory_HealthCheck(t *testing.T) {
	dir := newTestSQLite(t)
	if err := dir.HealthCheck(context.Background()); err != nil {
		t.Errorf("health check failed: %v", err)
	}
}

func TestSQLiteDirectory_CloseRejectsWrites(t *testing.T) {
	dir := newTestSQLite(t)
	if err := dir.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := dir.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}

	account := &types.Account{UserID: "user-1", Role: "patient", Locale: "en"}
	if err := dir.UpsertAccount(context.Background(), account); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}
}

func TestMemoryDirectory_RoundTrip(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()

	if _, err := dir.Lookup(ctx, "user-1"); !errors.Is(err, interfaces.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound on empty store, got %v", err)
	}

	account := &types.Account{UserID: "user-1", Role: "patient", Locale: "en", PushEnabled: true}
	if err := dir.UpsertAccount(ctx, account); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := dir.Lookup(ctx, "user-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.UserID != "user-1" || !got.PushEnabled {
		t.Errorf("unexpected account %+v", got)
	}

	// The returned account is a copy.
	got.Locale = "fr"
	again, _ := dir.Lookup(ctx, "user-1")
	if again.Locale != "en" {
		t.Error("lookup should return a copy, not shared state")
	}
}
