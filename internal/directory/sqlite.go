package directory

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"capsyhub/internal/logging"
	"capsyhub/pkg/interfaces"
	"capsyhub/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    user_id      TEXT PRIMARY KEY,
    role         TEXT NOT NULL,
    locale       TEXT NOT NULL,
    push_enabled INTEGER NOT NULL DEFAULT 1
);`

// SQLiteDirectory is the primary user directory store. Lookups are
// read-heavy and run on the pooled connection; writes (account provisioning
// via ops tooling) are serialized through a single writer goroutine, which
// is what SQLite wants.
type SQLiteDirectory struct {
	db       *sql.DB
	writeCh  chan writeOp
	shutdown chan struct{}
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

type writeOp struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewSQLiteDirectory opens (creating if needed) the accounts database at
// path with the WAL/busy-timeout settings the broker's reconnect storms
// need, and ensures the schema exists.
func NewSQLiteDirectory(path string) (*SQLiteDirectory, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, logging.WrapError(err, "failed to open directory database")
	}

	db.SetMaxOpenConns(10)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, logging.WrapError(err, "failed to ensure directory schema")
	}

	d := &SQLiteDirectory{
		db:       db,
		writeCh:  make(chan writeOp, 64),
		shutdown: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.writeLoop()

	return d, nil
}

func (d *SQLiteDirectory) writeLoop() {
	defer d.wg.Done()
	for {
		select {
		case op := <-d.writeCh:
			op.result <- op.operation(d.db)
		case <-d.shutdown:
			return
		}
	}
}

func (d *SQLiteDirectory) executeWrite(ctx context.Context, operation func(*sql.DB) error) error {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return ErrClosed
	}
	d.mu.RUnlock()

	result := make(chan error, 1)
	select {
	case d.writeCh <- writeOp{operation: operation, result: result}:
		select {
		case err := <-result:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-d.shutdown:
		return ErrClosed
	}
}

// Lookup resolves an account by id.
func (d *SQLiteDirectory) Lookup(ctx context.Context, userID string) (*types.Account, error) {
	var account types.Account
	var pushEnabled int

	row := d.db.QueryRowContext(ctx,
		`SELECT user_id, role, locale, push_enabled FROM accounts WHERE user_id = ?`, userID)
	err := row.Scan(&account.UserID, &account.Role, &account.Locale, &pushEnabled)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrAccountNotFound
	}
	if err != nil {
		return nil, logging.WrapError(err, "failed to look up account "+userID)
	}

	account.PushEnabled = pushEnabled != 0
	return &account, nil
}

// UpsertAccount inserts or replaces an account row. Used by provisioning and
// test setup; the broker itself never writes accounts.
func (d *SQLiteDirectory) UpsertAccount(ctx context.Context, account *types.Account) error {
	if account == nil || !types.IsValidUserID(account.UserID) || account.Role == "" || account.Locale == "" {
		return ErrInvalidAccount
	}

	return d.executeWrite(ctx, func(db *sql.DB) error {
		pushEnabled := 0
		if account.PushEnabled {
			pushEnabled = 1
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO accounts (user_id, role, locale, push_enabled)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				role = excluded.role,
				locale = excluded.locale,
				push_enabled = excluded.push_enabled`,
			account.UserID, account.Role, account.Locale, pushEnabled)
		if err != nil {
			return logging.WrapError(err, "failed to upsert account "+account.UserID)
		}
		return nil
	})
}

// HealthCheck verifies connectivity with a trivial query.
func (d *SQLiteDirectory) HealthCheck(ctx context.Context) error {
	var one int
	if err := d.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return logging.WrapError(err, "directory health check failed")
	}
	return nil
}

// Close stops the writer goroutine and closes the database.
func (d *SQLiteDirectory) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	close(d.shutdown)
	d.wg.Wait()
	return d.db.Close()
}
