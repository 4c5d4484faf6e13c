package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/fortress/internal/identity/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // caller will commit/rollback and outer DB stays open

// Ping is a no-op for transactions, the connection is already held.
func (t *txStore) Ping(ctx context.Context) error {
	return nil
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return sql.ErrTxDone
}

func (t *txStore) Accounts() store.Accounts {
	return &accountsRepo{db: t.tx, atomic: t.atomic}
}

// atomic is a pass-through, we are already inside a transaction.
func (t *txStore) atomic(_ context.Context, fn func(dbtx) error) error {
	return fn(t.tx)
}

func (t *txStore) ApplyMigrations() error { return nil } // migrations are applied before any tx starts
