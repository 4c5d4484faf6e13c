package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/store.go -package=mocks . Store,Tx,Accounts

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// Sub-repositories hang off it so a Tx can hand out the same repos scoped
// to the transaction, and so nobody accidentally nests transactions.
type Store interface {
	Accounts() Accounts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Prefer this
	// over Tx.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Accounts persists domain.Account values. Emails are compared in their
// normalized form and are unique at the storage level; a duplicate on
// Create or Update returns ErrAlreadyExists.
type Accounts interface {
	// ExistsByEmail reports whether any account uses email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// GetByID returns ErrNotFound when there is no such account.
	GetByID(ctx context.Context, id string) (domain.Account, error)

	// GetByEmail returns ErrNotFound when there is no such account.
	GetByEmail(ctx context.Context, email string) (domain.Account, error)

	// Create inserts a new account together with its roles.
	Create(ctx context.Context, a domain.Account) error

	// Update overwrites every mutable field and the role set of an existing
	// account. Returns ErrNotFound if the id is unknown.
	Update(ctx context.Context, a domain.Account) error

	// Count returns the number of stored accounts.
	Count(ctx context.Context) (int, error)
}
