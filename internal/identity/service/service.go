// Package service holds the identity use cases: registration, login with an
// optional TOTP second step, MFA enrollment, role management and account
// lifecycle. Every operation is request scoped and keeps no state between
// calls beyond what it writes to the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	"github.com/aussiebroadwan/fortress/internal/identity/store"
	"github.com/aussiebroadwan/fortress/pkg/totpx"
)

// PasswordHasher derives and checks credential records.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// MFAProvider issues TOTP secrets and checks codes.
type MFAProvider interface {
	GenerateSetup(label, issuer string) (totpx.Setup, error)
	VerifyCode(secret, code string) bool
}

// AccessTokenIssuer mints bearer tokens for authenticated accounts.
type AccessTokenIssuer interface {
	Issue(a domain.Account) (string, error)
}

// IdentityContext resolves the account behind the current request.
type IdentityContext interface {
	CurrentAccountID(ctx context.Context) (string, bool)
}

// mustNotNil panics when a required collaborator is missing. Wiring
// mistakes should stop the process at startup, not surface per request.
func mustNotNil(name string, v any) {
	if v == nil {
		panic("service: " + name + " must not be nil")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Func, reflect.Slice, reflect.Chan:
		if rv.IsNil() {
			panic("service: " + name + " must not be nil")
		}
	}
}

func utcNow() time.Time { return time.Now().UTC() }

// mapStoreErr translates storage sentinels into domain error kinds.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: account", domain.ErrNotFound)
	case errors.Is(err, store.ErrAlreadyExists):
		return fmt.Errorf("%w: email is already registered", domain.ErrConflict)
	}
	return err
}

// updateAccount loads the account, applies fn and writes the result back,
// all in one transaction. fn sees the freshest stored state so invariant
// checks and the write cannot interleave with another request.
func updateAccount(
	ctx context.Context,
	st store.Store,
	id string,
	fn func(tx store.Tx, a domain.Account) (domain.Account, error),
) (domain.Account, error) {
	var out domain.Account
	err := st.WithTx(ctx, func(tx store.Tx) error {
		a, err := tx.Accounts().GetByID(ctx, id)
		if err != nil {
			return mapStoreErr(err)
		}

		a, err = fn(tx, a)
		if err != nil {
			return err
		}

		if err := tx.Accounts().Update(ctx, a); err != nil {
			return mapStoreErr(err)
		}
		out = a
		return nil
	})
	return out, err
}
