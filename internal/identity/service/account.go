package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	"github.com/aussiebroadwan/fortress/internal/identity/store"
	"github.com/aussiebroadwan/fortress/pkg/slogx"
)

// AccountService covers account lifecycle outside of authentication:
// lookups, activation, profile edits and password changes.
type AccountService struct {
	store  store.Store
	hasher PasswordHasher
	now    func() time.Time
}

func NewAccountService(st store.Store, hasher PasswordHasher) *AccountService {
	mustNotNil("store", st)
	mustNotNil("hasher", hasher)
	return &AccountService{store: st, hasher: hasher, now: utcNow}
}

// Get returns the account or NotFound.
func (s *AccountService) Get(ctx context.Context, id string) (domain.Account, error) {
	a, err := s.store.Accounts().GetByID(ctx, id)
	if err != nil {
		return domain.Account{}, mapStoreErr(err)
	}
	return a, nil
}

// Activate re-enables login. Already active accounts are a Conflict.
func (s *AccountService) Activate(ctx context.Context, id string) error {
	_, err := updateAccount(ctx, s.store, id, func(_ store.Tx, a domain.Account) (domain.Account, error) {
		return a.Activate(s.now())
	})
	if err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("account activated", "account_id", id)
	return nil
}

// Deactivate blocks login without deleting anything.
func (s *AccountService) Deactivate(ctx context.Context, id string) error {
	_, err := updateAccount(ctx, s.store, id, func(_ store.Tx, a domain.Account) (domain.Account, error) {
		return a.Deactivate(s.now())
	})
	if err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("account deactivated", "account_id", id)
	return nil
}

// UpdateProfile replaces names and email. Moving to an email another
// account holds is a Conflict.
func (s *AccountService) UpdateProfile(ctx context.Context, id, firstName, lastName, email string) (domain.Account, error) {
	return updateAccount(ctx, s.store, id, func(tx store.Tx, a domain.Account) (domain.Account, error) {
		updated, err := a.UpdateProfile(firstName, lastName, email, s.now())
		if err != nil {
			return a, err
		}

		if updated.Email() != a.Email() {
			taken, err := tx.Accounts().ExistsByEmail(ctx, updated.Email())
			if err != nil {
				return a, fmt.Errorf("check email: %w", err)
			}
			if taken {
				return a, fmt.Errorf("%w: email is already registered", domain.ErrConflict)
			}
		}
		return updated, nil
	})
}

// ChangePassword swaps the credential after checking the current one. The
// new password must satisfy the registration policy.
func (s *AccountService) ChangePassword(ctx context.Context, id, current, next string) error {
	if err := domain.ValidatePassword(next); err != nil {
		return err
	}

	_, err := updateAccount(ctx, s.store, id, func(_ store.Tx, a domain.Account) (domain.Account, error) {
		if !s.hasher.Verify(current, a.PasswordHash()) {
			return a, domain.ErrInvalidCredentials
		}

		hash, err := s.hasher.Hash(next)
		if err != nil {
			return a, fmt.Errorf("hash password: %w", err)
		}
		return a.WithPasswordHash(hash, s.now())
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password changed", "account_id", id)
	return nil
}
