package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	"github.com/aussiebroadwan/fortress/internal/identity/store"
	"github.com/aussiebroadwan/fortress/pkg/slogx"
)

// RolesService grants and revokes roles from the closed set.
type RolesService struct {
	store store.Store
	now   func() time.Time
}

func NewRolesService(st store.Store) *RolesService {
	mustNotNil("store", st)
	return &RolesService{store: st, now: utcNow}
}

// AssignRole grants roleName to the account. Unknown role names are a
// ValidationError, a missing account is NotFound and an already held role
// is a Conflict.
func (s *RolesService) AssignRole(ctx context.Context, accountID, roleName string) error {
	role, err := domain.ParseRole(roleName)
	if err != nil {
		return err
	}

	_, err = updateAccount(ctx, s.store, accountID, func(_ store.Tx, a domain.Account) (domain.Account, error) {
		return a.WithRole(role, s.now())
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("role assigned", "account_id", accountID, "role", role)
	return nil
}

// AssignRoleByEmail is AssignRole for callers that only know the email.
func (s *RolesService) AssignRoleByEmail(ctx context.Context, email, roleName string) error {
	a, err := s.store.Accounts().GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return mapStoreErr(err)
	}
	return s.AssignRole(ctx, a.ID(), roleName)
}

// RemoveRole revokes roleName. Revoking a role the account does not hold is
// a Conflict, and the last role can never be removed.
func (s *RolesService) RemoveRole(ctx context.Context, accountID, roleName string) error {
	role, err := domain.ParseRole(roleName)
	if err != nil {
		return err
	}

	_, err = updateAccount(ctx, s.store, accountID, func(_ store.Tx, a domain.Account) (domain.Account, error) {
		return a.WithoutRole(role, s.now())
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("role removed", "account_id", accountID, "role", role)
	return nil
}

// Roles lists the roles currently held by the account.
func (s *RolesService) Roles(ctx context.Context, accountID string) ([]domain.Role, error) {
	a, err := s.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return a.Roles(), nil
}
