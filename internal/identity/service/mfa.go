package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	"github.com/aussiebroadwan/fortress/internal/identity/store"
	"github.com/aussiebroadwan/fortress/pkg/slogx"
)

// DefaultMFAIssuer labels entries in authenticator apps.
const DefaultMFAIssuer = "FortressIdentity"

// MFASetup is handed to the caller once, to load into an authenticator app.
type MFASetup struct {
	Secret          string
	ProvisioningURI string
}

// MFAService runs the two-phase TOTP enrollment for the calling account:
// Enable issues a secret, Confirm proves the app has it and switches MFA on.
type MFAService struct {
	store    store.Store
	mfa      MFAProvider
	identity IdentityContext
	issuer   string
	now      func() time.Time
}

// NewMFAService panics if any collaborator is nil. An empty issuer falls
// back to DefaultMFAIssuer.
func NewMFAService(st store.Store, mfa MFAProvider, identity IdentityContext, issuer string) *MFAService {
	mustNotNil("store", st)
	mustNotNil("mfa", mfa)
	mustNotNil("identity", identity)
	if issuer == "" {
		issuer = DefaultMFAIssuer
	}
	return &MFAService{store: st, mfa: mfa, identity: identity, issuer: issuer, now: utcNow}
}

func (s *MFAService) caller(ctx context.Context) (string, error) {
	id, ok := s.identity.CurrentAccountID(ctx)
	if !ok || id == "" {
		return "", domain.ErrUnauthenticated
	}
	return id, nil
}

// Enable issues a fresh secret for the caller, replacing any unconfirmed
// one. Fails with Conflict once MFA is already enabled.
func (s *MFAService) Enable(ctx context.Context) (MFASetup, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return MFASetup{}, err
	}

	var setup MFASetup
	_, err = updateAccount(ctx, s.store, id, func(_ store.Tx, a domain.Account) (domain.Account, error) {
		if a.MFA().Enabled() {
			return a, fmt.Errorf("%w: mfa is already enabled", domain.ErrConflict)
		}

		gen, err := s.mfa.GenerateSetup(a.Email(), s.issuer)
		if err != nil {
			return a, fmt.Errorf("generate mfa setup: %w", err)
		}
		setup = MFASetup{Secret: gen.Secret, ProvisioningURI: gen.URI}

		return a.BeginMFAEnrollment(gen.Secret, s.now())
	})
	if err != nil {
		return MFASetup{}, err
	}

	slogx.FromContext(ctx).Info("mfa secret issued", "account_id", id)
	return setup, nil
}

// Confirm enables MFA when code matches the pending secret. Without a
// pending secret it fails with SetupNotInitiated; a wrong code leaves the
// account untouched.
func (s *MFAService) Confirm(ctx context.Context, code string) error {
	id, err := s.caller(ctx)
	if err != nil {
		return err
	}
	if err := domain.ValidateMFACode(code); err != nil {
		return err
	}

	_, err = updateAccount(ctx, s.store, id, func(_ store.Tx, a domain.Account) (domain.Account, error) {
		secret, err := a.PendingMFASecret()
		if err != nil {
			return a, err
		}
		if !s.mfa.VerifyCode(secret, code) {
			return a, domain.ErrInvalidMFACode
		}
		return a.ConfirmMFA(s.now())
	})
	if err != nil {
		slogx.FromContext(ctx).Info("mfa confirmation failed", "account_id", id, "error", err)
		return err
	}

	slogx.FromContext(ctx).Info("mfa enabled", "account_id", id)
	return nil
}
