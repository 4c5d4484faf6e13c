package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	"github.com/aussiebroadwan/fortress/internal/identity/store"
	"github.com/aussiebroadwan/fortress/pkg/idx"
	"github.com/aussiebroadwan/fortress/pkg/slogx"
)

// LoginResult is the outcome of a successful password check. Exactly one
// of Token and RequiresTwoFactor is set.
type LoginResult struct {
	AccountID         string
	Token             string
	RequiresTwoFactor bool
}

// AuthService registers accounts and authenticates them.
type AuthService struct {
	store  store.Store
	hasher PasswordHasher
	mfa    MFAProvider
	tokens AccessTokenIssuer
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService panics if any collaborator is nil.
func NewAuthService(st store.Store, hasher PasswordHasher, mfa MFAProvider, tokens AccessTokenIssuer) *AuthService {
	mustNotNil("store", st)
	mustNotNil("hasher", hasher)
	mustNotNil("mfa", mfa)
	mustNotNil("tokens", tokens)
	return &AuthService{store: st, hasher: hasher, mfa: mfa, tokens: tokens, now: utcNow}
}

// Register creates an active account holding the User role and returns its
// id. A taken email is a Conflict; nothing is written on any failure.
func (s *AuthService) Register(ctx context.Context, in domain.Registration) (string, error) {
	log := slogx.FromContext(ctx)

	if err := in.Validate(); err != nil {
		return "", err
	}
	email := domain.NormalizeEmail(in.Email)

	exists, err := s.store.Accounts().ExistsByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return "", fmt.Errorf("%w: email is already registered", domain.ErrConflict)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	account, err := domain.NewAccount(idx.New().String(), in.FirstName, in.LastName, email, hash, domain.DefaultRoles, s.now())
	if err != nil {
		return "", err
	}

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Accounts().Create(ctx, account)
	})
	if err != nil {
		// The unique index catches registrations racing past ExistsByEmail
		return "", mapStoreErr(err)
	}

	log.Info("account registered", "account_id", account.ID())
	return account.ID(), nil
}

// Login checks the password. Accounts with MFA enabled get
// RequiresTwoFactor instead of a token and must finish with
// VerifyMFALogin. Unknown email and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	account, err := s.authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}

	if account.MFA().Enabled() {
		slogx.FromContext(ctx).Info("login pending second factor", "account_id", account.ID())
		return LoginResult{AccountID: account.ID(), RequiresTwoFactor: true}, nil
	}

	return s.issue(ctx, account)
}

// VerifyMFALogin completes a login for an MFA account. The password is
// checked again since no server-side state links the two steps.
func (s *AuthService) VerifyMFALogin(ctx context.Context, email, password, code string) (LoginResult, error) {
	if err := domain.ValidateMFACode(code); err != nil {
		return LoginResult{}, err
	}

	account, err := s.authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}

	secret, ok := account.MFA().Secret()
	if !account.MFA().Enabled() || !ok {
		return LoginResult{}, domain.ErrMFANotEnabled
	}

	if !s.mfa.VerifyCode(secret, code) {
		slogx.FromContext(ctx).Warn("mfa code rejected", "account_id", account.ID())
		return LoginResult{}, domain.ErrInvalidMFACode
	}

	return s.issue(ctx, account)
}

// authenticate resolves the account behind email and password, checking
// the credential before the active flag.
func (s *AuthService) authenticate(ctx context.Context, email, password string) (domain.Account, error) {
	log := slogx.FromContext(ctx)

	if err := domain.ValidateCredentials(email, password); err != nil {
		return domain.Account{}, err
	}

	account, err := s.store.Accounts().GetByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		// Burn the same hashing cost as a real check so response time does
		// not reveal whether the email is registered.
		s.hasher.Verify(password, s.dummy())
		log.Info("login failed", "reason", "unknown_email")
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("load account: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash()) {
		log.Info("login failed", "reason", "bad_password", "account_id", account.ID())
		return domain.Account{}, domain.ErrInvalidCredentials
	}

	if !account.IsActive() {
		log.Info("login refused", "reason", "inactive", "account_id", account.ID())
		return domain.Account{}, domain.ErrAccountInactive
	}

	return account, nil
}

func (s *AuthService) issue(ctx context.Context, account domain.Account) (LoginResult, error) {
	token, err := s.tokens.Issue(account)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	slogx.FromContext(ctx).Info("login succeeded", "account_id", account.ID())
	return LoginResult{AccountID: account.ID(), Token: token}, nil
}

// dummy returns a record hashed with the live parameters, computed once.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(idx.New().String())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
