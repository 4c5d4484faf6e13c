package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// MFAState is where an account is in TOTP enrollment.
type MFAState int

const (
	MFANotEnrolled  MFAState = iota // no secret
	MFASecretIssued                 // secret issued, first code not yet confirmed
	MFAEnabled                      // required at login
)

func (s MFAState) String() string {
	switch s {
	case MFASecretIssued:
		return "secret_issued"
	case MFAEnabled:
		return "enabled"
	default:
		return "not_enrolled"
	}
}

// MFA is the second-factor state of an account. The secret is only present
// in the SecretIssued and Enabled states.
type MFA struct {
	state  MFAState
	secret string
}

func (m MFA) State() MFAState { return m.state }
func (m MFA) Enabled() bool   { return m.state == MFAEnabled }

// Secret returns the TOTP secret, if one has been issued.
func (m MFA) Secret() (string, bool) {
	return m.secret, m.state != MFANotEnrolled
}

// Account is a registered identity. Values are only produced by
// NewAccount, RestoreAccount and the mutation methods below, all of which
// enforce the invariants, so a held Account is always consistent. Mutations
// return a modified copy and leave the receiver untouched.
type Account struct {
	id           string
	email        string
	firstName    string
	lastName     string
	passwordHash string
	roles        []Role
	active       bool
	mfa          MFA
	createdAt    time.Time
	updatedAt    time.Time
}

// AccountRecord is the flat persisted form of an Account.
type AccountRecord struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Roles        []Role
	IsActive     bool
	MFASecret    string // empty when not enrolled
	MFAEnabled   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount validates the inputs and returns an active account with no
// second factor. The email is stored normalized.
func NewAccount(id, firstName, lastName, email, passwordHash string, roles []Role, now time.Time) (Account, error) {
	now = now.UTC()
	return build(AccountRecord{
		ID:           id,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		Roles:        roles,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// RestoreAccount rebuilds an Account from storage, re-checking every
// invariant so a corrupt row cannot produce an inconsistent value.
func RestoreAccount(r AccountRecord) (Account, error) {
	if r.CreatedAt.IsZero() || r.UpdatedAt.IsZero() {
		return Account{}, invalid("timestamps", "are required")
	}
	return build(r)
}

func build(r AccountRecord) (Account, error) {
	var errs []error

	id := strings.TrimSpace(r.ID)
	if id == "" {
		errs = append(errs, invalid("id", "is required"))
	}

	first, err := normalizeName("firstName", r.FirstName)
	if err != nil {
		errs = append(errs, err)
	}
	last, err := normalizeName("lastName", r.LastName)
	if err != nil {
		errs = append(errs, err)
	}

	email := NormalizeEmail(r.Email)
	if err := ValidateEmail(email); err != nil {
		errs = append(errs, err)
	}

	if r.PasswordHash == "" {
		errs = append(errs, invalid("passwordHash", "is required"))
	}

	roles, err := checkRoles(r.Roles)
	if err != nil {
		errs = append(errs, err)
	}

	mfa := MFA{}
	switch {
	case r.MFAEnabled && r.MFASecret == "":
		errs = append(errs, invalid("mfa", "enabled without a secret"))
	case r.MFAEnabled:
		mfa = MFA{state: MFAEnabled, secret: r.MFASecret}
	case r.MFASecret != "":
		mfa = MFA{state: MFASecretIssued, secret: r.MFASecret}
	}

	if err := errors.Join(errs...); err != nil {
		return Account{}, err
	}

	return Account{
		id:           id,
		email:        email,
		firstName:    first,
		lastName:     last,
		passwordHash: r.PasswordHash,
		roles:        roles,
		active:       r.IsActive,
		mfa:          mfa,
		createdAt:    r.CreatedAt.UTC(),
		updatedAt:    r.UpdatedAt.UTC(),
	}, nil
}

func checkRoles(roles []Role) ([]Role, error) {
	if len(roles) == 0 {
		return nil, invalid("roles", "must not be empty")
	}
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if _, err := ParseRole(string(r)); err != nil {
			return nil, err
		}
		if slices.Contains(out, r) {
			return nil, invalid("roles", "must not contain duplicates")
		}
		out = append(out, r)
	}
	return out, nil
}

func (a Account) ID() string           { return a.id }
func (a Account) Email() string        { return a.email }
func (a Account) FirstName() string    { return a.firstName }
func (a Account) LastName() string     { return a.lastName }
func (a Account) FullName() string     { return a.firstName + " " + a.lastName }
func (a Account) PasswordHash() string { return a.passwordHash }
func (a Account) IsActive() bool       { return a.active }
func (a Account) MFA() MFA             { return a.mfa }
func (a Account) CreatedAt() time.Time { return a.createdAt }
func (a Account) UpdatedAt() time.Time { return a.updatedAt }

// Roles returns a copy of the held roles in grant order.
func (a Account) Roles() []Role { return slices.Clone(a.roles) }

func (a Account) HasRole(r Role) bool { return slices.Contains(a.roles, r) }

// Record flattens a for persistence.
func (a Account) Record() AccountRecord {
	secret, _ := a.mfa.Secret()
	return AccountRecord{
		ID:           a.id,
		Email:        a.email,
		FirstName:    a.firstName,
		LastName:     a.lastName,
		PasswordHash: a.passwordHash,
		Roles:        a.Roles(),
		IsActive:     a.active,
		MFASecret:    secret,
		MFAEnabled:   a.mfa.Enabled(),
		CreatedAt:    a.createdAt,
		UpdatedAt:    a.updatedAt,
	}
}

// touched returns a copy with its own role slice and a fresh updatedAt.
func (a Account) touched(now time.Time) Account {
	a.roles = slices.Clone(a.roles)
	a.updatedAt = now.UTC()
	return a
}

// WithRole grants r. Granting a held role is a Conflict.
func (a Account) WithRole(r Role, now time.Time) (Account, error) {
	if _, err := ParseRole(string(r)); err != nil {
		return a, err
	}
	if a.HasRole(r) {
		return a, fmt.Errorf("%w: account already has role %s", ErrConflict, r)
	}
	a = a.touched(now)
	a.roles = append(a.roles, r)
	return a, nil
}

// WithoutRole revokes r. Revoking a role that is not held is a Conflict and
// revoking the last role is a ValidationError.
func (a Account) WithoutRole(r Role, now time.Time) (Account, error) {
	i := slices.Index(a.roles, r)
	if i < 0 {
		return a, fmt.Errorf("%w: account does not have role %s", ErrConflict, r)
	}
	if len(a.roles) == 1 {
		return a, invalid("roles", "must not be empty")
	}
	a = a.touched(now)
	a.roles = slices.Delete(a.roles, i, i+1)
	return a, nil
}

func (a Account) Activate(now time.Time) (Account, error) {
	if a.active {
		return a, fmt.Errorf("%w: account is already active", ErrConflict)
	}
	a = a.touched(now)
	a.active = true
	return a, nil
}

func (a Account) Deactivate(now time.Time) (Account, error) {
	if !a.active {
		return a, fmt.Errorf("%w: account is already inactive", ErrConflict)
	}
	a = a.touched(now)
	a.active = false
	return a, nil
}

// BeginMFAEnrollment stores a freshly issued secret. Any earlier
// unconfirmed secret is replaced. Fails with Conflict once MFA is enabled.
func (a Account) BeginMFAEnrollment(secret string, now time.Time) (Account, error) {
	if a.mfa.Enabled() {
		return a, fmt.Errorf("%w: mfa is already enabled", ErrConflict)
	}
	if secret == "" {
		return a, invalid("mfaSecret", "is required")
	}
	a = a.touched(now)
	a.mfa = MFA{state: MFASecretIssued, secret: secret}
	return a, nil
}

// PendingMFASecret returns the secret awaiting confirmation.
func (a Account) PendingMFASecret() (string, error) {
	switch a.mfa.state {
	case MFANotEnrolled:
		return "", ErrSetupNotInitiated
	case MFAEnabled:
		return "", fmt.Errorf("%w: mfa is already enabled", ErrConflict)
	}
	return a.mfa.secret, nil
}

// ConfirmMFA moves a SecretIssued account to Enabled. The caller is
// responsible for having checked a code against PendingMFASecret first.
func (a Account) ConfirmMFA(now time.Time) (Account, error) {
	if _, err := a.PendingMFASecret(); err != nil {
		return a, err
	}
	a = a.touched(now)
	a.mfa.state = MFAEnabled
	return a, nil
}

// UpdateProfile replaces the names and email after validating them.
func (a Account) UpdateProfile(firstName, lastName, email string, now time.Time) (Account, error) {
	var errs []error
	first, err := normalizeName("firstName", firstName)
	if err != nil {
		errs = append(errs, err)
	}
	last, err := normalizeName("lastName", lastName)
	if err != nil {
		errs = append(errs, err)
	}
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return a, err
	}

	a = a.touched(now)
	a.firstName, a.lastName, a.email = first, last, email
	return a, nil
}

// WithPasswordHash swaps the stored credential.
func (a Account) WithPasswordHash(hash string, now time.Time) (Account, error) {
	if hash == "" {
		return a, invalid("passwordHash", "is required")
	}
	a = a.touched(now)
	a.passwordHash = hash
	return a, nil
}
