package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	"github.com/stretchr/testify/require"
)

func TestMFA_Enrollment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.register(t, anaRegistration())
	h.caller.id = id

	t.Run("confirm before enable", func(t *testing.T) {
		err := h.mfa.Confirm(ctx, "123456")
		require.ErrorIs(t, err, domain.ErrSetupNotInitiated)
	})

	first, err := h.mfa.Enable(ctx)
	require.NoError(t, err)

	u, err := url.Parse(first.ProvisioningURI)
	require.NoError(t, err)
	require.Equal(t, "otpauth", u.Scheme)
	require.Equal(t, "totp", u.Host)
	require.Equal(t, first.Secret, u.Query().Get("secret"))
	require.Equal(t, DefaultMFAIssuer, u.Query().Get("issuer"))

	a, err := h.accounts.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.MFASecretIssued, a.MFA().State())

	t.Run("enable again replaces the pending secret", func(t *testing.T) {
		second, err := h.mfa.Enable(ctx)
		require.NoError(t, err)
		require.NotEqual(t, first.Secret, second.Secret)

		// The old secret's code no longer confirms.
		stale := h.currentCode(t, first.Secret)
		if stale != h.currentCode(t, second.Secret) {
			require.ErrorIs(t, h.mfa.Confirm(ctx, stale), domain.ErrInvalidMFACode)
		}
		first = second
	})

	t.Run("wrong code leaves the account pending", func(t *testing.T) {
		wrong := "000000"
		if h.currentCode(t, first.Secret) == wrong {
			wrong = "111111"
		}
		require.ErrorIs(t, h.mfa.Confirm(ctx, wrong), domain.ErrInvalidMFACode)

		a, err := h.accounts.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, domain.MFASecretIssued, a.MFA().State())
	})

	t.Run("malformed code", func(t *testing.T) {
		require.ErrorIs(t, h.mfa.Confirm(ctx, "12345"), domain.ErrValidation)
	})

	require.NoError(t, h.mfa.Confirm(ctx, h.currentCode(t, first.Secret)))

	a, err = h.accounts.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, a.MFA().Enabled())
	secret, ok := a.MFA().Secret()
	require.True(t, ok)
	require.Equal(t, first.Secret, secret)

	t.Run("enable once enabled", func(t *testing.T) {
		_, err := h.mfa.Enable(ctx)
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("confirm once enabled", func(t *testing.T) {
		require.ErrorIs(t, h.mfa.Confirm(ctx, h.currentCode(t, first.Secret)), domain.ErrConflict)
	})
}

func TestMFA_RequiresCaller(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.mfa.Enable(ctx)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	require.ErrorIs(t, h.mfa.Confirm(ctx, "123456"), domain.ErrUnauthenticated)

	h.caller.id = "01JGHOSTACCOUNT0000000000"
	_, err = h.mfa.Enable(ctx)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMFA_CustomIssuer(t *testing.T) {
	h := newHarness(t)
	id := h.register(t, anaRegistration())

	svc := NewMFAService(h.store, h.totp, &staticIdentity{id: id}, "Fortress Admin")
	setup, err := svc.Enable(context.Background())
	require.NoError(t, err)
	require.Contains(t, setup.ProvisioningURI, "otpauth://totp/Fortress%20Admin:ana%40example.com?")
	require.Contains(t, setup.ProvisioningURI, "&issuer=Fortress%20Admin")
}
