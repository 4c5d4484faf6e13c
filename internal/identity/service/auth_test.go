package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	"github.com/aussiebroadwan/fortress/internal/identity/store/mocks"
	"github.com/aussiebroadwan/fortress/pkg/cryptox"
	"github.com/aussiebroadwan/fortress/pkg/jwtx"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRegister(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	in := anaRegistration()
	in.Email = "  Ana@Example.COM "
	id := h.register(t, in)

	a, err := h.accounts.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", a.Email())
	require.Equal(t, []domain.Role{domain.RoleUser}, a.Roles())
	require.True(t, a.IsActive())
	require.Equal(t, domain.MFANotEnrolled, a.MFA().State())
	require.NotEqual(t, in.Password, a.PasswordHash())
	require.True(t, h.hasher.Verify(in.Password, a.PasswordHash()))

	t.Run("email match ignores case", func(t *testing.T) {
		dup := anaRegistration()
		dup.Email = "ANA@example.com"
		_, err := h.auth.Register(ctx, dup)
		require.ErrorIs(t, err, domain.ErrConflict)

		n, err := h.store.Accounts().Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("invalid input reports every field", func(t *testing.T) {
		_, err := h.auth.Register(ctx, domain.Registration{Email: "nope", Password: "short"})
		require.ErrorIs(t, err, domain.ErrValidation)

		details := domain.ValidationDetails(err)
		require.Contains(t, details, "firstName")
		require.Contains(t, details, "lastName")
		require.Contains(t, details, "email")
		require.Contains(t, details, "password")
	})
}

func TestRegister_ConflictWritesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	accounts := mocks.NewMockAccounts(ctrl)
	h := newHarness(t)

	st.EXPECT().Accounts().Return(accounts)
	accounts.EXPECT().ExistsByEmail(gomock.Any(), "ana@example.com").Return(true, nil)
	// No WithTx, Create or Hash expectations: any write fails the test.

	svc := NewAuthService(st, h.hasher, h.totp, &TokenIssuer{})
	_, err := svc.Register(context.Background(), anaRegistration())
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegister_StoreFailureIsNotAConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	accounts := mocks.NewMockAccounts(ctrl)
	h := newHarness(t)
	boom := errors.New("disk on fire")

	st.EXPECT().Accounts().Return(accounts)
	accounts.EXPECT().ExistsByEmail(gomock.Any(), gomock.Any()).Return(false, boom)

	svc := NewAuthService(st, h.hasher, h.totp, &TokenIssuer{})
	_, err := svc.Register(context.Background(), anaRegistration())
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, domain.ErrConflict)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	in := anaRegistration()
	id := h.register(t, in)

	t.Run("issues a token carrying the account", func(t *testing.T) {
		res, err := h.auth.Login(ctx, "ANA@example.com", in.Password)
		require.NoError(t, err)
		require.False(t, res.RequiresTwoFactor)
		require.Equal(t, id, res.AccountID)

		claims, err := h.verifier.Verify(res.Token)
		require.NoError(t, err)
		require.Equal(t, id, claims.Subject)
		require.Equal(t, "ana@example.com", claims.Email)
		require.Equal(t, "Ana", claims.GivenName)
		require.Equal(t, "Gomez", claims.FamilyName)
		require.Equal(t, []string{"User"}, claims.Roles)
		require.NotEmpty(t, claims.ID)
		require.WithinDuration(t, time.Now().Add(testTokens.TTL), claims.ExpiresAt.Time, 5*time.Second)
	})

	t.Run("every token gets its own jti", func(t *testing.T) {
		a, err := h.auth.Login(ctx, in.Email, in.Password)
		require.NoError(t, err)
		b, err := h.auth.Login(ctx, in.Email, in.Password)
		require.NoError(t, err)

		ca, err := h.verifier.Verify(a.Token)
		require.NoError(t, err)
		cb, err := h.verifier.Verify(b.Token)
		require.NoError(t, err)
		require.NotEqual(t, ca.ID, cb.ID)
	})

	t.Run("unknown email and wrong password look the same", func(t *testing.T) {
		_, errUnknown := h.auth.Login(ctx, "ghost@example.com", in.Password)
		_, errWrong := h.auth.Login(ctx, in.Email, "Wr0ng!Passw0rd123")
		require.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)
		require.ErrorIs(t, errWrong, domain.ErrInvalidCredentials)
		require.Equal(t, errUnknown.Error(), errWrong.Error())
	})

	t.Run("missing fields are a validation error", func(t *testing.T) {
		_, err := h.auth.Login(ctx, "", "")
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("roles in the token follow assignments", func(t *testing.T) {
		require.NoError(t, h.roles.AssignRole(ctx, id, "Admin"))

		res, err := h.auth.Login(ctx, in.Email, in.Password)
		require.NoError(t, err)
		claims, err := h.verifier.Verify(res.Token)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"User", "Admin"}, claims.Roles)
		require.True(t, claims.HasRole("Admin"))
	})
}

func TestLogin_InactiveAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	in := anaRegistration()
	id := h.register(t, in)

	require.NoError(t, h.accounts.Deactivate(ctx, id))

	_, err := h.auth.Login(ctx, in.Email, in.Password)
	require.ErrorIs(t, err, domain.ErrAccountInactive)

	// The password is checked first so inactivity does not leak to guessers.
	_, err = h.auth.Login(ctx, in.Email, "Wr0ng!Passw0rd123")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	require.NoError(t, h.accounts.Activate(ctx, id))
	res, err := h.auth.Login(ctx, in.Email, in.Password)
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
}

// Login never writes to the account, even when the configured hashing
// parameters no longer match the stored record.
func TestLogin_LeavesAccountUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	in := anaRegistration()
	id := h.register(t, in)

	plainID := h.register(t, domain.Registration{
		FirstName: "Bea", LastName: "Ortiz", Email: "bea@example.com", Password: in.Password,
	})
	secret := h.enableMFA(t, id)

	stronger := cryptox.NewHasher(cryptox.Params{Time: 2, MemoryKB: 8 * 1024, Parallelism: 1}, "pepper")
	signer, err := jwtx.NewHS256Signer(testSecret)
	require.NoError(t, err)
	auth := NewAuthService(h.store, stronger, h.totp, NewTokenIssuer(signer, testTokens))
	require.NotEqual(t, h.hasher.Params(), stronger.Params())

	for _, accountID := range []string{id, plainID} {
		before, err := h.store.Accounts().GetByID(ctx, accountID)
		require.NoError(t, err)

		res, err := auth.Login(ctx, before.Email(), in.Password)
		require.NoError(t, err)
		require.Equal(t, accountID == id, res.RequiresTwoFactor)

		if accountID == id {
			_, err = auth.VerifyMFALogin(ctx, before.Email(), in.Password, h.currentCode(t, secret))
			require.NoError(t, err)
		}

		after, err := h.store.Accounts().GetByID(ctx, accountID)
		require.NoError(t, err)
		require.Equal(t, before.PasswordHash(), after.PasswordHash())
		require.Equal(t, before.UpdatedAt(), after.UpdatedAt())
	}
}

func TestVerifyMFALogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	in := anaRegistration()
	id := h.register(t, in)

	t.Run("not enabled", func(t *testing.T) {
		_, err := h.auth.VerifyMFALogin(ctx, in.Email, in.Password, "123456")
		require.ErrorIs(t, err, domain.ErrMFANotEnabled)
	})

	secret := h.enableMFA(t, id)

	t.Run("wrong code", func(t *testing.T) {
		code := h.currentCode(t, secret)
		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}
		_, err := h.auth.VerifyMFALogin(ctx, in.Email, in.Password, wrong)
		require.ErrorIs(t, err, domain.ErrInvalidMFACode)
	})

	t.Run("malformed code", func(t *testing.T) {
		_, err := h.auth.VerifyMFALogin(ctx, in.Email, in.Password, "12ab56")
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("wrong password with a valid code", func(t *testing.T) {
		_, err := h.auth.VerifyMFALogin(ctx, in.Email, "Wr0ng!Passw0rd123", h.currentCode(t, secret))
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("correct code issues a token", func(t *testing.T) {
		res, err := h.auth.VerifyMFALogin(ctx, in.Email, in.Password, h.currentCode(t, secret))
		require.NoError(t, err)
		require.NotEmpty(t, res.Token)

		claims, err := h.verifier.Verify(res.Token)
		require.NoError(t, err)
		require.Equal(t, id, claims.Subject)
	})
}

type failingSigner struct{}

func (failingSigner) Alg() string                     { return "HS256" }
func (failingSigner) Sign(jwtx.Claims) (string, error) { return "", errors.New("hsm unplugged") }

func TestLogin_SignerFailure(t *testing.T) {
	h := newHarness(t)
	in := anaRegistration()
	h.register(t, in)

	svc := NewAuthService(h.store, h.hasher, h.totp, NewTokenIssuer(failingSigner{}, testTokens))
	_, err := svc.Login(context.Background(), in.Email, in.Password)
	require.ErrorContains(t, err, "hsm unplugged")
	require.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}
