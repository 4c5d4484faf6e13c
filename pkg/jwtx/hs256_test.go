package jwtx_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/fortress/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	testSecret = []byte("0123456789abcdef0123456789abcdef")
	testIssuer = "fortress"
	testAud    = []string{"fortress-clients"}
)

func testClaims(now time.Time, ttl time.Duration) jwtx.Claims {
	return jwtx.NewAccessClaims(jwtx.Identity{
		Subject:    "user-123",
		Email:      "ana@example.com",
		GivenName:  "Ana",
		FamilyName: "Gomez",
		Roles:      []string{"User"},
	}, testIssuer, testAud, ttl, now)
}

func TestHS256SignAndVerify(t *testing.T) {
	signer, err := jwtx.NewHS256Signer(testSecret)
	require.NoError(t, err)
	require.Equal(t, "HS256", signer.Alg())

	claims := testClaims(time.Now().UTC(), time.Hour)
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	verifier, err := jwtx.NewHS256Verifier(testSecret, jwtx.VerifyOptions{Issuer: testIssuer, Audience: testAud})
	require.NoError(t, err)

	parsed, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, claims.Subject, parsed.Subject)
	require.Equal(t, claims.Email, parsed.Email)
	require.Equal(t, claims.GivenName, parsed.GivenName)
	require.Equal(t, claims.FamilyName, parsed.FamilyName)
	require.Equal(t, claims.Roles, parsed.Roles)
	require.Equal(t, claims.ID, parsed.ID)
	require.ElementsMatch(t, claims.Audience, parsed.Audience)
}

func TestHS256WireClaims(t *testing.T) {
	signer, err := jwtx.NewHS256Signer(testSecret)
	require.NoError(t, err)

	token, err := signer.Sign(testClaims(time.Now().UTC(), time.Hour))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	require.Contains(t, string(header), `"alg":"HS256"`)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(payload, &raw))
	for _, k := range []string{"sub", "email", "jti", "given_name", "family_name", "role", "iss", "aud", "exp"} {
		require.Contains(t, raw, k)
	}
}

func TestHS256RejectsWeakKey(t *testing.T) {
	_, err := jwtx.NewHS256Signer([]byte("short"))
	require.ErrorIs(t, err, jwtx.ErrWeakKey)

	_, err = jwtx.NewHS256Verifier([]byte("short"), jwtx.VerifyOptions{})
	require.ErrorIs(t, err, jwtx.ErrWeakKey)
}

func TestHS256VerifyFailures(t *testing.T) {
	signer, err := jwtx.NewHS256Signer(testSecret)
	require.NoError(t, err)
	verifier, err := jwtx.NewHS256Verifier(testSecret, jwtx.VerifyOptions{Issuer: testIssuer, Audience: testAud})
	require.NoError(t, err)

	now := time.Now().UTC()
	good, err := signer.Sign(testClaims(now, time.Hour))
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other, err := jwtx.NewHS256Signer([]byte("ffffffffffffffffffffffffffffffff"))
		require.NoError(t, err)
		token, err := other.Sign(testClaims(now, time.Hour))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(good, ".")
		forged := testClaims(now, time.Hour)
		forged.Roles = []string{"Admin"}
		b, err := json.Marshal(forged)
		require.NoError(t, err)
		parts[1] = base64.RawURLEncoding.EncodeToString(b)

		_, err = verifier.Verify(strings.Join(parts, "."))
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify("not.a.jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("alg none", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, testClaims(now, time.Hour)).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := signer.Sign(testClaims(now.Add(-2*time.Hour), time.Hour))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := testClaims(now, time.Hour)
		c.Issuer = "someone-else"
		token, err := signer.Sign(c)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		c := testClaims(now, time.Hour)
		c.Audience = jwt.ClaimStrings{"elsewhere"}
		token, err := signer.Sign(c)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})
}

func TestHS256VerifyUsesClock(t *testing.T) {
	signer, err := jwtx.NewHS256Signer(testSecret)
	require.NoError(t, err)
	verifier, err := jwtx.NewHS256Verifier(testSecret, jwtx.VerifyOptions{})
	require.NoError(t, err)

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := signer.Sign(testClaims(issued, 60*time.Minute))
	require.NoError(t, err)

	_, err = verifier.WithClock(func() time.Time { return issued.Add(59 * time.Minute) }).Verify(token)
	require.NoError(t, err)

	_, err = verifier.WithClock(func() time.Time { return issued.Add(61 * time.Minute) }).Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}
