package totpx_test

import (
	"encoding/base32"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/fortress/pkg/totpx"
	"github.com/stretchr/testify/require"
)

// Middle of a 30s step so +-15s jitter never crosses a boundary.
var t0 = time.Unix(1_700_000_010, 0).UTC()

func TestGenerateSetup(t *testing.T) {
	p := totpx.New(totpx.DefaultOptions())

	setup, err := p.GenerateSetup("ana@example.com", "FortressIdentity")
	require.NoError(t, err)

	// 160 bits -> 32 unpadded Base32 characters
	require.Len(t, setup.Secret, 32)
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(setup.Secret)
	require.NoError(t, err)
	require.Len(t, raw, 20)

	require.Equal(t,
		"otpauth://totp/FortressIdentity:ana%40example.com?secret="+setup.Secret+"&issuer=FortressIdentity",
		setup.URI,
	)

	u, err := url.Parse(setup.URI)
	require.NoError(t, err)
	require.Equal(t, "otpauth", u.Scheme)
	require.Equal(t, "totp", u.Host)
	require.Equal(t, setup.Secret, u.Query().Get("secret"))
}

func TestGenerateSetup_EscapesLabels(t *testing.T) {
	p := totpx.New(totpx.DefaultOptions())

	setup, err := p.GenerateSetup("ana gomez+1@example.com", "Fortress Identity")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(setup.URI,
		"otpauth://totp/Fortress%20Identity:ana%20gomez%2B1%40example.com?secret="))
	require.True(t, strings.HasSuffix(setup.URI, "&issuer=Fortress%20Identity"))
}

func TestGenerateSetup_FreshSecrets(t *testing.T) {
	p := totpx.New(totpx.DefaultOptions())

	a, err := p.GenerateSetup("ana@example.com", "FortressIdentity")
	require.NoError(t, err)
	b, err := p.GenerateSetup("ana@example.com", "FortressIdentity")
	require.NoError(t, err)
	require.NotEqual(t, a.Secret, b.Secret)
}

func TestGenerateSetup_RequiresLabels(t *testing.T) {
	p := totpx.New(totpx.DefaultOptions())

	_, err := p.GenerateSetup("", "FortressIdentity")
	require.ErrorIs(t, err, totpx.ErrInvalidInput)

	_, err = p.GenerateSetup("ana@example.com", "  ")
	require.ErrorIs(t, err, totpx.ErrInvalidInput)
}

func TestVerifyCode_DriftWindow(t *testing.T) {
	p := totpx.New(totpx.DefaultOptions())
	setup, err := p.GenerateSetup("ana@example.com", "FortressIdentity")
	require.NoError(t, err)

	tests := []struct {
		name   string
		offset int // steps relative to the verifier clock
		want   bool
	}{
		{"two steps behind", -2, false},
		{"one step behind", -1, true},
		{"current step", 0, true},
		{"one step ahead", 1, true},
		{"two steps ahead", 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := p.CodeAt(setup.Secret, t0.Add(time.Duration(tt.offset)*30*time.Second))
			require.NoError(t, err)

			require.Equal(t, tt.want, p.VerifyCodeAt(setup.Secret, code, t0))
		})
	}
}

func TestVerifyCode_ZeroSkew(t *testing.T) {
	opts := totpx.DefaultOptions()
	opts.Skew = 0
	p := totpx.New(opts)

	setup, err := p.GenerateSetup("ana@example.com", "FortressIdentity")
	require.NoError(t, err)

	prev, err := p.CodeAt(setup.Secret, t0.Add(-30*time.Second))
	require.NoError(t, err)
	cur, err := p.CodeAt(setup.Secret, t0)
	require.NoError(t, err)

	require.True(t, p.VerifyCodeAt(setup.Secret, cur, t0))
	if prev != cur {
		require.False(t, p.VerifyCodeAt(setup.Secret, prev, t0))
	}
}

func TestVerifyCode_UsesClock(t *testing.T) {
	p := totpx.New(totpx.DefaultOptions()).WithClock(func() time.Time { return t0 })
	setup, err := p.GenerateSetup("ana@example.com", "FortressIdentity")
	require.NoError(t, err)

	code, err := p.CodeAt(setup.Secret, t0)
	require.NoError(t, err)
	require.True(t, p.VerifyCode(setup.Secret, code))
}

func TestVerifyCode_BadInput(t *testing.T) {
	p := totpx.New(totpx.DefaultOptions())
	setup, err := p.GenerateSetup("ana@example.com", "FortressIdentity")
	require.NoError(t, err)
	code, err := p.CodeAt(setup.Secret, t0)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		code   string
	}{
		{"empty code", setup.Secret, ""},
		{"empty secret", "", code},
		{"non base32 secret", "not!base32!", code},
		{"short code", setup.Secret, "12345"},
		{"long code", setup.Secret, "1234567"},
		{"letters", setup.Secret, "abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				require.False(t, p.VerifyCodeAt(tt.secret, tt.code, t0))
			})
		})
	}
}
