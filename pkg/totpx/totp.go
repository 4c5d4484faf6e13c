// Package totpx issues and checks RFC 6238 time-based one-time passwords
// for authenticator apps.
package totpx

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ErrInvalidInput is returned when a setup is requested without a label or
// issuer.
var ErrInvalidInput = errors.New("totpx: label and issuer are required")

// Options configure a Provider. Zero Period, Digits and SecretSize take the
// authenticator-app defaults (30 second steps, six SHA-1 digits, 160-bit
// secret). Skew is taken literally: 0 accepts only the current step.
type Options struct {
	Period     uint
	Skew       uint // steps of drift tolerated each way
	Digits     otp.Digits
	SecretSize uint // bytes
}

func (o Options) withDefaults() Options {
	if o.Period == 0 {
		o.Period = 30
	}
	if o.Digits == 0 {
		o.Digits = otp.DigitsSix
	}
	if o.SecretSize == 0 {
		o.SecretSize = 20
	}
	return o
}

// DefaultOptions is the configuration used in production.
func DefaultOptions() Options {
	return Options{Skew: 1}.withDefaults()
}

// Setup is what a user needs to enrol an authenticator app.
type Setup struct {
	Secret string // Base32, unpadded
	URI    string // otpauth:// provisioning URI
}

// Provider generates TOTP secrets and validates codes. It holds no
// per-user state and is safe for concurrent use.
type Provider struct {
	opts Options
	now  func() time.Time
}

// New returns a Provider using opts.
func New(opts Options) *Provider {
	return &Provider{opts: opts.withDefaults(), now: time.Now}
}

// WithClock returns a copy of p that reads the time from now. Used by tests.
func (p *Provider) WithClock(now func() time.Time) *Provider {
	cp := *p
	cp.now = now
	return &cp
}

// Options reports the effective options.
func (p *Provider) Options() Options { return p.opts }

// GenerateSetup creates a fresh random secret and its provisioning URI
// otpauth://totp/<issuer>:<label>?secret=<secret>&issuer=<issuer>.
func (p *Provider) GenerateSetup(label, issuer string) (Setup, error) {
	if strings.TrimSpace(label) == "" || strings.TrimSpace(issuer) == "" {
		return Setup{}, ErrInvalidInput
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: label,
		Period:      p.opts.Period,
		SecretSize:  p.opts.SecretSize,
		Digits:      p.opts.Digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Setup{}, fmt.Errorf("totpx: generate key: %w", err)
	}

	secret := key.Secret()
	uri := fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		escapeDataString(issuer),
		escapeDataString(label),
		secret,
		escapeDataString(issuer),
	)
	return Setup{Secret: secret, URI: uri}, nil
}

// VerifyCode reports whether code is valid for secret at the current time,
// allowing the configured drift. Bad input of any kind yields false.
func (p *Provider) VerifyCode(secret, code string) bool {
	return p.VerifyCodeAt(secret, code, p.now())
}

// VerifyCodeAt is VerifyCode against an explicit instant.
func (p *Provider) VerifyCodeAt(secret, code string, at time.Time) bool {
	if secret == "" || code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), secret, at.UTC(), totp.ValidateOpts{
		Period:    p.opts.Period,
		Skew:      p.opts.Skew,
		Digits:    p.opts.Digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// CodeAt returns the code for secret at the given instant.
func (p *Provider) CodeAt(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at.UTC(), totp.ValidateOpts{
		Period:    p.opts.Period,
		Digits:    p.opts.Digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// escapeDataString percent-encodes everything outside the RFC 3986
// unreserved set, so spaces become %20 rather than '+'.
func escapeDataString(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
