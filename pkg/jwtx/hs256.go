package jwtx

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HS256Signer signs tokens with a shared HMAC-SHA256 secret.
type HS256Signer struct {
	key []byte
}

// NewHS256Signer copies secret and returns a signer. Secrets shorter than
// MinHMACKeyLength are rejected.
func NewHS256Signer(secret []byte) (*HS256Signer, error) {
	if len(secret) < MinHMACKeyLength {
		return nil, ErrWeakKey
	}
	return &HS256Signer{key: slices.Clone(secret)}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.key)
}

// HS256Verifier validates tokens produced by an HS256Signer sharing the
// same secret.
type HS256Verifier struct {
	key  []byte
	opts VerifyOptions
	now  func() time.Time
}

// NewHS256Verifier creates a verifier for secret with the given
// expectations.
func NewHS256Verifier(secret []byte, opts VerifyOptions) (*HS256Verifier, error) {
	if len(secret) < MinHMACKeyLength {
		return nil, ErrWeakKey
	}
	return &HS256Verifier{key: slices.Clone(secret), opts: opts, now: time.Now}, nil
}

// WithClock returns a copy of v that reads the time from now.
func (v *HS256Verifier) WithClock(now func() time.Time) *HS256Verifier {
	cp := *v
	cp.now = now
	return &cp
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.opts.Leeway),
		jwt.WithTimeFunc(v.now),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidClaim
	}

	// Now check all the claim requirements
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidClaim)
	}
	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.opts.Audience); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryWithLeeway(v.now(), v.opts.Leeway); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	default:
		return fmt.Errorf("%w: %w", ErrInvalidClaim, err)
	}
}
