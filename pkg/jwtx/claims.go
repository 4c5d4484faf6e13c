package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTokenTTL is used when no expiry is configured.
const DefaultAccessTokenTTL = 60 * time.Minute

// Claims are the access-token claims. Registered claims carry sub, jti,
// iss, aud and exp; the rest describe the account the token was issued to.
type Claims struct {
	jwt.RegisteredClaims

	Email      string `json:"email,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`

	// One entry per role held at issue time.
	Roles []string `json:"role,omitempty"`
}

// Identity is the subset of an account that ends up in a token.
type Identity struct {
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
	Roles      []string
}

// NewAccessClaims builds claims for id expiring ttl after now.
func NewAccessClaims(id Identity, issuer string, audience []string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.Subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email:      id.Email,
		GivenName:  id.GivenName,
		FamilyName: id.FamilyName,
		Roles:      slices.Clone(id.Roles),
	}
}

// NewJTI returns a random UUID for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// HasRole reports whether the token carries role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole reports whether the token carries at least one of roles.
func (c *Claims) HasAnyRole(roles ...string) bool {
	return slices.ContainsFunc(roles, c.HasRole)
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiryWithLeeway checks exp and nbf against now, allowing leeway
// for clock skew between services.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
