package service

import (
	"time"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	"github.com/aussiebroadwan/fortress/pkg/jwtx"
)

// TokenConfig is fixed at startup and shared by every issued token.
type TokenConfig struct {
	Issuer   string
	Audience []string
	TTL      time.Duration
}

// TokenIssuer turns an authenticated account into a signed access token.
type TokenIssuer struct {
	signer jwtx.Signer
	cfg    TokenConfig
	now    func() time.Time
}

// NewTokenIssuer panics if signer is nil. A zero TTL falls back to
// jwtx.DefaultAccessTokenTTL.
func NewTokenIssuer(signer jwtx.Signer, cfg TokenConfig) *TokenIssuer {
	mustNotNil("signer", signer)
	if cfg.TTL <= 0 {
		cfg.TTL = jwtx.DefaultAccessTokenTTL
	}
	cfg.Audience = append([]string(nil), cfg.Audience...)
	return &TokenIssuer{signer: signer, cfg: cfg, now: utcNow}
}

// Issue signs a token for a carrying its id, email, names and every held
// role, expiring TTL from now.
func (t *TokenIssuer) Issue(a domain.Account) (string, error) {
	claims := jwtx.NewAccessClaims(jwtx.Identity{
		Subject:    a.ID(),
		Email:      a.Email(),
		GivenName:  a.FirstName(),
		FamilyName: a.LastName(),
		Roles:      domain.RoleNames(a.Roles()),
	}, t.cfg.Issuer, t.cfg.Audience, t.cfg.TTL, t.now())

	return t.signer.Sign(claims)
}
