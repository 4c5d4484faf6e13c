package httpx

import (
	"context"

	"github.com/aussiebroadwan/fortress/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyAccountID ctxKey = "account_id"
	CtxKeyClaims    ctxKey = "claims"
)

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyAccountID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// AccountIDFromContext returns the subject of the verified bearer token.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxKeyAccountID).(string)
	return id, ok && id != ""
}

// ClaimsFromContext returns the claims of the verified bearer token.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

// ContextIdentity resolves the caller from what AuthnMiddleware stored in
// the request context.
type ContextIdentity struct{}

func (ContextIdentity) CurrentAccountID(ctx context.Context) (string, bool) {
	return AccountIDFromContext(ctx)
}
