package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/fortress/pkg/jwtx"
	"github.com/aussiebroadwan/fortress/pkg/slogx"
)

// AuthnMiddleware requires a valid bearer token and puts its subject and
// claims into the request context.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			scheme, raw, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			raw = strings.TrimSpace(raw)
			if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("jwt verify failed", "error", err)
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = slogx.With(contextWithAuth(ctx, claims), "account_id", claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAnyRole lets the request through when the token carries at least
// one of roles. Must run after AuthnMiddleware.
func RequireAnyRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}
			if !claims.HasAnyRole(roles...) {
				slogx.FromContext(r.Context()).Info("role check failed",
					"account_id", claims.Subject,
					"required", roles,
				)
				WriteError(w, http.StatusForbidden, "forbidden", "missing required role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750 style challenge, with a JSON body for API clients.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token", desc)
}
