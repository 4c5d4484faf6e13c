package httpx_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/fortress/pkg/httpx"
	"github.com/aussiebroadwan/fortress/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newVerifier(t *testing.T) jwtx.Verifier {
	t.Helper()
	v, err := jwtx.NewHS256Verifier(testKey, jwtx.VerifyOptions{Issuer: "test"})
	require.NoError(t, err)
	return v
}

func signToken(t *testing.T, sub string, roles ...string) string {
	t.Helper()
	s, err := jwtx.NewHS256Signer(testKey)
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims(jwtx.Identity{Subject: sub, Roles: roles}, "test", nil, time.Minute, time.Now())
	tok, err := s.Sign(claims)
	require.NoError(t, err)
	return tok
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("first"), mw("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestAuthnMiddleware(t *testing.T) {
	var gotID string
	var gotClaims jwtx.Claims
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = httpx.ContextIdentity{}.CurrentAccountID(r.Context())
		gotClaims, _ = httpx.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), httpx.AuthnMiddleware(newVerifier(t)))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic Zm9vOmJhcg==", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"valid token", "Bearer " + signToken(t, "acc-1", "User"), http.StatusNoContent},
		{"scheme is case insensitive", "bearer " + signToken(t, "acc-1", "User"), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				require.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)

				var body httpx.ErrorBody
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				require.Equal(t, "invalid_token", body.Error)
			}
		})
	}

	require.Equal(t, "acc-1", gotID)
	require.Equal(t, []string{"User"}, gotClaims.Roles)
}

func TestRequireAnyRole(t *testing.T) {
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), httpx.AuthnMiddleware(newVerifier(t)), httpx.RequireAnyRole("Admin"))

	call := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusNoContent, call(signToken(t, "acc-1", "User", "Admin")).Code)

	rec := call(signToken(t, "acc-2", "User"))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), `"error":"forbidden"`)

	t.Run("without authn", func(t *testing.T) {
		bare := httpx.RequireAnyRole("Admin")(http.NotFoundHandler())
		rec := httptest.NewRecorder()
		bare.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestContextIdentity_Empty(t *testing.T) {
	id, ok := httpx.ContextIdentity{}.CurrentAccountID(context.Background())
	require.False(t, ok)
	require.Empty(t, id)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"ok", `{"email":"ana@example.com"}`, ""},
		{"empty", ``, "request body is empty"},
		{"unknown field", `{"email":"a","admin":true}`, "unknown field"},
		{"trailing object", `{"email":"a"}{"email":"b"}`, "single JSON object"},
		{"wrong type", `{"email":5}`, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := httpx.DecodeJSON(httptest.NewRecorder(), req, &p)
			if tt.wantErr == "" {
				require.NoError(t, err)
				require.Equal(t, "ana@example.com", p.Email)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestWriteJSON_NoCache(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteJSON(rec, http.StatusCreated, map[string]string{"userId": "x"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"userId":"x"}`, rec.Body.String())
}
