package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *SDKClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewSDKClientWithHTTP(srv.URL+"/", srv.Client())
}

func TestLogin_DecodesResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "ana@example.com", req.Email)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"userId":"u1","requiresTwoFactor":true,"message":"code required"}`))
	})

	resp, err := c.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)
	require.True(t, resp.RequiresTwoFactor)
	require.Empty(t, resp.Token)
	require.Equal(t, "u1", resp.UserID)
}

func TestErrors(t *testing.T) {
	t.Run("api error body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			e := &APIError{
				StatusCode:  http.StatusBadRequest,
				Code:        ErrorCodeValidation,
				Description: "request is invalid",
				Details:     map[string]string{"email": "is required"},
			}
			e.WriteError(w)
		})

		_, err := c.Register(context.Background(), RegisterRequest{})
		require.True(t, IsValidation(err))
		require.False(t, IsConflict(err))

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		require.Equal(t, "is required", apiErr.Details["email"])
		require.Equal(t, "validation_error: request is invalid", apiErr.Error())
	})

	t.Run("non json body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		})

		_, err := c.GetLiveness(context.Background())
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		require.Equal(t, ErrorCodeServerError, apiErr.Code)
		require.Equal(t, "upstream exploded", apiErr.Description)
	})
}

func TestSession_SendsBearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/auth/roles":
			require.Equal(t, http.MethodDelete, r.Method)
			var req RoleRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, RoleRequest{UserID: "u1", RoleName: "Admin"}, req)
			w.WriteHeader(http.StatusNoContent)
		case "/api/admin/users/u1/deactivate":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	s := c.Session("tok-123")
	require.Equal(t, "tok-123", s.Token())
	require.NoError(t, s.RemoveRole(context.Background(), "u1", "Admin"))
	require.NoError(t, s.DeactivateAccount(context.Background(), "u1"))
}

func TestSession_NoToken(t *testing.T) {
	c := NewSDKClient("http://127.0.0.1:1")
	_, err := c.Session("").Me(context.Background())
	require.ErrorIs(t, err, ErrNoToken)
}
