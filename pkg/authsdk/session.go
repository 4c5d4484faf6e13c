package authsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// ErrNoToken is returned by Session calls made without a token.
var ErrNoToken = errors.New("authsdk: session has no token")

// Session calls the authenticated endpoints with a bearer token. Tokens are
// not refreshed; log in again once it expires.
type Session struct {
	client *SDKClient
	token  string
}

// Token returns the bearer token the session sends.
func (s *Session) Token() string { return s.token }

func (s *Session) do(ctx context.Context, method, path string, body, out any) error {
	if s.token == "" {
		return ErrNoToken
	}
	return s.client.do(ctx, s.client.rc.R().SetAuthToken(s.token), method, path, body, out)
}

// EnableMFA starts TOTP enrollment for the caller.
func (s *Session) EnableMFA(ctx context.Context) (*EnableMFAResponse, error) {
	var out EnableMFAResponse
	if err := s.do(ctx, http.MethodPost, "/api/auth/mfa/enable", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmMFA finishes enrollment with a code from the authenticator app.
func (s *Session) ConfirmMFA(ctx context.Context, code string) (*ConfirmMFAResponse, error) {
	var out ConfirmMFAResponse
	if err := s.do(ctx, http.MethodPost, "/api/auth/mfa/confirm", ConfirmMFARequest{Code: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssignRole grants a role. Requires the Admin role.
func (s *Session) AssignRole(ctx context.Context, userID, roleName string) error {
	return s.do(ctx, http.MethodPost, "/api/auth/roles", RoleRequest{UserID: userID, RoleName: roleName}, nil)
}

// RemoveRole revokes a role. Requires the Admin role.
func (s *Session) RemoveRole(ctx context.Context, userID, roleName string) error {
	return s.do(ctx, http.MethodDelete, "/api/auth/roles", RoleRequest{UserID: userID, RoleName: roleName}, nil)
}

// Me describes the caller from their token.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	var out MeResponse
	if err := s.do(ctx, http.MethodGet, "/api/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile replaces the caller's names and email.
func (s *Session) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*ProfileResponse, error) {
	var out ProfileResponse
	if err := s.do(ctx, http.MethodPut, "/api/users/me", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword swaps the caller's password.
func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	return s.do(ctx, http.MethodPost, "/api/users/me/password",
		ChangePasswordRequest{CurrentPassword: current, NewPassword: next}, nil)
}

// Dashboard is the Admin landing endpoint.
func (s *Session) Dashboard(ctx context.Context) (*DashboardResponse, error) {
	var out DashboardResponse
	if err := s.do(ctx, http.MethodGet, "/api/admin/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ActivateAccount re-enables login for userID. Requires the Admin role.
func (s *Session) ActivateAccount(ctx context.Context, userID string) error {
	return s.do(ctx, http.MethodPost, "/api/admin/users/"+url.PathEscape(userID)+"/activate", nil, nil)
}

// DeactivateAccount blocks login for userID. Requires the Admin role.
func (s *Session) DeactivateAccount(ctx context.Context, userID string) error {
	return s.do(ctx, http.MethodPost, "/api/admin/users/"+url.PathEscape(userID)+"/deactivate", nil, nil)
}
