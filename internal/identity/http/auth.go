package http

import (
	"net/http"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	"github.com/aussiebroadwan/fortress/internal/identity/service"
	"github.com/aussiebroadwan/fortress/pkg/authsdk"
	"github.com/aussiebroadwan/fortress/pkg/httpx"
)

const (
	msgTwoFactorRequired = "Two-factor authentication code required. Please verify with your authenticator app."
	msgLoginSucceeded    = "Login successful."
	msgMFALoginSucceeded = "Login successful with two-factor authentication."
)

// AuthHandler serves the public authentication endpoints.
type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleRegister handles POST /api/auth/register
//
//	@Summary		Register an account
//	@Description	Creates an active account holding the User role. Passwords need at least 12 characters with upper case, lower case, a digit and a special character.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest		true	"New account"
//	@Success		201		{object}	authsdk.RegisterResponse	"Account id"
//	@Failure		400		{object}	authsdk.APIError			"Validation failed"
//	@Failure		409		{object}	authsdk.APIError			"Email already registered"
//	@Failure		429		{object}	authsdk.APIError			"Rate limited"
//	@Router			/api/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	id, err := h.AuthService.Register(r.Context(), domain.Registration{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterResponse{UserID: id})
}

// HandleLogin handles POST /api/auth/login
//
//	@Summary		Log in
//	@Description	Checks email and password. Accounts with two-factor enabled get requiresTwoFactor instead of a token and must call /api/auth/mfa/verify.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest			true	"Credentials"
//	@Success		200		{object}	authsdk.AuthenticationResponse	"Token or two-factor challenge"
//	@Failure		400		{object}	authsdk.APIError				"Validation failed"
//	@Failure		401		{object}	authsdk.APIError				"Invalid email or password"
//	@Failure		403		{object}	authsdk.APIError				"Account inactive"
//	@Failure		429		{object}	authsdk.APIError				"Rate limited"
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	msg := msgLoginSucceeded
	if res.RequiresTwoFactor {
		msg = msgTwoFactorRequired
	}
	httpx.WriteJSON(w, http.StatusOK, authResponse(res, msg))
}

// HandleVerifyMFA handles POST /api/auth/mfa/verify
//
//	@Summary		Complete a two-factor login
//	@Description	Re-checks the credentials and the current TOTP code, then issues a token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyMFARequest		true	"Credentials and code"
//	@Success		200		{object}	authsdk.AuthenticationResponse	"Token"
//	@Failure		400		{object}	authsdk.APIError				"Validation failed, MFA not enabled or wrong code"
//	@Failure		401		{object}	authsdk.APIError				"Invalid email or password"
//	@Failure		403		{object}	authsdk.APIError				"Account inactive"
//	@Failure		429		{object}	authsdk.APIError				"Rate limited"
//	@Router			/api/auth/mfa/verify [post].
func (h *AuthHandler) HandleVerifyMFA(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyMFARequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	res, err := h.AuthService.VerifyMFALogin(r.Context(), req.Email, req.Password, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authResponse(res, msgMFALoginSucceeded))
}

func authResponse(res service.LoginResult, msg string) authsdk.AuthenticationResponse {
	return authsdk.AuthenticationResponse{
		Token:             res.Token,
		UserID:            res.AccountID,
		RequiresTwoFactor: res.RequiresTwoFactor,
		Message:           msg,
	}
}
