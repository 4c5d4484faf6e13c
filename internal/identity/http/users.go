package http

import (
	"net/http"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	"github.com/aussiebroadwan/fortress/internal/identity/service"
	"github.com/aussiebroadwan/fortress/pkg/authsdk"
	"github.com/aussiebroadwan/fortress/pkg/httpx"
)

// UsersHandler serves the caller's own account.
type UsersHandler struct {
	AccountService *service.AccountService
}

// HandleMe handles GET /api/users/me
//
//	@Summary		Describe the caller
//	@Description	Echoes the identity carried by the access token.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse	"Caller"
//	@Failure		401	{object}	authsdk.APIError	"Invalid or missing access token"
//	@Router			/api/users/me [get].
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok || claims.Email == "" {
		writeServiceError(w, r, domain.ErrUnauthenticated)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{
		Message:   "Hello, " + claims.Email,
		UserID:    claims.Subject,
		Email:     claims.Email,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
		Roles:     claims.Roles,
	})
}

// HandleUpdateProfile handles PUT /api/users/me
//
//	@Summary		Update the caller's profile
//	@Description	Replaces first name, last name and email. The token keeps the old values until the next login.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.UpdateProfileRequest	true	"Profile"
//	@Success		200		{object}	authsdk.ProfileResponse			"Stored profile"
//	@Failure		400		{object}	authsdk.APIError				"Validation failed"
//	@Failure		401		{object}	authsdk.APIError				"Invalid or missing access token"
//	@Failure		409		{object}	authsdk.APIError				"Email already registered"
//	@Router			/api/users/me [put].
func (h *UsersHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.AccountIDFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, domain.ErrUnauthenticated)
		return
	}

	var req authsdk.UpdateProfileRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	a, err := h.AccountService.UpdateProfile(r.Context(), id, req.FirstName, req.LastName, req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profileResponse(a))
}

// HandleChangePassword handles POST /api/users/me/password
//
//	@Summary		Change the caller's password
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	authsdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		204		"Changed"
//	@Failure		400		{object}	authsdk.APIError	"New password rejected"
//	@Failure		401		{object}	authsdk.APIError	"Wrong current password or missing token"
//	@Router			/api/users/me/password [post].
func (h *UsersHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.AccountIDFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, domain.ErrUnauthenticated)
		return
	}

	var req authsdk.ChangePasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if err := h.AccountService.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func profileResponse(a domain.Account) authsdk.ProfileResponse {
	return authsdk.ProfileResponse{
		UserID:     a.ID(),
		Email:      a.Email(),
		FirstName:  a.FirstName(),
		LastName:   a.LastName(),
		FullName:   a.FullName(),
		Roles:      domain.RoleNames(a.Roles()),
		IsActive:   a.IsActive(),
		MFAEnabled: a.MFA().Enabled(),
	}
}
