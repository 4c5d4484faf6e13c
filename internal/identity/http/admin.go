package http

import (
	"net/http"

	"github.com/aussiebroadwan/fortress/internal/identity/service"
	"github.com/aussiebroadwan/fortress/pkg/authsdk"
	"github.com/aussiebroadwan/fortress/pkg/httpx"
)

// AdminHandler serves the Admin-only endpoints. The router enforces the
// role before any of these run.
type AdminHandler struct {
	AccountService *service.AccountService
}

// HandleDashboard handles GET /api/admin/dashboard
//
//	@Summary		Admin dashboard
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.DashboardResponse	"Greeting"
//	@Failure		401	{object}	authsdk.APIError			"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.APIError			"Caller is not an Admin"
//	@Router			/api/admin/dashboard [get].
func (h *AdminHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFromContext(r.Context())

	email := claims.Email
	if email == "" {
		email = "Unknown"
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.DashboardResponse{
		Message:   "Welcome to the admin dashboard, " + email,
		UserEmail: email,
		UserID:    claims.Subject,
	})
}

// HandleActivate handles POST /api/admin/users/{id}/activate
//
//	@Summary		Activate an account
//	@Tags			Admin
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Account id"
//	@Success		204	"Activated"
//	@Failure		401	{object}	authsdk.APIError	"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.APIError	"Caller is not an Admin"
//	@Failure		404	{object}	authsdk.APIError	"Account not found"
//	@Failure		409	{object}	authsdk.APIError	"Already active"
//	@Router			/api/admin/users/{id}/activate [post].
func (h *AdminHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	if err := h.AccountService.Activate(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeactivate handles POST /api/admin/users/{id}/deactivate
//
//	@Summary		Deactivate an account
//	@Description	Blocks login without deleting the account. Tokens already issued stay valid until they expire.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Account id"
//	@Success		204	"Deactivated"
//	@Failure		401	{object}	authsdk.APIError	"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.APIError	"Caller is not an Admin"
//	@Failure		404	{object}	authsdk.APIError	"Account not found"
//	@Failure		409	{object}	authsdk.APIError	"Already inactive"
//	@Router			/api/admin/users/{id}/deactivate [post].
func (h *AdminHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.AccountService.Deactivate(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
