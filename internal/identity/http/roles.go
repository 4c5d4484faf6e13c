package http

import (
	"net/http"

	"github.com/aussiebroadwan/fortress/internal/identity/service"
	"github.com/aussiebroadwan/fortress/pkg/authsdk"
	"github.com/aussiebroadwan/fortress/pkg/httpx"
)

type RolesHandler struct {
	RolesService *service.RolesService
}

// HandleAssign handles POST /api/auth/roles
//
//	@Summary		Assign a role
//	@Description	Grants Admin or User to an account. Requires the Admin role.
//	@Tags			Roles
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	authsdk.RoleRequest	true	"Account and role"
//	@Success		204		"Assigned"
//	@Failure		400		{object}	authsdk.APIError	"Unknown role"
//	@Failure		401		{object}	authsdk.APIError	"Invalid or missing access token"
//	@Failure		403		{object}	authsdk.APIError	"Caller is not an Admin"
//	@Failure		404		{object}	authsdk.APIError	"Account not found"
//	@Failure		409		{object}	authsdk.APIError	"Role already held"
//	@Router			/api/auth/roles [post].
func (h *RolesHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RoleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if err := h.RolesService.AssignRole(r.Context(), req.UserID, req.RoleName); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemove handles DELETE /api/auth/roles
//
//	@Summary		Remove a role
//	@Description	Revokes a role from an account. The last role cannot be removed. Requires the Admin role.
//	@Tags			Roles
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	authsdk.RoleRequest	true	"Account and role"
//	@Success		204		"Removed"
//	@Failure		400		{object}	authsdk.APIError	"Unknown role or last role"
//	@Failure		401		{object}	authsdk.APIError	"Invalid or missing access token"
//	@Failure		403		{object}	authsdk.APIError	"Caller is not an Admin"
//	@Failure		404		{object}	authsdk.APIError	"Account not found"
//	@Failure		409		{object}	authsdk.APIError	"Role not held"
//	@Router			/api/auth/roles [delete].
func (h *RolesHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RoleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if err := h.RolesService.RemoveRole(r.Context(), req.UserID, req.RoleName); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
