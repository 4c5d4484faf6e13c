package http

import (
	"net/http"

	"github.com/aussiebroadwan/fortress/internal/identity/service"
	"github.com/aussiebroadwan/fortress/pkg/authsdk"
	"github.com/aussiebroadwan/fortress/pkg/httpx"
)

const (
	msgMFASetup   = "Scan the QR code or manually enter the secret key in your authenticator app (e.g., Google Authenticator). Then verify with a code to complete setup."
	msgMFAEnabled = "Two-Factor Authentication has been successfully enabled for your account."
)

// MFAHandler serves TOTP enrollment for the calling account.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnable handles POST /api/auth/mfa/enable
//
//	@Summary		Start two-factor enrollment
//	@Description	Issues a TOTP secret for the caller, replacing any unconfirmed one.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.EnableMFAResponse	"Secret and provisioning URI"
//	@Failure		401	{object}	authsdk.APIError			"Invalid or missing access token"
//	@Failure		409	{object}	authsdk.APIError			"Two-factor already enabled"
//	@Router			/api/auth/mfa/enable [post].
func (h *MFAHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	setup, err := h.MFAService.Enable(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.EnableMFAResponse{
		SecretKey: setup.Secret,
		QRCodeURI: setup.ProvisioningURI,
		Message:   msgMFASetup,
	})
}

// HandleConfirm handles POST /api/auth/mfa/confirm
//
//	@Summary		Confirm two-factor enrollment
//	@Description	Enables two-factor authentication when the code matches the pending secret.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ConfirmMFARequest	true	"Current TOTP code"
//	@Success		200		{object}	authsdk.ConfirmMFAResponse	"Enabled"
//	@Failure		400		{object}	authsdk.APIError			"Setup not started or wrong code"
//	@Failure		401		{object}	authsdk.APIError			"Invalid or missing access token"
//	@Failure		409		{object}	authsdk.APIError			"Two-factor already enabled"
//	@Router			/api/auth/mfa/confirm [post].
func (h *MFAHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ConfirmMFARequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if err := h.MFAService.Confirm(r.Context(), req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ConfirmMFAResponse{Success: true, Message: msgMFAEnabled})
}
