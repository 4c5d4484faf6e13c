package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	"github.com/aussiebroadwan/fortress/pkg/authsdk"
	"github.com/aussiebroadwan/fortress/pkg/slogx"
)

// writeServiceError maps a service error to its status and error code.
// Anything that is not a domain error kind is logged and answered with an
// opaque 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.StatusCode == http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
	} else {
		slogx.FromContext(r.Context()).Debug("request rejected", "code", apiErr.Code, "error", err)
	}
	apiErr.WriteError(w)
}

func toAPIError(err error) *authsdk.APIError {
	switch {
	case errors.Is(err, domain.ErrValidation):
		e := authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeValidation, "One or more validation errors occurred.")
		e.Details = domain.ValidationDetails(err)
		return e
	case errors.Is(err, domain.ErrInvalidCredentials):
		return authsdk.NewAPIError(http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials, "Invalid email or password.")
	case errors.Is(err, domain.ErrAccountInactive):
		return authsdk.NewAPIError(http.StatusForbidden, authsdk.ErrorCodeAccountInactive, "Account is inactive.")
	case errors.Is(err, domain.ErrMFANotEnabled):
		return authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeMFANotEnabled, "Two-factor authentication is not enabled for this account.")
	case errors.Is(err, domain.ErrSetupNotInitiated):
		return authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeSetupNotInitiated, "Two-factor setup has not been started. Call enable first.")
	case errors.Is(err, domain.ErrInvalidMFACode):
		return authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidMFACode, "Invalid two-factor code.")
	case errors.Is(err, domain.ErrConflict):
		return authsdk.NewAPIError(http.StatusConflict, authsdk.ErrorCodeConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return authsdk.NewAPIError(http.StatusNotFound, authsdk.ErrorCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		return authsdk.NewAPIError(http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken, "Authentication required.")
	}
	return authsdk.NewAPIError(http.StatusInternalServerError, authsdk.ErrorCodeServerError, "An unexpected error occurred. Please try again later.")
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Debug("bad request body", "error", err)
	authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, err.Error()).WriteError(w)
}
