package authsdk

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/fortress/pkg/httpx"
)

// Error codes carried in the "error" field of every error response.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeValidation         = "validation_error"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeAccountInactive    = "account_inactive"
	ErrorCodeMFANotEnabled      = "mfa_not_enabled"
	ErrorCodeSetupNotInitiated  = "mfa_setup_not_initiated"
	ErrorCodeInvalidMFACode     = "invalid_mfa_code"
	ErrorCodeConflict           = "conflict"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeForbidden          = "forbidden"
	ErrorCodeRateLimited        = "rate_limit_exceeded"
	ErrorCodeServerError        = "server_error"
)

// APIError is an error response. The server writes it with WriteError and
// the client returns it for any non-2xx status.
type APIError struct {
	StatusCode int `json:"-"`

	Code        string            `json:"error"`
	Description string            `json:"error_description,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s (%d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as the JSON response body.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

// NewAPIError builds an APIError.
func NewAPIError(status int, code, description string) *APIError {
	return &APIError{StatusCode: status, Code: code, Description: description}
}

// HasCode reports whether err is an *APIError with the given code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func IsValidation(err error) bool         { return HasCode(err, ErrorCodeValidation) }
func IsInvalidCredentials(err error) bool { return HasCode(err, ErrorCodeInvalidCredentials) }
func IsConflict(err error) bool           { return HasCode(err, ErrorCodeConflict) }
func IsNotFound(err error) bool           { return HasCode(err, ErrorCodeNotFound) }
