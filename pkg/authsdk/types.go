package authsdk

// ============================================================================
// Authentication
// ============================================================================

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// RegisterResponse carries the id of the new account.
type RegisterResponse struct {
	UserID string `json:"userId"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyMFARequest is the body of POST /api/auth/mfa/verify. The password
// is sent again because the server keeps no state between the two steps.
type VerifyMFARequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// AuthenticationResponse is returned by login and MFA verify. When
// RequiresTwoFactor is set Token is empty and the client must call
// VerifyMFA.
type AuthenticationResponse struct {
	Token             string `json:"token,omitempty"`
	UserID            string `json:"userId"`
	RequiresTwoFactor bool   `json:"requiresTwoFactor"`
	Message           string `json:"message,omitempty"`
}

// ============================================================================
// MFA enrollment
// ============================================================================

// EnableMFAResponse carries the secret to load into an authenticator app.
// QRCodeURI is the otpauth:// provisioning URI.
type EnableMFAResponse struct {
	SecretKey string `json:"secretKey"`
	QRCodeURI string `json:"qrCodeUri"`
	Message   string `json:"message"`
}

// ConfirmMFARequest is the body of POST /api/auth/mfa/confirm.
type ConfirmMFARequest struct {
	Code string `json:"code"`
}

type ConfirmMFAResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ============================================================================
// Roles and accounts
// ============================================================================

// RoleRequest is the body of POST and DELETE /api/auth/roles.
type RoleRequest struct {
	UserID   string `json:"userId"`
	RoleName string `json:"roleName"`
}

// MeResponse describes the caller as seen in their token.
type MeResponse struct {
	Message   string   `json:"message"`
	UserID    string   `json:"userId"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
}

// UpdateProfileRequest is the body of PUT /api/users/me.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// ProfileResponse is the stored state of an account.
type ProfileResponse struct {
	UserID     string   `json:"userId"`
	Email      string   `json:"email"`
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName"`
	FullName   string   `json:"fullName"`
	Roles      []string `json:"roles"`
	IsActive   bool     `json:"isActive"`
	MFAEnabled bool     `json:"mfaEnabled"`
}

// ChangePasswordRequest is the body of POST /api/users/me/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type DashboardResponse struct {
	Message   string `json:"message"`
	UserEmail string `json:"userEmail"`
	UserID    string `json:"userId"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}
