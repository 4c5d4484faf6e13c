/*
Package authsdk provides the wire types and a Go client for the Fortress
identity service.

# Client vs Session

SDKClient covers the public endpoints: registration, login, the MFA login
step and health probes. Logging in yields a bearer token which a Session
carries for the authenticated endpoints.

	client := authsdk.NewSDKClient("https://id.example.com")

	resp, err := client.Login(ctx, authsdk.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	if resp.RequiresTwoFactor {
		resp, err = client.VerifyMFA(ctx, authsdk.VerifyMFARequest{
			Email:    email,
			Password: password,
			Code:     code,
		})
		if err != nil {
			return err
		}
	}

	session := client.Session(resp.Token)
	me, err := session.Me(ctx)

# Errors

Every non-2xx response is returned as *APIError. Use errors.As to inspect
the error code, or the Is* helpers for the common cases:

	_, err := client.Register(ctx, req)
	if authsdk.IsConflict(err) {
		// email already registered
	}

The server uses the same type to write its error responses, so the codes
in this package are the complete list.
*/
package authsdk
