package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every request made by a client from NewSDKClient.
const DefaultTimeout = 10 * time.Second

// SDKClient talks to the public endpoints of the identity service.
type SDKClient struct {
	rc *resty.Client
}

// NewSDKClient returns a client for the service at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return NewSDKClientWithHTTP(baseURL, &http.Client{Timeout: DefaultTimeout})
}

// NewSDKClientWithHTTP is NewSDKClient over a caller supplied http.Client,
// for example an httptest server's.
func NewSDKClientWithHTTP(baseURL string, hc *http.Client) *SDKClient {
	rc := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	return &SDKClient{rc: rc}
}

// Register creates an account and returns its id.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.do(ctx, c.rc.R(), http.MethodPost, "/api/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login checks the password. For accounts with MFA enabled the response has
// RequiresTwoFactor set and no token.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*AuthenticationResponse, error) {
	var out AuthenticationResponse
	if err := c.do(ctx, c.rc.R(), http.MethodPost, "/api/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyMFA completes a login that returned RequiresTwoFactor.
func (c *SDKClient) VerifyMFA(ctx context.Context, req VerifyMFARequest) (*AuthenticationResponse, error) {
	var out AuthenticationResponse
	if err := c.do(ctx, c.rc.R(), http.MethodPost, "/api/auth/mfa/verify", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Session returns a Session that authenticates with token.
func (c *SDKClient) Session(token string) *Session {
	return &Session{client: c, token: token}
}

// do sends body as JSON and decodes a 2xx response into out, which may be
// nil for empty responses.
func (c *SDKClient) do(ctx context.Context, req *resty.Request, method, path string, body, out any) error {
	req = req.SetContext(ctx).SetError(&APIError{})
	if body != nil {
		req = req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		req = req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return responseError(resp)
}

func responseError(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr.Code == "" {
		apiErr = &APIError{
			Code:        ErrorCodeServerError,
			Description: strings.TrimSpace(string(resp.Body())),
		}
		if apiErr.Description == "" {
			apiErr.Description = http.StatusText(resp.StatusCode())
		}
	}
	apiErr.StatusCode = resp.StatusCode()
	return apiErr
}
