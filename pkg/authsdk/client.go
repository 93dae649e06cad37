package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SDKClient is a client for the shopauth service.
// It provides access to public operations and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new client for the service at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			// Sign-in redirects are reported in the response body, never followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Register creates a credentials account.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/register", bytes.NewReader(body), jsonHeaders)
	if err != nil {
		return nil, err
	}

	var out RegisterResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignInWithCredentials signs in with email and password and returns an
// authenticated Session.
func (c *SDKClient) SignInWithCredentials(ctx context.Context, email, password string) (*Session, error) {
	out, err := c.SignIn(ctx, CredentialsRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return c.NewSession(out.Token), nil
}

// SignIn posts to the credentials callback and returns the raw response,
// including the validated redirect target.
func (c *SDKClient) SignIn(ctx context.Context, req CredentialsRequest) (*SignInResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/callback/credentials", bytes.NewReader(body), jsonHeaders)
	if err != nil {
		return nil, err
	}

	var out SignInResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// NewSession wraps an existing session token.
func (c *SDKClient) NewSession(token string) *Session {
	return &Session{client: c, token: token}
}

// Providers lists the enabled sign-in providers.
func (c *SDKClient) Providers(ctx context.Context) (ProvidersResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/auth/providers", nil, nil)
	if err != nil {
		return nil, err
	}

	var out ProvidersResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// RequestVerification issues a verification token for identifier. The token
// itself is delivered out of band.
func (c *SDKClient) RequestVerification(ctx context.Context, identifier string) (*VerificationResponse, error) {
	body, err := json.Marshal(VerificationRequest{Identifier: identifier})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/verification", bytes.NewReader(body), jsonHeaders)
	if err != nil {
		return nil, err
	}

	var out VerificationResponse
	if err := decodeJSON(resp, &out, http.StatusAccepted); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify redeems a verification token. A token can be redeemed once.
func (c *SDKClient) Verify(ctx context.Context, identifier, token string) (*VerifyResponse, error) {
	q := url.Values{"identifier": {identifier}, "token": {token}}

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/auth/verify?"+q.Encode(), nil, nil)
	if err != nil {
		return nil, err
	}

	var out VerifyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports store reachability. A degraded service answers 503 with
// the same body, which is returned together with the error.
func (c *SDKClient) Health(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/health", nil, nil)
	if err != nil {
		return nil, err
	}

	var out HealthResponse
	if err := decodeJSONAny(resp, &out, http.StatusOK, http.StatusServiceUnavailable); err != nil {
		return nil, err
	}
	if out.Services.Database != HealthHealthy {
		return &out, &APIError{
			StatusCode:  http.StatusServiceUnavailable,
			Code:        ErrorCodeUnavailable,
			Description: "database is " + out.Services.Database,
		}
	}
	return &out, nil
}

// Livez checks that the process is serving.
func (c *SDKClient) Livez(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/livez", nil, nil)
	if err != nil {
		return err
	}

	var out LivezResponse
	return decodeJSON(resp, &out, http.StatusOK)
}
