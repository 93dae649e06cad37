package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
)

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

// doRequest performs an unauthenticated request.
func (c *SDKClient) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// doAuthRequest performs a request carrying the session token as a bearer
// credential.
func (s *Session) doAuthRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrUnauthenticated
	}

	h := map[string]string{"Authorization": "Bearer " + token}
	for k, v := range headers {
		h[k] = v
	}

	resp, err := s.client.doRequest(ctx, method, path, body, h)
	if err != nil {
		return nil, err
	}

	// Refreshed tokens are returned on every authenticated response.
	if next := resp.Header.Get(RefreshedTokenHeader); next != "" {
		s.setToken(next)
	}
	return resp, nil
}

// decodeJSON decodes a JSON response into target. Any other status than
// expectedStatus becomes an *APIError.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	return decodeJSONAny(resp, target, expectedStatus)
}

func decodeJSONAny(resp *http.Response, target any, accepted ...int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if !slices.Contains(accepted, resp.StatusCode) {
		return parseErrorResponse(resp, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
