package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
)

// RefreshedTokenHeader carries a re-issued session token when the server
// extends a session.
const RefreshedTokenHeader = "X-Session-Token"

// Session is an authenticated session. Tokens re-issued by the server are
// picked up transparently.
type Session struct {
	client *SDKClient

	mu    sync.RWMutex
	token string
}

// Token returns the current session token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Get returns the current session view. An expired or unknown session
// yields an empty response, not an error.
func (s *Session) Get(ctx context.Context) (*SessionResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/auth/session", nil, nil)
	if err != nil {
		return nil, err
	}

	var out SessionResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the signed-in user.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignOut ends the session. The Session must not be used afterwards.
func (s *Session) SignOut(ctx context.Context) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/api/auth/signout", nil, nil)
	if err != nil {
		return err
	}

	var out SignOutResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return err
	}
	s.setToken("")
	return nil
}

// UpdateUserRole changes a user's role. Requires an ADMIN session.
func (s *Session) UpdateUserRole(ctx context.Context, userID, role string) (*UserResponse, error) {
	body, err := json.Marshal(UpdateRoleRequest{Role: role})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	path := "/api/admin/users/" + url.PathEscape(userID) + "/role"
	resp, err := s.doAuthRequest(ctx, http.MethodPatch, path, bytes.NewReader(body), jsonHeaders)
	if err != nil {
		return nil, err
	}

	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Do sends an authenticated request to any path, for example a protected
// collaborator route. The caller closes the response body.
func (s *Session) Do(ctx context.Context, method, path string) (*http.Response, error) {
	return s.doAuthRequest(ctx, method, path, nil, nil)
}
